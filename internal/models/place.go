package models

import "go.mongodb.org/mongo-driver/bson/primitive"

type Location struct {
	Lat float64 `bson:"lat" json:"lat"`
	Lng float64 `bson:"lng" json:"lng"`
}

// Place is a geotagged listing. Address, Location, Image and Creator are
// fixed at creation; only Title and Description are editable.
type Place struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Title       string             `bson:"title" json:"title"`
	Description string             `bson:"description" json:"description"`
	Image       string             `bson:"image" json:"image"`
	Address     string             `bson:"address" json:"address"`
	Location    Location           `bson:"location" json:"location"`
	Creator     primitive.ObjectID `bson:"creator" json:"creator"`
}
