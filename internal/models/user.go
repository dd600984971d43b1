package models

import "go.mongodb.org/mongo-driver/bson/primitive"

// User is an account. Places holds the ids of every place the user created,
// in creation order; each of those places has Creator == ID.
type User struct {
	ID       primitive.ObjectID   `bson:"_id,omitempty" json:"id"`
	Name     string               `bson:"name" json:"name"`
	Email    string               `bson:"email" json:"email"`
	Password string               `bson:"password" json:"-"`
	Image    string               `bson:"image" json:"image"`
	Places   []primitive.ObjectID `bson:"places" json:"places"`
}
