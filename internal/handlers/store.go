package handlers

import (
	"context"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"places-backend/internal/models"
)

// UserStore is the part of the persistence layer the user routes need.
// Lookups report a missing document as database.ErrNotFound.
type UserStore interface {
	ListUsers(ctx context.Context) ([]models.User, error)
	FindUserByID(ctx context.Context, id primitive.ObjectID) (models.User, error)
	FindUserByEmail(ctx context.Context, email string) (models.User, error)
	CreateUser(ctx context.Context, user *models.User) error
}

// PlaceStore is the part of the persistence layer the place routes need.
// CreatePlace and DeletePlace update the creator's place list atomically.
type PlaceStore interface {
	FindUserByID(ctx context.Context, id primitive.ObjectID) (models.User, error)
	FindPlaceByID(ctx context.Context, id primitive.ObjectID) (models.Place, error)
	ListPlacesByUser(ctx context.Context, userID primitive.ObjectID) ([]models.Place, error)
	CreatePlace(ctx context.Context, place *models.Place) error
	UpdatePlace(ctx context.Context, place models.Place) error
	FindPlaceWithCreator(ctx context.Context, id primitive.ObjectID) (models.Place, models.User, error)
	DeletePlace(ctx context.Context, place models.Place) error
}

type Pinger interface {
	Ping(ctx context.Context) error
}
