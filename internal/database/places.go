package database

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"places-backend/internal/models"
)

func (s *Store) FindPlaceByID(ctx context.Context, id primitive.ObjectID) (models.Place, error) {
	var place models.Place
	err := s.places().FindOne(ctx, bson.M{"_id": id}).Decode(&place)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.Place{}, ErrNotFound
	}
	if err != nil {
		return models.Place{}, fmt.Errorf("find place: %w", err)
	}
	return place, nil
}

// ListPlacesByUser follows user.places and returns the places in that order.
// ErrNotFound means the user does not exist.
func (s *Store) ListPlacesByUser(ctx context.Context, userID primitive.ObjectID) ([]models.Place, error) {
	user, err := s.FindUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(user.Places) == 0 {
		return []models.Place{}, nil
	}

	cursor, err := s.places().Find(ctx, bson.M{"_id": bson.M{"$in": user.Places}})
	if err != nil {
		return nil, fmt.Errorf("find places: %w", err)
	}
	defer cursor.Close(ctx)

	var found []models.Place
	if err := cursor.All(ctx, &found); err != nil {
		return nil, fmt.Errorf("decode places: %w", err)
	}

	byID := make(map[primitive.ObjectID]models.Place, len(found))
	for _, place := range found {
		byID[place.ID] = place
	}
	places := make([]models.Place, 0, len(found))
	for _, id := range user.Places {
		if place, ok := byID[id]; ok {
			places = append(places, place)
		}
	}
	return places, nil
}

// CreatePlace inserts place and appends its id to the creator's places in one
// transaction. If the creator does not exist nothing is written and
// ErrNotFound is returned.
func (s *Store) CreatePlace(ctx context.Context, place *models.Place) error {
	if place.ID.IsZero() {
		place.ID = primitive.NewObjectID()
	}

	err := s.withTransaction(ctx, func(sessCtx mongo.SessionContext) error {
		if _, err := s.places().InsertOne(sessCtx, place); err != nil {
			return fmt.Errorf("insert place: %w", err)
		}

		res, err := s.users().UpdateOne(sessCtx,
			bson.M{"_id": place.Creator},
			bson.M{"$push": bson.M{"places": place.ID}},
		)
		if err != nil {
			return fmt.Errorf("append place to user: %w", err)
		}
		if res.MatchedCount == 0 {
			return ErrNotFound
		}
		return nil
	})
	if err != nil {
		s.log.Warnf("[DB] create place %s rolled back: %v", place.ID.Hex(), err)
	}
	return err
}

// UpdatePlace persists the editable fields of place.
func (s *Store) UpdatePlace(ctx context.Context, place models.Place) error {
	res, err := s.places().UpdateOne(ctx,
		bson.M{"_id": place.ID},
		bson.M{"$set": bson.M{
			"title":       place.Title,
			"description": place.Description,
		}},
	)
	if err != nil {
		return fmt.Errorf("update place: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

type placeWithCreator struct {
	models.Place `bson:",inline"`
	CreatorUser  *models.User `bson:"creatorUser"`
}

// FindPlaceWithCreator loads a place joined with its creator. The returned
// user is zero when the creator document is gone.
func (s *Store) FindPlaceWithCreator(ctx context.Context, id primitive.ObjectID) (models.Place, models.User, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"_id": id}}},
		{{Key: "$limit", Value: 1}},
		{{Key: "$lookup", Value: bson.M{
			"from":         usersCollection,
			"localField":   "creator",
			"foreignField": "_id",
			"as":           "creatorUser",
		}}},
		{{Key: "$unwind", Value: bson.M{
			"path":                       "$creatorUser",
			"preserveNullAndEmptyArrays": true,
		}}},
	}

	cursor, err := s.places().Aggregate(ctx, pipeline)
	if err != nil {
		return models.Place{}, models.User{}, fmt.Errorf("lookup place: %w", err)
	}
	defer cursor.Close(ctx)

	var results []placeWithCreator
	if err := cursor.All(ctx, &results); err != nil {
		return models.Place{}, models.User{}, fmt.Errorf("decode place: %w", err)
	}
	if len(results) == 0 {
		return models.Place{}, models.User{}, ErrNotFound
	}

	result := results[0]
	if result.CreatorUser == nil {
		return result.Place, models.User{}, nil
	}
	return result.Place, *result.CreatorUser, nil
}

// DeletePlace removes place and pulls its id from the creator in one
// transaction. If either side is missing nothing is changed and ErrNotFound
// is returned.
func (s *Store) DeletePlace(ctx context.Context, place models.Place) error {
	err := s.withTransaction(ctx, func(sessCtx mongo.SessionContext) error {
		res, err := s.places().DeleteOne(sessCtx, bson.M{"_id": place.ID})
		if err != nil {
			return fmt.Errorf("delete place: %w", err)
		}
		if res.DeletedCount == 0 {
			return ErrNotFound
		}

		upd, err := s.users().UpdateOne(sessCtx,
			bson.M{"_id": place.Creator},
			bson.M{"$pull": bson.M{"places": place.ID}},
		)
		if err != nil {
			return fmt.Errorf("pull place from user: %w", err)
		}
		if upd.MatchedCount == 0 {
			return ErrNotFound
		}
		return nil
	})
	if err != nil {
		s.log.Warnf("[DB] delete place %s rolled back: %v", place.ID.Hex(), err)
	}
	return err
}
