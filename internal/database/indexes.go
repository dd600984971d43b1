package database

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// EnsureIndexes also creates both collections, which transactions on older
// servers cannot do implicitly.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	if err := s.ensureUserIndexes(ctx); err != nil {
		return err
	}
	return s.ensurePlaceIndexes(ctx)
}

func (s *Store) ensureUserIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	emailIndex := mongo.IndexModel{
		Keys: bson.D{{Key: "email", Value: 1}},
		Options: options.Index().
			SetName("email_unique").
			SetUnique(true),
	}

	s.log.Debug("[DB] creating email_unique index")
	if _, err := s.users().Indexes().CreateOne(ctx, emailIndex); err != nil {
		s.log.Errorf("[DB] email index error: %v", err)
		return err
	}
	s.log.Info("[DB] email_unique index ready")
	return nil
}

func (s *Store) ensurePlaceIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	creatorIndex := mongo.IndexModel{
		Keys:    bson.D{{Key: "creator", Value: 1}},
		Options: options.Index().SetName("creator_index"),
	}

	s.log.Debug("[DB] creating creator_index index")
	if _, err := s.places().Indexes().CreateOne(ctx, creatorIndex); err != nil {
		s.log.Errorf("[DB] creator index error: %v", err)
		return err
	}
	s.log.Info("[DB] creator_index index ready")
	return nil
}
