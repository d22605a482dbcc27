package repository

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var (
	ErrNotFound  = errors.New("not found")
	ErrDuplicate = errors.New("duplicate key")
)

// Sequence hands out monotonically increasing numeric ids per collection.
type Sequence interface {
	Next(ctx context.Context, name string) (int64, error)
}

type sequence struct {
	collection *mongo.Collection
}

// NewSequence creates a counter-backed id sequence
func NewSequence(db *mongo.Database) Sequence {
	return &sequence{collection: db.Collection("counters")}
}

type counter struct {
	ID    string `bson:"_id"`
	Value int64  `bson:"value"`
}

func (s *sequence) Next(ctx context.Context, name string) (int64, error) {
	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.After)

	var c counter
	err := s.collection.FindOneAndUpdate(ctx,
		bson.M{"_id": name},
		bson.M{"$inc": bson.M{"value": int64(1)}},
		opts,
	).Decode(&c)
	if err != nil {
		return 0, fmt.Errorf("next %s id: %w", name, err)
	}
	return c.Value, nil
}

// EnsureIndexes creates the indexes every repository relies on.
func EnsureIndexes(ctx context.Context, db *mongo.Database) {
	createIndex(ctx, db.Collection("users"), bson.D{{Key: "email", Value: 1}}, true)
	createIndex(ctx, db.Collection("sessions"), bson.D{{Key: "joinCode", Value: 1}}, true)
	createIndex(ctx, db.Collection("sessions"), bson.D{
		{Key: "presenterId", Value: 1},
		{Key: "createdAt", Value: -1},
	}, false)
	createIndex(ctx, db.Collection("questions"), bson.D{
		{Key: "sessionId", Value: 1},
		{Key: "createdAt", Value: -1},
	}, false)
	createIndex(ctx, db.Collection("participants"), bson.D{{Key: "token", Value: 1}}, true)
	createIndex(ctx, db.Collection("participants"), bson.D{{Key: "sessionId", Value: 1}}, false)
	createIndex(ctx, db.Collection("responses"), bson.D{
		{Key: "questionId", Value: 1},
		{Key: "participantId", Value: 1},
	}, true)

	slog.Info("mongo indexes ensured")
}

func createIndex(ctx context.Context, coll *mongo.Collection, keys bson.D, unique bool) {
	opts := options.Index().SetUnique(unique)
	_, err := coll.Indexes().CreateOne(ctx, mongo.IndexModel{Keys: keys, Options: opts})
	if err != nil {
		slog.Warn("failed to create index", "collection", coll.Name(), "err", err)
	}
}

func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, mongo.ErrNoDocuments):
		return ErrNotFound
	case mongo.IsDuplicateKeyError(err):
		return fmt.Errorf("%w: %v", ErrDuplicate, err)
	default:
		return err
	}
}

func returnAfter() *options.FindOneAndUpdateOptions {
	return options.FindOneAndUpdate().SetReturnDocument(options.After)
}
