package repository

import (
	"context"
	"errors"
	"time"

	"livepoll/internal/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ResponseRepo handles MongoDB operations for anonymous responses
type ResponseRepo interface {
	// Create inserts a response; a second answer by the same participant
	// to the same question yields ErrDuplicate.
	Create(ctx context.Context, resp *model.Response) error
	GetByParticipant(ctx context.Context, questionID, participantID int64) (*model.Response, error)
	ListByQuestion(ctx context.Context, questionID int64) ([]*model.Response, error)
	CountByQuestion(ctx context.Context, questionID int64) (int64, error)
	DeleteByQuestion(ctx context.Context, questionID int64) error
}

type responseRepo struct {
	collection *mongo.Collection
	seq        Sequence
}

// NewResponseRepo creates a new response repository
func NewResponseRepo(db *mongo.Database, seq Sequence) ResponseRepo {
	return &responseRepo{
		collection: db.Collection("responses"),
		seq:        seq,
	}
}

func (r *responseRepo) Create(ctx context.Context, resp *model.Response) error {
	id, err := r.seq.Next(ctx, "responses")
	if err != nil {
		return err
	}
	resp.ID = id
	if resp.CreatedAt.IsZero() {
		resp.CreatedAt = time.Now()
	}
	_, err = r.collection.InsertOne(ctx, resp)
	return translate(err)
}

func (r *responseRepo) GetByParticipant(ctx context.Context, questionID, participantID int64) (*model.Response, error) {
	var resp model.Response
	err := r.collection.FindOne(ctx, bson.M{
		"questionId":    questionID,
		"participantId": participantID,
	}).Decode(&resp)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

func (r *responseRepo) ListByQuestion(ctx context.Context, questionID int64) ([]*model.Response, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}})
	cursor, err := r.collection.Find(ctx, bson.M{"questionId": questionID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	responses := []*model.Response{}
	if err = cursor.All(ctx, &responses); err != nil {
		return nil, err
	}
	return responses, nil
}

func (r *responseRepo) CountByQuestion(ctx context.Context, questionID int64) (int64, error) {
	return r.collection.CountDocuments(ctx, bson.M{"questionId": questionID})
}

func (r *responseRepo) DeleteByQuestion(ctx context.Context, questionID int64) error {
	_, err := r.collection.DeleteMany(ctx, bson.M{"questionId": questionID})
	return err
}
