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

// QuestionRepo handles MongoDB operations for questions
type QuestionRepo interface {
	Create(ctx context.Context, question *model.Question) error
	GetByID(ctx context.Context, id int64) (*model.Question, error)
	ListBySession(ctx context.Context, sessionID int64) ([]*model.Question, error)
	Update(ctx context.Context, id int64, upd model.QuestionUpdate) (*model.Question, error)
	Delete(ctx context.Context, id int64) error
	MarkClosed(ctx context.Context, id int64) error
	MarkReopened(ctx context.Context, id int64) error
}

type questionRepo struct {
	collection *mongo.Collection
	seq        Sequence
}

// NewQuestionRepo creates a new question repository
func NewQuestionRepo(db *mongo.Database, seq Sequence) QuestionRepo {
	return &questionRepo{
		collection: db.Collection("questions"),
		seq:        seq,
	}
}

func (r *questionRepo) Create(ctx context.Context, question *model.Question) error {
	id, err := r.seq.Next(ctx, "questions")
	if err != nil {
		return err
	}
	question.ID = id
	if question.CreatedAt.IsZero() {
		question.CreatedAt = time.Now()
	}
	_, err = r.collection.InsertOne(ctx, question)
	return translate(err)
}

func (r *questionRepo) GetByID(ctx context.Context, id int64) (*model.Question, error) {
	var question model.Question
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&question)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, err
	}
	return &question, nil
}

func (r *questionRepo) ListBySession(ctx context.Context, sessionID int64) ([]*model.Question, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cursor, err := r.collection.Find(ctx, bson.M{"sessionId": sessionID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	questions := []*model.Question{}
	if err = cursor.All(ctx, &questions); err != nil {
		return nil, err
	}
	return questions, nil
}

func (r *questionRepo) Update(ctx context.Context, id int64, upd model.QuestionUpdate) (*model.Question, error) {
	set := bson.M{}
	if upd.Text != nil {
		set["questionText"] = *upd.Text
	}
	if upd.Type != nil {
		set["questionType"] = *upd.Type
	}
	if upd.Options != nil {
		set["options"] = upd.Options
	}
	if upd.CorrectAnswer != nil {
		set["correctAnswer"] = *upd.CorrectAnswer
	}
	if upd.TimeLimit != nil {
		set["timeLimit"] = *upd.TimeLimit
	}
	if len(set) == 0 {
		return r.GetByID(ctx, id)
	}

	var question model.Question
	err := r.collection.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": set}, returnAfter()).Decode(&question)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &question, nil
}

func (r *questionRepo) Delete(ctx context.Context, id int64) error {
	res, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// MarkClosed deactivates the question and stamps closedAt.
func (r *questionRepo) MarkClosed(ctx context.Context, id int64) error {
	return r.setActive(ctx, id, bson.M{
		"$set": bson.M{"isActive": false, "closedAt": time.Now()},
	})
}

// MarkReopened reactivates the question and clears closedAt.
func (r *questionRepo) MarkReopened(ctx context.Context, id int64) error {
	return r.setActive(ctx, id, bson.M{
		"$set":   bson.M{"isActive": true},
		"$unset": bson.M{"closedAt": ""},
	})
}

func (r *questionRepo) setActive(ctx context.Context, id int64, update bson.M) error {
	res, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}
