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

type SessionRepo interface {
	Create(ctx context.Context, session *model.Session) error
	GetByID(ctx context.Context, id int64) (*model.Session, error)
	GetByJoinCode(ctx context.Context, code string) (*model.Session, error)
	ListByPresenter(ctx context.Context, presenterID int64) ([]*model.Session, error)
	Update(ctx context.Context, id int64, upd model.SessionUpdate) (*model.Session, error)
	SetSelectedQuestion(ctx context.Context, id int64, questionID *int64) error
	JoinCodeExists(ctx context.Context, code string) (bool, error)
	IsOwnedBy(ctx context.Context, id, userID int64) (bool, error)
	IsActive(ctx context.Context, id int64) (bool, error)
	Exists(ctx context.Context, id int64) (bool, error)
}

type sessionRepo struct {
	collection *mongo.Collection
	seq        Sequence
}

func NewSessionRepo(db *mongo.Database, seq Sequence) SessionRepo {
	return &sessionRepo{
		collection: db.Collection("sessions"),
		seq:        seq,
	}
}

func (r *sessionRepo) Create(ctx context.Context, session *model.Session) error {
	id, err := r.seq.Next(ctx, "sessions")
	if err != nil {
		return err
	}
	session.ID = id
	if session.CreatedAt.IsZero() {
		session.CreatedAt = time.Now()
	}
	_, err = r.collection.InsertOne(ctx, session)
	return translate(err)
}

func (r *sessionRepo) GetByID(ctx context.Context, id int64) (*model.Session, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

func (r *sessionRepo) GetByJoinCode(ctx context.Context, code string) (*model.Session, error) {
	return r.findOne(ctx, bson.M{"joinCode": code})
}

func (r *sessionRepo) findOne(ctx context.Context, filter bson.M) (*model.Session, error) {
	var session model.Session
	err := r.collection.FindOne(ctx, filter).Decode(&session)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &session, nil
}

func (r *sessionRepo) ListByPresenter(ctx context.Context, presenterID int64) ([]*model.Session, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cursor, err := r.collection.Find(ctx, bson.M{"presenterId": presenterID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	sessions := []*model.Session{}
	if err = cursor.All(ctx, &sessions); err != nil {
		return nil, err
	}
	return sessions, nil
}

// Update applies the non-nil fields of upd. Deactivating stamps closedAt,
// reactivating clears it.
func (r *sessionRepo) Update(ctx context.Context, id int64, upd model.SessionUpdate) (*model.Session, error) {
	set := bson.M{}
	unset := bson.M{}
	if upd.Title != nil {
		set["title"] = *upd.Title
	}
	if upd.Description != nil {
		set["description"] = *upd.Description
	}
	if upd.IsActive != nil {
		set["isActive"] = *upd.IsActive
		if *upd.IsActive {
			unset["closedAt"] = ""
		} else {
			set["closedAt"] = time.Now()
		}
	}
	if len(set) == 0 {
		return r.GetByID(ctx, id)
	}

	update := bson.M{"$set": set}
	if len(unset) > 0 {
		update["$unset"] = unset
	}

	var session model.Session
	err := r.collection.FindOneAndUpdate(ctx, bson.M{"_id": id}, update, returnAfter()).Decode(&session)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &session, nil
}

func (r *sessionRepo) SetSelectedQuestion(ctx context.Context, id int64, questionID *int64) error {
	res, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"selectedQuestionId": questionID}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *sessionRepo) JoinCodeExists(ctx context.Context, code string) (bool, error) {
	n, err := r.collection.CountDocuments(ctx, bson.M{"joinCode": code}, options.Count().SetLimit(1))
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *sessionRepo) IsOwnedBy(ctx context.Context, id, userID int64) (bool, error) {
	n, err := r.collection.CountDocuments(ctx,
		bson.M{"_id": id, "presenterId": userID},
		options.Count().SetLimit(1),
	)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *sessionRepo) IsActive(ctx context.Context, id int64) (bool, error) {
	session, err := r.GetByID(ctx, id)
	if err != nil || session == nil {
		return false, err
	}
	return session.IsActive, nil
}

func (r *sessionRepo) Exists(ctx context.Context, id int64) (bool, error) {
	n, err := r.collection.CountDocuments(ctx, bson.M{"_id": id}, options.Count().SetLimit(1))
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
