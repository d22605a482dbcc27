package repository

import (
	"context"
	"errors"
	"time"

	"livepoll/internal/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// ParticipantRepo handles MongoDB operations for anonymous participants
type ParticipantRepo interface {
	Create(ctx context.Context, p *model.Participant) error
	ResolveByToken(ctx context.Context, token string) (*model.Participant, error)
	CountBySession(ctx context.Context, sessionID int64) (int64, error)
	TouchLastActive(ctx context.Context, id int64) error
}

type participantRepo struct {
	collection *mongo.Collection
	sessions   *mongo.Collection
	seq        Sequence
}

// NewParticipantRepo creates a new participant repository
func NewParticipantRepo(db *mongo.Database, seq Sequence) ParticipantRepo {
	return &participantRepo{
		collection: db.Collection("participants"),
		sessions:   db.Collection("sessions"),
		seq:        seq,
	}
}

func (r *participantRepo) Create(ctx context.Context, p *model.Participant) error {
	id, err := r.seq.Next(ctx, "participants")
	if err != nil {
		return err
	}
	p.ID = id
	now := time.Now()
	if p.JoinedAt.IsZero() {
		p.JoinedAt = now
	}
	p.LastActiveAt = p.JoinedAt
	_, err = r.collection.InsertOne(ctx, p)
	return translate(err)
}

// ResolveByToken returns the participant with SessionActive filled from the
// owning session, or nil when the token is unknown.
func (r *participantRepo) ResolveByToken(ctx context.Context, token string) (*model.Participant, error) {
	var p model.Participant
	err := r.collection.FindOne(ctx, bson.M{"token": token}).Decode(&p)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var session struct {
		IsActive bool `bson:"isActive"`
	}
	err = r.sessions.FindOne(ctx, bson.M{"_id": p.SessionID}).Decode(&session)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	p.SessionActive = session.IsActive
	return &p, nil
}

func (r *participantRepo) CountBySession(ctx context.Context, sessionID int64) (int64, error) {
	return r.collection.CountDocuments(ctx, bson.M{"sessionId": sessionID})
}

func (r *participantRepo) TouchLastActive(ctx context.Context, id int64) error {
	_, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"lastActiveAt": time.Now()}},
	)
	return err
}
