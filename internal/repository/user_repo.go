package repository

import (
	"context"
	"errors"
	"time"

	"livepoll/internal/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// UserRepo handles MongoDB operations for staff accounts
type UserRepo interface {
	Create(ctx context.Context, user *model.User) error
	GetByID(ctx context.Context, id int64) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	TokenVersion(ctx context.Context, id int64) (int, error)
	UpdatePassword(ctx context.Context, id int64, hash string) (int, error)
}

type userRepo struct {
	collection *mongo.Collection
	seq        Sequence
}

// NewUserRepo creates a new user repository
func NewUserRepo(db *mongo.Database, seq Sequence) UserRepo {
	return &userRepo{
		collection: db.Collection("users"),
		seq:        seq,
	}
}

func (r *userRepo) Create(ctx context.Context, user *model.User) error {
	id, err := r.seq.Next(ctx, "users")
	if err != nil {
		return err
	}
	user.ID = id
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now()
	}
	_, err = r.collection.InsertOne(ctx, user)
	return translate(err)
}

func (r *userRepo) GetByID(ctx context.Context, id int64) (*model.User, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

func (r *userRepo) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	return r.findOne(ctx, bson.M{"email": email})
}

func (r *userRepo) findOne(ctx context.Context, filter bson.M) (*model.User, error) {
	var user model.User
	err := r.collection.FindOne(ctx, filter).Decode(&user)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// TokenVersion returns the user's current token version or ErrNotFound.
func (r *userRepo) TokenVersion(ctx context.Context, id int64) (int, error) {
	user, err := r.GetByID(ctx, id)
	if err != nil {
		return 0, err
	}
	if user == nil {
		return 0, ErrNotFound
	}
	return user.TokenVersion, nil
}

// UpdatePassword stores a new hash and bumps the token version, returning the new version.
func (r *userRepo) UpdatePassword(ctx context.Context, id int64, hash string) (int, error) {
	var user model.User
	err := r.collection.FindOneAndUpdate(ctx,
		bson.M{"_id": id},
		bson.M{
			"$set": bson.M{"passwordHash": hash},
			"$inc": bson.M{"tokenVersion": 1},
		},
		returnAfter(),
	).Decode(&user)
	if err != nil {
		return 0, translate(err)
	}
	return user.TokenVersion, nil
}
