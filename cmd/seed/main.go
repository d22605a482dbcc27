// Command seed creates a staff account, typically the first admin.
package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"os"
	"time"

	"livepoll/internal/config"
	"livepoll/internal/logger"
	"livepoll/internal/model"
	"livepoll/internal/repository"
	"livepoll/internal/service"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func main() {
	email := flag.String("email", os.Getenv("SEED_EMAIL"), "account email")
	password := flag.String("password", os.Getenv("SEED_PASSWORD"), "account password")
	first := flag.String("first", "Admin", "first name")
	last := flag.String("last", "", "last name")
	role := flag.String("role", string(model.RoleAdmin), "admin or presenter")
	flag.Parse()

	logger.Init(logger.Config{Service: "livepoll-seed"})

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "err", err)
		os.Exit(1)
	}

	r := model.Role(*role)
	if r != model.RoleAdmin && r != model.RolePresenter {
		slog.Error("unknown role", "role", *role)
		os.Exit(2)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.Mongo.URI))
	if err != nil {
		slog.Error("failed to connect to MongoDB", "err", err)
		os.Exit(1)
	}
	defer client.Disconnect(context.Background())

	db := client.Database(cfg.Mongo.Database)
	repository.EnsureIndexes(ctx, db)

	users := repository.NewUserRepo(db, repository.NewSequence(db))
	authSvc := service.NewAuthService(users, cfg.JWT.Secret, cfg.JWT.ExpiresIn)

	user, err := authSvc.CreateUser(ctx, *email, *password, *first, *last, r)
	switch {
	case errors.Is(err, service.ErrEmailTaken):
		slog.Info("account already exists", "email", *email)
		return
	case err != nil:
		slog.Error("failed to create account", "err", err)
		os.Exit(1)
	}

	slog.Info("account created", "user_id", user.ID, "email", user.Email, "role", user.Role)
}
