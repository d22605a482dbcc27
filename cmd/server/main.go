package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"livepoll/internal/cache"
	"livepoll/internal/config"
	"livepoll/internal/logger"
	"livepoll/internal/repository"
	"livepoll/internal/service"
	"livepoll/internal/transport/rest"
	"livepoll/internal/transport/ws"

	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// @title livepoll API
// @version 1.0
// @description Real-time audience polling: sessions, questions and anonymous responses.
// @BasePath /v1
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "err", err)
		os.Exit(1)
	}

	logger.Init(logger.Config{
		Env:     logger.ParseEnv(cfg.Log.Env),
		Backend: logger.Backend(cfg.Log.Backend),
		Debug:   cfg.Log.Debug,
	})

	if err := run(cfg); err != nil {
		slog.Error("server stopped", "err", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// MongoDB connection
	mongoClient, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.Mongo.URI))
	if err != nil {
		return err
	}
	defer mongoClient.Disconnect(context.Background())

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := mongoClient.Ping(pingCtx, nil); err != nil {
		return err
	}
	slog.Info("connected to MongoDB", "database", cfg.Mongo.Database)

	db := mongoClient.Database(cfg.Mongo.Database)
	repository.EnsureIndexes(ctx, db)

	// Redis connection
	redisOpts, err := redis.ParseURL(cfg.Redis.URI)
	if err != nil {
		return err
	}
	rdb := redis.NewClient(redisOpts)
	defer rdb.Close()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return err
	}
	slog.Info("connected to Redis", "addr", redisOpts.Addr)

	// Repositories
	seq := repository.NewSequence(db)
	userRepo := repository.NewUserRepo(db, seq)
	sessionRepo := repository.NewSessionRepo(db, seq)
	questionRepo := repository.NewQuestionRepo(db, seq)
	participantRepo := repository.NewParticipantRepo(db, seq)
	responseRepo := repository.NewResponseRepo(db, seq)

	// Caches
	sessionCache := cache.NewSessionCache(rdb, cfg.Cache.SessionTTL)
	tokens := cache.NewTokenCache(participantRepo, cfg.Cache.TokenTTL, cfg.Cache.TokenSweep)
	go tokens.Run(ctx)

	// Realtime engine and hub
	live := service.NewLiveService(service.RealClock(), questionRepo, tokens)
	live.SetTimings(cfg.Live.Countdown, cfg.Live.StoreTimeout)
	wsHub := ws.NewHub(sessionRepo)
	live.SetBroadcaster(wsHub)

	// Services
	authSvc := service.NewAuthService(userRepo, cfg.JWT.Secret, cfg.JWT.ExpiresIn)
	sessionSvc := service.NewSessionService(sessionRepo, questionRepo, responseRepo, participantRepo, userRepo, sessionCache, live)
	questionSvc := service.NewQuestionService(sessionRepo, questionRepo, responseRepo, live)
	anonymousSvc := service.NewAnonymousService(sessionRepo, questionRepo, participantRepo, responseRepo, live)

	router := rest.NewRouter(&rest.Container{
		AuthService:      authSvc,
		SessionService:   sessionSvc,
		QuestionService:  questionSvc,
		AnonymousService: anonymousSvc,
		Tokens:           tokens,
		WSHub:            wsHub,
		CORSOrigin:       cfg.CORS.Origin,
	})

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server starting", "addr", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	slog.Info("shutting down server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}

	slog.Info("server exited")
	return nil
}
