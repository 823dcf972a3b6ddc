package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/grademind/grademind-api/internal/api"
	"github.com/grademind/grademind-api/internal/api/handler"
	"github.com/grademind/grademind-api/internal/core/ports"
	"github.com/grademind/grademind-api/internal/core/service"
	"github.com/grademind/grademind-api/internal/infrastructure/config"
	mongostore "github.com/grademind/grademind-api/internal/infrastructure/db/mongo"
	pgstore "github.com/grademind/grademind-api/internal/infrastructure/db/postgres"
	redisstore "github.com/grademind/grademind-api/internal/infrastructure/db/redis"
	"github.com/grademind/grademind-api/internal/infrastructure/jobs"
	"github.com/grademind/grademind-api/internal/infrastructure/queue"
	"github.com/grademind/grademind-api/pkg/logger"
)

const shutdownTimeout = 10 * time.Second

// @title                       GradeMind API
// @version                     1.0
// @description                 Authentication, session and user management for the GradeMind LMS.
// @BasePath                    /
// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	log := logger.Init(logger.Options{Level: cfg.LogLevel, Pretty: cfg.IsDevelopment()})

	if err := run(ctx, cfg); err != nil {
		log.Fatal().Err(err).Msg("server failed")
	}
	log.Info().Msg("server exited cleanly")
}

// storage bundles the credential store and session ledger of the selected driver.
type storage struct {
	users    ports.UserRepository
	sessions ports.SessionRepository
	check    handler.Checker
	close    func(ctx context.Context) error
}

func openStorage(ctx context.Context, cfg *config.Config) (*storage, error) {
	switch cfg.Storage.Driver {
	case config.StoragePostgres:
		db, err := pgstore.Open(ctx, cfg.Storage.PostgresDSN)
		if err != nil {
			return nil, err
		}
		if err := pgstore.Migrate(ctx, db); err != nil {
			_ = db.Close()
			return nil, err
		}
		return &storage{
			users:    pgstore.NewUserRepository(db),
			sessions: pgstore.NewSessionRepository(db),
			check:    db.PingContext,
			close:    func(context.Context) error { return db.Close() },
		}, nil

	default:
		client, db, err := mongostore.Connect(ctx, mongostore.Config{URI: cfg.Mongo.URI, Database: cfg.Mongo.Database})
		if err != nil {
			return nil, err
		}
		if err := mongostore.EnsureIndexes(ctx, db); err != nil {
			_ = client.Disconnect(ctx)
			return nil, err
		}
		return &storage{
			users:    mongostore.NewUserRepository(db),
			sessions: mongostore.NewSessionRepository(db),
			check:    func(ctx context.Context) error { return client.Ping(ctx, nil) },
			close:    client.Disconnect,
		}, nil
	}
}

func run(ctx context.Context, cfg *config.Config) error {
	log := logger.Get()

	store, err := openStorage(ctx, cfg)
	if err != nil {
		return fmt.Errorf("open %s storage: %w", cfg.Storage.Driver, err)
	}
	log.Info().Str("driver", cfg.Storage.Driver).Msg("storage ready")

	checks := map[string]handler.Checker{cfg.Storage.Driver: store.check}

	var authOpts []service.AuthOption
	if cfg.Redis.Addr != "" {
		rdb, err := redisstore.Connect(ctx, redisstore.Config{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			// The session ledger still answers revocation checks.
			log.Warn().Err(err).Msg("redis unavailable, logout denylist disabled")
		} else {
			defer func() {
				if err := rdb.Close(); err != nil {
					log.Error().Err(err).Msg("redis close error")
				}
			}()
			authOpts = append(authOpts, service.WithRevocations(redisstore.NewRevocationStore(rdb)))
			checks["redis"] = func(ctx context.Context) error { return rdb.Ping(ctx).Err() }
		}
	}

	now := func() time.Time { return time.Now().UTC() }

	dispatcher := queue.NewActivityDispatcher(cfg.Session.ActivityWorkers, store.sessions, now, log)
	workerCtx, stopWorkers := context.WithCancel(context.Background())
	dispatcher.Start(workerCtx)
	authOpts = append(authOpts, service.WithActivityRecorder(dispatcher))

	hasher := service.NewBcryptHasher(cfg.Auth.BcryptCost)
	authOpts = append(authOpts, service.WithHasher(hasher))

	authService, err := service.NewAuthService(service.AuthConfig{
		Secret:          cfg.Auth.JWTSecret,
		Audience:        cfg.Auth.TokenAudience,
		TokenLifetime:   cfg.Auth.TokenLifetime(),
		EnforceSessions: cfg.Session.Enforce,
	}, store.users, store.sessions, log, authOpts...)
	if err != nil {
		stopWorkers()
		return fmt.Errorf("auth service: %w", err)
	}
	userService := service.NewUserService(store.users, hasher, log)

	sweeper := jobs.NewSessionSweeper(cfg.Session.SweepSchedule, store.sessions, now, log)
	if err := sweeper.Start(); err != nil {
		log.Error().Err(err).Msg("session sweeper start failed")
	}

	e := api.NewRouter(api.Deps{
		Log:          log,
		AuthService:  authService,
		UserService:  userService,
		HealthChecks: checks,
	})

	serverErr := make(chan error, 1)
	go func() {
		log.Info().Str("port", cfg.Port).Msg("http server listening")
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	var runErr error
	select {
	case <-ctx.Done():
		log.Info().Msg("shutdown signal received")
	case runErr = <-serverErr:
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}

	select {
	case <-sweeper.Stop().Done():
	case <-shutdownCtx.Done():
		log.Warn().Msg("session sweep still running at shutdown")
	}
	stopWorkers()
	dispatcher.Wait()

	if err := store.close(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("storage close error")
	}

	return runErr
}
