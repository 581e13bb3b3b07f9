// Package server initializes and runs the authkeeper server. It selects the
// storage and notification backends from the configuration, runs schema
// migrations, handles graceful shutdown and starts the gRPC endpoint.
package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/dmitrijs2005/authkeeper/internal/logging"
	"github.com/dmitrijs2005/authkeeper/internal/server/auth"
	"github.com/dmitrijs2005/authkeeper/internal/server/config"
	"github.com/dmitrijs2005/authkeeper/internal/server/credentials"
	"github.com/dmitrijs2005/authkeeper/internal/server/notify"
	"github.com/dmitrijs2005/authkeeper/internal/server/repositories/challenges"
	"github.com/dmitrijs2005/authkeeper/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/authkeeper/internal/server/repositories/users"
	"github.com/dmitrijs2005/authkeeper/internal/server/services"
	"github.com/dmitrijs2005/authkeeper/internal/server/verification"
	"github.com/redis/go-redis/v9"

	gs "github.com/dmitrijs2005/authkeeper/internal/server/grpc"
)

const appName = "authkeeper"

type App struct {
	config      *config.Config
	logger      logging.Logger
	authService *services.AuthService
	closers     []io.Closer
}

// openDB is a seam for tests.
var openDB = func(dsn string) (*sql.DB, error) {
	return sql.Open("pgx", dsn)
}

// NewApp validates c and builds every component. Any configuration or
// connectivity problem is returned before the server starts.
func NewApp(ctx context.Context, c *config.Config) (*App, error) {

	if err := c.Validate(); err != nil {
		return nil, err
	}

	logger := logging.NewJSONLogger(os.Stdout, c.LogLevel)
	app := &App{config: c, logger: logger}

	if err := app.init(ctx); err != nil {
		_ = app.Close()
		return nil, err
	}

	return app, nil
}

func (app *App) init(ctx context.Context) error {
	c := app.config

	var db *sql.DB
	if c.NeedsPostgres() {
		var err error
		db, err = app.initDB(ctx)
		if err != nil {
			return err
		}
	}

	userRepo, err := app.userRepository(db)
	if err != nil {
		return err
	}

	store, err := app.challengeStore(ctx, db)
	if err != nil {
		return err
	}

	sender, err := app.sender(ctx)
	if err != nil {
		return err
	}

	vault, err := credentials.NewVault(c.BcryptCost)
	if err != nil {
		return err
	}

	engine, err := verification.NewEngine(store, verification.Config{
		CodeLength:   c.VerificationCodeLength,
		CodeLifetime: c.VerificationCodeValidityDuration,
		MaxAttempts:  c.VerificationMaxAttempts,
		StoreTimeout: c.StoreTimeout,
	}, app.logger)
	if err != nil {
		return err
	}

	tokens, err := auth.NewTokenIssuer(c.SecretKey, c.TokenIssuer, c.TokenAudience, c.TokenValidityDuration)
	if err != nil {
		return err
	}

	app.authService, err = services.NewAuthService(userRepo, vault, engine, tokens, sender, app.logger, c.StoreTimeout)
	return err
}

func (app *App) initDB(ctx context.Context) (*sql.DB, error) {
	db, err := openDB(app.config.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}
	app.closers = append(app.closers, db)

	pingCtx, cancel := context.WithTimeout(ctx, app.config.StoreTimeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		return nil, fmt.Errorf("db ping error: %w", err)
	}

	rm, err := repomanager.NewPostgresRepositoryManager(db)
	if err != nil {
		return nil, err
	}
	if err := rm.RunMigrations(ctx, db); err != nil {
		return nil, fmt.Errorf("migrations error: %w", err)
	}

	return db, nil
}

func (app *App) userRepository(db *sql.DB) (users.Repository, error) {
	switch app.config.UserStore {
	case config.BackendPostgres:
		return users.NewPostgresRepository(db), nil
	case config.BackendMemory:
		app.logger.Warn(context.Background(), "using in-memory user store, data is lost on restart")
		return users.NewMemoryRepository(), nil
	default:
		return nil, fmt.Errorf("unknown user store %q", app.config.UserStore)
	}
}

func (app *App) challengeStore(ctx context.Context, db *sql.DB) (challenges.Store, error) {
	c := app.config
	switch c.ChallengeStore {
	case config.BackendPostgres:
		return challenges.NewPostgresStore(db), nil
	case config.BackendRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     c.RedisAddr,
			Password: c.RedisPassword,
			DB:       c.RedisDB,
		})
		app.closers = append(app.closers, client)

		pingCtx, cancel := context.WithTimeout(ctx, c.StoreTimeout)
		defer cancel()
		if err := client.Ping(pingCtx).Err(); err != nil {
			return nil, fmt.Errorf("redis ping error: %w", err)
		}
		return challenges.NewRedisStore(client, challenges.DefaultRetention), nil
	case config.BackendMemory:
		return challenges.NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown challenge store %q", c.ChallengeStore)
	}
}

func (app *App) sender(ctx context.Context) (notify.Sender, error) {
	c := app.config
	tmpl := notify.Template{
		AppName:  appName,
		From:     c.MailFrom,
		Lifetime: c.VerificationCodeValidityDuration,
	}

	switch c.Notifier {
	case config.NotifierLog:
		return notify.NewWriterSender(os.Stdout, tmpl), nil
	case config.NotifierSMTP:
		return notify.NewSMTPSender(notify.SMTPConfig{
			Host:     c.SMTPHost,
			Port:     c.SMTPPort,
			User:     c.SMTPUser,
			Password: c.SMTPPassword,
		}, tmpl), nil
	case config.NotifierS3:
		client, err := notify.NewS3Client(ctx, notify.S3Config{
			RootUser:     c.S3RootUser,
			RootPassword: c.S3RootPassword,
			Bucket:       c.S3Bucket,
			Region:       c.S3Region,
			BaseEndpoint: c.S3BaseEndpoint,
		})
		if err != nil {
			return nil, fmt.Errorf("s3 init error: %w", err)
		}
		return notify.NewS3OutboxSender(client, c.S3Bucket, tmpl), nil
	default:
		return nil, fmt.Errorf("unknown notifier %q", c.Notifier)
	}
}

// Close releases database and cache connections.
func (app *App) Close() error {
	var errs []error
	for i := len(app.closers) - 1; i >= 0; i-- {
		if err := app.closers[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	app.closers = nil
	return errors.Join(errs...)
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) startGRPCServer(ctx context.Context, cancelFunc context.CancelFunc) {

	s := gs.NewGRPCServer(app.config.EndpointAddrGRPC, app.logger, app.authService)

	if err := s.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

// Run serves until ctx is cancelled or a termination signal arrives.
func (app *App) Run(ctx context.Context) {

	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.startGRPCServer(ctx, cancelFunc)
	}()

	wg.Wait()

	if err := app.Close(); err != nil {
		app.logger.Error(ctx, "close error", "error", err)
	}

	app.logger.Info(ctx, "App stopped")
}
