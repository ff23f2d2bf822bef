package commands

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"portalsync/internal/components/chrono"
	"portalsync/internal/components/telemetry"
	"portalsync/internal/config"
	"portalsync/internal/db"
	"portalsync/internal/keychain"
	"portalsync/internal/model"
	"portalsync/internal/repository"
	"portalsync/internal/scrapers/portal"
	"time"
)

// app is everything a command needs, wired from the configuration.
type app struct {
	cfg      config.Config
	tel      telemetry.API
	time     chrono.StandardImpl
	database *sql.DB
	repo     repository.Repository
}

func loadConfig() (config.Config, error) {
	cfg, err := config.ReadRecursively[config.Config](*configPath)
	if errors.Is(err, os.ErrNotExist) {
		return config.Config{}, fmt.Errorf("could not find %s in the working directory or any of its parents", *configPath)
	}
	if err != nil {
		return config.Config{}, fmt.Errorf("read config: %w", err)
	}
	cfg = cfg.WithDefaults()
	err = cfg.Validate()
	if err != nil {
		return config.Config{}, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func openApp(ctx context.Context) (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	logger, err := telemetry.NewLogger(os.Stderr, telemetry.LoggerOptions{
		Level:  cfg.Log.Level,
		Debug:  cfg.Log.Debug,
		Format: cfg.Log.Format,
	})
	if err != nil {
		return nil, err
	}
	tel := telemetry.NewSlogAPI(logger)

	timeApi, err := chrono.NewStandardImpl(cfg.Timezone)
	if err != nil {
		return nil, err
	}

	database, err := db.OpenDB(ctx, db.Options{
		File:      cfg.Database.File,
		Url:       cfg.Database.Url,
		AuthToken: cfg.Database.AuthToken,
	})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	qry := db.New(database)

	ttl := time.Duration(cfg.Keychain.TokenTtlHours) * time.Hour
	var secrets keychain.Store
	switch cfg.Keychain.Type {
	case config.KEYCHAIN_MEMORY:
		secrets = keychain.NewMemory(ttl)
	default:
		secrets = keychain.NewSQLite(qry, ttl, timeApi)
	}

	client, err := portal.NewClient(portal.ClientOptions{
		BaseUrl:           cfg.Portal.BaseUrl,
		SessionCookie:     cfg.Portal.SessionCookie,
		UserAgent:         cfg.Portal.UserAgent,
		RequestsPerSecond: cfg.Portal.RequestsPerSecond,
		Timeout:           time.Duration(cfg.Portal.TimeoutSeconds) * time.Second,
	}, tel)
	if err != nil {
		database.Close()
		return nil, err
	}
	scraper := portal.NewScraper(client, timeApi.Location(), tel)

	repo := repository.New(
		repository.NewSQLStore(qry, db.NewMakeTx(database)),
		scraper,
		secrets,
		timeApi,
		tel,
	)

	return &app{
		cfg:      cfg,
		tel:      tel,
		time:     timeApi,
		database: database,
		repo:     repo,
	}, nil
}

func (a *app) Close() error {
	return a.database.Close()
}

// explain turns the errors a user can act on into instructions.
func explain(err error) error {
	switch {
	case errors.Is(err, model.ErrNotAuthenticated):
		return fmt.Errorf("not logged in, run `portalsync login` first")
	case errors.Is(err, model.ErrSessionExpired):
		return fmt.Errorf("the portal session expired, run `portalsync login` again")
	}
	return err
}

// withApp runs fn with a freshly wired app and closes it afterwards.
func withApp(ctx context.Context, fn func(a *app) error) error {
	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()
	return explain(fn(a))
}
