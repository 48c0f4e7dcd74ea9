package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aussiebroadwan/dirauth/internal/dirauth/devprovider"
	"github.com/aussiebroadwan/dirauth/pkg/cryptox"
	"github.com/aussiebroadwan/dirauth/pkg/dirauth"
	"github.com/aussiebroadwan/dirauth/pkg/slogx"
	"github.com/aussiebroadwan/dirauth/pkg/tokencache"
)

const (
	// BuildVersion should be set at build time via ldflags. Later problem
	BuildVersion = "v0.1.0"
)

// Application wires the token cache, provider and acquisition engine for the
// CLI commands.
type Application struct {
	cfg    Config
	logger *slog.Logger

	cache    *tokencache.Store
	provider *devprovider.Provider
	engine   *dirauth.Engine
}

// New creates a new Application instance with all dependencies initialized
func New(cfg Config) (*Application, error) {
	app := &Application{
		cfg: cfg,
		logger: slogx.New(slogx.Config{
			Service: "dirauth",
			Version: BuildVersion,
			Env:     cfg.Env,
			Level:   cfg.LogLevel,
			Format:  cfg.LogFormat,
		}),
	}

	// Set master key path for sealing cached tokens at rest
	cryptox.SetMasterKeyPath(app.cfg.MasterKeyPath)

	if err := app.initCache(); err != nil {
		return nil, err
	}

	secret := app.cfg.SigningSecret
	if secret == "" {
		// Ephemeral secret: tokens stop verifying across restarts, which is
		// fine for a dev provider.
		secret = cryptox.MustGenerateToken(cryptox.TokenSize256)
	}

	app.provider = devprovider.New(devprovider.Options{
		SigningSecret: []byte(secret),
		TokenTTL:      app.cfg.TokenTTL,
		Users:         app.cfg.Users,
		DeviceUser:    app.cfg.DeviceUser,
	}, app.logger)

	app.engine = dirauth.NewEngine(app.provider, dirauth.WithLogger(app.logger))

	return app, nil
}

// Close releases the engine worker and the cache database.
func (app *Application) Close() error {
	app.engine.Close()
	if err := app.cache.Close(); err != nil {
		app.logger.Error("error closing token cache", "error", err)
		return err
	}
	return nil
}

// Engine exposes the acquisition engine to the CLI commands.
func (app *Application) Engine() *dirauth.Engine { return app.engine }

// Logger exposes the application logger.
func (app *Application) Logger() *slog.Logger { return app.logger }

// Cache exposes the token cache store, for account management commands.
func (app *Application) Cache() *tokencache.Store { return app.cache }

// AuthConfig builds the acquisition config the engine calls take.
func (app *Application) AuthConfig() dirauth.Config {
	return dirauth.Config{
		AuthorityEndpoint: app.cfg.AuthorityEndpoint,
		Tenant:            app.cfg.Tenant,
		ClientID:          app.cfg.ClientID,
		Resource:          app.cfg.Resource,
		RedirectURI:       app.cfg.RedirectURI,
		Cache:             app.cache,
	}
}

// initCache opens the SQLite token cache and applies migrations
func (app *Application) initCache() error {
	dsn := fmt.Sprintf("file:%s?_busy_timeout=5000&_journal_mode=WAL", app.cfg.CacheFile)
	cache, err := tokencache.Open(dsn)
	if err != nil {
		return fmt.Errorf("failed to open token cache: %w", err)
	}
	app.cache = cache

	if err := cache.ApplyMigrations(); err != nil {
		_ = cache.Close()
		return fmt.Errorf("failed to apply cache migrations: %w", err)
	}

	if err := cache.Ping(context.Background()); err != nil {
		_ = cache.Close()
		return fmt.Errorf("failed to reach token cache: %w", err)
	}

	app.logger.Debug("token cache ready", "file", app.cfg.CacheFile)
	return nil
}
