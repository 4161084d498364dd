// Package server initializes and runs the connector. It opens the
// database, runs migrations, prepares the keypair vault, and starts the
// HTTP endpoint with graceful shutdown on OS signals.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/dmitrijs2005/passcapture/internal/logging"
	"github.com/dmitrijs2005/passcapture/internal/server/config"
	"github.com/dmitrijs2005/passcapture/internal/server/httpapi"
	"github.com/dmitrijs2005/passcapture/internal/server/identity"
	"github.com/dmitrijs2005/passcapture/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/passcapture/internal/server/services"
	"github.com/dmitrijs2005/passcapture/internal/server/vault"
)

const startupTimeout = 10 * time.Second

type App struct {
	config *config.Config
	logger logging.Logger
	db     *sql.DB
	vault  *vault.Vault
	server *httpapi.Server
}

func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {

	logger := logging.NewDefault()

	db, err := openDB(ctx, cfg.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	repos := repomanager.NewPostgresRepositoryManager()
	if err := repos.RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrations error: %w", err)
	}

	store, err := newKeyStore(ctx, cfg)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("key store init error: %w", err)
	}
	v := vault.New(store, cfg.KeyPassphrase, logger)

	resolver := identity.NewResolver(identity.Config{
		SchemaURN: cfg.SchemaURN,
		Property:  cfg.UniqueIDProperty,
	})

	svc := services.NewProvisioningService(db, repos, resolver, v, logger)
	srv := httpapi.New(cfg.EndpointAddr, svc, cfg.SecretKey, logger)

	return &App{config: cfg, logger: logger, db: db, vault: v, server: srv}, nil
}

func openDB(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, startupTimeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

func newKeyStore(ctx context.Context, cfg *config.Config) (vault.KeyStore, error) {
	switch cfg.KeyStore {
	case config.KeyStoreS3:
		return vault.NewS3Store(ctx, vault.S3Config{
			RootUser:     cfg.S3RootUser,
			RootPassword: cfg.S3RootPassword,
			Bucket:       cfg.S3Bucket,
			Region:       cfg.S3Region,
			BaseEndpoint: cfg.S3BaseEndpoint,
		})
	case config.KeyStoreFile:
		return vault.NewFileStore(cfg.KeyDir), nil
	default:
		return nil, fmt.Errorf("unknown key store kind: %q", cfg.KeyStore)
	}
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

// Run initializes the vault and serves until ctx is cancelled or an OS
// signal arrives. Key material must be in place before the first request.
func (app *App) Run(ctx context.Context) error {

	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "starting app")

	initCtx, cancel := context.WithTimeout(ctx, startupTimeout)
	defer cancel()
	if err := app.vault.Init(initCtx); err != nil {
		return fmt.Errorf("vault init error: %w", err)
	}

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := app.server.Start(ctx); err != nil {
			app.logger.Error(ctx, err.Error())
			cancelFunc()
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), app.config.ShutdownTimeout)
	defer cancel()
	if err := app.server.Shutdown(shutdownCtx); err != nil {
		app.logger.Error(shutdownCtx, err.Error())
	}

	wg.Wait()

	if err := app.db.Close(); err != nil {
		app.logger.Error(context.Background(), err.Error())
	}

	app.logger.Info(context.Background(), "app stopped")
	return nil
}
