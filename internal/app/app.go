// Package app wires the service from configuration.
package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/supplytrace/provenance/internal/api"
	"github.com/supplytrace/provenance/internal/api/handler"
	"github.com/supplytrace/provenance/internal/core/ports"
	"github.com/supplytrace/provenance/internal/core/service"
	"github.com/supplytrace/provenance/internal/infrastructure/artifact"
	mongodb "github.com/supplytrace/provenance/internal/infrastructure/db/mongo"
	"github.com/supplytrace/provenance/internal/infrastructure/db/postgres"
	redisdb "github.com/supplytrace/provenance/internal/infrastructure/db/redis"
	"github.com/supplytrace/provenance/internal/infrastructure/db/sqlite"
	"github.com/supplytrace/provenance/internal/infrastructure/fieldcipher"
	"github.com/supplytrace/provenance/internal/infrastructure/ledger"
	"github.com/supplytrace/provenance/internal/infrastructure/queue"
	"github.com/supplytrace/provenance/internal/pkg/config"
)

const (
	artifactRetryAttempts = 3
	artifactRetryBackoff  = 2 * time.Second
)

// App holds the wired components and the resources they own.
type App struct {
	Config     *config.Config
	Identities *service.IdentityGateway
	Provenance ports.ProvenanceService
	Auth       *service.AuthService
	Cipher     *fieldcipher.AESCipher

	dispatcher *queue.Dispatcher
	health     map[string]handler.Pinger
	mongo      *mongo.Database
	closers    []func(context.Context) error
	log        zerolog.Logger
}

// New connects every configured backend. On error, anything already opened
// is closed before returning.
func New(ctx context.Context, cfg *config.Config, log zerolog.Logger) (_ *App, err error) {
	a := &App{Config: cfg, health: map[string]handler.Pinger{}, log: log}
	defer func() {
		if err != nil {
			_ = a.Close(context.Background())
		}
	}()

	// Fail fast on a bad key before touching the network.
	a.Cipher, err = fieldcipher.NewFromBase64(cfg.EncryptionKey)
	if err != nil {
		return nil, err
	}

	store, err := a.openIdentityStore(ctx)
	if err != nil {
		return nil, err
	}
	a.health["identity_store"] = store.Ping
	a.Identities = service.NewIdentityGateway(store)
	a.Auth = service.NewAuthService(store, cfg.JWTSecret, cfg.TokenTTL)

	conn, err := ledger.Dial(ctx, ledger.Config{
		RPCURL:          cfg.Ledger.RPCURL,
		ContractAddress: cfg.Ledger.ContractAddress,
		PrivateKey:      cfg.Ledger.PrivateKey,
		Options: ledger.Options{
			GasLimit:       cfg.Ledger.GasLimit,
			GasPriceGwei:   cfg.Ledger.GasPriceGwei,
			ConfirmTimeout: cfg.Ledger.ConfirmTimeout,
		},
	}, log)
	if err != nil {
		return nil, err
	}
	a.onClose(func(context.Context) error { conn.Close(); return nil })
	a.health["ledger"] = conn.Ping

	gen, err := artifact.NewQRGenerator(cfg.Artifact.Dir, cfg.Artifact.Size, log)
	if err != nil {
		return nil, err
	}
	a.dispatcher = queue.NewDispatcher(cfg.Artifact.Workers, gen, log,
		queue.WithRetry(artifactRetryAttempts, artifactRetryBackoff))

	opts := []service.ProvenanceOption{service.WithArtifactRetry(a.dispatcher)}

	if cfg.Redis.Addr != "" {
		rdb, err := redisdb.Connect(ctx, redisdb.Config{Addr: cfg.Redis.Addr, DB: cfg.Redis.DB})
		if err != nil {
			return nil, err
		}
		a.onClose(func(context.Context) error { return rdb.Close() })
		journal := redisdb.NewTxJournal(rdb, cfg.Redis.JournalTTL)
		a.health["redis"] = journal.Ping
		opts = append(opts, service.WithJournal(journal))
	} else {
		log.Warn().Msg("REDIS_ADDR not set, pending-transaction journal disabled")
	}

	if cfg.Mongo.AuditEnabled {
		db, err := a.mongoDB(ctx)
		if err != nil {
			return nil, err
		}
		opts = append(opts, service.WithAudit(mongodb.NewAuditRepository(db)))
	}

	a.Provenance = service.NewProvenanceService(a.Identities, a.Cipher, conn, gen, log, opts...)
	return a, nil
}

func (a *App) openIdentityStore(ctx context.Context) (ports.IdentityStore, error) {
	cfg := a.Config.Identity
	switch cfg.Backend {
	case "sqlite":
		db, err := sqlite.Open(cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		a.onClose(func(context.Context) error { return db.Close() })
		return sqlite.NewUserRepository(db), nil
	case "postgres":
		pool, err := postgres.Connect(ctx, postgres.Config{URL: cfg.DatabaseURL})
		if err != nil {
			return nil, err
		}
		a.onClose(func(context.Context) error { pool.Close(); return nil })
		return postgres.NewUserRepository(pool), nil
	case "mongo":
		db, err := a.mongoDB(ctx)
		if err != nil {
			return nil, err
		}
		return mongodb.NewUserRepository(db), nil
	}
	return nil, fmt.Errorf("app: unknown identity backend %q", cfg.Backend)
}

// mongoDB connects once and is shared by the identity store and audit trail.
func (a *App) mongoDB(ctx context.Context) (*mongo.Database, error) {
	if a.mongo != nil {
		return a.mongo, nil
	}
	client, db, err := mongodb.Connect(ctx, mongodb.Config{URI: a.Config.Mongo.URI, Database: a.Config.Mongo.Database})
	if err != nil {
		return nil, err
	}
	a.onClose(client.Disconnect)
	if err := mongodb.EnsureIndexes(ctx, db); err != nil {
		return nil, err
	}
	a.health["mongodb"] = func(ctx context.Context) error { return client.Ping(ctx, nil) }
	a.mongo = db
	return db, nil
}

func (a *App) onClose(fn func(context.Context) error) {
	a.closers = append(a.closers, fn)
}

// Start launches the artifact retry workers; they stop with ctx.
func (a *App) Start(ctx context.Context) {
	a.dispatcher.Start(ctx)
}

// Router builds the HTTP surface.
func (a *App) Router() *echo.Echo {
	return api.NewRouter(api.Deps{
		Provenance:   a.Provenance,
		Auth:         a.Auth,
		Resolver:     a.Identities,
		Health:       a.health,
		JWTSecret:    a.Config.JWTSecret,
		TokenTTL:     a.Auth.TokenTTL(),
		SecureCookie: !a.Config.Development(),
		Log:          a.log,
	})
}

// Close releases resources in reverse order of acquisition.
func (a *App) Close(ctx context.Context) error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](ctx); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
