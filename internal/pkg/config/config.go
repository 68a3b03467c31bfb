// Package config loads process configuration from the environment. A .env
// file in the working directory, when present, is read first; variables
// already set in the environment take precedence.
package config

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/joho/godotenv"
	"github.com/sethvargo/go-envconfig"
)

type Config struct {
	Port      string        `env:"PORT,      default=8080"`
	Env       string        `env:"ENV,       default=development"`
	LogLevel  string        `env:"LOG_LEVEL, default=info"`
	JWTSecret string        `env:"JWT_SECRET"`
	TokenTTL  time.Duration `env:"TOKEN_TTL, default=24h"`

	// EncryptionKey is the base64 AES-256 field key.
	EncryptionKey string `env:"AES_ENCRYPTION_KEY"`

	Identity IdentityConfig
	Mongo    MongoConfig
	Redis    RedisConfig
	Ledger   LedgerConfig
	Artifact ArtifactConfig
}

type IdentityConfig struct {
	Backend     string `env:"IDENTITY_BACKEND, default=sqlite"`
	SQLitePath  string `env:"SQLITE_PATH,      default=./provenance.db"`
	DatabaseURL string `env:"DATABASE_URL"`
}

type MongoConfig struct {
	URI          string `env:"MONGO_URI,     default=mongodb://localhost:27017"`
	Database     string `env:"MONGO_DB,      default=provenance"`
	AuditEnabled bool   `env:"AUDIT_ENABLED, default=false"`
}

type RedisConfig struct {
	// Addr empty disables the pending-transaction journal.
	Addr       string        `env:"REDIS_ADDR"`
	DB         int           `env:"REDIS_DB,    default=0"`
	JournalTTL time.Duration `env:"JOURNAL_TTL, default=24h"`
}

type LedgerConfig struct {
	RPCURL          string        `env:"LEDGER_RPC_URL,         default=http://127.0.0.1:7545"`
	ContractAddress string        `env:"LEDGER_CONTRACT_ADDRESS"`
	PrivateKey      string        `env:"LEDGER_PRIVATE_KEY"`
	GasLimit        uint64        `env:"LEDGER_GAS_LIMIT,       default=500000"`
	GasPriceGwei    int64         `env:"LEDGER_GAS_PRICE_GWEI,  default=5"`
	ConfirmTimeout  time.Duration `env:"LEDGER_CONFIRM_TIMEOUT, default=2m"`
}

type ArtifactConfig struct {
	Dir     string `env:"ARTIFACT_DIR,     default=./qr"`
	Size    int    `env:"ARTIFACT_SIZE,    default=256"`
	Workers int    `env:"ARTIFACT_WORKERS, default=2"`
}

// Development reports whether the service runs in a local environment.
func (c *Config) Development() bool { return c.Env == "development" }

// Load reads .env (if any) and then the process environment.
func Load(ctx context.Context) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("config: read .env: %w", err)
	}

	var cfg Config
	if err := envconfig.Process(ctx, &cfg); err != nil {
		return nil, fmt.Errorf("config: failed to load configuration: %w", err)
	}
	return &cfg, nil
}

// Validate checks the settings the server cannot start without.
func (c *Config) Validate() error {
	var errs []error
	if c.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET is required"))
	}
	if c.EncryptionKey == "" {
		errs = append(errs, errors.New("AES_ENCRYPTION_KEY is required"))
	}
	switch c.Identity.Backend {
	case "sqlite", "mongo":
	case "postgres":
		if c.Identity.DatabaseURL == "" {
			errs = append(errs, errors.New("DATABASE_URL is required for the postgres backend"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown IDENTITY_BACKEND %q", c.Identity.Backend))
	}
	if c.Ledger.ContractAddress == "" || c.Ledger.PrivateKey == "" {
		errs = append(errs, errors.New("LEDGER_CONTRACT_ADDRESS and LEDGER_PRIVATE_KEY are required"))
	}
	return errors.Join(errs...)
}
