package config

import (
	"context"
	"strings"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("JWT_SECRET", "s3cret")

	cfg, err := Load(context.Background())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Port != "8080" || cfg.Identity.Backend != "sqlite" {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if cfg.Ledger.GasLimit != 500000 || cfg.Ledger.GasPriceGwei != 5 {
		t.Fatalf("unexpected gas defaults: %+v", cfg.Ledger)
	}
	if cfg.Ledger.ConfirmTimeout != 2*time.Minute || cfg.TokenTTL != 24*time.Hour {
		t.Fatalf("unexpected durations: %v %v", cfg.Ledger.ConfirmTimeout, cfg.TokenTTL)
	}
	if cfg.Artifact.Dir != "./qr" || cfg.Artifact.Size != 256 {
		t.Fatalf("unexpected artifact defaults: %+v", cfg.Artifact)
	}
}

func TestLoad_Overrides(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("LEDGER_GAS_LIMIT", "750000")
	t.Setenv("IDENTITY_BACKEND", "postgres")
	t.Setenv("AUDIT_ENABLED", "true")

	cfg, err := Load(context.Background())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Ledger.GasLimit != 750000 || cfg.Identity.Backend != "postgres" || !cfg.Mongo.AuditEnabled {
		t.Fatalf("overrides not applied: %+v", cfg)
	}
}

func TestValidate(t *testing.T) {
	cfg := &Config{Identity: IdentityConfig{Backend: "postgres"}}
	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected error")
	}
	for _, want := range []string{"JWT_SECRET", "AES_ENCRYPTION_KEY", "DATABASE_URL", "LEDGER_CONTRACT_ADDRESS"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("expected %s in %v", want, err)
		}
	}

	ok := &Config{
		JWTSecret:     "s",
		EncryptionKey: "k",
		Identity:      IdentityConfig{Backend: "sqlite"},
		Ledger:        LedgerConfig{ContractAddress: "0x1", PrivateKey: "ab"},
	}
	if err := ok.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
