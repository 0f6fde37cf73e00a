package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "0123456789abcdef")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Server.Port != "8080" || cfg.Storage.Backend != "sqlite" {
		t.Errorf("Unexpected server/storage defaults: %+v %+v", cfg.Server, cfg.Storage)
	}
	if cfg.Settlement.RequiredSignatures != 2 || cfg.Settlement.EscrowHold != time.Hour {
		t.Errorf("Unexpected settlement defaults: %+v", cfg.Settlement)
	}
	if !cfg.Settlement.ApplyCompletedSettlements {
		t.Error("Expected completed settlements to be applied by default")
	}
	if cfg.Sync.QueryWorkers != 10 || cfg.Sync.OperationWorkers != 5 {
		t.Errorf("Unexpected sync defaults: %+v", cfg.Sync)
	}
	if cfg.Redis.URL != "" {
		t.Errorf("Expected no redis by default, got %q", cfg.Redis.URL)
	}
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("JWT_SECRET", "0123456789abcdef")
	t.Setenv("STORAGE_BACKEND", "memory")
	t.Setenv("REDIS_URL", "redis://cache:6379")
	t.Setenv("REQUIRED_SIGNATURES", "3")
	t.Setenv("LEDGER_TIMEOUT", "5s")
	t.Setenv("APPLY_COMPLETED_SETTLEMENTS", "off")
	t.Setenv("SYNC_ISSUER", "rIssuer")
	t.Setenv("SYNC_ISSUANCE_ID", "usd")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Storage.Backend != "memory" || cfg.Redis.URL != "cache:6379" {
		t.Errorf("Unexpected storage: %+v %+v", cfg.Storage, cfg.Redis)
	}
	if cfg.Settlement.RequiredSignatures != 3 || cfg.Settlement.LedgerTimeout != 5*time.Second {
		t.Errorf("Unexpected settlement: %+v", cfg.Settlement)
	}
	if cfg.Settlement.ApplyCompletedSettlements {
		t.Error("Expected APPLY_COMPLETED_SETTLEMENTS=off to disable")
	}
	if cfg.Sync.Issuer != "rIssuer" || cfg.Sync.IssuanceID != "usd" {
		t.Errorf("Unexpected sync: %+v", cfg.Sync)
	}
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		want string
	}{
		{name: "missing secret", env: map[string]string{}, want: "Secret"},
		{name: "unknown backend", env: map[string]string{"STORAGE_BACKEND": "postgres"}, want: "Backend"},
		{name: "zero signatures", env: map[string]string{"REQUIRED_SIGNATURES": "0"}, want: "RequiredSignatures"},
		{name: "issuer without issuance", env: map[string]string{"SYNC_ISSUER": "rIssuer"}, want: "IssuanceID"},
		{name: "bad log format", env: map[string]string{"LOG_FORMAT": "xml"}, want: "Format"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.name != "missing secret" {
				t.Setenv("JWT_SECRET", "0123456789abcdef")
			} else {
				t.Setenv("JWT_SECRET", "")
			}
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load()
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("Expected error mentioning %s, got %v", tt.want, err)
			}
		})
	}
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	if err := os.WriteFile(path, []byte("SPLITLEDGER_TEST_KEY=from-file\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("SPLITLEDGER_TEST_KEY", "")
	os.Unsetenv("SPLITLEDGER_TEST_KEY")

	if err := LoadDotEnv(path); err != nil {
		t.Fatalf("LoadDotEnv failed: %v", err)
	}
	if got := os.Getenv("SPLITLEDGER_TEST_KEY"); got != "from-file" {
		t.Errorf("Expected value from file, got %q", got)
	}

	if err := LoadDotEnv(filepath.Join(dir, "missing.env")); err != nil {
		t.Errorf("Missing file should be ignored, got %v", err)
	}
}

func TestConfig_Netting(t *testing.T) {
	t.Setenv("JWT_SECRET", "0123456789abcdef")
	t.Setenv("MAX_BROADCAST_ATTEMPTS", "5")
	t.Setenv("SYNC_OPERATION_WORKERS", "2")
	t.Setenv("LEDGER_TIMEOUT", "2s")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	nc := cfg.Netting()
	if nc.MaxBroadcastAttempts != 5 || nc.Sync.OperationWorkers != 2 {
		t.Errorf("Unexpected netting config: %+v", nc)
	}
	if nc.LedgerTimeout != 2*time.Second || nc.Sync.LedgerTimeout != 2*time.Second {
		t.Errorf("Expected ledger timeout to propagate, got %v / %v", nc.LedgerTimeout, nc.Sync.LedgerTimeout)
	}
	if nc.AutoSync.Timeout <= 0 {
		t.Error("Expected default auto-sync timeout")
	}
}
