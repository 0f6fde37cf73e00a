// Package config loads server configuration from the environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"

	"github.com/mmynk/splitledger/internal/balancesync"
	"github.com/mmynk/splitledger/internal/netting"
)

type Config struct {
	Server     ServerConfig
	Storage    StorageConfig
	Redis      RedisConfig
	JWT        JWTConfig
	Settlement SettlementConfig
	Sync       SyncConfig
	Log        LogConfig
}

type ServerConfig struct {
	Port string `validate:"required,numeric"`
}

type StorageConfig struct {
	Backend string `validate:"oneof=sqlite memory"`
	DBPath  string `validate:"required_if=Backend sqlite"`
}

// RedisConfig selects the shared balance cache. An empty URL keeps the cache
// in process.
type RedisConfig struct {
	URL      string
	Password string
	DB       int `validate:"gte=0"`
}

type JWTConfig struct {
	Secret     string        `validate:"required,min=16"`
	Expiration time.Duration `validate:"gt=0"`
}

type SettlementConfig struct {
	RequiredSignatures        int           `validate:"gte=1"`
	EscrowHold                time.Duration `validate:"gt=0"`
	MaxBroadcastAttempts      int           `validate:"gte=1"`
	LedgerTimeout             time.Duration `validate:"gte=0"`
	ApplyCompletedSettlements bool
}

type SyncConfig struct {
	QueryWorkers     int `validate:"gte=1"`
	OperationWorkers int `validate:"gte=1"`

	// Issuer and IssuanceID enable synchronization after every graph change.
	Issuer     string `validate:"required_with=IssuanceID"`
	IssuanceID string `validate:"required_with=Issuer"`
}

type LogConfig struct {
	Level  string `validate:"omitempty,oneof=debug info warn error"`
	Format string `validate:"omitempty,oneof=text json"`
}

// LoadDotEnv reads variables from a .env file into the environment without
// overriding variables that are already set. A missing file is not an error.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load %s: %w", p, err)
		}
	}
	return nil
}

// Load reads the configuration from the environment and validates it.
func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Port: getEnv("SERVER_PORT", "8080"),
		},
		Storage: StorageConfig{
			Backend: strings.ToLower(getEnv("STORAGE_BACKEND", "sqlite")),
			DBPath:  getEnv("DB_PATH", "./data/splitledger.db"),
		},
		Redis: RedisConfig{
			URL:      normalizeRedisURL(getEnv("REDIS_URL", "")),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getIntEnv("REDIS_DB", 0),
		},
		JWT: JWTConfig{
			Secret:     getEnv("JWT_SECRET", ""),
			Expiration: getDurationEnv("JWT_EXPIRATION", 24*time.Hour),
		},
		Settlement: SettlementConfig{
			RequiredSignatures:        getIntEnv("REQUIRED_SIGNATURES", 2),
			EscrowHold:                getDurationEnv("ESCROW_HOLD", time.Hour),
			MaxBroadcastAttempts:      getIntEnv("MAX_BROADCAST_ATTEMPTS", 3),
			LedgerTimeout:             getDurationEnv("LEDGER_TIMEOUT", 0),
			ApplyCompletedSettlements: getBoolEnv("APPLY_COMPLETED_SETTLEMENTS", true),
		},
		Sync: SyncConfig{
			QueryWorkers:     getIntEnv("SYNC_QUERY_WORKERS", 10),
			OperationWorkers: getIntEnv("SYNC_OPERATION_WORKERS", 5),
			Issuer:           getEnv("SYNC_ISSUER", ""),
			IssuanceID:       getEnv("SYNC_ISSUANCE_ID", ""),
		},
		Log: LogConfig{
			Level:  strings.ToLower(getEnv("LOG_LEVEL", "info")),
			Format: strings.ToLower(getEnv("LOG_FORMAT", "text")),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks every field against its constraints.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, e := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s failed '%s'", e.Namespace(), e.Tag()))
			}
			return fmt.Errorf("invalid configuration: %s", strings.Join(msgs, "; "))
		}
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

// Netting returns the engine configuration.
func (c *Config) Netting() netting.Config {
	cfg := netting.DefaultConfig()
	cfg.RequiredSignatures = c.Settlement.RequiredSignatures
	cfg.EscrowHold = c.Settlement.EscrowHold
	cfg.MaxBroadcastAttempts = c.Settlement.MaxBroadcastAttempts
	cfg.LedgerTimeout = c.Settlement.LedgerTimeout
	cfg.ApplyCompletedSettlements = c.Settlement.ApplyCompletedSettlements
	cfg.Sync = balancesync.Config{
		QueryWorkers:     c.Sync.QueryWorkers,
		OperationWorkers: c.Sync.OperationWorkers,
		LedgerTimeout:    c.Settlement.LedgerTimeout,
	}
	cfg.AutoSync.Issuer = c.Sync.Issuer
	cfg.AutoSync.IssuanceID = c.Sync.IssuanceID
	return cfg
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func normalizeRedisURL(url string) string {
	// Strip redis:// scheme if present
	return strings.TrimPrefix(url, "redis://")
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		switch strings.ToLower(strings.TrimSpace(value)) {
		case "1", "true", "yes", "y", "on":
			return true
		case "0", "false", "no", "n", "off":
			return false
		}
	}
	return defaultValue
}
