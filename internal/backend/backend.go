// Package backend selects and assembles a ledger from configuration:
// a concrete store wrapped by the event-publishing and caching decorators.
package backend

import (
	"fmt"
	"time"

	"fintrack/internal/config"
	"fintrack/internal/ledger"
)

// Type names a ledger backend.
type Type string

const (
	SQLiteBackend   Type = "sqlite"
	SupabaseBackend Type = "supabase"
	MemoryBackend   Type = "memory"
)

func (t Type) String() string {
	return string(t)
}

func (t Type) IsValid() bool {
	switch t {
	case SQLiteBackend, SupabaseBackend, MemoryBackend:
		return true
	default:
		return false
	}
}

// CleanupFunc releases backend resources on shutdown.
type CleanupFunc func() error

// Result bundles the assembled ledger with its cleanup function. Cleanup
// may be nil when the backend holds nothing to release.
type Result struct {
	Ledger  *ledger.Cached
	Cleanup CleanupFunc
}

// Config holds everything needed to assemble a backend.
type Config struct {
	Type Type

	// SQLite specific
	SQLiteDBPath string

	// Supabase specific
	SupabaseURL string
	SupabaseKey string

	// AMQP is optional for every backend type
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	CacheTTL time.Duration
}

// FromAppConfig converts the application config to backend config.
func FromAppConfig(appConfig *config.Config) (Config, error) {
	if appConfig == nil {
		return Config{}, fmt.Errorf("app config is nil")
	}

	backendType := Type(appConfig.LedgerBackend)
	if !backendType.IsValid() {
		return Config{}, fmt.Errorf("invalid backend type in config: %s", appConfig.LedgerBackend)
	}

	return Config{
		Type: backendType,

		SQLiteDBPath: appConfig.SQLiteDBPath,
		SupabaseURL:  appConfig.SupabaseURL,
		SupabaseKey:  appConfig.SupabaseKey,

		AMQPURL:      appConfig.AMQPURL,
		AMQPExchange: appConfig.AMQPExchange,
		AMQPQueue:    appConfig.AMQPQueue,

		CacheTTL: appConfig.CacheTTL,
	}, nil
}

// Validate checks the assembled backend config.
func (c Config) Validate() error {
	if !c.Type.IsValid() {
		return fmt.Errorf("invalid backend type: %s", c.Type)
	}

	switch c.Type {
	case SQLiteBackend:
		if c.SQLiteDBPath == "" {
			return fmt.Errorf("SQLite database path is required for sqlite backend")
		}
	case SupabaseBackend:
		if c.SupabaseURL == "" || c.SupabaseKey == "" {
			return fmt.Errorf("Supabase URL and key are required for supabase backend")
		}
	case MemoryBackend:
		// nothing to validate
	}

	if c.CacheTTL <= 0 {
		return fmt.Errorf("cache TTL must be positive, got %v", c.CacheTTL)
	}

	return nil
}
