package backend

import (
	"fmt"

	applog "fintrack/internal/log"

	"fintrack/internal/events"
	"fintrack/internal/ledger"
	"fintrack/internal/memory"
	"fintrack/internal/storage"
	"fintrack/internal/supabase"
)

// Factory assembles ledgers from configuration.
type Factory struct {
	logger *applog.Logger
}

func NewFactory(logger *applog.Logger) *Factory {
	if logger == nil {
		logger = applog.New(applog.DefaultConfig())
	}
	return &Factory{logger: logger.WithComponent(applog.ComponentBackend)}
}

// Create builds the configured store and wraps it with the event and
// cache decorators. AMQP is best effort: a broker that is down at boot
// disables events rather than failing startup.
func (f *Factory) Create(cfg Config) (*Result, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	store, cleanup, err := f.createStore(cfg)
	if err != nil {
		return nil, err
	}

	decorated := store
	if cfg.AMQPURL != "" {
		client, err := events.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			f.logger.Warn("Failed to initialize AMQP client, continuing without events",
				applog.FieldError, err)
		} else {
			f.logger.Info("Initialized AMQP client",
				"exchange", cfg.AMQPExchange,
				"queue", cfg.AMQPQueue)
			decorated = ledger.NewNotifying(store, client)
			cleanup = chainCleanup(cleanup, client.Close)
		}
	}

	f.logger.Info("Initialized ledger backend",
		applog.FieldBackend, cfg.Type.String(),
		"cache_ttl", cfg.CacheTTL)

	return &Result{
		Ledger:  ledger.NewCached(decorated, cfg.CacheTTL),
		Cleanup: cleanup,
	}, nil
}

func (f *Factory) createStore(cfg Config) (ledger.Ledger, CleanupFunc, error) {
	switch cfg.Type {
	case SQLiteBackend:
		repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
		if err != nil {
			return nil, nil, fmt.Errorf("initialize SQLite repository: %w", err)
		}
		f.logger.Info("Opened SQLite database", "db_path", cfg.SQLiteDBPath)
		return repo, repo.Close, nil

	case SupabaseBackend:
		repo, err := supabase.NewRepository(cfg.SupabaseURL, cfg.SupabaseKey)
		if err != nil {
			return nil, nil, fmt.Errorf("initialize Supabase repository: %w", err)
		}
		f.logger.Info("Connected to Supabase project")
		return repo, nil, nil

	case MemoryBackend:
		f.logger.Info("Using in-memory store, data will not persist")
		return memory.NewStore(), nil, nil

	default:
		return nil, nil, fmt.Errorf("unsupported backend type: %s", cfg.Type)
	}
}

func chainCleanup(fns ...CleanupFunc) CleanupFunc {
	return func() error {
		var first error
		for _, fn := range fns {
			if fn == nil {
				continue
			}
			if err := fn(); err != nil && first == nil {
				first = err
			}
		}
		return first
	}
}
