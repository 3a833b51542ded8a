package backend

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"fintrack/internal/amqp"
	"fintrack/internal/budget"
	"fintrack/internal/cache"
	"fintrack/internal/config"
	"fintrack/internal/prefs"
	"fintrack/internal/prefs/memory"
	"fintrack/internal/storage"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *slog.Logger
	dial   func(ctx context.Context, url, exchange, queue string, attempts int) (*amqp.Client, error)
}

func NewFactory(logger *slog.Logger) *DefaultFactory {
	if logger == nil {
		logger = slog.Default()
	}
	return &DefaultFactory{logger: logger, dial: amqp.DialWithRetry}
}

// New builds the backend described by the application config.
func New(ctx context.Context, appConfig *config.Config, logger *slog.Logger) (*Result, error) {
	c, err := FromAppConfig(appConfig)
	if err != nil {
		return nil, err
	}
	return NewFactory(logger).Create(ctx, c)
}

// Create opens the store, wraps it in the cache when enabled, and sets up
// the notifier. An unreachable broker is logged and alerts stay in the log.
func (f *DefaultFactory) Create(ctx context.Context, c Config) (*Result, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	var closers []func() error
	res := &Result{}

	store, ready, closeStore, err := f.createStore(c)
	if err != nil {
		return nil, err
	}
	if closeStore != nil {
		closers = append(closers, closeStore)
	}
	res.Store, res.Ready = store, ready

	if c.CacheSize > 0 {
		cached := prefs.NewCachedStore(store, c.CacheSize, c.CacheTTL)
		mgr := cache.NewManager(f.logger)
		mgr.Register(cached.Cleaner())
		interval := c.CacheCleanupInterval
		if interval <= 0 {
			interval = defaultCleanupInterval
		}
		mgr.StartCleanup(interval)
		// stop the sweeper before the store underneath it closes
		closers = append([]func() error{func() error { mgr.Stop(); return nil }}, closers...)
		res.Store = cached
		f.logger.Info("Enabled preference cache", "size", c.CacheSize, "ttl", c.CacheTTL)
	}

	logNotifier := budget.LogNotifier{Logger: f.logger}
	res.Notifier = logNotifier
	if c.AMQPURL != "" {
		attempts := max(c.AMQPDialAttempts, 1)
		client, err := f.dial(ctx, c.AMQPURL, c.AMQPExchange, c.AMQPQueue, attempts)
		if err != nil {
			f.logger.Warn("Failed to initialize AMQP client, budget alerts will only be logged", "error", err)
		} else {
			res.Notifier = budget.Multi(logNotifier, client)
			res.AlertsPublished = true
			closers = append([]func() error{client.Close}, closers...)
			f.logger.Info("Initialized AMQP client", "exchange", c.AMQPExchange, "queue", c.AMQPQueue)
		}
	}

	res.Cleanup = func() error {
		var errs []error
		for _, closeFn := range closers {
			if err := closeFn(); err != nil {
				errs = append(errs, err)
			}
		}
		return errors.Join(errs...)
	}

	f.logger.Info("Initialized backend", "type", c.Type.String(), "alerts_published", res.AlertsPublished)
	return res, nil
}

func (f *DefaultFactory) createStore(c Config) (prefs.Store, ReadyFunc, func() error, error) {
	switch c.Type {
	case SQLiteBackend:
		repo, err := storage.NewSQLiteRepository(c.SQLiteDBPath)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("failed to initialize SQLite repository: %w", err)
		}
		f.logger.Info("Opened SQLite preferences", "db_path", c.SQLiteDBPath)
		return repo, repo.Ping, repo.Close, nil

	case FileBackend:
		store, err := memory.NewFile(c.PrefsFilePath)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("failed to open preferences file: %w", err)
		}
		f.logger.Info("Opened file preferences", "path", c.PrefsFilePath)
		return store, alwaysReady, nil, nil

	case MemoryBackend:
		f.logger.Warn("Using in-memory preferences, data is lost on restart")
		return memory.New(), alwaysReady, nil, nil

	default:
		return nil, nil, nil, fmt.Errorf("unsupported backend type: %s", c.Type)
	}
}

func alwaysReady(context.Context) error { return nil }
