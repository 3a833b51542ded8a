package backend

import (
	"errors"
	"fmt"
	"time"

	"fintrack/internal/config"
)

// Type selects where preferences are persisted.
type Type string

const (
	SQLiteBackend Type = config.BackendSQLite
	FileBackend   Type = config.BackendFile
	MemoryBackend Type = config.BackendMemory
)

const (
	defaultDialAttempts    = 3
	defaultCleanupInterval = 10 * time.Minute
)

func (t Type) String() string { return string(t) }

func (t Type) IsValid() bool {
	switch t {
	case SQLiteBackend, FileBackend, MemoryBackend:
		return true
	default:
		return false
	}
}

type Config struct {
	Type Type

	SQLiteDBPath  string
	PrefsFilePath string

	// CacheSize 0 disables the read-through cache.
	CacheSize            int
	CacheTTL             time.Duration
	CacheCleanupInterval time.Duration

	// AMQP is optional; an empty URL keeps alerts in the log only.
	AMQPURL          string
	AMQPExchange     string
	AMQPQueue        string
	AMQPDialAttempts int
}

// FromAppConfig converts the application config to backend config
func FromAppConfig(appConfig *config.Config) (Config, error) {
	if appConfig == nil {
		return Config{}, errors.New("app config is nil")
	}

	c := Config{
		Type:                 Type(appConfig.DataBackend),
		SQLiteDBPath:         appConfig.SQLiteDBPath,
		PrefsFilePath:        appConfig.PrefsFilePath,
		CacheSize:            appConfig.CacheSize,
		CacheTTL:             appConfig.CacheTTL,
		CacheCleanupInterval: defaultCleanupInterval,
		AMQPURL:              appConfig.AMQPURL,
		AMQPExchange:         appConfig.AMQPExchange,
		AMQPQueue:            appConfig.AMQPQueue,
		AMQPDialAttempts:     defaultDialAttempts,
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

// Validate validates the backend configuration
func (c Config) Validate() error {
	if !c.Type.IsValid() {
		return fmt.Errorf("invalid backend type: %s", c.Type)
	}
	switch c.Type {
	case SQLiteBackend:
		if c.SQLiteDBPath == "" {
			return errors.New("sqlite backend requires a database path")
		}
	case FileBackend:
		if c.PrefsFilePath == "" {
			return errors.New("file backend requires a preferences file path")
		}
	}
	if c.CacheSize < 0 {
		return fmt.Errorf("invalid cache size %d", c.CacheSize)
	}
	if c.CacheSize > 0 && c.CacheTTL <= 0 {
		return errors.New("cache TTL must be positive when the cache is enabled")
	}
	if c.AMQPURL != "" && (c.AMQPExchange == "" || c.AMQPQueue == "") {
		return errors.New("AMQP exchange and queue are required when AMQP_URL is set")
	}
	return nil
}
