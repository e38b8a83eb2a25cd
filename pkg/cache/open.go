package cache

import (
	"context"
	"fmt"
	"time"
)

// Backend names accepted by Open.
const (
	BackendFile  = "file"
	BackendRedis = "redis"
	BackendMongo = "mongo"
	BackendNone  = "none"
)

// Config selects and configures a backend.
type Config struct {
	Backend string
	TTL     time.Duration

	Dir string

	RedisAddr string
	RedisDB   int

	MongoURI        string
	MongoDatabase   string
	MongoCollection string
}

// Open builds the configured backend. An empty backend means file.
func Open(ctx context.Context, cfg Config) (Cache, error) {
	switch cfg.Backend {
	case "", BackendFile:
		c, err := NewFileCache(cfg.Dir)
		if err != nil {
			return nil, err
		}
		return c, nil
	case BackendNone:
		return NewNullCache(), nil
	case BackendRedis:
		c, err := NewRedisCache(ctx, cfg.RedisAddr, cfg.RedisDB)
		if err != nil {
			return nil, err
		}
		return c, nil
	case BackendMongo:
		db, coll := cfg.MongoDatabase, cfg.MongoCollection
		if db == "" {
			db = "gastrodon"
		}
		if coll == "" {
			coll = "responses"
		}
		c, err := NewMongoCache(ctx, cfg.MongoURI, db, coll)
		if err != nil {
			return nil, err
		}
		return c, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, cfg.Backend)
}
