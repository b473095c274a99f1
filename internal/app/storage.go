package app

import (
	"context"
	"fmt"

	"github.com/sudharshan41/apartmentrentalportal/internal/config"
	"github.com/sudharshan41/apartmentrentalportal/internal/storage"
)

// OpenStorage returns the session backend named by cfg.SessionStore.
func OpenStorage(ctx context.Context, cfg config.Config) (storage.Storage, error) {
	switch cfg.SessionStore {
	case config.StoreFile:
		return storage.NewFile(cfg.SessionFile), nil
	case config.StoreRedis:
		st, err := storage.OpenRedis(ctx, storage.RedisOptions{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
			Prefix:   cfg.RedisPrefix,
		})
		if err != nil {
			return nil, err
		}
		return st, nil
	case config.StoreMemory:
		return storage.NewMemory(), nil
	default:
		return nil, fmt.Errorf("unknown session store %q", cfg.SessionStore)
	}
}
