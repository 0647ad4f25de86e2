package config

import (
	"context"
	"os"
	"path/filepath"

	"github.com/OpenTraceLab/OpenTrace3D/pkg/cache"
	"github.com/OpenTraceLab/OpenTrace3D/pkg/store"
)

// OpenCache creates the macro-table cache selected by [cache].
func (c *Config) OpenCache(ctx context.Context) (cache.Cache, error) {
	switch c.Cache.Backend {
	case BackendFile:
		dir := c.Cache.Dir
		if dir == "" {
			base, err := os.UserCacheDir()
			if err != nil {
				return nil, err
			}
			dir = filepath.Join(base, "ot3d")
		}
		return cache.NewFileCache(dir)
	case BackendRedis:
		return cache.NewRedisCache(ctx, cache.RedisConfig{
			Addr:     c.Cache.RedisAddr,
			Password: c.Cache.RedisPassword,
			DB:       c.Cache.RedisDB,
		})
	}
	return cache.NewNullCache(), nil
}

// OpenStore creates the report store selected by [store]. It returns nil
// for the none backend.
func (c *Config) OpenStore(ctx context.Context) (store.Store, error) {
	switch c.Store.Backend {
	case BackendFile:
		s, err := store.NewFileStore(c.Store.Dir)
		if err != nil {
			return nil, err
		}
		return s, nil
	case BackendMongo:
		s, err := store.NewMongoStore(ctx, store.MongoConfig{
			URI:        c.Store.MongoURI,
			Database:   c.Store.Database,
			Collection: c.Store.Collection,
		})
		if err != nil {
			return nil, err
		}
		return s, nil
	}
	return nil, nil
}
