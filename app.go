package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/Madhav-Gupta-28/olist-insights/cache"
	"github.com/Madhav-Gupta-28/olist-insights/database"
	"github.com/Madhav-Gupta-28/olist-insights/dump"
	"github.com/Madhav-Gupta-28/olist-insights/reports"
	"github.com/Madhav-Gupta-28/olist-insights/store"
	"go.uber.org/zap"
)

const (
	storeMongo  = "mongo"
	storeMemory = "memory"
)

var errNoDumpDir = errors.New("--store memory needs --dump-dir")

// backend is an opened store with the views the commands need.
type backend struct {
	store       store.Store
	fingerprint store.Fingerprinter
	source      store.Source
	close       func(context.Context) error
}

func openBackend(ctx context.Context) (*backend, error) {
	switch storeKind {
	case storeMemory:
		if dumpDir == "" {
			return nil, errNoDumpDir
		}
		s := store.NewMemoryStore()
		if err := dump.Load(ctx, dumpDir, s); err != nil {
			return nil, err
		}
		logger.Info("Loaded dump into memory", zap.String("dir", dumpDir))
		return &backend{store: s, fingerprint: s, source: s, close: func(context.Context) error { return nil }}, nil
	case storeMongo:
		if err := cfg.RequireMongo(); err != nil {
			return nil, err
		}
		db, err := database.ConnectDB(ctx, cfg.MongoURI, cfg.Database, logger)
		if err != nil {
			return nil, err
		}
		s := store.NewMongoStore(db)
		return &backend{store: s, fingerprint: s, source: s, close: database.Disconnect}, nil
	default:
		return nil, fmt.Errorf("unknown store %q (want %s or %s)", storeKind, storeMongo, storeMemory)
	}
}

// newCacheBackend prefers Redis when configured and reachable.
func newCacheBackend(ctx context.Context) (cache.Backend, func() error) {
	if cfg.RedisAddr == "" {
		return cache.NewMemory(), func() error { return nil }
	}
	r := cache.NewRedis(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err := r.Ping(ctx); err != nil {
		logger.Warn("Redis unavailable, caching in process", zap.String("addr", cfg.RedisAddr), zap.Error(err))
		_ = r.Close()
		return cache.NewMemory(), func() error { return nil }
	}
	logger.Info("Caching reports in Redis", zap.String("addr", cfg.RedisAddr))
	return r, r.Close
}

func newSource(ctx context.Context, b *backend) (reports.Source, func() error) {
	runner := reports.NewRunner(b.store, reports.DefaultCatalog(), logger)
	cb, closeCache := newCacheBackend(ctx)
	return reports.NewCached(runner, cb, b.fingerprint, cfg.CacheTTL, logger), closeCache
}
