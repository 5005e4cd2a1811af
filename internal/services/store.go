package services

import (
	"context"
	"encoding/gob"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"golang.org/x/sync/singleflight"

	"superstore-dashboard/internal/loader"
	"superstore-dashboard/internal/models"
	"superstore-dashboard/internal/observability"
)

const cacheVersion = "v2"

// DatasetLoader is the part of loader.Loader the store depends on.
type DatasetLoader interface {
	Load(ctx context.Context, path string) (*models.Dataset, error)
}

type StoreOptions struct {
	CacheDir     string
	CacheEnabled bool
	Logger       *slog.Logger
	Metrics      *observability.Metrics
}

// Store memoises cleaned datasets by source path. A dataset is loaded at most
// once until it is invalidated; concurrent first requests share one load.
// Returned datasets are shared and must not be modified.
type Store struct {
	loader  DatasetLoader
	opts    StoreOptions
	logger  *slog.Logger
	metrics *observability.Metrics

	mu       sync.RWMutex
	datasets map[string]*models.Dataset
	group    singleflight.Group
}

func NewStore(l DatasetLoader, opts StoreOptions) *Store {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		loader:   l,
		opts:     opts,
		logger:   logger,
		metrics:  opts.Metrics,
		datasets: make(map[string]*models.Dataset),
	}
}

// Get returns the cleaned dataset for path, loading it on first use.
// A missing or unreadable source yields an error wrapping
// loader.ErrSourceUnavailable and is not memoised.
func (s *Store) Get(ctx context.Context, path string) (*models.Dataset, error) {
	s.mu.RLock()
	ds, ok := s.datasets[path]
	s.mu.RUnlock()
	if ok {
		s.metrics.ObserveCache("memory")
		return ds, nil
	}

	v, err, _ := s.group.Do(path, func() (any, error) {
		s.mu.RLock()
		ds, ok := s.datasets[path]
		s.mu.RUnlock()
		if ok {
			return ds, nil
		}

		// A caller giving up must not fail the load for the others.
		ds, err := s.load(context.WithoutCancel(ctx), path)
		if err != nil {
			return nil, err
		}

		s.mu.Lock()
		s.datasets[path] = ds
		s.mu.Unlock()
		return ds, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*models.Dataset), nil
}

func (s *Store) load(ctx context.Context, path string) (*models.Dataset, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", loader.ErrSourceUnavailable, err)
	}

	if s.opts.CacheEnabled {
		cached, err := s.loadFromCache(path)
		if err == nil && info.ModTime().Before(cached.LoadedAt) {
			s.metrics.ObserveCache("disk")
			s.logger.InfoContext(ctx, "loaded dataset from cache",
				"source", path,
				"orders", len(cached.Orders),
			)
			return cached, nil
		}
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			s.logger.WarnContext(ctx, "ignoring unreadable dataset cache", "source", path, "error", err)
		}
	}

	s.metrics.ObserveCache("miss")
	ds, err := s.loader.Load(ctx, path)
	if err != nil {
		return nil, err
	}
	s.metrics.ObserveLoad(len(ds.Orders), ds.Dropped.BadDate, ds.Dropped.BadNumber, ds.Dropped.Malformed)

	if s.opts.CacheEnabled {
		if err := s.saveToCache(path, ds); err != nil {
			s.logger.WarnContext(ctx, "failed to save dataset cache", "source", path, "error", err)
		}
	}
	return ds, nil
}

// Invalidate drops path from memory and removes its disk cache entry.
func (s *Store) Invalidate(path string) {
	s.mu.Lock()
	delete(s.datasets, path)
	s.mu.Unlock()

	s.group.Forget(path)

	if s.opts.CacheEnabled {
		if err := os.Remove(s.cacheFilename(path)); err != nil && !errors.Is(err, os.ErrNotExist) {
			s.logger.Warn("failed to remove dataset cache", "source", path, "error", err)
		}
	}
}

// Reload invalidates path and loads it again from the source.
func (s *Store) Reload(ctx context.Context, path string) (*models.Dataset, error) {
	s.Invalidate(path)
	return s.Get(ctx, path)
}

// Peek returns the memoised dataset for path without loading it.
func (s *Store) Peek(path string) (*models.Dataset, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ds, ok := s.datasets[path]
	return ds, ok
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.datasets)
}

func (s *Store) cacheFilename(path string) string {
	name := strings.NewReplacer("/", "_", "\\", "_", ":", "_").Replace(filepath.Clean(path))
	return filepath.Join(s.opts.CacheDir, fmt.Sprintf("%s_%s.gob", name, cacheVersion))
}

func (s *Store) saveToCache(path string, ds *models.Dataset) error {
	if err := os.MkdirAll(s.opts.CacheDir, 0o755); err != nil {
		return err
	}

	// Write then rename so a concurrent reader never sees a partial file.
	tmp, err := os.CreateTemp(s.opts.CacheDir, "dataset-*.tmp")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if err := gob.NewEncoder(tmp).Encode(ds); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), s.cacheFilename(path))
}

func (s *Store) loadFromCache(path string) (*models.Dataset, error) {
	file, err := os.Open(s.cacheFilename(path))
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var ds models.Dataset
	if err := gob.NewDecoder(file).Decode(&ds); err != nil {
		return nil, err
	}
	return &ds, nil
}
