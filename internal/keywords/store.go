package keywords

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// ErrReloadRejected is returned when a reload had problems and the previous
// registry was kept.
var ErrReloadRejected = errors.New("keyword reload rejected")

// Store publishes the current registry snapshot.
type Store struct {
	current atomic.Pointer[Registry]
}

// NewStore creates a store holding reg. A nil reg is stored as empty.
func NewStore(reg *Registry) *Store {
	s := &Store{}
	s.Swap(reg)
	return s
}

// Snapshot returns the current registry. Callers keep the returned value for
// the duration of one scan.
func (s *Store) Snapshot() *Registry {
	return s.current.Load()
}

// Swap installs reg and returns the previous registry.
func (s *Store) Swap(reg *Registry) *Registry {
	if reg == nil {
		reg = Empty()
	}
	return s.current.Swap(reg)
}

// Reload loads path and installs the result if it loaded cleanly. Otherwise
// the current snapshot stays in place and ErrReloadRejected is returned.
func (s *Store) Reload(path string, logger *zap.Logger) (LoadReport, error) {
	reg, report := LoadFile(path, logger)
	if !report.OK() {
		return report, fmt.Errorf("%w: %w", ErrReloadRejected, report.Problems())
	}
	s.Swap(reg)
	return report, nil
}

// Watch reloads path whenever it is written, created or renamed into place.
// The parent directory is watched so editors that replace the file are
// picked up. Watching stops when ctx is done.
func (s *Store) Watch(ctx context.Context, path string, logger *zap.Logger) error {
	if logger == nil {
		logger = zap.NewNop()
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("resolving keyword path: %w", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating keyword watcher: %w", err)
	}
	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		_ = watcher.Close()
		return fmt.Errorf("watching %s: %w", filepath.Dir(abs), err)
	}

	go s.processEvents(ctx, watcher, abs, logger)
	return nil
}

func (s *Store) processEvents(ctx context.Context, watcher *fsnotify.Watcher, path string, logger *zap.Logger) {
	defer func() { _ = watcher.Close() }()

	const reloadOps = fsnotify.Write | fsnotify.Create | fsnotify.Rename

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != path || event.Op&reloadOps == 0 {
				continue
			}
			report, err := s.Reload(path, logger)
			if err != nil {
				logger.Warn("keyword reload rejected, keeping previous registry",
					zap.String("path", path),
					zap.Error(err),
				)
				continue
			}
			logger.Info("keyword registry reloaded",
				zap.String("path", path),
				zap.Int("keywords", report.Loaded),
			)
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			logger.Warn("keyword watcher error", zap.Error(err))
		}
	}
}
