// Package service holds background services shared by the console sessions.
package service

import (
	"context"
	"encoding/json"
	"sort"
	"sync"
	"time"

	"github.com/bcnelson/erp-console/internal/storage"
	"github.com/go-faster/errors"
	"github.com/sirupsen/logrus"
)

type stateKey struct {
	scope string
	key   string
}

// PersistService coalesces durable state writes. Writes scheduled within the
// debounce period are flushed together and only the last value per key is
// written.
type PersistService struct {
	store    storage.Storage
	debounce time.Duration
	logger   *logrus.Logger

	mu      sync.Mutex
	timer   *time.Timer
	pending map[stateKey]string
	stopped bool
}

// NewPersistService creates a PersistService.
func NewPersistService(store storage.Storage, debounce time.Duration, logger *logrus.Logger) *PersistService {
	return &PersistService{
		store:    store,
		debounce: debounce,
		logger:   logger,
		pending:  make(map[stateKey]string),
	}
}

// Store returns the underlying storage.
func (s *PersistService) Store() storage.Storage {
	return s.store
}

// Schedule queues a debounced write of value.
// Multiple schedules within the debounce period result in a single flush.
func (s *PersistService) Schedule(scope, key, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stopped {
		return
	}
	s.pending[stateKey{scope, key}] = value

	if s.timer != nil {
		s.timer.Stop()
	}
	s.timer = time.AfterFunc(s.debounce, func() {
		if err := s.Flush(context.Background()); err != nil {
			s.logger.WithError(err).Warn("Debounced persist failed")
		}
	})
}

// ScheduleJSON queues a debounced write of v encoded as JSON.
func (s *PersistService) ScheduleJSON(scope, key string, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return errors.Wrapf(err, "encoding %s", key)
	}
	s.Schedule(scope, key, string(b))
	return nil
}

// Delete drops any pending write for the keys and deletes them now.
func (s *PersistService) Delete(ctx context.Context, scope string, keys ...string) error {
	s.mu.Lock()
	for _, k := range keys {
		delete(s.pending, stateKey{scope, k})
	}
	s.mu.Unlock()

	for _, k := range keys {
		if err := s.store.Delete(ctx, scope, k); err != nil {
			return errors.Wrapf(err, "deleting %s", k)
		}
	}
	return nil
}

// DropScope discards pending writes of scope without writing them.
func (s *PersistService) DropScope(scope string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for k := range s.pending {
		if k.scope == scope {
			delete(s.pending, k)
		}
	}
}

// Flush writes every pending value immediately.
func (s *PersistService) Flush(ctx context.Context) error {
	s.mu.Lock()
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	batch := s.pending
	s.pending = make(map[stateKey]string)
	s.mu.Unlock()

	keys := make([]stateKey, 0, len(batch))
	for k := range batch {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].scope != keys[j].scope {
			return keys[i].scope < keys[j].scope
		}
		return keys[i].key < keys[j].key
	})

	var firstErr error
	for _, k := range keys {
		if err := s.store.Put(ctx, k.scope, k.key, batch[k]); err != nil {
			s.logger.WithFields(logrus.Fields{
				"scope": k.scope,
				"key":   k.key,
			}).WithError(err).Warn("Persist write failed")
			if firstErr == nil {
				firstErr = errors.Wrapf(err, "writing %s", k.key)
			}
		}
	}
	return firstErr
}

// Pending returns the number of queued writes.
func (s *PersistService) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}

// Stop flushes pending writes and refuses new ones.
func (s *PersistService) Stop(ctx context.Context) error {
	s.mu.Lock()
	s.stopped = true
	s.mu.Unlock()
	return s.Flush(ctx)
}
