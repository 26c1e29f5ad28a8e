// Package store implements TaskStore: durable, TTL'd key-value persistence for Task
// and BatchRequest records, keyed "task:<uuid>" and "batch:<uuid>" respectively.
//
// The concrete backend is Redis. On any remote error the adapter transparently
// degrades to an in-process map guarded by a mutex and logs the degradation once
// per transition; it never promotes back to Redis once degraded, which preserves
// the at-most-one-writer invariant at the cost of losing persistence for tasks
// affected by the outage.
package store

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/ovokpus/PostAssist/internal/orcherrors"
	"github.com/ovokpus/PostAssist/pkg/models"
)

const (
	taskKeyPrefix  = "task:"
	batchKeyPrefix = "batch:"
)

// TaskStore is the persistence interface the orchestrator depends on. Implementations
// must be safe for concurrent use.
type TaskStore interface {
	PutTask(ctx context.Context, task *models.Task, ttl time.Duration) error
	GetTask(ctx context.Context, taskID string) (*models.Task, bool, error)
	ListTasks(ctx context.Context) ([]*models.Task, error)
	DeleteTask(ctx context.Context, taskID string) error

	PutBatch(ctx context.Context, batch *models.BatchRequest, ttl time.Duration) error
	GetBatch(ctx context.Context, batchID string) (*models.BatchRequest, bool, error)

	// Ping reports whether the remote backend (if any) is currently reachable;
	// used by GET /health. A store that has never had a remote backend, or has
	// permanently degraded, reports false.
	Ping(ctx context.Context) bool
}

// remoteBackend is the minimal Redis-shaped surface TaskStore needs. Implemented by
// *redisBackend (internal/store/redis.go); tests can supply a fake.
type remoteBackend interface {
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Get(ctx context.Context, key string) ([]byte, bool, error)
	ScanKeys(ctx context.Context, prefix string) ([]string, error)
	Del(ctx context.Context, key string) error
	Ping(ctx context.Context) error
	Close() error
}

// AdaptiveStore is the TaskStore implementation described in §4.1: it prefers a
// remote backend and falls back, one-way, to an in-process map on any remote error.
type AdaptiveStore struct {
	remote   remoteBackend // nil if no STORE_URL was configured
	degraded bool
	mu       sync.Mutex

	fallback   map[string][]byte
	fallbackMu sync.RWMutex

	logger *slog.Logger
}

// New builds an AdaptiveStore. remote may be nil, in which case the store always
// operates in fallback mode (matching "STORE_URL empty -> always fallback").
func New(remote remoteBackend, logger *slog.Logger) *AdaptiveStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &AdaptiveStore{
		remote:   remote,
		degraded: remote == nil,
		fallback: make(map[string][]byte),
		logger:   logger,
	}
}

func (s *AdaptiveStore) degrade(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.degraded {
		return
	}
	s.degraded = true
	s.logger.Warn("task store degraded to in-process fallback", "err", err)
}

func (s *AdaptiveStore) isDegraded() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.degraded
}

func (s *AdaptiveStore) Ping(ctx context.Context) bool {
	if s.remote == nil || s.isDegraded() {
		return false
	}
	if err := s.remote.Ping(ctx); err != nil {
		s.degrade(err)
		return false
	}
	return true
}

func (s *AdaptiveStore) putRaw(ctx context.Context, key string, v any, ttl time.Duration) error {
	b, err := json.Marshal(v)
	if err != nil {
		return orcherrors.Wrap(orcherrors.KindSerialization, "encode store value", err)
	}
	if !s.isDegraded() {
		if err := s.remote.Set(ctx, key, b, ttl); err != nil {
			s.degrade(err)
		} else {
			return nil
		}
	}
	s.fallbackMu.Lock()
	s.fallback[key] = b
	s.fallbackMu.Unlock()
	return nil
}

func (s *AdaptiveStore) getRaw(ctx context.Context, key string) ([]byte, bool, error) {
	if !s.isDegraded() {
		b, ok, err := s.remote.Get(ctx, key)
		if err != nil {
			s.degrade(err)
		} else {
			return b, ok, nil
		}
	}
	s.fallbackMu.RLock()
	b, ok := s.fallback[key]
	s.fallbackMu.RUnlock()
	return b, ok, nil
}

func (s *AdaptiveStore) deleteRaw(ctx context.Context, key string) error {
	if !s.isDegraded() {
		if err := s.remote.Del(ctx, key); err != nil {
			s.degrade(err)
		}
	}
	s.fallbackMu.Lock()
	delete(s.fallback, key)
	s.fallbackMu.Unlock()
	return nil
}

func (s *AdaptiveStore) scanRaw(ctx context.Context, prefix string) ([][]byte, error) {
	seen := make(map[string][]byte)
	if !s.isDegraded() {
		keys, err := s.remote.ScanKeys(ctx, prefix)
		if err != nil {
			s.degrade(err)
		} else {
			for _, k := range keys {
				b, ok, err := s.remote.Get(ctx, k)
				if err == nil && ok {
					seen[k] = b
				}
			}
		}
	}
	s.fallbackMu.RLock()
	for k, v := range s.fallback {
		if strings.HasPrefix(k, prefix) {
			seen[k] = v
		}
	}
	s.fallbackMu.RUnlock()

	out := make([][]byte, 0, len(seen))
	for _, v := range seen {
		out = append(out, v)
	}
	return out, nil
}

func (s *AdaptiveStore) PutTask(ctx context.Context, task *models.Task, ttl time.Duration) error {
	return s.putRaw(ctx, taskKeyPrefix+task.TaskID, task, ttl)
}

func (s *AdaptiveStore) GetTask(ctx context.Context, taskID string) (*models.Task, bool, error) {
	b, ok, err := s.getRaw(ctx, taskKeyPrefix+taskID)
	if err != nil || !ok {
		return nil, false, err
	}
	var t models.Task
	if err := json.Unmarshal(b, &t); err != nil {
		return nil, false, orcherrors.Wrap(orcherrors.KindSerialization, "decode task", err)
	}
	return &t, true, nil
}

func (s *AdaptiveStore) ListTasks(ctx context.Context) ([]*models.Task, error) {
	raws, err := s.scanRaw(ctx, taskKeyPrefix)
	if err != nil {
		return nil, err
	}
	out := make([]*models.Task, 0, len(raws))
	for _, b := range raws {
		var t models.Task
		if err := json.Unmarshal(b, &t); err != nil {
			continue
		}
		out = append(out, &t)
	}
	return out, nil
}

func (s *AdaptiveStore) DeleteTask(ctx context.Context, taskID string) error {
	return s.deleteRaw(ctx, taskKeyPrefix+taskID)
}

func (s *AdaptiveStore) PutBatch(ctx context.Context, batch *models.BatchRequest, ttl time.Duration) error {
	return s.putRaw(ctx, batchKeyPrefix+batch.BatchID, batch, ttl)
}

func (s *AdaptiveStore) GetBatch(ctx context.Context, batchID string) (*models.BatchRequest, bool, error) {
	b, ok, err := s.getRaw(ctx, batchKeyPrefix+batchID)
	if err != nil || !ok {
		return nil, false, err
	}
	var batch models.BatchRequest
	if err := json.Unmarshal(b, &batch); err != nil {
		return nil, false, orcherrors.Wrap(orcherrors.KindSerialization, "decode batch", err)
	}
	return &batch, true, nil
}

// PutIfAbsent writes task only if no record currently exists for its TaskID, enforcing
// "at most one in-flight job per task_id" (§5). Returns AlreadyExists otherwise.
func (s *AdaptiveStore) PutIfAbsent(ctx context.Context, task *models.Task, ttl time.Duration) error {
	if _, ok, err := s.GetTask(ctx, task.TaskID); err != nil {
		return err
	} else if ok {
		return orcherrors.New(orcherrors.KindAlreadyExists, fmt.Sprintf("task %s already exists", task.TaskID))
	}
	return s.PutTask(ctx, task, ttl)
}
