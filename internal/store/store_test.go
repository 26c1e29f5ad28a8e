package store

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/ovokpus/PostAssist/pkg/models"
)

// fakeRemote is an in-memory remoteBackend that can be switched to fail, simulating
// a Redis outage for the degrade-on-error path.
type fakeRemote struct {
	mu     sync.Mutex
	data   map[string][]byte
	failAt bool
}

func newFakeRemote() *fakeRemote { return &fakeRemote{data: make(map[string][]byte)} }

func (f *fakeRemote) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failAt {
		return errors.New("simulated outage")
	}
	f.data[key] = value
	return nil
}

func (f *fakeRemote) Get(ctx context.Context, key string) ([]byte, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failAt {
		return nil, false, errors.New("simulated outage")
	}
	v, ok := f.data[key]
	return v, ok, nil
}

func (f *fakeRemote) ScanKeys(ctx context.Context, prefix string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failAt {
		return nil, errors.New("simulated outage")
	}
	var keys []string
	for k := range f.data {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	return keys, nil
}

func (f *fakeRemote) Del(ctx context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.data, key)
	return nil
}

func (f *fakeRemote) Ping(ctx context.Context) error {
	if f.failAt {
		return errors.New("simulated outage")
	}
	return nil
}

func (f *fakeRemote) Close() error { return nil }

func newTask(id string) *models.Task {
	now := time.Now().UTC()
	return &models.Task{
		TaskID:    id,
		Status:    models.StatusPending,
		CreatedAt: now,
		UpdatedAt: now,
		Teams:     map[string]*models.TeamState{},
	}
}

func TestAdaptiveStore_PutGet(t *testing.T) {
	remote := newFakeRemote()
	s := New(remote, nil)
	ctx := context.Background()

	task := newTask("t1")
	if err := s.PutTask(ctx, task, time.Hour); err != nil {
		t.Fatalf("PutTask: %v", err)
	}
	got, ok, err := s.GetTask(ctx, "t1")
	if err != nil || !ok {
		t.Fatalf("GetTask: ok=%v err=%v", ok, err)
	}
	if got.TaskID != "t1" {
		t.Errorf("TaskID = %q, want t1", got.TaskID)
	}
}

func TestAdaptiveStore_DegradesOnRemoteFailure(t *testing.T) {
	remote := newFakeRemote()
	s := New(remote, nil)
	ctx := context.Background()

	if err := s.PutTask(ctx, newTask("t1"), time.Hour); err != nil {
		t.Fatalf("PutTask: %v", err)
	}

	remote.failAt = true
	task2 := newTask("t2")
	if err := s.PutTask(ctx, task2, time.Hour); err != nil {
		t.Fatalf("PutTask during outage should degrade, not fail: %v", err)
	}
	if !s.isDegraded() {
		t.Fatal("expected store to be degraded after remote failure")
	}

	got, ok, err := s.GetTask(ctx, "t2")
	if err != nil || !ok {
		t.Fatalf("GetTask after degrade: ok=%v err=%v", ok, err)
	}
	if got.TaskID != "t2" {
		t.Errorf("TaskID = %q, want t2", got.TaskID)
	}

	// Recovery of the remote must NOT promote the fallback back (one-way degrade).
	remote.failAt = false
	if err := s.PutTask(ctx, newTask("t3"), time.Hour); err != nil {
		t.Fatalf("PutTask after recovery: %v", err)
	}
	if _, ok, _ := remote.Get(ctx, taskKeyPrefix+"t3"); ok {
		t.Fatal("task written after recovery should stay in fallback, not be promoted to remote")
	}
}

func TestAdaptiveStore_NoRemote_AlwaysFallback(t *testing.T) {
	s := New(nil, nil)
	if !s.isDegraded() {
		t.Fatal("store with no remote backend must start degraded")
	}
	if s.Ping(context.Background()) {
		t.Fatal("Ping with no remote backend must report false")
	}
}

func TestAdaptiveStore_PutIfAbsent(t *testing.T) {
	s := New(newFakeRemote(), nil)
	ctx := context.Background()
	if err := s.PutIfAbsent(ctx, newTask("dup"), time.Hour); err != nil {
		t.Fatalf("first PutIfAbsent: %v", err)
	}
	if err := s.PutIfAbsent(ctx, newTask("dup"), time.Hour); err == nil {
		t.Fatal("expected AlreadyExists on duplicate PutIfAbsent")
	}
}

func TestAdaptiveStore_ListTasks(t *testing.T) {
	s := New(newFakeRemote(), nil)
	ctx := context.Background()
	_ = s.PutTask(ctx, newTask("a"), time.Hour)
	_ = s.PutTask(ctx, newTask("b"), time.Hour)
	got, err := s.ListTasks(ctx)
	if err != nil {
		t.Fatalf("ListTasks: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("ListTasks: got %d tasks, want 2", len(got))
	}
}
