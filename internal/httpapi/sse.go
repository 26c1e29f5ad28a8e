package httpapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/ovokpus/PostAssist/internal/otel"
	"github.com/ovokpus/PostAssist/pkg/models"
)

// SSEHub fans out Task snapshots to subscribers. Each subscriber filters for
// the one task_id it asked for in its URL path, per §6's
// GET /status/{task_id}/stream — there is one broadcast channel internally
// (grounded on the reference service's SSEHub) but each connection only ever
// writes events matching its own task_id.
type SSEHub struct {
	mu   sync.RWMutex
	subs map[chan *models.Task]struct{}
}

func NewSSEHub() *SSEHub {
	return &SSEHub{subs: make(map[chan *models.Task]struct{})}
}

func (h *SSEHub) subscribe() chan *models.Task {
	ch := make(chan *models.Task, models.DefaultSSEChannelBuffer)
	h.mu.Lock()
	h.subs[ch] = struct{}{}
	h.mu.Unlock()
	otel.AddSSEConnection()
	return ch
}

func (h *SSEHub) unsubscribe(ch chan *models.Task) {
	h.mu.Lock()
	if _, ok := h.subs[ch]; ok {
		delete(h.subs, ch)
		close(ch)
		otel.RemoveSSEConnection()
	}
	h.mu.Unlock()
}

// Publish broadcasts one Task snapshot to every subscriber; this is the
// function bound as the Orchestrator's `publish` callback.
func (h *SSEHub) Publish(task *models.Task) {
	otel.RecordSSEEvent(context.Background())
	h.mu.RLock()
	defer h.mu.RUnlock()
	for ch := range h.subs {
		select {
		case ch <- task:
		default:
			// Drop if a subscriber is too slow; prevents one slow client from
			// backing up every other stream.
		}
	}
}

// streamHandler serves GET /status/{task_id}/stream.
func (h *SSEHub) streamHandler(taskID string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		flusher, ok := w.(http.Flusher)
		if !ok {
			http.Error(w, "streaming unsupported", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "text/event-stream")
		w.Header().Set("Cache-Control", "no-cache")
		w.Header().Set("Connection", "keep-alive")
		w.Header().Set("X-Accel-Buffering", "no")

		ch := h.subscribe()
		defer h.unsubscribe(ch)

		_, _ = fmt.Fprintf(w, "event: connected\ndata: {}\n\n")
		flusher.Flush()

		keepalive := time.NewTicker(30 * time.Second)
		defer keepalive.Stop()

		ctx := r.Context()
		for {
			select {
			case <-ctx.Done():
				return
			case <-keepalive.C:
				_, _ = fmt.Fprint(w, ": keepalive\n\n")
				flusher.Flush()
			case task, ok := <-ch:
				if !ok {
					return
				}
				if task.TaskID != taskID {
					continue
				}
				b, err := json.Marshal(task)
				if err != nil {
					continue
				}
				event := "task_update"
				if task.Status == models.StatusCompleted || task.Status == models.StatusFailed {
					event = "done"
				}
				_, _ = fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, string(b))
				flusher.Flush()
				if event == "done" {
					return
				}
			}
		}
	}
}
