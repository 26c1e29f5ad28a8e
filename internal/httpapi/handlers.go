package httpapi

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/ovokpus/PostAssist/internal/orcherrors"
	"github.com/ovokpus/PostAssist/internal/orchestrator"
	"github.com/ovokpus/PostAssist/pkg/models"
)

type handlers struct {
	orch *orchestrator.Orchestrator
	app  *App
	opts ServerOptions
}

// generatePost handles POST /generate-post.
func (h *handlers) generatePost(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSONError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	var req models.GenerateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid json")
		return
	}
	task, err := h.orch.Submit(r.Context(), req)
	if err != nil {
		writeOrchError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, models.GenerateResponse{
		TaskID:                  task.TaskID,
		Status:                  task.Status,
		Message:                 "post generation started",
		EstimatedCompletionTime: "30-90 seconds",
	})
}

// statusOrStream dispatches GET /status/{task_id} and GET /status/{task_id}/stream.
func (h *handlers) statusOrStream(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSONError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	rest := strings.TrimPrefix(r.URL.Path, "/status/")
	taskID, stream := strings.CutSuffix(rest, "/stream")

	task, ok, err := h.orch.Store().GetTask(r.Context(), taskID)
	if err != nil {
		writeOrchError(w, err)
		return
	}
	if !ok {
		writeJSONError(w, http.StatusNotFound, "unknown task_id")
		return
	}
	if stream {
		h.app.Hub.streamHandler(taskID)(w, r)
		return
	}
	writeJSON(w, http.StatusOK, task)
}

// listTasks handles GET /tasks.
func (h *handlers) listTasks(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSONError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	tasks, err := h.orch.Store().ListTasks(r.Context())
	if err != nil {
		writeOrchError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, tasks)
}

// verifyPost handles POST /verify-post.
func (h *handlers) verifyPost(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSONError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	var req models.VerifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid json")
		return
	}
	resp, err := h.orch.VerifyPost(r.Context(), req)
	if err != nil {
		writeOrchError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// batchGenerate handles POST /batch-generate.
func (h *handlers) batchGenerate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSONError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	var req models.BatchGenerateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if len(req.Papers) == 0 {
		writeJSONError(w, http.StatusBadRequest, "papers must be non-empty")
		return
	}
	batch, err := h.orch.SubmitBatch(r.Context(), req.Papers)
	if err != nil {
		writeOrchError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, models.BatchGenerateResponse{
		BatchID:    batch.BatchID,
		TotalPosts: len(batch.TaskIDs),
		TaskIDs:    batch.TaskIDs,
	})
}

// getBatch handles GET /batch/{batch_id}.
func (h *handlers) getBatch(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSONError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	batchID := strings.TrimPrefix(r.URL.Path, "/batch/")
	batch, ok, err := h.orch.Store().GetBatch(r.Context(), batchID)
	if err != nil {
		writeOrchError(w, err)
		return
	}
	if !ok {
		writeJSONError(w, http.StatusNotFound, "unknown batch_id")
		return
	}
	tasks := make([]*models.Task, 0, len(batch.TaskIDs))
	for _, id := range batch.TaskIDs {
		if t, ok, err := h.orch.Store().GetTask(r.Context(), id); err == nil && ok {
			tasks = append(tasks, t)
		}
	}
	writeJSON(w, http.StatusOK, models.BatchStatusResponse{
		BatchID:    batch.BatchID,
		TotalPosts: len(batch.TaskIDs),
		Tasks:      tasks,
	})
}

// health handles GET /health and its GET / alias.
func (h *handlers) health(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" && r.URL.Path != "/health" {
		writeJSONError(w, http.StatusNotFound, "not found")
		return
	}
	if r.Method != http.MethodGet {
		writeJSONError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	services := map[string]string{
		"store":  storeStatus(h.orch.Store().Ping(r.Context())),
		"llm":    serviceStatus(h.opts.LLM != nil),
		"search": serviceStatus(h.opts.Search != nil),
	}
	writeJSON(w, http.StatusOK, models.HealthResponse{
		Status:   "ok",
		Version:  h.opts.Version,
		Services: services,
	})
}

func storeStatus(reachable bool) string {
	if reachable {
		return "ok"
	}
	return "degraded"
}

func serviceStatus(configured bool) string {
	if configured {
		return "ok"
	}
	return "unconfigured"
}

// writeOrchError maps an orcherrors.Kind to its documented HTTP status (§7).
func writeOrchError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch orcherrors.KindOf(err) {
	case orcherrors.KindValidation:
		status = http.StatusBadRequest
	case orcherrors.KindNotFound:
		status = http.StatusNotFound
	case orcherrors.KindAlreadyExists:
		status = http.StatusConflict
	case orcherrors.KindTimeout:
		status = http.StatusRequestTimeout
	case orcherrors.KindUnavailable:
		status = http.StatusServiceUnavailable
	case orcherrors.KindCancelled:
		status = http.StatusRequestTimeout
	case orcherrors.KindRecursionExceeded:
		status = http.StatusInternalServerError
	}
	writeJSONError(w, status, err.Error())
}
