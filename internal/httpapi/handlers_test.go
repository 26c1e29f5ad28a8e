package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/ovokpus/PostAssist/internal/governor"
	"github.com/ovokpus/PostAssist/internal/llmclient"
	"github.com/ovokpus/PostAssist/internal/orchestrator"
	"github.com/ovokpus/PostAssist/internal/roles"
	"github.com/ovokpus/PostAssist/internal/searchclient"
	"github.com/ovokpus/PostAssist/internal/store"
	"github.com/ovokpus/PostAssist/internal/tools"
	"github.com/ovokpus/PostAssist/pkg/models"
)

// finishFastLLM never dispatches to a team member; both supervisors and the
// meta-supervisor FINISH on their first call, which is enough to exercise the
// HTTP surface without depending on TeamGraph/MetaGraph member wiring.
type finishFastLLM struct{}

func (finishFastLLM) Chat(ctx context.Context, req llmclient.ChatRequest) (llmclient.ChatResponse, error) {
	return llmclient.ChatResponse{Message: llmclient.Message{Role: "ai", Content: `{"next": "FINISH"}`}}, nil
}

func newTestApp(t *testing.T) *App {
	t.Helper()
	st := store.New(nil, slog.Default())
	gov := governor.New(2, 2)
	catalog := tools.New(searchclient.StubClient{Response: "x"})
	cfg := orchestrator.Config{
		MaxToolRounds: 8, TeamRecursionLimit: 25, MetaRecursionLimit: 50,
		TaskTTL: time.Hour, MaxConcurrentGenerations: 2,
	}
	hub := NewSSEHub()
	orch := orchestrator.New(st, gov, roles.Default(), finishFastLLM{}, catalog, cfg, slog.Default(), hub.Publish)
	app := NewApp(orch, ServerOptions{
		Addr: ":0", Version: "test", LLM: finishFastLLM{}, Search: searchclient.StubClient{},
	})
	app.Hub = hub
	return app
}

func TestGeneratePost_ValidationRejected(t *testing.T) {
	app := newTestApp(t)
	body, _ := json.Marshal(models.GenerateRequest{PaperTitle: "no"})
	req := httptest.NewRequest(http.MethodPost, "/generate-post", bytes.NewReader(body))
	w := httptest.NewRecorder()
	app.Server.Handler.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
}

func TestGeneratePost_Accepted(t *testing.T) {
	app := newTestApp(t)
	body, _ := json.Marshal(models.GenerateRequest{PaperTitle: "Attention Is All You Need"})
	req := httptest.NewRequest(http.MethodPost, "/generate-post", bytes.NewReader(body))
	w := httptest.NewRecorder()
	app.Server.Handler.ServeHTTP(w, req)
	if w.Code != http.StatusAccepted {
		t.Fatalf("status = %d, want 202, body=%s", w.Code, w.Body.String())
	}
	if w.Header().Get("X-Request-Id") == "" {
		t.Error("expected X-Request-Id header on response")
	}
	var resp models.GenerateResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.TaskID == "" {
		t.Error("expected a task_id")
	}
}

func TestStatus_UnknownTaskIs404(t *testing.T) {
	app := newTestApp(t)
	req := httptest.NewRequest(http.MethodGet, "/status/does-not-exist", nil)
	w := httptest.NewRecorder()
	app.Server.Handler.ServeHTTP(w, req)
	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", w.Code)
	}
}

func TestStatus_KnownTaskReturnsSnapshot(t *testing.T) {
	app := newTestApp(t)
	body, _ := json.Marshal(models.GenerateRequest{PaperTitle: "Attention Is All You Need"})
	createReq := httptest.NewRequest(http.MethodPost, "/generate-post", bytes.NewReader(body))
	createW := httptest.NewRecorder()
	app.Server.Handler.ServeHTTP(createW, createReq)
	var created models.GenerateResponse
	_ = json.Unmarshal(createW.Body.Bytes(), &created)

	req := httptest.NewRequest(http.MethodGet, "/status/"+created.TaskID, nil)
	w := httptest.NewRecorder()
	app.Server.Handler.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200, body=%s", w.Code, w.Body.String())
	}
	var task models.Task
	if err := json.Unmarshal(w.Body.Bytes(), &task); err != nil {
		t.Fatalf("decode task: %v", err)
	}
	if task.TaskID != created.TaskID {
		t.Errorf("task_id = %q, want %q", task.TaskID, created.TaskID)
	}
}

func TestVerifyPost_ReturnsScoredReport(t *testing.T) {
	app := newTestApp(t)
	body, _ := json.Marshal(models.VerifyRequest{
		PostContent:      "revolutionary breakthrough that solves everything",
		VerificationType: models.VerifyTechnical,
	})
	req := httptest.NewRequest(http.MethodPost, "/verify-post", bytes.NewReader(body))
	w := httptest.NewRecorder()
	app.Server.Handler.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200, body=%s", w.Code, w.Body.String())
	}
	var resp models.VerifyResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.VerificationID == "" {
		t.Error("expected verification_id")
	}
}

func TestVerifyPost_EmptyContentRejected(t *testing.T) {
	app := newTestApp(t)
	body, _ := json.Marshal(models.VerifyRequest{})
	req := httptest.NewRequest(http.MethodPost, "/verify-post", bytes.NewReader(body))
	w := httptest.NewRecorder()
	app.Server.Handler.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
}

func TestBatchGenerate_RejectsEmptyPapers(t *testing.T) {
	app := newTestApp(t)
	body, _ := json.Marshal(models.BatchGenerateRequest{})
	req := httptest.NewRequest(http.MethodPost, "/batch-generate", bytes.NewReader(body))
	w := httptest.NewRecorder()
	app.Server.Handler.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
}

func TestBatchGenerate_ThenGetBatch(t *testing.T) {
	app := newTestApp(t)
	body, _ := json.Marshal(models.BatchGenerateRequest{Papers: []models.GenerateRequest{
		{PaperTitle: "Attention Is All You Need"},
		{PaperTitle: "Deep Residual Learning for Image Recognition"},
	}})
	req := httptest.NewRequest(http.MethodPost, "/batch-generate", bytes.NewReader(body))
	w := httptest.NewRecorder()
	app.Server.Handler.ServeHTTP(w, req)
	if w.Code != http.StatusAccepted {
		t.Fatalf("status = %d, want 202, body=%s", w.Code, w.Body.String())
	}
	var resp models.BatchGenerateResponse
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.TotalPosts != 2 {
		t.Fatalf("total_posts = %d, want 2", resp.TotalPosts)
	}

	getReq := httptest.NewRequest(http.MethodGet, "/batch/"+resp.BatchID, nil)
	getW := httptest.NewRecorder()
	app.Server.Handler.ServeHTTP(getW, getReq)
	if getW.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200, body=%s", getW.Code, getW.Body.String())
	}
	var batchResp models.BatchStatusResponse
	if err := json.Unmarshal(getW.Body.Bytes(), &batchResp); err != nil {
		t.Fatalf("decode batch response: %v", err)
	}
	if len(batchResp.Tasks) != 2 {
		t.Fatalf("expected 2 tasks in batch, got %d", len(batchResp.Tasks))
	}
}

func TestHealth_ReportsServices(t *testing.T) {
	app := newTestApp(t)
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	app.Server.Handler.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	var resp models.HealthResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode health response: %v", err)
	}
	if resp.Services["llm"] != "ok" {
		t.Errorf("expected llm service ok, got %v", resp.Services)
	}
}

func TestListTasks_ReturnsSubmittedTasks(t *testing.T) {
	app := newTestApp(t)
	body, _ := json.Marshal(models.GenerateRequest{PaperTitle: "Attention Is All You Need"})
	req := httptest.NewRequest(http.MethodPost, "/generate-post", bytes.NewReader(body))
	app.Server.Handler.ServeHTTP(httptest.NewRecorder(), req)

	listReq := httptest.NewRequest(http.MethodGet, "/tasks", nil)
	listW := httptest.NewRecorder()
	app.Server.Handler.ServeHTTP(listW, listReq)
	if listW.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", listW.Code)
	}
	if !strings.Contains(listW.Body.String(), "task_id") {
		t.Errorf("expected task list to contain task_id, got: %s", listW.Body.String())
	}
}
