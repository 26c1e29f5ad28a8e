package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ovokpus/PostAssist/pkg/models"
)

func TestNew(t *testing.T) {
	c := New("http://localhost:8000")
	if c.BaseURL != "http://localhost:8000" {
		t.Errorf("New: %+v", c)
	}
}

func TestHealth(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/health" {
			t.Errorf("path: %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok","version":"test","services":{"llm":"ok"}}`))
	}))
	defer srv.Close()

	c := New(srv.URL)
	resp, err := c.Health(context.Background())
	if err != nil {
		t.Fatalf("Health: %v", err)
	}
	if resp.Status != "ok" {
		t.Fatalf("Health: status = %q, want ok", resp.Status)
	}
}

func TestHealth_error(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte(`{"error":"down"}`))
	}))
	defer srv.Close()

	c := New(srv.URL)
	_, err := c.Health(context.Background())
	if err == nil {
		t.Fatal("expected error from 503")
	}
}

func TestGeneratePost_PostsRequestBody(t *testing.T) {
	var gotBody models.GenerateRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/generate-post" || r.Method != http.MethodPost {
			t.Errorf("method/path: %s %s", r.Method, r.URL.Path)
		}
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"task_id":"t1","status":"PENDING","message":"started"}`))
	}))
	defer srv.Close()

	c := New(srv.URL)
	resp, err := c.GeneratePost(context.Background(), models.GenerateRequest{PaperTitle: "Attention Is All You Need"})
	if err != nil {
		t.Fatalf("GeneratePost: %v", err)
	}
	if resp.TaskID != "t1" {
		t.Errorf("task_id = %q, want t1", resp.TaskID)
	}
	if gotBody.PaperTitle != "Attention Is All You Need" {
		t.Errorf("request body not forwarded: %+v", gotBody)
	}
}

func TestGetBatch_ReturnsTasks(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/batch/b1" {
			t.Errorf("path: %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"batch_id":"b1","total_posts":1,"tasks":[{"task_id":"t1"}]}`))
	}))
	defer srv.Close()

	c := New(srv.URL)
	resp, err := c.GetBatch(context.Background(), "b1")
	if err != nil {
		t.Fatalf("GetBatch: %v", err)
	}
	if len(resp.Tasks) != 1 || resp.Tasks[0].TaskID != "t1" {
		t.Errorf("unexpected batch response: %+v", resp)
	}
}
