package cli

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestRunHealthcheck_HealthyServiceReturnsNil(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok","services":{"llm":"ok"}}`))
	}))
	defer srv.Close()

	if err := runHealthcheck(context.Background(), srv.URL); err != nil {
		t.Fatalf("runHealthcheck: %v", err)
	}
}

func TestRunHealthcheck_NonOKStatusErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	if err := runHealthcheck(context.Background(), srv.URL); err == nil {
		t.Fatal("expected an error for a 503 response")
	}
}

func TestRunHealthcheck_UnreachableErrors(t *testing.T) {
	if err := runHealthcheck(context.Background(), "http://127.0.0.1:1"); err == nil {
		t.Fatal("expected an error for an unreachable address")
	}
}
