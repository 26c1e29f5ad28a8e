// Package client provides a Go SDK for the PostAssist HTTP API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/ovokpus/PostAssist/pkg/models"
)

// Client calls the PostAssist HTTP API. It is safe for concurrent use.
type Client struct {
	BaseURL    string       // e.g. "http://localhost:8000"
	HTTPClient *http.Client // optional; nil uses http.DefaultClient
}

// New returns a client for the given base URL (e.g. "http://localhost:8000").
func New(baseURL string) *Client {
	return &Client{BaseURL: baseURL}
}

func (c *Client) client() *http.Client {
	if c.HTTPClient != nil {
		return c.HTTPClient
	}
	return http.DefaultClient
}

func (c *Client) do(ctx context.Context, method, path string, body any) (*http.Response, error) {
	var bodyReader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		bodyReader = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, bodyReader)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return c.client().Do(req)
}

func (c *Client) doJSON(ctx context.Context, method, path string, body any, out any) error {
	resp, err := c.do(ctx, method, path, body)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var errBody struct {
			Error string `json:"error"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&errBody)
		if errBody.Error != "" {
			return fmt.Errorf("api %s %s: %s", method, path, errBody.Error)
		}
		return fmt.Errorf("api %s %s: status %d", method, path, resp.StatusCode)
	}
	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

// GeneratePost submits a paper title for LinkedIn post generation.
func (c *Client) GeneratePost(ctx context.Context, req models.GenerateRequest) (*models.GenerateResponse, error) {
	var out models.GenerateResponse
	err := c.doJSON(ctx, http.MethodPost, "/generate-post", req, &out)
	return &out, err
}

// Status returns a task's current snapshot.
func (c *Client) Status(ctx context.Context, taskID string) (*models.Task, error) {
	var out models.Task
	err := c.doJSON(ctx, http.MethodGet, "/status/"+taskID, nil, &out)
	return &out, err
}

// ListTasks returns every task the store currently holds.
func (c *Client) ListTasks(ctx context.Context) ([]*models.Task, error) {
	var out []*models.Task
	err := c.doJSON(ctx, http.MethodGet, "/tasks", nil, &out)
	return out, err
}

// VerifyPost scores an already-written post without creating a Task.
func (c *Client) VerifyPost(ctx context.Context, req models.VerifyRequest) (*models.VerifyResponse, error) {
	var out models.VerifyResponse
	err := c.doJSON(ctx, http.MethodPost, "/verify-post", req, &out)
	return &out, err
}

// BatchGenerate submits several papers for generation as a single batch.
func (c *Client) BatchGenerate(ctx context.Context, req models.BatchGenerateRequest) (*models.BatchGenerateResponse, error) {
	var out models.BatchGenerateResponse
	err := c.doJSON(ctx, http.MethodPost, "/batch-generate", req, &out)
	return &out, err
}

// GetBatch returns the status of every task in a batch.
func (c *Client) GetBatch(ctx context.Context, batchID string) (*models.BatchStatusResponse, error) {
	var out models.BatchStatusResponse
	err := c.doJSON(ctx, http.MethodGet, "/batch/"+batchID, nil, &out)
	return &out, err
}

// Health returns the service's health report.
func (c *Client) Health(ctx context.Context) (*models.HealthResponse, error) {
	var out models.HealthResponse
	err := c.doJSON(ctx, http.MethodGet, "/health", nil, &out)
	return &out, err
}
