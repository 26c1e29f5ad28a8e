// Package searchclient implements the Web Search capability the research_paper and
// web_search tools (§4.5) delegate to. Grounded on the original Tavily-backed search
// tool and the reference service's own outbound-HTTP capability pattern
// (internal/capabilities): no ecosystem library in the retrieval pack wraps a search
// provider's HTTP API, so this is built directly on net/http like that capability is.
package searchclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/ovokpus/PostAssist/internal/orcherrors"
)

// SearchErrorMarker is prefixed to the tool-visible string when the provider call
// fails, so downstream agents can detect and reason about a degraded result
// (scenario 3: "web-search outage").
const SearchErrorMarker = "SEARCH_ERROR"

// Client is the capability the tool catalog depends on.
type Client interface {
	Search(ctx context.Context, query string) (string, error)
}

// HTTPClient calls a Tavily-compatible search endpoint.
type HTTPClient struct {
	BaseURL string
	APIKey  string
	HTTP    *http.Client
}

// NewHTTPClient builds an HTTPClient sharing one *http.Client across all callers.
func NewHTTPClient(baseURL, apiKey string) *HTTPClient {
	return &HTTPClient{
		BaseURL: strings.TrimSuffix(baseURL, "/"),
		APIKey:  apiKey,
		HTTP:    &http.Client{Timeout: 20 * time.Second},
	}
}

func (c *HTTPClient) Search(ctx context.Context, query string) (string, error) {
	body, err := json.Marshal(map[string]any{
		"api_key":     c.APIKey,
		"query":       query,
		"max_results": 5,
	})
	if err != nil {
		return "", orcherrors.Wrap(orcherrors.KindSerialization, "encode search request", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/search", strings.NewReader(string(body)))
	if err != nil {
		return "", orcherrors.Wrap(orcherrors.KindInternal, "build search request", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTP.Do(req)
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return "", orcherrors.Wrap(orcherrors.KindTimeout, "search call timed out", err)
		}
		return "", orcherrors.Wrap(orcherrors.KindUnavailable, "search call failed", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return "", orcherrors.New(orcherrors.KindUnavailable, fmt.Sprintf("search provider returned %d", resp.StatusCode))
	}

	var wire struct {
		Results []struct {
			Title   string `json:"title"`
			URL     string `json:"url"`
			Content string `json:"content"`
		} `json:"results"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&wire); err != nil {
		return "", orcherrors.Wrap(orcherrors.KindSerialization, "decode search response", err)
	}

	var sb strings.Builder
	for _, r := range wire.Results {
		fmt.Fprintf(&sb, "- %s (%s): %s\n", r.Title, r.URL, r.Content)
	}
	if sb.Len() == 0 {
		return "no results found", nil
	}
	return sb.String(), nil
}

// StubClient is a deterministic local Client for tests. If Err is set, Search returns
// the SEARCH_ERROR-prefixed string instead of failing the call (tools never raise;
// errors are encoded as strings per §4.4) unless AsGoError is true.
type StubClient struct {
	Response  string
	Err       error
	AsGoError bool
}

func (s StubClient) Search(ctx context.Context, query string) (string, error) {
	if s.Err != nil {
		if s.AsGoError {
			return "", s.Err
		}
		return fmt.Sprintf("%s: %v", SearchErrorMarker, s.Err), nil
	}
	if s.Response != "" {
		return s.Response, nil
	}
	return fmt.Sprintf("stub search results for %q", query), nil
}
