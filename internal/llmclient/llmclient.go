// Package llmclient implements the HTTP-backed LLM capability AgentRuntime consumes:
// an OpenAI-compatible chat-completions call with tool definitions, retried per the
// orchestrator's backoff policy for Timeout and transient Unavailable errors.
//
// No ecosystem library in the retrieval pack provides an OpenAI-compatible client;
// this mirrors the reference service's own internal/manager/llm.go, which likewise
// hand-rolls its chat-completions call over net/http.
package llmclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"net/http"
	"strings"
	"time"

	"github.com/ovokpus/PostAssist/internal/orcherrors"
	"github.com/ovokpus/PostAssist/internal/otel"
)

// Message mirrors the wire shape of one chat message, including any tool calls the
// model requested and the tool_call_id a tool-result message is responding to.
type Message struct {
	Role       string
	Name       string
	Content    string
	ToolCalls  []ToolCall
	ToolCallID string
}

// ToolCall is one function call the model emitted in a single turn.
type ToolCall struct {
	ID        string
	Name      string
	Arguments string
}

// ToolDef describes one callable tool in OpenAI function-calling JSON schema shape.
type ToolDef struct {
	Name        string
	Description string
	Parameters  map[string]any
}

// ChatRequest is one turn submitted to the LLM.
type ChatRequest struct {
	Messages    []Message
	Tools       []ToolDef
	Model       string
	Temperature float64
}

// ChatResponse is the model's reply for one turn.
type ChatResponse struct {
	Message Message
}

// Client is the capability AgentRuntime and the TeamGraph/MetaGraph supervisors
// depend on; Timeout/Unavailable retry is the caller's responsibility via Retrying.
type Client interface {
	Chat(ctx context.Context, req ChatRequest) (ChatResponse, error)
}

// HTTPClient calls an OpenAI-compatible /chat/completions endpoint.
type HTTPClient struct {
	BaseURL string
	APIKey  string
	HTTP    *http.Client
}

// NewHTTPClient builds an HTTPClient sharing one *http.Client across all callers
// (§5: "LLM/Search clients: shared across jobs, must be safe for concurrent calls").
func NewHTTPClient(baseURL, apiKey string) *HTTPClient {
	return &HTTPClient{
		BaseURL: strings.TrimSuffix(baseURL, "/"),
		APIKey:  apiKey,
		HTTP:    &http.Client{Timeout: 60 * time.Second},
	}
}

type wireMessage struct {
	Role       string          `json:"role"`
	Name       string          `json:"name,omitempty"`
	Content    string          `json:"content"`
	ToolCalls  []wireToolCall  `json:"tool_calls,omitempty"`
	ToolCallID string          `json:"tool_call_id,omitempty"`
}

type wireToolCall struct {
	ID       string `json:"id"`
	Type     string `json:"type"`
	Function struct {
		Name      string `json:"name"`
		Arguments string `json:"arguments"`
	} `json:"function"`
}

type wireTool struct {
	Type     string `json:"type"`
	Function struct {
		Name        string         `json:"name"`
		Description string         `json:"description"`
		Parameters  map[string]any `json:"parameters"`
	} `json:"function"`
}

func (c *HTTPClient) Chat(ctx context.Context, req ChatRequest) (ChatResponse, error) {
	msgs := make([]wireMessage, 0, len(req.Messages))
	for _, m := range req.Messages {
		wm := wireMessage{Role: roleWire(m.Role), Name: m.Name, Content: m.Content, ToolCallID: m.ToolCallID}
		for _, tc := range m.ToolCalls {
			wtc := wireToolCall{ID: tc.ID, Type: "function"}
			wtc.Function.Name = tc.Name
			wtc.Function.Arguments = tc.Arguments
			wm.ToolCalls = append(wm.ToolCalls, wtc)
		}
		msgs = append(msgs, wm)
	}
	tools := make([]wireTool, 0, len(req.Tools))
	for _, td := range req.Tools {
		wt := wireTool{Type: "function"}
		wt.Function.Name = td.Name
		wt.Function.Description = td.Description
		wt.Function.Parameters = td.Parameters
		tools = append(tools, wt)
	}

	body, err := json.Marshal(map[string]any{
		"model":       req.Model,
		"messages":    msgs,
		"tools":       tools,
		"temperature": req.Temperature,
	})
	if err != nil {
		return ChatResponse{}, orcherrors.Wrap(orcherrors.KindSerialization, "encode chat request", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return ChatResponse{}, orcherrors.Wrap(orcherrors.KindInternal, "build chat request", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.APIKey)

	resp, err := c.HTTP.Do(httpReq)
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return ChatResponse{}, orcherrors.Wrap(orcherrors.KindTimeout, "llm call timed out", err)
		}
		return ChatResponse{}, orcherrors.Wrap(orcherrors.KindUnavailable, "llm call failed", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
		return ChatResponse{}, orcherrors.New(orcherrors.KindUnavailable, fmt.Sprintf("llm provider returned %d", resp.StatusCode))
	}
	if resp.StatusCode != http.StatusOK {
		return ChatResponse{}, orcherrors.New(orcherrors.KindUnavailable, fmt.Sprintf("llm provider returned %d", resp.StatusCode))
	}

	var wire struct {
		Choices []struct {
			Message wireMessage `json:"message"`
		} `json:"choices"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&wire); err != nil {
		return ChatResponse{}, orcherrors.Wrap(orcherrors.KindSerialization, "decode chat response", err)
	}
	if len(wire.Choices) == 0 {
		return ChatResponse{}, orcherrors.New(orcherrors.KindUnavailable, "llm provider returned no choices")
	}
	out := wire.Choices[0].Message
	msg := Message{Role: "ai", Content: out.Content}
	for _, tc := range out.ToolCalls {
		msg.ToolCalls = append(msg.ToolCalls, ToolCall{ID: tc.ID, Name: tc.Function.Name, Arguments: tc.Function.Arguments})
	}
	return ChatResponse{Message: msg}, nil
}

func roleWire(role string) string {
	switch role {
	case "human":
		return "user"
	case "ai":
		return "assistant"
	default:
		return role
	}
}

// RetryPolicy implements the §7 propagation policy: up to 2 retries, exponential
// backoff (base 500ms, factor 2, jitter ±20%), for Timeout and transient Unavailable.
type RetryPolicy struct {
	MaxRetries int
	Base       time.Duration
	Factor     float64
	JitterFrac float64
	Rand       *rand.Rand
}

// DefaultRetryPolicy matches §5/§7's fixed defaults.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{MaxRetries: 2, Base: 500 * time.Millisecond, Factor: 2, JitterFrac: 0.2, Rand: rand.New(rand.NewSource(time.Now().UnixNano()))}
}

// Retrying wraps client so Chat retries per policy on retriable errors.
type Retrying struct {
	Client Client
	Policy RetryPolicy
}

func (r Retrying) Chat(ctx context.Context, req ChatRequest) (ChatResponse, error) {
	policy := r.Policy
	if policy == (RetryPolicy{}) {
		policy = DefaultRetryPolicy()
	} else if policy.Rand == nil {
		policy.Rand = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	var lastErr error
	delay := policy.Base
	for attempt := 0; attempt <= policy.MaxRetries; attempt++ {
		resp, err := r.Client.Chat(ctx, req)
		if err == nil {
			return resp, nil
		}
		lastErr = err
		if !orcherrors.Retriable(err) || attempt == policy.MaxRetries {
			return ChatResponse{}, err
		}
		otel.RecordLLMRetry(ctx, string(orcherrors.KindOf(err)))
		jitter := 1 + (policy.Rand.Float64()*2-1)*policy.JitterFrac
		wait := time.Duration(float64(delay) * jitter)
		select {
		case <-time.After(wait):
		case <-ctx.Done():
			return ChatResponse{}, orcherrors.Wrap(orcherrors.KindCancelled, "retry wait cancelled", ctx.Err())
		}
		delay = time.Duration(float64(delay) * policy.Factor)
	}
	return ChatResponse{}, lastErr
}
