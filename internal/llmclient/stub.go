package llmclient

import (
	"context"
	"sync"

	"github.com/ovokpus/PostAssist/internal/orcherrors"
)

// StubClient is a deterministic local Client that returns scripted responses without
// calling any external LLM, the same role agent/runtime's StubRuntime plays for the
// turn-execution layer: a fixed, inspectable canned flow for integration tests.
type StubClient struct {
	mu        sync.Mutex
	responder func(req ChatRequest, callIndex int) (ChatResponse, error)
	calls     int
	failures  int // not read by Chat; FailNTimesThenRespond scripts Timeout failures instead
}

// NewStubClient builds a StubClient driven by responder, called once per Chat invocation
// with a zero-based index so tests can script a specific sequence of turns.
func NewStubClient(responder func(req ChatRequest, callIndex int) (ChatResponse, error)) *StubClient {
	return &StubClient{responder: responder}
}

func (s *StubClient) Chat(ctx context.Context, req ChatRequest) (ChatResponse, error) {
	s.mu.Lock()
	idx := s.calls
	s.calls++
	s.mu.Unlock()
	return s.responder(req, idx)
}

// CallCount returns how many Chat invocations have been made so far.
func (s *StubClient) CallCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

// FailNTimesThenRespond builds a responder that returns a Timeout error for the first
// n calls, then delegates to ok — grounds scenario 4 (LLM timeout then recovery).
func FailNTimesThenRespond(n int, ok func(req ChatRequest, callIndex int) (ChatResponse, error)) func(ChatRequest, int) (ChatResponse, error) {
	return func(req ChatRequest, idx int) (ChatResponse, error) {
		if idx < n {
			return ChatResponse{}, orcherrors.New(orcherrors.KindTimeout, "stub: simulated llm timeout")
		}
		return ok(req, idx)
	}
}
