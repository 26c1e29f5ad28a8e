package otel

import (
	"context"
	"testing"
	"time"
)

func TestInitMetrics_RecordTaskLifecycle(t *testing.T) {
	ctx := context.Background()
	_, err := InitMeterProvider(ctx, "metrics-test")
	if err != nil {
		t.Fatalf("InitMeterProvider: %v", err)
	}
	if err := InitMetrics(ctx); err != nil {
		t.Fatalf("InitMetrics: %v", err)
	}
	RecordTaskLifecycle(ctx, "submitted")
	RecordTaskLifecycle(ctx, "completed")
	RecordToolCall(ctx, "web_search", "ok")
	RecordTeamGraphTransition(ctx, "MetaGraph", "supervisor")
}

func TestAddSSEConnection_RemoveSSEConnection(t *testing.T) {
	AddSSEConnection()
	AddSSEConnection()
	RemoveSSEConnection()
	RemoveSSEConnection()
	RemoveSSEConnection() // should not go negative
}

func TestRecordLLMCall_RecordAgentStep_RecordSSEEvent(t *testing.T) {
	ctx := context.Background()
	_, _ = InitMeterProvider(ctx, "record-test")
	_ = InitMetrics(ctx)
	RecordLLMCall(ctx, "PaperResearcher", "ok", 100*time.Millisecond)
	RecordAgentStep(ctx, "Content team", "PaperResearcher", 50*time.Millisecond)
	RecordSSEEvent(ctx)
}

func TestRegisterGovernorOccupancy(t *testing.T) {
	ctx := context.Background()
	_, _ = InitMeterProvider(ctx, "governor-test")
	if err := InitMetrics(ctx); err != nil {
		t.Fatalf("InitMetrics: %v", err)
	}
	RegisterGovernorOccupancy(func() (int, int) { return 1, 2 })
}
