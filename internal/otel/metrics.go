package otel

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

var (
	initMetricsOnce sync.Once

	taskLifecycleCounter metric.Int64Counter
	toolCallsCounter      metric.Int64Counter
	llmCallDuration       metric.Float64Histogram
	llmRetriesCounter     metric.Int64Counter
	agentStepDuration     metric.Float64Histogram
	teamGraphTransitions  metric.Int64Counter
	teamGraphNodeDuration metric.Float64Histogram

	sseEventsCounter    metric.Int64Counter
	sseConnectionsGauge metric.Int64ObservableGauge
	sseConnections      int64
	sseConnectionsMu    sync.Mutex

	governorGauge  metric.Int64ObservableGauge
	governorLookup GovernorOccupancyFunc
	governorMu     sync.Mutex
)

// GovernorOccupancyFunc reports current (generation, verification) permits in use;
// registered via RegisterGovernorOccupancy so the gauge reflects the live ConcurrencyGovernor.
type GovernorOccupancyFunc func() (generation, verification int)

// InitMetrics creates the meter instruments. Safe to call multiple times; only runs once.
// Call after InitMeterProvider.
func InitMetrics(ctx context.Context) error {
	var err error
	initMetricsOnce.Do(func() {
		m := Meter()
		taskLifecycleCounter, err = m.Int64Counter("postassist_task_lifecycle_total", metric.WithDescription("Total task lifecycle transitions (submitted, completed, failed, degraded)"))
		if err != nil {
			return
		}
		toolCallsCounter, err = m.Int64Counter("postassist_tool_calls_total", metric.WithDescription("Total tool invocations by tool name and outcome"))
		if err != nil {
			return
		}
		llmCallDuration, err = m.Float64Histogram("postassist_llm_call_duration_seconds", metric.WithDescription("LLM chat-completion call latency"))
		if err != nil {
			return
		}
		llmRetriesCounter, err = m.Int64Counter("postassist_llm_retries_total", metric.WithDescription("Total LLM chat-completion retries after a retriable error"))
		if err != nil {
			return
		}
		agentStepDuration, err = m.Float64Histogram("postassist_agent_step_duration_seconds", metric.WithDescription("AgentRuntime step duration (one tool-call loop to terminal message)"))
		if err != nil {
			return
		}
		teamGraphTransitions, err = m.Int64Counter("postassist_team_graph_transitions_total", metric.WithDescription("Total TeamGraph/MetaGraph node transitions"))
		if err != nil {
			return
		}
		teamGraphNodeDuration, err = m.Float64Histogram("postassist_team_graph_node_duration_seconds", metric.WithDescription("TeamGraph node visit duration, supervisor route or member step"))
		if err != nil {
			return
		}
		sseEventsCounter, err = m.Int64Counter("postassist_sse_events_total", metric.WithDescription("Total SSE progress events published"))
		if err != nil {
			return
		}
		sseConnectionsGauge, err = m.Int64ObservableGauge("postassist_sse_connections", metric.WithDescription("Current SSE subscriber count"))
		if err != nil {
			return
		}
		_, err = m.RegisterCallback(func(ctx context.Context, o metric.Observer) error {
			sseConnectionsMu.Lock()
			n := sseConnections
			sseConnectionsMu.Unlock()
			o.ObserveInt64(sseConnectionsGauge, n)
			return nil
		}, sseConnectionsGauge)
		if err != nil {
			return
		}
		governorGauge, err = m.Int64ObservableGauge("postassist_governor_permits_in_use", metric.WithDescription("ConcurrencyGovernor permits currently held, by kind (generation, verification)"))
		if err != nil {
			return
		}
		_, err = m.RegisterCallback(func(ctx context.Context, o metric.Observer) error {
			governorMu.Lock()
			fn := governorLookup
			governorMu.Unlock()
			if fn == nil {
				return nil
			}
			gen, ver := fn()
			o.ObserveInt64(governorGauge, int64(gen), metric.WithAttributes(AttrKind.String("generation")))
			o.ObserveInt64(governorGauge, int64(ver), metric.WithAttributes(AttrKind.String("verification")))
			return nil
		}, governorGauge)
	})
	return err
}

// RegisterGovernorOccupancy wires the governor occupancy gauge to fn. Call once
// after the ConcurrencyGovernor is constructed.
func RegisterGovernorOccupancy(fn GovernorOccupancyFunc) {
	governorMu.Lock()
	governorLookup = fn
	governorMu.Unlock()
}

// RecordTaskLifecycle records one task lifecycle transition (e.g. "submitted",
// "completed", "failed", "store_degraded").
func RecordTaskLifecycle(ctx context.Context, event string) {
	if taskLifecycleCounter != nil {
		taskLifecycleCounter.Add(ctx, 1, metric.WithAttributes(attribute.String("event", event)))
	}
}

// RecordToolCall records one tool invocation and its outcome ("ok" or "error").
func RecordToolCall(ctx context.Context, tool, outcome string) {
	if toolCallsCounter != nil {
		toolCallsCounter.Add(ctx, 1, metric.WithAttributes(AttrTool.String(tool), AttrOutcome.String(outcome)))
	}
}

// RecordLLMCall records one LLM chat-completion call's latency, by agent and outcome.
func RecordLLMCall(ctx context.Context, agent, outcome string, duration time.Duration) {
	if llmCallDuration != nil {
		llmCallDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(AttrAgent.String(agent), AttrOutcome.String(outcome)))
	}
}

// RecordLLMRetry records one LLM chat-completion retry attempt after a
// retriable error, tagged with the error kind that triggered it.
func RecordLLMRetry(ctx context.Context, kind string) {
	if llmRetriesCounter != nil {
		llmRetriesCounter.Add(ctx, 1, metric.WithAttributes(AttrKind.String(kind)))
	}
}

// RecordAgentStep records one AgentRuntime step's total duration.
func RecordAgentStep(ctx context.Context, team, agent string, duration time.Duration) {
	if agentStepDuration != nil {
		agentStepDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(AttrTeam.String(team), AttrAgent.String(agent)))
	}
}

// RecordTeamGraphTransition records one node transition inside a TeamGraph/MetaGraph.
func RecordTeamGraphTransition(ctx context.Context, graph, node string) {
	if teamGraphTransitions != nil {
		teamGraphTransitions.Add(ctx, 1, metric.WithAttributes(attribute.String("graph", graph), attribute.String("node", node)))
	}
}

// RecordTeamGraphNodeDuration records how long one TeamGraph node visit
// (supervisor route or member step) took.
func RecordTeamGraphNodeDuration(ctx context.Context, graph, node string, duration time.Duration) {
	if teamGraphNodeDuration != nil {
		teamGraphNodeDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(attribute.String("graph", graph), attribute.String("node", node)))
	}
}

// RecordSSEEvent records one SSE event published.
func RecordSSEEvent(ctx context.Context) {
	if sseEventsCounter != nil {
		sseEventsCounter.Add(ctx, 1)
	}
}

// AddSSEConnection adds 1 to the SSE connection gauge (call on subscribe).
func AddSSEConnection() {
	sseConnectionsMu.Lock()
	sseConnections++
	sseConnectionsMu.Unlock()
}

// RemoveSSEConnection subtracts 1 from the SSE connection gauge (call on unsubscribe).
func RemoveSSEConnection() {
	sseConnectionsMu.Lock()
	sseConnections--
	if sseConnections < 0 {
		sseConnections = 0
	}
	sseConnectionsMu.Unlock()
}
