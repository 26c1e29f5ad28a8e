// Package agentrt implements AgentRuntime (§4.4): the LLM tool-call loop a team
// graph's member nodes drive for one role. Grounded on the reference service's
// agent/runtime.Runtime interface shape (RunTurn driving a turn to completion)
// but built around the tool-calling wire format instead of a single opaque turn.
package agentrt

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ovokpus/PostAssist/internal/llmclient"
	"github.com/ovokpus/PostAssist/internal/orcherrors"
	"github.com/ovokpus/PostAssist/internal/otel"
	"github.com/ovokpus/PostAssist/internal/roles"
	"github.com/ovokpus/PostAssist/internal/tools"
)

// Runtime drives one agent step: submit system_prompt + message log to the LLM,
// execute any requested tools, and loop until a terminal (no-tool-call) message.
type Runtime struct {
	LLM           llmclient.Client
	Catalog       *tools.Catalog
	MaxToolRounds int
}

// New builds a Runtime with the given default max_tool_rounds (§4.4; 8 if ≤0).
func New(llm llmclient.Client, catalog *tools.Catalog, maxToolRounds int) *Runtime {
	if maxToolRounds <= 0 {
		maxToolRounds = 8
	}
	return &Runtime{LLM: llm, Catalog: catalog, MaxToolRounds: maxToolRounds}
}

// StepResult is the outcome of one agent step.
type StepResult struct {
	Final     llmclient.Message   // the terminal assistant message
	Appended  []llmclient.Message // every message (assistant + tool results) appended this step, in order
	ToolCalls int
}

// Step runs role's tool-call loop over log (the messages already accumulated by
// the team graph) until the model returns a message with no tool calls, or
// max_tool_rounds is exceeded (RecursionExceeded).
func (r *Runtime) Step(ctx context.Context, role roles.Role, log []llmclient.Message) (StepResult, error) {
	start := time.Now()
	messages := append([]llmclient.Message{{Role: "system", Content: role.SystemPrompt}}, log...)
	toolDefs := defsFor(role.Tools)

	var appended []llmclient.Message
	for round := 0; ; round++ {
		if round >= r.MaxToolRounds {
			otel.RecordAgentStep(ctx, role.Team, role.Name, time.Since(start))
			return StepResult{}, orcherrors.New(orcherrors.KindRecursionExceeded,
				fmt.Sprintf("agent %s exceeded max_tool_rounds (%d)", role.Name, r.MaxToolRounds))
		}

		callStart := time.Now()
		resp, err := r.LLM.Chat(ctx, llmclient.ChatRequest{Messages: messages, Tools: toolDefs, Model: "default", Temperature: 0.3})
		outcome := "ok"
		if err != nil {
			outcome = "error"
		}
		otel.RecordLLMCall(ctx, role.Name, outcome, time.Since(callStart))
		if err != nil {
			return StepResult{}, err
		}

		assistantMsg := resp.Message
		assistantMsg.Name = role.Name
		messages = append(messages, assistantMsg)
		appended = append(appended, assistantMsg)

		if len(assistantMsg.ToolCalls) == 0 {
			otel.RecordAgentStep(ctx, role.Team, role.Name, time.Since(start))
			return StepResult{Final: assistantMsg, Appended: appended, ToolCalls: toolCallTotal(appended)}, nil
		}

		for _, tc := range assistantMsg.ToolCalls {
			if err := ctx.Err(); err != nil {
				return StepResult{}, orcherrors.Wrap(orcherrors.KindCancelled, "agent step cancelled", err)
			}
			result := r.invokeTool(ctx, tc)
			toolMsg := llmclient.Message{Role: "tool", Name: tc.Name, Content: result, ToolCallID: tc.ID}
			messages = append(messages, toolMsg)
			appended = append(appended, toolMsg)
		}
	}
}

func toolCallTotal(msgs []llmclient.Message) int {
	n := 0
	for _, m := range msgs {
		n += len(m.ToolCalls)
	}
	return n
}

// invokeTool executes one tool call and returns its string result. Per §4.4,
// tools never raise: any failure is encoded into the returned string.
func (r *Runtime) invokeTool(ctx context.Context, tc llmclient.ToolCall) string {
	outcome := "ok"
	defer func() { otel.RecordToolCall(ctx, tc.Name, outcome) }()

	result, err := dispatch(ctx, r.Catalog, tc.Name, tc.Arguments)
	if err != nil {
		outcome = "error"
		return fmt.Sprintf("TOOL_ERROR(%s): %v", tc.Name, err)
	}
	return result
}

func dispatch(ctx context.Context, c *tools.Catalog, name, rawArgs string) (string, error) {
	switch name {
	case "research_paper":
		var args tools.ResearchPaperArgs
		if err := json.Unmarshal([]byte(rawArgs), &args); err != nil {
			return "", orcherrors.Wrap(orcherrors.KindSerialization, "decode research_paper args", err)
		}
		return c.ResearchPaper(ctx, args)
	case "web_search":
		var args tools.WebSearchArgs
		if err := json.Unmarshal([]byte(rawArgs), &args); err != nil {
			return "", orcherrors.Wrap(orcherrors.KindSerialization, "decode web_search args", err)
		}
		return c.WebSearch(ctx, args)
	case "create_post":
		var args tools.CreatePostArgs
		if err := json.Unmarshal([]byte(rawArgs), &args); err != nil {
			return "", orcherrors.Wrap(orcherrors.KindSerialization, "decode create_post args", err)
		}
		return tools.CreatePost(args), nil
	case "verify_technical":
		var args tools.VerifyTechnicalArgs
		if err := json.Unmarshal([]byte(rawArgs), &args); err != nil {
			return "", orcherrors.Wrap(orcherrors.KindSerialization, "decode verify_technical args", err)
		}
		return tools.VerifyTechnical(args), nil
	case "check_style":
		var args tools.CheckStyleArgs
		if err := json.Unmarshal([]byte(rawArgs), &args); err != nil {
			return "", orcherrors.Wrap(orcherrors.KindSerialization, "decode check_style args", err)
		}
		return tools.CheckStyle(args), nil
	default:
		return "", orcherrors.New(orcherrors.KindValidation, "unknown tool: "+name)
	}
}

func defsFor(names []string) []llmclient.ToolDef {
	all := map[string]llmclient.ToolDef{}
	for _, d := range tools.Definitions() {
		all[d.Name] = d
	}
	defs := make([]llmclient.ToolDef, 0, len(names))
	for _, n := range names {
		if d, ok := all[n]; ok {
			defs = append(defs, d)
		}
	}
	return defs
}
