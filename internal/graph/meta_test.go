package graph

import (
	"context"
	"testing"

	"github.com/ovokpus/PostAssist/internal/agentrt"
	"github.com/ovokpus/PostAssist/internal/llmclient"
	"github.com/ovokpus/PostAssist/internal/roles"
	"github.com/ovokpus/PostAssist/internal/searchclient"
	"github.com/ovokpus/PostAssist/internal/tools"
	"github.com/ovokpus/PostAssist/pkg/models"
)

// metaLLM drives the required progression: meta supervisor routes Content team,
// then Verification team, then FINISH; team supervisors finish after one member
// each for brevity.
type metaLLM struct {
	metaCalls    int
	contentCalls int
	verifyCalls  int
}

func (m *metaLLM) Chat(ctx context.Context, req llmclient.ChatRequest) (llmclient.ChatResponse, error) {
	sys := req.Messages[0].Content
	switch sys {
	case "meta supervisor prompt":
		m.metaCalls++
		switch m.metaCalls {
		case 1:
			return llmclient.ChatResponse{Message: llmclient.Message{Role: "ai", Content: `{"next": "Content team"}`}}, nil
		case 2:
			return llmclient.ChatResponse{Message: llmclient.Message{Role: "ai", Content: `{"next": "Verification team"}`}}, nil
		default:
			return llmclient.ChatResponse{Message: llmclient.Message{Role: "ai", Content: `{"next": "FINISH"}`}}, nil
		}
	case "content supervisor prompt":
		m.contentCalls++
		if m.contentCalls == 1 {
			return llmclient.ChatResponse{Message: llmclient.Message{Role: "ai", Content: `{"next": "LinkedInCreator"}`}}, nil
		}
		return llmclient.ChatResponse{Message: llmclient.Message{Role: "ai", Content: `{"next": "FINISH"}`}}, nil
	case "verification supervisor prompt":
		m.verifyCalls++
		if m.verifyCalls == 1 {
			return llmclient.ChatResponse{Message: llmclient.Message{Role: "ai", Content: `{"next": "TechVerifier"}`}}, nil
		}
		return llmclient.ChatResponse{Message: llmclient.Message{Role: "ai", Content: `{"next": "FINISH"}`}}, nil
	default:
		return llmclient.ChatResponse{Message: llmclient.Message{Role: "ai", Content: "final draft post #AI #MachineLearning"}}, nil
	}
}

func TestMetaGraph_RequiredProgression(t *testing.T) {
	catalog := roles.Default()
	llm := &metaLLM{}
	rt := agentrt.New(llm, tools.New(searchclient.StubClient{Response: "x"}), 8)

	content := &TeamGraph{
		Team: models.TeamContent, Members: models.TeamMembers(models.TeamContent),
		SupervisorPrompt: "content supervisor prompt", Roles: catalog, Runtime: rt, LLM: llm,
		RecursionLimit: 25, Sink: NopSink{},
	}
	verification := &TeamGraph{
		Team: models.TeamVerification, Members: models.TeamMembers(models.TeamVerification),
		SupervisorPrompt: "verification supervisor prompt", Roles: catalog, Runtime: rt, LLM: llm,
		RecursionLimit: 25, Sink: NopSink{},
	}
	mg := &MetaGraph{
		SupervisorPrompt: "meta supervisor prompt",
		LLM:              llm,
		Content:          content,
		Verification:     verification,
		RecursionLimit:   50,
		Sink:             NopSink{},
	}

	contentState := &TeamState{PaperTitle: "Attention Is All You Need"}
	verificationState := &TeamState{}
	if err := mg.Run(context.Background(), contentState, verificationState); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if verificationState.PostContent == "" {
		t.Error("expected Content team's draft to flow into Verification team's post_content")
	}
	if llm.metaCalls < 3 {
		t.Errorf("expected meta supervisor invoked at least 3 times, got %d", llm.metaCalls)
	}
}
