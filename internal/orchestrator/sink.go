package orchestrator

import (
	"context"

	"github.com/ovokpus/PostAssist/internal/progress"
	"github.com/ovokpus/PostAssist/pkg/models"
)

// trackerSink adapts a *progress.Tracker to graph.ProgressSink, translating
// TeamGraph/MetaGraph node-transition events into the AgentState/TeamState
// writes §4.2 defines. Nodes that aren't one of the four fixed agent names
// (supervisor, Content team, Verification team) are no-ops here.
type trackerSink struct {
	tracker *progress.Tracker
}

var stateDeltaAgent = map[string]string{
	"research_findings": models.AgentPaperResearcher,
	"draft_post":        models.AgentLinkedInCreator,
	"technical_report":  models.AgentTechVerifier,
	"style_report":      models.AgentStyleChecker,
}

func (s *trackerSink) OnNodeEnter(ctx context.Context, node string) {
	if !isAgentName(node) {
		return
	}
	p := 0.1
	_ = s.tracker.UpdateAgent(ctx, progress.AgentPatch{
		AgentName: node,
		Status:    models.AgentStatusWorking,
		Activity:  "running",
		Progress:  &p,
	})
}

func (s *trackerSink) OnNodeExit(ctx context.Context, node string) {
	if !isAgentName(node) {
		return
	}
	p := 1.0
	_ = s.tracker.UpdateAgent(ctx, progress.AgentPatch{
		AgentName: node,
		Status:    models.AgentStatusCompleted,
		Activity:  "done",
		Progress:  &p,
	})
}

func (s *trackerSink) OnStateDelta(ctx context.Context, key, value string) {
	agent, ok := stateDeltaAgent[key]
	if !ok {
		return
	}
	_ = s.tracker.UpdateAgent(ctx, progress.AgentPatch{
		AgentName: agent,
		Findings:  value,
	})
}

func isAgentName(node string) bool {
	switch node {
	case models.AgentPaperResearcher, models.AgentLinkedInCreator, models.AgentTechVerifier, models.AgentStyleChecker:
		return true
	default:
		return false
	}
}
