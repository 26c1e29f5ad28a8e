package graph

import (
	"context"
	"fmt"
	"time"

	"github.com/ovokpus/PostAssist/internal/agentrt"
	"github.com/ovokpus/PostAssist/internal/llmclient"
	"github.com/ovokpus/PostAssist/internal/orcherrors"
	"github.com/ovokpus/PostAssist/internal/otel"
	"github.com/ovokpus/PostAssist/internal/roles"
)

// ProgressSink is the small capability set TeamGraph/MetaGraph call into at known
// points, per §9's "duck-typed progress callback" strategy. It carries no
// knowledge of graph internals; it only reports that something happened.
type ProgressSink interface {
	OnNodeEnter(ctx context.Context, node string)
	OnNodeExit(ctx context.Context, node string)
	OnStateDelta(ctx context.Context, key, value string)
}

// NopSink discards all events. Useful for tests and the standalone verify path
// (§9 open question: verify bypasses the Task record).
type NopSink struct{}

func (NopSink) OnNodeEnter(context.Context, string)      {}
func (NopSink) OnNodeExit(context.Context, string)       {}
func (NopSink) OnStateDelta(context.Context, string, string) {}

// TeamState is the shared mutable state one TeamGraph run operates on. Field
// names mirror §4.6's per-team state ("paper_title, research_findings,
// draft_post" / "post_content, technical_report, style_report"); both teams
// share one struct since each team only ever touches its own fields.
type TeamState struct {
	Messages []llmclient.Message

	PaperTitle       string
	ResearchFindings string
	DraftPost        string

	PostContent     string
	TechnicalReport string
	StyleReport     string
}

// TeamGraph is the per-team state machine of §4.6: one node per member, a
// supervisor node, and a terminal END, entered at supervisor.
type TeamGraph struct {
	Team             string
	Members          []string
	SupervisorPrompt string
	Roles            *roles.Catalog
	Runtime          *agentrt.Runtime
	LLM              llmclient.Client
	RecursionLimit   int
	Sink             ProgressSink
}

// Run drives the graph to END or to a terminal error. Exceeding RecursionLimit
// total transitions yields RecursionExceeded; a cancelled ctx yields Cancelled.
func (g *TeamGraph) Run(ctx context.Context, state *TeamState) error {
	node := "supervisor"
	limit := g.RecursionLimit
	if limit <= 0 {
		limit = 25
	}

	for transitions := 0; node != "END"; transitions++ {
		if transitions >= limit {
			return orcherrors.New(orcherrors.KindRecursionExceeded,
				fmt.Sprintf("%s exceeded team_recursion_limit (%d)", g.Team, limit))
		}
		if err := ctx.Err(); err != nil {
			return orcherrors.Wrap(orcherrors.KindCancelled, g.Team+" cancelled", err)
		}

		start := time.Now()
		spanCtx, span := otel.Tracer().Start(ctx, "TeamGraph."+g.Team+"."+node)
		g.Sink.OnNodeEnter(ctx, node)

		if node == "supervisor" {
			route, err := g.routeSupervisor(spanCtx, state)
			g.Sink.OnNodeExit(ctx, node)
			otel.RecordTeamGraphTransition(ctx, "TeamGraph:"+g.Team, node)
			otel.RecordTeamGraphNodeDuration(ctx, "TeamGraph:"+g.Team, node, time.Since(start))
			span.End()
			if err != nil {
				return err
			}
			if route.Finish {
				node = "END"
			} else {
				node = route.Member
			}
			continue
		}

		role, ok := g.Roles.Get(node)
		if !ok {
			span.End()
			return orcherrors.New(orcherrors.KindInternal, "unknown team member: "+node)
		}
		res, err := g.Runtime.Step(spanCtx, role, state.Messages)
		if err != nil {
			g.Sink.OnNodeExit(ctx, node)
			span.End()
			return err
		}
		state.Messages = append(state.Messages, res.Appended...)
		g.applyDelta(ctx, node, res.Final.Content, state)

		g.Sink.OnNodeExit(ctx, node)
		otel.RecordTeamGraphTransition(ctx, "TeamGraph:"+g.Team, node)
		otel.RecordTeamGraphNodeDuration(ctx, "TeamGraph:"+g.Team, node, time.Since(start))
		span.End()
		node = "supervisor"
	}
	return nil
}

// applyDelta records the per-member output into the team's named state field and
// notifies the sink, per §4.6/§4.7's state-delta events.
func (g *TeamGraph) applyDelta(ctx context.Context, member, content string, state *TeamState) {
	switch member {
	case "PaperResearcher":
		state.ResearchFindings = content
		g.Sink.OnStateDelta(ctx, "research_findings", content)
	case "LinkedInCreator":
		state.DraftPost = content
		g.Sink.OnStateDelta(ctx, "draft_post", content)
	case "TechVerifier":
		state.TechnicalReport = content
		g.Sink.OnStateDelta(ctx, "technical_report", content)
	case "StyleChecker":
		state.StyleReport = content
		g.Sink.OnStateDelta(ctx, "style_report", content)
	}
}

func (g *TeamGraph) routeSupervisor(ctx context.Context, state *TeamState) (Route, error) {
	resp, err := g.LLM.Chat(ctx, llmclient.ChatRequest{
		Messages: append([]llmclient.Message{{Role: "system", Content: g.SupervisorPrompt}}, state.Messages...),
		Model:    "default",
	})
	if err != nil {
		return Route{}, err
	}
	return ParseRoute(resp.Message.Content, g.Members), nil
}
