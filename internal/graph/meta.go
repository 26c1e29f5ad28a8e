package graph

import (
	"context"
	"fmt"

	"github.com/ovokpus/PostAssist/internal/llmclient"
	"github.com/ovokpus/PostAssist/internal/orcherrors"
	"github.com/ovokpus/PostAssist/internal/otel"
	"github.com/ovokpus/PostAssist/pkg/models"
)

// MetaGraph is the three-node state machine of §4.7: Content team, Verification
// team, and a meta supervisor routing between them with the same tolerant
// JSON-with-fallback parsing as TeamGraph.
type MetaGraph struct {
	SupervisorPrompt string
	LLM              llmclient.Client
	Content          *TeamGraph
	Verification     *TeamGraph
	RecursionLimit   int
	Sink             ProgressSink
}

var metaMembers = []string{models.TeamContent, models.TeamVerification}

// Run drives the required progression supervisor → Content team → supervisor →
// Verification team → supervisor → END, permitting the supervisor to re-route
// back to Content team on a later pass (§9 open question, resolved permissive),
// bounded by RecursionLimit total transitions.
func (g *MetaGraph) Run(ctx context.Context, contentState *TeamState, verificationState *TeamState) error {
	node := "supervisor"
	limit := g.RecursionLimit
	if limit <= 0 {
		limit = 50
	}

	sharedMessages := contentState.Messages

	for transitions := 0; node != "END"; transitions++ {
		if transitions >= limit {
			return orcherrors.New(orcherrors.KindRecursionExceeded, fmt.Sprintf("meta graph exceeded meta_recursion_limit (%d)", limit))
		}
		if err := ctx.Err(); err != nil {
			return orcherrors.Wrap(orcherrors.KindCancelled, "meta graph cancelled", err)
		}

		g.Sink.OnNodeEnter(ctx, node)
		spanCtx, span := otel.Tracer().Start(ctx, "MetaGraph."+node)

		switch node {
		case "supervisor":
			route, err := g.routeSupervisor(spanCtx, sharedMessages)
			g.Sink.OnNodeExit(ctx, node)
			otel.RecordTeamGraphTransition(ctx, "MetaGraph", node)
			span.End()
			if err != nil {
				return err
			}
			if route.Finish {
				node = "END"
			} else {
				node = route.Member
			}

		case models.TeamContent:
			contentState.Messages = sharedMessages
			if err := g.Content.Run(spanCtx, contentState); err != nil {
				g.Sink.OnNodeExit(ctx, node)
				span.End()
				return err
			}
			sharedMessages = contentState.Messages
			verificationState.PostContent = contentState.DraftPost
			g.Sink.OnNodeExit(ctx, node)
			otel.RecordTeamGraphTransition(ctx, "MetaGraph", node)
			span.End()
			node = "supervisor"

		case models.TeamVerification:
			verificationState.Messages = append(verificationState.Messages, llmclient.Message{
				Role:    "human",
				Content: verificationState.PostContent,
			})
			if err := g.Verification.Run(spanCtx, verificationState); err != nil {
				g.Sink.OnNodeExit(ctx, node)
				span.End()
				return err
			}
			sharedMessages = verificationState.Messages
			g.Sink.OnNodeExit(ctx, node)
			otel.RecordTeamGraphTransition(ctx, "MetaGraph", node)
			span.End()
			node = "supervisor"

		default:
			span.End()
			return orcherrors.New(orcherrors.KindInternal, "unknown meta graph node: "+node)
		}
	}
	return nil
}

func (g *MetaGraph) routeSupervisor(ctx context.Context, messages []llmclient.Message) (Route, error) {
	resp, err := g.LLM.Chat(ctx, llmclient.ChatRequest{
		Messages: append([]llmclient.Message{{Role: "system", Content: g.SupervisorPrompt}}, messages...),
		Model:    "default",
	})
	if err != nil {
		return Route{}, err
	}
	return ParseRoute(resp.Message.Content, metaMembers), nil
}
