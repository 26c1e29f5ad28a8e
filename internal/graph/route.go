// Package graph implements TeamGraph and MetaGraph (§4.6/§4.7): deterministic
// state machines with conditional transitions determined by an LLM's structured
// output. Grounded on the reference service's switch-on-stage-type dispatch loop
// (internal/workflow/engine.go) — generalized here to a tagged Route value instead
// of a globally-mutated "next" field, per §9's redesign strategy.
package graph

import (
	"encoding/json"
	"strings"
)

// Route is the supervisor's routing decision: either a named member to dispatch
// to, or Finish to exit the graph. Exactly one is meaningful.
type Route struct {
	Member string
	Finish bool
}

// ParseRoute tolerantly parses a supervisor's raw LLM output into a Route: try
// JSON `{"next": "<member>"|"FINISH"}` first; on failure scan the text for an
// exact (case-insensitive) member name; on ambiguity or no match, default Finish.
func ParseRoute(raw string, members []string) Route {
	var parsed struct {
		Next string `json:"next"`
	}
	if err := json.Unmarshal([]byte(strings.TrimSpace(raw)), &parsed); err == nil && parsed.Next != "" {
		if r, ok := matchMember(parsed.Next, members); ok {
			return r
		}
	}

	lower := strings.ToLower(raw)
	var matches []string
	for _, m := range members {
		if strings.Contains(lower, strings.ToLower(m)) {
			matches = append(matches, m)
		}
	}
	if len(matches) == 1 {
		return Route{Member: matches[0]}
	}
	return Route{Finish: true}
}

func matchMember(next string, members []string) (Route, bool) {
	if strings.EqualFold(next, "FINISH") {
		return Route{Finish: true}, true
	}
	for _, m := range members {
		if strings.EqualFold(next, m) {
			return Route{Member: m}, true
		}
	}
	return Route{}, false
}
