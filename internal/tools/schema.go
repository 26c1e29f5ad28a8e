package tools

import (
	"reflect"
	"strings"

	"github.com/ovokpus/PostAssist/internal/llmclient"
)

// DefFromArgs derives an llmclient.ToolDef from an argument struct's json/desc
// tags, the way the reference service derives its wire schemas from typed
// request structs rather than hand-written JSON literals (§4.5).
func DefFromArgs(name, description string, args any) llmclient.ToolDef {
	props := map[string]any{}
	var required []string

	t := reflect.TypeOf(args)
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		jsonTag := f.Tag.Get("json")
		if jsonTag == "" {
			continue
		}
		parts := strings.Split(jsonTag, ",")
		fieldName := parts[0]
		optional := false
		for _, p := range parts[1:] {
			if p == "omitempty" {
				optional = true
			}
		}

		prop := map[string]any{"type": jsonType(f.Type)}
		if desc := f.Tag.Get("desc"); desc != "" {
			prop["description"] = desc
		}
		if f.Type.Kind() == reflect.Slice {
			prop["items"] = map[string]any{"type": jsonType(f.Type.Elem())}
		}
		props[fieldName] = prop

		if !optional {
			required = append(required, fieldName)
		}
	}

	return llmclient.ToolDef{
		Name:        name,
		Description: description,
		Parameters: map[string]any{
			"type":       "object",
			"properties": props,
			"required":   required,
		},
	}
}

func jsonType(t reflect.Type) string {
	switch t.Kind() {
	case reflect.String:
		return "string"
	case reflect.Int, reflect.Int32, reflect.Int64:
		return "integer"
	case reflect.Float32, reflect.Float64:
		return "number"
	case reflect.Bool:
		return "boolean"
	case reflect.Slice, reflect.Array:
		return "array"
	default:
		return "string"
	}
}

// Definitions returns the full Tool Catalog's wire schemas, generated once at
// startup per §4.5.
func Definitions() []llmclient.ToolDef {
	return []llmclient.ToolDef{
		DefFromArgs("research_paper", "Research a paper's background and focus areas via web search.", ResearchPaperArgs{}),
		DefFromArgs("web_search", "Search the web for a query.", WebSearchArgs{}),
		DefFromArgs("create_post", "Format a LinkedIn post from content, insights, tone, and audience.", CreatePostArgs{}),
		DefFromArgs("verify_technical", "Score a post's technical accuracy against a paper reference.", VerifyTechnicalArgs{}),
		DefFromArgs("check_style", "Score a post's structural LinkedIn style compliance.", CheckStyleArgs{}),
	}
}
