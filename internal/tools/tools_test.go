package tools

import (
	"context"
	"math"
	"strings"
	"testing"

	"github.com/ovokpus/PostAssist/internal/searchclient"
)

func TestResearchPaper_CombinesBaseAndFocusAreas(t *testing.T) {
	c := New(searchclient.StubClient{Response: "some result"})
	out, err := c.ResearchPaper(context.Background(), ResearchPaperArgs{
		Title:      "Attention Is All You Need",
		FocusAreas: []string{"architecture", "benchmarks"},
	})
	if err != nil {
		t.Fatalf("ResearchPaper: %v", err)
	}
	for _, want := range []string{"Attention Is All You Need", "architecture", "benchmarks", "some result"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected output to contain %q, got: %s", want, out)
		}
	}
}

func TestResearchPaper_PropagatesSearchError(t *testing.T) {
	wantErr := &testError{"boom"}
	c := New(searchclient.StubClient{Err: wantErr, AsGoError: true})
	if _, err := c.ResearchPaper(context.Background(), ResearchPaperArgs{Title: "x"}); err == nil {
		t.Fatal("expected error to propagate")
	}
}

type testError struct{ s string }

func (e *testError) Error() string { return e.s }

func TestWebSearch_Delegates(t *testing.T) {
	c := New(searchclient.StubClient{Response: "hits"})
	out, err := c.WebSearch(context.Background(), WebSearchArgs{Query: "transformers"})
	if err != nil {
		t.Fatalf("WebSearch: %v", err)
	}
	if out != "hits" {
		t.Fatalf("WebSearch = %q, want %q", out, "hits")
	}
}

func TestCreatePost_AcademicAudience(t *testing.T) {
	post := CreatePost(CreatePostArgs{
		Content:     "A new method for scaling attention.",
		PaperTitle:  "Attention Is All You Need",
		KeyInsights: []string{"insight one", "insight two"},
		Tone:        "academic",
		Audience:    "academic",
		MaxHashtags: 5,
	})
	if !strings.Contains(post, "New Research Alert: Attention Is All You Need") {
		t.Errorf("expected academic opening, got: %s", post)
	}
	if !strings.Contains(post, "1. insight one") || !strings.Contains(post, "2. insight two") {
		t.Errorf("expected numbered insights, got: %s", post)
	}
	if !strings.Contains(post, "methodology") {
		t.Errorf("expected academic engagement question, got: %s", post)
	}
	if strings.Count(post, "#") > 5 {
		t.Errorf("expected at most 5 hashtags, got: %s", post)
	}
}

func TestCreatePost_LimitsToFiveInsights(t *testing.T) {
	insights := []string{"a", "b", "c", "d", "e", "f", "g"}
	post := CreatePost(CreatePostArgs{PaperTitle: "X", KeyInsights: insights})
	if strings.Contains(post, "6. f") {
		t.Errorf("expected insights truncated to 5, got: %s", post)
	}
}

func TestVerifyTechnical_CleanPostApproved(t *testing.T) {
	report := VerifyTechnical(VerifyTechnicalArgs{
		PostContent:    "This paper by Vaswani et al. proposes a new architecture with measured improvements.",
		PaperReference: "Attention Is All You Need",
	})
	if !strings.Contains(report, "STATUS: APPROVED") {
		t.Errorf("expected approved status, got: %s", report)
	}
	if !strings.Contains(report, "Score: 1.00/1.0") {
		t.Errorf("expected perfect score, got: %s", report)
	}
}

func TestVerifyTechnical_OverstatedClaimsPenalized(t *testing.T) {
	report := VerifyTechnical(VerifyTechnicalArgs{
		PostContent: "This is a revolutionary breakthrough that solves all problems perfectly.",
	})
	if !strings.Contains(report, "NEEDS REVISION") {
		t.Errorf("expected needs-revision status for overstated post, got: %s", report)
	}
	if !strings.Contains(report, "Missing author attribution") {
		t.Errorf("expected missing-attribution issue, got: %s", report)
	}
}

func TestScoreTechnical_MatchesEmbeddedScore(t *testing.T) {
	_, score := ScoreTechnical(VerifyTechnicalArgs{PostContent: "revolutionary breakthrough"})
	if math.Abs(score-0.4) > 1e-9 {
		t.Fatalf("ScoreTechnical score = %v, want 0.4", score)
	}
}

func TestScoreStyle_MatchesEmbeddedScore(t *testing.T) {
	_, score := ScoreStyle(CheckStyleArgs{PostContent: "Too short."})
	if score >= 0.7 {
		t.Fatalf("ScoreStyle score = %v, want < 0.7 for a short, bare post", score)
	}
}

func TestCheckStyle_WellFormedPostReady(t *testing.T) {
	content := strings.Repeat("This research advances the field in meaningful ways. ", 15) +
		"🚀\n\n1. First insight\n2. Second insight\n\nWhat do you think? " +
		"#AI #MachineLearning #Research"
	report := CheckStyle(CheckStyleArgs{PostContent: content})
	if !strings.Contains(report, "LINKEDIN READY") {
		t.Errorf("expected ready status, got: %s", report)
	}
}

func TestCheckStyle_ShortPostNeedsImprovement(t *testing.T) {
	report := CheckStyle(CheckStyleArgs{PostContent: "Too short."})
	if !strings.Contains(report, "NEEDS STYLE IMPROVEMENTS") {
		t.Errorf("expected needs-improvement status for short post, got: %s", report)
	}
}

func TestExtractHashtags_DeduplicatesPreservingOrder(t *testing.T) {
	got := ExtractHashtags("#AI is big. #AI #ML #AI #Research")
	want := []string{"#AI", "#ML", "#Research"}
	if len(got) != len(want) {
		t.Fatalf("ExtractHashtags = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("ExtractHashtags = %v, want %v", got, want)
		}
	}
}

func TestDefinitions_CoversAllFiveTools(t *testing.T) {
	defs := Definitions()
	if len(defs) != 5 {
		t.Fatalf("Definitions returned %d tools, want 5", len(defs))
	}
	names := map[string]bool{}
	for _, d := range defs {
		names[d.Name] = true
		if d.Parameters["type"] != "object" {
			t.Errorf("%s: parameters type = %v, want object", d.Name, d.Parameters["type"])
		}
	}
	for _, want := range []string{"research_paper", "web_search", "create_post", "verify_technical", "check_style"} {
		if !names[want] {
			t.Errorf("Definitions missing tool %q", want)
		}
	}
}
