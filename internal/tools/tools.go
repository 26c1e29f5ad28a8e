// Package tools implements the Tool Catalog (§4.5): pure, string-returning
// functions AgentRuntime invokes on the model's behalf. Grounded on the original
// linkedin_tools.py / search_tools.py scoring and formatting rules, reimplemented
// idiomatically — struct-tagged argument types instead of hand-written JSON schemas,
// mirroring how the reference service derives wire schemas from typed requests
// (internal/capabilities).
package tools

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/ovokpus/PostAssist/internal/searchclient"
)

// ResearchPaperArgs is the argument struct for research_paper.
type ResearchPaperArgs struct {
	Title      string   `json:"title" desc:"Title of the paper to research"`
	FocusAreas []string `json:"focus_areas,omitempty" desc:"Optional list of aspects to research specifically"`
}

// WebSearchArgs is the argument struct for web_search.
type WebSearchArgs struct {
	Query string `json:"query" desc:"Search query"`
}

// CreatePostArgs is the argument struct for create_post.
type CreatePostArgs struct {
	Content      string   `json:"content" desc:"Main content for the post"`
	PaperTitle   string   `json:"paper_title" desc:"Title of the paper"`
	KeyInsights  []string `json:"key_insights" desc:"Key insights extracted from the paper"`
	Tone         string   `json:"tone,omitempty" desc:"professional, casual, enthusiastic, or academic"`
	Audience     string   `json:"audience,omitempty" desc:"academic, professional, or general"`
	MaxHashtags  int      `json:"max_hashtags,omitempty" desc:"Maximum number of hashtags to append"`
}

// VerifyTechnicalArgs is the argument struct for verify_technical.
type VerifyTechnicalArgs struct {
	PostContent    string `json:"post_content" desc:"Post content to verify"`
	PaperReference string `json:"paper_reference" desc:"Reference information about the source paper"`
}

// CheckStyleArgs is the argument struct for check_style.
type CheckStyleArgs struct {
	PostContent string `json:"post_content" desc:"Post content to check"`
}

// Catalog bundles the capabilities the tool set depends on — a searchclient.Client
// for research_paper and web_search. create_post/verify_technical/check_style are
// pure functions of their arguments and need no capability.
type Catalog struct {
	Search searchclient.Client
}

// New builds a Catalog backed by search.
func New(search searchclient.Client) *Catalog {
	return &Catalog{Search: search}
}

// ResearchPaper combines search results for the base title and each focus area
// into one labelled string, per §4.5.
func (c *Catalog) ResearchPaper(ctx context.Context, args ResearchPaperArgs) (string, error) {
	var sb strings.Builder
	base, err := c.Search.Search(ctx, args.Title)
	if err != nil {
		return "", err
	}
	fmt.Fprintf(&sb, "=== %s ===\n%s\n", args.Title, base)
	for _, focus := range args.FocusAreas {
		query := fmt.Sprintf("%s %s", args.Title, focus)
		res, err := c.Search.Search(ctx, query)
		if err != nil {
			return "", err
		}
		fmt.Fprintf(&sb, "\n=== %s: %s ===\n%s\n", args.Title, focus, res)
	}
	return sb.String(), nil
}

// WebSearch delegates directly to the search provider.
func (c *Catalog) WebSearch(ctx context.Context, args WebSearchArgs) (string, error) {
	return c.Search.Search(ctx, args.Query)
}

var toneEmoji = map[string]string{
	"professional": "🚀",
	"academic":     "📚",
	"casual":       "💡",
	"enthusiastic": "🔥",
}

var hashtagTopics = []struct {
	pattern *regexp.Regexp
	tag     string
}{
	{regexp.MustCompile(`(?i)natural language|nlp|text|language`), "#NLP"},
	{regexp.MustCompile(`(?i)computer vision|image|visual`), "#ComputerVision"},
	{regexp.MustCompile(`(?i)transformer|attention|bert|gpt`), "#Transformers"},
	{regexp.MustCompile(`(?i)deep learning|neural network`), "#DeepLearning"},
	{regexp.MustCompile(`(?i)reinforcement learning`), "#ReinforcementLearning"},
	{regexp.MustCompile(`(?i)data science|analytics`), "#DataScience"},
	{regexp.MustCompile(`(?i)python|pytorch|tensorflow`), "#Python"},
	{regexp.MustCompile(`(?i)automation|efficiency`), "#Automation"},
	{regexp.MustCompile(`(?i)business|industry|enterprise`), "#BusinessAI"},
	{regexp.MustCompile(`(?i)algorithm|optimization`), "#Algorithms"},
}

var baseHashtags = []string{"#MachineLearning", "#AI", "#Research", "#Innovation", "#TechTrends"}

func generateHashtags(title string, insights []string, max int) []string {
	if max <= 0 {
		max = 10
	}
	text := title + " " + strings.Join(insights, " ")
	tags := append([]string{}, baseHashtags...)
	for _, t := range hashtagTopics {
		if t.pattern.MatchString(text) {
			tags = append(tags, t.tag)
		}
	}
	if len(tags) > max {
		tags = tags[:max]
	}
	return tags
}

// CreatePost formats a deterministic canonical post string per §4.5: an opening
// line keyed by audience/tone, numbered insights (≤5), an engagement question, and
// a hashtag block capped at max_hashtags.
func CreatePost(args CreatePostArgs) string {
	tone := args.Tone
	if tone == "" {
		tone = "professional"
	}
	audience := args.Audience
	if audience == "" {
		audience = "professional"
	}
	emoji := toneEmoji[tone]
	if emoji == "" {
		emoji = "🚀"
	}

	var opening string
	switch audience {
	case "academic":
		opening = fmt.Sprintf("%s **New Research Alert: %s**", emoji, args.PaperTitle)
	case "general":
		opening = fmt.Sprintf("%s **Exciting breakthrough in AI!**", emoji)
	default:
		opening = fmt.Sprintf("%s **Transforming the Future of AI: %s**", emoji, args.PaperTitle)
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "%s\n\n%s\n\n", opening, args.Content)

	if len(args.KeyInsights) > 0 {
		sb.WriteString("💡 **Key Takeaways:**\n")
		insights := args.KeyInsights
		if len(insights) > 5 {
			insights = insights[:5]
		}
		for i, ins := range insights {
			fmt.Fprintf(&sb, "\n%d. %s", i+1, ins)
		}
		sb.WriteString("\n\n")
	}

	switch audience {
	case "academic":
		sb.WriteString("What are your thoughts on this methodology? How do you see it advancing the field?\n\n")
	case "general":
		sb.WriteString("What excites you most about AI developments like this?\n\n")
	default:
		sb.WriteString("What are your thoughts on this research? How do you see it impacting your industry?\n\n")
	}

	hashtags := generateHashtags(args.PaperTitle, args.KeyInsights, args.MaxHashtags)
	sb.WriteString(strings.Join(hashtags, " "))
	return sb.String()
}

var overstatementPatterns = []string{
	"revolutionary", "breakthrough", "unprecedented", "solves all",
	"perfect", "100%", "completely", "guarantees",
}

// VerifyTechnical scores a post's technical claims per §4.5's `score = max(0.0,
// 1.0 − 0.2 × |issues|)`, where issues are hype-word hits and missing attribution.
// It is the tool-call surface (returns the report string only); ScoreTechnical
// below exposes the numeric score for non-agent callers (the standalone verify
// endpoint invokes the tool directly, the way the original implementation's
// /verify-post handler does, bypassing the LLM).
func VerifyTechnical(args VerifyTechnicalArgs) string {
	report, _ := ScoreTechnical(args)
	return report
}

// ScoreTechnical returns both the report and the bare numeric score.
func ScoreTechnical(args VerifyTechnicalArgs) (string, float64) {
	var issues, recs []string

	lower := strings.ToLower(args.PostContent)
	for _, pat := range overstatementPatterns {
		if strings.Contains(lower, pat) {
			issues = append(issues, fmt.Sprintf("Potentially overstated claim detected: '%s'", pat))
			recs = append(recs, "Consider using more measured language")
		}
	}
	if !strings.Contains(lower, "et al") && !strings.Contains(lower, " by ") {
		issues = append(issues, "Missing author attribution")
		recs = append(recs, "Add proper attribution to paper authors")
	}

	score := 1.0 - float64(len(issues))*0.2
	if score < 0 {
		score = 0
	}

	status := "NEEDS REVISION"
	if score >= 0.7 {
		status = "APPROVED"
	}

	issuesBlock := "- No major issues detected"
	if len(issues) > 0 {
		issuesBlock = bulletJoin(issues)
	}
	recsBlock := "- Post appears technically sound"
	if len(recs) > 0 {
		recsBlock = bulletJoin(recs)
	}

	return fmt.Sprintf(`TECHNICAL VERIFICATION REPORT:
=============================

ACCURACY ASSESSMENT:
Score: %.2f/1.0

ISSUES IDENTIFIED:
%s

RECOMMENDATIONS:
%s

STATUS: %s
`, score, issuesBlock, recsBlock, status), score
}

var hashtagRe = regexp.MustCompile(`#\w+`)

// countEmoji counts runes in an approximation of the common emoji blocks.
func countEmoji(s string) int {
	n := 0
	for _, r := range s {
		switch {
		case r >= 0x1F300 && r <= 0x1FAFF:
			n++
		case r >= 0x2600 && r <= 0x27BF:
			n++
		}
	}
	return n
}

var numberedListRe = regexp.MustCompile(`(?m)^\s*\d+[.)]\s`)

// CheckStyle scores structural style per §4.5: base 1.0 minus 0.1 for each of
// char count outside [600,1300], zero emoji, zero engagement question, hashtag
// count outside [3,15], missing numbered list. It is the tool-call surface;
// ScoreStyle exposes the numeric score for non-agent callers.
func CheckStyle(args CheckStyleArgs) string {
	report, _ := ScoreStyle(args)
	return report
}

// ScoreStyle returns both the report and the bare numeric score.
func ScoreStyle(args CheckStyleArgs) (string, float64) {
	content := args.PostContent
	charCount := len(content)
	emojiCount := countEmoji(content)
	hashtagCount := len(hashtagRe.FindAllString(content, -1))
	hasQuestion := strings.Contains(content, "?")
	hasNumberedList := numberedListRe.MatchString(content)

	var issues, recs []string
	score := 1.0

	if charCount < 600 || charCount > 1300 {
		score -= 0.1
		issues = append(issues, fmt.Sprintf("Character count %d outside target range [600, 1300]", charCount))
		recs = append(recs, "Adjust length to fall within 600-1300 characters")
	}
	if emojiCount == 0 {
		score -= 0.1
		issues = append(issues, "No emojis used")
		recs = append(recs, "Add 1-3 relevant emojis for engagement")
	}
	if !hasQuestion {
		score -= 0.1
		issues = append(issues, "Missing engagement question")
		recs = append(recs, "Add a question to encourage comments")
	}
	if hashtagCount < 3 || hashtagCount > 15 {
		score -= 0.1
		issues = append(issues, fmt.Sprintf("Hashtag count %d outside target range [3, 15]", hashtagCount))
		recs = append(recs, "Use between 3 and 15 hashtags for reach without spam")
	}
	if !hasNumberedList {
		score -= 0.1
		issues = append(issues, "Missing numbered list of insights")
		recs = append(recs, "Present key takeaways as a numbered list")
	}
	if score < 0 {
		score = 0
	}

	status := "NEEDS STYLE IMPROVEMENTS"
	if score >= 0.7 {
		status = "LINKEDIN READY"
	}

	issuesBlock := "- No major style issues"
	if len(issues) > 0 {
		issuesBlock = bulletJoin(issues)
	}
	recsBlock := "- Post follows LinkedIn best practices"
	if len(recs) > 0 {
		recsBlock = bulletJoin(recs)
	}

	return fmt.Sprintf(`LINKEDIN STYLE ASSESSMENT:
=========================

METRICS:
- Character count: %d
- Emoji count: %d
- Hashtag count: %d
- Has engagement question: %s
- Has numbered list: %s

STYLE SCORE: %.2f/1.0

ISSUES IDENTIFIED:
%s

RECOMMENDATIONS:
%s

STATUS: %s
`, charCount, emojiCount, hashtagCount, yesNo(hasQuestion), yesNo(hasNumberedList), score, issuesBlock, recsBlock, status), score
}

func bulletJoin(lines []string) string {
	out := make([]string, len(lines))
	for i, l := range lines {
		out[i] = "- " + l
	}
	return strings.Join(out, "\n")
}

func yesNo(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}

// ExtractHashtags returns `#[A-Za-z0-9_]+` occurrences in order of first
// appearance, deduplicated — used by MetaGraph result extraction (§4.7).
func ExtractHashtags(content string) []string {
	seen := map[string]bool{}
	var out []string
	for _, m := range hashtagRe.FindAllString(content, -1) {
		if !seen[m] {
			seen[m] = true
			out = append(out, m)
		}
	}
	return out
}
