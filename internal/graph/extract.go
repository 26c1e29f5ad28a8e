package graph

import (
	"strings"

	"github.com/ovokpus/PostAssist/internal/tools"
	"github.com/ovokpus/PostAssist/pkg/models"
)

// ExtractArtifact builds the final LinkedInPostArtifact from LinkedInCreator's
// draft, per §4.7's result-extraction rule: strip any leading/trailing fence or
// label, extract hashtags in order of first appearance (deduplicated), and
// compute word/character counts on the final content.
func ExtractArtifact(draftPost string) *models.LinkedInPostArtifact {
	content := stripFence(draftPost)
	hashtags := tools.ExtractHashtags(content)
	return &models.LinkedInPostArtifact{
		Content:        content,
		Hashtags:       hashtags,
		WordCount:      len(strings.Fields(content)),
		CharacterCount: len(content),
	}
}

func stripFence(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	for _, label := range []string{"Post:", "LinkedIn Post:", "Draft:"} {
		if strings.HasPrefix(s, label) {
			s = strings.TrimSpace(strings.TrimPrefix(s, label))
		}
	}
	return strings.TrimSpace(s)
}
