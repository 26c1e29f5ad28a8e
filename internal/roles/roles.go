// Package roles defines the fixed role descriptors (system prompt + tool set)
// AgentRuntime and the supervisor nodes use for each named agent. Role text is
// loaded from YAML the same way the reference service loads per-agent
// config.yaml files (internal/memory/agent_config.go), so an operator can retune
// prompts without a rebuild; a built-in default ships for when no file is given.
package roles

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/ovokpus/PostAssist/pkg/models"
)

// Role describes one named agent's behavior contract.
type Role struct {
	Name         string   `yaml:"name"`
	Team         string   `yaml:"team"`
	SystemPrompt string   `yaml:"system_prompt"`
	Tools        []string `yaml:"tools"`
}

// SupervisorPrompt describes one supervisor node's routing prompt template.
type SupervisorPrompt struct {
	Name   string `yaml:"name"`
	Prompt string `yaml:"prompt"`
}

// Catalog is the full set of role and supervisor definitions the orchestrator
// draws from. Agent-to-team membership mirrors models.TeamOf/TeamMembers (I8):
// this package only supplies the prompt/tool text for those fixed names.
type Catalog struct {
	Agents             map[string]Role             `yaml:"agents"`
	ContentSupervisor  SupervisorPrompt            `yaml:"content_supervisor"`
	VerificationSupervisor SupervisorPrompt        `yaml:"verification_supervisor"`
	MetaSupervisor     SupervisorPrompt            `yaml:"meta_supervisor"`
}

// Default returns the built-in role catalog, grounded on the reference
// service's fixed agent prompts.
func Default() *Catalog {
	return &Catalog{
		Agents: map[string]Role{
			models.AgentPaperResearcher: {
				Name: models.AgentPaperResearcher,
				Team: models.TeamContent,
				SystemPrompt: "You are an expert AI researcher who specializes in understanding and summarizing " +
					"machine learning papers. Research papers thoroughly and extract key insights, " +
					"methodologies, and results. Focus on accuracy and clarity. Always cover the paper's " +
					"main contributions, methodology, results, and potential impact.",
				Tools: []string{"research_paper", "web_search"},
			},
			models.AgentLinkedInCreator: {
				Name: models.AgentLinkedInCreator,
				Team: models.TeamContent,
				SystemPrompt: "You are a social media expert who specializes in creating engaging LinkedIn " +
					"posts about technical topics. Make complex AI research accessible and engaging for a " +
					"professional audience while maintaining technical accuracy. Always include relevant " +
					"hashtags and an engaging question to encourage comments.",
				Tools: []string{"create_post"},
			},
			models.AgentTechVerifier: {
				Name: models.AgentTechVerifier,
				Team: models.TeamVerification,
				SystemPrompt: "You are a technical reviewer and fact-checker specializing in machine learning " +
					"research. Verify that LinkedIn posts accurately represent the research they discuss, " +
					"flag oversimplified or incorrect claims, and ensure proper attribution to authors.",
				Tools: []string{"verify_technical", "research_paper"},
			},
			models.AgentStyleChecker: {
				Name: models.AgentStyleChecker,
				Team: models.TeamVerification,
				SystemPrompt: "You are a LinkedIn content strategist who ensures posts follow best practices " +
					"for professional social media: tone, formatting, hashtag usage, and engagement elements.",
				Tools: []string{"check_style"},
			},
		},
		ContentSupervisor: SupervisorPrompt{
			Name: "content_supervisor",
			Prompt: "You are a supervisor managing a content creation team with workers: PaperResearcher, " +
				"LinkedInCreator. Have the researcher gather information about the paper first, then have " +
				"the creator make a LinkedIn post based on that research. Respond with FINISH when both " +
				"are complete.",
		},
		VerificationSupervisor: SupervisorPrompt{
			Name: "verification_supervisor",
			Prompt: "You are a supervisor managing a verification team with workers: TechVerifier, " +
				"StyleChecker. Have the technical verifier check accuracy first, then have the style " +
				"checker ensure LinkedIn compliance. Respond with FINISH when both are complete.",
		},
		MetaSupervisor: SupervisorPrompt{
			Name: "meta_supervisor",
			Prompt: "You are a meta-supervisor coordinating teams: Content team, Verification team. First " +
				"direct the Content team to research the paper and draft a post, then send the completed " +
				"post to the Verification team. Respond with FINISH only when both teams have completed.",
		},
	}
}

// Load reads a Catalog from a YAML file at path, falling back to Default for
// any agent or supervisor entry the file omits.
func Load(path string) (*Catalog, error) {
	base := Default()
	if path == "" {
		return base, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return base, nil
		}
		return nil, fmt.Errorf("read role catalog %s: %w", path, err)
	}
	var override Catalog
	if err := yaml.Unmarshal(data, &override); err != nil {
		return nil, fmt.Errorf("parse role catalog %s: %w", path, err)
	}
	for name, role := range override.Agents {
		base.Agents[name] = role
	}
	if override.ContentSupervisor.Prompt != "" {
		base.ContentSupervisor = override.ContentSupervisor
	}
	if override.VerificationSupervisor.Prompt != "" {
		base.VerificationSupervisor = override.VerificationSupervisor
	}
	if override.MetaSupervisor.Prompt != "" {
		base.MetaSupervisor = override.MetaSupervisor
	}
	return base, nil
}

// Get returns the role for name, or false if unknown.
func (c *Catalog) Get(name string) (Role, bool) {
	r, ok := c.Agents[name]
	return r, ok
}
