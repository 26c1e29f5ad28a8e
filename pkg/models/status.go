package models

// Task statuses. Transitions are monotone forward: Pending -> InProgress -> {Completed, Failed}.
const (
	StatusPending    = "PENDING"
	StatusInProgress = "IN_PROGRESS"
	StatusCompleted  = "COMPLETED"
	StatusFailed     = "FAILED"
)

// TeamState and AgentState statuses.
const (
	TeamStatusPending    = "PENDING"
	TeamStatusInProgress = "IN_PROGRESS"
	TeamStatusCompleted  = "COMPLETED"
	TeamStatusFailed     = "FAILED"

	AgentStatusIdle      = "IDLE"
	AgentStatusWorking   = "WORKING"
	AgentStatusCompleted = "COMPLETED"
	AgentStatusError     = "ERROR"
)

// Team names. Agent-to-team membership is fixed (I8).
const (
	TeamContent       = "Content team"
	TeamVerification  = "Verification team"
	AgentPaperResearcher = "PaperResearcher"
	AgentLinkedInCreator = "LinkedInCreator"
	AgentTechVerifier    = "TechVerifier"
	AgentStyleChecker    = "StyleChecker"
)

// TeamOf returns the owning team name for a fixed agent name.
func TeamOf(agent string) string {
	switch agent {
	case AgentPaperResearcher, AgentLinkedInCreator:
		return TeamContent
	case AgentTechVerifier, AgentStyleChecker:
		return TeamVerification
	default:
		return ""
	}
}

// TeamMembers lists agent names for a team in canonical visitation order.
func TeamMembers(team string) []string {
	switch team {
	case TeamContent:
		return []string{AgentPaperResearcher, AgentLinkedInCreator}
	case TeamVerification:
		return []string{AgentTechVerifier, AgentStyleChecker}
	default:
		return nil
	}
}

// Verification ratings, derived from VerificationReport.OverallScore.
const (
	RatingExcellent        = "excellent"
	RatingGood             = "good"
	RatingNeedsImprovement = "needs_improvement"
	RatingPoor             = "poor"
)

// Request field enums (validated by the orchestrator on submit, per §6).
const (
	AudienceAcademic     = "academic"
	AudienceProfessional = "professional"
	AudienceGeneral      = "general"

	ToneProfessional  = "professional"
	ToneCasual        = "casual"
	ToneEnthusiastic  = "enthusiastic"
	ToneAcademic      = "academic"

	VerifyTechnical = "technical"
	VerifyStyle     = "style"
	VerifyBoth      = "both"
)

// Default limits and budgets.
const (
	DefaultMaxRequestBodyBytes = 1 << 20 // 1 MiB
	DefaultStoreTTLSeconds     = 7200
	DefaultMaxConcurrentGen    = 3
	DefaultMaxConcurrentVerify = 5
	DefaultVerificationTimeoutSeconds = 120
	DefaultMetaRecursionLimit  = 50
	DefaultTeamRecursionLimit  = 25
	DefaultMaxToolRounds       = 8
	DefaultSSEChannelBuffer    = 256
	MinPaperTitleLen           = 5
	MaxPaperTitleLen           = 500
	MinMaxHashtags             = 1
	MaxMaxHashtags             = 20
)

func validAudiences() []string { return []string{AudienceAcademic, AudienceProfessional, AudienceGeneral} }
func validTones() []string     { return []string{ToneProfessional, ToneCasual, ToneEnthusiastic, ToneAcademic} }

// ValidAudience reports whether s is one of the accepted target_audience values.
func ValidAudience(s string) bool {
	for _, v := range validAudiences() {
		if v == s {
			return true
		}
	}
	return false
}

// ValidTone reports whether s is one of the accepted tone values.
func ValidTone(s string) bool {
	for _, v := range validTones() {
		if v == s {
			return true
		}
	}
	return false
}
