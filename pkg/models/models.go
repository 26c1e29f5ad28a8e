// Package models provides the shared wire types for the orchestrator's HTTP API
// and for TaskStore serialization. These types are stable across internal packages.
package models

import "time"

// Task is the unit of orchestration state. It is created by Submit and mutated only
// by the ProgressTracker bound to it; external readers never write to it.
type Task struct {
	TaskID      string                 `json:"task_id"`
	Status      string                 `json:"status"`
	Progress    float64                `json:"progress"`
	CurrentStep string                 `json:"current_step,omitempty"`
	Phase       string                 `json:"phase,omitempty"`
	CreatedAt   time.Time              `json:"created_at"`
	UpdatedAt   time.Time              `json:"updated_at"`
	RequestData GenerateRequest        `json:"request_data"`
	Teams       map[string]*TeamState  `json:"teams"`
	Result      *LinkedInPostArtifact  `json:"result,omitempty"`
	Verification *VerificationReport   `json:"verification,omitempty"`
	Error       *TaskError             `json:"error,omitempty"`
}

// TeamState tracks one team's (Content team or Verification team) progress.
type TeamState struct {
	TeamName      string                 `json:"team_name"`
	Status        string                 `json:"status"`
	Progress      float64                `json:"progress"`
	CurrentFocus  string                 `json:"current_focus,omitempty"`
	StartedAt     *time.Time             `json:"started_at,omitempty"`
	CompletedAt   *time.Time             `json:"completed_at,omitempty"`
	TeamFindings  string                 `json:"team_findings,omitempty"`
	Agents        map[string]*AgentState `json:"agents"`
}

// AgentState tracks one named role's progress within its team.
type AgentState struct {
	AgentName       string    `json:"agent_name"`
	Status          string    `json:"status"`
	CurrentActivity string    `json:"current_activity,omitempty"`
	Progress        float64   `json:"progress"`
	Findings        string    `json:"findings,omitempty"`
	LastUpdate      time.Time `json:"last_update"`
	ErrorMessage    string    `json:"error_message,omitempty"`
}

// Message is one entry in a job's append-only log. Only in-memory during a run;
// not persisted individually, only the final artifact derived from it is kept.
type Message struct {
	Role      string     `json:"role"` // human, system, ai, tool
	Name      string     `json:"name,omitempty"`
	Content   string     `json:"content"`
	ToolCalls []ToolCall `json:"tool_calls,omitempty"`
}

// ToolCall is one tool invocation requested by the LLM in a single turn.
type ToolCall struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Arguments string `json:"arguments"` // raw JSON
}

// LinkedInPostArtifact is the final produced write-up, written once on COMPLETED.
type LinkedInPostArtifact struct {
	Content         string   `json:"content"`
	Hashtags        []string `json:"hashtags"`
	WordCount       int      `json:"word_count"`
	CharacterCount  int      `json:"character_count"`
	EngagementScore float64  `json:"engagement_score,omitempty"`
}

// ScoredReport is one half (technical or style) of a VerificationReport.
type ScoredReport struct {
	Score       float64  `json:"score"`
	Issues      []string `json:"issues"`
	Suggestions []string `json:"suggestions"`
}

// VerificationReport pairs technical and style scoring for an artifact.
type VerificationReport struct {
	Technical       ScoredReport `json:"technical"`
	Style           ScoredReport `json:"style"`
	OverallScore    float64      `json:"overall_score"`
	Recommendations []string     `json:"recommendations"`
	Rating          string       `json:"rating"`
}

// TaskError is the taxonomized failure recorded on a FAILED task.
type TaskError struct {
	Kind    string         `json:"kind"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

// BatchRequest groups generation requests submitted together under one batch_id.
type BatchRequest struct {
	BatchID   string    `json:"batch_id"`
	TaskIDs   []string  `json:"task_ids"`
	CreatedAt time.Time `json:"created_at"`
}

// GenerateRequest is the body of POST /generate-post (and each element of a batch).
type GenerateRequest struct {
	PaperTitle              string `json:"paper_title"`
	AdditionalContext       string `json:"additional_context,omitempty"`
	TargetAudience          string `json:"target_audience,omitempty"`
	Tone                    string `json:"tone,omitempty"`
	IncludeTechnicalDetails *bool  `json:"include_technical_details,omitempty"`
	MaxHashtags             int    `json:"max_hashtags,omitempty"`
}

// GenerateResponse is the 202 body returned by POST /generate-post.
type GenerateResponse struct {
	TaskID                  string `json:"task_id"`
	Status                  string `json:"status"`
	Message                 string `json:"message"`
	EstimatedCompletionTime string `json:"estimated_completion_time"`
}

// VerifyRequest is the body of POST /verify-post.
type VerifyRequest struct {
	PostContent      string `json:"post_content"`
	PaperReference   string `json:"paper_reference,omitempty"`
	VerificationType string `json:"verification_type"`
}

// VerifyResponse is the 200 body returned by POST /verify-post.
type VerifyResponse struct {
	VerificationReport
	VerificationID string    `json:"verification_id"`
	VerifiedAt     time.Time `json:"verified_at"`
}

// BatchGenerateRequest is the body of POST /batch-generate.
type BatchGenerateRequest struct {
	Papers []GenerateRequest `json:"papers"`
}

// BatchGenerateResponse is the 202 body returned by POST /batch-generate.
type BatchGenerateResponse struct {
	BatchID    string   `json:"batch_id"`
	TotalPosts int      `json:"total_posts"`
	TaskIDs    []string `json:"task_ids"`
}

// BatchStatusResponse is the 200 body returned by GET /batch/{batch_id}.
type BatchStatusResponse struct {
	BatchID    string  `json:"batch_id"`
	TotalPosts int     `json:"total_posts"`
	Tasks      []*Task `json:"tasks"`
}

// HealthResponse is the body returned by GET /health (and its GET / alias).
type HealthResponse struct {
	Status   string            `json:"status"`
	Version  string            `json:"version"`
	Services map[string]string `json:"services"`
}
