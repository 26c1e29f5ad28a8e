// Package orchestrator implements Orchestrator: the component the HTTP layer calls
// into for every write operation (§5). It owns the bounded worker pool that runs
// MetaGraph jobs, the request validation table of §6, and the standalone verify
// path that bypasses the Task record entirely.
//
// Grounded on the reference service's internal/daemon/scheduler.go worker-pool
// shape (a capacity-bounded semaphore channel plus a sync.WaitGroup for graceful
// drain) generalized from "subprocess jobs" to "MetaGraph runs".
package orchestrator

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ovokpus/PostAssist/internal/agentrt"
	"github.com/ovokpus/PostAssist/internal/governor"
	"github.com/ovokpus/PostAssist/internal/graph"
	"github.com/ovokpus/PostAssist/internal/llmclient"
	"github.com/ovokpus/PostAssist/internal/orcherrors"
	"github.com/ovokpus/PostAssist/internal/otel"
	"github.com/ovokpus/PostAssist/internal/progress"
	"github.com/ovokpus/PostAssist/internal/roles"
	"github.com/ovokpus/PostAssist/internal/store"
	"github.com/ovokpus/PostAssist/internal/tools"
	"github.com/ovokpus/PostAssist/pkg/models"
)

// Config holds the recursion/timeout/concurrency knobs every job run is bounded by.
type Config struct {
	MaxToolRounds      int
	TeamRecursionLimit int
	MetaRecursionLimit int
	TaskTTL            time.Duration
	VerificationTimeout time.Duration
	MaxConcurrentGenerations int
}

// Orchestrator wires together TaskStore, ConcurrencyGovernor, AgentRuntime, and the
// TeamGraph/MetaGraph state machines into the Submit/Cancel/Shutdown/VerifyPost
// surface the HTTP layer calls.
type Orchestrator struct {
	store    *store.AdaptiveStore
	governor *governor.Governor
	roles    *roles.Catalog
	llm      llmclient.Client
	catalog  *tools.Catalog
	cfg      Config
	logger   *slog.Logger
	publish  func(*models.Task)

	pool chan struct{}
	wg   sync.WaitGroup

	mu       sync.Mutex
	cancels  map[string]context.CancelFunc

	shutdownOnce sync.Once
	shutdownCh   chan struct{}
}

// New builds an Orchestrator. publish may be nil (no SSE fan-out wired).
func New(st *store.AdaptiveStore, gov *governor.Governor, roleCatalog *roles.Catalog,
	llm llmclient.Client, catalog *tools.Catalog, cfg Config, logger *slog.Logger,
	publish func(*models.Task)) *Orchestrator {
	if logger == nil {
		logger = slog.Default()
	}
	poolSize := cfg.MaxConcurrentGenerations
	if poolSize < 1 {
		poolSize = 1
	}
	return &Orchestrator{
		store:      st,
		governor:   gov,
		roles:      roleCatalog,
		llm:        llm,
		catalog:    catalog,
		cfg:        cfg,
		logger:     logger,
		publish:    publish,
		pool:       make(chan struct{}, poolSize),
		cancels:    make(map[string]context.CancelFunc),
		shutdownCh: make(chan struct{}),
	}
}

// validate enforces §6's request validation table.
func validate(req models.GenerateRequest) error {
	n := len(req.PaperTitle)
	if n < models.MinPaperTitleLen || n > models.MaxPaperTitleLen {
		return orcherrors.New(orcherrors.KindValidation,
			fmt.Sprintf("paper_title must be between %d and %d characters", models.MinPaperTitleLen, models.MaxPaperTitleLen))
	}
	if req.TargetAudience != "" && !models.ValidAudience(req.TargetAudience) {
		return orcherrors.New(orcherrors.KindValidation, "target_audience must be one of academic, professional, general")
	}
	if req.Tone != "" && !models.ValidTone(req.Tone) {
		return orcherrors.New(orcherrors.KindValidation, "tone must be one of professional, casual, enthusiastic, academic")
	}
	if req.MaxHashtags != 0 && (req.MaxHashtags < models.MinMaxHashtags || req.MaxHashtags > models.MaxMaxHashtags) {
		return orcherrors.New(orcherrors.KindValidation,
			fmt.Sprintf("max_hashtags must be between %d and %d", models.MinMaxHashtags, models.MaxMaxHashtags))
	}
	return nil
}

func applyDefaults(req models.GenerateRequest) models.GenerateRequest {
	if req.TargetAudience == "" {
		req.TargetAudience = models.AudienceProfessional
	}
	if req.Tone == "" {
		req.Tone = models.ToneProfessional
	}
	if req.MaxHashtags == 0 {
		req.MaxHashtags = 5
	}
	if req.IncludeTechnicalDetails == nil {
		t := true
		req.IncludeTechnicalDetails = &t
	}
	return req
}

// Submit validates req, creates a PENDING Task guarded by the "at most one in-flight
// job per task_id" invariant (§5), and schedules it onto the bounded worker pool.
func (o *Orchestrator) Submit(ctx context.Context, req models.GenerateRequest) (*models.Task, error) {
	if err := validate(req); err != nil {
		return nil, err
	}
	req = applyDefaults(req)

	taskID := uuid.NewString()
	now := time.Now().UTC()
	task := &models.Task{
		TaskID:      taskID,
		Status:      models.StatusPending,
		Progress:    0,
		CreatedAt:   now,
		UpdatedAt:   now,
		RequestData: req,
	}
	if err := o.store.PutIfAbsent(ctx, task, o.cfg.TaskTTL); err != nil {
		return nil, err
	}
	otel.RecordTaskLifecycle(ctx, "submitted")

	runCtx, cancel := context.WithCancel(context.Background())
	o.mu.Lock()
	o.cancels[taskID] = cancel
	o.mu.Unlock()

	o.wg.Add(1)
	go o.run(runCtx, taskID, cancel)

	return task, nil
}

// run is the pool-scheduled job body: acquire a generation permit, drive the
// MetaGraph, and persist the terminal state. Always clears its cancel func.
func (o *Orchestrator) run(ctx context.Context, taskID string, cancel context.CancelFunc) {
	defer o.wg.Done()
	defer func() {
		o.mu.Lock()
		delete(o.cancels, taskID)
		o.mu.Unlock()
		cancel()
	}()

	select {
	case o.pool <- struct{}{}:
		defer func() { <-o.pool }()
	case <-ctx.Done():
		o.markFailed(context.Background(), taskID, orcherrors.New(orcherrors.KindCancelled, "cancelled before scheduling"))
		return
	}

	release, err := o.governor.AcquireGeneration(ctx)
	if err != nil {
		o.markFailed(context.Background(), taskID, err)
		return
	}
	defer release()

	task, ok, err := o.store.GetTask(ctx, taskID)
	if err != nil || !ok {
		o.logger.Error("run: task vanished before start", "task_id", taskID, "err", err)
		return
	}

	tracker := progress.New(o.store, task, o.cfg.TaskTTL, o.logger, o.publish)
	if err := tracker.InitializeTeams(ctx); err != nil {
		o.logger.Error("initialize teams", "task_id", taskID, "err", err)
		return
	}
	started := models.StatusInProgress
	if err := tracker.UpdateTask(ctx, progress.TaskPatch{Status: &started}); err != nil {
		o.logger.Error("mark in-progress", "task_id", taskID, "err", err)
		return
	}

	sink := &trackerSink{tracker: tracker}
	runtime := agentrt.New(o.llm, o.catalog, o.cfg.MaxToolRounds)

	content := &graph.TeamGraph{
		Team:             models.TeamContent,
		Members:          models.TeamMembers(models.TeamContent),
		SupervisorPrompt: o.roles.ContentSupervisor.Prompt,
		Roles:            o.roles,
		Runtime:          runtime,
		LLM:              o.llm,
		RecursionLimit:   o.cfg.TeamRecursionLimit,
		Sink:             sink,
	}
	verification := &graph.TeamGraph{
		Team:             models.TeamVerification,
		Members:          models.TeamMembers(models.TeamVerification),
		SupervisorPrompt: o.roles.VerificationSupervisor.Prompt,
		Roles:            o.roles,
		Runtime:          runtime,
		LLM:              o.llm,
		RecursionLimit:   o.cfg.TeamRecursionLimit,
		Sink:             sink,
	}
	meta := &graph.MetaGraph{
		SupervisorPrompt: o.roles.MetaSupervisor.Prompt,
		LLM:              o.llm,
		Content:          content,
		Verification:     verification,
		RecursionLimit:   o.cfg.MetaRecursionLimit,
		Sink:             sink,
	}

	contentState := &graph.TeamState{
		Messages: []llmclient.Message{{
			Role:    "human",
			Content: buildContentBrief(task.RequestData),
		}},
		PaperTitle: task.RequestData.PaperTitle,
	}
	verificationState := &graph.TeamState{}

	if err := meta.Run(ctx, contentState, verificationState); err != nil {
		_ = tracker.Flush(context.Background())
		o.markFailed(context.Background(), taskID, err)
		return
	}

	artifact := graph.ExtractArtifact(contentState.DraftPost)
	report := buildVerificationReport(verification, verificationState)

	result := models.StatusCompleted
	if err := tracker.UpdateTask(context.Background(), progress.TaskPatch{
		Status:       &result,
		Result:       artifact,
		Verification: report,
	}); err != nil {
		o.logger.Error("persist completion", "task_id", taskID, "err", err)
		return
	}
	_ = tracker.Flush(context.Background())
	otel.RecordTaskLifecycle(ctx, "completed")
}

func (o *Orchestrator) markFailed(ctx context.Context, taskID string, cause error) {
	task, ok, err := o.store.GetTask(ctx, taskID)
	if err != nil || !ok {
		o.logger.Error("markFailed: task lookup", "task_id", taskID, "err", err)
		return
	}
	tracker := progress.New(o.store, task, o.cfg.TaskTTL, o.logger, o.publish)
	failed := models.StatusFailed
	taskErr := &models.TaskError{Kind: string(orcherrors.KindOf(cause)), Message: cause.Error()}
	_ = tracker.UpdateTask(ctx, progress.TaskPatch{Status: &failed, Error: taskErr})
	_ = tracker.Flush(ctx)
	otel.RecordTaskLifecycle(ctx, "failed")
}

func buildContentBrief(req models.GenerateRequest) string {
	brief := "Paper title: " + req.PaperTitle
	if req.AdditionalContext != "" {
		brief += "\nAdditional context: " + req.AdditionalContext
	}
	brief += fmt.Sprintf("\nTarget audience: %s\nTone: %s\nMax hashtags: %d",
		req.TargetAudience, req.Tone, req.MaxHashtags)
	if req.IncludeTechnicalDetails != nil && !*req.IncludeTechnicalDetails {
		brief += "\nOmit deep technical detail; keep it accessible."
	}
	return brief
}

func buildVerificationReport(team *graph.TeamGraph, state *graph.TeamState) *models.VerificationReport {
	_, techScore := tools.ScoreTechnical(tools.VerifyTechnicalArgs{PostContent: state.PostContent})
	_, styleScore := tools.ScoreStyle(tools.CheckStyleArgs{PostContent: state.PostContent})
	return scoredReport(techScore, styleScore, state.TechnicalReport, state.StyleReport)
}

// SubmitBatch submits every paper in papers as its own job and groups the
// resulting task_ids under one batch_id (§6's POST /batch-generate). A
// validation failure on any paper aborts the whole batch before any task is
// created, so a client never has to reconcile a partially-submitted batch.
func (o *Orchestrator) SubmitBatch(ctx context.Context, papers []models.GenerateRequest) (*models.BatchRequest, error) {
	for _, p := range papers {
		if err := validate(p); err != nil {
			return nil, err
		}
	}
	taskIDs := make([]string, 0, len(papers))
	for _, p := range papers {
		task, err := o.Submit(ctx, p)
		if err != nil {
			return nil, err
		}
		taskIDs = append(taskIDs, task.TaskID)
	}
	batch := &models.BatchRequest{
		BatchID:   uuid.NewString(),
		TaskIDs:   taskIDs,
		CreatedAt: time.Now().UTC(),
	}
	if err := o.store.PutBatch(ctx, batch, o.cfg.TaskTTL); err != nil {
		return nil, err
	}
	return batch, nil
}

// Store exposes the bound TaskStore to the HTTP layer for read-only endpoints
// (/status/{id}, /tasks, /batch/{id}) that don't belong on the write-side
// Orchestrator API.
func (o *Orchestrator) Store() *store.AdaptiveStore { return o.store }

// Cancel requests cooperative cancellation of an in-flight job. Returns false if no
// such job is currently running (either unknown or already terminal).
func (o *Orchestrator) Cancel(taskID string) bool {
	o.mu.Lock()
	cancel, ok := o.cancels[taskID]
	o.mu.Unlock()
	if !ok {
		return false
	}
	cancel()
	return true
}

// Shutdown cancels every in-flight job and waits up to deadline for the pool to
// drain. Jobs still running when the deadline expires are left marked FAILED by
// their own run goroutine once it observes ctx.Err().
func (o *Orchestrator) Shutdown(ctx context.Context) error {
	var shutdownErr error
	o.shutdownOnce.Do(func() {
		close(o.shutdownCh)
		o.mu.Lock()
		cancels := make([]context.CancelFunc, 0, len(o.cancels))
		for _, c := range o.cancels {
			cancels = append(cancels, c)
		}
		o.mu.Unlock()
		for _, c := range cancels {
			c()
		}

		done := make(chan struct{})
		go func() {
			o.wg.Wait()
			close(done)
		}()
		select {
		case <-done:
		case <-ctx.Done():
			shutdownErr = orcherrors.Wrap(orcherrors.KindTimeout, "shutdown deadline exceeded with jobs still draining", ctx.Err())
		}
	})
	return shutdownErr
}

// VerifyPost runs the standalone, synchronous verification path of §6's
// POST /verify-post: it calls the scoring tools directly, bypassing the LLM and
// the Task record entirely (§9 open question, resolved: verify is stateless).
func (o *Orchestrator) VerifyPost(ctx context.Context, req models.VerifyRequest) (*models.VerifyResponse, error) {
	if req.PostContent == "" {
		return nil, orcherrors.New(orcherrors.KindValidation, "post_content is required")
	}
	verificationType := req.VerificationType
	if verificationType == "" {
		verificationType = models.VerifyBoth
	}

	if o.cfg.VerificationTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.cfg.VerificationTimeout)
		defer cancel()
	}

	release, err := o.governor.AcquireVerification(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	var techScore, styleScore float64 = 1.0, 1.0
	var techIssues, styleIssues, techSuggestions, styleSuggestions []string

	if verificationType == models.VerifyTechnical || verificationType == models.VerifyBoth {
		report, score := tools.ScoreTechnical(tools.VerifyTechnicalArgs{
			PostContent:    req.PostContent,
			PaperReference: req.PaperReference,
		})
		techScore = score
		techIssues, techSuggestions = parseReportLines(report)
	}
	if verificationType == models.VerifyStyle || verificationType == models.VerifyBoth {
		report, score := tools.ScoreStyle(tools.CheckStyleArgs{PostContent: req.PostContent})
		styleScore = score
		styleIssues, styleSuggestions = parseReportLines(report)
	}

	full := scoredReportDetailed(techScore, techIssues, techSuggestions, styleScore, styleIssues, styleSuggestions)
	return &models.VerifyResponse{
		VerificationReport: *full,
		VerificationID:     uuid.NewString(),
		VerifiedAt:         time.Now().UTC(),
	}, nil
}

func scoredReport(techScore, styleScore float64, techReport, styleReport string) *models.VerificationReport {
	techIssues, techSuggestions := parseReportLines(techReport)
	styleIssues, styleSuggestions := parseReportLines(styleReport)
	return scoredReportDetailed(techScore, techIssues, techSuggestions, styleScore, styleIssues, styleSuggestions)
}

func scoredReportDetailed(techScore float64, techIssues, techSuggestions []string,
	styleScore float64, styleIssues, styleSuggestions []string) *models.VerificationReport {
	overall := (techScore + styleScore) / 2
	rec := append(append([]string{}, techSuggestions...), styleSuggestions...)
	return &models.VerificationReport{
		Technical:       models.ScoredReport{Score: techScore, Issues: techIssues, Suggestions: techSuggestions},
		Style:           models.ScoredReport{Score: styleScore, Issues: styleIssues, Suggestions: styleSuggestions},
		OverallScore:    overall,
		Recommendations: rec,
		Rating:          ratingFor(overall),
	}
}

// parseReportLines extracts the bulleted ISSUES IDENTIFIED and RECOMMENDATIONS
// blocks out of a tools.ScoreTechnical/ScoreStyle report string, skipping the
// placeholder "no issues" lines those blocks emit when empty.
func parseReportLines(report string) (issues, suggestions []string) {
	var section *[]string
	for _, line := range strings.Split(report, "\n") {
		trimmed := strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(trimmed, "ISSUES IDENTIFIED"):
			section = &issues
			continue
		case strings.HasPrefix(trimmed, "RECOMMENDATIONS"):
			section = &suggestions
			continue
		case strings.HasPrefix(trimmed, "STATUS"):
			section = nil
			continue
		}
		if section == nil || trimmed == "" {
			continue
		}
		item := strings.TrimPrefix(trimmed, "- ")
		if item == "No major issues detected" || item == "Post appears technically sound" ||
			item == "No major style issues" || item == "Post follows LinkedIn best practices" {
			continue
		}
		*section = append(*section, item)
	}
	return issues, suggestions
}

func ratingFor(score float64) string {
	switch {
	case score >= 0.9:
		return models.RatingExcellent
	case score >= 0.75:
		return models.RatingGood
	case score >= 0.5:
		return models.RatingNeedsImprovement
	default:
		return models.RatingPoor
	}
}
