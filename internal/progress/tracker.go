// Package progress implements ProgressTracker, the sole writer to a Task during its
// run. It is the only place invariants I1-I5 and I7 are enforced, and the sole
// producer of the snapshots fanned out to SSE subscribers.
package progress

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/ovokpus/PostAssist/internal/orcherrors"
	"github.com/ovokpus/PostAssist/internal/store"
	"github.com/ovokpus/PostAssist/pkg/models"
)

// flushDebounce bounds how long a non-terminal write may sit unflushed (§4.2).
const flushDebounce = 200 * time.Millisecond

var statusRank = map[string]int{
	models.StatusPending:    0,
	models.StatusInProgress: 1,
	models.StatusCompleted:  2,
	models.StatusFailed:     2,
}

var agentStatusRank = map[string]int{
	models.AgentStatusIdle:      0,
	models.AgentStatusWorking:   1,
	models.AgentStatusCompleted: 2,
	models.AgentStatusError:     2,
}

// TaskPatch is a partial update to a Task's top-level fields; nil fields are unchanged.
type TaskPatch struct {
	Status       *string
	Progress     *float64
	CurrentStep  *string
	Phase        *string
	Result       *models.LinkedInPostArtifact
	Verification *models.VerificationReport
	Error        *models.TaskError
}

// AgentPatch is a partial update to one AgentState.
type AgentPatch struct {
	AgentName string
	Status    string
	Activity  string
	Progress  *float64
	Findings  string
	Error     string
}

// Tracker mediates every write to one Task for the duration of its run.
type Tracker struct {
	taskID  string
	ttl     time.Duration
	st      *store.AdaptiveStore
	logger  *slog.Logger
	publish func(*models.Task) // best-effort SSE fan-out; may be nil

	mu   sync.Mutex
	task *models.Task

	flushMu     sync.Mutex
	flushTimer  *time.Timer
	dirty       bool
}

// New binds a Tracker to an already-persisted Task. Call store.GetTask first.
func New(st *store.AdaptiveStore, task *models.Task, ttl time.Duration, logger *slog.Logger, publish func(*models.Task)) *Tracker {
	if logger == nil {
		logger = slog.Default()
	}
	return &Tracker{taskID: task.TaskID, ttl: ttl, st: st, logger: logger, publish: publish, task: task}
}

// Snapshot returns a deep-enough copy of the current Task for read-only use.
func (t *Tracker) Snapshot() *models.Task {
	t.mu.Lock()
	defer t.mu.Unlock()
	return cloneTask(t.task)
}

func cloneTask(task *models.Task) *models.Task {
	cp := *task
	cp.Teams = make(map[string]*models.TeamState, len(task.Teams))
	for name, team := range task.Teams {
		tc := *team
		tc.Agents = make(map[string]*models.AgentState, len(team.Agents))
		for an, a := range team.Agents {
			ac := *a
			tc.Agents[an] = &ac
		}
		cp.Teams[name] = &tc
	}
	return &cp
}

// InitializeTeams writes all four agents to their teams in IDLE, team status PENDING.
func (t *Tracker) InitializeTeams(ctx context.Context) error {
	t.mu.Lock()
	t.task.Teams = map[string]*models.TeamState{}
	for _, team := range []string{models.TeamContent, models.TeamVerification} {
		agents := map[string]*models.AgentState{}
		for _, name := range models.TeamMembers(team) {
			agents[name] = &models.AgentState{
				AgentName:  name,
				Status:     models.AgentStatusIdle,
				LastUpdate: time.Now().UTC(),
			}
		}
		t.task.Teams[team] = &models.TeamState{
			TeamName: team,
			Status:   models.TeamStatusPending,
			Agents:   agents,
		}
	}
	t.mu.Unlock()
	return t.flush(ctx, true)
}

// UpdateTask applies a partial update to the top-level Task fields, enforcing I4
// (monotone status) by refusing to move status backward.
func (t *Tracker) UpdateTask(ctx context.Context, patch TaskPatch) error {
	transition := false
	t.mu.Lock()
	if patch.Status != nil {
		if statusRank[*patch.Status] < statusRank[t.task.Status] {
			t.mu.Unlock()
			return orcherrors.New(orcherrors.KindInternal, "refusing backward status transition")
		}
		if *patch.Status != t.task.Status {
			transition = true
		}
		t.task.Status = *patch.Status
	}
	if patch.Progress != nil {
		t.task.Progress = *patch.Progress
	}
	if patch.CurrentStep != nil {
		t.task.CurrentStep = *patch.CurrentStep
	}
	if patch.Phase != nil {
		t.task.Phase = *patch.Phase
	}
	if patch.Result != nil {
		t.task.Result = patch.Result
	}
	if patch.Verification != nil {
		t.task.Verification = patch.Verification
	}
	if patch.Error != nil {
		t.task.Error = patch.Error
		transition = true
	}
	t.task.UpdatedAt = time.Now().UTC()
	t.mu.Unlock()
	return t.flush(ctx, transition)
}

// UpdateAgent updates one AgentState then recomputes team and task progress per I1,
// enforcing I5 (monotone agent status) and the team/task completion rules of §4.2.
func (t *Tracker) UpdateAgent(ctx context.Context, p AgentPatch) error {
	team := models.TeamOf(p.AgentName)
	if team == "" {
		return orcherrors.New(orcherrors.KindInternal, "unknown agent name "+p.AgentName)
	}

	t.mu.Lock()
	ts, ok := t.task.Teams[team]
	if !ok {
		t.mu.Unlock()
		return orcherrors.New(orcherrors.KindInternal, "team not initialized: "+team)
	}
	a, ok := ts.Agents[p.AgentName]
	if !ok {
		t.mu.Unlock()
		return orcherrors.New(orcherrors.KindInternal, "agent not initialized: "+p.AgentName)
	}

	if p.Status != "" {
		if agentStatusRank[p.Status] < agentStatusRank[a.Status] {
			t.mu.Unlock()
			return orcherrors.New(orcherrors.KindInternal, "refusing backward agent status transition")
		}
		a.Status = p.Status
	}
	if p.Activity != "" {
		a.CurrentActivity = p.Activity
	}
	if p.Progress != nil {
		a.Progress = *p.Progress
	}
	if p.Findings != "" {
		a.Findings = p.Findings
	}
	if p.Error != "" {
		a.ErrorMessage = p.Error
	}
	a.LastUpdate = time.Now().UTC()

	t.recomputeLocked(ts)
	fatal := p.Status == models.AgentStatusError
	t.mu.Unlock()

	if fatal {
		return t.flush(ctx, true)
	}
	return t.flush(ctx, false)
}

// recomputeLocked applies I1: team progress = mean(agents), task progress = mean(teams).
// Caller must hold t.mu.
func (t *Tracker) recomputeLocked(ts *models.TeamState) {
	var sum float64
	allComplete := len(ts.Agents) > 0
	anyFatalError := false
	for _, a := range ts.Agents {
		sum += a.Progress
		if a.Status != models.AgentStatusCompleted {
			allComplete = false
		}
		if a.Status == models.AgentStatusError {
			anyFatalError = true
		}
	}
	if len(ts.Agents) > 0 {
		ts.Progress = sum / float64(len(ts.Agents))
	} else {
		ts.Progress = 0
	}

	switch {
	case anyFatalError:
		ts.Status = models.TeamStatusFailed
	case allComplete:
		if ts.Status != models.TeamStatusCompleted {
			now := time.Now().UTC()
			ts.CompletedAt = &now
		}
		ts.Status = models.TeamStatusCompleted
	case ts.Progress > 0:
		ts.Status = models.TeamStatusInProgress
		if ts.StartedAt == nil {
			now := time.Now().UTC()
			ts.StartedAt = &now
		}
	}

	var teamSum float64
	for _, team := range t.task.Teams {
		teamSum += team.Progress
	}
	if len(t.task.Teams) > 0 {
		t.task.Progress = teamSum / float64(len(t.task.Teams))
	}
}

// flush writes the current snapshot through TaskStore and, on success, fans it out
// to the SSE publisher. Non-transition writes are debounced at flushDebounce;
// transitions flush immediately.
func (t *Tracker) flush(ctx context.Context, immediate bool) error {
	if immediate {
		return t.writeNow(ctx)
	}

	t.flushMu.Lock()
	t.dirty = true
	if t.flushTimer == nil {
		t.flushTimer = time.AfterFunc(flushDebounce, func() {
			t.flushMu.Lock()
			wasDirty := t.dirty
			t.dirty = false
			t.flushTimer = nil
			t.flushMu.Unlock()
			if wasDirty {
				_ = t.writeNow(context.Background())
			}
		})
	}
	t.flushMu.Unlock()
	return nil
}

func (t *Tracker) writeNow(ctx context.Context) error {
	snap := t.Snapshot()
	if err := t.st.PutTask(ctx, snap, t.ttl); err != nil {
		return err
	}
	if t.publish != nil {
		t.publish(snap)
	}
	return nil
}

// Flush forces any debounced write to commit immediately; call when the bound job
// terminates so the final state is never left unpersisted.
func (t *Tracker) Flush(ctx context.Context) error {
	t.flushMu.Lock()
	if t.flushTimer != nil {
		t.flushTimer.Stop()
		t.flushTimer = nil
	}
	t.dirty = false
	t.flushMu.Unlock()
	return t.writeNow(ctx)
}
