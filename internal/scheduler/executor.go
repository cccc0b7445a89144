package scheduler

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/sdslab-dev/bear/internal/agent"
	"github.com/sdslab-dev/bear/internal/agent/claudecode"
	"github.com/sdslab-dev/bear/internal/buildtest"
	"github.com/sdslab-dev/bear/internal/journal"
	"github.com/sdslab-dev/bear/internal/observability"
	"github.com/sdslab-dev/bear/internal/worktree"
)

// ClientFactory creates a fresh agent client rooted at workingDir. The
// executor uses one client per role (coder, reviewer, conflict-resolver)
// per task, so that each role is a distinct conversation even though they
// share the task's worktree as a filesystem cwd.
type ClientFactory func(workingDir string) (*agent.Client, error)

// Outcome is the terminal state of one task's sub-state-machine run.
type Outcome string

const (
	OutcomeMerged  Outcome = "merged"
	OutcomeBlocked Outcome = "blocked"
)

// TaskRecord is what the executor returns (and the scheduler journals) once
// a task reaches a terminal outcome.
type TaskRecord struct {
	Task       Task
	Outcome    Outcome
	Report     string
	ReportPath string
}

// Executor drives every task in a session's DAG through its sub-state
// machine against one integration branch.
type Executor struct {
	Workspace          string
	IntegrationBranch  string
	Worktree           *worktree.Manager
	Journal            *journal.Store
	NewClient          ClientFactory
	SpecPath, PlanPath string
	BuildTestCmds      buildtest.Commands

	// MaxReviewIterations bounds the review loop; zero falls back to the
	// package default (scheduler.MaxReviewIterations).
	MaxReviewIterations int

	// BuildTestTimeouts bounds each build/test invocation; a zero value
	// falls back to buildtest's package defaults.
	BuildTestTimeouts buildtest.Timeouts

	// OnStreamLine, if set, receives each formatted line of the coding
	// agent's live tool-use stream as it arrives (the Stream Formatter's
	// output), for the UI to append to the scrollback in real time.
	OnStreamLine func(string)

	// Logger receives memory-pressure warnings sampled during build/test
	// runs. A nil Logger disables resource monitoring entirely.
	Logger *observability.Logger

	// FatalError is set by RunTask when a non-recoverable infrastructure
	// failure (not a task-level block) occurs, so the caller can halt the
	// whole session rather than proceed to the next task.
	FatalError error

	// pendingStream buffers formatted tool-result lines until the next
	// assistant event flushes them; the terminal result event drops them
	// instead, since their content duplicates the final report.
	pendingStream []string
}

// RunTask executes one task's full sub-state machine: branch, worktree,
// coding agent, bounded review loop, rebase (with one conflict-resolution
// retry), build/test (with one repair retry), then merge and cleanup.
func (e *Executor) RunTask(ctx context.Context, task Task, upstreamReportPaths []string) (TaskRecord, error) {
	// Branch/worktree setup and teardown failures block only this task;
	// scheduling continues with the next one. Only agent transport and
	// protocol failures below are fatal to the whole session.
	taskBranch := worktree.TaskBranchName(task.ID)
	if err := e.Worktree.CreateTaskBranch(ctx, taskBranch, e.IntegrationBranch); err != nil {
		return e.blocked(task, fmt.Sprintf("create task branch: %v", err))
	}
	// The task branch must be gone by the time any outcome is recorded,
	// regardless of which path below returns. This defer is registered
	// before the worktree's so it runs after it: git refuses to delete a
	// branch that is still checked out in a worktree.
	defer func() { _ = e.Worktree.DeleteBranch(ctx, taskBranch) }()

	worktreePath := e.Worktree.WorktreePath()
	if err := e.Worktree.CreateWorktree(ctx, worktreePath, taskBranch); err != nil {
		return e.blocked(task, fmt.Sprintf("create worktree: %v", err))
	}
	defer func() { _ = e.Worktree.RemoveWorktree(ctx, worktreePath) }()

	coder, err := e.NewClient(worktreePath)
	if err != nil {
		return e.fail(task, fmt.Errorf("create coding agent session: %w", err))
	}
	coder.SetSystemPrompt(CodingAgentSystemPrompt())
	e.pendingStream = nil

	result, err := agent.QueryStreaming[Result](ctx, coder, agent.Request{
		Prompt:       BuildCodingTaskPrompt(task, e.SpecPath, e.PlanPath, upstreamReportPaths),
		OutputSchema: []byte(ResultSchema),
	}, e.onStreamEvent)
	if err != nil {
		return e.fail(task, fmt.Errorf("coding agent query: %w", err))
	}
	if result.Status == StatusImplementationBlocked {
		return e.blocked(task, result.Report)
	}

	if _, err := e.runReviewLoop(ctx, task, worktreePath, coder); err != nil {
		return e.fail(task, err)
	}

	if err := e.rebaseWithRepair(ctx, task, worktreePath, taskBranch); err != nil {
		return e.blocked(task, err.Error())
	}

	if err := e.buildTestWithRepair(ctx, task, worktreePath, coder); err != nil {
		return e.blocked(task, err.Error())
	}

	// The report must be written and committed inside the task's own
	// worktree (a separate git checkout from the workspace) so that it
	// fast-forwards onto the integration branch along with the task's
	// implementation commits; writing it directly into the workspace's
	// journal directory would leave it untracked and outside the worktree
	// that CommitReport operates on.
	reportRelPath := e.Journal.RelTaskReportPath(task.ID)
	worktreeReportPath := filepath.Join(worktreePath, reportRelPath)
	if err := os.MkdirAll(filepath.Dir(worktreeReportPath), 0o755); err != nil {
		return e.blocked(task, fmt.Sprintf("create report directory in worktree: %v", err))
	}
	if err := os.WriteFile(worktreeReportPath, []byte(result.Report), 0o644); err != nil {
		return e.blocked(task, fmt.Sprintf("write task report: %v", err))
	}
	if err := e.Worktree.CommitReport(ctx, worktreePath, reportRelPath, "bear: "+task.ID+" report"); err != nil {
		return e.blocked(task, fmt.Sprintf("commit task report: %v", err))
	}
	reportPath := e.Journal.TaskReportPath(task.ID)

	if err := e.Worktree.MergeFastForward(ctx, e.IntegrationBranch, taskBranch); err != nil {
		return e.blocked(task, fmt.Sprintf("merge task branch: %v", err))
	}
	if e.Logger != nil {
		if rev, revErr := e.Worktree.HeadRevision(ctx, e.Workspace); revErr == nil {
			e.Logger.Info("%s merged, integration at %s", task.ID, rev)
		}
	}

	return TaskRecord{Task: task, Outcome: OutcomeMerged, Report: result.Report, ReportPath: reportPath}, nil
}

// onStreamEvent adapts a raw agent.StreamEvent into the Stream Formatter's
// output and forwards it to OnStreamLine. Tool-result lines are held in
// pendingStream until an assistant event flushes them; the result event
// clears them unsent, since they duplicate the final report.
func (e *Executor) onStreamEvent(evt agent.StreamEvent) {
	if e.OnStreamLine == nil {
		return
	}
	switch evt.Type {
	case claudecode.EventAssistant:
		for _, pending := range e.pendingStream {
			e.OnStreamLine(pending)
		}
		e.pendingStream = e.pendingStream[:0]
		if line := claudecode.FormatStreamMessage(evt); line != "" {
			e.OnStreamLine(line)
		}
	case claudecode.EventUser:
		if line := claudecode.FormatStreamMessage(evt); line != "" {
			e.pendingStream = append(e.pendingStream, line)
		}
	case claudecode.EventResult:
		e.pendingStream = e.pendingStream[:0]
	}
}

func (e *Executor) runReviewLoop(ctx context.Context, task Task, worktreePath string, coder *agent.Client) (string, error) {
	reviewer, err := e.NewClient(worktreePath)
	if err != nil {
		return "", fmt.Errorf("create reviewer session: %w", err)
	}
	reviewer.SetSystemPrompt(ReviewerSystemPrompt())

	maxIterations := e.MaxReviewIterations
	if maxIterations <= 0 {
		maxIterations = MaxReviewIterations
	}

	var lastFeedback string
	for iteration := 1; iteration <= maxIterations; iteration++ {
		verdict, err := agent.Query[ReviewResult](ctx, reviewer, agent.Request{
			Prompt:       BuildReviewPrompt(task, iteration, maxIterations),
			OutputSchema: []byte(ReviewSchema),
		})
		if err != nil {
			return "", fmt.Errorf("review query: %w", err)
		}
		if verdict.ReviewResult == ReviewApproved {
			return verdict.ReviewComment, nil
		}
		lastFeedback = verdict.ReviewComment

		if iteration == maxIterations {
			// Auto-approve on exhaustion: forward progress takes priority
			// over an unbounded review loop.
			return lastFeedback, nil
		}

		if _, err := agent.Query[Result](ctx, coder, agent.Request{
			Prompt:       "Reviewer requested changes:\n" + verdict.ReviewComment,
			OutputSchema: []byte(ResultSchema),
		}); err != nil {
			return "", fmt.Errorf("coder revision query: %w", err)
		}
	}
	return lastFeedback, nil
}

func (e *Executor) rebaseWithRepair(ctx context.Context, task Task, worktreePath, taskBranch string) error {
	err := e.Worktree.Rebase(ctx, worktreePath, e.IntegrationBranch)
	if err == nil {
		return nil
	}

	conflictErr, ok := err.(*worktree.ConflictError)
	if !ok {
		return fmt.Errorf("rebase: %w", err)
	}

	resolver, clientErr := e.NewClient(worktreePath)
	if clientErr != nil {
		return fmt.Errorf("create conflict-resolution session: %w", clientErr)
	}

	var resolution ConflictResolutionResult
	queryErr := agent.RetryOnce(ctx, func() error {
		var err error
		resolution, err = agent.Query[ConflictResolutionResult](ctx, resolver, agent.Request{
			Prompt:       BuildConflictResolutionPrompt(task.ID, e.IntegrationBranch, conflictErr.ConflictedFiles),
			OutputSchema: []byte(ConflictResolutionSchema),
		})
		return err
	})
	if queryErr != nil || resolution.Status == ConflictResolutionFailed {
		_ = e.Worktree.AbortRebase(ctx, worktreePath)
		if queryErr != nil {
			return fmt.Errorf("conflict resolution query: %w", queryErr)
		}
		return fmt.Errorf("충돌 해결 실패: %s", resolution.Report)
	}

	if err := e.Worktree.ContinueRebase(ctx, worktreePath); err != nil {
		_ = e.Worktree.AbortRebase(ctx, worktreePath)
		return fmt.Errorf("continue rebase after conflict resolution: %w", err)
	}
	return nil
}

func (e *Executor) buildTestWithRepair(ctx context.Context, task Task, worktreePath string, coder *agent.Client) error {
	if len(e.BuildTestCmds.BuildCmd) == 0 {
		return nil
	}

	outcome, err := buildtest.Verify(ctx, worktreePath, e.BuildTestCmds, e.BuildTestTimeouts, e.onMemorySample(task))
	if err != nil {
		return fmt.Errorf("build/test: %w", err)
	}
	if !outcome.Failed() {
		return nil
	}

	var repair RepairResult
	repairErr := agent.RetryOnce(ctx, func() error {
		var err error
		repair, err = agent.Query[RepairResult](ctx, coder, agent.Request{
			Prompt:       BuildRepairPrompt(task, outcome.Output),
			OutputSchema: []byte(RepairSchema),
		})
		return err
	})
	if repairErr != nil {
		return fmt.Errorf("repair query: %w", repairErr)
	}
	if repair.Status == RepairFixFailed {
		return fmt.Errorf("빌드/테스트 복구 실패: %s", repair.Report)
	}

	outcome, err = buildtest.Verify(ctx, worktreePath, e.BuildTestCmds, e.BuildTestTimeouts, e.onMemorySample(task))
	if err != nil {
		return fmt.Errorf("build/test after repair: %w", err)
	}
	if outcome.Failed() {
		return fmt.Errorf("빌드/테스트 실패 (%s):\n%s", outcome.Status, outcome.Output)
	}
	return nil
}

// onMemorySample returns nil (disabling monitoring) when no Logger is
// configured, otherwise a callback that logs warning/critical memory
// pressure observed during task's build/test run. Never affects the
// build/test result itself.
func (e *Executor) onMemorySample(task Task) func(buildtest.Severity, float64) {
	if e.Logger == nil {
		return nil
	}
	return func(sev buildtest.Severity, percent float64) {
		switch sev {
		case buildtest.SeverityCritical:
			e.Logger.Warning("%s: memory at %.1f%% during build/test", task.ID, percent)
		case buildtest.SeverityWarning:
			e.Logger.Info("%s: memory at %.1f%% during build/test", task.ID, percent)
		}
	}
}

// blocked records a task-level terminal failure. The report is persisted
// into the workspace's journal directly (a blocked task's branch never
// merges, so there is no worktree commit to carry it); the write is
// best-effort per the outcome-record-over-pipeline-progress policy.
func (e *Executor) blocked(task Task, reason string) (TaskRecord, error) {
	return TaskRecord{Task: task, Outcome: OutcomeBlocked, Report: reason, ReportPath: e.persistBlockedReport(task, reason)}, nil
}

func (e *Executor) fail(task Task, err error) (TaskRecord, error) {
	e.FatalError = err
	reason := err.Error()
	return TaskRecord{Task: task, Outcome: OutcomeBlocked, Report: reason, ReportPath: e.persistBlockedReport(task, reason)}, err
}

func (e *Executor) persistBlockedReport(task Task, reason string) string {
	report := fmt.Sprintf("# %s: BLOCKED\n\n%s\n", task.ID, reason)
	if err := e.Journal.WriteTaskReport(task.ID, report); err != nil {
		if e.Logger != nil {
			e.Logger.Warning("%s: persist blocked report: %v", task.ID, err)
		}
		return ""
	}
	return e.Journal.TaskReportPath(task.ID)
}
