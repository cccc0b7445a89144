// Package scheduler extracts the task DAG from an approved plan and drives
// each task through its coding-agent, review, rebase, build/test, and
// merge sub-state-machine inside an isolated git worktree.
package scheduler

import (
	"context"
	"fmt"
	"regexp"

	"github.com/sdslab-dev/bear/internal/agent"
)

// Task is one node of the extracted task DAG. Dependencies name other
// tasks' IDs that must be merged onto the integration branch before this
// task's upstream reports are assembled.
type Task struct {
	ID           string   `json:"task_id"`
	Title        string   `json:"title"`
	Description  string   `json:"description"`
	Dependencies []string `json:"dependencies"`
}

// ExtractionResponse is the agent's structured response to the
// task-extraction prompt.
type ExtractionResponse struct {
	Tasks []Task `json:"tasks"`
}

// MaxTasks bounds task extraction at TASK-00..TASK-99.
const MaxTasks = 100

// FallbackTask is substituted when the plan has no natural decomposition:
// the entire plan becomes a single task.
func FallbackTask() Task {
	return Task{ID: "TASK-00", Title: "Implement plan", Description: "Implement the full approved plan as a single unit of work."}
}

// TaskID formats the zero-padded two-digit task identifier.
func TaskID(n int) string {
	return fmt.Sprintf("TASK-%02d", n)
}

// ExtractTasks queries client to decompose the plan at planPath into a
// topologically-ordered task DAG. The caller trusts the returned order and
// does not re-topologize it. An empty decomposition falls back to a single
// TASK-00 covering the whole plan.
func ExtractTasks(ctx context.Context, client *agent.Client, planPath string) ([]Task, error) {
	client.ResetSession()
	client.SetSystemPrompt(ExtractionSystemPrompt())
	resp, err := agent.Query[ExtractionResponse](ctx, client, agent.Request{
		Prompt:       BuildExtractionPrompt(planPath),
		OutputSchema: []byte(ExtractionSchema),
	})
	if err != nil {
		return nil, fmt.Errorf("task extraction query: %w", err)
	}
	if len(resp.Tasks) == 0 {
		return []Task{FallbackTask()}, nil
	}
	if err := ValidateTasks(resp.Tasks); err != nil {
		return nil, fmt.Errorf("task extraction returned an invalid DAG: %w", err)
	}
	return resp.Tasks, nil
}

var taskIDPattern = regexp.MustCompile(`^TASK-\d{2}$`)

// ValidateTasks defensively checks the extractor's contract before the
// executor trusts it: every id is well-formed and unique, every dependency
// names a task in the set, and every prerequisite appears before its
// dependents. The executor does not re-topologize; a violation here is a
// protocol failure, not something to silently repair.
func ValidateTasks(tasks []Task) error {
	seen := make(map[string]bool, len(tasks))
	for _, task := range tasks {
		if !taskIDPattern.MatchString(task.ID) {
			return fmt.Errorf("malformed task id %q", task.ID)
		}
		if seen[task.ID] {
			return fmt.Errorf("duplicate task id %s", task.ID)
		}
		for _, dep := range task.Dependencies {
			if !seen[dep] {
				return fmt.Errorf("task %s depends on %s, which does not precede it", task.ID, dep)
			}
		}
		seen[task.ID] = true
	}
	return nil
}

// Status is the coding agent's self-reported outcome for a task attempt.
type Status string

const (
	StatusImplementationSuccess Status = "IMPLEMENTATION_SUCCESS"
	StatusImplementationBlocked Status = "IMPLEMENTATION_BLOCKED"
)

// Result is the coding agent's structured response after attempting a task.
type Result struct {
	Status Status `json:"status"`
	Report string `json:"report"`
}

// ReviewDecision is the reviewer agent's structured verdict.
type ReviewDecision string

const (
	ReviewApproved       ReviewDecision = "APPROVED"
	ReviewRequestChanges ReviewDecision = "REQUEST_CHANGES"
)

// ReviewResult is the reviewer agent's structured response.
type ReviewResult struct {
	ReviewResult  ReviewDecision `json:"review_result"`
	ReviewComment string         `json:"review_comment"`
}

// MaxReviewIterations is the default bound on the review loop, used when
// Executor.MaxReviewIterations is unset; on exhaustion the task is
// auto-approved so the pipeline always makes forward progress.
const MaxReviewIterations = 3

// ConflictResolutionStatus is the agent's self-reported outcome after being
// asked to resolve a rebase conflict.
type ConflictResolutionStatus string

const (
	ConflictResolved         ConflictResolutionStatus = "CONFLICT_RESOLVED"
	ConflictResolutionFailed ConflictResolutionStatus = "CONFLICT_RESOLUTION_FAILED"
)

// ConflictResolutionResult is the agent's structured response to a
// conflict-resolution prompt.
type ConflictResolutionResult struct {
	Status ConflictResolutionStatus `json:"status"`
	Report string                   `json:"report"`
}

// RepairStatus is the agent's self-reported outcome after being asked to
// fix a failing build or test run.
type RepairStatus string

const (
	RepairFixed     RepairStatus = "BUILD_TEST_FIXED"
	RepairFixFailed RepairStatus = "BUILD_TEST_FIX_FAILED"
)

// RepairResult is the agent's structured response to a build/test repair
// prompt.
type RepairResult struct {
	Status RepairStatus `json:"status"`
	Report string       `json:"report"`
}
