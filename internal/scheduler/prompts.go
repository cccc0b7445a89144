package scheduler

import (
	"fmt"
	"strings"
)

const extractionSystemPrompt = `You decompose an approved implementation plan into a task DAG.

Rules:
- Produce at most 100 tasks, identified TASK-00 through TASK-99 in topological order
  (a task's dependencies must already appear earlier in the list).
- If the plan has no natural decomposition, produce a single task TASK-00 covering
  the entire plan.
- Output MUST be Korean for task titles and descriptions.
- Output MUST be valid JSON conforming to the provided JSON Schema, and nothing else.`

func ExtractionSystemPrompt() string { return extractionSystemPrompt }

// BuildExtractionPrompt references the plan by path rather than inlining
// its content, keeping the prompt bounded regardless of plan length.
func BuildExtractionPrompt(planPath string) string {
	return fmt.Sprintf("Read the approved plan at %s and decompose it into tasks.", planPath)
}

const codingAgentSystemPrompt = `You are the implementer for one task in a larger plan. Work only within
the current worktree. Make the smallest correct change that satisfies the task's
description. When you are done, report IMPLEMENTATION_SUCCESS with a summary of what
changed, or IMPLEMENTATION_BLOCKED with an explanation of what is preventing progress.
Do not attempt work outside this task's scope; upstream tasks are already merged onto
your branch's base.`

func CodingAgentSystemPrompt() string { return codingAgentSystemPrompt }

// BuildCodingTaskPrompt references spec/plan/upstream reports by path,
// substituting "N/A" when a task has no dependencies.
func BuildCodingTaskPrompt(task Task, specPath, planPath string, upstreamReportPaths []string) string {
	upstream := "  - N/A"
	if len(upstreamReportPaths) > 0 {
		var lines []string
		for _, p := range upstreamReportPaths {
			lines = append(lines, "  - "+p)
		}
		upstream = strings.Join(lines, "\n")
	}

	return fmt.Sprintf(`Task %s: %s

%s

Reference material:
  - spec: %s
  - plan: %s
Upstream task reports:
%s`, task.ID, task.Title, task.Description, specPath, planPath, upstream)
}

const reviewerSystemPrompt = `You review the diff introduced by a task's implementation against its
description and the project's spec/plan. Respond APPROVED if the change correctly and
completely satisfies the task, or REQUEST_CHANGES with concrete, actionable feedback in
review_comment otherwise. Do not request changes for style preferences not already
established in the codebase.`

func ReviewerSystemPrompt() string { return reviewerSystemPrompt }

func BuildReviewPrompt(task Task, iteration, maxIterations int) string {
	return fmt.Sprintf("Review the current worktree's uncommitted and committed changes against task %s (%s). This is review iteration %d of %d.", task.ID, task.Title, iteration, maxIterations)
}

func BuildConflictResolutionPrompt(taskID, integrationBranch string, conflictedFiles []string) string {
	return fmt.Sprintf("Rebasing task %s onto %s produced conflicts in:\n  - %s\n\nResolve them in place (edit, `git add`), preserving both branches' intent where possible. Report CONFLICT_RESOLVED once every conflicted file is staged, or CONFLICT_RESOLUTION_FAILED with an explanation.",
		taskID, integrationBranch, strings.Join(conflictedFiles, "\n  - "))
}

func BuildRepairPrompt(task Task, buildOutput string) string {
	return fmt.Sprintf("Task %s's build/test run failed with the following output. Fix it, then report BUILD_TEST_FIXED, or BUILD_TEST_FIX_FAILED if the failure is beyond repair from this worktree.\n\n%s", task.ID, buildOutput)
}
