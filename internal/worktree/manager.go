// Package worktree manages the git worktrees and branches that isolate
// each task's coding agent session from the integration branch and from
// every other concurrently-scheduled task.
package worktree

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// Manager runs git against a single repository root (the user's workspace).
type Manager struct {
	workspace string
}

// New returns a Manager rooted at workspace, which must already be a git
// repository (or a worktree of one).
func New(workspace string) *Manager {
	return &Manager{workspace: workspace}
}

// IntegrationBranchName derives the long-lived branch a session's tasks
// rebase and merge onto: bear/integration/<slug>-<uuid>.
func IntegrationBranchName(slug string) string {
	return fmt.Sprintf("bear/integration/%s-%s", slug, uuid.NewString())
}

// TaskBranchName derives a task's short-lived branch name:
// bear/task/<task_id>-<uuid>.
func TaskBranchName(taskID string) string {
	return fmt.Sprintf("bear/task/%s-%s", taskID, uuid.NewString())
}

// WorktreePath derives the filesystem path for a new worktree, placed
// alongside the workspace directory rather than inside it.
func (m *Manager) WorktreePath() string {
	parent := filepath.Dir(m.workspace)
	base := filepath.Base(m.workspace)
	return filepath.Join(parent, fmt.Sprintf("%s-bear-worktree-%s", base, uuid.NewString()))
}

// CreateIntegrationBranch creates and checks out the session's long-lived
// integration branch from the workspace's current HEAD.
func (m *Manager) CreateIntegrationBranch(ctx context.Context, name string) error {
	_, err := m.git(ctx, m.workspace, "checkout", "-b", name)
	return err
}

// CreateWorktree adds a new worktree at path checked out onto branch.
func (m *Manager) CreateWorktree(ctx context.Context, path, branch string) error {
	_, err := m.git(ctx, m.workspace, "worktree", "add", path, branch)
	return err
}

// RemoveWorktree force-removes a worktree, discarding any uncommitted
// changes left in it.
func (m *Manager) RemoveWorktree(ctx context.Context, path string) error {
	_, err := m.git(ctx, m.workspace, "worktree", "remove", "--force", path)
	return err
}

// CreateTaskBranch branches a task branch off of the integration branch.
func (m *Manager) CreateTaskBranch(ctx context.Context, name, integrationBranch string) error {
	_, err := m.git(ctx, m.workspace, "branch", name, integrationBranch)
	return err
}

// Rebase rebases the worktree's current branch onto integrationBranch. On
// conflict, returns a *ConflictError listing the conflicted files; the
// caller decides whether to resolve and continue or to AbortRebase.
func (m *Manager) Rebase(ctx context.Context, worktreePath, integrationBranch string) error {
	_, err := m.git(ctx, worktreePath, "rebase", integrationBranch)
	if err == nil {
		return nil
	}

	var gitErr *Error
	if ae, ok := err.(*Error); ok {
		gitErr = ae
	}
	if gitErr == nil {
		return err
	}
	if strings.Contains(gitErr.Stderr, "CONFLICT") || strings.Contains(gitErr.Stderr, "could not apply") {
		files, listErr := m.ConflictedFiles(ctx, worktreePath)
		if listErr != nil {
			return err
		}
		return &ConflictError{ConflictedFiles: files}
	}
	return err
}

// ConflictedFiles lists paths with unresolved merge conflicts.
func (m *Manager) ConflictedFiles(ctx context.Context, worktreePath string) ([]string, error) {
	out, err := m.git(ctx, worktreePath, "diff", "--name-only", "--diff-filter=U")
	if err != nil {
		return nil, err
	}
	var files []string
	for _, line := range strings.Split(strings.TrimSpace(out), "\n") {
		if line != "" {
			files = append(files, line)
		}
	}
	return files, nil
}

// AbortRebase restores the worktree to its pre-rebase state.
func (m *Manager) AbortRebase(ctx context.Context, worktreePath string) error {
	_, err := m.git(ctx, worktreePath, "rebase", "--abort")
	return err
}

// ContinueRebase resumes a rebase after conflicts in the working tree have
// been staged (git add) by the conflict-resolution agent.
func (m *Manager) ContinueRebase(ctx context.Context, worktreePath string) error {
	_, err := m.git(ctx, worktreePath, "-c", "core.editor=true", "rebase", "--continue")
	return err
}

// CommitReport commits the task's report file on the task branch before
// merging, so the integration history carries a record of what the task
// did independent of its implementation commits.
func (m *Manager) CommitReport(ctx context.Context, worktreePath, reportPath, message string) error {
	if _, err := m.git(ctx, worktreePath, "add", reportPath); err != nil {
		return err
	}
	_, err := m.git(ctx, worktreePath, "commit", "-m", message)
	return err
}

// MergeFastForward checks out the integration branch in the workspace and
// fast-forwards it onto taskBranch. A rebased task branch always
// fast-forwards cleanly onto the integration branch it was rebased
// against, so a non-ff failure here means the rebase step was skipped.
func (m *Manager) MergeFastForward(ctx context.Context, integrationBranch, taskBranch string) error {
	if _, err := m.git(ctx, m.workspace, "checkout", integrationBranch); err != nil {
		return err
	}
	_, err := m.git(ctx, m.workspace, "merge", "--ff-only", taskBranch)
	return err
}

// HeadRevision resolves the latest commit hash of the checkout at dir
// (the main workspace or any worktree).
func (m *Manager) HeadRevision(ctx context.Context, dir string) (string, error) {
	out, err := m.git(ctx, dir, "rev-parse", "HEAD")
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}

// DeleteBranch force-deletes a branch once it has been merged or
// abandoned.
func (m *Manager) DeleteBranch(ctx context.Context, name string) error {
	_, err := m.git(ctx, m.workspace, "branch", "-D", name)
	return err
}

func (m *Manager) git(ctx context.Context, dir string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = dir
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return stdout.String(), &Error{Op: strings.Join(args, " "), Stderr: strings.TrimSpace(stderr.String()), cause: err}
	}
	return stdout.String(), nil
}
