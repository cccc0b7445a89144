package worktree

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func initGitRepo(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	run(t, dir, "init")
	run(t, dir, "config", "user.email", "bear@example.com")
	run(t, dir, "config", "user.name", "bear")
	makeCommit(t, dir, "README.md", "hello", "init")
	return dir
}

func makeCommit(t *testing.T, dir, file, content, message string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, file), []byte(content), 0o644))
	run(t, dir, "add", file)
	run(t, dir, "commit", "-m", message)
}

func run(t *testing.T, dir string, args ...string) {
	t.Helper()
	cmd := exec.Command("git", args...)
	cmd.Dir = dir
	out, err := cmd.CombinedOutput()
	require.NoErrorf(t, err, "git %v: %s", args, out)
}

func TestCreateTaskBranchFromIntegration(t *testing.T) {
	repo := initGitRepo(t)
	mgr := New(repo)
	ctx := context.Background()

	integration := IntegrationBranchName("my-session")
	require.NoError(t, mgr.CreateIntegrationBranch(ctx, integration))

	taskBranch := TaskBranchName("TASK-00")
	require.NoError(t, mgr.CreateTaskBranch(ctx, taskBranch, integration))

	out, err := mgr.git(ctx, repo, "branch", "--list", taskBranch)
	require.NoError(t, err)
	require.Contains(t, out, taskBranch)
}

func TestRebaseOntoIntegrationSuccess(t *testing.T) {
	repo := initGitRepo(t)
	mgr := New(repo)
	ctx := context.Background()

	integration := IntegrationBranchName("s")
	require.NoError(t, mgr.CreateIntegrationBranch(ctx, integration))
	taskBranch := TaskBranchName("TASK-00")
	require.NoError(t, mgr.CreateTaskBranch(ctx, taskBranch, integration))

	// Advance integration with an unrelated file.
	run(t, repo, "checkout", integration)
	makeCommit(t, repo, "other.txt", "x", "integration advances")

	worktreePath := filepath.Join(t.TempDir(), "wt")
	require.NoError(t, mgr.CreateWorktree(ctx, worktreePath, taskBranch))
	makeCommit(t, worktreePath, "task.txt", "y", "task work")

	require.NoError(t, mgr.Rebase(ctx, worktreePath, integration))
}

func TestRebaseOntoIntegrationConflict(t *testing.T) {
	repo := initGitRepo(t)
	mgr := New(repo)
	ctx := context.Background()

	integration := IntegrationBranchName("s")
	require.NoError(t, mgr.CreateIntegrationBranch(ctx, integration))
	taskBranch := TaskBranchName("TASK-00")
	require.NoError(t, mgr.CreateTaskBranch(ctx, taskBranch, integration))

	run(t, repo, "checkout", integration)
	makeCommit(t, repo, "shared.txt", "from integration", "integration change")

	worktreePath := filepath.Join(t.TempDir(), "wt")
	require.NoError(t, mgr.CreateWorktree(ctx, worktreePath, taskBranch))
	makeCommit(t, worktreePath, "shared.txt", "from task", "conflicting task change")

	err := mgr.Rebase(ctx, worktreePath, integration)
	require.Error(t, err)
	var conflictErr *ConflictError
	require.ErrorAs(t, err, &conflictErr)
	require.Contains(t, conflictErr.ConflictedFiles, "shared.txt")

	require.NoError(t, mgr.AbortRebase(ctx, worktreePath))
}

func TestCommitReportUsesWorktreeRelativePath(t *testing.T) {
	repo := initGitRepo(t)
	mgr := New(repo)
	ctx := context.Background()

	integration := IntegrationBranchName("s")
	require.NoError(t, mgr.CreateIntegrationBranch(ctx, integration))
	taskBranch := TaskBranchName("TASK-00")
	require.NoError(t, mgr.CreateTaskBranch(ctx, taskBranch, integration))

	worktreePath := filepath.Join(t.TempDir(), "wt")
	require.NoError(t, mgr.CreateWorktree(ctx, worktreePath, taskBranch))

	relReportPath := filepath.Join(".bear", "20260101", "s", "TASK-00.md")
	require.NoError(t, os.MkdirAll(filepath.Join(worktreePath, filepath.Dir(relReportPath)), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(worktreePath, relReportPath), []byte("done"), 0o644))

	require.NoError(t, mgr.CommitReport(ctx, worktreePath, relReportPath, "bear: TASK-00 report"))

	out, err := mgr.git(ctx, worktreePath, "log", "-1", "--name-only", "--pretty=format:")
	require.NoError(t, err)
	require.Contains(t, out, filepath.ToSlash(relReportPath))

	require.NoError(t, mgr.MergeFastForward(ctx, integration, taskBranch))
	require.FileExists(t, filepath.Join(repo, relReportPath))
}

func TestHeadRevisionTracksMerge(t *testing.T) {
	repo := initGitRepo(t)
	mgr := New(repo)
	ctx := context.Background()

	integration := IntegrationBranchName("s")
	require.NoError(t, mgr.CreateIntegrationBranch(ctx, integration))
	before, err := mgr.HeadRevision(ctx, repo)
	require.NoError(t, err)
	require.Len(t, before, 40)

	taskBranch := TaskBranchName("TASK-00")
	require.NoError(t, mgr.CreateTaskBranch(ctx, taskBranch, integration))
	worktreePath := filepath.Join(t.TempDir(), "wt")
	require.NoError(t, mgr.CreateWorktree(ctx, worktreePath, taskBranch))
	makeCommit(t, worktreePath, "task.txt", "y", "task work")

	require.NoError(t, mgr.MergeFastForward(ctx, integration, taskBranch))
	after, err := mgr.HeadRevision(ctx, repo)
	require.NoError(t, err)
	require.NotEqual(t, before, after)
}

func TestMergeFastForwardAfterRebase(t *testing.T) {
	repo := initGitRepo(t)
	mgr := New(repo)
	ctx := context.Background()

	integration := IntegrationBranchName("s")
	require.NoError(t, mgr.CreateIntegrationBranch(ctx, integration))
	taskBranch := TaskBranchName("TASK-00")
	require.NoError(t, mgr.CreateTaskBranch(ctx, taskBranch, integration))

	worktreePath := filepath.Join(t.TempDir(), "wt")
	require.NoError(t, mgr.CreateWorktree(ctx, worktreePath, taskBranch))
	makeCommit(t, worktreePath, "task.txt", "y", "task work")

	require.NoError(t, mgr.Rebase(ctx, worktreePath, integration))
	require.NoError(t, mgr.MergeFastForward(ctx, integration, taskBranch))
	require.NoError(t, mgr.RemoveWorktree(ctx, worktreePath))
	require.NoError(t, mgr.DeleteBranch(ctx, taskBranch))
}
