package worktree

import "context"

// MergeSquash is an alternate integration strategy that squash-merges a
// task branch into the integration branch as a single commit. The
// scheduler does not call this by default: the pipeline rebases task
// branches and fast-forwards (see MergeFastForward), so a rebase failure
// surfaces before merge time. MergeSquash is kept for callers that want a
// flatter integration-branch history instead.
func (m *Manager) MergeSquash(ctx context.Context, worktreePath, integrationBranch, taskBranch, commitMessage string) error {
	if _, err := m.git(ctx, m.workspace, "checkout", integrationBranch); err != nil {
		return err
	}
	if _, err := m.git(ctx, m.workspace, "merge", "--squash", taskBranch); err != nil {
		return err
	}
	_, err := m.git(ctx, m.workspace, "commit", "-m", commitMessage)
	return err
}
