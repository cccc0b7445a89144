// Package journal manages a session's on-disk artifacts under
// <workspace>/.bear/<YYYYMMDD>/<slug>/.
package journal

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/renameio/v2"
)

// Store is the artifact writer/reader for a single session directory.
type Store struct {
	workspace string
	dir       string
	relDir    string
}

// Open returns a Store rooted at <workspace>/.bear/<dateDir>/<slug>,
// creating the directory if it does not already exist.
func Open(workspace, dateDir, slug string) (*Store, error) {
	dir := filepath.Join(workspace, ".bear", dateDir, slug)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create session directory: %w", err)
	}
	return &Store{workspace: workspace, dir: dir, relDir: filepath.Join(".bear", dateDir, slug)}, nil
}

// Dir returns the session's journal directory.
func (s *Store) Dir() string { return s.dir }

// Relocate moves the session directory from its current (placeholder)
// location to <workspace>/.bear/<dateDir>/<slug>, used once the session
// slug has been derived from the user's request. It is a no-op if the
// store is already at the target location.
func (s *Store) Relocate(workspace, dateDir, slug string) error {
	target := filepath.Join(workspace, ".bear", dateDir, slug)
	if target == s.dir {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return fmt.Errorf("create session parent directory: %w", err)
	}
	if err := os.Rename(s.dir, target); err != nil {
		return fmt.Errorf("relocate session directory: %w", err)
	}
	s.workspace = workspace
	s.dir = target
	s.relDir = filepath.Join(".bear", dateDir, slug)
	return nil
}

// Adopt rebinds the store to an existing directory, used when the user
// imports a spec/plan file: the session's journal becomes the imported
// file's parent directory rather than a freshly created one. dir must lie
// inside the workspace: a task's report is committed at this directory's
// workspace-relative path from inside the task worktree, which is a
// checkout of the same repository. The previous (placeholder) directory is
// removed if empty.
func (s *Store) Adopt(workspace, dir string) error {
	rel, err := filepath.Rel(workspace, dir)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return fmt.Errorf("session directory %s is outside workspace %s", dir, workspace)
	}
	if _, err := os.Stat(dir); err != nil {
		return fmt.Errorf("adopt session directory: %w", err)
	}
	old := s.dir
	s.workspace = workspace
	s.dir = dir
	s.relDir = rel
	if old != dir {
		_ = os.Remove(old)
	}
	return nil
}

// WriteUserRequest records the original, unedited user requirement text.
func (s *Store) WriteUserRequest(content string) error {
	return s.writeAtomic("user-request.md", content)
}

// WriteSpec records the current approved or in-progress spec draft.
func (s *Store) WriteSpec(content string) error {
	return s.writeAtomic("spec.md", content)
}

// WritePlan records the current approved or in-progress plan draft.
func (s *Store) WritePlan(content string) error {
	return s.writeAtomic("plan.md", content)
}

// WriteTaskReport records a task's completion report, named <TASK-NN>.md.
func (s *Store) WriteTaskReport(taskID, content string) error {
	return s.writeAtomic(taskID+".md", content)
}

// TaskReportPath returns the path a task's report would be written to,
// without requiring the report to already exist (used to build prompts
// referencing upstream reports by path rather than by inlined content).
func (s *Store) TaskReportPath(taskID string) string {
	return filepath.Join(s.dir, taskID+".md")
}

// RelDir returns the session directory's path relative to the workspace
// root, e.g. ".bear/20260731/my-slug". A task worktree is a separate git
// checkout of the same repository, so this relative path is where the
// task's report must be written and committed inside the worktree for it
// to land at the identical absolute path in the workspace once the task
// branch fast-forwards onto the integration branch.
func (s *Store) RelDir() string {
	return s.relDir
}

// RelTaskReportPath returns a task's report path relative to the
// workspace root (see RelDir).
func (s *Store) RelTaskReportPath(taskID string) string {
	return filepath.Join(s.RelDir(), taskID+".md")
}

// SpecPath returns the path to the session's spec.md.
func (s *Store) SpecPath() string { return filepath.Join(s.dir, "spec.md") }

// PlanPath returns the path to the session's plan.md.
func (s *Store) PlanPath() string { return filepath.Join(s.dir, "plan.md") }

func (s *Store) writeAtomic(name, content string) error {
	path := filepath.Join(s.dir, name)
	if err := renameio.WriteFile(path, []byte(content), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}
	return nil
}

// ReadTaskReport returns a previously written task report's content.
func (s *Store) ReadTaskReport(taskID string) (string, error) {
	data, err := os.ReadFile(s.TaskReportPath(taskID))
	if err != nil {
		return "", fmt.Errorf("read task report %s: %w", taskID, err)
	}
	return string(data), nil
}
