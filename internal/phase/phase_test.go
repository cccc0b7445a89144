package phase

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sdslab-dev/bear/internal/journal"
)

func TestSchemasAreValidJSON(t *testing.T) {
	for _, schema := range []string{ClarifySchema, SpecDraftSchema, PlanDraftSchema, FileValidationSchema} {
		var decoded map[string]any
		require.NoError(t, json.Unmarshal([]byte(schema), &decoded))
		require.Equal(t, "object", decoded["type"])
		require.Equal(t, false, decoded["additionalProperties"])
	}
}

func TestDecodeSpecDraftResponse(t *testing.T) {
	var resp SpecDraftResponse
	require.NoError(t, json.Unmarshal([]byte(`{"response_type":"spec_draft","spec_draft":"# Spec\n\nSome content"}`), &resp))
	require.Equal(t, ResponseSpecDraft, resp.ResponseType)
	require.Equal(t, "# Spec\n\nSome content", resp.SpecDraft)
	require.Empty(t, resp.ClarifyingQuestions)
}

func TestDecodeClarifyingQuestionsResponse(t *testing.T) {
	var resp SpecDraftResponse
	require.NoError(t, json.Unmarshal([]byte(`{"response_type":"clarifying_questions","clarifying_questions":["Which storage engine?"]}`), &resp))
	require.Equal(t, ResponseClarifyingQuestions, resp.ResponseType)
	require.Len(t, resp.ClarifyingQuestions, 1)
}

func TestDecodeApprovedResponseLeavesDraftEmpty(t *testing.T) {
	var resp PlanDraftResponse
	require.NoError(t, json.Unmarshal([]byte(`{"response_type":"approved"}`), &resp))
	require.Equal(t, ResponseApproved, resp.ResponseType)
	require.Empty(t, resp.PlanDraft)
}

func TestSelectModeChoosesEntryPhase(t *testing.T) {
	cases := []struct {
		mode Mode
		want Phase
	}{
		{ModeFromRequirements, PhaseRequirements},
		{ModeFromSpec, PhaseSpecFileInput},
		{ModeFromPlan, PhaseSpecFileInput},
	}
	for _, tc := range cases {
		c := &Controller{Current: PhaseModeSelection}
		c.SelectMode(tc.mode)
		require.Equal(t, tc.want, c.Current)
		require.Equal(t, tc.mode, c.Mode)
	}
}

func TestChangeWorkspaceRejectsRelativePath(t *testing.T) {
	c := &Controller{Current: PhaseWorkspaceConfirm}
	require.Error(t, c.ChangeWorkspace("some/relative/dir"))
	require.Equal(t, PhaseWorkspaceConfirm, c.Current)
}

func TestChangeWorkspaceRejectsMissingDirectory(t *testing.T) {
	c := &Controller{Current: PhaseWorkspaceConfirm}
	require.Error(t, c.ChangeWorkspace(filepath.Join(t.TempDir(), "does-not-exist")))
	require.Equal(t, PhaseWorkspaceConfirm, c.Current)
}

func TestChangeWorkspaceRejectsFilePath(t *testing.T) {
	file := filepath.Join(t.TempDir(), "a-file")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0o644))

	c := &Controller{Current: PhaseWorkspaceConfirm}
	require.Error(t, c.ChangeWorkspace(file))
	require.Equal(t, PhaseWorkspaceConfirm, c.Current)
}

func TestChangeWorkspaceRebindsJournalAndAdvances(t *testing.T) {
	oldWs, newWs := t.TempDir(), t.TempDir()
	store, err := journal.Open(oldWs, "20260101", "pending")
	require.NoError(t, err)
	oldDir := store.Dir()

	c := &Controller{Current: PhaseWorkspaceConfirm, journal: store, workspace: oldWs}
	require.NoError(t, c.ChangeWorkspace(newWs))

	require.Equal(t, PhaseModeSelection, c.Current)
	require.Equal(t, newWs, c.Workspace())
	require.True(t, strings.HasPrefix(c.Journal().Dir(), newWs))
	require.NoDirExists(t, oldDir)
}

func TestApproveShortcutsAdvancePhase(t *testing.T) {
	c := &Controller{Current: PhaseSpecWriting}
	c.ApproveSpecDraft()
	require.Equal(t, PhasePlanning, c.Current)

	c.ApprovePlanDraft()
	require.Equal(t, PhaseCoding, c.Current)
}

func TestBuildClarifyPromptAccumulatesAnswers(t *testing.T) {
	prompt := BuildClarifyPrompt("build a widget", []string{"blue ones", "two of them"})
	require.Contains(t, prompt, "build a widget")
	require.Contains(t, prompt, "blue ones")
	require.Contains(t, prompt, "two of them")
}
