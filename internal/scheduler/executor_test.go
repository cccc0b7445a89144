package scheduler

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sdslab-dev/bear/internal/agent/claudecode"
	"github.com/sdslab-dev/bear/internal/journal"
)

func TestOnStreamEventBuffersToolResultsUntilAssistantText(t *testing.T) {
	var lines []string
	e := &Executor{OnStreamLine: func(s string) { lines = append(lines, s) }}

	e.onStreamEvent(claudecode.StreamEvent{Type: claudecode.EventUser, Subtype: claudecode.BlockToolResult, Content: "raw tool output"})
	require.Empty(t, lines)

	e.onStreamEvent(claudecode.StreamEvent{Type: claudecode.EventAssistant, Subtype: claudecode.BlockText, Content: "working on it"})
	require.Equal(t, []string{"[Tool Result]\nraw tool output", "working on it"}, lines)
}

func TestOnStreamEventDropsPendingToolResultsAtResult(t *testing.T) {
	var lines []string
	e := &Executor{OnStreamLine: func(s string) { lines = append(lines, s) }}

	e.onStreamEvent(claudecode.StreamEvent{Type: claudecode.EventUser, Subtype: claudecode.BlockToolResult, Content: "would duplicate the report"})
	e.onStreamEvent(claudecode.StreamEvent{Type: claudecode.EventResult})
	e.onStreamEvent(claudecode.StreamEvent{Type: claudecode.EventAssistant, Subtype: claudecode.BlockText, Content: "later text"})

	require.Equal(t, []string{"later text"}, lines)
}

func TestBlockedOutcomePersistsReportToJournal(t *testing.T) {
	tmp := t.TempDir()
	store, err := journal.Open(tmp, "20260101", "s")
	require.NoError(t, err)

	e := &Executor{Journal: store}
	record, err := e.blocked(Task{ID: "TASK-03"}, "충돌 해결 실패: schema drift")
	require.NoError(t, err)
	require.Equal(t, OutcomeBlocked, record.Outcome)
	require.Equal(t, store.TaskReportPath("TASK-03"), record.ReportPath)

	report, err := store.ReadTaskReport("TASK-03")
	require.NoError(t, err)
	require.Contains(t, report, "BLOCKED")
	require.Contains(t, report, "충돌 해결 실패")
}
