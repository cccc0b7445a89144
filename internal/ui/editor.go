package ui

import (
	"os"
	"os/exec"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
)

// EditorOpenedMsg carries the edited content back once the external editor
// exits.
type EditorOpenedMsg struct {
	Content string
	Err     error
}

// OpenInEditor hands the terminal to an external editor (Ctrl+G), the
// bubbletea-idiomatic equivalent of "defer to after the current render, run
// a foreground child, resume": tea.ExecProcess suspends the renderer,
// inherits stdio for the child, and restores the renderer on return.
func OpenInEditor(editorCommand, initialContent string) tea.Cmd {
	tmp, err := os.CreateTemp("", "bear-edit-*.md")
	if err != nil {
		return func() tea.Msg { return EditorOpenedMsg{Err: err} }
	}
	path := tmp.Name()
	if _, err := tmp.WriteString(initialContent); err != nil {
		tmp.Close()
		return func() tea.Msg { return EditorOpenedMsg{Err: err} }
	}
	tmp.Close()

	fields := strings.Fields(editorCommand)
	if len(fields) == 0 {
		fields = strings.Fields(os.Getenv("EDITOR"))
	}
	if len(fields) == 0 {
		fields = []string{"code", "--wait"}
	}
	args := append(fields[1:], path)
	cmd := exec.Command(fields[0], args...)

	return tea.ExecProcess(cmd, func(err error) tea.Msg {
		if err != nil {
			return EditorOpenedMsg{Err: err}
		}
		data, readErr := os.ReadFile(path)
		_ = os.Remove(path)
		return EditorOpenedMsg{Content: string(data), Err: readErr}
	})
}
