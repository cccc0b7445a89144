package ui

import "github.com/charmbracelet/glamour"

// RenderMarkdown renders a spec/plan draft for display in the scrollback,
// falling back to the raw source if glamour cannot render it (e.g. no TTY
// color profile available).
func RenderMarkdown(source string, wrapWidth int) string {
	renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(wrapWidth),
	)
	if err != nil {
		return source
	}
	out, err := renderer.Render(source)
	if err != nil {
		return source
	}
	return out
}
