package ui

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNormalizePasteConvertsCRLF(t *testing.T) {
	require.Equal(t, "line one\nline two", normalizePaste("line one\r\nline two", false))
}

func TestNormalizePasteConvertsBareCR(t *testing.T) {
	require.Equal(t, "a\nb", normalizePaste("a\rb", false))
}

func TestNormalizePasteCollapsesNewlinesInSingleLineModes(t *testing.T) {
	require.Equal(t, "make build", normalizePaste("make\r\nbuild\n", true))
}

func TestNormalizePastePreservesMultilineProse(t *testing.T) {
	text := "first paragraph\n\nsecond paragraph"
	require.Equal(t, text, normalizePaste(text, false))
}

func TestSingleLineInputByMode(t *testing.T) {
	for _, mode := range []inputMode{modeWorkspaceConfirm, modeMenu, modeFileInput, modeBuildTestInput} {
		m := Model{mode: mode}
		require.True(t, m.singleLineInput(), "mode %d", mode)
	}
	for _, mode := range []inputMode{modeRequirements, modeAnswer, modeDraftFeedback, modeDone} {
		m := Model{mode: mode}
		require.False(t, m.singleLineInput(), "mode %d", mode)
	}
}
