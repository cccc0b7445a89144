package agent

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/sdslab-dev/bear/internal/agent/claudecode"
)

// writeDebugLog best-effort records the full prompt/response exchange for a
// session to /tmp/bear-<session>.log. Debug log write failure is ignored:
// it must never surface as a query failure.
func writeDebugLog(sessionID, systemPrompt, userPrompt, cliOutput string) {
	if sessionID == "" {
		sessionID = "unknown"
	}
	path := filepath.Join(os.TempDir(), fmt.Sprintf("bear-%s.log", sessionID))

	var b []byte
	b = append(b, "<SYSTEM_PROMPT>\n"...)
	b = append(b, systemPrompt...)
	b = append(b, "\n</SYSTEM_PROMPT>\n\n"...)
	b = append(b, "<USER_PROMPT>\n"...)
	b = append(b, userPrompt...)
	b = append(b, "\n</USER_PROMPT>\n\n"...)
	b = append(b, "<CLAUDE_CODE_CLI_OUTPUT>\n"...)
	b = append(b, cliOutput...)
	b = append(b, "\n</CLAUDE_CODE_CLI_OUTPUT>\n"...)

	_ = os.WriteFile(path, b, 0o644)
}

// streamDebugSummary renders a trailer for a streaming call's debug log:
// the assistant's visible text as a readable transcript, and the call's
// token usage. Empty when the stream carried neither.
func streamDebugSummary(parsed *claudecode.ParseResult) string {
	var b strings.Builder
	if text := parsed.ExtractAssistantText(); text != "" {
		b.WriteString("\n<ASSISTANT_TEXT>\n")
		b.WriteString(text)
		b.WriteString("\n</ASSISTANT_TEXT>\n")
	}
	if parsed.TotalTokens != nil {
		fmt.Fprintf(&b, "\n<TOKEN_USAGE input=%d output=%d stop_reason=%q />\n",
			parsed.TotalTokens.InputTokens, parsed.TotalTokens.OutputTokens, parsed.StopReason)
	}
	return b.String()
}
