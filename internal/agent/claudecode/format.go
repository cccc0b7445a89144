package claudecode

import (
	"strconv"
	"strings"
)

// MaxStreamDisplayLines bounds how many lines of a formatted stream message
// are shown in the scrollback before being collapsed into a trailer.
const MaxStreamDisplayLines = 3

// FormatStreamMessage renders a single event for the scrollback. System
// events and empty text produce no output, matching the terse display the
// pipeline otherwise would flood with.
func FormatStreamMessage(evt StreamEvent) string {
	switch evt.Type {
	case EventAssistant:
		return formatAssistantMessage(evt)
	case EventUser:
		return formatUserMessage(evt)
	default:
		return ""
	}
}

func formatAssistantMessage(evt StreamEvent) string {
	switch evt.Subtype {
	case BlockText:
		text := strings.TrimSpace(evt.Content)
		if text == "" {
			return ""
		}
		return truncateToMaxLines(text)
	case BlockToolUse:
		return truncateToMaxLines("[Tool Call: " + evt.ToolName + "]\n" + string(evt.ToolInput))
	default:
		return ""
	}
}

func formatUserMessage(evt StreamEvent) string {
	switch evt.Subtype {
	case BlockToolResult:
		content := strings.TrimSpace(evt.Content)
		if content == "" {
			return ""
		}
		return truncateToMaxLines("[Tool Result]\n" + content)
	case BlockText:
		text := strings.TrimSpace(evt.Content)
		if text == "" {
			return ""
		}
		return truncateToMaxLines(text)
	default:
		return ""
	}
}

// truncateToMaxLines keeps the first MaxStreamDisplayLines lines of s and
// appends a count of how many were omitted.
func truncateToMaxLines(s string) string {
	lines := strings.Split(s, "\n")
	if len(lines) <= MaxStreamDisplayLines {
		return s
	}
	omitted := len(lines) - MaxStreamDisplayLines
	kept := strings.Join(lines[:MaxStreamDisplayLines], "\n")
	return kept + "\n... (+" + strconv.Itoa(omitted) + " lines)"
}
