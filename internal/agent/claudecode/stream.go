// Package claudecode parses and formats the Claude Code CLI's stream-json
// output for live display while a coding task runs.
package claudecode

import (
	"bytes"
	"encoding/json"
	"strings"
)

// StreamEventType enumerates the top-level event types in stream-json
// output.
type StreamEventType string

const (
	EventSystem    StreamEventType = "system"
	EventAssistant StreamEventType = "assistant"
	EventUser      StreamEventType = "user"
	EventResult    StreamEventType = "result"
)

// ContentBlockType enumerates content block types within a message.
type ContentBlockType string

const (
	BlockText       ContentBlockType = "text"
	BlockThinking   ContentBlockType = "thinking"
	BlockToolUse    ContentBlockType = "tool_use"
	BlockToolResult ContentBlockType = "tool_result"
)

// TokenUsage holds the token counts reported by the terminal result event.
type TokenUsage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
}

// StreamEvent is one displayable event extracted from the stream: a text or
// thinking block, a tool call, or a tool result.
type StreamEvent struct {
	Type      StreamEventType  `json:"type"`
	Subtype   ContentBlockType `json:"subtype,omitempty"`
	Content   string           `json:"content,omitempty"`
	ToolName  string           `json:"tool_name,omitempty"`
	ToolInput json.RawMessage  `json:"tool_input,omitempty"`
}

// ParseResult holds the parsed events plus the result event's aggregate
// metadata.
type ParseResult struct {
	Events      []StreamEvent
	TotalTokens *TokenUsage
	StopReason  string
}

// MaxThinkingBytes bounds how much of a single thinking block is retained;
// thinking can run to hundreds of kilobytes on a hard task.
const MaxThinkingBytes = 50000

type rawContentBlock struct {
	Type     string          `json:"type"`
	Text     string          `json:"text,omitempty"`
	Thinking string          `json:"thinking,omitempty"`
	Name     string          `json:"name,omitempty"`
	Input    json.RawMessage `json:"input,omitempty"`
	Content  interface{}     `json:"content,omitempty"`
}

// rawEvent is one NDJSON line. Usage and stop_reason appear at the top
// level in the current CLI's result lines; older output nests them inside
// the result body, so both shapes are accepted.
type rawEvent struct {
	Type       string          `json:"type"`
	Subtype    string          `json:"subtype,omitempty"`
	Message    json.RawMessage `json:"message,omitempty"`
	Result     json.RawMessage `json:"result,omitempty"`
	Usage      *TokenUsage     `json:"usage,omitempty"`
	StopReason string          `json:"stop_reason,omitempty"`
}

type rawMessage struct {
	Content []rawContentBlock `json:"content"`
}

type rawResult struct {
	Content    []rawContentBlock `json:"content"`
	Usage      *TokenUsage       `json:"usage,omitempty"`
	StopReason string            `json:"stop_reason,omitempty"`
}

// ParseStreamJSON parses NDJSON stream-json output. Malformed lines are
// skipped: the stream is a live display feed, not the result channel, so a
// bad line must never abort the call that produced it.
func ParseStreamJSON(data []byte) *ParseResult {
	pr := &ParseResult{}
	for _, line := range bytes.Split(data, []byte("\n")) {
		line = bytes.TrimSpace(line)
		if len(line) == 0 {
			continue
		}
		var evt rawEvent
		if err := json.Unmarshal(line, &evt); err != nil {
			continue
		}
		pr.addEvent(evt)
	}
	return pr
}

func (pr *ParseResult) addEvent(evt rawEvent) {
	switch StreamEventType(evt.Type) {
	case EventAssistant, EventUser:
		var msg rawMessage
		if err := json.Unmarshal(evt.Message, &msg); err != nil {
			return
		}
		pr.appendBlocks(StreamEventType(evt.Type), msg.Content)

	case EventResult:
		var res rawResult
		if len(evt.Result) > 0 && json.Unmarshal(evt.Result, &res) == nil {
			pr.appendBlocks(EventResult, res.Content)
			if res.Usage != nil {
				pr.TotalTokens = res.Usage
			}
			if res.StopReason != "" {
				pr.StopReason = res.StopReason
			}
		}
		if evt.Usage != nil {
			pr.TotalTokens = evt.Usage
		}
		if evt.StopReason != "" {
			pr.StopReason = evt.StopReason
		}

	case EventSystem:
		pr.Events = append(pr.Events, StreamEvent{Type: EventSystem, Subtype: ContentBlockType(evt.Subtype)})
	}
}

func (pr *ParseResult) appendBlocks(evtType StreamEventType, blocks []rawContentBlock) {
	for _, block := range blocks {
		switch ContentBlockType(block.Type) {
		case BlockText:
			pr.Events = append(pr.Events, StreamEvent{Type: evtType, Subtype: BlockText, Content: block.Text})

		case BlockThinking:
			content := block.Thinking
			if len(content) > MaxThinkingBytes {
				content = content[:MaxThinkingBytes]
			}
			pr.Events = append(pr.Events, StreamEvent{Type: evtType, Subtype: BlockThinking, Content: content})

		case BlockToolUse:
			pr.Events = append(pr.Events, StreamEvent{Type: evtType, Subtype: BlockToolUse, ToolName: block.Name, ToolInput: block.Input})

		case BlockToolResult:
			pr.Events = append(pr.Events, StreamEvent{Type: evtType, Subtype: BlockToolResult, Content: flattenBlockContent(block.Content)})
		}
	}
}

// ExtractAssistantText joins the assistant's visible text blocks, skipping
// thinking, tool calls, and tool results. The agent client records this in
// the call's debug log as a readable transcript of what the agent said.
func (pr *ParseResult) ExtractAssistantText() string {
	var parts []string
	for _, evt := range pr.Events {
		if evt.Type == EventAssistant && evt.Subtype == BlockText && evt.Content != "" {
			parts = append(parts, evt.Content)
		}
	}
	return strings.Join(parts, "\n")
}

// flattenBlockContent renders a tool_result content field, which the CLI
// emits as either a plain string or an array of text blocks.
func flattenBlockContent(content interface{}) string {
	switch v := content.(type) {
	case nil:
		return ""
	case string:
		return v
	case []interface{}:
		var parts []string
		for _, item := range v {
			if m, ok := item.(map[string]interface{}); ok {
				if text, ok := m["text"].(string); ok && text != "" {
					parts = append(parts, text)
				}
			}
		}
		if len(parts) > 0 {
			return strings.Join(parts, "\n")
		}
		data, err := json.Marshal(v)
		if err != nil {
			return ""
		}
		return string(data)
	default:
		data, err := json.Marshal(v)
		if err != nil {
			return ""
		}
		return string(data)
	}
}
