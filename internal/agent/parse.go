package agent

import (
	"bytes"
	"encoding/json"
)

// cliMessage is the minimal shape shared by every message the CLI can emit
// in --output-format json / stream-json.
type cliMessage struct {
	Type             string          `json:"type"`
	IsError          bool            `json:"is_error,omitempty"`
	Result           string          `json:"result,omitempty"`
	StructuredOutput json.RawMessage `json:"structured_output,omitempty"`
	SessionID        string          `json:"session_id,omitempty"`
}

// parsedOutput is the result of reconciling a CLI invocation's terminal
// result message with the caller's expected structured type.
type parsedOutput struct {
	raw       json.RawMessage
	sessionID string
}

// parseCLIOutput accepts either a bare JSON object (one-shot
// --output-format json) or a JSON array of messages (as produced when the
// caller has accumulated every line of a --output-format stream-json run),
// and extracts the last message of type "result".
//
// Precedence once the result message is found: if it carries
// structured_output, that is used verbatim. Otherwise its result string is
// parsed as JSON, since the CLI always serializes the final answer as JSON
// text when no schema constrains it, matching the original client's
// fallback behavior.
func parseCLIOutput(data []byte) (*parsedOutput, error) {
	messages, err := splitMessages(data)
	if err != nil {
		return nil, errJSONParsing("failed to parse cli output", err)
	}

	for i := len(messages) - 1; i >= 0; i-- {
		msg := messages[i]
		if msg.Type != "result" {
			continue
		}
		if msg.IsError {
			return nil, errCliReturnedError(msg.Result)
		}
		if len(msg.StructuredOutput) > 0 && !bytes.Equal(bytes.TrimSpace(msg.StructuredOutput), []byte("null")) {
			return &parsedOutput{raw: msg.StructuredOutput, sessionID: msg.SessionID}, nil
		}
		if msg.Result == "" {
			return nil, errMissingStructuredOutput()
		}
		var probe json.RawMessage
		if err := json.Unmarshal([]byte(msg.Result), &probe); err != nil {
			return nil, errMissingStructuredOutput()
		}
		return &parsedOutput{raw: probe, sessionID: msg.SessionID}, nil
	}

	return nil, errNoResultMessage()
}

func splitMessages(data []byte) ([]cliMessage, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, nil
	}

	if trimmed[0] == '[' {
		var arr []cliMessage
		if err := json.Unmarshal(trimmed, &arr); err != nil {
			return nil, err
		}
		return arr, nil
	}

	if trimmed[0] == '{' {
		var one cliMessage
		if err := json.Unmarshal(trimmed, &one); err != nil {
			return nil, err
		}
		return []cliMessage{one}, nil
	}

	// NDJSON: one message per line.
	var out []cliMessage
	var firstErr error
	for _, line := range bytes.Split(trimmed, []byte("\n")) {
		line = bytes.TrimSpace(line)
		if len(line) == 0 {
			continue
		}
		var msg cliMessage
		if err := json.Unmarshal(line, &msg); err != nil {
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		out = append(out, msg)
	}
	if len(out) == 0 && firstErr != nil {
		return nil, firstErr
	}
	return out, nil
}

func decodeInto[T any](out *parsedOutput) (T, error) {
	var result T
	if err := json.Unmarshal(out.raw, &result); err != nil {
		return result, errJSONParsing("failed to decode structured output", err)
	}
	return result, nil
}
