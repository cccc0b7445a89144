package agent

import (
	"encoding/json"

	"github.com/sdslab-dev/bear/internal/agent/claudecode"
)

// rawStreamEvent is re-exported to callers as StreamEvent so they never need
// to import the claudecode package directly for display purposes.
type rawStreamEvent = claudecode.StreamEvent

// classifyLine parses one NDJSON line emitted by --output-format
// stream-json, returning its classified event (if any) and whether the
// line was the terminal result message.
func classifyLine(line []byte) (*rawStreamEvent, bool) {
	var probe struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(line, &probe); err != nil {
		return nil, false
	}

	parsed := claudecode.ParseStreamJSON(line)
	var evt *rawStreamEvent
	if len(parsed.Events) > 0 {
		e := parsed.Events[len(parsed.Events)-1]
		evt = &e
	}
	return evt, probe.Type == "result"
}
