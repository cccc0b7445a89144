// Package agent invokes the Claude Code CLI as a subprocess and reconciles
// its output into typed, structured responses. It owns session continuity,
// system-prompt re-injection, and the one-shot/streaming invocation
// contract; it does not implement the agent itself.
package agent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"

	"github.com/google/uuid"

	"github.com/sdslab-dev/bear/internal/agent/claudecode"
)

// toolsList is the exact tool whitelist passed to --tools. Keeping this a
// single constant (rather than building it per-call) matches the original
// client's invariant command surface.
const toolsList = "Bash,Edit,Glob,Grep,MultiEdit,NotebookEdit,Read,TodoWrite,WebFetch,WebSearch,Write"

// binaryName is the executable looked up on PATH for every invocation.
var binaryName = "claude"

// defaultModel is the model identifier passed to --model when the
// configuration does not name one.
const defaultModel = "sonnet"

// Config configures a Client for the lifetime of one pipeline session.
type Config struct {
	APIKey                    string
	Model                     string
	WorkingDirectory          string
	AdditionalWorkDirectories []string
	InitialSystemPrompt       string
}

// Request describes a single query against the agent.
type Request struct {
	Prompt       string
	OutputSchema json.RawMessage // nil for free-text queries
}

// StreamEvent is forwarded to the caller's onEvent callback as the CLI's
// stream-json output is parsed, for display in the Stream Formatter.
type StreamEvent = rawStreamEvent

// Client drives one logical conversation with the Claude Code CLI. It is
// not safe for concurrent use: exactly one query may be in flight at a
// time, matching the engine's single-threaded control-flow model.
type Client struct {
	cfg                 Config
	sessionID           string
	haveSession         bool
	systemPrompt        string
	pendingSystemPrompt string
}

// New validates the configuration and prepares the working directories.
func New(cfg Config) (*Client, error) {
	if cfg.WorkingDirectory == "" {
		return nil, errDirectoryCreation("", errors.New("working directory is required"))
	}
	if err := os.MkdirAll(cfg.WorkingDirectory, 0o755); err != nil {
		return nil, errDirectoryCreation(cfg.WorkingDirectory, err)
	}
	for _, dir := range cfg.AdditionalWorkDirectories {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, errDirectoryCreation(dir, err)
		}
	}
	if _, err := exec.LookPath(binaryName); err != nil {
		return nil, errBinaryNotFound(binaryName, err)
	}
	return &Client{cfg: cfg, systemPrompt: cfg.InitialSystemPrompt}, nil
}

// Clone returns a fresh Client sharing this one's API key and additional
// work directories (plus any extraDirs) but rooted at workingDir with no
// session continuity, used by the task scheduler to spin up distinct
// coder/reviewer/resolver conversations that all operate against the same
// task worktree. extraDirs is how the scheduler grants a task worktree's
// agents read access to the workspace's journal directory (spec.md,
// plan.md, and upstream task reports all live there, not inside the
// worktree's own checkout).
func (c *Client) Clone(workingDir string, extraDirs ...string) (*Client, error) {
	cfg := c.cfg
	cfg.WorkingDirectory = workingDir
	cfg.InitialSystemPrompt = ""
	cfg.AdditionalWorkDirectories = append(append([]string{}, cfg.AdditionalWorkDirectories...), extraDirs...)
	return New(cfg)
}

// SessionID returns the opaque continuity token for the current
// conversation, or "" if no query has been issued yet.
func (c *Client) SessionID() string { return c.sessionID }

// ResetSession drops session continuity; the next query starts fresh.
func (c *Client) ResetSession() {
	c.sessionID = ""
	c.haveSession = false
}

// SetWorkingDirectory changes the cwd used for subsequent invocations,
// e.g. when the scheduler hands the client a new task worktree.
func (c *Client) SetWorkingDirectory(dir string) { c.cfg.WorkingDirectory = dir }

// SetSystemPrompt replaces the base system prompt for subsequent queries.
func (c *Client) SetSystemPrompt(prompt string) { c.systemPrompt = prompt }

// AppendSystemPrompt queues additional system-prompt text to be merged in
// on the next invocation and then cleared. Used to re-inject phase-specific
// instructions into an otherwise-resumed session.
func (c *Client) AppendSystemPrompt(prompt string) {
	if c.pendingSystemPrompt == "" {
		c.pendingSystemPrompt = prompt
	} else {
		c.pendingSystemPrompt += "\n\n" + prompt
	}
}

func (c *Client) buildArgs(req Request) []string {
	args := []string{
		"-p",
		"--dangerously-skip-permissions",
		"--permission-mode", "bypassPermissions",
		"--tools", toolsList,
	}

	if c.haveSession {
		args = append(args, "--resume", c.sessionID)
	} else {
		c.sessionID = uuid.NewString()
		c.haveSession = true
		args = append(args, "--session-id", c.sessionID)
	}

	for _, dir := range c.cfg.AdditionalWorkDirectories {
		args = append(args, "--add-dir", dir)
	}

	model := c.cfg.Model
	if model == "" {
		model = defaultModel
	}
	args = append(args, "--model", model)

	combinedSystemPrompt := c.systemPrompt
	if c.pendingSystemPrompt != "" {
		if combinedSystemPrompt != "" {
			combinedSystemPrompt += "\n\n" + c.pendingSystemPrompt
		} else {
			combinedSystemPrompt = c.pendingSystemPrompt
		}
		c.pendingSystemPrompt = ""
	}
	if combinedSystemPrompt != "" {
		args = append(args, "--append-system-prompt", combinedSystemPrompt)
	}

	if len(req.OutputSchema) > 0 {
		args = append(args, "--json-schema", string(req.OutputSchema))
	}

	return args
}

func (c *Client) env() []string {
	env := os.Environ()
	env = append(env,
		"ANTHROPIC_API_KEY="+c.cfg.APIKey,
		"CLAUDE_CODE_EFFORT_LEVEL=high",
		"CLAUDE_CODE_DISABLE_AUTO_MEMORY=0",
		"CLAUDE_CODE_DISABLE_FEEDBACK_SURVEY=1",
	)
	return env
}

// Query issues one non-streaming request and decodes the terminal result
// into T. T must match OutputSchema's shape when a schema is supplied.
func Query[T any](ctx context.Context, c *Client, req Request) (T, error) {
	var zero T

	args := append(c.buildArgs(req), "--output-format", "json", req.Prompt)
	cmd := exec.CommandContext(ctx, binaryName, args...)
	cmd.Dir = c.cfg.WorkingDirectory
	cmd.Env = c.env()

	stdout, stderr, runErr := runCollected(cmd)
	writeDebugLog(c.sessionID, c.systemPrompt, req.Prompt, string(stdout)+"\n"+string(stderr))

	out, parseErr := parseCLIOutput(stdout)
	if parseErr != nil {
		if runErr != nil {
			return zero, errCommandExecution(fmt.Sprintf("claude exited with error: %v", runErr), parseErr)
		}
		return zero, parseErr
	}
	if out.sessionID != "" {
		c.sessionID = out.sessionID
	}
	return decodeInto[T](out)
}

// QueryStreaming issues a streaming request, invoking onEvent for every
// classified stream event as it arrives (for the Stream Formatter), and
// decodes the terminal result into T once the stream ends.
func QueryStreaming[T any](ctx context.Context, c *Client, req Request, onEvent func(StreamEvent)) (T, error) {
	var zero T

	args := append(c.buildArgs(req), "--output-format", "stream-json", "--verbose", "--include-partial-messages", req.Prompt)
	cmd := exec.CommandContext(ctx, binaryName, args...)
	cmd.Dir = c.cfg.WorkingDirectory
	cmd.Env = c.env()

	var allLines [][]byte
	var resultValue []byte

	stderr, runErr := streamLines(ctx, cmd, func(line []byte) {
		allLines = append(allLines, line)
		evt, isResult := classifyLine(line)
		if isResult {
			resultValue = line
		}
		if evt != nil {
			onEvent(*evt)
		}
	})

	var combined []byte
	for _, l := range allLines {
		combined = append(combined, l...)
		combined = append(combined, '\n')
	}
	summary := streamDebugSummary(claudecode.ParseStreamJSON(combined))
	writeDebugLog(c.sessionID, c.systemPrompt, req.Prompt, string(combined)+"\n"+string(stderr)+summary)

	if resultValue == nil {
		if runErr != nil {
			return zero, errCommandExecution(fmt.Sprintf("claude exited with error: %v", runErr), errors.New(string(stderr)))
		}
		return zero, errNoResultMessage()
	}

	out, parseErr := parseCLIOutput(resultValue)
	if parseErr != nil {
		return zero, parseErr
	}
	if out.sessionID != "" {
		c.sessionID = out.sessionID
	}
	return decodeInto[T](out)
}
