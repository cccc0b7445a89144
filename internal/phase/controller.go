package phase

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/sdslab-dev/bear/internal/agent"
	"github.com/sdslab-dev/bear/internal/journal"
	"github.com/sdslab-dev/bear/internal/journal/index"
	"github.com/sdslab-dev/bear/internal/observability"
	"github.com/sdslab-dev/bear/internal/session"
)

// Controller drives the top-level session state machine. It is owned by
// exactly one goroutine at a time (the UI's background command), matching
// the engine's single-threaded control-flow model.
type Controller struct {
	Mode    Mode
	Current Phase

	client    *agent.Client
	journal   *journal.Store
	workspace string
	index     *sql.DB
	log       *observability.Logger
	dateDir   string

	Slug           string
	UserRequest    string
	clarifyAnswers []string
	SpecDraft      string
	PlanDraft      string

	// specRevised/planRevised track whether a revision prompt has been sent
	// in the current loop: the first revision carries full instructions, the
	// rest send the feedback alone since the session holds the context.
	// specAwaitingAnswers/planAwaitingAnswers mark that the loop's last
	// response was clarifying_questions, so the next user input is an answer
	// blob rather than draft feedback.
	specRevised         bool
	planRevised         bool
	specAwaitingAnswers bool
	planAwaitingAnswers bool
}

// New starts a controller at WorkspaceConfirm, bound to client for all
// subsequent agent queries and journal for artifact persistence.
func New(client *agent.Client, store *journal.Store, workspace string) *Controller {
	return &Controller{Current: PhaseWorkspaceConfirm, client: client, journal: store, workspace: workspace}
}

// WithIndex attaches the workspace's session registry so NameSession and
// Finish can keep it (best-effort) up to date.
func (c *Controller) WithIndex(db *sql.DB) *Controller {
	c.index = db
	return c
}

// WithLogger attaches a structured logger for the controller's own
// lifecycle lines (session named, session finished). A nil logger is
// allowed: the controller then skips those lines.
func (c *Controller) WithLogger(l *observability.Logger) *Controller {
	c.log = l
	return c
}

// Journal exposes the session's artifact store to callers that must read
// paths from it directly (e.g. the task scheduler, once Coding begins).
func (c *Controller) Journal() *journal.Store { return c.journal }

// Client exposes the controller's agent client so the caller can spin up
// sibling clients (sharing the same API key and working-directory
// defaults) for the task scheduler's coder/reviewer/resolver roles.
func (c *Controller) Client() *agent.Client { return c.client }

// Logger exposes the controller's structured logger so the task scheduler
// can log through the same sink (may be nil).
func (c *Controller) Logger() *observability.Logger { return c.log }

// NameSession derives a filesystem-safe session slug from the user's
// captured request, ensures it is unique within today's date bucket, and
// relocates the journal directory to its final, slug-named location. It is
// called once, right after the user's requirement text is known.
func (c *Controller) NameSession(ctx context.Context) (string, error) {
	resp, err := agent.Query[session.NameResponse](ctx, c.client, agent.Request{
		Prompt:       session.BuildNamePrompt(c.UserRequest),
		OutputSchema: []byte(session.NameSchema),
	})
	if err != nil {
		return "", fmt.Errorf("derive session name: %w", err)
	}

	dateDir := session.DateBucket(time.Now())
	slug := session.EnsureUnique(c.workspace, dateDir, session.Sanitize(resp.SessionName))
	if err := c.journal.Relocate(c.workspace, dateDir, slug); err != nil {
		return "", fmt.Errorf("relocate journal: %w", err)
	}
	c.Slug = slug
	c.dateDir = dateDir

	manifest := journal.Manifest{Workspace: c.workspace, DateDir: dateDir, Slug: slug, Status: "in_progress"}
	if err := c.journal.WriteManifest(manifest); err != nil && c.log != nil {
		c.log.Warning("write session manifest: %v", err)
	}
	if c.index != nil {
		if err := index.Upsert(c.index, index.Session{Slug: slug, DateDir: dateDir, Workspace: c.workspace, Status: "in_progress"}); err != nil && c.log != nil {
			c.log.Warning("upsert session index: %v", err)
		}
	}
	if c.log != nil {
		c.log.Info("session named %s", slug)
	}
	return slug, nil
}

// Finish records the session's terminal status (e.g. "done", "blocked",
// "error") into the manifest sidecar and session registry. Both writes are
// best-effort: a failure here is logged, not propagated.
func (c *Controller) Finish(status, integrationBranch string) {
	manifest := journal.Manifest{Workspace: c.workspace, DateDir: c.dateDir, Slug: c.Slug, IntegrationBranch: integrationBranch, Status: status}
	if err := c.journal.WriteManifest(manifest); err != nil && c.log != nil {
		c.log.Warning("write session manifest: %v", err)
	}
	if c.index != nil {
		if err := index.Upsert(c.index, index.Session{Slug: c.Slug, DateDir: c.dateDir, Workspace: c.workspace, IntegrationBranch: integrationBranch, Status: status}); err != nil && c.log != nil {
			c.log.Warning("upsert session index: %v", err)
		}
	}
	if c.log != nil {
		c.log.Info("session %s finished: %s", c.Slug, status)
	}
}

// ConfirmWorkspace keeps the current workspace and advances from
// WorkspaceConfirm to ModeSelection.
func (c *Controller) ConfirmWorkspace() {
	c.Current = PhaseModeSelection
}

// Workspace returns the session's confirmed workspace root.
func (c *Controller) Workspace() string { return c.workspace }

// ChangeWorkspace validates a user-typed workspace path (absolute, an
// existing directory) and rebinds the session to it before advancing to
// ModeSelection: the journal reopens under the new root and the agent
// client's working directory follows. A validation failure leaves the
// controller in WorkspaceConfirm so the caller can re-prompt.
func (c *Controller) ChangeWorkspace(path string) error {
	if !filepath.IsAbs(path) {
		return fmt.Errorf("workspace path must be absolute: %s", path)
	}
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("workspace path does not exist: %s", path)
	}
	if !info.IsDir() {
		return fmt.Errorf("workspace path is not a directory: %s", path)
	}

	store, err := journal.Open(path, session.DateBucket(time.Now()), "pending")
	if err != nil {
		return fmt.Errorf("open journal under %s: %w", path, err)
	}
	old := c.journal
	c.journal = store
	c.workspace = path
	if c.client != nil {
		c.client.SetWorkingDirectory(path)
	}
	if old != nil {
		// The startup placeholder directory is empty at this point; removing
		// it is best-effort.
		_ = os.Remove(old.Dir())
	}
	c.Current = PhaseModeSelection
	return nil
}

// SelectMode records the user's chosen entry point and advances to the
// first phase that mode implies.
func (c *Controller) SelectMode(mode Mode) {
	c.Mode = mode
	switch mode {
	case ModeFromRequirements:
		c.Current = PhaseRequirements
	case ModeFromSpec, ModeFromPlan:
		c.Current = PhaseSpecFileInput
	}
}

// SubmitRequirements records the user's free-text request and begins the
// clarification loop.
func (c *Controller) SubmitRequirements(ctx context.Context, text string) error {
	c.UserRequest = text
	if err := c.journal.WriteUserRequest(text); err != nil {
		return fmt.Errorf("persist user request: %w", err)
	}
	c.Current = PhaseClarify
	return nil
}

// NextClarifyingQuestions queries the agent for up to MaxClarifyingQuestions
// more questions. An empty result, or having already asked
// MaxClarifyingQuestions rounds, ends the loop and advances to spec writing.
func (c *Controller) NextClarifyingQuestions(ctx context.Context, round int) ([]string, error) {
	if round >= MaxClarifyingQuestions {
		c.Current = PhaseSpecWriting
		return nil, nil
	}

	c.client.SetSystemPrompt(ClarifySystemPrompt())
	resp, err := agent.Query[ClarifyResponse](ctx, c.client, agent.Request{
		Prompt:       BuildClarifyPrompt(c.UserRequest, c.clarifyAnswers),
		OutputSchema: []byte(ClarifySchema),
	})
	if err != nil {
		return nil, fmt.Errorf("clarify query: %w", err)
	}
	if len(resp.Questions) == 0 {
		c.Current = PhaseSpecWriting
		return nil, nil
	}
	return resp.Questions, nil
}

// RecordClarifyingAnswer accumulates one answer for the next round's prompt.
func (c *Controller) RecordClarifyingAnswer(answer string) {
	c.clarifyAnswers = append(c.clarifyAnswers, answer)
}

// AdvanceSpecDraft runs one iteration of the spec-writing loop. The first
// call passes empty input; later calls pass the user's input, which is
// either an answer blob (when the previous response asked clarifying
// questions) or revision feedback on the shown draft.
func (c *Controller) AdvanceSpecDraft(ctx context.Context, input string) (SpecDraftResponse, error) {
	c.client.SetSystemPrompt(SpecWritingSystemPrompt())

	var prompt string
	switch {
	case input == "":
		prompt = BuildFirstSpecPrompt(c.UserRequest)
	case c.specAwaitingAnswers:
		prompt = BuildAnswersPrompt(input)
	case !c.specRevised:
		prompt = BuildSpecRevisionPrompt(input)
		c.specRevised = true
	default:
		prompt = input
	}

	resp, err := agent.Query[SpecDraftResponse](ctx, c.client, agent.Request{
		Prompt:       prompt,
		OutputSchema: []byte(SpecDraftSchema),
	})
	if err != nil {
		return resp, fmt.Errorf("spec draft query: %w", err)
	}

	c.specAwaitingAnswers = resp.ResponseType == ResponseClarifyingQuestions
	switch resp.ResponseType {
	case ResponseSpecDraft:
		c.SpecDraft = resp.SpecDraft
		if err := c.journal.WriteSpec(resp.SpecDraft); err != nil {
			return resp, fmt.Errorf("persist spec draft: %w", err)
		}
	case ResponseApproved:
		c.Current = PhasePlanning
	}
	return resp, nil
}

// ApproveSpecDraft finalizes the current spec draft without a further
// agent round-trip, matching the UI's Ctrl+A approval shortcut. The draft
// text is already persisted by the preceding AdvanceSpecDraft call.
func (c *Controller) ApproveSpecDraft() {
	c.Current = PhasePlanning
}

// ApprovePlanDraft mirrors ApproveSpecDraft for the planning loop.
func (c *Controller) ApprovePlanDraft() {
	c.Current = PhaseCoding
}

// AdvancePlanDraft mirrors AdvanceSpecDraft for the planning loop.
func (c *Controller) AdvancePlanDraft(ctx context.Context, input string) (PlanDraftResponse, error) {
	c.client.SetSystemPrompt(PlanningSystemPrompt())

	var prompt string
	switch {
	case input == "":
		// Planning is a fresh logical context: the plan is written from the
		// persisted spec, not from the spec loop's conversational memory.
		c.client.ResetSession()
		prompt = BuildFirstPlanPrompt(c.journal.SpecPath())
	case c.planAwaitingAnswers:
		prompt = BuildAnswersPrompt(input)
	case !c.planRevised:
		prompt = BuildPlanRevisionPrompt(input)
		c.planRevised = true
	default:
		prompt = input
	}

	resp, err := agent.Query[PlanDraftResponse](ctx, c.client, agent.Request{
		Prompt:       prompt,
		OutputSchema: []byte(PlanDraftSchema),
	})
	if err != nil {
		return resp, fmt.Errorf("plan draft query: %w", err)
	}

	c.planAwaitingAnswers = resp.ResponseType == ResponseClarifyingQuestions
	switch resp.ResponseType {
	case ResponsePlanDraft:
		c.PlanDraft = resp.PlanDraft
		if err := c.journal.WritePlan(resp.PlanDraft); err != nil {
			return resp, fmt.Errorf("persist plan draft: %w", err)
		}
	case ResponseApproved:
		c.Current = PhaseCoding
	}
	return resp, nil
}

// ImportFile validates a user-supplied spec or plan file via the agent and,
// on a valid spec import, rebinds the session's journal to the imported
// file's parent directory, so the session's artifacts accumulate next to the
// file the user handed in. No user-request capture occurs beyond a
// reference marker. An unreadable file or a rejection reports Valid=false
// so the caller re-prompts; only agent transport/protocol failures are
// returned as errors. kind is "spec" or "plan".
func (c *Controller) ImportFile(ctx context.Context, kind, path string) (FileValidationResponse, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return FileValidationResponse{Reason: fmt.Sprintf("invalid path: %v", err)}, nil
	}
	data, err := os.ReadFile(abs)
	if err != nil {
		return FileValidationResponse{Reason: fmt.Sprintf("cannot read file: %v", err)}, nil
	}

	c.client.SetSystemPrompt(FileValidationSystemPrompt())
	resp, err := agent.Query[FileValidationResponse](ctx, c.client, agent.Request{
		Prompt:       BuildFileValidationPrompt(kind, abs),
		OutputSchema: []byte(FileValidationSchema),
	})
	if err != nil {
		return resp, fmt.Errorf("file validation query: %w", err)
	}
	if !resp.Valid {
		return resp, nil
	}

	switch kind {
	case "spec":
		if err := c.journal.Adopt(c.workspace, filepath.Dir(abs)); err != nil {
			return FileValidationResponse{Reason: err.Error()}, nil
		}
		c.Slug = session.Sanitize(filepath.Base(filepath.Dir(abs)))
		if filepath.Base(abs) != "spec.md" {
			if err := c.journal.WriteSpec(string(data)); err != nil {
				return resp, fmt.Errorf("persist imported spec: %w", err)
			}
		}
		if err := c.journal.WriteUserRequest("Imported spec: " + abs + "\n"); err != nil && c.log != nil {
			c.log.Warning("write import marker: %v", err)
		}
	case "plan":
		if filepath.Base(abs) != "plan.md" || filepath.Dir(abs) != c.journal.Dir() {
			if err := c.journal.WritePlan(string(data)); err != nil {
				return resp, fmt.Errorf("persist imported plan: %w", err)
			}
		}
	}

	switch {
	case kind == "spec" && c.Mode == ModeFromSpec:
		c.Current = PhasePlanning
	case kind == "spec" && c.Mode == ModeFromPlan:
		c.Current = PhasePlanFileInput
	case kind == "plan":
		c.Current = PhaseCoding
	}
	return resp, nil
}
