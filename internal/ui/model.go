// Package ui implements bear's terminal rendering layer as a bubbletea
// Model. It owns no pipeline logic of its own: it renders scrollback and
// dispatches background work to the phase controller and task scheduler via
// tea.Cmd, receiving their progress back as typed messages on bubbletea's
// own event loop. That loop is the single-producer/single-consumer channel
// the engine's concurrency model calls for: it already serializes Update
// against both key events and background-command completions.
package ui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/sdslab-dev/bear/internal/agent"
	"github.com/sdslab-dev/bear/internal/buildtest"
	"github.com/sdslab-dev/bear/internal/clip"
	"github.com/sdslab-dev/bear/internal/config"
	"github.com/sdslab-dev/bear/internal/journal/index"
	"github.com/sdslab-dev/bear/internal/phase"
	"github.com/sdslab-dev/bear/internal/scheduler"
	"github.com/sdslab-dev/bear/internal/worktree"
)

// CompletedMsg signals that the in-flight background command finished. Err
// is set on failure; otherwise Result carries one of the step-result types
// below, inspected by the Update loop to decide the session's next
// background step or input-ready state.
type CompletedMsg struct {
	Err    error
	Result any
}

// sessionNamedResult carries the derived session slug once naming
// completes, immediately followed by the first clarification round.
type sessionNamedResult struct{ slug string }

// questionsResult carries a round of clarifying questions (from either the
// Requirements clarification loop or a draft's embedded Q&A) for display,
// after which the model enters single-answer-blob input mode.
type questionsResult struct{ questions []string }

// clarifyDoneResult signals that the clarification loop ended (an empty
// question list) and the spec-writing loop should begin.
type clarifyDoneResult struct{}

// draftResult carries a spec or plan draft for markdown display and
// feedback/approval.
type draftResult struct {
	kind    string // "spec" | "plan"
	content string
}

// draftApprovedResult signals the agent itself returned status "approved"
// (as opposed to the user pressing Ctrl+A), so the next loop should start.
type draftApprovedResult struct{ kind string }

// fileInvalidResult carries the agent's rejection reason for an imported
// spec/plan file; the file-input prompt is shown again.
type fileInvalidResult struct{ reason string }

// fileValidResult carries the controller's phase after a successful import,
// which the model uses to decide the next step (another file prompt, start
// planning, or start coding).
type fileValidResult struct{ nextPhase phase.Phase }

// codingDoneResult carries the task scheduler's full run result.
type codingDoneResult struct {
	records           []scheduler.TaskRecord
	integrationBranch string
}

// tasksReadyResult carries the extracted task DAG and freshly-created
// integration branch, plus whatever buildtest.Detect found. When detected
// is false the model switches into modeBuildTestInput to ask the user for
// both commands before starting the scheduler run.
type tasksReadyResult struct {
	tasks             []scheduler.Task
	integrationBranch string
	cmds              buildtest.Commands
	detected          bool
}

// buildCmdCapturedResult carries the user's typed build command, advancing
// the build/test input prompt to its second step (the test command).
type buildCmdCapturedResult struct{ cmd []string }

// testCmdCapturedResult carries the user's typed test command, completing
// the build/test input prompt; the scheduler run starts immediately after.
type testCmdCapturedResult struct{ cmd []string }

var (
	bannerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("99"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	dimStyle    = lipgloss.NewStyle().Faint(true)
	menuStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("63"))
)

// inputMode distinguishes what the current textarea submission means, since
// the same widget is reused across every phase's free-text input.
type inputMode int

const (
	modeWorkspaceConfirm inputMode = iota
	modeMenu
	modeRequirements
	modeAnswer
	modeDraftFeedback
	modeFileInput
	modeBuildTestInput
	modeDone
)

// Model is bear's top-level bubbletea model.
type Model struct {
	ctx context.Context

	controller *phase.Controller
	workspace  string
	opts       config.EngineOptions

	input    textarea.Model
	viewport viewport.Model
	spinner  spinner.Model

	scrollback []string
	busy       bool
	quitting   bool
	lastErr    error
	fatalErr   error

	mode        inputMode
	clarifyStep int
	draftKind   string // "spec" | "plan", valid once a draft has been shown
	fileKind    string // "spec" | "plan", valid when mode == modeFileInput
	suggestions []string

	// buildTestStep, pendingTasks, pendingIntegration, and pendingBuildCmd
	// carry the task DAG and integration branch across the two-step
	// build/test command prompt (mode == modeBuildTestInput), used only
	// when buildtest.Detect fails to auto-detect a build system.
	buildTestStep      int // 0 = awaiting build command, 1 = awaiting test command
	pendingTasks       []scheduler.Task
	pendingIntegration string
	pendingBuildCmd    []string

	// integrationBranch is set once coding finishes, so Ctrl+Y on the final
	// completion screen can copy it without re-threading the scheduler result.
	integrationBranch string

	// recentSessions is read once from the session registry before the
	// program starts, so the mode-selection screen can show prior sessions
	// without a directory walk.
	recentSessions []index.Session

	// streamCh carries formatted Stream Formatter lines from the coding
	// agent's live tool-use stream (internal/scheduler.Executor.OnStreamLine)
	// into bubbletea's Update loop, the canonical way to surface
	// goroutine-produced events as tea.Msg values.
	streamCh chan StreamLineMsg

	width, height int
}

// StreamLineMsg is one formatted line of the coding agent's live stream.
type StreamLineMsg struct{ Line string }

// waitForStreamLine blocks on ch and returns the next line as a tea.Msg;
// Update re-issues this Cmd after every StreamLineMsg so listening
// continues for the life of the coding phase.
func waitForStreamLine(ch chan StreamLineMsg) tea.Cmd {
	return func() tea.Msg {
		line, ok := <-ch
		if !ok {
			return nil
		}
		return line
	}
}

// New constructs the initial model, opening on the workspace-confirmation
// prompt for the given workspace and phase controller.
func New(ctx context.Context, workspace string, controller *phase.Controller) Model {
	ta := textarea.New()
	ta.Placeholder = "Describe what you want built..."
	ta.Focus()

	vp := viewport.New(80, 20)
	sp := spinner.New()
	sp.Spinner = spinner.Dot

	m := Model{
		ctx:        ctx,
		controller: controller,
		workspace:  workspace,
		opts:       config.Defaults(),
		input:      ta,
		viewport:   vp,
		spinner:    sp,
		mode:       modeWorkspaceConfirm,
		streamCh:   make(chan StreamLineMsg, 64),
	}
	m.appendWelcome()
	return m
}

// WithOptions overrides the engine tunables read from configuration
// (review-iteration cap, build/test timeouts, editor command).
func (m Model) WithOptions(opts config.EngineOptions) Model {
	m.opts = opts
	return m
}

// WithRecentSessions seeds the sessions shown on the mode-selection screen,
// read once from the session registry before the program starts.
func (m Model) WithRecentSessions(sessions []index.Session) Model {
	m.recentSessions = sessions
	if len(sessions) > 0 {
		m.appendLine(dimStyle.Render("recent sessions:"))
		for i, s := range sessions {
			if i >= 5 {
				break
			}
			m.appendLine(dimStyle.Render(fmt.Sprintf("  %s/%s — %s", s.DateDir, s.Slug, s.Status)))
		}
	}
	return m
}

// FatalErr reports the error that terminated the pipeline, if any, so the
// CLI can surface it after the alt-screen renderer has torn down.
func (m Model) FatalErr() error { return m.fatalErr }

// WithInitialSize seeds the model's viewport/input dimensions before the
// bubbletea program starts, so the first frame isn't rendered at a
// zero-value size while waiting for the first tea.WindowSizeMsg.
func (m Model) WithInitialSize(width, height int) Model {
	m.width, m.height = width, height
	m.viewport.Width = width
	m.viewport.Height = height - 6
	m.input.SetWidth(width)
	return m
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(textarea.Blink, m.spinner.Tick, waitForStreamLine(m.streamCh))
}

func (m *Model) appendWelcome() {
	m.appendLine(bannerStyle.Render("bear — clarify, spec, plan, implement"))
	m.appendLine(dimStyle.Render("workspace: " + m.workspace))
	m.appendLine(dimStyle.Render("Enter to work here, Esc to quit"))
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.viewport.Width = msg.Width
		m.viewport.Height = msg.Height - 6
		m.input.SetWidth(msg.Width)
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case EditorOpenedMsg:
		m.busy = false
		if msg.Err != nil {
			m.appendLine(errorStyle.Render(msg.Err.Error()))
			return m, nil
		}
		m.input.SetValue(msg.Content)
		return m, nil

	case CompletedMsg:
		return m.handleCompleted(msg)

	case StreamLineMsg:
		m.appendLine(msg.Line)
		return m, waitForStreamLine(m.streamCh)

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// handleCompleted is the bridge between bubbletea's one-message-at-a-time
// Update and the controller's multi-step phase transitions: each step's
// background command reports one CompletedMsg, whose Result this dispatches
// into either another background command or an input-ready UI state.
func (m Model) handleCompleted(msg CompletedMsg) (tea.Model, tea.Cmd) {
	if msg.Err != nil {
		// Background-command errors that reach here are agent transport or
		// protocol failures (recoverable ones are folded into their result
		// types); the pipeline terminates after surfacing them.
		m.busy = false
		m.lastErr = msg.Err
		m.fatalErr = msg.Err
		m.appendLine(errorStyle.Render(msg.Err.Error()))
		m.controller.Finish("error", m.integrationBranch)
		m.quitting = true
		return m, tea.Quit
	}
	if m.quitting {
		// Quit was requested while this step ran: record a finished coding
		// run, but start no further step.
		if done, ok := msg.Result.(codingDoneResult); ok {
			m.controller.Finish("done", done.integrationBranch)
		}
		m.busy = false
		return m, tea.Quit
	}

	switch result := msg.Result.(type) {
	case sessionNamedResult:
		m.appendLine(bannerStyle.Render("session: " + result.slug))
		m.appendLine(dimStyle.Render(DisplayLine(StatusClarifyingStarted)))
		return m, m.clarifyCmd(0)

	case questionsResult:
		m.busy = false
		m.appendLine(dimStyle.Render("clarifying questions:"))
		for i, q := range result.questions {
			m.appendLine(fmt.Sprintf("  %d. %s", i+1, q))
		}
		m.mode = modeAnswer
		return m, nil

	case clarifyDoneResult:
		m.appendLine(dimStyle.Render(DisplayLine(StatusClarifyingDone)))
		m.appendLine(dimStyle.Render(DisplayLine(StatusSpecDrafting)))
		return m, m.specDraftCmd("")

	case draftResult:
		m.busy = false
		m.draftKind = result.kind
		m.mode = modeDraftFeedback
		m.appendLine(RenderMarkdown(result.content, m.width))
		m.input.Placeholder = "Ctrl+A to approve, or type revision feedback..."
		return m, nil

	case draftApprovedResult:
		if result.kind == "spec" {
			m.appendLine(dimStyle.Render(DisplayLine(StatusSpecApproved)))
			m.appendLine(dimStyle.Render(DisplayLine(StatusPlanDrafting)))
			return m, m.planDraftCmd("")
		}
		m.appendLine(dimStyle.Render(DisplayLine(StatusPlanApproved)))
		return m, m.startCodingCmd()

	case fileInvalidResult:
		m.busy = false
		m.mode = modeFileInput
		m.appendLine(errorStyle.Render("invalid " + m.fileKind + ": " + result.reason))
		return m, nil

	case fileValidResult:
		switch result.nextPhase {
		case phase.PhasePlanFileInput:
			m.busy = false
			m.mode = modeFileInput
			m.fileKind = "plan"
			m.input.Placeholder = "Path to an existing plan.md..."
			return m, nil
		case phase.PhasePlanning:
			m.appendLine(dimStyle.Render(DisplayLine(StatusPlanDrafting)))
			return m, m.planDraftCmd("")
		case phase.PhaseCoding:
			return m, m.startCodingCmd()
		}
		m.busy = false
		return m, nil

	case tasksReadyResult:
		m.appendLine(dimStyle.Render(DisplayLine(StatusTaskExtracted)))
		if result.detected {
			return m, m.runCodingCmd(result.tasks, result.integrationBranch, result.cmds)
		}
		m.busy = false
		m.mode = modeBuildTestInput
		m.buildTestStep = 0
		m.pendingTasks = result.tasks
		m.pendingIntegration = result.integrationBranch
		m.appendLine(dimStyle.Render("no build system detected automatically"))
		m.input.Placeholder = "Enter the build command (e.g. make build)..."
		return m, nil

	case buildCmdCapturedResult:
		m.busy = false
		m.pendingBuildCmd = result.cmd
		m.buildTestStep = 1
		m.input.Placeholder = "Enter the test command (e.g. make test)..."
		return m, nil

	case testCmdCapturedResult:
		cmds := buildtest.Commands{BuildCmd: m.pendingBuildCmd, TestCmd: result.cmd}
		return m, m.runCodingCmd(m.pendingTasks, m.pendingIntegration, cmds)

	case codingDoneResult:
		m.busy = false
		m.mode = modeDone
		m.integrationBranch = result.integrationBranch
		m.renderCodingSummary(result)
		m.appendLine(dimStyle.Render(DisplayLine(StatusSessionComplete)))
		m.appendLine(dimStyle.Render("Ctrl+Y to copy the integration branch name"))
		m.controller.Finish("done", result.integrationBranch)
		return m, nil
	}

	m.busy = false
	if m.quitting {
		return m, tea.Quit
	}
	return m, nil
}

func (m *Model) renderCodingSummary(result codingDoneResult) {
	success, blocked := 0, 0
	for _, r := range result.records {
		if r.Outcome == scheduler.OutcomeMerged {
			success++
			m.appendLine(DisplayLine(StatusTaskMerged) + " " + r.Task.ID)
		} else {
			blocked++
			m.appendLine(DisplayLine(StatusTaskBlocked) + " " + r.Task.ID)
		}
	}
	m.appendLine(fmt.Sprintf("SUCCESS: %d  BLOCKED: %d", success, blocked))
	m.appendLine("integration branch: " + result.integrationBranch)
}

// singleLineInput reports whether the current mode's input is a one-line
// value (a path, a menu choice, a shell command) rather than prose.
func (m Model) singleLineInput() bool {
	switch m.mode {
	case modeWorkspaceConfirm, modeMenu, modeFileInput, modeBuildTestInput:
		return true
	}
	return false
}

// normalizePaste normalizes bracketed-paste text: CRLF becomes LF, and in
// single-line input modes any line structure collapses to spaces so a
// pasted path or command never submits as multiple lines.
func normalizePaste(text string, singleLine bool) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	if singleLine {
		text = strings.Join(strings.FieldsFunc(text, func(r rune) bool { return r == '\n' }), " ")
	}
	return text
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.Paste {
		msg.Runes = []rune(normalizePaste(string(msg.Runes), m.singleLineInput()))
	}

	switch msg.Type {
	case tea.KeyCtrlC, tea.KeyEsc:
		// Cooperative quit: let any in-flight background call finish; we
		// simply stop starting new ones and exit once it reports back.
		m.quitting = true
		if !m.busy {
			return m, tea.Quit
		}
		return m, nil

	case tea.KeyCtrlG:
		if m.busy {
			return m, nil
		}
		m.busy = true
		return m, OpenInEditor(m.opts.EditorCommand, m.input.Value())

	case tea.KeyCtrlY:
		if m.mode != modeDone || m.integrationBranch == "" {
			break
		}
		result, err := clip.WriteAll(m.integrationBranch)
		if err != nil {
			m.appendLine(errorStyle.Render("clipboard: " + err.Error()))
			return m, nil
		}
		switch result.Method {
		case clip.MethodFile:
			m.appendLine(dimStyle.Render("clipboard unavailable, wrote branch name to " + result.FilePath))
		default:
			m.appendLine(dimStyle.Render("copied integration branch to clipboard"))
		}
		return m, nil

	case tea.KeyCtrlA:
		if m.busy || m.mode != modeDraftFeedback {
			break
		}
		m.input.Reset()
		m.busy = true
		kind := m.draftKind
		if kind == "spec" {
			m.controller.ApproveSpecDraft()
		} else {
			m.controller.ApprovePlanDraft()
		}
		return m.handleCompleted(CompletedMsg{Result: draftApprovedResult{kind: kind}})

	case tea.KeyEnter:
		if msg.Alt {
			// Alt+Enter forces a newline; fall through to the textarea.
			break
		}
		if m.busy {
			return m, nil
		}
		text := strings.TrimSpace(m.input.Value())
		if m.mode == modeWorkspaceConfirm {
			if text != "" {
				m.appendLine("> " + text)
				if err := m.controller.ChangeWorkspace(text); err != nil {
					m.appendLine(errorStyle.Render(err.Error()))
					m.appendLine(dimStyle.Render("새 워크스페이스의 절대 경로를 입력하거나, Enter를 눌러 현재 디렉토리를 사용하세요."))
					m.input.Reset()
					return m, nil
				}
				m.workspace = m.controller.Workspace()
			} else {
				m.controller.ConfirmWorkspace()
			}
			m.mode = modeMenu
			m.input.Reset()
			m.appendLine(dimStyle.Render(DisplayLine(StatusWorkspaceConfirmed)))
			m.appendLine(menuStyle.Render("1) build from scratch  2) import spec only  3) import spec + plan"))
			return m, nil
		}
		if m.mode == modeMenu {
			return m.selectMode(text)
		}
		if text == "" {
			return m, nil
		}
		m.input.Reset()
		m.busy = true
		m.appendLine("> " + text)
		cmd := m.submit(text)
		return m, cmd
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	if m.mode == modeFileInput {
		m.refreshSuggestions()
	}
	return m, cmd
}

func (m Model) selectMode(text string) (tea.Model, tea.Cmd) {
	var chosen phase.Mode
	switch text {
	case "1":
		chosen = phase.ModeFromRequirements
	case "2":
		chosen = phase.ModeFromSpec
	case "3":
		chosen = phase.ModeFromPlan
	default:
		return m, nil
	}
	m.controller.SelectMode(chosen)
	m.input.Reset()
	m.appendLine(dimStyle.Render(DisplayLine(StatusModeSelected)))
	if chosen == phase.ModeFromRequirements {
		m.mode = modeRequirements
		m.input.Placeholder = "Describe what you want built..."
	} else {
		m.mode = modeFileInput
		m.fileKind = "spec"
		m.input.Placeholder = "Path to an existing spec.md..."
	}
	return m, nil
}

func (m *Model) refreshSuggestions() {
	matches, err := FilterFiles(m.workspace, strings.TrimSpace(m.input.Value()))
	if err != nil {
		return
	}
	if len(matches) > 5 {
		matches = matches[:5]
	}
	m.suggestions = matches
}

// submit dispatches the user's free-text input to the phase controller in
// the background; the controller owns what the text means for the current
// phase.
func (m *Model) submit(text string) tea.Cmd {
	switch m.mode {
	case modeRequirements:
		return m.submitRequirementsCmd(text)
	case modeAnswer:
		// Clarifying questions can come from three loops; the controller's
		// phase says which one this answer belongs to.
		switch m.controller.Current {
		case phase.PhaseSpecWriting:
			return m.specDraftCmd(text)
		case phase.PhasePlanning:
			return m.planDraftCmd(text)
		}
		return m.submitAnswerCmd(text)
	case modeDraftFeedback:
		return m.submitDraftFeedbackCmd(text)
	case modeFileInput:
		return m.submitFilePathCmd(text)
	case modeBuildTestInput:
		return m.submitBuildTestCmd(text)
	}
	return func() tea.Msg { return CompletedMsg{} }
}

// submitBuildTestCmd captures one line of the two-step build/test command
// prompt (see modeBuildTestInput); it does no I/O, so the returned tea.Cmd
// resolves immediately.
func (m Model) submitBuildTestCmd(text string) tea.Cmd {
	step := m.buildTestStep
	fields := strings.Fields(text)
	return func() tea.Msg {
		if step == 0 {
			return CompletedMsg{Result: buildCmdCapturedResult{cmd: fields}}
		}
		return CompletedMsg{Result: testCmdCapturedResult{cmd: fields}}
	}
}

func (m Model) submitRequirementsCmd(text string) tea.Cmd {
	controller := m.controller
	ctx := m.ctx
	return func() tea.Msg {
		if err := controller.SubmitRequirements(ctx, text); err != nil {
			return CompletedMsg{Err: err}
		}
		slug, err := controller.NameSession(ctx)
		if err != nil {
			return CompletedMsg{Err: err}
		}
		return CompletedMsg{Result: sessionNamedResult{slug: slug}}
	}
}

func (m Model) clarifyCmd(round int) tea.Cmd {
	controller := m.controller
	ctx := m.ctx
	return func() tea.Msg {
		questions, err := controller.NextClarifyingQuestions(ctx, round)
		if err != nil {
			return CompletedMsg{Err: err}
		}
		if len(questions) == 0 {
			return CompletedMsg{Result: clarifyDoneResult{}}
		}
		return CompletedMsg{Result: questionsResult{questions: questions}}
	}
}

func (m *Model) submitAnswerCmd(answer string) tea.Cmd {
	controller := m.controller
	ctx := m.ctx
	next := m.clarifyStep + 1
	m.clarifyStep = next
	return func() tea.Msg {
		controller.RecordClarifyingAnswer(answer)
		questions, err := controller.NextClarifyingQuestions(ctx, next)
		if err != nil {
			return CompletedMsg{Err: err}
		}
		if len(questions) == 0 {
			return CompletedMsg{Result: clarifyDoneResult{}}
		}
		return CompletedMsg{Result: questionsResult{questions: questions}}
	}
}

func (m Model) submitDraftFeedbackCmd(feedback string) tea.Cmd {
	if m.draftKind == "spec" {
		return m.specDraftCmd(feedback)
	}
	return m.planDraftCmd(feedback)
}

func (m Model) specDraftCmd(feedback string) tea.Cmd {
	controller := m.controller
	ctx := m.ctx
	return func() tea.Msg {
		resp, err := controller.AdvanceSpecDraft(ctx, feedback)
		if err != nil {
			return CompletedMsg{Err: err}
		}
		switch resp.ResponseType {
		case phase.ResponseApproved:
			return CompletedMsg{Result: draftApprovedResult{kind: "spec"}}
		case phase.ResponseClarifyingQuestions:
			return CompletedMsg{Result: questionsResult{questions: resp.ClarifyingQuestions}}
		default:
			return CompletedMsg{Result: draftResult{kind: "spec", content: resp.SpecDraft}}
		}
	}
}

func (m Model) planDraftCmd(feedback string) tea.Cmd {
	controller := m.controller
	ctx := m.ctx
	return func() tea.Msg {
		resp, err := controller.AdvancePlanDraft(ctx, feedback)
		if err != nil {
			return CompletedMsg{Err: err}
		}
		switch resp.ResponseType {
		case phase.ResponseApproved:
			return CompletedMsg{Result: draftApprovedResult{kind: "plan"}}
		case phase.ResponseClarifyingQuestions:
			return CompletedMsg{Result: questionsResult{questions: resp.ClarifyingQuestions}}
		default:
			return CompletedMsg{Result: draftResult{kind: "plan", content: resp.PlanDraft}}
		}
	}
}

func (m Model) submitFilePathCmd(path string) tea.Cmd {
	controller := m.controller
	ctx := m.ctx
	kind := m.fileKind
	return func() tea.Msg {
		resp, err := controller.ImportFile(ctx, kind, path)
		if err != nil {
			return CompletedMsg{Err: err}
		}
		if !resp.Valid {
			return CompletedMsg{Result: fileInvalidResult{reason: resp.Reason}}
		}
		return CompletedMsg{Result: fileValidResult{nextPhase: controller.Current}}
	}
}

// startCodingCmd extracts the task DAG from the approved plan, creates the
// session's integration branch, and probes the workspace for a build/test
// toolchain. If none is auto-detected, handleCompleted switches into the
// two-step build/test input prompt instead of running the scheduler
// directly.
func (m Model) startCodingCmd() tea.Cmd {
	controller := m.controller
	ctx := m.ctx
	workspace := m.workspace
	return func() tea.Msg {
		store := controller.Journal()
		tasks, err := scheduler.ExtractTasks(ctx, controller.Client(), store.PlanPath())
		if err != nil {
			return CompletedMsg{Err: err}
		}

		wt := worktree.New(workspace)
		integrationBranch := worktree.IntegrationBranchName(controller.Slug)
		if err := wt.CreateIntegrationBranch(ctx, integrationBranch); err != nil {
			return CompletedMsg{Err: err}
		}

		cmds, detected := buildtest.Detect(workspace)
		return CompletedMsg{Result: tasksReadyResult{
			tasks:             tasks,
			integrationBranch: integrationBranch,
			cmds:              cmds,
			detected:          detected,
		}}
	}
}

// runCodingCmd drives the whole scheduler run to completion as a single
// background command, given an already-extracted task DAG, integration
// branch, and resolved build/test commands (auto-detected or user-supplied).
// No two tasks ever run concurrently, so one synchronous background call
// preserves the same observable ordering as per-task messages would;
// per-task status lines are derived from the returned records once the run
// completes.
func (m Model) runCodingCmd(tasks []scheduler.Task, integrationBranch string, cmds buildtest.Commands) tea.Cmd {
	controller := m.controller
	ctx := m.ctx
	workspace := m.workspace
	streamCh := m.streamCh
	opts := m.opts
	return func() tea.Msg {
		store := controller.Journal()
		exec := &scheduler.Executor{
			Workspace:           workspace,
			IntegrationBranch:   integrationBranch,
			Worktree:            worktree.New(workspace),
			Journal:             store,
			SpecPath:            store.SpecPath(),
			PlanPath:            store.PlanPath(),
			BuildTestCmds:       cmds,
			MaxReviewIterations: opts.MaxReviewIterations,
			BuildTestTimeouts:   buildtest.Timeouts{Wall: opts.BuildTestTimeout, Kill: opts.KillGrace},
			NewClient: func(workingDir string) (*agent.Client, error) {
				// Grant read access to the workspace's journal directory
				// (spec.md, plan.md, upstream task reports) alongside the
				// task's own worktree checkout.
				return controller.Client().Clone(workingDir, workspace)
			},
			OnStreamLine: func(line string) { streamCh <- StreamLineMsg{Line: line} },
			Logger:       controller.Logger(),
		}

		records, runErr := scheduler.Run(ctx, exec, tasks)
		if runErr != nil {
			return CompletedMsg{Err: runErr}
		}
		return CompletedMsg{Result: codingDoneResult{records: records, integrationBranch: integrationBranch}}
	}
}

func (m *Model) appendLine(line string) {
	m.scrollback = append(m.scrollback, line)
	m.viewport.SetContent(strings.Join(m.scrollback, "\n"))
	m.viewport.GotoBottom()
}

func (m Model) View() string {
	if m.quitting && !m.busy {
		return "bye.\n"
	}

	var status string
	if m.busy {
		status = m.spinner.View() + " working..."
	} else if m.lastErr != nil {
		status = errorStyle.Render("error: " + m.lastErr.Error())
	} else {
		status = dimStyle.Render("phase: " + string(m.controller.Current))
	}

	view := []string{
		bannerStyle.Render("bear"),
		m.viewport.View(),
		status,
	}
	if m.mode == modeFileInput && len(m.suggestions) > 0 {
		view = append(view, dimStyle.Render(strings.Join(m.suggestions, "  ")))
	}
	if m.mode != modeDone {
		view = append(view, m.input.View())
	}

	return lipgloss.JoinVertical(lipgloss.Left, view...)
}
