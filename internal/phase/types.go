// Package phase implements the top-level session state machine: from
// workspace confirmation through mode selection, requirement clarification,
// spec and plan drafting, to handing the approved plan to the task
// scheduler.
package phase

// Phase identifies one state in the top-level session state machine.
type Phase string

const (
	PhaseWorkspaceConfirm Phase = "workspace_confirm"
	PhaseModeSelection    Phase = "mode_selection"
	PhaseRequirements     Phase = "requirements"
	PhaseSpecFileInput    Phase = "spec_file_input"
	PhasePlanFileInput    Phase = "plan_file_input"
	PhaseClarify          Phase = "clarify"
	PhaseSpecWriting      Phase = "spec_writing"
	PhasePlanning         Phase = "planning"
	PhaseCoding           Phase = "coding"
	PhaseDone             Phase = "done"
)

// Mode is the user's chosen entry point into the pipeline.
type Mode string

const (
	ModeFromRequirements Mode = "from_requirements" // Requirements -> Clarify -> SpecWriting -> Planning -> Coding
	ModeFromSpec         Mode = "from_spec"         // SpecFileInput -> Planning -> Coding
	ModeFromPlan         Mode = "from_plan"         // SpecFileInput -> PlanFileInput -> Coding
)

// MaxClarifyingQuestions bounds the clarification loop; an empty question
// list from the agent also ends the loop early.
const MaxClarifyingQuestions = 5

// ClarifyResponse is the agent's structured response while gathering
// clarifying questions about the user's requirements.
type ClarifyResponse struct {
	Questions []string `json:"questions"`
}

// DraftResponseType tags a spec/plan-writing response: a new draft, a
// request for more clarification, or an unambiguous approval of the
// current draft.
type DraftResponseType string

const (
	ResponseSpecDraft           DraftResponseType = "spec_draft"
	ResponsePlanDraft           DraftResponseType = "plan_draft"
	ResponseClarifyingQuestions DraftResponseType = "clarifying_questions"
	ResponseApproved            DraftResponseType = "approved"
)

// SpecDraftResponse is the agent's structured response while writing the
// spec. Only the field named by ResponseType is populated.
type SpecDraftResponse struct {
	ResponseType        DraftResponseType `json:"response_type"`
	SpecDraft           string            `json:"spec_draft,omitempty"`
	ClarifyingQuestions []string          `json:"clarifying_questions,omitempty"`
}

// PlanDraftResponse mirrors SpecDraftResponse for the planning loop.
type PlanDraftResponse struct {
	ResponseType        DraftResponseType `json:"response_type"`
	PlanDraft           string            `json:"plan_draft,omitempty"`
	ClarifyingQuestions []string          `json:"clarifying_questions,omitempty"`
}

// FileValidationResponse is the agent's verdict on a user-supplied
// spec/plan file handed in via ModeFromSpec / ModeFromPlan.
type FileValidationResponse struct {
	Valid  bool   `json:"valid"`
	Reason string `json:"reason"`
}
