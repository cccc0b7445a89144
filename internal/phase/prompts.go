package phase

import "fmt"

const clarifySystemPrompt = `You are gathering requirements for a development task. Given the user's
request so far, ask up to 5 clarifying questions that materially affect the
implementation approach. Return an empty question list once you have enough
information to write a spec.`

func ClarifySystemPrompt() string { return clarifySystemPrompt }

func BuildClarifyPrompt(userRequest string, priorAnswers []string) string {
	if len(priorAnswers) == 0 {
		return "User request:\n" + userRequest
	}
	prompt := "User request:\n" + userRequest + "\n\nPrior answers:\n"
	for _, a := range priorAnswers {
		prompt += "- " + a + "\n"
	}
	return prompt
}

const specWritingSystemPrompt = `You write a spec for a development task based on the user's request and
the clarifying Q&A already gathered.

If you have enough information, set response_type to "spec_draft" and produce the spec
in Markdown in the spec_draft field. If you need more clarification first, set
response_type to "clarifying_questions" and provide 1-5 questions. If the user's latest
message unambiguously expresses approval of the current draft with no revision request,
set response_type to "approved" and leave the other fields empty. When in doubt, treat
the message as feedback requiring revision, not as approval.`

func SpecWritingSystemPrompt() string { return specWritingSystemPrompt }

func BuildFirstSpecPrompt(userRequest string) string {
	return fmt.Sprintf("Write an initial spec draft for the following request:\n\n%s", userRequest)
}

// BuildSpecRevisionPrompt is the full revision-instructions prompt sent on
// the first revision of a loop; later revisions in the same loop send the
// feedback text alone, since the agent session already holds the context.
func BuildSpecRevisionPrompt(feedback string) string {
	return fmt.Sprintf(`Revise the current spec draft according to the user feedback below.
Keep everything the feedback does not touch, apply every change it asks for, and return
the complete revised spec (not a diff) in the spec_draft field.

User feedback:
<<<
%s
>>>`, feedback)
}

// BuildAnswersPrompt wraps the user's single answer blob to a round of
// clarifying questions, for both the spec and plan loops.
func BuildAnswersPrompt(answers string) string {
	return fmt.Sprintf("Answers to your clarifying questions:\n\n%s", answers)
}

const planningSystemPrompt = `You write an implementation plan for an approved spec.

If you have enough information, set response_type to "plan_draft" and produce the plan
in Markdown in the plan_draft field, describing the ordered units of work. If you need
more clarification first, set response_type to "clarifying_questions" and provide 1-5
questions. If the user's latest message unambiguously expresses approval of the current
draft with no revision request, set response_type to "approved" and leave the other
fields empty. When in doubt, treat the message as feedback requiring revision, not as
approval.`

func PlanningSystemPrompt() string { return planningSystemPrompt }

func BuildFirstPlanPrompt(specPath string) string {
	return fmt.Sprintf("Read the approved spec at %s and write an initial plan draft.", specPath)
}

func BuildPlanRevisionPrompt(feedback string) string {
	return fmt.Sprintf(`Revise the current plan draft according to the user feedback below.
Keep everything the feedback does not touch, apply every change it asks for, and return
the complete revised plan (not a diff) in the plan_draft field.

User feedback:
<<<
%s
>>>`, feedback)
}

const fileValidationSystemPrompt = `You validate a user-supplied file as a usable spec or plan for this
pipeline. Report valid=true only if the file is coherent, complete enough to act on, and
matches the expected kind (spec or plan). Otherwise valid=false with a concrete reason.`

func FileValidationSystemPrompt() string { return fileValidationSystemPrompt }

func BuildFileValidationPrompt(kind, path string) string {
	return fmt.Sprintf("Validate the file at %s as a %s.", path, kind)
}
