package phase

// ClarifySchema constrains the clarification loop's response to a bounded
// question list; an empty array signals the agent has enough information
// to proceed.
const ClarifySchema = `{
  "type": "object",
  "properties": {
    "questions": {"type": "array", "maxItems": 5, "items": {"type": "string"}}
  },
  "required": ["questions"],
  "additionalProperties": false
}`

// SpecDraftSchema constrains the spec-writing loop's response: a tagged
// union where only the field named by response_type is populated.
const SpecDraftSchema = `{
  "type": "object",
  "properties": {
    "response_type": {"type": "string", "enum": ["spec_draft", "clarifying_questions", "approved"]},
    "spec_draft": {"type": "string"},
    "clarifying_questions": {"type": "array", "minItems": 1, "maxItems": 5, "items": {"type": "string"}}
  },
  "required": ["response_type"],
  "additionalProperties": false
}`

// PlanDraftSchema constrains the planning loop's response.
const PlanDraftSchema = `{
  "type": "object",
  "properties": {
    "response_type": {"type": "string", "enum": ["plan_draft", "clarifying_questions", "approved"]},
    "plan_draft": {"type": "string"},
    "clarifying_questions": {"type": "array", "minItems": 1, "maxItems": 5, "items": {"type": "string"}}
  },
  "required": ["response_type"],
  "additionalProperties": false
}`

// FileValidationSchema constrains the imported-file validation response.
const FileValidationSchema = `{
  "type": "object",
  "properties": {
    "valid": {"type": "boolean"},
    "reason": {"type": "string"}
  },
  "required": ["valid", "reason"],
  "additionalProperties": false
}`
