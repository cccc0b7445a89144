package scheduler

// ExtractionSchema constrains the task-extraction response to a bounded,
// topologically-meaningful task list.
const ExtractionSchema = `{
  "type": "object",
  "properties": {
    "tasks": {
      "type": "array",
      "minItems": 1,
      "maxItems": 100,
      "items": {
        "type": "object",
        "properties": {
          "task_id": {"type": "string"},
          "title": {"type": "string"},
          "description": {"type": "string"},
          "dependencies": {"type": "array", "items": {"type": "string"}}
        },
        "required": ["task_id", "title", "description", "dependencies"],
        "additionalProperties": false
      }
    }
  },
  "required": ["tasks"],
  "additionalProperties": false
}`

// ResultSchema constrains a coding agent's self-reported task outcome.
const ResultSchema = `{
  "type": "object",
  "properties": {
    "status": {"type": "string", "enum": ["IMPLEMENTATION_SUCCESS", "IMPLEMENTATION_BLOCKED"]},
    "report": {"type": "string"}
  },
  "required": ["status", "report"],
  "additionalProperties": false
}`

// ReviewSchema constrains a reviewer agent's verdict.
const ReviewSchema = `{
  "type": "object",
  "properties": {
    "review_result": {"type": "string", "enum": ["APPROVED", "REQUEST_CHANGES"]},
    "review_comment": {"type": "string"}
  },
  "required": ["review_result", "review_comment"],
  "additionalProperties": false
}`

// ConflictResolutionSchema constrains a conflict-resolution agent's verdict.
const ConflictResolutionSchema = `{
  "type": "object",
  "properties": {
    "status": {"type": "string", "enum": ["CONFLICT_RESOLVED", "CONFLICT_RESOLUTION_FAILED"]},
    "report": {"type": "string"}
  },
  "required": ["status", "report"],
  "additionalProperties": false
}`

// RepairSchema constrains a build/test repair agent's verdict.
const RepairSchema = `{
  "type": "object",
  "properties": {
    "status": {"type": "string", "enum": ["BUILD_TEST_FIXED", "BUILD_TEST_FIX_FAILED"]},
    "report": {"type": "string"}
  },
  "required": ["status", "report"],
  "additionalProperties": false
}`
