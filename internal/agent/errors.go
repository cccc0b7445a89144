package agent

import "fmt"

// Kind identifies the failure taxonomy for a Claude Code CLI invocation.
type Kind string

const (
	KindBinaryNotFound          Kind = "binary_not_found"
	KindDirectoryCreationError  Kind = "directory_creation_failed"
	KindCommandExecutionError   Kind = "command_execution_failed"
	KindNoResultMessage         Kind = "no_result_message"
	KindCliReturnedError        Kind = "cli_returned_error"
	KindMissingStructuredOutput Kind = "missing_structured_output"
	KindJSONParsingError        Kind = "json_parsing_failed"
)

// Error is the common shape for every failure the agent client can return.
// Callers that care about the specific failure mode should use errors.As
// against *Error and switch on Kind().
type Error struct {
	kind    Kind
	message string
	cause   error
}

func newError(kind Kind, message string, cause error) *Error {
	return &Error{kind: kind, message: message, cause: cause}
}

func (e *Error) Kind() Kind { return e.kind }

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.kind, e.message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.kind, e.message)
}

func (e *Error) Unwrap() error { return e.cause }

func errBinaryNotFound(path string, cause error) error {
	return newError(KindBinaryNotFound, "claude binary not found: "+path, cause)
}

func errDirectoryCreation(path string, cause error) error {
	return newError(KindDirectoryCreationError, "failed to create work directory: "+path, cause)
}

func errCommandExecution(message string, cause error) error {
	return newError(KindCommandExecutionError, message, cause)
}

func errNoResultMessage() error {
	return newError(KindNoResultMessage, "cli output contained no result message", nil)
}

func errCliReturnedError(message string) error {
	return newError(KindCliReturnedError, message, nil)
}

func errMissingStructuredOutput() error {
	return newError(KindMissingStructuredOutput, "result message had no structured_output and result text did not parse as JSON", nil)
}

func errJSONParsing(message string, cause error) error {
	return newError(KindJSONParsingError, message, cause)
}
