package agent

import "testing"

func TestParseCLIOutput_JSONArrayWithResult(t *testing.T) {
	input := `[{"type":"system"},{"type":"assistant"},{"type":"result","structured_output":{"ok":true},"session_id":"abc"}]`
	out, err := parseCLIOutput([]byte(input))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.sessionID != "abc" {
		t.Errorf("session id = %q", out.sessionID)
	}
}

func TestParseCLIOutput_SingleResultObject(t *testing.T) {
	input := `{"type":"result","result":"{\"ok\":true}","session_id":"xyz"}`
	out, err := parseCLIOutput([]byte(input))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.sessionID != "xyz" {
		t.Errorf("session id = %q", out.sessionID)
	}
}

func TestParseCLIOutput_SelectsLastResultEvent(t *testing.T) {
	input := `[
		{"type":"result","structured_output":{"n":1},"session_id":"first"},
		{"type":"assistant"},
		{"type":"result","structured_output":{"n":2},"session_id":"last"}
	]`
	out, err := parseCLIOutput([]byte(input))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.sessionID != "last" {
		t.Errorf("session id = %q, want the last result event's", out.sessionID)
	}
}

func TestParseCLIOutput_StructuredOutputWinsOverResultText(t *testing.T) {
	input := `{"type":"result","result":"{\"from\":\"result\"}","structured_output":{"from":"structured"},"session_id":"s"}`
	out, err := parseCLIOutput([]byte(input))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	decoded, err := decodeInto[map[string]string](out)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if decoded["from"] != "structured" {
		t.Errorf("decoded from %q, want structured_output to win", decoded["from"])
	}
}

func TestParseCLIOutput_FallbackDecodesResultText(t *testing.T) {
	input := `{"type":"result","result":"{\"ok\":true}","session_id":"s"}`
	out, err := parseCLIOutput([]byte(input))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	decoded, err := decodeInto[map[string]bool](out)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !decoded["ok"] {
		t.Errorf("decoded = %v, want result text decoded as JSON", decoded)
	}
}

func TestParseCLIOutput_ErrorMessageCarriesResultText(t *testing.T) {
	input := `{"type":"result","is_error":true,"result":"rate limited"}`
	_, err := parseCLIOutput([]byte(input))
	assertKind(t, err, KindCliReturnedError)
	if msg := err.(*Error).message; msg != "rate limited" {
		t.Errorf("message = %q, want the result text verbatim", msg)
	}
}

func TestParseCLIOutput_NoResultMessage(t *testing.T) {
	input := `[{"type":"system"},{"type":"assistant"}]`
	_, err := parseCLIOutput([]byte(input))
	assertKind(t, err, KindNoResultMessage)
}

func TestParseCLIOutput_CliReturnedError(t *testing.T) {
	input := `{"type":"result","is_error":true,"result":"something broke"}`
	_, err := parseCLIOutput([]byte(input))
	assertKind(t, err, KindCliReturnedError)
}

func TestParseCLIOutput_MissingStructuredOutputAndInvalidResultText(t *testing.T) {
	input := `{"type":"result","result":"not json"}`
	_, err := parseCLIOutput([]byte(input))
	assertKind(t, err, KindMissingStructuredOutput)
}

func TestParseCLIOutput_InvalidJSON(t *testing.T) {
	_, err := parseCLIOutput([]byte("not json at all"))
	assertKind(t, err, KindJSONParsingError)
}

func assertKind(t *testing.T, err error, want Kind) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected error of kind %s, got nil", want)
	}
	ae, ok := err.(*Error)
	if !ok {
		t.Fatalf("expected *Error, got %T: %v", err, err)
	}
	if ae.Kind() != want {
		t.Errorf("kind = %s, want %s", ae.Kind(), want)
	}
}
