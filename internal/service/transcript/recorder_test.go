package transcript

import (
	"context"
	"errors"
	"testing"

	"github.com/harbortow/voicegate/internal/model/call"
)

type stubDeliverer struct {
	caller     string
	transcript string
	calls      int
	err        error
}

func (s *stubDeliverer) DeliverTranscript(_ context.Context, caller, transcript string) error {
	s.calls++
	s.caller = caller
	s.transcript = transcript
	return s.err
}

func TestFlushDeliversFormattedTranscript(t *testing.T) {
	stub := &stubDeliverer{}
	recorder := NewRecorder(stub)

	session := &call.Session{ID: "CA1"}
	session.SetCallerNumber("+15551234")
	recorder.AppendAgent(session, "Hello, how can I help?")
	recorder.AppendUser(session, "I need a tow.")
	recorder.AppendAgent(session, "On it.")

	if err := recorder.Flush(context.Background(), session); err != nil {
		t.Fatalf("Flush err: %v", err)
	}
	if stub.caller != "+15551234" {
		t.Fatalf("unexpected caller: %q", stub.caller)
	}
	want := "agent: Hello, how can I help?\nuser: I need a tow.\nagent: On it."
	if stub.transcript != want {
		t.Fatalf("transcript mismatch:\ngot  %q\nwant %q", stub.transcript, want)
	}
}

func TestFlushReportsDeliveryError(t *testing.T) {
	sentinel := errors.New("endpoint down")
	recorder := NewRecorder(&stubDeliverer{err: sentinel})

	session := &call.Session{ID: "CA1"}
	err := recorder.Flush(context.Background(), session)
	if !errors.Is(err, sentinel) {
		t.Fatalf("expected wrapped delivery error, got %v", err)
	}
}

func TestFlushWithoutDeliverer(t *testing.T) {
	recorder := NewRecorder(nil)
	session := &call.Session{ID: "CA1"}
	session.AppendLine(call.RoleUser, "hi")

	if err := recorder.Flush(context.Background(), session); err != nil {
		t.Fatalf("Flush without deliverer must be a no-op, got %v", err)
	}
}

func TestEmptyLinesAreSkipped(t *testing.T) {
	recorder := NewRecorder(nil)
	session := &call.Session{ID: "CA1"}

	recorder.AppendAgent(session, "")
	recorder.AppendUser(session, "")
	if got := len(session.Transcript()); got != 0 {
		t.Fatalf("empty lines must not be recorded, got %d", got)
	}
}

func TestFormat(t *testing.T) {
	if got := Format(nil); got != "" {
		t.Fatalf("empty transcript must format to empty string, got %q", got)
	}

	lines := []call.Line{
		{Role: call.RoleAgent, Text: "hi"},
		{Role: call.RoleUser, Text: "hello"},
	}
	if got := Format(lines); got != "agent: hi\nuser: hello" {
		t.Fatalf("unexpected format: %q", got)
	}
}
