// Package transcript accumulates and delivers call transcripts.
package transcript

import (
	"context"
	"fmt"
	"strings"

	"github.com/harbortow/voicegate/internal/model/call"
)

// Deliverer sends a finished transcript to the automation endpoint.
type Deliverer interface {
	DeliverTranscript(ctx context.Context, callerNumber, transcript string) error
}

// Recorder appends labeled lines to a session and flushes the accumulated
// transcript once at call end. Delivery is best effort; a failure is
// reported but never blocks session teardown.
type Recorder struct {
	deliverer Deliverer
}

// NewRecorder builds a recorder delivering through d. d may be nil when no
// automation endpoint is configured; Flush then only reports the line count.
func NewRecorder(d Deliverer) *Recorder {
	return &Recorder{deliverer: d}
}

// AppendAgent records a spoken line from the AI side.
func (r *Recorder) AppendAgent(session *call.Session, text string) {
	if text == "" {
		return
	}
	session.AppendLine(call.RoleAgent, text)
}

// AppendUser records a transcribed line from the caller.
func (r *Recorder) AppendUser(session *call.Session, text string) {
	if text == "" {
		return
	}
	session.AppendLine(call.RoleUser, text)
}

// Flush serializes the session transcript and delivers it. Returns the
// delivery error for logging; the caller proceeds with teardown regardless.
func (r *Recorder) Flush(ctx context.Context, session *call.Session) error {
	lines := session.Transcript()
	if r.deliverer == nil {
		return nil
	}
	if err := r.deliverer.DeliverTranscript(ctx, session.CallerNumber(), Format(lines)); err != nil {
		return fmt.Errorf("transcript: deliver session %s: %w", session.ID, err)
	}
	return nil
}

// Format renders transcript lines as "role: text", one per line.
func Format(lines []call.Line) string {
	var b strings.Builder
	for i, line := range lines {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(line.Role)
		b.WriteString(": ")
		b.WriteString(line.Text)
	}
	return b.String()
}
