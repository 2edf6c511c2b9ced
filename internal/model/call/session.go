package call

import "sync"

// Role labels one side of the conversation in a transcript line.
const (
	RoleAgent = "agent"
	RoleUser  = "user"
)

// Line is a single labeled transcript entry.
type Line struct {
	Role string
	Text string
}

// Session holds the per-call state shared between the webhook handler and
// the media relay. The webhook handler creates it before the telephony leg
// connects, so field access goes through the mutex.
type Session struct {
	ID string

	mu           sync.Mutex
	callerNumber string
	streamSID    string
	firstMessage string
	threadID     string
	transcript   []Line
}

// CallerNumber returns the caller identifier.
func (s *Session) CallerNumber() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.callerNumber
}

// SetCallerNumber overwrites the caller identifier. The telephony start
// event may carry more accurate data than the initial webhook.
func (s *Session) SetCallerNumber(number string) {
	if number == "" {
		return
	}
	s.mu.Lock()
	s.callerNumber = number
	s.mu.Unlock()
}

// StreamSID returns the telephony stream identifier.
func (s *Session) StreamSID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.streamSID
}

// SetStreamSID records the telephony stream identifier from the start event.
func (s *Session) SetStreamSID(sid string) {
	s.mu.Lock()
	s.streamSID = sid
	s.mu.Unlock()
}

// FirstMessage returns the pending greeting text.
func (s *Session) FirstMessage() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.firstMessage
}

// SetFirstMessage stores the greeting to be injected once into the AI
// conversation.
func (s *Session) SetFirstMessage(text string) {
	if text == "" {
		return
	}
	s.mu.Lock()
	s.firstMessage = text
	s.mu.Unlock()
}

// ThreadID returns the FAQ continuity token, empty until the first
// successful question dispatch.
func (s *Session) ThreadID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.threadID
}

// SetThreadID stores the continuity token for subsequent FAQ dispatches.
func (s *Session) SetThreadID(id string) {
	if id == "" {
		return
	}
	s.mu.Lock()
	s.threadID = id
	s.mu.Unlock()
}

// AppendLine appends one transcript line in arrival order.
func (s *Session) AppendLine(role, text string) {
	s.mu.Lock()
	s.transcript = append(s.transcript, Line{Role: role, Text: text})
	s.mu.Unlock()
}

// Transcript returns a copy of the accumulated transcript.
func (s *Session) Transcript() []Line {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := make([]Line, len(s.transcript))
	copy(copied, s.transcript)
	return copied
}
