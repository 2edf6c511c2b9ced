// Package bridge runs the per-call control loop that multiplexes the
// telephony leg and the AI leg of a phone call.
package bridge

import (
	"context"
	"log"

	"github.com/harbortow/voicegate/internal/model/call"
	"github.com/harbortow/voicegate/internal/model/telephony"
	"github.com/harbortow/voicegate/internal/service/realtime"
	"github.com/harbortow/voicegate/internal/service/transcript"
)

// State of a relay's lifecycle.
type State int

const (
	StateConnecting State = iota
	StateActive
	StateClosing
	StateClosed
)

// AILeg is the AI-side connection as seen by the relay. Satisfied by
// *realtime.Client.
type AILeg interface {
	Events() <-chan realtime.ServerEvent
	AppendAudio(payload string) error
	CreateUserMessage(text string) error
	CreateFunctionOutput(callID, output string) error
	CreateResponse(instructions string) error
	Close() error
}

// MediaWriter is the outbound half of the telephony leg. Satisfied by
// *websocket.Conn.
type MediaWriter interface {
	WriteJSON(v any) error
}

// Relay owns one call: it drains both legs into a single ordered loop,
// gates the greeting, hands tool calls to the dispatcher and records the
// transcript. All fields below the constructor arguments are touched only
// from the Run goroutine.
type Relay struct {
	registry   *call.Registry
	recorder   *transcript.Recorder
	automation Automation
	ai         AILeg
	media      MediaWriter

	injections chan injection

	ctx             context.Context
	session         *call.Session
	streamSID       string
	state           State
	aiReady         bool
	greetingPending bool
}

// NewRelay wires a relay for one accepted telephony connection. automation
// may be nil; tool calls then take the apology path.
func NewRelay(registry *call.Registry, recorder *transcript.Recorder, automation Automation, ai AILeg, media MediaWriter) *Relay {
	return &Relay{
		registry:   registry,
		recorder:   recorder,
		automation: automation,
		ai:         ai,
		media:      media,
		injections: make(chan injection, 8),
		state:      StateConnecting,
	}
}

// State reports the relay lifecycle state. Only meaningful from the Run
// goroutine or after Run returns.
func (r *Relay) State() State {
	return r.state
}

// Run processes events until either leg closes, then flushes the transcript
// and removes the session. frames is the telephony leg; the caller closes
// it when the connection drops. Run returns once the relay is Closed.
func (r *Relay) Run(ctx context.Context, frames <-chan telephony.Frame) {
	ctx, cancel := context.WithCancel(ctx)
	r.ctx = ctx
	defer cancel()
	defer r.shutdown()

	for {
		select {
		case frame, ok := <-frames:
			if !ok {
				return
			}
			r.handleFrame(frame)
		case event, ok := <-r.ai.Events():
			if !ok {
				log.Printf("[relay] ai leg dropped session=%s", r.sessionID())
				return
			}
			r.handleAIEvent(event)
		case inj := <-r.injections:
			r.applyInjection(inj)
		}

		if r.state == StateClosing {
			return
		}
	}
}

func (r *Relay) handleFrame(frame telephony.Frame) {
	switch frame.Event {
	case telephony.EventStart:
		r.handleStart(frame)
	case telephony.EventMedia:
		if frame.Media == nil {
			return
		}
		if err := r.ai.AppendAudio(frame.Media.Payload); err != nil {
			log.Printf("[relay] append audio failed session=%s: %v", r.sessionID(), err)
		}
	case telephony.EventStop:
		log.Printf("[relay] stop received session=%s", r.sessionID())
		r.state = StateClosing
	default:
		log.Printf("[relay] ignoring telephony event %q", frame.Event)
	}
}

func (r *Relay) handleStart(frame telephony.Frame) {
	start := frame.Start
	if start == nil {
		log.Printf("[relay] start frame without payload")
		return
	}

	r.session = r.registry.GetOrCreate(start.CallSID)
	r.streamSID = start.StreamSID
	r.session.SetStreamSID(start.StreamSID)
	r.session.SetCallerNumber(start.CustomParameters[telephony.ParamCallerNumber])
	r.session.SetFirstMessage(start.CustomParameters[telephony.ParamFirstMessage])

	if r.session.FirstMessage() != "" {
		r.greetingPending = true
	}
	log.Printf("[relay] stream started call=%s stream=%s", start.CallSID, start.StreamSID)

	r.maybeSendGreeting()
}

func (r *Relay) handleAIEvent(event realtime.ServerEvent) {
	switch event.Type {
	case realtime.EventReady:
		r.aiReady = true
		r.maybeSendGreeting()
	case realtime.EventAudioDelta:
		if r.streamSID == "" || event.Delta == "" {
			return
		}
		if err := r.media.WriteJSON(telephony.NewOutboundMedia(r.streamSID, event.Delta)); err != nil {
			log.Printf("[relay] write media failed session=%s: %v", r.sessionID(), err)
		}
	case realtime.EventResponseDone:
		if r.session != nil {
			r.recorder.AppendAgent(r.session, event.AgentTranscript())
		}
	case realtime.EventInputTranscriptionDone:
		if r.session != nil {
			r.recorder.AppendUser(r.session, event.Transcript)
		}
	case realtime.EventFunctionCallDone:
		r.dispatch(event)
	}
}

// maybeSendGreeting is the greeting gate: the injection fires at the single
// point where the AI leg is ready and a greeting is pending, and the
// pending flag is cleared before sending so no interleaving can deliver it
// twice.
func (r *Relay) maybeSendGreeting() {
	if !r.aiReady || !r.greetingPending {
		return
	}
	r.greetingPending = false

	text := r.session.FirstMessage()
	if err := r.ai.CreateUserMessage(text); err != nil {
		log.Printf("[relay] send greeting failed session=%s: %v", r.sessionID(), err)
		return
	}
	if err := r.ai.CreateResponse(""); err != nil {
		log.Printf("[relay] trigger greeting response failed session=%s: %v", r.sessionID(), err)
		return
	}
	r.state = StateActive
}

func (r *Relay) applyInjection(inj injection) {
	if inj.thread != "" && r.session != nil {
		r.session.SetThreadID(inj.thread)
	}

	if inj.apology {
		if err := r.ai.CreateResponse(apologyInstructions); err != nil {
			log.Printf("[relay] send apology failed session=%s: %v", r.sessionID(), err)
		}
		return
	}

	if err := r.ai.CreateFunctionOutput(inj.callID, inj.output); err != nil {
		log.Printf("[relay] inject function output failed session=%s: %v", r.sessionID(), err)
		return
	}
	if err := r.ai.CreateResponse(inj.instructions); err != nil {
		log.Printf("[relay] request tool response failed session=%s: %v", r.sessionID(), err)
	}
}

// shutdown closes the other leg, flushes the transcript once and removes
// the session. Idempotent.
func (r *Relay) shutdown() {
	if r.state == StateClosed {
		return
	}
	r.state = StateClosing

	if err := r.ai.Close(); err != nil {
		log.Printf("[relay] close ai leg session=%s: %v", r.sessionID(), err)
	}

	if r.session != nil {
		// Delivery uses a fresh context: the call context is already
		// canceled at this point.
		if err := r.recorder.Flush(context.Background(), r.session); err != nil {
			log.Printf("[relay] %v", err)
		}
		r.registry.Delete(r.session.ID)
	}

	r.state = StateClosed
}

func (r *Relay) sessionID() string {
	if r.session == nil {
		return ""
	}
	return r.session.ID
}
