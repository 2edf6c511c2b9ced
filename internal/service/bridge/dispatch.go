package bridge

import (
	"context"
	"log"

	"github.com/harbortow/voicegate/internal/model/call"
	"github.com/harbortow/voicegate/internal/service/automation"
	"github.com/harbortow/voicegate/internal/service/realtime"
)

// Automation is the webhook surface used for tool calls. Satisfied by
// *automation.Client.
type Automation interface {
	AskQuestion(ctx context.Context, question, threadID string) (automation.Answer, error)
	BookTow(ctx context.Context, callerNumber, address string) (string, error)
}

// Per-turn instructions attached to the response request after a tool
// round trip.
const (
	answerInstructions  = "Answer the caller's question concisely using the provided result."
	towInstructions     = "Relay the tow booking outcome to the caller in one short, friendly sentence."
	apologyInstructions = "Apologize to the caller: the request could not be completed right now, and offer to try again in a moment."
)

// injection is the deferred outcome of one tool round trip. Exactly one is
// posted back to the relay loop per tool-invocation event.
type injection struct {
	callID       string
	output       string
	instructions string
	thread       string
	apology      bool
}

// dispatch hands a tool-invocation event to the automation endpoint without
// blocking the relay loop. The round trip runs in its own goroutine and
// posts its single injection back through r.injections; an unknown tool
// name is logged and produces nothing.
func (r *Relay) dispatch(event realtime.ServerEvent) {
	switch event.Name {
	case realtime.ToolQuestionAndAnswer, realtime.ToolBookTow:
	default:
		log.Printf("[dispatch] unknown tool %q session=%s", event.Name, r.sessionID())
		return
	}

	ctx := r.ctx
	session := r.session
	sessionID := r.sessionID()
	auto := r.automation
	go func() {
		inj := roundTrip(ctx, auto, session, sessionID, event)
		select {
		case r.injections <- inj:
		case <-ctx.Done():
		}
	}()
}

func roundTrip(ctx context.Context, auto Automation, session *call.Session, sessionID string, event realtime.ServerEvent) injection {
	if auto == nil {
		log.Printf("[dispatch] automation endpoint not configured, tool %s session=%s", event.Name, sessionID)
		return injection{apology: true}
	}

	switch event.Name {
	case realtime.ToolQuestionAndAnswer:
		var args struct {
			Question string `json:"question"`
		}
		if err := realtime.DecodeArguments(event.Arguments, &args); err != nil {
			log.Printf("[dispatch] bad %s arguments session=%s: %v", event.Name, sessionID, err)
			return injection{apology: true}
		}

		threadID := ""
		if session != nil {
			threadID = session.ThreadID()
		}
		answer, err := auto.AskQuestion(ctx, args.Question, threadID)
		if err != nil {
			log.Printf("[dispatch] question_and_answer failed session=%s: %v", sessionID, err)
			return injection{apology: true}
		}
		return injection{
			callID:       event.CallID,
			output:       answer.Message,
			instructions: answerInstructions,
			thread:       answer.Thread,
		}

	case realtime.ToolBookTow:
		var args struct {
			Address string `json:"address"`
		}
		if err := realtime.DecodeArguments(event.Arguments, &args); err != nil {
			log.Printf("[dispatch] bad %s arguments session=%s: %v", event.Name, sessionID, err)
			return injection{apology: true}
		}

		caller := ""
		if session != nil {
			caller = session.CallerNumber()
		}
		outcome, err := auto.BookTow(ctx, caller, args.Address)
		if err != nil {
			log.Printf("[dispatch] book_tow failed session=%s: %v", sessionID, err)
			return injection{apology: true}
		}
		return injection{
			callID:       event.CallID,
			output:       outcome,
			instructions: towInstructions,
		}
	}

	return injection{apology: true}
}
