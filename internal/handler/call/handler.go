// Package call handles the inbound call-setup webhook: it provisions the
// session, fetches the personalized greeting and answers with the stream
// connect directive.
package call

import (
	"context"
	"encoding/xml"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"

	callmodel "github.com/harbortow/voicegate/internal/model/call"
	"github.com/harbortow/voicegate/internal/model/telephony"
)

// DefaultGreeting is spoken when the automation endpoint cannot supply a
// personalized one.
const DefaultGreeting = "Hello, this is Harbor Auto and Towing. How can I help you today?"

// Greeter fetches a personalized greeting by caller number. Satisfied by
// *automation.Client.
type Greeter interface {
	FetchGreeting(ctx context.Context, callerNumber string) (string, error)
}

// Handler answers the telephony provider's incoming-call webhook.
type Handler struct {
	registry *callmodel.Registry
	greeter  Greeter
}

// New builds the call-setup handler. greeter may be nil; every call then
// gets the default greeting.
func New(registry *callmodel.Registry, greeter Greeter) *Handler {
	return &Handler{registry: registry, greeter: greeter}
}

// RegisterRoutes attaches the webhook route.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/incoming-call", h.handleIncomingCall)
}

type twimlResponse struct {
	XMLName xml.Name     `xml:"Response"`
	Connect twimlConnect `xml:"Connect"`
}

type twimlConnect struct {
	Stream twimlStream `xml:"Stream"`
}

type twimlStream struct {
	URL        string       `xml:"url,attr"`
	Parameters []twimlParam `xml:"Parameter"`
}

type twimlParam struct {
	Name  string `xml:"name,attr"`
	Value string `xml:"value,attr"`
}

func (h *Handler) handleIncomingCall(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form payload", http.StatusBadRequest)
		return
	}

	callSID := r.FormValue("CallSid")
	caller := r.FormValue("From")
	if callSID == "" {
		http.Error(w, "CallSid is required", http.StatusBadRequest)
		return
	}

	greeting := DefaultGreeting
	if h.greeter != nil {
		fetched, err := h.greeter.FetchGreeting(r.Context(), caller)
		if err != nil {
			log.Printf("[call] greeting fetch failed call=%s, using default: %v", callSID, err)
		} else {
			greeting = fetched
		}
	}

	session := h.registry.GetOrCreate(callSID)
	session.SetCallerNumber(caller)
	session.SetFirstMessage(greeting)

	log.Printf("[call] incoming call=%s from=%s", callSID, caller)

	response := twimlResponse{
		Connect: twimlConnect{
			Stream: twimlStream{
				URL: "wss://" + requestHost(r) + "/media-stream",
				Parameters: []twimlParam{
					{Name: telephony.ParamFirstMessage, Value: greeting},
					{Name: telephony.ParamCallerNumber, Value: caller},
				},
			},
		},
	}

	w.Header().Set("Content-Type", "text/xml")
	w.Write([]byte(xml.Header))
	if err := xml.NewEncoder(w).Encode(response); err != nil {
		log.Printf("[call] encode twiml failed call=%s: %v", callSID, err)
	}
}

// requestHost resolves the externally visible host, honoring the reverse
// proxy header when present.
func requestHost(r *http.Request) string {
	if host := r.Header.Get("X-Forwarded-Host"); host != "" {
		return host
	}
	return r.Host
}
