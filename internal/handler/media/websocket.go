// Package media accepts the telephony media-stream connection and runs one
// relay per call.
package media

import (
	"context"
	"encoding/json"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/harbortow/voicegate/internal/config"
	"github.com/harbortow/voicegate/internal/model/call"
	"github.com/harbortow/voicegate/internal/model/telephony"
	"github.com/harbortow/voicegate/internal/service/bridge"
	"github.com/harbortow/voicegate/internal/service/realtime"
	"github.com/harbortow/voicegate/internal/service/transcript"
)

// Handler upgrades the telephony leg and bridges it to the AI leg.
type Handler struct {
	registry   *call.Registry
	recorder   *transcript.Recorder
	automation bridge.Automation
	upgrader   websocket.Upgrader

	// dialAI opens the AI leg for one call. Overridable in tests.
	dialAI func(ctx context.Context) (bridge.AILeg, error)
}

// New builds the media handler. automation may be nil.
func New(registry *call.Registry, recorder *transcript.Recorder, automation bridge.Automation, realtimeCfg config.RealtimeConfig) *Handler {
	return &Handler{
		registry:   registry,
		recorder:   recorder,
		automation: automation,
		upgrader: websocket.Upgrader{
			// The telephony provider connects without a browser origin.
			CheckOrigin:     func(r *http.Request) bool { return true },
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
		},
		dialAI: func(ctx context.Context) (bridge.AILeg, error) {
			client := realtime.NewClient(realtimeCfg)
			if err := client.Connect(ctx); err != nil {
				return nil, err
			}
			return client, nil
		},
	}
}

// RegisterRoutes attaches the media-stream route.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/media-stream", h.handleMediaStream)
}

func (h *Handler) handleMediaStream(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[media] upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	log.Printf("[media] telephony leg connected from %s", r.RemoteAddr)

	aiLeg, err := h.dialAI(r.Context())
	if err != nil {
		log.Printf("[media] ai leg connect failed: %v", err)
		return
	}

	frames := make(chan telephony.Frame, 64)
	done := make(chan struct{})
	go readFrames(conn, frames, done)

	relay := bridge.NewRelay(h.registry, h.recorder, h.automation, aiLeg, conn)
	relay.Run(r.Context(), frames)
	close(done)

	log.Printf("[media] telephony leg closed from %s", r.RemoteAddr)
}

// readFrames drains the telephony socket into the relay's frame channel.
// Malformed frames are dropped; the channel closes when the socket does.
// done releases the reader once the relay has stopped consuming.
func readFrames(conn *websocket.Conn, frames chan<- telephony.Frame, done <-chan struct{}) {
	defer close(frames)
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("[media] read error: %v", err)
			}
			return
		}

		var frame telephony.Frame
		if err := json.Unmarshal(data, &frame); err != nil {
			log.Printf("[media] dropping malformed frame: %v", err)
			continue
		}

		select {
		case frames <- frame:
		case <-done:
			return
		}
	}
}
