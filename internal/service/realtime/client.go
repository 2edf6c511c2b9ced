package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/harbortow/voicegate/internal/config"
)

// Client owns one outbound realtime connection for a single call. Connect
// sends the one-time session configuration; afterwards events arrive on
// Events and the Send helpers inject protocol events. The zero value is not
// usable, construct with NewClient.
//
// Send helpers must be called from a single goroutine (the relay loop);
// the connection has no write lock.
type Client struct {
	cfg    config.RealtimeConfig
	dialer *websocket.Dialer

	conn   *websocket.Conn
	events chan ServerEvent
}

// NewClient builds an unconnected client.
func NewClient(cfg config.RealtimeConfig) *Client {
	return &Client{
		cfg: cfg,
		dialer: &websocket.Dialer{
			HandshakeTimeout: 30 * time.Second,
		},
		events: make(chan ServerEvent, 64),
	}
}

// Connect dials the realtime endpoint and sends the session configuration.
// A synthetic ready event is queued once the configuration is written; the
// read loop then runs until the socket closes, after which Events is closed.
// There is no reconnection.
func (c *Client) Connect(ctx context.Context) error {
	endpoint, err := url.Parse(c.cfg.BaseURL)
	if err != nil {
		return fmt.Errorf("realtime: invalid base URL: %w", err)
	}
	query := endpoint.Query()
	query.Set("model", c.cfg.Model)
	endpoint.RawQuery = query.Encode()

	header := http.Header{}
	header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	header.Set("OpenAI-Beta", "realtime=v1")

	conn, _, err := c.dialer.DialContext(ctx, endpoint.String(), header)
	if err != nil {
		return fmt.Errorf("realtime: dial %s: %w", endpoint.Host, err)
	}
	c.conn = conn

	if err := c.send(clientEvent{
		Type:    "session.update",
		Session: newSessionConfig(c.cfg.Voice),
	}); err != nil {
		conn.Close()
		return fmt.Errorf("realtime: send session.update: %w", err)
	}

	c.events <- ServerEvent{Type: EventReady}
	go c.readLoop()
	return nil
}

// Events delivers inbound protocol events in arrival order. The channel is
// closed when the AI leg drops.
func (c *Client) Events() <-chan ServerEvent {
	return c.events
}

// AppendAudio appends one base64 audio chunk to the input buffer,
// unmodified passthrough from the telephony leg.
func (c *Client) AppendAudio(payload string) error {
	return c.send(clientEvent{Type: "input_audio_buffer.append", Audio: payload})
}

// CreateUserMessage injects a user text message into the conversation.
func (c *Client) CreateUserMessage(text string) error {
	return c.send(clientEvent{
		Type: "conversation.item.create",
		Item: &conversationItem{
			Type:    "message",
			Role:    "user",
			Content: []itemContent{{Type: "input_text", Text: text}},
		},
	})
}

// CreateFunctionOutput injects the result of a tool call back into the
// conversation, correlated by the call id from the triggering event.
func (c *Client) CreateFunctionOutput(callID, output string) error {
	return c.send(clientEvent{
		Type: "conversation.item.create",
		Item: &conversationItem{
			Type:   "function_call_output",
			CallID: callID,
			Output: output,
		},
	})
}

// CreateResponse requests a spoken response, optionally with per-turn
// instructions.
func (c *Client) CreateResponse(instructions string) error {
	event := clientEvent{Type: "response.create"}
	if instructions != "" {
		event.Response = &responseParams{Instructions: instructions}
	}
	return c.send(event)
}

// Close tears the connection down. Safe to call more than once.
func (c *Client) Close() error {
	if c.conn == nil {
		return nil
	}
	return c.conn.Close()
}

func (c *Client) send(event clientEvent) error {
	if c.conn == nil {
		return fmt.Errorf("realtime: not connected")
	}
	event.EventID = uuid.NewString()
	return c.conn.WriteJSON(event)
}

func (c *Client) readLoop() {
	defer close(c.events)
	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Printf("[realtime] read error: %v", err)
			}
			return
		}
		var event ServerEvent
		if err := json.Unmarshal(data, &event); err != nil {
			// Malformed frames are dropped, the session continues.
			log.Printf("[realtime] dropping malformed event: %v", err)
			continue
		}
		if event.Type == EventError && event.Error != nil {
			log.Printf("[realtime] protocol error code=%s message=%s", event.Error.Code, event.Error.Message)
		}
		c.events <- event
	}
}
