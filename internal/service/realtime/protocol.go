// Package realtime manages the per-call connection to the AI realtime
// endpoint: one outbound WebSocket, a single configuration event on
// connect, JSON protocol events in both directions.
package realtime

import "encoding/json"

// Server event types consumed by the relay.
const (
	// EventReady is synthetic: emitted locally once the session
	// configuration has been written. Nothing may be sent to the
	// conversation before it.
	EventReady = "ready"

	EventAudioDelta             = "response.audio.delta"
	EventResponseDone           = "response.done"
	EventInputTranscriptionDone = "conversation.item.input_audio_transcription.completed"
	EventFunctionCallDone       = "response.function_call_arguments.done"
	EventError                  = "error"
)

// ServerEvent is one inbound protocol event, parsed just far enough for the
// relay. Unknown event types pass through with only Type set.
type ServerEvent struct {
	Type string `json:"type"`

	// Delta carries the base64 audio chunk of response.audio.delta.
	Delta string `json:"delta"`

	// Transcript carries the caller's transcribed speech.
	Transcript string `json:"transcript"`

	// Function call fields of response.function_call_arguments.done.
	Name      string `json:"name"`
	CallID    string `json:"call_id"`
	Arguments string `json:"arguments"`

	Response *doneResponse  `json:"response"`
	Error    *protocolError `json:"error"`
}

type doneResponse struct {
	Output []struct {
		Content []struct {
			Type       string `json:"type"`
			Transcript string `json:"transcript"`
		} `json:"content"`
	} `json:"output"`
}

type protocolError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// AgentTranscript extracts the spoken transcript from a response.done
// event. Empty when the response carried no audio output.
func (e *ServerEvent) AgentTranscript() string {
	if e.Response == nil {
		return ""
	}
	for _, item := range e.Response.Output {
		for _, content := range item.Content {
			if content.Type == "audio" && content.Transcript != "" {
				return content.Transcript
			}
		}
	}
	return ""
}

// clientEvent is the outbound envelope. Exactly one payload field is set
// depending on Type.
type clientEvent struct {
	EventID  string            `json:"event_id,omitempty"`
	Type     string            `json:"type"`
	Session  *sessionConfig    `json:"session,omitempty"`
	Item     *conversationItem `json:"item,omitempty"`
	Response *responseParams   `json:"response,omitempty"`
	Audio    string            `json:"audio,omitempty"`
}

type sessionConfig struct {
	TurnDetection           turnDetection      `json:"turn_detection"`
	InputAudioFormat        string             `json:"input_audio_format"`
	OutputAudioFormat       string             `json:"output_audio_format"`
	Voice                   string             `json:"voice"`
	Instructions            string             `json:"instructions"`
	Modalities              []string           `json:"modalities"`
	Temperature             float64            `json:"temperature"`
	InputAudioTranscription audioTranscription `json:"input_audio_transcription"`
	Tools                   []tool             `json:"tools"`
	ToolChoice              string             `json:"tool_choice"`
}

type turnDetection struct {
	Type string `json:"type"`
}

type audioTranscription struct {
	Model string `json:"model"`
}

type tool struct {
	Type        string         `json:"type"`
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  toolParameters `json:"parameters"`
}

type toolParameters struct {
	Type       string                  `json:"type"`
	Properties map[string]toolProperty `json:"properties"`
	Required   []string                `json:"required"`
}

type toolProperty struct {
	Type        string `json:"type"`
	Description string `json:"description"`
}

type conversationItem struct {
	Type    string        `json:"type"`
	Role    string        `json:"role,omitempty"`
	CallID  string        `json:"call_id,omitempty"`
	Output  string        `json:"output,omitempty"`
	Content []itemContent `json:"content,omitempty"`
}

type itemContent struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type responseParams struct {
	Instructions string `json:"instructions,omitempty"`
}

// Tool names advertised to the model.
const (
	ToolQuestionAndAnswer = "question_and_answer"
	ToolBookTow           = "book_tow"
)

// systemPrompt is the fixed persona for every call.
const systemPrompt = "You are the phone assistant for Harbor Auto and Towing. " +
	"You help customers with questions about the shop and book tow services. " +
	"Be warm, concise and professional; this is a live phone call, so keep " +
	"answers short and natural. Use the question_and_answer tool for any " +
	"question about opening hours, services or pricing, and the book_tow tool " +
	"when a customer asks for a tow. Never invent answers to shop questions."

func newSessionConfig(voice string) *sessionConfig {
	return &sessionConfig{
		TurnDetection:           turnDetection{Type: "server_vad"},
		InputAudioFormat:        "g711_ulaw",
		OutputAudioFormat:       "g711_ulaw",
		Voice:                   voice,
		Instructions:            systemPrompt,
		Modalities:              []string{"text", "audio"},
		Temperature:             0.8,
		InputAudioTranscription: audioTranscription{Model: "whisper-1"},
		ToolChoice:              "auto",
		Tools: []tool{
			{
				Type:        "function",
				Name:        ToolQuestionAndAnswer,
				Description: "Answer a customer question about Harbor Auto and Towing, such as opening hours, services or pricing.",
				Parameters: toolParameters{
					Type: "object",
					Properties: map[string]toolProperty{
						"question": {Type: "string", Description: "The customer's question."},
					},
					Required: []string{"question"},
				},
			},
			{
				Type:        "function",
				Name:        ToolBookTow,
				Description: "Book a tow service for the caller's vehicle at the given address.",
				Parameters: toolParameters{
					Type: "object",
					Properties: map[string]toolProperty{
						"address": {Type: "string", Description: "The pickup address for the tow."},
					},
					Required: []string{"address"},
				},
			},
		},
	}
}

// DecodeArguments parses a tool call's JSON-encoded arguments into dst.
func DecodeArguments(arguments string, dst any) error {
	return json.Unmarshal([]byte(arguments), dst)
}
