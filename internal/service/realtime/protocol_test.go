package realtime

import (
	"encoding/json"
	"testing"
)

func TestAgentTranscriptExtraction(t *testing.T) {
	raw := `{
		"type": "response.done",
		"response": {
			"output": [
				{"content": [
					{"type": "text", "transcript": ""},
					{"type": "audio", "transcript": "We open at nine."}
				]}
			]
		}
	}`

	var event ServerEvent
	if err := json.Unmarshal([]byte(raw), &event); err != nil {
		t.Fatalf("unmarshal err: %v", err)
	}
	if got := event.AgentTranscript(); got != "We open at nine." {
		t.Fatalf("unexpected transcript: %q", got)
	}
}

func TestAgentTranscriptEmptyWithoutAudio(t *testing.T) {
	var event ServerEvent
	if got := event.AgentTranscript(); got != "" {
		t.Fatalf("expected empty transcript, got %q", got)
	}

	if err := json.Unmarshal([]byte(`{"type":"response.done","response":{"output":[]}}`), &event); err != nil {
		t.Fatalf("unmarshal err: %v", err)
	}
	if got := event.AgentTranscript(); got != "" {
		t.Fatalf("expected empty transcript, got %q", got)
	}
}

func TestFunctionCallEventFields(t *testing.T) {
	raw := `{
		"type": "response.function_call_arguments.done",
		"name": "book_tow",
		"call_id": "call_42",
		"arguments": "{\"address\":\"221B Baker St\"}"
	}`

	var event ServerEvent
	if err := json.Unmarshal([]byte(raw), &event); err != nil {
		t.Fatalf("unmarshal err: %v", err)
	}
	if event.Name != ToolBookTow || event.CallID != "call_42" {
		t.Fatalf("unexpected event: %+v", event)
	}

	var args struct {
		Address string `json:"address"`
	}
	if err := DecodeArguments(event.Arguments, &args); err != nil {
		t.Fatalf("DecodeArguments err: %v", err)
	}
	if args.Address != "221B Baker St" {
		t.Fatalf("unexpected address: %q", args.Address)
	}
}

func TestDecodeArgumentsRejectsBadJSON(t *testing.T) {
	var args struct{}
	if err := DecodeArguments(`{"address":`, &args); err == nil {
		t.Fatal("expected error for truncated JSON")
	}
}

func TestSessionConfigShape(t *testing.T) {
	cfg := newSessionConfig("alloy")

	if cfg.InputAudioFormat != "g711_ulaw" || cfg.OutputAudioFormat != "g711_ulaw" {
		t.Fatalf("audio formats must match the telephony leg: %+v", cfg)
	}
	if cfg.TurnDetection.Type != "server_vad" {
		t.Fatalf("unexpected turn detection: %q", cfg.TurnDetection.Type)
	}
	if cfg.ToolChoice != "auto" {
		t.Fatalf("unexpected tool choice: %q", cfg.ToolChoice)
	}
	if cfg.InputAudioTranscription.Model == "" {
		t.Fatal("input transcription model must be set")
	}

	if len(cfg.Tools) != 2 {
		t.Fatalf("expected two tools, got %d", len(cfg.Tools))
	}
	byName := map[string]tool{}
	for _, tl := range cfg.Tools {
		byName[tl.Name] = tl
	}

	qa, ok := byName[ToolQuestionAndAnswer]
	if !ok {
		t.Fatal("question_and_answer tool missing")
	}
	if len(qa.Parameters.Required) != 1 || qa.Parameters.Required[0] != "question" {
		t.Fatalf("question_and_answer required fields: %v", qa.Parameters.Required)
	}

	tow, ok := byName[ToolBookTow]
	if !ok {
		t.Fatal("book_tow tool missing")
	}
	if len(tow.Parameters.Required) != 1 || tow.Parameters.Required[0] != "address" {
		t.Fatalf("book_tow required fields: %v", tow.Parameters.Required)
	}
	if tow.Description == "" || qa.Description == "" {
		t.Fatal("tool descriptions must be set")
	}
}
