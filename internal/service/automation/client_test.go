package automation

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/harbortow/voicegate/internal/config"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	client := NewClient(config.AutomationConfig{WebhookURL: server.URL, Timeout: 2 * time.Second})
	return client, server
}

func decodeBody(t *testing.T, r *http.Request) map[string]string {
	t.Helper()
	raw, err := io.ReadAll(r.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	var body map[string]string
	if err := json.Unmarshal(raw, &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	return body
}

func TestFetchGreeting(t *testing.T) {
	var got map[string]string
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		got = decodeBody(t, r)
		w.Write([]byte(`{"firstMessage":"Hello Jane, welcome back!"}`))
	})

	greeting, err := client.FetchGreeting(context.Background(), "+15551234")
	if err != nil {
		t.Fatalf("FetchGreeting err: %v", err)
	}
	if greeting != "Hello Jane, welcome back!" {
		t.Fatalf("unexpected greeting: %q", greeting)
	}
	if got["route"] != "1" || got["data1"] != "+15551234" {
		t.Fatalf("unexpected request body: %v", got)
	}
}

func TestFetchGreetingMissingMessage(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{}`))
	})

	if _, err := client.FetchGreeting(context.Background(), "+15551234"); err == nil {
		t.Fatal("expected error for empty firstMessage")
	}
}

func TestDeliverTranscript(t *testing.T) {
	var got map[string]string
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		got = decodeBody(t, r)
		w.WriteHeader(http.StatusOK)
	})

	err := client.DeliverTranscript(context.Background(), "+15551234", "agent: hi\nuser: hello")
	if err != nil {
		t.Fatalf("DeliverTranscript err: %v", err)
	}
	if got["route"] != "2" || got["data1"] != "+15551234" || got["data2"] != "agent: hi\nuser: hello" {
		t.Fatalf("unexpected request body: %v", got)
	}
}

func TestAskQuestionCarriesThread(t *testing.T) {
	var got map[string]string
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		got = decodeBody(t, r)
		w.Write([]byte(`{"message":"We open at nine.","thread":"thread-7"}`))
	})

	answer, err := client.AskQuestion(context.Background(), "When do you open?", "thread-6")
	if err != nil {
		t.Fatalf("AskQuestion err: %v", err)
	}
	if got["route"] != "3" || got["data1"] != "When do you open?" || got["data2"] != "thread-6" {
		t.Fatalf("unexpected request body: %v", got)
	}
	if answer.Message != "We open at nine." || answer.Thread != "thread-7" {
		t.Fatalf("unexpected answer: %+v", answer)
	}
}

func TestBookTow(t *testing.T) {
	var got map[string]string
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		got = decodeBody(t, r)
		w.Write([]byte(`{"message":"Tow booked for 3pm"}`))
	})

	outcome, err := client.BookTow(context.Background(), "+15551234", "221B Baker St")
	if err != nil {
		t.Fatalf("BookTow err: %v", err)
	}
	if got["route"] != "4" || got["data1"] != "+15551234" || got["data2"] != "221B Baker St" {
		t.Fatalf("unexpected request body: %v", got)
	}
	if outcome != "Tow booked for 3pm" {
		t.Fatalf("unexpected outcome: %q", outcome)
	}
}

func TestNonSuccessStatusIsError(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	if _, err := client.AskQuestion(context.Background(), "hours?", ""); err == nil {
		t.Fatal("expected error on 500 response")
	}
}

func TestUnparsableResponseIsError(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`not json`))
	})

	if _, err := client.BookTow(context.Background(), "+1555", "somewhere"); err == nil {
		t.Fatal("expected error on unparsable response")
	}
}
