// Package automation talks to the external automation webhook. Every
// interaction is a single POST of {route, data1, data2}; there are no
// retries, a failed call is reported to the caller and logged there.
package automation

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/harbortow/voicegate/internal/config"
)

// Routes understood by the automation endpoint.
const (
	routeGreeting   = "1"
	routeTranscript = "2"
	routeQuestion   = "3"
	routeBookTow    = "4"
)

// Client performs synchronous round trips to the automation endpoint.
type Client struct {
	webhookURL string
	httpClient *http.Client
}

// NewClient builds a client from configuration.
func NewClient(cfg config.AutomationConfig) *Client {
	return &Client{
		webhookURL: cfg.WebhookURL,
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}
}

type request struct {
	Route string `json:"route"`
	Data1 string `json:"data1"`
	Data2 string `json:"data2"`
}

type response struct {
	FirstMessage string `json:"firstMessage"`
	Message      string `json:"message"`
	Thread       string `json:"thread"`
}

// Answer is the result of a question dispatch. Thread, when present,
// correlates follow-up questions within the same call.
type Answer struct {
	Message string
	Thread  string
}

// FetchGreeting asks for a personalized greeting by caller number.
func (c *Client) FetchGreeting(ctx context.Context, callerNumber string) (string, error) {
	resp, err := c.post(ctx, request{Route: routeGreeting, Data1: callerNumber})
	if err != nil {
		return "", err
	}
	if resp.FirstMessage == "" {
		return "", fmt.Errorf("automation: greeting response missing firstMessage")
	}
	return resp.FirstMessage, nil
}

// DeliverTranscript sends the final call transcript. The response body is
// ignored beyond the status check.
func (c *Client) DeliverTranscript(ctx context.Context, callerNumber, transcript string) error {
	_, err := c.post(ctx, request{Route: routeTranscript, Data1: callerNumber, Data2: transcript})
	return err
}

// AskQuestion answers a customer FAQ. threadID may be empty on the first
// question of a call.
func (c *Client) AskQuestion(ctx context.Context, question, threadID string) (Answer, error) {
	resp, err := c.post(ctx, request{Route: routeQuestion, Data1: question, Data2: threadID})
	if err != nil {
		return Answer{}, err
	}
	return Answer{Message: resp.Message, Thread: resp.Thread}, nil
}

// BookTow books a tow to the given address for the caller.
func (c *Client) BookTow(ctx context.Context, callerNumber, address string) (string, error) {
	resp, err := c.post(ctx, request{Route: routeBookTow, Data1: callerNumber, Data2: address})
	if err != nil {
		return "", err
	}
	return resp.Message, nil
}

func (c *Client) post(ctx context.Context, req request) (*response, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("automation: encode request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.webhookURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("automation: build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	started := time.Now()
	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("automation: route %s failed after %s: %w", req.Route, time.Since(started).Round(time.Millisecond), err)
	}
	defer httpResp.Body.Close()

	if httpResp.StatusCode < 200 || httpResp.StatusCode > 299 {
		return nil, fmt.Errorf("automation: route %s returned status %d", req.Route, httpResp.StatusCode)
	}

	raw, err := io.ReadAll(io.LimitReader(httpResp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("automation: read response: %w", err)
	}

	var resp response
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &resp); err != nil {
			return nil, fmt.Errorf("automation: decode response: %w", err)
		}
	}
	return &resp, nil
}
