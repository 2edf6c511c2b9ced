package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config aggregates service configuration.
type Config struct {
	Server     ServerConfig
	Realtime   RealtimeConfig
	Automation AutomationConfig
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	server, err := loadServerConfig()
	if err != nil {
		return nil, err
	}

	realtime := loadRealtimeConfig()

	automation, err := loadAutomationConfig()
	if err != nil {
		return nil, err
	}

	return &Config{Server: server, Realtime: realtime, Automation: automation}, nil
}

// ServerConfig describes the HTTP listener.
type ServerConfig struct {
	Addr string
}

func loadServerConfig() (ServerConfig, error) {
	port := strings.TrimSpace(os.Getenv("PORT"))
	if port == "" {
		port = "8080"
	}

	if strings.Contains(port, ":") {
		// Allow ":8080" or "127.0.0.1:8080" directly.
		return ServerConfig{Addr: port}, nil
	}

	if strings.Contains(port, " ") {
		return ServerConfig{}, fmt.Errorf("invalid PORT value: %q", port)
	}

	return ServerConfig{Addr: ":" + port}, nil
}

// RealtimeConfig describes the AI realtime endpoint connection.
type RealtimeConfig struct {
	APIKey  string
	Model   string
	Voice   string
	BaseURL string
}

// Enabled reports whether the realtime credentials are present.
func (c RealtimeConfig) Enabled() bool {
	return c.APIKey != ""
}

func loadRealtimeConfig() RealtimeConfig {
	return RealtimeConfig{
		APIKey:  strings.TrimSpace(os.Getenv("OPENAI_API_KEY")),
		Model:   getEnvOrDefault("REALTIME_MODEL", "gpt-4o-realtime-preview-2024-10-01"),
		Voice:   getEnvOrDefault("REALTIME_VOICE", "alloy"),
		BaseURL: getEnvOrDefault("REALTIME_BASE_URL", "wss://api.openai.com/v1/realtime"),
	}
}

// AutomationConfig describes the external automation webhook.
type AutomationConfig struct {
	WebhookURL string
	Timeout    time.Duration
}

// Enabled reports whether the webhook URL is configured.
func (c AutomationConfig) Enabled() bool {
	return c.WebhookURL != ""
}

func loadAutomationConfig() (AutomationConfig, error) {
	timeout, err := parseOptionalIntEnv("AUTOMATION_TIMEOUT")
	if err != nil {
		return AutomationConfig{}, err
	}
	timeoutSeconds := 15
	if timeout != nil {
		if *timeout < 1 {
			return AutomationConfig{}, fmt.Errorf("invalid AUTOMATION_TIMEOUT value: %d", *timeout)
		}
		timeoutSeconds = *timeout
	}

	return AutomationConfig{
		WebhookURL: strings.TrimSpace(os.Getenv("AUTOMATION_WEBHOOK_URL")),
		Timeout:    time.Duration(timeoutSeconds) * time.Second,
	}, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func parseOptionalIntEnv(key string) (*int, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return nil, nil
	}

	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}

	val, err := strconv.Atoi(value)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value %q: %w", key, value, err)
	}
	return &val, nil
}
