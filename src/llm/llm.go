package llm

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"screen-timer-llm/src/screenshot"
)

const (
	ProviderGemini     = "gemini"
	ProviderOpenRouter = "openrouter"

	DefaultGeminiModel     = "gemini-2.0-flash"
	DefaultOpenRouterModel = "google/gemini-2.0-flash-001"

	defaultTimeout = 45 * time.Second
	maxErrorBody   = 512
)

// ErrNoText is returned when the API answered but carried no text.
var ErrNoText = errors.New("response contained no text")

// StatusError reports a non-success HTTP status.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("API Error: %d %s", e.Code, http.StatusText(e.Code))
	}
	return fmt.Sprintf("API Error: %d %s - %s", e.Code, http.StatusText(e.Code), e.Body)
}

// Client sends a screenshot plus a prompt to a multimodal model.
type Client interface {
	Query(ctx context.Context, img screenshot.Image, prompt string) (string, error)
}

type Config struct {
	Provider  string
	APIKey    string
	Model     string
	Providers []string
	// BaseURL overrides the provider endpoint (tests, proxies).
	BaseURL    string
	HTTPClient *http.Client
}

// New returns the client for cfg.Provider.
func New(cfg Config) (Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("API key is required")
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{Timeout: defaultTimeout}
	}
	switch strings.ToLower(strings.TrimSpace(cfg.Provider)) {
	case "", ProviderGemini:
		if cfg.Model == "" {
			cfg.Model = DefaultGeminiModel
		}
		return newGemini(cfg), nil
	case ProviderOpenRouter:
		if cfg.Model == "" {
			cfg.Model = DefaultOpenRouterModel
		}
		return newOpenRouter(cfg), nil
	default:
		return nil, fmt.Errorf("unknown provider %q", cfg.Provider)
	}
}

func checkStatus(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	return &StatusError{Code: resp.StatusCode, Body: strings.TrimSpace(string(body))}
}
