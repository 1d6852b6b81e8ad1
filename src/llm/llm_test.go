package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"screen-timer-llm/src/screenshot"
)

var testImage = screenshot.Image{Data: []byte{0xFF, 0xD8, 0xFF, 0xE0}, MIMEType: "image/jpeg"}

func TestNewValidation(t *testing.T) {
	if _, err := New(Config{}); err == nil {
		t.Error("Expected error with missing API key")
	}
	if _, err := New(Config{APIKey: "k", Provider: "carrier-pigeon"}); err == nil {
		t.Error("Expected error with unknown provider")
	}
	for _, provider := range []string{"", "gemini", "OpenRouter"} {
		if _, err := New(Config{APIKey: "k", Provider: provider}); err != nil {
			t.Errorf("New(provider=%q) failed: %v", provider, err)
		}
	}
}

func TestGeminiQuery(t *testing.T) {
	var gotPath, gotKey string
	var gotReq geminiRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotKey = r.URL.Query().Get("key")
		if err := json.NewDecoder(r.Body).Decode(&gotReq); err != nil {
			t.Errorf("decode request: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":"A terminal running go test"}]}}]}`))
	}))
	defer srv.Close()

	client, err := New(Config{APIKey: "secret", Model: "gemini-2.0-flash", BaseURL: srv.URL})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	text, err := client.Query(context.Background(), testImage, "Describe this")
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	if text != "A terminal running go test" {
		t.Fatalf("Unexpected text %q", text)
	}
	if gotPath != "/models/gemini-2.0-flash:generateContent" {
		t.Errorf("Unexpected path %q", gotPath)
	}
	if gotKey != "secret" {
		t.Errorf("Expected key query parameter, got %q", gotKey)
	}
	parts := gotReq.Contents[0].Parts
	if len(parts) != 2 || parts[0].Text != "Describe this" || parts[1].InlineData == nil {
		t.Fatalf("Unexpected request parts %+v", parts)
	}
	if parts[1].InlineData.MimeType != "image/jpeg" || parts[1].InlineData.Data != "/9j/4A==" {
		t.Errorf("Unexpected inline data %+v", parts[1].InlineData)
	}
}

func TestGeminiErrors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		check  func(error) bool
	}{
		{"status", http.StatusForbidden, `{"error":{"message":"denied"}}`, func(err error) bool {
			var se *StatusError
			return errors.As(err, &se) && se.Code == http.StatusForbidden && strings.Contains(se.Body, "denied")
		}},
		{"no candidates", http.StatusOK, `{"candidates":[]}`, func(err error) bool { return errors.Is(err, ErrNoText) }},
		{"no parts", http.StatusOK, `{"candidates":[{"content":{"parts":[]}}]}`, func(err error) bool { return errors.Is(err, ErrNoText) }},
		{"malformed", http.StatusOK, `not json`, func(err error) bool { return err != nil && strings.Contains(err.Error(), "parse") }},
		{"api error", http.StatusOK, `{"error":{"code":400,"message":"bad image","status":"INVALID_ARGUMENT"}}`, func(err error) bool {
			return err != nil && strings.Contains(err.Error(), "bad image")
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			client, _ := New(Config{APIKey: "k", BaseURL: srv.URL})
			_, err := client.Query(context.Background(), testImage, "p")
			if !tt.check(err) {
				t.Fatalf("Unexpected error: %v", err)
			}
		})
	}
}

func TestGeminiTransportErrorHidesKey(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	client, _ := New(Config{APIKey: "very-secret-key", BaseURL: url})
	_, err := client.Query(context.Background(), testImage, "p")
	if err == nil {
		t.Fatal("Expected connection error")
	}
	if strings.Contains(err.Error(), "very-secret-key") {
		t.Fatalf("Error leaks API key: %v", err)
	}
}

func TestOpenRouterQuery(t *testing.T) {
	var gotReq ChatRequest
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		if r.URL.Path != "/chat/completions" {
			t.Errorf("Unexpected path %q", r.URL.Path)
		}
		_ = json.NewDecoder(r.Body).Decode(&gotReq)
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"two windows side by side"}}]}`))
	}))
	defer srv.Close()

	client, err := New(Config{Provider: ProviderOpenRouter, APIKey: "or-key", BaseURL: srv.URL, Providers: []string{"google-vertex"}})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	text, err := client.Query(context.Background(), testImage, "What is open?")
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	if text != "two windows side by side" {
		t.Fatalf("Unexpected text %q", text)
	}
	if gotAuth != "Bearer or-key" {
		t.Errorf("Unexpected Authorization %q", gotAuth)
	}
	if gotReq.Model != DefaultOpenRouterModel {
		t.Errorf("Expected default model, got %q", gotReq.Model)
	}
	if gotReq.Provider == nil || gotReq.Provider.Order[0] != "google-vertex" || *gotReq.Provider.AllowFallbacks {
		t.Errorf("Unexpected provider preferences %+v", gotReq.Provider)
	}
	content := gotReq.Messages[0].Content
	if content[0].Text != "What is open?" || !strings.HasPrefix(content[1].ImageURL.URL, "data:image/jpeg;base64,") {
		t.Errorf("Unexpected content %+v", content)
	}
}

func TestOpenRouterNoChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[]}`))
	}))
	defer srv.Close()

	client, _ := New(Config{Provider: ProviderOpenRouter, APIKey: "k", BaseURL: srv.URL})
	if _, err := client.Query(context.Background(), testImage, "p"); !errors.Is(err, ErrNoText) {
		t.Fatalf("Expected ErrNoText, got %v", err)
	}
}
