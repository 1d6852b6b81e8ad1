package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"screen-timer-llm/src/config"
	"screen-timer-llm/src/llm"
	"screen-timer-llm/src/screenshot"
)

var pngHeader = []byte{0x89, 'P', 'N', 'G', 0x0d, 0x0a, 0x1a, 0x0a, 0, 0, 0, 0x0d, 'I', 'H', 'D', 'R'}

type fakeClient struct {
	text   string
	err    error
	prompt string
	img    screenshot.Image
}

func (f *fakeClient) Query(ctx context.Context, img screenshot.Image, prompt string) (string, error) {
	f.prompt = prompt
	f.img = img
	return f.text, f.err
}

func setup(t *testing.T, client *fakeClient) (configPath, imagePath string) {
	t.Helper()
	for _, key := range []string{"SCREEN_TIMER_API_KEY", config.GeminiKeyEnvVar, config.OpenRouterEnvVar, config.APIKeyPathEnvVar, config.EnvFileEnvVar} {
		t.Setenv(key, "")
	}
	dir := t.TempDir()
	configPath = filepath.Join(dir, config.FileName)
	if err := os.WriteFile(configPath, []byte(`{"api_key":"test-key","prompt":"What is shown?"}`), 0600); err != nil {
		t.Fatal(err)
	}
	imagePath = filepath.Join(dir, "shot.png")
	if err := os.WriteFile(imagePath, pngHeader, 0600); err != nil {
		t.Fatal(err)
	}
	prev := newClient
	newClient = func(llm.Config) (llm.Client, error) { return client, nil }
	t.Cleanup(func() { newClient = prev })
	return configPath, imagePath
}

func TestAskImagePlainText(t *testing.T) {
	client := &fakeClient{text: "A login form"}
	configPath, imagePath := setup(t, client)

	var stdout, stderr bytes.Buffer
	err := runWithArgs([]string{"screen-timer-cli", "ask-image", "--file", imagePath, "--config", configPath}, nil, &stdout, &stderr)
	if err != nil {
		t.Fatalf("ask-image failed: %v", err)
	}
	if stdout.String() != "A login form" {
		t.Fatalf("unexpected output %q", stdout.String())
	}
	if client.prompt != "What is shown?" || client.img.MIMEType != "image/png" {
		t.Fatalf("unexpected query prompt=%q mime=%q", client.prompt, client.img.MIMEType)
	}
}

func TestAskImageJSONFromStdin(t *testing.T) {
	client := &fakeClient{text: "two windows"}
	configPath, _ := setup(t, client)

	var stdout bytes.Buffer
	args := []string{"screen-timer-cli", "ask-image", "--file", "-", "--json", "-p", "Count the windows", "--config", configPath}
	if err := runWithArgs(args, bytes.NewReader(pngHeader), &stdout, &bytes.Buffer{}); err != nil {
		t.Fatalf("ask-image failed: %v", err)
	}
	var result Result
	if err := json.Unmarshal(stdout.Bytes(), &result); err != nil {
		t.Fatalf("invalid JSON %q: %v", stdout.String(), err)
	}
	if result.Text != "two windows" || result.Prompt != "Count the windows" || result.Source != "-" || result.CharCount != len("two windows") {
		t.Fatalf("unexpected result %+v", result)
	}
}

func TestAskImageQueryError(t *testing.T) {
	client := &fakeClient{err: errors.New("API Error: 401")}
	configPath, imagePath := setup(t, client)

	err := runWithArgs([]string{"screen-timer-cli", "ask-image", "--file", imagePath, "--config", configPath}, nil, &bytes.Buffer{}, &bytes.Buffer{})
	if err == nil || !strings.Contains(err.Error(), "401") {
		t.Fatalf("expected query error, got %v", err)
	}
}

func TestAskImageRequiresFile(t *testing.T) {
	err := runWithArgs([]string{"screen-timer-cli", "ask-image"}, nil, &bytes.Buffer{}, &bytes.Buffer{})
	if err == nil {
		t.Fatal("expected error without --file")
	}
}

func TestReadImageValidation(t *testing.T) {
	dir := t.TempDir()
	write := func(name string, data []byte) string {
		p := filepath.Join(dir, name)
		if err := os.WriteFile(p, data, 0600); err != nil {
			t.Fatal(err)
		}
		return p
	}
	tests := []struct {
		name    string
		path    string
		wantErr string
	}{
		{"empty", write("empty.png", nil), "empty"},
		{"text", write("notes.txt", []byte("hello there, not an image")), "not a PNG or JPEG"},
		{"missing", filepath.Join(dir, "missing.png"), "failed to read file"},
		{"too large", write("big.png", append(pngHeader, make([]byte, maxFileSize)...)), "exceeds maximum size"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := readImage(tt.path, nil)
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}

	img, err := readImage(write("photo.jpg", []byte{0xFF, 0xD8, 0xFF, 0xE0, 0, 0x10, 'J', 'F', 'I', 'F', 0}), nil)
	if err != nil || img.MIMEType != "image/jpeg" {
		t.Fatalf("expected JPEG, got %v %q", err, img.MIMEType)
	}
}
