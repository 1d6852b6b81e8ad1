package countdown

import (
	"errors"
	"testing"
)

func TestFormatRemaining(t *testing.T) {
	tests := []struct {
		seconds int
		want    string
	}{
		{125, "2:05"},
		{59, "0:59"},
		{0, "0:00"},
		{60, "1:00"},
		{600, "10:00"},
		{-3, "0:00"},
	}
	for _, tt := range tests {
		if got := FormatRemaining(tt.seconds); got != tt.want {
			t.Errorf("FormatRemaining(%d) = %q, want %q", tt.seconds, got, tt.want)
		}
	}
}

func TestDisplayText(t *testing.T) {
	tests := []struct {
		name string
		out  Outcome
		want string
	}{
		{"success", Outcome{Text: "hello"}, "hello"},
		{"capture", Outcome{Err: CaptureFailure(errors.New("no active displays found"))}, "Failed to take screenshot: no active displays found"},
		{"query", Outcome{Err: QueryFailure(errors.New("API returned status 403"))}, "Error: API returned status 403"},
		{"untagged", Outcome{Err: errors.New("boom")}, "Error: boom"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DisplayText(tt.out); got != tt.want {
				t.Errorf("DisplayText() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestFailureTagsMatchSentinels(t *testing.T) {
	inner := errors.New("dial tcp: timeout")
	err := QueryFailure(inner)
	if !errors.Is(err, ErrQuery) || errors.Is(err, ErrCapture) {
		t.Fatalf("Expected query tag only, got %v", err)
	}
	if !errors.Is(err, inner) {
		t.Fatal("Expected wrapped cause to be reachable")
	}
	if !errors.Is(CaptureFailure(inner), ErrCapture) {
		t.Fatal("Expected capture tag")
	}
}
