package hotkey

import (
	"testing"
)

func TestKeyNameToRawcodes(t *testing.T) {
	tests := []struct {
		keyName  string
		expected []uint16
	}{
		{"ctrl", []uint16{162, 163}},
		{"alt", []uint16{164, 165}},
		{"shift", []uint16{160, 161}},
		{"cmd", []uint16{91, 92}},
		{"r", []uint16{82}},
		{"a", []uint16{65}},
		{"z", []uint16{90}},
		{"0", []uint16{48}},
		{"9", []uint16{57}},
		{"f1", []uint16{112}},
		{"f12", []uint16{123}},
		{"f24", []uint16{135}},
		{"f25", nil},
		{"f01", nil},
		{"space", []uint16{32}},
		{"Escape", []uint16{27}},
		{"unknown", nil},
	}

	for _, tt := range tests {
		t.Run(tt.keyName, func(t *testing.T) {
			result := keyNameToRawcodes(tt.keyName)
			if len(result) != len(tt.expected) {
				t.Fatalf("keyNameToRawcodes(%q) = %v, expected %v", tt.keyName, result, tt.expected)
			}
			for i := range result {
				if result[i] != tt.expected[i] {
					t.Errorf("keyNameToRawcodes(%q)[%d] = %d, expected %d", tt.keyName, i, result[i], tt.expected[i])
				}
			}
		})
	}
}

func TestParseHotkey(t *testing.T) {
	tests := []struct {
		input    string
		expected []string
	}{
		{"Ctrl+Alt+R", []string{"ctrl", "alt", "r"}},
		{"Control + Shift + F13", []string{"ctrl", "shift", "f13"}},
		{"Win+Shift+S", []string{"cmd", "shift", "s"}},
		{"Super+Alt+T", []string{"cmd", "alt", "t"}},
		{"Ctrl++R", []string{"ctrl", "r"}},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			result := parseHotkey(tt.input)
			if len(result) != len(tt.expected) {
				t.Fatalf("parseHotkey(%q) = %v, expected %v", tt.input, result, tt.expected)
			}
			for i := range result {
				if result[i] != tt.expected[i] {
					t.Errorf("parseHotkey(%q)[%d] = %q, expected %q", tt.input, i, result[i], tt.expected[i])
				}
			}
		})
	}
}

func TestMatcher(t *testing.T) {
	m, err := NewMatcher("Ctrl+Alt+R")
	if err != nil {
		t.Fatalf("NewMatcher: %v", err)
	}
	if m.KeyDown(162) || m.KeyDown(165) {
		t.Fatal("fired before the combination was complete")
	}
	if !m.KeyDown(82) {
		t.Fatal("expected Ctrl+Alt+R to fire")
	}
	// Holding R after a fire needs the modifiers again.
	if m.KeyDown(82) {
		t.Fatal("fired twice for one press")
	}
	m.KeyDown(163)
	m.KeyUp(163)
	m.KeyDown(164)
	if m.KeyDown(82) {
		t.Fatal("released Ctrl must not count")
	}
}

func TestNewMatcherErrors(t *testing.T) {
	for _, combo := range []string{"", "+", "Ctrl+Hyper"} {
		if _, err := NewMatcher(combo); err == nil {
			t.Errorf("NewMatcher(%q) expected error", combo)
		}
	}
}
