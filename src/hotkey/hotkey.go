// Package hotkey listens for a global key combination with gohook.
package hotkey

import (
	"context"
	"fmt"
	"log"
	"strings"

	gohook "github.com/robotn/gohook"
)

// Listen starts a global hook and calls callback each time every key of combo
// is held down. It returns once the hook is running; the hook stops when ctx
// is cancelled. An empty combo disables the hotkey.
func Listen(ctx context.Context, combo string, callback func()) error {
	if strings.TrimSpace(combo) == "" {
		return nil
	}
	m, err := NewMatcher(combo)
	if err != nil {
		return err
	}
	log.Printf("Hotkey listener configured for: %s", combo)

	evChan := gohook.Start()
	if evChan == nil {
		return fmt.Errorf("gohook.Start() returned nil channel")
	}

	go func() {
		defer func() {
			if r := recover(); r != nil {
				log.Printf("PANIC in hotkey goroutine: %v", r)
			}
		}()
		for {
			select {
			case <-ctx.Done():
				gohook.End()
				return
			case ev, ok := <-evChan:
				if !ok {
					log.Printf("hotkey: event channel closed")
					return
				}
				var fired bool
				switch ev.Kind {
				case gohook.KeyDown:
					fired = m.KeyDown(ev.Rawcode)
				case gohook.KeyUp:
					m.KeyUp(ev.Rawcode)
				}
				if fired && callback != nil {
					log.Printf("hotkey: %s activated", combo)
					callback()
				}
			}
		}
	}()
	return nil
}

// Matcher tracks key state for one combination. Not safe for concurrent use.
type Matcher struct {
	keys []keyState
}

type keyState struct {
	name     string
	rawcodes []uint16
	pressed  bool
}

// NewMatcher parses a combo such as "Ctrl+Alt+R".
func NewMatcher(combo string) (*Matcher, error) {
	names := parseHotkey(combo)
	if len(names) == 0 {
		return nil, fmt.Errorf("empty hotkey %q", combo)
	}
	m := &Matcher{}
	for _, name := range names {
		rawcodes := keyNameToRawcodes(name)
		if len(rawcodes) == 0 {
			return nil, fmt.Errorf("hotkey %q: unknown key %q", combo, name)
		}
		m.keys = append(m.keys, keyState{name: name, rawcodes: rawcodes})
	}
	return m, nil
}

// KeyDown records a press and reports whether the whole combination is now
// held. A completed combination resets the state, so holding the keys fires
// once.
func (m *Matcher) KeyDown(rawcode uint16) bool {
	m.set(rawcode, true)
	for i := range m.keys {
		if !m.keys[i].pressed {
			return false
		}
	}
	for i := range m.keys {
		m.keys[i].pressed = false
	}
	return true
}

func (m *Matcher) KeyUp(rawcode uint16) {
	m.set(rawcode, false)
}

func (m *Matcher) set(rawcode uint16, pressed bool) {
	for i := range m.keys {
		for _, rc := range m.keys[i].rawcodes {
			if rc == rawcode {
				m.keys[i].pressed = pressed
				break
			}
		}
	}
}

// parseHotkey converts "Ctrl+Alt+r" to normalized key names.
func parseHotkey(combo string) []string {
	var keys []string
	for _, part := range strings.Split(strings.ToLower(combo), "+") {
		part = strings.TrimSpace(part)
		switch part {
		case "":
			continue
		case "control":
			part = "ctrl"
		case "win", "super":
			part = "cmd"
		}
		keys = append(keys, part)
	}
	return keys
}

var namedKeys = map[string][]uint16{
	"ctrl":  {162, 163}, // VK_LCONTROL, VK_RCONTROL
	"alt":   {164, 165}, // VK_LMENU, VK_RMENU
	"shift": {160, 161}, // VK_LSHIFT, VK_RSHIFT
	"cmd":   {91, 92},   // VK_LWIN, VK_RWIN

	"space":     {32},
	"enter":     {13},
	"return":    {13},
	"esc":       {27},
	"escape":    {27},
	"tab":       {9},
	"backspace": {8},
	"delete":    {46},
	"del":       {46},
	"insert":    {45},
	"home":      {36},
	"end":       {35},
	"pageup":    {33},
	"pagedown":  {34},
	"left":      {37},
	"up":        {38},
	"right":     {39},
	"down":      {40},
}

// keyNameToRawcodes maps a key name to Windows virtual key codes, both
// left and right variants for modifiers.
func keyNameToRawcodes(name string) []uint16 {
	name = strings.ToLower(strings.TrimSpace(name))
	if codes, ok := namedKeys[name]; ok {
		return codes
	}
	if len(name) == 1 {
		switch c := name[0]; {
		case c >= 'a' && c <= 'z':
			return []uint16{uint16(c-'a') + 65} // VK 'A'..'Z'
		case c >= '0' && c <= '9':
			return []uint16{uint16(c-'0') + 48}
		}
	}
	var n int
	if _, err := fmt.Sscanf(name, "f%d", &n); err == nil && n >= 1 && n <= 24 && name == fmt.Sprintf("f%d", n) {
		return []uint16{uint16(111 + n)} // VK_F1 = 112
	}
	return nil
}
