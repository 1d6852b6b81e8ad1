package overlay

import (
	"testing"
	"time"

	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/test"
)

func newTestOverlay(t *testing.T, onReset func()) *Overlay {
	t.Helper()
	a := test.NewApp()
	t.Cleanup(a.Quit)
	return New(a, Options{OnReset: onReset})
}

func TestTimerTextAndResponse(t *testing.T) {
	o := newTestOverlay(t, nil)

	o.SetTimerText("1:59")
	if o.timerText.Text != "1:59" {
		t.Fatalf("timer text = %q", o.timerText.Text)
	}

	o.ShowResponse("two terminals and a browser")
	if !o.respBox.Visible() || o.response.Text != "two terminals and a browser" {
		t.Fatalf("response not shown: visible=%v text=%q", o.respBox.Visible(), o.response.Text)
	}

	if o.size.Height != defaultHeight+responseH {
		t.Fatalf("window height with response = %v, want %v", o.size.Height, defaultHeight+responseH)
	}

	o.ClearResponse()
	if o.respBox.Visible() || o.response.Text != "" {
		t.Fatal("response not cleared")
	}
	if o.size.Height != defaultHeight {
		t.Fatalf("window height after clear = %v, want %v", o.size.Height, defaultHeight)
	}
}

func TestApplyOpacity(t *testing.T) {
	o := newTestOverlay(t, nil)
	tests := []struct {
		in        float64
		wantAlpha uint8
	}{
		{1, 0},
		{0, 255},
		{-1, 255},
		{2, 0},
	}
	for _, tt := range tests {
		o.applyOpacity(tt.in)
		_, _, _, a := o.veil.FillColor.RGBA()
		if uint8(a>>8) != tt.wantAlpha {
			t.Errorf("applyOpacity(%v) veil alpha = %d, want %d", tt.in, a>>8, tt.wantAlpha)
		}
	}
}

func TestFadeWithoutDurationIsImmediate(t *testing.T) {
	o := newTestOverlay(t, nil)
	o.FadeTo(0, 0)
	if o.opacity != 0 {
		t.Fatalf("opacity = %v, want 0", o.opacity)
	}
	o.FadeTo(1, 0)
	if o.opacity != 1 {
		t.Fatalf("opacity = %v, want 1", o.opacity)
	}
}

func TestFadeStartsAnimation(t *testing.T) {
	o := newTestOverlay(t, nil)
	o.FadeTo(0, 200*time.Millisecond)
	if o.anim == nil {
		t.Fatal("expected an animation for a non-zero fade")
	}
}

func TestHoverTracking(t *testing.T) {
	o := newTestOverlay(t, nil)
	if o.PointerInside() {
		t.Fatal("pointer reported inside before any event")
	}
	o.tracker.MouseIn(&desktop.MouseEvent{})
	if !o.PointerInside() {
		t.Fatal("MouseIn not tracked")
	}
	o.SetCaptureHidden(true)
	if o.PointerInside() {
		t.Fatal("hiding for capture must clear the hover state")
	}
	o.SetCaptureHidden(false)
	o.tracker.MouseMoved(&desktop.MouseEvent{})
	o.tracker.MouseOut()
	if o.PointerInside() {
		t.Fatal("MouseOut not tracked")
	}
}

func TestClickResets(t *testing.T) {
	resets := 0
	o := newTestOverlay(t, func() { resets++ })

	primary := &desktop.MouseEvent{Button: desktop.MouseButtonPrimary}
	o.tracker.MouseDown(primary)
	o.tracker.MouseUp(primary)
	if resets != 1 {
		t.Fatalf("expected one reset after a click, got %d", resets)
	}

	secondary := &desktop.MouseEvent{Button: desktop.MouseButtonSecondary}
	o.tracker.MouseDown(secondary)
	o.tracker.MouseUp(secondary)
	o.tracker.MouseUp(primary)
	if resets != 1 {
		t.Fatalf("secondary button or stray release must not reset, got %d", resets)
	}
}
