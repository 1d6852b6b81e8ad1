package capture

import (
	"context"
	"errors"
	"testing"
	"time"

	"screen-timer-llm/src/countdown"
	"screen-timer-llm/src/screenshot"
)

type fakeScreens struct {
	img   screenshot.Image
	err   error
	calls int
}

func (f *fakeScreens) Capture(ctx context.Context) (screenshot.Image, error) {
	f.calls++
	return f.img, f.err
}

type fakeModel struct {
	text       string
	err        error
	calls      int
	prompt     string
	hasTimeout bool
}

func (f *fakeModel) Query(ctx context.Context, img screenshot.Image, prompt string) (string, error) {
	f.calls++
	f.prompt = prompt
	_, f.hasTimeout = ctx.Deadline()
	return f.text, f.err
}

func TestRunSuccess(t *testing.T) {
	screens := &fakeScreens{img: screenshot.Image{Data: []byte{1}, Path: "shots/a.png"}}
	model := &fakeModel{text: "a code editor"}
	var captured []error
	p := Pipeline{Screens: screens, Model: model}

	out := p.Run(context.Background(), "what is this", func(err error) { captured = append(captured, err) })
	if out.Err != nil {
		t.Fatalf("Unexpected error: %v", out.Err)
	}
	if out.Text != "a code editor" || out.ImagePath != "shots/a.png" || out.Prompt != "what is this" {
		t.Fatalf("Unexpected outcome %+v", out)
	}
	if len(captured) != 1 || captured[0] != nil {
		t.Fatalf("Expected one successful capture notification, got %v", captured)
	}
	if model.prompt != "what is this" || !model.hasTimeout {
		t.Fatalf("Model called with prompt %q, deadline=%v", model.prompt, model.hasTimeout)
	}
}

func TestRunCaptureFailureSkipsModel(t *testing.T) {
	screens := &fakeScreens{err: errors.New("no active displays found")}
	model := &fakeModel{text: "unused"}
	var captured error
	p := Pipeline{Screens: screens, Model: model}

	out := p.Run(context.Background(), "p", func(err error) { captured = err })
	if model.calls != 0 {
		t.Fatalf("Model must not be queried after a capture failure, got %d calls", model.calls)
	}
	if !errors.Is(out.Err, countdown.ErrCapture) || captured == nil {
		t.Fatalf("Expected capture failure, got %v (notified %v)", out.Err, captured)
	}
	if got := countdown.DisplayText(out); got != "Failed to take screenshot: no active displays found" {
		t.Fatalf("Unexpected display text %q", got)
	}
}

func TestRunQueryFailure(t *testing.T) {
	p := Pipeline{
		Screens: &fakeScreens{},
		Model:   &fakeModel{err: errors.New("API Error: 500")},
	}
	out := p.Run(context.Background(), "p", nil)
	if !errors.Is(out.Err, countdown.ErrQuery) {
		t.Fatalf("Expected query failure, got %v", out.Err)
	}
	if got := countdown.DisplayText(out); got != "Error: API Error: 500" {
		t.Fatalf("Unexpected display text %q", got)
	}
}

func TestRunCancelledDuringSettle(t *testing.T) {
	screens := &fakeScreens{}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	p := Pipeline{Screens: screens, Model: &fakeModel{}, Settle: time.Second}

	out := p.Run(ctx, "p", nil)
	if screens.calls != 0 {
		t.Fatal("Screen grabbed after cancellation")
	}
	if !errors.Is(out.Err, context.Canceled) || !errors.Is(out.Err, countdown.ErrCapture) {
		t.Fatalf("Expected cancelled capture, got %v", out.Err)
	}
}

func TestRunRecordsElapsed(t *testing.T) {
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	calls := 0
	p := Pipeline{Screens: &fakeScreens{}, Model: &fakeModel{text: "ok"}}
	p.now = func() time.Time {
		calls++
		return base.Add(time.Duration(calls-1) * 3 * time.Second)
	}
	out := p.Run(context.Background(), "p", nil)
	if !out.StartedAt.Equal(base) || out.Elapsed != 3*time.Second {
		t.Fatalf("Unexpected timing: started %v elapsed %v", out.StartedAt, out.Elapsed)
	}
}
