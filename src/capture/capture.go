// Package capture runs one capture-and-query cycle: grab the screen, then ask
// the model about it.
package capture

import (
	"context"
	"errors"
	"time"

	"screen-timer-llm/src/countdown"
	"screen-timer-llm/src/screenshot"
)

const (
	DefaultDeadline = 45 * time.Second
	DefaultSettle   = 100 * time.Millisecond
)

type Screens interface {
	Capture(ctx context.Context) (screenshot.Image, error)
}

type Model interface {
	Query(ctx context.Context, img screenshot.Image, prompt string) (string, error)
}

type Pipeline struct {
	Screens Screens
	Model   Model
	// Settle is waited before the grab so the overlay has faded out.
	Settle   time.Duration
	Deadline time.Duration
	now      func() time.Time
}

// Run performs the cycle. onCaptured, when set, is called once the grab
// finished and before the model is queried. The returned outcome carries
// either the response text or an error tagged with countdown.ErrCapture or
// countdown.ErrQuery.
func (p Pipeline) Run(ctx context.Context, prompt string, onCaptured func(error)) countdown.Outcome {
	now := p.now
	if now == nil {
		now = time.Now
	}
	started := now()
	out := countdown.Outcome{Prompt: prompt, StartedAt: started}
	finish := func() countdown.Outcome {
		out.Elapsed = now().Sub(started)
		return out
	}
	notify := func(err error) {
		if onCaptured != nil {
			onCaptured(err)
		}
	}

	if p.Screens == nil || p.Model == nil {
		err := errors.New("capture pipeline is not configured")
		notify(err)
		out.Err = countdown.CaptureFailure(err)
		return finish()
	}

	if p.Settle > 0 {
		select {
		case <-time.After(p.Settle):
		case <-ctx.Done():
			notify(ctx.Err())
			out.Err = countdown.CaptureFailure(ctx.Err())
			return finish()
		}
	}

	img, err := p.Screens.Capture(ctx)
	notify(err)
	if err != nil {
		out.Err = countdown.CaptureFailure(err)
		return finish()
	}
	out.ImagePath = img.Path

	deadline := p.Deadline
	if deadline <= 0 {
		deadline = DefaultDeadline
	}
	queryCtx, cancel := context.WithTimeout(ctx, deadline)
	defer cancel()

	text, err := p.Model.Query(queryCtx, img, prompt)
	if err != nil {
		out.Err = countdown.QueryFailure(err)
		return finish()
	}
	out.Text = text
	return finish()
}
