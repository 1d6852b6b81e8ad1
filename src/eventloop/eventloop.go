// Package eventloop runs the single goroutine that owns the countdown
// controller and feeds it ticks, hover samples, resets and cycle results.
package eventloop

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"screen-timer-llm/src/countdown"
	"screen-timer-llm/src/singleinstance"
	"screen-timer-llm/src/worker"
)

const (
	DefaultTickInterval  = time.Second
	DefaultHoverInterval = 100 * time.Millisecond
)

// ErrWorkerBusy is reported when a cycle could not be handed to the worker.
var ErrWorkerBusy = errors.New("capture worker busy")

// HoverSource reports whether the pointer is over the overlay. It is polled
// from the loop goroutine and must not block.
type HoverSource interface {
	PointerInside() bool
}

// Cycle runs one capture-and-query cycle on a worker goroutine.
type Cycle interface {
	Run(ctx context.Context, prompt string, onCaptured func(error)) countdown.Outcome
}

type Options struct {
	Seconds   int
	Prompt    string
	Sink      countdown.Sink
	Hover     HoverSource
	Cycle     Cycle
	OnOutcome func(countdown.Outcome)
	// Server, when set, is read for RESET and STATUS commands.
	Server        singleinstance.Server
	TickInterval  time.Duration
	HoverInterval time.Duration
}

// Loop is the single-threaded coordinator for the countdown.
type Loop struct {
	ctrl  *countdown.Controller
	cycle Cycle
	hover HoverSource
	srv   singleinstance.Server
	pool  *worker.Pool

	ticker        *time.Ticker
	tickInterval  time.Duration
	hoverInterval time.Duration

	// resetCh carries an optional channel closed once the reset is applied.
	resetCh    chan chan struct{}
	statusCh   chan chan countdown.Snapshot
	capturedCh chan captured
	settledCh  chan settled

	// ctx is the context of the running loop; set by Run.
	ctx context.Context
}

type captured struct {
	cycle uint64
	err   error
}

type settled struct {
	cycle uint64
	out   countdown.Outcome
}

// New creates a loop. Nothing runs until Run.
func New(opts Options) *Loop {
	tick := opts.TickInterval
	if tick <= 0 {
		tick = DefaultTickInterval
	}
	hover := opts.HoverInterval
	if hover <= 0 {
		hover = DefaultHoverInterval
	}
	l := &Loop{
		cycle:         opts.Cycle,
		hover:         opts.Hover,
		srv:           opts.Server,
		pool:          worker.New(1),
		tickInterval:  tick,
		hoverInterval: hover,
		resetCh:       make(chan chan struct{}, 4),
		statusCh:      make(chan chan countdown.Snapshot),
		capturedCh:    make(chan captured, 1),
		settledCh:     make(chan settled, 1),
	}
	l.ticker = time.NewTicker(tick)
	l.ticker.Stop()
	l.ctrl = countdown.New(countdown.Options{
		Seconds:    opts.Seconds,
		Prompt:     opts.Prompt,
		Sink:       opts.Sink,
		Ticks:      tickSource{l},
		Dispatcher: dispatcher{l},
		OnOutcome:  opts.OnOutcome,
	})
	return l
}

// Reset asks the loop to restart the countdown. Safe from any goroutine.
func (l *Loop) Reset() {
	select {
	case l.resetCh <- nil:
	default:
		log.Printf("eventloop: reset already queued")
	}
}

// resetAndWait resets the countdown and returns once the loop applied it.
func (l *Loop) resetAndWait(ctx context.Context) error {
	done := make(chan struct{})
	select {
	case l.resetCh <- done:
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Snapshot asks the loop for the controller state.
func (l *Loop) Snapshot(ctx context.Context) (countdown.Snapshot, error) {
	reply := make(chan countdown.Snapshot, 1)
	select {
	case l.statusCh <- reply:
	case <-ctx.Done():
		return countdown.Snapshot{}, ctx.Err()
	}
	select {
	case s := <-reply:
		return s, nil
	case <-ctx.Done():
		return countdown.Snapshot{}, ctx.Err()
	}
}

// Run starts the countdown and processes events until ctx is cancelled.
func (l *Loop) Run(ctx context.Context) error {
	l.ctx = ctx
	defer l.pool.Close()
	defer l.ticker.Stop()

	hoverTicker := time.NewTicker(l.hoverInterval)
	defer hoverTicker.Stop()

	if l.srv != nil {
		go l.serve(ctx)
	}

	l.ctrl.Start()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-l.ticker.C:
			l.ctrl.OnTick()
		case <-hoverTicker.C:
			if l.hover != nil {
				l.ctrl.OnHoverChange(l.hover.PointerInside())
			}
		case done := <-l.resetCh:
			log.Printf("eventloop: reset requested")
			l.ctrl.OnReset()
			if done != nil {
				close(done)
			}
		case reply := <-l.statusCh:
			reply <- l.ctrl.Snapshot()
		case c := <-l.capturedCh:
			l.ctrl.OnCaptured(c.cycle, c.err)
		case s := <-l.settledCh:
			l.ctrl.OnSettled(s.cycle, s.out)
		}
	}
}

// serve answers single-instance commands until ctx is done. It runs on its
// own goroutine and reaches the controller through the loop's channels.
func (l *Loop) serve(ctx context.Context) {
	for {
		conn, err := l.srv.Next(ctx)
		if err != nil {
			return
		}
		l.handleConn(ctx, conn)
	}
}

func (l *Loop) handleConn(ctx context.Context, conn singleinstance.Conn) {
	defer conn.Close()
	switch cmd := conn.Request().Command; cmd {
	case singleinstance.CommandReset:
		if err := l.resetAndWait(ctx); err != nil {
			_ = conn.RespondError(err.Error())
			return
		}
		_ = conn.RespondSuccess("countdown reset")
	case singleinstance.CommandStatus:
		snap, err := l.Snapshot(ctx)
		if err != nil {
			_ = conn.RespondError(err.Error())
			return
		}
		_ = conn.RespondSuccess(FormatStatus(snap))
	default:
		_ = conn.RespondError(fmt.Sprintf("unsupported command %q", cmd))
	}
}

// FormatStatus renders a snapshot for the STATUS command.
func FormatStatus(s countdown.Snapshot) string {
	text := fmt.Sprintf("state=%s remaining=%s paused=%t", s.State, countdown.FormatRemaining(s.Remaining), s.Paused)
	if s.Response != "" {
		text += "\n" + s.Response
	}
	return text
}

func (l *Loop) dispatch(cycle uint64, prompt string) {
	submitted := l.pool.Submit(l.ctx, fmt.Sprintf("cycle %d", cycle), func(ctx context.Context) {
		out := l.cycle.Run(ctx, prompt, func(err error) {
			l.postCaptured(ctx, cycle, err)
		})
		l.postSettled(ctx, cycle, out)
	})
	if submitted {
		return
	}
	log.Printf("eventloop: could not submit cycle %d", cycle)
	// The controller is mid-call; deliver the failure from another goroutine.
	ctx := l.ctx
	go func() {
		l.postCaptured(ctx, cycle, ErrWorkerBusy)
		l.postSettled(ctx, cycle, countdown.Outcome{Prompt: prompt, Err: countdown.CaptureFailure(ErrWorkerBusy)})
	}()
}

func (l *Loop) postCaptured(ctx context.Context, cycle uint64, err error) {
	select {
	case l.capturedCh <- captured{cycle: cycle, err: err}:
	case <-ctx.Done():
	}
}

func (l *Loop) postSettled(ctx context.Context, cycle uint64, out countdown.Outcome) {
	select {
	case l.settledCh <- settled{cycle: cycle, out: out}:
	case <-ctx.Done():
		log.Printf("eventloop: dropped outcome of cycle %d at shutdown", cycle)
	}
}

type tickSource struct{ l *Loop }

func (t tickSource) Start() { t.l.ticker.Reset(t.l.tickInterval) }

func (t tickSource) Stop() { t.l.ticker.Stop() }

type dispatcher struct{ l *Loop }

func (d dispatcher) Dispatch(cycle uint64, prompt string) { d.l.dispatch(cycle, prompt) }
