// Package countdown owns the overlay's countdown and the single
// capture-and-query cycle that runs when it expires.
//
// The controller holds no timer and no locks. Every method must be called
// from the one event-loop goroutine; the loop feeds it ticks, hover samples,
// resets and the results of the asynchronous cycle.
package countdown

import (
	"log"
	"time"
)

// MinSeconds is the shortest countdown the controller accepts.
const MinSeconds = 5

// FadeDuration is how long the overlay takes to fade in or out on hover.
const FadeDuration = 200 * time.Millisecond

// State is the controller's lifecycle state.
type State int

const (
	Running State = iota
	AwaitingCapture
	Idle
)

func (s State) String() string {
	switch s {
	case Running:
		return "running"
	case AwaitingCapture:
		return "awaiting-capture"
	case Idle:
		return "idle"
	default:
		return "unknown"
	}
}

// Sink receives everything the controller wants shown.
type Sink interface {
	SetTimerText(text string)
	// FadeTo animates overlay opacity towards target (0 or 1).
	FadeTo(target float64, d time.Duration)
	// SetCaptureHidden hides the overlay while the screen is grabbed.
	SetCaptureHidden(hidden bool)
	ShowResponse(text string)
	ClearResponse()
}

// TickSource is the periodic 1s source driving OnTick.
type TickSource interface {
	Start()
	Stop()
}

// Dispatcher starts a capture-and-query cycle off the event goroutine. The
// implementation must eventually call OnSettled for the same cycle, and
// OnCaptured once the screen grab finished.
type Dispatcher interface {
	Dispatch(cycle uint64, prompt string)
}

// Outcome is the settled result of one cycle.
type Outcome struct {
	Cycle     uint64
	Prompt    string
	Text      string
	Err       error
	ImagePath string
	StartedAt time.Time
	Elapsed   time.Duration
}

// Options configures a Controller.
type Options struct {
	Seconds    int
	Prompt     string
	Sink       Sink
	Ticks      TickSource
	Dispatcher Dispatcher
	// OnOutcome, if set, sees every outcome that reaches the display.
	OnOutcome func(Outcome)
}

// Snapshot is a read-only view for status reporting.
type Snapshot struct {
	State     State
	Remaining int
	Paused    bool
	Response  string
}

// Controller is the countdown state machine. It is not safe for concurrent use.
type Controller struct {
	duration int
	prompt   string

	remaining int
	paused    bool
	hovering  bool
	state     State
	ticking   bool
	response  string

	// lastCycle numbers cycles; current is the cycle whose outcome may still
	// reach the display (0 after a reset). inFlight stays true until the
	// dispatched cycle settles, even if a reset superseded it.
	lastCycle uint64
	current   uint64
	inFlight  bool
	pending   bool

	sink       Sink
	ticks      TickSource
	dispatcher Dispatcher
	onOutcome  func(Outcome)
}

// New creates a controller in the Running state. Call Start to emit the
// first display string and start the tick source.
func New(opts Options) *Controller {
	seconds := ClampSeconds(opts.Seconds)
	return &Controller{
		duration:   seconds,
		prompt:     opts.Prompt,
		remaining:  seconds,
		state:      Running,
		sink:       opts.Sink,
		ticks:      opts.Ticks,
		dispatcher: opts.Dispatcher,
		onOutcome:  opts.OnOutcome,
	}
}

// ClampSeconds raises a configured countdown to MinSeconds.
func ClampSeconds(seconds int) int {
	if seconds < MinSeconds {
		return MinSeconds
	}
	return seconds
}

// Start shows the full countdown and starts the tick source.
func (c *Controller) Start() {
	c.emitTime()
	c.startTicks()
}

// OnTick advances the countdown by one second.
func (c *Controller) OnTick() {
	if c.state != Running || c.paused {
		return
	}
	c.remaining--
	if c.remaining < 0 {
		c.remaining = 0
	}
	c.emitTime()
	if c.remaining <= 0 {
		c.stopTicks()
		c.state = AwaitingCapture
		c.runCaptureAndQuery()
	}
}

// OnHoverChange reports whether the pointer is inside the overlay. Only a
// change of value while Running has any effect.
func (c *Controller) OnHoverChange(isOver bool) {
	if c.state != Running || isOver == c.hovering {
		return
	}
	c.hovering = isOver
	c.paused = isOver
	target := 1.0
	if isOver {
		target = 0
	}
	c.sink.FadeTo(target, FadeDuration)
}

// OnReset restarts the countdown from the configured duration, whatever the
// current state. An in-flight cycle keeps running but its outcome will be
// dropped.
func (c *Controller) OnReset() {
	if c.state == AwaitingCapture && c.inFlight {
		log.Printf("countdown: reset while cycle %d in flight; its outcome will be discarded", c.current)
	}
	c.remaining = c.duration
	c.state = Running
	c.current = 0
	c.pending = false
	c.response = ""
	c.sink.SetCaptureHidden(false)
	c.sink.ClearResponse()
	c.emitTime()
	c.startTicks()
}

// OnCaptured is called once the screen grab of a cycle finished, before the
// model query. It makes the overlay visible again.
func (c *Controller) OnCaptured(cycle uint64, err error) {
	if cycle != c.current {
		return
	}
	c.sink.SetCaptureHidden(false)
	if err != nil {
		log.Printf("countdown: cycle %d capture failed: %v", cycle, err)
	}
}

// OnSettled delivers the outcome of a cycle. Outcomes of cycles superseded by
// a reset are discarded.
func (c *Controller) OnSettled(cycle uint64, out Outcome) {
	if cycle == c.lastCycle {
		c.inFlight = false
	}
	if cycle != c.current {
		log.Printf("countdown: discarding outcome of superseded cycle %d", cycle)
		if c.pending && c.state == AwaitingCapture {
			c.pending = false
			c.runCaptureAndQuery()
		}
		return
	}

	out.Cycle = cycle
	c.current = 0
	c.state = Idle
	c.response = DisplayText(out)
	c.sink.SetCaptureHidden(false)
	c.sink.ShowResponse(c.response)
	if c.onOutcome != nil {
		c.onOutcome(out)
	}
}

// Snapshot reports the controller's state.
func (c *Controller) Snapshot() Snapshot {
	return Snapshot{
		State:     c.state,
		Remaining: c.remaining,
		Paused:    c.paused,
		Response:  c.response,
	}
}

func (c *Controller) runCaptureAndQuery() {
	if c.inFlight {
		// A superseded cycle has not settled yet; start once it does.
		c.pending = true
		log.Printf("countdown: cycle %d still in flight, deferring new cycle", c.lastCycle)
		return
	}
	c.lastCycle++
	c.current = c.lastCycle
	c.inFlight = true
	log.Printf("countdown: starting capture-and-query cycle %d", c.current)
	c.sink.SetCaptureHidden(true)
	c.dispatcher.Dispatch(c.current, c.prompt)
}

func (c *Controller) emitTime() {
	c.sink.SetTimerText(FormatRemaining(c.remaining))
}

func (c *Controller) startTicks() {
	if c.ticking {
		return
	}
	c.ticking = true
	c.ticks.Start()
}

func (c *Controller) stopTicks() {
	if !c.ticking {
		return
	}
	c.ticking = false
	c.ticks.Stop()
}
