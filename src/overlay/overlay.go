// Package overlay is the small borderless window that shows the countdown
// and the model's response. On Windows it is pinned topmost at the bottom
// centre of the primary screen. It implements countdown.Sink; every update is
// marshalled onto the fyne goroutine with fyne.Do.
package overlay

import (
	"image"
	"image/color"
	"log"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/layout"
	"fyne.io/fyne/v2/widget"

	"screen-timer-llm/src/countdown"
	"screen-timer-llm/src/platform"
)

const (
	DefaultTitle  = "Screen Timer"
	timerTextSize = 28
	defaultWidth  = 320
	defaultHeight = 60
	responseH     = 180
)

var (
	backgroundColor = color.NRGBA{R: 0x20, G: 0x20, B: 0x20, A: 0xff}
	timerColor      = color.NRGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}
)

var _ countdown.Sink = (*Overlay)(nil)

type Options struct {
	Title string
	// OnReset is called on the fyne goroutine when the overlay is clicked.
	OnReset func()
	Width   float32
}

type Overlay struct {
	win       fyne.Window
	title     string
	timerText *canvas.Text
	response  *widget.Label
	respBox   *fyne.Container
	veil      *canvas.Rectangle
	tracker   *pointerTracker
	onReset   func()
	width     float32
	size      fyne.Size

	// Owned by the fyne goroutine.
	opacity float64
	anim    *fyne.Animation
	dragged bool
	pressed bool
}

// New builds the overlay window. On desktop drivers the window is borderless.
func New(a fyne.App, opts Options) *Overlay {
	title := opts.Title
	if title == "" {
		title = DefaultTitle
	}
	width := opts.Width
	if width <= 0 {
		width = defaultWidth
	}
	o := &Overlay{title: title, onReset: opts.OnReset, width: width, opacity: 1}

	if desk, ok := a.(desktop.App); ok {
		o.win = desk.CreateSplashWindow()
	} else {
		o.win = a.NewWindow(title)
	}
	o.win.SetTitle(title)

	o.timerText = canvas.NewText(countdown.FormatRemaining(0), timerColor)
	o.timerText.TextSize = timerTextSize
	o.timerText.TextStyle.Bold = true
	o.timerText.Alignment = fyne.TextAlignCenter

	o.response = widget.NewLabel("")
	o.response.Wrapping = fyne.TextWrapWord
	scroll := container.NewVScroll(o.response)
	scroll.SetMinSize(fyne.NewSize(width, responseH))
	o.respBox = container.NewStack(scroll)
	o.respBox.Hide()

	bg := canvas.NewRectangle(backgroundColor)
	bg.SetMinSize(fyne.NewSize(width, defaultHeight))
	o.veil = canvas.NewRectangle(color.Transparent)

	body := container.New(layout.NewVBoxLayout(),
		container.New(layout.NewCenterLayout(), o.timerText),
		o.respBox,
	)
	o.tracker = newPointerTracker(container.NewStack(bg, body, o.veil))
	o.tracker.OnPress = o.handlePress
	o.tracker.OnRelease = o.handleRelease

	o.win.SetContent(o.tracker)
	o.win.SetFixedSize(true)
	o.resize(fyne.NewSize(width, defaultHeight))
	// The native window only exists once the driver runs.
	a.Lifecycle().SetOnStarted(o.pin)
	return o
}

// Show displays the window. Call on the fyne goroutine.
func (o *Overlay) Show() {
	o.win.Show()
	o.pin()
}

// PointerInside is polled by the event loop.
func (o *Overlay) PointerInside() bool { return o.tracker.Inside() }

func (o *Overlay) SetTimerText(text string) {
	fyne.Do(func() {
		o.timerText.Text = text
		o.timerText.Refresh()
	})
}

// FadeTo animates the overlay linearly from its current opacity to target.
func (o *Overlay) FadeTo(target float64, d time.Duration) {
	fyne.Do(func() {
		if o.anim != nil {
			o.anim.Stop()
			o.anim = nil
		}
		from := o.opacity
		if d <= 0 || from == target {
			o.applyOpacity(target)
			return
		}
		o.anim = fyne.NewAnimation(d, func(f float32) {
			o.applyOpacity(from + (target-from)*float64(f))
		})
		o.anim.Curve = fyne.AnimationLinear
		o.anim.Start()
	})
}

func (o *Overlay) SetCaptureHidden(hidden bool) {
	fyne.Do(func() {
		if hidden {
			log.Printf("overlay: hiding for capture")
			o.tracker.clearInside()
			o.win.Hide()
			return
		}
		o.win.Show()
		o.pin()
	})
}

func (o *Overlay) ShowResponse(text string) {
	fyne.Do(func() {
		o.response.SetText(text)
		o.respBox.Show()
		o.resize(fyne.NewSize(o.width, defaultHeight+responseH))
	})
}

func (o *Overlay) ClearResponse() {
	fyne.Do(func() {
		o.response.SetText("")
		o.respBox.Hide()
		o.resize(fyne.NewSize(o.width, defaultHeight))
	})
}

func (o *Overlay) resize(size fyne.Size) {
	o.size = size
	o.win.Resize(size)
	o.pin()
}

// pin keeps the window topmost, out of the taskbar and at the bottom centre
// of the primary screen. A no-op where the platform cannot do it.
func (o *Overlay) pin() {
	scale := o.win.Canvas().Scale()
	px := image.Pt(int(o.size.Width*scale), int(o.size.Height*scale))
	platform.MakeOverlay(o.title, px)
}

// applyOpacity covers the content with the background colour at 1-opacity.
func (o *Overlay) applyOpacity(opacity float64) {
	if opacity < 0 {
		opacity = 0
	}
	if opacity > 1 {
		opacity = 1
	}
	o.opacity = opacity
	veil := backgroundColor
	veil.A = uint8((1 - opacity) * 255)
	o.veil.FillColor = veil
	o.veil.Refresh()
}

// handlePress starts a window drag where the platform supports it. A
// completed drag also counts as a click.
func (o *Overlay) handlePress() {
	o.pressed = true
	o.dragged = platform.DragWindow(o.title)
	if o.dragged {
		o.pressed = false
		o.reset()
	}
}

func (o *Overlay) handleRelease() {
	if !o.pressed {
		return
	}
	o.pressed = false
	if !o.dragged {
		o.reset()
	}
}

func (o *Overlay) reset() {
	if o.onReset != nil {
		o.onReset()
	}
}
