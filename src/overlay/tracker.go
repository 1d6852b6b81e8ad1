package overlay

import (
	"sync/atomic"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/widget"
)

// pointerTracker wraps the overlay content and records whether the pointer
// is over it. Press and release of the primary button are forwarded.
type pointerTracker struct {
	widget.BaseWidget
	content   fyne.CanvasObject
	inside    atomic.Bool
	OnPress   func()
	OnRelease func()
}

var (
	_ desktop.Hoverable = (*pointerTracker)(nil)
	_ desktop.Mouseable = (*pointerTracker)(nil)
)

func newPointerTracker(content fyne.CanvasObject) *pointerTracker {
	t := &pointerTracker{content: content}
	t.ExtendBaseWidget(t)
	return t
}

func (t *pointerTracker) CreateRenderer() fyne.WidgetRenderer {
	return widget.NewSimpleRenderer(t.content)
}

func (t *pointerTracker) MouseIn(_ *desktop.MouseEvent) { t.inside.Store(true) }

func (t *pointerTracker) MouseMoved(_ *desktop.MouseEvent) { t.inside.Store(true) }

func (t *pointerTracker) MouseOut() { t.inside.Store(false) }

func (t *pointerTracker) MouseDown(e *desktop.MouseEvent) {
	if e.Button == desktop.MouseButtonPrimary && t.OnPress != nil {
		t.OnPress()
	}
}

func (t *pointerTracker) MouseUp(e *desktop.MouseEvent) {
	if e.Button == desktop.MouseButtonPrimary && t.OnRelease != nil {
		t.OnRelease()
	}
}

func (t *pointerTracker) Cursor() desktop.Cursor {
	return desktop.PointerCursor
}

// Inside reports the last hover state. Safe from any goroutine.
func (t *pointerTracker) Inside() bool { return t.inside.Load() }

func (t *pointerTracker) clearInside() { t.inside.Store(false) }
