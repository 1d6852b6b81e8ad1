// Package platform wraps the few OS calls the overlay needs. Everything here
// is best-effort: callers must cope with the "unknown" answers returned on
// platforms without an implementation.
package platform

import "image"

// CursorPosition returns the pointer position in virtual-screen coordinates.
// ok is false when the position is unknown.
func CursorPosition() (pt image.Point, ok bool) {
	return cursorPosition()
}

// EnableDPIAwareness opts the process into per-monitor DPI awareness so
// screen coordinates match physical pixels. Call before creating windows.
func EnableDPIAwareness() {
	enableDPIAwareness()
}

// DragWindow starts a modal move of the top-level window with the given
// title and returns once the mouse button is released. It returns false when
// no drag happened.
func DragWindow(title string) bool {
	return dragWindow(title)
}

// OverlayMargin is the gap between the overlay and the bottom of the screen.
const OverlayMargin = 50

// MakeOverlay turns the top-level window with the given title into a
// topmost, non-activating tool window kept out of the taskbar, and moves it
// to the bottom centre of the primary screen. size is the window size in
// physical pixels; a zero size means use the window's current size. It
// returns false when the window was not found or the platform has no
// implementation.
func MakeOverlay(title string, size image.Point) bool {
	return makeOverlay(title, size)
}

// OverlayPosition returns the top-left corner that centres a window of size
// win horizontally on a screen of size screen, OverlayMargin above its
// bottom edge. The result never leaves the screen.
func OverlayPosition(screen, win image.Point) image.Point {
	x := (screen.X - win.X) / 2
	y := screen.Y - win.Y - OverlayMargin
	return image.Pt(max(x, 0), max(y, 0))
}
