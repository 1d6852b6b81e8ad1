// Package tray installs the system-tray menu for the overlay.
package tray

import (
	"log"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/driver/desktop"
)

const menuTitle = "Screen Timer"

// Actions are invoked on the fyne goroutine.
type Actions struct {
	Reset func()
	// CopyResponse is optional; the item is omitted when nil.
	CopyResponse func()
}

// Setup installs the tray icon and menu. It returns false when the driver has
// no system tray. fyne adds the Quit item itself.
func Setup(a fyne.App, actions Actions) bool {
	desk, ok := a.(desktop.App)
	if !ok {
		log.Printf("tray: driver has no system tray")
		return false
	}
	a.SetIcon(Icon)
	desk.SetSystemTrayIcon(Icon)
	desk.SetSystemTrayMenu(Menu(actions))
	return true
}

// Menu builds the tray menu.
func Menu(actions Actions) *fyne.Menu {
	items := []*fyne.MenuItem{
		fyne.NewMenuItem("Reset timer", func() {
			if actions.Reset != nil {
				actions.Reset()
			}
		}),
	}
	if actions.CopyResponse != nil {
		items = append(items, fyne.NewMenuItem("Copy last response", actions.CopyResponse))
	}
	return fyne.NewMenu(menuTitle, items...)
}
