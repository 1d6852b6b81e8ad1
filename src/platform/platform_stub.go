//go:build !windows

package platform

import "image"

func cursorPosition() (image.Point, bool) { return image.Point{}, false }

func enableDPIAwareness() {}

func dragWindow(title string) bool { return false }

func makeOverlay(title string, size image.Point) bool { return false }
