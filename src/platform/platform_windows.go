//go:build windows

package platform

import (
	"image"
	"syscall"
	"unsafe"

	"golang.org/x/sys/windows"
)

const (
	wmNCLButtonDown = 0x00A1
	htCaption       = 2

	gwlExStyle      = ^uintptr(19) // -20
	wsExToolWindow  = 0x00000080
	wsExNoActivate  = 0x08000000
	swpNoSize       = 0x0001
	swpNoActivate   = 0x0010
	swpFrameChanged = 0x0020
	smCXScreen      = 0
	smCYScreen      = 1
	hwndTopmost     = ^uintptr(0)

	// PROCESS_PER_MONITOR_DPI_AWARE
	perMonitorDPIAware = 2
)

var (
	user32 = windows.NewLazySystemDLL("user32.dll")
	shcore = windows.NewLazySystemDLL("Shcore.dll")

	procGetCursorPos           = user32.NewProc("GetCursorPos")
	procFindWindowW            = user32.NewProc("FindWindowW")
	procReleaseCapture         = user32.NewProc("ReleaseCapture")
	procSendMessageW           = user32.NewProc("SendMessageW")
	procSetProcessDPIAware     = user32.NewProc("SetProcessDPIAware")
	procGetWindowLongW         = user32.NewProc("GetWindowLongW")
	procSetWindowLongW         = user32.NewProc("SetWindowLongW")
	procSetWindowPos           = user32.NewProc("SetWindowPos")
	procGetWindowRect          = user32.NewProc("GetWindowRect")
	procGetSystemMetrics       = user32.NewProc("GetSystemMetrics")
	procSetProcessDpiAwareness = shcore.NewProc("SetProcessDpiAwareness")
)

type point struct {
	X, Y int32
}

type rect struct {
	Left, Top, Right, Bottom int32
}

func cursorPosition() (image.Point, bool) {
	var p point
	r, _, _ := procGetCursorPos.Call(uintptr(unsafe.Pointer(&p)))
	if r == 0 {
		return image.Point{}, false
	}
	return image.Pt(int(p.X), int(p.Y)), true
}

func enableDPIAwareness() {
	// Shcore.SetProcessDpiAwareness is Win 8.1+; fall back to the Vista API.
	if err := procSetProcessDpiAwareness.Find(); err == nil {
		_, _, _ = procSetProcessDpiAwareness.Call(uintptr(perMonitorDPIAware))
		return
	}
	if err := procSetProcessDPIAware.Find(); err == nil {
		_, _, _ = procSetProcessDPIAware.Call()
	}
}

func findWindow(title string) uintptr {
	titlePtr, err := syscall.UTF16PtrFromString(title)
	if err != nil {
		return 0
	}
	hwnd, _, _ := procFindWindowW.Call(0, uintptr(unsafe.Pointer(titlePtr)))
	return hwnd
}

func makeOverlay(title string, size image.Point) bool {
	hwnd := findWindow(title)
	if hwnd == 0 {
		return false
	}
	exStyle, _, _ := procGetWindowLongW.Call(hwnd, gwlExStyle)
	exStyle |= wsExToolWindow | wsExNoActivate
	_, _, _ = procSetWindowLongW.Call(hwnd, gwlExStyle, exStyle)

	if size.X <= 0 || size.Y <= 0 {
		var r rect
		if ok, _, _ := procGetWindowRect.Call(hwnd, uintptr(unsafe.Pointer(&r))); ok == 0 {
			return false
		}
		size = image.Pt(int(r.Right-r.Left), int(r.Bottom-r.Top))
	}
	cx, _, _ := procGetSystemMetrics.Call(smCXScreen)
	cy, _, _ := procGetSystemMetrics.Call(smCYScreen)
	pos := OverlayPosition(image.Pt(int(cx), int(cy)), size)

	r, _, _ := procSetWindowPos.Call(hwnd, hwndTopmost,
		uintptr(pos.X), uintptr(pos.Y), 0, 0,
		swpNoSize|swpNoActivate|swpFrameChanged)
	return r != 0
}

func dragWindow(title string) bool {
	hwnd := findWindow(title)
	if hwnd == 0 {
		return false
	}
	_, _, _ = procReleaseCapture.Call()
	// Blocks in the system move loop until the button is released.
	_, _, _ = procSendMessageW.Call(hwnd, wmNCLButtonDown, htCaption, 0)
	return true
}
