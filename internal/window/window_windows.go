package window

import (
	"fmt"
	"image"
	"syscall"
	"time"

	"github.com/lkarlslund/autolevel/internal/window/winproc"
	"github.com/lxn/win"
)

// Find returns the visible top level window with exactly this title,
// restoring it if it is minimized.
func Find(title string) (Handle, error) {
	winproc.EnableDPIAwareness()

	name, err := syscall.UTF16PtrFromString(title)
	if err != nil {
		return 0, fmt.Errorf("window title %q: %w", title, err)
	}
	hwnd := win.FindWindow(nil, name)
	if hwnd == 0 || !win.IsWindowVisible(hwnd) {
		return 0, fmt.Errorf("%w: %q", ErrNotFound, title)
	}

	if minimized, _, _ := winproc.IsIconic.Call(uintptr(hwnd)); minimized != 0 {
		win.ShowWindow(hwnd, win.SW_RESTORE)
		time.Sleep(100 * time.Millisecond)
	}

	h := Handle(hwnd)
	r, err := ClientRegion(h)
	if err != nil {
		return 0, err
	}
	if err := CheckRegion(r); err != nil {
		return 0, err
	}
	return h, nil
}

// ClientRegion is the client area of h in screen coordinates.
func ClientRegion(h Handle) (image.Rectangle, error) {
	hwnd := win.HWND(h)
	if !win.IsWindow(hwnd) {
		return image.Rectangle{}, fmt.Errorf("%w: handle %#x is gone", ErrNotFound, uintptr(h))
	}
	var rc win.RECT
	if !win.GetClientRect(hwnd, &rc) {
		return image.Rectangle{}, fmt.Errorf("error getting window dimensions for %#x", uintptr(h))
	}
	origin := win.POINT{X: rc.Left, Y: rc.Top}
	if !win.ClientToScreen(hwnd, &origin) {
		return image.Rectangle{}, fmt.Errorf("error translating client origin for %#x", uintptr(h))
	}
	return image.Rect(int(origin.X), int(origin.Y), int(origin.X+rc.Right-rc.Left), int(origin.Y+rc.Bottom-rc.Top)), nil
}

func Valid(h Handle) bool {
	return h != 0 && win.IsWindow(win.HWND(h))
}

func Foreground() Handle {
	return Handle(win.GetForegroundWindow())
}

func Activate(h Handle) bool {
	return win.SetForegroundWindow(win.HWND(h))
}
