package input

import (
	"fmt"
	"time"
	"unsafe"

	"github.com/lkarlslund/autolevel/internal/window"
	"github.com/lxn/win"
)

// Win32 is the Backend for a real window. Keys go through SendInput, so
// the target has to be in the foreground while they are sent.
type Win32 struct {
	handle     window.Handle
	focusDelay time.Duration
	clickHold  time.Duration
}

func NewWin32(h window.Handle) *Win32 {
	return &Win32{
		handle:     h,
		focusDelay: 30 * time.Millisecond,
		clickHold:  100 * time.Millisecond,
	}
}

func (w *Win32) Focus() (func(), error) {
	if !window.Valid(w.handle) {
		return nil, fmt.Errorf("%w: handle %#x", window.ErrNotFound, uintptr(w.handle))
	}
	previous := window.Foreground()
	if previous == w.handle {
		return func() {}, nil
	}
	window.Activate(w.handle)
	time.Sleep(w.focusDelay)
	return func() {
		if previous != 0 {
			window.Activate(previous)
		}
	}, nil
}

func (w *Win32) sendKey(vk uint16, flags uint32) error {
	in := win.KEYBD_INPUT{
		Type: uint32(win.INPUT_KEYBOARD),
		Ki: win.KEYBDINPUT{
			WVk:     vk,
			DwFlags: flags,
		},
	}
	if sent := win.SendInput(1, unsafe.Pointer(&in), int32(unsafe.Sizeof(in))); sent != 1 {
		return fmt.Errorf("SendInput rejected key %#x", vk)
	}
	return nil
}

func (w *Win32) KeyDown(vk uint16) error {
	return w.sendKey(vk, 0)
}

func (w *Win32) KeyUp(vk uint16) error {
	return w.sendKey(vk, uint32(win.KEYEVENTF_KEYUP))
}

func (w *Win32) sendMouse(flags uint32) error {
	in := win.MOUSE_INPUT{
		Type: uint32(win.INPUT_MOUSE),
		Mi: win.MOUSEINPUT{
			DwFlags: flags,
		},
	}
	if sent := win.SendInput(1, unsafe.Pointer(&in), int32(unsafe.Sizeof(in))); sent != 1 {
		return fmt.Errorf("SendInput rejected mouse flags %#x", flags)
	}
	return nil
}

// Click moves the cursor to the client center and clicks there.
func (w *Win32) Click(b Button) error {
	region, err := window.ClientRegion(w.handle)
	if err != nil {
		return err
	}
	center := window.Center(region)
	if !win.SetCursorPos(int32(center.X), int32(center.Y)) {
		return fmt.Errorf("could not move cursor to %v", center)
	}

	down, up := uint32(win.MOUSEEVENTF_LEFTDOWN), uint32(win.MOUSEEVENTF_LEFTUP)
	if b == ButtonRight {
		down, up = uint32(win.MOUSEEVENTF_RIGHTDOWN), uint32(win.MOUSEEVENTF_RIGHTUP)
	}
	if err := w.sendMouse(down); err != nil {
		return err
	}
	time.Sleep(w.clickHold)
	return w.sendMouse(up)
}
