//go:build !windows

package input

import "github.com/lkarlslund/autolevel/internal/window"

// Win32 is unavailable off windows; every call fails with
// window.ErrUnsupported.
type Win32 struct{}

func NewWin32(h window.Handle) *Win32 {
	return &Win32{}
}

func (w *Win32) Focus() (func(), error) { return nil, window.ErrUnsupported }

func (w *Win32) KeyDown(vk uint16) error { return window.ErrUnsupported }

func (w *Win32) KeyUp(vk uint16) error { return window.ErrUnsupported }

func (w *Win32) Click(b Button) error { return window.ErrUnsupported }
