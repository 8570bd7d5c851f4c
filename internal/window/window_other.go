//go:build !windows

package window

import "image"

func Find(title string) (Handle, error) {
	return 0, ErrUnsupported
}

func ClientRegion(h Handle) (image.Rectangle, error) {
	return image.Rectangle{}, ErrUnsupported
}

func Valid(h Handle) bool { return false }

func Foreground() Handle { return 0 }

func Activate(h Handle) bool { return false }
