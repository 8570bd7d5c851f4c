// Package window locates the game window and reports where its client area
// sits on screen.
package window

import (
	"errors"
	"fmt"
	"image"
)

type Handle uintptr

var (
	ErrNotFound    = errors.New("window not found")
	ErrUnsupported = errors.New("window access is only supported on windows")
)

// coordinateLimit bounds plausible desktop coordinates. Minimized windows
// report positions around -32000.
const coordinateLimit = 10000

// CheckRegion rejects empty regions and positions no real monitor layout has.
func CheckRegion(r image.Rectangle) error {
	if r.Empty() {
		return fmt.Errorf("window has an empty client area %v", r)
	}
	if r.Min.X < -coordinateLimit || r.Min.Y < -coordinateLimit || r.Max.X > coordinateLimit || r.Max.Y > coordinateLimit {
		return fmt.Errorf("window has invalid coordinates %v", r)
	}
	return nil
}

// Center is the middle of r, rounded down.
func Center(r image.Rectangle) image.Point {
	return image.Pt(r.Min.X+r.Dx()/2, r.Min.Y+r.Dy()/2)
}
