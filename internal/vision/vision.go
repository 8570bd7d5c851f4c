// Package vision turns captured frames into template matches. The actual
// correlation is done by a Matcher implementation (see cvmatch); this package
// owns capture reuse, coordinate translation, logging and highlight events.
package vision

import (
	"image"
	"math"

	"github.com/lkarlslund/autolevel/internal/template"
)

// Frame is a captured client area. Origin is the screen position of the
// frame's top-left pixel.
type Frame struct {
	Image  *image.RGBA
	Origin image.Point
}

func (f Frame) Empty() bool {
	return f.Image == nil || f.Image.Bounds().Empty()
}

// FrameSource captures the target window. Implementations are not safe for
// concurrent use and must stay on the goroutine that created them.
type FrameSource interface {
	Capture() (Frame, error)
	Close() error
}

// Result is the outcome of matching one template against one frame.
type Result struct {
	Matched    bool
	Confidence float64
	Region     image.Rectangle
	Name       string
}

type Matcher interface {
	Match(frame *image.RGBA, t template.Template, threshold float64) (Result, error)
	Close() error
}

// Accept decides whether a confidence clears a threshold.
func Accept(confidence, threshold float64) bool {
	return confidence >= threshold
}

// Confidence converts the minimum of a normalized squared difference surface
// into a similarity in [0,1], 1 being a perfect match.
func Confidence(minSqDiff float64) float64 {
	if math.IsNaN(minSqDiff) || math.IsInf(minSqDiff, 0) {
		return 0
	}
	c := 1 - minSqDiff
	if c < 0 {
		return 0
	}
	if c > 1 {
		return 1
	}
	return c
}
