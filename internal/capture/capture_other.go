//go:build !windows

package capture

import (
	"github.com/lkarlslund/autolevel/internal/vision"
	"github.com/lkarlslund/autolevel/internal/window"
)

type WindowSource struct{}

func NewWindowSource(h window.Handle) (*WindowSource, error) {
	return nil, ErrUnsupported
}

func (s *WindowSource) Capture() (vision.Frame, error) {
	return vision.Frame{}, ErrUnsupported
}

func (s *WindowSource) Close() error { return nil }
