// Package capture provides vision.FrameSource implementations: a live Win32
// window and a still screenshot.
package capture

import (
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"

	"github.com/disintegration/gift"
	"github.com/lkarlslund/autolevel/internal/vision"
	"github.com/lkarlslund/autolevel/internal/window"
)

var ErrUnsupported = window.ErrUnsupported

// ImageSource serves the same still image on every capture, optionally
// cropped to a region.
type ImageSource struct {
	frame vision.Frame
}

// NewImageSource crops img to region. An empty region keeps the whole image.
func NewImageSource(img image.Image, region image.Rectangle) (*ImageSource, error) {
	if img == nil || img.Bounds().Empty() {
		return nil, fmt.Errorf("empty image")
	}
	if region.Empty() {
		region = img.Bounds()
	}
	region = region.Intersect(img.Bounds())
	if region.Empty() {
		return nil, fmt.Errorf("region %v is outside the image %v", region, img.Bounds())
	}

	g := gift.New(gift.Crop(region))
	dst := image.NewRGBA(g.Bounds(img.Bounds()))
	g.Draw(dst, img)
	return &ImageSource{frame: vision.Frame{Image: dst, Origin: region.Min}}, nil
}

func LoadImageSource(path string, region image.Rectangle) (*ImageSource, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decoding %s: %w", path, err)
	}
	return NewImageSource(img, region)
}

func (s *ImageSource) Capture() (vision.Frame, error) {
	return s.frame, nil
}

func (s *ImageSource) Close() error { return nil }

// swapRB converts BGRA pixel data to RGBA in place and makes it opaque.
func swapRB(pix []byte) {
	for i := 0; i+3 < len(pix); i += 4 {
		pix[i], pix[i+2] = pix[i+2], pix[i]
		pix[i+3] = 255
	}
}
