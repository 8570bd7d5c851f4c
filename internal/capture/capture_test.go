package capture

import (
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/lkarlslund/autolevel/internal/window"
)

func gradient(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, color.RGBA{uint8(x), uint8(y), 0, 255})
		}
	}
	return img
}

func TestImageSourceCrop(t *testing.T) {
	src, err := NewImageSource(gradient(64, 32), image.Rect(10, 5, 30, 25))
	if err != nil {
		t.Fatalf("NewImageSource: %v", err)
	}
	frame, err := src.Capture()
	if err != nil {
		t.Fatalf("Capture: %v", err)
	}
	if frame.Origin != image.Pt(10, 5) {
		t.Fatalf("origin = %v", frame.Origin)
	}
	if b := frame.Image.Bounds(); b.Dx() != 20 || b.Dy() != 20 {
		t.Fatalf("bounds = %v", b)
	}
	b := frame.Image.Bounds()
	if c := frame.Image.RGBAAt(b.Min.X, b.Min.Y); c.R != 10 || c.G != 5 {
		t.Fatalf("top-left pixel = %v, want the pixel at (10,5)", c)
	}
}

func TestImageSourceWholeImage(t *testing.T) {
	src, err := NewImageSource(gradient(8, 4), image.Rectangle{})
	if err != nil {
		t.Fatal(err)
	}
	frame, _ := src.Capture()
	if frame.Origin != (image.Point{}) || frame.Image.Bounds().Dx() != 8 {
		t.Fatalf("unexpected frame %v %v", frame.Origin, frame.Image.Bounds())
	}

	if _, err := NewImageSource(gradient(8, 4), image.Rect(20, 20, 30, 30)); err == nil {
		t.Fatalf("region outside the image should fail")
	}
	if _, err := NewImageSource(nil, image.Rectangle{}); err == nil {
		t.Fatalf("nil image should fail")
	}
}

func TestLoadImageSource(t *testing.T) {
	path := filepath.Join(t.TempDir(), "shot.png")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := png.Encode(f, gradient(16, 16)); err != nil {
		t.Fatal(err)
	}
	f.Close()

	src, err := LoadImageSource(path, image.Rectangle{})
	if err != nil {
		t.Fatalf("LoadImageSource: %v", err)
	}
	if frame, _ := src.Capture(); frame.Image.Bounds().Dx() != 16 {
		t.Fatalf("unexpected bounds %v", frame.Image.Bounds())
	}
}

func TestSwapRB(t *testing.T) {
	pix := []byte{1, 2, 3, 0, 10, 20, 30, 0}
	swapRB(pix)
	want := []byte{3, 2, 1, 255, 30, 20, 10, 255}
	for i := range want {
		if pix[i] != want[i] {
			t.Fatalf("swapRB = %v, want %v", pix, want)
		}
	}
}

func TestWindowSourceUnsupported(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("only meaningful off windows")
	}
	if _, err := NewWindowSource(window.Handle(1)); !errors.Is(err, ErrUnsupported) {
		t.Fatalf("expected ErrUnsupported, got %v", err)
	}
}
