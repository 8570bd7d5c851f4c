package capture

import (
	"fmt"
	"image"
	"unsafe"

	"github.com/disintegration/gift"
	"github.com/lkarlslund/autolevel/internal/vision"
	"github.com/lkarlslund/autolevel/internal/window"
	"github.com/lkarlslund/autolevel/internal/window/winproc"
)

type bitmapInfoHeader struct {
	BiSize          uint32
	BiWidth         int32
	BiHeight        int32
	BiPlanes        uint16
	BiBitCount      uint16
	BiCompression   uint32
	BiSizeImage     uint32
	BiXPelsPerMeter int32
	BiYPelsPerMeter int32
	BiClrUsed       uint32
	BiClrImportant  uint32
}

type bitmapInfo struct {
	Header bitmapInfoHeader
	Colors [1]uint32
}

// WindowSource captures the client area of a window with BitBlt.
type WindowSource struct {
	handle window.Handle
	flip   *gift.GIFT
}

func NewWindowSource(h window.Handle) (*WindowSource, error) {
	winproc.EnableDPIAwareness()
	if !window.Valid(h) {
		return nil, fmt.Errorf("%w: handle %#x", window.ErrNotFound, uintptr(h))
	}
	return &WindowSource{
		handle: h,
		flip:   gift.New(gift.FlipVertical()),
	}, nil
}

func (s *WindowSource) Capture() (vision.Frame, error) {
	region, err := window.ClientRegion(s.handle)
	if err != nil {
		return vision.Frame{}, err
	}
	if err := window.CheckRegion(region); err != nil {
		return vision.Frame{}, err
	}
	width, height := region.Dx(), region.Dy()
	hwnd := uintptr(s.handle)

	dcSrc, _, err := winproc.GetDC.Call(hwnd)
	if dcSrc == 0 {
		return vision.Frame{}, fmt.Errorf("error preparing screen capture: %w", err)
	}
	defer winproc.ReleaseDC.Call(hwnd, dcSrc)

	dcDst, _, err := winproc.CreateCompatibleDC.Call(dcSrc)
	if dcDst == 0 {
		return vision.Frame{}, fmt.Errorf("error creating DC for drawing: %w", err)
	}
	defer winproc.DeleteDC.Call(dcDst)

	// Positive height gives a bottom-up DIB, flipped below.
	bi := bitmapInfo{Header: bitmapInfoHeader{
		BiWidth:    int32(width),
		BiHeight:   int32(height),
		BiPlanes:   1,
		BiBitCount: 32,
	}}
	bi.Header.BiSize = uint32(unsafe.Sizeof(bi.Header))

	var bits uintptr
	bitmap, _, err := winproc.CreateDIBSection.Call(dcDst, uintptr(unsafe.Pointer(&bi)), 0, uintptr(unsafe.Pointer(&bits)), 0, 0)
	if bitmap == 0 || bits == 0 {
		return vision.Frame{}, fmt.Errorf("error creating bitmap for screen capture: %w", err)
	}
	defer winproc.DeleteObject.Call(bitmap)

	old, _, _ := winproc.SelectObject.Call(dcDst, bitmap)
	defer winproc.SelectObject.Call(dcDst, old)

	ret, _, err := winproc.BitBlt.Call(dcDst, 0, 0, uintptr(width), uintptr(height), dcSrc, 0, 0, winproc.SRCCOPY)
	if ret == 0 {
		return vision.Frame{}, fmt.Errorf("error capturing screen: %w", err)
	}
	winproc.GdiFlush.Call()

	raw := image.NewRGBA(image.Rect(0, 0, width, height))
	copy(raw.Pix, unsafe.Slice((*byte)(unsafe.Pointer(bits)), width*height*4))
	swapRB(raw.Pix)

	img := image.NewRGBA(s.flip.Bounds(raw.Bounds()))
	s.flip.Draw(img, raw)
	return vision.Frame{Image: img, Origin: region.Min}, nil
}

func (s *WindowSource) Close() error {
	s.handle = 0
	return nil
}
