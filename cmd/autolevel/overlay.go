package main

import (
	"context"
	"image"
	"image/color"
	"log/slog"
	"runtime"
	"sync"
	"time"

	"gocv.io/x/gocv"

	"github.com/lkarlslund/autolevel/internal/capture"
	"github.com/lkarlslund/autolevel/internal/event"
	"github.com/lkarlslund/autolevel/internal/window"
)

const (
	overlayInterval = 40 * time.Millisecond
	keyEscape       = 27
)

var highlightColor = color.RGBA{128, 255, 128, 0}

type mark struct {
	label string
	rect  image.Rectangle
	until time.Time
}

// overlay is a debug window showing the game capture with the matches the
// bot reported outlined until their highlight expires.
type overlay struct {
	handle window.Handle
	logger *slog.Logger

	mu    sync.Mutex
	marks []mark
}

func newOverlay(h window.Handle, logger *slog.Logger) *overlay {
	return &overlay{handle: h, logger: logger}
}

// Handle is an event.Handler collecting highlight requests.
func (o *overlay) Handle(_ context.Context, e event.Event) error {
	h, ok := e.(event.HighlightEvent)
	if !ok || h.Duration <= 0 {
		return nil
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	o.marks = append(o.marks, mark{label: h.Message(), rect: h.Rect, until: h.OccurredAt().Add(h.Duration)})
	return nil
}

// active drops expired marks and returns the rest.
func (o *overlay) active(now time.Time) []mark {
	o.mu.Lock()
	defer o.mu.Unlock()
	kept := o.marks[:0]
	for _, m := range o.marks {
		if now.Before(m.until) {
			kept = append(kept, m)
		}
	}
	o.marks = kept
	return append([]mark(nil), kept...)
}

// Run shows the window until ctx is done or ESC is pressed in it. OpenCV
// windows belong to the thread that created them.
func (o *overlay) Run(ctx context.Context) error {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	source, err := capture.NewWindowSource(o.handle)
	if err != nil {
		return err
	}
	defer source.Close()

	w := gocv.NewWindow("autolevel")
	defer w.Close()

	var lastSize image.Point
	ticker := time.NewTicker(overlayInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}

		frame, err := source.Capture()
		if err != nil {
			o.logger.Debug("Overlay capture failed", slog.Any("error", err))
			continue
		}
		mat, err := gocv.ImageToMatRGB(frame.Image)
		if err != nil {
			o.logger.Debug("Overlay conversion failed", slog.Any("error", err))
			continue
		}
		if size := frame.Image.Bounds().Size(); size != lastSize {
			w.ResizeWindow(size.X, size.Y)
			lastSize = size
		}

		for _, m := range o.active(time.Now()) {
			r := m.rect.Sub(frame.Origin)
			gocv.Rectangle(&mat, r, highlightColor, 2)
			gocv.PutText(&mat, m.label, r.Min.Add(image.Pt(4, 12)), gocv.FontHersheyPlain, 1, highlightColor, 2)
		}

		w.IMShow(mat)
		mat.Close()
		if w.WaitKey(5) == keyEscape {
			o.logger.Info("Overlay closed, stopping")
			return nil
		}
	}
}
