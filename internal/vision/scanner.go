package vision

import (
	"errors"
	"fmt"
	"image/color"
	"log/slog"
	"time"

	"github.com/lkarlslund/autolevel/internal/event"
	"github.com/lkarlslund/autolevel/internal/template"
)

type Notifier interface {
	Send(e event.Event) bool
}

type Options struct {
	// MaxAge lets consecutive lookups share one capture. Zero captures on every lookup.
	MaxAge            time.Duration
	Highlight         bool
	HighlightDuration time.Duration
	Now               func() time.Time
}

// Scanner answers "is a template of this category on screen" against fresh
// captures of one window. It belongs to a single goroutine.
type Scanner struct {
	source   FrameSource
	matcher  Matcher
	store    *template.Store
	notifier Notifier
	logger   *slog.Logger
	opts     Options

	frame   Frame
	frameAt time.Time
	cached  bool
}

func NewScanner(source FrameSource, matcher Matcher, store *template.Store, notifier Notifier, logger *slog.Logger, opts Options) *Scanner {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Scanner{
		source:   source,
		matcher:  matcher,
		store:    store,
		notifier: notifier,
		logger:   logger,
		opts:     opts,
	}
}

func (s *Scanner) SetHighlight(enabled bool, d time.Duration) {
	s.opts.Highlight = enabled
	s.opts.HighlightDuration = d
}

func (s *Scanner) capture() (Frame, error) {
	now := s.opts.Now()
	if s.cached && s.opts.MaxAge > 0 && now.Sub(s.frameAt) < s.opts.MaxAge {
		return s.frame, nil
	}
	f, err := s.source.Capture()
	if err != nil {
		s.cached = false
		return Frame{}, err
	}
	s.frame, s.frameAt, s.cached = f, now, true
	return f, nil
}

// Find returns the first template of c that clears threshold, in
// registration order. Every failure is logged and reported as no match.
func (s *Scanner) Find(c template.Category, threshold float64) Result {
	templates := s.store.Templates(c)
	if len(templates) == 0 {
		return Result{}
	}

	frame, err := s.capture()
	if err != nil {
		s.logger.Warn("Screen capture failed", slog.String("category", c.String()), slog.Any("error", err))
		return Result{}
	}
	if frame.Empty() {
		return Result{}
	}

	for _, t := range templates {
		r, err := s.matcher.Match(frame.Image, t, threshold)
		if err != nil {
			s.logger.Warn("Template matching failed", slog.String("template", t.Name), slog.Any("error", err))
			continue
		}
		if !r.Matched {
			continue
		}
		r.Region = r.Region.Add(frame.Origin)
		s.logger.Debug(fmt.Sprintf("%s found (%.2f)", t.Name, r.Confidence))
		if s.opts.Highlight && s.notifier != nil {
			s.notifier.Send(event.Highlight(event.Text(t.Name), r.Region, s.opts.HighlightDuration))
		}
		return r
	}
	return Result{}
}

// Scan matches every template of c and returns all results, matched or not.
func (s *Scanner) Scan(c template.Category, threshold float64) ([]Result, error) {
	frame, err := s.capture()
	if err != nil {
		return nil, err
	}
	var results []Result
	for _, t := range s.store.Templates(c) {
		r, err := s.matcher.Match(frame.Image, t, threshold)
		if err != nil {
			return results, fmt.Errorf("matching %s: %w", t.Name, err)
		}
		r.Name = t.Name
		r.Region = r.Region.Add(frame.Origin)
		results = append(results, r)
	}
	return results, nil
}

// Pixel samples the colour at a position relative to the frame size, so
// (0.95, 0.05) is near the top-right corner whatever the window size.
func (s *Scanner) Pixel(x, y float64) (color.RGBA, error) {
	frame, err := s.capture()
	if err != nil {
		return color.RGBA{}, err
	}
	if frame.Empty() {
		return color.RGBA{}, errors.New("empty frame")
	}
	b := frame.Image.Bounds()
	px := b.Min.X + int(float64(b.Dx())*x)
	py := b.Min.Y + int(float64(b.Dy())*y)
	if px >= b.Max.X {
		px = b.Max.X - 1
	}
	if py >= b.Max.Y {
		py = b.Max.Y - 1
	}
	return frame.Image.RGBAAt(px, py), nil
}

func (s *Scanner) Close() error {
	var errs []error
	if s.matcher != nil {
		errs = append(errs, s.matcher.Close())
	}
	if s.source != nil {
		errs = append(errs, s.source.Close())
	}
	return errors.Join(errs...)
}
