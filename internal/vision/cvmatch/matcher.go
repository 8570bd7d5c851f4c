// Package cvmatch implements vision.Matcher with OpenCV normalized squared
// difference template matching.
package cvmatch

import (
	"fmt"
	"image"

	"github.com/lkarlslund/autolevel/internal/template"
	"github.com/lkarlslund/autolevel/internal/vision"
	"gocv.io/x/gocv"
)

// Matcher keeps template mats across calls and converts a frame only once
// while the same frame is matched against several templates. Not safe for
// concurrent use.
type Matcher struct {
	templates map[string]gocv.Mat
	mask      gocv.Mat

	lastFrame *image.RGBA
	frameMat  gocv.Mat
	hasFrame  bool
}

func New() *Matcher {
	return &Matcher{
		templates: make(map[string]gocv.Mat),
		mask:      gocv.NewMat(),
	}
}

func (m *Matcher) frame(img *image.RGBA) (gocv.Mat, error) {
	if m.hasFrame && m.lastFrame == img {
		return m.frameMat, nil
	}
	mat, err := gocv.ImageToMatRGB(img)
	if err != nil {
		return gocv.Mat{}, fmt.Errorf("converting frame: %w", err)
	}
	if m.hasFrame {
		m.frameMat.Close()
	}
	m.frameMat, m.lastFrame, m.hasFrame = mat, img, true
	return mat, nil
}

func (m *Matcher) template(t template.Template) (gocv.Mat, error) {
	if mat, found := m.templates[t.Name]; found {
		return mat, nil
	}
	mat, err := gocv.ImageToMatRGB(t.Image)
	if err != nil {
		return gocv.Mat{}, fmt.Errorf("converting template %s: %w", t.Name, err)
	}
	m.templates[t.Name] = mat
	return mat, nil
}

// Match slides t over frame and reports the best location. Frames smaller
// than the template, and empty inputs, are a plain no match.
func (m *Matcher) Match(frame *image.RGBA, t template.Template, threshold float64) (vision.Result, error) {
	res := vision.Result{Name: t.Name}
	if frame == nil || frame.Bounds().Empty() || t.Image == nil || t.Image.Bounds().Empty() {
		return res, nil
	}
	fb, tb := frame.Bounds(), t.Image.Bounds()
	if tb.Dx() > fb.Dx() || tb.Dy() > fb.Dy() {
		return res, nil
	}

	screen, err := m.frame(frame)
	if err != nil {
		return res, err
	}
	tmpl, err := m.template(t)
	if err != nil {
		return res, err
	}

	result := gocv.NewMat()
	defer result.Close()
	gocv.MatchTemplate(screen, tmpl, &result, gocv.TmSqdiffNormed, m.mask)
	if result.Empty() {
		return res, nil
	}
	minVal, _, loc, _ := gocv.MinMaxLoc(result)

	res.Confidence = vision.Confidence(float64(minVal))
	res.Matched = vision.Accept(res.Confidence, threshold)
	res.Region = image.Rect(loc.X, loc.Y, loc.X+tmpl.Cols(), loc.Y+tmpl.Rows())
	return res, nil
}

func (m *Matcher) Close() error {
	for name, mat := range m.templates {
		mat.Close()
		delete(m.templates, name)
	}
	if m.hasFrame {
		m.frameMat.Close()
		m.hasFrame = false
		m.lastFrame = nil
	}
	return m.mask.Close()
}
