package config

import (
	"time"

	"github.com/lkarlslund/autolevel/internal/template"
)

// Settings is the resolved, read-only view of the configuration the worker
// uses. A new value is built and handed to the loop whenever settings are saved.
type Settings struct {
	Profile           string
	Thresholds        template.ThresholdTable
	ShowHighlight     bool
	HighlightDuration time.Duration
	MovementMode      MovementMode
	Keys              Keys
	Tuning            Tuning
	Required          []template.Category // warned about at start when no template exists
}

func (c Config) Settings() (Settings, error) {
	p := c.Profile()
	thresholds, err := template.ThresholdsFromNames(p.Thresholds)
	if err != nil {
		return Settings{}, err
	}
	return Settings{
		Profile:           c.ActiveProfile,
		Thresholds:        thresholds,
		ShowHighlight:     p.ShowHighlight,
		HighlightDuration: time.Duration(p.HighlightDuration) * time.Millisecond,
		MovementMode:      c.MovementMode,
		Keys:              c.Keys,
		Tuning:            c.Tuning,
		Required:          c.Required(),
	}, nil
}

// DefaultSettings resolves Default(); it cannot fail.
func DefaultSettings() Settings {
	s, _ := Default().Settings()
	return s
}
