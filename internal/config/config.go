package config

import (
	"errors"
	"fmt"
	"image/color"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/lkarlslund/autolevel/internal/input"
	"github.com/lkarlslund/autolevel/internal/template"
	"gopkg.in/yaml.v3"
)

const DefaultProfile = "Default"

type MovementMode string

const (
	MovementAD   MovementMode = "ad"
	MovementSW   MovementMode = "sw"
	MovementBoth MovementMode = "both"
)

func (m MovementMode) Valid() bool {
	switch m {
	case MovementAD, MovementSW, MovementBoth:
		return true
	}
	return false
}

type Profile struct {
	ShowHighlight     bool               `yaml:"show_highlight"`
	HighlightDuration int                `yaml:"highlight_duration"`
	Thresholds        map[string]float64 `yaml:"thresholds"`
}

type Keys struct {
	Attacks    [2]string `yaml:"attacks"`
	Confirm    string    `yaml:"confirm"`
	Overload   string    `yaml:"overload"`
	Revive     string    `yaml:"revive"`
	Horizontal [2]string `yaml:"horizontal"`
	Vertical   [2]string `yaml:"vertical"`
}

// BattlePixel is the relative position sampled to detect battle transitions
// independently of template matching.
type BattlePixel struct {
	X        float64  `yaml:"x"`
	Y        float64  `yaml:"y"`
	EndColor [3]uint8 `yaml:"end_color"`
}

func (p BattlePixel) Color() color.RGBA {
	return color.RGBA{R: p.EndColor[0], G: p.EndColor[1], B: p.EndColor[2], A: 255}
}

type Tuning struct {
	TickInterval   time.Duration `yaml:"tick_interval"`
	PollInterval   time.Duration `yaml:"poll_interval"`
	ActionWait     time.Duration `yaml:"action_wait"`
	KeyPause       time.Duration `yaml:"key_pause"`
	AttackRotation int           `yaml:"attack_rotation"`
	ChoseWindow    time.Duration `yaml:"chose_window"`
	ChoseLimit     int           `yaml:"chose_limit"`
	ChoseClicks    int           `yaml:"chose_clicks"`
	ChosePause     time.Duration `yaml:"chose_pause"`
	DeathRetries   int           `yaml:"death_retries"`
	DeathPause     time.Duration `yaml:"death_pause"`
	DirectionMin   time.Duration `yaml:"direction_min"`
	DirectionMax   time.Duration `yaml:"direction_max"`
	ErrorBackoff   time.Duration `yaml:"error_backoff"`
	StopTimeout    time.Duration `yaml:"stop_timeout"`
	FrameMaxAge    time.Duration `yaml:"frame_max_age"`
	BattlePixel    BattlePixel   `yaml:"battle_pixel"`
}

type Config struct {
	WindowTitle       string             `yaml:"window_title"`
	TemplatesDir      string             `yaml:"templates_dir"`
	LogDir            string             `yaml:"log_dir"`
	Debug             bool               `yaml:"debug"`
	MovementMode      MovementMode       `yaml:"movement_mode"`
	ActiveProfile     string             `yaml:"active_profile"`
	Profiles          map[string]Profile `yaml:"profiles"`
	RequiredTemplates []string           `yaml:"required_templates"`
	Keys              Keys               `yaml:"keys"`
	Tuning            Tuning             `yaml:"tuning"`
}

// Validate checks that every binding names a key the input layer can send.
func (k Keys) Validate() error {
	return input.Validate(
		input.Key(k.Attacks[0]), input.Key(k.Attacks[1]),
		input.Key(k.Confirm), input.Key(k.Overload), input.Key(k.Revive),
		input.Key(k.Horizontal[0]), input.Key(k.Horizontal[1]),
		input.Key(k.Vertical[0]), input.Key(k.Vertical[1]),
	)
}

func DefaultKeys() Keys {
	return Keys{
		Attacks:    [2]string{"1", "2"},
		Confirm:    "f",
		Overload:   "6",
		Revive:     "w",
		Horizontal: [2]string{"a", "d"},
		Vertical:   [2]string{"s", "w"},
	}
}

func DefaultTuning() Tuning {
	return Tuning{
		TickInterval:   10 * time.Millisecond,
		PollInterval:   100 * time.Millisecond,
		ActionWait:     5 * time.Second,
		KeyPause:       time.Second,
		AttackRotation: 5,
		ChoseWindow:    20 * time.Second,
		ChoseLimit:     5,
		ChoseClicks:    3,
		ChosePause:     500 * time.Millisecond,
		DeathRetries:   5,
		DeathPause:     200 * time.Millisecond,
		DirectionMin:   5 * time.Second,
		DirectionMax:   10 * time.Second,
		ErrorBackoff:   500 * time.Millisecond,
		StopTimeout:    time.Second,
		BattlePixel: BattlePixel{
			X:        0.95,
			Y:        0.05,
			EndColor: [3]uint8{60, 232, 234},
		},
	}
}

func DefaultProfileValues() Profile {
	return Profile{
		ShowHighlight:     true,
		HighlightDuration: 750,
		Thresholds:        template.DefaultThresholds().Names(),
	}
}

func Default() Config {
	required := make([]string, 0, len(template.DefaultRequired))
	for _, c := range template.DefaultRequired {
		required = append(required, c.String())
	}
	return Config{
		WindowTitle:       "Temtem",
		TemplatesDir:      "img",
		LogDir:            "logs",
		MovementMode:      MovementBoth,
		ActiveProfile:     DefaultProfile,
		Profiles:          map[string]Profile{DefaultProfile: DefaultProfileValues()},
		RequiredTemplates: required,
		Keys:              DefaultKeys(),
		Tuning:            DefaultTuning(),
	}
}

// Load reads the config at path. A missing file is created with defaults.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		cfg := Default()
		if err := cfg.Save(path); err != nil {
			return cfg, err
		}
		return cfg, nil
	}
	if err != nil {
		return Config{}, fmt.Errorf("reading config: %w", err)
	}

	// Decode over the defaults so older files without newer sections still load.
	cfg := Default()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("decoding config %s: %w", path, err)
	}
	cfg.EnsureDefaultProfile()
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

func (c Config) Save(path string) error {
	text, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, text, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

// EnsureDefaultProfile recreates the Default profile and the active profile
// pointer when they are missing.
func (c *Config) EnsureDefaultProfile() {
	if c.Profiles == nil {
		c.Profiles = map[string]Profile{}
	}
	if _, found := c.Profiles[DefaultProfile]; !found {
		c.Profiles[DefaultProfile] = DefaultProfileValues()
	}
	if _, found := c.Profiles[c.ActiveProfile]; !found {
		c.ActiveProfile = DefaultProfile
	}
}

func (c Config) Validate() error {
	if !c.MovementMode.Valid() {
		return fmt.Errorf("movement_mode must be one of ad, sw, both: %q", c.MovementMode)
	}
	for name, p := range c.Profiles {
		if _, err := template.ThresholdsFromNames(p.Thresholds); err != nil {
			return fmt.Errorf("profile %s: %w", name, err)
		}
		if p.HighlightDuration < 0 {
			return fmt.Errorf("profile %s: highlight_duration must not be negative", name)
		}
	}
	for _, name := range c.RequiredTemplates {
		if _, err := template.ParseCategory(name); err != nil {
			return fmt.Errorf("required_templates: %w", err)
		}
	}
	if err := c.Keys.Validate(); err != nil {
		return fmt.Errorf("keys: %w", err)
	}
	t := c.Tuning
	if t.TickInterval <= 0 || t.PollInterval <= 0 || t.ActionWait <= 0 {
		return errors.New("tuning: tick_interval, poll_interval and action_wait must be positive")
	}
	if t.AttackRotation < 1 || t.ChoseLimit < 1 || t.ChoseClicks < 0 || t.DeathRetries < 0 {
		return errors.New("tuning: attack_rotation and chose_limit must be at least 1, retry counts not negative")
	}
	if t.DirectionMin <= 0 || t.DirectionMax < t.DirectionMin {
		return errors.New("tuning: direction_min must be positive and not above direction_max")
	}
	if t.BattlePixel.X < 0 || t.BattlePixel.X >= 1 || t.BattlePixel.Y < 0 || t.BattlePixel.Y >= 1 {
		return errors.New("tuning: battle_pixel coordinates must be within [0,1)")
	}
	return nil
}

// Profile returns the active profile.
func (c Config) Profile() Profile {
	if p, found := c.Profiles[c.ActiveProfile]; found {
		return p
	}
	if p, found := c.Profiles[DefaultProfile]; found {
		return p
	}
	return DefaultProfileValues()
}

func (c Config) ProfileNames() []string {
	names := make([]string, 0, len(c.Profiles))
	for name := range c.Profiles {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (c *Config) SetProfile(name string, p Profile) error {
	if name == "" {
		return errors.New("profile name is empty")
	}
	if _, err := template.ThresholdsFromNames(p.Thresholds); err != nil {
		return err
	}
	if c.Profiles == nil {
		c.Profiles = map[string]Profile{}
	}
	c.Profiles[name] = p
	return nil
}

func (c *Config) UseProfile(name string) error {
	if _, found := c.Profiles[name]; !found {
		return fmt.Errorf("profile %q does not exist", name)
	}
	c.ActiveProfile = name
	return nil
}

// DeleteProfile removes a profile. The Default profile cannot be removed.
func (c *Config) DeleteProfile(name string) error {
	if name == DefaultProfile {
		return errors.New("the Default profile cannot be deleted")
	}
	if _, found := c.Profiles[name]; !found {
		return fmt.Errorf("profile %q does not exist", name)
	}
	delete(c.Profiles, name)
	if c.ActiveProfile == name {
		c.ActiveProfile = DefaultProfile
	}
	return nil
}

func (c Config) Required() []template.Category {
	var out []template.Category
	for _, name := range c.RequiredTemplates {
		if cat, err := template.ParseCategory(name); err == nil {
			out = append(out, cat)
		}
	}
	return out
}
