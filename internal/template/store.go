// Package template holds the reference images the bot looks for on screen,
// grouped by the closed set of categories the classifier understands.
package template

import (
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"io/fs"
	"log/slog"
	"path"
	"strings"
)

// Template is a reference image. It never changes once registered.
type Template struct {
	Category Category
	Name     string
	Image    image.Image
}

// DefaultRequired are the categories a run cannot do much without.
var DefaultRequired = []Category{Map, Run, Bag, Kill, Chose, Overload}

// Store is a category keyed template collection. It is filled before a run
// starts and only read afterwards.
type Store struct {
	byCategory map[Category][]Template
	names      map[string]struct{}
}

func NewStore() *Store {
	return &Store{
		byCategory: make(map[Category][]Template),
		names:      make(map[string]struct{}),
	}
}

// Register derives the category from the file name and adds the template.
func (s *Store) Register(name string, img image.Image) (Template, error) {
	c, err := CategoryFromFilename(name)
	if err != nil {
		return Template{}, err
	}
	return s.Add(c, name, img)
}

// Add stores img under an explicit category.
func (s *Store) Add(c Category, name string, img image.Image) (Template, error) {
	if !c.Valid() {
		return Template{}, fmt.Errorf("%w: %d", ErrUnknownCategory, int(c))
	}
	if img == nil || img.Bounds().Empty() {
		return Template{}, fmt.Errorf("template %s has an empty image", name)
	}
	if _, dup := s.names[name]; dup {
		return Template{}, fmt.Errorf("template %s already registered", name)
	}
	t := Template{Category: c, Name: name, Image: img}
	s.byCategory[c] = append(s.byCategory[c], t)
	s.names[name] = struct{}{}
	return t, nil
}

// Templates returns the templates of c in registration order.
func (s *Store) Templates(c Category) []Template {
	if s == nil {
		return nil
	}
	return s.byCategory[c]
}

func (s *Store) Len() int {
	if s == nil {
		return 0
	}
	return len(s.names)
}

// Missing reports which of the required categories have no template.
func (s *Store) Missing(required []Category) []Category {
	var missing []Category
	for _, c := range required {
		if len(s.Templates(c)) == 0 {
			missing = append(missing, c)
		}
	}
	return missing
}

// IsImageFile reports whether name has an extension Load understands.
func IsImageFile(name string) bool {
	switch strings.ToLower(path.Ext(name)) {
	case ".png", ".jpg", ".jpeg":
		return true
	}
	return false
}

// Load walks fsys and registers every image whose name maps to a known
// category. Unknown categories and undecodable files are logged and skipped.
func Load(fsys fs.FS, logger *slog.Logger) (*Store, error) {
	store := NewStore()
	err := fs.WalkDir(fsys, ".", func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !IsImageFile(d.Name()) {
			return nil
		}

		c, err := CategoryFromFilename(d.Name())
		if err != nil {
			logger.Warn("Skipping template with unknown category", slog.String("file", p), slog.Any("error", err))
			return nil
		}

		f, err := fsys.Open(p)
		if err != nil {
			logger.Warn("Could not open template", slog.String("file", p), slog.Any("error", err))
			return nil
		}
		img, _, err := image.Decode(f)
		f.Close()
		if err != nil {
			logger.Warn("Could not decode template", slog.String("file", p), slog.Any("error", err))
			return nil
		}

		if _, err := store.Add(c, d.Name(), img); err != nil {
			logger.Warn("Could not register template", slog.String("file", p), slog.Any("error", err))
			return nil
		}
		logger.Debug("Loaded template", slog.String("category", c.String()), slog.String("file", p))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("loading templates: %w", err)
	}
	return store, nil
}
