package template

import (
	"errors"
	"fmt"
	"path"
	"strings"
	"unicode"
)

var ErrUnknownCategory = errors.New("unknown template category")

// Category is the purpose of a template. The set is closed.
type Category int

const (
	Map Category = iota
	Run
	Bag
	Kill
	Chose
	Overload
	Died
)

// Categories lists every known category in classifier priority order of declaration.
var Categories = []Category{Map, Run, Bag, Kill, Chose, Overload, Died}

var categoryNames = map[Category]string{
	Map:      "map",
	Run:      "run",
	Bag:      "bag",
	Kill:     "kill",
	Chose:    "chose",
	Overload: "overload",
	Died:     "died",
}

func (c Category) String() string {
	if name, found := categoryNames[c]; found {
		return name
	}
	return fmt.Sprintf("category(%d)", int(c))
}

func (c Category) Valid() bool {
	_, found := categoryNames[c]
	return found
}

// ParseCategory maps a category name ("map", "run", ...) to its Category.
func ParseCategory(name string) (Category, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for c, n := range categoryNames {
		if n == name {
			return c, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownCategory, name)
}

// CategoryFromFilename derives the category from a template file name:
// "run2.png", "map_12.jpg" and "Died-3.png" map to run, map and died.
func CategoryFromFilename(filename string) (Category, error) {
	base := strings.ToLower(path.Base(filename))
	base = strings.TrimSuffix(base, path.Ext(base))

	stripped := strings.Map(func(r rune) rune {
		if unicode.IsDigit(r) {
			return -1
		}
		return r
	}, base)
	stripped = strings.TrimRight(stripped, "_-. ")

	if stripped == "" {
		return 0, fmt.Errorf("%w: %q has no alphabetic prefix", ErrUnknownCategory, filename)
	}
	return ParseCategory(stripped)
}
