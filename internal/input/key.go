package input

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var ErrUnknownKey = errors.New("unknown key")

// Key is a key name as written in the config, e.g. "f", "6" or "space".
type Key string

type Button int

const (
	ButtonLeft Button = iota
	ButtonRight
)

func (b Button) String() string {
	if b == ButtonRight {
		return "right"
	}
	return "left"
}

var namedKeys = map[string]uint16{
	"backspace": 0x08,
	"tab":       0x09,
	"enter":     0x0D,
	"shift":     0x10,
	"ctrl":      0x11,
	"alt":       0x12,
	"esc":       0x1B,
	"escape":    0x1B,
	"space":     0x20,
	"pageup":    0x21,
	"pagedown":  0x22,
	"end":       0x23,
	"home":      0x24,
	"left":      0x25,
	"up":        0x26,
	"right":     0x27,
	"down":      0x28,
	"delete":    0x2E,
}

// VirtualKey maps the key name to a Windows virtual key code.
func (k Key) VirtualKey() (uint16, error) {
	name := strings.ToLower(strings.TrimSpace(string(k)))
	if len(name) == 1 {
		c := name[0]
		switch {
		case c >= 'a' && c <= 'z':
			return uint16(c - 'a' + 'A'), nil
		case c >= '0' && c <= '9':
			return uint16(c), nil
		}
	}
	if vk, found := namedKeys[name]; found {
		return vk, nil
	}
	if rest, found := strings.CutPrefix(name, "f"); found {
		if n, err := strconv.Atoi(rest); err == nil && n >= 1 && n <= 12 {
			return uint16(0x70 + n - 1), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownKey, string(k))
}

// Validate checks every key name and reports the first unknown one.
func Validate(keys ...Key) error {
	for _, k := range keys {
		if _, err := k.VirtualKey(); err != nil {
			return err
		}
	}
	return nil
}
