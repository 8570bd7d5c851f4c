package template

import "fmt"

// ThresholdTable holds the minimum confidence per category.
type ThresholdTable map[Category]float64

// DefaultThresholds returns the cutoffs used when a profile does not override them.
func DefaultThresholds() ThresholdTable {
	return ThresholdTable{
		Map:      0.95,
		Run:      0.6,
		Bag:      0.6,
		Kill:     0.75,
		Chose:    0.7,
		Overload: 0.7,
		Died:     0.8,
	}
}

// For returns the threshold for c, falling back to the default table.
func (t ThresholdTable) For(c Category) float64 {
	if v, found := t[c]; found {
		return v
	}
	return DefaultThresholds()[c]
}

// ThresholdsFromNames builds a complete table from name keyed overrides.
// Missing categories keep their default value.
func ThresholdsFromNames(overrides map[string]float64) (ThresholdTable, error) {
	table := DefaultThresholds()
	for name, v := range overrides {
		c, err := ParseCategory(name)
		if err != nil {
			return nil, err
		}
		if v < 0 || v > 1 {
			return nil, fmt.Errorf("threshold for %s out of range [0,1]: %v", c, v)
		}
		table[c] = v
	}
	return table, nil
}

// Names returns the table keyed by category name, as stored in profiles.
func (t ThresholdTable) Names() map[string]float64 {
	out := make(map[string]float64, len(t))
	for c, v := range t {
		out[c.String()] = v
	}
	return out
}
