package digest

import (
	"fmt"
	"math"
)

type Symbol int

const (
	Sweat Symbol = iota
	Light
	Warning
	Tada
	Fire
	Hundred
)

var shortcodes = map[Symbol]string{
	Sweat:   ":sweat:",
	Light:   ":rotating_light:",
	Warning: ":warning:",
	Tada:    ":tada:",
	Fire:    ":fire:",
	Hundred: ":100:",
}

// String returns the chat shortcode of the symbol
func (s Symbol) String() string {
	if code, ok := shortcodes[s]; ok {
		return code
	}
	return shortcodes[Sweat]
}

// Thresholds are the lower bounds of the Warning, Tada and Fire bands.
// Everything above zero and below Warning is Light,
// 100 and above is Hundred.
type Thresholds struct {
	Warning float64
	Tada    float64
	Fire    float64
}

func DefaultThresholds() Thresholds {
	return Thresholds{Warning: 35, Tada: 60, Fire: 80}
}

func (t Thresholds) Validate() error {
	if !(0 < t.Warning && t.Warning < t.Tada && t.Tada < t.Fire && t.Fire <= 100) {
		return fmt.Errorf("thresholds must satisfy 0 < %v < %v < %v <= 100", t.Warning, t.Tada, t.Fire)
	}
	return nil
}

// Classify maps a coverage percentage to its status symbol.
// A missing reading, NaN, zero and negative values are all Sweat.
func (t Thresholds) Classify(percent *float64) Symbol {
	if percent == nil || math.IsNaN(*percent) {
		return Sweat
	}

	p := *percent
	switch {
	case p <= 0:
		return Sweat
	case p >= 100:
		return Hundred
	case p >= t.Fire:
		return Fire
	case p >= t.Tada:
		return Tada
	case p >= t.Warning:
		return Warning
	default:
		return Light
	}
}
