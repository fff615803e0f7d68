package timecode

import (
	"fmt"
	"strings"
)

// Rate identifies a frame rate. Rates are a closed set so arithmetic never
// depends on a float approximation of 29.97 or 23.976.
type Rate uint8

// Supported frame rates
const (
	RateUnknown Rate = iota
	Rate23_976
	Rate24
	Rate25
	Rate29_97
	Rate30
	Rate47_952
	Rate48
	Rate50
	Rate59_94
	Rate60
	Rate100
	Rate119_88
	Rate120
)

// rateInfo holds the exact rational and counting base for a rate
type rateInfo struct {
	label     string
	num       int64
	den       int64
	base      int64
	dropFrame bool
}

var rates = [...]rateInfo{
	RateUnknown: {label: "unknown"},
	Rate23_976:  {label: "23.976", num: 24000, den: 1001, base: 24},
	Rate24:      {label: "24", num: 24, den: 1, base: 24},
	Rate25:      {label: "25", num: 25, den: 1, base: 25},
	Rate29_97:   {label: "29.97", num: 30000, den: 1001, base: 30, dropFrame: true},
	Rate30:      {label: "30", num: 30, den: 1, base: 30},
	Rate47_952:  {label: "47.952", num: 48000, den: 1001, base: 48},
	Rate48:      {label: "48", num: 48, den: 1, base: 48},
	Rate50:      {label: "50", num: 50, den: 1, base: 50},
	Rate59_94:   {label: "59.94", num: 60000, den: 1001, base: 60, dropFrame: true},
	Rate60:      {label: "60", num: 60, den: 1, base: 60},
	Rate100:     {label: "100", num: 100, den: 1, base: 100},
	Rate119_88:  {label: "119.88", num: 120000, den: 1001, base: 120},
	Rate120:     {label: "120", num: 120, den: 1, base: 120},
}

// Rates returns every supported rate in ascending order
func Rates() []Rate {
	out := make([]Rate, 0, len(rates)-1)
	for r := Rate23_976; r <= Rate120; r++ {
		out = append(out, r)
	}
	return out
}

// ParseRate converts a label such as "25" or "29.97" into a Rate
func ParseRate(label string) (Rate, error) {
	label = strings.TrimSpace(label)
	for r := Rate23_976; r <= Rate120; r++ {
		if rates[r].label == label {
			return r, nil
		}
	}
	return RateUnknown, fmt.Errorf("%w: %q", ErrUnknownRate, label)
}

// Valid reports whether r is one of the supported rates
func (r Rate) Valid() bool {
	return r > RateUnknown && int(r) < len(rates)
}

// String returns the conventional label of the rate
func (r Rate) String() string {
	if !r.Valid() {
		return rates[RateUnknown].label
	}
	return rates[r].label
}

// Base is the number of frames counted per displayed second
func (r Rate) Base() int64 {
	if !r.Valid() {
		return 0
	}
	return rates[r].base
}

// Fraction returns the exact frame rate as numerator and denominator
func (r Rate) Fraction() (num, den int64) {
	if !r.Valid() {
		return 0, 1
	}
	return rates[r].num, rates[r].den
}

// Float returns the frame rate as a float64, for display only
func (r Rate) Float() float64 {
	num, den := r.Fraction()
	return float64(num) / float64(den)
}

// SupportsDropFrame reports whether drop-frame counting is defined for r
func (r Rate) SupportsDropFrame() bool {
	return r.Valid() && rates[r].dropFrame
}

// droppedPerMinute is the number of frame labels skipped at the start of
// each minute that is not a multiple of ten
func (r Rate) droppedPerMinute() int64 {
	return r.Base() / 15
}

// frameDigits is the display width of the frames field
func (r Rate) frameDigits() int {
	if r.Base() > 100 {
		return 3
	}
	return 2
}

// MarshalText implements encoding.TextMarshaler
func (r Rate) MarshalText() ([]byte, error) {
	if !r.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownRate, uint8(r))
	}
	return []byte(r.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (r *Rate) UnmarshalText(text []byte) error {
	parsed, err := ParseRate(string(text))
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}
