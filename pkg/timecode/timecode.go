// Package timecode implements SMPTE-style timecodes with exact, frame-accurate
// arithmetic.
//
// A Timecode is an immutable value holding a frame rate, a drop-frame flag and
// an absolute frame count ("ticks"). Display strings are derived from the tick
// count on demand, so converting ticks to a string and back is always the
// identity, including for drop-frame rates where frame labels :00 and :01 are
// skipped at the start of every minute not divisible by ten.
package timecode

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Timecode is a frame-rate-aware point in time or duration.
// The zero value has no rate and is not a usable timecode.
type Timecode struct {
	rate      Rate
	dropFrame bool
	ticks     int64
}

// FromParts builds a timecode from its display components. Components must be
// in range for the rate, and for drop-frame rates the (minutes, seconds,
// frames) triple must not name a skipped frame label.
func FromParts(hours, minutes, seconds, frames int, rate Rate, dropFrame bool) (Timecode, error) {
	if err := checkRate(rate, dropFrame); err != nil {
		return Timecode{}, err
	}

	base := rate.Base()
	switch {
	case hours < 0:
		return Timecode{}, fmt.Errorf("%w: negative hours %d", ErrInvalidComponents, hours)
	case int64(hours) > maxHours(rate):
		return Timecode{}, fmt.Errorf("%w: hours %d out of range for %s fps", ErrInvalidComponents, hours, rate)
	case minutes < 0 || minutes > 59:
		return Timecode{}, fmt.Errorf("%w: minutes %d out of range", ErrInvalidComponents, minutes)
	case seconds < 0 || seconds > 59:
		return Timecode{}, fmt.Errorf("%w: seconds %d out of range", ErrInvalidComponents, seconds)
	case frames < 0 || int64(frames) >= base:
		return Timecode{}, fmt.Errorf("%w: frames %d out of range for %s fps", ErrInvalidComponents, frames, rate)
	}

	if dropFrame && isSkippedLabel(minutes, seconds, frames, rate) {
		return Timecode{}, fmt.Errorf("%w: frame %02d:%02d;%02d is skipped in drop-frame counting",
			ErrInvalidComponents, minutes, seconds, frames)
	}

	label := (int64(hours)*3600+int64(minutes)*60+int64(seconds))*base + int64(frames)
	ticks := label
	if dropFrame {
		totalMinutes := int64(hours)*60 + int64(minutes)
		ticks -= rate.droppedPerMinute() * (totalMinutes - totalMinutes/10)
	}

	return Timecode{rate: rate, dropFrame: dropFrame, ticks: ticks}, nil
}

// FromTicks builds a timecode from an absolute frame count
func FromTicks(ticks int64, rate Rate, dropFrame bool) (Timecode, error) {
	if err := checkRate(rate, dropFrame); err != nil {
		return Timecode{}, err
	}
	if ticks < 0 {
		return Timecode{}, fmt.Errorf("%w: %d ticks", ErrUnderflow, ticks)
	}
	if limit := MaxTicks(rate, dropFrame); ticks > limit {
		return Timecode{}, fmt.Errorf("%w: %d ticks exceeds %d", ErrOverflow, ticks, limit)
	}
	return Timecode{rate: rate, dropFrame: dropFrame, ticks: ticks}, nil
}

// MaxTicks returns the largest frame count representable at the rate. Its
// label is maxHours:59:59 and the last frame of that second.
func MaxTicks(rate Rate, dropFrame bool) int64 {
	if checkRate(rate, dropFrame) != nil {
		return 0
	}
	base := rate.Base()
	hours := maxHours(rate)
	ticks := (hours*3600+3599)*base + base - 1
	if dropFrame {
		totalMinutes := hours*60 + 59
		ticks -= rate.droppedPerMinute() * (totalMinutes - totalMinutes/10)
	}
	return ticks
}

// maxHours keeps every label of the last hour within int64
func maxHours(rate Rate) int64 {
	return math.MaxInt64/(3600*rate.Base()) - 1
}

// Parse reads HH:MM:SS:FF, or HH:MM:SS;FF when dropFrame is set. Drop-frame
// input may also use a colon before the frames; a semicolon is rejected for
// non-drop rates.
func Parse(s string, rate Rate, dropFrame bool) (Timecode, error) {
	if err := checkRate(rate, dropFrame); err != nil {
		return Timecode{}, err
	}

	sep := strings.LastIndexAny(s, ":;")
	if sep < 0 {
		return Timecode{}, fmt.Errorf("%w: %q", ErrMalformedTimecode, s)
	}
	if s[sep] == ';' && !dropFrame {
		return Timecode{}, fmt.Errorf("%w: %q: drop-frame separator at non-drop rate", ErrMalformedTimecode, s)
	}

	fields := strings.Split(s[:sep], ":")
	if len(fields) != 3 {
		return Timecode{}, fmt.Errorf("%w: %q: expected 4 fields", ErrMalformedTimecode, s)
	}
	fields = append(fields, s[sep+1:])

	widths := [4]int{2, 2, 2, rate.frameDigits()}
	var parts [4]int
	for i, field := range fields {
		if i == 0 && len(field) < widths[0] || i > 0 && len(field) != widths[i] {
			return Timecode{}, fmt.Errorf("%w: %q: field %q has wrong width", ErrMalformedTimecode, s, field)
		}
		// hours wider than two digits carry no leading zero
		if i == 0 && len(field) > widths[0] && field[0] == '0' {
			return Timecode{}, fmt.Errorf("%w: %q: hours %q are zero padded", ErrMalformedTimecode, s, field)
		}
		if !isDigits(field) {
			return Timecode{}, fmt.Errorf("%w: %q: field %q is not numeric", ErrMalformedTimecode, s, field)
		}
		n, err := strconv.Atoi(field)
		if err != nil {
			return Timecode{}, fmt.Errorf("%w: %q: %v", ErrMalformedTimecode, s, err)
		}
		parts[i] = n
	}

	tc, err := FromParts(parts[0], parts[1], parts[2], parts[3], rate, dropFrame)
	if err != nil {
		return Timecode{}, fmt.Errorf("%w: %q: %v", ErrMalformedTimecode, s, err)
	}
	return tc, nil
}

// MustParse is like Parse but panics on error. Intended for fixtures.
func MustParse(s string, rate Rate, dropFrame bool) Timecode {
	tc, err := Parse(s, rate, dropFrame)
	if err != nil {
		panic(err)
	}
	return tc
}

// Rate returns the frame rate
func (tc Timecode) Rate() Rate { return tc.rate }

// DropFrame reports whether the timecode uses drop-frame counting
func (tc Timecode) DropFrame() bool { return tc.dropFrame }

// Ticks returns the absolute frame count since zero
func (tc Timecode) Ticks() int64 { return tc.ticks }

// IsZero reports whether tc is the zero value
func (tc Timecode) IsZero() bool { return tc == Timecode{} }

// Subframe returns the position within the current frame. Timecodes count
// whole frames, so it is always zero.
func (tc Timecode) Subframe() int { return 0 }

// Parts returns the display components
func (tc Timecode) Parts() (hours, minutes, seconds, frames int) {
	base := tc.rate.Base()
	if base == 0 {
		return 0, 0, 0, 0
	}

	label := tc.ticks
	if tc.dropFrame {
		label = tc.dropFrameLabel()
	}

	total := label / base
	return int(total / 3600), int(total / 60 % 60), int(total % 60), int(label % base)
}

// dropFrameLabel maps the tick count onto the drop-frame label sequence
func (tc Timecode) dropFrameLabel() int64 {
	base := tc.rate.Base()
	dropped := tc.rate.droppedPerMinute()
	perMinute := 60*base - dropped
	perTenMinutes := 600*base - 9*dropped

	tens := tc.ticks / perTenMinutes
	rem := tc.ticks % perTenMinutes

	adjust := 9 * dropped * tens
	if rem >= dropped {
		adjust += dropped * ((rem - dropped) / perMinute)
	}
	return tc.ticks + adjust
}

// String renders HH:MM:SS:FF, or HH:MM:SS;FF for drop-frame timecodes
func (tc Timecode) String() string {
	if !tc.rate.Valid() {
		return ""
	}
	h, m, s, f := tc.Parts()
	sep := ":"
	if tc.dropFrame {
		sep = ";"
	}
	return fmt.Sprintf("%02d:%02d:%02d%s%0*d", h, m, s, sep, tc.rate.frameDigits(), f)
}

// Seconds returns the wall-clock position in seconds using the exact rate
func (tc Timecode) Seconds() float64 {
	num, den := tc.rate.Fraction()
	if num == 0 {
		return 0
	}
	return float64(tc.ticks) * float64(den) / float64(num)
}

// Add returns tc advanced by the duration d
func (tc Timecode) Add(d Timecode) (Timecode, error) {
	if err := tc.checkRate(d); err != nil {
		return Timecode{}, err
	}
	return tc.AddTicks(d.ticks)
}

// Sub returns tc moved back by the duration d
func (tc Timecode) Sub(d Timecode) (Timecode, error) {
	if err := tc.checkRate(d); err != nil {
		return Timecode{}, err
	}
	return tc.SubTicks(d.ticks)
}

// AddTicks returns tc advanced by n frames. A negative n moves backwards.
func (tc Timecode) AddTicks(n int64) (Timecode, error) {
	if !tc.rate.Valid() {
		return Timecode{}, fmt.Errorf("%w: zero timecode", ErrUnknownRate)
	}
	if n > 0 && n > MaxTicks(tc.rate, tc.dropFrame)-tc.ticks {
		return Timecode{}, fmt.Errorf("%w: %s %+d frames", ErrOverflow, tc, n)
	}
	if tc.ticks+n < 0 {
		return Timecode{}, fmt.Errorf("%w: %s %+d frames", ErrUnderflow, tc, n)
	}
	return Timecode{rate: tc.rate, dropFrame: tc.dropFrame, ticks: tc.ticks + n}, nil
}

// SubTicks returns tc moved back by n frames
func (tc Timecode) SubTicks(n int64) (Timecode, error) {
	if n == math.MinInt64 {
		return Timecode{}, fmt.Errorf("%w: %s %d frames", ErrOverflow, tc, n)
	}
	return tc.AddTicks(-n)
}

// Compare returns -1, 0 or +1 as tc is before, equal to or after o
func (tc Timecode) Compare(o Timecode) (int, error) {
	if err := tc.checkRate(o); err != nil {
		return 0, err
	}
	switch {
	case tc.ticks < o.ticks:
		return -1, nil
	case tc.ticks > o.ticks:
		return 1, nil
	}
	return 0, nil
}

// Equal reports whether tc and o have the same rate, counting mode and position
func (tc Timecode) Equal(o Timecode) bool {
	return tc == o
}

func (tc Timecode) checkRate(o Timecode) error {
	if tc.rate != o.rate {
		return fmt.Errorf("%w: %s fps and %s fps", ErrRateMismatch, tc.rate, o.rate)
	}
	return nil
}

type timecodeJSON struct {
	Timecode  string `json:"timecode"`
	Rate      Rate   `json:"rate"`
	DropFrame bool   `json:"drop_frame"`
	Ticks     int64  `json:"ticks"`
}

// MarshalJSON implements json.Marshaler
func (tc Timecode) MarshalJSON() ([]byte, error) {
	if tc.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(timecodeJSON{
		Timecode:  tc.String(),
		Rate:      tc.rate,
		DropFrame: tc.dropFrame,
		Ticks:     tc.ticks,
	})
}

// UnmarshalJSON implements json.Unmarshaler
func (tc *Timecode) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*tc = Timecode{}
		return nil
	}

	var raw timecodeJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	parsed, err := Parse(raw.Timecode, raw.Rate, raw.DropFrame)
	if err != nil {
		return err
	}
	if raw.Ticks != parsed.ticks {
		return fmt.Errorf("%w: %q is %d ticks, not %d", ErrMalformedTimecode, raw.Timecode, parsed.ticks, raw.Ticks)
	}

	*tc = parsed
	return nil
}

func checkRate(rate Rate, dropFrame bool) error {
	if !rate.Valid() {
		return fmt.Errorf("%w: %d", ErrUnknownRate, uint8(rate))
	}
	if dropFrame && !rate.SupportsDropFrame() {
		return fmt.Errorf("%w: %s fps", ErrDropFrameUnsupported, rate)
	}
	return nil
}

// isSkippedLabel reports whether the label is dropped in drop-frame counting
func isSkippedLabel(minutes, seconds, frames int, rate Rate) bool {
	return minutes%10 != 0 && seconds == 0 && int64(frames) < rate.droppedPerMinute()
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}
