package edl

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/therealutkarshpriyadarshi/edlkit/pkg/timecode"
)

// Header field names
const (
	fieldSessionName    = "SESSION NAME"
	fieldSampleRate     = "SAMPLE RATE"
	fieldBitDepth       = "BIT DEPTH"
	fieldStartTimecode  = "SESSION START TIMECODE"
	fieldTimecodeFormat = "TIMECODE FORMAT"
	fieldAudioTracks    = "# OF AUDIO TRACKS"
	fieldAudioClips     = "# OF AUDIO CLIPS"
	fieldAudioFiles     = "# OF AUDIO FILES"
)

// DefaultFrameRate is assumed when the header names no timecode format
const DefaultFrameRate = timecode.Rate25

// cutField splits "NAME:\tvalue". The name is returned upper-cased.
func cutField(text string) (name, value string, ok bool) {
	name, value, ok = strings.Cut(text, ":")
	if !ok {
		return "", "", false
	}
	return strings.ToUpper(strings.TrimSpace(name)), strings.TrimSpace(value), true
}

// parseHeader reads the session fields. The start timecode is resolved after
// every other field so it is read at the declared frame rate regardless of
// field order.
func parseHeader(lines []Line) (Header, error) {
	h := Header{FrameRate: DefaultFrameRate}

	var (
		startValue string
		startLine  Line
	)

	for _, line := range lines {
		if line.Blank() {
			continue
		}

		name, value, ok := cutField(line.Text)
		if !ok {
			return Header{}, lineError(SectionHeader, line, nil, "expected NAME: value, got %q", line.Text)
		}

		switch name {
		case fieldSessionName:
			h.SessionName = value

		case fieldSampleRate:
			rate, err := strconv.ParseFloat(value, 64)
			if err != nil || rate <= 0 {
				return Header{}, lineError(SectionHeader, line, err, "invalid sample rate %q", value)
			}
			h.SampleRate = rate

		case fieldBitDepth:
			depth, err := parseBitDepth(value)
			if err != nil {
				return Header{}, lineError(SectionHeader, line, err, "invalid bit depth")
			}
			h.BitDepth = depth

		case fieldStartTimecode:
			startValue, startLine = value, line

		case fieldTimecodeFormat:
			rate, drop, err := parseTimecodeFormat(value)
			if err != nil {
				return Header{}, lineError(SectionHeader, line, err, "invalid timecode format")
			}
			h.TimecodeFormat, h.FrameRate, h.DropFrame = value, rate, drop

		case fieldAudioTracks, fieldAudioClips, fieldAudioFiles:
			n, err := strconv.Atoi(value)
			if err != nil || n < 0 {
				return Header{}, lineError(SectionHeader, line, err, "invalid %s %q", strings.ToLower(name), value)
			}
			switch name {
			case fieldAudioTracks:
				h.AudioTracks = n
			case fieldAudioClips:
				h.AudioClips = n
			default:
				h.AudioFiles = n
			}

		default:
			h.Extra = append(h.Extra, Field{Name: name, Value: value})
		}
	}

	if startValue != "" {
		tc, err := timecode.Parse(startValue, h.FrameRate, h.DropFrame)
		if err != nil {
			return Header{}, lineError(SectionHeader, startLine, err, "invalid session start timecode")
		}
		h.StartTimecode = tc
	}

	return h, nil
}

var errUnknownTimecodeFormat = errors.New("unknown timecode format")

// parseTimecodeFormat reads values such as "25 Frame", "29.97 Drop Frame"
// and "29.97 Non-Drop Frame"
func parseTimecodeFormat(s string) (timecode.Rate, bool, error) {
	label := strings.TrimSpace(s)
	drop := false

	switch lower := strings.ToLower(label); {
	case strings.HasSuffix(lower, " non-drop frame"):
		label = label[:len(label)-len(" non-drop frame")]
	case strings.HasSuffix(lower, " drop frame"):
		label = label[:len(label)-len(" drop frame")]
		drop = true
	case strings.HasSuffix(lower, " frame"):
		label = label[:len(label)-len(" frame")]
	default:
		return timecode.RateUnknown, false, fmt.Errorf("%w: %q", errUnknownTimecodeFormat, s)
	}

	rate, err := timecode.ParseRate(label)
	if err != nil {
		return timecode.RateUnknown, false, err
	}
	if drop && !rate.SupportsDropFrame() {
		return timecode.RateUnknown, false, fmt.Errorf("%w: %s fps", timecode.ErrDropFrameUnsupported, rate)
	}
	return rate, drop, nil
}
