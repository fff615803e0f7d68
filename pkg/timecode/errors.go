package timecode

import "errors"

var (
	// ErrInvalidComponents is returned when hours, minutes, seconds or frames
	// are out of range or name a frame label skipped by drop-frame counting
	ErrInvalidComponents = errors.New("invalid timecode components")

	// ErrMalformedTimecode is returned when a display string does not match
	// the HH:MM:SS:FF or HH:MM:SS;FF grammar
	ErrMalformedTimecode = errors.New("malformed timecode")

	// ErrRateMismatch is returned when two timecodes with different frame
	// rates are combined or compared
	ErrRateMismatch = errors.New("timecode frame rate mismatch")

	// ErrUnderflow is returned when an operation would produce a negative timecode
	ErrUnderflow = errors.New("timecode underflow")

	// ErrOverflow is returned when a frame count exceeds MaxTicks for its rate
	ErrOverflow = errors.New("timecode overflow")

	// ErrUnknownRate is returned for unsupported frame rates
	ErrUnknownRate = errors.New("unknown frame rate")

	// ErrDropFrameUnsupported is returned when drop-frame counting is requested
	// for a rate that does not define it
	ErrDropFrameUnsupported = errors.New("drop-frame not defined for rate")
)
