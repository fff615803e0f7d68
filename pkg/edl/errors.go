package edl

import (
	"errors"
	"fmt"
)

var (
	// ErrDuplicateSection is returned when a section banner appears twice
	ErrDuplicateSection = errors.New("duplicate section")
	// ErrUnknownSection is returned for unrecognized content when the
	// parser is configured to reject it
	ErrUnknownSection = errors.New("unrecognized section content")
	// ErrInvalidOptions is returned for parser options outside the allowed values
	ErrInvalidOptions = errors.New("invalid parser options")
)

// SectionParseError reports malformed content inside a section
type SectionParseError struct {
	Section Section
	Line    int
	Reason  string
	Err     error
}

func (e *SectionParseError) Error() string {
	msg := fmt.Sprintf("edl: %s section, line %d: %s", e.Section, e.Line, e.Reason)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *SectionParseError) Unwrap() error {
	return e.Err
}

func lineError(section Section, line Line, err error, format string, args ...any) *SectionParseError {
	return &SectionParseError{
		Section: section,
		Line:    line.Number,
		Reason:  fmt.Sprintf(format, args...),
		Err:     err,
	}
}
