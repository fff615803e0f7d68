package edl

import "fmt"

// UnknownSectionPolicy decides what happens to content outside every known section
type UnknownSectionPolicy string

const (
	UnknownSectionIgnore UnknownSectionPolicy = "ignore"
	UnknownSectionWarn   UnknownSectionPolicy = "warn"
	UnknownSectionError  UnknownSectionPolicy = "error"
)

// SectionErrorPolicy decides what happens when a section fails to parse
type SectionErrorPolicy string

const (
	AbortSession SectionErrorPolicy = "abort_session"
	SkipSection  SectionErrorPolicy = "skip_section"
)

// Options configures a Parser. Empty fields take their defaults.
type Options struct {
	OnUnknownSection    UnknownSectionPolicy `json:"on_unknown_section" mapstructure:"on_unknown_section"`
	OnSectionParseError SectionErrorPolicy   `json:"on_section_parse_error" mapstructure:"on_section_parse_error"`
}

// DefaultOptions ignores unknown sections and aborts on the first bad section
func DefaultOptions() Options {
	return Options{
		OnUnknownSection:    UnknownSectionIgnore,
		OnSectionParseError: AbortSession,
	}
}

// Validate checks that every policy is one of the allowed values
func (o Options) Validate() error {
	o = o.withDefaults()

	switch o.OnUnknownSection {
	case UnknownSectionIgnore, UnknownSectionWarn, UnknownSectionError:
	default:
		return fmt.Errorf("%w: on_unknown_section %q", ErrInvalidOptions, o.OnUnknownSection)
	}

	switch o.OnSectionParseError {
	case AbortSession, SkipSection:
	default:
		return fmt.Errorf("%w: on_section_parse_error %q", ErrInvalidOptions, o.OnSectionParseError)
	}

	return nil
}

func (o Options) withDefaults() Options {
	def := DefaultOptions()
	if o.OnUnknownSection == "" {
		o.OnUnknownSection = def.OnUnknownSection
	}
	if o.OnSectionParseError == "" {
		o.OnSectionParseError = def.OnSectionParseError
	}
	return o
}
