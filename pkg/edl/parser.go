// Package edl parses Pro Tools "session info as text" exports into a Session.
//
// Parsing is a single pass over the text. Lines before the first section
// banner form the header; every known banner opens a section that runs until
// the next banner or the end of input, and each section is handed to its own
// parser as one contiguous run of lines. Content under an unrecognized banner
// never reaches a known section parser.
package edl

import (
	"errors"
	"fmt"
)

type state uint8

const (
	stateStart state = iota
	stateInHeader
	stateScanning
	stateInSection
	stateDone
)

func (s state) String() string {
	switch s {
	case stateStart:
		return "Start"
	case stateInHeader:
		return "InHeader"
	case stateScanning:
		return "ScanningForSection"
	case stateInSection:
		return "InSection"
	case stateDone:
		return "Done"
	}
	return "Invalid"
}

// transition is one recorded state change. Section is set for InSection.
type transition struct {
	to      state
	section Section
	line    int
}

func (t transition) String() string {
	if t.to == stateInSection {
		return fmt.Sprintf("%s(%s)@%d", t.to, t.section, t.line)
	}
	return fmt.Sprintf("%s@%d", t.to, t.line)
}

// Parser turns export text into a Session. A Parser holds no per-parse state
// and may be used from multiple goroutines.
type Parser struct {
	opts Options
}

// NewParser validates opts and returns a Parser
func NewParser(opts Options) (*Parser, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	return &Parser{opts: opts.withDefaults()}, nil
}

// Parse parses text with the default options
func Parse(text string) (*Session, error) {
	return (&Parser{opts: DefaultOptions()}).Parse(text)
}

// Parse builds a Session from text. The returned error is a
// *SectionParseError, or wraps ErrDuplicateSection or ErrUnknownSection.
func (p *Parser) Parse(text string) (*Session, error) {
	r := newRun(p.opts)
	if err := r.scan(NewLineReader(text)); err != nil {
		return nil, err
	}
	return r.session, nil
}

// run is the state of a single parse
type run struct {
	opts        Options
	state       state
	section     Section
	pending     []Line
	seen        map[Section]bool
	reported    bool
	session     *Session
	transitions []transition
}

func newRun(opts Options) *run {
	return &run{
		opts:    opts.withDefaults(),
		seen:    make(map[Section]bool),
		session: newSession(),
	}
}

func (r *run) enter(to state, section Section, line int) {
	r.state = to
	r.section = section
	r.reported = false
	r.transitions = append(r.transitions, transition{to: to, section: section, line: line})
}

func (r *run) scan(lines *LineReader) error {
	r.enter(stateInHeader, SectionHeader, 0)

	last := 0
	for line := range lines.All() {
		last = line.Number

		if section, ok := matchBanner(line); ok {
			if err := r.closeSection(line.Number); err != nil {
				return err
			}
			if r.seen[section] {
				return fmt.Errorf("%w: %s at line %d", ErrDuplicateSection, section, line.Number)
			}
			r.seen[section] = true
			r.enter(stateInSection, section, line.Number)
			continue
		}

		// an unrecognized banner ends the current section and starts a new
		// block of unknown content
		if isBanner(line) {
			if err := r.closeSection(line.Number); err != nil {
				return err
			}
			r.reported = false
		}

		switch r.state {
		case stateInHeader, stateInSection:
			r.pending = append(r.pending, line)
		case stateScanning:
			if err := r.unknownContent(line); err != nil {
				return err
			}
		}
	}

	if err := r.closeSection(last); err != nil {
		return err
	}
	r.enter(stateDone, SectionUnknown, last)
	return nil
}

// closeSection hands the collected lines to the current section's parser
// and returns to scanning
func (r *run) closeSection(line int) error {
	if r.state != stateInHeader && r.state != stateInSection {
		return nil
	}

	section, lines := r.section, r.pending
	r.pending = nil

	if section != SectionHeader {
		r.session.Sections = append(r.session.Sections, section)
	}

	if err := r.dispatch(section, lines); err != nil {
		if err := r.sectionFailed(section, err); err != nil {
			return err
		}
	}

	r.enter(stateScanning, SectionUnknown, line)
	return nil
}

func (r *run) dispatch(section Section, lines []Line) error {
	s := r.session
	clk := clock{rate: s.Header.FrameRate, dropFrame: s.Header.DropFrame}

	switch section {
	case SectionHeader:
		header, err := parseHeader(lines)
		if err != nil {
			return err
		}
		s.Header = header

	case SectionOnlineFiles, SectionOfflineFiles:
		files, err := parseFiles(section, lines)
		if err != nil {
			return err
		}
		if section == SectionOnlineFiles {
			s.OnlineFiles = files
		} else {
			s.OfflineFiles = files
		}

	case SectionOnlineClips:
		clips, err := parseClips(lines)
		if err != nil {
			return err
		}
		s.OnlineClips = clips

	case SectionPlugins:
		plugins, err := parsePlugins(lines)
		if err != nil {
			return err
		}
		s.Plugins = plugins

	case SectionTracks:
		tracks, err := parseTracks(lines, clk)
		if err != nil {
			return err
		}
		s.Tracks = tracks

	case SectionMarkers:
		markers, err := parseMarkers(lines, clk)
		if err != nil {
			return err
		}
		s.Markers = markers
	}
	return nil
}

// sectionFailed applies the section error policy. Under SkipSection the
// section stays empty and a warning is recorded.
func (r *run) sectionFailed(section Section, err error) error {
	if r.opts.OnSectionParseError != SkipSection {
		return err
	}

	w := Warning{Section: section, Message: err.Error()}
	var perr *SectionParseError
	if errors.As(err, &perr) {
		w.Line = perr.Line
		w.Message = perr.Reason
		if perr.Err != nil {
			w.Message += ": " + perr.Err.Error()
		}
	}
	r.session.Warnings = append(r.session.Warnings, w)
	return nil
}

// unknownContent applies the unknown section policy to a line outside every
// known section. A warning is recorded once per contiguous block.
func (r *run) unknownContent(line Line) error {
	if line.Blank() {
		return nil
	}

	switch r.opts.OnUnknownSection {
	case UnknownSectionError:
		return fmt.Errorf("%w: line %d: %q", ErrUnknownSection, line.Number, line.Text)
	case UnknownSectionWarn:
		if !r.reported {
			r.reported = true
			r.session.Warnings = append(r.session.Warnings, Warning{
				Section: SectionUnknown,
				Line:    line.Number,
				Message: fmt.Sprintf("skipping unrecognized content %q", line.Text),
			})
		}
	}
	return nil
}
