package edl

import (
	"strconv"
	"strings"
)

// Track header field names
const (
	fieldTrackName     = "TRACK NAME"
	fieldTrackComments = "COMMENTS"
	fieldUserDelay     = "USER DELAY"
	fieldTrackState    = "STATE"
	fieldTrackPlugins  = "PLUG-INS"
)

// trackBuilder accumulates one track while the listing is read
type trackBuilder struct {
	track  Track
	events *layout
}

// parseTracks reads the track listing. Each track opens with a TRACK NAME
// line, carries NAME: value fields, then an event table introduced by a
// CHANNEL header row.
func parseTracks(lines []Line, clk clock) ([]Track, error) {
	var (
		tracks []Track
		cur    *trackBuilder
	)

	flush := func() {
		if cur != nil {
			if cur.track.Events == nil {
				cur.track.Events = []Event{}
			}
			tracks = append(tracks, cur.track)
		}
	}

	for _, line := range lines {
		if line.Blank() {
			continue
		}

		name, value, isField := trackField(line.Text)
		if isField && name == fieldTrackName {
			flush()
			cur = &trackBuilder{track: Track{Name: value}}
			continue
		}

		if cur == nil {
			return nil, lineError(SectionTracks, line, nil, "expected %s before %q", fieldTrackName, line.Text)
		}

		if cells := splitCells(line.Raw); strings.EqualFold(cells[0], colChannel) {
			l, err := selectLayout(SectionTracks, line, eventLayouts)
			if err != nil {
				return nil, err
			}
			cur.events = l
			continue
		}

		if cur.events != nil {
			ev, err := decodeEvent(cur.events, line, clk)
			if err != nil {
				return nil, err
			}
			cur.track.Events = append(cur.track.Events, ev)
			continue
		}

		if !isField {
			return nil, lineError(SectionTracks, line, nil, "expected NAME: value in header of track %q", cur.track.Name)
		}
		if err := cur.setField(line, name, value); err != nil {
			return nil, err
		}
	}

	flush()
	return tracks, nil
}

// trackField splits a track header line. Event rows also contain colons in
// their timecode cells, so a tab before the first colon means the line is not
// a field.
func trackField(text string) (name, value string, ok bool) {
	colon := strings.IndexByte(text, ':')
	if colon < 0 || strings.IndexByte(text[:colon], '\t') >= 0 {
		return "", "", false
	}
	return cutField(text)
}

func (b *trackBuilder) setField(line Line, name, value string) error {
	switch name {
	case fieldTrackComments:
		b.track.Comment = value

	case fieldUserDelay:
		delay, err := parseUserDelay(value)
		if err != nil {
			return lineError(SectionTracks, line, err, "invalid user delay %q", value)
		}
		b.track.UserDelay = delay

	case fieldTrackState:
		b.track.State = strings.Fields(value)

	case fieldTrackPlugins:
		// plug-in names are tab separated and may contain spaces
		_, raw, _ := strings.Cut(line.Raw, ":")
		for _, cell := range splitCells(raw) {
			if cell != "" {
				b.track.Plugins = append(b.track.Plugins, cell)
			}
		}

	default:
		b.track.Extra = append(b.track.Extra, Field{Name: name, Value: value})
	}
	return nil
}

// parseUserDelay reads "N Samples"
func parseUserDelay(value string) (int, error) {
	fields := strings.Fields(value)
	if len(fields) == 0 || len(fields) > 2 {
		return 0, strconv.ErrSyntax
	}
	if len(fields) == 2 && !strings.EqualFold(fields[1], "Samples") {
		return 0, strconv.ErrSyntax
	}
	return strconv.Atoi(fields[0])
}

func decodeEvent(l *layout, line Line, clk clock) (Event, error) {
	r, err := l.decode(SectionTracks, line, clk)
	if err != nil {
		return Event{}, err
	}

	ev := Event{
		Channel:   int(r.num(colChannel)),
		Number:    int(r.num(colEvent)),
		ClipName:  r.str(colClipName),
		Start:     r.tc(colStartTime),
		End:       r.tc(colEndTime),
		Duration:  r.tc(colDuration),
		Timestamp: r.tc(colTimestamp),
	}

	if r.has(colState) {
		switch state := r.str(colState); {
		case strings.EqualFold(state, "Muted"):
			ev.Muted = true
		case strings.EqualFold(state, "Unmuted"):
		default:
			return Event{}, lineError(SectionTracks, line, nil, "invalid event state %q", state)
		}
	}

	return ev, nil
}
