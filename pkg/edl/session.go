package edl

import "slices"

// Session is the structured content of one EDL export
type Session struct {
	Header       Header    `json:"header"`
	OnlineFiles  []File    `json:"online_files"`
	OfflineFiles []File    `json:"offline_files"`
	OnlineClips  []Clip    `json:"online_clips"`
	Plugins      []Plugin  `json:"plugins"`
	Tracks       []Track   `json:"tracks"`
	Markers      []Marker  `json:"markers"`
	Sections     []Section `json:"sections"`
	Warnings     []Warning `json:"warnings"`
}

func newSession() *Session {
	return &Session{
		Header:       Header{FrameRate: DefaultFrameRate},
		OnlineFiles:  []File{},
		OfflineFiles: []File{},
		OnlineClips:  []Clip{},
		Plugins:      []Plugin{},
		Tracks:       []Track{},
		Markers:      []Marker{},
		Sections:     []Section{},
		Warnings:     []Warning{},
	}
}

// Has reports whether the export contained the section. A section that was
// skipped after a parse error counts as present.
func (s *Session) Has(section Section) bool {
	return slices.Contains(s.Sections, section)
}

// Track returns the first track with the given name
func (s *Session) Track(name string) (Track, bool) {
	for _, t := range s.Tracks {
		if t.Name == name {
			return t, true
		}
	}
	return Track{}, false
}

// TrackNames returns the track names in listing order
func (s *Session) TrackNames() []string {
	names := make([]string, 0, len(s.Tracks))
	for _, t := range s.Tracks {
		names = append(names, t.Name)
	}
	return names
}

// EventCount returns the number of events across all tracks
func (s *Session) EventCount() int {
	n := 0
	for _, t := range s.Tracks {
		n += len(t.Events)
	}
	return n
}
