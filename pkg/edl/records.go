package edl

import (
	"fmt"
	"strings"

	"github.com/therealutkarshpriyadarshi/edlkit/pkg/timecode"
)

// Header holds the session-level fields printed before the first section
type Header struct {
	SessionName    string            `json:"session_name"`
	SampleRate     float64           `json:"sample_rate"`
	BitDepth       BitDepth          `json:"bit_depth,omitempty"`
	StartTimecode  timecode.Timecode `json:"start_timecode"`
	TimecodeFormat string            `json:"timecode_format,omitempty"`
	FrameRate      timecode.Rate     `json:"frame_rate"`
	DropFrame      bool              `json:"drop_frame"`
	AudioTracks    int               `json:"audio_tracks"`
	AudioClips     int               `json:"audio_clips"`
	AudioFiles     int               `json:"audio_files"`
	Extra          []Field           `json:"extra,omitempty"`
}

// Field is a NAME: value pair without a dedicated header attribute
type Field struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// BitDepth is the sample format of the session
type BitDepth string

const (
	BitDepth8       BitDepth = "8-bit"
	BitDepth16      BitDepth = "16-bit"
	BitDepth24      BitDepth = "24-bit"
	BitDepth32      BitDepth = "32-bit"
	BitDepth32Float BitDepth = "32-bit float"
	BitDepth64      BitDepth = "64-bit"
	BitDepth64Float BitDepth = "64-bit float"
)

func parseBitDepth(s string) (BitDepth, error) {
	switch d := BitDepth(strings.ToLower(strings.TrimSpace(s))); d {
	case BitDepth8, BitDepth16, BitDepth24, BitDepth32, BitDepth32Float, BitDepth64, BitDepth64Float:
		return d, nil
	}
	return "", fmt.Errorf("unknown bit depth %q", s)
}

// File is an audio file referenced by the session
type File struct {
	Filename string `json:"filename"`
	Location string `json:"location"`
}

// Clip is a region of a source file
type Clip struct {
	Name       string `json:"name"`
	SourceFile string `json:"source_file"`
}

// Plugin is an entry of the plug-ins listing
type Plugin struct {
	Manufacturer string `json:"manufacturer"`
	Name         string `json:"name"`
	Version      string `json:"version"`
	Format       string `json:"format"`
	Stems        string `json:"stems"`
	Instances    int    `json:"instances"`
}

// Track is one track of the track listing with its timeline events
type Track struct {
	Name      string   `json:"name"`
	Comment   string   `json:"comment,omitempty"`
	UserDelay int      `json:"user_delay_samples"`
	State     []string `json:"state,omitempty"`
	Plugins   []string `json:"plugins,omitempty"`
	Extra     []Field  `json:"extra,omitempty"`
	Events    []Event  `json:"events"`
}

// ChannelEvents returns the events placed on one channel, in listing order
func (t Track) ChannelEvents(channel int) []Event {
	var out []Event
	for _, ev := range t.Events {
		if ev.Channel == channel {
			out = append(out, ev)
		}
	}
	return out
}

// Channels returns the number of distinct channels carrying events
func (t Track) Channels() int {
	seen := make(map[int]struct{})
	for _, ev := range t.Events {
		seen[ev.Channel] = struct{}{}
	}
	return len(seen)
}

// Event is a clip placement on a track channel
type Event struct {
	Channel   int               `json:"channel"`
	Number    int               `json:"event"`
	ClipName  string            `json:"clip_name"`
	Start     timecode.Timecode `json:"start"`
	End       timecode.Timecode `json:"end"`
	Duration  timecode.Timecode `json:"duration"`
	Timestamp timecode.Timecode `json:"timestamp"`
	Muted     bool              `json:"muted"`
}

// Units is the time base a marker was recorded in
type Units string

const (
	UnitsSamples     Units = "Samples"
	UnitsTicks       Units = "Ticks"
	UnitsBarsBeats   Units = "Bars|Beats"
	UnitsFeetFrames  Units = "Feet+Frames"
	UnitsMinSec      Units = "Min:Sec"
	UnitsTimecode    Units = "Timecode"
	UnitsUnspecified Units = ""
)

func parseUnits(s string) (Units, error) {
	for _, u := range []Units{UnitsSamples, UnitsTicks, UnitsBarsBeats, UnitsFeetFrames, UnitsMinSec, UnitsTimecode} {
		if strings.EqualFold(s, string(u)) {
			return u, nil
		}
	}
	return UnitsUnspecified, fmt.Errorf("unknown units %q", s)
}

// Marker is a named location on the session timeline
type Marker struct {
	Number        int               `json:"number"`
	Location      timecode.Timecode `json:"location"`
	TimeReference int64             `json:"time_reference"`
	Units         Units             `json:"units"`
	Name          string            `json:"name"`
	Comment       string            `json:"comment,omitempty"`
	TrackName     string            `json:"track_name,omitempty"`
	TrackType     string            `json:"track_type,omitempty"`
}

// Warning is a recoverable problem noted while parsing
type Warning struct {
	Section Section `json:"section"`
	Line    int     `json:"line"`
	Message string  `json:"message"`
}

func (w Warning) String() string {
	return fmt.Sprintf("%s section, line %d: %s", w.Section, w.Line, w.Message)
}
