package edl

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/therealutkarshpriyadarshi/edlkit/pkg/timecode"
)

// lines numbers raw strings from 1 the way the reader would
func lines(raw ...string) []Line {
	out := make([]Line, 0, len(raw))
	for line := range NewLineReader(export(raw...)).All() {
		out = append(out, line)
	}
	return out
}

var pal = clock{rate: timecode.Rate25}

func TestParseHeader(t *testing.T) {
	h, err := parseHeader(lines(
		"SESSION START TIMECODE:\t00:59:59;29",
		"SESSION NAME:\tSpot",
		"TIMECODE FORMAT:\t29.97 Drop Frame",
		"BIT DEPTH:\t32-bit float",
		"AUDIO PROJECT:\tlegacy",
	))
	require.NoError(t, err)

	assert.Equal(t, "Spot", h.SessionName)
	assert.Equal(t, BitDepth32Float, h.BitDepth)
	assert.Equal(t, timecode.Rate29_97, h.FrameRate)
	assert.True(t, h.DropFrame)
	assert.Equal(t, "00:59:59;29", h.StartTimecode.String())
	assert.Equal(t, []Field{{Name: "AUDIO PROJECT", Value: "legacy"}}, h.Extra)
}

func TestParseHeaderErrors(t *testing.T) {
	tests := []struct {
		name string
		line string
	}{
		{"not a field", "just some words"},
		{"negative sample rate", "SAMPLE RATE:\t-48000"},
		{"bit depth", "BIT DEPTH:\t12-bit"},
		{"timecode format", "TIMECODE FORMAT:\t25 fps"},
		{"drop frame at 23.976", "TIMECODE FORMAT:\t23.976 Drop Frame"},
		{"track count", "# OF AUDIO TRACKS:\tmany"},
		{"start timecode", "SESSION START TIMECODE:\t25:00"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parseHeader(lines("SESSION NAME:\tX", tt.line))

			var perr *SectionParseError
			require.True(t, errors.As(err, &perr), "got %v", err)
			assert.Equal(t, SectionHeader, perr.Section)
			assert.Equal(t, 2, perr.Line)
		})
	}
}

func TestParseTimecodeFormat(t *testing.T) {
	tests := []struct {
		in   string
		rate timecode.Rate
		drop bool
	}{
		{"25 Frame", timecode.Rate25, false},
		{"23.976 Frame", timecode.Rate23_976, false},
		{"29.97 Drop Frame", timecode.Rate29_97, true},
		{"29.97 Non-Drop Frame", timecode.Rate29_97, false},
		{"59.94 Drop Frame", timecode.Rate59_94, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			rate, drop, err := parseTimecodeFormat(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.rate, rate)
			assert.Equal(t, tt.drop, drop)
		})
	}
}

func TestParseFilesTolerateTrimmedCells(t *testing.T) {
	files, err := parseFiles(SectionOfflineFiles, lines(
		"Filename\tLocation",
		"lost.wav",
		"",
	))
	require.NoError(t, err)
	assert.Equal(t, []File{{Filename: "lost.wav"}}, files)
}

func TestParseFilesEmptySection(t *testing.T) {
	files, err := parseFiles(SectionOnlineFiles, lines("", ""))
	require.NoError(t, err)
	assert.Empty(t, files)
}

func TestTableErrors(t *testing.T) {
	tests := []struct {
		name    string
		parse   func([]Line) error
		raw     []string
		section Section
	}{
		{
			name:    "unknown header",
			parse:   func(l []Line) error { _, err := parseClips(l); return err },
			raw:     []string{"Name\tPath"},
			section: SectionOnlineClips,
		},
		{
			name:    "extra cells",
			parse:   func(l []Line) error { _, err := parseClips(l); return err },
			raw:     []string{"CLIP NAME\tSource File", "a\tb\tc"},
			section: SectionOnlineClips,
		},
		{
			name:    "missing required cell",
			parse:   func(l []Line) error { _, err := parsePlugins(l); return err },
			raw:     []string{samplePlugins[1], "Avid\tEQ3 7-Band"},
			section: SectionPlugins,
		},
		{
			name:    "instance count",
			parse:   func(l []Line) error { _, err := parsePlugins(l); return err },
			raw:     []string{samplePlugins[1], "Avid\tEQ3\t1.0\tAAX Native\tMono\tseveral"},
			section: SectionPlugins,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.parse(lines(tt.raw...))

			var perr *SectionParseError
			require.True(t, errors.As(err, &perr), "got %v", err)
			assert.Equal(t, tt.section, perr.Section)
			assert.Equal(t, len(tt.raw), perr.Line)
		})
	}
}

func TestParsePlugins(t *testing.T) {
	plugins, err := parsePlugins(lines(samplePlugins[1:]...))
	require.NoError(t, err)
	require.Len(t, plugins, 2)
	assert.Equal(t, Plugin{
		Manufacturer: "Avid",
		Name:         "EQ3 7-Band",
		Version:      "23.6.0",
		Format:       "AAX Native",
		Stems:        "Mono / Mono",
		Instances:    2,
	}, plugins[0])
}

func TestParseTracksWithTimestamps(t *testing.T) {
	tracks, err := parseTracks(lines(
		"TRACK NAME:\tPFX",
		"COMMENTS:\t",
		"USER DELAY:\t0 Samples",
		"STATE: \t",
		"CHANNEL \tEVENT   \tCLIP NAME \tSTART TIME  \tEND TIME    \tDURATION    \tTIMESTAMP   \tSTATE",
		"1       \t1       \tGlass     \t00:00:01:00 \t00:00:02:00 \t00:00:01:00 \t00:10:00:00 \tUnmuted",
		"1       \t2       \tDebris    \t00:00:03:00 \t00:00:04:00 \t00:00:01:00 \t            \tMuted",
	), pal)
	require.NoError(t, err)

	require.Len(t, tracks, 1)
	events := tracks[0].Events
	require.Len(t, events, 2)
	assert.Equal(t, "00:10:00:00", events[0].Timestamp.String())
	assert.True(t, events[1].Timestamp.IsZero())
	assert.True(t, events[1].Muted)
}

func TestParseTracksWithoutEvents(t *testing.T) {
	tracks, err := parseTracks(lines(
		"TRACK NAME:\tEmpty",
		"COMMENTS:\tnothing here",
		"USER DELAY:\t0 Samples",
		"STATE: \tInactive",
		"",
		"TRACK NAME:\tNext",
	), pal)
	require.NoError(t, err)
	require.Len(t, tracks, 2)
	assert.NotNil(t, tracks[0].Events)
	assert.Empty(t, tracks[0].Events)
	assert.Equal(t, "Next", tracks[1].Name)
}

func TestParseTracksErrors(t *testing.T) {
	tests := []struct {
		name     string
		raw      []string
		wantLine int
	}{
		{
			name:     "content before track name",
			raw:      []string{"COMMENTS:\tx"},
			wantLine: 1,
		},
		{
			name:     "bad user delay",
			raw:      []string{"TRACK NAME:\tA", "USER DELAY:\tsoon"},
			wantLine: 2,
		},
		{
			name: "events before column header",
			raw: []string{
				"TRACK NAME:\tA",
				"COMMENTS:\t",
				"USER DELAY:\t0 Samples",
				"1\t1\tBANG\t01:00:00:00\t01:00:01:00\t00:00:01:00\tUnmuted",
				"1\t2\tBANG\t01:00:02:00\t01:00:03:00\t00:00:01:00\tUnmuted",
			},
			wantLine: 4,
		},
		{
			name: "bad event state",
			raw: []string{
				"TRACK NAME:\tA",
				"CHANNEL\tEVENT\tCLIP NAME\tSTART TIME\tEND TIME\tDURATION\tSTATE",
				"1\t1\tx\t00:00:00:00\t00:00:01:00\t00:00:01:00\tSoloed",
			},
			wantLine: 3,
		},
		{
			name: "bad event timecode",
			raw: []string{
				"TRACK NAME:\tA",
				"CHANNEL\tEVENT\tCLIP NAME\tSTART TIME\tEND TIME\tDURATION",
				"1\t1\tx\t00:00:00:30\t00:00:01:00\t00:00:01:00",
			},
			wantLine: 3,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parseTracks(lines(tt.raw...), pal)

			var perr *SectionParseError
			require.True(t, errors.As(err, &perr), "got %v", err)
			assert.Equal(t, SectionTracks, perr.Section)
			assert.Equal(t, tt.wantLine, perr.Line)
		})
	}
}

func TestParseMarkersWithTracks(t *testing.T) {
	markers, err := parseMarkers(lines(
		"#   \tLOCATION     \tTIME REFERENCE \tUNITS    \tNAME     \tTRACK NAME \tTRACK TYPE \tCOMMENTS",
		"1   \t00:00:05:00  \t240000         \tSamples  \tImpact   \tFX 1       \tAudio      \t",
	), pal)
	require.NoError(t, err)
	require.Len(t, markers, 1)
	assert.Equal(t, "FX 1", markers[0].TrackName)
	assert.Equal(t, "Audio", markers[0].TrackType)
}

func TestParseMarkersRejectsUnknownUnits(t *testing.T) {
	_, err := parseMarkers(lines(
		"#\tLOCATION\tTIME REFERENCE\tUNITS\tNAME\tCOMMENTS",
		"1\t00:00:05:00\t240000\tFurlongs\tImpact\t",
	), pal)

	var perr *SectionParseError
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, SectionMarkers, perr.Section)
	assert.Equal(t, 2, perr.Line)
}

func TestSectionText(t *testing.T) {
	for _, s := range []Section{SectionHeader, SectionOnlineFiles, SectionTracks, SectionMarkers} {
		text, err := s.MarshalText()
		require.NoError(t, err)

		var back Section
		require.NoError(t, back.UnmarshalText(text))
		assert.Equal(t, s, back)
	}
}
