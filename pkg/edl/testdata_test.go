package edl

import "strings"

// export joins lines with CRLF the way Pro Tools writes them
func export(lines ...string) string {
	return strings.Join(lines, "\r\n") + "\r\n"
}

var sampleHeader = []string{
	"SESSION NAME:\tFeature Reel 3",
	"SAMPLE RATE:\t48000.000000",
	"BIT DEPTH:\t24-bit",
	"SESSION START TIMECODE:\t01:00:00:00",
	"TIMECODE FORMAT:\t25 Frame",
	"# OF AUDIO TRACKS:\t2",
	"# OF AUDIO CLIPS:\t3",
	"# OF AUDIO FILES:\t2",
	"",
	"",
}

var sampleFiles = []string{
	"O N L I N E  F I L E S  I N  S E S S I O N",
	"Filename                \tLocation",
	"Dialog_01.wav           \tMacintosh HD:Projects:Reel3:Audio Files:",
	"Music_Cue_4.wav         \tMacintosh HD:Projects:Reel3:Audio Files:",
	"",
	"",
}

var sampleOfflineFiles = []string{
	"O F F L I N E  F I L E S  I N  S E S S I O N",
	"Filename                \tLocation",
	"Room_Tone.wav           \tMedia:Archive:",
	"",
	"",
}

var sampleClips = []string{
	"O N L I N E  C L I P S  I N  S E S S I O N",
	"CLIP NAME                    \tSource File",
	"Dialog_01-01                 \tDialog_01.wav",
	"Dialog_01-02                 \tDialog_01.wav",
	"Music_Cue_4                  \tMusic_Cue_4.wav",
	"",
	"",
}

var samplePlugins = []string{
	"P L U G - I N S  L I S T I N G",
	"MANUFACTURER            \tPLUG-IN NAME            \tVERSION         \tFORMAT          \tSTEMS                   \tNUMBER OF INSTANCES",
	"Avid                    \tEQ3 7-Band             \t23.6.0          \tAAX Native      \tMono / Mono             \t2 active",
	"Avid                    \tDyn3 Compressor/Limiter\t23.6.0          \tAAX Native      \tStereo / Stereo         \t1 active",
	"",
	"",
}

var sampleTracks = []string{
	"T R A C K  L I S T I N G",
	"TRACK NAME:\tDIA 1",
	"COMMENTS:\tBoom",
	"USER DELAY:\t0 Samples",
	"STATE: \tInactive Hidden",
	"PLUG-INS: \tEQ3 7-Band\tDyn3 Compressor/Limiter\t",
	"CHANNEL \tEVENT   \tCLIP NAME                     \tSTART TIME    \tEND TIME      \tDURATION      \tSTATE",
	"1       \t1       \tDialog_01-01                  \t01:00:10:05   \t01:00:12:00   \t00:00:01:20   \tUnmuted",
	"1       \t2       \tDialog_01-02                  \t01:00:20:00   \t01:00:25:10   \t00:00:05:10   \tMuted",
	"",
	"",
	"TRACK NAME:\tMX",
	"COMMENTS:\t",
	"USER DELAY:\t12 Samples",
	"STATE: \t",
	"CHANNEL \tEVENT   \tCLIP NAME                     \tSTART TIME    \tEND TIME      \tDURATION      \tSTATE",
	"1       \t1       \tMusic_Cue_4                   \t01:00:00:00   \t01:01:00:00   \t00:01:00:00   \tUnmuted",
	"2       \t1       \tMusic_Cue_4                   \t01:00:00:00   \t01:01:00:00   \t00:01:00:00   \tUnmuted",
	"",
	"",
}

var sampleMarkers = []string{
	"M A R K E R S  L I S T I N G",
	"#   \tLOCATION     \tTIME REFERENCE    \tUNITS    \tNAME                             \tCOMMENTS",
	"1   \t01:00:10:05  \t480000            \tSamples  \tVerse                            \t",
	"2   \t01:00:20:00  \t960000            \tSamples  \tChorus                           \tcheck level",
}

func sampleExport() string {
	var lines []string
	for _, block := range [][]string{
		sampleHeader, sampleFiles, sampleOfflineFiles, sampleClips, samplePlugins, sampleTracks, sampleMarkers,
	} {
		lines = append(lines, block...)
	}
	return export(lines...)
}
