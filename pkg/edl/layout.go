package edl

// Column titles as printed in table header rows
const (
	colFilename   = "FILENAME"
	colLocation   = "LOCATION"
	colClipName   = "CLIP NAME"
	colSourceFile = "SOURCE FILE"

	colManufacturer = "MANUFACTURER"
	colPluginName   = "PLUG-IN NAME"
	colVersion      = "VERSION"
	colFormat       = "FORMAT"
	colStems        = "STEMS"
	colInstances    = "NUMBER OF INSTANCES"

	colChannel   = "CHANNEL"
	colEvent     = "EVENT"
	colStartTime = "START TIME"
	colEndTime   = "END TIME"
	colDuration  = "DURATION"
	colTimestamp = "TIMESTAMP"
	colState     = "STATE"

	colNumber        = "#"
	colTimeReference = "TIME REFERENCE"
	colUnits         = "UNITS"
	colName          = "NAME"
	colTrackName     = "TRACK NAME"
	colTrackType     = "TRACK TYPE"
	colComments      = "COMMENTS"
)

type columnKind uint8

const (
	kindText columnKind = iota
	kindInt
	// kindCount is a leading integer followed by free text, as in "2 active"
	kindCount
	kindTimecode
)

type column struct {
	title    string
	kind     columnKind
	optional bool
}

// layout is one known arrangement of a table's columns
type layout struct {
	name    string
	columns []column
}

var fileLayouts = []layout{
	{name: "files", columns: []column{
		{title: colFilename},
		{title: colLocation, optional: true},
	}},
}

var clipLayouts = []layout{
	{name: "clips", columns: []column{
		{title: colClipName},
		{title: colSourceFile, optional: true},
	}},
}

var pluginLayouts = []layout{
	{name: "plugins", columns: []column{
		{title: colManufacturer},
		{title: colPluginName},
		{title: colVersion},
		{title: colFormat},
		{title: colStems, optional: true},
		{title: colInstances, kind: kindCount},
	}},
}

var eventLayouts = []layout{
	{name: "events", columns: []column{
		{title: colChannel, kind: kindInt},
		{title: colEvent, kind: kindInt},
		{title: colClipName},
		{title: colStartTime, kind: kindTimecode},
		{title: colEndTime, kind: kindTimecode},
		{title: colDuration, kind: kindTimecode},
	}},
	{name: "events with state", columns: []column{
		{title: colChannel, kind: kindInt},
		{title: colEvent, kind: kindInt},
		{title: colClipName},
		{title: colStartTime, kind: kindTimecode},
		{title: colEndTime, kind: kindTimecode},
		{title: colDuration, kind: kindTimecode},
		{title: colState},
	}},
	{name: "events with timestamp", columns: []column{
		{title: colChannel, kind: kindInt},
		{title: colEvent, kind: kindInt},
		{title: colClipName},
		{title: colStartTime, kind: kindTimecode},
		{title: colEndTime, kind: kindTimecode},
		{title: colDuration, kind: kindTimecode},
		{title: colTimestamp, kind: kindTimecode, optional: true},
	}},
	{name: "events with timestamp and state", columns: []column{
		{title: colChannel, kind: kindInt},
		{title: colEvent, kind: kindInt},
		{title: colClipName},
		{title: colStartTime, kind: kindTimecode},
		{title: colEndTime, kind: kindTimecode},
		{title: colDuration, kind: kindTimecode},
		{title: colTimestamp, kind: kindTimecode, optional: true},
		{title: colState},
	}},
}

var markerLayouts = []layout{
	{name: "markers", columns: []column{
		{title: colNumber, kind: kindInt},
		{title: colLocation, kind: kindTimecode},
		{title: colTimeReference, kind: kindInt},
		{title: colUnits},
		{title: colName},
		{title: colComments, optional: true},
	}},
	{name: "markers with tracks", columns: []column{
		{title: colNumber, kind: kindInt},
		{title: colLocation, kind: kindTimecode},
		{title: colTimeReference, kind: kindInt},
		{title: colUnits},
		{title: colName},
		{title: colTrackName, optional: true},
		{title: colTrackType, optional: true},
		{title: colComments, optional: true},
	}},
}
