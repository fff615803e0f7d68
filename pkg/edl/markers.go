package edl

// parseMarkers reads the markers listing. LOCATION is always read as a
// timecode at the session frame rate; UNITS only describes TIME REFERENCE.
func parseMarkers(lines []Line, clk clock) ([]Marker, error) {
	rows, err := parseTable(SectionMarkers, lines, markerLayouts, clk)
	if err != nil {
		return nil, err
	}

	markers := make([]Marker, 0, len(rows))
	for _, r := range rows {
		units, err := parseUnits(r.str(colUnits))
		if err != nil {
			return nil, lineError(SectionMarkers, r.line, err, "invalid UNITS")
		}

		markers = append(markers, Marker{
			Number:        int(r.num(colNumber)),
			Location:      r.tc(colLocation),
			TimeReference: r.num(colTimeReference),
			Units:         units,
			Name:          r.str(colName),
			Comment:       r.str(colComments),
			TrackName:     r.str(colTrackName),
			TrackType:     r.str(colTrackType),
		})
	}
	return markers, nil
}
