package edl

func parseClips(lines []Line) ([]Clip, error) {
	rows, err := parseTable(SectionOnlineClips, lines, clipLayouts, clock{})
	if err != nil {
		return nil, err
	}

	clips := make([]Clip, 0, len(rows))
	for _, r := range rows {
		clips = append(clips, Clip{
			Name:       r.str(colClipName),
			SourceFile: r.str(colSourceFile),
		})
	}
	return clips, nil
}
