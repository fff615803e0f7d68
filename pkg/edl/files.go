package edl

// parseFiles reads the online or offline files table
func parseFiles(section Section, lines []Line) ([]File, error) {
	rows, err := parseTable(section, lines, fileLayouts, clock{})
	if err != nil {
		return nil, err
	}

	files := make([]File, 0, len(rows))
	for _, r := range rows {
		files = append(files, File{
			Filename: r.str(colFilename),
			Location: r.str(colLocation),
		})
	}
	return files, nil
}
