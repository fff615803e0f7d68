package edl

// parsePlugins reads the plug-ins listing. NUMBER OF INSTANCES may carry a
// trailing word such as "active".
func parsePlugins(lines []Line) ([]Plugin, error) {
	rows, err := parseTable(SectionPlugins, lines, pluginLayouts, clock{})
	if err != nil {
		return nil, err
	}

	plugins := make([]Plugin, 0, len(rows))
	for _, r := range rows {
		plugins = append(plugins, Plugin{
			Manufacturer: r.str(colManufacturer),
			Name:         r.str(colPluginName),
			Version:      r.str(colVersion),
			Format:       r.str(colFormat),
			Stems:        r.str(colStems),
			Instances:    int(r.num(colInstances)),
		})
	}
	return plugins, nil
}
