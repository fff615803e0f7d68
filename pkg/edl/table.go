package edl

import (
	"strconv"
	"strings"

	"github.com/therealutkarshpriyadarshi/edlkit/pkg/timecode"
)

// clock is the frame rate timecode cells are read at
type clock struct {
	rate      timecode.Rate
	dropFrame bool
}

// row is a table line decoded against a layout
type row struct {
	line  Line
	text  map[string]string
	ints  map[string]int64
	times map[string]timecode.Timecode
}

func (r row) str(title string) string { return r.text[title] }
func (r row) num(title string) int64 { return r.ints[title] }
func (r row) tc(title string) timecode.Timecode { return r.times[title] }
func (r row) has(title string) bool { return r.text[title] != "" }

// splitCells splits a raw line on tabs and trims the padding around each cell
func splitCells(raw string) []string {
	cells := strings.Split(raw, "\t")
	for i, cell := range cells {
		cells[i] = strings.TrimSpace(cell)
	}
	return cells
}

// trimTrailing drops empty cells from the end, keeping at least keep cells
func trimTrailing(cells []string, keep int) []string {
	for len(cells) > keep && cells[len(cells)-1] == "" {
		cells = cells[:len(cells)-1]
	}
	return cells
}

// selectLayout returns the candidate whose titles match the header row
func selectLayout(section Section, line Line, candidates []layout) (*layout, error) {
	cells := trimTrailing(splitCells(line.Raw), 0)

	for i := range candidates {
		l := &candidates[i]
		if len(l.columns) != len(cells) {
			continue
		}
		match := true
		for j, col := range l.columns {
			if !strings.EqualFold(cells[j], col.title) {
				match = false
				break
			}
		}
		if match {
			return l, nil
		}
	}

	return nil, lineError(section, line, nil, "unrecognized column header %q", strings.Join(cells, " | "))
}

// decode converts one table line into typed cells. Missing trailing cells
// are accepted when their columns are optional; extra non-empty cells are not.
func (l *layout) decode(section Section, line Line, clk clock) (row, error) {
	cells := trimTrailing(splitCells(line.Raw), len(l.columns))
	if len(cells) > len(l.columns) {
		return row{}, lineError(section, line, nil, "expected %d columns, got %d", len(l.columns), len(cells))
	}

	r := row{
		line:  line,
		text:  make(map[string]string, len(l.columns)),
		ints:  make(map[string]int64),
		times: make(map[string]timecode.Timecode),
	}

	for i, col := range l.columns {
		var value string
		if i < len(cells) {
			value = cells[i]
		} else if !col.optional {
			return row{}, lineError(section, line, nil, "missing %s column", col.title)
		}

		r.text[col.title] = value
		if value == "" && col.optional {
			continue
		}

		switch col.kind {
		case kindInt:
			n, err := strconv.ParseInt(value, 10, 64)
			if err != nil {
				return row{}, lineError(section, line, err, "%s %q is not a number", col.title, value)
			}
			r.ints[col.title] = n

		case kindCount:
			fields := strings.Fields(value)
			if len(fields) == 0 {
				return row{}, lineError(section, line, nil, "%s is empty", col.title)
			}
			n, err := strconv.ParseInt(fields[0], 10, 64)
			if err != nil {
				return row{}, lineError(section, line, err, "%s %q is not a count", col.title, value)
			}
			r.ints[col.title] = n

		case kindTimecode:
			tc, err := timecode.Parse(value, clk.rate, clk.dropFrame)
			if err != nil {
				return row{}, lineError(section, line, err, "%s %q", col.title, value)
			}
			r.times[col.title] = tc
		}
	}

	return r, nil
}

// parseTable reads a header row followed by data rows. A section with no
// content yields no rows.
func parseTable(section Section, lines []Line, candidates []layout, clk clock) ([]row, error) {
	var (
		l    *layout
		rows []row
	)

	for _, line := range lines {
		if line.Blank() {
			continue
		}

		if l == nil {
			selected, err := selectLayout(section, line, candidates)
			if err != nil {
				return nil, err
			}
			l = selected
			continue
		}

		r, err := l.decode(section, line, clk)
		if err != nil {
			return nil, err
		}
		rows = append(rows, r)
	}

	return rows, nil
}
