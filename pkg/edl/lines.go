package edl

import (
	"iter"
	"strings"
)

// Line is one logical line of an export
type Line struct {
	Number int    // 1-based line number
	Raw    string // line content without its terminator
	Text   string // Raw with surrounding whitespace removed
}

// Blank reports whether the line carries no content
func (l Line) Blank() bool {
	return l.Text == ""
}

// LineReader splits text into lines. \r\n, \r and \n all end a line and a
// leading byte order mark is dropped.
type LineReader struct {
	text   string
	pos    int
	number int
}

// NewLineReader creates a reader over text
func NewLineReader(text string) *LineReader {
	return &LineReader{text: strings.TrimPrefix(text, "\ufeff")}
}

// Next returns the next line, or false at the end of the text
func (r *LineReader) Next() (Line, bool) {
	if r.pos >= len(r.text) {
		return Line{}, false
	}

	rest := r.text[r.pos:]
	end := strings.IndexAny(rest, "\r\n")

	var raw string
	if end < 0 {
		raw = rest
		r.pos = len(r.text)
	} else {
		raw = rest[:end]
		r.pos += end + 1
		if rest[end] == '\r' && end+1 < len(rest) && rest[end+1] == '\n' {
			r.pos++
		}
	}

	r.number++
	return Line{Number: r.number, Raw: raw, Text: strings.TrimSpace(raw)}, true
}

// Reset rewinds the reader to the first line
func (r *LineReader) Reset() {
	r.pos = 0
	r.number = 0
}

// All returns the lines as a sequence. Each iteration starts from the first
// line with its own cursor, so it neither moves nor depends on Next.
func (r *LineReader) All() iter.Seq[Line] {
	return func(yield func(Line) bool) {
		cur := LineReader{text: r.text}
		for {
			line, ok := cur.Next()
			if !ok || !yield(line) {
				return
			}
		}
	}
}
