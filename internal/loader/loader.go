// Package loader turns raw export bytes into the text handed to the parser.
package loader

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// Encoding names accepted by Decode
const (
	EncodingAuto        = "auto"
	EncodingUTF8        = "utf-8"
	EncodingUTF16       = "utf-16"
	EncodingUTF16LE     = "utf-16le"
	EncodingUTF16BE     = "utf-16be"
	EncodingMacRoman    = "macintosh"
	EncodingWindows1252 = "windows-1252"
)

var (
	ErrUnknownEncoding = errors.New("loader: unknown encoding")
	ErrInvalidText     = errors.New("loader: text is not valid in the detected encoding")
)

var aliases = map[string]string{
	"":             EncodingAuto,
	"auto":         EncodingAuto,
	"utf8":         EncodingUTF8,
	"utf-8":        EncodingUTF8,
	"utf16":        EncodingUTF16,
	"utf-16":       EncodingUTF16,
	"utf-16le":     EncodingUTF16LE,
	"utf-16be":     EncodingUTF16BE,
	"mac":          EncodingMacRoman,
	"macroman":     EncodingMacRoman,
	"mac-roman":    EncodingMacRoman,
	"macintosh":    EncodingMacRoman,
	"cp1252":       EncodingWindows1252,
	"windows-1252": EncodingWindows1252,
}

// Normalize resolves an encoding name or alias to its canonical name
func Normalize(name string) (string, error) {
	canonical, ok := aliases[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownEncoding, name)
	}
	return canonical, nil
}

var (
	utf8BOM    = []byte{0xEF, 0xBB, 0xBF}
	utf16LEBOM = []byte{0xFF, 0xFE}
	utf16BEBOM = []byte{0xFE, 0xFF}
)

// Detect names the encoding announced by a byte order mark. Text without a
// BOM is reported as UTF-8.
func Detect(data []byte) string {
	switch {
	case bytes.HasPrefix(data, utf8BOM):
		return EncodingUTF8
	case bytes.HasPrefix(data, utf16LEBOM):
		return EncodingUTF16LE
	case bytes.HasPrefix(data, utf16BEBOM):
		return EncodingUTF16BE
	}
	return EncodingUTF8
}

func decoderFor(name string) encoding.Encoding {
	switch name {
	case EncodingUTF8:
		return unicode.UTF8BOM
	case EncodingUTF16:
		// BOM decides the byte order, little endian without one
		return unicode.UTF16(unicode.LittleEndian, unicode.ExpectBOM)
	case EncodingUTF16LE:
		return unicode.UTF16(unicode.LittleEndian, unicode.UseBOM)
	case EncodingUTF16BE:
		return unicode.UTF16(unicode.BigEndian, unicode.UseBOM)
	case EncodingMacRoman:
		return charmap.Macintosh
	case EncodingWindows1252:
		return charmap.Windows1252
	}
	return nil
}

// Decode converts data in the named encoding to a UTF-8 string without a
// BOM. "auto" (or an empty name) detects UTF-8 and UTF-16 from the BOM and
// otherwise requires valid UTF-8. The resolved encoding name is returned.
func Decode(data []byte, name string) (string, string, error) {
	canonical, err := Normalize(name)
	if err != nil {
		return "", "", err
	}
	if canonical == EncodingAuto {
		canonical = Detect(data)
	}

	if canonical == EncodingUTF8 && !utf8.Valid(data) {
		return "", canonical, fmt.Errorf("%w: invalid UTF-8, name the export's encoding explicitly", ErrInvalidText)
	}
	if canonical == EncodingUTF16 && !bytes.HasPrefix(data, utf16LEBOM) && !bytes.HasPrefix(data, utf16BEBOM) {
		canonical = EncodingUTF16LE
	}

	decoded, _, err := transform.Bytes(decoderFor(canonical).NewDecoder(), data)
	if err != nil {
		return "", canonical, fmt.Errorf("%w: %v", ErrInvalidText, err)
	}

	return string(decoded), canonical, nil
}

// ContentHash returns the hex SHA-256 of the raw export bytes
func ContentHash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// Export is a decoded export ready for parsing
type Export struct {
	Text        string
	Encoding    string
	ContentHash string
	Size        int64
}

// Load decodes raw export bytes
func Load(data []byte, encodingName string) (*Export, error) {
	text, resolved, err := Decode(data, encodingName)
	if err != nil {
		return nil, err
	}
	return &Export{
		Text:        text,
		Encoding:    resolved,
		ContentHash: ContentHash(data),
		Size:        int64(len(data)),
	}, nil
}

// LoadFile reads and decodes an export from disk
func LoadFile(path, encodingName string) (*Export, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read export: %w", err)
	}
	return Load(data, encodingName)
}
