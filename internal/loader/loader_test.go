package loader

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
)

const sample = "SESSION NAME:\tCafé Scène\r\nSAMPLE RATE:\t48000.000000\r\n"

func encode(t *testing.T, enc encoding.Encoding, s string) []byte {
	t.Helper()
	out, err := enc.NewEncoder().Bytes([]byte(s))
	require.NoError(t, err)
	return out
}

func TestDecode(t *testing.T) {
	tests := []struct {
		name         string
		data         func(t *testing.T) []byte
		encoding     string
		wantEncoding string
	}{
		{
			name:         "plain utf-8 auto",
			data:         func(t *testing.T) []byte { return []byte(sample) },
			encoding:     "",
			wantEncoding: EncodingUTF8,
		},
		{
			name:         "utf-8 with bom",
			data:         func(t *testing.T) []byte { return append([]byte{0xEF, 0xBB, 0xBF}, sample...) },
			encoding:     EncodingAuto,
			wantEncoding: EncodingUTF8,
		},
		{
			name: "utf-16le with bom",
			data: func(t *testing.T) []byte {
				return encode(t, unicode.UTF16(unicode.LittleEndian, unicode.UseBOM), sample)
			},
			encoding:     EncodingAuto,
			wantEncoding: EncodingUTF16LE,
		},
		{
			name: "utf-16be with bom",
			data: func(t *testing.T) []byte {
				return encode(t, unicode.UTF16(unicode.BigEndian, unicode.UseBOM), sample)
			},
			encoding:     "utf16",
			wantEncoding: EncodingUTF16,
		},
		{
			name: "utf-16 without bom falls back to little endian",
			data: func(t *testing.T) []byte {
				return encode(t, unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM), sample)
			},
			encoding:     "UTF-16",
			wantEncoding: EncodingUTF16LE,
		},
		{
			name:         "mac roman",
			data:         func(t *testing.T) []byte { return encode(t, charmap.Macintosh, sample) },
			encoding:     "MacRoman",
			wantEncoding: EncodingMacRoman,
		},
		{
			name:         "windows-1252",
			data:         func(t *testing.T) []byte { return encode(t, charmap.Windows1252, sample) },
			encoding:     "cp1252",
			wantEncoding: EncodingWindows1252,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			text, resolved, err := Decode(tt.data(t), tt.encoding)
			require.NoError(t, err)
			assert.Equal(t, sample, text)
			assert.Equal(t, tt.wantEncoding, resolved)
		})
	}
}

func TestDecodeRejectsInvalidUTF8(t *testing.T) {
	latin := encode(t, charmap.Windows1252, sample)

	_, _, err := Decode(latin, EncodingAuto)
	assert.ErrorIs(t, err, ErrInvalidText)

	_, _, err = Decode(latin, EncodingUTF8)
	assert.ErrorIs(t, err, ErrInvalidText)
}

func TestNormalize(t *testing.T) {
	name, err := Normalize(" Windows-1252 ")
	require.NoError(t, err)
	assert.Equal(t, EncodingWindows1252, name)

	_, err = Normalize("ebcdic")
	assert.ErrorIs(t, err, ErrUnknownEncoding)
}

func TestDetect(t *testing.T) {
	assert.Equal(t, EncodingUTF8, Detect([]byte("plain")))
	assert.Equal(t, EncodingUTF8, Detect([]byte{0xEF, 0xBB, 0xBF, 'a'}))
	assert.Equal(t, EncodingUTF16LE, Detect([]byte{0xFF, 0xFE, 'a', 0}))
	assert.Equal(t, EncodingUTF16BE, Detect([]byte{0xFE, 0xFF, 0, 'a'}))
}

func TestContentHash(t *testing.T) {
	assert.Equal(t,
		"e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855",
		ContentHash(nil))
	assert.NotEqual(t, ContentHash([]byte("a")), ContentHash([]byte("b")))
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "Session.txt")
	require.NoError(t, os.WriteFile(path, encode(t, charmap.Macintosh, sample), 0o644))

	export, err := LoadFile(path, EncodingMacRoman)
	require.NoError(t, err)
	assert.Equal(t, sample, export.Text)
	assert.Equal(t, EncodingMacRoman, export.Encoding)
	assert.Equal(t, int64(len(sample)-2), export.Size)
	assert.Len(t, export.ContentHash, 64)

	_, err = LoadFile(filepath.Join(t.TempDir(), "missing.txt"), "")
	assert.Error(t, err)
}
