package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetContentType(t *testing.T) {
	tests := []struct {
		filePath string
		wantType string
	}{
		{"Reel 3.txt", "text/plain"},
		{"REEL3.TXT", "text/plain"},
		{"reel.edl", "text/plain"},
		{"session.json", "application/json"},
		{"unknown.xyz", "application/octet-stream"},
	}

	for _, tt := range tests {
		t.Run(tt.filePath, func(t *testing.T) {
			assert.Equal(t, tt.wantType, getContentType(tt.filePath))
		})
	}
}

func TestObjectKey(t *testing.T) {
	tests := []struct {
		name     string
		filename string
		want     string
	}{
		{"plain", "Reel 3.txt", "edl/abc/Reel 3.txt"},
		{"unix path", "/Users/mix/Reel 3.txt", "edl/abc/Reel 3.txt"},
		{"windows path", `C:\Mix\Reel3.txt`, "edl/abc/Reel3.txt"},
		{"traversal", "../../etc/passwd", "edl/abc/passwd"},
		{"empty", "", "edl/abc/export.txt"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ObjectKey("abc", tt.filename))
		})
	}
}

func TestSessionPrefix(t *testing.T) {
	assert.Equal(t, "edl/abc/", SessionPrefix("abc"))
}
