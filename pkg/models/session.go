package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/therealutkarshpriyadarshi/edlkit/pkg/edl"
)

// Session is a stored EDL export and the result of parsing it
type Session struct {
	ID            string     `json:"id" db:"id"`
	Filename      string     `json:"filename" db:"filename"`
	ObjectKey     string     `json:"object_key" db:"object_key"`
	ContentHash   string     `json:"content_hash" db:"content_hash"`
	Encoding      string     `json:"encoding" db:"encoding"`
	Size          int64      `json:"size" db:"size"`
	Status        string     `json:"status" db:"status"`
	SessionName   string     `json:"session_name" db:"session_name"`
	SampleRate    float64    `json:"sample_rate" db:"sample_rate"`
	FrameRate     string     `json:"frame_rate" db:"frame_rate"`
	DropFrame     bool       `json:"drop_frame" db:"drop_frame"`
	StartTimecode string     `json:"start_timecode" db:"start_timecode"`
	TrackCount    int        `json:"track_count" db:"track_count"`
	EventCount    int        `json:"event_count" db:"event_count"`
	MarkerCount   int        `json:"marker_count" db:"marker_count"`
	Warnings      Warnings   `json:"warnings" db:"warnings"`
	Document      Document   `json:"-" db:"document"`
	ErrorMsg      string     `json:"error_msg,omitempty" db:"error_msg"`
	CreatedAt     time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at" db:"updated_at"`
	ParsedAt      *time.Time `json:"parsed_at,omitempty" db:"parsed_at"`
}

// ApplyParse copies the summary columns and document of a parsed session
func (s *Session) ApplyParse(parsed *edl.Session, at time.Time) {
	h := parsed.Header
	s.Status = SessionStatusParsed
	s.SessionName = h.SessionName
	s.SampleRate = h.SampleRate
	s.FrameRate = h.FrameRate.String()
	s.DropFrame = h.DropFrame
	s.StartTimecode = h.StartTimecode.String()
	s.TrackCount = len(parsed.Tracks)
	s.EventCount = parsed.EventCount()
	s.MarkerCount = len(parsed.Markers)
	s.Warnings = parsed.Warnings
	s.Document = Document{Session: parsed}
	s.ErrorMsg = ""
	s.ParsedAt = &at
}

// Session status constants
const (
	SessionStatusPending    = "pending"
	SessionStatusQueued     = "queued"
	SessionStatusProcessing = "processing"
	SessionStatusParsed     = "parsed"
	SessionStatusFailed     = "failed"
)

// Warnings holds the parse warnings of a session
type Warnings []edl.Warning

// Value implements driver.Valuer for database storage
func (w Warnings) Value() (driver.Value, error) {
	if w == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(w)
}

// Scan implements sql.Scanner for database retrieval
func (w *Warnings) Scan(value interface{}) error {
	data, err := jsonBytes(value)
	if err != nil || data == nil {
		*w = Warnings{}
		return err
	}
	return json.Unmarshal(data, w)
}

// Document is the full parsed session stored as JSONB
type Document struct {
	Session *edl.Session
}

// Value implements driver.Valuer for database storage
func (d Document) Value() (driver.Value, error) {
	if d.Session == nil {
		return nil, nil
	}
	return json.Marshal(d.Session)
}

// Scan implements sql.Scanner for database retrieval
func (d *Document) Scan(value interface{}) error {
	data, err := jsonBytes(value)
	if err != nil || data == nil {
		d.Session = nil
		return err
	}

	var session edl.Session
	if err := json.Unmarshal(data, &session); err != nil {
		return fmt.Errorf("failed to decode session document: %w", err)
	}
	d.Session = &session
	return nil
}

func jsonBytes(value interface{}) ([]byte, error) {
	switch v := value.(type) {
	case nil:
		return nil, nil
	case []byte:
		return v, nil
	case string:
		return []byte(v), nil
	}
	return nil, fmt.Errorf("unsupported JSON column type %T", value)
}
