package models

import (
	"time"

	"github.com/therealutkarshpriyadarshi/edlkit/pkg/edl"
)

// IngestJob asks a worker to parse a stored export
type IngestJob struct {
	ID         string      `json:"id"`
	SessionID  string      `json:"session_id"`
	ObjectKey  string      `json:"object_key"`
	Filename   string      `json:"filename"`
	Encoding   string      `json:"encoding,omitempty"`
	Options    edl.Options `json:"options"`
	RetryCount int         `json:"retry_count"`
	CreatedAt  time.Time   `json:"created_at"`
}
