package models

import "time"

// WebhookEvent represents the payload sent to webhooks
type WebhookEvent struct {
	Event     string      `json:"event"`
	Timestamp time.Time   `json:"timestamp"`
	Data      interface{} `json:"data"`
}

// Webhook event types
const (
	WebhookEventSessionParsed = "session.parsed"
	WebhookEventSessionFailed = "session.failed"
)

// SessionEventData is the data of a session webhook event
type SessionEventData struct {
	SessionID   string   `json:"session_id"`
	Filename    string   `json:"filename"`
	Status      string   `json:"status"`
	SessionName string   `json:"session_name,omitempty"`
	TrackCount  int      `json:"track_count"`
	MarkerCount int      `json:"marker_count"`
	Warnings    Warnings `json:"warnings,omitempty"`
	Error       string   `json:"error,omitempty"`
}
