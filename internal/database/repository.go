package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/therealutkarshpriyadarshi/edlkit/pkg/edl"
	"github.com/therealutkarshpriyadarshi/edlkit/pkg/models"
)

// ErrNotFound is returned when a session row does not exist
var ErrNotFound = errors.New("session not found")

const (
	defaultListLimit = 20
	maxListLimit     = 100
)

// Repository provides database operations
type Repository struct {
	db *DB
}

// NewRepository creates a new repository
func NewRepository(db *DB) *Repository {
	return &Repository{db: db}
}

const sessionColumns = `
	id, filename, object_key, content_hash, encoding, size, status,
	session_name, sample_rate, frame_rate, drop_frame, start_timecode,
	track_count, event_count, marker_count, warnings, error_msg,
	created_at, updated_at, parsed_at`

func scanSession(row pgx.Row, withDocument bool) (*models.Session, error) {
	var s models.Session
	dest := []interface{}{
		&s.ID, &s.Filename, &s.ObjectKey, &s.ContentHash, &s.Encoding, &s.Size, &s.Status,
		&s.SessionName, &s.SampleRate, &s.FrameRate, &s.DropFrame, &s.StartTimecode,
		&s.TrackCount, &s.EventCount, &s.MarkerCount, &s.Warnings, &s.ErrorMsg,
		&s.CreatedAt, &s.UpdatedAt, &s.ParsedAt,
	}
	if withDocument {
		dest = append(dest, &s.Document)
	}
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}
	return &s, nil
}

// Sessions

// CreateSession creates a new session record
func (r *Repository) CreateSession(ctx context.Context, session *models.Session) error {
	if session.ID == "" {
		session.ID = uuid.New().String()
	}
	if session.Status == "" {
		session.Status = models.SessionStatusPending
	}

	query := `
		INSERT INTO edl_sessions (id, filename, object_key, content_hash, encoding, size, status, warnings)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at, updated_at
	`

	err := r.db.Pool.QueryRow(ctx, query,
		session.ID, session.Filename, session.ObjectKey, session.ContentHash,
		session.Encoding, session.Size, session.Status, session.Warnings,
	).Scan(&session.CreatedAt, &session.UpdatedAt)

	if err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}

	return nil
}

// GetSession retrieves a session by ID, including its parsed document
func (r *Repository) GetSession(ctx context.Context, id string) (*models.Session, error) {
	query := `SELECT ` + sessionColumns + `, document FROM edl_sessions WHERE id = $1`

	session, err := scanSession(r.db.Pool.QueryRow(ctx, query, id), true)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}

	return session, nil
}

// FindParsedByHash returns the most recent parsed session with the same
// content, or ErrNotFound
func (r *Repository) FindParsedByHash(ctx context.Context, contentHash string) (*models.Session, error) {
	query := `SELECT ` + sessionColumns + `, document FROM edl_sessions
		WHERE content_hash = $1 AND status = $2
		ORDER BY parsed_at DESC
		LIMIT 1`

	session, err := scanSession(r.db.Pool.QueryRow(ctx, query, contentHash, models.SessionStatusParsed), true)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find session by hash: %w", err)
	}

	return session, nil
}

// ListSessions retrieves session summaries with pagination, newest first
func (r *Repository) ListSessions(ctx context.Context, limit, offset int) ([]*models.Session, error) {
	limit, offset = clampPage(limit, offset)

	query := `SELECT ` + sessionColumns + ` FROM edl_sessions
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2`

	rows, err := r.db.Pool.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	defer rows.Close()

	sessions := []*models.Session{}
	for rows.Next() {
		session, err := scanSession(rows, false)
		if err != nil {
			return nil, fmt.Errorf("failed to scan session: %w", err)
		}
		sessions = append(sessions, session)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate sessions: %w", err)
	}

	return sessions, nil
}

// UpdateSessionStatus updates the status of a session
func (r *Repository) UpdateSessionStatus(ctx context.Context, id, status string) error {
	query := `UPDATE edl_sessions SET status = $2, updated_at = NOW() WHERE id = $1`

	tag, err := r.db.Pool.Exec(ctx, query, id, status)
	if err != nil {
		return fmt.Errorf("failed to update session status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

// SaveParse stores the summary columns and document of a parsed session
func (r *Repository) SaveParse(ctx context.Context, id string, parsed *edl.Session) (*models.Session, error) {
	session := &models.Session{ID: id}
	session.ApplyParse(parsed, time.Now())

	query := `
		UPDATE edl_sessions
		SET status = $2, session_name = $3, sample_rate = $4, frame_rate = $5,
		    drop_frame = $6, start_timecode = $7, track_count = $8, event_count = $9,
		    marker_count = $10, warnings = $11, document = $12, error_msg = '',
		    parsed_at = $13, updated_at = NOW()
		WHERE id = $1
		RETURNING filename, object_key, content_hash, encoding, size, created_at, updated_at
	`

	err := r.db.Pool.QueryRow(ctx, query,
		id, session.Status, session.SessionName, session.SampleRate, session.FrameRate,
		session.DropFrame, session.StartTimecode, session.TrackCount, session.EventCount,
		session.MarkerCount, session.Warnings, session.Document, session.ParsedAt,
	).Scan(&session.Filename, &session.ObjectKey, &session.ContentHash, &session.Encoding,
		&session.Size, &session.CreatedAt, &session.UpdatedAt)

	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to save parse result: %w", err)
	}

	return session, nil
}

// MarkFailed records a failed parse
func (r *Repository) MarkFailed(ctx context.Context, id, errorMsg string) error {
	query := `
		UPDATE edl_sessions
		SET status = $2, error_msg = $3, document = NULL, updated_at = NOW()
		WHERE id = $1
	`

	tag, err := r.db.Pool.Exec(ctx, query, id, models.SessionStatusFailed, errorMsg)
	if err != nil {
		return fmt.Errorf("failed to mark session failed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

// DeleteSession removes a session row
func (r *Repository) DeleteSession(ctx context.Context, id string) error {
	tag, err := r.db.Pool.Exec(ctx, `DELETE FROM edl_sessions WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

// CountSessions returns the number of sessions in each status
func (r *Repository) CountSessions(ctx context.Context) (map[string]int, error) {
	rows, err := r.db.Pool.Query(ctx, `SELECT status, COUNT(*) FROM edl_sessions GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("failed to count sessions: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, fmt.Errorf("failed to scan session count: %w", err)
		}
		counts[status] = n
	}

	return counts, rows.Err()
}

func clampPage(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
