package database

const schema = `
CREATE TABLE IF NOT EXISTS edl_sessions (
	id             UUID PRIMARY KEY,
	filename       TEXT NOT NULL,
	object_key     TEXT NOT NULL DEFAULT '',
	content_hash   TEXT NOT NULL DEFAULT '',
	encoding       TEXT NOT NULL DEFAULT '',
	size           BIGINT NOT NULL DEFAULT 0,
	status         TEXT NOT NULL,
	session_name   TEXT NOT NULL DEFAULT '',
	sample_rate    DOUBLE PRECISION NOT NULL DEFAULT 0,
	frame_rate     TEXT NOT NULL DEFAULT '',
	drop_frame     BOOLEAN NOT NULL DEFAULT FALSE,
	start_timecode TEXT NOT NULL DEFAULT '',
	track_count    INTEGER NOT NULL DEFAULT 0,
	event_count    INTEGER NOT NULL DEFAULT 0,
	marker_count   INTEGER NOT NULL DEFAULT 0,
	warnings       JSONB NOT NULL DEFAULT '[]',
	document       JSONB,
	error_msg      TEXT NOT NULL DEFAULT '',
	created_at     TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at     TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	parsed_at      TIMESTAMPTZ
);

CREATE INDEX IF NOT EXISTS idx_edl_sessions_content_hash ON edl_sessions (content_hash);
CREATE INDEX IF NOT EXISTS idx_edl_sessions_created_at ON edl_sessions (created_at DESC);
`
