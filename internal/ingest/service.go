// Package ingest stores, parses and publishes EDL exports.
package ingest

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/therealutkarshpriyadarshi/edlkit/internal/loader"
	"github.com/therealutkarshpriyadarshi/edlkit/internal/logging"
	"github.com/therealutkarshpriyadarshi/edlkit/internal/metrics"
	"github.com/therealutkarshpriyadarshi/edlkit/internal/storage"
	"github.com/therealutkarshpriyadarshi/edlkit/internal/tracing"
	"github.com/therealutkarshpriyadarshi/edlkit/pkg/edl"
	"github.com/therealutkarshpriyadarshi/edlkit/pkg/models"
)

var (
	// ErrTooLarge is returned for exports above the configured size limit
	ErrTooLarge = errors.New("export exceeds the maximum upload size")
	// ErrBusy is returned when another worker holds the ingest lock for the
	// same content
	ErrBusy = errors.New("export is being ingested by another worker")
)

// ObjectStore holds raw exports
type ObjectStore interface {
	Upload(ctx context.Context, objectName string, reader io.Reader, size int64) error
	ReadAll(ctx context.Context, objectName string, limit int64) ([]byte, error)
	DeleteSession(ctx context.Context, sessionID string) error
}

// Cache holds parse results, session records and ingest locks
type Cache interface {
	GetParsed(ctx context.Context, contentHash string, opts edl.Options) (*edl.Session, error)
	SetParsed(ctx context.Context, contentHash string, opts edl.Options, session *edl.Session, ttl time.Duration) error
	GetSession(ctx context.Context, sessionID string) (*models.Session, error)
	SetSession(ctx context.Context, session *models.Session, ttl time.Duration) error
	DeleteSession(ctx context.Context, sessionID string) error
	AcquireLock(ctx context.Context, resource string, ttl time.Duration) (bool, error)
	ReleaseLock(ctx context.Context, resource string) error
}

// Repository persists session records
type Repository interface {
	CreateSession(ctx context.Context, session *models.Session) error
	GetSession(ctx context.Context, id string) (*models.Session, error)
	ListSessions(ctx context.Context, limit, offset int) ([]*models.Session, error)
	UpdateSessionStatus(ctx context.Context, id, status string) error
	SaveParse(ctx context.Context, id string, parsed *edl.Session) (*models.Session, error)
	MarkFailed(ctx context.Context, id, errorMsg string) error
	DeleteSession(ctx context.Context, id string) error
}

// Publisher queues ingest jobs
type Publisher interface {
	PublishIngestJob(ctx context.Context, job *models.IngestJob) error
}

// Notifier announces parse outcomes
type Notifier interface {
	NotifySessionParsed(ctx context.Context, session *models.Session) error
	NotifySessionFailed(ctx context.Context, session *models.Session) error
}

// Config tunes the service
type Config struct {
	Options         edl.Options
	DefaultEncoding string
	MaxSize         int64
	SessionTTL      time.Duration
	LockTTL         time.Duration
}

// Service runs the ingest pipeline: download, decode, parse, cache,
// persist, notify
type Service struct {
	store     ObjectStore
	cache     Cache
	repo      Repository
	publisher Publisher
	notifier  Notifier
	cfg       Config
	logger    *logging.Logger
	inFlight  atomic.Int64
}

// NewService creates an ingest service. The cache, publisher and notifier
// may be nil.
func NewService(cfg Config, store ObjectStore, repo Repository, cache Cache, publisher Publisher, notifier Notifier, logger *logging.Logger) *Service {
	if cfg.MaxSize <= 0 {
		cfg.MaxSize = 32 << 20
	}
	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = time.Hour
	}
	if cfg.LockTTL <= 0 {
		cfg.LockTTL = 2 * time.Minute
	}
	if logger == nil {
		logger = logging.Nop()
	}

	return &Service{
		store:     store,
		cache:     cache,
		repo:      repo,
		publisher: publisher,
		notifier:  notifier,
		cfg:       cfg,
		logger:    logger,
	}
}

// InFlight returns the number of jobs being processed
func (s *Service) InFlight() int {
	return int(s.inFlight.Load())
}

// resolveOptions fills unset policies from the service defaults
func (s *Service) resolveOptions(opts edl.Options) (edl.Options, error) {
	if opts.OnUnknownSection == "" {
		opts.OnUnknownSection = s.cfg.Options.OnUnknownSection
	}
	if opts.OnSectionParseError == "" {
		opts.OnSectionParseError = s.cfg.Options.OnSectionParseError
	}
	if err := opts.Validate(); err != nil {
		return edl.Options{}, err
	}
	return opts, nil
}

func (s *Service) resolveEncoding(name string) string {
	if name == "" {
		return s.cfg.DefaultEncoding
	}
	return name
}

// Submit stores an uploaded export, records it and queues it for parsing
func (s *Service) Submit(ctx context.Context, filename string, data []byte, encoding string, opts edl.Options) (*models.Session, error) {
	span, ctx := tracing.StartSpan(ctx, "ingest.submit")
	defer tracing.FinishSpan(span)

	if int64(len(data)) > s.cfg.MaxSize {
		return nil, ErrTooLarge
	}

	opts, err := s.resolveOptions(opts)
	if err != nil {
		return nil, err
	}
	encoding = s.resolveEncoding(encoding)
	if encoding, err = loader.Normalize(encoding); err != nil {
		return nil, err
	}

	session := &models.Session{
		ID:          uuid.New().String(),
		Filename:    filename,
		ContentHash: loader.ContentHash(data),
		Encoding:    encoding,
		Size:        int64(len(data)),
		Status:      models.SessionStatusPending,
	}
	if s.publisher != nil {
		session.Status = models.SessionStatusQueued
	}
	session.ObjectKey = storage.ObjectKey(session.ID, filename)
	tracing.SetTag(span, "session_id", session.ID)

	err = s.store.Upload(ctx, session.ObjectKey, bytes.NewReader(data), session.Size)
	metrics.RecordStorageOperation("upload", err)
	if err != nil {
		tracing.LogError(span, err)
		return nil, fmt.Errorf("failed to store export: %w", err)
	}
	metrics.RecordUpload(session.Size)

	if err := s.repo.CreateSession(ctx, session); err != nil {
		tracing.LogError(span, err)
		return nil, err
	}

	if s.publisher == nil {
		return session, nil
	}

	job := &models.IngestJob{
		ID:        uuid.New().String(),
		SessionID: session.ID,
		ObjectKey: session.ObjectKey,
		Filename:  filename,
		Encoding:  encoding,
		Options:   opts,
		CreatedAt: time.Now(),
	}
	if err := s.publisher.PublishIngestJob(ctx, job); err != nil {
		tracing.LogError(span, err)
		if markErr := s.repo.MarkFailed(ctx, session.ID, "failed to queue export"); markErr != nil {
			s.logger.WithSessionID(session.ID).ErrorWithErr("Failed to mark session failed", markErr)
		}
		return nil, fmt.Errorf("failed to queue export: %w", err)
	}

	s.logger.WithSessionID(session.ID).WithJobID(job.ID).Info("Export queued for parsing")
	return session, nil
}

// Parse decodes and parses an export without storing it. Identical content
// parsed with the same options is served from the cache.
func (s *Service) Parse(ctx context.Context, data []byte, encoding string, opts edl.Options) (*edl.Session, *loader.Export, error) {
	if int64(len(data)) > s.cfg.MaxSize {
		return nil, nil, ErrTooLarge
	}

	opts, err := s.resolveOptions(opts)
	if err != nil {
		return nil, nil, err
	}

	export, err := loader.Load(data, s.resolveEncoding(encoding))
	if err != nil {
		return nil, nil, err
	}

	parsed, err := s.parse(ctx, "", export, opts)
	if err != nil {
		return nil, export, err
	}
	return parsed, export, nil
}

func (s *Service) parse(ctx context.Context, sessionID string, export *loader.Export, opts edl.Options) (*edl.Session, error) {
	span, ctx := tracing.StartSpan(ctx, "ingest.parse")
	defer tracing.FinishSpan(span)
	tracing.SetTag(span, "content_hash", export.ContentHash)

	if s.cache != nil {
		cached, err := s.cache.GetParsed(ctx, export.ContentHash, opts)
		if err != nil {
			s.logger.WithError(err).Warn("Parse cache lookup failed")
		}
		metrics.RecordCacheLookup(cached != nil)
		if cached != nil {
			tracing.SetTag(span, "cache_hit", true)
			return cached, nil
		}
	}

	parser, err := edl.NewParser(opts)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	parsed, err := parser.Parse(export.Text)
	duration := time.Since(start)

	metrics.RecordParse(parsed, duration.Seconds(), err)
	s.logger.LogParseResult(sessionID, parsed, duration, err)
	if err != nil {
		tracing.LogError(span, err)
		return nil, err
	}

	for _, w := range parsed.Warnings {
		s.logger.LogParseWarning(sessionID, w)
	}

	if s.cache != nil {
		if err := s.cache.SetParsed(ctx, export.ContentHash, opts, parsed, s.cfg.SessionTTL); err != nil {
			s.logger.WithError(err).Warn("Failed to cache parse result")
		}
	}

	return parsed, nil
}

// Process handles one queued ingest job. Errors returned are transient and
// the job should be retried; an export that fails to parse is recorded as
// failed and nil is returned.
func (s *Service) Process(ctx context.Context, job *models.IngestJob) error {
	span, ctx := tracing.StartSpan(ctx, "ingest.process")
	defer tracing.FinishSpan(span)
	tracing.SetTag(span, "session_id", job.SessionID)
	tracing.SetTag(span, "job_id", job.ID)

	s.inFlight.Add(1)
	defer s.inFlight.Add(-1)

	logger := s.logger.WithSessionID(job.SessionID)
	logger.LogJobEvent(job.ID, "started", models.SessionStatusProcessing, map[string]interface{}{
		"retry_count": job.RetryCount,
	})

	if err := s.repo.UpdateSessionStatus(ctx, job.SessionID, models.SessionStatusProcessing); err != nil {
		tracing.LogError(span, err)
		return err
	}

	data, err := s.store.ReadAll(ctx, job.ObjectKey, s.cfg.MaxSize)
	metrics.RecordStorageOperation("download", err)
	if err != nil {
		tracing.LogError(span, err)
		return fmt.Errorf("failed to download export: %w", err)
	}

	export, err := loader.Load(data, s.resolveEncoding(job.Encoding))
	if err != nil {
		return s.fail(ctx, job, err)
	}

	if s.cache != nil {
		lock := "ingest:" + export.ContentHash
		acquired, err := s.cache.AcquireLock(ctx, lock, s.cfg.LockTTL)
		if err != nil {
			return fmt.Errorf("failed to acquire ingest lock: %w", err)
		}
		if !acquired {
			return ErrBusy
		}
		defer s.cache.ReleaseLock(context.WithoutCancel(ctx), lock)
	}

	opts, err := s.resolveOptions(job.Options)
	if err != nil {
		return s.fail(ctx, job, err)
	}

	parsed, err := s.parse(ctx, job.SessionID, export, opts)
	if err != nil {
		return s.fail(ctx, job, err)
	}

	session, err := s.repo.SaveParse(ctx, job.SessionID, parsed)
	if err != nil {
		tracing.LogError(span, err)
		return err
	}

	if s.cache != nil {
		if err := s.cache.SetSession(ctx, session, s.cfg.SessionTTL); err != nil {
			logger.WithError(err).Warn("Failed to cache session")
		}
	}

	metrics.RecordIngestJob(models.SessionStatusParsed)
	logger.LogJobEvent(job.ID, "completed", models.SessionStatusParsed, map[string]interface{}{
		"tracks":   session.TrackCount,
		"markers":  session.MarkerCount,
		"warnings": len(session.Warnings),
	})

	s.notify(ctx, session)
	return nil
}

// fail records a permanent parse failure
func (s *Service) fail(ctx context.Context, job *models.IngestJob, cause error) error {
	if err := s.repo.MarkFailed(ctx, job.SessionID, cause.Error()); err != nil {
		return err
	}

	if s.cache != nil {
		_ = s.cache.DeleteSession(ctx, job.SessionID)
	}

	metrics.RecordIngestJob(models.SessionStatusFailed)
	s.logger.WithSessionID(job.SessionID).LogJobEvent(job.ID, "failed", models.SessionStatusFailed, map[string]interface{}{
		"error": cause.Error(),
	})

	session := &models.Session{
		ID:       job.SessionID,
		Filename: job.Filename,
		Status:   models.SessionStatusFailed,
		ErrorMsg: cause.Error(),
	}
	s.notify(ctx, session)
	return nil
}

func (s *Service) notify(ctx context.Context, session *models.Session) {
	if s.notifier == nil {
		return
	}

	var err error
	if session.Status == models.SessionStatusParsed {
		err = s.notifier.NotifySessionParsed(ctx, session)
	} else {
		err = s.notifier.NotifySessionFailed(ctx, session)
	}
	if err != nil {
		s.logger.WithSessionID(session.ID).ErrorWithErr("Failed to deliver session webhook", err)
	}
}

// Get returns a session record with its parsed document
func (s *Service) Get(ctx context.Context, id string) (*models.Session, error) {
	if s.cache != nil {
		cached, err := s.cache.GetSession(ctx, id)
		if err == nil && cached != nil && cached.Document.Session != nil {
			return cached, nil
		}
	}

	session, err := s.repo.GetSession(ctx, id)
	if err != nil {
		return nil, err
	}

	if s.cache != nil && session.Status == models.SessionStatusParsed {
		if err := s.cache.SetSession(ctx, session, s.cfg.SessionTTL); err != nil {
			s.logger.WithSessionID(id).WithError(err).Warn("Failed to cache session")
		}
	}
	return session, nil
}

// List returns session summaries, newest first
func (s *Service) List(ctx context.Context, limit, offset int) ([]*models.Session, error) {
	return s.repo.ListSessions(ctx, limit, offset)
}

// Delete removes a session record, its stored export and cached copy
func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.repo.DeleteSession(ctx, id); err != nil {
		return err
	}

	err := s.store.DeleteSession(ctx, id)
	metrics.RecordStorageOperation("delete", err)
	if err != nil {
		s.logger.WithSessionID(id).ErrorWithErr("Failed to delete stored export", err)
	}

	if s.cache != nil {
		if err := s.cache.DeleteSession(ctx, id); err != nil {
			s.logger.WithSessionID(id).WithError(err).Warn("Failed to evict cached session")
		}
	}
	return nil
}
