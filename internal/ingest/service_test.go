package ingest

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/therealutkarshpriyadarshi/edlkit/internal/cache"
	"github.com/therealutkarshpriyadarshi/edlkit/internal/loader"
	"github.com/therealutkarshpriyadarshi/edlkit/internal/metrics"
	"github.com/therealutkarshpriyadarshi/edlkit/pkg/edl"
	"github.com/therealutkarshpriyadarshi/edlkit/pkg/models"
)

const export = "SESSION NAME:\tReel 4\r\n" +
	"SAMPLE RATE:\t48000.000000\r\n" +
	"TIMECODE FORMAT:\t25 Frame\r\n" +
	"\r\n" +
	"M A R K E R S  L I S T I N G\r\n" +
	"#\tLOCATION\tTIME REFERENCE\tUNITS\tNAME\tCOMMENTS\r\n" +
	"1\t01:00:10:05\t480000\tSamples\tVerse\t\r\n"

const brokenExport = "SESSION NAME:\tBroken\r\n" +
	"\r\n" +
	"M A R K E R S  L I S T I N G\r\n" +
	"#\tLOCATION\tTIME REFERENCE\tUNITS\tNAME\tCOMMENTS\r\n" +
	"\r\n" +
	"M A R K E R S  L I S T I N G\r\n"

type mockStore struct{ mock.Mock }

func (m *mockStore) Upload(ctx context.Context, objectName string, reader io.Reader, size int64) error {
	data, _ := io.ReadAll(reader)
	return m.Called(objectName, string(data), size).Error(0)
}

func (m *mockStore) ReadAll(ctx context.Context, objectName string, limit int64) ([]byte, error) {
	args := m.Called(objectName)
	data, _ := args.Get(0).([]byte)
	return data, args.Error(1)
}

func (m *mockStore) DeleteSession(ctx context.Context, sessionID string) error {
	return m.Called(sessionID).Error(0)
}

type mockRepo struct{ mock.Mock }

func (m *mockRepo) CreateSession(ctx context.Context, session *models.Session) error {
	return m.Called(session).Error(0)
}

func (m *mockRepo) GetSession(ctx context.Context, id string) (*models.Session, error) {
	args := m.Called(id)
	session, _ := args.Get(0).(*models.Session)
	return session, args.Error(1)
}

func (m *mockRepo) ListSessions(ctx context.Context, limit, offset int) ([]*models.Session, error) {
	args := m.Called(limit, offset)
	sessions, _ := args.Get(0).([]*models.Session)
	return sessions, args.Error(1)
}

func (m *mockRepo) UpdateSessionStatus(ctx context.Context, id, status string) error {
	return m.Called(id, status).Error(0)
}

func (m *mockRepo) SaveParse(ctx context.Context, id string, parsed *edl.Session) (*models.Session, error) {
	args := m.Called(id, parsed)
	session, _ := args.Get(0).(*models.Session)
	return session, args.Error(1)
}

func (m *mockRepo) MarkFailed(ctx context.Context, id, errorMsg string) error {
	return m.Called(id, errorMsg).Error(0)
}

func (m *mockRepo) DeleteSession(ctx context.Context, id string) error {
	return m.Called(id).Error(0)
}

type mockPublisher struct{ mock.Mock }

func (m *mockPublisher) PublishIngestJob(ctx context.Context, job *models.IngestJob) error {
	return m.Called(job).Error(0)
}

type mockNotifier struct{ mock.Mock }

func (m *mockNotifier) NotifySessionParsed(ctx context.Context, session *models.Session) error {
	return m.Called(session).Error(0)
}

func (m *mockNotifier) NotifySessionFailed(ctx context.Context, session *models.Session) error {
	return m.Called(session).Error(0)
}

type fixture struct {
	svc       *Service
	store     *mockStore
	repo      *mockRepo
	publisher *mockPublisher
	notifier  *mockNotifier
	cache     *cache.Cache
	redis     *miniredis.Miniredis
}

func newFixture(t *testing.T) *fixture {
	mr := miniredis.RunT(t)
	c, err := cache.NewCache(mr.Host(), mr.Server().Addr().Port, "", 0)
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })

	f := &fixture{
		store:     &mockStore{},
		repo:      &mockRepo{},
		publisher: &mockPublisher{},
		notifier:  &mockNotifier{},
		cache:     c,
		redis:     mr,
	}
	f.svc = NewService(Config{
		Options:         edl.DefaultOptions(),
		DefaultEncoding: "auto",
		MaxSize:         1 << 16,
		SessionTTL:      time.Minute,
		LockTTL:         time.Minute,
	}, f.store, f.repo, c, f.publisher, f.notifier, nil)

	t.Cleanup(func() {
		f.store.AssertExpectations(t)
		f.repo.AssertExpectations(t)
		f.publisher.AssertExpectations(t)
		f.notifier.AssertExpectations(t)
	})
	return f
}

func TestSubmit(t *testing.T) {
	f := newFixture(t)

	f.store.On("Upload", mock.MatchedBy(func(key string) bool {
		return strings.HasSuffix(key, "/Reel 4.txt")
	}), export, int64(len(export))).Return(nil)
	f.repo.On("CreateSession", mock.MatchedBy(func(s *models.Session) bool {
		return s.Status == models.SessionStatusQueued && s.Encoding == "auto" && len(s.ContentHash) == 64
	})).Return(nil)
	f.publisher.On("PublishIngestJob", mock.MatchedBy(func(job *models.IngestJob) bool {
		return job.Options == edl.Options{
			OnUnknownSection:    edl.UnknownSectionWarn,
			OnSectionParseError: edl.DefaultOptions().OnSectionParseError,
		}
	})).Return(nil)

	session, err := f.svc.Submit(context.Background(), "Reel 4.txt", []byte(export), "", edl.Options{
		OnUnknownSection: edl.UnknownSectionWarn,
	})
	require.NoError(t, err)
	assert.Equal(t, models.SessionStatusQueued, session.Status)
	assert.Equal(t, "edl/"+session.ID+"/Reel 4.txt", session.ObjectKey)
}

func TestSubmitRejectsBadInput(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Submit(ctx, "big.txt", make([]byte, 1<<17), "", edl.Options{})
	assert.ErrorIs(t, err, ErrTooLarge)

	_, err = f.svc.Submit(ctx, "x.txt", []byte(export), "", edl.Options{OnUnknownSection: "shrug"})
	assert.ErrorIs(t, err, edl.ErrInvalidOptions)

	_, err = f.svc.Submit(ctx, "x.txt", []byte(export), "ebcdic", edl.Options{})
	assert.Error(t, err)
}

func TestSubmitPublishFailure(t *testing.T) {
	f := newFixture(t)

	f.store.On("Upload", mock.Anything, export, int64(len(export))).Return(nil)
	f.repo.On("CreateSession", mock.Anything).Return(nil)
	f.publisher.On("PublishIngestJob", mock.Anything).Return(errors.New("broker down"))
	f.repo.On("MarkFailed", mock.Anything, "failed to queue export").Return(nil)

	_, err := f.svc.Submit(context.Background(), "Reel 4.txt", []byte(export), "", edl.Options{})
	assert.Error(t, err)
}

func TestProcess(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	job := &models.IngestJob{ID: "job-1", SessionID: "sess-1", ObjectKey: "edl/sess-1/Reel 4.txt", Filename: "Reel 4.txt"}

	f.repo.On("UpdateSessionStatus", "sess-1", models.SessionStatusProcessing).Return(nil)
	f.store.On("ReadAll", job.ObjectKey).Return([]byte(export), nil)
	f.repo.On("SaveParse", "sess-1", mock.MatchedBy(func(parsed *edl.Session) bool {
		return parsed.Header.SessionName == "Reel 4" && len(parsed.Markers) == 1
	})).Return(func() *models.Session {
		s := &models.Session{ID: "sess-1", Filename: "Reel 4.txt"}
		parsed, _ := edl.Parse(export)
		s.ApplyParse(parsed, time.Now())
		return s
	}(), nil)
	f.notifier.On("NotifySessionParsed", mock.MatchedBy(func(s *models.Session) bool {
		return s.ID == "sess-1" && s.MarkerCount == 1
	})).Return(nil)

	before := testutil.ToFloat64(metrics.IngestJobsTotal.WithLabelValues(models.SessionStatusParsed))

	require.NoError(t, f.svc.Process(ctx, job))
	assert.Equal(t, before+1, testutil.ToFloat64(metrics.IngestJobsTotal.WithLabelValues(models.SessionStatusParsed)))
	assert.Equal(t, 0, f.svc.InFlight())

	cached, err := f.cache.GetSession(ctx, "sess-1")
	require.NoError(t, err)
	require.NotNil(t, cached)
	require.NotNil(t, cached.Document.Session)
	assert.Equal(t, "Reel 4", cached.Document.Session.Header.SessionName)

	// the lock is released after the job
	ok, err := f.cache.AcquireLock(ctx, "ingest:"+loader.ContentHash([]byte(export)), time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestProcessParseFailure(t *testing.T) {
	f := newFixture(t)
	job := &models.IngestJob{ID: "job-2", SessionID: "sess-2", ObjectKey: "edl/sess-2/x.txt", Filename: "x.txt"}

	f.repo.On("UpdateSessionStatus", "sess-2", models.SessionStatusProcessing).Return(nil)
	f.store.On("ReadAll", job.ObjectKey).Return([]byte(brokenExport), nil)
	f.repo.On("MarkFailed", "sess-2", mock.MatchedBy(func(msg string) bool {
		return msg != ""
	})).Return(nil)
	f.notifier.On("NotifySessionFailed", mock.MatchedBy(func(s *models.Session) bool {
		return s.ID == "sess-2" && s.Status == models.SessionStatusFailed && s.ErrorMsg != ""
	})).Return(nil)

	assert.NoError(t, f.svc.Process(context.Background(), job))
}

func TestProcessTransientFailure(t *testing.T) {
	f := newFixture(t)
	job := &models.IngestJob{ID: "job-3", SessionID: "sess-3", ObjectKey: "edl/sess-3/x.txt"}

	f.repo.On("UpdateSessionStatus", "sess-3", models.SessionStatusProcessing).Return(nil)
	f.store.On("ReadAll", job.ObjectKey).Return(nil, errors.New("connection reset"))

	assert.Error(t, f.svc.Process(context.Background(), job))
}

func TestProcessBusy(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	job := &models.IngestJob{ID: "job-4", SessionID: "sess-4", ObjectKey: "edl/sess-4/x.txt"}

	f.repo.On("UpdateSessionStatus", "sess-4", models.SessionStatusProcessing).Return(nil)
	f.store.On("ReadAll", job.ObjectKey).Return([]byte(export), nil)

	hash := "ingest:" + loader.ContentHash([]byte(export))
	ok, err := f.cache.AcquireLock(ctx, hash, time.Minute)
	require.NoError(t, err)
	require.True(t, ok)

	assert.ErrorIs(t, f.svc.Process(ctx, job), ErrBusy)
}

func TestParseUsesCache(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	hits := metrics.CacheLookupsTotal.WithLabelValues("hit")
	before := testutil.ToFloat64(hits)

	first, exp, err := f.svc.Parse(ctx, []byte(export), "", edl.Options{})
	require.NoError(t, err)
	assert.Equal(t, "utf-8", exp.Encoding)
	assert.Equal(t, before, testutil.ToFloat64(hits))

	second, _, err := f.svc.Parse(ctx, []byte(export), "", edl.Options{})
	require.NoError(t, err)
	assert.Equal(t, before+1, testutil.ToFloat64(hits))
	assert.Equal(t, first.Header.SessionName, second.Header.SessionName)
}

func TestParseReturnsSectionError(t *testing.T) {
	f := newFixture(t)

	_, _, err := f.svc.Parse(context.Background(), []byte(brokenExport), "", edl.Options{})
	assert.ErrorIs(t, err, edl.ErrDuplicateSection)
}

func TestGetCachesParsedSessions(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	parsed, err := edl.Parse(export)
	require.NoError(t, err)
	record := &models.Session{ID: "sess-5"}
	record.ApplyParse(parsed, time.Now())

	f.repo.On("GetSession", "sess-5").Return(record, nil).Once()

	got, err := f.svc.Get(ctx, "sess-5")
	require.NoError(t, err)
	assert.Equal(t, "Reel 4", got.SessionName)

	// served from the cache without another repository call
	got, err = f.svc.Get(ctx, "sess-5")
	require.NoError(t, err)
	require.NotNil(t, got.Document.Session)
	assert.Len(t, got.Document.Session.Markers, 1)
}

func TestDelete(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	require.NoError(t, f.cache.SetSession(ctx, &models.Session{ID: "sess-6"}, time.Minute))
	f.repo.On("DeleteSession", "sess-6").Return(nil)
	f.store.On("DeleteSession", "sess-6").Return(nil)

	require.NoError(t, f.svc.Delete(ctx, "sess-6"))

	cached, err := f.cache.GetSession(ctx, "sess-6")
	require.NoError(t, err)
	assert.Nil(t, cached)
}

func TestDeleteMissing(t *testing.T) {
	f := newFixture(t)
	notFound := errors.New("session not found")
	f.repo.On("DeleteSession", "nope").Return(notFound)

	assert.ErrorIs(t, f.svc.Delete(context.Background(), "nope"), notFound)
}
