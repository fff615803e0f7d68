package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/therealutkarshpriyadarshi/edlkit/pkg/edl"
)

func TestRecordHTTPRequest(t *testing.T) {
	HTTPRequestsTotal.Reset()
	HTTPRequestDuration.Reset()

	RecordHTTPRequest("POST", "/api/v1/parse", "200", 0.123)

	assert.Equal(t, 1.0, testutil.ToFloat64(HTTPRequestsTotal.WithLabelValues("POST", "/api/v1/parse", "200")))
}

func TestRecordParse(t *testing.T) {
	ParsesTotal.Reset()
	RecordsParsed.Reset()
	ParseWarningsTotal.Reset()

	session := &edl.Session{
		Markers:  []edl.Marker{{Number: 1}, {Number: 2}},
		Tracks:   []edl.Track{{Name: "DIA"}},
		Warnings: []edl.Warning{{Section: edl.SectionPlugins, Line: 4}},
	}

	RecordParse(session, 0.01, nil)
	RecordParse(nil, 0.01, errors.New("broken"))

	assert.Equal(t, 1.0, testutil.ToFloat64(ParsesTotal.WithLabelValues("warnings")))
	assert.Equal(t, 1.0, testutil.ToFloat64(ParsesTotal.WithLabelValues("failed")))
	assert.Equal(t, 2.0, testutil.ToFloat64(RecordsParsed.WithLabelValues("markers")))
	assert.Equal(t, 1.0, testutil.ToFloat64(RecordsParsed.WithLabelValues("tracks")))
	assert.Equal(t, 1.0, testutil.ToFloat64(ParseWarningsTotal.WithLabelValues("plugins")))
}

func TestRecordCacheLookup(t *testing.T) {
	CacheLookupsTotal.Reset()

	RecordCacheLookup(true)
	RecordCacheLookup(false)
	RecordCacheLookup(true)

	assert.Equal(t, 2.0, testutil.ToFloat64(CacheLookupsTotal.WithLabelValues("hit")))
	assert.Equal(t, 1.0, testutil.ToFloat64(CacheLookupsTotal.WithLabelValues("miss")))
}

func TestUpdateIngestMetrics(t *testing.T) {
	UpdateIngestMetrics(3, 7)

	assert.Equal(t, 3.0, testutil.ToFloat64(IngestJobsInProgress))
	assert.Equal(t, 7.0, testutil.ToFloat64(IngestQueueDepth))
}

func TestRecordStorageAndWebhook(t *testing.T) {
	StorageOperationsTotal.Reset()
	WebhookDeliveriesTotal.Reset()

	RecordStorageOperation("upload", nil)
	RecordStorageOperation("download", errors.New("timeout"))
	RecordWebhookDelivery("session.parsed", true)
	RecordWebhookDelivery("session.failed", false)

	assert.Equal(t, 1.0, testutil.ToFloat64(StorageOperationsTotal.WithLabelValues("upload", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(StorageOperationsTotal.WithLabelValues("download", "error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(WebhookDeliveriesTotal.WithLabelValues("session.parsed", "delivered")))
	assert.Equal(t, 1.0, testutil.ToFloat64(WebhookDeliveriesTotal.WithLabelValues("session.failed", "failed")))
}

func TestServerHandlers(t *testing.T) {
	s := NewServer(0)

	rec := httptest.NewRecorder()
	s.server.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	RecordUpload(2048)
	rec = httptest.NewRecorder()
	s.server.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "edlkit_export_uploads_total")
}
