package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/therealutkarshpriyadarshi/edlkit/internal/database"
	"github.com/therealutkarshpriyadarshi/edlkit/internal/ingest"
	"github.com/therealutkarshpriyadarshi/edlkit/internal/loader"
	"github.com/therealutkarshpriyadarshi/edlkit/internal/logging"
	"github.com/therealutkarshpriyadarshi/edlkit/internal/middleware"
	"github.com/therealutkarshpriyadarshi/edlkit/internal/monitoring"
	"github.com/therealutkarshpriyadarshi/edlkit/pkg/edl"
	"github.com/therealutkarshpriyadarshi/edlkit/pkg/models"
	"github.com/therealutkarshpriyadarshi/edlkit/pkg/timecode"
)

// SessionService is the ingest pipeline as seen by the HTTP layer
type SessionService interface {
	Submit(ctx context.Context, filename string, data []byte, encoding string, opts edl.Options) (*models.Session, error)
	Parse(ctx context.Context, data []byte, encoding string, opts edl.Options) (*edl.Session, *loader.Export, error)
	Get(ctx context.Context, id string) (*models.Session, error)
	List(ctx context.Context, limit, offset int) ([]*models.Session, error)
	Delete(ctx context.Context, id string) error
}

// HealthChecker reports whether a backing service is reachable
type HealthChecker interface {
	Health(ctx context.Context) error
}

// StatusReporter exposes the monitor snapshot
type StatusReporter interface {
	GetMetrics() *monitoring.Metrics
	GetSystemHealth() string
	GetAlerts() []string
}

// API serves the session endpoints
type API struct {
	sessions  SessionService
	health    HealthChecker
	status    StatusReporter
	maxUpload int64
	logger    *logging.Logger
}

// Health check endpoint
func (api *API) healthCheck(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	if api.health != nil {
		if err := api.health.Health(ctx); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status": "unhealthy",
				"error":  err.Error(),
			})
			return
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "healthy",
	})
}

// System status endpoint
func (api *API) systemStatus(c *gin.Context) {
	if api.status == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Monitoring is not enabled"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"health":  api.status.GetSystemHealth(),
		"alerts":  api.status.GetAlerts(),
		"metrics": api.status.GetMetrics(),
	})
}

// formValue reads a multipart field, falling back to the query string
func formValue(c *gin.Context, key string) string {
	if v := c.PostForm(key); v != "" {
		return v
	}
	return c.Query(key)
}

func parserOptions(value func(string) string) edl.Options {
	return edl.Options{
		OnUnknownSection:    edl.UnknownSectionPolicy(value("on_unknown_section")),
		OnSectionParseError: edl.SectionErrorPolicy(value("on_section_parse_error")),
	}
}

// Upload export endpoint
func (api *API) uploadSession(c *gin.Context) {
	file, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No export file provided"})
		return
	}

	if file.Size > api.maxUpload {
		api.writeError(c, ingest.ErrTooLarge)
		return
	}

	f, err := file.Open()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to read upload"})
		return
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, api.maxUpload+1))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to read upload"})
		return
	}

	session, err := api.sessions.Submit(
		c.Request.Context(),
		file.Filename,
		data,
		formValue(c, "encoding"),
		parserOptions(func(key string) string { return formValue(c, key) }),
	)
	if err != nil {
		api.writeError(c, err)
		return
	}

	c.JSON(http.StatusAccepted, session)
}

// Synchronous parse endpoint. The export is the multipart "file" field or
// the raw request body.
func (api *API) parseExport(c *gin.Context) {
	data, err := api.readExport(c)
	if err != nil {
		api.writeError(c, err)
		return
	}

	parsed, export, err := api.sessions.Parse(
		c.Request.Context(),
		data,
		c.Query("encoding"),
		parserOptions(c.Query),
	)
	if err != nil {
		api.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"encoding":     export.Encoding,
		"content_hash": export.ContentHash,
		"session":      parsed,
	})
}

func (api *API) readExport(c *gin.Context) ([]byte, error) {
	var r io.Reader = c.Request.Body
	if strings.HasPrefix(c.ContentType(), "multipart/") {
		file, err := c.FormFile("file")
		if err != nil {
			return nil, errBadRequest("No export file provided")
		}
		f, err := file.Open()
		if err != nil {
			return nil, err
		}
		defer f.Close()
		r = f
	}

	data, err := io.ReadAll(io.LimitReader(r, api.maxUpload+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read export: %w", err)
	}
	if int64(len(data)) > api.maxUpload {
		return nil, ingest.ErrTooLarge
	}
	if len(data) == 0 {
		return nil, errBadRequest("Empty export")
	}
	return data, nil
}

// List sessions endpoint
func (api *API) listSessions(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	sessions, err := api.sessions.List(c.Request.Context(), limit, offset)
	if err != nil {
		api.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"sessions": sessions,
		"limit":    limit,
		"offset":   offset,
	})
}

// Get session endpoint
func (api *API) getSession(c *gin.Context) {
	session, err := api.sessions.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		api.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"session":  session,
		"document": session.Document.Session,
	})
}

// parsedDocument loads a session and requires it to have been parsed
func (api *API) parsedDocument(c *gin.Context) (*edl.Session, bool) {
	session, err := api.sessions.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		api.writeError(c, err)
		return nil, false
	}

	if session.Document.Session == nil {
		c.JSON(http.StatusConflict, gin.H{
			"error":  "Session has not been parsed",
			"status": session.Status,
		})
		return nil, false
	}
	return session.Document.Session, true
}

// Get session tracks endpoint. ?name= selects a single track.
func (api *API) getSessionTracks(c *gin.Context) {
	doc, ok := api.parsedDocument(c)
	if !ok {
		return
	}

	if name := c.Query("name"); name != "" {
		track, found := doc.Track(name)
		if !found {
			c.JSON(http.StatusNotFound, gin.H{"error": fmt.Sprintf("Track %q not found", name)})
			return
		}
		c.JSON(http.StatusOK, track)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"tracks":      doc.Tracks,
		"names":       doc.TrackNames(),
		"event_count": doc.EventCount(),
	})
}

// Get session markers endpoint
func (api *API) getSessionMarkers(c *gin.Context) {
	doc, ok := api.parsedDocument(c)
	if !ok {
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"markers": doc.Markers,
	})
}

// Delete session endpoint
func (api *API) deleteSession(c *gin.Context) {
	if err := api.sessions.Delete(c.Request.Context(), c.Param("id")); err != nil {
		api.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Session deleted"})
}

// ConvertRequest converts between a timecode label and a frame count. Exactly
// one of Timecode and Ticks is set.
type ConvertRequest struct {
	Rate      string `json:"rate" binding:"required"`
	DropFrame bool   `json:"drop_frame"`
	Timecode  string `json:"timecode"`
	Ticks     *int64 `json:"ticks"`
}

// ConvertResponse describes a timecode in every representation
type ConvertResponse struct {
	Timecode  string  `json:"timecode"`
	Ticks     int64   `json:"ticks"`
	Seconds   float64 `json:"seconds"`
	Rate      string  `json:"rate"`
	DropFrame bool    `json:"drop_frame"`
}

// Timecode conversion endpoint
func (api *API) convertTimecode(c *gin.Context) {
	var req ConvertRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if (req.Timecode == "") == (req.Ticks == nil) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Exactly one of timecode and ticks is required"})
		return
	}

	rate, err := timecode.ParseRate(req.Rate)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var tc timecode.Timecode
	if req.Ticks != nil {
		tc, err = timecode.FromTicks(*req.Ticks, rate, req.DropFrame)
	} else {
		tc, err = timecode.Parse(req.Timecode, rate, req.DropFrame)
	}
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, ConvertResponse{
		Timecode:  tc.String(),
		Ticks:     tc.Ticks(),
		Seconds:   tc.Seconds(),
		Rate:      tc.Rate().String(),
		DropFrame: tc.DropFrame(),
	})
}

type errBadRequest string

func (e errBadRequest) Error() string { return string(e) }

// writeError maps service errors to HTTP responses
func (api *API) writeError(c *gin.Context, err error) {
	var sectionErr *edl.SectionParseError
	var badRequest errBadRequest

	switch {
	case errors.As(err, &sectionErr):
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"error":   err.Error(),
			"section": sectionErr.Section,
			"line":    sectionErr.Line,
		})
	case errors.Is(err, edl.ErrDuplicateSection),
		errors.Is(err, edl.ErrUnknownSection),
		errors.Is(err, loader.ErrInvalidText):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	case errors.As(err, &badRequest),
		errors.Is(err, edl.ErrInvalidOptions),
		errors.Is(err, loader.ErrUnknownEncoding):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, ingest.ErrTooLarge):
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": err.Error()})
	case errors.Is(err, database.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Session not found"})
	default:
		api.logger.WithRequestID(c.GetString(middleware.RequestIDContextKey)).ErrorWithErr("Request failed", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}
