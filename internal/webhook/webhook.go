package webhook

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/therealutkarshpriyadarshi/edlkit/internal/config"
	"github.com/therealutkarshpriyadarshi/edlkit/internal/logging"
	"github.com/therealutkarshpriyadarshi/edlkit/internal/metrics"
	"github.com/therealutkarshpriyadarshi/edlkit/pkg/models"
)

const (
	SignatureHeader = "X-Edlkit-Signature"
	EventHeader     = "X-Edlkit-Event"
	DeliveryHeader  = "X-Edlkit-Delivery"
)

// Service delivers signed session events to the configured endpoints
type Service struct {
	client     *http.Client
	urls       []string
	secret     string
	maxRetries int
	backoff    func(attempt int) time.Duration
	logger     *logging.Logger
}

// NewService creates a new webhook service
func NewService(cfg config.WebhookConfig, logger *logging.Logger) *Service {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if logger == nil {
		logger = logging.Nop()
	}

	return &Service{
		client: &http.Client{
			Timeout: timeout,
		},
		urls:       cfg.URLs,
		secret:     cfg.Secret,
		maxRetries: cfg.MaxRetries,
		backoff:    retryDelay,
		logger:     logger,
	}
}

// Enabled reports whether any endpoint is configured
func (s *Service) Enabled() bool {
	return len(s.urls) > 0
}

// NotifySessionParsed sends a session.parsed event
func (s *Service) NotifySessionParsed(ctx context.Context, session *models.Session) error {
	return s.Notify(ctx, models.WebhookEventSessionParsed, eventData(session))
}

// NotifySessionFailed sends a session.failed event
func (s *Service) NotifySessionFailed(ctx context.Context, session *models.Session) error {
	return s.Notify(ctx, models.WebhookEventSessionFailed, eventData(session))
}

func eventData(session *models.Session) models.SessionEventData {
	return models.SessionEventData{
		SessionID:   session.ID,
		Filename:    session.Filename,
		Status:      session.Status,
		SessionName: session.SessionName,
		TrackCount:  session.TrackCount,
		MarkerCount: session.MarkerCount,
		Warnings:    session.Warnings,
		Error:       session.ErrorMsg,
	}
}

// Notify sends an event to every endpoint, retrying failed deliveries with
// backoff. The returned error joins the failures of all endpoints.
func (s *Service) Notify(ctx context.Context, event string, data interface{}) error {
	if !s.Enabled() {
		return nil
	}

	payload := models.WebhookEvent{
		Event:     event,
		Timestamp: time.Now().UTC(),
		Data:      data,
	}

	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	deliveryID := uuid.New().String()

	var errs []error
	for _, url := range s.urls {
		err := s.deliverWithRetry(ctx, url, event, deliveryID, payloadBytes)
		metrics.RecordWebhookDelivery(event, err == nil)
		if err != nil {
			s.logger.WithField("url", url).WithField("event", event).ErrorWithErr("Webhook delivery failed", err)
			errs = append(errs, fmt.Errorf("%s: %w", url, err))
		}
	}

	return errors.Join(errs...)
}

func (s *Service) deliverWithRetry(ctx context.Context, url, event, deliveryID string, payload []byte) error {
	var err error
	for attempt := 0; attempt <= s.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(s.backoff(attempt)):
			}
		}

		err = s.deliver(ctx, url, event, deliveryID, payload)
		if err == nil {
			return nil
		}

		var permanent *permanentError
		if errors.As(err, &permanent) {
			return err
		}
	}
	return err
}

type permanentError struct {
	statusCode int
	body       string
}

func (e *permanentError) Error() string {
	return fmt.Sprintf("endpoint rejected delivery with status %d: %s", e.statusCode, e.body)
}

// deliver attempts one delivery
func (s *Service) deliver(ctx context.Context, url, event, deliveryID string, payload []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return &permanentError{body: fmt.Sprintf("failed to create request: %v", err)}
	}

	// Set headers
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "edlkit-webhook/1.0")
	req.Header.Set(EventHeader, event)
	req.Header.Set(DeliveryHeader, deliveryID)

	// Add HMAC signature if secret is configured
	if s.secret != "" {
		req.Header.Set(SignatureHeader, Sign(payload, s.secret))
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return nil
	case resp.StatusCode >= 400 && resp.StatusCode < 500 && resp.StatusCode != http.StatusTooManyRequests:
		return &permanentError{statusCode: resp.StatusCode, body: string(body)}
	default:
		return fmt.Errorf("endpoint returned status %d", resp.StatusCode)
	}
}

// Sign generates the HMAC-SHA256 signature of a webhook payload
func Sign(payload []byte, secret string) string {
	h := hmac.New(sha256.New, []byte(secret))
	h.Write(payload)
	return "sha256=" + hex.EncodeToString(h.Sum(nil))
}

// Verify checks a signature produced by Sign
func Verify(payload []byte, secret, signature string) bool {
	return hmac.Equal([]byte(Sign(payload, secret)), []byte(signature))
}

// retryDelay is the wait before the given attempt: 1s, 2s, 4s, capped at 30s
func retryDelay(attempt int) time.Duration {
	delay := time.Second << (attempt - 1)
	if delay > 30*time.Second || delay <= 0 {
		delay = 30 * time.Second
	}
	return delay
}
