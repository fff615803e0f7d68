package monitoring

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/therealutkarshpriyadarshi/edlkit/internal/logging"
	"github.com/therealutkarshpriyadarshi/edlkit/internal/metrics"
	"github.com/therealutkarshpriyadarshi/edlkit/pkg/models"
)

// Health levels reported by GetSystemHealth
const (
	HealthHealthy  = "healthy"
	HealthWarning  = "warning"
	HealthCritical = "critical"
)

// Thresholds for alerts
const (
	dlqCriticalDepth   = 100
	queueWarningDepth  = 1000
	failureRateWarning = 0.1
)

// Metrics holds system metrics
type Metrics struct {
	QueueDepth       int            `json:"queue_depth"`
	DLQDepth         int            `json:"dlq_depth"`
	InFlight         int            `json:"in_flight"`
	SessionsByStatus map[string]int `json:"sessions_by_status"`
	TotalSessions    int            `json:"total_sessions"`
	ParsedSessions   int            `json:"parsed_sessions"`
	FailedSessions   int            `json:"failed_sessions"`
	LastUpdated      time.Time      `json:"last_updated"`
}

// SessionCounter counts stored sessions by status
type SessionCounter interface {
	CountSessions(ctx context.Context) (map[string]int, error)
}

// QueueProvider defines the interface for queue metrics
type QueueProvider interface {
	GetQueueDepth() (int, error)
	GetDLQDepth() (int, error)
}

// Monitor periodically samples queue and session state into the Prometheus
// gauges and keeps the latest snapshot for status endpoints
type Monitor struct {
	metrics       *Metrics
	mu            sync.RWMutex
	repo          SessionCounter
	queueProvider QueueProvider
	inFlight      func() int
	interval      time.Duration
	logger        *logging.Logger
}

// NewMonitor creates a new monitoring service. inFlight may be nil.
func NewMonitor(repo SessionCounter, queueProvider QueueProvider, inFlight func() int, logger *logging.Logger) *Monitor {
	if inFlight == nil {
		inFlight = func() int { return 0 }
	}
	if logger == nil {
		logger = logging.Nop()
	}
	return &Monitor{
		metrics: &Metrics{
			SessionsByStatus: map[string]int{},
			LastUpdated:      time.Now(),
		},
		repo:          repo,
		queueProvider: queueProvider,
		inFlight:      inFlight,
		interval:      10 * time.Second,
		logger:        logger,
	}
}

// Start begins the monitoring service
func (m *Monitor) Start(ctx context.Context) {
	go m.collectMetrics(ctx)
}

// collectMetrics periodically collects system metrics
func (m *Monitor) collectMetrics(ctx context.Context) {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := m.Update(ctx); err != nil {
				m.logger.ErrorWithErr("Failed to update metrics", err)
			}
		}
	}
}

// Update samples the current state once
func (m *Monitor) Update(ctx context.Context) error {
	queueDepth, err := m.queueProvider.GetQueueDepth()
	if err != nil {
		return fmt.Errorf("failed to get queue depth: %w", err)
	}

	dlqDepth, err := m.queueProvider.GetDLQDepth()
	if err != nil {
		return fmt.Errorf("failed to get DLQ depth: %w", err)
	}

	counts, err := m.repo.CountSessions(ctx)
	if err != nil {
		return fmt.Errorf("failed to count sessions: %w", err)
	}

	inFlight := m.inFlight()
	metrics.UpdateIngestMetrics(inFlight, queueDepth)

	total := 0
	for _, n := range counts {
		total += n
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.metrics = &Metrics{
		QueueDepth:       queueDepth,
		DLQDepth:         dlqDepth,
		InFlight:         inFlight,
		SessionsByStatus: counts,
		TotalSessions:    total,
		ParsedSessions:   counts[models.SessionStatusParsed],
		FailedSessions:   counts[models.SessionStatusFailed],
		LastUpdated:      time.Now(),
	}
	return nil
}

// GetMetrics returns current system metrics
func (m *Monitor) GetMetrics() *Metrics {
	m.mu.RLock()
	defer m.mu.RUnlock()

	// Create a copy to avoid race conditions
	snapshot := *m.metrics
	snapshot.SessionsByStatus = make(map[string]int, len(m.metrics.SessionsByStatus))
	for k, v := range m.metrics.SessionsByStatus {
		snapshot.SessionsByStatus[k] = v
	}
	return &snapshot
}

func (m *Monitor) failureRate() float64 {
	finished := m.metrics.ParsedSessions + m.metrics.FailedSessions
	if finished == 0 {
		return 0
	}
	return float64(m.metrics.FailedSessions) / float64(finished)
}

// GetSystemHealth returns overall system health
func (m *Monitor) GetSystemHealth() string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	switch {
	case m.metrics.DLQDepth > dlqCriticalDepth:
		return HealthCritical
	case m.metrics.QueueDepth > queueWarningDepth:
		return HealthWarning
	case m.failureRate() > failureRateWarning:
		return HealthWarning
	}
	return HealthHealthy
}

// GetAlerts returns current system alerts
func (m *Monitor) GetAlerts() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	alerts := []string{}

	if m.metrics.DLQDepth > dlqCriticalDepth {
		alerts = append(alerts, fmt.Sprintf("High DLQ depth: %d messages", m.metrics.DLQDepth))
	}

	if m.metrics.QueueDepth > queueWarningDepth {
		alerts = append(alerts, fmt.Sprintf("High queue depth: %d exports pending", m.metrics.QueueDepth))
	}

	if rate := m.failureRate(); rate > failureRateWarning {
		alerts = append(alerts, fmt.Sprintf("High parse failure rate: %.1f%%", rate*100))
	}

	return alerts
}
