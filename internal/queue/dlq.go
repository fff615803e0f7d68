package queue

import (
	"context"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/therealutkarshpriyadarshi/edlkit/internal/metrics"
	"github.com/therealutkarshpriyadarshi/edlkit/pkg/models"
)

const (
	DeadLetterQueueName    = "edl_ingest_dlq"
	DeadLetterExchangeName = "edlkit_dlq"
	RetryQueueName         = "edl_ingest_retry"
	MaxRetries             = 3
)

// SetupDeadLetterQueue sets up the dead letter queue infrastructure
func (q *Queue) SetupDeadLetterQueue() error {
	// Declare dead letter exchange
	err := q.channel.ExchangeDeclare(
		DeadLetterExchangeName,
		"direct",
		true,  // durable
		false, // auto-deleted
		false, // internal
		false, // no-wait
		nil,   // arguments
	)
	if err != nil {
		return fmt.Errorf("failed to declare DLQ exchange: %w", err)
	}

	// Declare dead letter queue
	_, err = q.channel.QueueDeclare(
		DeadLetterQueueName,
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,   // arguments
	)
	if err != nil {
		return fmt.Errorf("failed to declare DLQ: %w", err)
	}

	// Bind DLQ to exchange
	err = q.channel.QueueBind(
		DeadLetterQueueName,
		DeadLetterQueueName,
		DeadLetterExchangeName,
		false,
		nil,
	)
	if err != nil {
		return fmt.Errorf("failed to bind DLQ: %w", err)
	}

	// Expired retry messages flow back into the ingest queue
	retryArgs := amqp.Table{
		"x-dead-letter-exchange":    ExchangeName,
		"x-dead-letter-routing-key": IngestQueueName,
	}

	_, err = q.channel.QueueDeclare(
		RetryQueueName,
		true,
		false,
		false,
		false,
		retryArgs,
	)
	if err != nil {
		return fmt.Errorf("failed to declare retry queue: %w", err)
	}

	q.logger.Debug("Dead letter queue infrastructure set up")
	return nil
}

// PublishToRetryQueue schedules another attempt at a failed job
func (q *Queue) PublishToRetryQueue(ctx context.Context, job *models.IngestJob) error {
	if job.RetryCount >= q.maxRetries {
		return q.PublishToDeadLetterQueue(ctx, job, "max retries exceeded")
	}

	retry := *job
	retry.RetryCount++

	msg, err := jobPublishing(&retry)
	if err != nil {
		return err
	}

	delay := calculateBackoffDelay(job.RetryCount)
	msg.Expiration = fmt.Sprintf("%d", delay.Milliseconds())

	err = q.channel.PublishWithContext(ctx,
		"",
		RetryQueueName,
		false,
		false,
		msg,
	)
	if err != nil {
		return fmt.Errorf("failed to publish to retry queue: %w", err)
	}

	q.logger.WithJobID(job.ID).
		WithField("retry", retry.RetryCount).
		WithField("delay", delay.String()).
		Info("Ingest job queued for retry")
	return nil
}

// PublishToDeadLetterQueue publishes a failed job to the dead letter queue
func (q *Queue) PublishToDeadLetterQueue(ctx context.Context, job *models.IngestJob, reason string) error {
	msg, err := jobPublishing(job)
	if err != nil {
		return err
	}
	msg.Headers["x-failure-reason"] = reason
	msg.Headers["x-failed-at"] = time.Now().Format(time.RFC3339)

	err = q.channel.PublishWithContext(ctx,
		DeadLetterExchangeName,
		DeadLetterQueueName,
		false,
		false,
		msg,
	)
	if err != nil {
		return fmt.Errorf("failed to publish to DLQ: %w", err)
	}

	metrics.RecordDeadLetter()
	q.logger.WithJobID(job.ID).WithField("reason", reason).Warn("Ingest job moved to dead letter queue")
	return nil
}

// ConsumeDLQ consumes messages from the dead letter queue for manual processing
func (q *Queue) ConsumeDLQ(ctx context.Context, handler func(*models.IngestJob, string) error) error {
	msgs, err := q.channel.Consume(
		DeadLetterQueueName,
		"",
		false,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		return fmt.Errorf("failed to register DLQ consumer: %w", err)
	}

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-msgs:
				if !ok {
					return
				}

				job, err := decodeJob(msg.Body)
				if err != nil {
					msg.Nack(false, false)
					continue
				}

				reason := ""
				if val, ok := msg.Headers["x-failure-reason"].(string); ok {
					reason = val
				}

				if err := handler(job, reason); err != nil {
					msg.Nack(false, true)
				} else {
					msg.Ack(false)
				}
			}
		}
	}()

	return nil
}

// RetryFromDLQ puts a dead-lettered job back on the ingest queue with its
// retries reset
func (q *Queue) RetryFromDLQ(ctx context.Context, job *models.IngestJob) error {
	retry := *job
	retry.RetryCount = 0
	return q.PublishIngestJob(ctx, &retry)
}

// calculateBackoffDelay calculates exponential backoff delay
func calculateBackoffDelay(retryCount int) time.Duration {
	// Exponential backoff: 10s, 20s, 40s, ...
	baseDelay := 10 * time.Second
	delay := baseDelay * (1 << retryCount) // 2^retryCount

	// Cap at 10 minutes
	if delay > 10*time.Minute || delay <= 0 {
		delay = 10 * time.Minute
	}

	return delay
}

// GetDLQDepth returns the number of messages in the dead letter queue
func (q *Queue) GetDLQDepth() (int, error) {
	info, err := q.channel.QueueInspect(DeadLetterQueueName)
	if err != nil {
		return 0, fmt.Errorf("failed to inspect DLQ: %w", err)
	}

	return info.Messages, nil
}
