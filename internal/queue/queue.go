package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/therealutkarshpriyadarshi/edlkit/internal/config"
	"github.com/therealutkarshpriyadarshi/edlkit/internal/logging"
	"github.com/therealutkarshpriyadarshi/edlkit/pkg/models"
)

const (
	IngestQueueName = "edl_ingest"
	ExchangeName    = "edlkit"
)

// Handler processes one ingest job
type Handler func(ctx context.Context, job *models.IngestJob) error

// Queue provides message queue operations
type Queue struct {
	conn       *amqp.Connection
	channel    *amqp.Channel
	maxRetries int
	logger     *logging.Logger
}

// New creates a new queue client and declares the ingest topology
func New(cfg config.QueueConfig, logger *logging.Logger) (*Queue, error) {
	url := fmt.Sprintf("amqp://%s:%s@%s:%d%s",
		cfg.User, cfg.Password, cfg.Host, cfg.Port, cfg.Vhost)

	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	if logger == nil {
		logger = logging.Nop()
	}
	maxRetries := cfg.MaxRetries
	if maxRetries <= 0 {
		maxRetries = MaxRetries
	}

	q := &Queue{
		conn:       conn,
		channel:    channel,
		maxRetries: maxRetries,
		logger:     logger,
	}

	if err := q.declare(); err != nil {
		q.Close()
		return nil, err
	}

	if err := q.SetupDeadLetterQueue(); err != nil {
		q.Close()
		return nil, err
	}

	return q, nil
}

func (q *Queue) declare() error {
	// Declare exchange
	err := q.channel.ExchangeDeclare(
		ExchangeName,
		"direct",
		true,  // durable
		false, // auto-deleted
		false, // internal
		false, // no-wait
		nil,   // arguments
	)
	if err != nil {
		return fmt.Errorf("failed to declare exchange: %w", err)
	}

	// Declare queue
	_, err = q.channel.QueueDeclare(
		IngestQueueName,
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,   // arguments
	)
	if err != nil {
		return fmt.Errorf("failed to declare queue: %w", err)
	}

	// Bind queue to exchange
	err = q.channel.QueueBind(
		IngestQueueName,
		IngestQueueName,
		ExchangeName,
		false,
		nil,
	)
	if err != nil {
		return fmt.Errorf("failed to bind queue: %w", err)
	}

	return nil
}

// Close closes the queue connection
func (q *Queue) Close() error {
	if q.channel != nil {
		q.channel.Close()
	}
	if q.conn != nil {
		return q.conn.Close()
	}
	return nil
}

// PublishIngestJob publishes an ingest job to the queue
func (q *Queue) PublishIngestJob(ctx context.Context, job *models.IngestJob) error {
	msg, err := jobPublishing(job)
	if err != nil {
		return err
	}

	err = q.channel.PublishWithContext(ctx,
		ExchangeName,
		IngestQueueName,
		false, // mandatory
		false, // immediate
		msg,
	)
	if err != nil {
		return fmt.Errorf("failed to publish job: %w", err)
	}

	return nil
}

// ConsumeIngestJobs starts consuming ingest jobs with the given number of
// concurrent handlers. A failed job is sent to the retry queue until it has
// used up its retries, then to the dead letter queue.
func (q *Queue) ConsumeIngestJobs(ctx context.Context, workers int, handler Handler) error {
	if workers <= 0 {
		workers = 1
	}

	// Set QoS to limit concurrent processing
	err := q.channel.Qos(
		workers, // prefetch count
		0,       // prefetch size
		false,   // global
	)
	if err != nil {
		return fmt.Errorf("failed to set QoS: %w", err)
	}

	msgs, err := q.channel.Consume(
		IngestQueueName,
		"",    // consumer
		false, // auto-ack
		false, // exclusive
		false, // no-local
		false, // no-wait
		nil,   // args
	)
	if err != nil {
		return fmt.Errorf("failed to register consumer: %w", err)
	}

	for i := 0; i < workers; i++ {
		go func() {
			for {
				select {
				case <-ctx.Done():
					return
				case msg, ok := <-msgs:
					if !ok {
						return
					}
					q.handle(ctx, msg, handler)
				}
			}
		}()
	}

	return nil
}

func (q *Queue) handle(ctx context.Context, msg amqp.Delivery, handler Handler) {
	job, err := decodeJob(msg.Body)
	if err != nil {
		q.logger.ErrorWithErr("Dropping malformed ingest job", err)
		msg.Nack(false, false)
		return
	}

	handlerErr := handler(ctx, job)
	switch next := nextStep(job, handlerErr, q.maxRetries); next {
	case stepAck:
		msg.Ack(false)
		return
	case stepRetry:
		err = q.PublishToRetryQueue(ctx, job)
	case stepDeadLetter:
		err = q.PublishToDeadLetterQueue(ctx, job, handlerErr.Error())
	}

	if err != nil {
		// Requeue the message when the retry could not be scheduled
		q.logger.WithJobID(job.ID).ErrorWithErr("Failed to reschedule ingest job", err)
		msg.Nack(false, true)
		return
	}
	msg.Ack(false)
}

// GetQueueDepth returns the number of messages in the queue
func (q *Queue) GetQueueDepth() (int, error) {
	info, err := q.channel.QueueInspect(IngestQueueName)
	if err != nil {
		return 0, fmt.Errorf("failed to inspect queue: %w", err)
	}

	return info.Messages, nil
}

type step int

const (
	stepAck step = iota
	stepRetry
	stepDeadLetter
)

func nextStep(job *models.IngestJob, err error, maxRetries int) step {
	switch {
	case err == nil:
		return stepAck
	case job.RetryCount >= maxRetries:
		return stepDeadLetter
	default:
		return stepRetry
	}
}

func jobPublishing(job *models.IngestJob) (amqp.Publishing, error) {
	body, err := json.Marshal(job)
	if err != nil {
		return amqp.Publishing{}, fmt.Errorf("failed to marshal job: %w", err)
	}

	return amqp.Publishing{
		DeliveryMode: amqp.Persistent,
		ContentType:  "application/json",
		MessageId:    job.ID,
		Body:         body,
		Timestamp:    time.Now(),
		Headers: amqp.Table{
			"x-retry-count": int32(job.RetryCount),
		},
	}, nil
}

func decodeJob(body []byte) (*models.IngestJob, error) {
	var job models.IngestJob
	if err := json.Unmarshal(body, &job); err != nil {
		return nil, fmt.Errorf("failed to unmarshal job: %w", err)
	}
	if job.SessionID == "" || job.ObjectKey == "" {
		return nil, fmt.Errorf("job %q is missing its session or object key", job.ID)
	}
	return &job, nil
}
