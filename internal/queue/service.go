package queue

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/mahirjain10/pdf-ocr-worker/config"
	"github.com/mahirjain10/pdf-ocr-worker/internal/metrics"
	queueErrors "github.com/mahirjain10/pdf-ocr-worker/internal/queue/errors"
	"github.com/mahirjain10/pdf-ocr-worker/internal/queue/models"
	"github.com/mahirjain10/pdf-ocr-worker/internal/types"
	"github.com/mahirjain10/pdf-ocr-worker/internal/utils"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog/log"
)

const (
	reconnectDelay = 5 * time.Second
	requeued       = "REQUEUED"
)

// JobHandler runs one OCR job end to end.
type JobHandler interface {
	Handle(ctx context.Context, job types.OcrJob) (*types.OcrOutcome, error)
}

type RabbitMqService struct {
	config    *config.Config
	handler   JobHandler
	publisher StatusPublisher

	connMu       sync.Mutex
	rabbitMqConn *amqp.Connection
}

// NewRabbitMqService wires the worker. A nil publisher is replaced in Start
// by one that publishes on the status exchange.
func NewRabbitMqService(cfg *config.Config, rabbitMqConn *amqp.Connection, handler JobHandler, publisher StatusPublisher) *RabbitMqService {
	return &RabbitMqService{
		config:       cfg,
		rabbitMqConn: rabbitMqConn,
		handler:      handler,
		publisher:    publisher,
	}
}

// openChannel opens a channel, redialing the broker when the shared
// connection is gone.
func (rabbitMqService *RabbitMqService) openChannel() (*amqp.Channel, error) {
	rabbitMqService.connMu.Lock()
	defer rabbitMqService.connMu.Unlock()

	if rabbitMqService.rabbitMqConn == nil || rabbitMqService.rabbitMqConn.IsClosed() {
		conn, err := NewRabbitMQClient(rabbitMqService.config.Worker.RabbitMqURL)
		if err != nil {
			return nil, err
		}
		rabbitMqService.rabbitMqConn = conn
	}
	return NewChannel(rabbitMqService.rabbitMqConn)
}

func (rabbitMqService *RabbitMqService) PublishToChannelHelper(ctx context.Context, data *types.StatusData) error {
	statusMessage := utils.InitStatusMessage(data)
	log.Debug().Str("job_id", data.ID).Str("status", data.Status).Msg("publishing status")
	if err := rabbitMqService.publisher.PublishStatus(ctx, statusMessage); err != nil {
		if utils.IsFatalError(err) {
			return fmt.Errorf("fatal: cannot publish %s status: %w", data.Status, err)
		}
		log.Warn().Err(err).Str("job_id", data.ID).Str("status", data.Status).Msg("failed to publish status")
	}
	return nil
}

// ProcessMessage runs the job carried by d and publishes its status
// transitions. The returned error decides how the delivery is settled.
func (rabbitMqService *RabbitMqService) ProcessMessage(ctx context.Context, d amqp.Delivery) error {
	start := time.Now()
	queueName := rabbitMqService.config.Worker.RabbitMqQueue

	var message *models.RabbitMqMessage
	if err := utils.ParseJSON(d.Body, &message); err != nil || message == nil {
		if err == nil {
			err = errors.New("empty message")
		}
		metrics.RecordJob(queueName, types.FAILED, time.Since(start))
		return models.ProcessingError{Err: fmt.Errorf("failed to parse message: %w", err), Reason: queueErrors.ErrInvalidJob}
	}

	job := message.Data
	if job.Id == "" {
		job.Id = uuid.NewString()
		log.Warn().Str("job_id", job.Id).Msg("job carries no id, generated one")
	}
	logger := log.With().Str("job_id", job.Id).Str("key", job.S3RawKey).Logger()
	logger.Info().Str("pattern", message.Pattern).Str("created_at", job.CreatedAt).Msg("received OCR job")

	if job.S3RawKey == "" {
		if err := rabbitMqService.PublishToChannelHelper(ctx, utils.InitStatusData(job.Id, job.UserId, types.FAILED, "", queueErrors.ErrInvalidJob)); err != nil {
			return err
		}
		metrics.RecordJob(queueName, types.FAILED, time.Since(start))
		return models.ProcessingError{Err: fmt.Errorf("job %s has no s3RawKey", job.Id), Reason: queueErrors.ErrInvalidJob}
	}

	if err := rabbitMqService.PublishToChannelHelper(ctx, utils.InitStatusData(job.Id, job.UserId, types.PROCESSING, "", "")); err != nil {
		return err
	}

	outcome, err := rabbitMqService.handler.Handle(ctx, job)
	if err != nil {
		var procErr models.ProcessingError
		if errors.As(err, &procErr) && procErr.Requeue {
			logger.Warn().Err(err).Msg("job interrupted, requeueing")
			metrics.RecordJob(queueName, requeued, time.Since(start))
			return err
		}

		errorMsg := queueErrors.ErrOCR
		if procErr.Reason != "" {
			errorMsg = procErr.Reason
		}
		logger.Error().Err(err).Msg("job failed")
		if pubErr := rabbitMqService.PublishToChannelHelper(ctx, utils.InitStatusData(job.Id, job.UserId, types.FAILED, "", errorMsg)); pubErr != nil {
			return pubErr
		}
		metrics.RecordJob(queueName, types.FAILED, time.Since(start))
		return err
	}

	statusData := utils.InitStatusData(job.Id, job.UserId, types.PROCESSED, outcome.PublicURL, "")
	statusData.Pages = outcome.Pages
	statusData.TextLength = outcome.TextLength
	if err := rabbitMqService.PublishToChannelHelper(ctx, statusData); err != nil {
		return err
	}

	metrics.RecordJob(queueName, types.PROCESSED, time.Since(start))
	logger.Info().Str("processed_key", outcome.ProcessedKey).Int("pages", outcome.Pages).Dur("took", time.Since(start)).Msg("job processed")
	return nil
}

// handleDelivery processes d and acks or nacks it.
func (rabbitMqService *RabbitMqService) handleDelivery(ctx context.Context, d amqp.Delivery) {
	queueName := rabbitMqService.config.Worker.RabbitMqQueue

	err := rabbitMqService.ProcessMessage(ctx, d)
	if err == nil {
		if ackErr := d.Ack(false); ackErr != nil {
			log.Error().Err(ackErr).Str("queue", queueName).Msg("failed to ack message")
		}
		return
	}

	log.Error().Err(err).Str("queue", queueName).Msg("error processing message")

	requeue := utils.IsTransientError(err)
	var procErr models.ProcessingError
	if errors.As(err, &procErr) {
		requeue = procErr.Requeue
	}
	if nackErr := d.Nack(false, requeue); nackErr != nil {
		log.Error().Err(nackErr).Str("queue", queueName).Msg("failed to nack message")
	}
}

// Start declares the topology and runs WorkerCount consumers until ctx is
// done.
func (rabbitMqService *RabbitMqService) Start(ctx context.Context) error {
	cfg := rabbitMqService.config.Worker

	ch, err := rabbitMqService.openChannel()
	if err != nil {
		return err
	}
	if _, err = NewQueue(ch, cfg.RabbitMqQueue); err != nil {
		ch.Close()
		return err
	}
	if _, err = NewQueue(ch, cfg.RabbitMqStatusQueue); err != nil {
		ch.Close()
		return err
	}
	if err = DeclareStatusExchange(ch, cfg.RabbitMqStatusQueue); err != nil {
		ch.Close()
		return err
	}
	log.Info().Str("queue", cfg.RabbitMqQueue).Str("status_queue", cfg.RabbitMqStatusQueue).Msg("queues declared")

	if rabbitMqService.publisher == nil {
		publisher := NewAmqpStatusPublisher(ch, rabbitMqService.openChannel)
		defer publisher.Close()
		rabbitMqService.publisher = publisher
	} else {
		ch.Close()
	}

	var wg sync.WaitGroup
	for i := 0; i < cfg.WorkerCount; i++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			rabbitMqService.consume(ctx, cfg.RabbitMqQueue, worker)
		}(i + 1)
	}

	<-ctx.Done()
	log.Info().Msg("shutting down all consumers gracefully...")
	wg.Wait()

	rabbitMqService.connMu.Lock()
	defer rabbitMqService.connMu.Unlock()
	if rabbitMqService.rabbitMqConn != nil && !rabbitMqService.rabbitMqConn.IsClosed() {
		return rabbitMqService.rabbitMqConn.Close()
	}
	return nil
}

func (rabbitMqService *RabbitMqService) consume(ctx context.Context, queueName string, worker int) {
	logger := log.With().Str("queue", queueName).Int("worker", worker).Logger()

	var consumerCh *amqp.Channel
	defer func() {
		if consumerCh != nil {
			consumerCh.Close()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			logger.Info().Msg("shutting down...")
			return
		default:
		}

		if consumerCh == nil || consumerCh.IsClosed() {
			newCh, err := rabbitMqService.openChannel()
			if err != nil {
				logger.Error().Err(err).Msg("failed to create channel")
				if !sleep(ctx, reconnectDelay) {
					return
				}
				continue
			}
			consumerCh = newCh
			logger.Debug().Msg("channel created")
		}

		msgs, err := NewQueueConsumer(consumerCh, queueName)
		if err != nil {
			logger.Error().Err(err).Msg("failed to start consumer")
			consumerCh.Close()
			consumerCh = nil
			if !sleep(ctx, reconnectDelay) {
				return
			}
			continue
		}

		logger.Info().Msg("worker started, waiting for messages...")

		channelClosed := false
		for !channelClosed {
			select {
			case <-ctx.Done():
				logger.Info().Msg("shutting down...")
				return
			case d, ok := <-msgs:
				if !ok {
					logger.Warn().Msg("channel closed, will recreate")
					consumerCh = nil
					channelClosed = true
					sleep(ctx, 2*time.Second)
					break
				}
				rabbitMqService.handleDelivery(ctx, d)
			}
		}
	}
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
