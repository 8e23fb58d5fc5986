package queue

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/mahirjain10/pdf-ocr-worker/internal/types"
	"github.com/mahirjain10/pdf-ocr-worker/internal/utils"
	amqp "github.com/rabbitmq/amqp091-go"
)

// StatusPublisher delivers job status updates.
type StatusPublisher interface {
	PublishStatus(ctx context.Context, message *types.StatusMessage) error
}

// AmqpStatusPublisher publishes on the status exchange and reopens its
// channel when the broker closed it.
type AmqpStatusPublisher struct {
	mu   sync.Mutex
	ch   *amqp.Channel
	open func() (*amqp.Channel, error)
}

func NewAmqpStatusPublisher(ch *amqp.Channel, open func() (*amqp.Channel, error)) *AmqpStatusPublisher {
	return &AmqpStatusPublisher{ch: ch, open: open}
}

func (p *AmqpStatusPublisher) channel() (*amqp.Channel, error) {
	if p.ch != nil && !p.ch.IsClosed() {
		return p.ch, nil
	}
	if p.open == nil {
		return nil, fmt.Errorf("status channel is closed")
	}
	ch, err := p.open()
	if err != nil {
		return nil, err
	}
	p.ch = ch
	return ch, nil
}

func (p *AmqpStatusPublisher) PublishStatus(ctx context.Context, message *types.StatusMessage) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	serializedMessage, err := utils.SerializeJSON(message)
	if err != nil {
		return fmt.Errorf("failed to serialize message: %w", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	ch, err := p.channel()
	if err != nil {
		return err
	}
	err = ch.PublishWithContext(ctx,
		StatusExchange,
		StatusRoutingKey,
		true,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Timestamp:    time.Now(),
			Body:         serializedMessage,
		})
	if err != nil {
		return fmt.Errorf("failed to publish message: %w", err)
	}
	return nil
}

func (p *AmqpStatusPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.ch == nil || p.ch.IsClosed() {
		return nil
	}
	return p.ch.Close()
}
