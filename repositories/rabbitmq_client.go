package repositories

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"

	"translation-pipeline/domain"
)

// confirmation is the broker's answer to a published message.
type confirmation interface {
	WaitContext(ctx context.Context) (bool, error)
}

// amqpChannel is the subset of *amqp.Channel used by RabbitMQClient.
type amqpChannel interface {
	QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp.Table) (amqp.Queue, error)
	Publish(ctx context.Context, queue string, msg amqp.Publishing) (confirmation, error)
	Get(queue string, autoAck bool) (amqp.Delivery, bool, error)
	Ack(tag uint64, multiple bool) error
	Nack(tag uint64, multiple, requeue bool) error
	Close() error
}

type confirmingChannel struct {
	*amqp.Channel
}

func (c confirmingChannel) Publish(ctx context.Context, queue string, msg amqp.Publishing) (confirmation, error) {
	dc, err := c.Channel.PublishWithDeferredConfirmWithContext(ctx, "", queue, false, false, msg)
	if err != nil {
		return nil, err
	}
	if dc == nil {
		return nil, fmt.Errorf("channel is not in confirm mode")
	}
	return dc, nil
}

// RabbitMQClient is the AMQP transport. Topics map to durable queues on
// the default exchange and every publish waits for a broker confirm.
type RabbitMQClient struct {
	conn         *amqp.Connection
	channel      amqpChannel
	appID        string
	pollInterval time.Duration
	logger       *slog.Logger

	mu       sync.Mutex
	declared map[string]bool
	now      func() time.Time
}

// DialRabbitMQ connects to url, retrying while the broker comes up, and
// opens a channel in confirm mode.
func DialRabbitMQ(url, appID string, logger *slog.Logger) (*RabbitMQClient, error) {
	conn, err := connectWithRetry(url, 10, 5*time.Second, logger)
	if err != nil {
		return nil, err
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}
	if err := ch.Confirm(false); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to enable publisher confirms: %w", err)
	}
	client := newRabbitMQClient(confirmingChannel{ch}, appID, logger)
	client.conn = conn
	return client, nil
}

func newRabbitMQClient(ch amqpChannel, appID string, logger *slog.Logger) *RabbitMQClient {
	if logger == nil {
		logger = slog.Default()
	}
	return &RabbitMQClient{
		channel:      ch,
		appID:        appID,
		pollInterval: time.Second,
		logger:       logger,
		declared:     make(map[string]bool),
		now:          time.Now,
	}
}

func connectWithRetry(url string, maxRetries int, delay time.Duration, logger *slog.Logger) (*amqp.Connection, error) {
	var conn *amqp.Connection
	var err error

	for i := 0; i < maxRetries; i++ {
		conn, err = amqp.Dial(url)
		if err == nil {
			return conn, nil
		}
		logger.Warn("failed to connect to RabbitMQ", "attempt", i+1, "max_attempts", maxRetries, "error", err)
		if i < maxRetries-1 {
			time.Sleep(delay)
		}
	}

	return nil, fmt.Errorf("failed to connect after %d attempts: %w", maxRetries, err)
}

// Publish wraps msg in an envelope, publishes it persistently to topic
// and waits for the broker to confirm it.
func (r *RabbitMQClient) Publish(ctx context.Context, topic string, msg interface{}) (string, error) {
	id := uuid.NewString()
	now := r.now()
	body, err := domain.WrapPayload(msg, id, now)
	if err != nil {
		return "", err
	}
	if err := r.publish(ctx, topic, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    id,
		AppId:        r.appID,
		Timestamp:    now,
		Body:         body,
	}); err != nil {
		return "", err
	}
	return id, nil
}

// SendEvent publishes a raw storage event to queue.
func (r *RabbitMQClient) SendEvent(ctx context.Context, queue string, ev domain.StorageEvent) error {
	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("failed to marshal storage event: %w", err)
	}
	return r.publish(ctx, queue, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    uuid.NewString(),
		AppId:        r.appID,
		Timestamp:    r.now(),
		Body:         body,
	})
}

func (r *RabbitMQClient) publish(ctx context.Context, queue string, msg amqp.Publishing) error {
	if err := r.declare(queue); err != nil {
		return err
	}
	conf, err := r.channel.Publish(ctx, queue, msg)
	if err != nil {
		return fmt.Errorf("failed to publish message to %s: %w", queue, err)
	}
	acked, err := conf.WaitContext(ctx)
	if err != nil {
		return fmt.Errorf("failed to confirm message to %s: %w", queue, err)
	}
	if !acked {
		return fmt.Errorf("broker rejected message to %s", queue)
	}
	return nil
}

// Receive fetches at most one message from queue. When the queue is empty
// it waits for the poll interval and returns nothing.
func (r *RabbitMQClient) Receive(ctx context.Context, queue string) ([]domain.Delivery, error) {
	if err := r.declare(queue); err != nil {
		return nil, err
	}
	d, ok, err := r.channel.Get(queue, false)
	if err != nil {
		return nil, fmt.Errorf("failed to receive messages: %w", err)
	}
	if !ok {
		select {
		case <-ctx.Done():
		case <-time.After(r.pollInterval):
		}
		return nil, nil
	}
	return []domain.Delivery{{ID: d.MessageId, Body: d.Body, Tag: d.DeliveryTag}}, nil
}

func (r *RabbitMQClient) Ack(ctx context.Context, queue string, d domain.Delivery) error {
	if err := r.channel.Ack(d.Tag, false); err != nil {
		return fmt.Errorf("failed to ack message: %w", err)
	}
	return nil
}

// Reject returns the message to queue for redelivery.
func (r *RabbitMQClient) Reject(ctx context.Context, queue string, d domain.Delivery) error {
	if err := r.channel.Nack(d.Tag, false, true); err != nil {
		return fmt.Errorf("failed to nack message: %w", err)
	}
	return nil
}

// Discard drops a message that can never be processed. It is not
// requeued, so the queue's dead-letter exchange receives it when one is
// configured.
func (r *RabbitMQClient) Discard(ctx context.Context, queue string, d domain.Delivery) error {
	if err := r.channel.Nack(d.Tag, false, false); err != nil {
		return fmt.Errorf("failed to discard message: %w", err)
	}
	return nil
}

func (r *RabbitMQClient) Close() error {
	var errs []error
	if r.channel != nil {
		if err := r.channel.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close channel: %w", err))
		}
	}
	if r.conn != nil {
		if err := r.conn.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close connection: %w", err))
		}
	}
	return errors.Join(errs...)
}

func (r *RabbitMQClient) declare(queue string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.declared[queue] {
		return nil
	}
	if _, err := r.channel.QueueDeclare(queue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("failed to declare queue %s: %w", queue, err)
	}
	r.declared[queue] = true
	return nil
}
