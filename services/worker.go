package services

import (
	"context"
	"errors"
	"time"

	"translation-pipeline/domain"
)

// Subscriber is the receiving side of the message transport.
type Subscriber interface {
	Receive(ctx context.Context, queue string) ([]domain.Delivery, error)
	Ack(ctx context.Context, queue string, d domain.Delivery) error
	Reject(ctx context.Context, queue string, d domain.Delivery) error
	Discard(ctx context.Context, queue string, d domain.Delivery) error
}

// Handler processes the body of one delivery.
type Handler interface {
	ProcessMessage(ctx context.Context, body []byte) error
}

// Worker feeds the deliveries of one queue to a stage handler. Successful
// deliveries are acknowledged. Deliveries that fail validation are
// discarded, and other failures are handed back to the transport for
// redelivery.
type Worker struct {
	options
	subscriber Subscriber
	queue      string
	handler    Handler
}

func NewWorker(subscriber Subscriber, queue string, handler Handler, opts ...Option) *Worker {
	return &Worker{
		options:    newOptions(opts),
		subscriber: subscriber,
		queue:      queue,
		handler:    handler,
	}
}

// Start polls the queue until ctx is cancelled.
func (w *Worker) Start(ctx context.Context) error {
	w.logger.Info("worker started", "queue", w.queue)
	for {
		if ctx.Err() != nil {
			w.logger.Info("worker stopped", "queue", w.queue)
			return nil
		}
		if err := w.Poll(ctx); err != nil {
			if ctx.Err() != nil {
				continue
			}
			w.logger.Error("failed to receive messages", "queue", w.queue, "error", err)
			select {
			case <-ctx.Done():
			case <-time.After(w.retryDelay):
			}
		}
	}
}

// Poll receives one batch of deliveries and handles them in order. Only a
// failed receive is returned; handler failures are logged and rejected.
func (w *Worker) Poll(ctx context.Context) error {
	deliveries, err := w.subscriber.Receive(ctx, w.queue)
	if err != nil {
		return err
	}
	for _, d := range deliveries {
		w.handle(ctx, d)
	}
	return nil
}

func (w *Worker) handle(ctx context.Context, d domain.Delivery) {
	if err := w.handler.ProcessMessage(ctx, d.Body); err != nil {
		kind := errorKind(err)
		w.logger.Error("failed to process message",
			"queue", w.queue, "message_id", d.ID, "kind", kind, "error", err)
		// a malformed message fails the same way on every delivery
		if kind != kindAdapterFailure {
			if dErr := w.subscriber.Discard(ctx, w.queue, d); dErr != nil {
				w.logger.Error("failed to discard message", "queue", w.queue, "message_id", d.ID, "error", dErr)
			}
			return
		}
		if rErr := w.subscriber.Reject(ctx, w.queue, d); rErr != nil {
			w.logger.Error("failed to reject message", "queue", w.queue, "message_id", d.ID, "error", rErr)
		}
		return
	}
	if err := w.subscriber.Ack(ctx, w.queue, d); err != nil {
		w.logger.Error("failed to ack message", "queue", w.queue, "message_id", d.ID, "error", err)
	}
}

const (
	kindMissingField      = "missing_field"
	kindMalformedEnvelope = "malformed_envelope"
	kindAdapterFailure    = "adapter_failure"
)

func errorKind(err error) string {
	var missing *domain.MissingFieldError
	var malformed *domain.MalformedEnvelopeError
	switch {
	case errors.As(err, &missing):
		return kindMissingField
	case errors.As(err, &malformed):
		return kindMalformedEnvelope
	default:
		return kindAdapterFailure
	}
}
