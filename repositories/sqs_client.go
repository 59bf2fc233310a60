package repositories

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/google/uuid"

	"translation-pipeline/domain"
)

const (
	sqsMaxMessages = 10
	sqsWaitSeconds = 20
)

// SQSClient publishes enveloped messages to queues and hands deliveries to
// workers. Topics are queue names or queue URLs.
type SQSClient struct {
	client    *sqs.Client
	accountID string

	mu   sync.Mutex
	urls map[string]string
	now  func() time.Time
}

// NewSQSClient wraps client. accountID, when set, is the owner of the
// queues resolved by name.
func NewSQSClient(client *sqs.Client, accountID string) *SQSClient {
	return &SQSClient{
		client:    client,
		accountID: accountID,
		urls:      make(map[string]string),
		now:       time.Now,
	}
}

// Publish wraps msg in an envelope and sends it to topic. It returns once
// SQS has accepted the message, with the id assigned by SQS.
func (s *SQSClient) Publish(ctx context.Context, topic string, msg interface{}) (string, error) {
	body, err := domain.WrapPayload(msg, uuid.NewString(), s.now())
	if err != nil {
		return "", err
	}
	queueURL, err := s.queueURL(ctx, topic)
	if err != nil {
		return "", err
	}
	out, err := s.client.SendMessage(ctx, &sqs.SendMessageInput{
		QueueUrl:    aws.String(queueURL),
		MessageBody: aws.String(string(body)),
	})
	if err != nil {
		return "", fmt.Errorf("failed to publish message to %s: %w", topic, err)
	}
	return aws.ToString(out.MessageId), nil
}

// SendEvent sends a raw storage event, the shape produced by bucket
// notifications, to queue.
func (s *SQSClient) SendEvent(ctx context.Context, queue string, ev domain.StorageEvent) error {
	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("failed to marshal storage event: %w", err)
	}
	queueURL, err := s.queueURL(ctx, queue)
	if err != nil {
		return err
	}
	_, err = s.client.SendMessage(ctx, &sqs.SendMessageInput{
		QueueUrl:    aws.String(queueURL),
		MessageBody: aws.String(string(body)),
	})
	if err != nil {
		return fmt.Errorf("failed to send storage event to %s: %w", queue, err)
	}
	return nil
}

func (s *SQSClient) Receive(ctx context.Context, queue string) ([]domain.Delivery, error) {
	queueURL, err := s.queueURL(ctx, queue)
	if err != nil {
		return nil, err
	}
	out, err := s.client.ReceiveMessage(ctx, &sqs.ReceiveMessageInput{
		QueueUrl:            aws.String(queueURL),
		MaxNumberOfMessages: sqsMaxMessages,
		WaitTimeSeconds:     sqsWaitSeconds,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to receive messages: %w", err)
	}
	deliveries := make([]domain.Delivery, 0, len(out.Messages))
	for _, m := range out.Messages {
		deliveries = append(deliveries, domain.Delivery{
			ID:            aws.ToString(m.MessageId),
			Body:          []byte(aws.ToString(m.Body)),
			ReceiptHandle: aws.ToString(m.ReceiptHandle),
		})
	}
	return deliveries, nil
}

// Ack deletes a processed message from queue.
func (s *SQSClient) Ack(ctx context.Context, queue string, d domain.Delivery) error {
	queueURL, err := s.queueURL(ctx, queue)
	if err != nil {
		return err
	}
	_, err = s.client.DeleteMessage(ctx, &sqs.DeleteMessageInput{
		QueueUrl:      aws.String(queueURL),
		ReceiptHandle: aws.String(d.ReceiptHandle),
	})
	if err != nil {
		return fmt.Errorf("failed to delete message: %w", err)
	}
	return nil
}

// Reject leaves the message on the queue. It becomes visible again once
// its visibility timeout expires.
func (s *SQSClient) Reject(ctx context.Context, queue string, d domain.Delivery) error {
	return nil
}

// Discard also leaves the message on the queue. SQS has no negative
// acknowledgement, so a message that can never be processed reaches the
// dead-letter queue through the queue's redrive policy.
func (s *SQSClient) Discard(ctx context.Context, queue string, d domain.Delivery) error {
	return nil
}

func (s *SQSClient) queueURL(ctx context.Context, queue string) (string, error) {
	if strings.HasPrefix(queue, "https://") || strings.HasPrefix(queue, "http://") {
		return queue, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if url, ok := s.urls[queue]; ok {
		return url, nil
	}

	input := &sqs.GetQueueUrlInput{QueueName: aws.String(queue)}
	if s.accountID != "" {
		input.QueueOwnerAWSAccountId = aws.String(s.accountID)
	}
	out, err := s.client.GetQueueUrl(ctx, input)
	if err != nil {
		return "", fmt.Errorf("failed to resolve queue %s: %w", queue, err)
	}
	url := aws.ToString(out.QueueUrl)
	s.urls[queue] = url
	return url, nil
}
