package dispatch

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog"
)

// SQSEnqueuer publishes notices to an AWS SQS queue.
type SQSEnqueuer struct {
	client   sqsAPI
	queueURL string
	log      zerolog.Logger
}

// NewSQSEnqueuer creates a new SQSEnqueuer targeting the given queue URL.
func NewSQSEnqueuer(client sqsAPI, queueURL string, log zerolog.Logger) *SQSEnqueuer {
	return &SQSEnqueuer{
		client:   client,
		queueURL: queueURL,
		log:      log,
	}
}

// Enqueue serializes the notice to JSON and sends it via SQS SendMessage.
// It returns the SQS message ID.
func (e *SQSEnqueuer) Enqueue(ctx context.Context, notice *Notice) (string, error) {
	data, err := json.Marshal(notice)
	if err != nil {
		return "", fmt.Errorf("marshal notice: %w", err)
	}

	out, err := e.client.SendMessage(ctx, &sqsSendInput{
		QueueURL:    e.queueURL,
		MessageBody: string(data),
	})
	if err != nil {
		return "", fmt.Errorf("sqs send message: %w", err)
	}

	NoticesDispatchedTotal.Inc()

	return out.MessageID, nil
}
