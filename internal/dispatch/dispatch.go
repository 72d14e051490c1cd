// Package dispatch publishes notices about saved documents so downstream
// pleading tooling can react without polling the ledger.
package dispatch

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// Notice announces one saved document.
type Notice struct {
	ID        string    `json:"id"`
	MessageID string    `json:"message_id"`
	Filename  string    `json:"filename"`
	Source    string    `json:"source"` // "attachment", "html-link" or "text-link"
	Sender    string    `json:"sender"`
	SavedAt   time.Time `json:"saved_at"`
}

// NewNotice creates a Notice with a generated UUID and current timestamp.
func NewNotice(messageID, filename, source, sender string) *Notice {
	return &Notice{
		ID:        uuid.New().String(),
		MessageID: messageID,
		Filename:  filename,
		Source:    source,
		Sender:    sender,
		SavedAt:   time.Now().UTC(),
	}
}

// Enqueuer publishes notices to the dispatch queue.
type Enqueuer interface {
	Enqueue(ctx context.Context, notice *Notice) (string, error)
}

// Config holds configuration for the dispatch queue.
type Config struct {
	// Type selects the queue backend: "redis", "sqs", or "none".
	Type          string `mapstructure:"type"`
	RedisAddr     string `mapstructure:"redis_addr"`
	RedisPassword string `mapstructure:"redis_password"`
	RedisDB       int    `mapstructure:"redis_db"`
	Stream        string `mapstructure:"stream"`

	// SQS-specific config
	SQSQueueURL string `mapstructure:"sqs_queue_url"`
	SQSRegion   string `mapstructure:"sqs_region"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		RedisAddr: "localhost:6379",
		RedisDB:   0,
		Stream:    "intake:documents",
	}
}

// NewEnqueuer creates an Enqueuer based on the given configuration.
func NewEnqueuer(cfg Config, log zerolog.Logger) (Enqueuer, error) {
	switch cfg.Type {
	case "redis":
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		return NewRedisEnqueuer(client, cfg.Stream), nil

	case "sqs":
		sqsClient, err := newAWSSQSClient(cfg.SQSRegion)
		if err != nil {
			return nil, fmt.Errorf("create sqs client: %w", err)
		}
		return NewSQSEnqueuer(sqsClient, cfg.SQSQueueURL, log), nil

	case "none", "":
		return NopEnqueuer{}, nil

	default:
		return nil, fmt.Errorf("unknown queue type: %s", cfg.Type)
	}
}

// NopEnqueuer discards all notices. Used when no dispatch queue is configured.
type NopEnqueuer struct{}

func (NopEnqueuer) Enqueue(context.Context, *Notice) (string, error) { return "", nil }
