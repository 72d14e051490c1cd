// Package ledger records every document the intake pipeline saves so that
// downstream pleading tooling can pick them up by message.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Document source values.
const (
	SourceAttachment = "attachment"
	SourceHTMLLink   = "html-link"
	SourceTextLink   = "text-link"
)

// StatusNew is the status assigned to freshly recorded documents.
// Downstream consumers advance it once they process the document.
const StatusNew = "new"

// Document is one recorded intake document.
type Document struct {
	ID         string    `db:"id"`
	MessageID  string    `db:"message_id"`
	Sender     string    `db:"sender"`
	Source     string    `db:"source"`
	Filename   string    `db:"filename"`
	SourceURL  string    `db:"source_url"`
	Size       int64     `db:"size_bytes"`
	SHA256     string    `db:"sha256"`
	Status     string    `db:"status"`
	ReceivedAt time.Time `db:"received_at"`
}

// Ledger defines the interface for intake ledger backends.
type Ledger interface {
	// RecordDocument inserts a document row. Empty ID, Status, and
	// ReceivedAt fields are filled in before insert.
	RecordDocument(ctx context.Context, doc Document) error

	// ListByMessage returns all documents recorded for a message,
	// oldest first.
	ListByMessage(ctx context.Context, messageID string) ([]Document, error)

	// Ping verifies backend connectivity.
	Ping(ctx context.Context) error

	Close() error
}

// Config holds configuration for creating a Ledger.
type Config struct {
	Type           string // "postgres", "sqlite", or "none"
	URL            string // postgres connection URL
	Path           string // sqlite database file path
	PoolMin        int32
	PoolMax        int32
	ConnectTimeout time.Duration
}

// New creates a Ledger based on the provided configuration.
func New(ctx context.Context, cfg Config) (Ledger, error) {
	switch cfg.Type {
	case "postgres":
		return NewPostgresLedger(ctx, cfg)
	case "sqlite":
		return NewSQLiteLedger(cfg.Path)
	case "none", "":
		return NopLedger{}, nil
	default:
		return nil, fmt.Errorf("ledger: unsupported type %q", cfg.Type)
	}
}

// NopLedger discards all records. Used when no ledger backend is configured.
type NopLedger struct{}

func (NopLedger) RecordDocument(context.Context, Document) error { return nil }

func (NopLedger) ListByMessage(context.Context, string) ([]Document, error) { return nil, nil }

func (NopLedger) Ping(context.Context) error { return nil }

func (NopLedger) Close() error { return nil }

// normalize fills defaulted fields on a document before insert.
func normalize(doc Document, newID func() string) (Document, error) {
	if doc.MessageID == "" {
		return Document{}, errors.New("ledger: document message id must not be empty")
	}
	if doc.Filename == "" {
		return Document{}, errors.New("ledger: document filename must not be empty")
	}
	if doc.ID == "" {
		doc.ID = newID()
	}
	if doc.Status == "" {
		doc.Status = StatusNew
	}
	if doc.ReceivedAt.IsZero() {
		doc.ReceivedAt = time.Now().UTC()
	}
	return doc, nil
}
