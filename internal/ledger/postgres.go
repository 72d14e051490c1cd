package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

const postgresSchema = `
CREATE TABLE IF NOT EXISTS received_documents (
	id          TEXT PRIMARY KEY,
	message_id  TEXT NOT NULL,
	sender      TEXT NOT NULL DEFAULT '',
	source      TEXT NOT NULL,
	filename    TEXT NOT NULL,
	source_url  TEXT NOT NULL DEFAULT '',
	size_bytes  BIGINT NOT NULL DEFAULT 0,
	sha256      TEXT NOT NULL DEFAULT '',
	status      TEXT NOT NULL DEFAULT 'new',
	received_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_received_documents_message_id
	ON received_documents(message_id);

CREATE INDEX IF NOT EXISTS idx_received_documents_status
	ON received_documents(status);
`

// PostgresLedger records documents in a PostgreSQL database.
type PostgresLedger struct {
	pool *pgxpool.Pool
}

// NewPostgresLedger creates a connection pool, verifies connectivity,
// and ensures the ledger schema exists.
func NewPostgresLedger(ctx context.Context, cfg Config) (*PostgresLedger, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse database URL: %w", err)
	}

	poolCfg.MinConns = cfg.PoolMin
	poolCfg.MaxConns = cfg.PoolMax
	poolCfg.MaxConnLifetime = 1 * time.Hour
	poolCfg.MaxConnIdleTime = 30 * time.Minute
	poolCfg.HealthCheckPeriod = 1 * time.Minute

	connectTimeout := cfg.ConnectTimeout
	if connectTimeout <= 0 {
		connectTimeout = 5 * time.Second
	}
	connectCtx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(connectCtx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("create connection pool: %w", err)
	}

	if err := pool.Ping(connectCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if _, err := pool.Exec(connectCtx, postgresSchema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ensure ledger schema: %w", err)
	}

	return &PostgresLedger{pool: pool}, nil
}

// Close closes all connections in the pool.
func (l *PostgresLedger) Close() error {
	l.pool.Close()
	return nil
}

// RecordDocument inserts a document row.
func (l *PostgresLedger) RecordDocument(ctx context.Context, doc Document) error {
	doc, err := normalize(doc, func() string { return uuid.New().String() })
	if err != nil {
		return err
	}

	_, err = l.pool.Exec(ctx, `
		INSERT INTO received_documents (
			id, message_id, sender, source, filename,
			source_url, size_bytes, sha256, status, received_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		doc.ID, doc.MessageID, doc.Sender, doc.Source, doc.Filename,
		doc.SourceURL, doc.Size, doc.SHA256, doc.Status, doc.ReceivedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("recording document %s: %w", doc.Filename, err)
	}
	return nil
}

// ListByMessage retrieves all documents recorded for a message, oldest first.
func (l *PostgresLedger) ListByMessage(ctx context.Context, messageID string) ([]Document, error) {
	rows, err := l.pool.Query(ctx, `
		SELECT id, message_id, sender, source, filename,
		       source_url, size_bytes, sha256, status, received_at
		FROM received_documents
		WHERE message_id = $1
		ORDER BY received_at ASC, id ASC`,
		messageID,
	)
	if err != nil {
		return nil, fmt.Errorf("querying documents for message %s: %w", messageID, err)
	}
	defer rows.Close()

	var docs []Document
	for rows.Next() {
		var d Document
		err := rows.Scan(
			&d.ID, &d.MessageID, &d.Sender, &d.Source, &d.Filename,
			&d.SourceURL, &d.Size, &d.SHA256, &d.Status, &d.ReceivedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scanning document row: %w", err)
		}
		docs = append(docs, d)
	}
	return docs, rows.Err()
}

// Ping verifies database connectivity.
func (l *PostgresLedger) Ping(ctx context.Context) error {
	return l.pool.Ping(ctx)
}
