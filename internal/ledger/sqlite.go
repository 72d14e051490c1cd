package ledger

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

// SQLiteLedger records documents in a local SQLite database.
type SQLiteLedger struct {
	db *sqlx.DB
}

// NewSQLiteLedger opens (or creates) a SQLite database at dbPath,
// enables WAL mode, and runs any pending schema migrations.
func NewSQLiteLedger(dbPath string) (*SQLiteLedger, error) {
	db, err := sqlx.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite db: %w", err)
	}

	// Enable WAL mode for better concurrent read performance.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling WAL mode: %w", err)
	}

	l := &SQLiteLedger{db: db}
	if err := l.runMigrations(); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return l, nil
}

// Close closes the underlying database connection.
func (l *SQLiteLedger) Close() error {
	return l.db.Close()
}

// runMigrations checks the current schema version and applies any
// outstanding migrations in order.
func (l *SQLiteLedger) runMigrations() error {
	currentVersion := 0

	// Check if schema_version table exists.
	var tableCount int
	err := l.db.Get(
		&tableCount,
		"SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='schema_version'",
	)
	if err != nil {
		return fmt.Errorf("checking schema_version table: %w", err)
	}

	if tableCount > 0 {
		err = l.db.Get(&currentVersion, "SELECT COALESCE(MAX(version), 0) FROM schema_version")
		if err != nil {
			return fmt.Errorf("reading schema version: %w", err)
		}
	}

	for _, m := range sqliteMigrations {
		if m.version <= currentVersion {
			continue
		}
		if _, err := l.db.Exec(m.sql); err != nil {
			return fmt.Errorf("applying migration v%d: %w", m.version, err)
		}
	}

	return nil
}

// RecordDocument inserts a document row.
func (l *SQLiteLedger) RecordDocument(ctx context.Context, doc Document) error {
	doc, err := normalize(doc, func() string { return uuid.New().String() })
	if err != nil {
		return err
	}

	_, err = l.db.ExecContext(ctx, `
		INSERT INTO received_documents (
			id, message_id, sender, source, filename,
			source_url, size_bytes, sha256, status, received_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		doc.ID, doc.MessageID, doc.Sender, doc.Source, doc.Filename,
		doc.SourceURL, doc.Size, doc.SHA256, doc.Status, doc.ReceivedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("recording document %s: %w", doc.Filename, err)
	}
	return nil
}

// ListByMessage retrieves all documents recorded for a message, oldest first.
func (l *SQLiteLedger) ListByMessage(ctx context.Context, messageID string) ([]Document, error) {
	var docs []Document
	err := l.db.SelectContext(ctx, &docs, `
		SELECT id, message_id, sender, source, filename,
		       source_url, size_bytes, sha256, status, received_at
		FROM received_documents
		WHERE message_id = ?
		ORDER BY received_at ASC, id ASC`,
		messageID,
	)
	if err != nil {
		return nil, fmt.Errorf("querying documents for message %s: %w", messageID, err)
	}
	return docs, nil
}

// Ping verifies database connectivity.
func (l *SQLiteLedger) Ping(ctx context.Context) error {
	return l.db.PingContext(ctx)
}
