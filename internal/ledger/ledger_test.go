package ledger

import (
	"context"
	"path/filepath"
	"testing"
)

func TestNew_SQLite(t *testing.T) {
	cfg := Config{Type: "sqlite", Path: filepath.Join(t.TempDir(), "ledger.db")}
	l, err := New(context.Background(), cfg)
	if err != nil {
		t.Fatalf("New with type=sqlite: %v", err)
	}
	defer l.Close()

	if _, ok := l.(*SQLiteLedger); !ok {
		t.Errorf("New with type=sqlite: got %T, want *SQLiteLedger", l)
	}
}

func TestNew_NoneDefault(t *testing.T) {
	for _, typ := range []string{"none", ""} {
		l, err := New(context.Background(), Config{Type: typ})
		if err != nil {
			t.Fatalf("New with type=%q: %v", typ, err)
		}
		if _, ok := l.(NopLedger); !ok {
			t.Errorf("New with type=%q: got %T, want NopLedger", typ, l)
		}
	}
}

func TestNew_UnsupportedType(t *testing.T) {
	_, err := New(context.Background(), Config{Type: "dynamodb"})
	if err == nil {
		t.Error("New with type=dynamodb: got nil error")
	}
}

func TestNopLedger(t *testing.T) {
	ctx := context.Background()
	var l Ledger = NopLedger{}

	if err := l.RecordDocument(ctx, Document{MessageID: "1", Filename: "1-x.pdf"}); err != nil {
		t.Errorf("RecordDocument: %v", err)
	}
	docs, err := l.ListByMessage(ctx, "1")
	if err != nil {
		t.Errorf("ListByMessage: %v", err)
	}
	if len(docs) != 0 {
		t.Errorf("ListByMessage on nop ledger returned %d documents, want 0", len(docs))
	}
	if err := l.Ping(ctx); err != nil {
		t.Errorf("Ping: %v", err)
	}
	if err := l.Close(); err != nil {
		t.Errorf("Close: %v", err)
	}
}
