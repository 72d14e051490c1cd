package ledger

import (
	"context"
	"path/filepath"
	"testing"
	"time"
)

func newTestSQLiteLedger(t *testing.T) *SQLiteLedger {
	t.Helper()
	l, err := NewSQLiteLedger(filepath.Join(t.TempDir(), "ledger.db"))
	if err != nil {
		t.Fatalf("NewSQLiteLedger: %v", err)
	}
	t.Cleanup(func() { l.Close() })
	return l
}

func TestSQLiteLedger_RecordAndList(t *testing.T) {
	l := newTestSQLiteLedger(t)
	ctx := context.Background()

	t1 := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	t2 := t1.Add(1 * time.Minute)

	first := Document{
		MessageID:  "17",
		Sender:     "clerk@court.example.com",
		Source:     SourceAttachment,
		Filename:   "17-complaint.pdf",
		Size:       2048,
		SHA256:     "abc123",
		ReceivedAt: t1,
	}
	second := Document{
		MessageID:  "17",
		Sender:     "clerk@court.example.com",
		Source:     SourceHTMLLink,
		Filename:   "17-exhibit-a.pdf",
		SourceURL:  "https://court.example.com/docs/exhibit-a.pdf",
		Size:       4096,
		SHA256:     "def456",
		ReceivedAt: t2,
	}

	if err := l.RecordDocument(ctx, first); err != nil {
		t.Fatalf("RecordDocument first: %v", err)
	}
	if err := l.RecordDocument(ctx, second); err != nil {
		t.Fatalf("RecordDocument second: %v", err)
	}

	docs, err := l.ListByMessage(ctx, "17")
	if err != nil {
		t.Fatalf("ListByMessage: %v", err)
	}
	if len(docs) != 2 {
		t.Fatalf("ListByMessage returned %d documents, want 2", len(docs))
	}

	if docs[0].Filename != "17-complaint.pdf" {
		t.Errorf("docs[0].Filename = %q, want %q", docs[0].Filename, "17-complaint.pdf")
	}
	if docs[0].Source != SourceAttachment {
		t.Errorf("docs[0].Source = %q, want %q", docs[0].Source, SourceAttachment)
	}
	if docs[1].Filename != "17-exhibit-a.pdf" {
		t.Errorf("docs[1].Filename = %q, want %q", docs[1].Filename, "17-exhibit-a.pdf")
	}
	if docs[1].SourceURL != "https://court.example.com/docs/exhibit-a.pdf" {
		t.Errorf("docs[1].SourceURL = %q, want %q", docs[1].SourceURL, second.SourceURL)
	}
	if docs[1].Size != 4096 {
		t.Errorf("docs[1].Size = %d, want 4096", docs[1].Size)
	}
}

func TestSQLiteLedger_FillsDefaults(t *testing.T) {
	l := newTestSQLiteLedger(t)
	ctx := context.Background()

	doc := Document{
		MessageID: "9",
		Source:    SourceAttachment,
		Filename:  "9-answer.pdf",
	}
	if err := l.RecordDocument(ctx, doc); err != nil {
		t.Fatalf("RecordDocument: %v", err)
	}

	docs, err := l.ListByMessage(ctx, "9")
	if err != nil {
		t.Fatalf("ListByMessage: %v", err)
	}
	if len(docs) != 1 {
		t.Fatalf("ListByMessage returned %d documents, want 1", len(docs))
	}

	got := docs[0]
	if got.ID == "" {
		t.Error("recorded document has empty ID, want generated UUID")
	}
	if got.Status != StatusNew {
		t.Errorf("Status = %q, want %q", got.Status, StatusNew)
	}
	if got.ReceivedAt.IsZero() {
		t.Error("ReceivedAt is zero, want fill-in at insert time")
	}
}

func TestSQLiteLedger_ListFiltersByMessage(t *testing.T) {
	l := newTestSQLiteLedger(t)
	ctx := context.Background()

	for _, doc := range []Document{
		{MessageID: "1", Source: SourceAttachment, Filename: "1-motion.pdf"},
		{MessageID: "2", Source: SourceAttachment, Filename: "2-motion.pdf"},
		{MessageID: "1", Source: SourceHTMLLink, Filename: "1-order.pdf"},
	} {
		if err := l.RecordDocument(ctx, doc); err != nil {
			t.Fatalf("RecordDocument(%s): %v", doc.Filename, err)
		}
	}

	docs, err := l.ListByMessage(ctx, "1")
	if err != nil {
		t.Fatalf("ListByMessage: %v", err)
	}
	if len(docs) != 2 {
		t.Fatalf("ListByMessage(1) returned %d documents, want 2", len(docs))
	}
	for _, d := range docs {
		if d.MessageID != "1" {
			t.Errorf("got document for message %q, want only message 1", d.MessageID)
		}
	}

	none, err := l.ListByMessage(ctx, "404")
	if err != nil {
		t.Fatalf("ListByMessage(404): %v", err)
	}
	if len(none) != 0 {
		t.Errorf("ListByMessage(404) returned %d documents, want 0", len(none))
	}
}

func TestSQLiteLedger_RejectsIncompleteDocuments(t *testing.T) {
	l := newTestSQLiteLedger(t)
	ctx := context.Background()

	if err := l.RecordDocument(ctx, Document{Filename: "x.pdf"}); err == nil {
		t.Error("RecordDocument without message id: got nil error")
	}
	if err := l.RecordDocument(ctx, Document{MessageID: "5"}); err == nil {
		t.Error("RecordDocument without filename: got nil error")
	}
}

func TestSQLiteLedger_ReopenKeepsData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.db")
	ctx := context.Background()

	l, err := NewSQLiteLedger(path)
	if err != nil {
		t.Fatalf("NewSQLiteLedger: %v", err)
	}
	doc := Document{MessageID: "3", Source: SourceAttachment, Filename: "3-brief.pdf"}
	if err := l.RecordDocument(ctx, doc); err != nil {
		t.Fatalf("RecordDocument: %v", err)
	}
	if err := l.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	// Reopening must re-run migrations without error and keep the data.
	reopened, err := NewSQLiteLedger(path)
	if err != nil {
		t.Fatalf("NewSQLiteLedger reopen: %v", err)
	}
	defer reopened.Close()

	docs, err := reopened.ListByMessage(ctx, "3")
	if err != nil {
		t.Fatalf("ListByMessage after reopen: %v", err)
	}
	if len(docs) != 1 || docs[0].Filename != "3-brief.pdf" {
		t.Errorf("after reopen got %v, want the one recorded document", docs)
	}
}

func TestSQLiteLedger_Ping(t *testing.T) {
	l := newTestSQLiteLedger(t)
	if err := l.Ping(context.Background()); err != nil {
		t.Errorf("Ping: %v", err)
	}
}
