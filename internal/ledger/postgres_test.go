//go:build integration

package ledger_test

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/pleadbot/mail-intake/internal/ledger"
)

var (
	sharedLedger *ledger.PostgresLedger
	pgContainer  testcontainers.Container
)

// TestMain sets up a shared PostgreSQL container for all integration tests.
func TestMain(m *testing.M) {
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "postgres:15-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "test",
			"POSTGRES_PASSWORD": "test",
			"POSTGRES_DB":       "test",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(60 * time.Second),
	}

	var err error
	pgContainer, err = testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to start postgres container: %v\n", err)
		os.Exit(1)
	}

	host, err := pgContainer.Host(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to get container host: %v\n", err)
		os.Exit(1)
	}

	port, err := pgContainer.MappedPort(ctx, "5432")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to get container port: %v\n", err)
		os.Exit(1)
	}

	dsn := fmt.Sprintf("postgres://test:test@%s:%s/test?sslmode=disable", host, port.Port())

	// NewPostgresLedger creates the schema on connect.
	sharedLedger, err = ledger.NewPostgresLedger(ctx, ledger.Config{
		URL:            dsn,
		PoolMin:        2,
		PoolMax:        10,
		ConnectTimeout: 10 * time.Second,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create ledger: %v\n", err)
		os.Exit(1)
	}

	code := m.Run()

	// Cleanup
	sharedLedger.Close()
	if err := pgContainer.Terminate(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "failed to terminate container: %v\n", err)
	}

	os.Exit(code)
}

func TestPostgresLedger_RecordAndList(t *testing.T) {
	ctx := context.Background()

	t1 := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	docs := []ledger.Document{
		{
			MessageID:  "pg-17",
			Sender:     "clerk@court.example.com",
			Source:     ledger.SourceAttachment,
			Filename:   "17-complaint.pdf",
			Size:       2048,
			SHA256:     "abc123",
			ReceivedAt: t1,
		},
		{
			MessageID:  "pg-17",
			Source:     ledger.SourceHTMLLink,
			Filename:   "17-exhibit-a.pdf",
			SourceURL:  "https://court.example.com/docs/exhibit-a.pdf",
			ReceivedAt: t1.Add(1 * time.Minute),
		},
	}
	for _, d := range docs {
		if err := sharedLedger.RecordDocument(ctx, d); err != nil {
			t.Fatalf("RecordDocument(%s): %v", d.Filename, err)
		}
	}

	got, err := sharedLedger.ListByMessage(ctx, "pg-17")
	if err != nil {
		t.Fatalf("ListByMessage: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("ListByMessage returned %d documents, want 2", len(got))
	}
	if got[0].Filename != "17-complaint.pdf" || got[1].Filename != "17-exhibit-a.pdf" {
		t.Errorf("documents out of order: %q, %q", got[0].Filename, got[1].Filename)
	}
	if got[0].Status != ledger.StatusNew {
		t.Errorf("Status = %q, want %q", got[0].Status, ledger.StatusNew)
	}
	if got[0].ID == "" {
		t.Error("recorded document has empty ID, want generated UUID")
	}
}

func TestPostgresLedger_ListUnknownMessage(t *testing.T) {
	ctx := context.Background()

	got, err := sharedLedger.ListByMessage(ctx, "pg-unknown")
	if err != nil {
		t.Fatalf("ListByMessage: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("ListByMessage(pg-unknown) returned %d documents, want 0", len(got))
	}
}

func TestPostgresLedger_Ping(t *testing.T) {
	if err := sharedLedger.Ping(context.Background()); err != nil {
		t.Errorf("Ping: %v", err)
	}
}
