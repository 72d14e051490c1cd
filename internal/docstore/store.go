// Package docstore provides storage backends for extracted pleading documents.
package docstore

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
)

// ErrNotFound is returned when a requested document does not exist.
var ErrNotFound = errors.New("docstore: document not found")

// ErrUnsafeName is returned when a document name contains path separators
// or traversal sequences. Names are derived from untrusted mail headers,
// so both backends reject anything that could escape the document root.
var ErrUnsafeName = errors.New("docstore: unsafe document name")

// Store defines the interface for document storage backends.
type Store interface {
	Put(ctx context.Context, name string, data []byte) error
	Get(ctx context.Context, name string) ([]byte, error)
}

// Config holds configuration for creating a Store.
type Config struct {
	Type       string // "local" or "s3"
	Path       string // base directory for local store
	S3Bucket   string
	S3Prefix   string
	S3Endpoint string
	S3Region   string
}

// New creates a Store based on the provided configuration.
// If Type is empty or unsupported, it defaults to local storage and logs a warning.
func New(cfg Config, logger zerolog.Logger) (Store, error) {
	switch cfg.Type {
	case "local":
		return NewLocalStore(cfg.Path)
	case "s3":
		return NewS3StoreFromConfig(cfg)
	default:
		logger.Warn().
			Str("type", cfg.Type).
			Msg("unsupported or empty store type, defaulting to local")
		return NewLocalStore(cfg.Path)
	}
}

// validateName rejects document names that could resolve outside the
// storage root: empty names, path separators, and ".." sequences.
func validateName(name string) error {
	if name == "" {
		return fmt.Errorf("%w: empty name", ErrUnsafeName)
	}
	if strings.ContainsAny(name, `/\`) {
		return fmt.Errorf("%w: %q contains a path separator", ErrUnsafeName, name)
	}
	if strings.Contains(name, "..") {
		return fmt.Errorf("%w: %q contains a traversal sequence", ErrUnsafeName, name)
	}
	return nil
}
