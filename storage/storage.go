package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// DocumentStore persists uploaded document bodies. The database keeps the
// metadata and extracted text; the raw bytes live behind this interface.
type DocumentStore interface {
	// Store writes a document body and returns its storage path
	Store(ctx context.Context, docID uuid.UUID, filename string, body io.Reader) (string, error)

	// Open retrieves a document body by storage path
	Open(ctx context.Context, storagePath string) (io.ReadCloser, error)

	// Delete removes a document body by storage path
	Delete(ctx context.Context, storagePath string) error
}

// BackendType selects the storage backend
type BackendType string

const (
	BackendLocal BackendType = "local"
	BackendS3    BackendType = "s3"
)

// Config holds document store configuration
type Config struct {
	Backend      BackendType
	LocalPath    string
	S3Bucket     string
	S3Region     string
	AWSAccessKey string
	AWSSecretKey string
}

// New creates a document store for the configured backend
func New(cfg Config) (DocumentStore, error) {
	switch cfg.Backend {
	case BackendLocal:
		return NewLocalStore(cfg.LocalPath)
	case BackendS3:
		return NewS3Store(cfg)
	default:
		return nil, fmt.Errorf("unknown storage backend: %s", cfg.Backend)
	}
}

// NewFromEnv creates a document store from environment variables.
// Defaults to local storage for development.
func NewFromEnv() (DocumentStore, error) {
	backend := os.Getenv("STORAGE_TYPE")
	if backend == "" {
		backend = "local"
	}

	cfg := Config{Backend: BackendType(backend)}

	switch cfg.Backend {
	case BackendLocal:
		cfg.LocalPath = os.Getenv("STORAGE_LOCAL_PATH")
		if cfg.LocalPath == "" {
			cfg.LocalPath = "./storage/documents"
		}
		return NewLocalStore(cfg.LocalPath)

	case BackendS3:
		cfg.S3Bucket = os.Getenv("AWS_S3_BUCKET")
		cfg.S3Region = os.Getenv("AWS_REGION")
		if cfg.S3Region == "" {
			cfg.S3Region = "us-east-1"
		}
		cfg.AWSAccessKey = os.Getenv("AWS_ACCESS_KEY_ID")
		cfg.AWSSecretKey = os.Getenv("AWS_SECRET_ACCESS_KEY")

		if cfg.S3Bucket == "" {
			return nil, errors.New("AWS_S3_BUCKET environment variable is required for S3 storage")
		}
		return NewS3Store(cfg)

	default:
		return nil, fmt.Errorf("unknown storage backend: %s", backend)
	}
}

// documentPath builds a unique storage path. The two-character prefix
// spreads objects across directories/key prefixes.
func documentPath(docID uuid.UUID, filename string) string {
	ext := filepath.Ext(filename)
	base := strings.TrimSuffix(filepath.Base(filename), ext)
	base = strings.Map(func(r rune) rune {
		switch r {
		case ' ', '/', '\\':
			return '_'
		}
		return r
	}, base)

	id := docID.String()
	return fmt.Sprintf("%s/%s_%s%s", id[:2], id, base, ext)
}

// contentTypeFor resolves a MIME type from the filename extension
func contentTypeFor(filename string) string {
	if ct := mime.TypeByExtension(filepath.Ext(filename)); ct != "" {
		return ct
	}
	return "application/octet-stream"
}
