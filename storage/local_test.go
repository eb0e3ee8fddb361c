package storage

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/google/uuid"
)

func TestLocalStoreRoundTrip(t *testing.T) {
	store, err := NewLocalStore(t.TempDir())
	if err != nil {
		t.Fatalf("new store: %v", err)
	}

	ctx := context.Background()
	docID := uuid.New()

	path, err := store.Store(ctx, docID, "iep report.txt", strings.NewReader("document body"))
	if err != nil {
		t.Fatalf("store: %v", err)
	}
	if !strings.Contains(path, docID.String()) {
		t.Fatalf("path %q missing document id", path)
	}
	if strings.Contains(path, " ") {
		t.Fatalf("path %q contains whitespace", path)
	}

	r, err := store.Open(ctx, path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer r.Close()

	body, err := io.ReadAll(r)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(body) != "document body" {
		t.Fatalf("got %q", body)
	}
}

func TestLocalStoreOpenMissing(t *testing.T) {
	store, err := NewLocalStore(t.TempDir())
	if err != nil {
		t.Fatalf("new store: %v", err)
	}

	if _, err := store.Open(context.Background(), "ab/nope.txt"); err == nil {
		t.Fatalf("expected error for missing document")
	}
}

func TestLocalStoreDeleteIdempotent(t *testing.T) {
	store, err := NewLocalStore(t.TempDir())
	if err != nil {
		t.Fatalf("new store: %v", err)
	}

	ctx := context.Background()
	path, err := store.Store(ctx, uuid.New(), "a.txt", strings.NewReader("x"))
	if err != nil {
		t.Fatalf("store: %v", err)
	}

	if err := store.Delete(ctx, path); err != nil {
		t.Fatalf("delete: %v", err)
	}
	// second delete of the same path is not an error
	if err := store.Delete(ctx, path); err != nil {
		t.Fatalf("repeat delete: %v", err)
	}
}

func TestDocumentPathSanitizes(t *testing.T) {
	id := uuid.MustParse("aabbccdd-0000-0000-0000-000000000000")
	path := documentPath(id, "my iep/plan.txt")

	if !strings.HasPrefix(path, "aa/") {
		t.Fatalf("path %q missing shard prefix", path)
	}
	if strings.ContainsAny(path, " \\") {
		t.Fatalf("path %q not sanitized", path)
	}
	if !strings.HasSuffix(path, ".txt") {
		t.Fatalf("path %q lost extension", path)
	}
}
