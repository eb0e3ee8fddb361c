package service

import (
	"context"
	"errors"
	"strings"
	"testing"
)

func TestPlainTextExtractorSupports(t *testing.T) {
	e := NewPlainTextExtractor()

	if !e.Supports("text/plain") || !e.Supports("text/markdown") {
		t.Fatalf("text/* types should be supported")
	}
	if e.Supports("application/pdf") {
		t.Fatalf("application/pdf should not be supported")
	}
}

func TestPlainTextExtractorExtract(t *testing.T) {
	e := NewPlainTextExtractor()

	got, err := e.Extract(context.Background(), "text/plain", strings.NewReader("IEP content"))
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if got != "IEP content" {
		t.Fatalf("got %q", got)
	}
}

func TestPlainTextExtractorRejectsBinary(t *testing.T) {
	e := NewPlainTextExtractor()

	_, err := e.Extract(context.Background(), "application/pdf", strings.NewReader("%PDF"))
	if !errors.Is(err, ErrUnsupportedDocumentType) {
		t.Fatalf("err = %v, want ErrUnsupportedDocumentType", err)
	}
}
