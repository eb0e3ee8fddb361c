package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
)

// ErrUnsupportedDocumentType marks MIME types the extraction boundary
// cannot turn into text
var ErrUnsupportedDocumentType = errors.New("unsupported document type for text extraction")

// TextExtractor turns an uploaded document into plain text. Extraction of
// binary formats (PDF, DOCX) happens in an external service behind this
// boundary; without text there is no analysis.
type TextExtractor interface {
	Extract(ctx context.Context, mimeType string, r io.Reader) (string, error)
	Supports(mimeType string) bool
}

// PlainTextExtractor handles text/* uploads natively
type PlainTextExtractor struct{}

// NewPlainTextExtractor creates a plain-text extractor
func NewPlainTextExtractor() *PlainTextExtractor {
	return &PlainTextExtractor{}
}

// Supports reports whether the MIME type can be extracted locally
func (e *PlainTextExtractor) Supports(mimeType string) bool {
	return strings.HasPrefix(mimeType, "text/")
}

// Extract reads the document body as UTF-8 text
func (e *PlainTextExtractor) Extract(ctx context.Context, mimeType string, r io.Reader) (string, error) {
	if !e.Supports(mimeType) {
		return "", fmt.Errorf("%w: %s", ErrUnsupportedDocumentType, mimeType)
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("failed to read document body: %w", err)
	}
	return string(data), nil
}
