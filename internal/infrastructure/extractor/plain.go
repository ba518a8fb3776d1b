package extractor

import (
	"context"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/antonkudrin/coverage-assistant/internal/core/domain"
	"github.com/antonkudrin/coverage-assistant/internal/core/ports"
)

// PlainExtractor reads UTF-8 text files as-is.
type PlainExtractor struct {
	storage ports.ObjectStorage
}

func NewPlainExtractor(storage ports.ObjectStorage) *PlainExtractor {
	return &PlainExtractor{storage: storage}
}

func (e *PlainExtractor) Extract(ctx context.Context, doc *domain.ReferenceDocument) (string, error) {
	reader, err := e.storage.Open(ctx, doc.StoragePath)
	if err != nil {
		return "", fmt.Errorf("open source document: %w", err)
	}
	defer reader.Close()

	raw, err := io.ReadAll(reader)
	if err != nil {
		return "", fmt.Errorf("read source document: %w", err)
	}

	if !utf8.Valid(raw) {
		return "", fmt.Errorf("not a text file: %s", doc.Filename)
	}
	return strings.TrimSpace(string(raw)), nil
}
