package extractor

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/antonkudrin/coverage-assistant/internal/core/domain"
	"github.com/antonkudrin/coverage-assistant/internal/core/ports"
)

// PDFExtractor pulls plain text out of PDF manuals page by page. Pages that
// fail to decode are skipped; the document fails only when nothing decodes.
type PDFExtractor struct {
	storage ports.ObjectStorage
}

func NewPDFExtractor(storage ports.ObjectStorage) *PDFExtractor {
	return &PDFExtractor{storage: storage}
}

func (e *PDFExtractor) Extract(ctx context.Context, doc *domain.ReferenceDocument) (string, error) {
	reader, err := e.storage.Open(ctx, doc.StoragePath)
	if err != nil {
		return "", fmt.Errorf("open source document: %w", err)
	}
	defer reader.Close()

	raw, err := io.ReadAll(reader)
	if err != nil {
		return "", fmt.Errorf("read source document: %w", err)
	}

	r, err := pdf.NewReader(bytes.NewReader(raw), int64(len(raw)))
	if err != nil {
		return "", fmt.Errorf("parse pdf: %w", err)
	}

	var b strings.Builder
	decoded := 0
	for i := 1; i <= r.NumPage(); i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		text = strings.TrimSpace(text)
		if text == "" {
			continue
		}
		if b.Len() > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(text)
		decoded++
	}

	if decoded == 0 {
		return "", fmt.Errorf("no extractable text in pdf: %s", doc.Filename)
	}
	return b.String(), nil
}
