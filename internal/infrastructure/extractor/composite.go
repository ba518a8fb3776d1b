package extractor

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/antonkudrin/coverage-assistant/internal/core/domain"
	"github.com/antonkudrin/coverage-assistant/internal/core/ports"
)

// Composite routes extraction by MIME type, falling back to the filename
// extension when the upload carried a generic type.
type Composite struct {
	plain ports.TextExtractor
	pdf   ports.TextExtractor
	excel ports.TextExtractor
}

func NewComposite(storage ports.ObjectStorage) *Composite {
	return &Composite{
		plain: NewPlainExtractor(storage),
		pdf:   NewPDFExtractor(storage),
		excel: NewExcelExtractor(storage),
	}
}

func (c *Composite) Extract(ctx context.Context, doc *domain.ReferenceDocument) (string, error) {
	return c.pick(doc).Extract(ctx, doc)
}

func (c *Composite) pick(doc *domain.ReferenceDocument) ports.TextExtractor {
	mime := strings.ToLower(strings.TrimSpace(doc.MimeType))
	switch {
	case mime == "application/pdf":
		return c.pdf
	case strings.Contains(mime, "spreadsheet"), mime == "application/vnd.ms-excel":
		return c.excel
	case strings.HasPrefix(mime, "text/"):
		return c.plain
	}

	switch strings.ToLower(filepath.Ext(doc.Filename)) {
	case ".pdf":
		return c.pdf
	case ".xlsx", ".xls":
		return c.excel
	}
	return c.plain
}
