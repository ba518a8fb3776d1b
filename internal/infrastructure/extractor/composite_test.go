package extractor

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"

	"github.com/antonkudrin/coverage-assistant/internal/core/domain"
	"github.com/antonkudrin/coverage-assistant/internal/core/ports"
)

type mapStorage map[string][]byte

func (m mapStorage) Save(_ context.Context, key string, data io.Reader) error {
	raw, err := io.ReadAll(data)
	if err != nil {
		return err
	}
	m[key] = raw
	return nil
}

func (m mapStorage) Open(_ context.Context, key string) (io.ReadCloser, error) {
	return io.NopCloser(bytes.NewReader(m[key])), nil
}

func TestCompositeRoutesByMimeType(t *testing.T) {
	c := NewComposite(mapStorage{})

	tests := []struct {
		mime     string
		filename string
		want     ports.TextExtractor
	}{
		{"application/pdf", "a.bin", c.pdf},
		{"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", "a.bin", c.excel},
		{"text/plain", "a.bin", c.plain},
		{"application/octet-stream", "manual.pdf", c.pdf},
		{"application/octet-stream", "formulary.xlsx", c.excel},
		{"application/octet-stream", "notes.txt", c.plain},
	}
	for _, tt := range tests {
		doc := &domain.ReferenceDocument{MimeType: tt.mime, Filename: tt.filename}
		if got := c.pick(doc); got != tt.want {
			t.Fatalf("pick(%q, %q) routed to wrong extractor", tt.mime, tt.filename)
		}
	}
}

func TestPlainExtractorTrimsText(t *testing.T) {
	storage := mapStorage{"key": []byte("  OHIP pays for one consultation per year.\n")}
	e := NewPlainExtractor(storage)

	text, err := e.Extract(context.Background(), &domain.ReferenceDocument{StoragePath: "key", Filename: "notes.txt"})
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if text != "OHIP pays for one consultation per year." {
		t.Fatalf("unexpected text: %q", text)
	}
}

func TestPlainExtractorRejectsBinary(t *testing.T) {
	storage := mapStorage{"key": {0xff, 0xfe, 0x00, 0x80}}
	e := NewPlainExtractor(storage)

	if _, err := e.Extract(context.Background(), &domain.ReferenceDocument{StoragePath: "key", Filename: "blob"}); err == nil {
		t.Fatalf("expected error for binary content")
	}
}

func TestExcelExtractorFlattensRows(t *testing.T) {
	f := excelize.NewFile()
	_ = f.SetCellValue("Sheet1", "A1", "Apo-Metformin")
	_ = f.SetCellValue("Sheet1", "B1", "8.25")
	_ = f.SetCellValue("Sheet1", "A2", "Glucophage")
	_ = f.SetCellValue("Sheet1", "B2", "15.50")

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		t.Fatalf("write workbook: %v", err)
	}

	storage := mapStorage{"key": buf.Bytes()}
	e := NewExcelExtractor(storage)
	text, err := e.Extract(context.Background(), &domain.ReferenceDocument{StoragePath: "key", Filename: "formulary.xlsx"})
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if !strings.Contains(text, "Apo-Metformin\t8.25") {
		t.Fatalf("expected tab-joined row, got %q", text)
	}
	if !strings.Contains(text, "Glucophage") {
		t.Fatalf("expected second row, got %q", text)
	}
}
