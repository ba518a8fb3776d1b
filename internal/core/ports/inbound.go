package ports

import (
	"context"
	"io"

	"github.com/antonkudrin/coverage-assistant/internal/core/domain"
)

// CoverageAnswerer is the top-level entry point: classify, fan out, merge.
type CoverageAnswerer interface {
	Answer(ctx context.Context, query domain.Query) (*domain.Decision, error)
}

// BillingLookup answers fee-schedule questions.
type BillingLookup interface {
	LookupBilling(ctx context.Context, query domain.Query) (*domain.BillingAnswer, error)
}

// DeviceLookup answers assistive-device funding questions.
type DeviceLookup interface {
	LookupDevice(ctx context.Context, query domain.Query) (*domain.DeviceAnswer, error)
}

// DrugLookup answers formulary questions.
type DrugLookup interface {
	LookupDrug(ctx context.Context, query domain.Query) (*domain.DrugAnswer, error)
}

// ChatService wraps coverage answers with guardrails and LLM phrasing.
type ChatService interface {
	Chat(ctx context.Context, query domain.Query) (*domain.ChatReply, error)
}

// DocumentIngestor accepts reference-document uploads.
type DocumentIngestor interface {
	Upload(ctx context.Context, filename, mimeType, corpus string, body io.Reader) (*domain.ReferenceDocument, error)
}

// DocumentProcessor handles asynchronous indexing of uploaded documents.
type DocumentProcessor interface {
	ProcessByID(ctx context.Context, documentID string) error
}

// DocumentReader is the read model for document metadata.
type DocumentReader interface {
	GetByID(ctx context.Context, id string) (*domain.ReferenceDocument, error)
}
