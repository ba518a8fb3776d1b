package ports

import (
	"context"
	"io"

	"github.com/antonkudrin/coverage-assistant/internal/core/domain"
)

// StructuredStore answers exact-match queries over tabular coverage data.
// Implementations apply the query timeout themselves and classify faults into
// domain.ErrQueryTimeout / domain.ErrQueryFailure. No retries at this layer.
type StructuredStore interface {
	Query(ctx context.Context, q domain.StructuredQuery) ([]domain.StructuredHit, error)
}

// SemanticIndex searches embedded document chunks in a named collection.
// A missing collection yields an empty result, not an error.
type SemanticIndex interface {
	Search(ctx context.Context, q domain.SemanticQuery) ([]domain.SemanticHit, error)
}

// Embedder turns text into search vectors.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// AnswerGenerator phrases text with the LLM. Not used by the retrieval core.
type AnswerGenerator interface {
	GenerateFromPrompt(ctx context.Context, prompt string) (string, error)
	GenerateJSONFromPrompt(ctx context.Context, prompt string) (string, error)
}

// SafetyLevel is the closed outcome set of the safety classifier.
type SafetyLevel string

const (
	SafetyNone      SafetyLevel = "none"
	SafetyEmergency SafetyLevel = "emergency"
	SafetyCrisis    SafetyLevel = "crisis"
)

// SafetyClassifier screens free text before retrieval runs.
type SafetyClassifier interface {
	Classify(ctx context.Context, text string) (SafetyLevel, error)
}

// DocumentRepository persists reference-document state.
type DocumentRepository interface {
	Create(ctx context.Context, doc *domain.ReferenceDocument) error
	GetByID(ctx context.Context, id string) (*domain.ReferenceDocument, error)
	UpdateStatus(ctx context.Context, id string, status domain.DocumentStatus, errMessage string) error
}

// ObjectStorage stores uploaded source files.
type ObjectStorage interface {
	Save(ctx context.Context, key string, data io.Reader) error
	Open(ctx context.Context, key string) (io.ReadCloser, error)
}

// MessageQueue publishes/consumes reference-document ingestion events.
type MessageQueue interface {
	PublishDocumentIngested(ctx context.Context, documentID string) error
	SubscribeDocumentIngested(ctx context.Context, handler func(context.Context, string) error) error
}

// TextExtractor extracts plain text from a stored reference document.
type TextExtractor interface {
	Extract(ctx context.Context, doc *domain.ReferenceDocument) (string, error)
}

// Chunker splits extracted text into indexable chunks.
type Chunker interface {
	Split(text string) []string
}

// VectorIndexer writes embedded chunks into a collection.
type VectorIndexer interface {
	IndexChunks(ctx context.Context, collection string, doc *domain.ReferenceDocument, chunks []string, vectors [][]float32) error
}
