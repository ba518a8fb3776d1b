package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/antonkudrin/coverage-assistant/internal/core/domain"
)

func TestRetrieveBothPathsSucceed(t *testing.T) {
	store := &fakeStore{hits: []domain.StructuredHit{feeHit("A005", 77.20)}}
	index := &fakeIndex{hits: []domain.SemanticHit{chunkHit("A005 is payable once per day.", "schedule.pdf")}}

	evidence, err := testRetriever(store, index).Retrieve(context.Background(),
		domain.StructuredQuery{Table: "fee_schedule", Filters: map[string]any{"code": "A005"}},
		domain.SemanticQuery{Text: "A005", Collection: domain.CorpusSchedule},
	)
	if err != nil {
		t.Fatalf("Retrieve() error = %v", err)
	}
	if !evidence.Provenance.Has(domain.PathStructured) || !evidence.Provenance.Has(domain.PathSemantic) {
		t.Fatalf("expected both paths in provenance, got %v", evidence.Provenance.Paths())
	}
	if len(evidence.Structured) != 1 || len(evidence.Semantic) != 1 {
		t.Fatalf("expected evidence from both paths, got %d/%d", len(evidence.Structured), len(evidence.Semantic))
	}
}

func TestRetrieveStructuredFailureDoesNotSurface(t *testing.T) {
	store := &fakeStore{err: domain.WrapError(domain.ErrQueryFailure, "structured query", errors.New("connection refused"))}
	index := &fakeIndex{hits: []domain.SemanticHit{chunkHit("related text", "schedule.pdf")}}

	evidence, err := testRetriever(store, index).Retrieve(context.Background(),
		domain.StructuredQuery{Table: "fee_schedule"},
		domain.SemanticQuery{Text: "A005", Collection: domain.CorpusSchedule},
	)
	if err != nil {
		t.Fatalf("single-path failure must not surface, got %v", err)
	}
	if evidence.Provenance.Has(domain.PathStructured) {
		t.Fatalf("failed path must not be marked in provenance")
	}
	if !evidence.Provenance.Has(domain.PathSemantic) {
		t.Fatalf("surviving path missing from provenance")
	}
	if evidence.Structured == nil || len(evidence.Structured) != 0 {
		t.Fatalf("expected empty structured slice, got %v", evidence.Structured)
	}
}

func TestRetrieveSemanticFailureDoesNotSurface(t *testing.T) {
	store := &fakeStore{hits: []domain.StructuredHit{feeHit("A005", 77.20)}}
	index := &fakeIndex{err: domain.WrapError(domain.ErrQueryTimeout, "semantic search", context.DeadlineExceeded)}

	evidence, err := testRetriever(store, index).Retrieve(context.Background(),
		domain.StructuredQuery{Table: "fee_schedule"},
		domain.SemanticQuery{Text: "A005", Collection: domain.CorpusSchedule},
	)
	if err != nil {
		t.Fatalf("single-path failure must not surface, got %v", err)
	}
	if evidence.Provenance.Has(domain.PathSemantic) {
		t.Fatalf("failed path must not be marked in provenance")
	}
	if len(evidence.Structured) != 1 {
		t.Fatalf("structured evidence lost: %v", evidence.Structured)
	}
}

func TestRetrieveBothPathsFailed(t *testing.T) {
	store := &fakeStore{err: domain.WrapError(domain.ErrQueryFailure, "structured query", errors.New("down"))}
	index := &fakeIndex{err: domain.WrapError(domain.ErrQueryTimeout, "semantic search", context.DeadlineExceeded)}

	evidence, err := testRetriever(store, index).Retrieve(context.Background(),
		domain.StructuredQuery{Table: "fee_schedule"},
		domain.SemanticQuery{Text: "A005", Collection: domain.CorpusSchedule},
	)
	if !domain.IsKind(err, domain.ErrBothPathsFailed) {
		t.Fatalf("expected ErrBothPathsFailed, got %v", err)
	}
	if evidence == nil {
		t.Fatalf("evidence must still be returned on total failure")
	}
	if len(evidence.Provenance.Paths()) != 0 {
		t.Fatalf("expected empty provenance, got %v", evidence.Provenance.Paths())
	}
}

func TestRetrieveZeroRowsStillCountsAsSuccess(t *testing.T) {
	store := &fakeStore{hits: []domain.StructuredHit{}}
	index := &fakeIndex{hits: []domain.SemanticHit{}}

	evidence, err := testRetriever(store, index).Retrieve(context.Background(),
		domain.StructuredQuery{Table: "odb_formulary"},
		domain.SemanticQuery{Text: "unknown drug", Collection: domain.CorpusFormulary},
	)
	if err != nil {
		t.Fatalf("Retrieve() error = %v", err)
	}
	if !evidence.Provenance.Has(domain.PathStructured) || !evidence.Provenance.Has(domain.PathSemantic) {
		t.Fatalf("zero rows must still mark the path as succeeded, got %v", evidence.Provenance.Paths())
	}
}

func TestRetrieveAppliesTunedDefaults(t *testing.T) {
	store := &fakeStore{}
	index := &fakeIndex{}
	retriever := testRetriever(store, index).Tune(2*time.Second, 3*time.Second, 7)

	_, err := retriever.Retrieve(context.Background(),
		domain.StructuredQuery{Table: "fee_schedule"},
		domain.SemanticQuery{Text: "q", Collection: domain.CorpusSchedule},
	)
	if err != nil {
		t.Fatalf("Retrieve() error = %v", err)
	}
	if store.got.Timeout != 2*time.Second {
		t.Fatalf("structured timeout = %v, want 2s", store.got.Timeout)
	}
	if index.got.Timeout != 3*time.Second {
		t.Fatalf("semantic timeout = %v, want 3s", index.got.Timeout)
	}
	if index.got.TopK != 7 {
		t.Fatalf("top k = %d, want 7", index.got.TopK)
	}
}

func TestRetrieveKeepsExplicitQueryValues(t *testing.T) {
	store := &fakeStore{}
	index := &fakeIndex{}
	retriever := testRetriever(store, index).Tune(2*time.Second, 3*time.Second, 7)

	_, err := retriever.Retrieve(context.Background(),
		domain.StructuredQuery{Table: "fee_schedule", Timeout: 100 * time.Millisecond},
		domain.SemanticQuery{Text: "q", Collection: domain.CorpusSchedule, TopK: 2, Timeout: 150 * time.Millisecond},
	)
	if err != nil {
		t.Fatalf("Retrieve() error = %v", err)
	}
	if store.got.Timeout != 100*time.Millisecond {
		t.Fatalf("explicit structured timeout overridden: %v", store.got.Timeout)
	}
	if index.got.TopK != 2 || index.got.Timeout != 150*time.Millisecond {
		t.Fatalf("explicit semantic settings overridden: %+v", index.got)
	}
}

func TestRetrieveFallsBackToDomainDefaults(t *testing.T) {
	store := &fakeStore{}
	index := &fakeIndex{}

	_, err := testRetriever(store, index).Retrieve(context.Background(),
		domain.StructuredQuery{Table: "fee_schedule"},
		domain.SemanticQuery{Text: "q", Collection: domain.CorpusSchedule},
	)
	if err != nil {
		t.Fatalf("Retrieve() error = %v", err)
	}
	if store.got.Timeout != domain.DefaultStructuredTimeout {
		t.Fatalf("structured timeout = %v, want default", store.got.Timeout)
	}
	if index.got.Timeout != domain.DefaultSemanticTimeout {
		t.Fatalf("semantic timeout = %v, want default", index.got.Timeout)
	}
}
