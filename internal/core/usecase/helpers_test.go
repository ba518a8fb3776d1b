package usecase

import (
	"context"
	"testing"

	"github.com/antonkudrin/coverage-assistant/internal/core/domain"
)

type fakeStore struct {
	hits []domain.StructuredHit
	err  error
	got  domain.StructuredQuery
}

func (f *fakeStore) Query(_ context.Context, q domain.StructuredQuery) ([]domain.StructuredHit, error) {
	f.got = q
	return f.hits, f.err
}

type fakeIndex struct {
	hits []domain.SemanticHit
	err  error
	got  domain.SemanticQuery
}

func (f *fakeIndex) Search(_ context.Context, q domain.SemanticQuery) ([]domain.SemanticHit, error) {
	f.got = q
	return f.hits, f.err
}

func testRules(t *testing.T) Rules {
	t.Helper()
	rules, err := LoadRules()
	if err != nil {
		t.Fatalf("load rules: %v", err)
	}
	return rules
}

func testRetriever(store *fakeStore, index *fakeIndex) *DualPathRetriever {
	return NewDualPathRetriever(store, index)
}

func feeHit(code string, fee float64) domain.StructuredHit {
	return domain.StructuredHit{
		Table: "fee_schedule",
		RowID: "row-" + code,
		Fields: map[string]any{
			"code":        code,
			"description": "intermediate assessment",
			"fee":         fee,
			"specialty":   "family medicine",
		},
	}
}

func chunkHit(text, source string) domain.SemanticHit {
	return domain.SemanticHit{
		Text:     text,
		Source:   source,
		Page:     3,
		Distance: 0.12,
	}
}
