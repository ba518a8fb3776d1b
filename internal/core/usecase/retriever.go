package usecase

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/antonkudrin/coverage-assistant/internal/core/domain"
	"github.com/antonkudrin/coverage-assistant/internal/core/ports"
)

// DualPathRetriever runs one structured query and one semantic search
// concurrently and merges them only after both have resolved. Both paths are
// always attempted: a strong structured hit still wants narrative
// corroboration, and vice versa.
type DualPathRetriever struct {
	store ports.StructuredStore
	index ports.SemanticIndex

	structuredTimeout time.Duration
	semanticTimeout   time.Duration
	topK              int
}

func NewDualPathRetriever(store ports.StructuredStore, index ports.SemanticIndex) *DualPathRetriever {
	return &DualPathRetriever{
		store: store,
		index: index,
	}
}

// Tune overrides the per-path timeouts and the semantic depth. Zero values
// keep the domain defaults; callers that never Tune get those defaults too.
func (r *DualPathRetriever) Tune(structuredTimeout, semanticTimeout time.Duration, topK int) *DualPathRetriever {
	r.structuredTimeout = structuredTimeout
	r.semanticTimeout = semanticTimeout
	r.topK = topK
	return r
}

// Retrieve launches both paths, waits for both, and folds per-path failures
// into Provenance. A single-path failure never surfaces as an error; only
// when both paths fail does it return domain.ErrBothPathsFailed alongside the
// (empty) evidence.
func (r *DualPathRetriever) Retrieve(
	ctx context.Context,
	structured domain.StructuredQuery,
	semantic domain.SemanticQuery,
) (*domain.Evidence, error) {
	if structured.Timeout <= 0 {
		structured.Timeout = r.structuredTimeout
	}
	if structured.Timeout <= 0 {
		structured.Timeout = domain.DefaultStructuredTimeout
	}
	if semantic.Timeout <= 0 {
		semantic.Timeout = r.semanticTimeout
	}
	if semantic.Timeout <= 0 {
		semantic.Timeout = domain.DefaultSemanticTimeout
	}
	if semantic.TopK <= 0 {
		semantic.TopK = r.topK
	}

	var (
		wg            sync.WaitGroup
		structuredOut []domain.StructuredHit
		semanticOut   []domain.SemanticHit
		structuredErr error
		semanticErr   error
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		structuredOut, structuredErr = r.store.Query(ctx, structured)
	}()
	go func() {
		defer wg.Done()
		semanticOut, semanticErr = r.index.Search(ctx, semantic)
	}()
	wg.Wait()

	evidence := &domain.Evidence{
		Provenance: make(domain.Provenance, 2),
		Structured: []domain.StructuredHit{},
		Semantic:   []domain.SemanticHit{},
	}

	// Zero rows with no error still counts as a succeeded path: "we asked
	// and found nothing" is evidence, "we couldn't ask" is not.
	if structuredErr != nil {
		slog.Warn("structured_path_failed",
			"table", structured.Table,
			"timeout", domain.IsKind(structuredErr, domain.ErrQueryTimeout),
			"error", structuredErr,
		)
	} else {
		evidence.Provenance.Mark(domain.PathStructured)
		evidence.Structured = structuredOut
	}

	if semanticErr != nil {
		slog.Warn("semantic_path_failed",
			"collection", semantic.Collection,
			"timeout", domain.IsKind(semanticErr, domain.ErrQueryTimeout),
			"error", semanticErr,
		)
	} else {
		evidence.Provenance.Mark(domain.PathSemantic)
		evidence.Semantic = semanticOut
	}

	if structuredErr != nil && semanticErr != nil {
		return evidence, domain.WrapError(domain.ErrBothPathsFailed, "dual-path retrieve", structuredErr)
	}
	return evidence, nil
}
