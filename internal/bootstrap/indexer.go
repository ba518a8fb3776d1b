package bootstrap

import (
	"context"

	"github.com/antonkudrin/coverage-assistant/internal/core/domain"
	"github.com/antonkudrin/coverage-assistant/internal/core/ports"
	"github.com/antonkudrin/coverage-assistant/internal/observability/metrics"
)

// observedIndexer records how many chunks each document contributed to its
// corpus collection, then delegates to the real indexer.
type observedIndexer struct {
	next    ports.VectorIndexer
	metrics *metrics.WorkerMetrics
	service string
}

func (o *observedIndexer) IndexChunks(
	ctx context.Context,
	collection string,
	doc *domain.ReferenceDocument,
	chunks []string,
	vectors [][]float32,
) error {
	if err := o.next.IndexChunks(ctx, collection, doc, chunks, vectors); err != nil {
		return err
	}
	o.metrics.ObserveIndexedChunks(o.service, collection, len(chunks))
	return nil
}
