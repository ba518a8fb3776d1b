package memoryindex

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/antonkudrin/coverage-assistant/internal/core/domain"
	"github.com/antonkudrin/coverage-assistant/internal/core/ports"
)

const defaultTopK = 5

type storedChunk struct {
	hit    domain.SemanticHit
	vector []float32
}

// Index is an in-memory vector index for local development and tests. It
// backs both the search and indexing ports with naive cosine scoring.
type Index struct {
	embedder ports.Embedder

	mu          sync.RWMutex
	collections map[string][]storedChunk
}

func New(embedder ports.Embedder) *Index {
	return &Index{
		embedder:    embedder,
		collections: make(map[string][]storedChunk),
	}
}

func (ix *Index) Search(ctx context.Context, q domain.SemanticQuery) ([]domain.SemanticHit, error) {
	vector, err := ix.embedder.EmbedQuery(ctx, q.Text)
	if err != nil {
		return nil, domain.WrapError(domain.ErrQueryFailure, "embed query", err)
	}

	ix.mu.RLock()
	chunks := ix.collections[q.Collection]
	ix.mu.RUnlock()
	if len(chunks) == 0 {
		return []domain.SemanticHit{}, nil
	}

	topK := q.TopK
	if topK <= 0 {
		topK = defaultTopK
	}

	hits := make([]domain.SemanticHit, 0, len(chunks))
	for _, c := range chunks {
		hit := c.hit
		hit.Distance = cosineDistance(vector, c.vector)
		hits = append(hits, hit)
	}
	sort.SliceStable(hits, func(i, j int) bool {
		return hits[i].Distance < hits[j].Distance
	})
	if len(hits) > topK {
		hits = hits[:topK]
	}
	return hits, nil
}

func (ix *Index) IndexChunks(
	_ context.Context,
	collection string,
	doc *domain.ReferenceDocument,
	chunks []string,
	vectors [][]float32,
) error {
	if len(chunks) != len(vectors) {
		return fmt.Errorf("chunks/vectors mismatch: %d/%d", len(chunks), len(vectors))
	}

	stored := make([]storedChunk, 0, len(chunks))
	for i := range chunks {
		stored = append(stored, storedChunk{
			hit: domain.SemanticHit{
				Text:   chunks[i],
				Source: doc.Filename,
			},
			vector: vectors[i],
		})
	}

	ix.mu.Lock()
	ix.collections[collection] = append(ix.collections[collection], stored...)
	ix.mu.Unlock()
	return nil
}

func cosineDistance(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 1
	}
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 1
	}
	d := 1 - dot/(math.Sqrt(na)*math.Sqrt(nb))
	if d < 0 {
		return 0
	}
	return d
}
