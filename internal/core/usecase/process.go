package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/antonkudrin/coverage-assistant/internal/core/domain"
	"github.com/antonkudrin/coverage-assistant/internal/core/ports"
)

// defaultEmbedWorkers bounds concurrent embed calls so a large manual does
// not flood the embedding service.
const defaultEmbedWorkers = 4

// embedBatchSize is how many chunks go into one embed request.
const embedBatchSize = 16

// ProcessDocumentUseCase is the worker side of ingestion: extract, chunk,
// embed, index into the corpus collection.
type ProcessDocumentUseCase struct {
	repo         ports.DocumentRepository
	extractor    ports.TextExtractor
	chunker      ports.Chunker
	embedder     ports.Embedder
	indexer      ports.VectorIndexer
	embedWorkers int
}

func NewProcessDocumentUseCase(
	repo ports.DocumentRepository,
	extractor ports.TextExtractor,
	chunker ports.Chunker,
	embedder ports.Embedder,
	indexer ports.VectorIndexer,
	embedWorkers int,
) *ProcessDocumentUseCase {
	if embedWorkers <= 0 {
		embedWorkers = defaultEmbedWorkers
	}
	return &ProcessDocumentUseCase{
		repo:         repo,
		extractor:    extractor,
		chunker:      chunker,
		embedder:     embedder,
		indexer:      indexer,
		embedWorkers: embedWorkers,
	}
}

func (uc *ProcessDocumentUseCase) ProcessByID(ctx context.Context, documentID string) error {
	if err := uc.repo.UpdateStatus(ctx, documentID, domain.StatusProcessing, ""); err != nil {
		return fmt.Errorf("set status=processing: %w", err)
	}

	if err := uc.pipeline(ctx, documentID); err != nil {
		if failErr := uc.repo.UpdateStatus(ctx, documentID, domain.StatusFailed, err.Error()); failErr != nil {
			return fmt.Errorf("%w; mark failed status: %v", err, failErr)
		}
		return err
	}

	if err := uc.repo.UpdateStatus(ctx, documentID, domain.StatusIndexed, ""); err != nil {
		return fmt.Errorf("set status=indexed: %w", err)
	}
	return nil
}

func (uc *ProcessDocumentUseCase) pipeline(ctx context.Context, documentID string) error {
	doc, err := uc.repo.GetByID(ctx, documentID)
	if err != nil {
		return fmt.Errorf("fetch document by id: %w", err)
	}

	text, err := uc.extractor.Extract(ctx, doc)
	if err != nil {
		return fmt.Errorf("extract text: %w", err)
	}
	if text == "" {
		return domain.WrapError(domain.ErrInvalidInput, "extract text", errors.New("empty extracted text"))
	}

	chunks := uc.chunker.Split(text)
	if len(chunks) == 0 {
		return domain.WrapError(domain.ErrInvalidInput, "chunk document", errors.New("chunking produced zero chunks"))
	}

	vectors, err := uc.embedChunks(ctx, chunks)
	if err != nil {
		return err
	}

	if err := uc.indexer.IndexChunks(ctx, doc.Corpus, doc, chunks, vectors); err != nil {
		return fmt.Errorf("index chunks: %w", err)
	}
	return nil
}

// embedChunks embeds chunk batches through a bounded worker pool, preserving
// chunk order in the output.
func (uc *ProcessDocumentUseCase) embedChunks(ctx context.Context, chunks []string) ([][]float32, error) {
	type batch struct {
		start int
		texts []string
	}

	batches := make([]batch, 0, len(chunks)/embedBatchSize+1)
	for start := 0; start < len(chunks); start += embedBatchSize {
		end := start + embedBatchSize
		if end > len(chunks) {
			end = len(chunks)
		}
		batches = append(batches, batch{start: start, texts: chunks[start:end]})
	}

	vectors := make([][]float32, len(chunks))
	sem := make(chan struct{}, uc.embedWorkers)
	errCh := make(chan error, len(batches))
	var wg sync.WaitGroup

	for _, b := range batches {
		wg.Add(1)
		go func(b batch) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			out, err := uc.embedder.Embed(ctx, b.texts)
			if err != nil {
				errCh <- fmt.Errorf("embed chunks [%d..%d): %w", b.start, b.start+len(b.texts), err)
				return
			}
			if len(out) != len(b.texts) {
				errCh <- fmt.Errorf("embed chunks: vectors/chunks mismatch: %d/%d", len(out), len(b.texts))
				return
			}
			for i, v := range out {
				vectors[b.start+i] = v
			}
		}(b)
	}
	wg.Wait()
	close(errCh)

	if err := <-errCh; err != nil {
		return nil, err
	}
	return vectors, nil
}
