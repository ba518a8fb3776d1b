package qdrant

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/antonkudrin/coverage-assistant/internal/core/domain"
)

type fixedEmbedder struct {
	vector []float32
	err    error
}

func (e fixedEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	if e.err != nil {
		return nil, e.err
	}
	out := make([][]float32, len(texts))
	for i := range out {
		out[i] = e.vector
	}
	return out, nil
}

func (e fixedEmbedder) EmbedQuery(context.Context, string) ([]float32, error) {
	return e.vector, e.err
}

func TestSearchConvertsScoreToDistance(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost && r.URL.Path == "/collections/schedule_of_benefits/points/search" {
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte(`{"result":[
				{"score":0.92,"payload":{"text":"A005 consultation","source":"schedule.pdf","page":12}},
				{"score":1.0001,"payload":{"text":"exact","source":"schedule.pdf"}}
			]}`))
			return
		}
		http.NotFound(w, r)
	}))
	defer server.Close()

	index := NewIndex(NewClient(server.URL), fixedEmbedder{vector: []float32{0.1, 0.2}})
	hits, err := index.Search(context.Background(), domain.SemanticQuery{
		Text:       "consultation fee",
		Collection: domain.CorpusSchedule,
		TopK:       5,
	})
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(hits) != 2 {
		t.Fatalf("expected 2 hits, got %d", len(hits))
	}
	if got := hits[0].Distance; got < 0.0799 || got > 0.0801 {
		t.Fatalf("expected distance ~0.08, got %v", got)
	}
	if hits[1].Distance != 0 {
		t.Fatalf("expected clamped zero distance, got %v", hits[1].Distance)
	}
	if hits[0].Page != 12 {
		t.Fatalf("expected page 12, got %d", hits[0].Page)
	}
}

func TestSearchMissingCollectionYieldsEmptyResult(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer server.Close()

	index := NewIndex(NewClient(server.URL), fixedEmbedder{vector: []float32{0.1}})
	hits, err := index.Search(context.Background(), domain.SemanticQuery{
		Text:       "anything",
		Collection: "never_indexed",
	})
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(hits) != 0 {
		t.Fatalf("expected empty result, got %d hits", len(hits))
	}
}

func TestSearchServerFaultIsQueryFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer server.Close()

	index := NewIndex(NewClient(server.URL), fixedEmbedder{vector: []float32{0.1}})
	_, err := index.Search(context.Background(), domain.SemanticQuery{
		Text:       "anything",
		Collection: domain.CorpusADP,
	})
	if err == nil {
		t.Fatalf("expected error")
	}
	if !domain.IsKind(err, domain.ErrQueryFailure) {
		t.Fatalf("expected ErrQueryFailure, got %v", err)
	}
}

func TestSearchEmbedFailureIsQueryFailure(t *testing.T) {
	index := NewIndex(NewClient("http://unused"), fixedEmbedder{err: context.Canceled})
	_, err := index.Search(context.Background(), domain.SemanticQuery{
		Text:       "anything",
		Collection: domain.CorpusFormulary,
	})
	if err == nil {
		t.Fatalf("expected error")
	}
	if !domain.IsKind(err, domain.ErrQueryFailure) {
		t.Fatalf("expected ErrQueryFailure, got %v", err)
	}
}

func TestIndexChunksEnsuresEachCollectionOnce(t *testing.T) {
	var ensureCalls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodPut && r.URL.Path == "/collections/adp_manuals":
			atomic.AddInt32(&ensureCalls, 1)
			w.WriteHeader(http.StatusCreated)
		case r.Method == http.MethodPut && r.URL.Path == "/collections/adp_manuals/points":
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte(`{"status":"ok"}`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	indexer := NewIndexer(NewClient(server.URL))
	doc := &domain.ReferenceDocument{ID: "doc-1", Filename: "adp_manual.pdf", Corpus: domain.CorpusADP}
	chunks := []string{"a", "b"}
	vectors := [][]float32{{0.1, 0.2}, {0.3, 0.4}}

	if err := indexer.IndexChunks(context.Background(), domain.CorpusADP, doc, chunks, vectors); err != nil {
		t.Fatalf("first IndexChunks() error = %v", err)
	}
	if err := indexer.IndexChunks(context.Background(), domain.CorpusADP, doc, chunks, vectors); err != nil {
		t.Fatalf("second IndexChunks() error = %v", err)
	}
	if got := atomic.LoadInt32(&ensureCalls); got != 1 {
		t.Fatalf("expected ensure collection called once, got %d", got)
	}
}

func TestEnsureCollectionIncludesResponseBodyInError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPut && r.URL.Path == "/collections/odb_formulary" {
			http.Error(w, "boom", http.StatusInternalServerError)
			return
		}
		http.NotFound(w, r)
	}))
	defer server.Close()

	indexer := NewIndexer(NewClient(server.URL))
	doc := &domain.ReferenceDocument{ID: "doc-1", Filename: "formulary.xlsx", Corpus: domain.CorpusFormulary}
	err := indexer.IndexChunks(context.Background(), domain.CorpusFormulary, doc, []string{"a"}, [][]float32{{0.1, 0.2}})
	if err == nil {
		t.Fatalf("expected error")
	}
	if !strings.Contains(err.Error(), "boom") {
		t.Fatalf("expected error to include body, got %v", err)
	}
}
