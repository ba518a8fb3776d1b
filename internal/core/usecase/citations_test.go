package usecase

import (
	"strings"
	"testing"

	"github.com/antonkudrin/coverage-assistant/internal/core/domain"
)

func TestDedupeCitationsKeepsFirstOccurrence(t *testing.T) {
	in := []domain.Citation{
		{Source: "fee_schedule", Location: "row 1", Snippet: "first"},
		{Source: "fee_schedule", Location: "row 2"},
		{Source: "fee_schedule", Location: "row 1", Snippet: "second"},
	}
	out := dedupeCitations(in)
	if len(out) != 2 {
		t.Fatalf("expected 2 citations, got %d", len(out))
	}
	if out[0].Snippet != "first" {
		t.Fatalf("first occurrence must win, got %+v", out[0])
	}
}

func TestDedupeCitationsIdempotent(t *testing.T) {
	in := []domain.Citation{
		{Source: "a", Location: "1"},
		{Source: "b", Location: "2"},
	}
	once := dedupeCitations(in)
	twice := dedupeCitations(once)
	if len(once) != len(twice) {
		t.Fatalf("dedupe must be idempotent: %d vs %d", len(once), len(twice))
	}
}

func TestSemanticLocationVariants(t *testing.T) {
	tests := []struct {
		name string
		hit  domain.SemanticHit
		want string
	}{
		{"section and page", domain.SemanticHit{Section: "General Preamble", Page: 12}, "General Preamble, p. 12"},
		{"section only", domain.SemanticHit{Section: "General Preamble"}, "General Preamble"},
		{"page only", domain.SemanticHit{Page: 12}, "p. 12"},
		{"neither", domain.SemanticHit{}, "document"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := semanticLocation(tt.hit); got != tt.want {
				t.Fatalf("semanticLocation() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSnippetTruncatesLongText(t *testing.T) {
	long := strings.Repeat("x", 300)
	got := snippet(long, 160)
	if !strings.HasSuffix(got, "…") {
		t.Fatalf("expected ellipsis suffix, got %q", got)
	}
	if len([]rune(got)) > 161 {
		t.Fatalf("snippet too long: %d runes", len([]rune(got)))
	}
}

func TestSnippetKeepsShortText(t *testing.T) {
	if got := snippet("  short text  ", 160); got != "short text" {
		t.Fatalf("snippet() = %q", got)
	}
}

func TestEvidenceCitationsCoverBothPaths(t *testing.T) {
	evidence := &domain.Evidence{
		Structured: []domain.StructuredHit{feeHit("A005", 77.20)},
		Semantic:   []domain.SemanticHit{chunkHit("A005 is payable once per patient per day.", "schedule.pdf")},
	}
	out := evidenceCitations(evidence)
	if len(out) != 2 {
		t.Fatalf("expected 2 citations, got %v", out)
	}
	if out[0].Source != "fee_schedule" || out[0].Location != "row row-A005" {
		t.Fatalf("unexpected structured citation %+v", out[0])
	}
	if out[1].Source != "schedule.pdf" || out[1].Snippet == "" {
		t.Fatalf("unexpected semantic citation %+v", out[1])
	}
}
