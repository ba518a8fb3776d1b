package usecase

import (
	"fmt"
	"strings"

	"github.com/antonkudrin/coverage-assistant/internal/core/domain"
)

// dedupeCitations keeps the first citation for every (source, location) pair,
// preserving order. Idempotent.
func dedupeCitations(citations []domain.Citation) []domain.Citation {
	if len(citations) == 0 {
		return citations
	}
	seen := make(map[string]struct{}, len(citations))
	out := make([]domain.Citation, 0, len(citations))
	for _, c := range citations {
		key := c.Source + "|" + c.Location
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, c)
	}
	return out
}

func citeStructured(hit domain.StructuredHit) domain.Citation {
	return domain.Citation{
		Source:   hit.Table,
		Location: "row " + hit.RowID,
	}
}

func citeSemantic(hit domain.SemanticHit) domain.Citation {
	return domain.Citation{
		Source:   hit.Source,
		Location: semanticLocation(hit),
		Snippet:  snippet(hit.Text, 160),
	}
}

func semanticLocation(hit domain.SemanticHit) string {
	switch {
	case hit.Section != "" && hit.Page > 0:
		return fmt.Sprintf("%s, p. %d", hit.Section, hit.Page)
	case hit.Section != "":
		return hit.Section
	case hit.Page > 0:
		return fmt.Sprintf("p. %d", hit.Page)
	default:
		return "document"
	}
}

func snippet(text string, max int) string {
	text = strings.TrimSpace(text)
	runes := []rune(text)
	if len(runes) <= max {
		return text
	}
	return strings.TrimSpace(string(runes[:max])) + "…"
}

func evidenceCitations(evidence *domain.Evidence) []domain.Citation {
	out := make([]domain.Citation, 0, len(evidence.Structured)+len(evidence.Semantic))
	for _, hit := range evidence.Structured {
		out = append(out, citeStructured(hit))
	}
	for _, hit := range evidence.Semantic {
		out = append(out, citeSemantic(hit))
	}
	return dedupeCitations(out)
}

func semanticText(evidence *domain.Evidence) string {
	if len(evidence.Semantic) == 0 {
		return ""
	}
	var b strings.Builder
	for _, hit := range evidence.Semantic {
		b.WriteString(hit.Text)
		b.WriteString("\n")
	}
	return b.String()
}
