package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/antonkudrin/coverage-assistant/internal/core/domain"
)

// BillingTool answers OHIP fee-schedule questions: match fee codes by
// code/description/specialty, surface the fee amount and documentation
// requirements.
type BillingTool struct {
	retriever *DualPathRetriever
	claims    ClaimExtractor
	rules     Rules
}

func NewBillingTool(retriever *DualPathRetriever, claims ClaimExtractor, rules Rules) *BillingTool {
	return &BillingTool{
		retriever: retriever,
		claims:    claims,
		rules:     rules,
	}
}

func (t *BillingTool) LookupBilling(ctx context.Context, query domain.Query) (*domain.BillingAnswer, error) {
	if strings.TrimSpace(query.Question) == "" && query.Hints.Empty() {
		return nil, domain.WrapError(domain.ErrInvalidInput, "billing lookup", fmt.Errorf("question or hints required"))
	}

	filters := map[string]any{}
	switch {
	case query.Hints.BillingCode != "":
		filters["code"] = query.Hints.BillingCode
	default:
		filters["text"] = query.Question
	}
	if query.Hints.Specialty != "" {
		filters["specialty"] = query.Hints.Specialty
	}

	semanticQuery := strings.TrimSpace(strings.Join([]string{
		query.Question, query.Hints.BillingCode, query.Hints.Specialty,
	}, " "))

	evidence, err := t.retriever.Retrieve(ctx,
		domain.StructuredQuery{Table: "fee_schedule", Filters: filters, Limit: 10},
		domain.SemanticQuery{Text: semanticQuery, Collection: domain.CorpusSchedule},
	)
	if err != nil && !domain.IsKind(err, domain.ErrBothPathsFailed) {
		return nil, err
	}

	answer := &domain.BillingAnswer{}
	answer.Provenance = evidence.Provenance.Paths()
	answer.Intents = []domain.Intent{domain.IntentBilling}

	claims := t.claims.Extract(semanticText(evidence))
	answer.Conflicts = detectConflicts(evidence.Structured, claims)

	answer.Items = billingItems(evidence)
	answer.Citations = evidenceCitations(evidence)
	answer.Confidence = scoreConfidence(len(answer.Items) > 0, len(evidence.Semantic), len(answer.Conflicts))

	switch {
	case len(answer.Items) > 0:
		answer.Verdict = domain.VerdictAffirmative
		answer.Summary = fmt.Sprintf("Found %d matching fee schedule item(s); %s pays $%.2f.",
			len(answer.Items), answer.Items[0].Code, answer.Items[0].Fee)
		answer.Highlights = billingHighlights(answer.Items, evidence)
	case len(evidence.Semantic) > 0:
		answer.Verdict = domain.VerdictConditional
		answer.Summary = "No exact fee schedule match; related schedule text was found; verify the code before billing."
		answer.Highlights = semanticHighlights(evidence, 2)
	default:
		answer.Verdict = domain.VerdictNeedsMoreInfo
		answer.Summary = "No billing evidence found for this question."
		answer.FollowUps = t.rules.followUpsFor(domain.IntentBilling)
	}
	return answer, nil
}

func billingItems(evidence *domain.Evidence) []domain.BillingItem {
	items := make([]domain.BillingItem, 0, len(evidence.Structured))
	for _, hit := range evidence.Structured {
		fee, _ := hit.Float("fee")
		items = append(items, domain.BillingItem{
			Code:          hit.String("code"),
			Description:   hit.String("description"),
			Fee:           fee,
			Specialty:     hit.String("specialty"),
			Documentation: hit.String("documentation"),
		})
	}
	return items
}

func billingHighlights(items []domain.BillingItem, evidence *domain.Evidence) []domain.Highlight {
	highlights := make([]domain.Highlight, 0, 2)
	first := items[0]
	highlights = append(highlights, domain.Highlight{
		Point:     fmt.Sprintf("%s (%s): $%.2f", first.Code, first.Description, first.Fee),
		Citations: structuredCitationsOnly(evidence),
	})
	if first.Documentation != "" {
		highlights = append(highlights, domain.Highlight{
			Point: "Documentation required: " + first.Documentation,
		})
	} else if doc := documentationFromSemantic(evidence); doc != "" {
		highlights = append(highlights, domain.Highlight{
			Point:     "Documentation note: " + doc,
			Citations: semanticCitationsOnly(evidence, 1),
		})
	}
	return highlights
}

func documentationFromSemantic(evidence *domain.Evidence) string {
	for _, hit := range evidence.Semantic {
		if strings.Contains(strings.ToLower(hit.Text), "document") {
			return snippet(hit.Text, 160)
		}
	}
	return ""
}

func structuredCitationsOnly(evidence *domain.Evidence) []domain.Citation {
	out := make([]domain.Citation, 0, len(evidence.Structured))
	for _, hit := range evidence.Structured {
		out = append(out, citeStructured(hit))
	}
	return dedupeCitations(out)
}

func semanticCitationsOnly(evidence *domain.Evidence, max int) []domain.Citation {
	out := make([]domain.Citation, 0, max)
	for _, hit := range evidence.Semantic {
		out = append(out, citeSemantic(hit))
		if len(out) >= max {
			break
		}
	}
	return dedupeCitations(out)
}

func semanticHighlights(evidence *domain.Evidence, max int) []domain.Highlight {
	highlights := make([]domain.Highlight, 0, max)
	for _, hit := range evidence.Semantic {
		highlights = append(highlights, domain.Highlight{
			Point:     snippet(hit.Text, 160),
			Citations: []domain.Citation{citeSemantic(hit)},
		})
		if len(highlights) >= max {
			break
		}
	}
	return highlights
}
