package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/antonkudrin/coverage-assistant/internal/core/domain"
)

// DrugTool answers ODB formulary questions: coverage, Limited Use status,
// interchangeable alternatives and the lowest-cost option.
type DrugTool struct {
	retriever *DualPathRetriever
	claims    ClaimExtractor
	rules     Rules
}

func NewDrugTool(retriever *DualPathRetriever, claims ClaimExtractor, rules Rules) *DrugTool {
	return &DrugTool{
		retriever: retriever,
		claims:    claims,
		rules:     rules,
	}
}

func (t *DrugTool) LookupDrug(ctx context.Context, query domain.Query) (*domain.DrugAnswer, error) {
	drugName := strings.TrimSpace(query.Hints.DrugName)
	if drugName == "" {
		drugName = strings.TrimSpace(query.Question)
	}
	if drugName == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "drug lookup", fmt.Errorf("drug name or question required"))
	}

	semanticQuery := strings.TrimSpace(query.Question + " " + query.Hints.DrugName)

	// The name-or-group filter pulls the requested product and every member
	// of its interchangeable group in the single structured query.
	evidence, err := t.retriever.Retrieve(ctx,
		domain.StructuredQuery{Table: "odb_formulary", Filters: map[string]any{"drug": drugName}, Limit: 20},
		domain.SemanticQuery{Text: semanticQuery, Collection: domain.CorpusFormulary},
	)
	if err != nil && !domain.IsKind(err, domain.ErrBothPathsFailed) {
		return nil, err
	}

	answer := &domain.DrugAnswer{DrugName: drugName}
	answer.Provenance = evidence.Provenance.Paths()
	answer.Intents = []domain.Intent{domain.IntentDrug}
	answer.Citations = evidenceCitations(evidence)

	claims := t.claims.Extract(semanticText(evidence))
	answer.Conflicts = detectConflicts(evidence.Structured, claims)
	answer.Confidence = scoreConfidence(len(evidence.Structured) > 0, len(evidence.Semantic), len(answer.Conflicts))

	requested, found := findRequestedDrug(evidence.Structured, drugName)
	if !found {
		return t.answerWithoutFormularyRow(answer, evidence, claims), nil
	}

	answer.Covered = true
	if covered, ok := requested.Bool("covered"); ok {
		answer.Covered = covered
	}
	answer.Price, _ = requested.Float("price")
	answer.LimitedUse = t.limitedUse(requested, evidence, drugName)

	answer.Alternatives = groupMembers(evidence.Structured, requested)
	answer.LowestCost, answer.Savings = lowestCostOption(answer.Alternatives, requested)

	switch {
	case !answer.Covered:
		answer.Verdict = domain.VerdictNegative
		answer.Summary = fmt.Sprintf("%s is listed but not an ODB benefit.", requested.String("name"))
	case answer.LimitedUse:
		answer.Verdict = domain.VerdictConditional
		answer.Summary = fmt.Sprintf("%s is covered under Limited Use; documented clinical criteria must be met.", requested.String("name"))
	default:
		answer.Verdict = domain.VerdictAffirmative
		answer.Summary = fmt.Sprintf("%s is an ODB general benefit at $%.2f.", requested.String("name"), answer.Price)
	}
	answer.Highlights = drugHighlights(answer, evidence)
	return answer, nil
}

// answerWithoutFormularyRow infers coverage from semantic text alone when the
// drug is absent from structured data. Confidence stays on the weak base.
func (t *DrugTool) answerWithoutFormularyRow(answer *domain.DrugAnswer, evidence *domain.Evidence, claims []Claim) *domain.DrugAnswer {
	answer.Confidence = scoreConfidence(false, len(evidence.Semantic), len(answer.Conflicts))

	inferred, ok := inferredCoverage(claims)
	switch {
	case ok && inferred:
		answer.Covered = true
		answer.Verdict = domain.VerdictConditional
		answer.Summary = fmt.Sprintf("%s is not in the formulary extract, but formulary text suggests it is covered; confirm the DIN.", answer.DrugName)
		answer.Highlights = semanticHighlights(evidence, 2)
	case ok && !inferred:
		answer.Verdict = domain.VerdictNegative
		answer.Summary = fmt.Sprintf("%s is not in the formulary extract and formulary text indicates it is not covered.", answer.DrugName)
		answer.Highlights = semanticHighlights(evidence, 2)
	default:
		answer.Verdict = domain.VerdictNeedsMoreInfo
		answer.Summary = fmt.Sprintf("No formulary evidence found for %s.", answer.DrugName)
		answer.FollowUps = t.rules.followUpsFor(domain.IntentDrug)
	}
	return answer
}

func (t *DrugTool) limitedUse(requested domain.StructuredHit, evidence *domain.Evidence, drugName string) bool {
	if lu, ok := requested.Bool("limited_use"); ok && lu {
		return true
	}
	// Best-effort: "limited use" mentioned near the drug name in a chunk.
	name := strings.ToLower(drugName)
	for _, hit := range evidence.Semantic {
		lower := strings.ToLower(hit.Text)
		if strings.Contains(lower, "limited use") && strings.Contains(lower, name) {
			return true
		}
	}
	return false
}

func findRequestedDrug(hits []domain.StructuredHit, drugName string) (domain.StructuredHit, bool) {
	name := strings.ToLower(drugName)
	for _, hit := range hits {
		if strings.Contains(strings.ToLower(hit.String("name")), name) ||
			strings.Contains(strings.ToLower(hit.String("generic_name")), name) {
			return hit, true
		}
	}
	return domain.StructuredHit{}, false
}

func groupMembers(hits []domain.StructuredHit, requested domain.StructuredHit) []domain.DrugAlternative {
	group := requested.String("interchangeable_group")
	if group == "" {
		return nil
	}
	out := make([]domain.DrugAlternative, 0, len(hits))
	for _, hit := range hits {
		if hit.String("interchangeable_group") != group {
			continue
		}
		price, _ := hit.Float("price")
		out = append(out, domain.DrugAlternative{
			Name:  hit.String("name"),
			DIN:   hit.String("din"),
			Price: price,
		})
	}
	return out
}

// lowestCostOption picks the cheapest interchangeable member and the savings
// relative to the requested product.
func lowestCostOption(alternatives []domain.DrugAlternative, requested domain.StructuredHit) (*domain.DrugAlternative, float64) {
	if len(alternatives) == 0 {
		return nil, 0
	}
	lowest := alternatives[0]
	for _, alt := range alternatives[1:] {
		if alt.Price < lowest.Price {
			lowest = alt
		}
	}
	requestedPrice, _ := requested.Float("price")
	savings := requestedPrice - lowest.Price
	if savings < 0 {
		savings = 0
	}
	return &lowest, savings
}

func inferredCoverage(claims []Claim) (covered, ok bool) {
	for _, claim := range claims {
		if claim.Kind == ClaimBoolean && claim.Field == "covered" {
			return claim.Truth, true
		}
	}
	return false, false
}

func drugHighlights(answer *domain.DrugAnswer, evidence *domain.Evidence) []domain.Highlight {
	highlights := make([]domain.Highlight, 0, 2)
	if answer.LowestCost != nil && answer.LowestCost.Name != "" {
		point := fmt.Sprintf("Lowest cost interchangeable option: %s at $%.2f", answer.LowestCost.Name, answer.LowestCost.Price)
		if answer.Savings > 0 {
			point += fmt.Sprintf(" (saves $%.2f)", answer.Savings)
		}
		highlights = append(highlights, domain.Highlight{
			Point:     point,
			Citations: structuredCitationsOnly(evidence),
		})
	}
	if answer.LimitedUse {
		highlights = append(highlights, domain.Highlight{
			Point: "Limited Use: coverage requires documented clinical justification.",
		})
	}
	if len(highlights) < 2 && len(evidence.Semantic) > 0 {
		highlights = append(highlights, semanticHighlights(evidence, 2-len(highlights))...)
	}
	return highlights
}
