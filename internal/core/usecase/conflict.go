package usecase

import (
	"math"
	"strconv"

	"github.com/antonkudrin/coverage-assistant/internal/core/domain"
)

// numericTolerance absorbs float formatting noise, not real disagreement.
const numericTolerance = 0.01

// detectConflicts compares each structured fact against the claims extracted
// from semantic text. Structured evidence wins every time; the conflict is
// reported, not arbitrated.
func detectConflicts(structured []domain.StructuredHit, claims []Claim) []domain.Conflict {
	if len(structured) == 0 || len(claims) == 0 {
		return nil
	}

	out := make([]domain.Conflict, 0)
	seen := make(map[string]struct{})
	for _, hit := range structured {
		for _, claim := range claims {
			conflict, ok := compareFact(hit, claim)
			if !ok {
				continue
			}
			key := conflict.Field + "|" + conflict.StructuredValue + "|" + conflict.SemanticValue
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			out = append(out, conflict)
		}
	}
	return out
}

func compareFact(hit domain.StructuredHit, claim Claim) (domain.Conflict, bool) {
	switch claim.Kind {
	case ClaimNumeric:
		value, ok := hit.Float(claim.Field)
		if !ok {
			return domain.Conflict{}, false
		}
		if math.Abs(value-claim.Number) <= numericTolerance {
			return domain.Conflict{}, false
		}
		return domain.Conflict{
			Field:           claim.Field,
			StructuredValue: formatNumber(value),
			SemanticValue:   formatNumber(claim.Number),
			Resolution:      domain.ResolutionStructuredAuthoritative,
		}, true
	case ClaimBoolean:
		value, ok := hit.Bool(claim.Field)
		if !ok || value == claim.Truth {
			return domain.Conflict{}, false
		}
		return domain.Conflict{
			Field:           claim.Field,
			StructuredValue: formatBool(value),
			SemanticValue:   formatBool(claim.Truth),
			Resolution:      domain.ResolutionStructuredAuthoritative,
		}, true
	}
	return domain.Conflict{}, false
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func formatBool(v bool) string {
	if v {
		return "covered"
	}
	return "not covered"
}
