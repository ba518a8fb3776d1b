package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/antonkudrin/coverage-assistant/internal/core/domain"
)

// DeviceTool answers ADP funding questions: exclusion phrases, funding split,
// and CEP low-income eligibility.
type DeviceTool struct {
	retriever *DualPathRetriever
	claims    ClaimExtractor
	rules     Rules
}

func NewDeviceTool(retriever *DualPathRetriever, claims ClaimExtractor, rules Rules) *DeviceTool {
	return &DeviceTool{
		retriever: retriever,
		claims:    claims,
		rules:     rules,
	}
}

func (t *DeviceTool) LookupDevice(ctx context.Context, query domain.Query) (*domain.DeviceAnswer, error) {
	deviceType := normalizeDeviceType(query.Hints.DeviceType)
	if deviceType == "" {
		deviceType = strings.TrimSpace(query.Question)
	}
	if deviceType == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "device lookup", fmt.Errorf("device type or question required"))
	}

	semanticQuery := strings.TrimSpace(strings.Join([]string{
		query.Question, normalizeDeviceType(query.Hints.DeviceType), query.Hints.UseCase,
	}, " "))

	// Retrieval always runs, excluded device or not: exclusions override the
	// verdict afterwards, they do not skip the dual path.
	evidence, err := t.retriever.Retrieve(ctx,
		domain.StructuredQuery{Table: "adp_funding_rules", Filters: map[string]any{"device_type": deviceType}, Limit: 5},
		domain.SemanticQuery{Text: semanticQuery, Collection: domain.CorpusADP},
	)
	if err != nil && !domain.IsKind(err, domain.ErrBothPathsFailed) {
		return nil, err
	}

	answer := &domain.DeviceAnswer{DeviceType: deviceType}
	answer.Provenance = evidence.Provenance.Paths()
	answer.Intents = []domain.Intent{domain.IntentDevice}
	answer.Citations = evidenceCitations(evidence)

	claims := t.claims.Extract(semanticText(evidence))
	answer.Conflicts = detectConflicts(evidence.Structured, claims)
	answer.Confidence = scoreConfidence(len(evidence.Structured) > 0, len(evidence.Semantic), len(answer.Conflicts))

	answer.Exclusions = t.matchExclusions(deviceType)
	if len(answer.Exclusions) > 0 {
		// Excluded items are never funded, whatever the matched rule says.
		answer.Verdict = domain.VerdictNegative
		answer.Eligible = false
		answer.Summary = fmt.Sprintf("Not eligible: %q falls under ADP exclusions (%s).",
			deviceType, strings.Join(answer.Exclusions, ", "))
		return answer, nil
	}

	answer.FundingPercent, answer.ClientSharePercent = t.fundingSplit(evidence)
	answer.CEPEligible = t.cepEligible(query.Patient)
	if answer.CEPEligible {
		answer.ClientSharePercent = 0
	}

	switch {
	case len(evidence.Structured) > 0:
		answer.Eligible = true
		answer.Verdict = domain.VerdictAffirmative
		answer.Summary = deviceSummary(deviceType, answer)
		answer.Highlights = deviceHighlights(answer, evidence)
	case len(evidence.Semantic) > 0:
		answer.Eligible = true
		answer.Verdict = domain.VerdictConditional
		answer.Summary = fmt.Sprintf("No specific funding rule found for %q; the default %.0f/%.0f split applies if the device is an ADP benefit.",
			deviceType, answer.FundingPercent, answer.ClientSharePercent)
		answer.Highlights = semanticHighlights(evidence, 2)
	default:
		answer.Verdict = domain.VerdictNeedsMoreInfo
		answer.Summary = "No device funding evidence found."
		answer.FollowUps = t.rules.followUpsFor(domain.IntentDevice)
		answer.Eligible = false
	}
	return answer, nil
}

func (t *DeviceTool) matchExclusions(deviceType string) []string {
	lower := strings.ToLower(deviceType)
	matched := make([]string, 0, 1)
	for _, phrase := range t.rules.Exclusions {
		if strings.Contains(lower, phrase) {
			matched = append(matched, phrase)
		}
	}
	return matched
}

// fundingSplit reads the matched rule, falling back to the default split
// when no specific rule exists.
func (t *DeviceTool) fundingSplit(evidence *domain.Evidence) (funding, clientShare float64) {
	funding = t.rules.Funding.DefaultProgramPercent
	for _, hit := range evidence.Structured {
		if v, ok := hit.Float("funding_percent"); ok {
			funding = v
			break
		}
	}
	return funding, 100 - funding
}

// cepEligible checks household income against the CEP thresholds: at or
// below the threshold means the program covers the client share in full.
func (t *DeviceTool) cepEligible(patient *domain.PatientContext) bool {
	if patient == nil || patient.AnnualIncome <= 0 {
		return false
	}
	threshold := t.rules.Funding.CEPIncomeThresholdFamily
	if patient.Single() {
		threshold = t.rules.Funding.CEPIncomeThresholdSingle
	}
	return patient.AnnualIncome <= threshold
}

func deviceSummary(deviceType string, answer *domain.DeviceAnswer) string {
	if answer.CEPEligible {
		return fmt.Sprintf("%q is ADP-funded at %.0f%%; CEP covers the client share, so the client pays 0%%.",
			deviceType, answer.FundingPercent)
	}
	return fmt.Sprintf("%q is ADP-funded at %.0f%%; the client share is %.0f%%.",
		deviceType, answer.FundingPercent, answer.ClientSharePercent)
}

func deviceHighlights(answer *domain.DeviceAnswer, evidence *domain.Evidence) []domain.Highlight {
	highlights := []domain.Highlight{{
		Point:     fmt.Sprintf("Funding split: %.0f%% program / %.0f%% client", answer.FundingPercent, answer.ClientSharePercent),
		Citations: structuredCitationsOnly(evidence),
	}}
	if answer.CEPEligible {
		highlights = append(highlights, domain.Highlight{
			Point: "CEP eligible: household income is at or below the threshold, client share waived.",
		})
	} else if len(evidence.Semantic) > 0 {
		highlights = append(highlights, semanticHighlights(evidence, 1)...)
	}
	return highlights
}

func normalizeDeviceType(raw string) string {
	return strings.TrimSpace(strings.ReplaceAll(strings.ToLower(raw), "_", " "))
}
