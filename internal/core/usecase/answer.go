package usecase

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"github.com/antonkudrin/coverage-assistant/internal/core/domain"
	"github.com/antonkudrin/coverage-assistant/internal/core/ports"
)

// highlightsPerTool caps how many highlights each tool contributes to a
// merged answer.
const highlightsPerTool = 2

// CoverageUseCase is the top-level entry point: classify the question,
// dispatch every matched domain tool concurrently, merge the decisions.
type CoverageUseCase struct {
	router  *IntentRouter
	billing ports.BillingLookup
	device  ports.DeviceLookup
	drug    ports.DrugLookup
	rules   Rules
}

func NewCoverageUseCase(
	router *IntentRouter,
	billing ports.BillingLookup,
	device ports.DeviceLookup,
	drug ports.DrugLookup,
	rules Rules,
) *CoverageUseCase {
	return &CoverageUseCase{
		router:  router,
		billing: billing,
		device:  device,
		drug:    drug,
		rules:   rules,
	}
}

// Answer always returns a well-formed Decision; classification misses and
// total retrieval failures degrade to needs-more-info, never to an error the
// caller has to unpack.
func (uc *CoverageUseCase) Answer(ctx context.Context, query domain.Query) (*domain.Decision, error) {
	if strings.TrimSpace(query.Question) == "" && query.Hints.Empty() {
		return nil, domain.WrapError(domain.ErrInvalidInput, "answer coverage question", errEmptyQuery)
	}

	active, primary, err := uc.router.Classify(query)
	if err != nil {
		if domain.IsKind(err, domain.ErrUnclassifiableIntent) {
			return uc.unclassifiedDecision(), nil
		}
		return nil, err
	}

	decisions := uc.dispatch(ctx, query, active)
	merged := uc.merge(decisions, active, primary)
	return merged, nil
}

func (uc *CoverageUseCase) dispatch(ctx context.Context, query domain.Query, active []domain.Intent) []*domain.Decision {
	var wg sync.WaitGroup
	out := make([]*domain.Decision, len(active))

	for i, intent := range active {
		wg.Add(1)
		go func(i int, intent domain.Intent) {
			defer wg.Done()
			out[i] = uc.runTool(ctx, query, intent)
		}(i, intent)
	}
	wg.Wait()
	return out
}

func (uc *CoverageUseCase) runTool(ctx context.Context, query domain.Query, intent domain.Intent) *domain.Decision {
	var (
		decision *domain.Decision
		err      error
	)
	switch intent {
	case domain.IntentBilling:
		var answer *domain.BillingAnswer
		if answer, err = uc.billing.LookupBilling(ctx, query); err == nil {
			decision = &answer.Decision
		}
	case domain.IntentDevice:
		var answer *domain.DeviceAnswer
		if answer, err = uc.device.LookupDevice(ctx, query); err == nil {
			decision = &answer.Decision
		}
	case domain.IntentDrug:
		var answer *domain.DrugAnswer
		if answer, err = uc.drug.LookupDrug(ctx, query); err == nil {
			decision = &answer.Decision
		}
	}
	if err != nil {
		slog.Warn("domain_tool_failed", "intent", string(intent), "error", err)
		return &domain.Decision{
			Verdict:    domain.VerdictNeedsMoreInfo,
			Summary:    "The " + string(intent) + " lookup could not be completed.",
			Confidence: confidenceWeakBase,
			Provenance: []string{},
			Intents:    []domain.Intent{intent},
		}
	}
	return decision
}

func (uc *CoverageUseCase) merge(decisions []*domain.Decision, active []domain.Intent, primary domain.Intent) *domain.Decision {
	merged := &domain.Decision{
		Intents:    active,
		Provenance: []string{},
	}

	var confidenceSum float64
	provenance := make(map[string]struct{}, 2)
	summaries := make([]string, 0, len(decisions))
	for _, d := range decisions {
		confidenceSum += d.Confidence
		summaries = append(summaries, d.Summary)

		highlights := d.Highlights
		if len(highlights) > highlightsPerTool {
			highlights = highlights[:highlightsPerTool]
		}
		merged.Highlights = append(merged.Highlights, highlights...)
		merged.Conflicts = append(merged.Conflicts, d.Conflicts...)
		merged.Citations = append(merged.Citations, d.Citations...)
		for _, path := range d.Provenance {
			provenance[path] = struct{}{}
		}
	}

	merged.Confidence = confidenceSum / float64(len(decisions))
	merged.Citations = dedupeCitations(merged.Citations)
	merged.Verdict = mergeVerdicts(decisions)
	merged.Summary = strings.Join(summaries, " ")

	for _, path := range []string{domain.PathStructured, domain.PathSemantic} {
		if _, ok := provenance[path]; ok {
			merged.Provenance = append(merged.Provenance, path)
		}
	}

	if merged.Verdict == domain.VerdictNeedsMoreInfo {
		merged.FollowUps = uc.rules.followUpsFor(primary)
	}
	return merged
}

// mergeVerdicts: unanimous verdicts stand; any disagreement degrades to
// conditional.
func mergeVerdicts(decisions []*domain.Decision) domain.Verdict {
	first := decisions[0].Verdict
	for _, d := range decisions[1:] {
		if d.Verdict != first {
			return domain.VerdictConditional
		}
	}
	return first
}

func (uc *CoverageUseCase) unclassifiedDecision() *domain.Decision {
	return &domain.Decision{
		Verdict:    domain.VerdictNeedsMoreInfo,
		Summary:    "The question does not clearly map to billing, devices, or drugs.",
		FollowUps:  uc.rules.unclassifiedFollowUps(),
		Confidence: 0,
		Provenance: []string{},
	}
}
