package usecase

import (
	"fmt"
	"strings"

	"github.com/antonkudrin/coverage-assistant/internal/core/domain"
)

// intentPriority breaks keyword-count ties: billing > device > drug.
var intentPriority = []domain.Intent{
	domain.IntentBilling,
	domain.IntentDevice,
	domain.IntentDrug,
}

// IntentRouter classifies a free-text question into coverage domains by
// keyword overlap. Explicit hints short-circuit classification entirely.
type IntentRouter struct {
	keywords map[domain.Intent][]string
}

func NewIntentRouter(rules Rules) *IntentRouter {
	keywords := make(map[domain.Intent][]string, len(intentPriority))
	for _, intent := range intentPriority {
		keywords[intent] = rules.Intents[string(intent)]
	}
	return &IntentRouter{keywords: keywords}
}

// Classify returns every domain the question touches plus the primary intent.
// Multi-domain questions ("bill the visit and order a wheelchair") fan out to
// every matched domain. With no matches and no hints it returns
// domain.ErrUnclassifiableIntent.
func (r *IntentRouter) Classify(query domain.Query) ([]domain.Intent, domain.Intent, error) {
	if !query.Hints.Empty() {
		active := intentsFromHints(query.Hints)
		if len(active) > 0 {
			return active, active[0], nil
		}
	}

	question := strings.ToLower(query.Question)
	scores := make(map[domain.Intent]int, len(intentPriority))
	for intent, words := range r.keywords {
		scores[intent] = keywordMatches(question, words)
	}

	active := make([]domain.Intent, 0, len(intentPriority))
	primary := domain.Intent("")
	best := 0
	for _, intent := range intentPriority {
		score := scores[intent]
		if score >= 1 {
			active = append(active, intent)
		}
		if score > best {
			best = score
			primary = intent
		}
	}

	if len(active) == 0 {
		return nil, "", domain.WrapError(domain.ErrUnclassifiableIntent, "classify intent",
			fmt.Errorf("no domain keywords matched and no hints given"))
	}
	return active, primary, nil
}

func intentsFromHints(hints domain.QueryHints) []domain.Intent {
	out := make([]domain.Intent, 0, 3)
	if hints.BillingCode != "" || hints.Specialty != "" {
		out = append(out, domain.IntentBilling)
	}
	if hints.DeviceType != "" || hints.UseCase != "" {
		out = append(out, domain.IntentDevice)
	}
	if hints.DrugName != "" {
		out = append(out, domain.IntentDrug)
	}
	return out
}

// keywordMatches counts distinct keywords present as whole words (or whole
// phrases) in the question.
func keywordMatches(question string, keywords []string) int {
	count := 0
	for _, kw := range keywords {
		if containsWord(question, kw) {
			count++
		}
	}
	return count
}

func containsWord(text, word string) bool {
	idx := 0
	for {
		i := strings.Index(text[idx:], word)
		if i < 0 {
			return false
		}
		start := idx + i
		end := start + len(word)
		beforeOK := start == 0 || !isWordRune(rune(text[start-1]))
		afterOK := end == len(text) || !isWordRune(rune(text[end]))
		if beforeOK && afterOK {
			return true
		}
		idx = start + 1
	}
}

func isWordRune(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')
}
