package guardrail

import (
	"context"
	"regexp"

	"github.com/antonkudrin/coverage-assistant/internal/core/ports"
)

var emergencyPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\bchest pain\b`),
	regexp.MustCompile(`(?i)\bcan'?t breathe\b`),
	regexp.MustCompile(`(?i)\bdifficulty breathing\b`),
	regexp.MustCompile(`(?i)\bstroke\b`),
	regexp.MustCompile(`(?i)\bheart attack\b`),
	regexp.MustCompile(`(?i)\bsevere bleeding\b`),
	regexp.MustCompile(`(?i)\bunconscious\b`),
	regexp.MustCompile(`(?i)\boverdos(e|ed|ing)\b`),
	regexp.MustCompile(`(?i)\banaphyla(xis|ctic)\b`),
	regexp.MustCompile(`(?i)\bseizure\b`),
}

var crisisPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\bsuicid(e|al)\b`),
	regexp.MustCompile(`(?i)\bkill (myself|himself|herself|themselves)\b`),
	regexp.MustCompile(`(?i)\bend (my|his|her|their) life\b`),
	regexp.MustCompile(`(?i)\bself[- ]harm\b`),
	regexp.MustCompile(`(?i)\bhurt (myself|himself|herself|themselves)\b`),
	regexp.MustCompile(`(?i)\bwant to die\b`),
}

// KeywordClassifier screens text with fixed patterns. It errs toward
// escalation: any match wins, emergency before crisis.
type KeywordClassifier struct{}

func NewKeywordClassifier() *KeywordClassifier {
	return &KeywordClassifier{}
}

func (c *KeywordClassifier) Classify(_ context.Context, text string) (ports.SafetyLevel, error) {
	for _, p := range emergencyPatterns {
		if p.MatchString(text) {
			return ports.SafetyEmergency, nil
		}
	}
	for _, p := range crisisPatterns {
		if p.MatchString(text) {
			return ports.SafetyCrisis, nil
		}
	}
	return ports.SafetyNone, nil
}
