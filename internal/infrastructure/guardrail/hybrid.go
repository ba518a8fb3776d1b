package guardrail

import (
	"context"

	"github.com/antonkudrin/coverage-assistant/internal/core/ports"
)

// HybridClassifier runs the keyword screen first. A keyword hit is final;
// everything else goes to the LLM for a second look.
type HybridClassifier struct {
	keyword ports.SafetyClassifier
	llm     ports.SafetyClassifier
}

func NewHybridClassifier(keyword, llm ports.SafetyClassifier) *HybridClassifier {
	return &HybridClassifier{keyword: keyword, llm: llm}
}

func (c *HybridClassifier) Classify(ctx context.Context, text string) (ports.SafetyLevel, error) {
	level, err := c.keyword.Classify(ctx, text)
	if err == nil && level != ports.SafetyNone {
		return level, nil
	}
	return c.llm.Classify(ctx, text)
}
