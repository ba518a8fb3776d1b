package guardrail

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/antonkudrin/coverage-assistant/internal/core/ports"
)

const classifyPromptTemplate = `You screen messages sent to a medical-education assistant.
Classify the message into exactly one level:
- "emergency": describes an active medical emergency (severe symptoms happening now)
- "crisis": describes suicidal ideation, self-harm, or a mental-health crisis
- "none": anything else, including ordinary coverage and billing questions

Respond with JSON only: {"level":"emergency"|"crisis"|"none"}

Message: %s`

// LLMClassifier delegates screening to the language model. Unparseable or
// unexpected output is an error; the caller decides the fallback.
type LLMClassifier struct {
	generator ports.AnswerGenerator
}

func NewLLMClassifier(generator ports.AnswerGenerator) *LLMClassifier {
	return &LLMClassifier{generator: generator}
}

func (c *LLMClassifier) Classify(ctx context.Context, text string) (ports.SafetyLevel, error) {
	raw, err := c.generator.GenerateJSONFromPrompt(ctx, fmt.Sprintf(classifyPromptTemplate, text))
	if err != nil {
		return ports.SafetyNone, fmt.Errorf("safety classification: %w", err)
	}

	var result struct {
		Level string `json:"level"`
	}
	if err := json.Unmarshal([]byte(extractJSONObject(raw)), &result); err != nil {
		return ports.SafetyNone, fmt.Errorf("parse safety classification: %w", err)
	}

	switch ports.SafetyLevel(strings.ToLower(strings.TrimSpace(result.Level))) {
	case ports.SafetyEmergency:
		return ports.SafetyEmergency, nil
	case ports.SafetyCrisis:
		return ports.SafetyCrisis, nil
	case ports.SafetyNone:
		return ports.SafetyNone, nil
	}
	return ports.SafetyNone, fmt.Errorf("unexpected safety level %q", result.Level)
}

func extractJSONObject(raw string) string {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start >= 0 && end > start {
		return raw[start : end+1]
	}
	return raw
}
