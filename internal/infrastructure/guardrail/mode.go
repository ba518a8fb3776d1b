package guardrail

import (
	"fmt"

	"github.com/antonkudrin/coverage-assistant/internal/core/ports"
)

// Mode selects how chat input is screened before retrieval runs.
type Mode string

const (
	// ModeKeyword matches emergency and crisis phrases with fixed patterns.
	ModeKeyword Mode = "keyword"
	// ModeLLM asks the language model to classify the message.
	ModeLLM Mode = "llm"
	// ModeHybrid runs keyword first and escalates unclear input to the LLM.
	ModeHybrid Mode = "hybrid"
)

func ParseMode(raw string) (Mode, error) {
	switch Mode(raw) {
	case ModeKeyword, ModeLLM, ModeHybrid:
		return Mode(raw), nil
	}
	return "", fmt.Errorf("unknown guardrail mode %q", raw)
}

// New builds the classifier for the given mode. The generator may be nil for
// ModeKeyword only.
func New(mode Mode, generator ports.AnswerGenerator) (ports.SafetyClassifier, error) {
	switch mode {
	case ModeKeyword:
		return NewKeywordClassifier(), nil
	case ModeLLM:
		if generator == nil {
			return nil, fmt.Errorf("guardrail mode %q needs a generator", mode)
		}
		return NewLLMClassifier(generator), nil
	case ModeHybrid:
		if generator == nil {
			return nil, fmt.Errorf("guardrail mode %q needs a generator", mode)
		}
		return NewHybridClassifier(NewKeywordClassifier(), NewLLMClassifier(generator)), nil
	}
	return nil, fmt.Errorf("unknown guardrail mode %q", mode)
}
