package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/antonkudrin/coverage-assistant/internal/core/domain"
	"github.com/antonkudrin/coverage-assistant/internal/core/ports"
)

var errEmptyQuery = errors.New("question is empty")

const (
	emergencyReply = "This sounds like a medical emergency. Call 911 or go to the nearest emergency department now. This assistant cannot help with urgent medical situations."
	crisisReply    = "If you or someone else is in crisis, call or text 9-8-8 (Suicide Crisis Helpline, available 24/7). You are not alone, and help is available right now."
)

// ChatUseCase wraps the coverage pipeline for conversational use: safety
// screening first, retrieval second, LLM phrasing last. The LLM never gates
// the decision, it only rewords it.
type ChatUseCase struct {
	safety    ports.SafetyClassifier
	coverage  ports.CoverageAnswerer
	generator ports.AnswerGenerator
}

func NewChatUseCase(safety ports.SafetyClassifier, coverage ports.CoverageAnswerer, generator ports.AnswerGenerator) *ChatUseCase {
	return &ChatUseCase{
		safety:    safety,
		coverage:  coverage,
		generator: generator,
	}
}

func (uc *ChatUseCase) Chat(ctx context.Context, query domain.Query) (*domain.ChatReply, error) {
	if strings.TrimSpace(query.Question) == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "chat", errEmptyQuery)
	}

	level, err := uc.safety.Classify(ctx, query.Question)
	if err != nil {
		// A guardrail outage must not block the answer path.
		slog.Warn("safety_classifier_failed", "error", err)
		level = ports.SafetyNone
	}
	switch level {
	case ports.SafetyEmergency:
		return &domain.ChatReply{Text: emergencyReply, Safety: string(level)}, nil
	case ports.SafetyCrisis:
		return &domain.ChatReply{Text: crisisReply, Safety: string(level)}, nil
	}

	decision, err := uc.coverage.Answer(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("answer coverage question: %w", err)
	}

	text, err := uc.generator.GenerateFromPrompt(ctx, buildChatPrompt(query.Question, decision))
	if err != nil || strings.TrimSpace(text) == "" {
		if err != nil {
			slog.Warn("chat_phrasing_failed", "error", err)
		}
		text = decision.Summary
	}

	return &domain.ChatReply{
		Text:     text,
		Safety:   string(ports.SafetyNone),
		Decision: decision,
	}, nil
}

func buildChatPrompt(question string, decision *domain.Decision) string {
	var b strings.Builder
	b.WriteString("You are a medical-education assistant for Ontario coverage questions.\n")
	b.WriteString("Rephrase the decision below as a short, plain-language answer. ")
	b.WriteString("Do not add facts, do not change numbers, and keep the citations implicit.\n\n")
	b.WriteString("Question: ")
	b.WriteString(question)
	b.WriteString("\nDecision: ")
	b.WriteString(string(decision.Verdict))
	b.WriteString("\nSummary: ")
	b.WriteString(decision.Summary)
	for _, h := range decision.Highlights {
		b.WriteString("\n- ")
		b.WriteString(h.Point)
	}
	if len(decision.Conflicts) > 0 {
		b.WriteString("\nNote: sources disagreed; the structured value is authoritative.")
	}
	return b.String()
}
