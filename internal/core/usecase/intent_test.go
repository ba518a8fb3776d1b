package usecase

import (
	"testing"

	"github.com/antonkudrin/coverage-assistant/internal/core/domain"
)

func TestClassifySingleDomain(t *testing.T) {
	router := NewIntentRouter(testRules(t))

	tests := []struct {
		name     string
		question string
		want     domain.Intent
	}{
		{"billing", "How do I bill an after-hours visit?", domain.IntentBilling},
		{"device", "Is a power wheelchair funded by ADP?", domain.IntentDevice},
		{"drug", "Is metformin on the ODB formulary?", domain.IntentDrug},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			active, primary, err := router.Classify(domain.Query{Question: tt.question})
			if err != nil {
				t.Fatalf("Classify() error = %v", err)
			}
			if len(active) != 1 || active[0] != tt.want {
				t.Fatalf("active = %v, want [%s]", active, tt.want)
			}
			if primary != tt.want {
				t.Fatalf("primary = %s, want %s", primary, tt.want)
			}
		})
	}
}

func TestClassifyMultiDomainFansOut(t *testing.T) {
	router := NewIntentRouter(testRules(t))

	active, primary, err := router.Classify(domain.Query{
		Question: "Can I bill for the visit and prescribe a medication on the ODB list?",
	})
	if err != nil {
		t.Fatalf("Classify() error = %v", err)
	}
	if len(active) != 2 {
		t.Fatalf("expected two active intents, got %v", active)
	}
	if active[0] != domain.IntentBilling || active[1] != domain.IntentDrug {
		t.Fatalf("active = %v, want [billing drug]", active)
	}
	// Equal keyword counts break ties by fixed priority.
	if primary != domain.IntentBilling {
		t.Fatalf("primary = %s, want billing", primary)
	}
}

func TestClassifyHintsShortCircuit(t *testing.T) {
	router := NewIntentRouter(testRules(t))

	active, primary, err := router.Classify(domain.Query{
		Question: "is this thing covered",
		Hints:    domain.QueryHints{DrugName: "metformin"},
	})
	if err != nil {
		t.Fatalf("Classify() error = %v", err)
	}
	if len(active) != 1 || active[0] != domain.IntentDrug || primary != domain.IntentDrug {
		t.Fatalf("hints must decide the intent, got active=%v primary=%s", active, primary)
	}
}

func TestClassifyUnmatchedQuestionFails(t *testing.T) {
	router := NewIntentRouter(testRules(t))

	_, _, err := router.Classify(domain.Query{Question: "What is the meaning of life?"})
	if !domain.IsKind(err, domain.ErrUnclassifiableIntent) {
		t.Fatalf("expected ErrUnclassifiableIntent, got %v", err)
	}
}

func TestClassifyMatchesWholeWordsOnly(t *testing.T) {
	router := NewIntentRouter(testRules(t))

	// "codeine" must not trigger the "code" keyword.
	_, _, err := router.Classify(domain.Query{Question: "Tell me about codeine pharmacology"})
	if !domain.IsKind(err, domain.ErrUnclassifiableIntent) {
		t.Fatalf("substring keyword matched, err = %v", err)
	}
}

func TestClassifyMatchesKeywordPhrases(t *testing.T) {
	router := NewIntentRouter(testRules(t))

	active, _, err := router.Classify(domain.Query{Question: "What does limited use status mean?"})
	if err != nil {
		t.Fatalf("Classify() error = %v", err)
	}
	if len(active) != 1 || active[0] != domain.IntentDrug {
		t.Fatalf("phrase keyword missed, active = %v", active)
	}
}
