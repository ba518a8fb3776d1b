package usecase

import (
	"context"
	"testing"

	"github.com/antonkudrin/coverage-assistant/internal/core/domain"
)

func deviceRuleHit(deviceType string, funding float64) domain.StructuredHit {
	return domain.StructuredHit{
		Table: "adp_funding_rules",
		RowID: "rule-1",
		Fields: map[string]any{
			"device_type":     deviceType,
			"category":        "mobility",
			"funding_percent": funding,
		},
	}
}

func newDeviceTool(t *testing.T, store *fakeStore, index *fakeIndex) *DeviceTool {
	t.Helper()
	return NewDeviceTool(testRetriever(store, index), NewKeywordClaimExtractor(), testRules(t))
}

func TestLookupDeviceFundedWithSpecificRule(t *testing.T) {
	store := &fakeStore{hits: []domain.StructuredHit{deviceRuleHit("power wheelchair", 85)}}
	index := &fakeIndex{hits: []domain.SemanticHit{chunkHit("Power wheelchairs need an ADP prescriber assessment.", "adp_manual.pdf")}}
	tool := newDeviceTool(t, store, index)

	answer, err := tool.LookupDevice(context.Background(), domain.Query{
		Hints: domain.QueryHints{DeviceType: "Power_Wheelchair"},
	})
	if err != nil {
		t.Fatalf("LookupDevice() error = %v", err)
	}
	if answer.Verdict != domain.VerdictAffirmative || !answer.Eligible {
		t.Fatalf("expected funded device, got %+v", answer.Decision)
	}
	if answer.DeviceType != "power wheelchair" {
		t.Fatalf("device type not normalized: %q", answer.DeviceType)
	}
	if answer.FundingPercent != 85 || answer.ClientSharePercent != 15 {
		t.Fatalf("funding split = %v/%v, want 85/15", answer.FundingPercent, answer.ClientSharePercent)
	}
}

func TestLookupDeviceDefaultSplitWithoutRule(t *testing.T) {
	store := &fakeStore{hits: []domain.StructuredHit{}}
	index := &fakeIndex{hits: []domain.SemanticHit{chunkHit("Scooters may qualify as mobility devices.", "adp_manual.pdf")}}
	tool := newDeviceTool(t, store, index)

	answer, err := tool.LookupDevice(context.Background(), domain.Query{Question: "Is a scooter funded?"})
	if err != nil {
		t.Fatalf("LookupDevice() error = %v", err)
	}
	if answer.Verdict != domain.VerdictConditional {
		t.Fatalf("verdict = %s, want conditional", answer.Verdict)
	}
	if answer.FundingPercent != 75 || answer.ClientSharePercent != 25 {
		t.Fatalf("funding split = %v/%v, want default 75/25", answer.FundingPercent, answer.ClientSharePercent)
	}
}

func TestLookupDeviceExclusionOverridesEverything(t *testing.T) {
	// Even with a structured match, an excluded item is never funded.
	store := &fakeStore{hits: []domain.StructuredHit{deviceRuleHit("wheelchair batteries", 75)}}
	index := &fakeIndex{hits: []domain.SemanticHit{}}
	tool := newDeviceTool(t, store, index)

	answer, err := tool.LookupDevice(context.Background(), domain.Query{
		Hints: domain.QueryHints{DeviceType: "wheelchair batteries"},
	})
	if err != nil {
		t.Fatalf("LookupDevice() error = %v", err)
	}
	if answer.Verdict != domain.VerdictNegative || answer.Eligible {
		t.Fatalf("excluded item must be negative, got %+v", answer.Decision)
	}
	if len(answer.Exclusions) != 1 || answer.Exclusions[0] != "batteries" {
		t.Fatalf("unexpected exclusions %v", answer.Exclusions)
	}
}

func TestLookupDeviceCEPEligibility(t *testing.T) {
	tests := []struct {
		name    string
		patient *domain.PatientContext
		want    bool
	}{
		{"no patient context", nil, false},
		{"single below threshold", &domain.PatientContext{AnnualIncome: 19000, FamilySize: 1}, true},
		{"single at threshold", &domain.PatientContext{AnnualIncome: 28000, FamilySize: 1}, true},
		{"single above threshold", &domain.PatientContext{AnnualIncome: 30000, FamilySize: 1}, false},
		{"family below threshold", &domain.PatientContext{AnnualIncome: 35000, FamilySize: 3}, true},
		{"family at threshold", &domain.PatientContext{AnnualIncome: 39000, FamilySize: 4}, true},
		{"family above threshold", &domain.PatientContext{AnnualIncome: 39001, FamilySize: 4}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &fakeStore{hits: []domain.StructuredHit{deviceRuleHit("walker", 75)}}
			tool := newDeviceTool(t, store, &fakeIndex{})

			answer, err := tool.LookupDevice(context.Background(), domain.Query{
				Hints:   domain.QueryHints{DeviceType: "walker"},
				Patient: tt.patient,
			})
			if err != nil {
				t.Fatalf("LookupDevice() error = %v", err)
			}
			if answer.CEPEligible != tt.want {
				t.Fatalf("CEPEligible = %v, want %v", answer.CEPEligible, tt.want)
			}
			if tt.want && answer.ClientSharePercent != 0 {
				t.Fatalf("CEP must waive the client share, got %v", answer.ClientSharePercent)
			}
			if !tt.want && answer.ClientSharePercent != 25 {
				t.Fatalf("client share = %v, want 25", answer.ClientSharePercent)
			}
		})
	}
}

func TestLookupDeviceNoEvidence(t *testing.T) {
	tool := newDeviceTool(t, &fakeStore{}, &fakeIndex{})

	answer, err := tool.LookupDevice(context.Background(), domain.Query{Question: "obscure gadget"})
	if err != nil {
		t.Fatalf("LookupDevice() error = %v", err)
	}
	if answer.Verdict != domain.VerdictNeedsMoreInfo || answer.Eligible {
		t.Fatalf("expected needs-more-info, got %+v", answer.Decision)
	}
	if len(answer.FollowUps) == 0 {
		t.Fatalf("expected follow-up questions")
	}
}

func TestLookupDeviceRejectsEmptyQuery(t *testing.T) {
	tool := newDeviceTool(t, &fakeStore{}, &fakeIndex{})

	_, err := tool.LookupDevice(context.Background(), domain.Query{})
	if !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}
