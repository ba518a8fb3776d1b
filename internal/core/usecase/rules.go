package usecase

import (
	_ "embed"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/antonkudrin/coverage-assistant/internal/core/domain"
)

//go:embed rules.yaml
var rulesYAML []byte

// FundingRules are the fixed ADP/CEP thresholds.
type FundingRules struct {
	DefaultProgramPercent    float64 `yaml:"default_program_percent"`
	CEPIncomeThresholdSingle float64 `yaml:"cep_income_threshold_single"`
	CEPIncomeThresholdFamily float64 `yaml:"cep_income_threshold_family"`
}

// Rules holds the heuristic calibration shared by the router and the tools.
type Rules struct {
	Intents    map[string][]string `yaml:"intents"`
	Exclusions []string            `yaml:"exclusions"`
	Funding    FundingRules        `yaml:"funding"`
	FollowUps  map[string][]string `yaml:"followups"`
}

// LoadRules parses the embedded rules file.
func LoadRules() (Rules, error) {
	var rules Rules
	if err := yaml.Unmarshal(rulesYAML, &rules); err != nil {
		return Rules{}, fmt.Errorf("parse rules: %w", err)
	}
	for _, intent := range []domain.Intent{domain.IntentBilling, domain.IntentDevice, domain.IntentDrug} {
		if len(rules.Intents[string(intent)]) == 0 {
			return Rules{}, fmt.Errorf("rules: missing keyword list for intent %q", intent)
		}
	}
	if len(rules.Exclusions) == 0 {
		return Rules{}, fmt.Errorf("rules: empty exclusion list")
	}
	return rules, nil
}

func (r Rules) followUpsFor(intent domain.Intent) []string {
	return r.FollowUps[string(intent)]
}

func (r Rules) unclassifiedFollowUps() []string {
	return r.FollowUps["unclassified"]
}
