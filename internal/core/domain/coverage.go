package domain

// Intent names one coverage domain.
type Intent string

const (
	IntentBilling Intent = "billing"
	IntentDevice  Intent = "device"
	IntentDrug    Intent = "drug"
)

// PatientContext carries the optional patient facts business rules read.
type PatientContext struct {
	AnnualIncome float64 `json:"annual_income,omitempty"`
	FamilySize   int     `json:"family_size,omitempty"`
	Age          int     `json:"age,omitempty"`
	Setting      string  `json:"setting,omitempty"`
}

// Single reports whether income thresholds should use the single-person tier.
func (p PatientContext) Single() bool {
	return p.FamilySize <= 1
}

// QueryHints short-circuit intent classification when present.
type QueryHints struct {
	BillingCode string `json:"billing_code,omitempty"`
	Specialty   string `json:"specialty,omitempty"`
	DeviceType  string `json:"device_type,omitempty"`
	UseCase     string `json:"use_case,omitempty"`
	DrugName    string `json:"drug_name,omitempty"`
}

func (h QueryHints) Empty() bool {
	return h == QueryHints{}
}

// Query is one immutable coverage question.
type Query struct {
	Question string          `json:"question"`
	Hints    QueryHints      `json:"hints,omitempty"`
	Patient  *PatientContext `json:"patient,omitempty"`
}

// Verdict is the closed set of decision outcomes.
type Verdict string

const (
	VerdictAffirmative   Verdict = "affirmative"
	VerdictNegative      Verdict = "negative"
	VerdictConditional   Verdict = "conditional"
	VerdictNeedsMoreInfo Verdict = "needs-more-info"
)

// Citation points at one evidence location. Deduplicated by (Source, Location)
// within a response.
type Citation struct {
	Source   string `json:"source"`
	Location string `json:"location"`
	Snippet  string `json:"snippet,omitempty"`
}

// Highlight is one salient point with its supporting citations.
type Highlight struct {
	Point     string     `json:"point"`
	Citations []Citation `json:"citations,omitempty"`
}

// Conflict records a disagreement between the two evidence paths for one
// field. Structured evidence is always authoritative for numeric facts.
type Conflict struct {
	Field           string `json:"field"`
	StructuredValue string `json:"structured_value"`
	SemanticValue   string `json:"semantic_value"`
	Resolution      string `json:"resolution"`
}

// ResolutionStructuredAuthoritative is the fixed resolution policy.
const ResolutionStructuredAuthoritative = "structured value is authoritative"

// Decision is the only thing that crosses the tool boundary; tools never
// surface raw retrieval errors.
type Decision struct {
	Verdict    Verdict     `json:"decision"`
	Summary    string      `json:"summary"`
	Highlights []Highlight `json:"highlights,omitempty"`
	Conflicts  []Conflict  `json:"conflicts,omitempty"`
	FollowUps  []string    `json:"follow_ups,omitempty"`
	Citations  []Citation  `json:"citations,omitempty"`
	Confidence float64     `json:"confidence"`
	Provenance []string    `json:"provenance"`
	Intents    []Intent    `json:"intents,omitempty"`
}

// BillingItem is one matched fee-schedule entry.
type BillingItem struct {
	Code          string  `json:"code"`
	Description   string  `json:"description"`
	Fee           float64 `json:"fee"`
	Specialty     string  `json:"specialty,omitempty"`
	Documentation string  `json:"documentation,omitempty"`
}

// BillingAnswer is the billing tool response shape.
type BillingAnswer struct {
	Decision
	Items []BillingItem `json:"items,omitempty"`
}

// DeviceAnswer is the assistive-device tool response shape.
type DeviceAnswer struct {
	Decision
	DeviceType         string   `json:"device_type"`
	Eligible           bool     `json:"eligible"`
	FundingPercent     float64  `json:"funding_percent"`
	ClientSharePercent float64  `json:"client_share_percent"`
	CEPEligible        bool     `json:"cep_eligible"`
	Exclusions         []string `json:"exclusions,omitempty"`
}

// DrugAlternative is one interchangeable-group member.
type DrugAlternative struct {
	Name  string  `json:"name"`
	DIN   string  `json:"din,omitempty"`
	Price float64 `json:"price"`
}

// DrugAnswer is the formulary tool response shape.
type DrugAnswer struct {
	Decision
	DrugName     string            `json:"drug_name"`
	Covered      bool              `json:"covered"`
	LimitedUse   bool              `json:"limited_use"`
	Price        float64           `json:"price,omitempty"`
	LowestCost   *DrugAlternative  `json:"lowest_cost,omitempty"`
	Savings      float64           `json:"savings,omitempty"`
	Alternatives []DrugAlternative `json:"alternatives,omitempty"`
}
