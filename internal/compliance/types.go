// internal/compliance/types.go
package compliance

// Severity grades how badly a gap hurts a bid.
type Severity string

const (
	SeverityMinor         Severity = "MINOR"
	SeverityMajor         Severity = "MAJOR"
	SeverityDisqualifying Severity = "DISQUALIFYING"
)

// Verdict is the categorical eligibility outcome.
type Verdict string

const (
	VerdictEligible                Verdict = "ELIGIBLE"
	VerdictLikelyEligible          Verdict = "LIKELY ELIGIBLE"
	VerdictBorderline              Verdict = "BORDERLINE"
	VerdictConditionallyIneligible Verdict = "CONDITIONALLY INELIGIBLE"
	VerdictIneligible              Verdict = "INELIGIBLE"
)

// Category keys used in ScoringResult.Breakdown.
const (
	CategoryTurnover       = "turnover"
	CategoryExperience     = "experience"
	CategoryCertifications = "certifications"
	CategoryPastProject    = "past_project"
	CategoryDocuments      = "documents"
)

// Maximum points retained per category. They sum to 100.
const (
	WeightTurnover       = 30.0
	WeightExperience     = 20.0
	WeightCertifications = 20.0
	WeightPastProject    = 15.0
	WeightDocuments      = 10.0

	MSMEBonus = 5.0
	MaxScore  = 105.0
)

// Field names reported in gaps and met criteria.
const (
	FieldTurnover       = "Annual Turnover"
	FieldExperience     = "Years of Experience"
	FieldCertifications = "Required Certifications"
	FieldPastProject    = "Past Project Value"
	FieldDocuments      = "Document Readiness"

	MetTurnover              = "Annual Turnover"
	MetExperience            = "Years of Experience"
	MetCertifications        = "Certifications"
	MetCertificationsPartial = "Certifications (partial)"
	MetPastProject           = "Past Project Value"
	MetDocuments             = "Document Readiness"
	MetMSME                  = "MSME Preference"
)

// TenderEligibility is the tender side of a scoring call. Zero values mean
// "no requirement": a zero MinTurnover does not demand any turnover.
// Amounts are in INR lakhs.
type TenderEligibility struct {
	MinTurnover            float64  `json:"minTurnover"`
	YearsExperience        int      `json:"yearsExperience"`
	RequiredCertifications []string `json:"requiredCertifications"`
	MSMEPreference         bool     `json:"msmePreference"`
	MinSingleProjectValue  float64  `json:"minSingleProjectValue"`
	RequiredDocuments      []string `json:"requiredDocuments"`
}

// PastProject is the only part of a company's project history the engine reads.
type PastProject struct {
	Name  string  `json:"name,omitempty"`
	Value float64 `json:"value"`
}

// CompanyProfile is the company side of a scoring call. Amounts are in INR lakhs.
type CompanyProfile struct {
	AnnualTurnover        float64       `json:"annualTurnover"`
	YearsInOperation      int           `json:"yearsInOperation"`
	Certifications        []string      `json:"certifications"`
	PastProjects          []PastProject `json:"pastProjects"`
	MaxSingleProjectValue float64       `json:"maxSingleProjectValue"`
	AvailableDocuments    []string      `json:"availableDocuments"`
	MSMECategory          string        `json:"msmeCategory"`
}

// Gap is one failed or partially failed rule.
type Gap struct {
	Field     string   `json:"field"`
	Required  string   `json:"required,omitempty"`
	Actual    string   `json:"actual,omitempty"`
	Shortfall string   `json:"shortfall,omitempty"`
	Severity  Severity `json:"severity"`
	Deduction float64  `json:"deduction"`
	Note      string   `json:"note"`

	// Set-valued detail for the certification and document rules.
	RequiredItems []string `json:"requiredItems,omitempty"`
	Missing       []string `json:"missing,omitempty"`
	Has           []string `json:"has,omitempty"`
}

// MetCriterion records a satisfied rule.
type MetCriterion struct {
	Field  string `json:"field"`
	Detail string `json:"detail"`
}

// ScoringResult is built fresh on every Score call and never mutated afterwards.
type ScoringResult struct {
	Score           float64            `json:"score"`
	Verdict         Verdict            `json:"verdict"`
	Gaps            []Gap              `json:"gaps"`
	MetCriteria     []MetCriterion     `json:"metCriteria"`
	Recommendations []string           `json:"recommendations"`
	Breakdown       map[string]float64 `json:"breakdown"`
	MSMEBonus       float64            `json:"msmeBonus"`
}

// HasDisqualifyingGap reports whether any gap forces an ineligible verdict.
func (r ScoringResult) HasDisqualifyingGap() bool {
	return hasDisqualifying(r.Gaps)
}

// TotalDeduction sums all gap deductions.
func (r ScoringResult) TotalDeduction() float64 {
	total := 0.0
	for _, g := range r.Gaps {
		total += g.Deduction
	}
	return total
}
