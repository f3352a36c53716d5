package compliance

import (
	"math"
	"math/rand"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Helpers
// ==========================

func findGap(t *testing.T, r ScoringResult, field string) Gap {
	t.Helper()
	for _, g := range r.Gaps {
		if g.Field == field {
			return g
		}
	}
	require.Failf(t, "gap not found", "field %q not in %+v", field, r.Gaps)
	return Gap{}
}

func hasGap(r ScoringResult, field string) bool {
	for _, g := range r.Gaps {
		if g.Field == field {
			return true
		}
	}
	return false
}

func hasMet(r ScoringResult, field string) bool {
	for _, m := range r.MetCriteria {
		if m.Field == field {
			return true
		}
	}
	return false
}

// ==========================
// Turnover
// ==========================

func TestScore_TurnoverWithinSoftBand(t *testing.T) {
	r := Score(TenderEligibility{MinTurnover: 50}, CompanyProfile{AnnualTurnover: 40})

	g := findGap(t, r, FieldTurnover)
	assert.Equal(t, SeverityMajor, g.Severity)
	assert.Equal(t, 15.0, g.Deduction)
	assert.Equal(t, "₹50L", g.Required)
	assert.Equal(t, "₹40L", g.Actual)
	assert.Equal(t, "₹10L", g.Shortfall)
	assert.Equal(t, "Company turnover is 80% of the required amount. Consortium formation may bridge this gap.", g.Note)
	assert.Equal(t, 15.0, r.Breakdown[CategoryTurnover])
	assert.Equal(t, 85.0, r.Score)
	assert.Equal(t, VerdictEligible, r.Verdict)
}

func TestScore_TurnoverAtSoftBandBoundaryIsMajor(t *testing.T) {
	r := Score(TenderEligibility{MinTurnover: 50}, CompanyProfile{AnnualTurnover: 35})

	g := findGap(t, r, FieldTurnover)
	assert.Equal(t, SeverityMajor, g.Severity)
	assert.Equal(t, 15.0, g.Deduction)
	assert.Equal(t, "₹15L", g.Shortfall)
	assert.Equal(t, "Company turnover is 70% of the required amount. Consortium formation may bridge this gap.", g.Note)
	assert.Equal(t, 85.0, r.Score)
}

func TestScore_TurnoverFarBelowRequirement(t *testing.T) {
	r := Score(TenderEligibility{MinTurnover: 50}, CompanyProfile{AnnualTurnover: 20})

	g := findGap(t, r, FieldTurnover)
	assert.Equal(t, SeverityDisqualifying, g.Severity)
	assert.Equal(t, 30.0, g.Deduction)
	assert.Equal(t, 0.0, r.Breakdown[CategoryTurnover])
	assert.Equal(t, 70.0, r.Score)
	assert.Equal(t, VerdictConditionallyIneligible, r.Verdict)
	assert.Equal(t, []string{recTurnoverJV, recTurnoverExemption}, r.Recommendations)
}

func TestScore_TurnoverMet(t *testing.T) {
	r := Score(TenderEligibility{MinTurnover: 50}, CompanyProfile{AnnualTurnover: 120.5})

	assert.Empty(t, r.Gaps)
	require.Len(t, r.MetCriteria, 1)
	assert.Equal(t, MetTurnover, r.MetCriteria[0].Field)
	assert.Equal(t, "✓ ₹120.5L meets requirement of ₹50L", r.MetCriteria[0].Detail)
}

// ==========================
// Experience
// ==========================

func TestScore_ExperienceExactlyMet(t *testing.T) {
	r := Score(TenderEligibility{YearsExperience: 5}, CompanyProfile{YearsInOperation: 5})

	assert.False(t, hasGap(r, FieldExperience))
	assert.True(t, hasMet(r, MetExperience))
	assert.Equal(t, WeightExperience, r.Breakdown[CategoryExperience])
	assert.Equal(t, "✓ 5 years meets requirement of 5 years", r.MetCriteria[0].Detail)
}

func TestScore_ExperienceShortIsDisqualifying(t *testing.T) {
	r := Score(TenderEligibility{YearsExperience: 5}, CompanyProfile{YearsInOperation: 4})

	g := findGap(t, r, FieldExperience)
	assert.Equal(t, SeverityDisqualifying, g.Severity)
	assert.Equal(t, 20.0, g.Deduction)
	assert.Equal(t, "1 years", g.Shortfall)
	assert.Equal(t, 80.0, r.Score)
	assert.Equal(t, VerdictConditionallyIneligible, r.Verdict)
	assert.Equal(t, []string{recExperience}, r.Recommendations)
}

// ==========================
// Certifications
// ==========================

func TestScore_PartialCertificationsReportedOnBothSides(t *testing.T) {
	r := Score(
		TenderEligibility{RequiredCertifications: []string{"ISO 9001", "MSME Udyam"}},
		CompanyProfile{Certifications: []string{"iso 9001"}},
	)

	g := findGap(t, r, FieldCertifications)
	assert.Equal(t, []string{"ISO 9001"}, g.Has)
	assert.Equal(t, []string{"MSME Udyam"}, g.Missing)
	assert.Equal(t, []string{"ISO 9001", "MSME Udyam"}, g.RequiredItems)
	assert.Equal(t, 10.0, g.Deduction)
	assert.Equal(t, SeverityMajor, g.Severity)
	assert.True(t, hasMet(r, MetCertificationsPartial))
	assert.False(t, hasMet(r, MetCertifications))
	assert.Equal(t, 10.0, r.Breakdown[CategoryCertifications])
	assert.Equal(t, []string{recUdyam}, r.Recommendations)
}

func TestScore_AllCertificationsMissing(t *testing.T) {
	r := Score(
		TenderEligibility{RequiredCertifications: []string{"ISO 27001", "GeM Seller", "CMMI Level 3"}},
		CompanyProfile{},
	)

	g := findGap(t, r, FieldCertifications)
	assert.Equal(t, SeverityDisqualifying, g.Severity)
	assert.Equal(t, 20.0, g.Deduction)
	assert.Empty(t, g.Has)
	assert.False(t, hasMet(r, MetCertificationsPartial))
	assert.Equal(t, []string{
		"Certification: Obtain ISO 27001 through a BIS-accredited certification body. " +
			"Fast-track ISO certification typically takes 4–8 weeks and costs ₹25,000–₹80,000. " +
			"Bodies: TÜV SÜD, Bureau Veritas, DNV.",
		recGeM,
		"Certification: Pursue CMMI Level 3 through the relevant regulatory body before bid submission.",
	}, r.Recommendations)
}

func TestScore_AllCertificationsPresentEmitsSingleEntry(t *testing.T) {
	r := Score(
		TenderEligibility{RequiredCertifications: []string{"ISO 9001", "GeM"}},
		CompanyProfile{Certifications: []string{"gem", "ISO 9001", "BIS"}},
	)

	assert.Empty(t, r.Gaps)
	require.Len(t, r.MetCriteria, 1)
	assert.Equal(t, MetCertifications, r.MetCriteria[0].Field)
	assert.Equal(t, "✓ All required certifications present: ISO 9001, GeM", r.MetCriteria[0].Detail)
}

func TestScore_CertificationFractionLaw(t *testing.T) {
	required := []string{"A", "B", "C", "D", "E", "F", "G"}
	for n := 1; n <= len(required); n++ {
		for k := 1; k <= n; k++ {
			held := required[:n-k]
			r := Score(TenderEligibility{RequiredCertifications: required[:n]}, CompanyProfile{Certifications: held})

			g := findGap(t, r, FieldCertifications)
			assert.InDelta(t, 20*float64(k)/float64(n), g.Deduction, 0.05, "n=%d k=%d", n, k)
			assert.Len(t, g.Missing, k)
		}
	}
}

func TestScore_DuplicateRequirementsCountOnce(t *testing.T) {
	r := Score(
		TenderEligibility{RequiredCertifications: []string{"ISO 9001", "iso 9001 ", "", "BIS"}},
		CompanyProfile{Certifications: []string{"ISO 9001"}},
	)

	g := findGap(t, r, FieldCertifications)
	assert.Equal(t, []string{"ISO 9001", "BIS"}, g.RequiredItems)
	assert.Equal(t, 10.0, g.Deduction)
}

// ==========================
// Past project value
// ==========================

func TestScore_PastProjectDerivedFromProjects(t *testing.T) {
	r := Score(
		TenderEligibility{MinSingleProjectValue: 50},
		CompanyProfile{PastProjects: []PastProject{{Value: 10}, {Value: 60}, {Value: 25}}},
	)

	assert.Empty(t, r.Gaps)
	require.Len(t, r.MetCriteria, 1)
	assert.Equal(t, "✓ Max project ₹60L meets ₹50L requirement", r.MetCriteria[0].Detail)
}

func TestScore_PastProjectPrecomputedWins(t *testing.T) {
	r := Score(
		TenderEligibility{MinSingleProjectValue: 50},
		CompanyProfile{MaxSingleProjectValue: 30, PastProjects: []PastProject{{Value: 90}}},
	)

	g := findGap(t, r, FieldPastProject)
	assert.Equal(t, SeverityMajor, g.Severity)
	assert.Equal(t, 15.0, g.Deduction)
	assert.Equal(t, "₹50L (single project)", g.Required)
	assert.Equal(t, "₹30L (highest single project)", g.Actual)
	assert.Equal(t, 0.0, r.Breakdown[CategoryPastProject])
	assert.Equal(t, VerdictEligible, r.Verdict)
	assert.Equal(t, []string{recPastProject}, r.Recommendations)
}

func TestScore_PastProjectNoProjects(t *testing.T) {
	r := Score(TenderEligibility{MinSingleProjectValue: 5}, CompanyProfile{})

	g := findGap(t, r, FieldPastProject)
	assert.Equal(t, "₹0L (highest single project)", g.Actual)
}

// ==========================
// Documents
// ==========================

func TestScore_DocumentFuzzyMatch(t *testing.T) {
	r := Score(
		TenderEligibility{RequiredDocuments: []string{"GST Certificate"}},
		CompanyProfile{AvailableDocuments: []string{"GST Registration Certificate 2023"}},
	)

	assert.Empty(t, r.Gaps)
	assert.True(t, hasMet(r, MetDocuments))
	assert.Equal(t, WeightDocuments, r.Breakdown[CategoryDocuments])
}

func TestDocumentMatches(t *testing.T) {
	tests := []struct {
		required, available string
		want                bool
	}{
		{"PAN Card", "pan card copy", true},
		{"Audited Balance Sheet for last 3 years", "balance sheet", true},
		{"GST Certificate", "GST Registration Certificate 2023", true},
		{"ITR", "Income Tax Returns", false},
		{"EMD", "", false},
		{"", "anything", false},
		{"Power of Attorney", "Partnership Deed", false},
	}
	for _, tt := range tests {
		t.Run(tt.required+"|"+tt.available, func(t *testing.T) {
			assert.Equal(t, tt.want, DocumentMatches(tt.required, tt.available))
		})
	}
}

func TestScore_DocumentSeverityBands(t *testing.T) {
	required := []string{"PAN Card", "GST Certificate", "Balance Sheet", "Experience Certificate"}

	minor := Score(TenderEligibility{RequiredDocuments: required},
		CompanyProfile{AvailableDocuments: []string{"PAN Card", "GST Certificate", "Balance Sheet"}})
	g := findGap(t, minor, FieldDocuments)
	assert.Equal(t, SeverityMinor, g.Severity)
	assert.Equal(t, 2.5, g.Deduction)
	assert.Equal(t, []string{"Experience Certificate"}, g.Missing)
	assert.Equal(t, 7.5, minor.Breakdown[CategoryDocuments])

	major := Score(TenderEligibility{RequiredDocuments: required},
		CompanyProfile{AvailableDocuments: []string{"PAN Card", "GST Certificate"}})
	g = findGap(t, major, FieldDocuments)
	assert.Equal(t, SeverityMajor, g.Severity)
	assert.Equal(t, 5.0, g.Deduction)
	assert.Equal(t, []string{
		"Documents: Gather missing documents before bid submission: Balance Sheet, Experience Certificate. " +
			"Most documents like audited balance sheets, IT returns, and registration " +
			"certificates should be collected 2–3 weeks before the deadline.",
	}, major.Recommendations)
}

// ==========================
// MSME bonus and bounds
// ==========================

func TestScore_MSMEBonusReaches105(t *testing.T) {
	r := Score(
		TenderEligibility{
			MinTurnover:            100,
			YearsExperience:        3,
			RequiredCertifications: []string{"ISO 9001"},
			MSMEPreference:         true,
			MinSingleProjectValue:  40,
			RequiredDocuments:      []string{"PAN Card"},
		},
		CompanyProfile{
			AnnualTurnover:        150,
			YearsInOperation:      8,
			Certifications:        []string{"ISO 9001"},
			MaxSingleProjectValue: 45,
			AvailableDocuments:    []string{"PAN Card"},
			MSMECategory:          "micro",
		},
	)

	assert.Equal(t, 105.0, r.Score)
	assert.Equal(t, MSMEBonus, r.MSMEBonus)
	assert.Equal(t, VerdictEligible, r.Verdict)
	assert.True(t, hasMet(r, MetMSME))
	assert.Equal(t, "✓ Tender has MSME preference, company is registered as micro enterprise",
		r.MetCriteria[len(r.MetCriteria)-1].Detail)
	assert.Equal(t, []string{recAllMet}, r.Recommendations)
}

func TestScore_MSMEWithoutPreferenceGivesNoBonus(t *testing.T) {
	r := Score(TenderEligibility{}, CompanyProfile{MSMECategory: "small"})
	assert.Equal(t, 0.0, r.MSMEBonus)
	assert.Equal(t, 100.0, r.Score)
}

func TestScore_NoRequirements(t *testing.T) {
	r := Score(TenderEligibility{}, CompanyProfile{AnnualTurnover: 1})

	assert.Equal(t, 100.0, r.Score)
	assert.Equal(t, VerdictEligible, r.Verdict)
	assert.Empty(t, r.Gaps)
	assert.Empty(t, r.MetCriteria)
	assert.Equal(t, map[string]float64{
		CategoryTurnover:       30,
		CategoryExperience:     20,
		CategoryCertifications: 20,
		CategoryPastProject:    15,
		CategoryDocuments:      10,
	}, r.Breakdown)
	assert.Equal(t, []string{recAllMet}, r.Recommendations)
}

func TestScore_EverythingFails(t *testing.T) {
	r := Score(
		TenderEligibility{
			MinTurnover:            500,
			YearsExperience:        10,
			RequiredCertifications: []string{"ISO 9001"},
			MinSingleProjectValue:  100,
			RequiredDocuments:      []string{"Solvency Certificate"},
		},
		CompanyProfile{AnnualTurnover: 10, YearsInOperation: 1},
	)

	assert.Equal(t, 5.0, r.Score)
	assert.Equal(t, VerdictIneligible, r.Verdict)
	assert.Len(t, r.Gaps, 5)
	assert.Equal(t, []string{FieldTurnover, FieldExperience, FieldCertifications, FieldPastProject, FieldDocuments},
		[]string{r.Gaps[0].Field, r.Gaps[1].Field, r.Gaps[2].Field, r.Gaps[3].Field, r.Gaps[4].Field})
}

// ==========================
// Properties
// ==========================

func randomInputs(rng *rand.Rand) (TenderEligibility, CompanyProfile) {
	pool := []string{"ISO 9001", "ISO 14001", "GeM", "MSME Udyam", "BIS", "PAN Card", "GST Certificate", "Balance Sheet"}
	pick := func() []string {
		var out []string
		for _, p := range pool {
			if rng.Intn(3) == 0 {
				out = append(out, p)
			}
		}
		return out
	}

	tender := TenderEligibility{
		MinTurnover:            float64(rng.Intn(4)) * 50,
		YearsExperience:        rng.Intn(6),
		RequiredCertifications: pick(),
		MSMEPreference:         rng.Intn(2) == 0,
		MinSingleProjectValue:  float64(rng.Intn(3)) * 40,
		RequiredDocuments:      pick(),
	}
	company := CompanyProfile{
		AnnualTurnover:     float64(rng.Intn(200)),
		YearsInOperation:   rng.Intn(8),
		Certifications:     pick(),
		PastProjects:       []PastProject{{Value: float64(rng.Intn(100))}},
		AvailableDocuments: pick(),
	}
	if rng.Intn(2) == 0 {
		company.MSMECategory = "small"
	}
	return tender, company
}

func TestScore_Properties(t *testing.T) {
	rng := rand.New(rand.NewSource(42))

	for i := 0; i < 500; i++ {
		tender, company := randomInputs(rng)
		r := Score(tender, company)

		assert.GreaterOrEqual(t, r.Score, 0.0)
		assert.LessOrEqual(t, r.Score, MaxScore)

		expected := math.Round(math.Max(0, math.Min(MaxScore, 100-r.TotalDeduction()+r.MSMEBonus))*10) / 10
		assert.InDelta(t, expected, r.Score, 1e-9)

		if r.HasDisqualifyingGap() {
			assert.Contains(t, []Verdict{VerdictConditionallyIneligible, VerdictIneligible}, r.Verdict)
		}

		// Single-sided rules land in exactly one list when a requirement exists.
		if tender.MinTurnover > 0 {
			assert.NotEqual(t, hasGap(r, FieldTurnover), hasMet(r, MetTurnover))
		}
		if tender.YearsExperience > 0 {
			assert.NotEqual(t, hasGap(r, FieldExperience), hasMet(r, MetExperience))
		}
		if tender.MinSingleProjectValue > 0 {
			assert.NotEqual(t, hasGap(r, FieldPastProject), hasMet(r, MetPastProject))
		}
		if len(tender.RequiredDocuments) > 0 {
			assert.NotEqual(t, hasGap(r, FieldDocuments), hasMet(r, MetDocuments))
		}
		if len(tender.RequiredCertifications) > 0 {
			assert.True(t, hasGap(r, FieldCertifications) || hasMet(r, MetCertifications))
			assert.False(t, hasGap(r, FieldCertifications) && hasMet(r, MetCertifications))
		}

		assert.Equal(t, r, Score(tender, company), "scoring must be deterministic")
	}
}

func TestScore_ConcurrentCallsAgree(t *testing.T) {
	tender := TenderEligibility{MinTurnover: 50, RequiredCertifications: []string{"ISO 9001", "BIS"}}
	company := CompanyProfile{AnnualTurnover: 45, Certifications: []string{"BIS"}}
	want := Score(tender, company)

	var wg sync.WaitGroup
	results := make([]ScoringResult, 32)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = Score(tender, company)
		}(i)
	}
	wg.Wait()

	for _, got := range results {
		assert.Equal(t, want, got)
	}
}
