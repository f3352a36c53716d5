// internal/compliance/engine.go

// Package compliance scores a company profile against a tender's eligibility
// criteria. Scoring is deterministic and side-effect free: the same inputs
// always produce the same ScoringResult, and Score is safe for concurrent use.
package compliance

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode"
)

const (
	turnoverSoftPenaltyPct = 70.0

	noteTurnover = "Company turnover is %.0f%% of the required amount. " +
		"Consortium formation may bridge this gap."
	noteExperience     = "Experience requirement is a common hard disqualification criterion."
	noteCertifications = "Missing certifications often cause technical bid rejection. " +
		"Fast-track certification is available through QCI India, BIS, and STQC."
	notePastProject = "Lack of qualifying past projects is a major weakness. " +
		"Consider highlighting similar work, even from different sectors."
	noteDocuments = "Some required documents are not listed as available. " +
		"Gather these before bid submission."
)

// Score evaluates the five eligibility rules in a fixed order (turnover,
// experience, certifications, past project value, documents), applies the
// MSME bonus and derives the verdict and recommendations.
func Score(tender TenderEligibility, company CompanyProfile) ScoringResult {
	e := evaluation{breakdown: make(map[string]float64, 5)}

	e.turnover(tender.MinTurnover, company.AnnualTurnover)
	e.experience(tender.YearsExperience, company.YearsInOperation)
	e.certifications(tender.RequiredCertifications, company.Certifications)
	e.pastProject(tender.MinSingleProjectValue, company.maxProjectValue())
	e.documents(tender.RequiredDocuments, company.AvailableDocuments)

	bonus := 0.0
	if tender.MSMEPreference && strings.TrimSpace(company.MSMECategory) != "" {
		bonus = MSMEBonus
		e.met(MetMSME, fmt.Sprintf("✓ Tender has MSME preference, company is registered as %s enterprise",
			strings.TrimSpace(company.MSMECategory)))
	}

	deducted := 0.0
	for _, g := range e.gaps {
		deducted += g.Deduction
	}
	score := round1(clamp(100-deducted+bonus, 0, MaxScore))

	gaps := e.gaps
	if gaps == nil {
		gaps = []Gap{}
	}
	metCriteria := e.metCriteria
	if metCriteria == nil {
		metCriteria = []MetCriterion{}
	}

	return ScoringResult{
		Score:           score,
		Verdict:         DetermineVerdict(score, gaps),
		Gaps:            gaps,
		MetCriteria:     metCriteria,
		Recommendations: Recommend(gaps),
		Breakdown:       e.breakdown,
		MSMEBonus:       bonus,
	}
}

// evaluation accumulates rule outcomes for a single Score call.
type evaluation struct {
	gaps        []Gap
	metCriteria []MetCriterion
	breakdown   map[string]float64
}

func (e *evaluation) met(field, detail string) {
	e.metCriteria = append(e.metCriteria, MetCriterion{Field: field, Detail: detail})
}

func (e *evaluation) gap(g Gap) {
	e.gaps = append(e.gaps, g)
}

func (e *evaluation) turnover(required, actual float64) {
	if required <= 0 {
		e.breakdown[CategoryTurnover] = WeightTurnover
		return
	}
	if actual >= required {
		e.met(MetTurnover, fmt.Sprintf("✓ ₹%sL meets requirement of ₹%sL", lakhs(actual), lakhs(required)))
		e.breakdown[CategoryTurnover] = WeightTurnover
		return
	}

	pct := actual / required * 100
	deduction, severity := WeightTurnover, SeverityDisqualifying
	if pct >= turnoverSoftPenaltyPct {
		deduction, severity = WeightTurnover*0.5, SeverityMajor
	}

	e.gap(Gap{
		Field:     FieldTurnover,
		Required:  "₹" + lakhs(required) + "L",
		Actual:    "₹" + lakhs(actual) + "L",
		Shortfall: "₹" + lakhs(required-actual) + "L",
		Severity:  severity,
		Deduction: deduction,
		Note:      fmt.Sprintf(noteTurnover, pct),
	})
	e.breakdown[CategoryTurnover] = math.Max(0, WeightTurnover-deduction)
}

func (e *evaluation) experience(required, actual int) {
	if required <= 0 {
		e.breakdown[CategoryExperience] = WeightExperience
		return
	}
	if actual >= required {
		e.met(MetExperience, fmt.Sprintf("✓ %d years meets requirement of %d years", actual, required))
		e.breakdown[CategoryExperience] = WeightExperience
		return
	}

	e.gap(Gap{
		Field:     FieldExperience,
		Required:  fmt.Sprintf("%d years", required),
		Actual:    fmt.Sprintf("%d years", actual),
		Shortfall: fmt.Sprintf("%d years", required-actual),
		Severity:  SeverityDisqualifying,
		Deduction: WeightExperience,
		Note:      noteExperience,
	})
	e.breakdown[CategoryExperience] = 0
}

func (e *evaluation) certifications(required, held []string) {
	required = uniqueFold(required)
	if len(required) == 0 {
		e.breakdown[CategoryCertifications] = WeightCertifications
		return
	}

	heldSet := make(map[string]struct{}, len(held))
	for _, c := range held {
		heldSet[normalize(c)] = struct{}{}
	}

	var matched, missing []string
	for _, cert := range required {
		if _, ok := heldSet[normalize(cert)]; ok {
			matched = append(matched, cert)
		} else {
			missing = append(missing, cert)
		}
	}

	if len(missing) == 0 {
		e.met(MetCertifications, "✓ All required certifications present: "+strings.Join(required, ", "))
		e.breakdown[CategoryCertifications] = WeightCertifications
		return
	}

	// Partial matches are reported on both sides.
	if len(matched) > 0 {
		e.met(MetCertificationsPartial, "✓ Has: "+strings.Join(matched, ", "))
	}

	fraction := float64(len(missing)) / float64(len(required))
	severity := SeverityMajor
	if len(matched) == 0 {
		severity = SeverityDisqualifying
	}
	deduction := round1(WeightCertifications * fraction)

	e.gap(Gap{
		Field:         FieldCertifications,
		Required:      strings.Join(required, ", "),
		RequiredItems: required,
		Missing:       missing,
		Has:           nonNil(matched),
		Severity:      severity,
		Deduction:     deduction,
		Note:          noteCertifications,
	})
	e.breakdown[CategoryCertifications] = round1(WeightCertifications - deduction)
}

func (e *evaluation) pastProject(required, actual float64) {
	if required <= 0 {
		e.breakdown[CategoryPastProject] = WeightPastProject
		return
	}
	if actual >= required {
		e.met(MetPastProject, fmt.Sprintf("✓ Max project ₹%sL meets ₹%sL requirement", lakhs(actual), lakhs(required)))
		e.breakdown[CategoryPastProject] = WeightPastProject
		return
	}

	e.gap(Gap{
		Field:     FieldPastProject,
		Required:  "₹" + lakhs(required) + "L (single project)",
		Actual:    "₹" + lakhs(actual) + "L (highest single project)",
		Shortfall: "₹" + lakhs(required-actual) + "L",
		Severity:  SeverityMajor,
		Deduction: WeightPastProject,
		Note:      notePastProject,
	})
	e.breakdown[CategoryPastProject] = 0
}

func (e *evaluation) documents(required, available []string) {
	required = uniqueFold(required)
	if len(required) == 0 {
		e.breakdown[CategoryDocuments] = WeightDocuments
		return
	}

	var missing []string
	for _, doc := range required {
		if !anyDocumentMatches(doc, available) {
			missing = append(missing, doc)
		}
	}

	if len(missing) == 0 {
		e.met(MetDocuments, "✓ All required documents appear to be available")
		e.breakdown[CategoryDocuments] = WeightDocuments
		return
	}

	fraction := float64(len(missing)) / float64(len(required))
	severity := SeverityMajor
	if fraction < 0.5 {
		severity = SeverityMinor
	}
	deduction := round1(WeightDocuments * fraction)

	e.gap(Gap{
		Field:         FieldDocuments,
		RequiredItems: required,
		Missing:       missing,
		Severity:      severity,
		Deduction:     deduction,
		Note:          noteDocuments,
	})
	e.breakdown[CategoryDocuments] = round1(WeightDocuments - deduction)
}

// maxProjectValue prefers the precomputed field and falls back to the
// largest past project value.
func (c CompanyProfile) maxProjectValue() float64 {
	if c.MaxSingleProjectValue > 0 {
		return c.MaxSingleProjectValue
	}
	best := 0.0
	for _, p := range c.PastProjects {
		if p.Value > best {
			best = p.Value
		}
	}
	return best
}

// DocumentMatches reports whether an available document satisfies a required
// one. Either name may contain the other (case-insensitive), or every word of
// one name may appear among the words of the other, so "GST Certificate" is
// satisfied by "GST Registration Certificate 2023".
func DocumentMatches(required, available string) bool {
	req, avail := normalize(required), normalize(available)
	if req == "" || avail == "" {
		return false
	}
	if strings.Contains(avail, req) || strings.Contains(req, avail) {
		return true
	}
	reqWords, availWords := words(req), words(avail)
	return containsAll(availWords, reqWords) || containsAll(reqWords, availWords)
}

func anyDocumentMatches(required string, available []string) bool {
	for _, avail := range available {
		if DocumentMatches(required, avail) {
			return true
		}
	}
	return false
}

func words(s string) map[string]struct{} {
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	out := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		out[f] = struct{}{}
	}
	return out
}

// containsAll reports whether every element of sub is in set. An empty sub never matches.
func containsAll(set, sub map[string]struct{}) bool {
	if len(sub) == 0 {
		return false
	}
	for w := range sub {
		if _, ok := set[w]; !ok {
			return false
		}
	}
	return true
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// uniqueFold drops blank entries and case-insensitive duplicates, keeping first-seen order and spelling.
func uniqueFold(items []string) []string {
	seen := make(map[string]struct{}, len(items))
	out := make([]string, 0, len(items))
	for _, item := range items {
		item = strings.TrimSpace(item)
		key := strings.ToLower(item)
		if key == "" {
			continue
		}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, item)
	}
	return out
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

// lakhs renders an amount to at most two decimals without trailing zeros: 40 -> "40", 12.5 -> "12.5".
func lakhs(v float64) string {
	return strconv.FormatFloat(math.Round(v*100)/100, 'f', -1, 64)
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
