// internal/compliance/verdict.go
package compliance

// Verdict score bands, applied when no gap is disqualifying.
const (
	eligibleThreshold       = 80.0
	likelyEligibleThreshold = 60.0
	borderlineThreshold     = 40.0
)

// BandVerdict maps a score to a verdict, ignoring gap severities.
func BandVerdict(score float64) Verdict {
	switch {
	case score >= eligibleThreshold:
		return VerdictEligible
	case score >= likelyEligibleThreshold:
		return VerdictLikelyEligible
	case score >= borderlineThreshold:
		return VerdictBorderline
	default:
		return VerdictIneligible
	}
}

// OverrideForDisqualifying caps a banded verdict when a disqualifying gap exists:
// scores of 60 and above become CONDITIONALLY INELIGIBLE, everything else INELIGIBLE.
func OverrideForDisqualifying(banded Verdict, score float64, gaps []Gap) Verdict {
	if !hasDisqualifying(gaps) {
		return banded
	}
	if score >= likelyEligibleThreshold {
		return VerdictConditionallyIneligible
	}
	return VerdictIneligible
}

// DetermineVerdict bands the score, then applies the disqualifying-gap override.
func DetermineVerdict(score float64, gaps []Gap) Verdict {
	return OverrideForDisqualifying(BandVerdict(score), score, gaps)
}

func hasDisqualifying(gaps []Gap) bool {
	for _, g := range gaps {
		if g.Severity == SeverityDisqualifying {
			return true
		}
	}
	return false
}

// IsPositive reports whether the verdict allows bidding without remediation.
func (v Verdict) IsPositive() bool {
	return v == VerdictEligible || v == VerdictLikelyEligible
}
