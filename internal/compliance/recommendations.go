// internal/compliance/recommendations.go
package compliance

import (
	"fmt"
	"strings"
)

const (
	recTurnoverJV = "Turnover Gap: Consider forming a consortium or joint venture (JV) " +
		"with another eligible company. Under GFR Rule 160, JV turnover is " +
		"typically aggregated for eligibility purposes."
	recTurnoverExemption = "Alternative: Check if the tender allows NSIC/MSME exemption on " +
		"turnover criteria — many central government tenders exempt MSMEs " +
		"from turnover requirements up to certain contract values."
	recExperience = "Experience Gap: Document any projects that are even partially related " +
		"to the tender scope. Reframe experience from adjacent sectors if applicable. " +
		"Check if apprenticeship/sub-contract experience counts under tender rules."
	recISO = "Certification: Obtain %s through a BIS-accredited certification body. " +
		"Fast-track ISO certification typically takes 4–8 weeks and costs ₹25,000–₹80,000. " +
		"Bodies: TÜV SÜD, Bureau Veritas, DNV."
	recUdyam = "Udyam Registration: Register at udyamregistration.gov.in — it's free, " +
		"instant, and based on Aadhaar. This is critical for accessing MSME benefits."
	recGeM = "GeM Registration: Register as a seller at gem.gov.in. " +
		"It's free and enables direct access to government procurement opportunities."
	recGenericCert = "Certification: Pursue %s through the relevant regulatory body " +
		"before bid submission."
	recPastProject = "Project Experience: If direct experience is lacking, explore sub-contracting " +
		"to a prime bidder who qualifies, then bid independently once you have qualifying projects. " +
		"Alternatively, form a JV with a company that has the required project experience."
	recDocuments = "Documents: Gather missing documents before bid submission: %s. " +
		"Most documents like audited balance sheets, IT returns, and registration " +
		"certificates should be collected 2–3 weeks before the deadline."
	recAllMet = "Company appears to meet all major eligibility criteria. " +
		"Focus on preparing a strong technical bid with well-documented past projects " +
		"and a competitive financial proposal."
)

// Recommend maps gaps to remediation advice, in gap order. With no gaps it
// returns a single positive recommendation.
func Recommend(gaps []Gap) []string {
	var recs []string

	for _, g := range gaps {
		switch g.Field {
		case FieldTurnover:
			recs = append(recs, recTurnoverJV, recTurnoverExemption)
		case FieldExperience:
			recs = append(recs, recExperience)
		case FieldCertifications:
			for _, cert := range g.Missing {
				recs = append(recs, certificationAdvice(cert))
			}
		case FieldPastProject:
			recs = append(recs, recPastProject)
		case FieldDocuments:
			recs = append(recs, fmt.Sprintf(recDocuments, strings.Join(g.Missing, ", ")))
		}
	}

	if len(recs) == 0 {
		recs = []string{recAllMet}
	}
	return recs
}

// certificationAdvice picks guidance by certificate name. The keys "ISO", "MSME",
// "Udyam" and "GeM" are matched case-sensitively.
func certificationAdvice(cert string) string {
	switch {
	case strings.Contains(cert, "ISO"):
		return fmt.Sprintf(recISO, cert)
	case strings.Contains(cert, "MSME") || strings.Contains(cert, "Udyam"):
		return recUdyam
	case strings.Contains(cert, "GeM"):
		return recGeM
	default:
		return fmt.Sprintf(recGenericCert, cert)
	}
}
