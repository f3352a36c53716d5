// internal/models/company.go
package models

import "bidbuddy-workers/internal/compliance"

// CompanyProfile is a row of the company_profiles table. Money is in INR lakhs.
type CompanyProfile struct {
	ID                    string        `json:"id"`
	OwnerID               string        `json:"ownerId,omitempty"`
	Name                  string        `json:"name"`
	RegistrationNumber    string        `json:"registrationNumber,omitempty"`
	PAN                   string        `json:"pan,omitempty"`
	GST                   string        `json:"gst,omitempty"`
	AnnualTurnover        float64       `json:"annualTurnover"`
	NetWorth              float64       `json:"netWorth"`
	YearsInOperation      int           `json:"yearsInOperation"`
	Certifications        []string      `json:"certifications"`
	Sectors               []string      `json:"sectors"`
	PastProjects          []PastProject `json:"pastProjects"`
	MaxSingleProjectValue float64       `json:"maxSingleProjectValue"`
	AvailableDocuments    []string      `json:"availableDocuments"`
	MSMECategory          string        `json:"msmeCategory,omitempty"`
	ContactEmail          string        `json:"contactEmail,omitempty"`
	ContactPhone          string        `json:"contactPhone,omitempty"`
	CreatedAt             string        `json:"createdAt,omitempty"`
	UpdatedAt             string        `json:"updatedAt,omitempty"`
}

type PastProject struct {
	Name   string  `json:"name"`
	Client string  `json:"client,omitempty"`
	Value  float64 `json:"value"`
	Year   int     `json:"year,omitempty"`
	Sector string  `json:"sector,omitempty"`
}

// ScoringProfile converts the stored profile into scoring input.
func (c *CompanyProfile) ScoringProfile() compliance.CompanyProfile {
	projects := make([]compliance.PastProject, 0, len(c.PastProjects))
	for _, p := range c.PastProjects {
		projects = append(projects, compliance.PastProject{Name: p.Name, Value: p.Value})
	}
	return compliance.CompanyProfile{
		AnnualTurnover:        c.AnnualTurnover,
		YearsInOperation:      c.YearsInOperation,
		Certifications:        append([]string(nil), c.Certifications...),
		PastProjects:          projects,
		MaxSingleProjectValue: c.MaxSingleProjectValue,
		AvailableDocuments:    append([]string(nil), c.AvailableDocuments...),
		MSMECategory:          c.MSMECategory,
	}
}
