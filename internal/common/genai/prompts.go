package genai

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"bidbuddy-workers/internal/compliance"
	"bidbuddy-workers/internal/models"
)

// Generation settings per purpose.
const (
	ExtractionTemperature = 0.0
	ExtractionMaxTokens   = 2048

	GapAnalysisTemperature = 0.5
	GapAnalysisMaxTokens   = 1024

	BidDraftTemperature = 0.4
	BidDraftMaxTokens   = 4096

	CopilotTemperature = 0.3
	CopilotMaxTokens   = 1024
	CopilotHistorySize = 6
)

const extractionSchema = `{
  "tender_id": null,
  "title": "string",
  "issuing_authority": "string",
  "deadline": "DD-MM-YYYY or null",
  "estimated_value": null,
  "eligibility": {
    "min_turnover": null,
    "years_experience": null,
    "required_certifications": [],
    "msme_preference": false,
    "past_project_requirement": null,
    "min_single_project_value": null,
    "other_requirements": []
  },
  "documents_required": [],
  "key_clauses": [],
  "sector": "string",
  "bid_security": null,
  "contract_duration": null
}`

// ExtractionPrompt asks for the tender structure as a bare JSON object.
func ExtractionPrompt(tenderText string) string {
	var b strings.Builder
	b.WriteString("You are a government tender analyst. Extract structured data from the tender text below.\n\n")
	b.WriteString("CRITICAL INSTRUCTIONS:\n")
	b.WriteString("- Your response must start with { and end with }\n")
	b.WriteString("- Do NOT write any text before or after the JSON\n")
	b.WriteString("- Do NOT use markdown code fences\n")
	b.WriteString("- Return ONLY the raw JSON object\n\n")
	b.WriteString("Use this exact schema:\n")
	b.WriteString(extractionSchema)
	b.WriteString("\n\nRules:\n")
	b.WriteString("- Use null for missing values, [] for empty lists\n")
	b.WriteString("- All money values in INR Lakhs (1 Crore = 100 Lakhs)\n")
	b.WriteString("- Do NOT guess values not explicitly in the document\n\n")
	b.WriteString("TENDER TEXT:\n")
	b.WriteString(tenderText)
	return b.String()
}

// GapAnalysisPrompt asks for a short strategic narrative on the scoring gaps.
func GapAnalysisPrompt(tender *models.ExtractedTender, company *models.CompanyProfile, gaps []compliance.Gap) string {
	gapText := "None"
	if len(gaps) > 0 {
		gapText = indentJSON(gaps)
	}

	var b strings.Builder
	b.WriteString("You are a senior procurement consultant analyzing an MSME's eligibility for a government tender.\n\n")
	fmt.Fprintf(&b, "TENDER: %s | Authority: %s\n", tender.Title, tender.IssuingAuthority)
	fmt.Fprintf(&b, "REQUIREMENTS: %s\n\n", indentJSON(tender.Eligibility))
	b.WriteString("COMPANY:\n")
	fmt.Fprintf(&b, "- Name: %s\n", company.Name)
	fmt.Fprintf(&b, "- Turnover: Rs.%s Lakhs\n", formatAmount(company.AnnualTurnover))
	fmt.Fprintf(&b, "- Experience: %d years\n", company.YearsInOperation)
	fmt.Fprintf(&b, "- Certifications: %s\n", strings.Join(company.Certifications, ", "))
	fmt.Fprintf(&b, "- MSME: %s\n\n", valueOr(company.MSMECategory, "Not specified"))
	fmt.Fprintf(&b, "IDENTIFIED GAPS: %s\n\n", gapText)
	b.WriteString("Write a 3-4 paragraph strategic analysis:\n")
	b.WriteString("1. Overall assessment\n")
	b.WriteString("2. Critical gaps and why they matter\n")
	b.WriteString("3. Specific actionable steps to address gaps\n")
	b.WriteString("4. Alternative strategies (consortium, sub-contracting, etc.)\n\n")
	b.WriteString("Be encouraging but realistic. Use Indian procurement context.\n")
	return b.String()
}

// BidDraftSections are the Markdown sections a bid draft must contain, in order.
var BidDraftSections = []string{
	"Cover Letter",
	"Company Overview",
	"Technical Compliance Statement",
	"Scope Understanding & Approach",
	"Relevant Past Experience",
	"Team & Resource Plan",
	"Quality Assurance",
	"Compliance Declarations",
	"Document Index",
}

// BidDraftPrompt asks for a full proposal in Markdown.
func BidDraftPrompt(tender *models.ExtractedTender, company *models.CompanyProfile, additionalContext string) string {
	estimated := "N/A"
	if tender.EstimatedValue.Valid {
		estimated = formatAmount(tender.EstimatedValue.V)
	}

	var b strings.Builder
	b.WriteString("You are a senior procurement consultant in India. Generate a professional bid proposal.\n\n")
	b.WriteString("TENDER:\n")
	fmt.Fprintf(&b, "- Title: %s\n", valueOr(tender.Title, "N/A"))
	fmt.Fprintf(&b, "- Authority: %s\n", valueOr(tender.IssuingAuthority, "N/A"))
	fmt.Fprintf(&b, "- Sector: %s\n", valueOr(tender.Sector, "N/A"))
	fmt.Fprintf(&b, "- Value: Rs.%s Lakhs\n", estimated)
	fmt.Fprintf(&b, "- Requirements: %s\n", indentJSON(tender.Eligibility))
	fmt.Fprintf(&b, "- Documents Required: %s\n\n", strings.Join(tender.DocumentsRequired, ", "))
	b.WriteString("COMPANY:\n")
	fmt.Fprintf(&b, "- Name: %s\n", company.Name)
	fmt.Fprintf(&b, "- MSME Category: %s\n", valueOr(company.MSMECategory, "MSME"))
	fmt.Fprintf(&b, "- Annual Turnover: Rs.%s Lakhs\n", formatAmount(company.AnnualTurnover))
	fmt.Fprintf(&b, "- Years in Operation: %d\n", company.YearsInOperation)
	fmt.Fprintf(&b, "- Certifications: %s\n", strings.Join(company.Certifications, ", "))
	b.WriteString("- Past Projects:\n")
	b.WriteString(pastProjectLines(company.PastProjects, 5))
	b.WriteString("\n")

	if additionalContext != "" {
		fmt.Fprintf(&b, "\nAdditional Instructions: %s\n", additionalContext)
	}

	b.WriteString("\nWrite a complete bid proposal in Markdown with these sections:\n")
	for i, s := range BidDraftSections {
		fmt.Fprintf(&b, "%d. %s\n", i+1, s)
	}
	b.WriteString("\nUse formal language. Be specific. Reference actual values from above.\n")
	return b.String()
}

// CopilotPrompt asks a question about one tender, with recent conversation turns.
func CopilotPrompt(tenderContext interface{}, history []models.CopilotMessage, question string) string {
	var hist strings.Builder
	start := 0
	if len(history) > CopilotHistorySize {
		start = len(history) - CopilotHistorySize
	}
	for _, m := range history[start:] {
		role := "Assistant"
		if m.Role == models.RoleUser {
			role = "User"
		}
		fmt.Fprintf(&hist, "%s: %s\n", role, m.Content)
	}

	var b strings.Builder
	b.WriteString("You are an Indian government procurement consultant helping an MSME understand a tender.\n\n")
	b.WriteString("TENDER CONTEXT:\n")
	b.WriteString(indentJSON(tenderContext))
	b.WriteString("\n\n")
	if hist.Len() > 0 {
		b.WriteString("PREVIOUS CONVERSATION:\n")
		b.WriteString(hist.String())
		b.WriteString("\n")
	}
	fmt.Fprintf(&b, "USER QUESTION: %s\n\n", question)
	b.WriteString("Answer clearly and specifically based on the tender context.\n")
	b.WriteString("Reference data directly. Be concise and actionable.\n")
	return b.String()
}

func pastProjectLines(projects []models.PastProject, limit int) string {
	if len(projects) == 0 {
		return "  - No past projects listed"
	}
	if len(projects) > limit {
		projects = projects[:limit]
	}
	lines := make([]string, 0, len(projects))
	for _, p := range projects {
		lines = append(lines, fmt.Sprintf("  - %s: Rs.%sL, Client: %s, Year: %d", p.Name, formatAmount(p.Value), p.Client, p.Year))
	}
	return strings.Join(lines, "\n")
}

func indentJSON(v interface{}) string {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "{}"
	}
	return string(data)
}

func formatAmount(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func valueOr(s, fallback string) string {
	if strings.TrimSpace(s) == "" {
		return fallback
	}
	return s
}
