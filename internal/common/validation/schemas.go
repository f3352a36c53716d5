package validation

// Fields of an extracted tender come from a language model. Number fields may
// be numbers, numeric strings or null, and every field except eligibility may
// be null.
const extractedTenderSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["eligibility"],
  "properties": {
    "tender_id":         {"type": ["string", "number", "null"]},
    "title":             {"type": ["string", "null"]},
    "issuing_authority": {"type": ["string", "null"]},
    "deadline":          {"type": ["string", "null"]},
    "estimated_value":   {"type": ["number", "string", "null"]},
    "eligibility": {
      "type": "object",
      "properties": {
        "min_turnover":             {"type": ["number", "string", "null"]},
        "years_experience":         {"type": ["number", "string", "null"]},
        "required_certifications":  {"type": ["array", "null"], "items": {"type": "string"}},
        "msme_preference":          {"type": ["boolean", "null"]},
        "past_project_requirement": {"type": ["string", "null"]},
        "min_single_project_value": {"type": ["number", "string", "null"]},
        "other_requirements":       {"type": ["array", "null"], "items": {"type": "string"}}
      }
    },
    "documents_required": {"type": ["array", "null"], "items": {"type": "string"}},
    "key_clauses":        {"type": ["array", "null"], "items": {"type": "string"}},
    "sector":             {"type": ["string", "null"]},
    "bid_security":       {"type": ["number", "string", "null"]},
    "contract_duration":  {"type": ["string", "null"]}
  }
}`

const companyProfileSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["name", "annualTurnover", "yearsInOperation"],
  "properties": {
    "id":                    {"type": "string"},
    "name":                  {"type": "string", "minLength": 1},
    "registrationNumber":    {"type": "string"},
    "pan":                   {"type": "string"},
    "gst":                   {"type": "string"},
    "annualTurnover":        {"type": "number", "minimum": 0},
    "netWorth":              {"type": "number", "minimum": 0},
    "yearsInOperation":      {"type": "integer", "minimum": 0},
    "certifications":        {"type": ["array", "null"], "items": {"type": "string"}},
    "sectors":               {"type": ["array", "null"], "items": {"type": "string"}},
    "maxSingleProjectValue": {"type": "number", "minimum": 0},
    "availableDocuments":    {"type": ["array", "null"], "items": {"type": "string"}},
    "msmeCategory":          {"type": "string"},
    "contactEmail":          {"type": "string", "format": "email"},
    "contactPhone":          {"type": "string"},
    "pastProjects": {
      "type": ["array", "null"],
      "items": {
        "type": "object",
        "required": ["name", "value"],
        "properties": {
          "name":   {"type": "string"},
          "client": {"type": "string"},
          "value":  {"type": "number", "minimum": 0},
          "year":   {"type": "integer"},
          "sector": {"type": "string"}
        }
      }
    }
  }
}`

var (
	ExtractedTenderSchema = MustCompile("extracted-tender", extractedTenderSchema)
	CompanyProfileSchema  = MustCompile("company-profile", companyProfileSchema)
)
