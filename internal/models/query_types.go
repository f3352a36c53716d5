// internal/models/query_types.go
package models

type QueryType string

// PostgreSQL query types.
const (
	QueryTypeTenderDetails     QueryType = "tender_details"
	QueryTypeCompanyProfile    QueryType = "company_profile"
	QueryTypeComplianceReports QueryType = "compliance_reports"
	QueryTypeComplianceReport  QueryType = "compliance_report"
	QueryTypeBidDrafts         QueryType = "bid_drafts"
)

// Elasticsearch query types.
const (
	QueryTypeTenderSearch    QueryType = "tender_search"
	QueryTypeTendersBySector QueryType = "tenders_by_sector"
)
