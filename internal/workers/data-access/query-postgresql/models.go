// internal/workers/data-access/query-postgresql/models.go
package querypostgresql

type Input struct {
	QueryType string `json:"queryType"`
	TenderID  string `json:"tenderId,omitempty"`
	CompanyID string `json:"companyId,omitempty"`
	ReportID  string `json:"reportId,omitempty"`
	Skip      int    `json:"skip,omitempty"`
	Limit     int    `json:"limit,omitempty"`
}

type Output struct {
	Data               interface{} `json:"data"`
	RowCount           int         `json:"rowCount"`
	QueryExecutionTime int64       `json:"queryExecutionTime"` // milliseconds
}
