// internal/workers/data-access/query-elasticsearch/models.go
package queryelasticsearch

type Input struct {
	QueryType  string     `json:"queryType"`
	Keywords   string     `json:"keywords,omitempty"`
	Sector     string     `json:"sector,omitempty"`
	Status     string     `json:"status,omitempty"`
	MinValue   *float64   `json:"minValue,omitempty"` // INR lakhs
	MaxValue   *float64   `json:"maxValue,omitempty"`
	Pagination Pagination `json:"pagination"`
}

type Pagination struct {
	From int `json:"from"`
	Size int `json:"size"`
}

type Output struct {
	Data      []map[string]interface{} `json:"data"`
	TotalHits int64                    `json:"totalHits"`
	MaxScore  float64                  `json:"maxScore"`
	Took      int64                    `json:"took"` // milliseconds
}
