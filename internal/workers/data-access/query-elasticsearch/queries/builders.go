package queries

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/elastic/go-elasticsearch/v8/esapi"

	"bidbuddy-workers/internal/models"
)

var (
	ErrUnknownQueryType = errors.New("unknown query type")
	ErrMissingIndex     = errors.New("index name is required")
	ErrMissingSector    = errors.New("sector is required")
	ErrIndexNotFound    = errors.New("index not found")
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// TenderQuery describes one search against the tender index.
type TenderQuery struct {
	Index     string
	QueryType models.QueryType
	Keywords  string
	Sector    string
	Status    string
	MinValue  *float64
	MaxValue  *float64
	From      int
	Size      int
}

// normalizePage clamps paging to from >= 0 and size in 1..100.
func (q *TenderQuery) normalizePage() {
	if q.From < 0 {
		q.From = 0
	}
	if q.Size < 1 {
		q.Size = DefaultPageSize
	}
	if q.Size > MaxPageSize {
		q.Size = MaxPageSize
	}
}

// BuildQuery builds an Elasticsearch search request based on query type and filters
func BuildQuery(q TenderQuery) (*esapi.SearchRequest, error) {
	if q.Index == "" {
		return nil, ErrMissingIndex
	}
	q.normalizePage()

	var queryBody map[string]interface{}

	switch q.QueryType {
	case models.QueryTypeTenderSearch:
		queryBody = buildTenderSearchQuery(q)
	case models.QueryTypeTendersBySector:
		if q.Sector == "" {
			return nil, ErrMissingSector
		}
		queryBody = buildTendersBySectorQuery(q)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownQueryType, q.QueryType)
	}

	body, err := json.Marshal(queryBody)
	if err != nil {
		return nil, err
	}

	return &esapi.SearchRequest{
		Index: []string{q.Index},
		Body:  bytes.NewReader(body),
		From:  &q.From,
		Size:  &q.Size,
	}, nil
}

func buildTenderSearchQuery(q TenderQuery) map[string]interface{} {
	mustClauses := []interface{}{}
	filterClauses := []interface{}{}

	if q.Keywords != "" {
		mustClauses = append(mustClauses, map[string]interface{}{
			"multi_match": map[string]interface{}{
				"query":  q.Keywords,
				"fields": []string{"title^3", "keyClauses^2", "sector", "issuingAuthority"},
				"type":   "best_fields",
			},
		})
	}

	if q.Sector != "" {
		filterClauses = append(filterClauses, map[string]interface{}{
			"term": map[string]interface{}{"sector": q.Sector},
		})
	}
	if q.Status != "" {
		filterClauses = append(filterClauses, map[string]interface{}{
			"term": map[string]interface{}{"status": q.Status},
		})
	}

	if q.MinValue != nil || q.MaxValue != nil {
		bounds := map[string]interface{}{}
		if q.MinValue != nil {
			bounds["gte"] = *q.MinValue
		}
		if q.MaxValue != nil {
			bounds["lte"] = *q.MaxValue
		}
		filterClauses = append(filterClauses, map[string]interface{}{
			"range": map[string]interface{}{"estimatedValue": bounds},
		})
	}

	if len(mustClauses) == 0 {
		mustClauses = append(mustClauses, map[string]interface{}{"match_all": map[string]interface{}{}})
	}

	boolQuery := map[string]interface{}{"must": mustClauses}
	if len(filterClauses) > 0 {
		boolQuery["filter"] = filterClauses
	}

	return map[string]interface{}{
		"query": map[string]interface{}{"bool": boolQuery},
	}
}

// buildTendersBySectorQuery lists a sector's tenders, earliest deadline first.
func buildTendersBySectorQuery(q TenderQuery) map[string]interface{} {
	return map[string]interface{}{
		"query": map[string]interface{}{
			"term": map[string]interface{}{"sector": q.Sector},
		},
		"sort": []map[string]interface{}{
			{"deadline": map[string]interface{}{"order": "asc", "missing": "_last"}},
		},
	}
}
