package queryelasticsearch

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	apperrors "bidbuddy-workers/internal/common/errors"
	"bidbuddy-workers/internal/common/logger"
	"bidbuddy-workers/internal/models"
	"bidbuddy-workers/internal/workers/data-access/query-elasticsearch/queries"
)

// ==========================
// Test Helper Functions
// ==========================

func createTestConfig() *Config {
	return &Config{
		Timeout:     5 * time.Second,
		TenderIndex: "tenders",
	}
}

func createTestLogger(t *testing.T) logger.Logger {
	return logger.NewZapAdapter(zaptest.NewLogger(t))
}

// newFakeES serves Elasticsearch responses from fn and records the last search body.
func newFakeES(t *testing.T, fn func(w http.ResponseWriter, r *http.Request, body map[string]interface{})) *elasticsearch.Client {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Elastic-Product", "Elasticsearch")
		w.Header().Set("Content-Type", "application/json")

		var body map[string]interface{}
		raw, _ := io.ReadAll(r.Body)
		if len(raw) > 0 {
			_ = json.Unmarshal(raw, &body)
		}
		fn(w, r, body)
	}))
	t.Cleanup(srv.Close)

	client, err := elasticsearch.NewClient(elasticsearch.Config{Addresses: []string{srv.URL}})
	require.NoError(t, err)
	return client
}

const searchHits = `{
  "took": 3,
  "hits": {
    "total": {"value": 2},
    "max_score": 4.2,
    "hits": [
      {"_id": "t-1", "_score": 4.2, "_source": {"tenderId": "t-1", "title": "Road resurfacing", "sector": "Infrastructure"}},
      {"_id": "t-2", "_score": 3.1, "_source": {"title": "Bridge repair", "sector": "Infrastructure"}}
    ]
  }
}`

// ==========================
// Core Functionality Tests
// ==========================

func TestHandler_Execute_TenderSearch(t *testing.T) {
	var captured map[string]interface{}
	var path string
	client := newFakeES(t, func(w http.ResponseWriter, r *http.Request, body map[string]interface{}) {
		captured = body
		path = r.URL.Path
		_, _ = io.WriteString(w, searchHits)
	})

	minValue, maxValue := 50.0, 500.0
	handler := NewHandler(createTestConfig(), client, createTestLogger(t))
	output, err := handler.Execute(context.Background(), &Input{
		QueryType:  string(models.QueryTypeTenderSearch),
		Keywords:   "road",
		Sector:     "Infrastructure",
		MinValue:   &minValue,
		MaxValue:   &maxValue,
		Pagination: Pagination{From: 0, Size: 500},
	})

	require.NoError(t, err)
	assert.Equal(t, "/tenders/_search", path)
	assert.Equal(t, int64(2), output.TotalHits)
	assert.Equal(t, 4.2, output.MaxScore)
	require.Len(t, output.Data, 2)
	assert.Equal(t, "t-2", output.Data[1]["tenderId"])

	boolQuery := captured["query"].(map[string]interface{})["bool"].(map[string]interface{})
	must := boolQuery["must"].([]interface{})
	multiMatch := must[0].(map[string]interface{})["multi_match"].(map[string]interface{})
	assert.Equal(t, "road", multiMatch["query"])
	assert.Contains(t, multiMatch["fields"], "title^3")

	filters := boolQuery["filter"].([]interface{})
	require.Len(t, filters, 2)
	valueRange := filters[1].(map[string]interface{})["range"].(map[string]interface{})["estimatedValue"].(map[string]interface{})
	assert.Equal(t, 50.0, valueRange["gte"])
	assert.Equal(t, 500.0, valueRange["lte"])
}

func TestHandler_Execute_TendersBySector(t *testing.T) {
	var captured map[string]interface{}
	client := newFakeES(t, func(w http.ResponseWriter, r *http.Request, body map[string]interface{}) {
		captured = body
		_, _ = io.WriteString(w, `{"took":1,"hits":{"total":{"value":0},"max_score":null,"hits":[]}}`)
	})

	handler := NewHandler(createTestConfig(), client, createTestLogger(t))
	output, err := handler.Execute(context.Background(), &Input{
		QueryType: string(models.QueryTypeTendersBySector),
		Sector:    "IT",
	})

	require.NoError(t, err)
	assert.Empty(t, output.Data)
	assert.Equal(t, 0.0, output.MaxScore)

	term := captured["query"].(map[string]interface{})["term"].(map[string]interface{})
	assert.Equal(t, "IT", term["sector"])
	assert.NotNil(t, captured["sort"])
}

// ==========================
// Error Handling Tests
// ==========================

func TestHandler_Execute_Errors(t *testing.T) {
	tests := []struct {
		name         string
		input        *Input
		status       int
		expectedErr  error
		expectedCode apperrors.ErrorCode
	}{
		{
			name:         "unknown query type",
			input:        &Input{QueryType: "auction_index"},
			expectedErr:  ErrInvalidQueryType,
			expectedCode: apperrors.ErrCodeInvalidQueryType,
		},
		{
			name:         "sector query without sector",
			input:        &Input{QueryType: string(models.QueryTypeTendersBySector)},
			expectedErr:  ErrInvalidQueryType,
			expectedCode: apperrors.ErrCodeInvalidQueryType,
		},
		{
			name:         "missing index",
			input:        &Input{QueryType: string(models.QueryTypeTenderSearch)},
			status:       http.StatusNotFound,
			expectedErr:  ErrIndexNotFound,
			expectedCode: apperrors.ErrCodeIndexNotFound,
		},
		{
			name:         "cluster error",
			input:        &Input{QueryType: string(models.QueryTypeTenderSearch)},
			status:       http.StatusBadRequest,
			expectedErr:  ErrSearchQueryFailed,
			expectedCode: apperrors.ErrCodeSearchQueryFailed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newFakeES(t, func(w http.ResponseWriter, r *http.Request, body map[string]interface{}) {
				w.WriteHeader(tt.status)
				_, _ = io.WriteString(w, `{"error":{"type":"index_not_found_exception"},"status":404}`)
			})
			handler := NewHandler(createTestConfig(), client, createTestLogger(t))

			output, err := handler.Execute(context.Background(), tt.input)

			assert.Nil(t, output)
			assert.ErrorIs(t, err, tt.expectedErr)
			assert.Equal(t, tt.expectedCode, handler.toStandardError(tt.input, err).Code)
		})
	}
}

// ==========================
// Query Builder Tests
// ==========================

func TestBuildQuery_Paging(t *testing.T) {
	req, err := queries.BuildQuery(queries.TenderQuery{
		Index:     "tenders",
		QueryType: models.QueryTypeTenderSearch,
		From:      -5,
		Size:      0,
	})
	require.NoError(t, err)
	assert.Equal(t, 0, *req.From)
	assert.Equal(t, queries.DefaultPageSize, *req.Size)

	req, err = queries.BuildQuery(queries.TenderQuery{Index: "tenders", QueryType: models.QueryTypeTenderSearch, Size: 1000})
	require.NoError(t, err)
	assert.Equal(t, queries.MaxPageSize, *req.Size)

	_, err = queries.BuildQuery(queries.TenderQuery{QueryType: models.QueryTypeTenderSearch})
	assert.ErrorIs(t, err, queries.ErrMissingIndex)
}
