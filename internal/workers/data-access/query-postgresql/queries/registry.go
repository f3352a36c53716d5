// internal/workers/data-access/query-postgresql/queries/registry.go
package queries

import (
	"context"
	"errors"
	"fmt"

	"bidbuddy-workers/internal/models"
	"bidbuddy-workers/internal/repository"
)

var (
	ErrMissingParam     = errors.New("missing required parameter")
	ErrUnknownQueryType = errors.New("unknown query type")
)

// QueryFunc returns: data, rowCount, executionTime (ms), error
type QueryFunc func(ctx context.Context, store *repository.Store, params map[string]interface{}) (interface{}, int, int64, error)

var Registry = map[models.QueryType]QueryFunc{
	models.QueryTypeTenderDetails:     TenderDetails,
	models.QueryTypeCompanyProfile:    CompanyProfile,
	models.QueryTypeComplianceReports: ComplianceReports,
	models.QueryTypeComplianceReport:  ComplianceReport,
	models.QueryTypeBidDrafts:         BidDrafts,
}

func Execute(ctx context.Context, store *repository.Store, queryType models.QueryType, params map[string]interface{}) (interface{}, int, int64, error) {
	fn, exists := Registry[queryType]
	if !exists {
		return nil, 0, 0, fmt.Errorf("%w: %s", ErrUnknownQueryType, queryType)
	}
	return fn(ctx, store, params)
}

func stringParam(params map[string]interface{}, key string) (string, error) {
	v, ok := params[key].(string)
	if !ok || v == "" {
		return "", fmt.Errorf("%w: %s", ErrMissingParam, key)
	}
	return v, nil
}

func optionalString(params map[string]interface{}, key string) string {
	v, _ := params[key].(string)
	return v
}

// intParam accepts the float64 that encoding/json produces as well as plain ints.
func intParam(params map[string]interface{}, key string) int {
	switch v := params[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	}
	return 0
}
