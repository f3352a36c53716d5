// internal/workers/data-access/query-postgresql/queries/tender.go
package queries

import (
	"context"
	"time"

	"bidbuddy-workers/internal/repository"
)

func TenderDetails(ctx context.Context, store *repository.Store, params map[string]interface{}) (interface{}, int, int64, error) {
	tenderID, err := stringParam(params, "tenderId")
	if err != nil {
		return nil, 0, 0, err
	}

	start := time.Now()
	tender, err := store.Tenders.Get(ctx, tenderID)
	if err != nil {
		return nil, 0, 0, err
	}
	return tender, 1, time.Since(start).Milliseconds(), nil
}

func CompanyProfile(ctx context.Context, store *repository.Store, params map[string]interface{}) (interface{}, int, int64, error) {
	companyID, err := stringParam(params, "companyId")
	if err != nil {
		return nil, 0, 0, err
	}

	start := time.Now()
	company, err := store.Companies.Get(ctx, companyID)
	if err != nil {
		return nil, 0, 0, err
	}
	return company, 1, time.Since(start).Milliseconds(), nil
}
