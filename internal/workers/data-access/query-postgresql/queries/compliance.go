// internal/workers/data-access/query-postgresql/queries/compliance.go
package queries

import (
	"context"
	"time"

	"bidbuddy-workers/internal/repository"
)

// ComplianceReports lists reports, optionally narrowed to a tender and/or company.
func ComplianceReports(ctx context.Context, store *repository.Store, params map[string]interface{}) (interface{}, int, int64, error) {
	filter := repository.ReportFilter{
		TenderID:  optionalString(params, "tenderId"),
		CompanyID: optionalString(params, "companyId"),
		Skip:      intParam(params, "skip"),
		Limit:     intParam(params, "limit"),
	}

	start := time.Now()
	reports, err := store.Reports.List(ctx, filter)
	if err != nil {
		return nil, 0, 0, err
	}
	return reports, len(reports), time.Since(start).Milliseconds(), nil
}

func ComplianceReport(ctx context.Context, store *repository.Store, params map[string]interface{}) (interface{}, int, int64, error) {
	reportID, err := stringParam(params, "reportId")
	if err != nil {
		return nil, 0, 0, err
	}

	start := time.Now()
	report, err := store.Reports.Get(ctx, reportID)
	if err != nil {
		return nil, 0, 0, err
	}
	return report, 1, time.Since(start).Milliseconds(), nil
}

func BidDrafts(ctx context.Context, store *repository.Store, params map[string]interface{}) (interface{}, int, int64, error) {
	tenderID, err := stringParam(params, "tenderId")
	if err != nil {
		return nil, 0, 0, err
	}
	companyID, err := stringParam(params, "companyId")
	if err != nil {
		return nil, 0, 0, err
	}

	start := time.Now()
	drafts, err := store.Drafts.List(ctx, tenderID, companyID)
	if err != nil {
		return nil, 0, 0, err
	}
	return drafts, len(drafts), time.Since(start).Milliseconds(), nil
}
