// internal/workers/compliance/quick-check/handler.go
package quickcheck

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/redis/go-redis/v9"

	"bidbuddy-workers/internal/common/database"
	apperrors "bidbuddy-workers/internal/common/errors"
	"bidbuddy-workers/internal/common/logger"
	"bidbuddy-workers/internal/common/metrics"
	"bidbuddy-workers/internal/common/observability"
	"bidbuddy-workers/internal/compliance"
	"bidbuddy-workers/internal/models"
	"bidbuddy-workers/internal/repository"
)

const (
	TaskType = "quick-check"
)

var (
	ErrInvalidInput       = errors.New("INVALID_INPUT")
	ErrTenderNotFound     = errors.New("TENDER_NOT_FOUND")
	ErrTenderNotExtracted = errors.New("TENDER_NOT_EXTRACTED")
	ErrCompanyNotFound    = errors.New("COMPANY_NOT_FOUND")
	ErrDatabaseFailed     = errors.New("DATABASE_FAILED")
)

type TenderReader interface {
	Get(ctx context.Context, id string) (*models.Tender, error)
}

type CompanyReader interface {
	Get(ctx context.Context, id string) (*models.CompanyProfile, error)
}

type Handler struct {
	config       *Config
	tenders      TenderReader
	companies    CompanyReader
	redis        redis.Cmdable
	logger       logger.Logger
	errorHandler *apperrors.ErrorHandler
}

// NewHandler builds the handler. A nil redis client disables result caching.
func NewHandler(config *Config, tenders TenderReader, companies CompanyReader, redis redis.Cmdable, log logger.Logger) *Handler {
	scoped := log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:       config,
		tenders:      tenders,
		companies:    companies,
		redis:        redis,
		logger:       scoped,
		errorHandler: apperrors.NewErrorHandler(scoped),
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	start := time.Now()
	metrics.WorkerJobsActive.WithLabelValues(TaskType).Inc()
	defer metrics.WorkerJobsActive.WithLabelValues(TaskType).Dec()

	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})

	var input Input
	if err := json.Unmarshal([]byte(job.Variables), &input); err != nil {
		h.fail(client, job, start, apperrors.NewInvalidInputError(fmt.Sprintf("parse input: %v", err)))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()
	ctx, span := observability.StartSpan(ctx, TaskType)
	defer span.End()

	output, err := h.execute(ctx, &input)
	if err != nil {
		h.fail(client, job, start, toStandardError(&input, err))
		return
	}

	h.completeJob(ctx, client, job, output)
	metrics.ObserveJob(TaskType, start, "")
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	if input.TenderID == "" || input.CompanyID == "" {
		return nil, fmt.Errorf("%w: tenderId and companyId are required", ErrInvalidInput)
	}

	cacheKey := CacheKey(input.TenderID, input.CompanyID)
	if h.redis != nil {
		var cached Output
		err := database.GetJSON(ctx, h.redis, cacheKey, &cached)
		if err == nil {
			cached.Cached = true
			return &cached, nil
		}
		if !errors.Is(err, database.ErrCacheMiss) {
			h.logger.Warn("quick check cache read failed", map[string]interface{}{
				"key":   cacheKey,
				"error": err.Error(),
			})
		}
	}

	tender, err := h.tenders.Get(ctx, input.TenderID)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return nil, ErrTenderNotFound
	case err != nil:
		return nil, fmt.Errorf("%w: %v", ErrDatabaseFailed, err)
	case tender.ExtractedData == nil:
		return nil, ErrTenderNotExtracted
	}

	company, err := h.companies.Get(ctx, input.CompanyID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrCompanyNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDatabaseFailed, err)
	}

	result := compliance.Score(tender.ExtractedData.ScoringInput(), company.ScoringProfile())
	output := &Output{
		TenderID:    input.TenderID,
		CompanyID:   input.CompanyID,
		Score:       result.Score,
		Verdict:     result.Verdict,
		GapCount:    len(result.Gaps),
		GapsSummary: models.SummarizeGaps(result.Gaps),
		Note:        Note,
	}

	if h.redis != nil {
		if err := database.SetJSON(ctx, h.redis, cacheKey, output, h.config.CacheTTL); err != nil {
			h.logger.Warn("quick check cache write failed", map[string]interface{}{
				"key":   cacheKey,
				"error": err.Error(),
			})
		}
	}

	return output, nil
}

func toStandardError(input *Input, err error) *apperrors.StandardError {
	switch {
	case errors.Is(err, ErrInvalidInput):
		return apperrors.NewInvalidInputError(err.Error())
	case errors.Is(err, ErrTenderNotFound):
		return apperrors.NewTenderNotFoundError(input.TenderID)
	case errors.Is(err, ErrTenderNotExtracted):
		return apperrors.NewTenderNotExtractedError(input.TenderID)
	case errors.Is(err, ErrCompanyNotFound):
		return apperrors.NewCompanyNotFoundError(input.CompanyID)
	case errors.Is(err, ErrDatabaseFailed):
		return apperrors.NewDatabaseConnectionFailedError(err)
	default:
		return apperrors.NewInternalError(err)
	}
}

func (h *Handler) completeJob(ctx context.Context, client worker.JobClient, job entities.Job, output *Output) {
	cmd, err := client.NewCompleteJobCommand().
		JobKey(job.Key).
		VariablesFromObject(output)
	if err != nil {
		h.logger.Error("failed to create complete job command", map[string]interface{}{
			"error": err,
		})
		return
	}
	if _, err := cmd.Send(ctx); err != nil {
		h.logger.Error("failed to send complete job command", map[string]interface{}{
			"error": err,
		})
	}
}

func (h *Handler) fail(client worker.JobClient, job entities.Job, start time.Time, stdErr *apperrors.StandardError) {
	metrics.ObserveJob(TaskType, start, string(stdErr.Code))
	h.errorHandler.HandleJobError(context.Background(), client, job, stdErr)
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
