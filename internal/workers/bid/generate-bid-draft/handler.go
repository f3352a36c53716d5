// internal/workers/bid/generate-bid-draft/handler.go
package generatebiddraft

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/google/uuid"

	apperrors "bidbuddy-workers/internal/common/errors"
	"bidbuddy-workers/internal/common/events"
	"bidbuddy-workers/internal/common/genai"
	"bidbuddy-workers/internal/common/logger"
	"bidbuddy-workers/internal/common/metrics"
	"bidbuddy-workers/internal/common/observability"
	"bidbuddy-workers/internal/models"
	"bidbuddy-workers/internal/repository"
)

const (
	TaskType   = "generate-bid-draft"
	llmPurpose = "bid_draft"
)

var (
	ErrInvalidInput       = errors.New("INVALID_INPUT")
	ErrTenderNotFound     = errors.New("TENDER_NOT_FOUND")
	ErrTenderNotExtracted = errors.New("TENDER_NOT_EXTRACTED")
	ErrCompanyNotFound    = errors.New("COMPANY_NOT_FOUND")
	ErrDatabaseFailed     = errors.New("DATABASE_FAILED")
	ErrDraftInsertFailed  = errors.New("DATABASE_INSERT_FAILED")
)

type TenderReader interface {
	Get(ctx context.Context, id string) (*models.Tender, error)
}

type CompanyReader interface {
	Get(ctx context.Context, id string) (*models.CompanyProfile, error)
}

type DraftWriter interface {
	CreateNextVersion(ctx context.Context, d *models.BidDraft) error
}

type Handler struct {
	config       *Config
	tenders      TenderReader
	companies    CompanyReader
	drafts       DraftWriter
	llm          genai.TextGenerator
	publisher    events.Publisher
	logger       logger.Logger
	errorHandler *apperrors.ErrorHandler
}

func NewHandler(
	config *Config,
	tenders TenderReader,
	companies CompanyReader,
	drafts DraftWriter,
	llm genai.TextGenerator,
	publisher events.Publisher,
	log logger.Logger,
) *Handler {
	scoped := log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:       config,
		tenders:      tenders,
		companies:    companies,
		drafts:       drafts,
		llm:          llm,
		publisher:    publisher,
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

	additional := strings.TrimSpace(input.AdditionalContext)
	prompt := genai.BidDraftPrompt(tender.ExtractedData, company, additional)
	content, err := h.llm.GenerateText(ctx, prompt, genai.BidDraftTemperature, genai.BidDraftMaxTokens)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(content) == "" {
		return nil, fmt.Errorf("%w: empty draft", genai.ErrLLMGenerationFailed)
	}

	draft := &models.BidDraft{
		ID:                uuid.New().String(),
		TenderID:          tender.ID,
		CompanyID:         company.ID,
		Content:           content,
		AdditionalContext: additional,
		CreatedAt:         time.Now().UTC().Format(time.RFC3339),
	}
	if err := h.drafts.CreateNextVersion(ctx, draft); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDraftInsertFailed, err)
	}

	h.logger.Info("bid draft generated", map[string]interface{}{
		"draftId":   draft.ID,
		"tenderId":  draft.TenderID,
		"companyId": draft.CompanyID,
		"version":   draft.Version,
		"length":    len(draft.Content),
	})

	// Stored drafts are versioned; a retry here would add another version.
	if err := h.publisher.Publish(ctx, events.TypeBidDraftCreated, draft.TenderID, draftCreatedEvent{
		DraftID:   draft.ID,
		TenderID:  draft.TenderID,
		CompanyID: draft.CompanyID,
		Version:   draft.Version,
	}); err != nil {
		h.logger.Warn("failed to publish draft event", map[string]interface{}{
			"draftId": draft.ID,
			"error":   err.Error(),
		})
	}

	return &Output{
		DraftID:   draft.ID,
		Version:   draft.Version,
		Content:   draft.Content,
		CreatedAt: draft.CreatedAt,
	}, nil
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
	case errors.Is(err, genai.ErrLLMTimeout):
		return apperrors.NewLLMTimeoutError(llmPurpose)
	case errors.Is(err, genai.ErrLLMGenerationFailed):
		return apperrors.NewLLMGenerationFailedError(llmPurpose, err)
	case errors.Is(err, ErrDraftInsertFailed):
		return apperrors.NewDatabaseInsertFailedError(err)
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
