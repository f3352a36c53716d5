// internal/workers/compliance/score-compliance/handler.go
package scorecompliance

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
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
	"bidbuddy-workers/internal/compliance"
	"bidbuddy-workers/internal/models"
	"bidbuddy-workers/internal/repository"
)

const (
	TaskType = "score-compliance"
)

var (
	ErrInvalidInput       = errors.New("INVALID_INPUT")
	ErrTenderNotFound     = errors.New("TENDER_NOT_FOUND")
	ErrTenderNotExtracted = errors.New("TENDER_NOT_EXTRACTED")
	ErrCompanyNotFound    = errors.New("COMPANY_NOT_FOUND")
	ErrDatabaseFailed     = errors.New("DATABASE_FAILED")
	ErrReportInsertFailed = errors.New("DATABASE_INSERT_FAILED")
)

type TenderReader interface {
	Get(ctx context.Context, id string) (*models.Tender, error)
}

type CompanyReader interface {
	Get(ctx context.Context, id string) (*models.CompanyProfile, error)
}

type ReportWriter interface {
	Create(ctx context.Context, r *models.ComplianceReport) error
}

type Handler struct {
	config       *Config
	tenders      TenderReader
	companies    CompanyReader
	reports      ReportWriter
	llm          genai.TextGenerator
	publisher    events.Publisher
	logger       logger.Logger
	errorHandler *apperrors.ErrorHandler
}

func NewHandler(
	config *Config,
	tenders TenderReader,
	companies CompanyReader,
	reports ReportWriter,
	llm genai.TextGenerator,
	publisher events.Publisher,
	log logger.Logger,
) *Handler {
	scoped := log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:       config,
		tenders:      tenders,
		companies:    companies,
		reports:      reports,
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

	result := compliance.Score(tender.ExtractedData.ScoringInput(), company.ScoringProfile())

	report := models.NewComplianceReport(
		uuid.New().String(),
		tender.ID,
		company.ID,
		result,
		time.Now().UTC().Format(time.RFC3339),
	)
	if input.WantsAI() {
		report.AIAnalysis = h.analyze(ctx, tender.ExtractedData, company, result.Gaps)
	}

	if err := h.reports.Create(ctx, report); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrReportInsertFailed, err)
	}

	metrics.ComplianceScore.WithLabelValues(string(result.Verdict)).Observe(result.Score)
	for _, g := range result.Gaps {
		metrics.ComplianceGaps.WithLabelValues(g.Field, string(g.Severity)).Inc()
	}

	h.logger.Info("compliance scored", map[string]interface{}{
		"reportId":  report.ID,
		"tenderId":  report.TenderID,
		"companyId": report.CompanyID,
		"score":     report.Score,
		"verdict":   report.Verdict,
		"gaps":      len(report.Gaps),
	})

	// The report is already stored; a failed publish must not cause a retry
	// that would insert a second report.
	if err := h.publisher.Publish(ctx, events.TypeComplianceReportCreated, report.TenderID, reportCreatedEvent{
		ReportID:  report.ID,
		TenderID:  report.TenderID,
		CompanyID: report.CompanyID,
		Score:     report.Score,
		Verdict:   string(report.Verdict),
		GapCount:  len(report.Gaps),
	}); err != nil {
		h.logger.Warn("failed to publish report event", map[string]interface{}{
			"reportId": report.ID,
			"error":    err.Error(),
		})
	}

	return &Output{ComplianceReport: *report, ReportID: report.ID}, nil
}

// analyze returns the model's narrative, or a note explaining why there is none.
func (h *Handler) analyze(ctx context.Context, tender *models.ExtractedTender, company *models.CompanyProfile, gaps []compliance.Gap) string {
	ctx, cancel := context.WithTimeout(ctx, h.config.AITimeout)
	defer cancel()

	text, err := h.llm.GenerateText(ctx, genai.GapAnalysisPrompt(tender, company, gaps),
		genai.GapAnalysisTemperature, genai.GapAnalysisMaxTokens)
	if err != nil {
		h.logger.Warn("gap analysis failed", map[string]interface{}{
			"error": err.Error(),
		})
		return "AI analysis failed: " + err.Error()
	}
	return text
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
	case errors.Is(err, ErrReportInsertFailed):
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
