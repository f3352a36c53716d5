// internal/workers/tender/extract-tender-structure/handler.go
package extracttenderstructure

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	apperrors "bidbuddy-workers/internal/common/errors"
	"bidbuddy-workers/internal/common/events"
	"bidbuddy-workers/internal/common/genai"
	"bidbuddy-workers/internal/common/logger"
	"bidbuddy-workers/internal/common/metrics"
	"bidbuddy-workers/internal/common/observability"
	"bidbuddy-workers/internal/common/pdftext"
	"bidbuddy-workers/internal/common/storage"
	"bidbuddy-workers/internal/common/validation"
	"bidbuddy-workers/internal/models"
	"bidbuddy-workers/internal/repository"
)

const (
	TaskType = "extract-tender-structure"

	llmPurpose = "extraction"
)

var (
	ErrInvalidInput       = errors.New("INVALID_INPUT")
	ErrTenderNotFound     = errors.New("TENDER_NOT_FOUND")
	ErrObjectFetchFailed  = errors.New("OBJECT_FETCH_FAILED")
	ErrPDFImageBased      = errors.New("PDF_IMAGE_BASED")
	ErrExtractionFailed   = errors.New("EXTRACTION_FAILED")
	ErrDatabaseFailed     = errors.New("DATABASE_INSERT_FAILED")
	ErrEventPublishFailed = errors.New("EVENT_PUBLISH_FAILED")
)

// TenderStore is the tender persistence used during extraction.
type TenderStore interface {
	Get(ctx context.Context, id string) (*models.Tender, error)
	SaveExtraction(ctx context.Context, t *models.Tender) error
	MarkFailed(ctx context.Context, id, reason string, pageCount int) error
}

type Handler struct {
	config       *Config
	tenders      TenderStore
	objects      storage.ObjectReader
	llm          genai.TextGenerator
	publisher    events.Publisher
	logger       logger.Logger
	errorHandler *apperrors.ErrorHandler
}

func NewHandler(
	config *Config,
	tenders TenderStore,
	objects storage.ObjectReader,
	llm genai.TextGenerator,
	publisher events.Publisher,
	log logger.Logger,
) *Handler {
	scoped := log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:       config,
		tenders:      tenders,
		objects:      objects,
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
	if input.TenderID == "" {
		return nil, fmt.Errorf("%w: tenderId is required", ErrInvalidInput)
	}

	tender, err := h.tenders.Get(ctx, input.TenderID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrTenderNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: load tender: %v", ErrDatabaseFailed, err)
	}

	doc, err := h.readDocument(ctx, input, tender)
	if err != nil {
		if errors.Is(err, pdftext.ErrImageBased) || errors.Is(err, ErrExtractionFailed) {
			pages := 0
			if doc != nil {
				pages = doc.PageCount
			}
			h.markFailed(ctx, tender.ID, err.Error(), pages)
		}
		if errors.Is(err, pdftext.ErrImageBased) {
			return nil, fmt.Errorf("%w: %v", ErrPDFImageBased, err)
		}
		return nil, err
	}

	prompt := genai.ExtractionPrompt(pdftext.RelevantText(doc.Sections, doc.FullText, h.config.RelevantTextLen))
	reply, err := h.llm.GenerateText(ctx, prompt, genai.ExtractionTemperature, genai.ExtractionMaxTokens)
	if err != nil {
		h.markFailed(ctx, tender.ID, err.Error(), doc.PageCount)
		return nil, err
	}

	extracted, usedFallback := h.parseReply(reply)
	if extracted.TenderID == "" {
		extracted.TenderID = models.FlexString(tender.ID)
	}
	if strings.TrimSpace(extracted.Title) == "" {
		extracted.Title = tender.Title
		if extracted.Title == "" {
			extracted.Title = models.UntitledTender
		}
	}

	tender.ExtractedData = extracted
	tender.Title = extracted.Title
	tender.IssuingAuthority = extracted.IssuingAuthority
	tender.Sector = extracted.Sector
	tender.Deadline = extracted.Deadline
	tender.EstimatedValue = nil
	if extracted.EstimatedValue.Valid {
		v := extracted.EstimatedValue.V
		tender.EstimatedValue = &v
	}
	tender.RawText = doc.FullText
	tender.PageCount = doc.PageCount
	tender.Status = models.TenderStatusExtracted

	if err := h.tenders.SaveExtraction(ctx, tender); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDatabaseFailed, err)
	}

	status := "extracted"
	if usedFallback {
		status = "fallback"
	}
	metrics.TenderExtractions.WithLabelValues(status).Inc()

	h.logger.Info("tender extracted", map[string]interface{}{
		"tenderId":     tender.ID,
		"pageCount":    doc.PageCount,
		"sections":     len(doc.Sections),
		"usedFallback": usedFallback,
	})

	// SaveExtraction is idempotent, so a retry after a failed publish is safe.
	if err := h.publisher.Publish(ctx, events.TypeTenderExtracted, tender.ID, extractedEvent{
		TenderID:     tender.ID,
		Title:        tender.Title,
		Sector:       tender.Sector,
		PageCount:    tender.PageCount,
		UsedFallback: usedFallback,
	}); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEventPublishFailed, err)
	}

	return &Output{
		TenderID:      tender.ID,
		Status:        models.TenderStatusExtracted,
		ExtractedData: extracted,
		PageCount:     doc.PageCount,
		Sections:      sectionNames(doc.Sections),
		UsedFallback:  usedFallback,
	}, nil
}

// readDocument loads the tender text from the object store or from raw text.
func (h *Handler) readDocument(ctx context.Context, input *Input, tender *models.Tender) (*pdftext.Document, error) {
	objectKey, rawText := input.ObjectKey, input.RawText
	if objectKey == "" && rawText == "" {
		objectKey, rawText = tender.ObjectKey, tender.RawText
	}

	switch {
	case objectKey != "":
		data, err := h.objects.GetObjectBytes(ctx, objectKey)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrObjectFetchFailed, err)
		}
		doc, err := pdftext.Extract(data)
		if err != nil && !errors.Is(err, pdftext.ErrImageBased) {
			return nil, fmt.Errorf("%w: %v", ErrExtractionFailed, err)
		}
		return doc, err
	case rawText != "":
		return pdftext.FromText(rawText)
	default:
		return nil, fmt.Errorf("%w: tender %s has no objectKey or rawText", ErrInvalidInput, tender.ID)
	}
}

// parseReply decodes the model reply. Replies that are not JSON, or do not fit
// the extracted-tender schema, yield the fallback tender.
func (h *Handler) parseReply(reply string) (*models.ExtractedTender, bool) {
	var raw map[string]interface{}
	if err := genai.ParseJSONObject(reply, &raw); err != nil {
		h.logger.Warn("unparseable extraction reply, storing fallback", map[string]interface{}{
			"error": err.Error(),
		})
		return models.FallbackExtractedTender("Could not parse model response: " + err.Error()), true
	}

	result, err := validation.ExtractedTenderSchema.Validate(raw)
	if err != nil || !result.Valid {
		note := "Model response did not match the tender schema"
		if result != nil {
			note += ": " + strings.Join(result.GetErrorMessages(), "; ")
		}
		h.logger.Warn("invalid extraction reply, storing fallback", map[string]interface{}{
			"note": note,
		})
		return models.FallbackExtractedTender(note), true
	}

	data, err := json.Marshal(raw)
	if err != nil {
		return models.FallbackExtractedTender("Could not re-encode model response: " + err.Error()), true
	}
	var extracted models.ExtractedTender
	if err := json.Unmarshal(data, &extracted); err != nil {
		return models.FallbackExtractedTender("Could not decode model response: " + err.Error()), true
	}
	return &extracted, false
}

// markFailed runs even when the job context has expired.
func (h *Handler) markFailed(ctx context.Context, tenderID, reason string, pageCount int) {
	metrics.TenderExtractions.WithLabelValues("failed").Inc()

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if err := h.tenders.MarkFailed(ctx, tenderID, reason, pageCount); err != nil {
		h.logger.Error("failed to mark tender failed", map[string]interface{}{
			"tenderId": tenderID,
			"error":    err.Error(),
		})
	}
}

func sectionNames(sections map[string]string) []string {
	names := make([]string, 0, len(sections))
	for name := range sections {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func toStandardError(input *Input, err error) *apperrors.StandardError {
	switch {
	case errors.Is(err, ErrInvalidInput):
		return apperrors.NewInvalidInputError(err.Error())
	case errors.Is(err, ErrTenderNotFound):
		return apperrors.NewTenderNotFoundError(input.TenderID)
	case errors.Is(err, ErrObjectFetchFailed):
		return apperrors.NewObjectFetchFailedError(input.ObjectKey, err)
	case errors.Is(err, ErrPDFImageBased):
		return apperrors.NewPDFImageBasedError(fmt.Sprintf("tenderId: %s", input.TenderID))
	case errors.Is(err, ErrExtractionFailed):
		return apperrors.NewExtractionFailedError(err.Error())
	case errors.Is(err, genai.ErrLLMTimeout):
		return apperrors.NewLLMTimeoutError(llmPurpose)
	case errors.Is(err, genai.ErrLLMGenerationFailed):
		return apperrors.NewLLMGenerationFailedError(llmPurpose, err)
	case errors.Is(err, ErrEventPublishFailed):
		return apperrors.NewEventPublishFailedError(events.TypeTenderExtracted, err)
	case errors.Is(err, ErrDatabaseFailed):
		return apperrors.NewDatabaseInsertFailedError(err)
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
