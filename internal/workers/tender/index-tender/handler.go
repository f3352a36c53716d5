// internal/workers/tender/index-tender/handler.go
package indextender

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"

	apperrors "bidbuddy-workers/internal/common/errors"
	"bidbuddy-workers/internal/common/logger"
	"bidbuddy-workers/internal/common/metrics"
	"bidbuddy-workers/internal/common/observability"
	"bidbuddy-workers/internal/models"
	"bidbuddy-workers/internal/repository"
)

const (
	TaskType = "index-tender"
)

var (
	ErrTenderNotFound     = errors.New("TENDER_NOT_FOUND")
	ErrTenderNotExtracted = errors.New("TENDER_NOT_EXTRACTED")
	ErrIndexNotFound      = errors.New("INDEX_NOT_FOUND")
	ErrIndexingFailed     = errors.New("INDEXING_FAILED")
)

// TenderReader loads tenders by ID.
type TenderReader interface {
	Get(ctx context.Context, id string) (*models.Tender, error)
}

type Handler struct {
	config       *Config
	tenders      TenderReader
	client       *elasticsearch.Client
	logger       logger.Logger
	errorHandler *apperrors.ErrorHandler
}

func NewHandler(config *Config, tenders TenderReader, client *elasticsearch.Client, log logger.Logger) *Handler {
	scoped := log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:       config,
		tenders:      tenders,
		client:       client,
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
		h.fail(client, job, start, h.toStandardError(&input, err))
		return
	}

	h.completeJob(ctx, client, job, output)
	metrics.ObserveJob(TaskType, start, "")
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	if input.TenderID == "" {
		return nil, fmt.Errorf("%w: tenderId is required", ErrTenderNotFound)
	}

	tender, err := h.tenders.Get(ctx, input.TenderID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrTenderNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: load tender: %v", ErrIndexingFailed, err)
	}
	if tender.ExtractedData == nil || tender.Status != models.TenderStatusExtracted {
		return nil, ErrTenderNotExtracted
	}

	indexedAt := time.Now().UTC().Format(time.RFC3339)
	body, err := json.Marshal(NewSearchDocument(tender, indexedAt))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrIndexingFailed, err)
	}

	req := esapi.IndexRequest{
		Index:      h.config.TenderIndex,
		DocumentID: tender.ID,
		Body:       bytes.NewReader(body),
		Refresh:    "wait_for",
	}
	res, err := req.Do(ctx, h.client)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrIndexingFailed, err)
	}
	defer res.Body.Close()

	if res.StatusCode == http.StatusNotFound {
		return nil, ErrIndexNotFound
	}
	if res.IsError() {
		return nil, fmt.Errorf("%w: %s", ErrIndexingFailed, res.String())
	}

	var indexed struct {
		Result string `json:"result"`
	}
	if err := json.NewDecoder(res.Body).Decode(&indexed); err != nil {
		return nil, fmt.Errorf("%w: decode response: %v", ErrIndexingFailed, err)
	}

	h.logger.Info("tender indexed", map[string]interface{}{
		"tenderId": tender.ID,
		"result":   indexed.Result,
	})

	return &Output{
		TenderID:  tender.ID,
		Index:     h.config.TenderIndex,
		Result:    indexed.Result,
		IndexedAt: indexedAt,
	}, nil
}

func (h *Handler) toStandardError(input *Input, err error) *apperrors.StandardError {
	switch {
	case errors.Is(err, ErrTenderNotFound):
		return apperrors.NewTenderNotFoundError(input.TenderID)
	case errors.Is(err, ErrTenderNotExtracted):
		return apperrors.NewTenderNotExtractedError(input.TenderID)
	case errors.Is(err, ErrIndexNotFound):
		return apperrors.NewIndexNotFoundError(h.config.TenderIndex)
	default:
		return apperrors.NewIndexingFailedError(input.TenderID, err)
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
