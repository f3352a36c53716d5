// internal/workers/compliance/validate-company-profile/handler.go
package validatecompanyprofile

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
	"bidbuddy-workers/internal/common/logger"
	"bidbuddy-workers/internal/common/metrics"
	"bidbuddy-workers/internal/common/observability"
	"bidbuddy-workers/internal/common/validation"
	"bidbuddy-workers/internal/models"
)

const (
	TaskType = "validate-company-profile"
)

var (
	ErrInvalidInput            = errors.New("INVALID_INPUT")
	ErrProfileValidationFailed = errors.New("PROFILE_VALIDATION_FAILED")
	ErrPersistFailed           = errors.New("DATABASE_INSERT_FAILED")
)

// CompanyWriter stores validated profiles.
type CompanyWriter interface {
	Upsert(ctx context.Context, c *models.CompanyProfile) error
}

type Handler struct {
	config       *Config
	companies    CompanyWriter
	logger       logger.Logger
	errorHandler *apperrors.ErrorHandler
}

func NewHandler(config *Config, companies CompanyWriter, log logger.Logger) *Handler {
	scoped := log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:       config,
		companies:    companies,
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
		h.fail(client, job, start, toStandardError(output, err))
		return
	}

	h.completeJob(ctx, client, job, output)
	metrics.ObserveJob(TaskType, start, "")
}

// execute returns the output alongside ErrProfileValidationFailed so callers
// can report the individual errors.
func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	if len(input.Profile) == 0 || string(input.Profile) == "null" {
		return nil, fmt.Errorf("%w: profile is required", ErrInvalidInput)
	}

	result, err := validation.CompanyProfileSchema.ValidateJSON(input.Profile)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	output := &Output{ValidationErrors: []validation.ValidationError{}}
	output.ValidationErrors = append(output.ValidationErrors, result.Errors...)

	// Type errors were already reported by the schema; decode what we can.
	var profile models.CompanyProfile
	if err := json.Unmarshal(input.Profile, &profile); err == nil {
		NormalizeProfile(&profile)
		output.Profile = &profile
		if result.Valid {
			output.ValidationErrors = append(output.ValidationErrors, CheckProfile(&profile)...)
		}
	}

	output.IsValid = len(output.ValidationErrors) == 0
	if !output.IsValid {
		h.logger.Warn("company profile rejected", map[string]interface{}{
			"errors": len(output.ValidationErrors),
		})
		return output, ErrProfileValidationFailed
	}

	if input.Persist {
		if output.Profile.ID == "" {
			output.Profile.ID = uuid.New().String()
		}
		if err := h.companies.Upsert(ctx, output.Profile); err != nil {
			return output, fmt.Errorf("%w: %v", ErrPersistFailed, err)
		}
		output.Persisted = true
		h.logger.Info("company profile stored", map[string]interface{}{
			"companyId": output.Profile.ID,
		})
	}

	return output, nil
}

func toStandardError(output *Output, err error) *apperrors.StandardError {
	switch {
	case errors.Is(err, ErrProfileValidationFailed):
		stdErr := apperrors.NewProfileValidationFailedError(fmt.Sprintf("%d validation errors", len(output.ValidationErrors)))
		return stdErr.
			WithMetadata("isValid", false).
			WithMetadata("validationErrors", output.ValidationErrors)
	case errors.Is(err, ErrPersistFailed):
		return apperrors.NewDatabaseInsertFailedError(err)
	case errors.Is(err, ErrInvalidInput):
		return apperrors.NewInvalidInputError(err.Error())
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
