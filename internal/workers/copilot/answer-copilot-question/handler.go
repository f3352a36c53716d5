// internal/workers/copilot/answer-copilot-question/handler.go
package answercopilotquestion

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
	"bidbuddy-workers/internal/common/genai"
	"bidbuddy-workers/internal/common/logger"
	"bidbuddy-workers/internal/common/metrics"
	"bidbuddy-workers/internal/common/observability"
	"bidbuddy-workers/internal/models"
	"bidbuddy-workers/internal/repository"
)

const (
	TaskType   = "answer-copilot-question"
	llmPurpose = "copilot"
)

var (
	ErrInvalidInput      = errors.New("INVALID_INPUT")
	ErrTenderNotFound    = errors.New("TENDER_NOT_FOUND")
	ErrSessionMismatch   = errors.New("SESSION_TENDER_MISMATCH")
	ErrDatabaseFailed    = errors.New("DATABASE_FAILED")
	ErrSessionSaveFailed = errors.New("SESSION_SAVE_FAILED")
)

type TenderReader interface {
	Get(ctx context.Context, id string) (*models.Tender, error)
}

type SessionStore interface {
	Get(ctx context.Context, id string) (*models.CopilotSession, error)
	Save(ctx context.Context, s *models.CopilotSession) error
}

type Handler struct {
	config       *Config
	tenders      TenderReader
	sessions     SessionStore
	llm          genai.TextGenerator
	logger       logger.Logger
	errorHandler *apperrors.ErrorHandler
}

func NewHandler(config *Config, tenders TenderReader, sessions SessionStore, llm genai.TextGenerator, log logger.Logger) *Handler {
	scoped := log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:       config,
		tenders:      tenders,
		sessions:     sessions,
		llm:          llm,
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
	question := strings.TrimSpace(input.Question)
	if input.TenderID == "" || question == "" {
		return nil, fmt.Errorf("%w: tenderId and question are required", ErrInvalidInput)
	}
	if len([]rune(question)) > h.config.MaxQuestionLength {
		return nil, fmt.Errorf("%w: question exceeds %d characters", ErrInvalidInput, h.config.MaxQuestionLength)
	}

	tender, err := h.tenders.Get(ctx, input.TenderID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrTenderNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDatabaseFailed, err)
	}

	session, err := h.loadSession(ctx, input)
	if err != nil {
		return nil, err
	}

	prompt := genai.CopilotPrompt(newTenderContext(tender), session.RecentMessages(genai.CopilotHistorySize), question)
	answer, err := h.llm.GenerateText(ctx, prompt, genai.CopilotTemperature, genai.CopilotMaxTokens)
	if err != nil {
		return nil, err
	}
	answer = strings.TrimSpace(answer)

	now := time.Now().UTC().Format(time.RFC3339)
	session.Messages = append(session.Messages,
		models.CopilotMessage{Role: models.RoleUser, Content: question, Timestamp: now},
		models.CopilotMessage{Role: models.RoleAssistant, Content: answer, Timestamp: now},
	)
	session.UpdatedAt = now

	if err := h.sessions.Save(ctx, session); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSessionSaveFailed, err)
	}

	h.logger.Info("copilot question answered", map[string]interface{}{
		"sessionId":    session.ID,
		"tenderId":     session.TenderID,
		"messageCount": len(session.Messages),
	})

	return &Output{
		SessionID:    session.ID,
		Answer:       answer,
		MessageCount: len(session.Messages),
	}, nil
}

// loadSession returns the requested session, or a new one when the ID is
// empty or unknown.
func (h *Handler) loadSession(ctx context.Context, input *Input) (*models.CopilotSession, error) {
	if input.SessionID != "" {
		session, err := h.sessions.Get(ctx, input.SessionID)
		switch {
		case err == nil:
			if session.TenderID != input.TenderID {
				return nil, fmt.Errorf("%w: session %s belongs to tender %s", ErrSessionMismatch, session.ID, session.TenderID)
			}
			return session, nil
		case !errors.Is(err, repository.ErrNotFound):
			return nil, fmt.Errorf("%w: %v", ErrDatabaseFailed, err)
		}
	}

	id := input.SessionID
	if id == "" {
		id = uuid.New().String()
	}
	now := time.Now().UTC().Format(time.RFC3339)
	return &models.CopilotSession{
		ID:        id,
		TenderID:  input.TenderID,
		UserID:    input.UserID,
		Messages:  []models.CopilotMessage{},
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

func toStandardError(input *Input, err error) *apperrors.StandardError {
	switch {
	case errors.Is(err, ErrInvalidInput):
		return apperrors.NewInvalidInputError(err.Error())
	case errors.Is(err, ErrSessionMismatch):
		return apperrors.NewInvalidInputError(err.Error())
	case errors.Is(err, ErrTenderNotFound):
		return apperrors.NewTenderNotFoundError(input.TenderID)
	case errors.Is(err, genai.ErrLLMTimeout):
		return apperrors.NewLLMTimeoutError(llmPurpose)
	case errors.Is(err, genai.ErrLLMGenerationFailed):
		return apperrors.NewLLMGenerationFailedError(llmPurpose, err)
	case errors.Is(err, ErrSessionSaveFailed):
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
