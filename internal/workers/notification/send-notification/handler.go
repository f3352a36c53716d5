// internal/workers/notification/send-notification/handler.go
package sendnotification

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/google/uuid"

	awsclient "bidbuddy-workers/internal/common/aws"
	apperrors "bidbuddy-workers/internal/common/errors"
	"bidbuddy-workers/internal/common/logger"
	"bidbuddy-workers/internal/common/metrics"
	"bidbuddy-workers/internal/common/observability"
	"bidbuddy-workers/internal/models"
	"bidbuddy-workers/internal/repository"
)

const (
	TaskType = "send-notification"
)

var (
	ErrInvalidInput        = errors.New("INVALID_INPUT")
	ErrTemplateNotFound    = errors.New("TEMPLATE_NOT_FOUND")
	ErrContactLookupFailed = errors.New("CONTACT_LOOKUP_FAILED")
)

type SESService interface {
	SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
}

type SNSService interface {
	Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

// CompanyReader resolves the notification recipient.
type CompanyReader interface {
	Get(ctx context.Context, id string) (*models.CompanyProfile, error)
}

type Handler struct {
	config       *Config
	companies    CompanyReader
	sesClient    SESService
	snsClient    SNSService
	templates    map[string]models.NotificationTemplate
	logger       logger.Logger
	errorHandler *apperrors.ErrorHandler
}

func NewHandler(
	config *Config,
	companies CompanyReader,
	sesClient SESService,
	snsClient SNSService,
	templates map[string]models.NotificationTemplate,
	log logger.Logger,
) *Handler {
	scoped := log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:       config,
		companies:    companies,
		sesClient:    sesClient,
		snsClient:    snsClient,
		templates:    templates,
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

// execute delivers the notification. Delivery problems are reported through
// Output.Status; only bad input and lookup failures are errors.
func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	if input.CompanyID == "" || input.NotificationType == "" {
		return nil, fmt.Errorf("%w: companyId and notificationType are required", ErrInvalidInput)
	}
	if input.NotificationType != models.NotificationComplianceReportReady &&
		input.NotificationType != models.NotificationBidDraftReady {
		return nil, fmt.Errorf("%w: unknown notificationType %q", ErrInvalidInput, input.NotificationType)
	}

	output := &Output{
		NotificationID: uuid.New().String(),
		Status:         StatusDisabled,
		Channels:       []string{},
		SentAt:         time.Now().UTC().Format(time.RFC3339),
	}

	company, err := h.companies.Get(ctx, input.CompanyID)
	if errors.Is(err, repository.ErrNotFound) {
		h.logger.Warn("recipient not found", map[string]interface{}{
			"companyId": input.CompanyID,
		})
		return output, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrContactLookupFailed, err)
	}

	template, exists := h.templates[input.NotificationType]
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrTemplateNotFound, input.NotificationType)
	}

	data := templateData(input, company)
	subject := renderTemplate(template.Subject, data)
	body := renderTemplate(template.Body, data)
	htmlBody := renderTemplate(template.HTMLBody, data)
	smsBody := body
	if template.SMSBody != "" {
		smsBody = renderTemplate(template.SMSBody, data)
	}

	if h.config.EmailEnabled && company.ContactEmail != "" {
		_, err := h.sesClient.SendEmail(ctx, awsclient.EmailInput(h.config.FromEmail, company.ContactEmail, subject, body, htmlBody))
		h.recordDelivery(output, ChannelEmail, company.ID, err)
	}

	// SMS is reserved for results the company can act on.
	if h.config.SMSEnabled && company.ContactPhone != "" && input.Verdict.IsPositive() {
		_, err := h.snsClient.Publish(ctx, awsclient.SMSInput(company.ContactPhone, smsBody))
		h.recordDelivery(output, ChannelSMS, company.ID, err)
	}

	switch {
	case len(output.FailedChannels) > 0:
		output.Status = StatusFailed
	case len(output.Channels) > 0:
		output.Status = StatusSent
	}

	h.logger.Info("notification processed", map[string]interface{}{
		"notificationId": output.NotificationID,
		"companyId":      company.ID,
		"status":         output.Status,
		"channels":       output.Channels,
		"failedChannels": output.FailedChannels,
	})
	return output, nil
}

// recordDelivery files channel under Channels or FailedChannels. A failed
// channel does not stop the remaining ones.
func (h *Handler) recordDelivery(output *Output, channel, companyID string, err error) {
	if err != nil {
		h.logger.Error("notification delivery failed", map[string]interface{}{
			"channel":   channel,
			"error":     err.Error(),
			"companyId": companyID,
		})
		metrics.NotificationsSent.WithLabelValues(channel, StatusFailed).Inc()
		output.FailedChannels = append(output.FailedChannels, channel)
		return
	}
	metrics.NotificationsSent.WithLabelValues(channel, StatusSent).Inc()
	output.Channels = append(output.Channels, channel)
}

func templateData(input *Input, company *models.CompanyProfile) map[string]interface{} {
	data := map[string]interface{}{
		"companyId":        company.ID,
		"companyName":      company.Name,
		"notificationType": input.NotificationType,
		"reportId":         input.ReportID,
		"draftId":          input.DraftID,
		"tenderId":         input.TenderID,
		"verdict":          string(input.Verdict),
	}
	if input.Score != nil {
		data["score"] = *input.Score
	}
	for k, v := range input.Metadata {
		data[k] = v
	}
	return data
}

func toStandardError(input *Input, err error) *apperrors.StandardError {
	switch {
	case errors.Is(err, ErrInvalidInput):
		return apperrors.NewInvalidInputError(err.Error())
	case errors.Is(err, ErrTemplateNotFound):
		// Missing templates are not retried.
		stdErr := apperrors.NewNotificationSendFailedError(input.NotificationType, err)
		stdErr.Retryable = false
		return stdErr
	case errors.Is(err, ErrContactLookupFailed):
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
