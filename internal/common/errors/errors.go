// Package errors defines the error vocabulary BidBuddy workers report to
// Zeebe: a StandardError per failure, converted to a BPMN error on the job.
package errors

import (
	"fmt"
	"net/http"
	"strings"
	"time"
)

// ErrorCode identifies a failure inside a worker.
type ErrorCode string

const (
	// Entity lookups
	ErrCodeTenderNotFound  ErrorCode = "TENDER_NOT_FOUND"
	ErrCodeCompanyNotFound ErrorCode = "COMPANY_NOT_FOUND"
	ErrCodeReportNotFound  ErrorCode = "REPORT_NOT_FOUND"
	ErrCodeSessionNotFound ErrorCode = "SESSION_NOT_FOUND"

	// Tender extraction
	ErrCodeExtractionFailed   ErrorCode = "EXTRACTION_FAILED"
	ErrCodeTenderNotExtracted ErrorCode = "TENDER_NOT_EXTRACTED"
	ErrCodePDFImageBased      ErrorCode = "PDF_IMAGE_BASED"

	// Validation
	ErrCodeProfileValidationFailed ErrorCode = "PROFILE_VALIDATION_FAILED"
	ErrCodeInvalidQueryType        ErrorCode = "INVALID_QUERY_TYPE"
	ErrCodeInvalidInput            ErrorCode = "INVALID_INPUT"

	// Persistence
	ErrCodeDatabaseConnectionFailed ErrorCode = "DATABASE_CONNECTION_FAILED"
	ErrCodeQueryExecutionFailed     ErrorCode = "QUERY_EXECUTION_FAILED"
	ErrCodeQueryTimeout             ErrorCode = "QUERY_TIMEOUT"
	ErrCodeDatabaseInsertFailed     ErrorCode = "DATABASE_INSERT_FAILED"

	// Search
	ErrCodeSearchQueryFailed ErrorCode = "SEARCH_QUERY_FAILED"
	ErrCodeSearchTimeout     ErrorCode = "SEARCH_TIMEOUT"
	ErrCodeIndexNotFound     ErrorCode = "INDEX_NOT_FOUND"
	ErrCodeIndexingFailed    ErrorCode = "INDEXING_FAILED"

	// Collaborators
	ErrCodeObjectFetchFailed      ErrorCode = "OBJECT_FETCH_FAILED"
	ErrCodeEventPublishFailed     ErrorCode = "EVENT_PUBLISH_FAILED"
	ErrCodeNotificationSendFailed ErrorCode = "NOTIFICATION_SEND_FAILED"
	ErrCodeLLMTimeout             ErrorCode = "LLM_TIMEOUT"
	ErrCodeLLMGenerationFailed    ErrorCode = "LLM_GENERATION_FAILED"

	// Generic
	ErrCodeExternalService ErrorCode = "EXTERNAL_SERVICE_ERROR"
	ErrCodeTimeout         ErrorCode = "TIMEOUT_ERROR"
	ErrCodeInternal        ErrorCode = "INTERNAL_ERROR"
)

// StandardError is what worker code returns; Retryable decides whether the
// job is failed with retries left or thrown as a BPMN error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

// WithMetadata attaches a key/value pair that is forwarded as a BPMN error variable.
func (e *StandardError) WithMetadata(key string, value interface{}) *StandardError {
	if e.Metadata == nil {
		e.Metadata = make(map[string]interface{})
	}
	e.Metadata[key] = value
	return e
}

func newError(code ErrorCode, message, details string, retryable bool) *StandardError {
	return &StandardError{
		Code:      code,
		Message:   message,
		Details:   details,
		Retryable: retryable,
		Timestamp: time.Now().UTC(),
	}
}

// BPMNError is the payload thrown to the process instance.
type BPMNError struct {
	Code           string                 `json:"code"`
	Message        string                 `json:"message"`
	Details        string                 `json:"details,omitempty"`
	Retryable      bool                   `json:"retryable"`
	Retries        int                    `json:"retries"`
	ErrorVariables map[string]interface{} `json:"errorVariables,omitempty"`
}

func (e *BPMNError) Error() string {
	return fmt.Sprintf("BPMNError[%s]: %s", e.Code, e.Message)
}

// ToErrorVariables flattens the error into process variables.
func (e *BPMNError) ToErrorVariables() map[string]interface{} {
	vars := map[string]interface{}{
		"errorCode":    e.Code,
		"errorMessage": e.Message,
		"errorDetails": e.Details,
		"retryable":    e.Retryable,
	}
	for k, v := range e.ErrorVariables {
		vars[k] = v
	}
	return vars
}

// NewTenderNotFoundError creates a non-retryable lookup error.
func NewTenderNotFoundError(tenderID string) *StandardError {
	return newError(ErrCodeTenderNotFound, "Tender not found", fmt.Sprintf("tenderId: %s", tenderID), false)
}

// NewCompanyNotFoundError creates a non-retryable lookup error.
func NewCompanyNotFoundError(companyID string) *StandardError {
	return newError(ErrCodeCompanyNotFound, "Company profile not found", fmt.Sprintf("companyId: %s", companyID), false)
}

// NewReportNotFoundError creates a non-retryable lookup error.
func NewReportNotFoundError(reportID string) *StandardError {
	return newError(ErrCodeReportNotFound, "Compliance report not found", fmt.Sprintf("reportId: %s", reportID), false)
}

// NewSessionNotFoundError creates a non-retryable lookup error.
func NewSessionNotFoundError(sessionID string) *StandardError {
	return newError(ErrCodeSessionNotFound, "Copilot session not found", fmt.Sprintf("sessionId: %s", sessionID), false)
}

// NewExtractionFailedError marks a tender whose structure could not be extracted.
func NewExtractionFailedError(details string) *StandardError {
	return newError(ErrCodeExtractionFailed, "Tender extraction failed", details, false)
}

// NewTenderNotExtractedError is returned when scoring is requested before extraction finished.
func NewTenderNotExtractedError(tenderID string) *StandardError {
	return newError(ErrCodeTenderNotExtracted, "Tender not yet extracted", fmt.Sprintf("tenderId: %s", tenderID), false)
}

// NewPDFImageBasedError is returned for PDFs that contain only scanned images.
func NewPDFImageBasedError(details string) *StandardError {
	return newError(ErrCodePDFImageBased, "PDF appears to be image-based (scanned). Text extraction not possible", details, false)
}

// NewProfileValidationFailedError creates a non-retryable validation error.
func NewProfileValidationFailedError(details string) *StandardError {
	return newError(ErrCodeProfileValidationFailed, "Company profile validation failed", details, false)
}

// NewInvalidInputError creates a non-retryable job input error.
func NewInvalidInputError(details string) *StandardError {
	return newError(ErrCodeInvalidInput, "Invalid job input", details, false)
}

func NewDatabaseConnectionFailedError(err error) *StandardError {
	return newError(ErrCodeDatabaseConnectionFailed, "Database connection error", err.Error(), true)
}

func NewQueryExecutionFailedError(queryType string, err error) *StandardError {
	return newError(ErrCodeQueryExecutionFailed, "Database query execution error",
		fmt.Sprintf("queryType: %s, error: %s", queryType, err.Error()), true)
}

func NewQueryTimeoutError(queryType string) *StandardError {
	return newError(ErrCodeQueryTimeout, "Database query timeout", fmt.Sprintf("queryType: %s", queryType), true)
}

func NewInvalidQueryTypeError(queryType string) *StandardError {
	return newError(ErrCodeInvalidQueryType, "Unsupported query type", fmt.Sprintf("queryType: %s", queryType), false)
}

// NewDatabaseInsertFailedError covers inserts and upserts alike.
func NewDatabaseInsertFailedError(err error) *StandardError {
	return newError(ErrCodeDatabaseInsertFailed, "Database insert operation failed", err.Error(), true)
}

func NewSearchQueryFailedError(queryType string, err error) *StandardError {
	return newError(ErrCodeSearchQueryFailed, "Elasticsearch query error",
		fmt.Sprintf("queryType: %s, error: %s", queryType, err.Error()), true)
}

func NewSearchTimeoutError(queryType string) *StandardError {
	return newError(ErrCodeSearchTimeout, "Elasticsearch query timeout", fmt.Sprintf("queryType: %s", queryType), true)
}

// NewIndexNotFoundError is permanent: a missing index needs an operator.
func NewIndexNotFoundError(indexName string) *StandardError {
	return newError(ErrCodeIndexNotFound, "Elasticsearch index not found", fmt.Sprintf("indexName: %s", indexName), false)
}

// NewIndexingFailedError creates a retryable indexing error.
func NewIndexingFailedError(documentID string, err error) *StandardError {
	return newError(ErrCodeIndexingFailed, "Elasticsearch indexing error",
		fmt.Sprintf("documentId: %s, error: %s", documentID, err.Error()), true)
}

// NewObjectFetchFailedError creates a retryable object storage error.
func NewObjectFetchFailedError(objectKey string, err error) *StandardError {
	return newError(ErrCodeObjectFetchFailed, "Object storage fetch failed",
		fmt.Sprintf("objectKey: %s, error: %s", objectKey, err.Error()), true)
}

// NewEventPublishFailedError creates a retryable event publishing error.
func NewEventPublishFailedError(eventType string, err error) *StandardError {
	return newError(ErrCodeEventPublishFailed, "Event publish failed",
		fmt.Sprintf("eventType: %s, error: %s", eventType, err.Error()), true)
}

func NewNotificationSendFailedError(notificationType string, err error) *StandardError {
	return newError(ErrCodeNotificationSendFailed, "Notification delivery failed",
		fmt.Sprintf("type: %s, error: %s", notificationType, err.Error()), true)
}

// NewLLMTimeoutError gets a single retry; generation is slow and costly.
func NewLLMTimeoutError(purpose string) *StandardError {
	return newError(ErrCodeLLMTimeout, "LLM generation timeout", fmt.Sprintf("purpose: %s", purpose), true)
}

func NewLLMGenerationFailedError(purpose string, err error) *StandardError {
	return newError(ErrCodeLLMGenerationFailed, "LLM generation error",
		fmt.Sprintf("purpose: %s, error: %s", purpose, err.Error()), true)
}

func NewExternalServiceError(service string, err error) *StandardError {
	return newError(ErrCodeExternalService, fmt.Sprintf("External service '%s' error", service), err.Error(), true)
}

func NewTimeoutError(service string, err error) *StandardError {
	return newError(ErrCodeTimeout, fmt.Sprintf("Service '%s' timeout", service), err.Error(), true)
}

func NewInternalError(err error) *StandardError {
	return newError(ErrCodeInternal, "Unexpected error", err.Error(), false)
}

// BPMNErrorMapping maps internal error codes to the codes caught by BPMN boundary events.
// Lookup failures collapse into ENTITY_NOT_FOUND so a single boundary event can catch them.
var BPMNErrorMapping = map[ErrorCode]string{
	ErrCodeTenderNotFound:           "ENTITY_NOT_FOUND",
	ErrCodeCompanyNotFound:          "ENTITY_NOT_FOUND",
	ErrCodeReportNotFound:           "ENTITY_NOT_FOUND",
	ErrCodeSessionNotFound:          "ENTITY_NOT_FOUND",
	ErrCodeExtractionFailed:         "EXTRACTION_FAILED",
	ErrCodeTenderNotExtracted:       "TENDER_NOT_EXTRACTED",
	ErrCodePDFImageBased:            "EXTRACTION_FAILED",
	ErrCodeProfileValidationFailed:  "PROFILE_VALIDATION_FAILED",
	ErrCodeInvalidQueryType:         "INVALID_QUERY_TYPE",
	ErrCodeInvalidInput:             "INVALID_INPUT",
	ErrCodeDatabaseConnectionFailed: "DATABASE_CONNECTION_FAILED",
	ErrCodeQueryExecutionFailed:     "QUERY_EXECUTION_FAILED",
	ErrCodeQueryTimeout:             "QUERY_TIMEOUT",
	ErrCodeDatabaseInsertFailed:     "DATABASE_INSERT_FAILED",
	ErrCodeSearchQueryFailed:        "SEARCH_QUERY_FAILED",
	ErrCodeSearchTimeout:            "SEARCH_TIMEOUT",
	ErrCodeIndexNotFound:            "INDEX_NOT_FOUND",
	ErrCodeIndexingFailed:           "INDEXING_FAILED",
	ErrCodeObjectFetchFailed:        "OBJECT_FETCH_FAILED",
	ErrCodeEventPublishFailed:       "EVENT_PUBLISH_FAILED",
	ErrCodeNotificationSendFailed:   "NOTIFICATION_SEND_FAILED",
	ErrCodeLLMTimeout:               "LLM_TIMEOUT",
	ErrCodeLLMGenerationFailed:      "LLM_GENERATION_FAILED",
}

// GetRetryCount is the retry budget handed back to Zeebe for a failed job.
func GetRetryCount(code ErrorCode) int {
	switch code {
	case ErrCodeDatabaseConnectionFailed,
		ErrCodeQueryExecutionFailed,
		ErrCodeDatabaseInsertFailed,
		ErrCodeSearchQueryFailed,
		ErrCodeIndexingFailed,
		ErrCodeObjectFetchFailed,
		ErrCodeEventPublishFailed,
		ErrCodeNotificationSendFailed,
		ErrCodeLLMGenerationFailed,
		ErrCodeExternalService:
		return 3

	case ErrCodeQueryTimeout,
		ErrCodeSearchTimeout,
		ErrCodeTimeout:
		return 2

	case ErrCodeLLMTimeout:
		return 1

	default:
		return 0
	}
}

// ConvertToBPMNError maps stdErr onto its boundary-event code. Unmapped
// codes pass through unchanged.
func ConvertToBPMNError(stdErr *StandardError) *BPMNError {
	bpmnCode, ok := BPMNErrorMapping[stdErr.Code]
	if !ok {
		bpmnCode = string(stdErr.Code)
	}

	retries := GetRetryCount(stdErr.Code)
	if !stdErr.Retryable {
		retries = 0
	}

	vars := map[string]interface{}{
		"originalErrorCode": string(stdErr.Code),
		"httpStatus":        HTTPStatus(stdErr.Code),
		"timestamp":         stdErr.Timestamp.Format(time.RFC3339),
	}
	for k, v := range stdErr.Metadata {
		vars[k] = v
	}

	return &BPMNError{
		Code:           bpmnCode,
		Message:        stdErr.Message,
		Details:        stdErr.Details,
		Retryable:      stdErr.Retryable,
		Retries:        retries,
		ErrorVariables: vars,
	}
}

// IsRetryableErrorCode reports whether code carries a non-zero retry budget.
func IsRetryableErrorCode(code ErrorCode) bool {
	return GetRetryCount(code) > 0
}

// HTTPStatus maps an error code to the status a gateway should surface to API callers.
func HTTPStatus(code ErrorCode) int {
	switch code {
	case ErrCodeTenderNotFound, ErrCodeCompanyNotFound, ErrCodeReportNotFound, ErrCodeSessionNotFound:
		return http.StatusNotFound
	case ErrCodeTenderNotExtracted, ErrCodeExtractionFailed, ErrCodePDFImageBased:
		return http.StatusUnprocessableEntity
	case ErrCodeProfileValidationFailed, ErrCodeInvalidQueryType, ErrCodeInvalidInput:
		return http.StatusBadRequest
	case ErrCodeLLMTimeout, ErrCodeQueryTimeout, ErrCodeSearchTimeout, ErrCodeTimeout:
		return http.StatusGatewayTimeout
	}
	if IsRetryableErrorCode(code) {
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

// GetErrorCategory groups codes for log fields and dashboards.
func GetErrorCategory(code ErrorCode) string {
	c := string(code)
	switch {
	case strings.HasSuffix(c, "NOT_FOUND") && !strings.Contains(c, "INDEX"):
		return "LOOKUP"
	case strings.Contains(c, "EXTRACT") || strings.Contains(c, "PDF"):
		return "EXTRACTION"
	case strings.Contains(c, "DATABASE") || strings.Contains(c, "QUERY_"):
		return "DATABASE"
	case strings.Contains(c, "ELASTICSEARCH") || strings.Contains(c, "SEARCH") || strings.Contains(c, "INDEX"):
		return "SEARCH"
	case strings.Contains(c, "NOTIFICATION"):
		return "NOTIFICATION"
	case strings.Contains(c, "LLM"):
		return "AI"
	case strings.Contains(c, "OBJECT") || strings.Contains(c, "EVENT"):
		return "INFRASTRUCTURE"
	case strings.Contains(c, "INVALID") || strings.Contains(c, "VALIDATION"):
		return "VALIDATION"
	default:
		return "OTHER"
	}
}
