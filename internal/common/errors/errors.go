// Package errors provides standardized error handling for BPMN workflow integration.
package errors

import (
	"fmt"
	"strings"
	"time"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	ErrCodeInvalidIncidentPayload ErrorCode = "INVALID_INCIDENT_PAYLOAD"
	ErrCodeDirectoryReadFailed    ErrorCode = "DIRECTORY_READ_FAILED"
	ErrCodePushTransportFailed    ErrorCode = "PUSH_TRANSPORT_FAILED"
	ErrCodePushBatchTooLarge      ErrorCode = "PUSH_BATCH_TOO_LARGE"
	ErrCodeCleanupWriteFailed     ErrorCode = "CLEANUP_WRITE_FAILED"
	ErrCodeInternal               ErrorCode = "INTERNAL_ERROR"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
	cause     error
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

// Unwrap exposes the underlying cause for errors.Is / errors.As.
func (e *StandardError) Unwrap() error {
	return e.cause
}

// ==========================
// 2. BPMN Error Integration
// ==========================

// BPMNError represents an error that can be thrown to the Camunda workflow engine.
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

// ToErrorVariables returns a map suitable for setting Camunda job fail variables.
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

// ==========================
// 3. Error Constructors
// ==========================

// NewInvalidIncidentPayloadError creates a non-retryable input error.
func NewInvalidIncidentPayloadError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeInvalidIncidentPayload,
		Message:   "Incident job variables are invalid",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewDirectoryReadFailedError creates a retryable directory error.
func NewDirectoryReadFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeDirectoryReadFailed,
		Message:   "Supervisor directory read failed",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}

// NewPushTransportFailedError creates a retryable gateway error.
func NewPushTransportFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodePushTransportFailed,
		Message:   "Push gateway batch send failed",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}

// NewPushBatchTooLargeError creates a non-retryable batch size error.
func NewPushBatchTooLargeError(targets, limit int) *StandardError {
	return &StandardError{
		Code:      ErrCodePushBatchTooLarge,
		Message:   "Push batch exceeds gateway limit",
		Details:   fmt.Sprintf("targets: %d, limit: %d", targets, limit),
		Retryable: false,
		Metadata:  map[string]interface{}{"targets": targets, "limit": limit},
		Timestamp: time.Now().UTC(),
	}
}

// NewCleanupWriteFailedError describes a failed token cleanup. It is logged, never thrown.
func NewCleanupWriteFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeCleanupWriteFailed,
		Message:   "Stale token cleanup failed",
		Details:   err.Error(),
		Retryable: false,
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}

// ==========================
// 4. Error Conversion to BPMN
// ==========================

// BPMNErrorMapping maps internal error codes to BPMN error codes.
var BPMNErrorMapping = map[ErrorCode]string{
	ErrCodeInvalidIncidentPayload: "INVALID_INCIDENT_PAYLOAD",
	ErrCodeDirectoryReadFailed:    "DIRECTORY_READ_FAILED",
	ErrCodePushTransportFailed:    "PUSH_TRANSPORT_FAILED",
	ErrCodePushBatchTooLarge:      "PUSH_BATCH_TOO_LARGE",
}

// GetRetryCount returns the default retry count for an error code.
func GetRetryCount(code ErrorCode) int {
	switch code {
	case ErrCodeDirectoryReadFailed,
		ErrCodePushTransportFailed:
		return 3
	default:
		return 0
	}
}

// ConvertToBPMNError converts a StandardError to a BPMNError for Camunda.
func ConvertToBPMNError(stdErr *StandardError) *BPMNError {
	bpmnCode, exists := BPMNErrorMapping[stdErr.Code]
	if !exists {
		bpmnCode = string(stdErr.Code)
	}

	retries := GetRetryCount(stdErr.Code)
	if !stdErr.Retryable {
		retries = 0
	}

	return &BPMNError{
		Code:      bpmnCode,
		Message:   stdErr.Message,
		Details:   stdErr.Details,
		Retryable: stdErr.Retryable,
		Retries:   retries,
		ErrorVariables: map[string]interface{}{
			"originalErrorCode": string(stdErr.Code),
			"timestamp":         stdErr.Timestamp.Format(time.RFC3339),
		},
	}
}

// ==========================
// 5. Utility Functions
// ==========================

// IsRetryableErrorCode checks if an error code is retryable.
func IsRetryableErrorCode(code ErrorCode) bool {
	return GetRetryCount(code) > 0
}

// GetErrorCategory returns the category of the error code.
func GetErrorCategory(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case strings.Contains(codeStr, "DIRECTORY") || strings.Contains(codeStr, "CLEANUP"):
		return "DIRECTORY"
	case strings.Contains(codeStr, "PUSH"):
		return "PUSH"
	case strings.Contains(codeStr, "INVALID"):
		return "VALIDATION"
	default:
		return "OTHER"
	}
}
