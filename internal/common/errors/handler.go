// internal/common/errors/handler.go
package errors

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

// Action is what the worker reports back to the engine for a failed job.
type Action string

const (
	// ActionFail hands the job back with fewer retries; the engine re-invokes it.
	ActionFail Action = "fail"
	// ActionThrow raises a BPMN error the process model can catch.
	ActionThrow Action = "throw"
)

// ErrorHandler handles job errors with standardized error handling
type ErrorHandler struct {
	logger Logger
}

type Logger interface {
	Error(msg string, fields map[string]interface{})
}

func NewErrorHandler(logger Logger) *ErrorHandler {
	return &ErrorHandler{logger: logger}
}

// Decision is the outcome of classifying a job error.
type Decision struct {
	Action  Action
	Retries int32
	Error   *StandardError
	BPMN    *BPMNError
}

// Decide classifies err for a job that still has job.Retries attempts left.
// Retryable errors decrement the remaining retries; once none are left the
// job is failed with zero retries so the engine raises an incident.
func Decide(job entities.Job, err error) Decision {
	stdErr := Normalize(err)
	bpmnErr := ConvertToBPMNError(stdErr)

	if !stdErr.Retryable || GetRetryCount(stdErr.Code) == 0 {
		return Decision{Action: ActionThrow, Error: stdErr, BPMN: bpmnErr}
	}

	remaining := job.Retries - 1
	if remaining < 0 {
		remaining = 0
	}
	return Decision{Action: ActionFail, Retries: remaining, Error: stdErr, BPMN: bpmnErr}
}

// Normalize ensures we always have a StandardError
func Normalize(err error) *StandardError {
	var stdErr *StandardError
	if stderrors.As(err, &stdErr) {
		return stdErr
	}
	return &StandardError{
		Code:      ErrCodeInternal,
		Message:   "Unexpected error",
		Details:   err.Error(),
		Retryable: false,
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}

// HandleJobError reports a failed job to the engine.
func (h *ErrorHandler) HandleJobError(ctx context.Context, client worker.JobClient, job entities.Job, err error) Decision {
	d := Decide(job, err)
	h.logError(job, d)

	switch d.Action {
	case ActionFail:
		h.failJob(ctx, client, job, d)
	default:
		h.throwBPMNError(ctx, client, job, d.BPMN)
	}
	return d
}

func (h *ErrorHandler) failJob(ctx context.Context, client worker.JobClient, job entities.Job, d Decision) {
	cmd := client.NewFailJobCommand().
		JobKey(job.Key).
		Retries(d.Retries).
		ErrorMessage(d.BPMN.Message + ": " + d.BPMN.Details)

	if varsJSON, err := json.Marshal(d.BPMN.ToErrorVariables()); err == nil {
		if cmdWithVars, err := cmd.VariablesFromString(string(varsJSON)); err == nil {
			if _, err := cmdWithVars.Send(ctx); err != nil {
				h.logger.Error("failed to send fail job command", map[string]interface{}{"jobKey": job.Key, "error": err.Error()})
			}
			return
		}
	}

	if _, err := cmd.Send(ctx); err != nil {
		h.logger.Error("failed to send fail job command", map[string]interface{}{"jobKey": job.Key, "error": err.Error()})
	}
}

func (h *ErrorHandler) throwBPMNError(ctx context.Context, client worker.JobClient, job entities.Job, bpmnErr *BPMNError) {
	cmd := client.NewThrowErrorCommand().
		JobKey(job.Key).
		ErrorCode(bpmnErr.Code).
		ErrorMessage(bpmnErr.Message)

	if varsJSON, err := json.Marshal(bpmnErr.ToErrorVariables()); err == nil {
		if cmdWithVars, err := cmd.VariablesFromString(string(varsJSON)); err == nil {
			if _, err := cmdWithVars.Send(ctx); err != nil {
				h.logger.Error("failed to throw error", map[string]interface{}{"jobKey": job.Key, "error": err.Error()})
			}
			return
		}
	}

	if _, err := cmd.Send(ctx); err != nil {
		h.logger.Error("failed to throw error", map[string]interface{}{"jobKey": job.Key, "error": err.Error()})
	}
}

func (h *ErrorHandler) logError(job entities.Job, d Decision) {
	h.logger.Error("Job failed", map[string]interface{}{
		"jobKey":           job.Key,
		"jobType":          job.Type,
		"errorCode":        string(d.Error.Code),
		"bpmnErrorCode":    d.BPMN.Code,
		"message":          d.BPMN.Message,
		"details":          d.Error.Details,
		"retryable":        d.Error.Retryable,
		"action":           string(d.Action),
		"retriesLeft":      d.Retries,
		"errorCategory":    GetErrorCategory(d.Error.Code),
		"workflowInstance": job.ProcessInstanceKey,
	})
}
