// internal/workers/incident/notify-supervisors/handler.go
package notifysupervisors

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/google/uuid"

	"incident-notifier/internal/common/errors"
	"incident-notifier/internal/common/logger"
	"incident-notifier/internal/common/metrics"
	"incident-notifier/internal/common/push"
	"incident-notifier/internal/common/validation"
	"incident-notifier/internal/models"
)

const TaskType = "notify-new-incident"

var (
	ErrInvalidIncident = stderrors.New("INVALID_INCIDENT_PAYLOAD")
	ErrDirectoryRead   = stderrors.New("DIRECTORY_READ_FAILED")
	ErrTransport       = stderrors.New("PUSH_TRANSPORT_FAILED")
	ErrBatchTooLarge   = stderrors.New("PUSH_BATCH_TOO_LARGE")
)

// Guard suppresses a second run for an incident that is already being notified.
// A claim only outlives the job once it is confirmed.
type Guard interface {
	Claim(ctx context.Context, incidentID, owner string) (bool, error)
	Confirm(ctx context.Context, incidentID, owner string) error
	Release(ctx context.Context, incidentID, owner string) error
}

// AuditSink stores the summary of a finished invocation.
type AuditSink interface {
	Record(ctx context.Context, summary models.DispatchSummary) error
}

// JobRecorder receives per-job telemetry.
type JobRecorder interface {
	RecordJobProcessed(ctx context.Context, status string)
	RecordJobDuration(ctx context.Context, duration time.Duration, status string)
}

type Handler struct {
	config     *Config
	pipeline   *Pipeline
	guard      Guard
	audit      AuditSink
	recorder   JobRecorder
	errHandler *errors.ErrorHandler
	logger     logger.Logger
	now        func() time.Time
}

type HandlerOptions struct {
	Config   *Config
	Pipeline *Pipeline
	Guard    Guard       // optional
	Audit    AuditSink   // optional
	Recorder JobRecorder // optional
	Logger   logger.Logger
}

func NewHandler(opts HandlerOptions) (*Handler, error) {
	if opts.Pipeline == nil {
		return nil, fmt.Errorf("notify-supervisors: pipeline is required")
	}
	cfg := opts.Config
	if cfg == nil {
		cfg = LoadConfig()
	}
	log := opts.Logger
	if log == nil {
		log = logger.NewStructured("info", "json")
	}
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})

	return &Handler{
		config:     cfg,
		pipeline:   opts.Pipeline,
		guard:      opts.Guard,
		audit:      opts.Audit,
		recorder:   opts.Recorder,
		errHandler: errors.NewErrorHandler(log),
		logger:     log,
		now:        time.Now,
	}, nil
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	startTime := time.Now()
	metrics.WorkerJobsActive.WithLabelValues(TaskType).Inc()
	defer metrics.WorkerJobsActive.WithLabelValues(TaskType).Dec()

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":             job.GetKey(),
		"processInstanceKey": job.GetProcessInstanceKey(),
		"retries":            job.GetRetries(),
	})

	input, err := parseInput(job.GetVariables())
	if err != nil {
		h.reportFailure(context.Background(), client, job, toStandardError(err, Result{}), startTime)
		return
	}

	output, result, err := h.execute(ctx, input)
	if err != nil {
		h.reportFailure(context.Background(), client, job, toStandardError(err, result), startTime)
		return
	}

	// The job context may already be spent; the engine still needs the result.
	h.completeJob(context.Background(), client, job, output)

	metrics.WorkerJobsCompleted.WithLabelValues(TaskType).Inc()
	metrics.WorkerJobDuration.WithLabelValues(TaskType).Observe(time.Since(startTime).Seconds())
	h.record(context.Background(), output.Status, time.Since(startTime))
}

// Execute runs one invocation for input without reporting to the engine.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	output, _, err := h.execute(ctx, input)
	return output, err
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, Result, error) {
	incident := input.Record()
	if incident.ID == "" {
		return nil, Result{}, fmt.Errorf("%w: incidentId is required", ErrInvalidIncident)
	}

	invocationID := uuid.New().String()
	log := h.logger.WithFields(map[string]interface{}{
		"incidentId":   incident.ID,
		"invocationId": invocationID,
	})

	claimed := false
	if h.config.DedupeEnabled && h.guard != nil {
		var err error
		claimed, err = h.guard.Claim(ctx, incident.ID, invocationID)
		switch {
		case err != nil:
			claimed = false
			log.Warn("redelivery guard unavailable, continuing", map[string]interface{}{"error": err})
		case !claimed:
			log.Info("incident already notified, skipping", nil)
			metrics.IncidentNotifications.WithLabelValues(StatusDuplicate).Inc()
			return &Output{InvocationID: invocationID, IncidentID: incident.ID, Status: StatusDuplicate}, Result{Status: StatusDuplicate}, nil
		}
	}

	started := time.Now()
	result, err := h.pipeline.Run(ctx, incident)
	if err != nil {
		metrics.PipelineDuration.WithLabelValues("failed").Observe(time.Since(started).Seconds())
		metrics.IncidentNotifications.WithLabelValues("failed").Inc()
		if claimed {
			h.releaseClaim(incident.ID, invocationID, log)
		}
		return nil, result, err
	}
	if claimed {
		h.confirmClaim(incident.ID, invocationID, log)
	}
	metrics.PipelineDuration.WithLabelValues(result.Status).Observe(time.Since(started).Seconds())
	metrics.IncidentNotifications.WithLabelValues(result.Status).Inc()

	output := &Output{
		InvocationID:  invocationID,
		IncidentID:    incident.ID,
		Status:        result.Status,
		TargetCount:   result.TargetCount,
		SuccessCount:  result.SuccessCount,
		FailureCount:  result.FailureCount,
		PrunedCount:   result.PrunedCount,
		CleanupFailed: result.CleanupFailed,
	}
	h.recordAudit(ctx, output, result.FailureCodes, log)

	return output, result, nil
}

// confirmClaim and releaseClaim run detached from the job context so an
// expired job still settles the key.
func (h *Handler) confirmClaim(incidentID, invocationID string, log logger.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), h.config.AuditTimeout)
	defer cancel()
	if err := h.guard.Confirm(ctx, incidentID, invocationID); err != nil {
		log.Warn("failed to confirm redelivery claim", map[string]interface{}{"error": err})
	}
}

func (h *Handler) releaseClaim(incidentID, invocationID string, log logger.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), h.config.AuditTimeout)
	defer cancel()
	if err := h.guard.Release(ctx, incidentID, invocationID); err != nil {
		log.Warn("failed to release redelivery claim", map[string]interface{}{"error": err})
	}
}

func (h *Handler) recordAudit(ctx context.Context, output *Output, failureCodes []string, log logger.Logger) {
	if h.audit == nil {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, h.config.AuditTimeout)
	defer cancel()

	summary := models.DispatchSummary{
		InvocationID:  output.InvocationID,
		IncidentID:    output.IncidentID,
		Status:        output.Status,
		TargetCount:   output.TargetCount,
		SuccessCount:  output.SuccessCount,
		FailureCount:  output.FailureCount,
		PrunedCount:   output.PrunedCount,
		CleanupFailed: output.CleanupFailed,
		FailureCodes:  failureCodes,
		CompletedAt:   h.now().UTC().Format(time.RFC3339),
	}
	if err := h.audit.Record(ctx, summary); err != nil {
		log.Warn("failed to record dispatch audit", map[string]interface{}{"error": err})
	}
}

func (h *Handler) record(ctx context.Context, status string, d time.Duration) {
	if h.recorder == nil {
		return
	}
	h.recorder.RecordJobProcessed(ctx, status)
	h.recorder.RecordJobDuration(ctx, d, status)
}

func parseInput(variables string) (*Input, error) {
	if err := validation.ValidateIncidentVariables(variables); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidIncident, err)
	}

	var input Input
	if err := json.Unmarshal([]byte(variables), &input); err != nil {
		return nil, fmt.Errorf("%w: parse input: %v", ErrInvalidIncident, err)
	}
	return &input, nil
}

// toStandardError maps pipeline failures onto the job error codes.
func toStandardError(err error, result Result) *errors.StandardError {
	switch {
	case stderrors.Is(err, ErrInvalidIncident):
		return errors.NewInvalidIncidentPayloadError(err.Error())
	case stderrors.Is(err, ErrDirectoryRead):
		return errors.NewDirectoryReadFailedError(err)
	case stderrors.Is(err, ErrBatchTooLarge):
		return errors.NewPushBatchTooLargeError(result.TargetCount, push.MaxMulticastTargets)
	case stderrors.Is(err, ErrTransport):
		return errors.NewPushTransportFailedError(err)
	default:
		return errors.Normalize(err)
	}
}

func (h *Handler) reportFailure(ctx context.Context, client worker.JobClient, job entities.Job, stdErr *errors.StandardError, startTime time.Time) {
	d := h.errHandler.HandleJobError(ctx, client, job, stdErr)
	metrics.WorkerJobsFailed.WithLabelValues(TaskType, string(d.Error.Code)).Inc()
	metrics.WorkerJobDuration.WithLabelValues(TaskType).Observe(time.Since(startTime).Seconds())
	h.record(ctx, "failed", time.Since(startTime))
}

func (h *Handler) completeJob(ctx context.Context, client worker.JobClient, job entities.Job, output *Output) {
	cmd, err := client.NewCompleteJobCommand().
		JobKey(job.GetKey()).
		VariablesFromObject(output)
	if err != nil {
		h.logger.Error("failed to create complete job command", map[string]interface{}{
			"error": err,
		})
		return
	}
	if _, err := cmd.Send(ctx); err != nil {
		h.logger.Error("failed to send complete job command", map[string]interface{}{
			"jobKey": job.GetKey(),
			"error":  err,
		})
		return
	}

	h.logger.Info("job completed", map[string]interface{}{
		"jobKey":       job.GetKey(),
		"incidentId":   output.IncidentID,
		"status":       output.Status,
		"successCount": output.SuccessCount,
		"failureCount": output.FailureCount,
		"prunedCount":  output.PrunedCount,
	})
}
