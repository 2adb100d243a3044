// internal/workers/incident/notify-supervisors/pipeline.go
package notifysupervisors

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"incident-notifier/internal/common/errors"
	"incident-notifier/internal/common/logger"
	"incident-notifier/internal/common/metrics"
	"incident-notifier/internal/models"
)

// Store is the supervisor directory: one filtered read and one batched clear.
type Store interface {
	Directory
	TokenCleaner
}

// Pipeline runs resolve, compose, dispatch and cleanup strictly in order.
type Pipeline struct {
	config     *Config
	resolver   *Resolver
	dispatcher *Dispatcher
	janitor    *Janitor
	tracer     trace.Tracer
	logger     logger.Logger
}

// NewPipeline wires the stages. A nil tracer disables spans.
func NewPipeline(config *Config, store Store, gateway Gateway, tracer trace.Tracer, log logger.Logger) *Pipeline {
	if tracer == nil {
		tracer = noop.NewTracerProvider().Tracer(TaskType)
	}
	return &Pipeline{
		config:     config,
		resolver:   NewResolver(store),
		dispatcher: NewDispatcher(gateway),
		janitor:    NewJanitor(store),
		tracer:     tracer,
		logger:     log,
	}
}

// Run notifies every supervisor with a valid token about incident. Only a
// directory read failure or a failed send return an error.
func (p *Pipeline) Run(ctx context.Context, incident models.IncidentRecord) (Result, error) {
	log := p.logger.WithFields(map[string]interface{}{"incidentId": incident.ID})

	var recipients []models.Recipient
	err := p.stage(ctx, "resolve", p.config.ReadTimeout, func(ctx context.Context, span trace.Span) error {
		var err error
		recipients, err = p.resolver.Resolve(ctx)
		span.SetAttributes(attribute.Int("recipients", len(recipients)))
		return err
	})
	if err != nil {
		log.Error("failed to resolve supervisors", map[string]interface{}{"error": err})
		return Result{}, err
	}
	if len(recipients) == 0 {
		log.Info("no supervisors registered, nothing to notify", nil)
		return Result{Status: StatusNoRecipients}, nil
	}

	targeted, tokens := SelectTargets(recipients)
	if len(tokens) == 0 {
		log.Info("no supervisor has a valid registration token", map[string]interface{}{
			"supervisors": len(recipients),
		})
		return Result{Status: StatusNoValidTokens}, nil
	}

	var payload models.NotificationPayload
	_ = p.stage(ctx, "compose", 0, func(_ context.Context, span trace.Span) error {
		payload = Compose(incident, tokens)
		span.SetAttributes(attribute.Int("targets", len(payload.Targets)))
		return nil
	})

	result := Result{TargetCount: len(payload.Targets)}

	var batch models.BatchResult
	err = p.stage(ctx, "dispatch", p.config.DispatchTimeout, func(ctx context.Context, span trace.Span) error {
		var err error
		batch, err = p.dispatcher.Dispatch(ctx, payload)
		span.SetAttributes(
			attribute.Int("success_count", batch.SuccessCount),
			attribute.Int("failure_count", batch.FailureCount),
		)
		return err
	})
	if err != nil {
		log.Error("notification send failed", map[string]interface{}{
			"targets": result.TargetCount,
			"error":   err,
		})
		return result, err
	}

	metrics.PushTargets.Add(float64(result.TargetCount))
	result.Status = StatusSent
	result.SuccessCount = batch.SuccessCount
	result.FailureCount = batch.FailureCount
	log.Info("notification sent", map[string]interface{}{
		"targets":      result.TargetCount,
		"successCount": batch.SuccessCount,
		"failureCount": batch.FailureCount,
	})

	var report CleanupReport
	err = p.stage(ctx, "cleanup", p.config.CleanupTimeout, func(ctx context.Context, span trace.Span) error {
		var err error
		report, err = p.janitor.Clean(ctx, targeted, batch.Outcomes)
		span.SetAttributes(attribute.Int("pruned", report.Pruned))
		return err
	})
	result.FailureCodes = report.FailureCodes
	p.recordFailures(report)

	if err != nil {
		result.CleanupFailed = true
		cleanupErr := errors.NewCleanupWriteFailedError(err)
		log.Error("failed to clear invalid tokens", map[string]interface{}{
			"errorCode": string(cleanupErr.Code),
			"error":     err,
		})
		return result, nil
	}

	result.PrunedCount = report.Pruned
	if report.Pruned > 0 {
		metrics.PushTokensPruned.Add(float64(report.Pruned))
		pruned := make([]string, 0, report.Pruned)
		for i, o := range batch.Outcomes {
			if o.Class() == models.FailurePermanent {
				pruned = append(pruned, logger.RedactToken(tokens[i]))
			}
		}
		log.Info("cleared invalid registration tokens", map[string]interface{}{
			"pruned":       report.Pruned,
			"rowsAffected": report.RowsAffected,
			"tokens":       pruned,
		})
	}
	if report.Transient > 0 {
		log.Warn("transient delivery failures, tokens kept", map[string]interface{}{
			"transient": report.Transient,
		})
	}

	return result, nil
}

func (p *Pipeline) stage(ctx context.Context, name string, timeout time.Duration, fn func(context.Context, trace.Span) error) error {
	ctx, span := p.tracer.Start(ctx, name)
	defer span.End()

	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	err := fn(ctx, span)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return err
}

func (p *Pipeline) recordFailures(report CleanupReport) {
	if n := len(report.FailureCodes) - report.Transient; n > 0 {
		metrics.PushDeliveryFailures.WithLabelValues(string(models.FailurePermanent)).Add(float64(n))
	}
	if report.Transient > 0 {
		metrics.PushDeliveryFailures.WithLabelValues(string(models.FailureTransient)).Add(float64(report.Transient))
	}
}
