package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/heilen-retreats/backend/internal/models"
	"github.com/heilen-retreats/backend/pkg/queue"
)

// JobSource supplies queued jobs and takes failed ones back for retry.
type JobSource interface {
	Dequeue(ctx context.Context) (*queue.Job, string, error)
	Retry(ctx context.Context, job *queue.Job) error
}

// EventSink persists audit events.
type EventSink interface {
	Insert(ctx context.Context, e *models.AuditEvent) error
}

// AuditProcessor drains audit jobs from the queue into the audit_events
// table. Decisions are enqueued after their mutation committed, so the
// trail is eventually complete without slowing the command path.
type AuditProcessor struct {
	events EventSink
	jobs   JobSource
	logger *zap.Logger
}

// NewAuditProcessor creates an audit trail processor.
func NewAuditProcessor(events EventSink, jobs JobSource, logger *zap.Logger) *AuditProcessor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuditProcessor{events: events, jobs: jobs, logger: logger}
}

// Process executes one audit job.
func (p *AuditProcessor) Process(ctx context.Context, job *queue.Job) error {
	if job.Type != queue.JobTypeAudit {
		return fmt.Errorf("unknown job type: %s", job.Type)
	}
	var payload queue.AuditPayload
	if err := json.Unmarshal(job.Payload, &payload); err != nil {
		return fmt.Errorf("unmarshal payload: %w", err)
	}

	event := models.AuditEvent{
		ActorID:    payload.ActorID,
		Action:     payload.Action,
		EntityKind: payload.EntityKind,
		EntityID:   payload.EntityID,
		Remark:     payload.Remark,
	}
	if err := p.events.Insert(ctx, &event); err != nil {
		return fmt.Errorf("insert audit event: %w", err)
	}

	p.logger.Debug("audit event recorded",
		zap.String("action", payload.Action),
		zap.String("entity_id", payload.EntityID.String()))
	return nil
}

// Run starts the worker loop: dequeue, process, retry on error. It
// returns when ctx is cancelled, without waiting out a pending backoff.
func (p *AuditProcessor) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			p.logger.Info("audit worker stopping")
			return
		default:
		}

		job, _, err := p.jobs.Dequeue(ctx)
		if err != nil {
			// Dequeue fails with ctx.Err() on shutdown.
			if ctx.Err() != nil {
				continue
			}
			p.logger.Warn("dequeue error", zap.Error(err))
			sleep(ctx, queue.RetryBackoff)
			continue
		}
		if job == nil {
			continue
		}

		if err := p.Process(ctx, job); err != nil {
			p.logger.Error("job failed", zap.String("job_id", job.ID), zap.Error(err))
			if reErr := p.jobs.Retry(ctx, job); reErr != nil {
				p.logger.Error("retry enqueue failed", zap.Error(reErr))
			}
			sleep(ctx, queue.RetryBackoff)
			continue
		}
	}
}

// sleep waits for d or until ctx is cancelled, whichever comes first.
func sleep(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
