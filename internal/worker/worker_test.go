package worker

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/heilen-retreats/backend/internal/models"
	"github.com/heilen-retreats/backend/pkg/queue"
)

type memSink struct {
	mu     sync.Mutex
	events []models.AuditEvent
}

func (s *memSink) Insert(ctx context.Context, e *models.AuditEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, *e)
	return nil
}

// blockingSource behaves like the redis queue: Dequeue blocks until a
// job arrives or the context is cancelled.
type blockingSource struct {
	jobs    chan *queue.Job
	retried chan *queue.Job
}

func newBlockingSource() *blockingSource {
	return &blockingSource{
		jobs:    make(chan *queue.Job, 8),
		retried: make(chan *queue.Job, 8),
	}
}

func (s *blockingSource) Dequeue(ctx context.Context) (*queue.Job, string, error) {
	select {
	case j := <-s.jobs:
		return j, "", nil
	case <-ctx.Done():
		return nil, "", ctx.Err()
	}
}

func (s *blockingSource) Retry(ctx context.Context, job *queue.Job) error {
	s.retried <- job
	return nil
}

// brokenSource fails every Dequeue, like a lost redis connection.
type brokenSource struct{}

func (brokenSource) Dequeue(ctx context.Context) (*queue.Job, string, error) {
	return nil, "", errors.New("connection refused")
}

func (brokenSource) Retry(ctx context.Context, job *queue.Job) error { return nil }

func auditJob(t *testing.T, payload queue.AuditPayload) *queue.Job {
	t.Helper()
	body, err := json.Marshal(payload)
	require.NoError(t, err)
	return &queue.Job{ID: uuid.NewString(), Type: queue.JobTypeAudit, Payload: body}
}

func TestProcessRecordsEvent(t *testing.T) {
	sink := &memSink{}
	p := NewAuditProcessor(sink, newBlockingSource(), nil)

	payload := queue.AuditPayload{
		ActorID:    uuid.New(),
		Action:     "publish_request.approved",
		EntityKind: "publish_request",
		EntityID:   uuid.New(),
		Remark:     "looks good",
	}
	require.NoError(t, p.Process(context.Background(), auditJob(t, payload)))

	require.Len(t, sink.events, 1)
	assert.Equal(t, payload.ActorID, sink.events[0].ActorID)
	assert.Equal(t, payload.Action, sink.events[0].Action)
	assert.Equal(t, payload.Remark, sink.events[0].Remark)
}

func TestProcessRejectsUnknownJobType(t *testing.T) {
	p := NewAuditProcessor(&memSink{}, newBlockingSource(), nil)
	err := p.Process(context.Background(), &queue.Job{ID: "j1", Type: "email"})
	assert.Error(t, err)
}

func TestRunStopsOnCancel(t *testing.T) {
	source := newBlockingSource()
	p := NewAuditProcessor(&memSink{}, source, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		p.Run(ctx)
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("worker did not stop after cancel")
	}
}

func TestRunStopsOnCancelDuringBackoff(t *testing.T) {
	// A failing dequeue puts the loop into its retry backoff, which is
	// much longer than this test's deadline. Cancellation must cut the
	// backoff short.
	p := NewAuditProcessor(&memSink{}, brokenSource{}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		p.Run(ctx)
		close(done)
	}()

	time.Sleep(50 * time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("worker did not stop after cancel")
	}
}

func TestRunDrainsQueuedJobs(t *testing.T) {
	sink := &memSink{}
	source := newBlockingSource()
	p := NewAuditProcessor(sink, source, nil)

	for i := 0; i < 3; i++ {
		source.jobs <- auditJob(t, queue.AuditPayload{
			ActorID:    uuid.New(),
			Action:     "discount_code.toggled",
			EntityKind: "discount_code",
			EntityID:   uuid.New(),
		})
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		p.Run(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool {
		sink.mu.Lock()
		defer sink.mu.Unlock()
		return len(sink.events) == 3
	}, time.Second, 10*time.Millisecond)

	cancel()
	<-done
}
