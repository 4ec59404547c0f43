package audit

import (
	"context"
	"sync"
	"time"

	"github.com/Temutjin2k/authhub/internal/domain/models"
	"github.com/Temutjin2k/authhub/pkg/logger"
	"github.com/Temutjin2k/authhub/pkg/metrics"
	"github.com/google/uuid"
)

const DefaultBufferSize = 1024

// Recorder takes audit entries off the request path. Entries are queued on a
// bounded channel and written to the sink by a single worker; when the queue
// is full the entry is dropped.
type Recorder struct {
	sink        Sink
	broadcaster Broadcaster
	queue       chan *models.AuditLog
	log         logger.Logger

	closeOnce sync.Once
	closed    chan struct{}
	done      chan struct{}
	mu        sync.RWMutex
}

func NewRecorder(sink Sink, broadcaster Broadcaster, bufferSize int, log logger.Logger) *Recorder {
	if bufferSize <= 0 {
		bufferSize = DefaultBufferSize
	}
	return &Recorder{
		sink:        sink,
		broadcaster: broadcaster,
		queue:       make(chan *models.AuditLog, bufferSize),
		log:         log,
		closed:      make(chan struct{}),
		done:        make(chan struct{}),
	}
}

// Start launches the worker. It returns immediately.
func (r *Recorder) Start(ctx context.Context) {
	go r.run(context.WithoutCancel(ctx))
}

// Record queues entry. It never blocks and reports whether the entry was queued.
func (r *Recorder) Record(entry *models.AuditLog) bool {
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	if entry.OccurredAt.IsZero() {
		entry.OccurredAt = time.Now().UTC()
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	select {
	case <-r.closed:
		metrics.AuditEntriesTotal.WithLabelValues("dropped").Inc()
		return false
	default:
	}

	select {
	case r.queue <- entry:
		return true
	default:
		metrics.AuditEntriesTotal.WithLabelValues("dropped").Inc()
		return false
	}
}

// Close stops accepting entries and waits until queued ones are written or
// ctx is done.
func (r *Recorder) Close(ctx context.Context) error {
	r.closeOnce.Do(func() {
		r.mu.Lock()
		close(r.closed)
		close(r.queue)
		r.mu.Unlock()
	})

	select {
	case <-r.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (r *Recorder) run(ctx context.Context) {
	defer close(r.done)

	for entry := range r.queue {
		r.write(ctx, entry)
	}
}

func (r *Recorder) write(ctx context.Context, entry *models.AuditLog) {
	writeCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := r.sink.Write(writeCtx, entry); err != nil {
		metrics.AuditEntriesTotal.WithLabelValues("error").Inc()
		r.log.Error(ctx, "failed to write audit entry", err, "audit_id", entry.ID.String(), "action_type", string(entry.ActionType))
	} else {
		metrics.AuditEntriesTotal.WithLabelValues("written").Inc()
	}

	if r.broadcaster != nil {
		r.broadcaster.Broadcast(map[string]any{
			"type":  "audit",
			"entry": entry,
		})
	}
}
