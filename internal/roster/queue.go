package roster

import (
	"context"
	"errors"
	"slices"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/good-yellow-bee/rostergrid/internal/metrics"
	"github.com/good-yellow-bee/rostergrid/internal/models"
	"github.com/good-yellow-bee/rostergrid/internal/storage"
)

// QueueConfig holds WriteQueue configuration.
type QueueConfig struct {
	// MaxAttempts is how many times a write is tried before it is dropped.
	MaxAttempts int

	// Backoff spaces out retries of a failed write.
	Backoff Backoff

	// WriteTimeout bounds a single attempt.
	WriteTimeout time.Duration
}

func (c *QueueConfig) setDefaults() {
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = 5
	}
	if c.Backoff.Initial <= 0 {
		c.Backoff = DefaultBackoff()
	}
	if c.WriteTimeout <= 0 {
		c.WriteTimeout = 10 * time.Second
	}
}

type jobKind string

const (
	jobUpdate jobKind = "update"
	jobDelete jobKind = "delete"
)

type writeJob struct {
	projectID string
	kind      jobKind
	patch     *models.ProjectPatch
	attempts  int
	notBefore time.Time
	seq       uint64
}

// QueueStats is a snapshot of queue counters.
type QueueStats struct {
	Pending   int
	Retrying  int
	Completed int64
	Retried   int64
	Dropped   int64
}

// WriteQueue sends local project changes to the store in the background.
// Writes for one project coalesce into a single pending job: patches merge
// field by field, newest value winning, and a delete replaces anything
// pending. Failed writes are retried with backoff and dropped after
// MaxAttempts. Callers never see write errors.
type WriteQueue struct {
	repo storage.ProjectRepository
	cfg  QueueConfig

	mu       sync.Mutex
	pending  map[string]*writeJob
	inflight map[string]int
	deleting map[string]int
	seq      uint64
	wake     chan struct{}

	completed atomic.Int64
	retried   atomic.Int64
	dropped   atomic.Int64
}

// NewWriteQueue creates a queue writing to repo. Call Run to start
// delivering.
func NewWriteQueue(repo storage.ProjectRepository, cfg QueueConfig) *WriteQueue {
	cfg.setDefaults()
	return &WriteQueue{
		repo:     repo,
		cfg:      cfg,
		pending:  make(map[string]*writeJob),
		inflight: make(map[string]int),
		deleting: make(map[string]int),
		wake:     make(chan struct{}, 1),
	}
}

// EnqueueUpdate schedules patch for project id. Local-only ids and empty
// patches are ignored.
func (q *WriteQueue) EnqueueUpdate(id string, patch *models.ProjectPatch) {
	if models.IsLocalID(id) || patch.IsEmpty() {
		return
	}
	patch = clonePatch(patch)

	q.mu.Lock()
	if existing, ok := q.pending[id]; ok {
		if existing.kind == jobDelete {
			q.mu.Unlock()
			log.Debug().Str("project_id", id).Msg("update after delete ignored")
			return
		}
		existing.patch.Merge(patch)
	} else {
		q.seq++
		q.pending[id] = &writeJob{projectID: id, kind: jobUpdate, patch: patch, seq: q.seq}
	}
	q.updateGaugeLocked()
	q.mu.Unlock()

	q.signal()
}

// EnqueueDelete schedules removal of project id, discarding any pending
// update for it.
func (q *WriteQueue) EnqueueDelete(id string) {
	if models.IsLocalID(id) {
		return
	}

	q.mu.Lock()
	seq := q.seq + 1
	if existing, ok := q.pending[id]; ok {
		seq = existing.seq
		if existing.kind == jobUpdate {
			metrics.WriteQueueDroppedTotal.WithLabelValues("superseded").Inc()
		}
	} else {
		q.seq++
	}
	q.pending[id] = &writeJob{projectID: id, kind: jobDelete, seq: seq}
	q.updateGaugeLocked()
	q.mu.Unlock()

	q.signal()
}

// HasPending reports whether a write for id is queued or in flight.
func (q *WriteQueue) HasPending(id string) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	_, ok := q.pending[id]
	return ok || q.inflight[id] > 0
}

// HasPendingDelete reports whether a delete for id is queued or in flight.
func (q *WriteQueue) HasPendingDelete(id string) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	if job, ok := q.pending[id]; ok && job.kind == jobDelete {
		return true
	}
	return q.deleting[id] > 0
}

// Stats returns current counters.
func (q *WriteQueue) Stats() QueueStats {
	q.mu.Lock()
	defer q.mu.Unlock()

	stats := QueueStats{
		Pending:   len(q.pending),
		Completed: q.completed.Load(),
		Retried:   q.retried.Load(),
		Dropped:   q.dropped.Load(),
	}
	for _, job := range q.pending {
		if job.attempts > 0 {
			stats.Retrying++
		}
	}
	return stats
}

// Run delivers writes until ctx is canceled. Whatever is still pending at
// that point stays queued for Drain.
func (q *WriteQueue) Run(ctx context.Context) error {
	log.Info().Int("max_attempts", q.cfg.MaxAttempts).Msg("write queue started")
	for {
		if ctx.Err() != nil {
			log.Info().Int("pending", q.Stats().Pending).Msg("write queue stopped")
			return nil
		}

		job, wait := q.next(time.Now())
		if job != nil {
			q.process(ctx, job)
			continue
		}

		var timerC <-chan time.Time
		var timer *time.Timer
		if wait > 0 {
			timer = time.NewTimer(wait)
			timerC = timer.C
		}
		select {
		case <-ctx.Done():
		case <-q.wake:
		case <-timerC:
		}
		if timer != nil {
			timer.Stop()
		}
	}
}

// Drain makes one attempt at every pending write, ignoring retry delays.
// Writes that fail again are rescheduled or dropped as usual.
func (q *WriteQueue) Drain(ctx context.Context) error {
	q.mu.Lock()
	ids := make([]string, 0, len(q.pending))
	for id := range q.pending {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		return q.pending[ids[i]].seq < q.pending[ids[j]].seq
	})
	q.mu.Unlock()

	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return err
		}
		if job := q.take(id); job != nil {
			q.process(ctx, job)
		}
	}
	return nil
}

func (q *WriteQueue) signal() {
	select {
	case q.wake <- struct{}{}:
	default:
	}
}

// next removes and returns the oldest job that is due. When none is due it
// returns the time until the earliest retry, or zero if the queue is empty.
func (q *WriteQueue) next(now time.Time) (*writeJob, time.Duration) {
	q.mu.Lock()
	defer q.mu.Unlock()

	var (
		due  *writeJob
		wait time.Duration
	)
	for _, job := range q.pending {
		if !job.notBefore.After(now) {
			if due == nil || job.seq < due.seq {
				due = job
			}
			continue
		}
		if d := job.notBefore.Sub(now); wait == 0 || d < wait {
			wait = d
		}
	}
	if due == nil {
		return nil, wait
	}
	q.takeLocked(due.projectID)
	return due, 0
}

func (q *WriteQueue) take(id string) *writeJob {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.takeLocked(id)
}

func (q *WriteQueue) takeLocked(id string) *writeJob {
	job, ok := q.pending[id]
	if !ok {
		return nil
	}
	delete(q.pending, id)
	q.inflight[id]++
	if job.kind == jobDelete {
		q.deleting[id]++
	}
	return job
}

func (q *WriteQueue) process(ctx context.Context, job *writeJob) {
	job.attempts++

	attemptCtx, cancel := context.WithTimeout(ctx, q.cfg.WriteTimeout)
	var err error
	switch job.kind {
	case jobDelete:
		err = q.repo.Delete(attemptCtx, job.projectID)
	default:
		err = q.repo.Update(attemptCtx, job.projectID, job.patch)
	}
	cancel()

	q.finish(job, err)
}

func (q *WriteQueue) finish(job *writeJob, err error) {
	logger := log.With().Str("project_id", job.projectID).Str("op", string(job.kind)).
		Int("attempt", job.attempts).Logger()

	q.mu.Lock()
	defer q.mu.Unlock()
	defer q.updateGaugeLocked()

	q.inflight[job.projectID]--
	if q.inflight[job.projectID] <= 0 {
		delete(q.inflight, job.projectID)
	}
	if job.kind == jobDelete {
		q.deleting[job.projectID]--
		if q.deleting[job.projectID] <= 0 {
			delete(q.deleting, job.projectID)
		}
	}

	switch {
	case err == nil, job.kind == jobDelete && errors.Is(err, storage.ErrNotFound):
		q.completed.Add(1)
		metrics.WriteQueueCompletedTotal.WithLabelValues(string(job.kind)).Inc()
		logger.Debug().Msg("write persisted")
		return

	case errors.Is(err, storage.ErrNotFound):
		q.dropped.Add(1)
		metrics.WriteQueueDroppedTotal.WithLabelValues("not_found").Inc()
		logger.Warn().Err(err).Msg("write dropped: project missing from store")
		return

	case job.attempts >= q.cfg.MaxAttempts:
		q.dropped.Add(1)
		metrics.WriteQueueDroppedTotal.WithLabelValues("exhausted").Inc()
		logger.Error().Err(err).Msg("write dropped after retries")
		return
	}

	delay := q.cfg.Backoff.Delay(job.attempts)
	job.notBefore = time.Now().Add(delay)
	q.retried.Add(1)
	metrics.WriteQueueRetriesTotal.Inc()
	logger.Warn().Err(err).Dur("retry_in", delay).Msg("write failed, retrying")

	newer, ok := q.pending[job.projectID]
	switch {
	case !ok:
		q.pending[job.projectID] = job
	case newer.kind == jobDelete:
		metrics.WriteQueueDroppedTotal.WithLabelValues("superseded").Inc()
	case job.kind == jobDelete:
		// A delete that has not landed yet still wins over later edits.
		job.seq = newer.seq
		q.pending[job.projectID] = job
	default:
		job.patch.Merge(newer.patch)
		job.seq = newer.seq
		q.pending[job.projectID] = job
	}
}

func (q *WriteQueue) updateGaugeLocked() {
	metrics.WriteQueuePending.Set(float64(len(q.pending)))
}

func clonePatch(p *models.ProjectPatch) *models.ProjectPatch {
	c := &models.ProjectPatch{}
	c.Merge(p)
	if c.Roles != nil {
		roles := slices.Clone(*c.Roles)
		c.Roles = &roles
	}
	c.VolunteerData = c.VolunteerData.Clone()
	return c
}
