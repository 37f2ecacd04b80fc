package worker

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/OskolkovOleg/sklad-monitoring/internal/dto"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const (
	QueueRecalculate = "jobs:recalculate"
	QueueAlertEmail  = "jobs:alert_email"
)

const (
	JobRecalculate = "recalculate"
	JobAlertEmail  = "alert_email"
)

// maxJobAttempts is how many times a job runs before it is moved to the DLQ.
const maxJobAttempts = 3

// ErrNoQueue is returned by a Dispatcher built without a Redis client.
var ErrNoQueue = errors.New("job queue unavailable: redis not configured")

// Job is the generic envelope for all async tasks.
type Job struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// recalcRequest is the payload of a recompute job.
type recalcRequest struct {
	RequestedAt time.Time `json:"requested_at"`
}

// Dispatcher enqueues async jobs into Redis lists.
// The worker pool dequeues them via BRPOP.
type Dispatcher struct {
	rdb *redis.Client
}

func NewDispatcher(rdb *redis.Client) *Dispatcher {
	return &Dispatcher{rdb: rdb}
}

// EnqueueRecalculate pushes a full recompute job.
func (d *Dispatcher) EnqueueRecalculate(ctx context.Context) error {
	return d.enqueue(ctx, QueueRecalculate, JobRecalculate, recalcRequest{RequestedAt: time.Now().UTC()})
}

// EnqueueAlertDigest pushes an alert e-mail job.
func (d *Dispatcher) EnqueueAlertDigest(ctx context.Context, digest dto.AlertDigest) error {
	return d.enqueue(ctx, QueueAlertEmail, JobAlertEmail, digest)
}

func (d *Dispatcher) enqueue(ctx context.Context, queue, jobType string, payload interface{}) error {
	if d == nil || d.rdb == nil {
		return ErrNoQueue
	}
	encoded, err := encodeJob(jobType, payload)
	if err != nil {
		return err
	}
	return d.rdb.LPush(ctx, queue, encoded).Err()
}

func encodeJob(jobType string, payload interface{}) ([]byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return json.Marshal(Job{Type: jobType, Payload: data})
}

// JobHandler processes the payload of one job type.
type JobHandler interface {
	Process(ctx context.Context, raw json.RawMessage) error
}

// Handlers maps job types to their processors. A nil entry drops jobs of
// that type with a warning.
type Handlers struct {
	Recalculate JobHandler
	AlertEmail  JobHandler
}

func (h Handlers) forType(jobType string) JobHandler {
	switch jobType {
	case JobRecalculate:
		return h.Recalculate
	case JobAlertEmail:
		return h.AlertEmail
	}
	return nil
}

// StartWorkerPool launches numWorkers goroutines consuming both queues.
// Each goroutine blocks on BRPOP; zero CPU when idle.
func StartWorkerPool(ctx context.Context, rdb *redis.Client, handlers Handlers, numWorkers int) {
	if rdb == nil {
		log.Warn().Msg("worker pool not started: redis not configured")
		return
	}
	for i := 0; i < numWorkers; i++ {
		go runWorker(ctx, rdb, handlers, i)
	}
	log.Info().Msgf("worker pool started with %d workers", numWorkers)
}

func runWorker(ctx context.Context, rdb *redis.Client, handlers Handlers, id int) {
	queues := []string{QueueRecalculate, QueueAlertEmail}
	for {
		select {
		case <-ctx.Done():
			log.Info().Msgf("worker %d shutting down", id)
			return
		default:
			// Blocking pop, waits up to 5s then loops to check ctx
			result, err := rdb.BRPop(ctx, 5*time.Second, queues...).Result()
			if err != nil {
				continue // timeout or context cancelled
			}
			if len(result) < 2 {
				continue
			}
			if result[0] == QueueRecalculate {
				// one recompute covers every request queued before it starts
				if n, err := rdb.Del(ctx, QueueRecalculate).Result(); err == nil && n > 0 {
					log.Debug().Int64("coalesced", n).Msg("recalculate jobs coalesced")
				}
			}
			processJob(ctx, rdb, handlers, result[0], result[1])
		}
	}
}

func processJob(ctx context.Context, rdb *redis.Client, handlers Handlers, queue, raw string) {
	var job Job
	if err := json.Unmarshal([]byte(raw), &job); err != nil {
		log.Error().Str("queue", queue).Err(err).Msg("failed to unmarshal job")
		SendToDLQ(ctx, rdb, queue, "unknown", json.RawMessage(raw), "invalid job envelope: "+err.Error(), 0)
		return
	}
	h := handlers.forType(job.Type)
	if h == nil {
		log.Warn().Str("type", job.Type).Str("queue", queue).Msg("no handler for job type")
		return
	}

	log.Debug().Str("type", job.Type).Str("queue", queue).Msg("processing job")
	err := withRetry(ctx, maxJobAttempts, func(int) error { return h.Process(ctx, job.Payload) })
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return
		}
		SendToDLQ(ctx, rdb, queue, job.Type, job.Payload, err.Error(), maxJobAttempts)
	}
}

// backoffUnit scales the retry schedule; tests shrink it.
var backoffUnit = time.Second

// withRetry calls fn up to maxAttempts times with exponential backoff.
// Backoff schedule: attempt 1 = immediate, 2 = 1s, 3 = 2s.
// Returns nil if any attempt succeeds; last error otherwise.
func withRetry(ctx context.Context, maxAttempts int, fn func(attempt int) error) error {
	var lastErr error
	for i := 0; i < maxAttempts; i++ {
		if i > 0 {
			wait := time.Duration(1<<uint(i-1)) * backoffUnit
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(wait):
			}
		}
		if err := fn(i); err != nil {
			if errors.Is(err, errPermanent) {
				return err
			}
			lastErr = err
			continue
		}
		return nil
	}
	return lastErr
}

// errPermanent marks failures that a retry cannot fix.
var errPermanent = errors.New("permanent job failure")
