package worker

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"sosstock/internal/metrics"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const (
	QueueEmail = "jobs:email"

	JobTypeEmail = "email"

	// MaxAttempts is how many times a job runs before it is dead-lettered.
	MaxAttempts = 5
)

// Job is the generic envelope for all async tasks.
type Job struct {
	Type     string          `json:"type"`
	Payload  json.RawMessage `json:"payload"`
	Attempts int             `json:"attempts"`
	LastErr  string          `json:"last_error,omitempty"`
}

// Handler processes one job payload. Returning a PermanentError skips the
// remaining retries.
type Handler interface {
	Process(ctx context.Context, payload json.RawMessage) error
}

// PermanentError marks a failure that retrying cannot fix.
type PermanentError struct{ Err error }

func (e *PermanentError) Error() string { return e.Err.Error() }
func (e *PermanentError) Unwrap() error { return e.Err }

func Permanent(err error) error { return &PermanentError{Err: err} }

// Dispatcher enqueues async jobs into Redis lists.
// The worker pool dequeues them via BRPOP.
type Dispatcher struct {
	rdb *redis.Client
}

func NewDispatcher(rdb *redis.Client) *Dispatcher {
	return &Dispatcher{rdb: rdb}
}

// EnqueueEmail pushes an email job to Redis.
func (d *Dispatcher) EnqueueEmail(ctx context.Context, job EmailJob) error {
	return d.enqueue(ctx, QueueEmail, JobTypeEmail, job)
}

func (d *Dispatcher) enqueue(ctx context.Context, queue, jobType string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	encoded, err := json.Marshal(Job{Type: jobType, Payload: data})
	if err != nil {
		return err
	}
	return d.rdb.LPush(ctx, queue, encoded).Err()
}

// Pool consumes the job queues with a fixed number of goroutines.
type Pool struct {
	rdb      *redis.Client
	handlers map[string]Handler
	queues   []string
	metrics  *metrics.Metrics
}

func NewPool(rdb *redis.Client, m *metrics.Metrics) *Pool {
	return &Pool{rdb: rdb, handlers: make(map[string]Handler), metrics: m}
}

// Handle registers h for jobs of jobType arriving on queue.
func (p *Pool) Handle(queue, jobType string, h Handler) {
	p.handlers[jobType] = h
	for _, q := range p.queues {
		if q == queue {
			return
		}
	}
	p.queues = append(p.queues, queue)
}

// Start launches numWorkers goroutines. Each blocks on BRPOP, so idle
// workers cost nothing.
func (p *Pool) Start(ctx context.Context, numWorkers int) {
	for i := 0; i < numWorkers; i++ {
		go p.run(ctx, i)
	}
	log.Info().Int("workers", numWorkers).Strs("queues", p.queues).Msg("worker pool started")
}

func (p *Pool) run(ctx context.Context, id int) {
	for {
		select {
		case <-ctx.Done():
			log.Info().Int("worker", id).Msg("worker shutting down")
			return
		default:
			// Blocking pop: waits up to 5s then loops to check ctx
			result, err := p.rdb.BRPop(ctx, 5*time.Second, p.queues...).Result()
			if err != nil || len(result) < 2 {
				continue
			}
			p.process(ctx, result[0], result[1])
		}
	}
}

func (p *Pool) process(ctx context.Context, queue, raw string) {
	job, err := decodeJob(raw)
	if err != nil {
		log.Error().Str("queue", queue).Err(err).Msg("failed to unmarshal job")
		return
	}
	h, ok := p.handlers[job.Type]
	if !ok {
		SendToDLQ(ctx, p.rdb, queue, job, "no handler for job type")
		return
	}

	job.Attempts++
	err = h.Process(ctx, job.Payload)
	if err == nil {
		p.metrics.EmailJob("sent")
		return
	}
	job.LastErr = err.Error()

	var perm *PermanentError
	if errors.As(err, &perm) || job.Attempts >= MaxAttempts {
		p.metrics.EmailJob("dead_lettered")
		SendToDLQ(ctx, p.rdb, queue, job, err.Error())
		return
	}
	p.metrics.EmailJob("retried")
	if err := scheduleRetry(ctx, p.rdb, queue, job, time.Now().Add(Backoff(job.Attempts))); err != nil {
		log.Error().Err(err).Str("queue", queue).Msg("failed to schedule retry")
		SendToDLQ(ctx, p.rdb, queue, job, "retry scheduling failed: "+err.Error())
	}
}

func decodeJob(raw string) (Job, error) {
	var job Job
	if err := json.Unmarshal([]byte(raw), &job); err != nil {
		return Job{}, err
	}
	if job.Type == "" {
		return Job{}, errors.New("job without type")
	}
	return job, nil
}

// Backoff is the delay before attempt n+1: 10s, 20s, 40s, ... capped at
// 10 minutes.
func Backoff(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	d := 10 * time.Second
	for i := 1; i < attempt; i++ {
		d *= 2
		if d >= 10*time.Minute {
			return 10 * time.Minute
		}
	}
	return d
}
