package worker

// retry_cron.go moves jobs whose backoff has elapsed from the delayed set
// back onto their queue. While the SMTP circuit breaker is open the tick is
// skipped so retries do not pile onto a downed relay.

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"sosstock/internal/infra"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const (
	retrySuffix       = ":retry"
	retryTickInterval = 5 * time.Second
	retryBatchSize    = 50
)

// scheduleRetry parks job in the delayed set of queue until readyAt.
func scheduleRetry(ctx context.Context, rdb *redis.Client, queue string, job Job, readyAt time.Time) error {
	data, err := json.Marshal(job)
	if err != nil {
		return err
	}
	return rdb.ZAdd(ctx, queue+retrySuffix, redis.Z{Score: float64(readyAt.Unix()), Member: data}).Err()
}

// StartRetryScheduler ticks until ctx is cancelled, requeueing due jobs of
// every queue. breaker may be nil.
func StartRetryScheduler(ctx context.Context, rdb *redis.Client, breaker *infra.CircuitBreaker, queues ...string) {
	go func() {
		ticker := time.NewTicker(retryTickInterval)
		defer ticker.Stop()
		log.Info().Strs("queues", queues).Msg("retry_scheduler: started")

		for {
			select {
			case <-ctx.Done():
				log.Info().Msg("retry_scheduler: shutting down")
				return
			case <-ticker.C:
				if breaker != nil && breaker.State() == infra.CBOpen {
					log.Debug().Msg("retry_scheduler: circuit breaker open, skipping tick")
					continue
				}
				for _, q := range queues {
					requeueDue(ctx, rdb, q, time.Now())
				}
			}
		}
	}()
}

func requeueDue(ctx context.Context, rdb *redis.Client, queue string, now time.Time) {
	key := queue + retrySuffix
	due, err := rdb.ZRangeByScore(ctx, key, &redis.ZRangeBy{
		Min:   "-inf",
		Max:   strconv.FormatInt(now.Unix(), 10),
		Count: retryBatchSize,
	}).Result()
	if err != nil {
		log.Error().Err(err).Str("queue", queue).Msg("retry_scheduler: range failed")
		return
	}
	for _, member := range due {
		// ZRem decides ownership when several instances run the scheduler.
		removed, err := rdb.ZRem(ctx, key, member).Result()
		if err != nil || removed == 0 {
			continue
		}
		if err := rdb.LPush(ctx, queue, member).Err(); err != nil {
			log.Error().Err(err).Str("queue", queue).Msg("retry_scheduler: requeue failed")
		}
	}
	if len(due) > 0 {
		log.Info().Int("count", len(due)).Str("queue", queue).Msg("retry_scheduler: jobs requeued")
	}
}
