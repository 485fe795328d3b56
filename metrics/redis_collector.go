package metrics

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/marcelsud/lead-relay/forms"
	"github.com/marcelsud/lead-relay/internal/clock"
	"github.com/marcelsud/lead-relay/submission"
	"github.com/redis/go-redis/v9"
)

// JobSource provides the recorded scheduler runs
type JobSource interface {
	JobRuns(ctx context.Context) ([]submission.JobRun, error)
}

// RedisCollector implements the Collector interface for the Redis backup store
type RedisCollector struct {
	client    *redis.Client
	catalogue *forms.Catalogue
	jobs      JobSource
	clock     clock.Clock
}

// NewRedisCollector creates a new Redis metrics collector
func NewRedisCollector(client *redis.Client, catalogue *forms.Catalogue, jobs JobSource, c clock.Clock) *RedisCollector {
	return &RedisCollector{
		client:    client,
		catalogue: catalogue,
		jobs:      jobs,
		clock:     c,
	}
}

// Collect gathers all metrics from Redis
func (c *RedisCollector) Collect(ctx context.Context) (Metrics, error) {
	pending, err := c.GetPendingByForm(ctx)
	if err != nil {
		return Metrics{}, fmt.Errorf("getting pending submissions: %w", err)
	}

	statusCounts, err := c.GetStatusCounts(ctx)
	if err != nil {
		return Metrics{}, fmt.Errorf("getting status counts: %w", err)
	}

	throughput, err := c.GetThroughput(ctx)
	if err != nil {
		return Metrics{}, fmt.Errorf("getting throughput: %w", err)
	}

	jobs, err := c.GetJobRuns(ctx)
	if err != nil {
		return Metrics{}, fmt.Errorf("getting job runs: %w", err)
	}

	return Metrics{
		PendingByForm: pending,
		StatusCounts:  statusCounts,
		Throughput:    throughput,
		Jobs:          jobs,
		Timestamp:     c.clock.Now(),
	}, nil
}

// GetPendingByForm returns pending submissions per catalogued form type
func (c *RedisCollector) GetPendingByForm(ctx context.Context) (map[string]int64, error) {
	pending := make(map[string]int64)
	for _, f := range c.catalogue.List() {
		pending[f.FormType] = 0
	}

	err := c.scan(ctx, func(formType, status string, _ int64) {
		if status == "pending" {
			pending[formType]++
		}
	})
	if err != nil {
		return nil, err
	}
	return pending, nil
}

// GetStatusCounts returns counts of submissions grouped by status
func (c *RedisCollector) GetStatusCounts(ctx context.Context) (map[string]int64, error) {
	statusCounts := map[string]int64{
		"pending":   0,
		"delivered": 0,
		"failed":    0,
	}

	err := c.scan(ctx, func(_, status string, _ int64) {
		if _, exists := statusCounts[status]; exists {
			statusCounts[status]++
		}
	})
	if err != nil {
		return nil, err
	}
	return statusCounts, nil
}

// GetThroughput counts deliveries by the time of their last attempt
func (c *RedisCollector) GetThroughput(ctx context.Context) (ThroughputMetrics, error) {
	now := c.clock.Now()
	fifteenMinutesAgo := now.Add(-15 * time.Minute).UnixMilli()
	hourAgo := now.Add(-time.Hour).UnixMilli()
	dayAgo := now.Add(-24 * time.Hour).UnixMilli()

	var tp ThroughputMetrics
	err := c.scan(ctx, func(_, status string, lastAttempt int64) {
		if status != "delivered" || lastAttempt < dayAgo {
			return
		}
		tp.LastDay++
		if lastAttempt >= hourAgo {
			tp.LastHour++
			if lastAttempt >= fifteenMinutesAgo {
				tp.LastFifteenMinutes++
			}
		}
	})
	if err != nil {
		return ThroughputMetrics{}, err
	}
	return tp, nil
}

// GetJobRuns returns information about scheduled job runs
func (c *RedisCollector) GetJobRuns(ctx context.Context) ([]JobInfo, error) {
	if c.jobs == nil {
		return nil, nil
	}
	runs, err := c.jobs.JobRuns(ctx)
	if err != nil {
		return nil, err
	}

	jobs := make([]JobInfo, 0, len(runs))
	for _, r := range runs {
		jobs = append(jobs, JobInfo{
			Job:      r.Job,
			Status:   r.Status,
			LastRun:  r.RanAt,
			Duration: r.Duration,
		})
	}
	return jobs, nil
}

// scan walks every submission hash and hands form type, status and last attempt to fn
func (c *RedisCollector) scan(ctx context.Context, fn func(formType, status string, lastAttemptMillis int64)) error {
	var cursor uint64
	for {
		keys, nextCursor, err := c.client.Scan(ctx, cursor, "submission:*", 1000).Result()
		if err != nil {
			return fmt.Errorf("scanning submission keys: %w", err)
		}

		if len(keys) > 0 {
			pipe := c.client.Pipeline()
			cmds := make([]*redis.SliceCmd, len(keys))
			for i, key := range keys {
				cmds[i] = pipe.HMGet(ctx, key, "form_type", "webhook_status", "last_attempt_at")
			}
			if _, err := pipe.Exec(ctx); err != nil && err != redis.Nil {
				return fmt.Errorf("executing pipeline: %w", err)
			}

			for _, cmd := range cmds {
				vals, err := cmd.Result()
				if err != nil || len(vals) < 3 {
					continue
				}
				formType, _ := vals[0].(string)
				status, _ := vals[1].(string)
				lastAttemptStr, _ := vals[2].(string)
				lastAttempt, _ := strconv.ParseInt(lastAttemptStr, 10, 64)
				fn(formType, status, lastAttempt)
			}
		}

		cursor = nextCursor
		if cursor == 0 {
			break
		}
	}
	return nil
}
