package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/marcelsud/lead-relay/submission"
)

// RecordJobRun stores the outcome of a scheduled job run
// The key expires after a week so renamed or removed jobs disappear from metrics
func (r *Repository) RecordJobRun(ctx context.Context, run submission.JobRun) error {
	data, err := json.Marshal(run)
	if err != nil {
		return fmt.Errorf("marshaling job run: %w", err)
	}

	if err := r.client.Set(ctx, jobKey(run.Job), data, 7*24*time.Hour).Err(); err != nil {
		return fmt.Errorf("recording job run: %w", err)
	}
	return nil
}

// JobRuns returns the last run of every job that reported one
func (r *Repository) JobRuns(ctx context.Context) ([]submission.JobRun, error) {
	var runs []submission.JobRun

	var cursor uint64
	for {
		keys, nextCursor, err := r.client.Scan(ctx, cursor, jobKey("*"), 100).Result()
		if err != nil {
			return nil, fmt.Errorf("scanning job keys: %w", err)
		}

		for _, key := range keys {
			data, err := r.client.Get(ctx, key).Result()
			if err != nil {
				continue
			}

			var run submission.JobRun
			if err := json.Unmarshal([]byte(data), &run); err != nil {
				continue
			}
			runs = append(runs, run)
		}

		cursor = nextCursor
		if cursor == 0 {
			break
		}
	}

	return runs, nil
}

func jobKey(job string) string {
	return fmt.Sprintf("job:run:%s", job)
}
