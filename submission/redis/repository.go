package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/marcelsud/lead-relay/submission"
	"github.com/redis/go-redis/v9"
)

/* Redis implementation of submission.Repository
 * Uses a Redis Hash per submission for the record itself
 * Uses a Sorted Set per UTC day (scored by creation time) as the day index
 */

const (
	hashPrefix = "submission"       // Hash naming: submission:{id}
	dayPrefix  = "submissions:day"  // Sorted set naming: submissions:day:{YYYY-MM-DD}
	daysKey    = "submissions:days" // Set of day keys holding at least one submission
)

// recordAttemptScript applies one delivery attempt in a single step.
// Delivered is terminal, and a pending outcome never moves a failed record back.
var recordAttemptScript = redis.NewScript(`
if redis.call("EXISTS", KEYS[1]) == 0 then
	return 0
end
redis.call("HINCRBY", KEYS[1], "attempts", 1)
local current = redis.call("HGET", KEYS[1], "webhook_status")
local status = ARGV[1]
if current == "delivered" or (status == "pending" and current == "failed") then
	status = current
end
redis.call("HSET", KEYS[1],
	"webhook_status", status,
	"error", ARGV[2],
	"last_attempt_at", ARGV[3],
	"next_retry_at", ARGV[4])
return 1
`)

var setStatusScript = redis.NewScript(`
if redis.call("EXISTS", KEYS[1]) == 0 then
	return 0
end
redis.call("HSET", KEYS[1], "webhook_status", ARGV[1])
return 1
`)

type Repository struct {
	client *redis.Client
}

// NewRepository creates a new Redis repository
func NewRepository(addr, password string, db int) (*Repository, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connecting to Redis: %w", err)
	}

	return &Repository{
		client: client,
	}, nil
}

// Store writes the submission hash and indexes it under its creation day
func (r *Repository) Store(ctx context.Context, s submission.Submission) (string, error) {
	formData, err := json.Marshal(s.FormData)
	if err != nil {
		return "", fmt.Errorf("marshaling form data: %w", err)
	}
	metadata, err := json.Marshal(s.Metadata)
	if err != nil {
		return "", fmt.Errorf("marshaling metadata: %w", err)
	}

	dayKey := submission.DayKey(s.Timestamp)
	_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, hashKey(s.ID), map[string]interface{}{
			"id":              s.ID,
			"timestamp":       s.Timestamp.UnixMilli(),
			"form_type":       s.FormType,
			"form_data":       string(formData),
			"webhook_status":  s.WebhookStatus.String(),
			"attempts":        s.Attempts,
			"last_attempt_at": millis(s.LastAttemptAt),
			"error":           s.Error,
			"metadata":        string(metadata),
			"next_retry_at":   millis(s.NextRetryAt),
		})
		pipe.ZAdd(ctx, dayIndexKey(dayKey), redis.Z{
			Score:  float64(s.Timestamp.UnixMilli()),
			Member: s.ID,
		})
		pipe.SAdd(ctx, daysKey, dayKey)
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("storing submission: %w", err)
	}

	return s.ID, nil
}

// Get retrieves a submission by ID
func (r *Repository) Get(ctx context.Context, id string) (submission.Submission, error) {
	data, err := r.client.HGetAll(ctx, hashKey(id)).Result()
	if err != nil {
		return submission.Submission{}, fmt.Errorf("getting submission: %w", err)
	}
	if len(data) == 0 {
		return submission.Submission{}, submission.ErrNotFound
	}
	return decode(data)
}

// ListDay returns the submissions of a day ordered by creation time
func (r *Repository) ListDay(ctx context.Context, day time.Time) ([]submission.Submission, error) {
	ids, err := r.client.ZRange(ctx, dayIndexKey(submission.DayKey(day)), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("reading day index: %w", err)
	}
	if len(ids) == 0 {
		return []submission.Submission{}, nil
	}

	pipe := r.client.Pipeline()
	cmds := make([]*redis.MapStringStringCmd, len(ids))
	for i, id := range ids {
		cmds[i] = pipe.HGetAll(ctx, hashKey(id))
	}
	if _, err := pipe.Exec(ctx); err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("executing pipeline: %w", err)
	}

	subs := make([]submission.Submission, 0, len(ids))
	for _, cmd := range cmds {
		data, err := cmd.Result()
		if err != nil || len(data) == 0 {
			// Index entry without a hash; the record was removed underneath us
			continue
		}
		s, err := decode(data)
		if err != nil {
			return nil, err
		}
		subs = append(subs, s)
	}
	return subs, nil
}

// Days returns every indexed day, oldest first
func (r *Repository) Days(ctx context.Context) ([]time.Time, error) {
	keys, err := r.client.SMembers(ctx, daysKey).Result()
	if err != nil {
		return nil, fmt.Errorf("reading days: %w", err)
	}

	days := make([]time.Time, 0, len(keys))
	for _, k := range keys {
		day, err := time.Parse(time.DateOnly, k)
		if err != nil {
			continue
		}
		days = append(days, day)
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Before(days[j]) })
	return days, nil
}

// RecordAttempt applies an attempt through a Lua script so concurrent updates never lose writes
func (r *Repository) RecordAttempt(ctx context.Context, id string, a submission.Attempt) (submission.Submission, error) {
	ok, err := recordAttemptScript.Run(ctx, r.client, []string{hashKey(id)},
		a.Status.String(),
		a.Error,
		millis(a.At),
		millis(a.NextRetryAt),
	).Int()
	if err != nil {
		return submission.Submission{}, fmt.Errorf("recording attempt: %w", err)
	}
	if ok == 0 {
		return submission.Submission{}, submission.ErrNotFound
	}
	return r.Get(ctx, id)
}

// SetStatus overwrites the status of an existing submission
func (r *Repository) SetStatus(ctx context.Context, id string, status submission.Status) error {
	ok, err := setStatusScript.Run(ctx, r.client, []string{hashKey(id)}, status.String()).Int()
	if err != nil {
		return fmt.Errorf("setting status: %w", err)
	}
	if ok == 0 {
		return submission.ErrNotFound
	}
	return nil
}

// DeleteDay removes a day's submissions together with its index
func (r *Repository) DeleteDay(ctx context.Context, day time.Time) (int, error) {
	dayKey := submission.DayKey(day)
	ids, err := r.client.ZRange(ctx, dayIndexKey(dayKey), 0, -1).Result()
	if err != nil {
		return 0, fmt.Errorf("reading day index: %w", err)
	}

	_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, id := range ids {
			pipe.Del(ctx, hashKey(id))
		}
		pipe.Del(ctx, dayIndexKey(dayKey))
		pipe.SRem(ctx, daysKey, dayKey)
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("deleting day %s: %w", dayKey, err)
	}

	return len(ids), nil
}

// Close closes the Redis connection
func (r *Repository) Close(ctx context.Context) error {
	return r.client.Close()
}

// GetClient returns the underlying Redis client for advanced operations
func (r *Repository) GetClient() *redis.Client {
	return r.client
}

// Helper functions

func hashKey(id string) string {
	return fmt.Sprintf("%s:%s", hashPrefix, id)
}

func dayIndexKey(day string) string {
	return fmt.Sprintf("%s:%s", dayPrefix, day)
}

func decode(data map[string]string) (submission.Submission, error) {
	s := submission.Submission{
		ID:            data["id"],
		Timestamp:     fromMillis(data["timestamp"]),
		FormType:      data["form_type"],
		WebhookStatus: submission.NewStatus(data["webhook_status"]),
		Attempts:      int(parseInt64(data["attempts"])),
		LastAttemptAt: fromMillis(data["last_attempt_at"]),
		Error:         data["error"],
		NextRetryAt:   fromMillis(data["next_retry_at"]),
	}
	if raw := data["form_data"]; raw != "" && raw != "null" {
		if err := json.Unmarshal([]byte(raw), &s.FormData); err != nil {
			return submission.Submission{}, fmt.Errorf("unmarshaling form data of %s: %w", s.ID, err)
		}
	}
	if raw := data["metadata"]; raw != "" && raw != "null" {
		if err := json.Unmarshal([]byte(raw), &s.Metadata); err != nil {
			return submission.Submission{}, fmt.Errorf("unmarshaling metadata of %s: %w", s.ID, err)
		}
	}
	return s, nil
}

func millis(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixMilli()
}

func fromMillis(s string) time.Time {
	ms := parseInt64(s)
	if ms == 0 {
		return time.Time{}
	}
	return time.UnixMilli(ms).UTC()
}

func parseInt64(s string) int64 {
	n, _ := strconv.ParseInt(s, 10, 64)
	return n
}
