package session

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis"
	"github.com/xpanvictor/intervox/internal/domains/interview"
	"github.com/xpanvictor/intervox/pkg/utils"
)

const DefaultTTL = time.Hour

func InterviewKey(id string) string {
	return fmt.Sprintf("interview:%s", id)
}

// RedisInterviewRepo keeps interviews as JSON under interview:<id>. Every
// write refreshes the TTL so only idle interviews expire.
type RedisInterviewRepo struct {
	rc  *redis.Client
	ttl time.Duration
}

func NewRedisInterviewRepo(rc *redis.Client, ttl time.Duration) *RedisInterviewRepo {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &RedisInterviewRepo{rc: rc, ttl: ttl}
}

// Create implements interview.Store
func (r *RedisInterviewRepo) Create(ctx context.Context, iv *interview.Interview) error {
	data, err := json.Marshal(iv)
	if err != nil {
		return fmt.Errorf("failed to marshal interview: %w", err)
	}
	if err := r.rc.WithContext(ctx).Set(InterviewKey(iv.ID), data, r.ttl).Err(); err != nil {
		return utils.XError{Reason: "storing interview", Meta: iv.ID, Err: err}.ToError()
	}
	return nil
}

// Get implements interview.Store
func (r *RedisInterviewRepo) Get(ctx context.Context, id string) (*interview.Interview, error) {
	raw, err := r.rc.WithContext(ctx).Get(InterviewKey(id)).Bytes()
	if err == redis.Nil {
		return nil, interview.ErrNotFound
	}
	if err != nil {
		return nil, utils.XError{Reason: "fetching interview", Meta: id, Err: err}.ToError()
	}
	var iv interview.Interview
	if err := json.Unmarshal(raw, &iv); err != nil {
		return nil, fmt.Errorf("failed to unmarshal interview %s: %w", id, err)
	}
	return &iv, nil
}

// Update implements interview.Store. Expired interviews are not recreated.
func (r *RedisInterviewRepo) Update(ctx context.Context, iv *interview.Interview) error {
	data, err := json.Marshal(iv)
	if err != nil {
		return fmt.Errorf("failed to marshal interview: %w", err)
	}
	ok, err := r.rc.WithContext(ctx).SetXX(InterviewKey(iv.ID), data, r.ttl).Result()
	if err != nil {
		return utils.XError{Reason: "updating interview", Meta: iv.ID, Err: err}.ToError()
	}
	if !ok {
		return interview.ErrNotFound
	}
	return nil
}

var (
	_ interview.Store = (*RedisInterviewRepo)(nil)
	_ interview.Store = (*MemoryInterviewRepo)(nil)
)
