package scheduler

import (
	"context"
	"time"

	"github.com/xpanvictor/intervox/internal/domains/interview"
)

// JobType represents the type of scheduled job
type JobType string

const (
	JobTypePersistReport   JobType = "interview:report"
	JobTypeExpireInterview JobType = "interview:expire"
)

// ExpiryPayload identifies the interview to check for abandonment
type ExpiryPayload struct {
	InterviewID string    `json:"interview_id"`
	ExpireAt    time.Time `json:"expire_at"`
}

// Expirer finishes interviews that were abandoned
type Expirer interface {
	Expire(ctx context.Context, interviewID string) error
}

// SchedulerService defines background work on interviews
type SchedulerService interface {
	interview.ExpiryScheduler
	EnqueueReport(ctx context.Context, r interview.Report) error

	// Lifecycle methods
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
}
