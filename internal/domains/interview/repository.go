package interview

import (
	"context"
	"time"
)

// Store keeps live interview state.
type Store interface {
	Create(ctx context.Context, iv *Interview) error
	Get(ctx context.Context, id string) (*Interview, error)
	Update(ctx context.Context, iv *Interview) error
}

// ReportRepository persists completed interview reports.
type ReportRepository interface {
	Save(ctx context.Context, r Report) error
	Get(ctx context.Context, interviewID string) (*Report, error)
}

// ExpiryScheduler arranges for an interview to be checked for abandonment.
type ExpiryScheduler interface {
	ScheduleExpiry(ctx context.Context, interviewID string, at time.Time) error
}
