package scheduler

import (
	"context"

	"github.com/xpanvictor/intervox/internal/domains/interview"
)

// QueuedReports implements interview.ReportRepository, writing through the
// job queue so a database outage delays reports instead of losing them.
type QueuedReports struct {
	service SchedulerService
	reports interview.ReportRepository
}

func NewQueuedReports(service SchedulerService, reports interview.ReportRepository) *QueuedReports {
	return &QueuedReports{service: service, reports: reports}
}

// Save implements interview.ReportRepository
func (q *QueuedReports) Save(ctx context.Context, r interview.Report) error {
	return q.service.EnqueueReport(ctx, r)
}

// Get implements interview.ReportRepository
func (q *QueuedReports) Get(ctx context.Context, interviewID string) (*interview.Report, error) {
	return q.reports.Get(ctx, interviewID)
}
