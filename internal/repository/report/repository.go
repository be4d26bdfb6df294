package report

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/xpanvictor/intervox/internal/domains/interview"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type GormReportRepo struct {
	db *gorm.DB
}

func NewGormReportRepo(db *gorm.DB) interview.ReportRepository {
	return &GormReportRepo{db: db}
}

// Save implements interview.ReportRepository. Saving twice overwrites.
func (g *GormReportRepo) Save(ctx context.Context, r interview.Report) error {
	entity := NewReportEntityFromDomain(r)
	err := g.db.WithContext(ctx).Clauses(clause.OnConflict{UpdateAll: true}).Create(entity).Error
	if err != nil {
		return fmt.Errorf("failed to save report: %w", err)
	}
	return nil
}

// Get implements interview.ReportRepository
func (g *GormReportRepo) Get(ctx context.Context, interviewID string) (*interview.Report, error) {
	var entity ReportEntity
	if err := g.db.WithContext(ctx).Where("interview_id = ?", interviewID).First(&entity).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, interview.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get report: %w", err)
	}
	return entity.ToDomain(), nil
}

// MemoryReportRepo is used when no database is configured.
type MemoryReportRepo struct {
	mu      sync.RWMutex
	reports map[string]interview.Report
}

func NewMemoryReportRepo() *MemoryReportRepo {
	return &MemoryReportRepo{reports: map[string]interview.Report{}}
}

func (m *MemoryReportRepo) Save(_ context.Context, r interview.Report) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reports[r.InterviewID] = r
	return nil
}

func (m *MemoryReportRepo) Get(_ context.Context, interviewID string) (*interview.Report, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.reports[interviewID]
	if !ok {
		return nil, interview.ErrNotFound
	}
	return &r, nil
}
