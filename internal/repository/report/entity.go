package report

import (
	"time"

	"github.com/xpanvictor/intervox/internal/database/dbtypes"
	"github.com/xpanvictor/intervox/internal/domains/interview"
	"gorm.io/gorm"
)

// ReportEntity represents the database entity for a completed interview
type ReportEntity struct {
	InterviewID       string          `gorm:"primaryKey;type:char(36);not null"`
	UserID            string          `gorm:"index;type:varchar(191);not null"`
	InterviewType     string          `gorm:"type:varchar(32);not null"`
	Difficulty        string          `gorm:"type:varchar(16)"`
	Role              string          `gorm:"type:varchar(255)"`
	QuestionsAnswered int             `gorm:"not null;default:0"`
	CodeSubmissions   int             `gorm:"not null;default:0"`
	DurationMinutes   int             `gorm:"not null;default:0"`
	AverageScore      float64         `gorm:"type:decimal(4,1)"`
	Scores            dbtypes.IntList `gorm:"type:text"`
	Feedback          string          `gorm:"type:text"`
	CompletedAt       time.Time       `gorm:"index"`
	CreatedAt         time.Time       `gorm:"autoCreateTime(3)"`
	UpdatedAt         time.Time       `gorm:"autoUpdateTime(3)"`
	DeletedAt         gorm.DeletedAt  `gorm:"index"`
}

// TableName returns the table name for GORM
func (ReportEntity) TableName() string {
	return "interview_reports"
}

func (e *ReportEntity) ToDomain() *interview.Report {
	return &interview.Report{
		InterviewID:       e.InterviewID,
		UserID:            e.UserID,
		Type:              interview.InterviewType(e.InterviewType),
		Difficulty:        interview.Difficulty(e.Difficulty),
		Role:              e.Role,
		QuestionsAnswered: e.QuestionsAnswered,
		CodeSubmissions:   e.CodeSubmissions,
		DurationMinutes:   e.DurationMinutes,
		AverageScore:      e.AverageScore,
		Scores:            []int(e.Scores),
		Feedback:          e.Feedback,
		CompletedAt:       e.CompletedAt,
	}
}

func (e *ReportEntity) FromDomain(r interview.Report) {
	e.InterviewID = r.InterviewID
	e.UserID = r.UserID
	e.InterviewType = string(r.Type)
	e.Difficulty = string(r.Difficulty)
	e.Role = r.Role
	e.QuestionsAnswered = r.QuestionsAnswered
	e.CodeSubmissions = r.CodeSubmissions
	e.DurationMinutes = r.DurationMinutes
	e.AverageScore = r.AverageScore
	e.Scores = dbtypes.IntList(r.Scores)
	e.Feedback = r.Feedback
	e.CompletedAt = r.CompletedAt
}

func NewReportEntityFromDomain(r interview.Report) *ReportEntity {
	e := &ReportEntity{}
	e.FromDomain(r)
	return e
}
