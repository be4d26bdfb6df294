package database

import (
	"github.com/xpanvictor/intervox/internal/repository/report"
	"gorm.io/gorm"
)

func MigrateDB(db *gorm.DB) error {
	return db.AutoMigrate(
		&report.ReportEntity{},
	)
}
