package database

import (
	"stagepass-backend/internal/domain"

	"github.com/glebarez/sqlite"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// Open opens a GORM DB. An empty DSN falls back to a local SQLite file —
// the single-session analog of the original browser-storage design; any
// multi-client deployment must set DATABASE_URL to Postgres.
// PreferSimpleProtocol disables prepared statement caching to avoid 42P05
// ("prepared statement already exists") behind connection poolers.
func Open(dsn string) (*gorm.DB, error) {
	if dsn == "" {
		return gorm.Open(sqlite.Open("stagepass.db"), &gorm.Config{})
	}
	return gorm.Open(postgres.New(postgres.Config{
		DSN:                  dsn,
		PreferSimpleProtocol: true,
	}), &gorm.Config{})
}

// AutoMigrate runs migrations for the marketplace models.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(&domain.Listing{}, &domain.AuditRecord{})
}
