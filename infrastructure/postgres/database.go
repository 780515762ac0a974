package postgres

import (
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"faceclock/domain/models"
)

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

func NewDatabase(config DatabaseConfig) (*gorm.DB, error) {
	dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s TimeZone=UTC",
		config.Host, config.User, config.Password, config.DBName, config.Port, config.SSLMode)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Info),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %v", err)
	}

	return db, nil
}

func Migrate(db *gorm.DB) error {
	// Enable pgvector extension for face descriptors
	if err := db.Exec("CREATE EXTENSION IF NOT EXISTS vector").Error; err != nil {
		return fmt.Errorf("failed to enable pgvector extension: %v", err)
	}

	// Run auto migrations first to create tables
	if err := db.AutoMigrate(
		&models.Person{},
		&models.FaceDescriptor{},
		&models.AttendanceEvent{},
		&models.Session{},
		&models.AuditLog{},
	); err != nil {
		return fmt.Errorf("failed to run auto migrations: %v", err)
	}

	// Manual migrations for indexes AutoMigrate cannot express
	if err := runIndexMigrations(db); err != nil {
		return fmt.Errorf("failed to run index migrations: %v", err)
	}

	return nil
}

// runIndexMigrations creates the composite indexes behind the hot queries:
// the per-person day window scan and the active-session lookup.
func runIndexMigrations(db *gorm.DB) error {
	migrations := []string{
		`CREATE INDEX IF NOT EXISTS idx_attendance_person_time
			ON attendance_events(person_id, timestamp DESC)`,

		`CREATE INDEX IF NOT EXISTS idx_sessions_active_lookup
			ON sessions(session_id) WHERE is_active`,

		`CREATE INDEX IF NOT EXISTS idx_sessions_person_active
			ON sessions(person_id) WHERE is_active`,
	}

	for _, sql := range migrations {
		if err := db.Exec(sql).Error; err != nil {
			return fmt.Errorf("migration failed: %s, error: %v", sql[:50], err)
		}
	}

	return nil
}
