package handlers

import (
	"gorm.io/gorm"

	"faceclock/domain/repositories"
	"faceclock/domain/services"
	"faceclock/infrastructure/events"
	"faceclock/infrastructure/faceapi"
	"faceclock/infrastructure/redis"
	"faceclock/infrastructure/storage"
	"faceclock/pkg/config"
	"faceclock/pkg/scheduler"
)

// Services contains all the services needed for handlers
type Services struct {
	AuthService        services.AuthService
	PersonService      services.PersonService
	RecognitionService services.RecognitionService
	AttendanceService  services.AttendanceService
	AuditService       services.AuditService
}

// Infra contains infrastructure handles needed for the health probes
type Infra struct {
	DB          *gorm.DB
	RedisClient *redis.RedisClient
	FaceClient  *faceapi.FaceClient
	Snapshots   *storage.SnapshotStore
	Publisher   *events.Publisher
	Scheduler   scheduler.EventScheduler
}

// Repositories contains repositories needed for some handlers
type Repositories struct {
	AttendanceRepository repositories.AttendanceRepository
}

// Handlers contains all HTTP handlers
type Handlers struct {
	AuthHandler       *AuthHandler
	PersonHandler     *PersonHandler
	AttendanceHandler *AttendanceHandler
	AuditHandler      *AuditHandler
	HealthHandler     *HealthHandler
	LogHandler        *LogHandler

	// Short accessors for routes
	Auth       *AuthHandler
	Person     *PersonHandler
	Attendance *AttendanceHandler
	Audit      *AuditHandler
	Health     *HealthHandler
	Log        *LogHandler
}

// NewHandlers creates a new instance of Handlers with all dependencies
func NewHandlers(services *Services, infra *Infra, repos *Repositories, cfg *config.Config) *Handlers {
	authHandler := NewAuthHandler(services.AuthService, services.PersonService)
	personHandler := NewPersonHandler(services.PersonService)
	attendanceHandler := NewAttendanceHandler(services.AttendanceService, services.RecognitionService)
	auditHandler := NewAuditHandler(services.AuditService)
	healthHandler := NewHealthHandler(infra.DB, infra.RedisClient, infra.FaceClient, infra.Snapshots, infra.Publisher, infra.Scheduler, repos.AttendanceRepository)
	logHandler := NewLogHandler(cfg)

	return &Handlers{
		AuthHandler:       authHandler,
		PersonHandler:     personHandler,
		AttendanceHandler: attendanceHandler,
		AuditHandler:      auditHandler,
		HealthHandler:     healthHandler,
		LogHandler:        logHandler,

		// Short accessors
		Auth:       authHandler,
		Person:     personHandler,
		Attendance: attendanceHandler,
		Audit:      auditHandler,
		Health:     healthHandler,
		Log:        logHandler,
	}
}
