package handlers

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"faceclock/domain/repositories"
	"faceclock/infrastructure/events"
	"faceclock/infrastructure/faceapi"
	"faceclock/infrastructure/redis"
	"faceclock/infrastructure/storage"
	"faceclock/pkg/scheduler"
)

// HealthHandler handles health check endpoints
type HealthHandler struct {
	db             *gorm.DB
	redisClient    *redis.RedisClient
	faceClient     *faceapi.FaceClient
	snapshots      *storage.SnapshotStore
	publisher      *events.Publisher
	sched          scheduler.EventScheduler
	attendanceRepo repositories.AttendanceRepository
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(
	db *gorm.DB,
	redisClient *redis.RedisClient,
	faceClient *faceapi.FaceClient,
	snapshots *storage.SnapshotStore,
	publisher *events.Publisher,
	sched scheduler.EventScheduler,
	attendanceRepo repositories.AttendanceRepository,
) *HealthHandler {
	return &HealthHandler{
		db:             db,
		redisClient:    redisClient,
		faceClient:     faceClient,
		snapshots:      snapshots,
		publisher:      publisher,
		sched:          sched,
		attendanceRepo: attendanceRepo,
	}
}

// ComponentHealth represents health status of a component
type ComponentHealth struct {
	Status  string `json:"status"` // "ok", "error", "unavailable"
	Message string `json:"message,omitempty"`
	Latency string `json:"latency,omitempty"`
}

// DetailedHealthResponse represents detailed health check response
type DetailedHealthResponse struct {
	Status     string                     `json:"status"` // "healthy", "degraded", "unhealthy"
	Timestamp  time.Time                  `json:"timestamp"`
	Components map[string]ComponentHealth `json:"components"`
	Jobs       []scheduler.JobStatus      `json:"jobs,omitempty"`
	Metrics    *HealthMetrics             `json:"metrics,omitempty"`
}

// HealthMetrics contains attendance activity counters for today
type HealthMetrics struct {
	EventsToday int64 `json:"events_today"`
	EventsHour  int64 `json:"events_last_hour"`
}

// DetailedHealth returns the status of every dependency. The database is
// the only critical component; everything else degrades the service but
// leaves it up.
func (h *HealthHandler) DetailedHealth(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 10*time.Second)
	defer cancel()

	response := DetailedHealthResponse{
		Timestamp:  time.Now(),
		Components: make(map[string]ComponentHealth),
	}

	allHealthy := true
	hasCriticalFailure := false

	// Check Database
	dbHealth := h.checkDatabase(ctx)
	response.Components["database"] = dbHealth
	if dbHealth.Status != "ok" {
		hasCriticalFailure = true
	}

	// Check Redis
	redisHealth := h.checkRedis(ctx)
	response.Components["redis"] = redisHealth
	if redisHealth.Status == "error" {
		allHealthy = false
	}

	// Check Face API
	faceHealth := h.checkFaceAPI(ctx)
	response.Components["face_api"] = faceHealth
	if faceHealth.Status == "error" {
		allHealthy = false
	}

	// Check MinIO snapshot store
	storageHealth := h.checkSnapshots(ctx)
	response.Components["snapshot_store"] = storageHealth
	if storageHealth.Status == "error" {
		allHealthy = false
	}

	// Check NATS publisher
	natsHealth := h.checkPublisher()
	response.Components["nats"] = natsHealth
	if natsHealth.Status == "error" {
		allHealthy = false
	}

	// Maintenance sweep status
	if h.sched != nil {
		response.Jobs = h.sched.Jobs()
	}

	// Get metrics (only if DB is ok)
	if dbHealth.Status == "ok" {
		response.Metrics = h.getMetrics(ctx)
	}

	// Determine overall status
	if hasCriticalFailure {
		response.Status = "unhealthy"
	} else if !allHealthy {
		response.Status = "degraded"
	} else {
		response.Status = "healthy"
	}

	// Return 503 for unhealthy, 200 for others
	statusCode := fiber.StatusOK
	if response.Status == "unhealthy" {
		statusCode = fiber.StatusServiceUnavailable
	}

	return c.Status(statusCode).JSON(response)
}

func (h *HealthHandler) checkDatabase(ctx context.Context) ComponentHealth {
	start := time.Now()

	if h.db == nil {
		return ComponentHealth{
			Status:  "error",
			Message: "Database not configured",
		}
	}

	sqlDB, err := h.db.DB()
	if err != nil {
		return ComponentHealth{
			Status:  "error",
			Message: "Failed to get database connection: " + err.Error(),
		}
	}

	if err := sqlDB.PingContext(ctx); err != nil {
		return ComponentHealth{
			Status:  "error",
			Message: "Database ping failed: " + err.Error(),
		}
	}

	return ComponentHealth{
		Status:  "ok",
		Message: "Connected",
		Latency: time.Since(start).String(),
	}
}

func (h *HealthHandler) checkRedis(ctx context.Context) ComponentHealth {
	start := time.Now()

	if h.redisClient == nil {
		return ComponentHealth{
			Status:  "unavailable",
			Message: "Redis not configured",
		}
	}

	if err := h.redisClient.Ping(ctx); err != nil {
		return ComponentHealth{
			Status:  "error",
			Message: "Redis ping failed: " + err.Error(),
		}
	}

	return ComponentHealth{
		Status:  "ok",
		Message: "Connected",
		Latency: time.Since(start).String(),
	}
}

func (h *HealthHandler) checkFaceAPI(ctx context.Context) ComponentHealth {
	start := time.Now()

	if h.faceClient == nil {
		return ComponentHealth{
			Status:  "unavailable",
			Message: "Face API not configured",
		}
	}

	health, err := h.faceClient.Health(ctx)
	if err != nil {
		return ComponentHealth{
			Status:  "error",
			Message: "Face API health check failed: " + err.Error(),
		}
	}

	return ComponentHealth{
		Status:  "ok",
		Message: "Model: " + health.Model + ", Version: " + health.Version,
		Latency: time.Since(start).String(),
	}
}

func (h *HealthHandler) checkSnapshots(ctx context.Context) ComponentHealth {
	start := time.Now()

	if h.snapshots == nil {
		return ComponentHealth{
			Status:  "unavailable",
			Message: "Snapshot store not configured",
		}
	}

	if err := h.snapshots.Ping(ctx); err != nil {
		return ComponentHealth{
			Status:  "error",
			Message: "Snapshot store ping failed: " + err.Error(),
		}
	}

	return ComponentHealth{
		Status:  "ok",
		Message: "Connected",
		Latency: time.Since(start).String(),
	}
}

func (h *HealthHandler) checkPublisher() ComponentHealth {
	if h.publisher == nil {
		return ComponentHealth{
			Status:  "unavailable",
			Message: "NATS not configured",
		}
	}

	if err := h.publisher.Ping(); err != nil {
		return ComponentHealth{
			Status:  "error",
			Message: "NATS not connected",
		}
	}

	return ComponentHealth{
		Status:  "ok",
		Message: "Connected",
	}
}

func (h *HealthHandler) getMetrics(ctx context.Context) *HealthMetrics {
	if h.attendanceRepo == nil {
		return nil
	}

	now := time.Now()
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	metrics := &HealthMetrics{}
	if count, err := h.attendanceRepo.CountInRange(ctx, dayStart, now); err == nil {
		metrics.EventsToday = count
	}
	if count, err := h.attendanceRepo.CountInRange(ctx, now.Add(-time.Hour), now); err == nil {
		metrics.EventsHour = count
	}
	return metrics
}
