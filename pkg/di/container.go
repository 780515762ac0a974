package di

import (
	"context"
	"time"

	"gorm.io/gorm"

	"faceclock/application/serviceimpl"
	"faceclock/domain/repositories"
	"faceclock/domain/services"
	"faceclock/infrastructure/events"
	"faceclock/infrastructure/faceapi"
	"faceclock/infrastructure/oauth"
	"faceclock/infrastructure/postgres"
	"faceclock/infrastructure/redis"
	"faceclock/infrastructure/storage"
	"faceclock/infrastructure/worker"
	"faceclock/interfaces/api/handlers"
	"faceclock/pkg/config"
	"faceclock/pkg/logger"
	"faceclock/pkg/scheduler"
)

// Days of audit history kept by the scheduled sweep.
const auditRetentionDays = 90

type Container struct {
	// Configuration
	Config *config.Config

	// Infrastructure
	DB             *gorm.DB
	RedisClient    *redis.RedisClient
	SnapshotStore  *storage.SnapshotStore
	Publisher      *events.Publisher
	EventScheduler scheduler.EventScheduler
	GoogleOAuth    *oauth.GoogleOAuth
	FaceClient     *faceapi.FaceClient

	// Repositories
	PersonRepository     repositories.PersonRepository
	DescriptorRepository repositories.DescriptorRepository
	AttendanceRepository repositories.AttendanceRepository
	SessionRepository    repositories.SessionRepository
	AuditLogRepository   repositories.AuditLogRepository

	// Redis projections
	DescriptorCache repositories.DescriptorCache
	MarkerCache     repositories.MarkerCache
	SessionCache    repositories.SessionCache

	// Services
	AuthService        services.AuthService
	RecognitionService services.RecognitionService
	AttendanceService  services.AttendanceService
	PersonService      services.PersonService
	AuditService       services.AuditService

	// Workers
	GalleryWarmer *worker.GalleryWarmer
}

func NewContainer() *Container {
	return &Container{}
}

func (c *Container) Initialize() error {
	if err := c.initConfig(); err != nil {
		return err
	}

	if err := c.initInfrastructure(); err != nil {
		return err
	}

	if err := c.initRepositories(); err != nil {
		return err
	}

	if err := c.initServices(); err != nil {
		return err
	}

	if err := c.initScheduler(); err != nil {
		return err
	}

	if err := c.initWorkers(); err != nil {
		return err
	}

	return nil
}

func (c *Container) initConfig() error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}
	c.Config = cfg
	logger.Startup("config_loaded", "Configuration loaded", nil)
	return nil
}

func (c *Container) initInfrastructure() error {
	// Initialize Database
	dbConfig := postgres.DatabaseConfig{
		Host:     c.Config.Database.Host,
		Port:     c.Config.Database.Port,
		User:     c.Config.Database.User,
		Password: c.Config.Database.Password,
		DBName:   c.Config.Database.DBName,
		SSLMode:  c.Config.Database.SSLMode,
	}

	db, err := postgres.NewDatabase(dbConfig)
	if err != nil {
		return err
	}
	c.DB = db
	logger.Startup("db_connected", "Database connected", nil)

	// Run migrations
	if err := postgres.Migrate(db); err != nil {
		return err
	}
	logger.Startup("db_migrated", "Database migrated", nil)

	// Initialize Redis
	redisConfig := redis.RedisConfig{
		Host:     c.Config.Redis.Host,
		Port:     c.Config.Redis.Port,
		Password: c.Config.Redis.Password,
		DB:       c.Config.Redis.DB,
	}
	c.RedisClient = redis.NewRedisClient(redisConfig)

	// Test Redis connection. The caches degrade to the durable store, so
	// a missing Redis is a warning, not a startup failure.
	if err := c.RedisClient.Ping(context.Background()); err != nil {
		logger.StartupWarn("redis_connection_failed", "Redis connection failed", map[string]interface{}{"error": err.Error()})
	} else {
		logger.Startup("redis_connected", "Redis connected", nil)
	}

	// Initialize MinIO snapshot store (optional)
	if c.Config.MinIO.Enabled {
		store, err := storage.NewSnapshotStore(storage.MinIOConfig{
			Endpoint:  c.Config.MinIO.Endpoint,
			AccessKey: c.Config.MinIO.AccessKey,
			SecretKey: c.Config.MinIO.SecretKey,
			Bucket:    c.Config.MinIO.Bucket,
			UseSSL:    c.Config.MinIO.UseSSL,
		})
		if err != nil {
			logger.StartupWarn("minio_init_failed", "Failed to initialize snapshot store", map[string]interface{}{"error": err.Error()})
		} else if err := store.EnsureBucket(context.Background()); err != nil {
			logger.StartupWarn("minio_bucket_failed", "Failed to ensure snapshot bucket", map[string]interface{}{"error": err.Error()})
		} else {
			c.SnapshotStore = store
			logger.Startup("minio_initialized", "Snapshot store initialized", map[string]interface{}{"bucket": c.Config.MinIO.Bucket})
		}
	} else {
		logger.Startup("minio_disabled", "Snapshot store disabled, check images will not be kept", nil)
	}

	// Initialize NATS publisher (optional)
	if c.Config.NATS.Enabled {
		publisher, err := events.NewPublisher(c.Config.NATS.URL, c.Config.NATS.Subject)
		if err != nil {
			logger.StartupWarn("nats_init_failed", "Failed to connect to NATS", map[string]interface{}{"error": err.Error()})
		} else {
			c.Publisher = publisher
			logger.Startup("nats_connected", "NATS publisher connected", map[string]interface{}{"subject": c.Config.NATS.Subject})
		}
	} else {
		logger.Startup("nats_disabled", "NATS publishing disabled", nil)
	}

	// Initialize Google OAuth
	c.GoogleOAuth = oauth.NewGoogleOAuth(c.Config.Google)
	if err := c.GoogleOAuth.ValidateConfig(); err != nil {
		logger.StartupWarn("google_oauth_not_configured", "Google OAuth not configured", map[string]interface{}{"error": err.Error()})
	} else {
		logger.Startup("google_oauth_initialized", "Google OAuth initialized", nil)
	}

	// Initialize Face Client. Always constructed; when the embedder is
	// down or disabled, image identification fails with an upstream error
	// instead of taking the process down.
	c.FaceClient = faceapi.NewFaceClient(c.Config.FaceAPI.BaseURL, c.Config.FaceAPI.Timeout)
	if !c.Config.FaceAPI.Enabled {
		logger.StartupWarn("face_api_disabled", "Face API disabled, image identification will fail until enabled", nil)
	} else if !c.FaceClient.IsAvailable(context.Background()) {
		logger.StartupWarn("face_api_unreachable", "Face API not reachable at startup", map[string]interface{}{"base_url": c.Config.FaceAPI.BaseURL})
	} else {
		logger.Startup("face_api_connected", "Face API reachable", nil)
	}

	return nil
}

func (c *Container) initRepositories() error {
	c.PersonRepository = postgres.NewPersonRepository(c.DB)
	c.DescriptorRepository = postgres.NewDescriptorRepository(c.DB)
	c.AttendanceRepository = postgres.NewAttendanceRepository(c.DB)
	c.SessionRepository = postgres.NewSessionRepository(c.DB)
	c.AuditLogRepository = postgres.NewAuditLogRepository(c.DB)

	// Redis projections over the durable rows
	c.DescriptorCache = redis.NewDescriptorCache(c.RedisClient, c.Config.Recognition.GalleryTTL)
	c.MarkerCache = redis.NewMarkerCache(c.RedisClient, c.Config.Attendance.MarkerTTL)
	c.SessionCache = redis.NewSessionCache(c.RedisClient, c.Config.Session.CacheTTL)

	logger.Startup("repositories_initialized", "Repositories initialized", nil)
	return nil
}

func (c *Container) initServices() error {
	c.AuthService = serviceimpl.NewAuthService(
		c.PersonRepository,
		c.SessionRepository,
		c.AuditLogRepository,
		c.SessionCache,
		c.GoogleOAuth,
		c.Config.JWT.Secret,
		c.Config.Session,
	)

	c.RecognitionService = serviceimpl.NewRecognitionService(
		c.DescriptorRepository,
		c.PersonRepository,
		c.DescriptorCache,
		c.FaceClient,
		c.Config.Recognition,
	)

	c.AttendanceService = serviceimpl.NewAttendanceService(
		c.AttendanceRepository,
		c.PersonRepository,
		c.AuditLogRepository,
		c.MarkerCache,
		c.RecognitionService,
		c.SnapshotStore,
		c.Publisher,
		c.Config.Attendance,
	)

	c.PersonService = serviceimpl.NewPersonService(
		c.PersonRepository,
		c.DescriptorRepository,
		c.AuditLogRepository,
		c.DescriptorCache,
		c.FaceClient,
		c.AuthService,
	)

	c.AuditService = serviceimpl.NewAuditService(c.AuditLogRepository)

	logger.Startup("services_initialized", "Services initialized", nil)
	return nil
}

func (c *Container) initScheduler() error {
	c.EventScheduler = scheduler.NewEventScheduler()

	// Start the scheduler
	c.EventScheduler.Start()

	// Expired-session sweep. Token validity never depends on this job; it
	// only keeps the sessions table small.
	err := c.EventScheduler.AddJob("session-cleanup", c.Config.Session.CleanupCron, func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()

		removed, err := c.AuthService.CleanupExpired(ctx)
		if err != nil {
			logger.SchedulerError("session_cleanup_error", "Session cleanup failed", err, nil)
			return
		}
		if removed > 0 {
			logger.Scheduler("session_cleanup_done", "Session cleanup completed", map[string]interface{}{"removed": removed})
		}
	})
	if err != nil {
		logger.StartupWarn("session_cleanup_schedule_failed", "Failed to schedule session cleanup", map[string]interface{}{"error": err.Error()})
	} else {
		logger.Startup("session_cleanup_scheduled", "Session cleanup scheduled", map[string]interface{}{"cron": c.Config.Session.CleanupCron})
	}

	// Daily audit sweep at 03:00
	err = c.EventScheduler.AddJob("audit-cleanup", "0 3 * * *", func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()

		removed, err := c.AuditService.Cleanup(ctx, auditRetentionDays)
		if err != nil {
			logger.SchedulerError("audit_cleanup_error", "Audit cleanup failed", err, nil)
			return
		}
		if removed > 0 {
			logger.Scheduler("audit_cleanup_done", "Audit cleanup completed", map[string]interface{}{"removed": removed})
		}
	})
	if err != nil {
		logger.StartupWarn("audit_cleanup_schedule_failed", "Failed to schedule audit cleanup", map[string]interface{}{"error": err.Error()})
	}

	return nil
}

func (c *Container) initWorkers() error {
	// Keep the descriptor gallery warm between enrollment changes
	c.GalleryWarmer = worker.NewGalleryWarmer(
		c.RecognitionService,
		c.DescriptorCache,
		c.Config.Recognition.GalleryTTL,
	)
	c.GalleryWarmer.Start()

	return nil
}

func (c *Container) Cleanup() error {
	logger.Startup("cleanup_started", "Starting cleanup...", nil)

	// Stop gallery warmer
	if c.GalleryWarmer != nil {
		if c.GalleryWarmer.IsRunning() {
			c.GalleryWarmer.Stop()
		}
	}

	// Stop scheduler
	if c.EventScheduler != nil {
		if c.EventScheduler.IsRunning() {
			c.EventScheduler.Stop()
			logger.Startup("scheduler_stopped", "Event scheduler stopped", nil)
		} else {
			logger.Startup("scheduler_already_stopped", "Event scheduler was already stopped", nil)
		}
	}

	// Close NATS connection
	if c.Publisher != nil {
		c.Publisher.Close()
		logger.Startup("nats_closed", "NATS connection closed", nil)
	}

	// Close Redis connection
	if c.RedisClient != nil {
		if err := c.RedisClient.Close(); err != nil {
			logger.StartupWarn("redis_close_failed", "Failed to close Redis connection", map[string]interface{}{"error": err.Error()})
		} else {
			logger.Startup("redis_closed", "Redis connection closed", nil)
		}
	}

	// Close database connection
	if c.DB != nil {
		sqlDB, err := c.DB.DB()
		if err == nil {
			if err := sqlDB.Close(); err != nil {
				logger.StartupWarn("db_close_failed", "Failed to close database connection", map[string]interface{}{"error": err.Error()})
			} else {
				logger.Startup("db_closed", "Database connection closed", nil)
			}
		}
	}

	logger.Startup("cleanup_completed", "Cleanup completed", nil)
	return nil
}

func (c *Container) GetConfig() *config.Config {
	return c.Config
}

func (c *Container) GetHandlerServices() *handlers.Services {
	return &handlers.Services{
		AuthService:        c.AuthService,
		PersonService:      c.PersonService,
		RecognitionService: c.RecognitionService,
		AttendanceService:  c.AttendanceService,
		AuditService:       c.AuditService,
	}
}

func (c *Container) GetHandlerInfra() *handlers.Infra {
	return &handlers.Infra{
		DB:          c.DB,
		RedisClient: c.RedisClient,
		FaceClient:  c.FaceClient,
		Snapshots:   c.SnapshotStore,
		Publisher:   c.Publisher,
		Scheduler:   c.EventScheduler,
	}
}

func (c *Container) GetHandlerRepositories() *handlers.Repositories {
	return &handlers.Repositories{
		AttendanceRepository: c.AttendanceRepository,
	}
}
