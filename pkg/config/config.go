package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	App         AppConfig
	Database    DatabaseConfig
	Redis       RedisConfig
	JWT         JWTConfig
	Session     SessionConfig
	Admin       AdminConfig
	Google      GoogleOAuthConfig
	FaceAPI     FaceAPIConfig
	Recognition RecognitionConfig
	Attendance  AttendanceConfig
	MinIO       MinIOConfig
	NATS        NATSConfig
	RateLimit   RateLimitConfig
}

type AppConfig struct {
	Name string
	Port string
	Env  string
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

type JWTConfig struct {
	Secret string
}

type SessionConfig struct {
	TokenTTL    time.Duration // Lifetime of issued tokens and their sessions
	CacheTTL    time.Duration // Upper bound for the Redis session projection
	CleanupCron string        // Cron expression for the expired-session sweep
}

type AdminConfig struct {
	Token string // Separate admin token for log access (falls back to JWT secret if not set)
}

type GoogleOAuthConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
}

type FaceAPIConfig struct {
	BaseURL string // Base URL of the Python InsightFace service
	Enabled bool   // Enable/disable face processing
	Timeout time.Duration
}

type RecognitionConfig struct {
	Threshold        float64       // Max Euclidean distance for an accepted match
	SeparationMargin float64       // Min distance gap to the runner-up person
	GalleryTTL       time.Duration // TTL of the cached descriptor gallery
}

type AttendanceConfig struct {
	MinInterval time.Duration // Duplicate-suppression window between events
	MarkerTTL   time.Duration // TTL of the recent-attendance marker
	Timezone    string        // IANA zone for the calendar day (empty = server local)
}

type MinIOConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
	Enabled   bool
}

type NATSConfig struct {
	URL     string
	Subject string
	Enabled bool
}

type RateLimitConfig struct {
	Enabled            bool
	MaxRequests        int
	WindowSeconds      int
	AuthMaxRequests    int // Stricter limit for login/refresh endpoints
	AuthWindowSeconds  int
	CheckMaxRequests   int // Per-kiosk limit for the unauthenticated check endpoint
	CheckWindowSeconds int
}

func LoadConfig() (*Config, error) {
	// Load .env file if exists (optional for production)
	_ = godotenv.Load() // Ignore error if .env doesn't exist

	redisDB, _ := strconv.Atoi(getEnv("REDIS_DB", "0"))
	threshold, _ := strconv.ParseFloat(getEnv("RECOGNITION_THRESHOLD", "0.5"), 64)
	margin, _ := strconv.ParseFloat(getEnv("RECOGNITION_SEPARATION_MARGIN", "0.01"), 64)
	maxRequests, _ := strconv.Atoi(getEnv("RATE_LIMIT_MAX_REQUESTS", "100"))
	windowSeconds, _ := strconv.Atoi(getEnv("RATE_LIMIT_WINDOW_SECONDS", "60"))
	authMaxRequests, _ := strconv.Atoi(getEnv("RATE_LIMIT_AUTH_MAX_REQUESTS", "10"))
	authWindowSeconds, _ := strconv.Atoi(getEnv("RATE_LIMIT_AUTH_WINDOW_SECONDS", "60"))
	checkMaxRequests, _ := strconv.Atoi(getEnv("RATE_LIMIT_CHECK_MAX_REQUESTS", "30"))
	checkWindowSeconds, _ := strconv.Atoi(getEnv("RATE_LIMIT_CHECK_WINDOW_SECONDS", "60"))

	config := &Config{
		App: AppConfig{
			Name: getEnv("APP_NAME", "FaceClock"),
			Port: getEnv("APP_PORT", "3000"),
			Env:  getEnv("APP_ENV", "development"),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", ""),
			DBName:   getEnv("DB_NAME", "faceclock"),
			SSLMode:  getEnv("DB_SSL_MODE", "disable"),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       redisDB,
		},
		JWT: JWTConfig{
			Secret: getEnv("JWT_SECRET", "your-secret-key"),
		},
		Session: SessionConfig{
			TokenTTL:    getEnvDuration("SESSION_TOKEN_TTL", 24*time.Hour),
			CacheTTL:    getEnvDuration("SESSION_CACHE_TTL", 15*time.Minute),
			CleanupCron: getEnv("SESSION_CLEANUP_CRON", "0 * * * *"),
		},
		Admin: AdminConfig{
			Token: getEnv("ADMIN_TOKEN", ""), // Will fall back to JWT_SECRET in handler if empty
		},
		Google: GoogleOAuthConfig{
			ClientID:     getEnv("GOOGLE_CLIENT_ID", ""),
			ClientSecret: getEnv("GOOGLE_CLIENT_SECRET", ""),
			RedirectURL:  getEnv("GOOGLE_REDIRECT_URL", "http://localhost:3000/api/v1/auth/google/callback"),
		},
		FaceAPI: FaceAPIConfig{
			BaseURL: getEnv("FACE_API_URL", "http://localhost:5000"),
			Enabled: getEnv("FACE_API_ENABLED", "true") == "true",
			Timeout: getEnvDuration("FACE_API_TIMEOUT", 30*time.Second),
		},
		Recognition: RecognitionConfig{
			Threshold:        threshold,
			SeparationMargin: margin,
			GalleryTTL:       getEnvDuration("RECOGNITION_GALLERY_TTL", 10*time.Minute),
		},
		Attendance: AttendanceConfig{
			MinInterval: getEnvDuration("ATTENDANCE_MIN_INTERVAL", 5*time.Minute),
			MarkerTTL:   getEnvDuration("ATTENDANCE_MARKER_TTL", 12*time.Hour),
			Timezone:    getEnv("ATTENDANCE_TIMEZONE", ""),
		},
		MinIO: MinIOConfig{
			Endpoint:  getEnv("MINIO_ENDPOINT", "localhost:9000"),
			AccessKey: getEnv("MINIO_ACCESS_KEY", ""),
			SecretKey: getEnv("MINIO_SECRET_KEY", ""),
			Bucket:    getEnv("MINIO_BUCKET", "faceclock-snapshots"),
			UseSSL:    getEnv("MINIO_USE_SSL", "false") == "true",
			Enabled:   getEnv("MINIO_ENABLED", "false") == "true",
		},
		NATS: NATSConfig{
			URL:     getEnv("NATS_URL", "nats://localhost:4222"),
			Subject: getEnv("NATS_SUBJECT", "faceclock.attendance"),
			Enabled: getEnv("NATS_ENABLED", "false") == "true",
		},
		RateLimit: RateLimitConfig{
			Enabled:            getEnv("RATE_LIMIT_ENABLED", "true") == "true",
			MaxRequests:        maxRequests,
			WindowSeconds:      windowSeconds,
			AuthMaxRequests:    authMaxRequests,
			AuthWindowSeconds:  authWindowSeconds,
			CheckMaxRequests:   checkMaxRequests,
			CheckWindowSeconds: checkWindowSeconds,
		},
	}

	return config, nil
}

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return defaultValue
	}
	return d
}
