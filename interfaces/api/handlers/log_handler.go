package handlers

import (
	"os"

	"github.com/gofiber/fiber/v2"

	"faceclock/pkg/config"
	"faceclock/pkg/logger"
)

// LogHandler handles log-related API requests
type LogHandler struct {
	adminToken string
}

// NewLogHandler creates a new log handler
func NewLogHandler(cfg *config.Config) *LogHandler {
	// A dedicated admin token when configured, otherwise the JWT secret
	token := cfg.Admin.Token
	if token == "" {
		token = cfg.JWT.Secret
	}
	return &LogHandler{
		adminToken: token,
	}
}

// GetLogs returns log entries filtered by level, category or search text
func (h *LogHandler) GetLogs(c *fiber.Ctx) error {
	if ok, err := h.requireAdminToken(c); !ok {
		return err
	}

	// Parse options
	opts := logger.ReadLogsOptions{
		Lines:    c.QueryInt("lines", 100),
		Level:    logger.Level(c.Query("level")),
		Category: logger.Category(c.Query("category")),
		Search:   c.Query("search"),
	}

	// Read logs
	entries, err := logger.ReadLogs(opts)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"error":   err.Error(),
		})
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data": fiber.Map{
			"entries": entries,
			"count":   len(entries),
			"filters": fiber.Map{
				"lines":    opts.Lines,
				"level":    opts.Level,
				"category": opts.Category,
				"search":   opts.Search,
			},
		},
	})
}

// GetLogFiles returns list of log files
func (h *LogHandler) GetLogFiles(c *fiber.Ctx) error {
	if ok, err := h.requireAdminToken(c); !ok {
		return err
	}

	files, err := logger.ListLogFiles()
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"error":   err.Error(),
		})
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data": fiber.Map{
			"files":  files,
			"logDir": logger.GetLogDir(),
		},
	})
}

// GetLogStats returns log statistics
func (h *LogHandler) GetLogStats(c *fiber.Ctx) error {
	if ok, err := h.requireAdminToken(c); !ok {
		return err
	}

	// Get all logs for today
	allLogs, _ := logger.ReadLogs(logger.ReadLogsOptions{Lines: 1000})

	// Count by level
	levelCounts := map[string]int{
		"DEBUG": 0,
		"INFO":  0,
		"WARN":  0,
		"ERROR": 0,
	}

	// Count by category
	categoryCounts := map[string]int{}

	for _, entry := range allLogs {
		levelCounts[string(entry.Level)]++
		categoryCounts[string(entry.Category)]++
	}

	// Get log directory size
	var totalSize int64
	files, _ := logger.ListLogFiles()
	logDir := logger.GetLogDir()
	for _, f := range files {
		if info, err := os.Stat(logDir + "/" + f); err == nil {
			totalSize += info.Size()
		}
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data": fiber.Map{
			"total_entries":    len(allLogs),
			"by_level":         levelCounts,
			"by_category":      categoryCounts,
			"total_files":      len(files),
			"total_size_bytes": totalSize,
		},
	})
}

// requireAdminToken checks the X-Admin-Token header (or token query param
// for browser access) against the configured admin token.
func (h *LogHandler) requireAdminToken(c *fiber.Ctx) (bool, error) {
	token := c.Get("X-Admin-Token")
	if token == "" {
		token = c.Query("token")
	}
	if token != h.adminToken {
		return false, c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"success": false,
			"error":   "Invalid admin token",
		})
	}
	return true, nil
}
