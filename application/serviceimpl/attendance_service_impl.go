package serviceimpl

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"faceclock/domain/models"
	"faceclock/domain/repositories"
	"faceclock/domain/services"
	"faceclock/infrastructure/events"
	"faceclock/infrastructure/storage"
	"faceclock/infrastructure/websocket"
	"faceclock/pkg/config"
	"faceclock/pkg/logger"
	"faceclock/pkg/observability"
)

type AttendanceServiceImpl struct {
	attendanceRepo repositories.AttendanceRepository
	personRepo     repositories.PersonRepository
	auditRepo      repositories.AuditLogRepository
	markerCache    repositories.MarkerCache
	recognition    services.RecognitionService
	snapshots      *storage.SnapshotStore // nil when snapshots are disabled
	publisher      *events.Publisher      // nil when NATS is disabled

	minInterval time.Duration
	location    *time.Location

	// Two near-simultaneous checks for the same person must not both pass
	// the suppression gate, so the read-decide-write sequence runs under a
	// per-person lock. The map grows with the enrolled population.
	locksMu sync.Mutex
	locks   map[uuid.UUID]*sync.Mutex
}

func NewAttendanceService(
	attendanceRepo repositories.AttendanceRepository,
	personRepo repositories.PersonRepository,
	auditRepo repositories.AuditLogRepository,
	markerCache repositories.MarkerCache,
	recognition services.RecognitionService,
	snapshots *storage.SnapshotStore,
	publisher *events.Publisher,
	cfg config.AttendanceConfig,
) services.AttendanceService {
	location := time.Local
	if cfg.Timezone != "" {
		loc, err := time.LoadLocation(cfg.Timezone)
		if err != nil {
			logger.StartupWarn("attendance_timezone", "Invalid ATTENDANCE_TIMEZONE, using server local time", map[string]interface{}{
				"timezone": cfg.Timezone,
				"error":    err.Error(),
			})
		} else {
			location = loc
		}
	}

	return &AttendanceServiceImpl{
		attendanceRepo: attendanceRepo,
		personRepo:     personRepo,
		auditRepo:      auditRepo,
		markerCache:    markerCache,
		recognition:    recognition,
		snapshots:      snapshots,
		publisher:      publisher,
		minInterval:    cfg.MinInterval,
		location:       location,
		locks:          make(map[uuid.UUID]*sync.Mutex),
	}
}

// Check identifies the face in the image and records the person's next
// attendance event.
func (s *AttendanceServiceImpl) Check(ctx context.Context, req services.CheckRequest) (*services.CheckResult, error) {
	match, err := s.recognition.IdentifyImage(ctx, req.ImageData, req.MimeType)
	if err != nil {
		return nil, err
	}

	lock := s.personLock(match.PersonID)
	lock.Lock()
	defer lock.Unlock()

	now := time.Now()

	// Duplicate suppression: a fresh marker means an event was just
	// recorded. A lost marker only widens the window, never blocks.
	marker := s.readMarker(ctx, match.PersonID)
	if marker != nil {
		if age := now.Sub(marker.Timestamp); age < s.minInterval {
			observability.AttendanceSuppressed.Inc()
			logger.Attendance("check_suppressed", "Check inside the suppression window", map[string]interface{}{
				"person_id": match.PersonID.String(),
				"age":       age.String(),
			})
			return nil, &services.SuppressedError{Remaining: s.minInterval - age}
		}
	}

	nextType, err := s.nextType(ctx, match.PersonID, marker, now)
	if err != nil {
		return nil, err
	}

	// Snapshot upload is best effort and never blocks the event.
	imageKey := ""
	if s.snapshots != nil {
		key, err := s.snapshots.SaveCheckImage(ctx, match.PersonID, now, req.ImageData, req.MimeType)
		if err != nil {
			logger.StorageError("snapshot_upload", "Check snapshot upload failed", err, map[string]interface{}{
				"person_id": match.PersonID.String(),
			})
		} else {
			imageKey = key
		}
	}

	event := &models.AttendanceEvent{
		PersonID:   match.PersonID,
		Type:       nextType,
		Timestamp:  now,
		Confidence: match.Confidence,
		ImageKey:   imageKey,
		Latitude:   req.Latitude,
		Longitude:  req.Longitude,
	}
	if err := s.attendanceRepo.Create(ctx, event); err != nil {
		return nil, &services.PersistenceError{Op: "create attendance event", Err: err}
	}

	// Durable write first, cache write second. A failed marker write
	// self-heals through the durable fallback.
	newMarker := &models.RecentAttendanceMarker{Type: nextType, Timestamp: now}
	if err := s.markerCache.Put(ctx, match.PersonID, newMarker); err != nil {
		logger.CacheWarn("marker_write", "Attendance marker write failed", err, map[string]interface{}{
			"person_id": match.PersonID.String(),
		})
	}

	if err := s.personRepo.UpdateLastSeen(ctx, match.PersonID, now); err != nil {
		logger.DB("last_seen", "Failed to update last seen timestamp", map[string]interface{}{
			"person_id": match.PersonID.String(),
			"error":     err.Error(),
		})
	}

	observability.AttendanceEvents.WithLabelValues(string(nextType)).Inc()
	logger.Attendance("event_recorded", "Attendance event recorded", map[string]interface{}{
		"event_id":   event.ID.String(),
		"person_id":  match.PersonID.String(),
		"type":       string(nextType),
		"confidence": match.Confidence,
	})

	s.fanOut(event, match)

	return &services.CheckResult{Event: event, Match: match}, nil
}

// DetermineNextType decides the type of the person's next event at the given
// instant
func (s *AttendanceServiceImpl) DetermineNextType(ctx context.Context, personID uuid.UUID, now time.Time) (models.EventType, error) {
	return s.nextType(ctx, personID, s.readMarker(ctx, personID), now)
}

// nextType runs the alternation rule. The marker is only trusted inside
// today's local-day window; outside it the durable history decides, and the
// first event of a day is always ENTRY.
func (s *AttendanceServiceImpl) nextType(ctx context.Context, personID uuid.UUID, marker *models.RecentAttendanceMarker, now time.Time) (models.EventType, error) {
	dayStart, dayEnd := s.dayWindow(now)

	if marker != nil && !marker.Timestamp.Before(dayStart) && marker.Timestamp.Before(dayEnd) {
		return marker.Type.Opposite(), nil
	}

	last, err := s.attendanceRepo.GetLastInRange(ctx, personID, dayStart, dayEnd)
	if err != nil {
		return "", &services.PersistenceError{Op: "load today's last event", Err: err}
	}
	if last != nil {
		return last.Type.Opposite(), nil
	}

	return models.EventEntry, nil
}

// GetHistory lists a person's events newest first
func (s *AttendanceServiceImpl) GetHistory(ctx context.Context, personID uuid.UUID, from, to time.Time, page, limit int) ([]models.AttendanceEvent, int64, error) {
	offset := (page - 1) * limit
	if offset < 0 {
		offset = 0
	}
	return s.attendanceRepo.GetByPerson(ctx, personID, from, to, offset, limit)
}

// GetToday returns the person's last event today and the type the next check
// would record
func (s *AttendanceServiceImpl) GetToday(ctx context.Context, personID uuid.UUID) (*services.TodayStatus, error) {
	now := time.Now()
	dayStart, dayEnd := s.dayWindow(now)

	last, err := s.attendanceRepo.GetLastInRange(ctx, personID, dayStart, dayEnd)
	if err != nil {
		return nil, &services.PersistenceError{Op: "load today's last event", Err: err}
	}

	nextType := models.EventEntry
	if last != nil {
		nextType = last.Type.Opposite()
	}

	return &services.TodayStatus{
		PersonID:  personID,
		LastEvent: last,
		NextType:  nextType,
	}, nil
}

// List lists events across all persons newest first
func (s *AttendanceServiceImpl) List(ctx context.Context, from, to time.Time, page, limit int) ([]models.AttendanceEvent, int64, error) {
	offset := (page - 1) * limit
	if offset < 0 {
		offset = 0
	}
	return s.attendanceRepo.List(ctx, from, to, offset, limit)
}

// Correct rewrites an event's type on behalf of an admin
func (s *AttendanceServiceImpl) Correct(ctx context.Context, actorID, eventID uuid.UUID, newType models.EventType, reason string) (*models.AttendanceEvent, error) {
	if newType != models.EventEntry && newType != models.EventExit {
		return nil, services.ErrInvalidEventType
	}

	event, err := s.attendanceRepo.GetByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, services.ErrEventNotFound
		}
		return nil, &services.PersistenceError{Op: "load attendance event", Err: err}
	}

	oldType := event.Type
	if err := s.attendanceRepo.UpdateType(ctx, eventID, newType); err != nil {
		return nil, &services.PersistenceError{Op: "correct attendance event", Err: err}
	}
	event.Type = newType
	event.Corrected = true

	// The marker may now contradict the corrected history; dropping it
	// forces the next decision onto the durable fallback.
	if err := s.markerCache.Invalidate(ctx, event.PersonID); err != nil {
		logger.CacheWarn("marker_invalidate", "Failed to invalidate attendance marker", err, map[string]interface{}{
			"person_id": event.PersonID.String(),
		})
	}

	details, _ := json.Marshal(models.AuditDetails{
		EventID: eventID.String(),
		OldType: string(oldType),
		NewType: string(newType),
		Reason:  reason,
	})
	auditEntry := &models.AuditLog{
		ActorID:  actorID,
		PersonID: &event.PersonID,
		Action:   models.AuditAttendanceCorrected,
		Details:  string(details),
	}
	if err := s.auditRepo.Create(ctx, auditEntry); err != nil {
		logger.DB("audit_write", "Failed to write audit entry for correction", map[string]interface{}{
			"event_id": eventID.String(),
			"error":    err.Error(),
		})
	}

	logger.Attendance("event_corrected", "Attendance event corrected", map[string]interface{}{
		"event_id": eventID.String(),
		"actor_id": actorID.String(),
		"old_type": string(oldType),
		"new_type": string(newType),
	})

	return event, nil
}

// readMarker treats every cache failure as a miss.
func (s *AttendanceServiceImpl) readMarker(ctx context.Context, personID uuid.UUID) *models.RecentAttendanceMarker {
	marker, err := s.markerCache.Get(ctx, personID)
	if err != nil {
		observability.CacheLookups.WithLabelValues("marker", "error").Inc()
		logger.CacheWarn("marker_read", "Attendance marker read failed, using durable fallback", err, map[string]interface{}{
			"person_id": personID.String(),
		})
		return nil
	}
	if marker == nil {
		observability.CacheLookups.WithLabelValues("marker", "miss").Inc()
		return nil
	}
	observability.CacheLookups.WithLabelValues("marker", "hit").Inc()
	return marker
}

// dayWindow returns the local calendar-day bounds containing t.
func (s *AttendanceServiceImpl) dayWindow(t time.Time) (time.Time, time.Time) {
	local := t.In(s.location)
	start := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, s.location)
	return start, start.AddDate(0, 0, 1)
}

func (s *AttendanceServiceImpl) personLock(personID uuid.UUID) *sync.Mutex {
	s.locksMu.Lock()
	defer s.locksMu.Unlock()
	lock, ok := s.locks[personID]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[personID] = lock
	}
	return lock
}

// fanOut notifies live listeners about a recorded event. Both channels are
// best effort.
func (s *AttendanceServiceImpl) fanOut(event *models.AttendanceEvent, match *services.MatchResult) {
	payload := map[string]interface{}{
		"event_id":    event.ID.String(),
		"person_id":   event.PersonID.String(),
		"person_name": match.PersonName,
		"type":        string(event.Type),
		"timestamp":   event.Timestamp,
		"confidence":  event.Confidence,
	}
	websocket.Manager.BroadcastToAll("attendance:recorded", payload)
	websocket.Manager.BroadcastToPerson(event.PersonID, "attendance:own", payload)

	if s.publisher != nil {
		msg := events.AttendanceMessage{
			EventID:    event.ID,
			PersonID:   event.PersonID,
			PersonName: match.PersonName,
			Type:       string(event.Type),
			Timestamp:  event.Timestamp,
			Confidence: event.Confidence,
		}
		if err := s.publisher.PublishAttendance(msg); err != nil {
			logger.EventsError("publish_attendance", "NATS publish failed", err, map[string]interface{}{
				"event_id": event.ID.String(),
			})
		}
	}
}
