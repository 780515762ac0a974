package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"faceclock/domain/models"
	"faceclock/domain/repositories"
)

type SessionRepositoryImpl struct {
	db *gorm.DB
}

func NewSessionRepository(db *gorm.DB) repositories.SessionRepository {
	return &SessionRepositoryImpl{db: db}
}

func (r *SessionRepositoryImpl) Create(ctx context.Context, session *models.Session) error {
	return r.db.WithContext(ctx).Create(session).Error
}

func (r *SessionRepositoryImpl) GetActiveBySessionID(ctx context.Context, sessionID uuid.UUID) (*models.Session, error) {
	var session models.Session
	err := r.db.WithContext(ctx).
		Where("session_id = ? AND is_active = ? AND expires_at > ?", sessionID, true, time.Now()).
		First(&session).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &session, nil
}

func (r *SessionRepositoryImpl) GetActiveByPerson(ctx context.Context, personID uuid.UUID) ([]models.Session, error) {
	var sessions []models.Session
	err := r.db.WithContext(ctx).
		Where("person_id = ? AND is_active = ? AND expires_at > ?", personID, true, time.Now()).
		Order("issued_at DESC").
		Find(&sessions).Error
	return sessions, err
}

func (r *SessionRepositoryImpl) Rotate(ctx context.Context, oldSessionID, newSessionID uuid.UUID, expiresAt time.Time) (int64, error) {
	// Single UPDATE keyed on the old identifier. Matching zero rows means
	// the session was already rotated or revoked; the caller turns that
	// into an auth failure.
	result := r.db.WithContext(ctx).
		Model(&models.Session{}).
		Where("session_id = ? AND is_active = ?", oldSessionID, true).
		Updates(map[string]interface{}{
			"session_id": newSessionID,
			"expires_at": expiresAt,
			"updated_at": time.Now(),
		})
	return result.RowsAffected, result.Error
}

func (r *SessionRepositoryImpl) Deactivate(ctx context.Context, sessionID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&models.Session{}).
		Where("session_id = ?", sessionID).
		Updates(map[string]interface{}{
			"is_active":  false,
			"updated_at": time.Now(),
		}).Error
}

func (r *SessionRepositoryImpl) DeactivateAllByPerson(ctx context.Context, personID uuid.UUID) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Session{}).
		Where("person_id = ? AND is_active = ?", personID, true).
		Updates(map[string]interface{}{
			"is_active":  false,
			"updated_at": time.Now(),
		})
	return result.RowsAffected, result.Error
}

func (r *SessionRepositoryImpl) DeleteExpired(ctx context.Context) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("expires_at < ? OR is_active = ?", time.Now(), false).
		Delete(&models.Session{})
	return result.RowsAffected, result.Error
}
