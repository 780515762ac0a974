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

type AttendanceRepositoryImpl struct {
	db *gorm.DB
}

func NewAttendanceRepository(db *gorm.DB) repositories.AttendanceRepository {
	return &AttendanceRepositoryImpl{db: db}
}

func (r *AttendanceRepositoryImpl) Create(ctx context.Context, event *models.AttendanceEvent) error {
	return r.db.WithContext(ctx).Create(event).Error
}

func (r *AttendanceRepositoryImpl) GetByID(ctx context.Context, id uuid.UUID) (*models.AttendanceEvent, error) {
	var event models.AttendanceEvent
	err := r.db.WithContext(ctx).Preload("Person").Where("id = ?", id).First(&event).Error
	if err != nil {
		return nil, err
	}
	return &event, nil
}

func (r *AttendanceRepositoryImpl) GetLastInRange(ctx context.Context, personID uuid.UUID, from, to time.Time) (*models.AttendanceEvent, error) {
	var event models.AttendanceEvent
	err := r.db.WithContext(ctx).
		Where("person_id = ? AND timestamp >= ? AND timestamp < ?", personID, from, to).
		Order("timestamp DESC").
		First(&event).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &event, nil
}

func (r *AttendanceRepositoryImpl) GetByPerson(ctx context.Context, personID uuid.UUID, from, to time.Time, offset, limit int) ([]models.AttendanceEvent, int64, error) {
	var events []models.AttendanceEvent
	var total int64

	query := r.db.WithContext(ctx).Model(&models.AttendanceEvent{}).Where("person_id = ?", personID)
	if !from.IsZero() {
		query = query.Where("timestamp >= ?", from)
	}
	if !to.IsZero() {
		query = query.Where("timestamp < ?", to)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := query.
		Order("timestamp DESC").
		Offset(offset).
		Limit(limit).
		Find(&events).Error

	return events, total, err
}

func (r *AttendanceRepositoryImpl) List(ctx context.Context, from, to time.Time, offset, limit int) ([]models.AttendanceEvent, int64, error) {
	var events []models.AttendanceEvent
	var total int64

	query := r.db.WithContext(ctx).Model(&models.AttendanceEvent{})
	if !from.IsZero() {
		query = query.Where("timestamp >= ?", from)
	}
	if !to.IsZero() {
		query = query.Where("timestamp < ?", to)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := query.
		Preload("Person").
		Order("timestamp DESC").
		Offset(offset).
		Limit(limit).
		Find(&events).Error

	return events, total, err
}

func (r *AttendanceRepositoryImpl) UpdateType(ctx context.Context, id uuid.UUID, newType models.EventType) error {
	return r.db.WithContext(ctx).
		Model(&models.AttendanceEvent{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"type":      newType,
			"corrected": true,
		}).Error
}

func (r *AttendanceRepositoryImpl) CountInRange(ctx context.Context, from, to time.Time) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.AttendanceEvent{}).
		Where("timestamp >= ? AND timestamp < ?", from, to).
		Count(&count).Error
	return count, err
}
