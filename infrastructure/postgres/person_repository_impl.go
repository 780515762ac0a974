package postgres

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"faceclock/domain/models"
	"faceclock/domain/repositories"
)

type PersonRepositoryImpl struct {
	db *gorm.DB
}

func NewPersonRepository(db *gorm.DB) repositories.PersonRepository {
	return &PersonRepositoryImpl{db: db}
}

func (r *PersonRepositoryImpl) Create(ctx context.Context, person *models.Person) error {
	return r.db.WithContext(ctx).Create(person).Error
}

func (r *PersonRepositoryImpl) GetByID(ctx context.Context, id uuid.UUID) (*models.Person, error) {
	var person models.Person
	err := r.db.WithContext(ctx).Preload("Descriptors").Where("id = ?", id).First(&person).Error
	if err != nil {
		return nil, err
	}
	return &person, nil
}

func (r *PersonRepositoryImpl) GetByEmail(ctx context.Context, email string) (*models.Person, error) {
	var person models.Person
	err := r.db.WithContext(ctx).Where("email = ?", email).First(&person).Error
	if err != nil {
		return nil, err
	}
	return &person, nil
}

func (r *PersonRepositoryImpl) List(ctx context.Context, offset, limit int) ([]models.Person, int64, error) {
	var persons []models.Person
	var total int64

	if err := r.db.WithContext(ctx).Model(&models.Person{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := r.db.WithContext(ctx).
		Preload("Descriptors").
		Order("name ASC").
		Offset(offset).
		Limit(limit).
		Find(&persons).Error

	return persons, total, err
}

func (r *PersonRepositoryImpl) Update(ctx context.Context, id uuid.UUID, person *models.Person) error {
	person.UpdatedAt = time.Now()
	return r.db.WithContext(ctx).Where("id = ?", id).Updates(person).Error
}

func (r *PersonRepositoryImpl) SetActive(ctx context.Context, id uuid.UUID, active bool) error {
	return r.db.WithContext(ctx).
		Model(&models.Person{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"is_active":  active,
			"updated_at": time.Now(),
		}).Error
}

func (r *PersonRepositoryImpl) UpdateLastSeen(ctx context.Context, id uuid.UUID, seenAt time.Time) error {
	return r.db.WithContext(ctx).
		Model(&models.Person{}).
		Where("id = ?", id).
		Update("last_seen_at", seenAt).Error
}

func (r *PersonRepositoryImpl) IsActive(ctx context.Context, id uuid.UUID) (bool, error) {
	var active bool
	err := r.db.WithContext(ctx).
		Model(&models.Person{}).
		Select("is_active").
		Where("id = ?", id).
		Scan(&active).Error
	return active, err
}

func (r *PersonRepositoryImpl) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Person{}).Count(&count).Error
	return count, err
}

func (r *PersonRepositoryImpl) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Person{}).Error
}
