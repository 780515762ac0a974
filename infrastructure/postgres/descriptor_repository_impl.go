package postgres

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"faceclock/domain/models"
	"faceclock/domain/repositories"
)

type DescriptorRepositoryImpl struct {
	db *gorm.DB
}

func NewDescriptorRepository(db *gorm.DB) repositories.DescriptorRepository {
	return &DescriptorRepositoryImpl{db: db}
}

func (r *DescriptorRepositoryImpl) Create(ctx context.Context, descriptor *models.FaceDescriptor) error {
	return r.db.WithContext(ctx).Create(descriptor).Error
}

func (r *DescriptorRepositoryImpl) CreateBatch(ctx context.Context, descriptors []*models.FaceDescriptor) error {
	if len(descriptors) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(descriptors).Error
}

func (r *DescriptorRepositoryImpl) GetByPerson(ctx context.Context, personID uuid.UUID) ([]models.FaceDescriptor, error) {
	var descriptors []models.FaceDescriptor
	err := r.db.WithContext(ctx).
		Where("person_id = ?", personID).
		Order("created_at ASC").
		Find(&descriptors).Error
	return descriptors, err
}

func (r *DescriptorRepositoryImpl) GetAllActive(ctx context.Context) ([]models.FaceDescriptor, error) {
	var descriptors []models.FaceDescriptor
	err := r.db.WithContext(ctx).
		Preload("Person").
		Joins("JOIN persons ON persons.id = face_descriptors.person_id").
		Where("persons.is_active = ?", true).
		Find(&descriptors).Error
	return descriptors, err
}

func (r *DescriptorRepositoryImpl) DeleteByPerson(ctx context.Context, personID uuid.UUID) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("person_id = ?", personID).
		Delete(&models.FaceDescriptor{})
	return result.RowsAffected, result.Error
}

func (r *DescriptorRepositoryImpl) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.FaceDescriptor{}).Count(&count).Error
	return count, err
}
