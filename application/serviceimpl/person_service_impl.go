package serviceimpl

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
	"gorm.io/gorm"

	"faceclock/domain/models"
	"faceclock/domain/repositories"
	"faceclock/domain/services"
	"faceclock/infrastructure/faceapi"
	"faceclock/pkg/logger"
	"faceclock/pkg/utils"
)

type PersonServiceImpl struct {
	personRepo     repositories.PersonRepository
	descriptorRepo repositories.DescriptorRepository
	auditRepo      repositories.AuditLogRepository
	galleryCache   repositories.DescriptorCache
	faceClient     *faceapi.FaceClient
	authService    services.AuthService
}

func NewPersonService(
	personRepo repositories.PersonRepository,
	descriptorRepo repositories.DescriptorRepository,
	auditRepo repositories.AuditLogRepository,
	galleryCache repositories.DescriptorCache,
	faceClient *faceapi.FaceClient,
	authService services.AuthService,
) services.PersonService {
	return &PersonServiceImpl{
		personRepo:     personRepo,
		descriptorRepo: descriptorRepo,
		auditRepo:      auditRepo,
		galleryCache:   galleryCache,
		faceClient:     faceClient,
		authService:    authService,
	}
}

// Register creates the person and enrolls one descriptor per sample.
// Samples are optional; descriptors can be added later.
func (s *PersonServiceImpl) Register(ctx context.Context, actorID uuid.UUID, input services.RegisterPersonInput) (*models.Person, error) {
	existing, err := s.personRepo.GetByEmail(ctx, input.Email)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, &services.PersistenceError{Op: "check email", Err: err}
	}
	if existing != nil {
		return nil, services.ErrEmailTaken
	}

	// Extract embeddings before touching the database so a bad sample
	// fails the whole request cleanly.
	descriptors, err := s.extractDescriptors(ctx, input.Samples)
	if err != nil {
		return nil, err
	}

	password := ""
	if input.Password != "" {
		hashed, err := utils.HashPassword(input.Password)
		if err != nil {
			return nil, fmt.Errorf("failed to hash password: %w", err)
		}
		password = hashed
	}

	role := input.Role
	if role == "" {
		role = "standard"
	}

	person := &models.Person{
		Name:     input.Name,
		Email:    input.Email,
		Password: password,
		Role:     role,
		IsActive: true,
	}
	if err := s.personRepo.Create(ctx, person); err != nil {
		return nil, &services.PersistenceError{Op: "create person", Err: err}
	}

	if len(descriptors) > 0 {
		for _, d := range descriptors {
			d.PersonID = person.ID
		}
		if err := s.descriptorRepo.CreateBatch(ctx, descriptors); err != nil {
			return nil, &services.PersistenceError{Op: "enroll descriptors", Err: err}
		}
		s.refreshGalleryEntry(ctx, person, descriptors)
	}

	s.writeAudit(ctx, actorID, person.ID, models.AuditPersonRegistered, models.AuditDetails{Count: len(descriptors)})

	logger.Face("person_registered", "Person registered", map[string]interface{}{
		"person_id":   person.ID.String(),
		"actor_id":    actorID.String(),
		"descriptors": len(descriptors),
	})
	return person, nil
}

func (s *PersonServiceImpl) Get(ctx context.Context, id uuid.UUID) (*models.Person, error) {
	person, err := s.personRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, services.ErrPersonNotFound
		}
		return nil, &services.PersistenceError{Op: "load person", Err: err}
	}
	return person, nil
}

func (s *PersonServiceImpl) List(ctx context.Context, page, limit int) ([]models.Person, int64, error) {
	offset := (page - 1) * limit
	if offset < 0 {
		offset = 0
	}
	return s.personRepo.List(ctx, offset, limit)
}

// AddDescriptors enrolls additional samples for an existing person
func (s *PersonServiceImpl) AddDescriptors(ctx context.Context, actorID, personID uuid.UUID, samples []services.FaceSample) (int, error) {
	if len(samples) == 0 {
		return 0, services.ErrNoSamples
	}

	person, err := s.Get(ctx, personID)
	if err != nil {
		return 0, err
	}

	descriptors, err := s.extractDescriptors(ctx, samples)
	if err != nil {
		return 0, err
	}

	for _, d := range descriptors {
		d.PersonID = personID
	}
	if err := s.descriptorRepo.CreateBatch(ctx, descriptors); err != nil {
		return 0, &services.PersistenceError{Op: "enroll descriptors", Err: err}
	}

	// The gallery entry must reflect all descriptors, not only the new ones.
	all, err := s.descriptorRepo.GetByPerson(ctx, personID)
	if err != nil {
		logger.DB("gallery_refresh", "Failed to reload descriptors after enrollment", map[string]interface{}{
			"person_id": personID.String(),
			"error":     err.Error(),
		})
	} else {
		s.refreshGalleryEntryFromModels(ctx, person, all)
	}

	s.writeAudit(ctx, actorID, personID, models.AuditDescriptorsAdded, models.AuditDetails{Count: len(descriptors)})

	logger.Face("descriptors_added", "Descriptors enrolled", map[string]interface{}{
		"person_id": personID.String(),
		"actor_id":  actorID.String(),
		"count":     len(descriptors),
	})
	return len(descriptors), nil
}

// ClearDescriptors removes all of a person's descriptors
func (s *PersonServiceImpl) ClearDescriptors(ctx context.Context, actorID, personID uuid.UUID) (int64, error) {
	person, err := s.Get(ctx, personID)
	if err != nil {
		return 0, err
	}

	count, err := s.descriptorRepo.DeleteByPerson(ctx, personID)
	if err != nil {
		return 0, &services.PersistenceError{Op: "clear descriptors", Err: err}
	}

	// An empty entry keeps the gallery snapshot complete while making the
	// person unmatchable.
	if person.IsActive {
		s.refreshGalleryEntryFromModels(ctx, person, nil)
	} else {
		if err := s.galleryCache.InvalidatePerson(ctx, personID); err != nil {
			logger.CacheWarn("gallery_invalidate", "Failed to invalidate gallery entry", err, map[string]interface{}{
				"person_id": personID.String(),
			})
		}
	}

	s.writeAudit(ctx, actorID, personID, models.AuditDescriptorsCleared, models.AuditDetails{Count: int(count)})

	logger.Face("descriptors_cleared", "Descriptors removed", map[string]interface{}{
		"person_id": personID.String(),
		"actor_id":  actorID.String(),
		"count":     count,
	})
	return count, nil
}

// SetActive toggles matching eligibility and, on deactivation, kills the
// person's sessions
func (s *PersonServiceImpl) SetActive(ctx context.Context, actorID, personID uuid.UUID, active bool, reason string) error {
	person, err := s.Get(ctx, personID)
	if err != nil {
		return err
	}
	if person.IsActive == active {
		return nil
	}

	if err := s.personRepo.SetActive(ctx, personID, active); err != nil {
		return &services.PersistenceError{Op: "set person active", Err: err}
	}

	action := models.AuditPersonReactivated
	if !active {
		action = models.AuditPersonDeactivated

		if err := s.galleryCache.InvalidatePerson(ctx, personID); err != nil {
			logger.CacheWarn("gallery_invalidate", "Failed to evict deactivated person from gallery", err, map[string]interface{}{
				"person_id": personID.String(),
			})
		}

		// Deactivation also ends the person's sessions. The durable check in
		// Validate is the backstop if this fails.
		if _, err := s.authService.RevokeAll(ctx, actorID, personID); err != nil {
			logger.AuthError("revoke_on_deactivate", "Failed to revoke sessions on deactivation", err, map[string]interface{}{
				"person_id": personID.String(),
			})
		}
	} else {
		// A reactivated person must reappear in the gallery even while the
		// completeness marker is still valid.
		descriptors, err := s.descriptorRepo.GetByPerson(ctx, personID)
		if err != nil {
			logger.DB("gallery_refresh", "Failed to reload descriptors on reactivation", map[string]interface{}{
				"person_id": personID.String(),
				"error":     err.Error(),
			})
		} else {
			s.refreshGalleryEntryFromModels(ctx, person, descriptors)
		}
	}

	s.writeAudit(ctx, actorID, personID, action, models.AuditDetails{Reason: reason})

	logger.Face("person_active_changed", "Person active flag changed", map[string]interface{}{
		"person_id": personID.String(),
		"actor_id":  actorID.String(),
		"active":    active,
	})
	return nil
}

// extractDescriptors runs every sample through the face service. A sample
// without a detectable face rejects the whole batch.
func (s *PersonServiceImpl) extractDescriptors(ctx context.Context, samples []services.FaceSample) ([]*models.FaceDescriptor, error) {
	descriptors := make([]*models.FaceDescriptor, 0, len(samples))
	for _, sample := range samples {
		face, err := s.faceClient.ExtractPrimaryFace(ctx, sample.ImageData, sample.MimeType)
		if err != nil {
			return nil, &services.UpstreamError{Service: "face service", Err: err}
		}
		if face == nil {
			return nil, services.ErrNoFaceDetected
		}
		if len(face.Embedding) != models.DescriptorDim {
			return nil, services.ErrInvalidDescriptor
		}

		descriptors = append(descriptors, &models.FaceDescriptor{
			Embedding:        pgvector.NewVector(face.Embedding),
			SampleConfidence: face.Confidence,
		})
	}
	return descriptors, nil
}

func (s *PersonServiceImpl) refreshGalleryEntry(ctx context.Context, person *models.Person, descriptors []*models.FaceDescriptor) {
	cached := make([]models.CachedDescriptor, 0, len(descriptors))
	for _, d := range descriptors {
		cached = append(cached, models.CachedDescriptor{
			Vector:    d.Embedding.Slice(),
			UpdatedAt: d.UpdatedAt,
		})
	}
	s.putGalleryEntry(ctx, person, cached)
}

func (s *PersonServiceImpl) refreshGalleryEntryFromModels(ctx context.Context, person *models.Person, descriptors []models.FaceDescriptor) {
	cached := make([]models.CachedDescriptor, 0, len(descriptors))
	for _, d := range descriptors {
		cached = append(cached, models.CachedDescriptor{
			Vector:    d.Embedding.Slice(),
			UpdatedAt: d.UpdatedAt,
		})
	}
	s.putGalleryEntry(ctx, person, cached)
}

func (s *PersonServiceImpl) putGalleryEntry(ctx context.Context, person *models.Person, cached []models.CachedDescriptor) {
	entry := models.GalleryEntry{Name: person.Name, Descriptors: cached}
	if err := s.galleryCache.PutPerson(ctx, person.ID, entry); err != nil {
		logger.CacheWarn("gallery_write", "Failed to write gallery entry", err, map[string]interface{}{
			"person_id": person.ID.String(),
		})
	}
}

func (s *PersonServiceImpl) writeAudit(ctx context.Context, actorID, personID uuid.UUID, action models.AuditAction, details models.AuditDetails) {
	payload, _ := json.Marshal(details)
	entry := &models.AuditLog{
		ActorID:  actorID,
		PersonID: &personID,
		Action:   action,
		Details:  string(payload),
	}
	if err := s.auditRepo.Create(ctx, entry); err != nil {
		logger.DB("audit_write", "Failed to write audit entry", map[string]interface{}{
			"action":    string(action),
			"person_id": personID.String(),
			"error":     err.Error(),
		})
	}
}
