package serviceimpl

import (
	"context"
	"math"
	"time"

	"github.com/google/uuid"

	"faceclock/domain/models"
	"faceclock/domain/repositories"
	"faceclock/domain/services"
	"faceclock/infrastructure/faceapi"
	"faceclock/pkg/config"
	"faceclock/pkg/logger"
	"faceclock/pkg/observability"
)

type RecognitionServiceImpl struct {
	descriptorRepo repositories.DescriptorRepository
	personRepo     repositories.PersonRepository
	galleryCache   repositories.DescriptorCache
	faceClient     *faceapi.FaceClient

	threshold        float64
	separationMargin float64
}

func NewRecognitionService(
	descriptorRepo repositories.DescriptorRepository,
	personRepo repositories.PersonRepository,
	galleryCache repositories.DescriptorCache,
	faceClient *faceapi.FaceClient,
	cfg config.RecognitionConfig,
) services.RecognitionService {
	return &RecognitionServiceImpl{
		descriptorRepo:   descriptorRepo,
		personRepo:       personRepo,
		galleryCache:     galleryCache,
		faceClient:       faceClient,
		threshold:        cfg.Threshold,
		separationMargin: cfg.SeparationMargin,
	}
}

// candidate is one person's best distance against the probe descriptor.
type candidate struct {
	personID  uuid.UUID
	name      string
	distance  float64
	updatedAt time.Time
}

// Identify matches a descriptor against every active person's enrolled
// descriptors and returns the closest person, or an error describing why no
// single person could be chosen.
func (s *RecognitionServiceImpl) Identify(ctx context.Context, descriptor []float32) (*services.MatchResult, error) {
	if len(descriptor) != models.DescriptorDim {
		observability.MatchAttempts.WithLabelValues("invalid").Inc()
		return nil, services.ErrInvalidDescriptor
	}

	gallery, err := s.loadGallery(ctx)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	best, runnerUp := scanGallery(gallery, descriptor)
	observability.MatchDuration.Observe(time.Since(start).Seconds())

	if best == nil || best.distance >= s.threshold {
		observability.MatchAttempts.WithLabelValues("no_match").Inc()
		return nil, services.ErrNoMatch
	}

	// A second person close behind the winner makes the decision unsafe.
	if runnerUp != nil && runnerUp.distance < s.threshold &&
		runnerUp.distance-best.distance < s.separationMargin {
		observability.MatchAttempts.WithLabelValues("ambiguous").Inc()
		logger.Face("ambiguous_match", "Two persons matched too closely", map[string]interface{}{
			"best_person":     best.personID.String(),
			"best_distance":   best.distance,
			"runner_up":       runnerUp.personID.String(),
			"runner_distance": runnerUp.distance,
		})
		return nil, services.ErrAmbiguousMatch
	}

	// The gallery snapshot may predate a deactivation; the durable store has
	// the last word.
	active, err := s.personRepo.IsActive(ctx, best.personID)
	if err != nil {
		return nil, &services.PersistenceError{Op: "re-check person active", Err: err}
	}
	if !active {
		if err := s.galleryCache.InvalidatePerson(ctx, best.personID); err != nil {
			logger.CacheWarn("gallery_evict", "Failed to evict deactivated person from gallery", err, map[string]interface{}{
				"person_id": best.personID.String(),
			})
		}
		observability.MatchAttempts.WithLabelValues("no_match").Inc()
		logger.Face("stale_match", "Best match is deactivated, rejected", map[string]interface{}{
			"person_id": best.personID.String(),
		})
		return nil, services.ErrNoMatch
	}

	observability.MatchAttempts.WithLabelValues("matched").Inc()
	return &services.MatchResult{
		PersonID:   best.personID,
		PersonName: best.name,
		Distance:   best.distance,
		Confidence: math.Max(0, 1-best.distance),
	}, nil
}

// IdentifyImage extracts the dominant face from the image and identifies it
func (s *RecognitionServiceImpl) IdentifyImage(ctx context.Context, imageData []byte, mimeType string) (*services.MatchResult, error) {
	face, err := s.faceClient.ExtractPrimaryFace(ctx, imageData, mimeType)
	if err != nil {
		return nil, &services.UpstreamError{Service: "face service", Err: err}
	}
	if face == nil {
		observability.MatchAttempts.WithLabelValues("no_face").Inc()
		return nil, services.ErrNoFaceDetected
	}

	return s.Identify(ctx, face.Embedding)
}

// RebuildGallery reloads the gallery from the durable store
func (s *RecognitionServiceImpl) RebuildGallery(ctx context.Context) (int, error) {
	gallery, err := s.rebuild(ctx)
	if err != nil {
		return 0, err
	}
	return len(gallery), nil
}

// InvalidatePerson drops one person from the cached gallery
func (s *RecognitionServiceImpl) InvalidatePerson(ctx context.Context, personID uuid.UUID) error {
	if err := s.galleryCache.InvalidatePerson(ctx, personID); err != nil {
		logger.CacheWarn("gallery_invalidate", "Failed to invalidate gallery entry", err, map[string]interface{}{
			"person_id": personID.String(),
		})
		return err
	}
	return nil
}

// loadGallery serves the cached snapshot when it is complete and rebuilds it
// otherwise. Cache read errors fall through to a rebuild.
func (s *RecognitionServiceImpl) loadGallery(ctx context.Context) (map[uuid.UUID]models.GalleryEntry, error) {
	gallery, complete, err := s.galleryCache.GetGallery(ctx)
	if err != nil {
		observability.CacheLookups.WithLabelValues("gallery", "error").Inc()
		logger.CacheWarn("gallery_read", "Gallery cache read failed, rebuilding", err, nil)
	} else if complete {
		observability.CacheLookups.WithLabelValues("gallery", "hit").Inc()
		return gallery, nil
	} else {
		observability.CacheLookups.WithLabelValues("gallery", "miss").Inc()
	}

	return s.rebuild(ctx)
}

// rebuild loads all active persons' descriptors and repopulates the cache.
// A cache write failure is tolerated; matching proceeds on the fresh load.
func (s *RecognitionServiceImpl) rebuild(ctx context.Context) (map[uuid.UUID]models.GalleryEntry, error) {
	descriptors, err := s.descriptorRepo.GetAllActive(ctx)
	if err != nil {
		return nil, &services.PersistenceError{Op: "load gallery", Err: err}
	}

	gallery := make(map[uuid.UUID]models.GalleryEntry)
	for _, d := range descriptors {
		entry := gallery[d.PersonID]
		if entry.Name == "" {
			entry.Name = d.Person.Name
		}
		entry.Descriptors = append(entry.Descriptors, models.CachedDescriptor{
			Vector:    d.Embedding.Slice(),
			UpdatedAt: d.UpdatedAt,
		})
		gallery[d.PersonID] = entry
	}

	if err := s.galleryCache.PutGallery(ctx, gallery); err != nil {
		logger.CacheWarn("gallery_write", "Gallery cache write failed, matching proceeds uncached", err, nil)
	}

	observability.GallerySize.Set(float64(len(gallery)))
	logger.Face("gallery_rebuilt", "Descriptor gallery rebuilt", map[string]interface{}{
		"persons":     len(gallery),
		"descriptors": len(descriptors),
	})
	return gallery, nil
}

// scanGallery returns the closest person and the closest other person.
// Within equal distances the later-updated descriptor wins.
func scanGallery(gallery map[uuid.UUID]models.GalleryEntry, probe []float32) (*candidate, *candidate) {
	var best, runnerUp *candidate

	for personID, entry := range gallery {
		cand := bestForPerson(personID, entry, probe)
		if cand == nil {
			continue
		}

		switch {
		case best == nil:
			best = cand
		case cand.distance < best.distance ||
			(cand.distance == best.distance && cand.updatedAt.After(best.updatedAt)):
			runnerUp = best
			best = cand
		case runnerUp == nil || cand.distance < runnerUp.distance:
			runnerUp = cand
		}
	}

	return best, runnerUp
}

func bestForPerson(personID uuid.UUID, entry models.GalleryEntry, probe []float32) *candidate {
	var best *candidate
	for _, d := range entry.Descriptors {
		if len(d.Vector) != models.DescriptorDim {
			continue
		}
		dist := euclideanDistance(probe, d.Vector)
		if best == nil || dist < best.distance ||
			(dist == best.distance && d.UpdatedAt.After(best.updatedAt)) {
			best = &candidate{
				personID:  personID,
				name:      entry.Name,
				distance:  dist,
				updatedAt: d.UpdatedAt,
			}
		}
	}
	return best
}

func euclideanDistance(a, b []float32) float64 {
	var sum float64
	for i := range a {
		d := float64(a[i]) - float64(b[i])
		sum += d * d
	}
	return math.Sqrt(sum)
}
