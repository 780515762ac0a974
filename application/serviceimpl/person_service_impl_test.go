package serviceimpl

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"

	"faceclock/domain/models"
	"faceclock/domain/services"
	"faceclock/infrastructure/faceapi"
)

type personFixture struct {
	personRepo     *fakePersonRepo
	descriptorRepo *fakeDescriptorRepo
	auditRepo      *fakeAuditRepo
	gallery        *fakeDescriptorCache
	auth           *fakeAuthService
	svc            services.PersonService
}

func newPersonFixture(faceClient *faceapi.FaceClient) *personFixture {
	f := &personFixture{
		personRepo:     newFakePersonRepo(),
		descriptorRepo: &fakeDescriptorRepo{},
		auditRepo:      &fakeAuditRepo{},
		gallery:        newFakeDescriptorCache(),
		auth:           &fakeAuthService{},
	}
	f.svc = NewPersonService(f.personRepo, f.descriptorRepo, f.auditRepo, f.gallery, faceClient, f.auth)
	return f
}

// stubFaceService answers every extraction request with the given faces.
func stubFaceService(t *testing.T, faces []faceapi.DetectedFace) *faceapi.FaceClient {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/extract-bytes" {
			http.NotFound(w, r)
			return
		}
		json.NewEncoder(w).Encode(faceapi.ExtractResponse{Success: true, Faces: faces})
	}))
	t.Cleanup(server.Close)
	return faceapi.NewFaceClient(server.URL, 0)
}

func downFaceService(t *testing.T) *faceapi.FaceClient {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not loaded", http.StatusInternalServerError)
	}))
	t.Cleanup(server.Close)
	return faceapi.NewFaceClient(server.URL, 0)
}

func sampleImages(n int) []services.FaceSample {
	samples := make([]services.FaceSample, n)
	for i := range samples {
		samples[i] = services.FaceSample{ImageData: []byte("jpeg-bytes"), MimeType: "image/jpeg"}
	}
	return samples
}

func (f *personFixture) lastAuditDetails(t *testing.T) models.AuditDetails {
	t.Helper()
	if len(f.auditRepo.entries) == 0 {
		t.Fatal("no audit entries written")
	}
	entry := f.auditRepo.entries[len(f.auditRepo.entries)-1]
	var details models.AuditDetails
	if err := json.Unmarshal([]byte(entry.Details), &details); err != nil {
		t.Fatalf("audit details are not valid JSON: %v", err)
	}
	return details
}

func TestRegister_EnrollsDescriptorsAndWritesGallery(t *testing.T) {
	client := stubFaceService(t, []faceapi.DetectedFace{
		{Embedding: descriptorAt(0.1), Confidence: 0.93},
	})
	f := newPersonFixture(client)

	person, err := f.svc.Register(context.Background(), uuid.New(), services.RegisterPersonInput{
		Name:     "Alice",
		Email:    "alice@example.com",
		Password: "s3cret99",
		Samples:  sampleImages(2),
	})
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	if person.ID == uuid.Nil || !person.IsActive {
		t.Errorf("person = %+v, want an active person with an id", person)
	}
	if person.Role != "standard" {
		t.Errorf("Role = %s, want the standard default", person.Role)
	}
	if person.Password == "" || person.Password == "s3cret99" {
		t.Error("password should be stored hashed")
	}

	if len(f.descriptorRepo.descriptors) != 2 {
		t.Fatalf("stored descriptors = %d, want one per sample", len(f.descriptorRepo.descriptors))
	}
	for _, d := range f.descriptorRepo.descriptors {
		if d.PersonID != person.ID {
			t.Errorf("descriptor PersonID = %s, want %s", d.PersonID, person.ID)
		}
		if d.SampleConfidence != 0.93 {
			t.Errorf("SampleConfidence = %f, want the detection confidence", d.SampleConfidence)
		}
	}

	entry, ok := f.gallery.gallery[person.ID]
	if !ok {
		t.Fatal("enrollment should write the person's gallery entry through")
	}
	if entry.Name != "Alice" || len(entry.Descriptors) != 2 {
		t.Errorf("gallery entry = %+v, want name and both descriptors", entry)
	}

	if f.auditRepo.lastAction() != models.AuditPersonRegistered {
		t.Errorf("audit action = %s, want person_registered", f.auditRepo.lastAction())
	}
	if details := f.lastAuditDetails(t); details.Count != 2 {
		t.Errorf("audited count = %d, want 2", details.Count)
	}
}

func TestRegister_WithoutSamples(t *testing.T) {
	f := newPersonFixture(nil)

	person, err := f.svc.Register(context.Background(), uuid.New(), services.RegisterPersonInput{
		Name:  "Alice",
		Email: "alice@example.com",
		Role:  "admin",
	})
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	if person.Role != "admin" {
		t.Errorf("Role = %s, want the requested role", person.Role)
	}
	if person.Password != "" {
		t.Error("a person without a password should store an empty hash")
	}
	if len(f.descriptorRepo.descriptors) != 0 {
		t.Error("no samples means no descriptors")
	}
	if f.gallery.putPersonCalls != 0 {
		t.Error("no descriptors means no gallery write")
	}
}

func TestRegister_EmailTaken(t *testing.T) {
	f := newPersonFixture(nil)
	f.personRepo.add(&models.Person{Name: "Alice", Email: "alice@example.com", IsActive: true})

	_, err := f.svc.Register(context.Background(), uuid.New(), services.RegisterPersonInput{
		Name:  "Impostor",
		Email: "alice@example.com",
	})
	if !errors.Is(err, services.ErrEmailTaken) {
		t.Errorf("Register() error = %v, want ErrEmailTaken", err)
	}
	if len(f.personRepo.persons) != 1 {
		t.Error("a rejected registration must not create a person")
	}
}

func TestRegister_SampleWithoutFaceRejectsBatch(t *testing.T) {
	client := stubFaceService(t, nil)
	f := newPersonFixture(client)

	_, err := f.svc.Register(context.Background(), uuid.New(), services.RegisterPersonInput{
		Name:    "Alice",
		Email:   "alice@example.com",
		Samples: sampleImages(1),
	})
	if !errors.Is(err, services.ErrNoFaceDetected) {
		t.Fatalf("Register() error = %v, want ErrNoFaceDetected", err)
	}

	// Extraction runs before any row is written, so the failure leaves
	// nothing behind.
	if len(f.personRepo.persons) != 0 {
		t.Error("a rejected batch must not create the person")
	}
	if len(f.descriptorRepo.descriptors) != 0 {
		t.Error("a rejected batch must not store descriptors")
	}
}

func TestRegister_WrongEmbeddingDimension(t *testing.T) {
	client := stubFaceService(t, []faceapi.DetectedFace{
		{Embedding: make([]float32, 64), Confidence: 0.9},
	})
	f := newPersonFixture(client)

	_, err := f.svc.Register(context.Background(), uuid.New(), services.RegisterPersonInput{
		Name:    "Alice",
		Email:   "alice@example.com",
		Samples: sampleImages(1),
	})
	if !errors.Is(err, services.ErrInvalidDescriptor) {
		t.Errorf("Register() error = %v, want ErrInvalidDescriptor", err)
	}
}

func TestRegister_FaceServiceDown(t *testing.T) {
	f := newPersonFixture(downFaceService(t))

	_, err := f.svc.Register(context.Background(), uuid.New(), services.RegisterPersonInput{
		Name:    "Alice",
		Email:   "alice@example.com",
		Samples: sampleImages(1),
	})

	var upstream *services.UpstreamError
	if !errors.As(err, &upstream) {
		t.Errorf("Register() error = %v, want an UpstreamError", err)
	}
	if len(f.personRepo.persons) != 0 {
		t.Error("an upstream failure must not create the person")
	}
}

func TestAddDescriptors_RefreshesWholeGalleryEntry(t *testing.T) {
	client := stubFaceService(t, []faceapi.DetectedFace{
		{Embedding: descriptorAt(0.2), Confidence: 0.9},
	})
	f := newPersonFixture(client)

	person := f.personRepo.add(&models.Person{Name: "Alice", Email: "alice@example.com", IsActive: true})
	if err := f.descriptorRepo.Create(context.Background(), &models.FaceDescriptor{PersonID: person.ID}); err != nil {
		t.Fatalf("seed descriptor: %v", err)
	}

	count, err := f.svc.AddDescriptors(context.Background(), uuid.New(), person.ID, sampleImages(1))
	if err != nil {
		t.Fatalf("AddDescriptors() error = %v", err)
	}
	if count != 1 {
		t.Errorf("count = %d, want 1", count)
	}

	// The rewritten entry carries every enrolled descriptor, not only the
	// new one.
	entry, ok := f.gallery.gallery[person.ID]
	if !ok {
		t.Fatal("enrollment should write the gallery entry through")
	}
	if len(entry.Descriptors) != 2 {
		t.Errorf("gallery descriptors = %d, want all 2", len(entry.Descriptors))
	}

	if f.auditRepo.lastAction() != models.AuditDescriptorsAdded {
		t.Errorf("audit action = %s, want descriptors_added", f.auditRepo.lastAction())
	}
}

func TestAddDescriptors_RequiresSamples(t *testing.T) {
	f := newPersonFixture(nil)
	person := f.personRepo.add(&models.Person{Name: "Alice", Email: "alice@example.com", IsActive: true})

	_, err := f.svc.AddDescriptors(context.Background(), uuid.New(), person.ID, nil)
	if !errors.Is(err, services.ErrNoSamples) {
		t.Errorf("AddDescriptors() error = %v, want ErrNoSamples", err)
	}
}

func TestAddDescriptors_UnknownPerson(t *testing.T) {
	f := newPersonFixture(nil)

	_, err := f.svc.AddDescriptors(context.Background(), uuid.New(), uuid.New(), sampleImages(1))
	if !errors.Is(err, services.ErrPersonNotFound) {
		t.Errorf("AddDescriptors() error = %v, want ErrPersonNotFound", err)
	}
}

func TestClearDescriptors_ActivePersonKeepsEmptyEntry(t *testing.T) {
	f := newPersonFixture(nil)
	person := f.personRepo.add(&models.Person{Name: "Alice", Email: "alice@example.com", IsActive: true})
	f.descriptorRepo.descriptors = []models.FaceDescriptor{
		{ID: uuid.New(), PersonID: person.ID},
		{ID: uuid.New(), PersonID: person.ID},
	}

	count, err := f.svc.ClearDescriptors(context.Background(), uuid.New(), person.ID)
	if err != nil {
		t.Fatalf("ClearDescriptors() error = %v", err)
	}
	if count != 2 {
		t.Errorf("count = %d, want 2", count)
	}
	if len(f.descriptorRepo.descriptors) != 0 {
		t.Error("descriptors should be gone from the durable store")
	}

	// The empty entry keeps the snapshot complete while making the person
	// unmatchable.
	entry, ok := f.gallery.gallery[person.ID]
	if !ok {
		t.Fatal("an active person keeps an empty gallery entry")
	}
	if len(entry.Descriptors) != 0 {
		t.Errorf("gallery descriptors = %d, want none", len(entry.Descriptors))
	}
	if len(f.gallery.invalidatedIDs) != 0 {
		t.Error("an active person must not be evicted")
	}

	if details := f.lastAuditDetails(t); details.Count != 2 {
		t.Errorf("audited count = %d, want 2", details.Count)
	}
}

func TestClearDescriptors_InactivePersonEvicted(t *testing.T) {
	f := newPersonFixture(nil)
	person := f.personRepo.add(&models.Person{Name: "Alice", Email: "alice@example.com", IsActive: false})
	f.descriptorRepo.descriptors = []models.FaceDescriptor{{ID: uuid.New(), PersonID: person.ID}}
	f.gallery.gallery[person.ID] = models.GalleryEntry{Name: "Alice"}

	if _, err := f.svc.ClearDescriptors(context.Background(), uuid.New(), person.ID); err != nil {
		t.Fatalf("ClearDescriptors() error = %v", err)
	}

	if len(f.gallery.invalidatedIDs) != 1 || f.gallery.invalidatedIDs[0] != person.ID {
		t.Errorf("invalidated = %v, want the inactive person evicted", f.gallery.invalidatedIDs)
	}
	if _, ok := f.gallery.gallery[person.ID]; ok {
		t.Error("gallery entry should be gone")
	}
}

func TestSetActive_DeactivationRevokesAndEvicts(t *testing.T) {
	f := newPersonFixture(nil)
	person := f.personRepo.add(&models.Person{Name: "Alice", Email: "alice@example.com", IsActive: true})
	f.gallery.gallery[person.ID] = models.GalleryEntry{Name: "Alice"}

	adminID := uuid.New()
	err := f.svc.SetActive(context.Background(), adminID, person.ID, false, "left the company")
	if err != nil {
		t.Fatalf("SetActive() error = %v", err)
	}

	if f.personRepo.persons[person.ID].IsActive {
		t.Error("person should be inactive in the durable store")
	}
	if len(f.gallery.invalidatedIDs) != 1 || f.gallery.invalidatedIDs[0] != person.ID {
		t.Errorf("invalidated = %v, want the person evicted from the gallery", f.gallery.invalidatedIDs)
	}
	if len(f.auth.revokedAll) != 1 || f.auth.revokedAll[0] != person.ID {
		t.Errorf("revokedAll = %v, want the person's sessions revoked", f.auth.revokedAll)
	}
	if len(f.auth.revokedBy) != 1 || f.auth.revokedBy[0] != adminID {
		t.Errorf("revokedBy = %v, want the admin recorded as the actor", f.auth.revokedBy)
	}

	if f.auditRepo.lastAction() != models.AuditPersonDeactivated {
		t.Fatalf("audit action = %s, want person_deactivated", f.auditRepo.lastAction())
	}
	if details := f.lastAuditDetails(t); details.Reason != "left the company" {
		t.Errorf("audited reason = %q, want the given reason", details.Reason)
	}
}

func TestSetActive_ReactivationRestoresGalleryEntry(t *testing.T) {
	f := newPersonFixture(nil)
	person := f.personRepo.add(&models.Person{Name: "Alice", Email: "alice@example.com", IsActive: false})
	f.descriptorRepo.descriptors = []models.FaceDescriptor{
		{ID: uuid.New(), PersonID: person.ID},
		{ID: uuid.New(), PersonID: person.ID},
	}

	err := f.svc.SetActive(context.Background(), uuid.New(), person.ID, true, "")
	if err != nil {
		t.Fatalf("SetActive() error = %v", err)
	}

	if !f.personRepo.persons[person.ID].IsActive {
		t.Error("person should be active in the durable store")
	}
	entry, ok := f.gallery.gallery[person.ID]
	if !ok {
		t.Fatal("reactivation should restore the gallery entry")
	}
	if len(entry.Descriptors) != 2 {
		t.Errorf("gallery descriptors = %d, want both back", len(entry.Descriptors))
	}
	if len(f.auth.revokedAll) != 0 {
		t.Error("reactivation must not revoke sessions")
	}
	if f.auditRepo.lastAction() != models.AuditPersonReactivated {
		t.Errorf("audit action = %s, want person_reactivated", f.auditRepo.lastAction())
	}
}

func TestSetActive_NoopWhenUnchanged(t *testing.T) {
	f := newPersonFixture(nil)
	person := f.personRepo.add(&models.Person{Name: "Alice", Email: "alice@example.com", IsActive: true})

	if err := f.svc.SetActive(context.Background(), uuid.New(), person.ID, true, ""); err != nil {
		t.Fatalf("SetActive() error = %v", err)
	}

	if len(f.auditRepo.entries) != 0 {
		t.Error("an unchanged flag should not be audited")
	}
	if len(f.auth.revokedAll) != 0 {
		t.Error("an unchanged flag should not touch sessions")
	}
}

func TestSetActive_UnknownPerson(t *testing.T) {
	f := newPersonFixture(nil)

	err := f.svc.SetActive(context.Background(), uuid.New(), uuid.New(), false, "")
	if !errors.Is(err, services.ErrPersonNotFound) {
		t.Errorf("SetActive() error = %v, want ErrPersonNotFound", err)
	}
}
