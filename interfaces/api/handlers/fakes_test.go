package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"faceclock/domain/models"
	"faceclock/domain/services"
	"faceclock/interfaces/api/middleware"
	"faceclock/pkg/utils"
)

// newTestApp builds a fiber app configured like the real server so
// handler failures flow through the central error mapping.
func newTestApp() *fiber.App {
	return fiber.New(fiber.Config{
		ErrorHandler: middleware.ErrorHandler(),
		BodyLimit:    64 * 1024 * 1024,
	})
}

// asPrincipal injects an authenticated admin into the request context the
// way the auth middleware would.
func asPrincipal(id uuid.UUID) fiber.Handler {
	return func(c *fiber.Ctx) error {
		c.Locals("person", &utils.PersonContext{
			ID:        id,
			SessionID: uuid.New(),
			Name:      "Admin",
			Role:      "admin",
		})
		return c.Next()
	}
}

type formFile struct {
	field       string
	name        string
	contentType string
	data        []byte
}

// multipartBody assembles a multipart form from text fields and files.
// File parts carry an explicit Content-Type header, which is what the
// upload guards inspect.
func multipartBody(t *testing.T, fields map[string]string, files ...formFile) (*bytes.Buffer, string) {
	t.Helper()

	buf := &bytes.Buffer{}
	w := multipart.NewWriter(buf)
	for k, v := range fields {
		if err := w.WriteField(k, v); err != nil {
			t.Fatalf("WriteField(%s) error = %v", k, err)
		}
	}
	for _, f := range files {
		header := make(textproto.MIMEHeader)
		header.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, f.field, f.name))
		header.Set("Content-Type", f.contentType)
		part, err := w.CreatePart(header)
		if err != nil {
			t.Fatalf("CreatePart(%s) error = %v", f.field, err)
		}
		if _, err := part.Write(f.data); err != nil {
			t.Fatalf("write part %s: %v", f.field, err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close multipart writer: %v", err)
	}
	return buf, w.FormDataContentType()
}

func decodeEnvelope(t *testing.T, resp *http.Response) utils.Response {
	t.Helper()

	var envelope utils.Response
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response body: %v", err)
	}
	return envelope
}

// fakeAttendanceService records every request that reaches the service
// layer so tests can assert a rejected upload never got this far.
type fakeAttendanceService struct {
	checks []services.CheckRequest
	result *services.CheckResult
	err    error
}

func (f *fakeAttendanceService) Check(ctx context.Context, req services.CheckRequest) (*services.CheckResult, error) {
	f.checks = append(f.checks, req)
	if f.err != nil {
		return nil, f.err
	}
	if f.result != nil {
		return f.result, nil
	}
	event := &models.AttendanceEvent{
		ID:         uuid.New(),
		PersonID:   uuid.New(),
		Type:       models.EventEntry,
		Timestamp:  time.Now(),
		Confidence: 0.9,
	}
	return &services.CheckResult{
		Event: event,
		Match: &services.MatchResult{PersonID: event.PersonID, PersonName: "Alice", Distance: 0.1, Confidence: 0.9},
	}, nil
}

func (f *fakeAttendanceService) DetermineNextType(ctx context.Context, personID uuid.UUID, now time.Time) (models.EventType, error) {
	return models.EventEntry, nil
}

func (f *fakeAttendanceService) GetHistory(ctx context.Context, personID uuid.UUID, from, to time.Time, page, limit int) ([]models.AttendanceEvent, int64, error) {
	return nil, 0, nil
}

func (f *fakeAttendanceService) GetToday(ctx context.Context, personID uuid.UUID) (*services.TodayStatus, error) {
	return &services.TodayStatus{PersonID: personID, NextType: models.EventEntry}, nil
}

func (f *fakeAttendanceService) List(ctx context.Context, from, to time.Time, page, limit int) ([]models.AttendanceEvent, int64, error) {
	return nil, 0, nil
}

func (f *fakeAttendanceService) Correct(ctx context.Context, actorID, eventID uuid.UUID, newType models.EventType, reason string) (*models.AttendanceEvent, error) {
	return nil, services.ErrEventNotFound
}

type fakeRecognitionService struct {
	identified [][]byte
}

func (f *fakeRecognitionService) Identify(ctx context.Context, descriptor []float32) (*services.MatchResult, error) {
	return nil, services.ErrNoMatch
}

func (f *fakeRecognitionService) IdentifyImage(ctx context.Context, imageData []byte, mimeType string) (*services.MatchResult, error) {
	f.identified = append(f.identified, imageData)
	return &services.MatchResult{PersonID: uuid.New(), PersonName: "Alice", Distance: 0.2, Confidence: 0.8}, nil
}

func (f *fakeRecognitionService) RebuildGallery(ctx context.Context) (int, error) { return 0, nil }

func (f *fakeRecognitionService) InvalidatePerson(ctx context.Context, personID uuid.UUID) error {
	return nil
}

type fakePersonService struct {
	registered   []services.RegisterPersonInput
	registeredBy []uuid.UUID
	added        [][]services.FaceSample
}

func (f *fakePersonService) Register(ctx context.Context, actorID uuid.UUID, input services.RegisterPersonInput) (*models.Person, error) {
	f.registeredBy = append(f.registeredBy, actorID)
	f.registered = append(f.registered, input)

	role := input.Role
	if role == "" {
		role = "standard"
	}
	return &models.Person{ID: uuid.New(), Name: input.Name, Email: input.Email, Role: role, IsActive: true}, nil
}

func (f *fakePersonService) Get(ctx context.Context, id uuid.UUID) (*models.Person, error) {
	return nil, services.ErrPersonNotFound
}

func (f *fakePersonService) List(ctx context.Context, page, limit int) ([]models.Person, int64, error) {
	return nil, 0, nil
}

func (f *fakePersonService) AddDescriptors(ctx context.Context, actorID, personID uuid.UUID, samples []services.FaceSample) (int, error) {
	f.added = append(f.added, samples)
	return len(samples), nil
}

func (f *fakePersonService) ClearDescriptors(ctx context.Context, actorID, personID uuid.UUID) (int64, error) {
	return 0, nil
}

func (f *fakePersonService) SetActive(ctx context.Context, actorID, personID uuid.UUID, active bool, reason string) error {
	return nil
}
