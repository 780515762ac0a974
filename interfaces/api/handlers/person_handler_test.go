package handlers

import (
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

func newPersonApp(svc *fakePersonService, actorID uuid.UUID) *fiber.App {
	app := newTestApp()
	h := NewPersonHandler(svc)
	persons := app.Group("/persons", asPrincipal(actorID))
	persons.Post("/", h.Register)
	persons.Post("/:id/faces", h.AddFaces)
	return app
}

func TestRegister_NonMultipartBodyRejected(t *testing.T) {
	svc := &fakePersonService{}
	app := newPersonApp(svc, uuid.New())

	req := httptest.NewRequest(fiber.MethodPost, "/persons", strings.NewReader(`{"name":"Alice","email":"alice@example.com"}`))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("app.Test() error = %v", err)
	}

	if resp.StatusCode != fiber.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}
	if len(svc.registered) != 0 {
		t.Errorf("service invoked %d times, want rejection before the service layer", len(svc.registered))
	}

	envelope := decodeEnvelope(t, resp)
	if envelope.Message != "Multipart form is required" {
		t.Errorf("message = %q, want the multipart-form message", envelope.Message)
	}
}

func TestRegister_BadSampleTypeRejected(t *testing.T) {
	svc := &fakePersonService{}
	app := newPersonApp(svc, uuid.New())

	fields := map[string]string{"name": "Alice", "email": "alice@example.com", "password": "supersecret"}
	body, contentType := multipartBody(t, fields, formFile{
		field:       "samples",
		name:        "sample.pdf",
		contentType: "application/pdf",
		data:        []byte("%PDF-1.4"),
	})
	resp := postMultipart(t, app, "/persons", body, contentType)

	if resp.StatusCode != fiber.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}
	if len(svc.registered) != 0 {
		t.Errorf("service invoked %d times on a bad sample type", len(svc.registered))
	}

	envelope := decodeEnvelope(t, resp)
	if !strings.Contains(envelope.Message, "Invalid image type") {
		t.Errorf("message = %q, want the image-type message", envelope.Message)
	}
}

func TestRegister_PassesSamplesThrough(t *testing.T) {
	svc := &fakePersonService{}
	actorID := uuid.New()
	app := newPersonApp(svc, actorID)

	fields := map[string]string{"name": "Alice", "email": "alice@example.com", "password": "supersecret"}
	jpeg := []byte{0xff, 0xd8, 0xff}
	body, contentType := multipartBody(t, fields,
		formFile{field: "samples", name: "one.jpg", contentType: "image/jpeg", data: jpeg},
		formFile{field: "samples", name: "two.png", contentType: "image/png", data: []byte{0x89, 0x50, 0x4e, 0x47}},
	)
	resp := postMultipart(t, app, "/persons", body, contentType)

	if resp.StatusCode != fiber.StatusCreated {
		t.Fatalf("status = %d, want 201", resp.StatusCode)
	}
	if len(svc.registered) != 1 {
		t.Fatalf("service invoked %d times, want 1", len(svc.registered))
	}

	input := svc.registered[0]
	if input.Name != "Alice" || input.Email != "alice@example.com" {
		t.Errorf("input = %+v, want the form fields", input)
	}
	if len(input.Samples) != 2 {
		t.Fatalf("samples = %d, want 2", len(input.Samples))
	}
	if input.Samples[0].MimeType != "image/jpeg" || input.Samples[1].MimeType != "image/png" {
		t.Errorf("sample mimes = %s, %s", input.Samples[0].MimeType, input.Samples[1].MimeType)
	}
	if svc.registeredBy[0] != actorID {
		t.Errorf("actor = %s, want the authenticated admin", svc.registeredBy[0])
	}
}

func TestAddFaces_BadSampleTypeRejected(t *testing.T) {
	svc := &fakePersonService{}
	app := newPersonApp(svc, uuid.New())

	body, contentType := multipartBody(t, nil, formFile{
		field:       "samples",
		name:        "sample.gif",
		contentType: "image/gif",
		data:        []byte("GIF89a"),
	})
	resp := postMultipart(t, app, "/persons/"+uuid.NewString()+"/faces", body, contentType)

	if resp.StatusCode != fiber.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}
	if len(svc.added) != 0 {
		t.Errorf("service invoked %d times on a bad sample type", len(svc.added))
	}
}
