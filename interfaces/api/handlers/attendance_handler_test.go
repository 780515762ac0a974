package handlers

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
)

func newCheckApp(svc *fakeAttendanceService, recog *fakeRecognitionService) *fiber.App {
	app := newTestApp()
	h := NewAttendanceHandler(svc, recog)
	app.Post("/attendance/check", h.Check)
	app.Post("/recognize", h.Recognize)
	return app
}

func postMultipart(t *testing.T, app *fiber.App, path string, body *bytes.Buffer, contentType string) *http.Response {
	t.Helper()

	req := httptest.NewRequest(fiber.MethodPost, path, body)
	req.Header.Set("Content-Type", contentType)
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("app.Test() error = %v", err)
	}
	return resp
}

func TestCheck_MissingImageFieldRejected(t *testing.T) {
	svc := &fakeAttendanceService{}
	app := newCheckApp(svc, &fakeRecognitionService{})

	body, contentType := multipartBody(t, map[string]string{"latitude": "13.75"})
	resp := postMultipart(t, app, "/attendance/check", body, contentType)

	if resp.StatusCode != fiber.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}
	if len(svc.checks) != 0 {
		t.Errorf("service invoked %d times, want rejection before the service layer", len(svc.checks))
	}

	envelope := decodeEnvelope(t, resp)
	if envelope.Success {
		t.Error("envelope reports success on a rejected upload")
	}
	if envelope.Message != "Image file is required" {
		t.Errorf("message = %q, want the missing-image message", envelope.Message)
	}
}

func TestCheck_RejectsNonImageUpload(t *testing.T) {
	svc := &fakeAttendanceService{}
	app := newCheckApp(svc, &fakeRecognitionService{})

	body, contentType := multipartBody(t, nil, formFile{
		field:       "image",
		name:        "notes.txt",
		contentType: "text/plain",
		data:        []byte("not an image"),
	})
	resp := postMultipart(t, app, "/attendance/check", body, contentType)

	if resp.StatusCode != fiber.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}
	if len(svc.checks) != 0 {
		t.Errorf("service invoked %d times on an unsupported content type", len(svc.checks))
	}
}

func TestCheck_OversizedImageRejected(t *testing.T) {
	svc := &fakeAttendanceService{}
	app := newCheckApp(svc, &fakeRecognitionService{})

	body, contentType := multipartBody(t, nil, formFile{
		field:       "image",
		name:        "big.jpg",
		contentType: "image/jpeg",
		data:        bytes.Repeat([]byte{0xff}, 10*1024*1024+1),
	})
	resp := postMultipart(t, app, "/attendance/check", body, contentType)

	if resp.StatusCode != fiber.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}
	if len(svc.checks) != 0 {
		t.Errorf("service invoked %d times on an oversized upload", len(svc.checks))
	}
}

func TestCheck_PassesUploadThrough(t *testing.T) {
	svc := &fakeAttendanceService{}
	app := newCheckApp(svc, &fakeRecognitionService{})

	image := []byte{0xff, 0xd8, 0xff, 0xe0, 0x00, 0x10}
	body, contentType := multipartBody(t, map[string]string{"latitude": "13.75", "longitude": "100.5"}, formFile{
		field:       "image",
		name:        "face.jpg",
		contentType: "image/jpeg",
		data:        image,
	})
	resp := postMultipart(t, app, "/attendance/check", body, contentType)

	if resp.StatusCode != fiber.StatusCreated {
		t.Fatalf("status = %d, want 201", resp.StatusCode)
	}
	if len(svc.checks) != 1 {
		t.Fatalf("service invoked %d times, want 1", len(svc.checks))
	}

	req := svc.checks[0]
	if !bytes.Equal(req.ImageData, image) {
		t.Error("image bytes did not reach the service intact")
	}
	if req.MimeType != "image/jpeg" {
		t.Errorf("mime = %q, want image/jpeg", req.MimeType)
	}
	if req.Latitude == nil || *req.Latitude != 13.75 {
		t.Errorf("latitude = %v, want 13.75", req.Latitude)
	}
	if req.Longitude == nil || *req.Longitude != 100.5 {
		t.Errorf("longitude = %v, want 100.5", req.Longitude)
	}

	envelope := decodeEnvelope(t, resp)
	if !envelope.Success {
		t.Errorf("envelope success = false, message %q", envelope.Message)
	}
}

func TestRecognize_MissingImageFieldRejected(t *testing.T) {
	recog := &fakeRecognitionService{}
	app := newCheckApp(&fakeAttendanceService{}, recog)

	body, contentType := multipartBody(t, nil)
	resp := postMultipart(t, app, "/recognize", body, contentType)

	if resp.StatusCode != fiber.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}
	if len(recog.identified) != 0 {
		t.Errorf("recognition invoked %d times, want rejection before the service layer", len(recog.identified))
	}
}
