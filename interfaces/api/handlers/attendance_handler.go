package handlers

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"faceclock/domain/dto"
	"faceclock/domain/models"
	"faceclock/domain/services"
	"faceclock/pkg/utils"
)

type AttendanceHandler struct {
	attendanceService  services.AttendanceService
	recognitionService services.RecognitionService
}

func NewAttendanceHandler(attendanceService services.AttendanceService, recognitionService services.RecognitionService) *AttendanceHandler {
	return &AttendanceHandler{
		attendanceService:  attendanceService,
		recognitionService: recognitionService,
	}
}

// Check records an attendance event from an uploaded face image. The face
// is the credential here; the kiosk posting the image carries no session.
func (h *AttendanceHandler) Check(c *fiber.Ctx) error {
	imageData, contentType, err := readImageFile(c, "image")
	if err != nil {
		return err
	}

	req := services.CheckRequest{
		ImageData: imageData,
		MimeType:  contentType,
		Latitude:  formFloat(c, "latitude"),
		Longitude: formFloat(c, "longitude"),
	}

	result, err := h.attendanceService.Check(c.Context(), req)
	if err != nil {
		return err
	}

	return utils.CreatedResponse(c, "Attendance recorded", dto.CheckResponse{
		Event:      *dto.EventToResponse(result.Event),
		Confidence: result.Match.Confidence,
		Distance:   result.Match.Distance,
	})
}

// Recognize identifies the face in an uploaded image without recording an
// event. Meant for enrollment verification and kiosk diagnostics.
func (h *AttendanceHandler) Recognize(c *fiber.Ctx) error {
	imageData, contentType, err := readImageFile(c, "image")
	if err != nil {
		return err
	}

	match, err := h.recognitionService.IdentifyImage(c.Context(), imageData, contentType)
	if err != nil {
		return err
	}

	return utils.SuccessResponse(c, "Face recognized", dto.IdentifyResponse{
		PersonID:   match.PersonID,
		PersonName: match.PersonName,
		Distance:   match.Distance,
		Confidence: match.Confidence,
	})
}

// Me lists the caller's own attendance history
func (h *AttendanceHandler) Me(c *fiber.Ctx) error {
	person, err := utils.GetPersonFromContext(c)
	if err != nil {
		return utils.UnauthorizedResponse(c, "Not authenticated")
	}

	from, to, err := rangeFromQuery(c)
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid date range", err)
	}
	page := c.QueryInt("page", 1)
	limit := c.QueryInt("limit", 50)

	events, total, err := h.attendanceService.GetHistory(c.Context(), person.ID, from, to, page, limit)
	if err != nil {
		return err
	}

	return utils.SuccessResponse(c, "History retrieved", dto.EventsToListResponse(events, total, page, limit))
}

// Today returns the caller's last event today and the next expected type
func (h *AttendanceHandler) Today(c *fiber.Ctx) error {
	person, err := utils.GetPersonFromContext(c)
	if err != nil {
		return utils.UnauthorizedResponse(c, "Not authenticated")
	}

	status, err := h.attendanceService.GetToday(c.Context(), person.ID)
	if err != nil {
		return err
	}

	return utils.SuccessResponse(c, "Today status retrieved", dto.TodayResponse{
		PersonID:  status.PersonID,
		LastEvent: dto.EventToResponse(status.LastEvent),
		NextType:  string(status.NextType),
	})
}

// List lists events across all persons (admin)
func (h *AttendanceHandler) List(c *fiber.Ctx) error {
	from, to, err := rangeFromQuery(c)
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid date range", err)
	}
	page := c.QueryInt("page", 1)
	limit := c.QueryInt("limit", 50)

	events, total, err := h.attendanceService.List(c.Context(), from, to, page, limit)
	if err != nil {
		return err
	}

	return utils.SuccessResponse(c, "Events retrieved", dto.EventsToListResponse(events, total, page, limit))
}

// Correct rewrites an event's type on behalf of an admin
func (h *AttendanceHandler) Correct(c *fiber.Ctx) error {
	actor, err := utils.GetPersonFromContext(c)
	if err != nil {
		return utils.UnauthorizedResponse(c, "Not authenticated")
	}

	eventID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid event ID", err)
	}

	var req dto.CorrectEventRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", err)
	}
	if err := utils.ValidateStruct(req); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", err)
	}

	event, err := h.attendanceService.Correct(c.Context(), actor.ID, eventID, models.EventType(req.Type), req.Reason)
	if err != nil {
		return err
	}

	return utils.SuccessResponse(c, "Event corrected", dto.EventToResponse(event))
}

// readImageFile pulls one uploaded image out of the multipart form and
// enforces the size and content-type limits. Failures come back as
// *fiber.Error so the central error handler writes the response; the
// helper itself never touches the context output.
func readImageFile(c *fiber.Ctx, field string) ([]byte, string, error) {
	file, err := c.FormFile(field)
	if err != nil {
		return nil, "", fiber.NewError(fiber.StatusBadRequest, "Image file is required")
	}
	return readFormFile(file)
}

func isValidImageType(contentType string) bool {
	validTypes := []string{
		"image/jpeg",
		"image/png",
		"image/webp",
	}
	for _, t := range validTypes {
		if contentType == t {
			return true
		}
	}
	return false
}

func formFloat(c *fiber.Ctx, field string) *float64 {
	raw := c.FormValue(field)
	if raw == "" {
		return nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil
	}
	return &v
}

// rangeFromQuery parses optional from/to query bounds. Date-only values
// cover the whole day; zero times mean unbounded.
func rangeFromQuery(c *fiber.Ctx) (time.Time, time.Time, error) {
	var from, to time.Time
	var err error

	if raw := c.Query("from"); raw != "" {
		from, err = parseTimeParam(raw, false)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
	}
	if raw := c.Query("to"); raw != "" {
		to, err = parseTimeParam(raw, true)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
	}
	return from, to, nil
}

func parseTimeParam(raw string, endOfDay bool) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, nil
	}
	t, err := time.ParseInLocation("2006-01-02", raw, time.Local)
	if err != nil {
		return time.Time{}, err
	}
	if endOfDay {
		t = t.AddDate(0, 0, 1)
	}
	return t, nil
}
