package handlers

import (
	"fmt"
	"io"
	"mime/multipart"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"faceclock/domain/dto"
	"faceclock/domain/services"
	"faceclock/pkg/utils"
)

type PersonHandler struct {
	personService services.PersonService
}

func NewPersonHandler(personService services.PersonService) *PersonHandler {
	return &PersonHandler{
		personService: personService,
	}
}

// Register enrolls a new person. The multipart form carries the profile
// fields plus zero or more face sample images under "samples".
func (h *PersonHandler) Register(c *fiber.Ctx) error {
	actor, err := utils.GetPersonFromContext(c)
	if err != nil {
		return utils.UnauthorizedResponse(c, "Not authenticated")
	}

	var req dto.RegisterPersonRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", err)
	}
	if err := utils.ValidateStruct(req); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", err)
	}

	samples, err := readSampleFiles(c)
	if err != nil {
		return err
	}

	person, err := h.personService.Register(c.Context(), actor.ID, services.RegisterPersonInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		Role:     req.Role,
		Samples:  samples,
	})
	if err != nil {
		return err
	}

	return utils.CreatedResponse(c, "Person registered", dto.PersonToResponse(person))
}

// List lists enrolled persons with pagination
func (h *PersonHandler) List(c *fiber.Ctx) error {
	page := c.QueryInt("page", 1)
	limit := c.QueryInt("limit", 50)

	persons, total, err := h.personService.List(c.Context(), page, limit)
	if err != nil {
		return err
	}

	return utils.SuccessResponse(c, "Persons retrieved", dto.PersonsToListResponse(persons, total, page, limit))
}

// Get returns one person by ID
func (h *PersonHandler) Get(c *fiber.Ctx) error {
	personID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid person ID", err)
	}

	person, err := h.personService.Get(c.Context(), personID)
	if err != nil {
		return err
	}

	return utils.SuccessResponse(c, "Person retrieved", dto.PersonToResponse(person))
}

// AddFaces enrolls additional face samples for an existing person
func (h *PersonHandler) AddFaces(c *fiber.Ctx) error {
	actor, err := utils.GetPersonFromContext(c)
	if err != nil {
		return utils.UnauthorizedResponse(c, "Not authenticated")
	}

	personID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid person ID", err)
	}

	samples, err := readSampleFiles(c)
	if err != nil {
		return err
	}

	added, err := h.personService.AddDescriptors(c.Context(), actor.ID, personID, samples)
	if err != nil {
		return err
	}

	return utils.SuccessResponse(c, "Face samples enrolled", fiber.Map{
		"added_descriptors": added,
	})
}

// ClearFaces removes all enrolled descriptors of a person
func (h *PersonHandler) ClearFaces(c *fiber.Ctx) error {
	actor, err := utils.GetPersonFromContext(c)
	if err != nil {
		return utils.UnauthorizedResponse(c, "Not authenticated")
	}

	personID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid person ID", err)
	}

	removed, err := h.personService.ClearDescriptors(c.Context(), actor.ID, personID)
	if err != nil {
		return err
	}

	return utils.SuccessResponse(c, "Face samples cleared", fiber.Map{
		"removed_descriptors": removed,
	})
}

// SetActive toggles a person's matching eligibility. Deactivation also
// revokes the person's sessions.
func (h *PersonHandler) SetActive(c *fiber.Ctx) error {
	actor, err := utils.GetPersonFromContext(c)
	if err != nil {
		return utils.UnauthorizedResponse(c, "Not authenticated")
	}

	personID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid person ID", err)
	}

	var req dto.SetActiveRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", err)
	}
	if err := utils.ValidateStruct(req); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", err)
	}

	if err := h.personService.SetActive(c.Context(), actor.ID, personID, req.Active, req.Reason); err != nil {
		return err
	}

	return utils.SuccessResponse(c, "Person updated", fiber.Map{
		"person_id": personID,
		"is_active": req.Active,
	})
}

// readSampleFiles collects the "samples" files from the multipart form.
// An absent field is fine; enrollment can happen later. Validation
// failures come back as *fiber.Error for the central error handler.
func readSampleFiles(c *fiber.Ctx) ([]services.FaceSample, error) {
	form, err := c.MultipartForm()
	if err != nil {
		return nil, fiber.NewError(fiber.StatusBadRequest, "Multipart form is required")
	}

	files := form.File["samples"]
	samples := make([]services.FaceSample, 0, len(files))
	for _, file := range files {
		data, contentType, err := readFormFile(file)
		if err != nil {
			return nil, err
		}
		samples = append(samples, services.FaceSample{
			ImageData: data,
			MimeType:  contentType,
		})
	}
	return samples, nil
}

func readFormFile(file *multipart.FileHeader) ([]byte, string, error) {
	// Validate file size (max 10MB)
	if file.Size > 10*1024*1024 {
		return nil, "", fiber.NewError(fiber.StatusBadRequest, "File size exceeds 10MB limit")
	}

	contentType := file.Header.Get("Content-Type")
	if !isValidImageType(contentType) {
		return nil, "", fiber.NewError(fiber.StatusBadRequest, "Invalid image type. Allowed: jpeg, png, webp")
	}

	f, err := file.Open()
	if err != nil {
		return nil, "", fmt.Errorf("open uploaded file: %w", err)
	}
	defer f.Close()

	data := make([]byte, file.Size)
	if _, err := io.ReadFull(f, data); err != nil {
		return nil, "", fmt.Errorf("read uploaded file: %w", err)
	}

	return data, contentType, nil
}
