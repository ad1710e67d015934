package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/tutoring-portal/internal/api/dto"
	"github.com/spec-kit/tutoring-portal/internal/auth"
	"github.com/spec-kit/tutoring-portal/internal/domain"
	"github.com/spec-kit/tutoring-portal/internal/service"
	apperrors "github.com/spec-kit/tutoring-portal/pkg/util/errorutil"
)

// AdminHandler exposes catalog administration.
type AdminHandler struct {
	catalog  *service.CatalogService
	validate *validator.Validate
}

// NewAdminHandler constructs handler.
func NewAdminHandler(catalog *service.CatalogService) *AdminHandler {
	return &AdminHandler{catalog: catalog, validate: newFormValidator()}
}

// Overview GET /admin/.
func (h *AdminHandler) Overview(c *fiber.Ctx) error {
	if !auth.IsSuperuser(auth.PrincipalFromContext(c)) {
		return apperrors.NewForbidden()
	}
	kinds := make([]dto.EntityKindResponse, 0, len(domain.EntityKinds)+1)
	for _, kind := range domain.EntityKinds {
		kinds = append(kinds, dto.EntityKindResponse{Kind: string(kind), Title: kind.Title()})
	}
	kinds = append(kinds, dto.EntityKindResponse{Kind: "tutors", Title: "Tutors"})
	return c.JSON(fiber.Map{"data": kinds})
}

func (h *AdminHandler) kind(c *fiber.Ctx) (domain.EntityKind, error) {
	kind, err := domain.ParseEntityKind(c.Params("kind"))
	if err != nil {
		return "", apperrors.NewNotFound("page", nil)
	}
	return kind, nil
}

// List GET /admin/:kind/.
func (h *AdminHandler) List(c *fiber.Ctx) error {
	principal := auth.PrincipalFromContext(c)
	if !auth.IsSuperuser(principal) {
		return apperrors.NewForbidden()
	}
	kind, err := h.kind(c)
	if err != nil {
		return err
	}
	rows, err := h.catalog.List(c.UserContext(), principal, kind)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": catalogResponse(rows)})
}

// Get GET /admin/:kind/:id.
func (h *AdminHandler) Get(c *fiber.Ctx) error {
	principal := auth.PrincipalFromContext(c)
	if !auth.IsSuperuser(principal) {
		return apperrors.NewForbidden()
	}
	kind, err := h.kind(c)
	if err != nil {
		return err
	}
	id, err := parseIDParam(c, "id")
	if err != nil {
		return err
	}
	row, err := h.catalog.Get(c.UserContext(), principal, kind, id)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": catalogResponse(row)})
}

// Save POST /admin/:kind/ creates, updates or, with action=delete, removes a
// row.
func (h *AdminHandler) Save(c *fiber.Ctx) error {
	principal := auth.PrincipalFromContext(c)
	if !auth.IsSuperuser(principal) {
		return apperrors.NewForbidden()
	}
	kind, err := h.kind(c)
	if err != nil {
		return err
	}
	var req dto.CatalogRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if err := h.validate.Struct(req); err != nil {
		return apperrors.NewValidationError("invalid payload", validationDetails(err))
	}

	if strings.EqualFold(req.Action, "delete") {
		if err := h.catalog.Delete(c.UserContext(), principal, kind, req.ID); err != nil {
			return err
		}
		return c.SendStatus(http.StatusNoContent)
	}

	input := service.CatalogInput{
		ID:          req.ID,
		Year:        req.Year,
		Season:      req.Season,
		StartDate:   req.StartDate,
		EndDate:     req.EndDate,
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		Number:      req.Number,
		Name:        req.Name,
		OnDisplay:   parseCheckbox(req.OnDisplay),
		Time:        req.Time,
		CourseID:    req.CourseID,
		SemesterID:  req.SemesterID,
		Description: req.Description,
	}
	if raw := strings.TrimSpace(req.ProfessorID); raw != "" {
		professorID, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return apperrors.NewValidationError("invalid payload", map[string]any{"professor_id": "number"})
		}
		input.ProfessorID = &professorID
	}

	row, err := h.catalog.Save(c.UserContext(), principal, kind, input)
	if err != nil {
		return err
	}
	status := http.StatusOK
	if req.ID == 0 {
		status = http.StatusCreated
	}
	return c.Status(status).JSON(fiber.Map{"data": catalogResponse(row)})
}
