package handlers

import (
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/tutoring-portal/internal/api/dto"
	"github.com/spec-kit/tutoring-portal/internal/auth"
	"github.com/spec-kit/tutoring-portal/internal/service"
	apperrors "github.com/spec-kit/tutoring-portal/pkg/util/errorutil"
)

// TutorsHandler exposes the tutor roster.
type TutorsHandler struct {
	tutors *service.TutorService
}

// NewTutorsHandler constructs handler.
func NewTutorsHandler(tutors *service.TutorService) *TutorsHandler {
	return &TutorsHandler{tutors: tutors}
}

// List GET /admin/tutors/.
func (h *TutorsHandler) List(c *fiber.Ctx) error {
	tutors, err := h.tutors.List(c.UserContext(), auth.PrincipalFromContext(c))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": mapAll(tutors, tutorResponse)})
}

// Get GET /admin/tutors/:email.
func (h *TutorsHandler) Get(c *fiber.Ctx) error {
	tutor, err := h.tutors.Get(c.UserContext(), auth.PrincipalFromContext(c), c.Params("email"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": tutorResponse(tutor)})
}

// Save POST /admin/tutors/ creates or updates a profile, or deletes it with
// action=delete.
func (h *TutorsHandler) Save(c *fiber.Ctx) error {
	principal := auth.PrincipalFromContext(c)
	if !auth.IsAuthenticated(principal) {
		return apperrors.NewForbidden()
	}
	var req dto.TutorRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	if strings.EqualFold(req.Action, "delete") {
		if err := h.tutors.Delete(c.UserContext(), principal, req.Email); err != nil {
			return err
		}
		return c.SendStatus(http.StatusNoContent)
	}

	tutor, err := h.tutors.Save(c.UserContext(), principal, service.TutorInput{
		Email:       req.Email,
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		IsActive:    parseCheckbox(req.IsActive),
		IsSuperuser: parseCheckbox(req.IsSuperuser),
		CourseIDs:   req.CourseIDs,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": tutorResponse(tutor)})
}
