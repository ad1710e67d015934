package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/tutoring-portal/internal/api/dto"
	"github.com/spec-kit/tutoring-portal/internal/auth"
	"github.com/spec-kit/tutoring-portal/internal/service"
)

// StatusHandler serves course availability.
type StatusHandler struct {
	availability *service.AvailabilityService
	tickets      *service.TicketService
}

// NewStatusHandler constructs handler.
func NewStatusHandler(availability *service.AvailabilityService, tickets *service.TicketService) *StatusHandler {
	return &StatusHandler{availability: availability, tickets: tickets}
}

// AvailabilityFeed GET /availability.json.
func (h *StatusHandler) AvailabilityFeed(c *fiber.Ctx) error {
	rows, err := h.availability.Summary(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(dto.FeedResponse[dto.AvailabilityResponse]{D: availabilityResponses(rows)})
}

// Status GET /status.html. Tutors also see the open tickets.
func (h *StatusHandler) Status(c *fiber.Ctx) error {
	principal := auth.PrincipalFromContext(c)
	rows, err := h.availability.Summary(c.UserContext())
	if err != nil {
		return err
	}
	resp := dto.StatusResponse{
		User:         currentUser(principal),
		Availability: availabilityResponses(rows),
	}
	if auth.IsAuthenticated(principal) {
		pending, err := h.tickets.Pending(c.UserContext(), principal)
		if err != nil {
			return err
		}
		resp.Pending = ticketResponses(pending)
	}
	return c.JSON(fiber.Map{"data": resp})
}
