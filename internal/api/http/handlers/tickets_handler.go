package handlers

import (
	"context"
	"errors"
	"net/http"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/tutoring-portal/internal/api/dto"
	"github.com/spec-kit/tutoring-portal/internal/auth"
	"github.com/spec-kit/tutoring-portal/internal/domain"
	"github.com/spec-kit/tutoring-portal/internal/service"
	"github.com/spec-kit/tutoring-portal/internal/session"
	apperrors "github.com/spec-kit/tutoring-portal/pkg/util/errorutil"
)

// TicketOpenedFlash is shown on the landing page after a submission.
const TicketOpenedFlash = "Ticket successfully opened"

// TicketsHandler serves the student form and the tutor queue.
type TicketsHandler struct {
	tickets  *service.TicketService
	catalog  *service.CatalogService
	validate *validator.Validate
}

// NewTicketsHandler constructs handler.
func NewTicketsHandler(tickets *service.TicketService, catalog *service.CatalogService) *TicketsHandler {
	return &TicketsHandler{tickets: tickets, catalog: catalog, validate: newFormValidator()}
}

// newFormValidator reports field errors under their form names.
func newFormValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("form"), ",", 2)[0]
		if name == "" || name == "-" {
			return field.Name
		}
		return name
	})
	return v
}

func validationDetails(err error) map[string]any {
	details := map[string]any{}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		for _, fe := range verrs {
			details[fe.Field()] = fe.Tag()
		}
	}
	return details
}

// Index GET /.
func (h *TicketsHandler) Index(c *fiber.Ctx) error {
	flashes := session.FromContext(c).PopFlashes()
	if flashes == nil {
		flashes = []string{}
	}
	return c.JSON(fiber.Map{"data": dto.HomeResponse{
		User:    currentUser(auth.PrincipalFromContext(c)),
		Flashes: flashes,
	}})
}

// OpenTicketForm GET /open_ticket/.
func (h *TicketsHandler) OpenTicketForm(c *fiber.Ctx) error {
	offerings, err := h.catalog.Offerings(c.UserContext())
	if err != nil {
		return err
	}
	resp := dto.OpenTicketFormResponse{
		Courses:      make([]dto.CourseOfferingResponse, 0, len(offerings.Courses)),
		ProblemTypes: mapAll(offerings.ProblemTypes, problemTypeResponse),
	}
	for i := range offerings.Courses {
		resp.Courses = append(resp.Courses, dto.CourseOfferingResponse{
			Course:   courseResponse(&offerings.Courses[i].Course),
			Sections: mapAll(offerings.Courses[i].Sections, sectionResponse),
		})
	}
	return c.JSON(fiber.Map{"data": resp})
}

// OpenTicket POST /open_ticket/.
func (h *TicketsHandler) OpenTicket(c *fiber.Ctx) error {
	var req dto.OpenTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if err := h.validate.Struct(req); err != nil {
		return apperrors.NewValidationError("invalid ticket", validationDetails(err))
	}
	sectionID, err := strconv.ParseInt(req.SectionID, 10, 64)
	if err != nil {
		return apperrors.NewValidationError("invalid ticket", map[string]any{"section_id": "number"})
	}
	problemTypeID, err := strconv.ParseInt(req.ProblemTypeID, 10, 64)
	if err != nil {
		return apperrors.NewValidationError("invalid ticket", map[string]any{"problem_type_id": "number"})
	}

	_, err = h.tickets.Create(c.UserContext(), service.TicketCreateInput{
		StudentEmail:  req.StudentEmail,
		StudentFirst:  req.StudentFirst,
		StudentLast:   req.StudentLast,
		SectionID:     sectionID,
		ProblemTypeID: problemTypeID,
		Assignment:    req.Assignment,
		Question:      req.Question,
	})
	if err != nil {
		return err
	}
	session.FromContext(c).Flash(TicketOpenedFlash)
	return c.Redirect("/", http.StatusSeeOther)
}

// Queue GET /tickets/.
func (h *TicketsHandler) Queue(c *fiber.Ctx) error {
	queue, err := h.tickets.Queue(c.UserContext(), auth.PrincipalFromContext(c))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.QueueResponse{
		Open:    ticketResponses(queue.Open),
		Claimed: ticketResponses(queue.Claimed),
		Closed:  ticketResponses(queue.Closed),
	}})
}

// Advance GET /tickets/close/:id claims an open ticket or closes a claimed one.
func (h *TicketsHandler) Advance(c *fiber.Ctx) error {
	return h.transition(c, h.tickets.Advance)
}

// Claim POST /tickets/:id/claim.
func (h *TicketsHandler) Claim(c *fiber.Ctx) error {
	return h.transition(c, h.tickets.Claim)
}

// Close POST /tickets/:id/close.
func (h *TicketsHandler) Close(c *fiber.Ctx) error {
	return h.transition(c, h.tickets.Close)
}

// Reopen GET /tickets/reopen/:id and POST /tickets/:id/reopen.
func (h *TicketsHandler) Reopen(c *fiber.Ctx) error {
	return h.transition(c, h.tickets.Reopen)
}

func (h *TicketsHandler) transition(c *fiber.Ctx, apply func(context.Context, auth.Principal, int64) (*domain.Ticket, error)) error {
	principal := auth.PrincipalFromContext(c)
	if !auth.IsAuthenticated(principal) {
		return apperrors.NewForbidden()
	}
	id, err := parseIDParam(c, "id")
	if err != nil {
		return err
	}
	ticket, err := apply(c.UserContext(), principal, id)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketResponse(ticket)})
}

// History GET /tickets/:id/history.
func (h *TicketsHandler) History(c *fiber.Ctx) error {
	principal := auth.PrincipalFromContext(c)
	if !auth.IsAuthenticated(principal) {
		return apperrors.NewForbidden()
	}
	id, err := parseIDParam(c, "id")
	if err != nil {
		return err
	}
	entries, err := h.tickets.History(c.UserContext(), principal, id)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": historyResponses(entries)})
}

// PendingFeed GET /tickets.json.
func (h *TicketsHandler) PendingFeed(c *fiber.Ctx) error {
	tickets, err := h.tickets.Pending(c.UserContext(), auth.PrincipalFromContext(c))
	if err != nil {
		return err
	}
	return c.JSON(dto.FeedResponse[dto.TicketResponse]{D: ticketResponses(tickets)})
}
