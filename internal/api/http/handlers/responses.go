package handlers

import (
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/tutoring-portal/internal/api/dto"
	"github.com/spec-kit/tutoring-portal/internal/auth"
	"github.com/spec-kit/tutoring-portal/internal/domain"
	"github.com/spec-kit/tutoring-portal/internal/service"
	apperrors "github.com/spec-kit/tutoring-portal/pkg/util/errorutil"
)

const dateLayout = "2006-01-02"

func parseIDParam(c *fiber.Ctx, name string) (int64, error) {
	id, err := strconv.ParseInt(c.Params(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, apperrors.NewValidationError("invalid id", map[string]any{name: c.Params(name)})
	}
	return id, nil
}

// parseCheckbox accepts the values browsers and API clients send for a
// ticked box.
func parseCheckbox(raw string) bool {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "on", "true", "1", "yes", "y":
		return true
	}
	return false
}

func currentUser(p auth.Principal) *dto.TutorResponse {
	if !auth.IsAuthenticated(p) {
		return nil
	}
	resp := tutorResponse(p.Tutor)
	return &resp
}

func ticketResponse(ticket *domain.Ticket) dto.TicketResponse {
	return dto.TicketResponse{
		ID:            ticket.ID,
		StudentEmail:  ticket.StudentEmail,
		StudentFirst:  ticket.StudentFirst,
		StudentLast:   ticket.StudentLast,
		SectionID:     ticket.SectionID,
		ProblemTypeID: ticket.ProblemTypeID,
		Assignment:    ticket.Assignment,
		Question:      ticket.Question,
		Status:        ticket.Status,
		ClaimedBy:     ticket.ClaimedBy,
		TimeCreated:   ticket.TimeCreated,
	}
}

func ticketResponses(tickets []domain.Ticket) []dto.TicketResponse {
	items := make([]dto.TicketResponse, 0, len(tickets))
	for i := range tickets {
		items = append(items, ticketResponse(&tickets[i]))
	}
	return items
}

func historyResponses(entries []domain.TicketHistory) []dto.HistoryEntryResponse {
	resp := make([]dto.HistoryEntryResponse, 0, len(entries))
	for _, entry := range entries {
		resp = append(resp, dto.HistoryEntryResponse{
			ID:        entry.ID,
			TicketID:  entry.TicketID,
			ChangedBy: entry.ChangedBy,
			OldStatus: entry.OldStatus,
			NewStatus: entry.NewStatus,
			CreatedAt: entry.CreatedAt,
		})
	}
	return resp
}

func availabilityResponses(rows []service.CourseAvailability) []dto.AvailabilityResponse {
	resp := make([]dto.AvailabilityResponse, 0, len(rows))
	for i := range rows {
		resp = append(resp, dto.AvailabilityResponse{
			Course:  courseResponse(&rows[i].Course),
			Tickets: rows[i].Tickets,
			Tutors:  rows[i].Tutors,
		})
	}
	return resp
}

func tutorResponse(tutor *domain.Tutor) dto.TutorResponse {
	courseIDs := tutor.CourseIDs
	if courseIDs == nil {
		courseIDs = []int64{}
	}
	return dto.TutorResponse{
		Email:       tutor.Email,
		FirstName:   tutor.FirstName,
		LastName:    tutor.LastName,
		IsActive:    tutor.IsActive,
		IsSuperuser: tutor.IsSuperuser,
		CourseIDs:   courseIDs,
	}
}

func semesterResponse(sem *domain.Semester) dto.SemesterResponse {
	return dto.SemesterResponse{
		ID:        sem.ID,
		Year:      sem.Year,
		Season:    string(sem.Season),
		Title:     sem.Title(),
		StartDate: sem.StartDate.Format(dateLayout),
		EndDate:   sem.EndDate.Format(dateLayout),
	}
}

func professorResponse(prof *domain.Professor) dto.ProfessorResponse {
	return dto.ProfessorResponse{ID: prof.ID, FirstName: prof.FirstName, LastName: prof.LastName}
}

func courseResponse(course *domain.Course) dto.CourseResponse {
	return dto.CourseResponse{ID: course.ID, Number: course.Number, Name: course.Name, OnDisplay: course.OnDisplay}
}

func sectionResponse(sec *domain.Section) dto.SectionResponse {
	return dto.SectionResponse{
		ID:          sec.ID,
		Number:      sec.Number,
		Time:        sec.Time,
		CourseID:    sec.CourseID,
		SemesterID:  sec.SemesterID,
		ProfessorID: sec.ProfessorID,
	}
}

func problemTypeResponse(pt *domain.ProblemType) dto.ProblemTypeResponse {
	return dto.ProblemTypeResponse{ID: pt.ID, Description: pt.Description}
}

// catalogResponse maps whatever the catalog service returned for a kind.
func catalogResponse(entity any) any {
	switch v := entity.(type) {
	case *domain.Semester:
		return semesterResponse(v)
	case *domain.Professor:
		return professorResponse(v)
	case *domain.Course:
		return courseResponse(v)
	case *domain.Section:
		return sectionResponse(v)
	case *domain.ProblemType:
		return problemTypeResponse(v)
	case []domain.Semester:
		return mapAll(v, semesterResponse)
	case []domain.Professor:
		return mapAll(v, professorResponse)
	case []domain.Course:
		return mapAll(v, courseResponse)
	case []domain.Section:
		return mapAll(v, sectionResponse)
	case []domain.ProblemType:
		return mapAll(v, problemTypeResponse)
	}
	return entity
}

func mapAll[T, R any](items []T, fn func(*T) R) []R {
	out := make([]R, 0, len(items))
	for i := range items {
		out = append(out, fn(&items[i]))
	}
	return out
}
