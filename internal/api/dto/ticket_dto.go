package dto

import (
	"time"

	"github.com/spec-kit/tutoring-portal/internal/domain"
)

// OpenTicketRequest is the student submission form. The ids arrive as text so
// a malformed value is reported as a validation error instead of a decode
// failure.
type OpenTicketRequest struct {
	StudentEmail  string `form:"student_email" json:"student_email" validate:"required,email"`
	StudentFirst  string `form:"student_fname" json:"student_fname" validate:"required"`
	StudentLast   string `form:"student_lname" json:"student_lname" validate:"required"`
	SectionID     string `form:"section_id" json:"section_id" validate:"required,number"`
	ProblemTypeID string `form:"problem_type_id" json:"problem_type_id" validate:"required,number"`
	Assignment    string `form:"assignment" json:"assignment" validate:"required"`
	Question      string `form:"question" json:"question" validate:"required"`
}

// TicketResponse is a ticket as tutors see it.
type TicketResponse struct {
	ID            int64               `json:"id"`
	StudentEmail  string              `json:"student_email"`
	StudentFirst  string              `json:"student_fname"`
	StudentLast   string              `json:"student_lname"`
	SectionID     int64               `json:"section_id"`
	ProblemTypeID int64               `json:"problem_type_id"`
	Assignment    string              `json:"assignment"`
	Question      string              `json:"question"`
	Status        domain.TicketStatus `json:"status"`
	ClaimedBy     *string             `json:"claimed_by"`
	TimeCreated   time.Time           `json:"time_created"`
}

// QueueResponse partitions the tutor queue.
type QueueResponse struct {
	Open    []TicketResponse `json:"open"`
	Claimed []TicketResponse `json:"claimed"`
	Closed  []TicketResponse `json:"closed"`
}

// HistoryEntryResponse is one audit row.
type HistoryEntryResponse struct {
	ID        int64                `json:"id"`
	TicketID  int64                `json:"ticket_id"`
	ChangedBy *string              `json:"changed_by"`
	OldStatus *domain.TicketStatus `json:"old_status"`
	NewStatus domain.TicketStatus  `json:"new_status"`
	CreatedAt time.Time            `json:"created_at"`
}

// FeedResponse wraps list payloads of the JSON feeds.
type FeedResponse[T any] struct {
	D []T `json:"d"`
}

// AvailabilityResponse is one row of availability.json.
type AvailabilityResponse struct {
	Course  CourseResponse `json:"course"`
	Tickets int            `json:"tickets"`
	Tutors  int            `json:"tutors"`
}

// HomeResponse is the landing page model.
type HomeResponse struct {
	User    *TutorResponse `json:"user"`
	Flashes []string       `json:"flashes"`
}

// StatusResponse is the status page model; Pending is only filled for tutors.
type StatusResponse struct {
	User         *TutorResponse         `json:"user"`
	Availability []AvailabilityResponse `json:"availability"`
	Pending      []TicketResponse       `json:"pending,omitempty"`
}
