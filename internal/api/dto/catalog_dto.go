package dto

// CatalogRequest is the admin edit form. Each entity kind reads its own
// fields; Action "delete" removes the row named by ID.
type CatalogRequest struct {
	Action string `form:"action" json:"action"`
	ID     int64  `form:"id" json:"id"`

	Year      int    `form:"year" json:"year"`
	Season    string `form:"season" json:"season"`
	StartDate string `form:"start_date" json:"start_date"`
	EndDate   string `form:"end_date" json:"end_date"`

	FirstName string `form:"first_name" json:"first_name"`
	LastName  string `form:"last_name" json:"last_name"`

	Number    string `form:"number" json:"number"`
	Name      string `form:"name" json:"name"`
	OnDisplay string `form:"on_display" json:"on_display"`

	Time        string `form:"time" json:"time"`
	CourseID    int64  `form:"course_id" json:"course_id"`
	SemesterID  int64  `form:"semester_id" json:"semester_id"`
	ProfessorID string `form:"professor_id" json:"professor_id" validate:"omitempty,number"`

	Description string `form:"description" json:"description"`
}

// EntityKindResponse lists an administrable kind.
type EntityKindResponse struct {
	Kind  string `json:"kind"`
	Title string `json:"title"`
}

// SemesterResponse is a semester row.
type SemesterResponse struct {
	ID        int64  `json:"id"`
	Year      int    `json:"year"`
	Season    string `json:"season"`
	Title     string `json:"title"`
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
}

// ProfessorResponse is a professor row.
type ProfessorResponse struct {
	ID        int64  `json:"id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

// CourseResponse is a course row.
type CourseResponse struct {
	ID        int64  `json:"id"`
	Number    string `json:"number"`
	Name      string `json:"name"`
	OnDisplay bool   `json:"on_display"`
}

// SectionResponse is a section row.
type SectionResponse struct {
	ID          int64  `json:"id"`
	Number      string `json:"number"`
	Time        string `json:"time"`
	CourseID    int64  `json:"course_id"`
	SemesterID  int64  `json:"semester_id"`
	ProfessorID *int64 `json:"professor_id"`
}

// ProblemTypeResponse is a problem type row.
type ProblemTypeResponse struct {
	ID          int64  `json:"id"`
	Description string `json:"description"`
}

// CourseOfferingResponse is a course with the sections open for tickets.
type CourseOfferingResponse struct {
	Course   CourseResponse    `json:"course"`
	Sections []SectionResponse `json:"sections"`
}

// OpenTicketFormResponse is what the open-ticket page offers.
type OpenTicketFormResponse struct {
	Courses      []CourseOfferingResponse `json:"courses"`
	ProblemTypes []ProblemTypeResponse    `json:"problem_types"`
}
