package dto

// TutorRequest is the tutor edit form.
type TutorRequest struct {
	Action      string  `form:"action" json:"action"`
	Email       string  `form:"email" json:"email"`
	FirstName   string  `form:"first_name" json:"first_name"`
	LastName    string  `form:"last_name" json:"last_name"`
	IsActive    string  `form:"is_active" json:"is_active"`
	IsSuperuser string  `form:"is_superuser" json:"is_superuser"`
	CourseIDs   []int64 `form:"course_ids" json:"course_ids"`
}

// TutorResponse is a tutor profile.
type TutorResponse struct {
	Email       string  `json:"email"`
	FirstName   string  `json:"first_name"`
	LastName    string  `json:"last_name"`
	IsActive    bool    `json:"is_active"`
	IsSuperuser bool    `json:"is_superuser"`
	CourseIDs   []int64 `json:"course_ids"`
}
