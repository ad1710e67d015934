package domain

import (
	"strings"
	"time"
)

// Tutor is a staff account; the email is the identity key.
type Tutor struct {
	Email       string
	FirstName   string
	LastName    string
	IsActive    bool
	IsSuperuser bool
	CourseIDs   []int64
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// LastFirst renders "Last, First" for roster ordering.
func (t *Tutor) LastFirst() string {
	return t.LastName + ", " + t.FirstName
}

// CanTutor reports eligibility for a course.
func (t *Tutor) CanTutor(courseID int64) bool {
	for _, id := range t.CourseIDs {
		if id == courseID {
			return true
		}
	}
	return false
}

// NormalizeEmail lowercases and trims an identity key.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
