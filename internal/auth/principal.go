package auth

import "github.com/spec-kit/tutoring-portal/internal/domain"

// Principal is the caller of a request: a tutor, or anonymous when Tutor is
// nil.
type Principal struct {
	Tutor *domain.Tutor
}

// Anonymous is the principal of visitors who are not signed in.
var Anonymous = Principal{}

// Email returns the tutor's identity key, or "" for anonymous callers.
func (p Principal) Email() string {
	if p.Tutor == nil {
		return ""
	}
	return p.Tutor.Email
}

// IsAuthenticated reports whether p is a tutor.
func IsAuthenticated(p Principal) bool {
	return p.Tutor != nil
}

// IsSuperuser reports whether p may administer the portal.
func IsSuperuser(p Principal) bool {
	return p.Tutor != nil && p.Tutor.IsSuperuser
}

// IsSelf reports whether p is the tutor identified by email.
func IsSelf(p Principal, email string) bool {
	return p.Tutor != nil && domain.NormalizeEmail(p.Tutor.Email) == domain.NormalizeEmail(email)
}

// CanEditTutor reports whether p may edit the profile identified by email.
func CanEditTutor(p Principal, email string) bool {
	return IsSelf(p, email) || IsSuperuser(p)
}
