package auth

import (
	"github.com/gofiber/fiber/v2"

	apperrors "github.com/spec-kit/tutoring-portal/pkg/util/errorutil"
)

// RequireTutor rejects anonymous callers.
func RequireTutor() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !IsAuthenticated(PrincipalFromContext(c)) {
			return apperrors.NewForbidden()
		}
		return c.Next()
	}
}

// RequireSuperuser rejects everyone but superusers.
func RequireSuperuser() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !IsSuperuser(PrincipalFromContext(c)) {
			return apperrors.NewForbidden()
		}
		return c.Next()
	}
}
