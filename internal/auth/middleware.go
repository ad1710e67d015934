package auth

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/tutoring-portal/internal/session"
)

const principalKey = "auth_principal"

// Middleware resolves the caller once per request. It must run after the
// session middleware.
func (r *Resolver) Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		principal := r.Resolve(c.UserContext(), session.FromContext(c))
		c.Locals(principalKey, principal)
		return c.Next()
	}
}

// PrincipalFromContext retrieves the resolved caller; Anonymous if the
// identity middleware did not run.
func PrincipalFromContext(c *fiber.Ctx) Principal {
	if principal, ok := c.Locals(principalKey).(Principal); ok {
		return principal
	}
	return Anonymous
}
