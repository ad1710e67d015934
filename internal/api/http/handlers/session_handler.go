package handlers

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/tutoring-portal/internal/auth"
	"github.com/spec-kit/tutoring-portal/internal/config"
	"github.com/spec-kit/tutoring-portal/internal/session"
	apperrors "github.com/spec-kit/tutoring-portal/pkg/util/errorutil"
)

// SessionHandler signs tutors in and out.
type SessionHandler struct {
	verifier *auth.AssertionVerifier
	cfg      config.AuthConfig
	debug    bool
	logger   *zap.Logger
}

// NewSessionHandler constructs handler.
func NewSessionHandler(verifier *auth.AssertionVerifier, cfg config.AuthConfig, debug bool, logger *zap.Logger) *SessionHandler {
	return &SessionHandler{verifier: verifier, cfg: cfg, debug: debug, logger: logger}
}

// Login GET /login/ drops the current session and starts sign-on. In debug
// mode the configured debug user is signed in directly.
func (h *SessionHandler) Login(c *fiber.Ctx) error {
	sess := session.FromContext(c)
	sess.Clear()
	if h.debug {
		sess.SetUsername(h.cfg.DebugUser)
		return c.Redirect("/")
	}
	return c.Redirect(h.cfg.SSOLoginURL)
}

// Callback GET /login/callback?assertion=... completes sign-on.
func (h *SessionHandler) Callback(c *fiber.Ctx) error {
	username, err := h.verifier.Verify(c.Query("assertion"))
	if err != nil {
		h.logger.Info("rejected sign-on assertion", zap.Error(err))
		return apperrors.NewUnauthorized("invalid sign-on assertion")
	}
	sess := session.FromContext(c)
	sess.Clear()
	sess.SetUsername(username)
	return c.Redirect("/")
}

// Logout GET /logout/.
func (h *SessionHandler) Logout(c *fiber.Ctx) error {
	session.FromContext(c).Clear()
	return c.Redirect("/")
}
