package session

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/tutoring-portal/internal/config"
)

const localsKey = "session"

// Manager binds a Store to the session cookie.
type Manager struct {
	store  Store
	cfg    config.SessionConfig
	logger *zap.Logger
}

// NewManager builds the manager.
func NewManager(store Store, cfg config.SessionConfig, logger *zap.Logger) *Manager {
	return &Manager{store: store, cfg: cfg, logger: logger}
}

// Middleware loads the session before the handler runs and writes it back
// afterwards when the handler changed it. A store failure degrades to an
// empty session.
func (m *Manager) Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		sess := m.load(c)
		c.Locals(localsKey, sess)

		err := c.Next()
		m.persist(c, sess)
		return err
	}
}

// FromContext returns the request's session. Outside the middleware it
// returns a detached empty session.
func FromContext(c *fiber.Ctx) *Session {
	if sess, ok := c.Locals(localsKey).(*Session); ok {
		return sess
	}
	sess := &Session{}
	c.Locals(localsKey, sess)
	return sess
}

func (m *Manager) load(c *fiber.Ctx) *Session {
	id := c.Cookies(m.cfg.CookieName)
	if id == "" {
		return &Session{}
	}
	payload, err := m.store.Load(c.UserContext(), id)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			m.logger.Warn("session load failed", zap.Error(err))
		}
		// Keep the stale id so persist can expire the cookie.
		return &Session{id: id, cleared: true}
	}
	return &Session{id: id, payload: *payload}
}

func (m *Manager) persist(c *fiber.Ctx, sess *Session) {
	if !sess.modified && !sess.cleared {
		return
	}
	ctx := c.UserContext()
	if sess.cleared && sess.id != "" {
		if err := m.store.Delete(ctx, sess.id); err != nil {
			m.logger.Warn("session delete failed", zap.Error(err))
		}
	}
	if sess.payload.empty() {
		if sess.id != "" {
			if !sess.cleared {
				if err := m.store.Delete(ctx, sess.id); err != nil {
					m.logger.Warn("session delete failed", zap.Error(err))
				}
			}
			c.ClearCookie(m.cfg.CookieName)
		}
		return
	}

	id := sess.id
	if id == "" || sess.cleared {
		id = uuid.NewString()
	}
	ttl := m.cfg.Lifetime()
	if err := m.store.Save(ctx, id, &sess.payload, ttl); err != nil {
		m.logger.Warn("session save failed", zap.Error(err))
		return
	}
	c.Cookie(&fiber.Cookie{
		Name:     m.cfg.CookieName,
		Value:    id,
		Path:     "/",
		Expires:  time.Now().Add(ttl),
		Secure:   m.cfg.Secure,
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
}
