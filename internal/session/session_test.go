package session

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/tutoring-portal/internal/config"
)

func TestMemoryStoreExpiry(t *testing.T) {
	now := time.Date(2026, 10, 16, 12, 0, 0, 0, time.UTC)
	store := NewMemoryStore(func() time.Time { return now })
	ctx := context.Background()

	user := "tutor@unomaha.edu"
	if err := store.Save(ctx, "abc", &Payload{Username: &user}, 30*time.Minute); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, err := store.Load(ctx, "abc")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got.Username == nil || *got.Username != user {
		t.Fatalf("unexpected payload: %+v", got)
	}

	now = now.Add(30 * time.Minute)
	if _, err := store.Load(ctx, "abc"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expired load error = %v, want ErrNotFound", err)
	}
}

func TestSessionFlashes(t *testing.T) {
	sess := &Session{}
	sess.Flash("Ticket successfully opened")
	sess.Flash("second")

	flashes := sess.PopFlashes()
	if len(flashes) != 2 || flashes[0] != "Ticket successfully opened" {
		t.Fatalf("unexpected flashes: %v", flashes)
	}
	if again := sess.PopFlashes(); len(again) != 0 {
		t.Fatalf("flashes should be consumed, got %v", again)
	}
}

func TestRedisKey(t *testing.T) {
	if got := key("123"); got != "session:123" {
		t.Fatalf("key = %q", got)
	}
}

func newTestApp(store Store) *fiber.App {
	manager := NewManager(store, config.SessionConfig{CookieName: "portal_session", LifetimeMinutes: 30}, zap.NewNop())
	app := fiber.New()
	app.Use(manager.Middleware())
	app.Get("/login", func(c *fiber.Ctx) error {
		sess := FromContext(c)
		sess.Clear()
		sess.SetUsername("tutor@unomaha.edu")
		return c.SendStatus(http.StatusNoContent)
	})
	app.Get("/whoami", func(c *fiber.Ctx) error {
		username, _ := FromContext(c).Username()
		return c.SendString(username)
	})
	app.Get("/logout", func(c *fiber.Ctx) error {
		FromContext(c).Clear()
		return c.SendStatus(http.StatusNoContent)
	})
	return app
}

func sessionCookie(resp *http.Response) *http.Cookie {
	for _, cookie := range resp.Cookies() {
		if cookie.Name == "portal_session" {
			return cookie
		}
	}
	return nil
}

func TestMiddlewareRoundTrip(t *testing.T) {
	store := NewMemoryStore(nil)
	app := newTestApp(store)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/login", nil))
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	cookie := sessionCookie(resp)
	if cookie == nil || cookie.Value == "" {
		t.Fatalf("expected session cookie after login")
	}

	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.AddCookie(&http.Cookie{Name: cookie.Name, Value: cookie.Value})
	resp, err = app.Test(req)
	if err != nil {
		t.Fatalf("whoami: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	if strings.TrimSpace(string(body)) != "tutor@unomaha.edu" {
		t.Fatalf("whoami = %q", body)
	}

	req = httptest.NewRequest(http.MethodGet, "/logout", nil)
	req.AddCookie(&http.Cookie{Name: cookie.Name, Value: cookie.Value})
	if _, err := app.Test(req); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if _, err := store.Load(context.Background(), cookie.Value); !errors.Is(err, ErrNotFound) {
		t.Fatalf("session should be deleted on logout, got %v", err)
	}
}

type countingStore struct {
	Store
	saves int
}

func (s *countingStore) Save(ctx context.Context, id string, payload *Payload, ttl time.Duration) error {
	s.saves++
	return s.Store.Save(ctx, id, payload, ttl)
}

func TestMiddlewareSavesOnlyWhenModified(t *testing.T) {
	store := &countingStore{Store: NewMemoryStore(nil)}
	app := newTestApp(store)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/login", nil))
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	cookie := sessionCookie(resp)
	if cookie == nil || store.saves != 1 {
		t.Fatalf("login should save once, saves = %d", store.saves)
	}

	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
		req.AddCookie(&http.Cookie{Name: cookie.Name, Value: cookie.Value})
		resp, err := app.Test(req)
		if err != nil {
			t.Fatalf("whoami: %v", err)
		}
		if sessionCookie(resp) != nil {
			t.Fatalf("read-only request rewrote the session cookie")
		}
	}
	if store.saves != 1 {
		t.Fatalf("read-only requests saved the session, saves = %d", store.saves)
	}
}

func TestMiddlewareUnknownCookie(t *testing.T) {
	app := newTestApp(NewMemoryStore(nil))

	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.AddCookie(&http.Cookie{Name: "portal_session", Value: "forged"})
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("whoami: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	if len(body) != 0 {
		t.Fatalf("forged cookie resolved to %q", body)
	}
	if cookie := sessionCookie(resp); cookie == nil || cookie.Value != "" {
		t.Fatalf("expected the forged cookie to be cleared, got %+v", cookie)
	}
}

func TestMemoryStorePurge(t *testing.T) {
	now := time.Date(2026, 10, 16, 12, 0, 0, 0, time.UTC)
	store := NewMemoryStore(func() time.Time { return now })
	ctx := context.Background()

	user := "tutor@unomaha.edu"
	_ = store.Save(ctx, "short", &Payload{Username: &user}, time.Minute)
	_ = store.Save(ctx, "long", &Payload{Username: &user}, time.Hour)

	now = now.Add(2 * time.Minute)
	if removed := store.Purge(); removed != 1 {
		t.Fatalf("removed = %d, want 1", removed)
	}
	if _, err := store.Load(ctx, "long"); err != nil {
		t.Fatalf("unexpired session purged: %v", err)
	}
}
