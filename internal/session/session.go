// Package session keeps per-visitor state on the server. The cookie only
// carries a random id; the payload lives in a Store.
package session

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned by stores for unknown or expired ids.
var ErrNotFound = errors.New("session not found")

// Payload is everything the portal remembers about a visitor.
type Payload struct {
	Username *string  `json:"username,omitempty"`
	Flashes  []string `json:"flashes,omitempty"`
}

func (p Payload) empty() bool {
	return p.Username == nil && len(p.Flashes) == 0
}

// Store persists payloads by session id.
type Store interface {
	Load(ctx context.Context, id string) (*Payload, error)
	Save(ctx context.Context, id string, payload *Payload, ttl time.Duration) error
	Delete(ctx context.Context, id string) error
}

// Session is the request-scoped view of a payload.
type Session struct {
	id       string
	payload  Payload
	cleared  bool
	modified bool
}

// Username returns the signed-in identifier, if any.
func (s *Session) Username() (string, bool) {
	if s.payload.Username == nil || *s.payload.Username == "" {
		return "", false
	}
	return *s.payload.Username, true
}

// SetUsername records the signed-in identifier.
func (s *Session) SetUsername(username string) {
	s.payload.Username = &username
	s.modified = true
}

// Flash queues a message for the next page the visitor sees.
func (s *Session) Flash(message string) {
	s.payload.Flashes = append(s.payload.Flashes, message)
	s.modified = true
}

// PopFlashes returns and forgets queued messages.
func (s *Session) PopFlashes() []string {
	flashes := s.payload.Flashes
	if len(flashes) > 0 {
		s.payload.Flashes = nil
		s.modified = true
	}
	return flashes
}

// Clear drops everything, including the session id.
func (s *Session) Clear() {
	s.payload = Payload{}
	s.cleared = true
	s.modified = true
}
