package auth

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/tutoring-portal/internal/domain"
	"github.com/spec-kit/tutoring-portal/internal/session"
)

// TutorLookup finds a tutor by email.
type TutorLookup interface {
	GetByEmail(ctx context.Context, email string) (*domain.Tutor, error)
}

// Resolver turns the session's username into a Principal.
type Resolver struct {
	tutors TutorLookup
	debug  bool
	logger *zap.Logger
}

// NewResolver builds a resolver. In debug mode every signed-in username
// resolves to an active superuser without touching the store.
func NewResolver(tutors TutorLookup, debug bool, logger *zap.Logger) *Resolver {
	return &Resolver{tutors: tutors, debug: debug, logger: logger}
}

// Resolve performs at most one lookup. Unknown or inactive tutors and failed
// lookups yield Anonymous and clear the session.
func (r *Resolver) Resolve(ctx context.Context, sess *session.Session) Principal {
	username, ok := sess.Username()
	if !ok {
		return Anonymous
	}

	if r.debug {
		return Principal{Tutor: &domain.Tutor{Email: username, IsActive: true, IsSuperuser: true}}
	}

	tutor, err := r.tutors.GetByEmail(ctx, domain.NormalizeEmail(username))
	if err != nil {
		if !errors.Is(err, pgx.ErrNoRows) {
			r.logger.Warn("identity lookup failed", zap.String("username", username), zap.Error(err))
		}
		sess.Clear()
		return Anonymous
	}
	if !tutor.IsActive {
		sess.Clear()
		return Anonymous
	}
	return Principal{Tutor: tutor}
}
