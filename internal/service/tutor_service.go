package service

import (
	"context"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/tutoring-portal/internal/auth"
	"github.com/spec-kit/tutoring-portal/internal/domain"
	"github.com/spec-kit/tutoring-portal/internal/repository"
	apperrors "github.com/spec-kit/tutoring-portal/pkg/util/errorutil"
)

// TutorInput is a submitted tutor profile. IsActive and IsSuperuser are only
// honoured for superusers.
type TutorInput struct {
	Email       string
	FirstName   string
	LastName    string
	IsActive    bool
	IsSuperuser bool
	CourseIDs   []int64
}

// TutorService manages the tutor roster.
type TutorService struct {
	tutors   repository.TutorRepository
	logger   *zap.Logger
	validate *validator.Validate
}

// NewTutorService constructs the service.
func NewTutorService(tutors repository.TutorRepository, logger *zap.Logger) *TutorService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TutorService{tutors: tutors, logger: logger, validate: validator.New()}
}

// List returns the roster ordered by last then first name.
func (s *TutorService) List(ctx context.Context, actor auth.Principal) ([]domain.Tutor, error) {
	if !auth.IsSuperuser(actor) {
		return nil, apperrors.NewForbidden()
	}
	tutors, err := s.tutors.List(ctx)
	if err != nil {
		return nil, err
	}
	if tutors == nil {
		tutors = []domain.Tutor{}
	}
	return tutors, nil
}

// Get returns a profile to its owner or a superuser.
func (s *TutorService) Get(ctx context.Context, actor auth.Principal, email string) (*domain.Tutor, error) {
	email = domain.NormalizeEmail(email)
	if !auth.CanEditTutor(actor, email) {
		return nil, apperrors.NewForbidden()
	}
	tutor, err := s.tutors.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("tutor", map[string]any{"email": email})
		}
		return nil, err
	}
	return tutor, nil
}

// Save creates or updates a profile. Only superusers create tutors or change
// the active and superuser flags.
func (s *TutorService) Save(ctx context.Context, actor auth.Principal, in TutorInput) (*domain.Tutor, error) {
	email := domain.NormalizeEmail(in.Email)
	if !auth.CanEditTutor(actor, email) {
		return nil, apperrors.NewForbidden()
	}
	if err := s.validate.Var(email, "required,email"); err != nil {
		return nil, apperrors.NewValidationError("invalid tutor", map[string]any{"email": "must be a valid email"})
	}

	existing, err := s.tutors.GetByEmail(ctx, email)
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		existing = nil
	case err != nil:
		return nil, err
	}

	if existing == nil && !auth.IsSuperuser(actor) {
		return nil, apperrors.NewForbidden()
	}

	tutor := &domain.Tutor{
		Email:     email,
		FirstName: strings.TrimSpace(in.FirstName),
		LastName:  strings.TrimSpace(in.LastName),
		CourseIDs: in.CourseIDs,
	}
	switch {
	case auth.IsSuperuser(actor):
		tutor.IsActive = in.IsActive
		tutor.IsSuperuser = in.IsSuperuser
	default:
		tutor.IsActive = existing.IsActive
		tutor.IsSuperuser = existing.IsSuperuser
	}

	if existing == nil {
		err = s.tutors.Create(ctx, tutor)
	} else {
		err = s.tutors.Update(ctx, tutor)
	}
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrReferenced):
			return nil, apperrors.NewValidationError("unknown course", map[string]any{"course_ids": in.CourseIDs})
		case errors.Is(err, repository.ErrDuplicate):
			return nil, apperrors.NewConflict("tutor already exists", map[string]any{"email": email})
		}
		return nil, err
	}
	s.logger.Info("tutor saved", zap.String("email", email), zap.String("by", actor.Email()), zap.Bool("created", existing == nil))
	return tutor, nil
}

// Delete removes a tutor who has never touched a ticket.
func (s *TutorService) Delete(ctx context.Context, actor auth.Principal, email string) error {
	if !auth.IsSuperuser(actor) {
		return apperrors.NewForbidden()
	}
	email = domain.NormalizeEmail(email)
	if err := s.tutors.Delete(ctx, email); err != nil {
		switch {
		case errors.Is(err, pgx.ErrNoRows):
			return apperrors.NewNotFound("tutor", map[string]any{"email": email})
		case errors.Is(err, repository.ErrReferenced):
			return apperrors.NewConflict("tutor is referenced by tickets", map[string]any{"email": email})
		}
		return err
	}
	return nil
}

// EnsureTutor creates an active superuser account for email when none
// exists. Debug runs use it so the debug login can claim tickets.
func (s *TutorService) EnsureTutor(ctx context.Context, email string) error {
	email = domain.NormalizeEmail(email)
	_, err := s.tutors.GetByEmail(ctx, email)
	if err == nil {
		return nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return err
	}
	err = s.tutors.Create(ctx, &domain.Tutor{Email: email, IsActive: true, IsSuperuser: true})
	if errors.Is(err, repository.ErrDuplicate) {
		return nil
	}
	return err
}
