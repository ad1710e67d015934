// Package memory keeps the whole portal data set in process memory. It backs
// development runs without a database and the service tests, and mirrors the
// Postgres repositories: missing rows yield pgx.ErrNoRows and foreign keys
// are enforced with repository.ErrReferenced.
package memory

import (
	"sync"
	"time"

	"github.com/spec-kit/tutoring-portal/internal/domain"
	"github.com/spec-kit/tutoring-portal/internal/repository"
)

// Store holds every table behind one lock.
type Store struct {
	mu  sync.RWMutex
	now func() time.Time

	semesters  map[int64]domain.Semester
	professors map[int64]domain.Professor
	courses    map[int64]domain.Course
	sections   map[int64]domain.Section
	problems   map[int64]domain.ProblemType
	tutors     map[string]domain.Tutor
	tickets    map[int64]domain.Ticket
	history    []domain.TicketHistory

	seq map[string]int64
}

// Option customizes a Store.
type Option func(*Store)

// WithClock replaces the timestamp source.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

// New returns an empty store.
func New(opts ...Option) *Store {
	s := &Store{
		now:        time.Now,
		semesters:  make(map[int64]domain.Semester),
		professors: make(map[int64]domain.Professor),
		courses:    make(map[int64]domain.Course),
		sections:   make(map[int64]domain.Section),
		problems:   make(map[int64]domain.ProblemType),
		tutors:     make(map[string]domain.Tutor),
		tickets:    make(map[int64]domain.Ticket),
		seq:        make(map[string]int64),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Tickets exposes the ticket table.
func (s *Store) Tickets() repository.TicketRepository {
	return &ticketRepo{store: s}
}

// History exposes the ticket audit trail.
func (s *Store) History() repository.TicketHistoryRepository {
	return &historyRepo{store: s}
}

// Catalog exposes the catalog tables.
func (s *Store) Catalog() repository.CatalogRepository {
	return &catalogRepo{store: s}
}

// Tutors exposes the tutor roster.
func (s *Store) Tutors() repository.TutorRepository {
	return &tutorRepo{store: s}
}

// next must be called with mu held for writing.
func (s *Store) next(table string) int64 {
	s.seq[table]++
	return s.seq[table]
}

func cloneString(v *string) *string {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}

func cloneInt64(v *int64) *int64 {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}

func cloneTicket(t domain.Ticket) domain.Ticket {
	t.ClaimedBy = cloneString(t.ClaimedBy)
	return t
}

func cloneTutor(t domain.Tutor) domain.Tutor {
	t.CourseIDs = append([]int64(nil), t.CourseIDs...)
	return t
}
