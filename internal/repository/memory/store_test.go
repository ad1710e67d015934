package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/tutoring-portal/internal/domain"
	"github.com/spec-kit/tutoring-portal/internal/repository"
)

func seed(t *testing.T, s *Store) (section domain.Section, problem domain.ProblemType) {
	t.Helper()
	ctx := context.Background()
	catalog := s.Catalog()

	sem := domain.Semester{
		Year:      2026,
		Season:    domain.SeasonFall,
		StartDate: time.Date(2026, 8, 20, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2026, 12, 15, 0, 0, 0, 0, time.UTC),
	}
	if err := catalog.SaveSemester(ctx, &sem); err != nil {
		t.Fatalf("save semester: %v", err)
	}
	course := domain.Course{Number: "CSCI 1620", Name: "Intro to CS II", OnDisplay: true}
	if err := catalog.SaveCourse(ctx, &course); err != nil {
		t.Fatalf("save course: %v", err)
	}
	section = domain.Section{Number: "001", CourseID: course.ID, SemesterID: sem.ID}
	if err := catalog.SaveSection(ctx, &section); err != nil {
		t.Fatalf("save section: %v", err)
	}
	problem = domain.ProblemType{Description: "Debugging"}
	if err := catalog.SaveProblemType(ctx, &problem); err != nil {
		t.Fatalf("save problem type: %v", err)
	}
	if err := s.Tutors().Create(ctx, &domain.Tutor{Email: "tutor@unomaha.edu", IsActive: true, CourseIDs: []int64{course.ID}}); err != nil {
		t.Fatalf("create tutor: %v", err)
	}
	return section, problem
}

func newTicket(section domain.Section, problem domain.ProblemType) *domain.Ticket {
	return &domain.Ticket{
		StudentEmail:  "student@unomaha.edu",
		StudentFirst:  "Ada",
		StudentLast:   "Lovelace",
		SectionID:     section.ID,
		Assignment:    "Lab 3",
		Question:      "Why does it segfault?",
		ProblemTypeID: problem.ID,
		Status:        domain.TicketStatusOpen,
	}
}

func TestTransitionCompareAndSwap(t *testing.T) {
	ctx := context.Background()
	s := New()
	section, problem := seed(t, s)
	repo := s.Tickets()

	ticket := newTicket(section, problem)
	if err := repo.Create(ctx, ticket); err != nil {
		t.Fatalf("create: %v", err)
	}

	tutor := "tutor@unomaha.edu"
	claim := repository.Transition{
		TicketID: ticket.ID,
		From:     domain.TicketStatusOpen,
		To:       domain.TicketStatusClaimed,
		Claimant: &tutor,
	}
	updated, err := repo.Transition(ctx, claim)
	if err != nil {
		t.Fatalf("claim: %v", err)
	}
	if updated.Status != domain.TicketStatusClaimed || updated.ClaimedBy == nil || *updated.ClaimedBy != tutor {
		t.Fatalf("unexpected ticket after claim: %+v", updated)
	}

	if _, err := repo.Transition(ctx, claim); !errors.Is(err, repository.ErrStaleTransition) {
		t.Fatalf("second claim error = %v, want ErrStaleTransition", err)
	}

	other := "other@unomaha.edu"
	closeByOther := repository.Transition{
		TicketID:         ticket.ID,
		From:             domain.TicketStatusClaimed,
		To:               domain.TicketStatusClosed,
		ExpectedClaimant: &other,
	}
	if _, err := repo.Transition(ctx, closeByOther); !errors.Is(err, repository.ErrStaleTransition) {
		t.Fatalf("close by non-claimant error = %v, want ErrStaleTransition", err)
	}

	missing := claim
	missing.TicketID = 999
	if _, err := repo.Transition(ctx, missing); !errors.Is(err, repository.ErrStaleTransition) {
		t.Fatalf("missing ticket error = %v, want ErrStaleTransition", err)
	}
}

func TestLegacyEmptyStatusIsOpen(t *testing.T) {
	ctx := context.Background()
	s := New()
	section, problem := seed(t, s)
	repo := s.Tickets()

	ticket := newTicket(section, problem)
	ticket.Status = ""
	if err := repo.Create(ctx, ticket); err != nil {
		t.Fatalf("create: %v", err)
	}

	pending, err := repo.ListByStatus(ctx, []domain.TicketStatus{domain.TicketStatusOpen})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(pending) != 1 {
		t.Fatalf("expected legacy ticket in open list, got %d", len(pending))
	}

	counts, err := repo.CountPendingBySection(ctx, []int64{section.ID})
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if counts[section.ID] != 1 {
		t.Fatalf("pending count = %d, want 1", counts[section.ID])
	}
}

func TestListQueueOrdering(t *testing.T) {
	ctx := context.Background()
	clock := time.Date(2026, 10, 16, 9, 0, 0, 0, time.UTC)
	s := New(WithClock(func() time.Time { return clock }))
	section, problem := seed(t, s)
	repo := s.Tickets()

	first := newTicket(section, problem)
	second := newTicket(section, problem)
	first.TimeCreated = clock.Add(-time.Hour)
	second.TimeCreated = clock.Add(-2 * time.Hour)
	for _, ticket := range []*domain.Ticket{first, second} {
		if err := repo.Create(ctx, ticket); err != nil {
			t.Fatalf("create: %v", err)
		}
	}
	closed := newTicket(section, problem)
	closed.Status = domain.TicketStatusClosed
	closed.TimeCreated = clock.Add(-3 * time.Hour)
	if err := repo.Create(ctx, closed); err != nil {
		t.Fatalf("create: %v", err)
	}

	queue, err := repo.ListQueue(ctx, clock)
	if err != nil {
		t.Fatalf("queue: %v", err)
	}
	if len(queue) != 2 {
		t.Fatalf("queue length = %d, want 2", len(queue))
	}
	if queue[0].ID != second.ID || queue[1].ID != first.ID {
		t.Fatalf("queue not ordered by creation time: %d, %d", queue[0].ID, queue[1].ID)
	}
}

func TestForeignKeys(t *testing.T) {
	ctx := context.Background()
	s := New()
	section, problem := seed(t, s)

	ticket := newTicket(section, problem)
	if err := s.Tickets().Create(ctx, ticket); err != nil {
		t.Fatalf("create: %v", err)
	}

	if err := s.Catalog().DeleteSection(ctx, section.ID); !errors.Is(err, repository.ErrReferenced) {
		t.Fatalf("delete referenced section error = %v", err)
	}
	if err := s.Catalog().DeleteProblemType(ctx, problem.ID); !errors.Is(err, repository.ErrReferenced) {
		t.Fatalf("delete referenced problem type error = %v", err)
	}
	if err := s.Catalog().DeleteSemester(ctx, section.SemesterID); !errors.Is(err, repository.ErrReferenced) {
		t.Fatalf("delete referenced semester error = %v", err)
	}

	orphan := newTicket(section, problem)
	orphan.SectionID = 42
	if err := s.Tickets().Create(ctx, orphan); !errors.Is(err, repository.ErrReferenced) {
		t.Fatalf("create with unknown section error = %v", err)
	}

	tutor := "tutor@unomaha.edu"
	if _, err := s.Tickets().Transition(ctx, repository.Transition{
		TicketID: ticket.ID, From: domain.TicketStatusOpen, To: domain.TicketStatusClaimed, Claimant: &tutor,
	}); err != nil {
		t.Fatalf("claim: %v", err)
	}
	if err := s.Tutors().Delete(ctx, tutor); !errors.Is(err, repository.ErrReferenced) {
		t.Fatalf("delete claimant error = %v", err)
	}
	if err := s.Tutors().Delete(ctx, "nobody@unomaha.edu"); !errors.Is(err, pgx.ErrNoRows) {
		t.Fatalf("delete missing tutor error = %v", err)
	}
}

func TestTutorCoursesAndCounts(t *testing.T) {
	ctx := context.Background()
	s := New()
	section, _ := seed(t, s)
	tutors := s.Tutors()

	inactive := domain.Tutor{Email: "gone@unomaha.edu", IsActive: false, CourseIDs: []int64{section.CourseID, section.CourseID}}
	if err := tutors.Create(ctx, &inactive); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := tutors.Create(ctx, &domain.Tutor{Email: "gone@unomaha.edu"}); !errors.Is(err, repository.ErrDuplicate) {
		t.Fatalf("duplicate create error = %v", err)
	}
	if err := tutors.Update(ctx, &domain.Tutor{Email: "gone@unomaha.edu", CourseIDs: []int64{77}}); !errors.Is(err, repository.ErrReferenced) {
		t.Fatalf("update with unknown course error = %v", err)
	}

	stored, err := tutors.GetByEmail(ctx, "gone@unomaha.edu")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(stored.CourseIDs) != 1 {
		t.Fatalf("course ids not deduplicated: %v", stored.CourseIDs)
	}

	counts, err := tutors.CountByCourse(ctx, []int64{section.CourseID})
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if counts[section.CourseID] != 2 {
		t.Fatalf("eligible tutors = %d, want 2", counts[section.CourseID])
	}
}

func TestActiveSections(t *testing.T) {
	ctx := context.Background()
	s := New()
	section, _ := seed(t, s)

	active, err := s.Catalog().ListActiveSections(ctx, time.Date(2026, 12, 15, 18, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(active) != 1 || active[0].ID != section.ID {
		t.Fatalf("expected section active on last day, got %+v", active)
	}

	active, err = s.Catalog().ListActiveSections(ctx, time.Date(2026, 12, 16, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(active) != 0 {
		t.Fatalf("expected no active sections after the semester, got %d", len(active))
	}
}
