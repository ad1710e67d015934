package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/spec-kit/tutoring-portal/internal/auth"
	"github.com/spec-kit/tutoring-portal/internal/domain"
	"github.com/spec-kit/tutoring-portal/internal/events"
	"github.com/spec-kit/tutoring-portal/internal/observability"
	"github.com/spec-kit/tutoring-portal/internal/repository/memory"
	apperrors "github.com/spec-kit/tutoring-portal/pkg/util/errorutil"
)

var today = time.Date(2026, 10, 16, 10, 0, 0, 0, time.UTC)

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type fixture struct {
	clock        *testClock
	store        *memory.Store
	tickets      *TicketService
	availability *AvailabilityService
	catalog      *CatalogService
	tutors       *TutorService
	dispatcher   events.Dispatcher
	section      domain.Section
	pastSection  domain.Section
	course       domain.Course
	problem      domain.ProblemType
	tutor        auth.Principal
	other        auth.Principal
	admin        auth.Principal
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	tc := &testClock{now: today}
	clock := tc.Now
	store := memory.New(memory.WithClock(clock))
	catalog := store.Catalog()

	current := domain.Semester{Year: 2026, Season: domain.SeasonFall,
		StartDate: time.Date(2026, 8, 20, 0, 0, 0, 0, time.UTC), EndDate: time.Date(2026, 12, 15, 0, 0, 0, 0, time.UTC)}
	past := domain.Semester{Year: 2026, Season: domain.SeasonSpring,
		StartDate: time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC), EndDate: time.Date(2026, 5, 10, 0, 0, 0, 0, time.UTC)}
	for _, sem := range []*domain.Semester{&current, &past} {
		if err := catalog.SaveSemester(ctx, sem); err != nil {
			t.Fatalf("save semester: %v", err)
		}
	}
	course := domain.Course{Number: "CSCI 1620", Name: "Intro to CS II", OnDisplay: true}
	if err := catalog.SaveCourse(ctx, &course); err != nil {
		t.Fatalf("save course: %v", err)
	}
	section := domain.Section{Number: "001", CourseID: course.ID, SemesterID: current.ID}
	pastSection := domain.Section{Number: "850", CourseID: course.ID, SemesterID: past.ID}
	for _, sec := range []*domain.Section{&section, &pastSection} {
		if err := catalog.SaveSection(ctx, sec); err != nil {
			t.Fatalf("save section: %v", err)
		}
	}
	problem := domain.ProblemType{Description: "Debugging"}
	if err := catalog.SaveProblemType(ctx, &problem); err != nil {
		t.Fatalf("save problem: %v", err)
	}

	roster := []*domain.Tutor{
		{Email: "tutor@unomaha.edu", FirstName: "Grace", LastName: "Hopper", IsActive: true, CourseIDs: []int64{course.ID}},
		{Email: "other@unomaha.edu", FirstName: "Alan", LastName: "Turing", IsActive: true, CourseIDs: []int64{course.ID}},
		{Email: "admin@unomaha.edu", FirstName: "Ada", LastName: "Lovelace", IsActive: true, IsSuperuser: true},
		{Email: "retired@unomaha.edu", FirstName: "Old", LastName: "Timer", IsActive: false, CourseIDs: []int64{course.ID}},
	}
	for _, tutor := range roster {
		if err := store.Tutors().Create(ctx, tutor); err != nil {
			t.Fatalf("create tutor: %v", err)
		}
	}

	dispatcher := events.NewInMemoryDispatcher()
	return &fixture{
		clock: tc,
		store: store,
		tickets: NewTicketService(TicketDependencies{
			TicketRepo:  store.Tickets(),
			HistoryRepo: store.History(),
			CatalogRepo: catalog,
			Dispatcher:  dispatcher,
			Metrics:     observability.NewMetrics(),
			Clock:       clock,
		}),
		availability: NewAvailabilityService(AvailabilityDependencies{
			CatalogRepo: catalog,
			TicketRepo:  store.Tickets(),
			TutorRepo:   store.Tutors(),
			Clock:       clock,
		}),
		catalog:     NewCatalogService(catalog, clock),
		tutors:      NewTutorService(store.Tutors(), nil),
		dispatcher:  dispatcher,
		section:     section,
		pastSection: pastSection,
		course:      course,
		problem:     problem,
		tutor:       auth.Principal{Tutor: roster[0]},
		other:       auth.Principal{Tutor: roster[1]},
		admin:       auth.Principal{Tutor: roster[2]},
	}
}

func (f *fixture) input() TicketCreateInput {
	return TicketCreateInput{
		StudentEmail:  "student@unomaha.edu",
		StudentFirst:  "Linus",
		StudentLast:   "Torvalds",
		SectionID:     f.section.ID,
		ProblemTypeID: f.problem.ID,
		Assignment:    "Lab 3",
		Question:      "  <b>Why</b> does it segfault?  ",
	}
}

func (f *fixture) open(t *testing.T) *domain.Ticket {
	t.Helper()
	ticket, err := f.tickets.Create(context.Background(), f.input())
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	return ticket
}

func expectCode(t *testing.T, err error, code string) {
	t.Helper()
	if !apperrors.IsCode(err, code) {
		t.Fatalf("error = %v, want code %s", err, code)
	}
}

func TestCreateStoresVerbatimAndPublishes(t *testing.T) {
	f := newFixture(t)
	var opened []events.Event
	f.dispatcher.Subscribe(events.EventTicketOpened, func(_ context.Context, e events.Event) error {
		opened = append(opened, e)
		return nil
	})

	ticket := f.open(t)
	if ticket.Status != domain.TicketStatusOpen || ticket.ClaimedBy != nil {
		t.Fatalf("new ticket should be open and unclaimed: %+v", ticket)
	}
	if ticket.Question != "  <b>Why</b> does it segfault?  " {
		t.Fatalf("question not stored verbatim: %q", ticket.Question)
	}
	if !ticket.TimeCreated.Equal(today) {
		t.Fatalf("time_created = %v", ticket.TimeCreated)
	}
	if len(opened) != 1 || opened[0].TicketID != ticket.ID {
		t.Fatalf("expected one ticket_opened event, got %+v", opened)
	}
}

func TestCreateValidation(t *testing.T) {
	f := newFixture(t)
	cases := []struct {
		name   string
		mutate func(*TicketCreateInput)
	}{
		{"bad email", func(in *TicketCreateInput) { in.StudentEmail = "not-an-email" }},
		{"blank question", func(in *TicketCreateInput) { in.Question = "   " }},
		{"blank first name", func(in *TicketCreateInput) { in.StudentFirst = "" }},
		{"missing section", func(in *TicketCreateInput) { in.SectionID = 0 }},
		{"unknown section", func(in *TicketCreateInput) { in.SectionID = 999 }},
		{"unknown problem type", func(in *TicketCreateInput) { in.ProblemTypeID = 999 }},
		{"inactive semester", func(in *TicketCreateInput) { in.SectionID = f.pastSection.ID }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			in := f.input()
			tc.mutate(&in)
			_, err := f.tickets.Create(context.Background(), in)
			expectCode(t, err, apperrors.CodeValidation)
		})
	}

	pending, err := f.tickets.Pending(context.Background(), f.tutor)
	if err != nil {
		t.Fatalf("pending: %v", err)
	}
	if len(pending) != 0 {
		t.Fatalf("rejected submissions must not create rows, found %d", len(pending))
	}
}

func TestLifecycle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ticket := f.open(t)

	claimed, err := f.tickets.Claim(ctx, f.tutor, ticket.ID)
	if err != nil {
		t.Fatalf("claim: %v", err)
	}
	if claimed.Status != domain.TicketStatusClaimed || *claimed.ClaimedBy != "tutor@unomaha.edu" {
		t.Fatalf("unexpected claimed ticket: %+v", claimed)
	}

	_, err = f.tickets.Claim(ctx, f.other, ticket.ID)
	expectCode(t, err, apperrors.CodeConflict)

	_, err = f.tickets.Close(ctx, f.other, ticket.ID)
	expectCode(t, err, apperrors.CodeForbidden)

	closed, err := f.tickets.Close(ctx, f.tutor, ticket.ID)
	if err != nil {
		t.Fatalf("close: %v", err)
	}
	if closed.Status != domain.TicketStatusClosed {
		t.Fatalf("status = %s", closed.Status)
	}

	_, err = f.tickets.Close(ctx, f.tutor, ticket.ID)
	expectCode(t, err, apperrors.CodeConflict)

	f.clock.Advance(3 * time.Hour)
	reopened, err := f.tickets.Reopen(ctx, f.other, ticket.ID)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	if reopened.Status != domain.TicketStatusClaimed || *reopened.ClaimedBy != "other@unomaha.edu" {
		t.Fatalf("reopening tutor should take ownership: %+v", reopened)
	}
	if !reopened.TimeCreated.Equal(ticket.TimeCreated) {
		t.Fatalf("reopen moved time_created from %v to %v", ticket.TimeCreated, reopened.TimeCreated)
	}

	if _, err := f.tickets.Close(ctx, f.admin, ticket.ID); err != nil {
		t.Fatalf("superuser close: %v", err)
	}

	history, err := f.tickets.History(ctx, f.tutor, ticket.ID)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	want := []domain.TicketStatus{
		domain.TicketStatusOpen,
		domain.TicketStatusClaimed,
		domain.TicketStatusClosed,
		domain.TicketStatusClaimed,
		domain.TicketStatusClosed,
	}
	if len(history) != len(want) {
		t.Fatalf("history length = %d, want %d", len(history), len(want))
	}
	for i, entry := range history {
		if entry.NewStatus != want[i] {
			t.Fatalf("history[%d] = %s, want %s", i, entry.NewStatus, want[i])
		}
	}
	if history[0].ChangedBy != nil || history[0].OldStatus != nil {
		t.Fatalf("creation entry should have no actor or old status: %+v", history[0])
	}
}

func TestReopenRequiresClosed(t *testing.T) {
	f := newFixture(t)
	ticket := f.open(t)
	_, err := f.tickets.Reopen(context.Background(), f.tutor, ticket.ID)
	expectCode(t, err, apperrors.CodeConflict)
}

func TestMissingTicket(t *testing.T) {
	f := newFixture(t)
	_, err := f.tickets.Claim(context.Background(), f.tutor, 4242)
	expectCode(t, err, apperrors.CodeNotFound)
}

func TestAnonymousRejectedBeforeLookup(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ticket := f.open(t)

	for _, id := range []int64{ticket.ID, 4242} {
		_, err := f.tickets.Claim(ctx, auth.Anonymous, id)
		expectCode(t, err, apperrors.CodeForbidden)
		_, err = f.tickets.History(ctx, auth.Anonymous, id)
		expectCode(t, err, apperrors.CodeForbidden)
		_, err = f.tickets.Advance(ctx, auth.Anonymous, id)
		expectCode(t, err, apperrors.CodeForbidden)
	}
	_, err := f.tickets.Queue(ctx, auth.Anonymous)
	expectCode(t, err, apperrors.CodeForbidden)
	_, err = f.tickets.Pending(ctx, auth.Anonymous)
	expectCode(t, err, apperrors.CodeForbidden)
}

func TestClaimByUnknownTutorIsForbidden(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ticket := f.open(t)

	ghost := auth.Principal{Tutor: &domain.Tutor{Email: "ghost@unomaha.edu", IsActive: true, IsSuperuser: true}}
	_, err := f.tickets.Claim(ctx, ghost, ticket.ID)
	expectCode(t, err, apperrors.CodeForbidden)

	stored, err := f.store.Tickets().GetByID(ctx, ticket.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if stored.Status != domain.TicketStatusOpen || stored.ClaimedBy != nil {
		t.Fatalf("rejected claim changed the ticket: %+v", stored)
	}
}

func TestConcurrentClaimsHaveOneWinner(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ticket := f.open(t)

	const workers = 16
	var wg sync.WaitGroup
	var mu sync.Mutex
	wins, conflicts := 0, 0
	var winner string
	for i := 0; i < workers; i++ {
		actor := f.tutor
		if i%2 == 1 {
			actor = f.other
		}
		wg.Add(1)
		go func(actor auth.Principal) {
			defer wg.Done()
			_, err := f.tickets.Claim(ctx, actor, ticket.ID)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				wins++
				winner = actor.Tutor.Email
			case apperrors.IsCode(err, apperrors.CodeConflict):
				conflicts++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}(actor)
	}
	wg.Wait()

	if wins != 1 || conflicts != workers-1 {
		t.Fatalf("wins = %d, conflicts = %d", wins, conflicts)
	}

	stored, err := f.store.Tickets().GetByID(ctx, ticket.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if stored.Status != domain.TicketStatusClaimed || stored.ClaimedBy == nil || *stored.ClaimedBy != winner {
		t.Fatalf("stored claimant = %v, want winner %s", stored.ClaimedBy, winner)
	}
}

func TestAdvance(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ticket := f.open(t)

	got, err := f.tickets.Advance(ctx, f.tutor, ticket.ID)
	if err != nil || got.Status != domain.TicketStatusClaimed {
		t.Fatalf("first advance = %+v, %v", got, err)
	}
	got, err = f.tickets.Advance(ctx, f.tutor, ticket.ID)
	if err != nil || got.Status != domain.TicketStatusClosed {
		t.Fatalf("second advance = %+v, %v", got, err)
	}
	_, err = f.tickets.Advance(ctx, f.tutor, ticket.ID)
	expectCode(t, err, apperrors.CodeConflict)
}

func TestQueuePartitions(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	first := f.open(t)
	second := f.open(t)
	third := f.open(t)

	if _, err := f.tickets.Claim(ctx, f.tutor, second.ID); err != nil {
		t.Fatalf("claim: %v", err)
	}
	if _, err := f.tickets.Claim(ctx, f.tutor, third.ID); err != nil {
		t.Fatalf("claim: %v", err)
	}
	if _, err := f.tickets.Close(ctx, f.tutor, third.ID); err != nil {
		t.Fatalf("close: %v", err)
	}

	queue, err := f.tickets.Queue(ctx, f.tutor)
	if err != nil {
		t.Fatalf("queue: %v", err)
	}
	if len(queue.Open) != 1 || queue.Open[0].ID != first.ID {
		t.Fatalf("open bucket = %+v", queue.Open)
	}
	if len(queue.Claimed) != 1 || queue.Claimed[0].ID != second.ID {
		t.Fatalf("claimed bucket = %+v", queue.Claimed)
	}
	if len(queue.Closed) != 0 {
		t.Fatalf("closed tickets from the past should not be queued: %+v", queue.Closed)
	}

	pending, err := f.tickets.Pending(ctx, f.tutor)
	if err != nil {
		t.Fatalf("pending: %v", err)
	}
	if len(pending) != 1 || pending[0].ID != first.ID {
		t.Fatalf("pending = %+v", pending)
	}
}

func TestPartitionQueueTreatsEmptyAsOpen(t *testing.T) {
	q := PartitionQueue([]domain.Ticket{
		{ID: 1, Status: ""},
		{ID: 2, Status: domain.TicketStatusClaimed},
		{ID: 3, Status: domain.TicketStatusClosed},
		{ID: 4, Status: domain.TicketStatusOpen},
	})
	if len(q.Open) != 2 || q.Open[0].ID != 1 || q.Open[1].ID != 4 {
		t.Fatalf("open = %+v", q.Open)
	}
	if len(q.Claimed) != 1 || len(q.Closed) != 1 {
		t.Fatalf("claimed = %d closed = %d", len(q.Claimed), len(q.Closed))
	}
}

func TestAvailability(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.open(t)
	claimed := f.open(t)
	closed := f.open(t)
	if _, err := f.tickets.Claim(ctx, f.tutor, claimed.ID); err != nil {
		t.Fatalf("claim: %v", err)
	}
	if _, err := f.tickets.Claim(ctx, f.tutor, closed.ID); err != nil {
		t.Fatalf("claim: %v", err)
	}
	if _, err := f.tickets.Close(ctx, f.tutor, closed.ID); err != nil {
		t.Fatalf("close: %v", err)
	}

	hidden := domain.Course{Number: "CSCI 9999", Name: "Hidden", OnDisplay: false}
	if err := f.store.Catalog().SaveCourse(ctx, &hidden); err != nil {
		t.Fatalf("save course: %v", err)
	}
	hiddenSection := domain.Section{Number: "001", CourseID: hidden.ID, SemesterID: f.section.SemesterID}
	if err := f.store.Catalog().SaveSection(ctx, &hiddenSection); err != nil {
		t.Fatalf("save section: %v", err)
	}

	summary, err := f.availability.Summary(ctx)
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	if len(summary) != 1 {
		t.Fatalf("expected only the displayed course, got %+v", summary)
	}
	row := summary[0]
	// retired@ is inactive but still eligible for the course.
	if row.Course.ID != f.course.ID || row.Tickets != 2 || row.Tutors != 3 {
		t.Fatalf("unexpected availability row: %+v", row)
	}
}

func TestAvailabilitySkipsSectionsOutsideSemester(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	stale := domain.Ticket{
		StudentEmail:  "student@unomaha.edu",
		StudentFirst:  "Linus",
		StudentLast:   "Torvalds",
		SectionID:     f.pastSection.ID,
		ProblemTypeID: f.problem.ID,
		Question:      "left over from spring",
		Status:        domain.TicketStatusOpen,
	}
	if err := f.store.Tickets().Create(ctx, &stale); err != nil {
		t.Fatalf("create stale ticket: %v", err)
	}
	f.open(t)

	summary, err := f.availability.Summary(ctx)
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	if len(summary) != 1 || summary[0].Tickets != 1 {
		t.Fatalf("past-semester ticket counted: %+v", summary)
	}

	f.clock.Advance(90 * 24 * time.Hour)
	summary, err = f.availability.Summary(ctx)
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	if len(summary) != 0 {
		t.Fatalf("course listed after its semester ended: %+v", summary)
	}
}

func TestCatalogAdmin(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.catalog.List(ctx, f.tutor, domain.EntityCourse)
	expectCode(t, err, apperrors.CodeForbidden)

	saved, err := f.catalog.Save(ctx, f.admin, domain.EntitySemester, CatalogInput{
		Year: 2027, Season: "spring", StartDate: "2027-01-11", EndDate: "2027-05-14",
	})
	if err != nil {
		t.Fatalf("save semester: %v", err)
	}
	if sem := saved.(*domain.Semester); sem.ID == 0 || sem.Title() != "Spring 2027" {
		t.Fatalf("unexpected semester: %+v", sem)
	}

	_, err = f.catalog.Save(ctx, f.admin, domain.EntitySemester, CatalogInput{
		Year: 2027, Season: "Fall", StartDate: "2027-12-01", EndDate: "2027-08-01",
	})
	expectCode(t, err, apperrors.CodeValidation)

	_, err = f.catalog.Save(ctx, f.admin, domain.EntitySection, CatalogInput{Number: "002", CourseID: 999, SemesterID: f.section.SemesterID})
	expectCode(t, err, apperrors.CodeValidation)

	f.open(t)
	err = f.catalog.Delete(ctx, f.admin, domain.EntitySection, f.section.ID)
	expectCode(t, err, apperrors.CodeConflict)

	err = f.catalog.Delete(ctx, f.admin, domain.EntityProblemType, 999)
	expectCode(t, err, apperrors.CodeNotFound)

	list, err := f.catalog.List(ctx, f.admin, domain.EntitySemester)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if sems := list.([]domain.Semester); len(sems) != 3 {
		t.Fatalf("semesters = %d", len(sems))
	}
}

func TestOfferings(t *testing.T) {
	f := newFixture(t)
	offerings, err := f.catalog.Offerings(context.Background())
	if err != nil {
		t.Fatalf("offerings: %v", err)
	}
	if len(offerings.Courses) != 1 || len(offerings.Courses[0].Sections) != 1 {
		t.Fatalf("unexpected offerings: %+v", offerings.Courses)
	}
	if offerings.Courses[0].Sections[0].ID != f.section.ID {
		t.Fatalf("past-semester section offered")
	}
	if len(offerings.ProblemTypes) != 1 {
		t.Fatalf("problem types = %d", len(offerings.ProblemTypes))
	}
}

func TestTutorEditing(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.tutors.List(ctx, f.tutor)
	expectCode(t, err, apperrors.CodeForbidden)

	_, err = f.tutors.Get(ctx, f.tutor, "other@unomaha.edu")
	expectCode(t, err, apperrors.CodeForbidden)

	updated, err := f.tutors.Save(ctx, f.tutor, TutorInput{
		Email: "tutor@unomaha.edu", FirstName: "Grace", LastName: "Hopper",
		IsActive: true, IsSuperuser: true, CourseIDs: []int64{f.course.ID},
	})
	if err != nil {
		t.Fatalf("self save: %v", err)
	}
	if updated.IsSuperuser {
		t.Fatalf("non-superuser must not grant themselves superuser")
	}

	_, err = f.tutors.Save(ctx, f.tutor, TutorInput{Email: "new@unomaha.edu"})
	expectCode(t, err, apperrors.CodeForbidden)

	created, err := f.tutors.Save(ctx, f.admin, TutorInput{Email: "New@UNOmaha.edu", FirstName: "New", IsActive: true})
	if err != nil {
		t.Fatalf("admin create: %v", err)
	}
	if created.Email != "new@unomaha.edu" {
		t.Fatalf("email not normalized: %s", created.Email)
	}

	ticket := f.open(t)
	if _, err := f.tickets.Claim(ctx, f.other, ticket.ID); err != nil {
		t.Fatalf("claim: %v", err)
	}
	err = f.tutors.Delete(ctx, f.admin, "other@unomaha.edu")
	expectCode(t, err, apperrors.CodeConflict)

	if err := f.tutors.Delete(ctx, f.admin, "new@unomaha.edu"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	err = f.tutors.Delete(ctx, f.tutor, "retired@unomaha.edu")
	expectCode(t, err, apperrors.CodeForbidden)
}

func TestEnsureTutorIsIdempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	for i := 0; i < 2; i++ {
		if err := f.tutors.EnsureTutor(ctx, "test@unomaha.edu"); err != nil {
			t.Fatalf("ensure: %v", err)
		}
	}
	tutor, err := f.store.Tutors().GetByEmail(ctx, "test@unomaha.edu")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !tutor.IsActive || !tutor.IsSuperuser {
		t.Fatalf("debug tutor should be an active superuser: %+v", tutor)
	}
}
