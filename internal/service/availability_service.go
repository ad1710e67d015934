package service

import (
	"context"
	"time"

	"github.com/spec-kit/tutoring-portal/internal/domain"
	"github.com/spec-kit/tutoring-portal/internal/repository"
)

// CourseAvailability summarizes demand and staffing for one course.
type CourseAvailability struct {
	Course  domain.Course
	Tickets int
	Tutors  int
}

// AvailabilityService derives per-course counts for the public status feed.
type AvailabilityService struct {
	catalog repository.CatalogRepository
	tickets repository.TicketRepository
	tutors  repository.TutorRepository
	now     func() time.Time
}

// AvailabilityDependencies bundles repositories for the aggregator.
type AvailabilityDependencies struct {
	CatalogRepo repository.CatalogRepository
	TicketRepo  repository.TicketRepository
	TutorRepo   repository.TutorRepository
	Clock       func() time.Time
}

// NewAvailabilityService constructs the service.
func NewAvailabilityService(deps AvailabilityDependencies) *AvailabilityService {
	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	return &AvailabilityService{
		catalog: deps.CatalogRepo,
		tickets: deps.TicketRepo,
		tutors:  deps.TutorRepo,
		now:     clock,
	}
}

// Summary lists every displayed course with a section in an active semester,
// ordered by course number. Tickets counts pending tickets in those active
// sections; Tutors counts every tutor eligible for the course.
func (s *AvailabilityService) Summary(ctx context.Context) ([]CourseAvailability, error) {
	sections, err := s.catalog.ListActiveSections(ctx, s.now())
	if err != nil {
		return nil, err
	}
	courses, err := s.catalog.ListCourses(ctx)
	if err != nil {
		return nil, err
	}

	sectionIDs := make([]int64, 0, len(sections))
	sectionsByCourse := make(map[int64][]int64)
	for _, sec := range sections {
		sectionIDs = append(sectionIDs, sec.ID)
		sectionsByCourse[sec.CourseID] = append(sectionsByCourse[sec.CourseID], sec.ID)
	}

	displayed := make([]domain.Course, 0, len(courses))
	courseIDs := make([]int64, 0, len(courses))
	for _, course := range courses {
		if !course.OnDisplay {
			continue
		}
		if _, offered := sectionsByCourse[course.ID]; !offered {
			continue
		}
		displayed = append(displayed, course)
		courseIDs = append(courseIDs, course.ID)
	}

	pending, err := s.tickets.CountPendingBySection(ctx, sectionIDs)
	if err != nil {
		return nil, err
	}
	staffed, err := s.tutors.CountByCourse(ctx, courseIDs)
	if err != nil {
		return nil, err
	}

	result := make([]CourseAvailability, 0, len(displayed))
	for _, course := range displayed {
		var tickets int
		for _, sectionID := range sectionsByCourse[course.ID] {
			tickets += pending[sectionID]
		}
		result = append(result, CourseAvailability{
			Course:  course,
			Tickets: tickets,
			Tutors:  staffed[course.ID],
		})
	}
	return result, nil
}
