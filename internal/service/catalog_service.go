package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/tutoring-portal/internal/auth"
	"github.com/spec-kit/tutoring-portal/internal/domain"
	"github.com/spec-kit/tutoring-portal/internal/repository"
	apperrors "github.com/spec-kit/tutoring-portal/pkg/util/errorutil"
)

const dateLayout = "2006-01-02"

// CatalogInput carries the union of editable catalog fields. Each kind reads
// only its own fields; a zero ID creates a row.
type CatalogInput struct {
	ID int64

	Year      int
	Season    string
	StartDate string
	EndDate   string

	FirstName string
	LastName  string

	Number    string
	Name      string
	OnDisplay bool

	Time        string
	CourseID    int64
	SemesterID  int64
	ProfessorID *int64

	Description string
}

// CourseOffering is a course together with its sections open for tickets.
type CourseOffering struct {
	Course   domain.Course
	Sections []domain.Section
}

// Offerings is what a student may pick from when opening a ticket.
type Offerings struct {
	Courses      []CourseOffering
	ProblemTypes []domain.ProblemType
}

type entityOps struct {
	list func(ctx context.Context) (any, error)
	get  func(ctx context.Context, id int64) (any, error)
	save func(ctx context.Context, in CatalogInput) (any, error)
	del  func(ctx context.Context, id int64) error
}

// CatalogService administers semesters, professors, courses, sections and
// problem types.
type CatalogService struct {
	catalog repository.CatalogRepository
	ops     map[domain.EntityKind]entityOps
	now     func() time.Time
}

// NewCatalogService constructs the service.
func NewCatalogService(catalog repository.CatalogRepository, clock func() time.Time) *CatalogService {
	if clock == nil {
		clock = time.Now
	}
	s := &CatalogService{catalog: catalog, now: clock}
	s.ops = map[domain.EntityKind]entityOps{
		domain.EntitySemester: {
			list: func(ctx context.Context) (any, error) { return catalog.ListSemesters(ctx) },
			get:  func(ctx context.Context, id int64) (any, error) { return catalog.GetSemester(ctx, id) },
			save: s.saveSemester,
			del:  catalog.DeleteSemester,
		},
		domain.EntityProfessor: {
			list: func(ctx context.Context) (any, error) { return catalog.ListProfessors(ctx) },
			get:  func(ctx context.Context, id int64) (any, error) { return catalog.GetProfessor(ctx, id) },
			save: s.saveProfessor,
			del:  catalog.DeleteProfessor,
		},
		domain.EntityCourse: {
			list: func(ctx context.Context) (any, error) { return catalog.ListCourses(ctx) },
			get:  func(ctx context.Context, id int64) (any, error) { return catalog.GetCourse(ctx, id) },
			save: s.saveCourse,
			del:  catalog.DeleteCourse,
		},
		domain.EntitySection: {
			list: func(ctx context.Context) (any, error) { return catalog.ListSections(ctx) },
			get:  func(ctx context.Context, id int64) (any, error) { return catalog.GetSection(ctx, id) },
			save: s.saveSection,
			del:  catalog.DeleteSection,
		},
		domain.EntityProblemType: {
			list: func(ctx context.Context) (any, error) { return catalog.ListProblemTypes(ctx) },
			get:  func(ctx context.Context, id int64) (any, error) { return catalog.GetProblemType(ctx, id) },
			save: s.saveProblemType,
			del:  catalog.DeleteProblemType,
		},
	}
	return s
}

func (s *CatalogService) opsFor(actor auth.Principal, kind domain.EntityKind) (entityOps, error) {
	if !auth.IsSuperuser(actor) {
		return entityOps{}, apperrors.NewForbidden()
	}
	ops, ok := s.ops[kind]
	if !ok {
		return entityOps{}, apperrors.NewNotFound("entity kind", map[string]any{"kind": kind})
	}
	return ops, nil
}

// List returns every row of kind in its default order. The concrete type is
// a slice of the kind's domain type.
func (s *CatalogService) List(ctx context.Context, actor auth.Principal, kind domain.EntityKind) (any, error) {
	ops, err := s.opsFor(actor, kind)
	if err != nil {
		return nil, err
	}
	return ops.list(ctx)
}

// Get returns one row of kind.
func (s *CatalogService) Get(ctx context.Context, actor auth.Principal, kind domain.EntityKind, id int64) (any, error) {
	ops, err := s.opsFor(actor, kind)
	if err != nil {
		return nil, err
	}
	entity, err := ops.get(ctx, id)
	if err != nil {
		return nil, mapCatalogError(kind, id, err)
	}
	return entity, nil
}

// Save creates or updates a row of kind.
func (s *CatalogService) Save(ctx context.Context, actor auth.Principal, kind domain.EntityKind, in CatalogInput) (any, error) {
	ops, err := s.opsFor(actor, kind)
	if err != nil {
		return nil, err
	}
	entity, err := ops.save(ctx, in)
	if err != nil {
		return nil, mapCatalogError(kind, in.ID, err)
	}
	return entity, nil
}

// Delete removes a row of kind. Rows still referenced elsewhere are kept
// and reported as a conflict.
func (s *CatalogService) Delete(ctx context.Context, actor auth.Principal, kind domain.EntityKind, id int64) error {
	ops, err := s.opsFor(actor, kind)
	if err != nil {
		return err
	}
	return mapCatalogError(kind, id, ops.del(ctx, id))
}

func mapCatalogError(kind domain.EntityKind, id int64, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, pgx.ErrNoRows):
		return apperrors.NewNotFound(strings.TrimSuffix(string(kind), "s"), map[string]any{"id": id})
	case errors.Is(err, repository.ErrReferenced):
		return apperrors.NewConflict("row is still referenced", map[string]any{"kind": kind, "id": id})
	case errors.Is(err, repository.ErrDuplicate):
		return apperrors.NewConflict("row already exists", map[string]any{"kind": kind})
	}
	return err
}

func (s *CatalogService) saveSemester(ctx context.Context, in CatalogInput) (any, error) {
	details := map[string]any{}
	season, err := domain.ParseSeason(in.Season)
	if err != nil {
		details["season"] = "must be one of Spring, Summer, Fall, Winter"
	}
	if in.Year <= 0 {
		details["year"] = "required"
	}
	start, err := time.Parse(dateLayout, strings.TrimSpace(in.StartDate))
	if err != nil {
		details["start_date"] = "must be YYYY-MM-DD"
	}
	end, err := time.Parse(dateLayout, strings.TrimSpace(in.EndDate))
	if err != nil {
		details["end_date"] = "must be YYYY-MM-DD"
	}
	if len(details) == 0 && start.After(end) {
		details["end_date"] = "must not precede start_date"
	}
	if len(details) > 0 {
		return nil, apperrors.NewValidationError("invalid semester", details)
	}

	sem := &domain.Semester{ID: in.ID, Year: in.Year, Season: season, StartDate: start, EndDate: end}
	if err := s.catalog.SaveSemester(ctx, sem); err != nil {
		return nil, err
	}
	return sem, nil
}

func (s *CatalogService) saveProfessor(ctx context.Context, in CatalogInput) (any, error) {
	if err := requireFields(map[string]string{"first_name": in.FirstName, "last_name": in.LastName}); err != nil {
		return nil, err
	}
	prof := &domain.Professor{ID: in.ID, FirstName: strings.TrimSpace(in.FirstName), LastName: strings.TrimSpace(in.LastName)}
	if err := s.catalog.SaveProfessor(ctx, prof); err != nil {
		return nil, err
	}
	return prof, nil
}

func (s *CatalogService) saveCourse(ctx context.Context, in CatalogInput) (any, error) {
	if err := requireFields(map[string]string{"number": in.Number, "name": in.Name}); err != nil {
		return nil, err
	}
	course := &domain.Course{ID: in.ID, Number: strings.TrimSpace(in.Number), Name: strings.TrimSpace(in.Name), OnDisplay: in.OnDisplay}
	if err := s.catalog.SaveCourse(ctx, course); err != nil {
		return nil, err
	}
	return course, nil
}

func (s *CatalogService) saveSection(ctx context.Context, in CatalogInput) (any, error) {
	if err := requireFields(map[string]string{"number": in.Number}); err != nil {
		return nil, err
	}
	details := map[string]any{}
	if _, err := s.catalog.GetCourse(ctx, in.CourseID); err != nil {
		if !errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		details["course_id"] = "unknown course"
	}
	if _, err := s.catalog.GetSemester(ctx, in.SemesterID); err != nil {
		if !errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		details["semester_id"] = "unknown semester"
	}
	if in.ProfessorID != nil {
		if _, err := s.catalog.GetProfessor(ctx, *in.ProfessorID); err != nil {
			if !errors.Is(err, pgx.ErrNoRows) {
				return nil, err
			}
			details["professor_id"] = "unknown professor"
		}
	}
	if len(details) > 0 {
		return nil, apperrors.NewValidationError("invalid section", details)
	}

	sec := &domain.Section{
		ID:          in.ID,
		Number:      strings.TrimSpace(in.Number),
		Time:        strings.TrimSpace(in.Time),
		CourseID:    in.CourseID,
		SemesterID:  in.SemesterID,
		ProfessorID: in.ProfessorID,
	}
	if err := s.catalog.SaveSection(ctx, sec); err != nil {
		return nil, err
	}
	return sec, nil
}

func (s *CatalogService) saveProblemType(ctx context.Context, in CatalogInput) (any, error) {
	if err := requireFields(map[string]string{"description": in.Description}); err != nil {
		return nil, err
	}
	pt := &domain.ProblemType{ID: in.ID, Description: strings.TrimSpace(in.Description)}
	if err := s.catalog.SaveProblemType(ctx, pt); err != nil {
		return nil, err
	}
	return pt, nil
}

func requireFields(fields map[string]string) error {
	details := map[string]any{}
	for name, value := range fields {
		if strings.TrimSpace(value) == "" {
			details[name] = "required"
		}
	}
	if len(details) > 0 {
		return apperrors.NewValidationError("missing required fields", details)
	}
	return nil
}

// Offerings lists the courses and sections a student can open a ticket
// against today, plus every problem type.
func (s *CatalogService) Offerings(ctx context.Context) (Offerings, error) {
	sections, err := s.catalog.ListActiveSections(ctx, s.now())
	if err != nil {
		return Offerings{}, err
	}
	courses, err := s.catalog.ListCourses(ctx)
	if err != nil {
		return Offerings{}, err
	}
	problems, err := s.catalog.ListProblemTypes(ctx)
	if err != nil {
		return Offerings{}, err
	}

	byCourse := make(map[int64][]domain.Section)
	for _, sec := range sections {
		byCourse[sec.CourseID] = append(byCourse[sec.CourseID], sec)
	}
	result := Offerings{Courses: []CourseOffering{}, ProblemTypes: problems}
	for _, course := range courses {
		if secs, ok := byCourse[course.ID]; ok {
			result.Courses = append(result.Courses, CourseOffering{Course: course, Sections: secs})
		}
	}
	if result.ProblemTypes == nil {
		result.ProblemTypes = []domain.ProblemType{}
	}
	return result, nil
}
