package memory

import (
	"context"
	"sort"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/tutoring-portal/internal/domain"
	"github.com/spec-kit/tutoring-portal/internal/repository"
)

type catalogRepo struct {
	store *Store
}

func (r *catalogRepo) ListSemesters(_ context.Context) ([]domain.Semester, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]domain.Semester, 0, len(s.semesters))
	for _, sem := range s.semesters {
		result = append(result, sem)
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Before(&result[j]) != result[j].Before(&result[i]) {
			return result[i].Before(&result[j])
		}
		return result[i].ID < result[j].ID
	})
	return result, nil
}

func (r *catalogRepo) GetSemester(_ context.Context, id int64) (*domain.Semester, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	sem, ok := s.semesters[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &sem, nil
}

func (r *catalogRepo) SaveSemester(_ context.Context, sem *domain.Semester) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	if sem.ID == 0 {
		sem.ID = s.next("semesters")
	} else if _, ok := s.semesters[sem.ID]; !ok {
		return pgx.ErrNoRows
	}
	s.semesters[sem.ID] = *sem
	return nil
}

func (r *catalogRepo) DeleteSemester(_ context.Context, id int64) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.semesters[id]; !ok {
		return pgx.ErrNoRows
	}
	for _, sec := range s.sections {
		if sec.SemesterID == id {
			return repository.ErrReferenced
		}
	}
	delete(s.semesters, id)
	return nil
}

func (r *catalogRepo) ListProfessors(_ context.Context) ([]domain.Professor, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]domain.Professor, 0, len(s.professors))
	for _, prof := range s.professors {
		result = append(result, prof)
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].LastName != result[j].LastName {
			return result[i].LastName < result[j].LastName
		}
		if result[i].FirstName != result[j].FirstName {
			return result[i].FirstName < result[j].FirstName
		}
		return result[i].ID < result[j].ID
	})
	return result, nil
}

func (r *catalogRepo) GetProfessor(_ context.Context, id int64) (*domain.Professor, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	prof, ok := s.professors[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &prof, nil
}

func (r *catalogRepo) SaveProfessor(_ context.Context, prof *domain.Professor) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	if prof.ID == 0 {
		prof.ID = s.next("professors")
	} else if _, ok := s.professors[prof.ID]; !ok {
		return pgx.ErrNoRows
	}
	s.professors[prof.ID] = *prof
	return nil
}

func (r *catalogRepo) DeleteProfessor(_ context.Context, id int64) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.professors[id]; !ok {
		return pgx.ErrNoRows
	}
	for _, sec := range s.sections {
		if sec.ProfessorID != nil && *sec.ProfessorID == id {
			return repository.ErrReferenced
		}
	}
	delete(s.professors, id)
	return nil
}

func (r *catalogRepo) ListCourses(_ context.Context) ([]domain.Course, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]domain.Course, 0, len(s.courses))
	for _, course := range s.courses {
		result = append(result, course)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Number < result[j].Number
	})
	return result, nil
}

func (r *catalogRepo) GetCourse(_ context.Context, id int64) (*domain.Course, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	course, ok := s.courses[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &course, nil
}

func (r *catalogRepo) SaveCourse(_ context.Context, course *domain.Course) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	if course.ID != 0 {
		if _, ok := s.courses[course.ID]; !ok {
			return pgx.ErrNoRows
		}
	}
	for _, other := range s.courses {
		if other.ID != course.ID && other.Number == course.Number {
			return repository.ErrDuplicate
		}
	}
	if course.ID == 0 {
		course.ID = s.next("courses")
	}
	s.courses[course.ID] = *course
	return nil
}

func (r *catalogRepo) DeleteCourse(_ context.Context, id int64) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.courses[id]; !ok {
		return pgx.ErrNoRows
	}
	for _, sec := range s.sections {
		if sec.CourseID == id {
			return repository.ErrReferenced
		}
	}
	for _, tutor := range s.tutors {
		if tutor.CanTutor(id) {
			return repository.ErrReferenced
		}
	}
	delete(s.courses, id)
	return nil
}

func (r *catalogRepo) ListSections(_ context.Context) ([]domain.Section, error) {
	return r.sectionsWhere(func(domain.Section) bool { return true }), nil
}

func (r *catalogRepo) ListActiveSections(_ context.Context, day time.Time) ([]domain.Section, error) {
	s := r.store
	return r.sectionsWhere(func(sec domain.Section) bool {
		sem, ok := s.semesters[sec.SemesterID]
		return ok && sem.ActiveOn(day)
	}), nil
}

func (r *catalogRepo) sectionsWhere(keep func(domain.Section) bool) []domain.Section {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []domain.Section
	for _, sec := range s.sections {
		if keep(sec) {
			sec.ProfessorID = cloneInt64(sec.ProfessorID)
			result = append(result, sec)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Number != result[j].Number {
			return result[i].Number < result[j].Number
		}
		return result[i].ID < result[j].ID
	})
	return result
}

func (r *catalogRepo) GetSection(_ context.Context, id int64) (*domain.Section, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	sec, ok := s.sections[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	sec.ProfessorID = cloneInt64(sec.ProfessorID)
	return &sec, nil
}

func (r *catalogRepo) SaveSection(_ context.Context, sec *domain.Section) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	if sec.ID != 0 {
		if _, ok := s.sections[sec.ID]; !ok {
			return pgx.ErrNoRows
		}
	}
	if _, ok := s.courses[sec.CourseID]; !ok {
		return repository.ErrReferenced
	}
	if _, ok := s.semesters[sec.SemesterID]; !ok {
		return repository.ErrReferenced
	}
	if sec.ProfessorID != nil {
		if _, ok := s.professors[*sec.ProfessorID]; !ok {
			return repository.ErrReferenced
		}
	}
	if sec.ID == 0 {
		sec.ID = s.next("sections")
	}
	stored := *sec
	stored.ProfessorID = cloneInt64(sec.ProfessorID)
	s.sections[sec.ID] = stored
	return nil
}

func (r *catalogRepo) DeleteSection(_ context.Context, id int64) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sections[id]; !ok {
		return pgx.ErrNoRows
	}
	for _, ticket := range s.tickets {
		if ticket.SectionID == id {
			return repository.ErrReferenced
		}
	}
	delete(s.sections, id)
	return nil
}

func (r *catalogRepo) ListProblemTypes(_ context.Context) ([]domain.ProblemType, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]domain.ProblemType, 0, len(s.problems))
	for _, pt := range s.problems {
		result = append(result, pt)
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Description != result[j].Description {
			return result[i].Description < result[j].Description
		}
		return result[i].ID < result[j].ID
	})
	return result, nil
}

func (r *catalogRepo) GetProblemType(_ context.Context, id int64) (*domain.ProblemType, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	pt, ok := s.problems[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &pt, nil
}

func (r *catalogRepo) SaveProblemType(_ context.Context, pt *domain.ProblemType) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	if pt.ID == 0 {
		pt.ID = s.next("problem_types")
	} else if _, ok := s.problems[pt.ID]; !ok {
		return pgx.ErrNoRows
	}
	s.problems[pt.ID] = *pt
	return nil
}

func (r *catalogRepo) DeleteProblemType(_ context.Context, id int64) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.problems[id]; !ok {
		return pgx.ErrNoRows
	}
	for _, ticket := range s.tickets {
		if ticket.ProblemTypeID == id {
			return repository.ErrReferenced
		}
	}
	delete(s.problems, id)
	return nil
}
