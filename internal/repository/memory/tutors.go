package memory

import (
	"context"
	"sort"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/tutoring-portal/internal/domain"
	"github.com/spec-kit/tutoring-portal/internal/repository"
)

type tutorRepo struct {
	store *Store
}

func (r *tutorRepo) Create(_ context.Context, tutor *domain.Tutor) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.tutors[tutor.Email]; ok {
		return repository.ErrDuplicate
	}
	if err := s.checkCourses(tutor.CourseIDs); err != nil {
		return err
	}
	tutor.CreatedAt = s.now()
	tutor.UpdatedAt = tutor.CreatedAt
	s.tutors[tutor.Email] = normalizedTutor(*tutor)
	return nil
}

func (r *tutorRepo) Update(_ context.Context, tutor *domain.Tutor) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.tutors[tutor.Email]
	if !ok {
		return pgx.ErrNoRows
	}
	if err := s.checkCourses(tutor.CourseIDs); err != nil {
		return err
	}
	tutor.CreatedAt = existing.CreatedAt
	tutor.UpdatedAt = s.now()
	s.tutors[tutor.Email] = normalizedTutor(*tutor)
	return nil
}

// checkCourses must be called with mu held.
func (s *Store) checkCourses(ids []int64) error {
	for _, id := range ids {
		if _, ok := s.courses[id]; !ok {
			return repository.ErrReferenced
		}
	}
	return nil
}

// normalizedTutor stores course ids deduplicated and sorted, as the join
// table returns them.
func normalizedTutor(t domain.Tutor) domain.Tutor {
	seen := make(map[int64]bool, len(t.CourseIDs))
	ids := make([]int64, 0, len(t.CourseIDs))
	for _, id := range t.CourseIDs {
		if !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	t.CourseIDs = ids
	return t
}

func (r *tutorRepo) GetByEmail(_ context.Context, email string) (*domain.Tutor, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	tutor, ok := s.tutors[email]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	tutor = cloneTutor(tutor)
	return &tutor, nil
}

func (r *tutorRepo) List(_ context.Context) ([]domain.Tutor, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]domain.Tutor, 0, len(s.tutors))
	for _, tutor := range s.tutors {
		result = append(result, cloneTutor(tutor))
	}
	sort.Slice(result, func(i, j int) bool {
		a, b := result[i], result[j]
		if a.LastName != b.LastName {
			return a.LastName < b.LastName
		}
		if a.FirstName != b.FirstName {
			return a.FirstName < b.FirstName
		}
		return a.Email < b.Email
	})
	return result, nil
}

func (r *tutorRepo) Delete(_ context.Context, email string) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.tutors[email]; !ok {
		return pgx.ErrNoRows
	}
	for _, ticket := range s.tickets {
		if ticket.ClaimedBy != nil && *ticket.ClaimedBy == email {
			return repository.ErrReferenced
		}
	}
	for _, entry := range s.history {
		if entry.ChangedBy != nil && *entry.ChangedBy == email {
			return repository.ErrReferenced
		}
	}
	delete(s.tutors, email)
	return nil
}

func (r *tutorRepo) CountByCourse(_ context.Context, courseIDs []int64) (map[int64]int, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make(map[int64]int, len(courseIDs))
	for _, tutor := range s.tutors {
		for _, id := range courseIDs {
			if tutor.CanTutor(id) {
				result[id]++
			}
		}
	}
	return result, nil
}
