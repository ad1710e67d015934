package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/tutoring-portal/internal/domain"
)

// TutorRepository handles persistence for tutor accounts and their course
// eligibility.
type TutorRepository interface {
	Create(ctx context.Context, tutor *domain.Tutor) error
	Update(ctx context.Context, tutor *domain.Tutor) error
	GetByEmail(ctx context.Context, email string) (*domain.Tutor, error)
	List(ctx context.Context) ([]domain.Tutor, error)
	Delete(ctx context.Context, email string) error
	CountByCourse(ctx context.Context, courseIDs []int64) (map[int64]int, error)
}

type tutorRepository struct {
	pool *pgxpool.Pool
}

// NewTutorRepository instantiates the repository.
func NewTutorRepository(pool *pgxpool.Pool) TutorRepository {
	return &tutorRepository{pool: pool}
}

func (r *tutorRepository) Create(ctx context.Context, tutor *domain.Tutor) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	const query = `
        INSERT INTO tutors (email, first_name, last_name, is_active, is_superuser)
        VALUES ($1,$2,$3,$4,$5)
        RETURNING created_at, updated_at`
	if err := tx.QueryRow(ctx, query,
		tutor.Email,
		tutor.FirstName,
		tutor.LastName,
		tutor.IsActive,
		tutor.IsSuperuser,
	).Scan(&tutor.CreatedAt, &tutor.UpdatedAt); err != nil {
		return mapWriteError(err)
	}
	if err := replaceCourses(ctx, tx, tutor.Email, tutor.CourseIDs); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (r *tutorRepository) Update(ctx context.Context, tutor *domain.Tutor) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	const query = `
        UPDATE tutors SET first_name=$1, last_name=$2, is_active=$3, is_superuser=$4, updated_at=NOW()
        WHERE email=$5
        RETURNING created_at, updated_at`
	if err := tx.QueryRow(ctx, query,
		tutor.FirstName,
		tutor.LastName,
		tutor.IsActive,
		tutor.IsSuperuser,
		tutor.Email,
	).Scan(&tutor.CreatedAt, &tutor.UpdatedAt); err != nil {
		return err
	}
	if err := replaceCourses(ctx, tx, tutor.Email, tutor.CourseIDs); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func replaceCourses(ctx context.Context, tx pgx.Tx, email string, courseIDs []int64) error {
	if _, err := tx.Exec(ctx, `DELETE FROM tutor_courses WHERE tutor_email=$1`, email); err != nil {
		return err
	}
	for _, courseID := range courseIDs {
		const query = `INSERT INTO tutor_courses (tutor_email, course_id) VALUES ($1,$2) ON CONFLICT DO NOTHING`
		if _, err := tx.Exec(ctx, query, email, courseID); err != nil {
			return mapWriteError(err)
		}
	}
	return nil
}

const tutorColumns = `t.email, t.first_name, t.last_name, t.is_active, t.is_superuser, t.created_at, t.updated_at,
               COALESCE(ARRAY(SELECT tc.course_id FROM tutor_courses tc WHERE tc.tutor_email = t.email ORDER BY tc.course_id), '{}')`

func (r *tutorRepository) GetByEmail(ctx context.Context, email string) (*domain.Tutor, error) {
	query := `SELECT ` + tutorColumns + ` FROM tutors t WHERE t.email=$1`
	return scanTutor(r.pool.QueryRow(ctx, query, email))
}

func (r *tutorRepository) List(ctx context.Context) ([]domain.Tutor, error) {
	query := `SELECT ` + tutorColumns + ` FROM tutors t ORDER BY t.last_name, t.first_name, t.email`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Tutor
	for rows.Next() {
		tutor, err := scanTutor(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *tutor)
	}
	return result, rows.Err()
}

func (r *tutorRepository) Delete(ctx context.Context, email string) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM tutors WHERE email=$1`, email)
	if err != nil {
		return mapWriteError(err)
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *tutorRepository) CountByCourse(ctx context.Context, courseIDs []int64) (map[int64]int, error) {
	result := make(map[int64]int, len(courseIDs))
	if len(courseIDs) == 0 {
		return result, nil
	}
	const query = `
        SELECT course_id, COUNT(*)
        FROM tutor_courses
        WHERE course_id = ANY($1)
        GROUP BY course_id`
	rows, err := r.pool.Query(ctx, query, courseIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var courseID int64
		var count int
		if err := rows.Scan(&courseID, &count); err != nil {
			return nil, err
		}
		result[courseID] = count
	}
	return result, rows.Err()
}

func scanTutor(row pgx.Row) (*domain.Tutor, error) {
	var tutor domain.Tutor
	if err := row.Scan(
		&tutor.Email,
		&tutor.FirstName,
		&tutor.LastName,
		&tutor.IsActive,
		&tutor.IsSuperuser,
		&tutor.CreatedAt,
		&tutor.UpdatedAt,
		&tutor.CourseIDs,
	); err != nil {
		return nil, err
	}
	return &tutor, nil
}
