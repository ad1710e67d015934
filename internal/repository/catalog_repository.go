package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/tutoring-portal/internal/domain"
)

// CatalogRepository persists the administrable catalog. Save inserts when the
// ID is zero and updates otherwise.
type CatalogRepository interface {
	ListSemesters(ctx context.Context) ([]domain.Semester, error)
	GetSemester(ctx context.Context, id int64) (*domain.Semester, error)
	SaveSemester(ctx context.Context, semester *domain.Semester) error
	DeleteSemester(ctx context.Context, id int64) error

	ListProfessors(ctx context.Context) ([]domain.Professor, error)
	GetProfessor(ctx context.Context, id int64) (*domain.Professor, error)
	SaveProfessor(ctx context.Context, professor *domain.Professor) error
	DeleteProfessor(ctx context.Context, id int64) error

	ListCourses(ctx context.Context) ([]domain.Course, error)
	GetCourse(ctx context.Context, id int64) (*domain.Course, error)
	SaveCourse(ctx context.Context, course *domain.Course) error
	DeleteCourse(ctx context.Context, id int64) error

	ListSections(ctx context.Context) ([]domain.Section, error)
	GetSection(ctx context.Context, id int64) (*domain.Section, error)
	SaveSection(ctx context.Context, section *domain.Section) error
	DeleteSection(ctx context.Context, id int64) error
	// ListActiveSections returns sections whose semester window contains day.
	ListActiveSections(ctx context.Context, day time.Time) ([]domain.Section, error)

	ListProblemTypes(ctx context.Context) ([]domain.ProblemType, error)
	GetProblemType(ctx context.Context, id int64) (*domain.ProblemType, error)
	SaveProblemType(ctx context.Context, problem *domain.ProblemType) error
	DeleteProblemType(ctx context.Context, id int64) error
}

type catalogRepository struct {
	pool *pgxpool.Pool
}

// NewCatalogRepository builds the repository.
func NewCatalogRepository(pool *pgxpool.Pool) CatalogRepository {
	return &catalogRepository{pool: pool}
}

func (r *catalogRepository) exec(ctx context.Context, query string, args ...any) error {
	cmd, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return mapWriteError(err)
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *catalogRepository) ListSemesters(ctx context.Context) ([]domain.Semester, error) {
	const query = `
        SELECT id, year, season, start_date, end_date
        FROM semesters
        ORDER BY year, CASE season WHEN 'SPRING' THEN 0 WHEN 'SUMMER' THEN 1 WHEN 'FALL' THEN 2 ELSE 3 END`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Semester
	for rows.Next() {
		var sem domain.Semester
		if err := rows.Scan(&sem.ID, &sem.Year, &sem.Season, &sem.StartDate, &sem.EndDate); err != nil {
			return nil, err
		}
		result = append(result, sem)
	}
	return result, rows.Err()
}

func (r *catalogRepository) GetSemester(ctx context.Context, id int64) (*domain.Semester, error) {
	const query = `SELECT id, year, season, start_date, end_date FROM semesters WHERE id=$1`
	var sem domain.Semester
	if err := r.pool.QueryRow(ctx, query, id).Scan(&sem.ID, &sem.Year, &sem.Season, &sem.StartDate, &sem.EndDate); err != nil {
		return nil, err
	}
	return &sem, nil
}

func (r *catalogRepository) SaveSemester(ctx context.Context, sem *domain.Semester) error {
	if sem.ID == 0 {
		const query = `
            INSERT INTO semesters (year, season, start_date, end_date)
            VALUES ($1,$2,$3,$4) RETURNING id`
		return r.pool.QueryRow(ctx, query, sem.Year, string(sem.Season), sem.StartDate, sem.EndDate).Scan(&sem.ID)
	}
	const query = `UPDATE semesters SET year=$1, season=$2, start_date=$3, end_date=$4 WHERE id=$5`
	return r.exec(ctx, query, sem.Year, string(sem.Season), sem.StartDate, sem.EndDate, sem.ID)
}

func (r *catalogRepository) DeleteSemester(ctx context.Context, id int64) error {
	return r.exec(ctx, `DELETE FROM semesters WHERE id=$1`, id)
}

func (r *catalogRepository) ListProfessors(ctx context.Context) ([]domain.Professor, error) {
	const query = `SELECT id, first_name, last_name FROM professors ORDER BY last_name, first_name`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Professor
	for rows.Next() {
		var prof domain.Professor
		if err := rows.Scan(&prof.ID, &prof.FirstName, &prof.LastName); err != nil {
			return nil, err
		}
		result = append(result, prof)
	}
	return result, rows.Err()
}

func (r *catalogRepository) GetProfessor(ctx context.Context, id int64) (*domain.Professor, error) {
	const query = `SELECT id, first_name, last_name FROM professors WHERE id=$1`
	var prof domain.Professor
	if err := r.pool.QueryRow(ctx, query, id).Scan(&prof.ID, &prof.FirstName, &prof.LastName); err != nil {
		return nil, err
	}
	return &prof, nil
}

func (r *catalogRepository) SaveProfessor(ctx context.Context, prof *domain.Professor) error {
	if prof.ID == 0 {
		const query = `INSERT INTO professors (first_name, last_name) VALUES ($1,$2) RETURNING id`
		return r.pool.QueryRow(ctx, query, prof.FirstName, prof.LastName).Scan(&prof.ID)
	}
	return r.exec(ctx, `UPDATE professors SET first_name=$1, last_name=$2 WHERE id=$3`, prof.FirstName, prof.LastName, prof.ID)
}

func (r *catalogRepository) DeleteProfessor(ctx context.Context, id int64) error {
	return r.exec(ctx, `DELETE FROM professors WHERE id=$1`, id)
}

func (r *catalogRepository) ListCourses(ctx context.Context) ([]domain.Course, error) {
	const query = `SELECT id, number, name, on_display FROM courses ORDER BY number`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Course
	for rows.Next() {
		var course domain.Course
		if err := rows.Scan(&course.ID, &course.Number, &course.Name, &course.OnDisplay); err != nil {
			return nil, err
		}
		result = append(result, course)
	}
	return result, rows.Err()
}

func (r *catalogRepository) GetCourse(ctx context.Context, id int64) (*domain.Course, error) {
	const query = `SELECT id, number, name, on_display FROM courses WHERE id=$1`
	var course domain.Course
	if err := r.pool.QueryRow(ctx, query, id).Scan(&course.ID, &course.Number, &course.Name, &course.OnDisplay); err != nil {
		return nil, err
	}
	return &course, nil
}

func (r *catalogRepository) SaveCourse(ctx context.Context, course *domain.Course) error {
	if course.ID == 0 {
		const query = `INSERT INTO courses (number, name, on_display) VALUES ($1,$2,$3) RETURNING id`
		err := r.pool.QueryRow(ctx, query, course.Number, course.Name, course.OnDisplay).Scan(&course.ID)
		return mapWriteError(err)
	}
	return r.exec(ctx, `UPDATE courses SET number=$1, name=$2, on_display=$3 WHERE id=$4`,
		course.Number, course.Name, course.OnDisplay, course.ID)
}

func (r *catalogRepository) DeleteCourse(ctx context.Context, id int64) error {
	return r.exec(ctx, `DELETE FROM courses WHERE id=$1`, id)
}

const sectionColumns = `s.id, s.number, s.time, s.course_id, s.semester_id, s.professor_id`

func (r *catalogRepository) ListSections(ctx context.Context) ([]domain.Section, error) {
	query := `SELECT ` + sectionColumns + ` FROM sections s ORDER BY s.number, s.id`
	return r.querySections(ctx, query)
}

func (r *catalogRepository) ListActiveSections(ctx context.Context, day time.Time) ([]domain.Section, error) {
	query := `SELECT ` + sectionColumns + `
             FROM sections s
             JOIN semesters sem ON sem.id = s.semester_id
             WHERE sem.start_date <= $1::date AND sem.end_date >= $1::date
             ORDER BY s.number, s.id`
	return r.querySections(ctx, query, domain.DateOf(day))
}

func (r *catalogRepository) querySections(ctx context.Context, query string, args ...any) ([]domain.Section, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Section
	for rows.Next() {
		var sec domain.Section
		if err := rows.Scan(&sec.ID, &sec.Number, &sec.Time, &sec.CourseID, &sec.SemesterID, &sec.ProfessorID); err != nil {
			return nil, err
		}
		result = append(result, sec)
	}
	return result, rows.Err()
}

func (r *catalogRepository) GetSection(ctx context.Context, id int64) (*domain.Section, error) {
	query := `SELECT ` + sectionColumns + ` FROM sections s WHERE s.id=$1`
	var sec domain.Section
	if err := r.pool.QueryRow(ctx, query, id).Scan(&sec.ID, &sec.Number, &sec.Time, &sec.CourseID, &sec.SemesterID, &sec.ProfessorID); err != nil {
		return nil, err
	}
	return &sec, nil
}

func (r *catalogRepository) SaveSection(ctx context.Context, sec *domain.Section) error {
	if sec.ID == 0 {
		const query = `
            INSERT INTO sections (number, time, course_id, semester_id, professor_id)
            VALUES ($1,$2,$3,$4,$5) RETURNING id`
		err := r.pool.QueryRow(ctx, query, sec.Number, sec.Time, sec.CourseID, sec.SemesterID, sec.ProfessorID).Scan(&sec.ID)
		return mapWriteError(err)
	}
	const query = `UPDATE sections SET number=$1, time=$2, course_id=$3, semester_id=$4, professor_id=$5 WHERE id=$6`
	return r.exec(ctx, query, sec.Number, sec.Time, sec.CourseID, sec.SemesterID, sec.ProfessorID, sec.ID)
}

func (r *catalogRepository) DeleteSection(ctx context.Context, id int64) error {
	return r.exec(ctx, `DELETE FROM sections WHERE id=$1`, id)
}

func (r *catalogRepository) ListProblemTypes(ctx context.Context) ([]domain.ProblemType, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, description FROM problem_types ORDER BY description`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.ProblemType
	for rows.Next() {
		var pt domain.ProblemType
		if err := rows.Scan(&pt.ID, &pt.Description); err != nil {
			return nil, err
		}
		result = append(result, pt)
	}
	return result, rows.Err()
}

func (r *catalogRepository) GetProblemType(ctx context.Context, id int64) (*domain.ProblemType, error) {
	var pt domain.ProblemType
	if err := r.pool.QueryRow(ctx, `SELECT id, description FROM problem_types WHERE id=$1`, id).Scan(&pt.ID, &pt.Description); err != nil {
		return nil, err
	}
	return &pt, nil
}

func (r *catalogRepository) SaveProblemType(ctx context.Context, pt *domain.ProblemType) error {
	if pt.ID == 0 {
		return r.pool.QueryRow(ctx, `INSERT INTO problem_types (description) VALUES ($1) RETURNING id`, pt.Description).Scan(&pt.ID)
	}
	return r.exec(ctx, `UPDATE problem_types SET description=$1 WHERE id=$2`, pt.Description, pt.ID)
}

func (r *catalogRepository) DeleteProblemType(ctx context.Context, id int64) error {
	return r.exec(ctx, `DELETE FROM problem_types WHERE id=$1`, id)
}
