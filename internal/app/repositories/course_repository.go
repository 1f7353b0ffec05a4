package repositories

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/mirea/edupulse/internal/app/models"
	"github.com/mirea/edupulse/internal/pkg/apperrors"
	"github.com/mirea/edupulse/internal/pkg/dberrors"
)

// CourseRepository handles courses, teachers, their links and the timetable
type CourseRepository struct {
	db *pgxpool.Pool
}

// NewCourseRepository creates a new course repository
func NewCourseRepository(db *pgxpool.Pool) *CourseRepository {
	return &CourseRepository{db: db}
}

var (
	courseColumns  = []string{"id", "name", "COALESCE(code, '')", "credits", "semester", "created_at"}
	teacherColumns = []string{"id", "name", "COALESCE(email, '')", "department", "created_at"}
)

func scanCourse(row pgx.Row) (models.Course, error) {
	var c models.Course
	err := row.Scan(&c.ID, &c.Name, &c.Code, &c.Credits, &c.Semester, &c.CreatedAt)
	return c, err
}

func scanTeacher(row pgx.Row) (models.Teacher, error) {
	var t models.Teacher
	err := row.Scan(&t.ID, &t.Name, &t.Email, &t.Department, &t.CreatedAt)
	return t, err
}

// GetCourseByID retrieves a course by ID
func (r *CourseRepository) GetCourseByID(ctx context.Context, id int64) (*models.Course, error) {
	sqlStr, args, err := psql.Select(courseColumns...).From("courses").Where(squirrel.Eq{"id": id}).ToSql()
	if err != nil {
		return nil, err
	}
	c, err := scanCourse(r.db.QueryRow(ctx, sqlStr, args...))
	if err != nil {
		if dberrors.IsNoRows(err) {
			return nil, apperrors.NewNotFoundError(apperrors.ErrCourseNotFound, id)
		}
		return nil, fmt.Errorf("error retrieving course: %w", err)
	}
	return &c, nil
}

// ListCourses returns the given courses, or all of them when ids is nil
func (r *CourseRepository) ListCourses(ctx context.Context, ids []int64) ([]models.Course, error) {
	b := psql.Select(courseColumns...).From("courses").OrderBy("id")
	if ids != nil {
		b = b.Where(squirrel.Eq{"id": ids})
	}
	sqlStr, args, err := b.ToSql()
	if err != nil {
		return nil, err
	}
	rows, err := r.db.Query(ctx, sqlStr, args...)
	if err != nil {
		return nil, fmt.Errorf("error listing courses: %w", err)
	}
	defer rows.Close()
	courses := []models.Course{}
	for rows.Next() {
		c, err := scanCourse(rows)
		if err != nil {
			return nil, err
		}
		courses = append(courses, c)
	}
	return courses, rows.Err()
}

// CourseIDsForTeacher returns the courses a teacher is linked to
func (r *CourseRepository) CourseIDsForTeacher(ctx context.Context, teacherID int64) ([]int64, error) {
	return selectInt64s(ctx, r.db, psql.Select("course_id").From("course_teachers").
		Where(squirrel.Eq{"teacher_id": teacherID}).OrderBy("course_id"))
}

// ListCourseTeachers returns course-teacher links for the courses, or all links when courseIDs is nil
func (r *CourseRepository) ListCourseTeachers(ctx context.Context, courseIDs []int64) ([]models.CourseTeacher, error) {
	b := psql.Select("course_id", "teacher_id").From("course_teachers").OrderBy("course_id", "teacher_id")
	if courseIDs != nil {
		b = b.Where(squirrel.Eq{"course_id": courseIDs})
	}
	sqlStr, args, err := b.ToSql()
	if err != nil {
		return nil, err
	}
	rows, err := r.db.Query(ctx, sqlStr, args...)
	if err != nil {
		return nil, fmt.Errorf("error listing course teachers: %w", err)
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (models.CourseTeacher, error) {
		var ct models.CourseTeacher
		err := row.Scan(&ct.CourseID, &ct.TeacherID)
		return ct, err
	})
}

// GetTeacherByID retrieves a teacher by ID
func (r *CourseRepository) GetTeacherByID(ctx context.Context, id int64) (*models.Teacher, error) {
	sqlStr, args, err := psql.Select(teacherColumns...).From("teachers").Where(squirrel.Eq{"id": id}).ToSql()
	if err != nil {
		return nil, err
	}
	t, err := scanTeacher(r.db.QueryRow(ctx, sqlStr, args...))
	if err != nil {
		if dberrors.IsNoRows(err) {
			return nil, apperrors.NewNotFoundError(apperrors.ErrTeacherNotFound, id)
		}
		return nil, fmt.Errorf("error retrieving teacher: %w", err)
	}
	return &t, nil
}

// ListTeachers returns the given teachers, or all of them when ids is nil
func (r *CourseRepository) ListTeachers(ctx context.Context, ids []int64) ([]models.Teacher, error) {
	b := psql.Select(teacherColumns...).From("teachers").OrderBy("id")
	if ids != nil {
		b = b.Where(squirrel.Eq{"id": ids})
	}
	sqlStr, args, err := b.ToSql()
	if err != nil {
		return nil, err
	}
	rows, err := r.db.Query(ctx, sqlStr, args...)
	if err != nil {
		return nil, fmt.Errorf("error listing teachers: %w", err)
	}
	defer rows.Close()
	teachers := []models.Teacher{}
	for rows.Next() {
		t, err := scanTeacher(rows)
		if err != nil {
			return nil, err
		}
		teachers = append(teachers, t)
	}
	return teachers, rows.Err()
}

// ListSchedule returns timetable slots, optionally narrowed by courses and group
func (r *CourseRepository) ListSchedule(ctx context.Context, courseIDs []int64, groupName string) ([]models.ScheduleEntry, error) {
	b := psql.Select("id", "course_id", "teacher_id", "group_name", "day_of_week", "start_time", "end_time", "room", "type").
		From("schedule").OrderBy("day_of_week", "start_time", "id")
	if courseIDs != nil {
		b = b.Where(squirrel.Eq{"course_id": courseIDs})
	}
	if groupName != "" {
		b = b.Where(squirrel.Eq{"group_name": groupName})
	}
	sqlStr, args, err := b.ToSql()
	if err != nil {
		return nil, err
	}
	rows, err := r.db.Query(ctx, sqlStr, args...)
	if err != nil {
		return nil, fmt.Errorf("error listing schedule: %w", err)
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (models.ScheduleEntry, error) {
		var e models.ScheduleEntry
		err := row.Scan(&e.ID, &e.CourseID, &e.TeacherID, &e.GroupName, &e.DayOfWeek, &e.StartTime, &e.EndTime, &e.Room, &e.Type)
		return e, err
	})
}

// CreateCourse inserts a course and fills in its id
func (r *CourseRepository) CreateCourse(ctx context.Context, c *models.Course) error {
	var code any
	if c.Code != "" {
		code = c.Code
	}
	sqlStr, args, err := psql.Insert("courses").
		Columns("name", "code", "credits", "semester").
		Values(c.Name, code, c.Credits, c.Semester).
		Suffix("RETURNING id, created_at").ToSql()
	if err != nil {
		return err
	}
	if err := r.db.QueryRow(ctx, sqlStr, args...).Scan(&c.ID, &c.CreatedAt); err != nil {
		if dberrors.IsDuplicateConstraintError(err, "courses_code_key") {
			return apperrors.NewConflictError(fmt.Sprintf("course code %q already exists", c.Code))
		}
		return fmt.Errorf("error creating course: %w", err)
	}
	return nil
}

// CreateTeacher inserts a teacher and fills in its id
func (r *CourseRepository) CreateTeacher(ctx context.Context, t *models.Teacher) error {
	var email any
	if t.Email != "" {
		email = t.Email
	}
	sqlStr, args, err := psql.Insert("teachers").
		Columns("name", "email", "department").
		Values(t.Name, email, t.Department).
		Suffix("RETURNING id, created_at").ToSql()
	if err != nil {
		return err
	}
	if err := r.db.QueryRow(ctx, sqlStr, args...).Scan(&t.ID, &t.CreatedAt); err != nil {
		if dberrors.IsDuplicateConstraintError(err, "teachers_email_key") {
			return apperrors.ErrEmailAlreadyExists
		}
		return fmt.Errorf("error creating teacher: %w", err)
	}
	return nil
}

// LinkCourseTeacher assigns a teacher to a course; an existing link is left as is
func (r *CourseRepository) LinkCourseTeacher(ctx context.Context, link models.CourseTeacher) error {
	sqlStr, args, err := psql.Insert("course_teachers").
		Columns("course_id", "teacher_id").
		Values(link.CourseID, link.TeacherID).
		Suffix("ON CONFLICT DO NOTHING").ToSql()
	if err != nil {
		return err
	}
	if _, err := r.db.Exec(ctx, sqlStr, args...); err != nil {
		if dberrors.IsForeignKeyViolation(err) {
			return apperrors.NewResourceNotFoundError("course or teacher not found")
		}
		return fmt.Errorf("error linking course teacher: %w", err)
	}
	return nil
}
