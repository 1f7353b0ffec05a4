package repositories

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/mirea/edupulse/internal/app/models"
	"github.com/mirea/edupulse/internal/db"
	"github.com/mirea/edupulse/internal/pkg/apperrors"
	"github.com/mirea/edupulse/internal/pkg/dberrors"
	"github.com/mirea/edupulse/internal/pkg/logger"
)

var studentColumns = []string{"id", "name", "COALESCE(email, '')", "group_id", "group_name", "year", "is_headman", "created_at"}

// StudentRepository handles database operations for students
type StudentRepository struct {
	db *pgxpool.Pool
}

// NewStudentRepository creates a new student repository
func NewStudentRepository(db *pgxpool.Pool) *StudentRepository {
	return &StudentRepository{db: db}
}

func scanStudent(row pgx.Row) (models.Student, error) {
	var s models.Student
	err := row.Scan(&s.ID, &s.Name, &s.Email, &s.GroupID, &s.GroupName, &s.Year, &s.IsHeadman, &s.CreatedAt)
	return s, err
}

func collectStudents(rows pgx.Rows) ([]models.Student, error) {
	defer rows.Close()
	var out []models.Student
	for rows.Next() {
		s, err := scanStudent(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// GetStudentByID retrieves a student by ID
func (r *StudentRepository) GetStudentByID(ctx context.Context, id int64) (*models.Student, error) {
	return getStudentByID(ctx, r.db, id, false)
}

func getStudentByID(ctx context.Context, q querier, id int64, forUpdate bool) (*models.Student, error) {
	b := psql.Select(studentColumns...).From("students").Where(squirrel.Eq{"id": id})
	if forUpdate {
		b = b.Suffix("FOR UPDATE")
	}
	sqlStr, args, err := b.ToSql()
	if err != nil {
		return nil, err
	}
	s, err := scanStudent(q.QueryRow(ctx, sqlStr, args...))
	if err != nil {
		if dberrors.IsNoRows(err) {
			return nil, apperrors.NewNotFoundError(apperrors.ErrStudentNotFound, id)
		}
		return nil, fmt.Errorf("error retrieving student: %w", err)
	}
	return &s, nil
}

// GetStudentsByIDs returns the existing students among ids, ordered by id.
func (r *StudentRepository) GetStudentsByIDs(ctx context.Context, ids []int64) ([]models.Student, error) {
	if len(ids) == 0 {
		return []models.Student{}, nil
	}
	students, _, err := r.ListStudents(ctx, models.StudentFilter{IDs: ids})
	return students, err
}

func applyStudentFilter(b squirrel.SelectBuilder, f models.StudentFilter) squirrel.SelectBuilder {
	if f.IDs != nil {
		b = b.Where(squirrel.Eq{"id": f.IDs})
	}
	if f.GroupNames != nil {
		b = b.Where(squirrel.Eq{"group_name": f.GroupNames})
	}
	if f.GroupPrefix != "" {
		b = b.Where(squirrel.ILike{"group_name": f.GroupPrefix + "-%"})
	}
	return b
}

// ListStudents returns a filtered page of students and the total match count.
func (r *StudentRepository) ListStudents(ctx context.Context, f models.StudentFilter) ([]models.Student, int64, error) {
	countSQL, countArgs, err := applyStudentFilter(psql.Select("COUNT(*)").From("students"), f).ToSql()
	if err != nil {
		return nil, 0, err
	}
	var total int64
	if err := r.db.QueryRow(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("error counting students: %w", err)
	}

	b := applyStudentFilter(psql.Select(studentColumns...).From("students"), f).OrderBy("id")
	if f.Limit > 0 {
		b = b.Limit(f.Limit).Offset(f.Offset)
	}
	sqlStr, args, err := b.ToSql()
	if err != nil {
		return nil, 0, err
	}
	rows, err := r.db.Query(ctx, sqlStr, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("error listing students: %w", err)
	}
	students, err := collectStudents(rows)
	if err != nil {
		return nil, 0, err
	}
	if students == nil {
		students = []models.Student{}
	}
	return students, total, nil
}

// StudentIDsForCourses returns students with a grade or an attendance record in any of the courses.
func (r *StudentRepository) StudentIDsForCourses(ctx context.Context, courseIDs []int64) ([]int64, error) {
	if len(courseIDs) == 0 {
		return []int64{}, nil
	}
	seen := make(map[int64]struct{})
	for _, table := range []string{"grades", "attendance"} {
		ids, err := selectInt64s(ctx, r.db, psql.Select("DISTINCT student_id").From(table).
			Where(squirrel.Eq{"course_id": courseIDs}))
		if err != nil {
			return nil, fmt.Errorf("error loading %s roster: %w", table, err)
		}
		for _, id := range ids {
			seen[id] = struct{}{}
		}
	}
	return sortedIDs(seen), nil
}

// headmanLocks builds the row locks taken before a headman change, the group
// row first and then the student. Every headman writer takes them in this order.
func headmanLocks(groupID, studentID int64) (group, student squirrel.SelectBuilder) {
	group = psql.Select("id").From("groups").
		Where(squirrel.Eq{"id": groupID}).Suffix("FOR UPDATE")
	student = psql.Select("group_id").From("students").
		Where(squirrel.Eq{"id": studentID}).Suffix("FOR UPDATE")
	return group, student
}

// lockForHeadman takes the headman locks and checks the student is still in the group.
func lockForHeadman(ctx context.Context, tx pgx.Tx, groupID, studentID int64) error {
	groupLock, studentLock := headmanLocks(groupID, studentID)
	groupSQL, groupArgs, err := groupLock.ToSql()
	if err != nil {
		return err
	}
	studentSQL, studentArgs, err := studentLock.ToSql()
	if err != nil {
		return err
	}
	var locked int64
	if err := tx.QueryRow(ctx, groupSQL, groupArgs...).Scan(&locked); err != nil {
		if dberrors.IsNoRows(err) {
			return apperrors.NewNotFoundError(apperrors.ErrGroupNotFound, groupID)
		}
		return fmt.Errorf("error locking group: %w", err)
	}
	var current *int64
	if err := tx.QueryRow(ctx, studentSQL, studentArgs...).Scan(&current); err != nil {
		if dberrors.IsNoRows(err) {
			return apperrors.NewNotFoundError(apperrors.ErrStudentNotFound, studentID)
		}
		return fmt.Errorf("error locking student: %w", err)
	}
	if current == nil || *current != groupID {
		return apperrors.NewConflictError("student changed group, retry the request")
	}
	return nil
}

// SetHeadman clears the current headman of the student's group and promotes the student.
func (r *StudentRepository) SetHeadman(ctx context.Context, studentID int64) (*models.Student, error) {
	var result *models.Student
	err := db.RunInTx(ctx, r.db, func(ctx context.Context, tx pgx.Tx) error {
		student, err := getStudentByID(ctx, tx, studentID, false)
		if err != nil {
			return err
		}
		if student.GroupID == nil {
			return apperrors.NewValidationError(apperrors.ErrStudentHasNoGroup.Error())
		}
		groupID := *student.GroupID
		if err := lockForHeadman(ctx, tx, groupID, studentID); err != nil {
			return err
		}

		clearSQL, clearArgs, err := psql.Update("students").Set("is_headman", false).
			Where(squirrel.Eq{"group_id": groupID, "is_headman": true}).
			Where(squirrel.NotEq{"id": studentID}).ToSql()
		if err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, clearSQL, clearArgs...); err != nil {
			return fmt.Errorf("error clearing previous headman: %w", err)
		}

		setSQL, setArgs, err := psql.Update("students").Set("is_headman", true).
			Where(squirrel.Eq{"id": studentID}).ToSql()
		if err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, setSQL, setArgs...); err != nil {
			if dberrors.IsDuplicateConstraintError(err, "students_one_headman_per_group") {
				return apperrors.NewConflictError("group already has a headman")
			}
			return fmt.Errorf("error setting headman: %w", err)
		}

		groupSQL, groupArgs, err := psql.Update("groups").
			Set("headman_id", studentID).
			Set("updated_at", squirrel.Expr("NOW()")).
			Where(squirrel.Eq{"id": groupID}).ToSql()
		if err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, groupSQL, groupArgs...); err != nil {
			return fmt.Errorf("error updating group headman: %w", err)
		}

		student.IsHeadman = true
		result = student
		return nil
	})
	if err != nil {
		logger.Error().Err(err).Int64("studentID", studentID).Msg("Headman assignment failed")
		return nil, err
	}
	return result, nil
}

// ClearHeadman removes the headman flag from a student
func (r *StudentRepository) ClearHeadman(ctx context.Context, studentID int64) (*models.Student, error) {
	var result *models.Student
	err := db.RunInTx(ctx, r.db, func(ctx context.Context, tx pgx.Tx) error {
		student, err := getStudentByID(ctx, tx, studentID, false)
		if err != nil {
			return err
		}
		if student.GroupID != nil {
			if err := lockForHeadman(ctx, tx, *student.GroupID, studentID); err != nil {
				return err
			}
		} else if _, err := getStudentByID(ctx, tx, studentID, true); err != nil {
			return err
		}

		sqlStr, args, err := psql.Update("students").Set("is_headman", false).
			Where(squirrel.Eq{"id": studentID}).ToSql()
		if err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, sqlStr, args...); err != nil {
			return fmt.Errorf("error clearing headman: %w", err)
		}

		groupSQL, groupArgs, err := psql.Update("groups").
			Set("headman_id", nil).
			Set("updated_at", squirrel.Expr("NOW()")).
			Where(squirrel.Eq{"headman_id": studentID}).ToSql()
		if err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, groupSQL, groupArgs...); err != nil {
			return fmt.Errorf("error unlinking group headman: %w", err)
		}

		student.IsHeadman = false
		result = student
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// CreateStudent inserts a student and fills in its id.
func (r *StudentRepository) CreateStudent(ctx context.Context, s *models.Student) error {
	var email any
	if s.Email != "" {
		email = s.Email
	}
	sqlStr, args, err := psql.Insert("students").
		Columns("name", "email", "group_id", "group_name", "year", "is_headman").
		Values(s.Name, email, s.GroupID, s.GroupName, s.Year, s.IsHeadman).
		Suffix("RETURNING id, created_at").
		ToSql()
	if err != nil {
		return err
	}
	if err := r.db.QueryRow(ctx, sqlStr, args...).Scan(&s.ID, &s.CreatedAt); err != nil {
		if dberrors.IsDuplicateConstraintError(err, "students_email_key") {
			return apperrors.ErrEmailAlreadyExists
		}
		return fmt.Errorf("error creating student: %w", err)
	}
	return nil
}
