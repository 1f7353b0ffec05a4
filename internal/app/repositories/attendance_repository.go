package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/mirea/edupulse/internal/app/models"
	"github.com/mirea/edupulse/internal/pkg/apperrors"
	"github.com/mirea/edupulse/internal/pkg/dberrors"
)

// AttendanceRepository handles database operations for attendance records
type AttendanceRepository struct {
	db *pgxpool.Pool
}

// NewAttendanceRepository creates a new attendance repository
func NewAttendanceRepository(db *pgxpool.Pool) *AttendanceRepository {
	return &AttendanceRepository{db: db}
}

// AttendanceSummaries returns per-student present and total counts
func (r *AttendanceRepository) AttendanceSummaries(ctx context.Context, f models.SummaryFilter) ([]models.AttendanceSummary, error) {
	if f.MatchesNothing() {
		return []models.AttendanceSummary{}, nil
	}
	b := applySummaryFilter(psql.Select("student_id", "SUM(CASE WHEN present THEN 1 ELSE 0 END)", "COUNT(*)").
		From("attendance"), f).GroupBy("student_id").OrderBy("student_id")
	sqlStr, args, err := b.ToSql()
	if err != nil {
		return nil, err
	}
	rows, err := r.db.Query(ctx, sqlStr, args...)
	if err != nil {
		return nil, fmt.Errorf("error summarizing attendance: %w", err)
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (models.AttendanceSummary, error) {
		var s models.AttendanceSummary
		err := row.Scan(&s.StudentID, &s.Present, &s.Total)
		return s, err
	})
}

// ListAttendance returns raw attendance records, newest first
func (r *AttendanceRepository) ListAttendance(ctx context.Context, f models.SummaryFilter) ([]models.Attendance, error) {
	if f.MatchesNothing() {
		return []models.Attendance{}, nil
	}
	b := applySummaryFilter(psql.Select("id", "student_id", "course_id", "date", "present", "building", "entry_time", "exit_time").
		From("attendance"), f).OrderBy("date DESC", "id DESC")
	sqlStr, args, err := b.ToSql()
	if err != nil {
		return nil, err
	}
	rows, err := r.db.Query(ctx, sqlStr, args...)
	if err != nil {
		return nil, fmt.Errorf("error listing attendance: %w", err)
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (models.Attendance, error) {
		var a models.Attendance
		err := row.Scan(&a.ID, &a.StudentID, &a.CourseID, &a.Date, &a.Present, &a.Building, &a.EntryTime, &a.ExitTime)
		return a, err
	})
}

// PresentStudentIDs returns which of the students were present at least once on day
func (r *AttendanceRepository) PresentStudentIDs(ctx context.Context, day time.Time, studentIDs []int64) ([]int64, error) {
	if studentIDs != nil && len(studentIDs) == 0 {
		return []int64{}, nil
	}
	b := psql.Select("DISTINCT student_id").From("attendance").
		Where(squirrel.Eq{"date": day, "present": true}).OrderBy("student_id")
	if studentIDs != nil {
		b = b.Where(squirrel.Eq{"student_id": studentIDs})
	}
	ids, err := selectInt64s(ctx, r.db, b)
	if err != nil {
		return nil, fmt.Errorf("error loading present students: %w", err)
	}
	return ids, nil
}

// CreateAttendance inserts an attendance record and fills in its id
func (r *AttendanceRepository) CreateAttendance(ctx context.Context, a *models.Attendance) error {
	sqlStr, args, err := psql.Insert("attendance").
		Columns("student_id", "course_id", "date", "present", "building", "entry_time", "exit_time").
		Values(a.StudentID, a.CourseID, a.Date, a.Present, a.Building, a.EntryTime, a.ExitTime).
		Suffix("RETURNING id").ToSql()
	if err != nil {
		return err
	}
	if err := r.db.QueryRow(ctx, sqlStr, args...).Scan(&a.ID); err != nil {
		if dberrors.IsForeignKeyViolation(err) {
			return apperrors.NewResourceNotFoundError("student or course not found")
		}
		return fmt.Errorf("error creating attendance: %w", err)
	}
	return nil
}
