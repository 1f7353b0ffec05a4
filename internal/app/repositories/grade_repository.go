package repositories

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/mirea/edupulse/internal/app/models"
	"github.com/mirea/edupulse/internal/pkg/apperrors"
	"github.com/mirea/edupulse/internal/pkg/dberrors"
)

// GradeRepository handles database operations for grades
type GradeRepository struct {
	db *pgxpool.Pool
}

// NewGradeRepository creates a new grade repository
func NewGradeRepository(db *pgxpool.Pool) *GradeRepository {
	return &GradeRepository{db: db}
}

// GradeSummaries returns per-student grade sums and counts. Students without
// matching grades are absent from the result.
func (r *GradeRepository) GradeSummaries(ctx context.Context, f models.SummaryFilter) ([]models.GradeSummary, error) {
	if f.MatchesNothing() {
		return []models.GradeSummary{}, nil
	}
	b := applySummaryFilter(psql.Select("student_id", "SUM(value)", "COUNT(*)").From("grades"), f).
		GroupBy("student_id").OrderBy("student_id")
	sqlStr, args, err := b.ToSql()
	if err != nil {
		return nil, err
	}
	rows, err := r.db.Query(ctx, sqlStr, args...)
	if err != nil {
		return nil, fmt.Errorf("error summarizing grades: %w", err)
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (models.GradeSummary, error) {
		var s models.GradeSummary
		err := row.Scan(&s.StudentID, &s.Sum, &s.Count)
		return s, err
	})
}

// ListGrades returns raw grades, newest first
func (r *GradeRepository) ListGrades(ctx context.Context, f models.SummaryFilter) ([]models.Grade, error) {
	if f.MatchesNothing() {
		return []models.Grade{}, nil
	}
	b := applySummaryFilter(psql.Select("id", "student_id", "course_id", "teacher_id", "value", "type", "date", "created_at").
		From("grades"), f).OrderBy("date DESC", "id DESC")
	sqlStr, args, err := b.ToSql()
	if err != nil {
		return nil, err
	}
	rows, err := r.db.Query(ctx, sqlStr, args...)
	if err != nil {
		return nil, fmt.Errorf("error listing grades: %w", err)
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (models.Grade, error) {
		var g models.Grade
		err := row.Scan(&g.ID, &g.StudentID, &g.CourseID, &g.TeacherID, &g.Value, &g.Type, &g.Date, &g.CreatedAt)
		return g, err
	})
}

// CreateGrade inserts a grade and fills in its id
func (r *GradeRepository) CreateGrade(ctx context.Context, g *models.Grade) error {
	sqlStr, args, err := psql.Insert("grades").
		Columns("student_id", "course_id", "teacher_id", "value", "type", "date").
		Values(g.StudentID, g.CourseID, g.TeacherID, g.Value, g.Type, g.Date).
		Suffix("RETURNING id, created_at").ToSql()
	if err != nil {
		return err
	}
	if err := r.db.QueryRow(ctx, sqlStr, args...).Scan(&g.ID, &g.CreatedAt); err != nil {
		switch {
		case dberrors.IsForeignKeyViolation(err):
			return apperrors.NewResourceNotFoundError("student or course not found")
		case dberrors.IsCheckViolation(err):
			return apperrors.NewValidationError("grade value must be between 2 and 5")
		}
		return fmt.Errorf("error creating grade: %w", err)
	}
	return nil
}
