package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/mirea/edupulse/internal/app/models"
	"github.com/mirea/edupulse/internal/db"
	"github.com/mirea/edupulse/internal/pkg/apperrors"
	"github.com/mirea/edupulse/internal/pkg/dberrors"
)

var templateColumns = []string{"id", "name", "description", "icon", "points", "course_id", "is_public", "status", "created_by_id", "created_at"}

// AchievementRepository handles achievement templates and their grants
type AchievementRepository struct {
	db *pgxpool.Pool
}

// NewAchievementRepository creates a new achievement repository
func NewAchievementRepository(db *pgxpool.Pool) *AchievementRepository {
	return &AchievementRepository{db: db}
}

func scanTemplate(row pgx.Row) (models.AchievementTemplate, error) {
	var t models.AchievementTemplate
	err := row.Scan(&t.ID, &t.Name, &t.Description, &t.Icon, &t.Points, &t.CourseID, &t.IsPublic, &t.Status, &t.CreatedByID, &t.CreatedAt)
	return t, err
}

func collectGrants(rows pgx.Rows) ([]models.StudentAchievement, error) {
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (models.StudentAchievement, error) {
		var g models.StudentAchievement
		err := row.Scan(&g.ID, &g.StudentID, &g.TemplateID, &g.UnlockedAt)
		return g, err
	})
}

// CreateTemplate inserts a template and fills in its id
func (r *AchievementRepository) CreateTemplate(ctx context.Context, t *models.AchievementTemplate) error {
	if t.Status == "" {
		t.Status = models.TemplateActive
	}
	sqlStr, args, err := psql.Insert("achievement_templates").
		Columns("name", "description", "icon", "points", "course_id", "is_public", "status", "created_by_id").
		Values(t.Name, t.Description, t.Icon, t.Points, t.CourseID, t.IsPublic, t.Status, t.CreatedByID).
		Suffix("RETURNING id, created_at").ToSql()
	if err != nil {
		return err
	}
	if err := r.db.QueryRow(ctx, sqlStr, args...).Scan(&t.ID, &t.CreatedAt); err != nil {
		switch {
		case dberrors.IsCheckViolation(err):
			return apperrors.NewValidationError("a template is either public or scoped to a course")
		case dberrors.IsForeignKeyViolation(err):
			return apperrors.NewResourceNotFoundError("course or creating teacher not found")
		}
		return fmt.Errorf("error creating achievement template: %w", err)
	}
	return nil
}

// GetTemplateByID retrieves a template regardless of its status
func (r *AchievementRepository) GetTemplateByID(ctx context.Context, id int64) (*models.AchievementTemplate, error) {
	sqlStr, args, err := psql.Select(templateColumns...).From("achievement_templates").Where(squirrel.Eq{"id": id}).ToSql()
	if err != nil {
		return nil, err
	}
	t, err := scanTemplate(r.db.QueryRow(ctx, sqlStr, args...))
	if err != nil {
		if dberrors.IsNoRows(err) {
			return nil, apperrors.NewNotFoundError(apperrors.ErrAchievementNotFound, id)
		}
		return nil, fmt.Errorf("error retrieving achievement template: %w", err)
	}
	return &t, nil
}

// ListTemplates returns templates matching the filter, ordered by id
func (r *AchievementRepository) ListTemplates(ctx context.Context, f models.TemplateFilter) ([]models.AchievementTemplate, error) {
	b := psql.Select(templateColumns...).From("achievement_templates").OrderBy("id")
	if !f.IncludeDeleted {
		b = b.Where(squirrel.Eq{"status": models.TemplateActive})
	}
	if f.CourseID != nil {
		b = b.Where(squirrel.Eq{"course_id": *f.CourseID})
	}
	if f.RestrictVisible {
		visible := squirrel.Or{squirrel.Eq{"is_public": true}}
		if len(f.VisibleToCourses) > 0 {
			visible = append(visible, squirrel.Eq{"course_id": f.VisibleToCourses})
		}
		b = b.Where(visible)
	}
	sqlStr, args, err := b.ToSql()
	if err != nil {
		return nil, err
	}
	rows, err := r.db.Query(ctx, sqlStr, args...)
	if err != nil {
		return nil, fmt.Errorf("error listing achievement templates: %w", err)
	}
	defer rows.Close()
	templates := []models.AchievementTemplate{}
	for rows.Next() {
		t, err := scanTemplate(rows)
		if err != nil {
			return nil, err
		}
		templates = append(templates, t)
	}
	return templates, rows.Err()
}

// SetTemplateStatus switches a template between active and tombstoned
func (r *AchievementRepository) SetTemplateStatus(ctx context.Context, id int64, status models.TemplateStatus) error {
	sqlStr, args, err := psql.Update("achievement_templates").Set("status", status).Where(squirrel.Eq{"id": id}).ToSql()
	if err != nil {
		return err
	}
	tag, err := r.db.Exec(ctx, sqlStr, args...)
	if err != nil {
		return fmt.Errorf("error updating achievement template status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.NewNotFoundError(apperrors.ErrAchievementNotFound, id)
	}
	return nil
}

// DeleteTemplate removes a template together with every grant of it
func (r *AchievementRepository) DeleteTemplate(ctx context.Context, id int64) (int64, error) {
	var removed int64
	err := db.RunInTx(ctx, r.db, func(ctx context.Context, tx pgx.Tx) error {
		grantsSQL, grantsArgs, err := psql.Delete("student_achievements").
			Where(squirrel.Eq{"achievement_template_id": id}).ToSql()
		if err != nil {
			return err
		}
		tag, err := tx.Exec(ctx, grantsSQL, grantsArgs...)
		if err != nil {
			return fmt.Errorf("error deleting grants: %w", err)
		}
		removed = tag.RowsAffected()

		tplSQL, tplArgs, err := psql.Delete("achievement_templates").Where(squirrel.Eq{"id": id}).ToSql()
		if err != nil {
			return err
		}
		tag, err = tx.Exec(ctx, tplSQL, tplArgs...)
		if err != nil {
			return fmt.Errorf("error deleting achievement template: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return apperrors.NewNotFoundError(apperrors.ErrAchievementNotFound, id)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return removed, nil
}

// GrantAchievement records a grant; an existing grant for the pair is left untouched
func (r *AchievementRepository) GrantAchievement(ctx context.Context, studentID, templateID int64, at time.Time) (bool, error) {
	sqlStr, args, err := psql.Insert("student_achievements").
		Columns("student_id", "achievement_template_id", "unlocked_at").
		Values(studentID, templateID, at).
		Suffix("ON CONFLICT ON CONSTRAINT student_achievements_student_template_key DO NOTHING").ToSql()
	if err != nil {
		return false, err
	}
	tag, err := r.db.Exec(ctx, sqlStr, args...)
	if err != nil {
		if dberrors.IsForeignKeyViolation(err) {
			return false, apperrors.NewNotFoundError(apperrors.ErrStudentNotFound, studentID)
		}
		return false, fmt.Errorf("error granting achievement: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

// RevokeAchievement deletes a single grant
func (r *AchievementRepository) RevokeAchievement(ctx context.Context, studentID, templateID int64) error {
	sqlStr, args, err := psql.Delete("student_achievements").
		Where(squirrel.Eq{"student_id": studentID, "achievement_template_id": templateID}).ToSql()
	if err != nil {
		return err
	}
	tag, err := r.db.Exec(ctx, sqlStr, args...)
	if err != nil {
		return fmt.Errorf("error revoking achievement: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.NewNotFoundError(apperrors.ErrGrantNotFound, templateID)
	}
	return nil
}

func (r *AchievementRepository) listGrants(ctx context.Context, where squirrel.Eq) ([]models.StudentAchievement, error) {
	sqlStr, args, err := psql.Select("id", "student_id", "achievement_template_id", "unlocked_at").
		From("student_achievements").Where(where).OrderBy("unlocked_at DESC", "id").ToSql()
	if err != nil {
		return nil, err
	}
	rows, err := r.db.Query(ctx, sqlStr, args...)
	if err != nil {
		return nil, fmt.Errorf("error listing grants: %w", err)
	}
	return collectGrants(rows)
}

// ListStudentGrants returns a student's grants, newest first
func (r *AchievementRepository) ListStudentGrants(ctx context.Context, studentID int64) ([]models.StudentAchievement, error) {
	return r.listGrants(ctx, squirrel.Eq{"student_id": studentID})
}

// ListTemplateGrants returns every grant of a template, newest first
func (r *AchievementRepository) ListTemplateGrants(ctx context.Context, templateID int64) ([]models.StudentAchievement, error) {
	return r.listGrants(ctx, squirrel.Eq{"achievement_template_id": templateID})
}

// CountGrants counts grants per student, tombstoned templates included
func (r *AchievementRepository) CountGrants(ctx context.Context, studentIDs []int64) (map[int64]int, error) {
	counts := make(map[int64]int, len(studentIDs))
	if len(studentIDs) == 0 {
		return counts, nil
	}
	sqlStr, args, err := psql.Select("student_id", "COUNT(*)").From("student_achievements").
		Where(squirrel.Eq{"student_id": studentIDs}).GroupBy("student_id").ToSql()
	if err != nil {
		return nil, err
	}
	rows, err := r.db.Query(ctx, sqlStr, args...)
	if err != nil {
		return nil, fmt.Errorf("error counting grants: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var id int64
		var n int
		if err := rows.Scan(&id, &n); err != nil {
			return nil, err
		}
		counts[id] = n
	}
	return counts, rows.Err()
}
