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

var groupColumns = []string{"id", "name", "department", "total_students", "average_gpa", "average_attendance_rate", "headman_id", "updated_at"}

// GroupRepository handles database operations for groups
type GroupRepository struct {
	db *pgxpool.Pool
}

// NewGroupRepository creates a new group repository
func NewGroupRepository(db *pgxpool.Pool) *GroupRepository {
	return &GroupRepository{db: db}
}

func scanGroup(row pgx.Row) (models.Group, error) {
	var g models.Group
	err := row.Scan(&g.ID, &g.Name, &g.Department, &g.TotalStudents, &g.AverageGPA, &g.AverageAttendanceRate, &g.HeadmanID, &g.UpdatedAt)
	return g, err
}

// GetGroupByName retrieves a group by its unique name
func (r *GroupRepository) GetGroupByName(ctx context.Context, name string) (*models.Group, error) {
	sqlStr, args, err := psql.Select(groupColumns...).From("groups").Where(squirrel.Eq{"name": name}).ToSql()
	if err != nil {
		return nil, err
	}
	g, err := scanGroup(r.db.QueryRow(ctx, sqlStr, args...))
	if err != nil {
		if dberrors.IsNoRows(err) {
			return nil, apperrors.NewNotFoundError(apperrors.ErrGroupNotFound, name)
		}
		return nil, fmt.Errorf("error retrieving group: %w", err)
	}
	return &g, nil
}

// ListGroups returns every group ordered by name
func (r *GroupRepository) ListGroups(ctx context.Context) ([]models.Group, error) {
	sqlStr, args, err := psql.Select(groupColumns...).From("groups").OrderBy("name").ToSql()
	if err != nil {
		return nil, err
	}
	rows, err := r.db.Query(ctx, sqlStr, args...)
	if err != nil {
		return nil, fmt.Errorf("error listing groups: %w", err)
	}
	defer rows.Close()

	groups := []models.Group{}
	for rows.Next() {
		g, err := scanGroup(rows)
		if err != nil {
			return nil, err
		}
		groups = append(groups, g)
	}
	return groups, rows.Err()
}

// UpdateGroupRollup writes back the derived columns of a group
func (r *GroupRepository) UpdateGroupRollup(ctx context.Context, groupID int64, rollup models.GroupRollup) error {
	sqlStr, args, err := psql.Update("groups").
		Set("total_students", rollup.TotalStudents).
		Set("average_gpa", rollup.AverageGPA).
		Set("average_attendance_rate", rollup.AverageAttendanceRate).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": groupID}).
		ToSql()
	if err != nil {
		return err
	}
	tag, err := r.db.Exec(ctx, sqlStr, args...)
	if err != nil {
		return fmt.Errorf("error updating group rollup: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.NewNotFoundError(apperrors.ErrGroupNotFound, groupID)
	}
	return nil
}

// CreateGroup inserts a group and fills in its id
func (r *GroupRepository) CreateGroup(ctx context.Context, g *models.Group) error {
	sqlStr, args, err := psql.Insert("groups").
		Columns("name", "department").
		Values(g.Name, g.Department).
		Suffix("RETURNING id, updated_at").
		ToSql()
	if err != nil {
		return err
	}
	if err := r.db.QueryRow(ctx, sqlStr, args...).Scan(&g.ID, &g.UpdatedAt); err != nil {
		if dberrors.IsDuplicateConstraintError(err, "groups_name_key") {
			return apperrors.NewConflictError(fmt.Sprintf("group %q already exists", g.Name))
		}
		return fmt.Errorf("error creating group: %w", err)
	}
	return nil
}
