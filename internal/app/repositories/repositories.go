package repositories

import (
	"context"
	"sort"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/mirea/edupulse/internal/app/models"
)

// psql builds PostgreSQL statements with $n placeholders.
var psql = squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)

// querier is satisfied by both *pgxpool.Pool and pgx.Tx.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Repositories holds all the repository instances
type Repositories struct {
	StudentRepository     *StudentRepository
	GroupRepository       *GroupRepository
	CourseRepository      *CourseRepository
	GradeRepository       *GradeRepository
	AttendanceRepository  *AttendanceRepository
	AchievementRepository *AchievementRepository
	UserRepository        *UserRepository
	LogRepository         *LogRepository
}

// NewRepositories initializes all repositories
func NewRepositories(db *pgxpool.Pool) *Repositories {
	return &Repositories{
		StudentRepository:     NewStudentRepository(db),
		GroupRepository:       NewGroupRepository(db),
		CourseRepository:      NewCourseRepository(db),
		GradeRepository:       NewGradeRepository(db),
		AttendanceRepository:  NewAttendanceRepository(db),
		AchievementRepository: NewAchievementRepository(db),
		UserRepository:        NewUserRepository(db),
		LogRepository:         NewLogRepository(db),
	}
}

// selectInt64s runs a single-column query and collects the ids.
func selectInt64s(ctx context.Context, q querier, b squirrel.SelectBuilder) ([]int64, error) {
	sqlStr, args, err := b.ToSql()
	if err != nil {
		return nil, err
	}
	rows, err := q.Query(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowTo[int64])
}

// applySummaryFilter narrows a grades or attendance query by student, course and date.
func applySummaryFilter(b squirrel.SelectBuilder, f models.SummaryFilter) squirrel.SelectBuilder {
	if f.StudentIDs != nil {
		b = b.Where(squirrel.Eq{"student_id": f.StudentIDs})
	}
	if f.CourseIDs != nil {
		b = b.Where(squirrel.Eq{"course_id": f.CourseIDs})
	}
	if f.Range.From != nil {
		b = b.Where(squirrel.GtOrEq{"date": *f.Range.From})
	}
	if f.Range.To != nil {
		b = b.Where(squirrel.LtOrEq{"date": *f.Range.To})
	}
	return b
}

func sortedIDs(set map[int64]struct{}) []int64 {
	out := make([]int64, 0, len(set))
	for id := range set {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
