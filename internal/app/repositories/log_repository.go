package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/mirea/edupulse/internal/app/models"
)

// LogRepository stores login sessions and the activity audit trail
type LogRepository struct {
	db *pgxpool.Pool
}

// NewLogRepository creates a new log repository
func NewLogRepository(db *pgxpool.Pool) *LogRepository {
	return &LogRepository{db: db}
}

// CreateLoginLog opens a session record
func (r *LogRepository) CreateLoginLog(ctx context.Context, l *models.LoginLog) error {
	sqlStr, args, err := psql.Insert("login_logs").
		Columns("user_id", "login_time", "ip_address", "user_agent").
		Values(l.UserID, l.LoginTime, l.IPAddress, l.UserAgent).
		Suffix("RETURNING id").ToSql()
	if err != nil {
		return err
	}
	if err := r.db.QueryRow(ctx, sqlStr, args...).Scan(&l.ID); err != nil {
		return fmt.Errorf("error creating login log: %w", err)
	}
	return nil
}

// CloseLatestLoginLog stamps the logout time on the user's newest open session.
// A user without an open session is not an error.
func (r *LogRepository) CloseLatestLoginLog(ctx context.Context, userID int64, at time.Time) error {
	latest := psql.Select("id").From("login_logs").
		Where(squirrel.Eq{"user_id": userID, "logout_time": nil}).
		OrderBy("login_time DESC").Limit(1)
	sqlStr, args, err := psql.Update("login_logs").Set("logout_time", at).
		Where(squirrel.Expr("id = (?)", latest)).ToSql()
	if err != nil {
		return err
	}
	if _, err := r.db.Exec(ctx, sqlStr, args...); err != nil {
		return fmt.Errorf("error closing login log: %w", err)
	}
	return nil
}

func applyLogPage(b squirrel.SelectBuilder, f models.LogFilter) squirrel.SelectBuilder {
	if f.Limit > 0 {
		b = b.Limit(f.Limit).Offset(f.Offset)
	}
	return b
}

func (r *LogRepository) count(ctx context.Context, b squirrel.SelectBuilder) (int64, error) {
	sqlStr, args, err := b.ToSql()
	if err != nil {
		return 0, err
	}
	var total int64
	if err := r.db.QueryRow(ctx, sqlStr, args...).Scan(&total); err != nil {
		return 0, fmt.Errorf("error counting logs: %w", err)
	}
	return total, nil
}

// ListLoginLogs returns sessions newest first, joined with the account email
func (r *LogRepository) ListLoginLogs(ctx context.Context, f models.LogFilter) ([]models.LoginLog, int64, error) {
	where := squirrel.And{}
	if f.UserID != nil {
		where = append(where, squirrel.Eq{"l.user_id": *f.UserID})
	}
	total, err := r.count(ctx, psql.Select("COUNT(*)").From("login_logs l").Where(where))
	if err != nil {
		return nil, 0, err
	}

	b := psql.Select("l.id", "l.user_id", "u.email", "l.login_time", "l.logout_time", "l.ip_address", "l.user_agent").
		From("login_logs l").Join("users u ON u.id = l.user_id").
		Where(where).OrderBy("l.login_time DESC", "l.id DESC")
	sqlStr, args, err := applyLogPage(b, f).ToSql()
	if err != nil {
		return nil, 0, err
	}
	rows, err := r.db.Query(ctx, sqlStr, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("error listing login logs: %w", err)
	}
	logs, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (models.LoginLog, error) {
		var l models.LoginLog
		err := row.Scan(&l.ID, &l.UserID, &l.Email, &l.LoginTime, &l.LogoutTime, &l.IPAddress, &l.UserAgent)
		return l, err
	})
	if err != nil {
		return nil, 0, err
	}
	return logs, total, nil
}

// CreateActivityLog appends an audit record
func (r *LogRepository) CreateActivityLog(ctx context.Context, l *models.ActivityLog) error {
	if l.Timestamp.IsZero() {
		l.Timestamp = time.Now()
	}
	sqlStr, args, err := psql.Insert("activity_logs").
		Columns("user_id", "action_type", "table_name", "record_id", "old_values", "new_values", "timestamp").
		Values(l.UserID, l.Action, l.TableName, l.RecordID, l.OldValues, l.NewValues, l.Timestamp).
		Suffix("RETURNING id").ToSql()
	if err != nil {
		return err
	}
	if err := r.db.QueryRow(ctx, sqlStr, args...).Scan(&l.ID); err != nil {
		return fmt.Errorf("error creating activity log: %w", err)
	}
	return nil
}

// ListActivityLogs returns audit records newest first
func (r *LogRepository) ListActivityLogs(ctx context.Context, f models.LogFilter) ([]models.ActivityLog, int64, error) {
	where := squirrel.And{}
	if f.UserID != nil {
		where = append(where, squirrel.Eq{"user_id": *f.UserID})
	}
	if f.Action != "" {
		where = append(where, squirrel.Eq{"action_type": f.Action})
	}
	if f.Table != "" {
		where = append(where, squirrel.Eq{"table_name": f.Table})
	}
	total, err := r.count(ctx, psql.Select("COUNT(*)").From("activity_logs").Where(where))
	if err != nil {
		return nil, 0, err
	}

	b := psql.Select("id", "user_id", "action_type", "table_name", "record_id", "old_values", "new_values", "timestamp").
		From("activity_logs").Where(where).OrderBy("timestamp DESC", "id DESC")
	sqlStr, args, err := applyLogPage(b, f).ToSql()
	if err != nil {
		return nil, 0, err
	}
	rows, err := r.db.Query(ctx, sqlStr, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("error listing activity logs: %w", err)
	}
	logs, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (models.ActivityLog, error) {
		var l models.ActivityLog
		err := row.Scan(&l.ID, &l.UserID, &l.Action, &l.TableName, &l.RecordID, &l.OldValues, &l.NewValues, &l.Timestamp)
		return l, err
	})
	if err != nil {
		return nil, 0, err
	}
	return logs, total, nil
}
