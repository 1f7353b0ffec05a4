package repositories

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/mirea/edupulse/internal/app/models"
	"github.com/mirea/edupulse/internal/pkg/apperrors"
	"github.com/mirea/edupulse/internal/pkg/dberrors"
)

var userColumns = []string{"id", "email", "hashed_password", "role", "student_id", "teacher_id", "is_active", "created_at"}

// UserRepository handles login accounts
type UserRepository struct {
	db *pgxpool.Pool
}

// NewUserRepository creates a new UserRepository
func NewUserRepository(db *pgxpool.Pool) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) getUser(ctx context.Context, where squirrel.Eq) (*models.User, error) {
	sqlStr, args, err := psql.Select(userColumns...).From("users").Where(where).ToSql()
	if err != nil {
		return nil, err
	}
	var u models.User
	err = r.db.QueryRow(ctx, sqlStr, args...).
		Scan(&u.ID, &u.Email, &u.PasswordHash, &u.Role, &u.StudentID, &u.TeacherID, &u.IsActive, &u.CreatedAt)
	if err != nil {
		if dberrors.IsNoRows(err) {
			return nil, apperrors.ErrUserNotFound
		}
		return nil, fmt.Errorf("error retrieving user: %w", err)
	}
	return &u, nil
}

// CreateUser creates a new user
func (r *UserRepository) CreateUser(ctx context.Context, u *models.User) error {
	sqlStr, args, err := psql.Insert("users").
		Columns("email", "hashed_password", "role", "student_id", "teacher_id", "is_active").
		Values(u.Email, u.PasswordHash, u.Role, u.StudentID, u.TeacherID, u.IsActive).
		Suffix("RETURNING id, created_at").ToSql()
	if err != nil {
		return err
	}
	if err := r.db.QueryRow(ctx, sqlStr, args...).Scan(&u.ID, &u.CreatedAt); err != nil {
		if dberrors.IsDuplicateConstraintError(err, "users_email_key") {
			return apperrors.ErrEmailAlreadyExists
		}
		if dberrors.IsDuplicateConstraintError(err, "users_student_id_key") ||
			dberrors.IsDuplicateConstraintError(err, "users_teacher_id_key") {
			return apperrors.NewConflictError(apperrors.ErrProfileLinked.Error())
		}
		return fmt.Errorf("error creating user: %w", err)
	}
	return nil
}

// GetUserByEmail retrieves a user by email
func (r *UserRepository) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.getUser(ctx, squirrel.Eq{"email": email})
}

// GetUserByID retrieves a user by ID
func (r *UserRepository) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	return r.getUser(ctx, squirrel.Eq{"id": id})
}

// UpdatePasswordHash replaces the stored password hash of a user
func (r *UserRepository) UpdatePasswordHash(ctx context.Context, userID int64, hash string) error {
	sqlStr, args, err := psql.Update("users").Set("hashed_password", hash).
		Where(squirrel.Eq{"id": userID}).ToSql()
	if err != nil {
		return err
	}
	tag, err := r.db.Exec(ctx, sqlStr, args...)
	if err != nil {
		return fmt.Errorf("error updating password hash: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrUserNotFound
	}
	return nil
}

// EmailExists checks if an email already exists
func (r *UserRepository) EmailExists(ctx context.Context, email string) (bool, error) {
	sqlStr, args, err := psql.Select("1").Prefix("SELECT EXISTS (").From("users").
		Where(squirrel.Eq{"email": email}).Suffix(")").ToSql()
	if err != nil {
		return false, err
	}
	var exists bool
	if err := r.db.QueryRow(ctx, sqlStr, args...).Scan(&exists); err != nil {
		return false, fmt.Errorf("error checking email: %w", err)
	}
	return exists, nil
}
