package models

import "time"

// User is a login account. StudentID or TeacherID links it to the person it represents.
type User struct {
	ID           int64     `json:"id" db:"id"`
	Email        string    `json:"email" db:"email"`
	PasswordHash string    `json:"-" db:"hashed_password"`
	Role         Role      `json:"role" db:"role"`
	StudentID    *int64    `json:"student_id,omitempty" db:"student_id"`
	TeacherID    *int64    `json:"teacher_id,omitempty" db:"teacher_id"`
	IsActive     bool      `json:"is_active" db:"is_active"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}

// LoginLog records a session.
type LoginLog struct {
	ID         int64      `json:"id" db:"id"`
	UserID     int64      `json:"user_id" db:"user_id"`
	Email      string     `json:"email,omitempty" db:"-"`
	LoginTime  time.Time  `json:"login_time" db:"login_time"`
	LogoutTime *time.Time `json:"logout_time,omitempty" db:"logout_time"`
	IPAddress  string     `json:"ip_address" db:"ip_address"`
	UserAgent  string     `json:"user_agent" db:"user_agent"`
}

// ActivityLog is an audit record of a write action.
type ActivityLog struct {
	ID        int64     `json:"id" db:"id"`
	UserID    *int64    `json:"user_id,omitempty" db:"user_id"`
	Action    string    `json:"action_type" db:"action_type"`
	TableName string    `json:"table_name" db:"table_name"`
	RecordID  int64     `json:"record_id" db:"record_id"`
	OldValues string    `json:"old_values,omitempty" db:"old_values"`
	NewValues string    `json:"new_values,omitempty" db:"new_values"`
	Timestamp time.Time `json:"timestamp" db:"timestamp"`
}

// Activity action types.
const (
	ActionCreate  = "create"
	ActionUpdate  = "update"
	ActionDelete  = "delete"
	ActionRestore = "restore"
	ActionGrant   = "grant"
	ActionRevoke  = "revoke"
)

// LogFilter narrows log listings.
type LogFilter struct {
	UserID *int64
	Action string
	Table  string
	Offset uint64
	Limit  uint64
}
