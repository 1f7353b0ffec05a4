package dto

import "time"

// ActivityLogResponse is one audit record
type ActivityLogResponse struct {
	ID         int64     `json:"id"`
	UserID     *int64    `json:"user_id,omitempty"`
	ActionType string    `json:"action_type" example:"grant"`
	TableName  string    `json:"table_name" example:"student_achievements"`
	RecordID   int64     `json:"record_id"`
	OldValues  string    `json:"old_values,omitempty"`
	NewValues  string    `json:"new_values,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
}

// LoginLogResponse is one session record
type LoginLogResponse struct {
	ID         int64      `json:"id"`
	UserID     int64      `json:"user_id"`
	Email      string     `json:"email"`
	LoginTime  time.Time  `json:"login_time"`
	LogoutTime *time.Time `json:"logout_time,omitempty"`
	IPAddress  string     `json:"ip_address"`
	UserAgent  string     `json:"user_agent"`
}
