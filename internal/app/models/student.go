package models

import "time"

// Student defines the student model based on the 'students' table.
// GroupName is the legacy denormalized copy of the group's name; GroupID is authoritative when set.
type Student struct {
	ID        int64     `json:"id" db:"id" example:"1"`
	Name      string    `json:"name" db:"name" example:"Иванов Иван"`
	Email     string    `json:"email" db:"email" example:"ivanov@edu.mirea.ru"`
	GroupID   *int64    `json:"group_id,omitempty" db:"group_id" example:"3"`
	GroupName string    `json:"group" db:"group_name" example:"ИТ-21"`
	Year      int       `json:"year" db:"year" example:"2"`
	IsHeadman bool      `json:"is_headman" db:"is_headman"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// StudentFilter narrows student listings. Zero values mean "no constraint".
type StudentFilter struct {
	IDs        []int64
	GroupNames []string
	// GroupPrefix matches group names starting with "<prefix>-".
	GroupPrefix string
	Offset      uint64
	Limit       uint64
}
