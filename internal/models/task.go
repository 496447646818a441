package models

import "time"

// Task is a dated practical exercise within a course. StartTime and
// EndTime are optional "HH:MM" times of day; when StartTime is unset
// every check-in counts as on time.
type Task struct {
	ID            string    `db:"id" json:"id"`
	CourseID      string    `db:"course_id" json:"course_id"`
	Name          string    `db:"name" json:"name"`
	Number        string    `db:"number" json:"number"`
	ScheduledDate time.Time `db:"scheduled_date" json:"scheduled_date"`
	StartTime     *string   `db:"start_time" json:"start_time,omitempty"`
	EndTime       *string   `db:"end_time" json:"end_time,omitempty"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time `db:"updated_at" json:"updated_at"`
}

// TaskDetail enriches Task with course info.
type TaskDetail struct {
	Task
	CourseName string `db:"course_name" json:"course_name"`
}

// TaskFilter scopes task listing. CourseIDs is always populated by the
// service from the caller's visible course set.
type TaskFilter struct {
	CourseIDs []string
	CourseID  string
	DateFrom  *time.Time
	DateTo    *time.Time
	Ascending bool
}
