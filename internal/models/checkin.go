package models

import "time"

// CheckInStatus is the stored attendance outcome. ABSENT is never
// written by the ledger; reporting derives it for tasks with no row.
type CheckInStatus string

const (
	CheckInStatusOnTime CheckInStatus = "ON_TIME"
	CheckInStatusLate   CheckInStatus = "LATE"
)

// CheckIn records one student's attendance for one task. At most one
// row exists per (student, task), backed by a unique index.
type CheckIn struct {
	ID        string        `db:"id" json:"id"`
	StudentID string        `db:"student_id" json:"student_id"`
	TaskID    string        `db:"task_id" json:"task_id"`
	CheckedAt time.Time     `db:"checked_at" json:"checked_at"`
	Status    CheckInStatus `db:"status" json:"status"`
}

// CheckInDetail enriches CheckIn with student and task info.
type CheckInDetail struct {
	CheckIn
	StudentName string    `db:"student_name" json:"student_name"`
	TaskName    string    `db:"task_name" json:"task_name"`
	TaskDate    time.Time `db:"task_date" json:"task_date"`
}

// CheckInFilter scopes check-in listings.
type CheckInFilter struct {
	TaskID    string
	StudentID string
	CourseIDs []string
	DateFrom  *time.Time
	DateTo    *time.Time
}
