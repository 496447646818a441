package models

import "time"

// WindowReport aggregates pipeline rates over a date window. Rates are
// integer percentages clamped to [0,100]; the expected check-in
// denominator is the tasks × enrolled-students approximation.
type WindowReport struct {
	Start           time.Time            `json:"start"`
	End             time.Time            `json:"end"`
	TaskCount       int                  `json:"task_count"`
	StudentCount    int                  `json:"student_count"`
	CheckInCount    int                  `json:"check_in_count"`
	SubmissionCount int                  `json:"submission_count"`
	EvaluatedCount  int                  `json:"evaluated_count"`
	CheckInRate     int                  `json:"check_in_rate"`
	SubmissionRate  int                  `json:"submission_rate"`
	EvaluationRate  int                  `json:"evaluation_rate"`
	AverageScore    float64              `json:"average_score"`
	Courses         []CourseWindowReport `json:"courses"`
	GeneratedAt     time.Time            `json:"generated_at"`
}

// CourseWindowReport is the per-course breakdown row. Absent is the
// derived label: expected check-ins minus recorded ones, floored at 0.
type CourseWindowReport struct {
	CourseID        string  `json:"course_id"`
	CourseName      string  `json:"course_name"`
	TaskCount       int     `json:"task_count"`
	StudentCount    int     `json:"student_count"`
	CheckInCount    int     `json:"check_in_count"`
	Absent          int     `json:"absent"`
	SubmissionCount int     `json:"submission_count"`
	EvaluatedCount  int     `json:"evaluated_count"`
	CheckInRate     int     `json:"check_in_rate"`
	SubmissionRate  int     `json:"submission_rate"`
	EvaluationRate  int     `json:"evaluation_rate"`
	AverageScore    float64 `json:"average_score"`
}

// CourseWindowCounts is the raw per-course aggregate row produced by
// the report repository.
type CourseWindowCounts struct {
	CourseID        string   `db:"course_id"`
	CourseName      string   `db:"course_name"`
	TaskCount       int      `db:"task_count"`
	StudentCount    int      `db:"student_count"`
	CheckInCount    int      `db:"check_in_count"`
	SubmissionCount int      `db:"submission_count"`
	EvaluatedCount  int      `db:"evaluated_count"`
	ScoreSum        *float64 `db:"score_sum"`
}
