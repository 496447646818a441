package models

import (
	"time"

	"github.com/lib/pq"
)

// SubmissionStatus is the submission lifecycle state. REJECTED is
// reserved for future moderation flows; core transitions only move
// PENDING to EVALUATED.
type SubmissionStatus string

const (
	SubmissionStatusPending   SubmissionStatus = "PENDING"
	SubmissionStatusEvaluated SubmissionStatus = "EVALUATED"
	SubmissionStatusRejected  SubmissionStatus = "REJECTED"
)

// Valid reports whether the status is a supported value.
func (s SubmissionStatus) Valid() bool {
	switch s {
	case SubmissionStatusPending, SubmissionStatusEvaluated, SubmissionStatusRejected:
		return true
	default:
		return false
	}
}

// Submission is a student's work for one task: free text, artifact
// URLs, or both. Mutable by its owner only while pending.
type Submission struct {
	ID           string           `db:"id" json:"id"`
	StudentID    string           `db:"student_id" json:"student_id"`
	TaskID       string           `db:"task_id" json:"task_id"`
	Content      *string          `db:"content" json:"content,omitempty"`
	ArtifactRefs pq.StringArray   `db:"artifact_refs" json:"artifact_refs"`
	Status       SubmissionStatus `db:"status" json:"status"`
	SubmittedAt  time.Time        `db:"submitted_at" json:"submitted_at"`
	UpdatedAt    time.Time        `db:"updated_at" json:"updated_at"`
}

// SubmissionDetail enriches Submission with student/task/course names
// and the attached evaluation when present.
type SubmissionDetail struct {
	Submission
	StudentName string      `db:"student_name" json:"student_name"`
	TaskName    string      `db:"task_name" json:"task_name"`
	CourseID    string      `db:"course_id" json:"course_id"`
	CourseName  string      `db:"course_name" json:"course_name"`
	Evaluation  *Evaluation `db:"-" json:"evaluation,omitempty"`
}

// SubmissionFilter scopes submission listings. CourseIDs is populated
// by the service from the caller's visible course set.
type SubmissionFilter struct {
	StudentID string
	CourseIDs []string
	CourseID  string
	TaskID    string
	Status    SubmissionStatus
	Search    string
	Page      int
	PageSize  int
}
