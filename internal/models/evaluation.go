package models

import "time"

// Evaluation attaches exactly one score and comment to a submission.
// A unique index on submission_id backs the 1:1 invariant.
type Evaluation struct {
	ID           string    `db:"id" json:"id"`
	SubmissionID string    `db:"submission_id" json:"submission_id"`
	TeacherID    string    `db:"teacher_id" json:"teacher_id"`
	Score        int       `db:"score" json:"score"`
	Comment      *string   `db:"comment" json:"comment,omitempty"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// CommentTemplate is reusable comment text. A nil OwnerID marks a
// system-wide template visible to every teacher.
type CommentTemplate struct {
	ID        string    `db:"id" json:"id"`
	OwnerID   *string   `db:"owner_id" json:"owner_id,omitempty"`
	Category  string    `db:"category" json:"category"`
	Content   string    `db:"content" json:"content"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
