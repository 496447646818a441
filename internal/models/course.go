package models

import "time"

// Course groups tasks under a program. Deleting a course removes its
// tasks and everything hanging off them (check-ins, submissions,
// evaluations) as one owned aggregate.
type Course struct {
	ID        string    `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	Program   string    `db:"program" json:"program"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}
