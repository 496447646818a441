package models

import "time"

// Enrollment links a student to a course and gates task and check-in
// visibility.
type Enrollment struct {
	ID        string    `db:"id" json:"id"`
	StudentID string    `db:"student_id" json:"student_id"`
	CourseID  string    `db:"course_id" json:"course_id"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// Assignment links a teacher to a course and gates submission and
// evaluation visibility.
type Assignment struct {
	ID        string    `db:"id" json:"id"`
	TeacherID string    `db:"teacher_id" json:"teacher_id"`
	CourseID  string    `db:"course_id" json:"course_id"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// EnrollmentDetail enriches Enrollment with descriptive fields.
type EnrollmentDetail struct {
	Enrollment
	CourseName  string `db:"course_name" json:"course_name"`
	StudentName string `db:"student_name" json:"student_name"`
}

// AssignmentDetail enriches Assignment with descriptive fields.
type AssignmentDetail struct {
	Assignment
	CourseName  string `db:"course_name" json:"course_name"`
	TeacherName string `db:"teacher_name" json:"teacher_name"`
}
