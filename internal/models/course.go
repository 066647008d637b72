package models

import "time"

// CourseStatus reflects where a course sits in its lifecycle.
type CourseStatus string

const (
	CourseStatusActive    CourseStatus = "active"
	CourseStatusCompleted CourseStatus = "completed"
	CourseStatusDropped   CourseStatus = "dropped"
)

// Course is a read model over the planner's courses table. CreditHours is the
// weight used when blending per-course grade points into a GPA.
type Course struct {
	ID          string       `db:"id" json:"id"`
	UserID      string       `db:"user_id" json:"user_id"`
	TermID      string       `db:"term_id" json:"term_id"`
	Name        string       `db:"name" json:"name"`
	Code        string       `db:"code" json:"code"`
	CreditHours int          `db:"credit_hours" json:"credit_hours"`
	Status      CourseStatus `db:"status" json:"status"`
	CreatedAt   time.Time    `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time    `db:"updated_at" json:"updated_at"`
	DeletedAt   *time.Time   `db:"deleted_at" json:"deleted_at,omitempty"`
}

// CourseFilter scopes course reads.
type CourseFilter struct {
	UserID     string
	TermID     string
	ActiveOnly bool
}
