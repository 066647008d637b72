package models

import "time"

// AssignmentStatus tracks completion state of an assignment.
type AssignmentStatus string

const (
	AssignmentStatusTodo AssignmentStatus = "todo"
	AssignmentStatusDone AssignmentStatus = "done"
)

// Assignment is a read model over the planner's assignments table. Grades can
// be represented three ways; ResolveGradePercentage applies the precedence
// (points pair, precomputed percentage, legacy flat grade).
type Assignment struct {
	ID              string           `db:"id" json:"id"`
	UserID          string           `db:"user_id" json:"user_id"`
	CourseID        string           `db:"course_id" json:"course_id"`
	Title           string           `db:"title" json:"title"`
	Status          AssignmentStatus `db:"status" json:"status"`
	DueAt           time.Time        `db:"due_at" json:"due_at"`
	PointsEarned    *float64         `db:"points_earned" json:"points_earned,omitempty"`
	PointsPossible  *float64         `db:"points_possible" json:"points_possible,omitempty"`
	GradePercentage *float64         `db:"grade_percentage" json:"grade_percentage,omitempty"`
	Grade           *float64         `db:"grade" json:"grade,omitempty"`
	CreatedAt       time.Time        `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time        `db:"updated_at" json:"updated_at"`
	DeletedAt       *time.Time       `db:"deleted_at" json:"deleted_at,omitempty"`
}

// Completed reports whether the assignment reached its terminal state.
func (a Assignment) Completed() bool {
	return a.Status == AssignmentStatusDone
}

// ResolveGradePercentage returns the 0-100 grade percentage together with the
// raw earned/possible points backing it. Points take precedence over a stored
// percentage, which takes precedence over the legacy flat grade. The boolean
// is false when no grade representation is present.
func (a Assignment) ResolveGradePercentage() (percentage, earned, possible float64, ok bool) {
	switch {
	case a.PointsEarned != nil && a.PointsPossible != nil && *a.PointsPossible > 0:
		return *a.PointsEarned / *a.PointsPossible * 100, *a.PointsEarned, *a.PointsPossible, true
	case a.GradePercentage != nil:
		return *a.GradePercentage, *a.GradePercentage, 100, true
	case a.Grade != nil:
		return *a.Grade, *a.Grade, 100, true
	default:
		return 0, 0, 0, false
	}
}

// AssignmentFilter scopes assignment reads.
type AssignmentFilter struct {
	UserID        string
	CourseID      string
	CourseIDs     []string
	DueFrom       *time.Time
	DueTo         *time.Time
	CompletedOnly bool
	GradedOnly    bool
}
