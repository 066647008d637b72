package models

import "time"

// TermStatus represents the lifecycle state of an academic term.
type TermStatus string

const (
	TermStatusFuture TermStatus = "future"
	TermStatusActive TermStatus = "active"
	TermStatusPast   TermStatus = "past"
)

// Term models an academic term owned by a single user.
type Term struct {
	ID        string     `db:"id" json:"id"`
	UserID    string     `db:"user_id" json:"user_id"`
	Name      string     `db:"name" json:"name"`
	StartDate time.Time  `db:"start_date" json:"start_date"`
	EndDate   time.Time  `db:"end_date" json:"end_date"`
	Status    TermStatus `db:"status" json:"status"`
	CreatedAt time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt time.Time  `db:"updated_at" json:"updated_at"`
	DeletedAt *time.Time `db:"deleted_at" json:"deleted_at,omitempty"`
}

// TermCompletionResult summarises the effects of completing a term.
type TermCompletionResult struct {
	TermID                string  `json:"term_id"`
	TermCredits           float64 `json:"term_credits"`
	TotalCreditsEarned    float64 `json:"total_credits_earned"`
	TotalCreditsAttempted float64 `json:"total_credits_attempted"`
	TermGPA               float64 `json:"term_gpa"`
	OverallGPA            float64 `json:"overall_gpa"`
}

// SemesterCredits reports in-progress credits for a term alongside the
// user's running totals.
type SemesterCredits struct {
	TermID                 string  `json:"term_id"`
	CurrentSemesterCredits float64 `json:"current_semester_credits"`
	TotalCreditsEarned     float64 `json:"total_credits_earned"`
	TotalCreditsAttempted  float64 `json:"total_credits_attempted"`
}
