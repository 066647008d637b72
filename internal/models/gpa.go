package models

import "time"

// GPACalculationMethod tags how a GPA snapshot was produced.
const (
	GPAMethodCreditWeighted = "credit_weighted"
	GPAMethodTermCompletion = "term_completion"
)

// GPASnapshot is an append-only history row written on every GPA
// calculation. Unlike period summaries these are never upserted.
type GPASnapshot struct {
	ID                string     `db:"id" json:"id"`
	UserID            string     `db:"user_id" json:"user_id"`
	TermID            string     `db:"term_id" json:"term_id,omitempty"`
	MetricType        string     `db:"metric_type" json:"metric_type"`
	TransferGPA       float64    `db:"transfer_gpa" json:"transfer_gpa"`
	TransferCredits   float64    `db:"transfer_credits" json:"transfer_credits"`
	InstitutionGPA    float64    `db:"institution_gpa" json:"institution_gpa"`
	PredictedTermGPA  float64    `db:"predicted_term_gpa" json:"predicted_term_gpa"`
	OverallGPA        float64    `db:"overall_gpa" json:"overall_gpa"`
	CreditsEarned     float64    `db:"credits_earned" json:"credits_earned"`
	CreditsAttempted  float64    `db:"credits_attempted" json:"credits_attempted"`
	CalculationMethod string     `db:"calculation_method" json:"calculation_method"`
	CalculatedAt      time.Time  `db:"calculated_at" json:"calculated_at"`
	CreatedAt         time.Time  `db:"created_at" json:"created_at"`
	DeletedAt         *time.Time `db:"deleted_at" json:"deleted_at,omitempty"`
}

// GPAResult is the computed outcome returned to callers. The snapshot ID
// references the history row persisted for this calculation.
type GPAResult struct {
	SnapshotID       string  `json:"snapshot_id"`
	UserID           string  `json:"user_id"`
	TermID           string  `json:"term_id,omitempty"`
	TransferGPA      float64 `json:"transfer_gpa"`
	TransferCredits  float64 `json:"transfer_credits"`
	InstitutionGPA   float64 `json:"institution_gpa"`
	PredictedTermGPA float64 `json:"predicted_term_gpa"`
	OverallGPA       float64 `json:"overall_gpa"`
	GradedCourses    int     `json:"graded_courses"`
	UpdatedFields    int     `json:"updated_fields"`
}

// GPASnapshotFilter scopes GPA history reads.
type GPASnapshotFilter struct {
	UserID string
	TermID string
	Limit  int
}
