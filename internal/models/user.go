package models

import "time"

// User represents a planner account stored in the users table. Identity is
// owned by the external auth provider; rows are keyed by the provider subject
// and carry the cached academic aggregates this service maintains.
type User struct {
	ID                    string     `db:"id" json:"id"`
	Subject               string     `db:"subject" json:"subject"`
	Email                 string     `db:"email" json:"email"`
	FullName              string     `db:"full_name" json:"full_name"`
	CurrentGPA            float64    `db:"current_gpa" json:"current_gpa"`
	InstitutionGPA        float64    `db:"institution_gpa" json:"institution_gpa"`
	PredictedTermGPA      float64    `db:"predicted_term_gpa" json:"predicted_term_gpa"`
	TransferGPA           float64    `db:"transfer_gpa" json:"transfer_gpa"`
	TransferCredits       float64    `db:"transfer_credits" json:"transfer_credits"`
	TotalCreditsEarned    float64    `db:"total_credits_earned" json:"total_credits_earned"`
	TotalCreditsAttempted float64    `db:"total_credits_attempted" json:"total_credits_attempted"`
	CompletedAssignments  int        `db:"completed_assignments" json:"completed_assignments"`
	TotalAssignments      int        `db:"total_assignments" json:"total_assignments"`
	CreatedAt             time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt             time.Time  `db:"updated_at" json:"updated_at"`
	DeletedAt             *time.Time `db:"deleted_at" json:"deleted_at,omitempty"`
}

// JWTClaims carries the verified identity extracted from a provider token.
type JWTClaims struct {
	Subject string `json:"sub"`
	Email   string `json:"email,omitempty"`
}

// Pagination contains pagination metadata returned in list responses.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
}
