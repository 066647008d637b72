package models

import "time"

// Change types recorded in the user change log.
const (
	ChangeTypeGPAUpdate     = "gpa_update"
	ChangeTypeCreditUpdate  = "credit_update"
	ChangeTypeCounterUpdate = "counter_update"
	ChangeTypeTermCompleted = "term_completed"
)

// UserChangeLog is an append-only audit entry describing one field change on
// the user aggregate. Entries are never updated or deleted by this service.
type UserChangeLog struct {
	ID            string     `db:"id" json:"id"`
	UserID        string     `db:"user_id" json:"user_id"`
	MetricType    string     `db:"metric_type" json:"metric_type"`
	ChangeType    string     `db:"change_type" json:"change_type"`
	FieldName     string     `db:"field_name" json:"field_name"`
	PreviousValue float64    `db:"previous_value" json:"previous_value"`
	NewValue      float64    `db:"new_value" json:"new_value"`
	Reason        string     `db:"reason" json:"reason"`
	ChangedAt     time.Time  `db:"changed_at" json:"changed_at"`
	CreatedAt     time.Time  `db:"created_at" json:"created_at"`
	DeletedAt     *time.Time `db:"deleted_at" json:"deleted_at,omitempty"`
}

// ChangeLogFilter scopes audit reads.
type ChangeLogFilter struct {
	UserID     string
	ChangeType string
	Limit      int
}
