package models

import "time"

// PeriodType enumerates the aggregation granularities of a period summary.
type PeriodType string

const (
	PeriodDaily      PeriodType = "daily"
	Period5DayWeek   PeriodType = "5day_week"
	Period7DayWeek   PeriodType = "7day_week"
	PeriodBiweekly   PeriodType = "biweekly"
	PeriodMonthly    PeriodType = "monthly"
	PeriodSemester   PeriodType = "semester"
	PeriodSchoolYear PeriodType = "school_year"
)

// AllPeriodTypes lists every granularity handled by the batch recompute, in
// the order iterated.
var AllPeriodTypes = []PeriodType{
	PeriodDaily,
	Period5DayWeek,
	Period7DayWeek,
	PeriodBiweekly,
	PeriodMonthly,
	PeriodSemester,
	PeriodSchoolYear,
}

// Valid reports whether the period type is one of the seven known tags.
func (p PeriodType) Valid() bool {
	switch p {
	case PeriodDaily, Period5DayWeek, Period7DayWeek, PeriodBiweekly, PeriodMonthly, PeriodSemester, PeriodSchoolYear:
		return true
	}
	return false
}

// MetricType tags the shape of a persisted metric row.
const (
	MetricTypePeriodSummary  = "period_summary"
	MetricTypeGPACalculation = "gpa_calculation"
	MetricTypeUserChangeLog  = "user_change_log"
)

// WeekdayCounts tallies assignment due dates by weekday. Saturday and Sunday
// are only populated for full-week periods; elsewhere they stay nil.
type WeekdayCounts struct {
	Monday    int  `db:"monday_count" json:"monday"`
	Tuesday   int  `db:"tuesday_count" json:"tuesday"`
	Wednesday int  `db:"wednesday_count" json:"wednesday"`
	Thursday  int  `db:"thursday_count" json:"thursday"`
	Friday    int  `db:"friday_count" json:"friday"`
	Saturday  *int `db:"saturday_count" json:"saturday,omitempty"`
	Sunday    *int `db:"sunday_count" json:"sunday,omitempty"`
}

// PeriodSummary is the persisted snapshot produced by one metrics
// computation. Rows are unique on (user, course, period type, window); an
// empty CourseID marks the overall, cross-course summary.
type PeriodSummary struct {
	ID         string     `db:"id" json:"id"`
	UserID     string     `db:"user_id" json:"user_id"`
	CourseID   string     `db:"course_id" json:"course_id,omitempty"`
	TermID     string     `db:"term_id" json:"term_id,omitempty"`
	MetricType string     `db:"metric_type" json:"metric_type"`
	PeriodType PeriodType `db:"period_type" json:"period_type"`

	PeriodStart int64  `db:"period_start" json:"period_start"`
	PeriodEnd   int64  `db:"period_end" json:"period_end"`
	PeriodLabel string `db:"period_label" json:"period_label"`

	TotalAssignments     int `db:"total_assignments" json:"total_assignments"`
	CompletedAssignments int `db:"completed_assignments" json:"completed_assignments"`
	PendingAssignments   int `db:"pending_assignments" json:"pending_assignments"`
	OverdueAssignments   int `db:"overdue_assignments" json:"overdue_assignments"`
	GradedAssignments    int `db:"graded_assignments" json:"graded_assignments"`

	AverageGrade   *float64 `db:"average_grade" json:"average_grade,omitempty"`
	MinGrade       *float64 `db:"min_grade" json:"min_grade,omitempty"`
	MaxGrade       *float64 `db:"max_grade" json:"max_grade,omitempty"`
	PointsEarned   float64  `db:"points_earned" json:"points_earned"`
	PointsPossible float64  `db:"points_possible" json:"points_possible"`

	GradesA int `db:"grades_a" json:"grades_a"`
	GradesB int `db:"grades_b" json:"grades_b"`
	GradesC int `db:"grades_c" json:"grades_c"`
	GradesD int `db:"grades_d" json:"grades_d"`
	GradesF int `db:"grades_f" json:"grades_f"`

	WeekdayCounts

	IsComplete bool       `db:"is_complete" json:"is_complete"`
	ComputedAt time.Time  `db:"computed_at" json:"computed_at"`
	CreatedAt  time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time  `db:"updated_at" json:"updated_at"`
	DeletedAt  *time.Time `db:"deleted_at" json:"deleted_at,omitempty"`
}

// PeriodSummaryFilter scopes snapshot reads.
type PeriodSummaryFilter struct {
	UserID      string
	CourseID    string
	TermID      string
	PeriodType  PeriodType
	PeriodStart *int64
	PeriodEnd   *int64
	Limit       int
}

// SummaryStats rolls every stored period summary for a scope into running
// totals. A nil value means no snapshots exist for the scope.
type SummaryStats struct {
	SnapshotCount        int      `db:"snapshot_count" json:"snapshot_count"`
	TotalAssignments     int      `db:"total_assignments" json:"total_assignments"`
	CompletedAssignments int      `db:"completed_assignments" json:"completed_assignments"`
	PendingAssignments   int      `db:"pending_assignments" json:"pending_assignments"`
	OverdueAssignments   int      `db:"overdue_assignments" json:"overdue_assignments"`
	GradedAssignments    int      `db:"graded_assignments" json:"graded_assignments"`
	AverageGrade         *float64 `db:"average_grade" json:"average_grade,omitempty"`
	GradesA              int      `db:"grades_a" json:"grades_a"`
	GradesB              int      `db:"grades_b" json:"grades_b"`
	GradesC              int      `db:"grades_c" json:"grades_c"`
	GradesD              int      `db:"grades_d" json:"grades_d"`
	GradesF              int      `db:"grades_f" json:"grades_f"`
}

// BatchCalculationResult records one iteration of the recompute-all loop.
// Failed iterations carry the error message and no snapshot ID.
type BatchCalculationResult struct {
	CourseID   string     `json:"course_id,omitempty"`
	PeriodType PeriodType `json:"period_type"`
	SnapshotID string     `json:"snapshot_id,omitempty"`
	Error      string     `json:"error,omitempty"`
}
