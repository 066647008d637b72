package service

import (
	"context"
	"math"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/academic-metrics-api/internal/models"
	appErrors "github.com/noah-isme/academic-metrics-api/pkg/errors"
)

type changeLogStore interface {
	changeLogAppender
	List(ctx context.Context, filter models.ChangeLogFilter) ([]models.UserChangeLog, error)
}

// UpdateUserMetricsRequest is the closed set of user aggregate fields a
// caller may patch. Absent fields are left untouched.
type UpdateUserMetricsRequest struct {
	CurrentGPA            *float64 `json:"current_gpa"`
	InstitutionGPA        *float64 `json:"institution_gpa"`
	PredictedTermGPA      *float64 `json:"predicted_term_gpa"`
	TransferGPA           *float64 `json:"transfer_gpa"`
	TransferCredits       *float64 `json:"transfer_credits"`
	TotalCreditsEarned    *float64 `json:"total_credits_earned"`
	TotalCreditsAttempted *float64 `json:"total_credits_attempted"`
	ChangeReason          string   `json:"change_reason"`
}

// metricField binds an updatable column to its change classification and
// whether the GPA noise threshold applies.
type metricField struct {
	column     string
	changeType string
	gpaField   bool
	value      func(req UpdateUserMetricsRequest) *float64
	current    func(user *models.User) float64
}

var metricFields = []metricField{
	{"current_gpa", models.ChangeTypeGPAUpdate, true,
		func(r UpdateUserMetricsRequest) *float64 { return r.CurrentGPA },
		func(u *models.User) float64 { return u.CurrentGPA }},
	{"institution_gpa", models.ChangeTypeGPAUpdate, true,
		func(r UpdateUserMetricsRequest) *float64 { return r.InstitutionGPA },
		func(u *models.User) float64 { return u.InstitutionGPA }},
	{"predicted_term_gpa", models.ChangeTypeGPAUpdate, true,
		func(r UpdateUserMetricsRequest) *float64 { return r.PredictedTermGPA },
		func(u *models.User) float64 { return u.PredictedTermGPA }},
	{"transfer_gpa", models.ChangeTypeGPAUpdate, true,
		func(r UpdateUserMetricsRequest) *float64 { return r.TransferGPA },
		func(u *models.User) float64 { return u.TransferGPA }},
	{"transfer_credits", models.ChangeTypeCreditUpdate, false,
		func(r UpdateUserMetricsRequest) *float64 { return r.TransferCredits },
		func(u *models.User) float64 { return u.TransferCredits }},
	{"total_credits_earned", models.ChangeTypeCreditUpdate, false,
		func(r UpdateUserMetricsRequest) *float64 { return r.TotalCreditsEarned },
		func(u *models.User) float64 { return u.TotalCreditsEarned }},
	{"total_credits_attempted", models.ChangeTypeCreditUpdate, false,
		func(r UpdateUserMetricsRequest) *float64 { return r.TotalCreditsAttempted },
		func(u *models.User) float64 { return u.TotalCreditsAttempted }},
}

// UserMetricsService patches user aggregate fields and serves the audit
// trail.
type UserMetricsService struct {
	users     userStore
	changeLog changeLogStore
	validator *validator.Validate
	logger    *zap.Logger
	epsilon   float64
	now       func() time.Time
}

// NewUserMetricsService constructs a UserMetricsService.
func NewUserMetricsService(users userStore, changeLog changeLogStore, epsilon float64,
	validate *validator.Validate, logger *zap.Logger) *UserMetricsService {
	if epsilon <= 0 {
		epsilon = DefaultGPAEpsilon
	}
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UserMetricsService{
		users:     users,
		changeLog: changeLog,
		validator: validate,
		logger:    logger,
		epsilon:   epsilon,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Update patches the supplied fields on the user aggregate, skipping values
// within the noise threshold of the stored ones, and appends one audit entry
// per written field. It returns the names of the fields written.
func (s *UserMetricsService) Update(ctx context.Context, userID string, req UpdateUserMetricsRequest) ([]string, error) {
	if userID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "user required")
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid metrics update")
	}
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if isNoRows(err) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "user not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load user")
	}

	reason := req.ChangeReason
	if reason == "" {
		reason = "manual metrics update"
	}

	patch := make(map[string]float64)
	var entries []*models.UserChangeLog
	for _, field := range metricFields {
		value := field.value(req)
		if value == nil {
			continue
		}
		current := field.current(user)
		delta := math.Abs(*value - current)
		if field.gpaField && delta <= s.epsilon {
			continue
		}
		if !field.gpaField && delta == 0 {
			continue
		}
		patch[field.column] = *value
		entries = append(entries, &models.UserChangeLog{
			UserID:        userID,
			ChangeType:    field.changeType,
			FieldName:     field.column,
			PreviousValue: current,
			NewValue:      *value,
			Reason:        reason,
			ChangedAt:     s.now(),
		})
	}
	if len(patch) == 0 {
		return nil, nil
	}

	if err := s.users.PatchAggregates(ctx, userID, patch); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to patch user metrics")
	}
	patched := make([]string, 0, len(entries))
	for _, entry := range entries {
		if err := s.changeLog.Append(ctx, entry); err != nil {
			return patched, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to append change log")
		}
		patched = append(patched, entry.FieldName)
	}
	return patched, nil
}

// ChangeHistory returns audit entries, most recent first.
func (s *UserMetricsService) ChangeHistory(ctx context.Context, filter models.ChangeLogFilter) ([]models.UserChangeLog, error) {
	if filter.UserID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "user required")
	}
	entries, err := s.changeLog.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list change history")
	}
	return entries, nil
}
