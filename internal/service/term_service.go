package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/noah-isme/academic-metrics-api/internal/models"
	appErrors "github.com/noah-isme/academic-metrics-api/pkg/errors"
)

type termStore interface {
	FindByID(ctx context.Context, id string) (*models.Term, error)
	FindActive(ctx context.Context, userID string) (*models.Term, error)
	SetStatus(ctx context.Context, id string, status models.TermStatus) error
}

type creditSummer interface {
	SumCreditHours(ctx context.Context, userID, termID string) (float64, error)
}

type gpaCalculator interface {
	Calculate(ctx context.Context, userID, termID string) (*models.GPAResult, error)
}

// TermService closes out academic terms and reports in-progress credits.
type TermService struct {
	terms     termStore
	credits   creditSummer
	users     userStore
	changeLog changeLogAppender
	gpa       gpaCalculator
	logger    *zap.Logger
}

// NewTermService constructs a TermService.
func NewTermService(terms termStore, credits creditSummer, users userStore,
	changeLog changeLogAppender, gpa gpaCalculator, logger *zap.Logger) *TermService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TermService{terms: terms, credits: credits, users: users, changeLog: changeLog, gpa: gpa, logger: logger}
}

// Complete finalises a term: recomputes the term GPA, adds the term's credit
// hours to the user's running totals, marks the term past, and appends one
// audit entry. Completing an already-past term is rejected; running this
// twice would double-count credits.
func (s *TermService) Complete(ctx context.Context, termID, userID string) (*models.TermCompletionResult, error) {
	if termID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "term required")
	}
	term, err := s.terms.FindByID(ctx, termID)
	if err != nil {
		if isNoRows(err) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "term not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load term")
	}
	if term.UserID != userID {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "term not found")
	}
	if term.Status == models.TermStatusPast {
		return nil, appErrors.Clone(appErrors.ErrTermCompleted, fmt.Sprintf("term %s already completed", term.Name))
	}

	gpaResult, err := s.gpa.Calculate(ctx, userID, termID)
	if err != nil {
		return nil, err
	}
	termCredits, err := s.credits.SumCreditHours(ctx, userID, termID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sum term credits")
	}
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load user")
	}

	newEarned := user.TotalCreditsEarned + termCredits
	newAttempted := user.TotalCreditsAttempted + termCredits
	if err := s.users.PatchAggregates(ctx, userID, map[string]float64{
		"total_credits_earned":    newEarned,
		"total_credits_attempted": newAttempted,
	}); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update credit totals")
	}
	if err := s.terms.SetStatus(ctx, termID, models.TermStatusPast); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to close term")
	}

	entry := &models.UserChangeLog{
		UserID:        userID,
		ChangeType:    models.ChangeTypeTermCompleted,
		FieldName:     "total_credits_earned",
		PreviousValue: user.TotalCreditsEarned,
		NewValue:      newEarned,
		Reason:        fmt.Sprintf("completed term %s (%.0f credits, term GPA %.2f)", term.Name, termCredits, gpaResult.PredictedTermGPA),
	}
	if err := s.changeLog.Append(ctx, entry); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to append change log")
	}

	s.logger.Info("term completed",
		zap.String("term_id", termID),
		zap.String("user_id", userID),
		zap.Float64("term_credits", termCredits),
		zap.Float64("term_gpa", gpaResult.PredictedTermGPA))

	return &models.TermCompletionResult{
		TermID:                termID,
		TermCredits:           termCredits,
		TotalCreditsEarned:    newEarned,
		TotalCreditsAttempted: newAttempted,
		TermGPA:               gpaResult.PredictedTermGPA,
		OverallGPA:            gpaResult.OverallGPA,
	}, nil
}

// SemesterCredits reports credit hours in progress for a term (the user's
// active term when none is given) alongside running totals.
func (s *TermService) SemesterCredits(ctx context.Context, userID, termID string) (*models.SemesterCredits, error) {
	if termID == "" {
		term, err := s.terms.FindActive(ctx, userID)
		if err != nil {
			if isNoRows(err) {
				return nil, appErrors.Clone(appErrors.ErrNotFound, "no active term")
			}
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load active term")
		}
		termID = term.ID
	}
	current, err := s.credits.SumCreditHours(ctx, userID, termID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sum term credits")
	}
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load user")
	}
	return &models.SemesterCredits{
		TermID:                 termID,
		CurrentSemesterCredits: current,
		TotalCreditsEarned:     user.TotalCreditsEarned,
		TotalCreditsAttempted:  user.TotalCreditsAttempted,
	}, nil
}
