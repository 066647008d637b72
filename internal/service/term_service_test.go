package service

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/academic-metrics-api/internal/models"
	appErrors "github.com/noah-isme/academic-metrics-api/pkg/errors"
)

type fakeTermStore struct {
	terms    map[string]*models.Term
	statuses map[string]models.TermStatus
}

func (m *fakeTermStore) FindByID(ctx context.Context, id string) (*models.Term, error) {
	if term, ok := m.terms[id]; ok {
		return term, nil
	}
	return nil, sql.ErrNoRows
}

func (m *fakeTermStore) FindActive(ctx context.Context, userID string) (*models.Term, error) {
	for _, term := range m.terms {
		if term.UserID == userID && term.Status == models.TermStatusActive {
			return term, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *fakeTermStore) SetStatus(ctx context.Context, id string, status models.TermStatus) error {
	if m.statuses == nil {
		m.statuses = make(map[string]models.TermStatus)
	}
	m.statuses[id] = status
	return nil
}

type fakeGPACalculator struct {
	result *models.GPAResult
	err    error
	calls  int
}

func (m *fakeGPACalculator) Calculate(ctx context.Context, userID, termID string) (*models.GPAResult, error) {
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	return m.result, nil
}

func newTermFixture(term *models.Term, user *models.User, courses map[string]*models.Course, gpa *fakeGPACalculator) (*TermService, *fakeTermStore, *fakeUserStore, *fakeChangeLog) {
	terms := &fakeTermStore{terms: map[string]*models.Term{term.ID: term}}
	users := &fakeUserStore{users: map[string]*models.User{user.ID: user}}
	changeLog := &fakeChangeLog{}
	svc := NewTermService(terms, &fakeCourseRepo{courses: courses}, users, changeLog, gpa, zap.NewNop())
	return svc, terms, users, changeLog
}

func TestTermServiceComplete(t *testing.T) {
	term := &models.Term{ID: "t1", UserID: "u1", Name: "Spring 2024", Status: models.TermStatusActive,
		StartDate: time.Date(2024, 1, 8, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2024, 5, 10, 0, 0, 0, 0, time.UTC)}
	user := &models.User{ID: "u1", TotalCreditsEarned: 10, TotalCreditsAttempted: 10}
	courses := map[string]*models.Course{
		"c1": {ID: "c1", UserID: "u1", TermID: "t1", CreditHours: 3, Status: models.CourseStatusActive},
		"c2": {ID: "c2", UserID: "u1", TermID: "t1", CreditHours: 4, Status: models.CourseStatusActive},
	}
	gpa := &fakeGPACalculator{result: &models.GPAResult{PredictedTermGPA: 3.4, OverallGPA: 3.2}}
	svc, terms, users, changeLog := newTermFixture(term, user, courses, gpa)

	result, err := svc.Complete(context.Background(), "t1", "u1")
	require.NoError(t, err)

	assert.InDelta(t, 7.0, result.TermCredits, 0.0001)
	assert.InDelta(t, 17.0, result.TotalCreditsEarned, 0.0001)
	assert.InDelta(t, 17.0, result.TotalCreditsAttempted, 0.0001)
	assert.InDelta(t, 3.4, result.TermGPA, 0.0001)
	assert.InDelta(t, 3.2, result.OverallGPA, 0.0001)

	assert.Equal(t, 1, gpa.calls)
	assert.Equal(t, models.TermStatusPast, terms.statuses["t1"])

	require.Len(t, users.patches, 1)
	assert.InDelta(t, 17.0, users.patches[0]["total_credits_earned"], 0.0001)

	require.Len(t, changeLog.entries, 1)
	entry := changeLog.entries[0]
	assert.Equal(t, models.ChangeTypeTermCompleted, entry.ChangeType)
	assert.Equal(t, "total_credits_earned", entry.FieldName)
	assert.InDelta(t, 10.0, entry.PreviousValue, 0.0001)
	assert.InDelta(t, 17.0, entry.NewValue, 0.0001)
	assert.Contains(t, entry.Reason, "Spring 2024")
}

func TestTermServiceCompleteRejectsPastTerm(t *testing.T) {
	term := &models.Term{ID: "t1", UserID: "u1", Name: "Fall 2023", Status: models.TermStatusPast}
	user := &models.User{ID: "u1", TotalCreditsEarned: 17}
	gpa := &fakeGPACalculator{result: &models.GPAResult{}}
	svc, _, users, changeLog := newTermFixture(term, user, nil, gpa)

	_, err := svc.Complete(context.Background(), "t1", "u1")
	require.Error(t, err)

	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, appErrors.ErrTermCompleted.Code, appErr.Code)

	// Guard fires before any side effect; credits are not double-counted.
	assert.Equal(t, 0, gpa.calls)
	assert.Empty(t, users.patches)
	assert.Empty(t, changeLog.entries)
}

func TestTermServiceCompleteRejectsForeignTerm(t *testing.T) {
	term := &models.Term{ID: "t1", UserID: "other", Status: models.TermStatusActive}
	user := &models.User{ID: "u1"}
	svc, _, _, _ := newTermFixture(term, user, nil, &fakeGPACalculator{result: &models.GPAResult{}})

	_, err := svc.Complete(context.Background(), "t1", "u1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "term not found")
}

func TestTermServiceSemesterCreditsDefaultsToActiveTerm(t *testing.T) {
	term := &models.Term{ID: "t1", UserID: "u1", Status: models.TermStatusActive}
	user := &models.User{ID: "u1", TotalCreditsEarned: 30, TotalCreditsAttempted: 33}
	courses := map[string]*models.Course{
		"c1": {ID: "c1", UserID: "u1", TermID: "t1", CreditHours: 3, Status: models.CourseStatusActive},
		"c2": {ID: "c2", UserID: "u1", TermID: "t1", CreditHours: 3, Status: models.CourseStatusDropped},
	}
	svc, _, _, _ := newTermFixture(term, user, courses, &fakeGPACalculator{result: &models.GPAResult{}})

	credits, err := svc.SemesterCredits(context.Background(), "u1", "")
	require.NoError(t, err)
	assert.Equal(t, "t1", credits.TermID)
	assert.InDelta(t, 3.0, credits.CurrentSemesterCredits, 0.0001)
	assert.InDelta(t, 30.0, credits.TotalCreditsEarned, 0.0001)
	assert.InDelta(t, 33.0, credits.TotalCreditsAttempted, 0.0001)
}
