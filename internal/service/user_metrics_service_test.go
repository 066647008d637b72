package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/academic-metrics-api/internal/models"
)

func newUserMetricsFixture(user *models.User) (*UserMetricsService, *fakeUserStore, *fakeChangeLog) {
	users := &fakeUserStore{users: map[string]*models.User{user.ID: user}}
	changeLog := &fakeChangeLog{}
	svc := NewUserMetricsService(users, changeLog, 0, nil, zap.NewNop())
	return svc, users, changeLog
}

func TestUserMetricsUpdatePatchesAndAudits(t *testing.T) {
	user := &models.User{ID: "u1", CurrentGPA: 3.0, TotalCreditsEarned: 60}
	svc, users, changeLog := newUserMetricsFixture(user)

	patched, err := svc.Update(context.Background(), "u1", UpdateUserMetricsRequest{
		CurrentGPA:         ptrFloat(3.5),
		TotalCreditsEarned: ptrFloat(63),
		ChangeReason:       "registrar import",
	})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"current_gpa", "total_credits_earned"}, patched)

	require.Len(t, users.patches, 1)
	assert.InDelta(t, 3.5, users.patches[0]["current_gpa"], 0.0001)
	assert.InDelta(t, 63.0, users.patches[0]["total_credits_earned"], 0.0001)

	require.Len(t, changeLog.entries, 2)
	for _, entry := range changeLog.entries {
		assert.Equal(t, "registrar import", entry.Reason)
	}
	byField := map[string]models.UserChangeLog{}
	for _, entry := range changeLog.entries {
		byField[entry.FieldName] = entry
	}
	assert.Equal(t, models.ChangeTypeGPAUpdate, byField["current_gpa"].ChangeType)
	assert.Equal(t, models.ChangeTypeCreditUpdate, byField["total_credits_earned"].ChangeType)
	assert.InDelta(t, 3.0, byField["current_gpa"].PreviousValue, 0.0001)
}

func TestUserMetricsUpdateSkipsGPAWithinEpsilon(t *testing.T) {
	user := &models.User{ID: "u1", CurrentGPA: 3.5}
	svc, users, changeLog := newUserMetricsFixture(user)

	patched, err := svc.Update(context.Background(), "u1", UpdateUserMetricsRequest{
		CurrentGPA: ptrFloat(3.505),
	})
	require.NoError(t, err)
	assert.Empty(t, patched)
	assert.Empty(t, users.patches)
	assert.Empty(t, changeLog.entries)
}

func TestUserMetricsUpdateCreditsUseExactDiff(t *testing.T) {
	user := &models.User{ID: "u1", TransferCredits: 12}
	svc, users, _ := newUserMetricsFixture(user)

	// A credit change smaller than the GPA epsilon still gets written.
	patched, err := svc.Update(context.Background(), "u1", UpdateUserMetricsRequest{
		TransferCredits: ptrFloat(12.005),
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"transfer_credits"}, patched)
	require.Len(t, users.patches, 1)
}

func TestUserMetricsUpdateDefaultsReason(t *testing.T) {
	user := &models.User{ID: "u1"}
	svc, _, changeLog := newUserMetricsFixture(user)

	_, err := svc.Update(context.Background(), "u1", UpdateUserMetricsRequest{
		TotalCreditsAttempted: ptrFloat(15),
	})
	require.NoError(t, err)
	require.Len(t, changeLog.entries, 1)
	assert.Equal(t, "manual metrics update", changeLog.entries[0].Reason)
}

func TestUserMetricsUpdateUnknownUser(t *testing.T) {
	svc, _, _ := newUserMetricsFixture(&models.User{ID: "u1"})
	_, err := svc.Update(context.Background(), "ghost", UpdateUserMetricsRequest{CurrentGPA: ptrFloat(3)})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "user not found")
}

func TestUserMetricsChangeHistoryFilters(t *testing.T) {
	user := &models.User{ID: "u1"}
	svc, _, changeLog := newUserMetricsFixture(user)
	changeLog.entries = []models.UserChangeLog{
		{UserID: "u1", ChangeType: models.ChangeTypeGPAUpdate, FieldName: "current_gpa"},
		{UserID: "u1", ChangeType: models.ChangeTypeCreditUpdate, FieldName: "transfer_credits"},
	}

	history, err := svc.ChangeHistory(context.Background(), models.ChangeLogFilter{
		UserID:     "u1",
		ChangeType: models.ChangeTypeGPAUpdate,
	})
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, "current_gpa", history[0].FieldName)
}
