package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fptr(v float64) *float64 { return &v }

func TestResolveGradePercentagePrecedence(t *testing.T) {
	tests := []struct {
		name         string
		assignment   Assignment
		wantPercent  float64
		wantEarned   float64
		wantPossible float64
	}{
		{
			name: "points win over legacy grade",
			assignment: Assignment{
				PointsEarned:   fptr(45),
				PointsPossible: fptr(50),
				Grade:          fptr(80),
			},
			wantPercent:  90,
			wantEarned:   45,
			wantPossible: 50,
		},
		{
			name: "points win over stored percentage and grade",
			assignment: Assignment{
				PointsEarned:    fptr(18),
				PointsPossible:  fptr(20),
				GradePercentage: fptr(75),
				Grade:           fptr(60),
			},
			wantPercent:  90,
			wantEarned:   18,
			wantPossible: 20,
		},
		{
			name: "percentage wins over legacy grade",
			assignment: Assignment{
				GradePercentage: fptr(84),
				Grade:           fptr(70),
			},
			wantPercent:  84,
			wantEarned:   84,
			wantPossible: 100,
		},
		{
			name: "zero possible points falls through to percentage",
			assignment: Assignment{
				PointsEarned:    fptr(10),
				PointsPossible:  fptr(0),
				GradePercentage: fptr(88),
			},
			wantPercent:  88,
			wantEarned:   88,
			wantPossible: 100,
		},
		{
			name:         "legacy grade alone",
			assignment:   Assignment{Grade: fptr(72)},
			wantPercent:  72,
			wantEarned:   72,
			wantPossible: 100,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			percent, earned, possible, ok := tc.assignment.ResolveGradePercentage()
			require.True(t, ok)
			assert.InDelta(t, tc.wantPercent, percent, 0.0001)
			assert.InDelta(t, tc.wantEarned, earned, 0.0001)
			assert.InDelta(t, tc.wantPossible, possible, 0.0001)
		})
	}
}

func TestResolveGradePercentageUngraded(t *testing.T) {
	_, _, _, ok := Assignment{Status: AssignmentStatusDone}.ResolveGradePercentage()
	assert.False(t, ok)

	// A points pair with nothing earned is still ungraded territory when
	// the possible side is missing.
	_, _, _, ok = Assignment{PointsEarned: fptr(12)}.ResolveGradePercentage()
	assert.False(t, ok)
}
