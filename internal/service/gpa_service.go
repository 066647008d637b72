package service

import (
	"context"
	"math"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/academic-metrics-api/internal/models"
	appErrors "github.com/noah-isme/academic-metrics-api/pkg/errors"
)

type userStore interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
	PatchAggregates(ctx context.Context, userID string, fields map[string]float64) error
}

type gpaSnapshotStore interface {
	Insert(ctx context.Context, snapshot *models.GPASnapshot) error
	List(ctx context.Context, filter models.GPASnapshotFilter) ([]models.GPASnapshot, error)
}

type changeLogAppender interface {
	Append(ctx context.Context, entry *models.UserChangeLog) error
}

// DefaultGPAEpsilon is the noise threshold below which cached GPA fields are
// not rewritten. It keeps floating-point jitter out of the audit trail.
const DefaultGPAEpsilon = 0.01

// gradeBreakpoints maps percentage floors to 4.0-scale grade points. Each
// threshold is inclusive; the first one at or below the percentage wins.
var gradeBreakpoints = []struct {
	threshold float64
	points    float64
}{
	{97, 4.0},
	{93, 3.7},
	{90, 3.3},
	{87, 3.0},
	{83, 2.7},
	{80, 2.3},
	{77, 2.0},
	{73, 1.7},
	{70, 1.3},
	{67, 1.0},
	{65, 0.7},
}

// GradePoints converts a 0-100 percentage to 4.0-scale grade points.
func GradePoints(percentage float64) float64 {
	for _, breakpoint := range gradeBreakpoints {
		if percentage >= breakpoint.threshold {
			return breakpoint.points
		}
	}
	return 0.0
}

// WeightedGPA blends two GPA figures by their credit weights, guarding the
// zero-credit case.
func WeightedGPA(gpaA, creditsA, gpaB, creditsB float64) float64 {
	totalCredits := creditsA + creditsB
	if totalCredits == 0 {
		return 0
	}
	return (gpaA*creditsA + gpaB*creditsB) / totalCredits
}

// GPAService walks completed, graded assignments and maintains the user's
// derived GPA figures.
type GPAService struct {
	users           userStore
	courses         courseReader
	assignments     assignmentReader
	snapshots       gpaSnapshotStore
	changeLog       changeLogAppender
	instrumentation *InstrumentationService
	logger          *zap.Logger
	epsilon         float64
	round           func(float64) float64
	now             func() time.Time
}

// NewGPAService constructs a GPAService. A non-positive epsilon falls back
// to the default noise threshold.
func NewGPAService(users userStore, courses courseReader, assignments assignmentReader,
	snapshots gpaSnapshotStore, changeLog changeLogAppender,
	instrumentation *InstrumentationService, epsilon float64, logger *zap.Logger) *GPAService {
	if epsilon <= 0 {
		epsilon = DefaultGPAEpsilon
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GPAService{
		users:           users,
		courses:         courses,
		assignments:     assignments,
		snapshots:       snapshots,
		changeLog:       changeLog,
		instrumentation: instrumentation,
		logger:          logger,
		epsilon:         epsilon,
		round:           func(v float64) float64 { return math.RoundToEven(v*100) / 100 },
		now:             func() time.Time { return time.Now().UTC() },
	}
}

// Calculate recomputes the user's GPA figures, appends a history snapshot,
// and patches the cached user fields that moved beyond the noise threshold.
// An optional term scopes the predicted term GPA.
func (s *GPAService) Calculate(ctx context.Context, userID, termID string) (*models.GPAResult, error) {
	if userID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "user required")
	}
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if isNoRows(err) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "user not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load user")
	}

	courses, err := s.courses.List(ctx, models.CourseFilter{UserID: userID})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list courses")
	}
	assignments, err := s.assignments.List(ctx, models.AssignmentFilter{
		UserID:        userID,
		CompletedOnly: true,
		GradedOnly:    true,
	})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list assignments")
	}

	courseAverages := averageGradePointsByCourse(assignments)

	institutionGPA, institutionCredits, gradedCourses := creditWeightedGPA(courses, courseAverages, "")
	predictedTermGPA := institutionGPA
	if termID != "" {
		predictedTermGPA, _, _ = creditWeightedGPA(courses, courseAverages, termID)
	}
	overallGPA := WeightedGPA(user.TransferGPA, user.TransferCredits, institutionGPA, institutionCredits)

	institutionGPA = s.round(institutionGPA)
	predictedTermGPA = s.round(predictedTermGPA)
	overallGPA = s.round(overallGPA)

	snapshot := &models.GPASnapshot{
		UserID:            userID,
		TermID:            termID,
		MetricType:        models.MetricTypeGPACalculation,
		TransferGPA:       user.TransferGPA,
		TransferCredits:   user.TransferCredits,
		InstitutionGPA:    institutionGPA,
		PredictedTermGPA:  predictedTermGPA,
		OverallGPA:        overallGPA,
		CreditsEarned:     user.TotalCreditsEarned,
		CreditsAttempted:  user.TotalCreditsAttempted,
		CalculationMethod: models.GPAMethodCreditWeighted,
		CalculatedAt:      s.now(),
	}
	if err := s.snapshots.Insert(ctx, snapshot); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to persist gpa snapshot")
	}
	s.instrumentation.RecordGPACalculation()

	updated, err := s.patchUserGPA(ctx, user, map[string]float64{
		"predicted_term_gpa": predictedTermGPA,
		"institution_gpa":    institutionGPA,
		"current_gpa":        overallGPA,
	}, "gpa recalculation")
	if err != nil {
		return nil, err
	}

	return &models.GPAResult{
		SnapshotID:       snapshot.ID,
		UserID:           userID,
		TermID:           termID,
		TransferGPA:      user.TransferGPA,
		TransferCredits:  user.TransferCredits,
		InstitutionGPA:   institutionGPA,
		PredictedTermGPA: predictedTermGPA,
		OverallGPA:       overallGPA,
		GradedCourses:    gradedCourses,
		UpdatedFields:    updated,
	}, nil
}

// History returns GPA snapshots, most recent first.
func (s *GPAService) History(ctx context.Context, filter models.GPASnapshotFilter) ([]models.GPASnapshot, error) {
	if filter.UserID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "user required")
	}
	start := s.now()
	snapshots, err := s.snapshots.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list gpa history")
	}
	s.instrumentation.ObserveDBQuery("gpa_history", time.Since(start))
	return snapshots, nil
}

// patchUserGPA writes fields whose delta exceeds the epsilon, logging each
// change. It returns the number of fields written.
func (s *GPAService) patchUserGPA(ctx context.Context, user *models.User, values map[string]float64, reason string) (int, error) {
	current := map[string]float64{
		"predicted_term_gpa": user.PredictedTermGPA,
		"institution_gpa":    user.InstitutionGPA,
		"current_gpa":        user.CurrentGPA,
	}
	patch := make(map[string]float64, len(values))
	// Stable order keeps the audit trail deterministic.
	for _, field := range []string{"predicted_term_gpa", "institution_gpa", "current_gpa"} {
		value, ok := values[field]
		if !ok {
			continue
		}
		if math.Abs(value-current[field]) <= s.epsilon {
			continue
		}
		patch[field] = value
	}
	if len(patch) == 0 {
		return 0, nil
	}
	if err := s.users.PatchAggregates(ctx, user.ID, patch); err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to patch user gpa")
	}
	for _, field := range []string{"predicted_term_gpa", "institution_gpa", "current_gpa"} {
		value, ok := patch[field]
		if !ok {
			continue
		}
		entry := &models.UserChangeLog{
			UserID:        user.ID,
			ChangeType:    models.ChangeTypeGPAUpdate,
			FieldName:     field,
			PreviousValue: current[field],
			NewValue:      value,
			Reason:        reason,
			ChangedAt:     s.now(),
		}
		if err := s.changeLog.Append(ctx, entry); err != nil {
			return len(patch), appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to append change log")
		}
	}
	return len(patch), nil
}

// averageGradePointsByCourse computes the simple mean of grade points per
// course across its graded assignments.
func averageGradePointsByCourse(assignments []models.Assignment) map[string]float64 {
	sums := make(map[string]float64)
	counts := make(map[string]int)
	for _, assignment := range assignments {
		if !assignment.Completed() {
			continue
		}
		percentage, _, _, ok := assignment.ResolveGradePercentage()
		if !ok {
			continue
		}
		sums[assignment.CourseID] += GradePoints(percentage)
		counts[assignment.CourseID]++
	}
	averages := make(map[string]float64, len(counts))
	for courseID, count := range counts {
		averages[courseID] = sums[courseID] / float64(count)
	}
	return averages
}

// creditWeightedGPA blends per-course averages by credit hours. Courses with
// no graded assignments contribute nothing. A non-empty termID narrows the
// blend to that term's courses.
func creditWeightedGPA(courses []models.Course, averages map[string]float64, termID string) (gpa, credits float64, graded int) {
	var weightedSum float64
	for _, course := range courses {
		if termID != "" && course.TermID != termID {
			continue
		}
		average, ok := averages[course.ID]
		if !ok {
			continue
		}
		weightedSum += average * float64(course.CreditHours)
		credits += float64(course.CreditHours)
		graded++
	}
	if credits == 0 {
		return 0, 0, graded
	}
	return weightedSum / credits, credits, graded
}
