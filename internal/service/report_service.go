package service

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/academic-metrics-api/internal/models"
	appErrors "github.com/noah-isme/academic-metrics-api/pkg/errors"
	"github.com/noah-isme/academic-metrics-api/pkg/export"
	"github.com/noah-isme/academic-metrics-api/pkg/storage"
)

// Report formats supported by the progress report endpoint.
const (
	ReportFormatCSV = "csv"
	ReportFormatPDF = "pdf"
)

type summaryStatsProvider interface {
	GetSummaryStats(ctx context.Context, userID, courseID, termID string) (*models.SummaryStats, bool, error)
}

type gpaHistoryProvider interface {
	History(ctx context.Context, filter models.GPASnapshotFilter) ([]models.GPASnapshot, error)
}

// ReportService renders a student's aggregated metrics and latest GPA into a
// downloadable progress report. When storage and a signer are configured,
// rendered reports can be persisted and fetched later through signed tokens.
type ReportService struct {
	stats   summaryStatsProvider
	gpa     gpaHistoryProvider
	csv     *export.CSVExporter
	pdf     *export.PDFExporter
	storage *storage.LocalStorage
	signer  *storage.SignedURLSigner
	logger  *zap.Logger
}

// NewReportService constructs a ReportService. Storage and signer may be nil;
// stored exports are then unavailable and Render remains inline-only.
func NewReportService(stats summaryStatsProvider, gpa gpaHistoryProvider,
	store *storage.LocalStorage, signer *storage.SignedURLSigner, logger *zap.Logger) *ReportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReportService{
		stats:   stats,
		gpa:     gpa,
		csv:     export.NewCSVExporter(),
		pdf:     export.NewPDFExporter(),
		storage: store,
		signer:  signer,
		logger:  logger,
	}
}

// RenderedReport carries the bytes and metadata for a rendered export.
type RenderedReport struct {
	Content     []byte
	ContentType string
	Filename    string
}

// Render produces the progress report in the requested format.
func (s *ReportService) Render(ctx context.Context, userID, courseID, termID, format string) (*RenderedReport, error) {
	if format == "" {
		format = ReportFormatCSV
	}
	if format != ReportFormatCSV && format != ReportFormatPDF {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported format %q", format))
	}

	stats, _, err := s.stats.GetSummaryStats(ctx, userID, courseID, termID)
	if err != nil {
		return nil, err
	}
	if stats == nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "no metrics recorded yet")
	}
	history, err := s.gpa.History(ctx, models.GPASnapshotFilter{UserID: userID, TermID: termID, Limit: 1})
	if err != nil {
		return nil, err
	}

	dataset := buildProgressDataset(stats, history)
	switch format {
	case ReportFormatPDF:
		content, err := s.pdf.Render(dataset, "Academic Progress Report")
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render pdf")
		}
		return &RenderedReport{Content: content, ContentType: "application/pdf", Filename: "progress-report.pdf"}, nil
	default:
		content, err := s.csv.Render(dataset)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render csv")
		}
		return &RenderedReport{Content: content, ContentType: "text/csv", Filename: "progress-report.csv"}, nil
	}
}

// StoredReport describes a report persisted to local storage, retrievable
// with the signed token until it expires.
type StoredReport struct {
	Token     string    `json:"token"`
	Filename  string    `json:"filename"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Store renders the report, writes it to local storage, and returns a signed
// download token.
func (s *ReportService) Store(ctx context.Context, userID, courseID, termID, format string) (*StoredReport, error) {
	if s.storage == nil || s.signer == nil {
		return nil, appErrors.Clone(appErrors.ErrInternal, "report storage is not configured")
	}
	rendered, err := s.Render(ctx, userID, courseID, termID, format)
	if err != nil {
		return nil, err
	}
	exportID := uuid.NewString()
	relPath := fmt.Sprintf("%s/%s/%s", userID, exportID, rendered.Filename)
	if _, err := s.storage.Save(relPath, rendered.Content); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store report")
	}
	token, expiresAt, err := s.signer.Generate(exportID, relPath)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sign download token")
	}
	s.logger.Info("report stored",
		zap.String("user_id", userID),
		zap.String("export_id", exportID),
		zap.String("format", format))
	return &StoredReport{Token: token, Filename: rendered.Filename, ExpiresAt: expiresAt}, nil
}

// OpenDownload validates a signed token and opens the stored file.
func (s *ReportService) OpenDownload(token string) (*os.File, string, error) {
	if s.storage == nil || s.signer == nil {
		return nil, "", appErrors.Clone(appErrors.ErrInternal, "report storage is not configured")
	}
	_, relPath, _, err := s.signer.Parse(token, false)
	if err != nil {
		return nil, "", appErrors.Clone(appErrors.ErrUnauthorized, "invalid or expired download token")
	}
	file, err := s.storage.Open(relPath)
	if err != nil {
		return nil, "", appErrors.Clone(appErrors.ErrNotFound, "report file no longer available")
	}
	return file, filepath.Base(relPath), nil
}

func buildProgressDataset(stats *models.SummaryStats, history []models.GPASnapshot) export.Dataset {
	rows := []map[string]string{
		metricRow("Snapshots", strconv.Itoa(stats.SnapshotCount)),
		metricRow("Total assignments", strconv.Itoa(stats.TotalAssignments)),
		metricRow("Completed", strconv.Itoa(stats.CompletedAssignments)),
		metricRow("Pending", strconv.Itoa(stats.PendingAssignments)),
		metricRow("Overdue", strconv.Itoa(stats.OverdueAssignments)),
		metricRow("Graded", strconv.Itoa(stats.GradedAssignments)),
	}
	if stats.AverageGrade != nil {
		rows = append(rows, metricRow("Average grade", fmt.Sprintf("%.1f%%", *stats.AverageGrade)))
	}
	rows = append(rows,
		metricRow("A grades", strconv.Itoa(stats.GradesA)),
		metricRow("B grades", strconv.Itoa(stats.GradesB)),
		metricRow("C grades", strconv.Itoa(stats.GradesC)),
		metricRow("D grades", strconv.Itoa(stats.GradesD)),
		metricRow("F grades", strconv.Itoa(stats.GradesF)),
	)
	if len(history) > 0 {
		latest := history[0]
		rows = append(rows,
			metricRow("Institution GPA", fmt.Sprintf("%.2f", latest.InstitutionGPA)),
			metricRow("Predicted term GPA", fmt.Sprintf("%.2f", latest.PredictedTermGPA)),
			metricRow("Overall GPA", fmt.Sprintf("%.2f", latest.OverallGPA)),
			metricRow("Credits earned", fmt.Sprintf("%.0f", latest.CreditsEarned)),
		)
	}
	return export.Dataset{Headers: []string{"Metric", "Value"}, Rows: rows}
}

func metricRow(name, value string) map[string]string {
	return map[string]string{"Metric": name, "Value": value}
}
