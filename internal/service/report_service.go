package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/noah-isme/traincamp-api/internal/models"
	appErrors "github.com/noah-isme/traincamp-api/pkg/errors"
	"github.com/noah-isme/traincamp-api/pkg/export"
)

type reportStore interface {
	CourseWindowCounts(ctx context.Context, courseIDs []string, start, end time.Time) ([]models.CourseWindowCounts, error)
}

// ReportQuery bounds a window report. Dates use the "2006-01-02" form
// and the window is inclusive on both ends. CourseID optionally
// narrows the report to one course within the caller's scope.
type ReportQuery struct {
	DateFrom string
	DateTo   string
	CourseID string
}

// ReportService computes attendance and evaluation rates over a date
// window, scoped to the caller's visible courses. Reports are cached in
// Redis per scope and window; a cache failure degrades to a recompute,
// never to an error.
type ReportService struct {
	reports  reportStore
	registry courseScope
	cache    *redis.Client
	csv      *export.CSVExporter
	pdf      *export.PDFExporter
	cacheTTL time.Duration
	metrics  *MetricsService
	logger   *zap.Logger
	now      func() time.Time
}

// NewReportService constructs ReportService. The cache client may be
// nil, in which case every report recomputes.
func NewReportService(reports reportStore, registry courseScope, cache *redis.Client, cacheTTL time.Duration, logger *zap.Logger) *ReportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReportService{
		reports:  reports,
		registry: registry,
		cache:    cache,
		csv:      export.NewCSVExporter(),
		pdf:      export.NewPDFExporter(),
		cacheTTL: cacheTTL,
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// UseMetrics attaches cache hit/miss instrumentation.
func (s *ReportService) UseMetrics(metrics *MetricsService) {
	s.metrics = metrics
}

// Window aggregates the caller's visible courses over the query window.
func (s *ReportService) Window(ctx context.Context, principalID string, role models.UserRole, query ReportQuery) (*models.WindowReport, error) {
	start, end, err := parseWindow(query)
	if err != nil {
		return nil, err
	}

	visible, err := s.registry.CoursesVisibleTo(ctx, principalID, role)
	if err != nil {
		return nil, err
	}
	if query.CourseID != "" {
		if !containsID(visible, query.CourseID) {
			return nil, appErrors.Clone(appErrors.ErrForbidden, "course is outside the caller's scope")
		}
		visible = []string{query.CourseID}
	}

	key := reportCacheKey(visible, start, end)
	if cached := s.fromCache(ctx, key); cached != nil {
		return cached, nil
	}

	queryStart := time.Now()
	counts, err := s.reports.CourseWindowCounts(ctx, visible, start, end)
	s.metrics.ObserveDBQuery("report_window_counts", time.Since(queryStart))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to aggregate report window")
	}

	report := buildWindowReport(start, end, counts, s.now())
	s.toCache(ctx, key, report)
	return report, nil
}

// ExportCSV renders the window report as CSV bytes.
func (s *ReportService) ExportCSV(ctx context.Context, principalID string, role models.UserRole, query ReportQuery) ([]byte, error) {
	report, err := s.Window(ctx, principalID, role, query)
	if err != nil {
		return nil, err
	}
	data, err := s.csv.Render(reportDataset(report))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render csv report")
	}
	return data, nil
}

// ExportPDF renders the window report as a tabular PDF.
func (s *ReportService) ExportPDF(ctx context.Context, principalID string, role models.UserRole, query ReportQuery) ([]byte, error) {
	report, err := s.Window(ctx, principalID, role, query)
	if err != nil {
		return nil, err
	}
	title := "Training window report"
	summary := []string{
		fmt.Sprintf("Window: %s to %s", report.Start.Format("2006-01-02"), report.End.Format("2006-01-02")),
		fmt.Sprintf("Check-in rate: %d%%  Submission rate: %d%%  Evaluation rate: %d%%", report.CheckInRate, report.SubmissionRate, report.EvaluationRate),
		fmt.Sprintf("Average score: %.1f", report.AverageScore),
	}
	data, err := s.pdf.Render(reportDataset(report), title, summary)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render pdf report")
	}
	return data, nil
}

func (s *ReportService) fromCache(ctx context.Context, key string) *models.WindowReport {
	if s.cache == nil {
		return nil
	}
	raw, err := s.cache.Get(ctx, key).Bytes()
	if err != nil {
		if err != redis.Nil {
			s.logger.Warn("report cache read failed", zap.String("key", key), zap.Error(err))
		}
		s.metrics.RecordCacheLookup(false)
		return nil
	}
	var report models.WindowReport
	if err := json.Unmarshal(raw, &report); err != nil {
		s.logger.Warn("report cache entry corrupt", zap.String("key", key), zap.Error(err))
		s.metrics.RecordCacheLookup(false)
		return nil
	}
	s.metrics.RecordCacheLookup(true)
	return &report
}

func (s *ReportService) toCache(ctx context.Context, key string, report *models.WindowReport) {
	if s.cache == nil || s.cacheTTL <= 0 {
		return
	}
	raw, err := json.Marshal(report)
	if err != nil {
		s.logger.Warn("report cache marshal failed", zap.String("key", key), zap.Error(err))
		return
	}
	if err := s.cache.Set(ctx, key, raw, s.cacheTTL).Err(); err != nil {
		s.logger.Warn("report cache write failed", zap.String("key", key), zap.Error(err))
	}
}

func parseWindow(query ReportQuery) (time.Time, time.Time, error) {
	if query.DateFrom == "" || query.DateTo == "" {
		return time.Time{}, time.Time{}, appErrors.Clone(appErrors.ErrValidation, "date_from and date_to are required")
	}
	start, err := parseDate(query.DateFrom)
	if err != nil {
		return time.Time{}, time.Time{}, appErrors.Clone(appErrors.ErrValidation, "invalid date_from")
	}
	end, err := parseDate(query.DateTo)
	if err != nil {
		return time.Time{}, time.Time{}, appErrors.Clone(appErrors.ErrValidation, "invalid date_to")
	}
	if end.Before(start) {
		return time.Time{}, time.Time{}, appErrors.Clone(appErrors.ErrValidation, "date_to precedes date_from")
	}
	return start, end, nil
}

// reportCacheKey hashes the sorted visible-course set so two callers
// with the same scope share one cache entry.
func reportCacheKey(courseIDs []string, start, end time.Time) string {
	sorted := append([]string(nil), courseIDs...)
	sort.Strings(sorted)
	sum := sha256.Sum256([]byte(strings.Join(sorted, ",")))
	return fmt.Sprintf("reports:window:%s:%s:%s", hex.EncodeToString(sum[:8]), start.Format("2006-01-02"), end.Format("2006-01-02"))
}

func buildWindowReport(start, end time.Time, counts []models.CourseWindowCounts, generatedAt time.Time) *models.WindowReport {
	report := &models.WindowReport{
		Start:       start,
		End:         end,
		Courses:     make([]models.CourseWindowReport, 0, len(counts)),
		GeneratedAt: generatedAt,
	}

	var scoreSum float64
	for _, row := range counts {
		course := models.CourseWindowReport{
			CourseID:        row.CourseID,
			CourseName:      row.CourseName,
			TaskCount:       row.TaskCount,
			StudentCount:    row.StudentCount,
			CheckInCount:    row.CheckInCount,
			SubmissionCount: row.SubmissionCount,
			EvaluatedCount:  row.EvaluatedCount,
		}

		expected := row.TaskCount * row.StudentCount
		course.Absent = expected - row.CheckInCount
		if course.Absent < 0 {
			course.Absent = 0
		}
		course.CheckInRate = ratePercent(row.CheckInCount, expected)
		course.SubmissionRate = ratePercent(row.SubmissionCount, expected)
		course.EvaluationRate = ratePercent(row.EvaluatedCount, row.SubmissionCount)
		if row.EvaluatedCount > 0 && row.ScoreSum != nil {
			course.AverageScore = *row.ScoreSum / float64(row.EvaluatedCount)
			scoreSum += *row.ScoreSum
		}

		report.Courses = append(report.Courses, course)
		report.TaskCount += row.TaskCount
		report.StudentCount += row.StudentCount
		report.CheckInCount += row.CheckInCount
		report.SubmissionCount += row.SubmissionCount
		report.EvaluatedCount += row.EvaluatedCount
	}

	expected := 0
	for _, row := range counts {
		expected += row.TaskCount * row.StudentCount
	}
	report.CheckInRate = ratePercent(report.CheckInCount, expected)
	report.SubmissionRate = ratePercent(report.SubmissionCount, expected)
	report.EvaluationRate = ratePercent(report.EvaluatedCount, report.SubmissionCount)
	if report.EvaluatedCount > 0 {
		report.AverageScore = scoreSum / float64(report.EvaluatedCount)
	}
	return report
}

// ratePercent rounds to the nearest integer percentage and clamps to
// [0,100]. A zero denominator reads as a zero rate.
func ratePercent(count, expected int) int {
	if expected <= 0 {
		return 0
	}
	rate := int((float64(count)/float64(expected))*100 + 0.5)
	if rate < 0 {
		return 0
	}
	if rate > 100 {
		return 100
	}
	return rate
}

func reportDataset(report *models.WindowReport) export.Dataset {
	headers := []string{"Course", "Tasks", "Students", "Check-ins", "Absent", "Check-in %", "Submissions", "Submission %", "Evaluated", "Evaluation %", "Avg Score"}
	rows := make([]map[string]string, 0, len(report.Courses))
	for _, course := range report.Courses {
		rows = append(rows, map[string]string{
			"Course":       course.CourseName,
			"Tasks":        strconv.Itoa(course.TaskCount),
			"Students":     strconv.Itoa(course.StudentCount),
			"Check-ins":    strconv.Itoa(course.CheckInCount),
			"Absent":       strconv.Itoa(course.Absent),
			"Check-in %":   strconv.Itoa(course.CheckInRate),
			"Submissions":  strconv.Itoa(course.SubmissionCount),
			"Submission %": strconv.Itoa(course.SubmissionRate),
			"Evaluated":    strconv.Itoa(course.EvaluatedCount),
			"Evaluation %": strconv.Itoa(course.EvaluationRate),
			"Avg Score":    fmt.Sprintf("%.1f", course.AverageScore),
		})
	}
	return export.Dataset{Headers: headers, Rows: rows}
}
