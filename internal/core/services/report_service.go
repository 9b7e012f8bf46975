package services

import (
	"context"
	_ "embed"
	"fmt"
	"html/template"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"habitflow/internal/core/domain"
)

//go:embed templates/weekly_report.html
var weeklyReportTemplate string

type ReportService struct {
	habits domain.HabitRepository
	now    func() time.Time
	log    *logrus.Entry
}

func NewReportService(habits domain.HabitRepository, log *logrus.Logger) *ReportService {
	return &ReportService{
		habits: habits,
		now:    func() time.Time { return time.Now().UTC() },
		log:    log.WithField("component", "report_service"),
	}
}

// WeekBounds returns Monday 00:00:00.000000 and Sunday 23:59:59.999999 of
// the ISO week containing t, in UTC.
func WeekBounds(t time.Time) (time.Time, time.Time) {
	t = t.UTC()
	offset := (int(t.Weekday()) + 6) % 7 // Monday=0 ... Sunday=6
	monday := t.AddDate(0, 0, -offset)

	y, m, d := monday.Date()
	start := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 0, 7).Add(-time.Microsecond)
	return start, end
}

// CalculateWeeklyStats builds the report for the current ISO week. A nil
// report with a nil error means there is nothing to send: unknown user,
// no habits, or an empty result.
func (s *ReportService) CalculateWeeklyStats(ctx context.Context, userID uuid.UUID) (*domain.WeeklyReport, error) {
	if userID == uuid.Nil {
		s.log.Error("no user id provided for weekly stats")
		return nil, nil
	}

	now := s.now()
	start, end := WeekBounds(now)
	if !end.After(start) {
		s.log.Error("could not compute week bounds")
		return nil, nil
	}

	habits, err := s.habits.ListByUserID(ctx, userID.String())
	if err != nil {
		return nil, fmt.Errorf("list habits for user %s: %w", userID, err)
	}
	if len(habits) == 0 {
		s.log.Infof("no habits found for user %s, skipping report", userID)
		return nil, nil
	}

	rows, err := s.habits.ListCompletionsForPeriod(ctx, userID.String(), start, end)
	if err != nil {
		return nil, fmt.Errorf("list completions for user %s: %w", userID, err)
	}

	sort.Slice(rows, func(i, j int) bool { return rows[i].HabitID < rows[j].HabitID })
	byHabit := make(map[string][]domain.CompletionRow)
	for _, row := range rows {
		byHabit[row.HabitID] = append(byHabit[row.HabitID], row)
	}

	stats := make([]domain.HabitStat, 0, len(habits))
	for _, habit := range habits {
		logs := byHabit[habit.ID]

		status := domain.HabitStatusActive
		if len(logs) == 0 {
			status = domain.HabitStatusMissed
		}

		stats = append(stats, domain.HabitStat{
			Name:   habit.Name,
			Total:  len(logs),
			Days:   weekdayLabels(logs),
			Status: status,
		})
	}

	_, week := now.ISOWeek()
	report := &domain.WeeklyReport{
		UserID:     userID,
		StartDate:  start,
		EndDate:    end,
		WeekNumber: week,
		Habits:     stats,
	}
	if len(report.Habits) == 0 || report.WeekNumber == 0 {
		s.log.Errorf("empty report built for user %s, dropping it", userID)
		return nil, nil
	}
	return report, nil
}

func weekdayLabels(logs []domain.CompletionRow) []string {
	seen := make(map[string]bool)
	var days []string
	for _, log := range logs {
		label := log.CompletedAt.UTC().Format("Mon")
		if !seen[label] {
			seen[label] = true
			days = append(days, label)
		}
	}
	sort.Strings(days)
	return days
}

// RenderHTML renders the report into the weekly e-mail template. Template
// failures are hard failures for this report and propagate to the caller.
func (s *ReportService) RenderHTML(report *domain.WeeklyReport) (string, error) {
	tmpl, err := template.New("weekly_report").Parse(weeklyReportTemplate)
	if err != nil {
		return "", fmt.Errorf("parse weekly report template: %w", err)
	}

	data := struct {
		Habits    []domain.HabitStat
		StartDate string
		EndDate   string
	}{
		Habits:    report.Habits,
		StartDate: report.StartDate.Format("2006-01-02"),
		EndDate:   report.EndDate.Format("2006-01-02"),
	}

	var sb strings.Builder
	if err := tmpl.Execute(&sb, data); err != nil {
		return "", fmt.Errorf("render weekly report template: %w", err)
	}
	return sb.String(), nil
}
