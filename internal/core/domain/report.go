package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

const (
	HabitStatusActive = "Active"
	HabitStatusMissed = "Missed"
)

// HabitStat summarises one habit inside a weekly report. Days holds the
// distinct abbreviated weekday names ("Mon", "Tue", ...) on which the habit
// was completed, sorted alphabetically.
type HabitStat struct {
	Name   string   `json:"name"`
	Total  int      `json:"total"`
	Days   []string `json:"days"`
	Status string   `json:"status"`
}

// WeeklyReport covers one ISO week, Monday 00:00:00 through Sunday
// 23:59:59.999999. Every active habit of the user appears exactly once; a
// report with no habits is never produced.
type WeeklyReport struct {
	UserID     uuid.UUID   `json:"user_id"`
	StartDate  time.Time   `json:"start_date"`
	EndDate    time.Time   `json:"end_date"`
	WeekNumber int         `json:"week_number"`
	Habits     []HabitStat `json:"habits"`
}

func (r *WeeklyReport) PeriodLabel() string {
	const layout = "2006-01-02"
	return fmt.Sprintf("%s - %s", r.StartDate.Format(layout), r.EndDate.Format(layout))
}
