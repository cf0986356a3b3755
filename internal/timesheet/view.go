package timesheet

import (
	"context"

	"hourgrid/internal/calendar"
	"hourgrid/internal/core"
	"hourgrid/internal/tasks"
)

// DayRow is one grid row: a calendar day plus the entries spent on it.
type DayRow struct {
	Date          string           `json:"date"`
	IsBusinessDay bool             `json:"is_business_day"`
	Entries       []core.TimeEntry `json:"entries"`
}

// MonthView is everything the grid needs to render one month.
type MonthView struct {
	Year    int                  `json:"year"`
	Month   int                  `json:"month"` // zero-based
	Days    []DayRow             `json:"days"`  // newest first, for display
	Summary Summary              `json:"summary"`
	Options []tasks.ProjectGroup `json:"creation_options"`
}

// MonthView assembles the day grid, per-day entry groups, summary metrics and
// creation options for one month. The grid skeleton comes from the calendar
// independent of data arrival; days without entries still get a row.
func (e *Engine) MonthView(ctx context.Context, key MonthKey) (MonthView, error) {
	entries, err := e.MonthEntries(ctx, key)
	if err != nil {
		return MonthView{}, err
	}

	byDate := make(map[string][]core.TimeEntry, len(entries))
	for _, entry := range entries {
		byDate[entry.SpentDate] = append(byDate[entry.SpentDate], entry)
	}

	days := calendar.DaysInMonth(key.Year, key.Month)
	rows := make([]DayRow, 0, len(days))
	// Reverse for display: the grid shows the newest day on top.
	for i := len(days) - 1; i >= 0; i-- {
		day := days[i]
		date := day.SpentDate()
		rows = append(rows, DayRow{
			Date:          date,
			IsBusinessDay: day.IsBusinessDay,
			Entries:       byDate[date],
		})
	}

	return MonthView{
		Year:    key.Year,
		Month:   key.Month,
		Days:    rows,
		Summary: Summarize(e.table, entries, key),
		Options: e.table.GroupByProject(),
	}, nil
}
