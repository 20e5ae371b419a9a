package aggregation

import (
	"aoi-dashboard/internal/domain/inspection"
)

// FilterByTrailingMonths 保留最近 months 個月份（含本月）的紀錄；跨年時以前一年的月份補足。
func (e *Engine) FilterByTrailingMonths(records []inspection.Record, months int) []inspection.Record {
	now := e.Now()
	currentMonth := int(now.Month())
	currentYear := now.Year()

	out := make([]inspection.Record, 0, len(records))
	for _, r := range records {
		t, ok := e.ParseTime(r.Timestamp)
		if !ok {
			continue
		}
		month := int(t.Month())
		year := t.Year()

		switch {
		case year == currentYear && month >= currentMonth-months+1 && month <= currentMonth:
			out = append(out, r)
		case year == currentYear-1 && month >= 12-(months-(currentMonth-1)):
			out = append(out, r)
		}
	}
	return out
}

// FilterByTrailingWeeks 保留最近 weeks 週（以週日為起點，含本週）的紀錄，並標註 WeekNumber。
func (e *Engine) FilterByTrailingWeeks(records []inspection.Record, weeks int) []inspection.Record {
	today := e.Today()
	currentSunday := today.AddDate(0, 0, -int(today.Weekday()))
	pastDate := currentSunday.AddDate(0, 0, -(weeks-1)*7)
	endDate := currentSunday.AddDate(0, 0, 7)

	out := make([]inspection.Record, 0, len(records))
	for _, r := range records {
		t, ok := e.ParseTime(r.Timestamp)
		if !ok {
			continue
		}
		if t.Before(pastDate) || !t.Before(endDate) {
			continue
		}
		r.WeekNumber = e.WeekNumber(r.Timestamp)
		out = append(out, r)
	}
	return out
}

// FilterByTrailingDays 保留 [今天 00:00 - days 天, 今天 00:00] 的紀錄，兩端皆包含。
func (e *Engine) FilterByTrailingDays(records []inspection.Record, days int) []inspection.Record {
	today := e.Today()
	pastDate := today.AddDate(0, 0, -days)

	out := make([]inspection.Record, 0, len(records))
	for _, r := range records {
		t, ok := e.ParseTime(r.Timestamp)
		if !ok {
			continue
		}
		if t.Before(pastDate) || t.After(today) {
			continue
		}
		out = append(out, r)
	}
	return out
}
