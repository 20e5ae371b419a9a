package aggregation

import (
	"math"
	"strconv"
	"time"

	"aoi-dashboard/internal/domain/inspection"
)

const oneWeek = 7 * 24 * time.Hour

// InvalidMonthKey 為月份無法解析時的區間鍵。
const InvalidMonthKey = "NaN"

var monthNames = [12]string{"Jan", "Feb", "Mar", "Apr", "May", "Jun", "Jul", "Aug", "Sep", "Oct", "Nov", "Dec"}

// ResolveBucketKey 依週期取得區間鍵：daily 為 YYYY-MM-DD、weekly 為 W<n>、monthly 為月份簡寫。
// 月份鍵不含年份，不同年份的同月份會落在同一區間。
func (e *Engine) ResolveBucketKey(timestamp string, period inspection.Period) string {
	switch period {
	case inspection.PeriodMonthly:
		return monthKey(timestamp)
	case inspection.PeriodWeekly:
		return e.WeekNumber(timestamp)
	default:
		return inspection.DayOf(timestamp)
	}
}

// WeekNumber 計算日期所屬週次：以當年 1 月 0 日 00:00 起算，每 7 天一週，非 ISO-8601。
func (e *Engine) WeekNumber(timestamp string) string {
	t, ok := e.ParseTime(timestamp)
	if !ok {
		return "WNaN"
	}
	yearStart := time.Date(t.Year(), time.January, 0, 0, 0, 0, 0, e.loc)
	week := int(math.Floor(float64(t.Sub(yearStart))/float64(oneWeek))) + 1
	return "W" + strconv.Itoa(week)
}

func monthKey(timestamp string) string {
	if len(timestamp) < 6 {
		return InvalidMonthKey
	}
	end := 7
	if len(timestamp) < end {
		end = len(timestamp)
	}
	m := inspection.ParseNumber(timestamp[5:end])
	if math.IsNaN(m) || m < 1 || m >= 13 {
		return InvalidMonthKey
	}
	return monthNames[int(m)-1]
}
