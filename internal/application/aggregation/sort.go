package aggregation

import (
	"sort"
	"strconv"
	"strings"
	"time"

	"aoi-dashboard/internal/domain/inspection"
	"aoi-dashboard/internal/domain/reports"
)

// Bucket 為可排序的區間結果。
type Bucket interface {
	BucketKey() string
	BucketDates() []string
}

// SortBuckets 依時間順序穩定排序區間（原地排序並回傳同一切片）。
// weekly 比較區間鍵；daily/monthly 比較區間內最早的日期，無法解析的日期排在最後。
func SortBuckets[B Bucket](buckets []B, period inspection.Period, order WeekOrder) []B {
	if period == inspection.PeriodWeekly {
		if order == WeekOrderNumeric {
			sort.SliceStable(buckets, func(i, j int) bool {
				return lessWeekNumeric(buckets[i].BucketKey(), buckets[j].BucketKey())
			})
			return buckets
		}
		sort.SliceStable(buckets, func(i, j int) bool {
			return buckets[i].BucketKey() < buckets[j].BucketKey()
		})
		return buckets
	}

	earliest := make([]time.Time, len(buckets))
	valid := make([]bool, len(buckets))
	for i, b := range buckets {
		earliest[i], valid[i] = earliestDate(b.BucketDates())
	}
	idx := make([]int, len(buckets))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		i, j := idx[a], idx[b]
		if !valid[i] || !valid[j] {
			return valid[i] && !valid[j]
		}
		return earliest[i].Before(earliest[j])
	})

	sorted := make([]B, len(buckets))
	for pos, i := range idx {
		sorted[pos] = buckets[i]
	}
	copy(buckets, sorted)
	return buckets
}

func earliestDate(dates []string) (time.Time, bool) {
	var first time.Time
	found := false
	for _, d := range dates {
		t, ok := inspection.ParseTimestamp(d, time.UTC)
		if !ok {
			continue
		}
		if !found || t.Before(first) {
			first = t
			found = true
		}
	}
	return first, found
}

func weekIndex(key string) (int, bool) {
	n, err := strconv.Atoi(strings.TrimPrefix(key, "W"))
	if err != nil || !strings.HasPrefix(key, "W") {
		return 0, false
	}
	return n, true
}

func lessWeekNumeric(a, b string) bool {
	na, okA := weekIndex(a)
	nb, okB := weekIndex(b)
	switch {
	case okA && okB:
		if na != nb {
			return na < nb
		}
		return a < b
	case okA != okB:
		return okA
	default:
		return a < b
	}
}

func sortPointsByKey(points []reports.OverkillPoint) {
	sort.SliceStable(points, func(i, j int) bool {
		return points[i].Key < points[j].Key
	})
}
