package aggregation

import (
	"math"

	"aoi-dashboard/internal/domain/inspection"
	"aoi-dashboard/internal/domain/reports"
)

type dateSet struct {
	seen  map[string]struct{}
	order []string
}

func newDateSet() *dateSet {
	return &dateSet{seen: make(map[string]struct{})}
}

func (s *dateSet) add(d string) {
	if _, ok := s.seen[d]; ok {
		return
	}
	s.seen[d] = struct{}{}
	s.order = append(s.order, d)
}

func (s *dateSet) list() []string {
	out := make([]string, len(s.order))
	copy(out, s.order)
	return out
}

type averageAcc struct {
	dates        *dateSet
	failPpm      float64
	overkillRate float64
	passRate     float64
	count        int
}

// AverageAggregate 計算每個區間的 Fail PPM、Overkill Rate、Pass Rate 平均值。
// Fail PPM 取整數；兩個比率轉為百分比並保留一位小數。
func (e *Engine) AverageAggregate(records []inspection.Record, period inspection.Period) []reports.BucketAggregate {
	keys := make([]string, 0)
	buckets := make(map[string]*averageAcc)

	for _, r := range records {
		key := e.ResolveBucketKey(r.Timestamp, period)
		acc := buckets[key]
		if acc == nil {
			acc = &averageAcc{dates: newDateSet()}
			buckets[key] = acc
			keys = append(keys, key)
		}
		acc.dates.add(r.Day())
		acc.failPpm += e.Number(r.FailPpm)
		acc.overkillRate += e.Number(r.OverkillRate)
		acc.passRate += e.Number(r.PassRate)
		acc.count++
	}

	out := make([]reports.BucketAggregate, 0, len(keys))
	for _, key := range keys {
		acc := buckets[key]
		out = append(out, reports.BucketAggregate{
			Key:                 key,
			PeriodType:          period,
			Dates:               acc.dates.list(),
			AverageFailPpm:      ToFixed(mean(acc.failPpm, acc.count), 0),
			AverageOverkillRate: ToFixed(mean(acc.overkillRate, acc.count)*100, 1),
			AveragePassRate:     ToFixed(mean(acc.passRate, acc.count)*100, 1),
		})
	}
	return SortBuckets(out, period, e.weekOrder)
}

type totalsAcc struct {
	dates   *dateSet
	machine map[string]reports.MachineTotals
	drawing map[string]reports.MachineTotals
}

// SumAggregate 計算每個區間的作業數量總計，同一區間內分別依機台與圖號分組。
func (e *Engine) SumAggregate(records []inspection.Record, period inspection.Period) []reports.BucketTotals {
	keys := make([]string, 0)
	buckets := make(map[string]*totalsAcc)

	for _, r := range records {
		key := e.ResolveBucketKey(r.Timestamp, period)
		acc := buckets[key]
		if acc == nil {
			acc = &totalsAcc{
				dates:   newDateSet(),
				machine: make(map[string]reports.MachineTotals),
				drawing: make(map[string]reports.MachineTotals),
			}
			buckets[key] = acc
			keys = append(keys, key)
		}
		acc.dates.add(r.Day())

		defect := e.Number(r.AoiDefectCount)
		fail := e.Number(r.FailCount)
		pass := e.Number(r.PassCount)
		acc.drawing[r.DrawingNo] = addTotals(acc.drawing[r.DrawingNo], defect, fail, pass)
		acc.machine[r.MachineID] = addTotals(acc.machine[r.MachineID], defect, fail, pass)
	}

	out := make([]reports.BucketTotals, 0, len(keys))
	for _, key := range keys {
		acc := buckets[key]
		out = append(out, reports.BucketTotals{
			Key:            key,
			PeriodType:     period,
			Dates:          acc.dates.list(),
			Machine:        acc.machine,
			BondingDrawing: acc.drawing,
		})
	}
	return SortBuckets(out, period, e.weekOrder)
}

// DrawingSeries 依圖號收集每筆紀錄的 overkill rate，供機台盒鬚圖使用；各圖號內依區間鍵排序。
func (e *Engine) DrawingSeries(records []inspection.Record, period inspection.Period) []reports.DrawingSeries {
	order := make([]string, 0)
	series := make(map[string][]reports.OverkillPoint)

	for _, r := range records {
		if _, ok := series[r.DrawingNo]; !ok {
			order = append(order, r.DrawingNo)
		}
		series[r.DrawingNo] = append(series[r.DrawingNo], reports.OverkillPoint{
			Key:          e.ResolveBucketKey(r.Timestamp, period),
			PeriodType:   period,
			StripNo:      r.StripNo,
			OverkillRate: e.Number(r.OverkillRate),
		})
	}

	out := make([]reports.DrawingSeries, 0, len(order))
	for _, drawingNo := range order {
		points := series[drawingNo]
		sortPointsByKey(points)
		out = append(out, reports.DrawingSeries{DrawingNo: drawingNo, Results: points})
	}
	return out
}

func addTotals(t reports.MachineTotals, defect, fail, pass float64) reports.MachineTotals {
	t.TotalAoiDefect += defect
	t.TotalFailCount += fail
	t.TotalPassCount += pass
	t.TotalStrip++
	return t
}

func mean(sum float64, n int) float64 {
	if n == 0 {
		return math.NaN()
	}
	return sum / float64(n)
}
