package aggregation

import (
	"math"
	"reflect"
	"testing"
	"time"

	"aoi-dashboard/internal/domain/inspection"
	"aoi-dashboard/internal/domain/reports"
)

func fixedEngine(now time.Time, opts ...Option) *Engine {
	base := []Option{WithLocation(time.UTC), WithClock(func() time.Time { return now })}
	return NewEngine(append(base, opts...)...)
}

func rec(ts string) inspection.Record {
	return inspection.Record{
		Timestamp:      ts,
		DrawingNo:      "D1",
		MachineID:      "M1",
		FailPpm:        "1000",
		PassRate:       "0.98",
		OverkillRate:   "0.02",
		AoiDefectCount: "3",
		FailCount:      "1",
		PassCount:      "99",
		StripNo:        "1",
	}
}

func TestResolveBucketKey(t *testing.T) {
	e := fixedEngine(time.Date(2024, 8, 15, 10, 0, 0, 0, time.UTC))

	cases := []struct {
		ts     string
		period inspection.Period
		want   string
	}{
		{"2024-08-16 13:45:00", inspection.PeriodDaily, "2024-08-16"},
		{"2024-08-16 13:45:00", inspection.PeriodMonthly, "Aug"},
		{"2023-12-01", inspection.PeriodMonthly, "Dec"},
		{"2024-01-01", inspection.PeriodWeekly, "W1"},
		{"2024-01-07", inspection.PeriodWeekly, "W2"},
		{"2024-01-08", inspection.PeriodWeekly, "W2"},
		{"2024-02-27", inspection.PeriodWeekly, "W9"},
		{"2024-03-05", inspection.PeriodWeekly, "W10"},
		{"2024-12-31 23:59:59", inspection.PeriodWeekly, "W53"},
		{"garbage", inspection.PeriodWeekly, "WNaN"},
		{"garbage", inspection.PeriodMonthly, InvalidMonthKey},
		{"2024-8", inspection.PeriodMonthly, "Aug"},
	}
	for _, c := range cases {
		if got := e.ResolveBucketKey(c.ts, c.period); got != c.want {
			t.Fatalf("ResolveBucketKey(%q, %s) = %q, want %q", c.ts, c.period, got, c.want)
		}
	}
}

func TestWeekNumberDeterministic(t *testing.T) {
	e := fixedEngine(time.Now())
	first := e.ResolveBucketKey("2024-01-08", inspection.PeriodWeekly)
	for i := 0; i < 10; i++ {
		if got := e.ResolveBucketKey("2024-01-08", inspection.PeriodWeekly); got != first {
			t.Fatalf("week key changed between calls: %q vs %q", first, got)
		}
	}
	if first != "W2" {
		t.Fatalf("expected W2 from Jan-0 arithmetic, got %q", first)
	}
}

func TestWeekNumberUsesLocalYear(t *testing.T) {
	loc := time.FixedZone("UTC+8", 8*3600)
	e := NewEngine(WithLocation(loc))
	// 台北時間 1 月 1 日凌晨仍屬新年度第一週
	if got := e.WeekNumber("2024-01-01 01:00:00"); got != "W1" {
		t.Fatalf("expected W1, got %s", got)
	}
	if got := e.WeekNumber("2023-12-31T20:00:00Z"); got != "W1" {
		t.Fatalf("RFC3339 timestamp should be bucketed by local year, got %s", got)
	}
}

func TestFilterByTrailingDaysBoundary(t *testing.T) {
	e := fixedEngine(time.Date(2024, 8, 15, 10, 0, 0, 0, time.UTC))
	records := []inspection.Record{
		rec("2024-08-08"),
		rec("2024-08-07"),
		rec("2024-08-15"),
		rec("2024-08-15 09:00:00"),
		rec("not a date"),
	}

	got := e.FilterByTrailingDays(records, 7)
	var days []string
	for _, r := range got {
		days = append(days, r.Timestamp)
	}
	want := []string{"2024-08-08", "2024-08-15"}
	if !reflect.DeepEqual(days, want) {
		t.Fatalf("unexpected records: %v, want %v", days, want)
	}
}

func TestFilterByTrailingWeeks(t *testing.T) {
	// 2024-08-15 為週四，本週週日為 08-11
	e := fixedEngine(time.Date(2024, 8, 15, 10, 0, 0, 0, time.UTC))
	records := []inspection.Record{
		rec("2024-08-03 23:59:59"),
		rec("2024-08-04"),
		rec("2024-08-17 23:00:00"),
		rec("2024-08-18"),
	}

	got := e.FilterByTrailingWeeks(records, 2)
	if len(got) != 2 {
		t.Fatalf("expected 2 records, got %d: %+v", len(got), got)
	}
	if got[0].Timestamp != "2024-08-04" || got[1].Timestamp != "2024-08-17 23:00:00" {
		t.Fatalf("unexpected records: %+v", got)
	}
	for _, r := range got {
		if r.WeekNumber != e.WeekNumber(r.Timestamp) {
			t.Fatalf("record not annotated with week number: %+v", r)
		}
	}
	if records[1].WeekNumber != "" {
		t.Fatalf("input record must not be mutated")
	}
}

func TestFilterByTrailingMonthsAcrossYear(t *testing.T) {
	e := fixedEngine(time.Date(2024, 2, 10, 0, 0, 0, 0, time.UTC))
	records := []inspection.Record{
		rec("2023-09-30"),
		rec("2023-10-01"),
		rec("2023-12-31"),
		rec("2024-01-15"),
		rec("2024-02-28"),
		rec("2024-03-01"),
		rec("2022-12-01"),
	}

	got := e.FilterByTrailingMonths(records, 3)
	var ts []string
	for _, r := range got {
		ts = append(ts, r.Timestamp)
	}
	want := []string{"2023-10-01", "2023-12-31", "2024-01-15", "2024-02-28"}
	if !reflect.DeepEqual(ts, want) {
		t.Fatalf("unexpected records: %v, want %v", ts, want)
	}
}

func TestAverageAggregateKnownValues(t *testing.T) {
	e := fixedEngine(time.Date(2024, 8, 15, 0, 0, 0, 0, time.UTC))
	records := []inspection.Record{
		{Timestamp: "2024-08-01", FailPpm: "1000", OverkillRate: "0.02", PassRate: "0.98"},
		{Timestamp: "2024-08-01", FailPpm: "2000", OverkillRate: "0.04", PassRate: "0.96"},
	}

	got := e.AverageAggregate(records, inspection.PeriodDaily)
	if len(got) != 1 {
		t.Fatalf("expected 1 bucket, got %d", len(got))
	}
	b := got[0]
	if b.Key != "2024-08-01" || b.AverageFailPpm != "1500" || b.AverageOverkillRate != "3.0" || b.AveragePassRate != "97.0" {
		t.Fatalf("unexpected bucket: %+v", b)
	}
	if !reflect.DeepEqual(b.Dates, []string{"2024-08-01"}) {
		t.Fatalf("unexpected dates: %v", b.Dates)
	}
	if b.PeriodType != inspection.PeriodDaily {
		t.Fatalf("unexpected period type %s", b.PeriodType)
	}
}

func TestAverageAggregateIdempotent(t *testing.T) {
	e := fixedEngine(time.Date(2024, 8, 15, 0, 0, 0, 0, time.UTC))
	records := []inspection.Record{rec("2024-08-01 08:00:00"), rec("2024-08-02 08:00:00"), rec("2024-08-09 08:00:00")}
	records[1].FailPpm = "1234.5"

	for _, p := range []inspection.Period{inspection.PeriodDaily, inspection.PeriodWeekly, inspection.PeriodMonthly} {
		first := e.AverageAggregate(records, p)
		second := e.AverageAggregate(records, p)
		if !reflect.DeepEqual(first, second) {
			t.Fatalf("%s aggregate not idempotent: %+v vs %+v", p, first, second)
		}
	}
}

func TestAverageAggregateSortsDailyBuckets(t *testing.T) {
	e := fixedEngine(time.Date(2024, 8, 15, 0, 0, 0, 0, time.UTC))
	records := []inspection.Record{rec("2024-08-03"), rec("2024-08-01"), rec("2024-08-02")}

	got := e.AverageAggregate(records, inspection.PeriodDaily)
	var keys []string
	for _, b := range got {
		keys = append(keys, b.Key)
	}
	if !reflect.DeepEqual(keys, []string{"2024-08-01", "2024-08-02", "2024-08-03"}) {
		t.Fatalf("unexpected order: %v", keys)
	}
}

func TestMonthNameCollisionMerges(t *testing.T) {
	e := fixedEngine(time.Date(2024, 8, 20, 0, 0, 0, 0, time.UTC))
	a := rec("2023-08-10")
	a.FailPpm = "1000"
	b := rec("2024-08-10")
	b.FailPpm = "3000"

	window := e.FilterByTrailingMonths([]inspection.Record{a, b}, 13)
	if len(window) != 2 {
		t.Fatalf("expected both Augusts inside window, got %d", len(window))
	}
	got := e.AverageAggregate(window, inspection.PeriodMonthly)
	if len(got) != 1 || got[0].Key != "Aug" {
		t.Fatalf("expected a single Aug bucket, got %+v", got)
	}
	if got[0].AverageFailPpm != "2000" {
		t.Fatalf("expected merged average 2000, got %s", got[0].AverageFailPpm)
	}
	if !reflect.DeepEqual(got[0].Dates, []string{"2023-08-10", "2024-08-10"}) {
		t.Fatalf("unexpected dates %v", got[0].Dates)
	}
}

func TestSumAggregateGrouping(t *testing.T) {
	e := fixedEngine(time.Date(2024, 8, 15, 0, 0, 0, 0, time.UTC))
	a := rec("2024-08-01 08:00:00")
	a.MachineID, a.DrawingNo = "M1", "D1"
	a.AoiDefectCount, a.FailCount, a.PassCount = "5", "2", "100"
	b := rec("2024-08-01 09:00:00")
	b.MachineID, b.DrawingNo = "M2", "D1"
	b.AoiDefectCount, b.FailCount, b.PassCount = "7", "3", "50"

	got := e.SumAggregate([]inspection.Record{a, b}, inspection.PeriodDaily)
	if len(got) != 1 {
		t.Fatalf("expected 1 bucket, got %d", len(got))
	}
	bucket := got[0]
	if len(bucket.Machine) != 2 || len(bucket.BondingDrawing) != 1 {
		t.Fatalf("unexpected groupings: machine=%d drawing=%d", len(bucket.Machine), len(bucket.BondingDrawing))
	}
	m1 := bucket.Machine["M1"]
	if m1.TotalAoiDefect != 5 || m1.TotalFailCount != 2 || m1.TotalPassCount != 100 || m1.TotalStrip != 1 {
		t.Fatalf("unexpected M1 totals: %+v", m1)
	}
	d1 := bucket.BondingDrawing["D1"]
	want := reports.MachineTotals{TotalAoiDefect: 12, TotalFailCount: 5, TotalPassCount: 150, TotalStrip: 2}
	if d1 != want {
		t.Fatalf("unexpected D1 totals: %+v", d1)
	}
}

func TestSumAggregateNaNPropagation(t *testing.T) {
	now := time.Date(2024, 8, 15, 0, 0, 0, 0, time.UTC)
	a := rec("2024-08-01")
	b := rec("2024-08-01")
	b.FailCount = ""

	got := fixedEngine(now).SumAggregate([]inspection.Record{a, b}, inspection.PeriodDaily)
	totals := got[0].Machine["M1"]
	if !math.IsNaN(totals.TotalFailCount) {
		t.Fatalf("expected NaN fail count, got %v", totals.TotalFailCount)
	}
	if totals.TotalPassCount != 198 || totals.TotalStrip != 2 {
		t.Fatalf("other fields must stay intact: %+v", totals)
	}

	clamped := fixedEngine(now, WithNaNPolicy(NaNAsZero)).SumAggregate([]inspection.Record{a, b}, inspection.PeriodDaily)
	if v := clamped[0].Machine["M1"].TotalFailCount; v != 1 {
		t.Fatalf("expected NaN clamped to zero, got %v", v)
	}
}

func TestAverageAggregateNaN(t *testing.T) {
	e := fixedEngine(time.Date(2024, 8, 15, 0, 0, 0, 0, time.UTC))
	r := rec("2024-08-01")
	r.PassRate = "n/a"
	got := e.AverageAggregate([]inspection.Record{r, rec("2024-08-01")}, inspection.PeriodDaily)
	if got[0].AveragePassRate != "NaN" {
		t.Fatalf("expected NaN pass rate, got %s", got[0].AveragePassRate)
	}
	if got[0].AverageFailPpm != "1000" {
		t.Fatalf("fail ppm should be unaffected, got %s", got[0].AverageFailPpm)
	}
}

func TestBucketPartitionCoversInput(t *testing.T) {
	e := fixedEngine(time.Date(2024, 8, 15, 0, 0, 0, 0, time.UTC))
	records := []inspection.Record{
		rec("2024-01-03"), rec("2024-02-27"), rec("2024-03-05"),
		rec("2024-03-05 12:00:00"), rec("2023-08-01"), rec("broken"),
	}
	records[2].MachineID = "M2"

	for _, p := range []inspection.Period{inspection.PeriodDaily, inspection.PeriodWeekly, inspection.PeriodMonthly} {
		total := 0
		for _, b := range e.SumAggregate(records, p) {
			for _, m := range b.Machine {
				total += m.TotalStrip
			}
		}
		if total != len(records) {
			t.Fatalf("%s buckets cover %d records, want %d", p, total, len(records))
		}

		points := 0
		for _, s := range e.DrawingSeries(records, p) {
			points += len(s.Results)
		}
		if points != len(records) {
			t.Fatalf("%s drawing series cover %d records, want %d", p, points, len(records))
		}
	}
}

func TestEmptyInput(t *testing.T) {
	e := fixedEngine(time.Date(2024, 8, 15, 0, 0, 0, 0, time.UTC))
	if got := e.AverageAggregate(nil, inspection.PeriodDaily); got == nil || len(got) != 0 {
		t.Fatalf("expected empty slice, got %#v", got)
	}
	if got := e.SumAggregate(nil, inspection.PeriodWeekly); got == nil || len(got) != 0 {
		t.Fatalf("expected empty slice, got %#v", got)
	}
	if got := e.DrawingSeries(nil, inspection.PeriodMonthly); got == nil || len(got) != 0 {
		t.Fatalf("expected empty slice, got %#v", got)
	}
	if got := e.FilterByTrailingDays(nil, 7); got == nil || len(got) != 0 {
		t.Fatalf("expected empty slice, got %#v", got)
	}
	if got := e.FilterByTrailingWeeks(nil, 5); got == nil || len(got) != 0 {
		t.Fatalf("expected empty slice, got %#v", got)
	}
	if got := e.FilterByTrailingMonths(nil, 3); got == nil || len(got) != 0 {
		t.Fatalf("expected empty slice, got %#v", got)
	}
}

func TestDrawingSeriesSortedByKey(t *testing.T) {
	e := fixedEngine(time.Date(2024, 8, 15, 0, 0, 0, 0, time.UTC))
	a := rec("2024-08-02")
	a.StripNo = "2"
	b := rec("2024-08-01")
	b.StripNo = "1"
	c := rec("2024-08-01")
	c.DrawingNo = "D2"

	got := e.DrawingSeries([]inspection.Record{a, b, c}, inspection.PeriodDaily)
	if len(got) != 2 || got[0].DrawingNo != "D1" || got[1].DrawingNo != "D2" {
		t.Fatalf("unexpected series: %+v", got)
	}
	if got[0].Results[0].Key != "2024-08-01" || got[0].Results[0].StripNo != "1" {
		t.Fatalf("points not sorted by key: %+v", got[0].Results)
	}
	if got[0].Results[0].OverkillRate != 0.02 {
		t.Fatalf("unexpected overkill rate %v", got[0].Results[0].OverkillRate)
	}
}
