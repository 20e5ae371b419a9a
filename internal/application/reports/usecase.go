package reports

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"

	"aoi-dashboard/internal/application/aggregation"
	"aoi-dashboard/internal/domain/inspection"
	reportsDomain "aoi-dashboard/internal/domain/reports"
)

// ErrDataNotReady 表示尚未取得任何檢測紀錄。
var ErrDataNotReady = errors.New("inspection data not ready")

// ErrInvalidQuery 表示查詢參數不合法。
var ErrInvalidQuery = errors.New("invalid query")

// RecordReader 提供檢測紀錄查詢。
type RecordReader interface {
	ListRecords(ctx context.Context, filter inspection.Filter) ([]inspection.Record, error)
}

// Windows 為各週期的回溯範圍。
type Windows struct {
	Days   int
	Weeks  int
	Months int
}

// DefaultWindows 為儀表板預設：7 日、5 週、3 個月。
var DefaultWindows = Windows{Days: 7, Weeks: 5, Months: 3}

// Query 為查詢頁條件。
type Query struct {
	DrawingNo string
	MachineID string
}

func (q Query) filter() inspection.Filter {
	return inspection.Filter{DrawingNo: q.DrawingNo, MachineID: q.MachineID}
}

// DetailQuery 為圖表點擊後的明細條件。
type DetailQuery struct {
	DeviceID string
	Key      string
	Period   inspection.Period
}

// UseCase 聚合儀表板、查詢頁與派報摘要邏輯。
type UseCase struct {
	reader    RecordReader
	engine    *aggregation.Engine
	windows   Windows
	threshold float64
}

// NewUseCase 建立報表用例；threshold 為 overkill 百分比門檻。
func NewUseCase(reader RecordReader, engine *aggregation.Engine, windows Windows, threshold float64) *UseCase {
	if engine == nil {
		engine = aggregation.NewEngine()
	}
	if windows.Days <= 0 {
		windows.Days = DefaultWindows.Days
	}
	if windows.Weeks <= 0 {
		windows.Weeks = DefaultWindows.Weeks
	}
	if windows.Months <= 0 {
		windows.Months = DefaultWindows.Months
	}
	return &UseCase{
		reader:    reader,
		engine:    engine,
		windows:   windows,
		threshold: threshold,
	}
}

// Engine 回傳使用中的聚合引擎。
func (u *UseCase) Engine() *aggregation.Engine {
	return u.engine
}

// Threshold 回傳 overkill 門檻（百分比）。
func (u *UseCase) Threshold() float64 {
	return u.threshold
}

func (u *UseCase) load(ctx context.Context, filter inspection.Filter) ([]inspection.Record, error) {
	records, err := u.reader.ListRecords(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}
	return records, nil
}

func (u *UseCase) loadAll(ctx context.Context) ([]inspection.Record, error) {
	records, err := u.load(ctx, inspection.Filter{})
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, ErrDataNotReady
	}
	return records, nil
}

func (u *UseCase) averages(records []inspection.Record) reportsDomain.PeriodAverages {
	e := u.engine
	return reportsDomain.PeriodAverages{
		Daily:   e.AverageAggregate(e.FilterByTrailingDays(records, u.windows.Days), inspection.PeriodDaily),
		Weekly:  e.AverageAggregate(e.FilterByTrailingWeeks(records, u.windows.Weeks), inspection.PeriodWeekly),
		Monthly: e.AverageAggregate(e.FilterByTrailingMonths(records, u.windows.Months), inspection.PeriodMonthly),
	}
}

// BuildOverview 產出整體日/週/月平均。
func (u *UseCase) BuildOverview(ctx context.Context) (reportsDomain.Overview, error) {
	records, err := u.loadAll(ctx)
	if err != nil {
		return reportsDomain.Overview{}, err
	}
	return reportsDomain.Overview{
		GeneratedAt: u.engine.Now(),
		Records:     len(records),
		Overall:     u.averages(records),
	}, nil
}

// BuildDeviceDashboards 依 Device_Id（排序後）產出各自的日/週/月平均。
func (u *UseCase) BuildDeviceDashboards(ctx context.Context) ([]reportsDomain.DeviceDashboard, error) {
	records, err := u.loadAll(ctx)
	if err != nil {
		return nil, err
	}
	groups, order := groupBy(records, func(r inspection.Record) string { return r.DeviceID })
	out := make([]reportsDomain.DeviceDashboard, 0, len(order))
	for _, id := range order {
		out = append(out, reportsDomain.DeviceDashboard{DeviceID: id, Series: u.averages(groups[id])})
	}
	return out, nil
}

// BuildMachineDashboards 依 Machine_Id 產出最近 1 日、1 週、1 個月的圖號 overkill 分布。
func (u *UseCase) BuildMachineDashboards(ctx context.Context) ([]reportsDomain.MachineDashboard, error) {
	records, err := u.loadAll(ctx)
	if err != nil {
		return nil, err
	}
	e := u.engine
	groups, order := groupBy(records, func(r inspection.Record) string { return r.MachineID })
	out := make([]reportsDomain.MachineDashboard, 0, len(order))
	for _, id := range order {
		recs := groups[id]
		out = append(out, reportsDomain.MachineDashboard{
			MachineID: id,
			Series: reportsDomain.PeriodDrawingSeries{
				Daily:   e.DrawingSeries(e.FilterByTrailingDays(recs, 1), inspection.PeriodDaily),
				Weekly:  e.DrawingSeries(e.FilterByTrailingWeeks(recs, 1), inspection.PeriodWeekly),
				Monthly: e.DrawingSeries(e.FilterByTrailingMonths(recs, 1), inspection.PeriodMonthly),
			},
		})
	}
	return out, nil
}

// QueryAverages 回傳月、週、日平均依序串接的結果。
func (u *UseCase) QueryAverages(ctx context.Context, q Query) ([]reportsDomain.BucketAggregate, error) {
	records, err := u.load(ctx, q.filter())
	if err != nil {
		return nil, err
	}
	avg := u.averages(records)
	out := make([]reportsDomain.BucketAggregate, 0, len(avg.Monthly)+len(avg.Weekly)+len(avg.Daily))
	out = append(out, avg.Monthly...)
	out = append(out, avg.Weekly...)
	return append(out, avg.Daily...), nil
}

// QueryTotals 回傳月、週、日總計依序串接的結果。
func (u *UseCase) QueryTotals(ctx context.Context, q Query) ([]reportsDomain.BucketTotals, error) {
	records, err := u.load(ctx, q.filter())
	if err != nil {
		return nil, err
	}
	e := u.engine
	monthly := e.SumAggregate(e.FilterByTrailingMonths(records, u.windows.Months), inspection.PeriodMonthly)
	weekly := e.SumAggregate(e.FilterByTrailingWeeks(records, u.windows.Weeks), inspection.PeriodWeekly)
	daily := e.SumAggregate(e.FilterByTrailingDays(records, u.windows.Days), inspection.PeriodDaily)

	out := make([]reportsDomain.BucketTotals, 0, len(monthly)+len(weekly)+len(daily))
	out = append(out, monthly...)
	out = append(out, weekly...)
	return append(out, daily...), nil
}

// AggregateQuery 為直接呼叫聚合引擎的參數。
type AggregateQuery struct {
	Query
	Period inspection.Period
	// Range 為回溯範圍的週期（daily/weekly/monthly），空值代表不篩選。
	Range inspection.Period
	N     int
}

func (u *UseCase) window(records []inspection.Record, q AggregateQuery) ([]inspection.Record, error) {
	e := u.engine
	if q.Range == "" {
		return records, nil
	}
	if q.N <= 0 {
		return nil, fmt.Errorf("%w: n must be positive", ErrInvalidQuery)
	}
	switch q.Range {
	case inspection.PeriodDaily:
		return e.FilterByTrailingDays(records, q.N), nil
	case inspection.PeriodWeekly:
		return e.FilterByTrailingWeeks(records, q.N), nil
	case inspection.PeriodMonthly:
		return e.FilterByTrailingMonths(records, q.N), nil
	}
	return nil, fmt.Errorf("%w: unknown range %q", ErrInvalidQuery, q.Range)
}

// Averages 以任意週期與範圍計算平均。
func (u *UseCase) Averages(ctx context.Context, q AggregateQuery) ([]reportsDomain.BucketAggregate, error) {
	records, err := u.load(ctx, q.filter())
	if err != nil {
		return nil, err
	}
	if records, err = u.window(records, q); err != nil {
		return nil, err
	}
	return u.engine.AverageAggregate(records, q.Period), nil
}

// Totals 以任意週期與範圍計算總計。
func (u *UseCase) Totals(ctx context.Context, q AggregateQuery) ([]reportsDomain.BucketTotals, error) {
	records, err := u.load(ctx, q.filter())
	if err != nil {
		return nil, err
	}
	if records, err = u.window(records, q); err != nil {
		return nil, err
	}
	return u.engine.SumAggregate(records, q.Period), nil
}

// BucketDetails 回傳單一 Device 在指定區間內的紀錄，依 overkill 由高至低排序。
func (u *UseCase) BucketDetails(ctx context.Context, q DetailQuery) (reportsDomain.BucketDetail, error) {
	if q.DeviceID == "" || q.Key == "" {
		return reportsDomain.BucketDetail{}, fmt.Errorf("%w: device and key are required", ErrInvalidQuery)
	}
	if _, err := inspection.ParsePeriod(string(q.Period)); err != nil {
		return reportsDomain.BucketDetail{}, fmt.Errorf("%w: %v", ErrInvalidQuery, err)
	}
	records, err := u.load(ctx, inspection.Filter{DeviceID: q.DeviceID})
	if err != nil {
		return reportsDomain.BucketDetail{}, err
	}
	return u.detail(records, q), nil
}

// DetailFetcher 由後端直接查詢單一區間明細。
type DetailFetcher interface {
	FetchDetails(ctx context.Context, deviceID, key string, period inspection.Period) ([]inspection.Record, error)
}

// UpstreamBucketDetails 與 BucketDetails 相同，但紀錄改由後端即時取得。
func (u *UseCase) UpstreamBucketDetails(ctx context.Context, fetcher DetailFetcher, q DetailQuery) (reportsDomain.BucketDetail, error) {
	if q.DeviceID == "" || q.Key == "" {
		return reportsDomain.BucketDetail{}, fmt.Errorf("%w: device and key are required", ErrInvalidQuery)
	}
	if _, err := inspection.ParsePeriod(string(q.Period)); err != nil {
		return reportsDomain.BucketDetail{}, fmt.Errorf("%w: %v", ErrInvalidQuery, err)
	}
	records, err := fetcher.FetchDetails(ctx, q.DeviceID, q.Key, q.Period)
	if err != nil {
		return reportsDomain.BucketDetail{}, fmt.Errorf("fetch details: %w", err)
	}
	return u.detail(inspection.Filter{DeviceID: q.DeviceID}.Apply(records), q), nil
}

func (u *UseCase) detail(records []inspection.Record, q DetailQuery) reportsDomain.BucketDetail {
	e := u.engine
	matched := make([]inspection.Record, 0)
	for _, r := range records {
		if e.ResolveBucketKey(r.Timestamp, q.Period) == q.Key {
			if q.Period == inspection.PeriodWeekly {
				r.WeekNumber = q.Key
			}
			matched = append(matched, r)
		}
	}
	sort.SliceStable(matched, func(i, j int) bool {
		return descending(e.Number(matched[i].OverkillRate), e.Number(matched[j].OverkillRate))
	})

	var passSum, overkillSum float64
	machines, order := groupBy(matched, func(r inspection.Record) string { return r.MachineID })
	for _, r := range matched {
		passSum += e.Number(r.PassRate)
		overkillSum += e.Number(r.OverkillRate)
	}
	briefs := make([]reportsDomain.MachineBrief, 0, len(order))
	for _, id := range order {
		var sum float64
		for _, r := range machines[id] {
			sum += e.Number(r.OverkillRate)
		}
		briefs = append(briefs, reportsDomain.MachineBrief{
			MachineID:           id,
			Strips:              len(machines[id]),
			AverageOverkillRate: aggregation.ToFixed(meanOf(sum, len(machines[id]))*100, 1),
		})
	}

	return reportsDomain.BucketDetail{
		DeviceID:            q.DeviceID,
		Key:                 q.Key,
		PeriodType:          q.Period,
		Records:             matched,
		AveragePassRate:     aggregation.ToFixed(meanOf(passSum, len(matched))*100, 1),
		AverageOverkillRate: aggregation.ToFixed(meanOf(overkillSum, len(matched))*100, 1),
		Machines:            briefs,
	}
}

// BuildYesterdaySummary 彙整昨日各圖號 + Device 的平均良率與 overkill，並判斷是否需要派報。
func (u *UseCase) BuildYesterdaySummary(ctx context.Context) (reportsDomain.YesterdaySummary, error) {
	records, err := u.loadAll(ctx)
	if err != nil {
		return reportsDomain.YesterdaySummary{}, err
	}
	e := u.engine
	yesterday := e.Today().AddDate(0, 0, -1).Format("2006-01-02")

	type acc struct {
		drawingNo, deviceID string
		pass, overkill      float64
		n                   int
	}
	groups := make(map[string]*acc)
	var keys []string
	for _, r := range records {
		if r.Day() != yesterday {
			continue
		}
		key := r.DrawingNo + "-" + r.DeviceID
		g := groups[key]
		if g == nil {
			g = &acc{drawingNo: r.DrawingNo, deviceID: r.DeviceID}
			groups[key] = g
			keys = append(keys, key)
		}
		g.pass += inspection.ParseNumber(r.PassRate)
		g.overkill += inspection.ParseNumber(r.OverkillRate)
		g.n++
	}

	rows := make([]reportsDomain.SummaryRow, 0, len(keys))
	for _, key := range keys {
		g := groups[key]
		rows = append(rows, reportsDomain.SummaryRow{
			DrawingNo:    g.drawingNo,
			DeviceID:     g.deviceID,
			PassRate:     aggregation.ToFixed(g.pass/float64(g.n)*100, 1),
			OverkillRate: aggregation.ToFixed(g.overkill/float64(g.n)*100, 1),
		})
	}
	sort.SliceStable(rows, func(i, j int) bool {
		return descending(inspection.ParseNumber(rows[i].OverkillRate), inspection.ParseNumber(rows[j].OverkillRate))
	})

	summary := reportsDomain.YesterdaySummary{
		Date:      yesterday,
		Rows:      rows,
		Threshold: u.threshold,
	}
	if len(rows) > 0 {
		var passSum, overkillSum float64
		for i := range rows {
			passSum += inspection.ParseNumber(rows[i].PassRate)
			overkillSum += inspection.ParseNumber(rows[i].OverkillRate)
			rows[i].Exceeded = inspection.ParseNumber(rows[i].OverkillRate) > u.threshold
		}
		summary.AveragePassRate = aggregation.RoundTo(passSum/float64(len(rows)), 2)
		summary.AverageOverkillRate = aggregation.RoundTo(overkillSum/float64(len(rows)), 2)
	}
	summary.NeedsDispatch = u.needsDispatch(records)
	return summary, nil
}

// needsDispatch 任一 Device 最近一個日區間的平均 overkill 超過門檻即需派報。
func (u *UseCase) needsDispatch(records []inspection.Record) bool {
	e := u.engine
	groups, order := groupBy(records, func(r inspection.Record) string { return r.DeviceID })
	for _, id := range order {
		daily := e.AverageAggregate(e.FilterByTrailingDays(groups[id], u.windows.Days), inspection.PeriodDaily)
		if len(daily) == 0 {
			continue
		}
		if inspection.ParseNumber(daily[len(daily)-1].AverageOverkillRate) > u.threshold {
			return true
		}
	}
	return false
}

// groupBy 依欄位分組，回傳排序後的不重複鍵。
func groupBy(records []inspection.Record, field func(inspection.Record) string) (map[string][]inspection.Record, []string) {
	groups := make(map[string][]inspection.Record)
	for _, r := range records {
		k := field(r)
		groups[k] = append(groups[k], r)
	}
	keys := make([]string, 0, len(groups))
	for k := range groups {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return groups, keys
}

// descending 由大到小，NaN 排最後。
func descending(a, b float64) bool {
	if math.IsNaN(b) {
		return !math.IsNaN(a)
	}
	if math.IsNaN(a) {
		return false
	}
	return a > b
}

func meanOf(sum float64, n int) float64 {
	if n == 0 {
		return math.NaN()
	}
	return sum / float64(n)
}
