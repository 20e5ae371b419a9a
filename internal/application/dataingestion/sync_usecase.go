package dataingestion

import (
	"context"
	"errors"
	"fmt"
	"time"

	"aoi-dashboard/internal/domain/inspection"

	"github.com/sirupsen/logrus"
)

// RecordSource 抽象化 AOI 後端資料來源。
type RecordSource interface {
	FetchAll(ctx context.Context) ([]inspection.Record, error)
}

// RecordRepository 定義檢測紀錄儲存介面，記憶體與 Postgres 實作皆滿足。
type RecordRepository interface {
	UpsertRecords(ctx context.Context, records []inspection.Record) (int, error)
	ListRecords(ctx context.Context, filter inspection.Filter) ([]inspection.Record, error)
}

// SnapshotRepository 以整批結果取代全部紀錄，上游已移除的紀錄隨之消失。
type SnapshotRepository interface {
	ReplaceRecords(ctx context.Context, records []inspection.Record) (int, error)
}

// Observer 接收每次同步的結果（例如 prometheus 指標）。
type Observer interface {
	ObserveSync(fetched, stored, skipped int, duration time.Duration, err error)
}

// ErrNoSource 表示未設定資料來源。
var ErrNoSource = errors.New("record source not configured")

// Failure 描述一筆被略過的紀錄。
type Failure struct {
	Identity string
	Reason   string
}

// SyncResult 為一次同步的統計。
type SyncResult struct {
	Fetched  int       `json:"fetched"`
	Stored   int       `json:"stored"`
	Skipped  int       `json:"skipped"`
	At       time.Time `json:"at"`
	Failures []Failure `json:"-"`
}

// SyncUseCase 從來源抓取全部紀錄、驗證後寫入儲存庫。
type SyncUseCase struct {
	source   RecordSource
	repo     RecordRepository
	loc      *time.Location
	observer Observer
	now      func() time.Time
}

func NewSyncUseCase(source RecordSource, repo RecordRepository, loc *time.Location) *SyncUseCase {
	if loc == nil {
		loc = time.Local
	}
	return &SyncUseCase{
		source: source,
		repo:   repo,
		loc:    loc,
		now:    time.Now,
	}
}

// WithObserver 設定同步結果觀察者。
func (u *SyncUseCase) WithObserver(o Observer) *SyncUseCase {
	u.observer = o
	return u
}

// Sync 執行一次抓取與寫入。時間無法解析的紀錄計入 Skipped。
// 儲存庫支援 SnapshotRepository 時以本次結果取代全部紀錄，否則逐筆 upsert。
func (u *SyncUseCase) Sync(ctx context.Context) (result SyncResult, err error) {
	start := u.now()
	defer func() {
		if u.observer != nil {
			u.observer.ObserveSync(result.Fetched, result.Stored, result.Skipped, u.now().Sub(start), err)
		}
	}()

	if u.source == nil {
		return result, ErrNoSource
	}

	records, err := u.source.FetchAll(ctx)
	if err != nil {
		return result, fmt.Errorf("fetch records: %w", err)
	}
	result.Fetched = len(records)

	valid := make([]inspection.Record, 0, len(records))
	for _, r := range records {
		if verr := r.Validate(u.loc); verr != nil {
			result.Skipped++
			result.Failures = append(result.Failures, Failure{Identity: r.Identity(), Reason: verr.Error()})
			continue
		}
		valid = append(valid, r)
	}

	var stored int
	if snap, ok := u.repo.(SnapshotRepository); ok {
		stored, err = snap.ReplaceRecords(ctx, valid)
	} else {
		stored, err = u.repo.UpsertRecords(ctx, valid)
	}
	if err != nil {
		return result, fmt.Errorf("store records: %w", err)
	}
	result.Stored = stored
	result.At = u.now()

	logrus.WithFields(logrus.Fields{
		"fetched":  result.Fetched,
		"stored":   result.Stored,
		"skipped":  result.Skipped,
		"duration": result.At.Sub(start),
	}).Info("aoi records synced")
	return result, nil
}

// Run 啟動後立即同步一次，之後每 interval 重新同步，直到 ctx 結束。
func (u *SyncUseCase) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = 10 * time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	u.runOnce(ctx)
	for {
		select {
		case <-ticker.C:
			u.runOnce(ctx)
		case <-ctx.Done():
			return
		}
	}
}

func (u *SyncUseCase) runOnce(ctx context.Context) {
	if _, err := u.Sync(ctx); err != nil {
		logrus.WithError(err).Warn("aoi sync failed")
	}
}
