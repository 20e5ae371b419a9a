package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"aoi-dashboard/internal/domain/inspection"
)

// Store 為記憶體版檢測紀錄庫，未設定資料庫時使用；以 RWMutex 保護。
type Store struct {
	mu       sync.RWMutex
	records  []inspection.Record
	index    map[string]int // identity -> position in records
	lastSync time.Time
	now      func() time.Time
}

// NewStore 建立新的記憶體 Store 實例。
func NewStore() *Store {
	return &Store{
		index: make(map[string]int),
		now:   time.Now,
	}
}

// UpsertRecords 依紀錄唯一鍵新增或覆蓋，回傳寫入筆數。
func (s *Store) UpsertRecords(ctx context.Context, records []inspection.Record) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, r := range records {
		r.WeekNumber = ""
		id := r.Identity()
		if pos, ok := s.index[id]; ok {
			s.records[pos] = r
			continue
		}
		s.index[id] = len(s.records)
		s.records = append(s.records, r)
	}
	s.lastSync = s.now()
	return len(records), nil
}

// ReplaceAll 以新的快照取代全部紀錄。
func (s *Store) ReplaceAll(records []inspection.Record) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.records = make([]inspection.Record, 0, len(records))
	s.index = make(map[string]int, len(records))
	for _, r := range records {
		r.WeekNumber = ""
		id := r.Identity()
		if pos, ok := s.index[id]; ok {
			s.records[pos] = r
			continue
		}
		s.index[id] = len(s.records)
		s.records = append(s.records, r)
	}
	s.lastSync = s.now()
}

// ReplaceRecords 實作同步用的整批取代，回傳寫入後的筆數。
func (s *Store) ReplaceRecords(ctx context.Context, records []inspection.Record) (int, error) {
	s.ReplaceAll(records)
	return s.Count(), nil
}

// ListRecords 回傳符合條件的紀錄副本，保留寫入順序。
func (s *Store) ListRecords(ctx context.Context, filter inspection.Filter) ([]inspection.Record, error) {
	return s.Query(filter), nil
}

// Count 回傳目前紀錄數。
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

// LastSync 回傳最近一次寫入時間。
func (s *Store) LastSync() (time.Time, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastSync, !s.lastSync.IsZero()
}

// DrawingNos 回傳排序後的不重複圖號。
func (s *Store) DrawingNos() []string {
	return s.distinct(func(r inspection.Record) string { return r.DrawingNo })
}

// MachineIDs 回傳排序後的不重複機台。
func (s *Store) MachineIDs() []string {
	return s.distinct(func(r inspection.Record) string { return r.MachineID })
}

// DeviceIDs 回傳排序後的不重複 Device。
func (s *Store) DeviceIDs() []string {
	return s.distinct(func(r inspection.Record) string { return r.DeviceID })
}

func (s *Store) distinct(field func(inspection.Record) string) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return DistinctSorted(s.records, field)
}

// DistinctSorted 回傳欄位的不重複值（排序，略過空值）。
func DistinctSorted(records []inspection.Record, field func(inspection.Record) string) []string {
	seen := make(map[string]struct{})
	out := make([]string, 0)
	for _, r := range records {
		v := field(r)
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

// All 回傳全部紀錄副本。
func (s *Store) All() []inspection.Record {
	return s.Query(inspection.Filter{})
}

// Query 以條件篩選紀錄。
func (s *Store) Query(filter inspection.Filter) []inspection.Record {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return filter.Apply(s.records)
}

// CountRecords 回傳目前紀錄數，與 Postgres 實作介面一致。
func (s *Store) CountRecords(ctx context.Context) (int, error) {
	return s.Count(), nil
}
