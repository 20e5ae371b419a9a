package memory

import (
	"context"
	"reflect"
	"testing"
	"time"

	"aoi-dashboard/internal/domain/inspection"
)

func TestStore_UpsertRecords(t *testing.T) {
	s := NewStore()
	fixed := time.Date(2024, 8, 1, 0, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return fixed }
	ctx := context.Background()

	records := []inspection.Record{
		{Timestamp: "2024-08-01 08:00:00", MachineID: "M1", DrawingNo: "D1", StripNo: "1", FailPpm: "100"},
		{Timestamp: "2024-08-01 09:00:00", MachineID: "M2", DrawingNo: "D2", StripNo: "1"},
	}
	n, err := s.UpsertRecords(ctx, records)
	if err != nil || n != 2 {
		t.Fatalf("unexpected upsert result %d %v", n, err)
	}

	t.Run("OverwriteByIdentity", func(t *testing.T) {
		updated := records[0]
		updated.FailPpm = "200"
		updated.WeekNumber = "W31"
		if _, err := s.UpsertRecords(ctx, []inspection.Record{updated}); err != nil {
			t.Fatal(err)
		}
		if s.Count() != 2 {
			t.Fatalf("expected 2 records after overwrite, got %d", s.Count())
		}
		got, _ := s.ListRecords(ctx, inspection.Filter{MachineID: "M1"})
		if len(got) != 1 || got[0].FailPpm != "200" {
			t.Fatalf("record not overwritten: %+v", got)
		}
		if got[0].WeekNumber != "" {
			t.Fatalf("derived week number must not be stored")
		}
	})

	t.Run("LastSync", func(t *testing.T) {
		last, ok := s.LastSync()
		if !ok || !last.Equal(fixed) {
			t.Fatalf("unexpected last sync %v %v", last, ok)
		}
	})

	t.Run("Distinct", func(t *testing.T) {
		if !reflect.DeepEqual(s.MachineIDs(), []string{"M1", "M2"}) {
			t.Fatalf("unexpected machines %v", s.MachineIDs())
		}
		if !reflect.DeepEqual(s.DrawingNos(), []string{"D1", "D2"}) {
			t.Fatalf("unexpected drawings %v", s.DrawingNos())
		}
		if len(s.DeviceIDs()) != 0 {
			t.Fatalf("empty device ids must be skipped")
		}
	})
}

func TestStore_ReplaceAll(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	_, _ = s.UpsertRecords(ctx, []inspection.Record{{Timestamp: "2024-08-01", MachineID: "OLD"}})

	s.ReplaceAll([]inspection.Record{
		{Timestamp: "2024-08-02", MachineID: "M1", StripNo: "1"},
		{Timestamp: "2024-08-02", MachineID: "M1", StripNo: "1", FailPpm: "9"},
	})
	got, _ := s.ListRecords(ctx, inspection.Filter{})
	if len(got) != 1 || got[0].MachineID != "M1" || got[0].FailPpm != "9" {
		t.Fatalf("unexpected snapshot %+v", got)
	}
}

func TestStore_ReplaceRecords(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	_, _ = s.UpsertRecords(ctx, []inspection.Record{
		{Timestamp: "2024-08-01", MachineID: "M1", StripNo: "1"},
		{Timestamp: "2024-08-01", MachineID: "M1", StripNo: "2"},
	})

	n, err := s.ReplaceRecords(ctx, []inspection.Record{{Timestamp: "2024-08-01", MachineID: "M1", StripNo: "2", WeekNumber: "W31"}})
	if err != nil || n != 1 {
		t.Fatalf("unexpected result %d %v", n, err)
	}
	got, _ := s.ListRecords(ctx, inspection.Filter{})
	if len(got) != 1 || got[0].StripNo != "2" || got[0].WeekNumber != "" {
		t.Fatalf("unexpected snapshot %+v", got)
	}
}

func TestStore_ListReturnsCopy(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	_, _ = s.UpsertRecords(ctx, []inspection.Record{{Timestamp: "2024-08-01", MachineID: "M1"}})

	got, _ := s.ListRecords(ctx, inspection.Filter{})
	got[0].MachineID = "changed"
	again, _ := s.ListRecords(ctx, inspection.Filter{})
	if again[0].MachineID != "M1" {
		t.Fatalf("store must not alias returned slices")
	}
}
