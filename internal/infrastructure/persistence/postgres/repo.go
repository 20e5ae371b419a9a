package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"aoi-dashboard/internal/domain/inspection"
)

// RecordRepo 提供 AOI 檢測紀錄的 Postgres 讀寫。
type RecordRepo struct {
	db *sql.DB
}

// NewRecordRepo 建立 Postgres 資料存取實例。
func NewRecordRepo(db *sql.DB) *RecordRepo {
	return &RecordRepo{db: db}
}

const upsertRecordSQL = `
INSERT INTO aoi_records (machine_id, ao_time_start, strip_no, drawing_no, device_id, lot_no, fail_ppm, pass_rate, overkill_rate, aoi_defect, fail_count, pass_count)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
ON CONFLICT (machine_id, ao_time_start, strip_no)
DO UPDATE SET drawing_no = EXCLUDED.drawing_no,
              device_id = EXCLUDED.device_id,
              lot_no = EXCLUDED.lot_no,
              fail_ppm = EXCLUDED.fail_ppm,
              pass_rate = EXCLUDED.pass_rate,
              overkill_rate = EXCLUDED.overkill_rate,
              aoi_defect = EXCLUDED.aoi_defect,
              fail_count = EXCLUDED.fail_count,
              pass_count = EXCLUDED.pass_count,
              updated_at = NOW();
`

// UpsertRecords 以 machine_id + ao_time_start + strip_no 為唯一鍵，整批於單一交易內寫入。
func (r *RecordRepo) UpsertRecords(ctx context.Context, records []inspection.Record) (int, error) {
	if len(records) == 0 {
		return 0, nil
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, upsertRecordSQL)
	if err != nil {
		return 0, err
	}
	defer stmt.Close()

	for i, rec := range records {
		if _, err := stmt.ExecContext(ctx,
			rec.MachineID,
			rec.Timestamp,
			rec.StripNo,
			rec.DrawingNo,
			rec.DeviceID,
			rec.LotNo,
			rec.FailPpm,
			rec.PassRate,
			rec.OverkillRate,
			rec.AoiDefectCount,
			rec.FailCount,
			rec.PassCount,
		); err != nil {
			return 0, fmt.Errorf("upsert record %d (%s): %w", i, rec.Identity(), err)
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return len(records), nil
}

// ListRecords 依條件查詢紀錄，依開始時間排序。
func (r *RecordRepo) ListRecords(ctx context.Context, filter inspection.Filter) ([]inspection.Record, error) {
	q := `
SELECT machine_id, ao_time_start, strip_no, drawing_no, device_id, lot_no, fail_ppm, pass_rate, overkill_rate, aoi_defect, fail_count, pass_count
FROM aoi_records`
	var (
		conds []string
		args  []any
	)
	add := func(col, val string) {
		if val == "" {
			return
		}
		args = append(args, val)
		conds = append(conds, fmt.Sprintf("%s = $%d", col, len(args)))
	}
	add("drawing_no", filter.DrawingNo)
	add("machine_id", filter.MachineID)
	add("device_id", filter.DeviceID)
	if len(conds) > 0 {
		q += "\nWHERE " + strings.Join(conds, " AND ")
	}
	q += "\nORDER BY ao_time_start, id;"

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]inspection.Record, 0)
	for rows.Next() {
		var rec inspection.Record
		if err := rows.Scan(
			&rec.MachineID,
			&rec.Timestamp,
			&rec.StripNo,
			&rec.DrawingNo,
			&rec.DeviceID,
			&rec.LotNo,
			&rec.FailPpm,
			&rec.PassRate,
			&rec.OverkillRate,
			&rec.AoiDefectCount,
			&rec.FailCount,
			&rec.PassCount,
		); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// CountRecords 回傳資料表紀錄數。
func (r *RecordRepo) CountRecords(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM aoi_records;`).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}
