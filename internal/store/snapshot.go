package store

import (
	"fmt"

	"cloud.google.com/go/civil"

	"dailyhealth/internal/model"
)

// Snapshot 一次运行的完整产物
type Snapshot struct {
	Records    []model.CanonicalDayRecord
	Unresolved []model.UnresolvedEntry
	Sources    []model.Source
	Log        ImportLog // RunID 必填
}

// ReplaceRun 在一个事务内用本次运行结果整体替换快照，并完成导入日志
func (s *Store) ReplaceRun(snap Snapshot) error {
	if snap.Log.RunID == "" {
		return fmt.Errorf("replace run: empty run id")
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, table := range []string{"day_records", "unresolved_dates", "sources"} {
		if _, err := tx.Exec("DELETE FROM " + table); err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}

	dayStmt, err := tx.Prepare(`
		INSERT INTO day_records (day, weight, nutrition, exercise, sleep, hygiene, food, run_id)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer dayStmt.Close()
	for _, r := range snap.Records {
		if _, err := dayStmt.Exec(r.Date.String(), r.Weight, r.Nutrition, r.Exercise, r.Sleep, r.Hygiene, r.Food, snap.Log.RunID); err != nil {
			return fmt.Errorf("failed to insert day %s: %w", r.Date, err)
		}
	}

	badStmt, err := tx.Prepare(`
		INSERT INTO unresolved_dates (run_id, source_file, source_sheet, date_raw)
		VALUES (?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer badStmt.Close()
	for _, e := range snap.Unresolved {
		if _, err := badStmt.Exec(snap.Log.RunID, e.SourceFile, e.SourceSheet, e.DateRaw); err != nil {
			return fmt.Errorf("failed to insert unresolved entry: %w", err)
		}
	}

	srcStmt, err := tx.Prepare(`
		INSERT INTO sources (run_id, path, sheet, reason, row_count)
		VALUES (?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer srcStmt.Close()
	for _, src := range snap.Sources {
		if _, err := srcStmt.Exec(snap.Log.RunID, src.Path, src.Sheet, src.Reason, src.Rows); err != nil {
			return fmt.Errorf("failed to insert source: %w", err)
		}
	}

	log := snap.Log
	log.Status = StatusCompleted
	log.Days = len(snap.Records)
	if err := updateImportLog(tx, log); err != nil {
		return err
	}
	if err := setConfig(tx, KeyLastRunID, log.RunID); err != nil {
		return fmt.Errorf("failed to record last run: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit: %w", err)
	}
	return nil
}

// DayQueryOptions 日记录查询条件（闭区间，nil 表示不限）
type DayQueryOptions struct {
	From *civil.Date
	To   *civil.Date
}

// ListDays 按日期倒序返回日记录
func (s *Store) ListDays(opts DayQueryOptions) ([]model.CanonicalDayRecord, error) {
	query := `SELECT day, weight, nutrition, exercise, sleep, hygiene, food FROM day_records WHERE 1=1`
	var args []interface{}
	if opts.From != nil {
		query += " AND day >= ?"
		args = append(args, opts.From.String())
	}
	if opts.To != nil {
		query += " AND day <= ?"
		args = append(args, opts.To.String())
	}
	query += " ORDER BY day DESC"

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query days: %w", err)
	}
	defer rows.Close()

	records := make([]model.CanonicalDayRecord, 0)
	for rows.Next() {
		var (
			day string
			r   model.CanonicalDayRecord
		)
		if err := rows.Scan(&day, &r.Weight, &r.Nutrition, &r.Exercise, &r.Sleep, &r.Hygiene, &r.Food); err != nil {
			return nil, fmt.Errorf("failed to scan day: %w", err)
		}
		d, err := civil.ParseDate(day)
		if err != nil {
			return nil, fmt.Errorf("invalid stored day %q: %w", day, err)
		}
		r.Date = d
		records = append(records, r)
	}
	return records, rows.Err()
}

// ListUnresolved 未解析清单（按写入顺序）
func (s *Store) ListUnresolved() ([]model.UnresolvedEntry, error) {
	rows, err := s.db.Query(`SELECT source_file, source_sheet, date_raw FROM unresolved_dates ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query unresolved: %w", err)
	}
	defer rows.Close()

	out := make([]model.UnresolvedEntry, 0)
	for rows.Next() {
		var e model.UnresolvedEntry
		if err := rows.Scan(&e.SourceFile, &e.SourceSheet, &e.DateRaw); err != nil {
			return nil, fmt.Errorf("failed to scan unresolved: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// ListSources 数据源清单（按写入顺序）
func (s *Store) ListSources() ([]model.Source, error) {
	rows, err := s.db.Query(`SELECT path, sheet, reason, row_count FROM sources ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query sources: %w", err)
	}
	defer rows.Close()

	out := make([]model.Source, 0)
	for rows.Next() {
		var src model.Source
		if err := rows.Scan(&src.Path, &src.Sheet, &src.Reason, &src.Rows); err != nil {
			return nil, fmt.Errorf("failed to scan source: %w", err)
		}
		out = append(out, src)
	}
	return out, rows.Err()
}
