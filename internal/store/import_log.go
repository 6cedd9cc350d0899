package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// 导入状态
const (
	StatusProcessing = "processing"
	StatusCompleted  = "completed"
	StatusFailed     = "failed"
)

// ImportLog 导入日志
type ImportLog struct {
	RunID          string     `json:"runId"`
	Root           string     `json:"root"`
	Status         string     `json:"status"`
	TotalFiles     int        `json:"totalFiles"`
	ImportedFiles  int        `json:"importedFiles"`
	SkippedFiles   int        `json:"skippedFiles"`
	ErrorFiles     int        `json:"errorFiles"`
	TotalRows      int        `json:"totalRows"`
	ResolvedRows   int        `json:"resolvedRows"`
	RecoveredRows  int        `json:"recoveredRows"`
	UnresolvedRows int        `json:"unresolvedRows"`
	Days           int        `json:"days"`
	ErrorMessage   string     `json:"errorMessage,omitempty"`
	StartedAt      time.Time  `json:"startedAt"`
	CompletedAt    *time.Time `json:"completedAt,omitempty"`
}

// CreateImportLog 创建导入日志，返回 run_id
func (s *Store) CreateImportLog(root string) (string, error) {
	runID := uuid.NewString()
	_, err := s.db.Exec(`
		INSERT INTO import_logs (run_id, root, status, started_at)
		VALUES (?, ?, ?, ?)
	`, runID, root, StatusProcessing, time.Now().UTC())
	if err != nil {
		return "", fmt.Errorf("failed to create import log: %w", err)
	}
	return runID, nil
}

// UpdateImportLog 完成导入日志更新
func (s *Store) UpdateImportLog(log ImportLog) error {
	return updateImportLog(s.db, log)
}

func updateImportLog(db execer, log ImportLog) error {
	res, err := db.Exec(`
		UPDATE import_logs SET
			total_files = ?,
			imported_files = ?,
			skipped_files = ?,
			error_files = ?,
			total_rows = ?,
			resolved_rows = ?,
			recovered_rows = ?,
			unresolved_rows = ?,
			days = ?,
			status = ?,
			error_message = ?,
			completed_at = ?
		WHERE run_id = ?
	`, log.TotalFiles, log.ImportedFiles, log.SkippedFiles, log.ErrorFiles,
		log.TotalRows, log.ResolvedRows, log.RecoveredRows, log.UnresolvedRows, log.Days,
		log.Status, log.ErrorMessage, time.Now().UTC(), log.RunID)
	if err != nil {
		return fmt.Errorf("failed to update import log: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("failed to update import log: unknown run %s", log.RunID)
	}
	return nil
}

// LatestImport 最近一次导入日志；没有记录时返回 nil, nil
func (s *Store) LatestImport() (*ImportLog, error) {
	var (
		log       ImportLog
		completed sql.NullTime
	)
	err := s.db.QueryRow(`
		SELECT run_id, root, status, total_files, imported_files, skipped_files, error_files,
			total_rows, resolved_rows, recovered_rows, unresolved_rows, days, error_message,
			started_at, completed_at
		FROM import_logs
		ORDER BY started_at DESC, rowid DESC
		LIMIT 1
	`).Scan(&log.RunID, &log.Root, &log.Status, &log.TotalFiles, &log.ImportedFiles, &log.SkippedFiles,
		&log.ErrorFiles, &log.TotalRows, &log.ResolvedRows, &log.RecoveredRows, &log.UnresolvedRows,
		&log.Days, &log.ErrorMessage, &log.StartedAt, &completed)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to query latest import: %w", err)
	}
	if completed.Valid {
		t := completed.Time
		log.CompletedAt = &t
	}
	return &log, nil
}
