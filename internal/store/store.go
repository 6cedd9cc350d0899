package store

import (
	"database/sql"
	_ "embed"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
)

//go:embed schema.sql
var schema string

// busyTimeoutMS 单连接下仍可能遇到外部进程持有写锁
const busyTimeoutMS = 5000

// Store 最近一次运行的 SQLite 快照
type Store struct {
	db *sql.DB
}

// New 打开（必要时创建）dbPath 处的数据库并应用 schema；重复打开是幂等的
func New(dbPath string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}

	dsn := fmt.Sprintf("file:%s?_busy_timeout=%d&_foreign_keys=on", dbPath, busyTimeoutMS)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", dbPath, err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply schema to %s: %w", dbPath, err)
	}
	return &Store{db: db}, nil
}

// Close 关闭数据库
func (s *Store) Close() error {
	return s.db.Close()
}

// Counts 快照规模
type Counts struct {
	Days       int `json:"days"`
	Unresolved int `json:"unresolved"`
	Sources    int `json:"sources"`
}

// Counts 统计当前快照
func (s *Store) Counts() (Counts, error) {
	var c Counts
	err := s.db.QueryRow(`
		SELECT
			(SELECT COUNT(*) FROM day_records),
			(SELECT COUNT(*) FROM unresolved_dates),
			(SELECT COUNT(*) FROM sources)
	`).Scan(&c.Days, &c.Unresolved, &c.Sources)
	if err != nil {
		return Counts{}, fmt.Errorf("failed to count snapshot: %w", err)
	}
	return c, nil
}
