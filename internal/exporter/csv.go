package exporter

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"dailyhealth/internal/model"
)

// UnresolvedHeader 未解析清单表头
var UnresolvedHeader = []string{"source_file", "source_sheet", "date_raw"}

// DailyHeader 规范表表头
func DailyHeader() []string {
	fields := model.CanonicalFields()
	out := make([]string, len(fields))
	for i, f := range fields {
		out[i] = string(f)
	}
	return out
}

// WriteDailyCSV 写出规范日记录；所有列总是输出
func WriteDailyCSV(w io.Writer, records []model.CanonicalDayRecord) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(DailyHeader()); err != nil {
		return fmt.Errorf("write daily header: %w", err)
	}
	for _, rec := range records {
		if err := cw.Write(rec.Row()); err != nil {
			return fmt.Errorf("write daily row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteUnresolvedCSV 写出未解析日期清单
func WriteUnresolvedCSV(w io.Writer, entries []model.UnresolvedEntry) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(UnresolvedHeader); err != nil {
		return fmt.Errorf("write unresolved header: %w", err)
	}
	for _, e := range entries {
		if err := cw.Write([]string{e.SourceFile, e.SourceSheet, e.DateRaw}); err != nil {
			return fmt.Errorf("write unresolved row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// writeFileAtomic 先写临时文件再 rename
func writeFileAtomic(path string, write func(w io.Writer) error) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		_ = f.Close()
		_ = os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, path)
}

func writeJSONAtomic(path string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	return writeFileAtomic(path, func(w io.Writer) error {
		_, err := w.Write(data)
		return err
	})
}
