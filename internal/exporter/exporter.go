// Package exporter 把一次运行的结果写成平面文件：规范 CSV、未解析清单、数据源清单和工作簿。
package exporter

import (
	"fmt"
	"io"
	"path/filepath"

	"dailyhealth/internal/model"
	"dailyhealth/internal/pipeline"
)

// 输出文件名
const (
	DailyCSVName      = "daily_health.csv"
	UnresolvedCSVName = "unresolved_dates.csv"
	SourcesJSONName   = "sources.json"
	WorkbookName      = "daily_health.xlsx"
)

// Exporter 结果导出器
type Exporter struct {
	outDir string
}

// NewExporter 创建导出器
func NewExporter(outDir string) *Exporter {
	return &Exporter{outDir: outDir}
}

// ExportOptions 导出选项
type ExportOptions struct {
	Workbook bool // 同时生成 xlsx
}

// Outputs 写出的文件路径
type Outputs struct {
	Daily      string `json:"daily"`
	Unresolved string `json:"unresolved"`
	Sources    string `json:"sources"`
	Workbook   string `json:"workbook,omitempty"`
}

// WriteAll 写出全部结果文件；每个文件先写临时文件再替换
func (e *Exporter) WriteAll(res *pipeline.Result, sources []model.Source, opts ExportOptions, progress func(ProgressEvent)) (*Outputs, error) {
	if res == nil {
		return nil, fmt.Errorf("export: nil result")
	}
	if sources == nil {
		sources = []model.Source{}
	}

	out := &Outputs{
		Daily:      filepath.Join(e.outDir, DailyCSVName),
		Unresolved: filepath.Join(e.outDir, UnresolvedCSVName),
		Sources:    filepath.Join(e.outDir, SourcesJSONName),
	}

	reportProgress(progress, 5, "写出规范表")
	if err := writeFileAtomic(out.Daily, func(w io.Writer) error {
		return WriteDailyCSV(w, res.Records)
	}); err != nil {
		return nil, fmt.Errorf("write %s: %w", out.Daily, err)
	}

	reportProgress(progress, 35, "写出未解析清单")
	if err := writeFileAtomic(out.Unresolved, func(w io.Writer) error {
		return WriteUnresolvedCSV(w, res.Unresolved)
	}); err != nil {
		return nil, fmt.Errorf("write %s: %w", out.Unresolved, err)
	}

	reportProgress(progress, 55, "写出数据源清单")
	if err := writeJSONAtomic(out.Sources, sources); err != nil {
		return nil, fmt.Errorf("write %s: %w", out.Sources, err)
	}

	if opts.Workbook {
		reportProgress(progress, 70, "生成工作簿")
		out.Workbook = filepath.Join(e.outDir, WorkbookName)
		if err := e.writeWorkbook(out.Workbook, res); err != nil {
			return nil, err
		}
	}

	reportProgress(progress, 100, "完成")
	return out, nil
}

func (e *Exporter) writeWorkbook(path string, res *pipeline.Result) error {
	f, err := BuildWorkbook(res.Records, res.Unresolved)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := writeFileAtomic(path, func(w io.Writer) error {
		_, err := f.WriteTo(w)
		return err
	}); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
