package parser

import (
	"time"

	"dailyhealth/internal/model"
)

// SourceKind 数据源类型
type SourceKind string

const (
	SourceKindCSV      SourceKind = "csv"
	SourceKindWorkbook SourceKind = "workbook"
	SourceKindUnknown  SourceKind = "unknown"
)

// RecognitionReason 识别依据
type RecognitionReason string

const (
	ReasonFileName   RecognitionReason = "filename"
	ReasonSheetName  RecognitionReason = "sheet_name"
	ReasonHeader     RecognitionReason = "header"
	ReasonNotMatched RecognitionReason = "not_matched"
)

// RecognitionResult 数据源识别结果
type RecognitionResult struct {
	Path       string            `json:"path"`
	SheetName  string            `json:"sheetName,omitempty"`
	Kind       SourceKind        `json:"kind"`
	Reason     RecognitionReason `json:"reason"`
	Confidence float64           `json:"confidence"` // 置信度 0-1
}

// Candidate 是否作为数据源
func (r RecognitionResult) Candidate() bool {
	return r.Reason != ReasonNotMatched && r.Confidence > 0
}

// FieldMapping 字段映射结果
type FieldMapping struct {
	ColumnIndex int         `json:"columnIndex"` // 列索引
	ColumnName  string      `json:"columnName"`  // 规范化后的列名
	Field       model.Field `json:"field"`       // 规范字段
}

// Table 读出的一张表：首行为表头
type Table struct {
	SourceFile  string     `json:"sourceFile"`
	SourceSheet string     `json:"sourceSheet,omitempty"`
	Headers     []string   `json:"headers"`
	Rows        [][]string `json:"rows"`
}

// ParseResult 单个数据源的解析结果
type ParseResult struct {
	SourceFile  string            `json:"sourceFile"`
	SourceSheet string            `json:"sourceSheet,omitempty"`
	Reason      RecognitionReason `json:"reason"`
	Status      string            `json:"status"` // imported/skipped/error
	Rows        int               `json:"rows"`
	Errors      []string          `json:"errors,omitempty"`
	Duration    time.Duration     `json:"duration"`
}

// ImportReport 一次目录扫描的导入报告
type ImportReport struct {
	Root          string         `json:"root"`
	TotalFiles    int            `json:"totalFiles"`
	ImportedFiles int            `json:"importedFiles"`
	SkippedFiles  int            `json:"skippedFiles"`
	ErrorFiles    int            `json:"errorFiles"`
	TotalRows     int            `json:"totalRows"`
	Duration      time.Duration  `json:"duration"`
	Results       []ParseResult  `json:"results"`
	Sources       []model.Source `json:"sources"`
	Rows          []model.RawRow `json:"-"`
}
