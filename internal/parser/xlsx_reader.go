package parser

import (
	"fmt"

	"github.com/xuri/excelize/v2"
)

// Workbook 只读工作簿
type Workbook struct {
	path string
	file *excelize.File
}

// OpenWorkbook 打开 xlsx/xlsm
func OpenWorkbook(path string) (*Workbook, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	return &Workbook{path: path, file: f}, nil
}

// Close 关闭工作簿
func (w *Workbook) Close() error {
	return w.file.Close()
}

// Sheets Sheet 列表（工作簿顺序）
func (w *Workbook) Sheets() []string {
	return w.file.GetSheetList()
}

// Headers 读取 Sheet 首个非空行作为表头；读取失败返回 nil
func (w *Workbook) Headers(sheet string) []string {
	t, err := w.ReadSheet(sheet)
	if err != nil {
		return nil
	}
	return t.Headers
}

// ReadSheet 读取整个 Sheet；单元格取显示文本
func (w *Workbook) ReadSheet(sheet string) (*Table, error) {
	rows, err := w.file.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %s: %w", sheet, err)
	}
	return buildTable(w.path, sheet, rows)
}
