package exporter

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"dailyhealth/internal/model"
)

const (
	SheetDaily      = "Daily"
	SheetUnresolved = "Unresolved"
)

// BuildWorkbook 生成规范表工作簿：Daily + Unresolved 两个 Sheet，表头加粗并冻结
func BuildWorkbook(records []model.CanonicalDayRecord, unresolved []model.UnresolvedEntry) (*excelize.File, error) {
	f := excelize.NewFile()

	if err := f.SetSheetName("Sheet1", SheetDaily); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("rename sheet: %w", err)
	}
	if _, err := f.NewSheet(SheetUnresolved); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("create sheet: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"#DDEBF7"}},
		Border: []excelize.Border{
			{Type: "bottom", Color: "#9BC2E6", Style: 1},
		},
	})
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("create header style: %w", err)
	}

	daily := make([][]string, 0, len(records))
	for _, rec := range records {
		daily = append(daily, rec.Row())
	}
	if err := fillSheet(f, SheetDaily, DailyHeader(), daily, headerStyle); err != nil {
		_ = f.Close()
		return nil, err
	}
	// Date 列窄，文本列宽
	_ = f.SetColWidth(SheetDaily, "A", "B", 12)
	_ = f.SetColWidth(SheetDaily, "C", "G", 40)

	bad := make([][]string, 0, len(unresolved))
	for _, e := range unresolved {
		bad = append(bad, []string{e.SourceFile, e.SourceSheet, e.DateRaw})
	}
	if err := fillSheet(f, SheetUnresolved, UnresolvedHeader, bad, headerStyle); err != nil {
		_ = f.Close()
		return nil, err
	}
	_ = f.SetColWidth(SheetUnresolved, "A", "A", 48)
	_ = f.SetColWidth(SheetUnresolved, "B", "C", 20)

	f.SetActiveSheet(0)
	return f, nil
}

func fillSheet(f *excelize.File, sheet string, header []string, rows [][]string, headerStyle int) error {
	if err := setRow(f, sheet, 1, header); err != nil {
		return err
	}
	for i, r := range rows {
		if err := setRow(f, sheet, i+2, r); err != nil {
			return err
		}
	}

	lastCol, err := excelize.ColumnNumberToName(len(header))
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(sheet, "A1", lastCol+"1", headerStyle); err != nil {
		return fmt.Errorf("set header style %s: %w", sheet, err)
	}
	if err := f.SetPanes(sheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return fmt.Errorf("freeze header %s: %w", sheet, err)
	}
	return nil
}

// setRow 以文本写入，避免数字样式的值被 Excel 转成数值
func setRow(f *excelize.File, sheet string, row int, values []string) error {
	for i, v := range values {
		cell, err := excelize.CoordinatesToCellName(i+1, row)
		if err != nil {
			return err
		}
		if err := f.SetCellStr(sheet, cell, v); err != nil {
			return fmt.Errorf("write %s!%s: %w", sheet, cell, err)
		}
	}
	return nil
}
