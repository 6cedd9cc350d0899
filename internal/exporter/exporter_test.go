package exporter

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"dailyhealth/internal/model"
	"dailyhealth/internal/pipeline"
)

func sampleResult() *pipeline.Result {
	return &pipeline.Result{
		Records: []model.CanonicalDayRecord{
			{Date: civil.Date{Year: 2024, Month: time.January, Day: 15}, Weight: "70.4", Nutrition: "Eggs | Toast"},
			{Date: civil.Date{Year: 2024, Month: time.January, Day: 3}, Food: "Soup, hot"},
		},
		Unresolved: []model.UnresolvedEntry{
			{SourceFile: "a.csv", DateRaw: "someday"},
		},
	}
}

func TestWriteDailyCSV(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.NoError(t, WriteDailyCSV(&buf, sampleResult().Records))
	require.Equal(t,
		"Date,Weight,Nutrition,Exercise,Sleep,Hygiene,Food\n"+
			"15-01-2024,70.4,Eggs | Toast,,,,\n"+
			"03-01-2024,,,,,,\"Soup, hot\"\n",
		buf.String())
}

func TestWriteDailyCSV_EmptyStillHasHeader(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.NoError(t, WriteDailyCSV(&buf, nil))
	require.Equal(t, "Date,Weight,Nutrition,Exercise,Sleep,Hygiene,Food\n", buf.String())
}

func TestWriteUnresolvedCSV(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.NoError(t, WriteUnresolvedCSV(&buf, []model.UnresolvedEntry{
		{SourceFile: "b.xlsx", SourceSheet: "Health", DateRaw: "nan"},
	}))
	require.Equal(t, "source_file,source_sheet,date_raw\nb.xlsx,Health,nan\n", buf.String())
}

func TestExporter_WriteAll(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	var stages []int
	out, err := NewExporter(dir).WriteAll(sampleResult(), []model.Source{
		{Path: "a.csv", Reason: "filename", Rows: 2},
	}, ExportOptions{Workbook: true}, func(e ProgressEvent) {
		stages = append(stages, e.Percent)
	})
	require.NoError(t, err)
	require.Equal(t, []int{5, 35, 55, 70, 100}, stages)

	daily, err := os.ReadFile(out.Daily)
	require.NoError(t, err)
	require.Contains(t, string(daily), "15-01-2024,70.4")

	raw, err := os.ReadFile(out.Sources)
	require.NoError(t, err)
	var sources []model.Source
	require.NoError(t, json.Unmarshal(raw, &sources))
	require.Equal(t, "a.csv", sources[0].Path)

	_, err = os.Stat(out.Daily + ".tmp")
	require.True(t, os.IsNotExist(err))

	f, err := excelize.OpenFile(out.Workbook)
	require.NoError(t, err)
	t.Cleanup(func() { _ = f.Close() })

	require.Equal(t, []string{SheetDaily, SheetUnresolved}, f.GetSheetList())
	rows, err := f.GetRows(SheetDaily)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	require.Equal(t, DailyHeader(), rows[0])
	require.Equal(t, "15-01-2024", rows[1][0])

	panes, err := f.GetPanes(SheetDaily)
	require.NoError(t, err)
	require.True(t, panes.Freeze)
	require.Equal(t, 1, panes.YSplit)
}

func TestExporter_WriteAllWithoutWorkbook(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	out, err := NewExporter(filepath.Join(dir, "nested")).WriteAll(&pipeline.Result{}, nil, ExportOptions{}, nil)
	require.NoError(t, err)
	require.Empty(t, out.Workbook)

	raw, err := os.ReadFile(out.Sources)
	require.NoError(t, err)
	require.Equal(t, "[]\n", string(raw))

	_, err = NewExporter(dir).WriteAll(nil, nil, ExportOptions{}, nil)
	require.Error(t, err)
}
