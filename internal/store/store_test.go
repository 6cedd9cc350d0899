package store

import (
	"path/filepath"
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/stretchr/testify/require"

	"dailyhealth/internal/model"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	st, err := New(filepath.Join(t.TempDir(), "data", "dailyhealth.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	return st
}

func date(y int, m time.Month, d int) civil.Date {
	return civil.Date{Year: y, Month: m, Day: d}
}

func TestStore_EmptySnapshot(t *testing.T) {
	t.Parallel()

	st := newTestStore(t)

	c, err := st.Counts()
	require.NoError(t, err)
	require.Equal(t, Counts{}, c)

	log, err := st.LatestImport()
	require.NoError(t, err)
	require.Nil(t, log)

	days, err := st.ListDays(DayQueryOptions{})
	require.NoError(t, err)
	require.Empty(t, days)

	_, err = st.GetConfig(KeyLastRunID)
	require.ErrorIs(t, err, ErrConfigNotFound)
}

func TestStore_ReplaceRun(t *testing.T) {
	t.Parallel()

	st := newTestStore(t)

	runID, err := st.CreateImportLog("/data")
	require.NoError(t, err)
	require.NotEmpty(t, runID)

	err = st.ReplaceRun(Snapshot{
		Records: []model.CanonicalDayRecord{
			{Date: date(2024, time.March, 1), Food: "Rice"},
			{Date: date(2024, time.January, 15), Weight: "70.4", Nutrition: "Eggs | Toast"},
			{Date: date(2023, time.December, 31), Sleep: "8h"},
		},
		Unresolved: []model.UnresolvedEntry{
			{SourceFile: "a.csv", DateRaw: "someday"},
			{SourceFile: "b.xlsx", SourceSheet: "Health", DateRaw: "nan"},
		},
		Sources: []model.Source{{Path: "a.csv", Reason: "filename", Rows: 4}},
		Log: ImportLog{
			RunID:          runID,
			TotalFiles:     2,
			ImportedFiles:  2,
			TotalRows:      5,
			ResolvedRows:   3,
			UnresolvedRows: 2,
		},
	})
	require.NoError(t, err)

	c, err := st.Counts()
	require.NoError(t, err)
	require.Equal(t, Counts{Days: 3, Unresolved: 2, Sources: 1}, c)

	days, err := st.ListDays(DayQueryOptions{})
	require.NoError(t, err)
	require.Len(t, days, 3)
	require.Equal(t, date(2024, time.March, 1), days[0].Date)
	require.Equal(t, "Eggs | Toast", days[1].Nutrition)
	require.Equal(t, date(2023, time.December, 31), days[2].Date)

	from, to := date(2024, time.January, 1), date(2024, time.January, 31)
	days, err = st.ListDays(DayQueryOptions{From: &from, To: &to})
	require.NoError(t, err)
	require.Len(t, days, 1)
	require.Equal(t, "70.4", days[0].Weight)

	bad, err := st.ListUnresolved()
	require.NoError(t, err)
	require.Equal(t, "someday", bad[0].DateRaw)
	require.Equal(t, "Health", bad[1].SourceSheet)

	srcs, err := st.ListSources()
	require.NoError(t, err)
	require.Equal(t, []model.Source{{Path: "a.csv", Reason: "filename", Rows: 4}}, srcs)

	log, err := st.LatestImport()
	require.NoError(t, err)
	require.Equal(t, runID, log.RunID)
	require.Equal(t, StatusCompleted, log.Status)
	require.Equal(t, 3, log.Days)
	require.Equal(t, "/data", log.Root)
	require.NotNil(t, log.CompletedAt)

	last, err := st.GetConfig(KeyLastRunID)
	require.NoError(t, err)
	require.Equal(t, runID, last)
}

func TestStore_ReplaceRunOverwritesPreviousSnapshot(t *testing.T) {
	t.Parallel()

	st := newTestStore(t)

	first, err := st.CreateImportLog("/data")
	require.NoError(t, err)
	require.NoError(t, st.ReplaceRun(Snapshot{
		Records: []model.CanonicalDayRecord{
			{Date: date(2024, time.January, 1)},
			{Date: date(2024, time.January, 2)},
		},
		Log: ImportLog{RunID: first},
	}))

	second, err := st.CreateImportLog("/data")
	require.NoError(t, err)
	require.NoError(t, st.ReplaceRun(Snapshot{
		Records: []model.CanonicalDayRecord{{Date: date(2024, time.February, 1), Food: "Soup"}},
		Log:     ImportLog{RunID: second},
	}))

	days, err := st.ListDays(DayQueryOptions{})
	require.NoError(t, err)
	require.Len(t, days, 1)
	require.Equal(t, "Soup", days[0].Food)
}

func TestStore_ReplaceRunRejectsUnknownRun(t *testing.T) {
	t.Parallel()

	st := newTestStore(t)

	require.Error(t, st.ReplaceRun(Snapshot{}))

	err := st.ReplaceRun(Snapshot{
		Records: []model.CanonicalDayRecord{{Date: date(2024, time.January, 1)}},
		Log:     ImportLog{RunID: "missing"},
	})
	require.Error(t, err)

	// 失败的事务不留下任何数据
	c, err := st.Counts()
	require.NoError(t, err)
	require.Zero(t, c.Days)
}

func TestStore_FailedImportLog(t *testing.T) {
	t.Parallel()

	st := newTestStore(t)

	runID, err := st.CreateImportLog("/nowhere")
	require.NoError(t, err)
	require.NoError(t, st.UpdateImportLog(ImportLog{
		RunID:        runID,
		Status:       StatusFailed,
		ErrorMessage: "scan failed",
	}))

	log, err := st.LatestImport()
	require.NoError(t, err)
	require.Equal(t, StatusFailed, log.Status)
	require.Equal(t, "scan failed", log.ErrorMessage)
}

func TestStore_ReopenKeepsSnapshot(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "nested", "dir", "dailyhealth.db")
	st, err := New(path)
	require.NoError(t, err)
	require.NoError(t, st.SetConfig(KeyLastRunID, "run-1"))
	require.NoError(t, st.Close())

	st, err = New(path)
	require.NoError(t, err)
	defer st.Close()

	v, err := st.GetConfig(KeyLastRunID)
	require.NoError(t, err)
	require.Equal(t, "run-1", v)
}
