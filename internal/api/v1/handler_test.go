package v1

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap/zaptest"

	"dailyhealth/internal/config"
	"dailyhealth/internal/exporter"
	"dailyhealth/internal/importer"
	"dailyhealth/internal/service/runner"
	"dailyhealth/internal/store"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()

	base := t.TempDir()
	root := filepath.Join(base, "logs")
	require.NoError(t, os.MkdirAll(root, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "health_2024.csv"), []byte(
		"Date,Weight,Nutrition,Food\n"+
			"15/01/2024,70.1,Eggs,\n"+
			"45306,70.4,Toast,\n"+
			"2024-01-16,,,Soup\n"+
			"noted 45308 late,,,Tea\n"+
			"unknown,,,Cake\n"), 0o644))

	cfg := config.DefaultConfig()
	cfg.BaseDir = base
	cfg.Scan.Root = "logs"
	cfg.Data.Workbook = false

	st, err := store.New(config.DBPath(cfg))
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	logger := zaptest.NewLogger(t)
	h := NewHandler(st, runner.New(cfg, st, logger), logger)

	router := gin.New()
	h.RegisterRoutes(router.Group("/api"))
	return router
}

func do(t *testing.T, router *gin.Engine, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

type sseEvent struct {
	Type    string          `json:"type"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func readEvents(t *testing.T, body string) []sseEvent {
	t.Helper()
	var events []sseEvent
	for _, chunk := range strings.Split(body, "\n\n") {
		chunk = strings.TrimSpace(chunk)
		if chunk == "" {
			continue
		}
		require.True(t, strings.HasPrefix(chunk, "data: "), chunk)
		var evt sseEvent
		require.NoError(t, json.Unmarshal([]byte(strings.TrimPrefix(chunk, "data: ")), &evt))
		events = append(events, evt)
	}
	return events
}

func runImport(t *testing.T, router *gin.Engine) []sseEvent {
	t.Helper()
	w := do(t, router, http.MethodPost, "/api/import", "")
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "text/event-stream", w.Header().Get("Content-Type"))
	return readEvents(t, w.Body.String())
}

func TestGetStatus_Empty(t *testing.T) {
	t.Parallel()

	router := newTestRouter(t)
	w := do(t, router, http.MethodGet, "/api/status", "")
	require.Equal(t, http.StatusOK, w.Code)

	var resp StatusResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Equal(t, store.Counts{}, resp.Counts)
	require.Nil(t, resp.LastImport)
	require.False(t, resp.Running)
}

func TestImport_StreamsEventsAndStoresSnapshot(t *testing.T) {
	t.Parallel()

	router := newTestRouter(t)
	events := runImport(t, router)

	require.Equal(t, importer.EventStart, events[0].Type)
	require.Equal(t, importer.EventDone, events[len(events)-2].Type)
	last := events[len(events)-1]
	require.Equal(t, EventSummary, last.Type)

	var summary struct {
		RunID string `json:"runId"`
		Stats struct {
			TotalRows  int `json:"totalRows"`
			Recovered  int `json:"recovered"`
			Unresolved int `json:"unresolved"`
			Days       int `json:"days"`
		} `json:"stats"`
	}
	require.NoError(t, json.Unmarshal(last.Data, &summary))
	require.NotEmpty(t, summary.RunID)
	require.Equal(t, 5, summary.Stats.TotalRows)
	require.Equal(t, 1, summary.Stats.Recovered)
	require.Equal(t, 1, summary.Stats.Unresolved)
	require.Equal(t, 3, summary.Stats.Days)

	w := do(t, router, http.MethodGet, "/api/status", "")
	var status StatusResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &status))
	require.Equal(t, store.Counts{Days: 3, Unresolved: 1, Sources: 1}, status.Counts)
	require.NotNil(t, status.LastImport)
	require.Equal(t, summary.RunID, status.LastImport.RunID)
	require.Equal(t, store.StatusCompleted, status.LastImport.Status)
}

func TestImport_MissingRootReportsError(t *testing.T) {
	t.Parallel()

	router := newTestRouter(t)
	missing, err := json.Marshal(ImportRequest{Root: filepath.Join(t.TempDir(), "missing")})
	require.NoError(t, err)

	w := do(t, router, http.MethodPost, "/api/import", string(missing))
	require.Equal(t, http.StatusOK, w.Code)
	events := readEvents(t, w.Body.String())
	require.Equal(t, importer.EventError, events[len(events)-1].Type)

	var errorEvents int
	for _, evt := range events {
		if evt.Type == importer.EventError {
			errorEvents++
		}
	}
	require.Equal(t, 1, errorEvents)
}

func TestImport_InvalidBody(t *testing.T) {
	t.Parallel()

	router := newTestRouter(t)
	w := do(t, router, http.MethodPost, "/api/import", "{")
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestListDays(t *testing.T) {
	t.Parallel()

	router := newTestRouter(t)
	runImport(t, router)

	w := do(t, router, http.MethodGet, "/api/days", "")
	require.Equal(t, http.StatusOK, w.Code)
	var all struct {
		Items []map[string]string `json:"items"`
		Total int                 `json:"total"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &all))
	require.Equal(t, 3, all.Total)
	require.Equal(t, "17-01-2024", all.Items[0]["date"])
	require.Equal(t, "Tea", all.Items[0]["food"])
	require.Equal(t, "15-01-2024", all.Items[2]["date"])
	require.Equal(t, "70.4", all.Items[2]["weight"])
	require.Equal(t, "Eggs | Toast", all.Items[2]["nutrition"])

	w = do(t, router, http.MethodGet, "/api/days?from=16-01-2024&to=2024-01-16", "")
	require.Equal(t, http.StatusOK, w.Code)
	var ranged DaysResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &ranged))
	require.Equal(t, 1, ranged.Total)
	require.Equal(t, "Soup", ranged.Items[0].Food)
}

func TestListDays_InvalidRange(t *testing.T) {
	t.Parallel()

	router := newTestRouter(t)
	for _, target := range []string{
		"/api/days?from=yesterday",
		"/api/days?to=31-02-2024",
		"/api/days?from=17-01-2024&to=15-01-2024",
	} {
		w := do(t, router, http.MethodGet, target, "")
		require.Equal(t, http.StatusBadRequest, w.Code, target)
	}
}

func TestListUnresolvedAndSources(t *testing.T) {
	t.Parallel()

	router := newTestRouter(t)
	runImport(t, router)

	w := do(t, router, http.MethodGet, "/api/unresolved", "")
	require.Equal(t, http.StatusOK, w.Code)
	var unresolved struct {
		Items []struct {
			SourceFile string `json:"source_file"`
			DateRaw    string `json:"date_raw"`
		} `json:"items"`
		Total int `json:"total"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &unresolved))
	require.Equal(t, 1, unresolved.Total)
	require.Equal(t, "unknown", unresolved.Items[0].DateRaw)
	require.Equal(t, "health_2024.csv", filepath.Base(unresolved.Items[0].SourceFile))

	w = do(t, router, http.MethodGet, "/api/sources", "")
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), `"total":1`)
}

func TestResolve(t *testing.T) {
	t.Parallel()

	router := newTestRouter(t)

	cases := []struct {
		body string
		want ResolveResult
	}{
		{
			body: `{"value":"45306"}`,
			want: ResolveResult{Raw: "45306", Resolved: true, Date: "15-01-2024", ISO: "2024-01-15", Strategy: "numeric"},
		},
		{
			body: `{"value":"noted 45308 late"}`,
			want: ResolveResult{Raw: "noted 45308 late"},
		},
		{
			body: `{"value":"noted 45308 late","recover":true}`,
			want: ResolveResult{Raw: "noted 45308 late", Resolved: true, Date: "17-01-2024", ISO: "2024-01-17", Strategy: StrategyRecover},
		},
		{
			body: `{"value":""}`,
			want: ResolveResult{Raw: ""},
		},
	}
	for _, tc := range cases {
		w := do(t, router, http.MethodPost, "/api/resolve", tc.body)
		require.Equal(t, http.StatusOK, w.Code, tc.body)
		var got ResolveResult
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
		require.Equal(t, tc.want, got, tc.body)
	}
}

func TestResolve_Batch(t *testing.T) {
	t.Parallel()

	router := newTestRouter(t)
	w := do(t, router, http.MethodPost, "/api/resolve", `{"values":["2024-01-16","nan"]}`)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Items []ResolveResult `json:"items"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Items, 2)
	require.Equal(t, "16-01-2024", resp.Items[0].Date)
	require.False(t, resp.Items[1].Resolved)
}

func TestResolve_BadRequest(t *testing.T) {
	t.Parallel()

	router := newTestRouter(t)
	for _, body := range []string{"", "{}", `{"value":1}`} {
		w := do(t, router, http.MethodPost, "/api/resolve", body)
		require.Equal(t, http.StatusBadRequest, w.Code, body)
	}
}

func TestExport_CSV(t *testing.T) {
	t.Parallel()

	router := newTestRouter(t)
	runImport(t, router)

	w := do(t, router, http.MethodGet, "/api/export?format=csv", "")
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Header().Get("Content-Disposition"), exporter.DailyCSVName)

	lines := strings.Split(strings.TrimSpace(w.Body.String()), "\n")
	require.Len(t, lines, 4)
	require.Equal(t, strings.Join(exporter.DailyHeader(), ","), lines[0])
	require.True(t, strings.HasPrefix(lines[1], "17-01-2024,"))
}

func TestExport_XLSX(t *testing.T) {
	t.Parallel()

	router := newTestRouter(t)
	runImport(t, router)

	w := do(t, router, http.MethodGet, "/api/export?format=xlsx", "")
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, mediaXLSX, w.Header().Get("Content-Type"))

	f, err := excelize.OpenReader(bytes.NewReader(w.Body.Bytes()))
	require.NoError(t, err)
	defer f.Close()
	require.Equal(t, []string{exporter.SheetDaily, exporter.SheetUnresolved}, f.GetSheetList())

	v, err := f.GetCellValue(exporter.SheetDaily, "A2")
	require.NoError(t, err)
	require.Equal(t, "17-01-2024", v)
}

func TestExport_UnknownFormat(t *testing.T) {
	t.Parallel()

	router := newTestRouter(t)
	w := do(t, router, http.MethodGet, "/api/export?format=pdf", "")
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPrepareAndDownloadExport(t *testing.T) {
	t.Parallel()

	router := newTestRouter(t)
	runImport(t, router)

	w := do(t, router, http.MethodPost, "/api/export/prepare?format=csv", "")
	require.Equal(t, http.StatusOK, w.Code)
	var prepared PrepareExportResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &prepared))
	require.NotEmpty(t, prepared.Token)
	require.Equal(t, exporter.DailyCSVName, prepared.FileName)

	w = do(t, router, http.MethodGet, prepared.DownloadURL, "")
	require.Equal(t, http.StatusOK, w.Code)
	require.True(t, strings.HasPrefix(w.Body.String(), "Date,"))

	w = do(t, router, http.MethodGet, prepared.DownloadURL, "")
	require.Equal(t, http.StatusNotFound, w.Code)
}
