package v1

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/xuri/excelize/v2"

	"github.com/EugeneSatt/VKP-Table/internal/importer"
	"github.com/EugeneSatt/VKP-Table/internal/model"
	"github.com/EugeneSatt/VKP-Table/internal/parser"
	"github.com/EugeneSatt/VKP-Table/internal/service/schedule"
	"github.com/EugeneSatt/VKP-Table/internal/service/store"
)

func newTestRouter(t *testing.T) (*gin.Engine, *store.MemoryStore) {
	t.Helper()

	mem := store.NewMemoryStore()
	return newRouterWithStorage(t, mem, mem), mem
}

func newRouterWithStorage(t *testing.T, mem *store.MemoryStore, storage Storage) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	svc := schedule.NewService(mem, schedule.DefaultOptions())
	layout := parser.DefaultLayout()
	coordinator := importer.NewCoordinator(svc, mem, layout)

	h := NewHandler(svc, coordinator, storage, Options{Layout: layout, MaxUploadBytes: 1 << 20})
	r := gin.New()
	h.RegisterRoutes(r.Group("/api"))
	return r
}

// downStorage 模拟数据库不可达
type downStorage struct {
	*store.MemoryStore
}

func (downStorage) Driver() string { return "postgres" }

func (downStorage) Ping(context.Context) error { return errors.New("connection refused") }

func doJSON(t *testing.T, r http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func doUpload(t *testing.T, r http.Handler, path, filename string, data []byte) *httptest.ResponseRecorder {
	t.Helper()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	if filename != "" {
		fw, err := mw.CreateFormFile("file", filename)
		if err != nil {
			t.Fatalf("create form file: %v", err)
		}
		_, _ = fw.Write(data)
	}
	_ = mw.Close()

	req := httptest.NewRequest(http.MethodPost, path, &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

// planWorkbook 表头第 4 行，F4=Артикул，P4 起为日期序列号
func planWorkbook(t *testing.T) []byte {
	t.Helper()

	f := excelize.NewFile()
	t.Cleanup(func() { _ = f.Close() })
	sheet := f.GetSheetName(0)
	_ = f.SetCellValue(sheet, "F4", "Артикул")
	_ = f.SetSheetRow(sheet, "P4", &[]any{45932, 45933})
	_ = f.SetCellStr(sheet, "F5", "abc")
	_ = f.SetSheetRow(sheet, "P5", &[]any{12, 0})
	_ = f.SetCellStr(sheet, "F6", "def")
	_ = f.SetSheetRow(sheet, "P6", &[]any{"", 3})

	buf, err := f.WriteToBuffer()
	if err != nil {
		t.Fatalf("write workbook: %v", err)
	}
	return buf.Bytes()
}

func TestHealth(t *testing.T) {
	r, _ := newTestRouter(t)

	w := doJSON(t, r, http.MethodGet, "/api/health", nil)
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"status":"healthy"`) {
		t.Fatalf("unexpected response: %d %s", w.Code, w.Body.String())
	}
	if !strings.Contains(w.Body.String(), `"storage":"memory"`) {
		t.Fatalf("health should report storage: %s", w.Body.String())
	}
}

func TestHealth_StorageDown(t *testing.T) {
	mem := store.NewMemoryStore()
	r := newRouterWithStorage(t, mem, downStorage{mem})

	w := doJSON(t, r, http.MethodGet, "/api/health", nil)
	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("want 503, got %d %s", w.Code, w.Body.String())
	}
	if !strings.Contains(w.Body.String(), "connection refused") {
		t.Fatalf("missing ping error: %s", w.Body.String())
	}

	w = doJSON(t, r, http.MethodGet, "/api/status", nil)
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"storage":"postgres"`) {
		t.Fatalf("status should report driver: %d %s", w.Code, w.Body.String())
	}
}

func TestBulkThenSchedule(t *testing.T) {
	r, _ := newTestRouter(t)

	w := doJSON(t, r, http.MethodPost, "/api/schedule/bulk", map[string]any{
		"entries": []map[string]any{
			{"date": "2025-10-01", "article": " abc ", "qty": 5},
			{"date": "2025-10-02", "article": "ABC", "qty": 0},
			{"date": "2025-10-01", "article": "abc", "qty": 6},
		},
	})
	if w.Code != http.StatusOK {
		t.Fatalf("bulk: %d %s", w.Code, w.Body.String())
	}
	var bulk struct {
		Status   string `json:"status"`
		Upserted int    `json:"upserted"`
	}
	_ = json.Unmarshal(w.Body.Bytes(), &bulk)
	if bulk.Status != "ok" || bulk.Upserted != 2 {
		t.Fatalf("unexpected bulk response: %s", w.Body.String())
	}

	w = doJSON(t, r, http.MethodGet, "/api/schedule?startDate=2025-10-01&days=3", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("schedule: %d %s", w.Code, w.Body.String())
	}
	var m model.ScheduleMatrix
	if err := json.Unmarshal(w.Body.Bytes(), &m); err != nil {
		t.Fatalf("decode matrix: %v", err)
	}
	if m.Days != 3 || len(m.Dates) != 3 || m.Dates[2].Key() != "2025-10-03" {
		t.Fatalf("unexpected date axis: %+v", m)
	}
	if len(m.Rows) != 1 || m.Rows[0].Article != "ABC" {
		t.Fatalf("unexpected rows: %+v", m.Rows)
	}
	v := m.Rows[0].Values
	if v[0] == nil || *v[0] != 6 || v[1] == nil || *v[1] != 0 || v[2] != nil {
		t.Fatalf("unexpected values: %s", w.Body.String())
	}
	if !strings.Contains(w.Body.String(), `"values":[6,0,null]`) {
		t.Fatalf("absent cells must encode as null: %s", w.Body.String())
	}

	w = doJSON(t, r, http.MethodGet, "/api/schedule/raw?startDate=2025-10-01&days=3", nil)
	var raw []model.PlanRecord
	if err := json.Unmarshal(w.Body.Bytes(), &raw); err != nil || len(raw) != 2 {
		t.Fatalf("unexpected raw: %d %s", w.Code, w.Body.String())
	}
}

func TestMalformedInputIs400(t *testing.T) {
	r, _ := newTestRouter(t)

	cases := []struct {
		method, path string
		body         any
	}{
		{http.MethodGet, "/api/schedule?days=0", nil},
		{http.MethodGet, "/api/schedule?startDate=tomorrow", nil},
		{http.MethodGet, "/api/schedule/raw?days=1000", nil},
		{http.MethodPost, "/api/schedule/bulk", map[string]any{"entries": []map[string]any{{"date": "2025-10-01", "article": "", "qty": 1}}}},
		{http.MethodPost, "/api/schedule/bulk", map[string]any{"entries": []map[string]any{{"date": "2025-10-01", "article": "A", "qty": -1}}}},
		{http.MethodPost, "/api/schedule/bulk", map[string]any{"entries": []map[string]any{{"date": "10/01/2025", "article": "A", "qty": 1}}}},
		{http.MethodPost, "/api/schedule/rename-article", map[string]any{"oldArticle": "A"}},
		{http.MethodPost, "/api/schedule/articles", map[string]any{"article": " "}},
		{http.MethodGet, "/api/schedule/imports?limit=0", nil},
	}
	for _, tc := range cases {
		w := doJSON(t, r, tc.method, tc.path, tc.body)
		if w.Code != http.StatusBadRequest {
			t.Fatalf("%s %s: want 400, got %d %s", tc.method, tc.path, w.Code, w.Body.String())
		}
		if !strings.Contains(w.Body.String(), `"error"`) {
			t.Fatalf("%s %s: missing error body: %s", tc.method, tc.path, w.Body.String())
		}
	}
}

func TestRenameAndCreateArticle(t *testing.T) {
	r, _ := newTestRouter(t)

	w := doJSON(t, r, http.MethodPost, "/api/schedule/articles", map[string]any{
		"article": "old",
		"entries": []map[string]any{{"date": "2025-10-01", "qty": 4}, {"date": "2025-10-02", "qty": 1}},
	})
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"upserted":2`) {
		t.Fatalf("create article: %d %s", w.Code, w.Body.String())
	}

	w = doJSON(t, r, http.MethodPost, "/api/schedule/rename-article", map[string]any{"oldArticle": "OLD", "newArticle": "new"})
	if w.Code != http.StatusOK {
		t.Fatalf("rename: %d %s", w.Code, w.Body.String())
	}
	if !strings.Contains(w.Body.String(), `"status":"renamed"`) || !strings.Contains(w.Body.String(), `"updated":2`) {
		t.Fatalf("unexpected rename response: %s", w.Body.String())
	}
}

func TestUploadExcel(t *testing.T) {
	r, mem := newTestRouter(t)

	w := doUpload(t, r, "/api/schedule/upload-excel", "plan.xlsx", planWorkbook(t))
	if w.Code != http.StatusOK {
		t.Fatalf("upload: %d %s", w.Code, w.Body.String())
	}
	if !strings.Contains(w.Body.String(), `"imported":2`) {
		t.Fatalf("unexpected upload response: %s", w.Body.String())
	}
	if mem.Count() != 2 {
		t.Fatalf("want 2 records, got %d", mem.Count())
	}

	w = doJSON(t, r, http.MethodGet, "/api/schedule/imports", nil)
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"status":"imported"`) {
		t.Fatalf("imports: %d %s", w.Code, w.Body.String())
	}

	w = doJSON(t, r, http.MethodGet, "/api/status", nil)
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"lastImportFile":"plan.xlsx"`) {
		t.Fatalf("status: %d %s", w.Code, w.Body.String())
	}
}

func TestUploadExcel_Rejected(t *testing.T) {
	r, mem := newTestRouter(t)

	w := doUpload(t, r, "/api/schedule/upload-excel", "", nil)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("missing file: want 400, got %d %s", w.Code, w.Body.String())
	}

	w = doUpload(t, r, "/api/schedule/upload-excel", "plan.csv", []byte("article;qty\nA;1\n"))
	if w.Code != http.StatusBadRequest {
		t.Fatalf("csv: want 400, got %d %s", w.Code, w.Body.String())
	}
	if mem.Count() != 0 {
		t.Fatalf("rejected upload wrote %d records", mem.Count())
	}
}

func TestUploadExcelStream(t *testing.T) {
	r, _ := newTestRouter(t)

	w := doUpload(t, r, "/api/schedule/upload-excel/stream", "plan.xlsx", planWorkbook(t))
	if w.Code != http.StatusOK {
		t.Fatalf("stream: %d %s", w.Code, w.Body.String())
	}
	if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/event-stream") {
		t.Fatalf("unexpected content type: %s", ct)
	}

	var types []string
	for _, line := range strings.Split(w.Body.String(), "\n") {
		if !strings.HasPrefix(line, "data: ") {
			continue
		}
		var evt importer.ProgressEvent
		if err := json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &evt); err != nil {
			t.Fatalf("decode event: %v", err)
		}
		types = append(types, evt.Type)
	}
	if len(types) < 2 || types[0] != importer.EventStart || types[len(types)-1] != importer.EventDone {
		t.Fatalf("unexpected events: %v", types)
	}
}

func TestExport(t *testing.T) {
	r, _ := newTestRouter(t)

	w := doJSON(t, r, http.MethodPost, "/api/schedule/bulk", map[string]any{
		"entries": []map[string]any{{"date": "2025-10-02", "article": "00123", "qty": 8}},
	})
	if w.Code != http.StatusOK {
		t.Fatalf("bulk: %d %s", w.Code, w.Body.String())
	}

	w = doJSON(t, r, http.MethodGet, "/api/schedule/export?startDate=2025-10-01&days=5", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("export: %d %s", w.Code, w.Body.String())
	}
	if cd := w.Header().Get("Content-Disposition"); !strings.Contains(cd, "plan_2025-10-01_2025-10-05.xlsx") {
		t.Fatalf("unexpected disposition: %s", cd)
	}

	grid, err := parser.ReadGrid(w.Body.Bytes())
	if err != nil {
		t.Fatalf("ReadGrid: %v", err)
	}
	ex, err := parser.Extract(grid, parser.DefaultLayout())
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if len(ex.Records) != 1 || ex.Records[0].Article != "00123" || ex.Records[0].Qty != 8 {
		t.Fatalf("unexpected exported records: %+v", ex.Records)
	}
}
