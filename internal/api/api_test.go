package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/go-cmp/cmp"
	"go.uber.org/zap"

	"userperf/internal/aggregate"
	"userperf/internal/config"
	"userperf/internal/discovery"
	"userperf/internal/ingest"
	"userperf/internal/model"
	"userperf/internal/service/dashboard"
	"userperf/internal/service/project"
	"userperf/internal/store"
)

type fakeFetcher struct {
	metadata map[string]string
	csv      map[string]string
}

func (f *fakeFetcher) FetchMetadata(_ context.Context, id string) (string, error) {
	html, ok := f.metadata[id]
	if !ok {
		return "", errors.New("status 404")
	}
	return html, nil
}

func (f *fakeFetcher) FetchCSV(_ context.Context, id, sheet string) (string, error) {
	text, ok := f.csv[id+"/"+sheet]
	if !ok {
		return "", errors.New("status 404")
	}
	return text, nil
}

type testEnv struct {
	router *gin.Engine
	h      *Handler
	token  string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)
	logger := zap.NewNop()

	f := &fakeFetcher{
		metadata: map[string]string{
			"prod-doc": `{"name":"Production 1"},{"name":"Notes"}`,
			"hour-doc": `{"name":"15th OCT Login"}`,
		},
		csv: map[string]string{
			"prod-doc/Production 1":   "Annotator Name,Frame ID,Number of Object Annotated,Internal QC Name,Internal Polygon Error Count\nAlice,F1,5,qa,1\nAlice,F1,3,nil,4\n",
			"hour-doc/15th OCT Login": "S.No,Name,Emp Code,Hours,Shift,Login\n1,Asha,E1,8,Day,09:00\n",
		},
	}

	st := store.NewMemoryStore()
	pm, err := project.NewManager(context.Background(), st, logger)
	if err != nil {
		t.Fatalf("manager: %v", err)
	}
	svc := dashboard.New(pm,
		discovery.NewDiscoverer(f, logger),
		ingest.NewMerger(f, pm, 4, logger),
		aggregate.NewEngine(nil, ""),
		st, logger)

	cfg := config.DefaultConfig()
	cfg.Auth.Users = map[string]string{"lead": "secret"}
	cfg.Birthdays = []config.Birthday{
		{Name: "Ramu M", Date: "10-15", Role: "Senior Crewmate"},
		{Name: "Other", Date: "03-06"},
	}

	h := NewHandler(svc, cfg, logger)
	h.now = func() time.Time { return time.Date(2025, 10, 15, 9, 0, 0, 0, time.UTC) }

	r := gin.New()
	h.RegisterRoutes(r.Group("/api"))
	return &testEnv{router: r, h: h}
}

func (e *testEnv) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if e.token != "" {
		req.Header.Set("Authorization", "Bearer "+e.token)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func (e *testEnv) login(t *testing.T) {
	t.Helper()
	w := e.do(t, http.MethodPost, "/api/login", map[string]string{"username": "lead", "password": "secret"})
	if w.Code != http.StatusOK {
		t.Fatalf("login status=%d body=%s", w.Code, w.Body.String())
	}
	var resp struct {
		Data loginResponse `json:"data"`
	}
	decode(t, w, &resp)
	if resp.Data.Token == "" {
		t.Fatalf("empty token")
	}
	e.token = resp.Data.Token
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.Unmarshal(w.Body.Bytes(), v); err != nil {
		t.Fatalf("unmarshal: %v body=%s", err, w.Body.String())
	}
}

func (e *testEnv) createProject(t *testing.T, name, spreadsheet string, category model.Category) model.Project {
	t.Helper()
	w := e.do(t, http.MethodPost, "/api/projects", project.CreateInput{Name: name, Spreadsheet: spreadsheet, Category: category})
	if w.Code != http.StatusOK {
		t.Fatalf("create status=%d body=%s", w.Code, w.Body.String())
	}
	var resp struct {
		Data model.Project `json:"data"`
	}
	decode(t, w, &resp)
	return resp.Data
}

func TestAuth_RequiresLogin(t *testing.T) {
	env := newTestEnv(t)

	if w := env.do(t, http.MethodGet, "/api/status", nil); w.Code != http.StatusOK {
		t.Fatalf("status should be public, got=%d", w.Code)
	}
	if w := env.do(t, http.MethodGet, "/api/projects", nil); w.Code != http.StatusUnauthorized {
		t.Fatalf("projects without token got=%d want=401", w.Code)
	}
	w := env.do(t, http.MethodPost, "/api/login", map[string]string{"username": "lead", "password": "wrong"})
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("bad password got=%d want=401", w.Code)
	}
	w = env.do(t, http.MethodPost, "/api/login", map[string]string{"username": " lead ", "password": " secret "})
	if w.Code != http.StatusOK {
		t.Fatalf("padded credentials got=%d body=%s", w.Code, w.Body.String())
	}

	env.login(t)
	if w := env.do(t, http.MethodGet, "/api/projects", nil); w.Code != http.StatusOK {
		t.Fatalf("projects with token got=%d body=%s", w.Code, w.Body.String())
	}

	if w := env.do(t, http.MethodPost, "/api/logout", nil); w.Code != http.StatusOK {
		t.Fatalf("logout got=%d", w.Code)
	}
	if w := env.do(t, http.MethodGet, "/api/projects", nil); w.Code != http.StatusUnauthorized {
		t.Fatalf("token should be revoked, got=%d", w.Code)
	}
}

func TestSessionStore_Expires(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 10, 15, 0, 0, 0, 0, time.UTC)
	s := newSessionStore(time.Hour)
	s.now = func() time.Time { return now }

	token := s.put("lead")
	if u, ok := s.get(token); !ok || u != "lead" {
		t.Fatalf("get got=%s,%v", u, ok)
	}
	now = now.Add(2 * time.Hour)
	if _, ok := s.get(token); ok {
		t.Fatalf("expired session should be rejected")
	}
}

func TestDashboardFlow(t *testing.T) {
	env := newTestEnv(t)
	env.login(t)

	prod := env.createProject(t, "Prod", "https://docs.google.com/spreadsheets/d/prod-doc/edit#gid=0", model.CategoryProduction)
	hour := env.createProject(t, "Hours", "hour-doc", model.CategoryHourly)
	if prod.SpreadsheetID != "prod-doc" {
		t.Fatalf("spreadsheet id got=%s want=prod-doc", prod.SpreadsheetID)
	}

	w := env.do(t, http.MethodPut, "/api/selection/projects", selectProjectsRequest{
		Production: []string{prod.ID},
		Hourly:     []string{hour.ID},
	})
	if w.Code != http.StatusOK {
		t.Fatalf("select projects status=%d body=%s", w.Code, w.Body.String())
	}
	var sel struct {
		Data SelectionResponse `json:"data"`
	}
	decode(t, w, &sel)
	var ids []string
	for _, o := range sel.Data.Sheets {
		ids = append(ids, o.ID)
	}
	wantIDs := []string{prod.ID + "|Production 1", hour.ID + "|15th OCT Login"}
	if diff := cmp.Diff(wantIDs, ids); diff != "" {
		t.Fatalf("sheets mismatch (-want +got):\n%s", diff)
	}

	w = env.do(t, http.MethodPut, "/api/selection/sheets", selectSheetsRequest{Sheets: wantIDs})
	if w.Code != http.StatusOK {
		t.Fatalf("select sheets status=%d body=%s", w.Code, w.Body.String())
	}

	w = env.do(t, http.MethodGet, "/api/metrics", nil)
	var metrics struct {
		Data MetricsResponse `json:"data"`
	}
	decode(t, w, &metrics)
	if metrics.Data.TotalObjects != 8 || metrics.Data.QualityRateLabel != "80.00%" {
		t.Fatalf("metrics got=%+v", metrics.Data)
	}
	if len(metrics.Data.Cards) != 5 {
		t.Fatalf("cards got=%d want=5", len(metrics.Data.Cards))
	}

	w = env.do(t, http.MethodGet, "/api/rows?view=attendance", nil)
	var table struct {
		Data TableResponse `json:"data"`
	}
	decode(t, w, &table)
	if len(table.Data.Rows) != 1 || table.Data.Rows[0]["15th OCT Login"] != aggregate.StatusPresent {
		t.Fatalf("attendance rows got=%v", table.Data.Rows)
	}
	if got := table.Data.Totals.Columns["15th OCT Login"].Attendance.Present; got != 1 {
		t.Fatalf("attendance total got=%d want=1", got)
	}

	w = env.do(t, http.MethodGet, "/api/rows?q=nobody", nil)
	decode(t, w, &table)
	if len(table.Data.Rows) != 0 {
		t.Fatalf("search should filter all rows, got=%v", table.Data.Rows)
	}

	w = env.do(t, http.MethodGet, "/api/export/annotator?format=csv", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("export status=%d body=%s", w.Code, w.Body.String())
	}
	body := w.Body.String()
	if !strings.HasPrefix(body, `"NAME","FRAMECOUNT","OBJECTCOUNT"`+"\n") || !strings.Contains(body, `"GRAND TOTALS"`) {
		t.Fatalf("unexpected csv:\n%s", body)
	}
	if cd := w.Header().Get("Content-Disposition"); !strings.Contains(cd, "annotator_summary_2025-10-15.csv") {
		t.Fatalf("content-disposition got=%s", cd)
	}

	w = env.do(t, http.MethodGet, "/api/export/qc-user?format=xlsx", nil)
	if w.Code != http.StatusOK || w.Header().Get("Content-Type") != contentTypeXLSX {
		t.Fatalf("xlsx export status=%d type=%s", w.Code, w.Header().Get("Content-Type"))
	}
}

func TestErrorMapping(t *testing.T) {
	env := newTestEnv(t)
	env.login(t)

	prod := env.createProject(t, "Prod", "prod-doc", model.CategoryProduction)

	hourly := model.CategoryHourly
	if w := env.do(t, http.MethodPatch, "/api/projects/"+prod.ID, project.UpdateInput{Category: &hourly}); w.Code != http.StatusBadRequest {
		t.Fatalf("category change got=%d want=400", w.Code)
	}
	if w := env.do(t, http.MethodDelete, "/api/projects/missing", nil); w.Code != http.StatusNotFound {
		t.Fatalf("delete missing got=%d want=404", w.Code)
	}
	if w := env.do(t, http.MethodPost, "/api/projects", project.CreateInput{Name: "x", Category: model.CategoryProduction}); w.Code != http.StatusBadRequest {
		t.Fatalf("missing spreadsheet got=%d want=400", w.Code)
	}
	w := env.do(t, http.MethodPut, "/api/selection/projects", selectProjectsRequest{Hourly: []string{prod.ID}})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("category mismatch got=%d want=400", w.Code)
	}
	if w := env.do(t, http.MethodPut, "/api/selection/sheets", selectSheetsRequest{Sheets: []string{"nope"}}); w.Code != http.StatusBadRequest {
		t.Fatalf("unknown sheet got=%d want=400", w.Code)
	}
	if w := env.do(t, http.MethodGet, "/api/export/bogus", nil); w.Code != http.StatusBadRequest {
		t.Fatalf("unknown view got=%d want=400", w.Code)
	}
	if w := env.do(t, http.MethodGet, "/api/export/raw?format=pdf", nil); w.Code != http.StatusBadRequest {
		t.Fatalf("bad format got=%d want=400", w.Code)
	}

	var resp Response
	decode(t, env.do(t, http.MethodDelete, "/api/projects/missing", nil), &resp)
	if resp.Code != http.StatusNotFound || !strings.Contains(resp.Message, "project not found") {
		t.Fatalf("envelope got=%+v", resp)
	}
}

func TestTodayBirthdays(t *testing.T) {
	env := newTestEnv(t)
	env.login(t)

	w := env.do(t, http.MethodGet, "/api/birthdays/today", nil)
	var resp struct {
		Data []config.Birthday `json:"data"`
	}
	decode(t, w, &resp)
	want := []config.Birthday{{Name: "Ramu M", Date: "10-15", Role: "Senior Crewmate"}}
	if diff := cmp.Diff(want, resp.Data); diff != "" {
		t.Fatalf("birthdays mismatch (-want +got):\n%s", diff)
	}
}

func TestAuthDisabledWithoutUsers(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cfg := config.DefaultConfig()
	cfg.Auth.Users = nil

	st := store.NewMemoryStore()
	pm, err := project.NewManager(context.Background(), st, nil)
	if err != nil {
		t.Fatalf("manager: %v", err)
	}
	f := &fakeFetcher{}
	svc := dashboard.New(pm, discovery.NewDiscoverer(f, nil), ingest.NewMerger(f, pm, 1, nil), aggregate.NewEngine(nil, ""), st, nil)

	r := gin.New()
	NewHandler(svc, cfg, nil).RegisterRoutes(r.Group("/api"))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/projects", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("open access got=%d want=200", w.Code)
	}
}
