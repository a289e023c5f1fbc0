package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/nerrad567/gray-logic-voice/internal/audit"
	"github.com/nerrad567/gray-logic-voice/internal/infrastructure/config"
	"github.com/nerrad567/gray-logic-voice/internal/infrastructure/database"
	"github.com/nerrad567/gray-logic-voice/internal/infrastructure/logging"
	"github.com/nerrad567/gray-logic-voice/internal/item"
	"github.com/nerrad567/gray-logic-voice/internal/schedule"
	"github.com/nerrad567/gray-logic-voice/internal/synonym"
	"github.com/nerrad567/gray-logic-voice/migrations"
)

type stubGateway struct {
	mu     sync.Mutex
	states map[string]string
	fail   map[string]bool
	posted []string
}

func (g *stubGateway) FetchState(_ context.Context, name string) (string, error) {
	state, ok := g.states[name]
	if !ok {
		return "", fmt.Errorf("no state for %s", name)
	}
	return state, nil
}

func (g *stubGateway) PostCommand(_ context.Context, name, command string) error {
	if g.fail[name] {
		return errors.New("connection refused")
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	g.posted = append(g.posted, name+"="+command)
	return nil
}

type noopDispatcher struct{}

func (noopDispatcher) Dispatch(context.Context, string, []string) error { return nil }

type fakeChecker struct{ err error }

func (c fakeChecker) HealthCheck(context.Context) error { return c.err }

func semantics(value string, kv ...string) map[string]item.RawMetadata {
	cfg := make(map[string]any, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		cfg[kv[i]] = kv[i+1]
	}
	return map[string]item.RawMetadata{"semantics": {Value: value, Config: cfg}}
}

func testRecords() []item.RawItem {
	return []item.RawItem{
		{Name: "Esszimmer", Label: "Esszimmer", Type: item.TypeGroup, Metadata: semantics("Location_Indoor_Room_DiningRoom")},
		{Name: "Wohnzimmer", Label: "Wohnzimmer", Type: item.TypeGroup, Metadata: semantics("Location_Indoor_Room_LivingRoom")},
		{Name: "Licht_Esszimmer", Label: "Licht Esszimmer", Type: item.TypeGroup,
			Metadata: semantics("Equipment_Lightbulb", "hasLocation", "Esszimmer")},
		{Name: "Lampe_Esszimmer", Label: "Lampe Esszimmer", Type: item.TypeSwitch,
			Metadata: semantics(item.PointControlSwitch, "relatesTo", item.PropertyLight, "isPointOf", "Licht_Esszimmer")},
		{Name: "Decke_Wohnzimmer", Label: "Deckenlicht", Type: item.TypeDimmer,
			Metadata: semantics(item.PointControl, "relatesTo", item.PropertyLight, "hasLocation", "Wohnzimmer")},
		{Name: "Temperature_Livingroom", Label: "Temperatur", Type: item.TypeNumber,
			Metadata: semantics(item.PointMeasurement, "relatesTo", item.PropertyTemperature, "hasLocation", "Wohnzimmer")},
	}
}

type testEnv struct {
	srv       *Server
	router    http.Handler
	gateway   *stubGateway
	scheduler *schedule.Scheduler
	reloads   int
}

func newTestEnv(t *testing.T, health map[string]HealthChecker) *testEnv {
	t.Helper()

	db, err := database.Open(config.DatabaseConfig{Path: database.MemoryPath})
	if err != nil {
		t.Fatalf("database.Open() error = %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if _, err := db.Migrate(context.Background(), migrations.FS); err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}
	auditRepo := audit.NewSQLiteRepository(db.DB)

	gw := &stubGateway{
		states: map[string]string{"Temperature_Livingroom": "21.5", "Decke_Wohnzimmer": "NULL"},
		fail:   map[string]bool{},
	}
	index := synonym.New(map[string]string{
		"Equipment_Lightbulb":             "Licht,Lampe",
		"Property_Light":                  "Licht",
		"Location_Indoor_Room_DiningRoom": "Esszimmer",
		"Location_Indoor_Room_LivingRoom": "Wohnzimmer,Stube",
	})
	store, err := item.NewStore(testRecords(), item.Options{
		Index:     index,
		Gateway:   gw,
		Recorders: []item.Recorder{audit.NewRecorder(auditRepo)},
	})
	if err != nil {
		t.Fatalf("NewStore() error = %v", err)
	}

	sched := schedule.New(schedule.NewSQLiteRepository(db.DB), noopDispatcher{}, nil)
	t.Cleanup(sched.Stop)

	env := &testEnv{gateway: gw, scheduler: sched}
	log := logging.NewWithWriter(config.LoggingConfig{Level: "error", Format: "text"}, "test", io.Discard)
	srv, err := New(Deps{
		Config: config.APIConfig{Host: "127.0.0.1"},
		Logger: log,
		Store:  func() *item.Store { return store },
		Reload: func(context.Context) error {
			env.reloads++
			return nil
		},
		Scheduler: sched,
		Audit:     auditRepo,
		Health:    health,
		Version:   "test",
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	env.srv = srv
	env.router = srv.buildRouter()
	return env
}

func (e *testEnv) do(t *testing.T, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, r)
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(w.Body.Bytes(), &v); err != nil {
		t.Fatalf("unmarshal %q: %v", w.Body.String(), err)
	}
	return v
}

type itemList struct {
	Items []item.Item `json:"items"`
	Count int         `json:"count"`
}

func names(items []item.Item) []string {
	out := make([]string, 0, len(items))
	for _, it := range items {
		out = append(out, it.Name)
	}
	return out
}

func equalStrings(got, want []string) bool {
	if len(got) != len(want) {
		return false
	}
	for i := range got {
		if got[i] != want[i] {
			return false
		}
	}
	return true
}

// ─── Construction ──────────────────────────────────────────────────

func TestNew_RequiresDeps(t *testing.T) {
	log := logging.NewWithWriter(config.LoggingConfig{}, "test", io.Discard)
	if _, err := New(Deps{Store: func() *item.Store { return nil }}); err == nil {
		t.Error("New() without logger succeeded")
	}
	if _, err := New(Deps{Logger: log}); err == nil {
		t.Error("New() without store accessor succeeded")
	}
}

// ─── Health and middleware ─────────────────────────────────────────

func TestHealth(t *testing.T) {
	env := newTestEnv(t, map[string]HealthChecker{"openhab": fakeChecker{}})
	w := env.do(t, http.MethodGet, "/api/v1/health", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d; body: %s", w.Code, w.Body.String())
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q", ct)
	}

	resp := decode[map[string]any](t, w)
	if resp["status"] != "ok" || resp["version"] != "test" {
		t.Errorf("resp = %v", resp)
	}
	if int(resp["items"].(float64)) != len(testRecords()) {
		t.Errorf("items = %v", resp["items"])
	}
	if resp["containment"] != "semantic" {
		t.Errorf("containment = %v", resp["containment"])
	}
}

func TestHealth_Degraded(t *testing.T) {
	env := newTestEnv(t, map[string]HealthChecker{
		"openhab": fakeChecker{},
		"mqtt":    fakeChecker{err: errors.New("mqtt: not connected")},
	})
	w := env.do(t, http.MethodGet, "/api/v1/health", "")
	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", w.Code)
	}
	resp := decode[struct {
		Status     string            `json:"status"`
		Components map[string]string `json:"components"`
	}](t, w)
	if resp.Status != "degraded" || resp.Components["mqtt"] != "mqtt: not connected" || resp.Components["openhab"] != "ok" {
		t.Errorf("resp = %+v", resp)
	}
}

func TestRequestID(t *testing.T) {
	env := newTestEnv(t, nil)

	w := env.do(t, http.MethodGet, "/api/v1/health", "")
	if w.Header().Get("X-Request-ID") == "" {
		t.Error("expected X-Request-ID header to be set")
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/health", nil)
	req.Header.Set("X-Request-ID", "client-123")
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)
	if got := rec.Header().Get("X-Request-ID"); got != "client-123" {
		t.Errorf("X-Request-ID = %q, want client-123", got)
	}
}

func TestNotFound(t *testing.T) {
	env := newTestEnv(t, nil)
	if w := env.do(t, http.MethodGet, "/api/v1/nonexistent", ""); w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
}

func TestStoreNotLoaded(t *testing.T) {
	log := logging.NewWithWriter(config.LoggingConfig{}, "test", io.Discard)
	srv, err := New(Deps{Logger: log, Store: func() *item.Store { return nil }})
	if err != nil {
		t.Fatal(err)
	}
	router := srv.buildRouter()

	for _, target := range []string{"/api/v1/items", "/api/v1/resolve?q=licht", "/api/v1/vocabulary", "/api/v1/health"} {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, target, nil))
		if w.Code != http.StatusServiceUnavailable {
			t.Errorf("GET %s status = %d, want 503", target, w.Code)
		}
	}
}

func TestMetrics(t *testing.T) {
	env := newTestEnv(t, nil)
	env.do(t, http.MethodGet, "/api/v1/items", "")

	w := env.do(t, http.MethodGet, "/metrics", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	body := w.Body.String()
	for _, want := range []string{
		`graylogic_voice_http_requests_total{method="GET",route="/api/v1/items`,
		"graylogic_voice_items 6",
		"graylogic_voice_http_request_duration_seconds",
	} {
		if !strings.Contains(body, want) {
			t.Errorf("metrics missing %q", want)
		}
	}
}

// ─── Items ─────────────────────────────────────────────────────────

func TestListItems(t *testing.T) {
	env := newTestEnv(t, nil)

	tests := []struct {
		target string
		want   []string
	}{
		{"/api/v1/items", []string{"Esszimmer", "Wohnzimmer", "Licht_Esszimmer", "Lampe_Esszimmer", "Decke_Wohnzimmer", "Temperature_Livingroom"}},
		{"/api/v1/items?relates_to=Property_Light", []string{"Lampe_Esszimmer", "Decke_Wohnzimmer"}},
		{"/api/v1/items?relates_to=Property_Light&room=Stube", []string{"Decke_Wohnzimmer"}},
		{"/api/v1/items?point_of=Licht_Esszimmer", []string{"Lampe_Esszimmer"}},
		{"/api/v1/items?semantics=Point_Measurement&type=Number", []string{"Temperature_Livingroom"}},
		{"/api/v1/items?type=Player", []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.target, func(t *testing.T) {
			w := env.do(t, http.MethodGet, tt.target, "")
			if w.Code != http.StatusOK {
				t.Fatalf("status = %d; body: %s", w.Code, w.Body.String())
			}
			resp := decode[itemList](t, w)
			if got := names(resp.Items); !equalStrings(got, tt.want) || resp.Count != len(tt.want) {
				t.Errorf("items = %v (count %d), want %v", got, resp.Count, tt.want)
			}
		})
	}

	if w := env.do(t, http.MethodGet, "/api/v1/items?room=Keller", ""); w.Code != http.StatusNotFound {
		t.Errorf("unknown room status = %d, want 404", w.Code)
	}
}

func TestGetItem(t *testing.T) {
	env := newTestEnv(t, nil)

	w := env.do(t, http.MethodGet, "/api/v1/items/Licht_Esszimmer", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	it := decode[item.Item](t, w)
	if it.Label != "licht esszimmer" || !equalStrings(it.HasPoints, []string{"Lampe_Esszimmer"}) {
		t.Errorf("item = %+v", it)
	}

	if w := env.do(t, http.MethodGet, "/api/v1/items/Nope", ""); w.Code != http.StatusNotFound {
		t.Errorf("unknown item status = %d, want 404", w.Code)
	}
}

func TestGetState(t *testing.T) {
	env := newTestEnv(t, nil)

	tests := []struct {
		name      string
		state     string
		available bool
	}{
		{"Temperature_Livingroom", "21.5", true},
		{"Decke_Wohnzimmer", "", false},
		{"Lampe_Esszimmer", "", false},
	}
	for _, tt := range tests {
		w := env.do(t, http.MethodGet, "/api/v1/items/"+tt.name+"/state", "")
		if w.Code != http.StatusOK {
			t.Fatalf("%s: status = %d", tt.name, w.Code)
		}
		resp := decode[struct {
			State     string `json:"state"`
			Available bool   `json:"available"`
		}](t, w)
		if resp.State != tt.state || resp.Available != tt.available {
			t.Errorf("%s: state = %+v", tt.name, resp)
		}
	}
}

func TestCommand(t *testing.T) {
	env := newTestEnv(t, nil)

	w := env.do(t, http.MethodPost, "/api/v1/items/Lampe_Esszimmer/command", `{"command": "ON"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d; body: %s", w.Code, w.Body.String())
	}
	resp := decode[dispatchResponse](t, w)
	if !equalStrings(resp.Delivered, []string{"Lampe_Esszimmer"}) || len(resp.Failed) != 0 {
		t.Errorf("resp = %+v", resp)
	}

	w = env.do(t, http.MethodPost, "/api/v1/items/Licht_Esszimmer/command?expand=switch", `{"command": "OFF"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("expand status = %d; body: %s", w.Code, w.Body.String())
	}
	want := []string{"Lampe_Esszimmer=ON", "Lampe_Esszimmer=OFF"}
	if !equalStrings(env.gateway.posted, want) {
		t.Errorf("posted = %v, want %v", env.gateway.posted, want)
	}

	log := decode[audit.ListResult](t, env.do(t, http.MethodGet, "/api/v1/commands?source=api", ""))
	if log.Total != 2 {
		t.Fatalf("command log total = %d, want 2", log.Total)
	}
	for _, e := range log.Entries {
		if e.Item != "Lampe_Esszimmer" || e.Outcome != audit.OutcomeDelivered {
			t.Errorf("entry = %+v", e)
		}
	}
}

func TestCommand_Errors(t *testing.T) {
	env := newTestEnv(t, nil)
	env.gateway.fail["Decke_Wohnzimmer"] = true

	tests := []struct {
		name   string
		target string
		body   string
		want   int
	}{
		{"unknown item", "/api/v1/items/Nope/command", `{"command": "ON"}`, http.StatusNotFound},
		{"empty body", "/api/v1/items/Lampe_Esszimmer/command", "", http.StatusBadRequest},
		{"blank command", "/api/v1/items/Lampe_Esszimmer/command", `{"command": " "}`, http.StatusBadRequest},
		{"unknown field", "/api/v1/items/Lampe_Esszimmer/command", `{"cmd": "ON"}`, http.StatusBadRequest},
		{"nothing to switch", "/api/v1/items/Temperature_Livingroom/command?expand=switch", `{"command": "ON"}`, http.StatusBadRequest},
		{"delivery failed", "/api/v1/items/Decke_Wohnzimmer/command", `{"command": "50"}`, http.StatusBadGateway},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if w := env.do(t, http.MethodPost, tt.target, tt.body); w.Code != tt.want {
				t.Errorf("status = %d, want %d; body: %s", w.Code, tt.want, w.Body.String())
			}
		})
	}

	log := decode[audit.ListResult](t, env.do(t, http.MethodGet, "/api/v1/commands?outcome=failed", ""))
	if log.Total != 1 || log.Entries[0].Error != "connection refused" {
		t.Errorf("failed entries = %+v", log)
	}
}

func TestReload(t *testing.T) {
	env := newTestEnv(t, nil)
	w := env.do(t, http.MethodPost, "/api/v1/items/reload", "")
	if w.Code != http.StatusOK || env.reloads != 1 {
		t.Errorf("status = %d, reloads = %d", w.Code, env.reloads)
	}
}

// ─── Resolution ────────────────────────────────────────────────────

func TestResolve(t *testing.T) {
	env := newTestEnv(t, nil)

	tests := []struct {
		target string
		want   []string
	}{
		{"/api/v1/resolve?q=Licht", []string{"Licht_Esszimmer", "Lampe_Esszimmer", "Decke_Wohnzimmer"}},
		{"/api/v1/resolve?q=licht&room=esszimmer", []string{"Licht_Esszimmer", "Lampe_Esszimmer"}},
		{"/api/v1/resolve?q=licht&type=Dimmer", []string{"Decke_Wohnzimmer"}},
		{"/api/v1/resolve?q=deckenlicht&q=temperatur", []string{"Decke_Wohnzimmer", "Temperature_Livingroom"}},
		{"/api/v1/resolve?q=staubsauger", []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.target, func(t *testing.T) {
			w := env.do(t, http.MethodGet, tt.target, "")
			if w.Code != http.StatusOK {
				t.Fatalf("status = %d; body: %s", w.Code, w.Body.String())
			}
			if got := names(decode[itemList](t, w).Items); !equalStrings(got, tt.want) {
				t.Errorf("items = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestResolve_BadRequests(t *testing.T) {
	env := newTestEnv(t, nil)
	tests := []struct {
		target string
		want   int
	}{
		{"/api/v1/resolve", http.StatusBadRequest},
		{"/api/v1/resolve?q=licht&mode=some", http.StatusBadRequest},
		{"/api/v1/resolve?q=licht&room=keller", http.StatusNotFound},
		{"/api/v1/resolve?q=licht&mode=all", http.StatusOK},
	}
	for _, tt := range tests {
		if w := env.do(t, http.MethodGet, tt.target, ""); w.Code != tt.want {
			t.Errorf("GET %s status = %d, want %d", tt.target, w.Code, tt.want)
		}
	}
}

func TestLocate(t *testing.T) {
	env := newTestEnv(t, nil)

	w := env.do(t, http.MethodGet, "/api/v1/locate?q=Stube", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if loc := decode[item.Item](t, w); loc.Name != "Wohnzimmer" || !loc.Location {
		t.Errorf("location = %+v", loc)
	}

	if w := env.do(t, http.MethodGet, "/api/v1/locate?q=Keller", ""); w.Code != http.StatusNotFound {
		t.Errorf("unknown room status = %d", w.Code)
	}
	if w := env.do(t, http.MethodGet, "/api/v1/locate", ""); w.Code != http.StatusBadRequest {
		t.Errorf("missing q status = %d", w.Code)
	}
}

func TestVocabulary(t *testing.T) {
	env := newTestEnv(t, nil)
	vocab := decode[item.Vocabulary](t, env.do(t, http.MethodGet, "/api/v1/vocabulary", ""))

	contains := func(list []string, s string) bool {
		for _, v := range list {
			if v == s {
				return true
			}
		}
		return false
	}
	if !contains(vocab.Devices, "deckenlicht") || !contains(vocab.Devices, "lampe") {
		t.Errorf("devices = %v", vocab.Devices)
	}
	if !contains(vocab.Locations, "stube") || contains(vocab.Devices, "stube") {
		t.Errorf("locations = %v", vocab.Locations)
	}
}

// ─── Jobs ──────────────────────────────────────────────────────────

func TestJobs(t *testing.T) {
	env := newTestEnv(t, nil)

	body := `{"command": "OFF", "items": ["Lampe_Esszimmer"], "delay": "1h", "site_id": "default"}`
	w := env.do(t, http.MethodPost, "/api/v1/jobs", body)
	if w.Code != http.StatusCreated {
		t.Fatalf("schedule status = %d; body: %s", w.Code, w.Body.String())
	}
	job := decode[schedule.Job](t, w)
	if job.ID != schedule.JobID("OFF", []string{"Lampe_Esszimmer"}) {
		t.Errorf("job ID = %s", job.ID)
	}

	// Same command and items replace the pending job.
	if w := env.do(t, http.MethodPost, "/api/v1/jobs", body); w.Code != http.StatusCreated {
		t.Fatalf("reschedule status = %d", w.Code)
	}
	list := decode[struct {
		Jobs  []schedule.Job `json:"jobs"`
		Count int            `json:"count"`
	}](t, env.do(t, http.MethodGet, "/api/v1/jobs", ""))
	if list.Count != 1 || list.Jobs[0].ID != job.ID || list.Jobs[0].SiteID != "default" {
		t.Errorf("jobs = %+v", list)
	}

	if w := env.do(t, http.MethodDelete, "/api/v1/jobs/"+job.ID, ""); w.Code != http.StatusNoContent {
		t.Errorf("cancel status = %d", w.Code)
	}
	if w := env.do(t, http.MethodDelete, "/api/v1/jobs/"+job.ID, ""); w.Code != http.StatusNotFound {
		t.Errorf("second cancel status = %d, want 404", w.Code)
	}
}

func TestScheduleJob_BadRequests(t *testing.T) {
	env := newTestEnv(t, nil)
	tests := []struct {
		name string
		body string
	}{
		{"bad delay", `{"command": "ON", "items": ["Lampe_Esszimmer"], "delay": "soon"}`},
		{"unknown item", `{"command": "ON", "items": ["Nope"], "delay": "1m"}`},
		{"no command", `{"command": "", "items": ["Lampe_Esszimmer"], "delay": "1m"}`},
		{"no items", `{"command": "ON", "items": [], "delay": "1m"}`},
		{"negative delay", `{"command": "ON", "items": ["Lampe_Esszimmer"], "delay": "-1m"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if w := env.do(t, http.MethodPost, "/api/v1/jobs", tt.body); w.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400; body: %s", w.Code, w.Body.String())
			}
		})
	}
}

func TestCommands_BadPaging(t *testing.T) {
	env := newTestEnv(t, nil)
	for _, q := range []string{"limit=x", "offset=-1"} {
		if w := env.do(t, http.MethodGet, "/api/v1/commands?"+q, ""); w.Code != http.StatusBadRequest {
			t.Errorf("%s status = %d, want 400", q, w.Code)
		}
	}
}
