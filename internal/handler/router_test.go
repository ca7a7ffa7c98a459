package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/hitoshi/timeclock/internal/clock"
	"github.com/hitoshi/timeclock/internal/employee"
	"github.com/hitoshi/timeclock/internal/metrics"
	"github.com/hitoshi/timeclock/internal/middleware"
	"github.com/hitoshi/timeclock/internal/rcauth"
	"github.com/hitoshi/timeclock/internal/repository"
	"github.com/hitoshi/timeclock/internal/security"
	"github.com/hitoshi/timeclock/internal/timeclock"
	"github.com/hitoshi/timeclock/internal/view"
)

const testSecret = "provision-secret"

// testServer はインメモリストアと実サービスで構成したルーター。
type testServer struct {
	handler http.Handler
	store   *repository.MemoryStore
	clock   *clock.Fake
	reg     *prometheus.Registry
}

func newTestServer(t *testing.T, rl *middleware.RateLimiter) *testServer {
	t.Helper()

	renderer, err := view.NewRenderer()
	if err != nil {
		t.Fatalf("NewRenderer() error = %v", err)
	}

	store := repository.NewMemoryStore()
	clk := clock.NewFake(time.Date(2026, 10, 14, 9, 0, 0, 0, time.UTC))
	reg := prometheus.NewRegistry()
	mc := metrics.NewCollector(reg)
	policy := rcauth.DefaultPolicy()

	deps := &RouterDeps{
		RateLimiter:      rl,
		HealthChecker:    &mockHealthChecker{},
		MetricsGatherer:  reg,
		MetricsCollector: mc,
		Renderer:         renderer,
		EmployeeService:  employee.NewService(store.Employees(), security.NewNameSanitizer(), clk, testSecret),
		AuthService:      rcauth.NewService(store.Employees(), store.AuthRequests(), clk, policy, mc),
		AuthConfig:       AuthHandlerConfig{PollInterval: policy.PollInterval},
		TimeClockService: timeclock.NewController(store, clk, time.UTC, policy, mc),
		Location:         time.UTC,
	}

	return &testServer{handler: NewRouter(deps), store: store, clock: clk, reg: reg}
}

func (s *testServer) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	w := httptest.NewRecorder()
	s.handler.ServeHTTP(w, httptest.NewRequest(method, path, r))
	return w
}

func (s *testServer) toggle(t *testing.T, uid string) string {
	t.Helper()
	w := s.do(t, http.MethodPost, "/add/"+uid, "")
	if w.Code != http.StatusAccepted {
		t.Fatalf("POST /add/%s status = %d, want %d; body=%s", uid, w.Code, http.StatusAccepted, w.Body.String())
	}
	var resp toggleResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode toggle response: %v", err)
	}
	return resp.Outcome
}

func TestRouter_FullWorkdayFlow(t *testing.T) {
	s := newTestServer(t, nil)
	ctx := context.Background()

	// 従業員登録
	w := s.do(t, http.MethodPost, "/new-employee/"+testSecret, `{"user_id":"card-1","username":"Alice"}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("POST /new-employee status = %d, want %d; body=%s", w.Code, http.StatusCreated, w.Body.String())
	}

	w = s.do(t, http.MethodGet, "/", "")
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "Alice") {
		t.Fatalf("GET / status = %d, body=%s", w.Code, w.Body.String())
	}

	// リモート承認
	w = s.do(t, http.MethodGet, "/auth/request/card-1", "")
	if w.Code != http.StatusOK {
		t.Fatalf("GET /auth/request status = %d; body=%s", w.Code, w.Body.String())
	}
	pending, err := s.store.AuthRequests().FindCanonicalPending(ctx, "card-1")
	if err != nil || pending == nil {
		t.Fatalf("expected pending auth request, got %v, %v", pending, err)
	}
	if !strings.Contains(w.Body.String(), "/validate/auth/"+pending.ID+"/0") {
		t.Errorf("expected polling URL with counter 0, got:\n%s", w.Body.String())
	}

	w = s.do(t, http.MethodGet, "/validate/auth/"+pending.ID+"/0", "")
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "/validate/auth/"+pending.ID+"/1") {
		t.Fatalf("poll 0: status = %d, body=%s", w.Code, w.Body.String())
	}

	if got := s.toggle(t, "card-1"); got != string(timeclock.OutcomeAuthConfirmed) {
		t.Fatalf("first toggle = %q, want %q", got, timeclock.OutcomeAuthConfirmed)
	}

	w = s.do(t, http.MethodGet, "/validate/auth/"+pending.ID+"/1", "")
	if w.Code != http.StatusSeeOther {
		t.Fatalf("poll 1: status = %d, want %d", w.Code, http.StatusSeeOther)
	}
	if loc := w.Header().Get("Location"); loc != "/info/card-1" {
		t.Errorf("Location = %q, want %q", loc, "/info/card-1")
	}

	// 出勤 → 2時間後に退勤
	if got := s.toggle(t, "card-1"); got != string(timeclock.OutcomeClockedIn) {
		t.Fatalf("second toggle = %q, want %q", got, timeclock.OutcomeClockedIn)
	}
	s.clock.Advance(2 * time.Hour)
	if got := s.toggle(t, "card-1"); got != string(timeclock.OutcomeClockedOut) {
		t.Fatalf("third toggle = %q, want %q", got, timeclock.OutcomeClockedOut)
	}

	w = s.do(t, http.MethodGet, "/list/card-1", "")
	if w.Code != http.StatusOK {
		t.Fatalf("GET /list status = %d", w.Code)
	}
	var entries []entryResponse
	if err := json.NewDecoder(w.Body).Decode(&entries); err != nil {
		t.Fatalf("failed to decode entries: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("len(entries) = %d, want 1", len(entries))
	}
	if entries[0].CheckIn != "2026-10-14 09:00:00" || entries[0].CheckOut != "2026-10-14 11:00:00" {
		t.Errorf("entry = %#v", entries[0])
	}
	if entries[0].Total == nil || *entries[0].Total != "2 hours 0 minutes" {
		t.Errorf("total = %v, want 2 hours 0 minutes", entries[0].Total)
	}

	w = s.do(t, http.MethodGet, "/info/card-1", "")
	if w.Code != http.StatusOK {
		t.Fatalf("GET /info status = %d", w.Code)
	}
	body := w.Body.String()
	if !strings.Contains(body, "2026-10-14 09:00") || !strings.Contains(body, "2 hours 0 minutes") {
		t.Errorf("unexpected info page:\n%s", body)
	}

	w = s.do(t, http.MethodGet, "/list/employees", "")
	var employees []employeeResponse
	if err := json.NewDecoder(w.Body).Decode(&employees); err != nil {
		t.Fatalf("failed to decode employees: %v", err)
	}
	if len(employees) != 1 || employees[0].CheckedIn {
		t.Errorf("employees = %#v, want Alice checked out", employees)
	}
}

func TestRouter_UnknownEmployee(t *testing.T) {
	s := newTestServer(t, nil)

	for _, tc := range []struct {
		method string
		path   string
	}{
		{http.MethodPost, "/add/ghost"},
		{http.MethodGet, "/list/ghost"},
		{http.MethodGet, "/info/ghost"},
		{http.MethodGet, "/auth/request/ghost"},
		{http.MethodGet, "/validate/auth/missing/0"},
	} {
		w := s.do(t, tc.method, tc.path, "")
		if w.Code != http.StatusNotFound {
			t.Errorf("%s %s status = %d, want %d", tc.method, tc.path, w.Code, http.StatusNotFound)
		}
	}
}

func TestRouter_AuthExpiresAfterMaxTicks(t *testing.T) {
	s := newTestServer(t, nil)
	ctx := context.Background()

	s.do(t, http.MethodPost, "/new-employee/"+testSecret, `{"user_id":"card-1","username":"Alice"}`)
	s.do(t, http.MethodPost, "/auth/request/card-1", "")

	pending, err := s.store.AuthRequests().FindCanonicalPending(ctx, "card-1")
	if err != nil || pending == nil {
		t.Fatalf("expected pending auth request, got %v, %v", pending, err)
	}

	w := s.do(t, http.MethodGet, "/validate/auth/"+pending.ID+"/60", "")
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "Authentication failed.") {
		t.Fatalf("status = %d, body=%s", w.Code, w.Body.String())
	}

	// 期限切れのリクエストは承認に使われず、打刻は通常の出勤になる
	if got := s.toggle(t, "card-1"); got != string(timeclock.OutcomeClockedIn) {
		t.Errorf("toggle after expiry = %q, want %q", got, timeclock.OutcomeClockedIn)
	}
}

func TestRouter_NewEmployeeForbidden(t *testing.T) {
	s := newTestServer(t, nil)

	w := s.do(t, http.MethodPost, "/new-employee/wrong", `{"user_id":"card-1","username":"Alice"}`)
	if w.Code != http.StatusForbidden {
		t.Errorf("status = %d, want %d", w.Code, http.StatusForbidden)
	}

	w = s.do(t, http.MethodPost, "/new-employee/"+testSecret, `{"user_id":"card-1","username":"Alice"}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusCreated)
	}
	w = s.do(t, http.MethodPost, "/new-employee/"+testSecret, `{"user_id":"card-1","username":"Alice"}`)
	if w.Code != http.StatusConflict {
		t.Errorf("duplicate status = %d, want %d", w.Code, http.StatusConflict)
	}
}

func TestRouter_ToggleRateLimited(t *testing.T) {
	rl := middleware.NewRateLimiter(middleware.RateLimiterConfig{Rate: 1, Burst: 1, CleanupInterval: time.Minute})
	defer rl.Stop()
	s := newTestServer(t, rl)

	s.do(t, http.MethodPost, "/new-employee/"+testSecret, `{"user_id":"card-1","username":"Alice"}`)

	if w := s.do(t, http.MethodPost, "/add/card-1", ""); w.Code != http.StatusAccepted {
		t.Fatalf("first toggle status = %d, want %d", w.Code, http.StatusAccepted)
	}
	w := s.do(t, http.MethodPost, "/add/card-1", "")
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("second toggle status = %d, want %d", w.Code, http.StatusTooManyRequests)
	}
	if w.Header().Get("Retry-After") == "" {
		t.Error("expected Retry-After header")
	}

	// 読み取り系ルートには掛からない
	if w := s.do(t, http.MethodGet, "/list/card-1", ""); w.Code != http.StatusOK {
		t.Errorf("GET /list status = %d, want %d", w.Code, http.StatusOK)
	}
}

func TestRouter_HealthAndMetrics(t *testing.T) {
	s := newTestServer(t, nil)

	w := s.do(t, http.MethodGet, "/health", "")
	if w.Code != http.StatusOK {
		t.Errorf("GET /health status = %d, want %d", w.Code, http.StatusOK)
	}

	s.do(t, http.MethodPost, "/add/ghost", "")

	w = s.do(t, http.MethodGet, "/metrics", "")
	if w.Code != http.StatusOK {
		t.Fatalf("GET /metrics status = %d, want %d", w.Code, http.StatusOK)
	}
	body := w.Body.String()
	for _, want := range []string{"timeclock_toggles_total", "timeclock_http_status_total"} {
		if !strings.Contains(body, want) {
			t.Errorf("expected %s in metrics output", want)
		}
	}
}

func TestRouter_SecurityHeadersApplied(t *testing.T) {
	s := newTestServer(t, nil)

	w := s.do(t, http.MethodGet, "/", "")
	if got := w.Header().Get("X-Content-Type-Options"); got != "nosniff" {
		t.Errorf("X-Content-Type-Options = %q, want nosniff", got)
	}
}

func TestHealthHandler_Unavailable(t *testing.T) {
	h := NewHealthHandler(&mockHealthChecker{err: errors.New("connection refused")})

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want %d", w.Code, http.StatusServiceUnavailable)
	}
	var resp healthResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Status != "unavailable" {
		t.Errorf("status = %q, want unavailable", resp.Status)
	}
}
