package server

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	schoolAuth "github.com/MrEthical07/schoolAuth"
	"github.com/MrEthical07/schoolAuth/middleware"
	"github.com/MrEthical07/schoolAuth/password"
	"github.com/MrEthical07/schoolAuth/store/memory"
)

type testServer struct {
	handler http.Handler
	engine  *schoolAuth.Engine
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	cfg := schoolAuth.DefaultConfig()
	cfg.JWT.Secret = []byte("server-test-secret-0123456789abcd")
	cfg.Password.Memory = 8 * 1024
	cfg.Password.Time = 1
	cfg.Password.Parallelism = 1
	cfg.Audit.Enabled = false

	hasher, err := password.NewHasher(password.Config{Memory: 8 * 1024, Time: 1, Parallelism: 1, SaltLength: 16, KeyLength: 32})
	if err != nil {
		t.Fatalf("NewHasher: %v", err)
	}
	store := memory.New()
	err = store.Load(hasher, memory.Seed{
		Schools: []memory.SeedSchool{
			{Code: "GREEN01", Name: "Green Valley"},
			{Code: "BLUE02", Name: "Blue Ridge"},
		},
		Accounts: []memory.SeedAccount{
			{Identifier: "root@example.org", Password: "root-password", Role: "SUPER_ADMIN"},
			{Identifier: "teacher@green.example", Password: "teacher-password", Role: "TEACHER", School: "GREEN01"},
			{Identifier: "student@green.example", Password: "student-password", Role: "STUDENT", School: "GREEN01"},
			{Identifier: "new@green.example", TemporaryPassword: "temp-password", Role: "PARENT", School: "GREEN01", Status: "INVITED"},
		},
	})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	engine, err := schoolAuth.New().
		WithConfig(cfg).
		WithLogger(logger).
		WithAccountProvider(store).
		WithTenantProvider(store).
		Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	t.Cleanup(engine.Close)

	metrics := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, "# metrics\n")
	})
	srv := New(Options{Engine: engine, Logger: logger, Metrics: metrics, MetricsPath: "/metrics"})
	return &testServer{handler: srv.Router(), engine: engine}
}

func (ts *testServer) do(t *testing.T, method, path, token string, body any, headers ...string) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != nil {
		switch b := body.(type) {
		case string:
			r = strings.NewReader(b)
		default:
			raw, err := json.Marshal(b)
			if err != nil {
				t.Fatalf("marshal: %v", err)
			}
			r = bytes.NewReader(raw)
		}
	}
	req := httptest.NewRequest(method, path, r)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rec := httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, req)
	return rec
}

func (ts *testServer) login(t *testing.T, identifier, pw string) loginResponse {
	t.Helper()
	rec := ts.do(t, http.MethodPost, "/auth/login", "", loginRequest{Identifier: identifier, Password: pw})
	if rec.Code != http.StatusOK {
		t.Fatalf("login %s: status %d body %s", identifier, rec.Code, rec.Body.String())
	}
	var out loginResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode login: %v", err)
	}
	return out
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) middleware.ErrorBody {
	t.Helper()
	var body middleware.ErrorBody
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode error body %q: %v", rec.Body.String(), err)
	}
	return body
}

func TestHealthAndMetrics(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodGet, "/health", "", nil)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"ok"`) {
		t.Fatalf("health: %d %s", rec.Code, rec.Body.String())
	}
	if rec.Header().Get(middleware.RequestIDHeader) == "" {
		t.Fatal("expected request id on every response")
	}

	rec = ts.do(t, http.MethodGet, "/metrics", "", nil)
	if rec.Code != http.StatusOK || rec.Body.String() != "# metrics\n" {
		t.Fatalf("metrics: %d %q", rec.Code, rec.Body.String())
	}

	rec = ts.do(t, http.MethodGet, "/nope", "", nil)
	if rec.Code != http.StatusNotFound || errorCode(t, rec).Error != "not_found" {
		t.Fatalf("unknown route: %d %s", rec.Code, rec.Body.String())
	}
}

func TestLoginAndMe(t *testing.T) {
	ts := newTestServer(t)

	out := ts.login(t, "Teacher@Green.Example", "teacher-password")
	if out.Token == "" || out.RequiresPasswordReset {
		t.Fatalf("unexpected login response %+v", out)
	}
	if out.Account.Role != "TEACHER" || out.Account.SchoolCode != "GREEN01" {
		t.Fatalf("unexpected account summary %+v", out.Account)
	}

	rec := ts.do(t, http.MethodGet, "/auth/me", out.Token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("me: %d %s", rec.Code, rec.Body.String())
	}
	var me meResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &me); err != nil {
		t.Fatal(err)
	}
	if me.Account.Identifier != "teacher@green.example" || me.SessionExpiresAt.IsZero() {
		t.Fatalf("unexpected me %+v", me)
	}

	rec = ts.do(t, http.MethodGet, "/auth/me", "", nil)
	if rec.Code != http.StatusUnauthorized || errorCode(t, rec).Error != "missing_bearer_token" {
		t.Fatalf("me without token: %d %s", rec.Code, rec.Body.String())
	}
}

func TestLoginEmailAlias(t *testing.T) {
	ts := newTestServer(t)
	rec := ts.do(t, http.MethodPost, "/auth/login", "", map[string]string{"email": "student@green.example", "password": "student-password"})
	if rec.Code != http.StatusOK {
		t.Fatalf("login by email field: %d %s", rec.Code, rec.Body.String())
	}
}

func TestLoginRejects(t *testing.T) {
	ts := newTestServer(t)

	tests := []struct {
		name   string
		body   any
		status int
		code   string
	}{
		{"wrong password", loginRequest{Identifier: "teacher@green.example", Password: "nope"}, http.StatusUnauthorized, "invalid_credentials"},
		{"unknown account", loginRequest{Identifier: "ghost@example.org", Password: "whatever"}, http.StatusUnauthorized, "invalid_credentials"},
		{"malformed json", `{"identifier":`, http.StatusBadRequest, "invalid_request"},
		{"unknown field", `{"identifier":"a","password":"b","extra":1}`, http.StatusBadRequest, "invalid_request"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := ts.do(t, http.MethodPost, "/auth/login", "", tt.body)
			if rec.Code != tt.status {
				t.Fatalf("expected %d, got %d %s", tt.status, rec.Code, rec.Body.String())
			}
			if got := errorCode(t, rec).Error; got != tt.code {
				t.Fatalf("expected code %q, got %q", tt.code, got)
			}
		})
	}
}

func TestLoginRateLimited(t *testing.T) {
	ts := newTestServer(t)

	for i := 0; i < 10; i++ {
		rec := ts.do(t, http.MethodPost, "/auth/login", "", loginRequest{Identifier: "teacher@green.example", Password: "wrong"})
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("attempt %d: expected 401, got %d", i+1, rec.Code)
		}
	}

	rec := ts.do(t, http.MethodPost, "/auth/login", "", loginRequest{Identifier: "teacher@green.example", Password: "teacher-password"})
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429 once the address is blocked, got %d", rec.Code)
	}
	body := errorCode(t, rec)
	if body.Error != "login_rate_limited" || body.RetryAfterMinutes != 10 {
		t.Fatalf("unexpected body %+v", body)
	}
	if rec.Header().Get("Retry-After") != "600" {
		t.Fatalf("unexpected Retry-After %q", rec.Header().Get("Retry-After"))
	}
}

func TestTemporaryPasswordFlow(t *testing.T) {
	ts := newTestServer(t)

	out := ts.login(t, "new@green.example", "temp-password")
	if !out.RequiresPasswordReset {
		t.Fatal("expected reset requirement after temporary password login")
	}

	rec := ts.do(t, http.MethodPost, "/auth/change-password", out.Token, changePasswordRequest{
		CurrentPassword: "temp-password",
		NewPassword:     "short",
	})
	if rec.Code != http.StatusBadRequest || errorCode(t, rec).Error != "password_policy" {
		t.Fatalf("expected policy rejection, got %d %s", rec.Code, rec.Body.String())
	}

	rec = ts.do(t, http.MethodPost, "/auth/change-password", out.Token, changePasswordRequest{
		CurrentPassword: "temp-password",
		NewPassword:     "a-much-better-password",
	})
	if rec.Code != http.StatusNoContent {
		t.Fatalf("change password: %d %s", rec.Code, rec.Body.String())
	}

	again := ts.login(t, "new@green.example", "a-much-better-password")
	if again.RequiresPasswordReset || again.Account.Status != "ACTIVE" {
		t.Fatalf("expected active account without reset, got %+v", again)
	}

	rec = ts.do(t, http.MethodPost, "/auth/login", "", loginRequest{Identifier: "new@green.example", Password: "temp-password"})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("temporary password must stop working, got %d", rec.Code)
	}
}

func TestSchoolContext(t *testing.T) {
	ts := newTestServer(t)
	teacher := ts.login(t, "teacher@green.example", "teacher-password").Token
	root := ts.login(t, "root@example.org", "root-password").Token

	t.Run("teacher gets own school", func(t *testing.T) {
		rec := ts.do(t, http.MethodGet, "/school/context", teacher, nil, "X-School-Code", "BLUE02")
		if rec.Code != http.StatusOK {
			t.Fatalf("status %d %s", rec.Code, rec.Body.String())
		}
		var out schoolContextResponse
		if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
			t.Fatal(err)
		}
		if out.School.Code != "GREEN01" || out.Role != "TEACHER" {
			t.Fatalf("selector must not override assigned school, got %+v", out)
		}
	})

	t.Run("super admin needs selector", func(t *testing.T) {
		rec := ts.do(t, http.MethodGet, "/school/context", root, nil)
		if rec.Code != http.StatusBadRequest || errorCode(t, rec).Error != "school_code_required" {
			t.Fatalf("status %d %s", rec.Code, rec.Body.String())
		}
	})

	t.Run("super admin with query selector", func(t *testing.T) {
		rec := ts.do(t, http.MethodGet, "/school/context?schoolCode=blue02", root, nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("status %d %s", rec.Code, rec.Body.String())
		}
		var out schoolContextResponse
		if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
			t.Fatal(err)
		}
		if out.School.Code != "BLUE02" || out.School.Name != "Blue Ridge" {
			t.Fatalf("unexpected school %+v", out.School)
		}
	})

	t.Run("super admin unknown school", func(t *testing.T) {
		rec := ts.do(t, http.MethodGet, "/school/context", root, nil, "X-School-Code", "NOPE99")
		if rec.Code != http.StatusNotFound || errorCode(t, rec).Error != "school_not_found" {
			t.Fatalf("status %d %s", rec.Code, rec.Body.String())
		}
	})
}

func TestStaffArea(t *testing.T) {
	ts := newTestServer(t)
	teacher := ts.login(t, "teacher@green.example", "teacher-password").Token
	student := ts.login(t, "student@green.example", "student-password").Token
	root := ts.login(t, "root@example.org", "root-password").Token

	rec := ts.do(t, http.MethodGet, "/school/staff-area", teacher, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("teacher: %d %s", rec.Code, rec.Body.String())
	}
	var out staffAreaResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatal(err)
	}
	if out.School.Code != "GREEN01" || !strings.Contains(out.Message, "Green Valley") {
		t.Fatalf("unexpected staff area response %+v", out)
	}

	rec = ts.do(t, http.MethodGet, "/school/staff-area", student, nil)
	if rec.Code != http.StatusForbidden || errorCode(t, rec).Error != "forbidden" {
		t.Fatalf("student: %d %s", rec.Code, rec.Body.String())
	}

	rec = ts.do(t, http.MethodGet, "/school/staff-area", root, nil, "X-School-Code", "GREEN01")
	if rec.Code != http.StatusForbidden {
		t.Fatalf("super admin is not staff: %d %s", rec.Code, rec.Body.String())
	}
}
