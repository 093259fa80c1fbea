package router

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/plantcare/internal/db"
	"github.com/plantcare/internal/handler"
	"github.com/plantcare/internal/logging"
	"github.com/plantcare/internal/metrics"
	"github.com/plantcare/internal/service"
	"github.com/plantcare/internal/supabase"
	"github.com/plantcare/internal/supabase/supabasetest"
	"gorm.io/gorm/logger"
)

func newTestAPI(t *testing.T, backend string, plants service.PlantRepository, users service.UserRepository, m *metrics.Metrics) *handler.API {
	t.Helper()
	tokens, err := service.NewTokens(service.TokenOptions{Secret: "router-secret", AllowDevTokens: true})
	if err != nil {
		t.Fatalf("NewTokens returned error: %v", err)
	}
	log := logging.Discard()
	return handler.NewAPI(handler.Options{
		Backend: backend,
		Plants:  service.NewPlantService(plants, log),
		Auth:    service.NewAuthService(users, tokens),
		Metrics: m,
		Logger:  log,
	})
}

func setupTestRouter(t *testing.T, withSupabase, testRoutes bool) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	gdb, err := db.Open(db.Options{
		Path:     fmt.Sprintf("file:router-%d?mode=memory&cache=shared", time.Now().UnixNano()),
		LogLevel: logger.Silent,
	})
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	t.Cleanup(func() { db.Close(gdb) })

	m := metrics.New()
	opts := Options{
		Logger:           logging.Discard(),
		Metrics:          m,
		SessionSecret:    "test-secret",
		CORSOrigins:      []string{"http://localhost:5173"},
		Postgres:         newTestAPI(t, handler.BackendPostgres, db.NewPlantStore(gdb), db.NewUserStore(gdb), m),
		EnableTestRoutes: testRoutes,
	}

	if withSupabase {
		srv := supabasetest.New("anon")
		t.Cleanup(srv.Close)
		client, err := supabase.New(supabase.Config{ProjectURL: srv.URL, APIKey: "anon"})
		if err != nil {
			t.Fatalf("supabase.New returned error: %v", err)
		}
		opts.Supabase = newTestAPI(t, handler.BackendSupabase, supabase.NewPlantStore(client), supabase.NewUserStore(client), m)
	}

	return SetupRouter(opts)
}

func TestPingAndMetrics(t *testing.T) {
	r := setupTestRouter(t, false, false)

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/ping", nil))
	if rr.Code != http.StatusOK || !strings.Contains(rr.Body.String(), "pong") {
		t.Fatalf("unexpected ping response %d %q", rr.Code, rr.Body.String())
	}

	rr = httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected metrics to be served, got %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), `plantcare_http_requests_total{method="GET",path="/ping",status="200"} 1`) {
		t.Fatalf("expected ping to be counted, got %s", rr.Body.String())
	}
}

func TestSupabaseRoutesWithoutBackend(t *testing.T) {
	r := setupTestRouter(t, false, true)

	for _, path := range []string{"/sb/plants", "/sb/auth/me"} {
		rr := httptest.NewRecorder()
		r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, path, nil))
		if rr.Code != http.StatusServiceUnavailable {
			t.Fatalf("%s: expected 503, got %d", path, rr.Code)
		}
	}

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/test/sb/plants", nil))
	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected test routes to be absent, got %d", rr.Code)
	}
}

func TestBothBackendsRequireAuth(t *testing.T) {
	r := setupTestRouter(t, true, false)

	for _, path := range []string{"/pg/plants", "/sb/plants", "/pg/dashboard", "/sb/dashboard", "/pg/auth/me"} {
		rr := httptest.NewRecorder()
		r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, path, nil))
		if rr.Code != http.StatusUnauthorized {
			t.Fatalf("%s: expected 401, got %d", path, rr.Code)
		}
	}
}

func TestTestRoutesToggle(t *testing.T) {
	off := setupTestRouter(t, true, false)
	rr := httptest.NewRecorder()
	off.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/test/sb/plants?user_id=x", nil))
	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404 when disabled, got %d", rr.Code)
	}

	on := setupTestRouter(t, true, true)
	rr = httptest.NewRecorder()
	on.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/test/sb/plants?user_id=x", nil))
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad user_id when enabled, got %d", rr.Code)
	}
}

func TestCORSPreflight(t *testing.T) {
	r := setupTestRouter(t, false, false)

	req := httptest.NewRequest(http.MethodOptions, "/pg/plants", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	if got := rr.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:5173" {
		t.Fatalf("expected allowed origin, got %q (status %d)", got, rr.Code)
	}

	req = httptest.NewRequest(http.MethodOptions, "/pg/plants", nil)
	req.Header.Set("Origin", "http://evil.example")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rr = httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	if rr.Header().Get("Access-Control-Allow-Origin") != "" {
		t.Fatal("expected unknown origin to be rejected")
	}
}
