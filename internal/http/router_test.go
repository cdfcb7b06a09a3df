package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/tbourn/go-intro-broker/internal/config"
	"github.com/tbourn/go-intro-broker/internal/domain"
	"github.com/tbourn/go-intro-broker/internal/http/middleware"
	"github.com/tbourn/go-intro-broker/internal/outbound"
	"github.com/tbourn/go-intro-broker/internal/repo"
	"github.com/tbourn/go-intro-broker/internal/templates"
)

// --- test DB helper (pure-Go sqlite, no CGO) ---
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := repo.OpenSQLite(filepath.Join(t.TempDir(), "router.db"))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := repo.AutoMigrate(db); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	return db
}

func testConfig(base string) config.Config {
	return config.Config{
		APIBasePath: base,
		RateRPS:     100,
		RateBurst:   10,
		CORS:        config.CORSConfig{AllowedOrigins: nil},
		Security:    config.SecurityConfig{EnableHSTS: false, HSTSMaxAge: 0},
		OTEL:        config.OTELConfig{ServiceName: "test-svc"},
		Dispatch: config.DispatchConfig{
			Concurrency: 2,
			Lease:       time.Minute,
			SMSLimit:    160,
		},
		PublicBaseURL:  "https://intro.test",
		IntroNotify:    true,
		IdempotencyTTL: time.Hour,
	}
}

func newTestRouter(t *testing.T, cfg config.Config) (*gin.Engine, *gorm.DB) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	db := newTestDB(t)
	reg := templates.FromTemplates(templates.Defaults()...)
	svc := NewServices(db, reg, outbound.NewLogSender(zerolog.Nop()), cfg)
	RegisterRoutes(r, db, svc, cfg)
	return r, db
}

func TestRegisterRoutes_CORSAllowAll_Health_Metrics_Fallbacks(t *testing.T) {
	r, _ := newTestRouter(t, testConfig("/api/v1"))

	// /health works
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("GET /health = %d", w.Code)
	}
	// CORS (AllowAllOrigins) → header "*"
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Fatalf("AllowAllOrigins expected '*', got %q", got)
	}

	// /metrics is wired
	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/metrics", nil)
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK || len(w.Body.Bytes()) == 0 {
		t.Fatalf("GET /metrics bad: code=%d len=%d", w.Code, w.Body.Len())
	}

	// NoRoute → 404
	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/nope", nil)
	r.ServeHTTP(w, req)
	if w.Code != http.StatusNotFound {
		t.Fatalf("GET /nope expected 404, got %d", w.Code)
	}

	// NoMethod → 405 (POST /health)
	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/health", nil)
	r.ServeHTTP(w, req)
	if w.Code != http.StatusMethodNotAllowed {
		t.Fatalf("POST /health expected 405, got %d", w.Code)
	}

	// swagger is off by default
	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/swagger/doc.json", nil)
	r.ServeHTTP(w, req)
	if w.Code != http.StatusNotFound {
		t.Fatalf("swagger should be disabled, got %d", w.Code)
	}
}

func TestRegisterRoutes_CORSWithOrigins_HeaderEcho(t *testing.T) {
	cfg := testConfig("/api/v2")
	cfg.CORS = config.CORSConfig{AllowedOrigins: []string{"http://example.com"}}
	r, _ := newTestRouter(t, cfg)

	// Any request runs through CORS middleware; header should reflect origin.
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Origin", "http://example.com")
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("GET /health = %d", w.Code)
	}
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "http://example.com" {
		t.Fatalf("expected ACAO echo, got %q", got)
	}

	// preflight for an idempotent create must allow the broker headers
	assertPreflight(t, r, "/api/v2/introductions", "http://example.com")
}

func TestRegisterRoutes_PreflightAllowAll(t *testing.T) {
	cfg := testConfig("/api/v1")
	cfg.RateRPS, cfg.RateBurst = 0, 1
	r, _ := newTestRouter(t, cfg)

	// preflights are not rate limited
	for i := 0; i < 3; i++ {
		assertPreflight(t, r, "/api/v1/batches/b1/dispatch", "https://app.example.org")
	}
}

// assertPreflight sends a cross-origin preflight for a POST carrying the
// caller and idempotency headers. The browser's page is served from a
// different host than the API, which is what makes it cross-origin.
func assertPreflight(t *testing.T, r http.Handler, path, origin string) {
	t.Helper()
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodOptions, path, nil)
	req.Host = "api.internal.test"
	req.Header.Set("Origin", origin)
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	req.Header.Set("Access-Control-Request-Headers", "X-User-ID, Idempotency-Key")
	r.ServeHTTP(w, req)
	if w.Code != http.StatusNoContent {
		t.Fatalf("preflight %s = %d, want 204", path, w.Code)
	}
	if allow := strings.ToLower(w.Header().Get("Access-Control-Allow-Headers")); !strings.Contains(allow, "idempotency-key") || !strings.Contains(allow, "x-user-id") {
		t.Fatalf("preflight allow headers = %q", allow)
	}
	if w.Header().Get("Access-Control-Allow-Origin") == "" {
		t.Fatalf("preflight without Access-Control-Allow-Origin")
	}
}

func TestRegisterRoutes_SwaggerEnabled(t *testing.T) {
	cfg := testConfig("/api/v1")
	cfg.SwaggerEnabled = true
	r, _ := newTestRouter(t, cfg)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/swagger/doc.json", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("GET /swagger/doc.json = %d", w.Code)
	}
	var doc map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &doc); err != nil {
		t.Fatalf("doc.json is not JSON: %v", err)
	}
	paths, _ := doc["paths"].(map[string]any)
	if _, ok := paths["/introductions"]; !ok {
		t.Fatalf("doc.json lacks /introductions: %v", doc["paths"])
	}
}

func TestRegisterRoutes_APIUnderBasePath(t *testing.T) {
	r, _ := newTestRouter(t, testConfig("/api/v1"))

	body := `{"person_a":{"email":"a@example.com","name":"Ann"},"person_b":{"email":"b@example.com","name":"Bo"}}`
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/introductions", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(middleware.HeaderUserID, "u1")
	r.ServeHTTP(w, req)
	if w.Code != http.StatusCreated {
		t.Fatalf("POST introductions = %d %s", w.Code, w.Body.String())
	}
	if w.Header().Get("X-Request-ID") == "" {
		t.Fatalf("expected X-Request-ID header to be set")
	}

	// not mounted at the root
	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/templates", nil))
	if w.Code != http.StatusNotFound {
		t.Fatalf("GET /templates at root = %d", w.Code)
	}

	// compressed when the client asks
	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/api/v1/templates", nil)
	req.Header.Set("Accept-Encoding", "gzip")
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK || w.Header().Get("Content-Encoding") != "gzip" {
		t.Fatalf("templates: code=%d encoding=%q", w.Code, w.Header().Get("Content-Encoding"))
	}

	// metrics are never compressed
	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/metrics", nil)
	req.Header.Set("Accept-Encoding", "gzip")
	r.ServeHTTP(w, req)
	if w.Header().Get("Content-Encoding") == "gzip" {
		t.Fatalf("/metrics should not be gzipped")
	}
}

func Test_limitBody_Middleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	// tiny cap to trigger MaxBytesReader
	r.Use(limitBody(10))
	r.POST("/echo", func(c *gin.Context) {
		_, err := io.ReadAll(c.Request.Body)
		if err != nil {
			c.String(http.StatusRequestEntityTooLarge, "too big")
			return
		}
		c.String(http.StatusOK, "ok")
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/echo", bytes.NewBufferString("0123456789AB")) // 12 bytes
	r.ServeHTTP(w, req)
	if w.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("expected 413 from limitBody, got %d", w.Code)
	}
}

func Test_groupWithPrefix(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()

	// "/" and "" should mount at root
	root1 := groupWithPrefix(r, "/")
	root1.GET("/one", func(c *gin.Context) { c.String(http.StatusOK, "one") })
	root2 := groupWithPrefix(r, "")
	root2.GET("/two", func(c *gin.Context) { c.String(http.StatusOK, "two") })

	// non-root prefix
	api := groupWithPrefix(r, "/api")
	api.GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, "pong") })

	for path, want := range map[string]string{"/one": "one", "/two": "two", "/api/ping": "pong"} {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		if rec.Code != http.StatusOK || rec.Body.String() != want {
			t.Fatalf("GET %s got %d %q", path, rec.Code, rec.Body.String())
		}
	}
}

// A stored idempotency record excuses the retry from rate limiting.
func TestRegisterRoutes_IdempotentReplayBypassesRateLimit(t *testing.T) {
	cfg := testConfig("/api/v1")
	cfg.RateRPS = 0
	cfg.RateBurst = 1
	r, db := newTestRouter(t, cfg)

	post := func(key string) *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/v1/batches", nil)
		req.Header.Set(middleware.HeaderUserID, "u1")
		if key != "" {
			req.Header.Set(middleware.HeaderIdempotencyKey, key)
		}
		r.ServeHTTP(w, req)
		return w
	}

	// first call spends the only token and stores the result
	w := post("mint-1")
	if w.Code != http.StatusCreated {
		t.Fatalf("first mint = %d", w.Code)
	}
	rec, err := repo.GetIdempotency(context.Background(), db, "u1", "POST /api/v1/batches", "mint-1", time.Now().UTC())
	if err != nil || rec == nil {
		t.Fatalf("idempotency record not stored: %v", err)
	}

	if w := post(""); w.Code != http.StatusTooManyRequests {
		t.Fatalf("fresh call should be limited, got %d", w.Code)
	}

	w = post("mint-1")
	if w.Code != http.StatusCreated || w.Header().Get("Idempotency-Replayed") != "true" {
		t.Fatalf("replay = %d replayed=%q", w.Code, w.Header().Get("Idempotency-Replayed"))
	}
	var got struct {
		BatchID string `json:"batch_id"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil || got.BatchID != rec.ResourceID {
		t.Fatalf("replayed batch %q want %q (%v)", got.BatchID, rec.ResourceID, err)
	}
}

func TestRegisterRoutes_IdempotencyLookupError(t *testing.T) {
	r, db := newTestRouter(t, testConfig("/api/v1"))

	// seed a record, then force queries to fail by closing the connection
	seed := &domain.Idempotency{
		ID:         "idem-seed-1",
		UserID:     "u1",
		Scope:      "POST /api/v1/batches",
		Key:        "k-err",
		ResourceID: "b-1",
		Status:     http.StatusCreated,
		ExpiresAt:  time.Now().UTC().Add(time.Hour),
	}
	if err := db.Create(seed).Error; err != nil {
		t.Fatalf("seed idempotency: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("db.DB(): %v", err)
	}
	_ = sqlDB.Close()

	// a failed lookup is treated as a miss, never as a replay
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/health", bytes.NewBufferString("{}"))
	req.Header.Set(middleware.HeaderUserID, "u1")
	req.Header.Set(middleware.HeaderIdempotencyKey, "k-err")
	r.ServeHTTP(w, req)
	if w.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", w.Code)
	}

	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/api/v1/batches", nil)
	req.Header.Set(middleware.HeaderUserID, "u1")
	req.Header.Set(middleware.HeaderIdempotencyKey, "bad key!")
	r.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("malformed key expected 400, got %d", w.Code)
	}
}
