package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/tbourn/go-intro-broker/internal/domain"
	"github.com/tbourn/go-intro-broker/internal/http/middleware"
	"github.com/tbourn/go-intro-broker/internal/outbound"
	"github.com/tbourn/go-intro-broker/internal/repo"
	"github.com/tbourn/go-intro-broker/internal/services"
	"github.com/tbourn/go-intro-broker/internal/templates"
)

// sentLog records outbound messages.
type sentLog struct {
	mu   sync.Mutex
	msgs []outbound.Message
}

func (s *sentLog) Send(_ context.Context, m outbound.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.msgs = append(s.msgs, m)
	return nil
}

func (s *sentLog) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.msgs)
}

type testEnv struct {
	db   *gorm.DB
	sent *sentLog
	r    *gin.Engine
}

// newTestEnv wires real services over a temp SQLite file and mounts every
// route at the root, behind the identity and idempotency middleware.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := repo.OpenSQLite(filepath.Join(t.TempDir(), "handlers.db"))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := repo.AutoMigrate(db); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	sqlDB, _ := db.DB()
	t.Cleanup(func() { _ = sqlDB.Close() })

	sent := &sentLog{}
	contacts := services.NewContactService(db)
	conns := services.NewConnectionService(db)
	renderer := services.NewRenderService(templates.FromTemplates(templates.Defaults()...), 160)
	dispatch := services.NewDispatchService(db, contacts, conns, renderer, sent, 2, 0, time.Minute)
	dispatch.BaseURL = "https://intro.test"

	h := New(Deps{
		Contacts:      contacts,
		Connections:   conns,
		Introductions: services.NewIntroductionService(db, dispatch),
		Renderer:      renderer,
		Dispatch:      dispatch,
		DB:            db,
	})

	r := gin.New()
	r.Use(middleware.RequestID(), middleware.CallerIdentity())
	r.Use(middleware.IdempotencyValidator(middleware.IdempotencyOptions{}, nil))

	r.GET("/contacts", h.ResolveContacts)
	r.POST("/contacts", h.CreateContact)
	r.PUT("/contacts/:id", h.UpdateContact)
	r.PUT("/identities/:id", h.SyncIdentity)
	r.POST("/connection-requests", h.SendConnectionRequest)
	r.GET("/connection-requests", h.ListConnectionRequests)
	r.POST("/connection-requests/:id/respond", h.RespondToConnectionRequest)
	r.GET("/connections", h.ListConnections)
	r.POST("/introductions", h.CreateIntroduction)
	r.GET("/introductions", h.ListIntroductions)
	r.GET("/introductions/:id", h.GetIntroduction)
	r.POST("/introductions/:id/respond", h.RespondToIntroduction)
	r.GET("/introductions/:id/counterpart", h.GetCounterpart)
	r.POST("/messages/render", h.RenderMessage)
	r.POST("/messages/excerpt", h.ExtractExcerpt)
	r.POST("/messages/rebuild", h.RebuildBody)
	r.GET("/templates", h.ListTemplates)
	r.POST("/batches", h.CreateBatch)
	r.GET("/batches/:id", h.GetBatch)
	r.POST("/batches/:id/dispatch", h.DispatchBatch)

	return &testEnv{db: db, sent: sent, r: r}
}

func sp(s string) *string { return &s }

func (e *testEnv) identity(t *testing.T, id, first, email string) {
	t.Helper()
	p := &domain.PlatformIdentity{ID: id, DisplayName: first, FirstName: first, Email: sp(email)}
	if err := repo.UpsertIdentity(context.Background(), e.db, p); err != nil {
		t.Fatalf("seed identity: %v", err)
	}
}

// do sends a JSON request as user (no X-User-ID when empty). Extra headers
// come as name/value pairs.
func (e *testEnv) do(t *testing.T, method, path, user string, body any, headers ...string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if s, ok := body.(string); ok {
			buf.WriteString(s)
		} else if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if user != "" {
		req.Header.Set(middleware.HeaderUserID, user)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()
	e.r.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(w.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %T: %v (body=%s)", v, err, w.Body.String())
	}
	return v
}

func expectCode(t *testing.T, w *httptest.ResponseRecorder, status int, code string) {
	t.Helper()
	if w.Code != status {
		t.Fatalf("status=%d want %d body=%s", w.Code, status, w.Body.String())
	}
	if code == "" {
		return
	}
	if got := decode[ErrorResponse](t, w).Code; got != code {
		t.Fatalf("code=%q want %q", got, code)
	}
}
