// Package handlers exposes the broker's REST endpoints. Handlers are
// transport-thin: they bind and validate input, call a service, and translate
// results (including conditional and idempotent replays) into responses.
package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/tbourn/go-intro-broker/internal/domain"
	"github.com/tbourn/go-intro-broker/internal/http/middleware"
	"github.com/tbourn/go-intro-broker/internal/repo"
	"github.com/tbourn/go-intro-broker/internal/services"
	"github.com/tbourn/go-intro-broker/internal/utils"
)

//
// Service contracts (context-aware)
//

// ContactService manages address-book entries and recipient resolution.
type ContactService interface {
	Create(ctx context.Context, ownerID string, in services.ContactInput) (*domain.ContactRecord, error)
	Update(ctx context.Context, ownerID, id string, in services.ContactInput) (*domain.ContactRecord, error)
	Resolve(ctx context.Context, ownerID, q string) ([]domain.CanonicalRecipient, error)
	SyncIdentity(ctx context.Context, p *domain.PlatformIdentity) (int64, error)
}

// ConnectionService drives the connection request state machine.
type ConnectionService interface {
	Send(ctx context.Context, fromID, toID, note string) (*domain.ConnectionRequest, error)
	Respond(ctx context.Context, requestID, responderID string, action domain.Action) (*domain.ConnectionRequest, error)
	Get(ctx context.Context, id, callerID string) (*domain.ConnectionRequest, error)
	ListPending(ctx context.Context, userID string, dir repo.Direction, page, pageSize int) ([]domain.ConnectionRequest, int64, error)
	Connections(ctx context.Context, userID string) ([]domain.PlatformIdentity, error)
}

// IntroductionService drives the introduction state machine.
type IntroductionService interface {
	Create(ctx context.Context, introducerID string, a, b domain.Party, message string) (*domain.Introduction, []services.DispatchResult, error)
	Respond(ctx context.Context, id, callerID string, side domain.Side, action domain.Action) (*domain.Introduction, error)
	Get(ctx context.Context, id string) (*domain.Introduction, error)
	List(ctx context.Context, userID string, page, pageSize int) ([]domain.Introduction, int64, error)
	Counterpart(ctx context.Context, id string, side domain.Side) (*services.Counterpart, error)
}

// RenderService renders registry templates.
type RenderService interface {
	Template(typ string, ch domain.Channel, o *services.Overrides) (domain.MessageTemplate, error)
	Render(ctx context.Context, req services.RenderRequest) (*services.RenderResponse, error)
	Excerpt(typ string, ch domain.Channel) (string, error)
	List() []domain.MessageTemplate
}

// DispatchService sends batches and reports their ledger.
type DispatchService interface {
	Dispatch(ctx context.Context, req services.DispatchRequest) ([]services.DispatchResult, error)
	GetBatch(ctx context.Context, ownerID, id string) (*services.BatchView, error)
}

//
// Handler wiring
//

// Deps are the collaborators of Handlers. DB backs the ETag pre-checks and
// the Idempotency-Key records; when nil both are skipped.
type Deps struct {
	Contacts       ContactService
	Connections    ConnectionService
	Introductions  IntroductionService
	Renderer       RenderService
	Dispatch       DispatchService
	DB             *gorm.DB
	IdempotencyTTL time.Duration
}

// Handlers groups the HTTP endpoints.
type Handlers struct {
	contacts ContactService
	conns    ConnectionService
	intros   IntroductionService
	renderer RenderService
	dispatch DispatchService
	db       *gorm.DB
	idemTTL  time.Duration
}

// New constructs Handlers from d.
func New(d Deps) *Handlers {
	ttl := d.IdempotencyTTL
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Handlers{
		contacts: d.Contacts,
		conns:    d.Connections,
		intros:   d.Introductions,
		renderer: d.Renderer,
		dispatch: d.Dispatch,
		db:       d.DB,
		idemTTL:  ttl,
	}
}

// caller returns the caller identity, answering 401 when there is none.
func caller(c *gin.Context) (string, bool) {
	uid := middleware.UserID(c)
	if uid == "" {
		fail(c, http.StatusUnauthorized, ErrCodeUnauthorized, "missing "+middleware.HeaderUserID)
		return "", false
	}
	return uid, true
}

//
// Pagination
//

// Pagination carries pagination metadata for list responses.
type Pagination struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
	HasNext    bool  `json:"has_next"`
}

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

func pageParams(c *gin.Context) (page, pageSize int) {
	return utils.Page(c.Query("page"), c.Query("page_size"), defaultPageSize, maxPageSize)
}

func pagination(page, pageSize int, total int64) Pagination {
	tp := utils.TotalPages(total, pageSize)
	return Pagination{
		Page:       page,
		PageSize:   pageSize,
		Total:      total,
		TotalPages: tp,
		HasNext:    page < tp,
	}
}

//
// Idempotency
//

// replayID returns the resource id stored for this request's
// Idempotency-Key, if any.
func (h *Handlers) replayID(c *gin.Context, userID string) (string, bool) {
	if h.db == nil {
		return "", false
	}
	key, ok := middleware.GetIdempotencyKey(c)
	if !ok {
		return "", false
	}
	rec, err := repo.GetIdempotency(c.Request.Context(), h.db, userID, middleware.IdempotencyScope(c), key, time.Now().UTC())
	if err != nil {
		return "", false
	}
	c.Header("Idempotency-Replayed", "true")
	return rec.ResourceID, true
}

// remember records resourceID under the request's Idempotency-Key. A
// concurrent request that stored first wins; failures only cost the replay.
func (h *Handlers) remember(c *gin.Context, userID, resourceID string, status int) {
	if h.db == nil {
		return
	}
	key, ok := middleware.GetIdempotencyKey(c)
	if !ok {
		return
	}
	if _, err := repo.CreateIdempotency(c.Request.Context(), h.db, userID, middleware.IdempotencyScope(c), key, resourceID, status, h.idemTTL); err != nil && !repo.IsDuplicate(err) {
		middleware.LoggerFrom(c).Warn().Err(err).Msg("store idempotency record")
	}
}
