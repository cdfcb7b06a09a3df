// Connection HTTP handlers.
//
//   - POST /connection-requests                (send; Idempotency-Key aware)
//   - GET  /connection-requests?direction=     (pending, paginated)
//   - POST /connection-requests/{id}/respond   (accept or decline)
//   - GET  /connections                        (confirmed connections)
package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-intro-broker/internal/domain"
	"github.com/tbourn/go-intro-broker/internal/repo"
)

// SendConnectionRequest is the JSON payload for opening a request.
type SendConnectionRequest struct {
	ToID string `json:"to_id" binding:"required" example:"user456"`
	Note string `json:"note" binding:"max=1000" example:"We met at the summit"`
}

// RespondRequest carries an accept/decline action.
type RespondRequest struct {
	Action domain.Action `json:"action" binding:"required" enums:"accept,decline" example:"accept"`
}

// ListConnectionRequestsResponse wraps a page of pending requests.
type ListConnectionRequestsResponse struct {
	Requests   []domain.ConnectionRequest `json:"requests"`
	Pagination Pagination                 `json:"pagination"`
}

// ConnectionsResponse lists confirmed connections.
type ConnectionsResponse struct {
	Connections []domain.PlatformIdentity `json:"connections"`
}

// SendConnectionRequest godoc
// @ID          sendConnectionRequest
// @Summary     Send a connection request
// @Description Opens a pending request from the caller. Only one pending request may exist per pair, in either direction.
// @Description Supports idempotency via the Idempotency-Key header (same key → same request).
// @Tags        Connections
// @Accept      json
// @Produce     json
//
// @Param       X-User-ID        header  string                          true   "Caller identity"  example(user123)
// @Param       Idempotency-Key  header  string                          false  "Idempotency key for safe retries"
// @Param       body             body    handlers.SendConnectionRequest  true   "Request"
//
// @Success     201  {object}  domain.ConnectionRequest
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     409  {object}  handlers.ErrorResponse  "duplicate_request or already_connected"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /connection-requests [post]
func (h *Handlers) SendConnectionRequest(c *gin.Context) {
	ctx := c.Request.Context()
	uid, okUID := caller(c)
	if !okUID {
		return
	}
	if id, replay := h.replayID(c, uid); replay {
		if prev, err := h.conns.Get(ctx, id, uid); err == nil {
			ok(c, http.StatusCreated, prev)
			return
		}
	}

	var req SendConnectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "to_id required")
		return
	}
	r, err := h.conns.Send(ctx, uid, req.ToID, req.Note)
	if err != nil {
		writeError(c, err)
		return
	}
	h.remember(c, uid, r.ID, http.StatusCreated)
	ok(c, http.StatusCreated, r)
}

// ListConnectionRequests godoc
// @ID          listConnectionRequests
// @Summary     List pending connection requests
// @Tags        Connections
// @Produce     json
//
// @Param       X-User-ID  header  string  true   "Caller identity"  example(user123)
// @Param       direction  query   string  false  "incoming or outgoing"  Enums(incoming, outgoing)  default(incoming)
// @Param       page       query   int     false  "Page number"      minimum(1) default(1)
// @Param       page_size  query   int     false  "Items per page"   minimum(1) maximum(100) default(20)
//
// @Success     200  {object}  handlers.ListConnectionRequestsResponse
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /connection-requests [get]
func (h *Handlers) ListConnectionRequests(c *gin.Context) {
	uid, okUID := caller(c)
	if !okUID {
		return
	}
	dir := repo.Direction(strings.ToLower(c.DefaultQuery("direction", string(repo.Incoming))))
	page, pageSize := pageParams(c)

	items, total, err := h.conns.ListPending(c.Request.Context(), uid, dir, page, pageSize)
	if err != nil {
		writeError(c, err)
		return
	}
	ok(c, http.StatusOK, ListConnectionRequestsResponse{
		Requests:   items,
		Pagination: pagination(page, pageSize, total),
	})
}

// RespondToConnectionRequest godoc
// @ID          respondToConnectionRequest
// @Summary     Accept or decline a connection request
// @Description Only the addressee may respond, and only once. Of two concurrent responses exactly one succeeds; the other gets already_resolved.
// @Tags        Connections
// @Accept      json
// @Produce     json
//
// @Param       X-User-ID  header  string                   true  "Caller identity"  example(user456)
// @Param       id         path    string                   true  "Request ID"       format(uuid)
// @Param       body       body    handlers.RespondRequest  true  "Action"
//
// @Success     200  {object}  domain.ConnectionRequest
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     403  {object}  handlers.ErrorResponse  "Not the addressee"
// @Failure     404  {object}  handlers.ErrorResponse  "Request not found"
// @Failure     409  {object}  handlers.ErrorResponse  "Already resolved"
// @Router      /connection-requests/{id}/respond [post]
func (h *Handlers) RespondToConnectionRequest(c *gin.Context) {
	uid, okUID := caller(c)
	if !okUID {
		return
	}
	var req RespondRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "action required (accept|decline)")
		return
	}
	r, err := h.conns.Respond(c.Request.Context(), c.Param("id"), uid, domain.Action(strings.ToLower(string(req.Action))))
	if err != nil {
		writeError(c, err)
		return
	}
	ok(c, http.StatusOK, r)
}

// ListConnections godoc
// @ID          listConnections
// @Summary     List confirmed connections
// @Tags        Connections
// @Produce     json
//
// @Param       X-User-ID  header  string  true  "Caller identity"  example(user123)
//
// @Success     200  {object}  handlers.ConnectionsResponse
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /connections [get]
func (h *Handlers) ListConnections(c *gin.Context) {
	uid, okUID := caller(c)
	if !okUID {
		return
	}
	items, err := h.conns.Connections(c.Request.Context(), uid)
	if err != nil {
		writeError(c, err)
		return
	}
	if items == nil {
		items = []domain.PlatformIdentity{}
	}
	ok(c, http.StatusOK, ConnectionsResponse{Connections: items})
}
