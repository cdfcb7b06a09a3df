// Batch HTTP handlers.
//
//   - POST /batches                 (mint a batch id; Idempotency-Key aware)
//   - POST /batches/{id}/dispatch   (send a template to recipients of the batch)
//   - GET  /batches/{id}            (batch ledger, ETag support)
package handlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-intro-broker/internal/domain"
	"github.com/tbourn/go-intro-broker/internal/ids"
	"github.com/tbourn/go-intro-broker/internal/render"
	"github.com/tbourn/go-intro-broker/internal/repo"
	"github.com/tbourn/go-intro-broker/internal/services"
)

// NewBatchResponse carries a freshly minted batch id.
type NewBatchResponse struct {
	BatchID   string    `json:"batch_id" example:"01J9Z8Q4W6R3K2M1N0P9Q8R7S6"`
	CreatedAt time.Time `json:"created_at"`
}

// DispatchBatchRequest selects recipients and the template to send. Exactly
// one of RecipientIDs and Remaining must be set.
type DispatchBatchRequest struct {
	RecipientIDs []string            `json:"recipient_ids"`
	Remaining    bool                `json:"remaining"`
	TemplateType string              `json:"template_type" binding:"required" example:"connection_request"`
	Channel      domain.Channel      `json:"channel" binding:"required" enums:"EMAIL,SMS" example:"EMAIL"`
	Overrides    *services.Overrides `json:"overrides,omitempty"`
	Context      render.Context      `json:"context"`
}

// DispatchBatchResponse reports one dispatch call. Skipped recipients were
// already sent by an earlier call and count as sent.
type DispatchBatchResponse struct {
	BatchID string                    `json:"batch_id"`
	Results []services.DispatchResult `json:"results"`
	Sent    int                       `json:"sent"`
	Skipped int                       `json:"skipped"`
	Failed  int                       `json:"failed"`
}

// CreateBatch godoc
// @ID          createBatch
// @Summary     Mint a batch id
// @Description Returns a new time-ordered batch id. Retrying with the same Idempotency-Key returns the same id.
// @Tags        Batches
// @Produce     json
//
// @Param       X-User-ID        header  string  true   "Caller identity"  example(user123)
// @Param       Idempotency-Key  header  string  false  "Idempotency key for safe retries"
//
// @Success     201  {object}  handlers.NewBatchResponse
// @Router      /batches [post]
func (h *Handlers) CreateBatch(c *gin.Context) {
	uid, okUID := caller(c)
	if !okUID {
		return
	}
	id, replay := h.replayID(c, uid)
	if !replay || id == "" {
		id = ids.NewBatchID()
		h.remember(c, uid, id, http.StatusCreated)
	}
	created, _ := ids.BatchTime(id)
	ok(c, http.StatusCreated, NewBatchResponse{BatchID: id, CreatedAt: created})
}

// DispatchBatch godoc
// @ID          dispatchBatch
// @Summary     Dispatch a batch
// @Description Sends the template to the selected recipients. Each recipient is sent at most once per batch: repeats report skipped, and a recipient claimed by a concurrent call reports dispatch_in_progress. `remaining` targets every recipient not yet sent in this batch.
// @Tags        Batches
// @Accept      json
// @Produce     json
//
// @Param       X-User-ID  header  string                         true  "Caller identity"  example(user123)
// @Param       id         path    string                         true  "Batch ID"
// @Param       body       body    handlers.DispatchBatchRequest  true  "Dispatch"
//
// @Success     200  {object}  handlers.DispatchBatchResponse
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     403  {object}  handlers.ErrorResponse  "Batch owned by someone else"
// @Failure     404  {object}  handlers.ErrorResponse  "unknown_template"
// @Router      /batches/{id}/dispatch [post]
func (h *Handlers) DispatchBatch(c *gin.Context) {
	uid, okUID := caller(c)
	if !okUID {
		return
	}
	var req DispatchBatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "template_type and channel required")
		return
	}
	batchID := c.Param("id")
	results, err := h.dispatch.Dispatch(c.Request.Context(), services.DispatchRequest{
		BatchID:      batchID,
		OwnerID:      uid,
		RecipientIDs: req.RecipientIDs,
		Remaining:    req.Remaining,
		TemplateType: req.TemplateType,
		Channel:      normalizeChannel(req.Channel),
		Overrides:    req.Overrides,
		Context:      req.Context,
	})
	if err != nil {
		writeError(c, err)
		return
	}

	resp := DispatchBatchResponse{BatchID: batchID, Results: results}
	if resp.Results == nil {
		resp.Results = []services.DispatchResult{}
	}
	for _, r := range results {
		switch {
		case r.Skipped:
			resp.Skipped++
		case r.Sent:
			resp.Sent++
		default:
			resp.Failed++
		}
	}
	ok(c, http.StatusOK, resp)
}

// GetBatch godoc
// @ID          getBatch
// @Summary     Get a batch ledger
// @Description Returns the batch with one record per recipient. Supports weak ETag via If-None-Match and may return 304.
// @Tags        Batches
// @Produce     json
//
// @Param       X-User-ID      header  string  true   "Caller identity"  example(user123)
// @Param       If-None-Match  header  string  false  "Return 304 if ETag matches"
// @Param       id             path    string  true   "Batch ID"
//
// @Success     200  {object}  services.BatchView
// @Header      200  {string}  ETag  "Weak ETag for current result"
// @Success     304  {string}  string  "Not Modified"
// @Failure     404  {object}  handlers.ErrorResponse  "Batch not found"
// @Router      /batches/{id} [get]
func (h *Handlers) GetBatch(c *gin.Context) {
	ctx := c.Request.Context()
	uid, okUID := caller(c)
	if !okUID {
		return
	}
	id := c.Param("id")

	if h.db != nil {
		if count, sent, last, err := repo.BatchStats(ctx, h.db, uid, id); err == nil && count > 0 {
			if notModified(c, "batch", fmt.Sprintf("%s:%s:%d", uid, id, sent), count, last) {
				return
			}
		}
	}

	v, err := h.dispatch.GetBatch(ctx, uid, id)
	if err != nil {
		c.Writer.Header().Del("ETag")
		writeError(c, err)
		return
	}
	ok(c, http.StatusOK, v)
}
