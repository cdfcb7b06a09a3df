// Introduction HTTP handlers.
//
//   - POST /introductions                        (create; Idempotency-Key aware)
//   - GET  /introductions                        (list, paginated, ETag support)
//   - GET  /introductions/{id}                   (get)
//   - POST /introductions/{id}/respond           (side accepts or declines)
//   - GET  /introductions/{id}/counterpart?side= (the other party)
package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-intro-broker/internal/domain"
	"github.com/tbourn/go-intro-broker/internal/repo"
	"github.com/tbourn/go-intro-broker/internal/services"
)

// PartyInput describes one introduced person.
type PartyInput struct {
	Email              string `json:"email" binding:"required" example:"jane@example.com"`
	Name               string `json:"name" example:"Jane Doe"`
	Company            string `json:"company" example:"Acme"`
	PlatformIdentityID string `json:"platform_identity_id"`
}

func (p PartyInput) party() domain.Party {
	return domain.Party{
		Email:              p.Email,
		Name:               strings.TrimSpace(p.Name),
		Company:            domain.OptString(p.Company),
		PlatformIdentityID: domain.OptString(p.PlatformIdentityID),
	}
}

// CreateIntroductionRequest is the JSON payload for brokering an introduction.
type CreateIntroductionRequest struct {
	PersonA PartyInput `json:"person_a" binding:"required"`
	PersonB PartyInput `json:"person_b" binding:"required"`
	Message string     `json:"message" binding:"max=5000" example:"You two should talk about logistics."`
}

// RespondIntroductionRequest carries the responding side and action.
type RespondIntroductionRequest struct {
	Side   string        `json:"side" binding:"required" enums:"A,B" example:"A"`
	Action domain.Action `json:"action" binding:"required" enums:"accept,decline" example:"accept"`
}

// IntroductionView is the API shape of an introduction.
type IntroductionView struct {
	ID           string                    `json:"id"`
	IntroducerID string                    `json:"introducer_id"`
	PersonA      domain.Party              `json:"person_a"`
	PersonB      domain.Party              `json:"person_b"`
	Status       domain.IntroductionStatus `json:"status" example:"pending"`
	Declined     bool                      `json:"declined"`
	DeclinedBy   *domain.Side              `json:"declined_by,omitempty"`
	Message      string                    `json:"message"`
	Version      int                       `json:"version"`
	CreatedAt    time.Time                 `json:"created_at"`
	UpdatedAt    time.Time                 `json:"updated_at"`
}

func viewIntroduction(in *domain.Introduction) IntroductionView {
	return IntroductionView{
		ID:           in.ID,
		IntroducerID: in.IntroducerID,
		PersonA:      in.PersonA(),
		PersonB:      in.PersonB(),
		Status:       in.Status,
		Declined:     in.Declined,
		DeclinedBy:   in.DeclinedBy,
		Message:      in.Message,
		Version:      in.Version,
		CreatedAt:    in.CreatedAt,
		UpdatedAt:    in.UpdatedAt,
	}
}

// CreateIntroductionResponse is the stored introduction plus the outcome of
// the notification emails. Failed notifications do not undo the introduction.
type CreateIntroductionResponse struct {
	Introduction  IntroductionView          `json:"introduction"`
	Notifications []services.DispatchResult `json:"notifications"`
}

// ListIntroductionsResponse wraps a page of introductions.
type ListIntroductionsResponse struct {
	Introductions []IntroductionView `json:"introductions"`
	Pagination    Pagination         `json:"pagination"`
}

// CreateIntroduction godoc
// @ID          createIntroduction
// @Summary     Broker an introduction
// @Description Introduces person A to person B. Both emails are required, well formed, and distinct. Both parties are emailed the introduction_request template.
// @Description Supports idempotency via the Idempotency-Key header.
// @Tags        Introductions
// @Accept      json
// @Produce     json
//
// @Param       X-User-ID        header  string                              true   "Introducer identity"  example(user123)
// @Param       Idempotency-Key  header  string                              false  "Idempotency key for safe retries"
// @Param       body             body    handlers.CreateIntroductionRequest  true   "Introduction"
//
// @Success     201  {object}  handlers.CreateIntroductionResponse
// @Failure     400  {object}  handlers.ErrorResponse  "invalid_introduction or bad_request"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /introductions [post]
func (h *Handlers) CreateIntroduction(c *gin.Context) {
	ctx := c.Request.Context()
	uid, okUID := caller(c)
	if !okUID {
		return
	}
	if id, replay := h.replayID(c, uid); replay {
		if prev, err := h.intros.Get(ctx, id); err == nil {
			ok(c, http.StatusCreated, CreateIntroductionResponse{Introduction: viewIntroduction(prev), Notifications: []services.DispatchResult{}})
			return
		}
	}

	var req CreateIntroductionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeInvalidIntroduction, "person_a.email and person_b.email are required")
		return
	}
	in, notes, err := h.intros.Create(ctx, uid, req.PersonA.party(), req.PersonB.party(), req.Message)
	if err != nil {
		writeError(c, err)
		return
	}
	if notes == nil {
		notes = []services.DispatchResult{}
	}
	h.remember(c, uid, in.ID, http.StatusCreated)
	ok(c, http.StatusCreated, CreateIntroductionResponse{Introduction: viewIntroduction(in), Notifications: notes})
}

// ListIntroductions godoc
// @ID          listIntroductions
// @Summary     List introductions (paginated)
// @Description Introductions the caller brokered or takes part in. Supports weak ETag via If-None-Match and may return 304.
// @Tags        Introductions
// @Produce     json
//
// @Param       X-User-ID      header  string  true   "Caller identity"             example(user123)
// @Param       If-None-Match  header  string  false  "Return 304 if ETag matches"
// @Param       page           query   int     false  "Page number"                 minimum(1) default(1)
// @Param       page_size      query   int     false  "Items per page"              minimum(1) maximum(100) default(20)
//
// @Success     200  {object}  handlers.ListIntroductionsResponse
// @Header      200  {string}  ETag  "Weak ETag for current result"
// @Success     304  {string}  string  "Not Modified"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /introductions [get]
func (h *Handlers) ListIntroductions(c *gin.Context) {
	ctx := c.Request.Context()
	uid, okUID := caller(c)
	if !okUID {
		return
	}
	page, pageSize := pageParams(c)

	// ETag pre-check (best effort).
	if h.db != nil {
		if count, last, err := repo.IntroductionsStats(ctx, h.db, uid); err == nil {
			if notModified(c, "introductions", uid, count, last) {
				return
			}
		}
	}

	items, total, err := h.intros.List(ctx, uid, page, pageSize)
	if err != nil {
		writeError(c, err)
		return
	}
	views := make([]IntroductionView, 0, len(items))
	for i := range items {
		views = append(views, viewIntroduction(&items[i]))
	}
	ok(c, http.StatusOK, ListIntroductionsResponse{Introductions: views, Pagination: pagination(page, pageSize, total)})
}

// GetIntroduction godoc
// @ID          getIntroduction
// @Summary     Get an introduction
// @Tags        Introductions
// @Produce     json
//
// @Param       id  path  string  true  "Introduction ID"  format(uuid)
//
// @Success     200  {object}  handlers.IntroductionView
// @Failure     404  {object}  handlers.ErrorResponse  "Introduction not found"
// @Router      /introductions/{id} [get]
func (h *Handlers) GetIntroduction(c *gin.Context) {
	in, err := h.intros.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	ok(c, http.StatusOK, viewIntroduction(in))
}

// RespondToIntroduction godoc
// @ID          respondToIntroduction
// @Summary     Respond to an introduction
// @Description One side accepts or declines. A decline is final; the introduction is both_accepted once both sides accept. The introducer cannot respond, and a side linked to a platform user can only be answered by that user.
// @Tags        Introductions
// @Accept      json
// @Produce     json
//
// @Param       X-User-ID  header  string                               true  "Caller identity"  example(user456)
// @Param       id         path    string                               true  "Introduction ID"  format(uuid)
// @Param       body       body    handlers.RespondIntroductionRequest  true  "Side and action"
//
// @Success     200  {object}  handlers.IntroductionView
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     403  {object}  handlers.ErrorResponse  "Caller may not answer for this side"
// @Failure     404  {object}  handlers.ErrorResponse  "Introduction not found"
// @Failure     409  {object}  handlers.ErrorResponse  "already_resolved or conflict"
// @Router      /introductions/{id}/respond [post]
func (h *Handlers) RespondToIntroduction(c *gin.Context) {
	uid, okUID := caller(c)
	if !okUID {
		return
	}
	var req RespondIntroductionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "side (A|B) and action (accept|decline) required")
		return
	}
	side, okSide := domain.ParseSide(req.Side)
	if !okSide {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "side must be A or B")
		return
	}
	in, err := h.intros.Respond(c.Request.Context(), c.Param("id"), uid, side, domain.Action(strings.ToLower(string(req.Action))))
	if err != nil {
		writeError(c, err)
		return
	}
	ok(c, http.StatusOK, viewIntroduction(in))
}

// GetCounterpart godoc
// @ID          getCounterpart
// @Summary     Who is this introduction with
// @Description Returns the party opposite `side`, preferring their live platform profile.
// @Tags        Introductions
// @Produce     json
//
// @Param       id    path   string  true  "Introduction ID"   format(uuid)
// @Param       side  query  string  true  "The viewer's side"  Enums(A, B)
//
// @Success     200  {object}  services.Counterpart
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     404  {object}  handlers.ErrorResponse  "Introduction not found"
// @Router      /introductions/{id}/counterpart [get]
func (h *Handlers) GetCounterpart(c *gin.Context) {
	side, okSide := domain.ParseSide(c.Query("side"))
	if !okSide {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "side must be A or B")
		return
	}
	cp, err := h.intros.Counterpart(c.Request.Context(), c.Param("id"), side)
	if err != nil {
		writeError(c, err)
		return
	}
	ok(c, http.StatusOK, cp)
}
