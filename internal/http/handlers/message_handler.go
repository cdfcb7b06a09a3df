// Message HTTP handlers.
//
//   - POST /messages/render    (preview or send-mode render for one recipient)
//   - POST /messages/excerpt   (editable text of a body or a template)
//   - POST /messages/rebuild   (splice edited text back into a body)
//   - GET  /templates          (registered templates)
//
// Rendering never fails on content: unresolved tokens, SMS overruns and
// link-less SMS templates come back as warnings in the result.
package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-intro-broker/internal/domain"
	"github.com/tbourn/go-intro-broker/internal/render"
	"github.com/tbourn/go-intro-broker/internal/services"
)

// RenderMessageRequest selects a template and the recipient to render it for.
// Exactly one of RecipientID (resolved against the caller's recipients) and
// Recipient (inline) is used; RecipientID wins when both are set.
type RenderMessageRequest struct {
	TemplateType string                     `json:"template_type" binding:"required" example:"connection_request"`
	Channel      domain.Channel             `json:"channel" binding:"required" enums:"EMAIL,SMS" example:"EMAIL"`
	RecipientID  string                     `json:"recipient_id" example:"identity:user456"`
	Recipient    *domain.CanonicalRecipient `json:"recipient,omitempty"`
	Context      render.Context             `json:"context"`
	Mode         render.Mode                `json:"mode" enums:"preview,send" example:"preview"`
	Overrides    *services.Overrides        `json:"overrides,omitempty"`
}

// ExcerptRequest asks for the editable text of Body, or of a template when
// Body is empty.
type ExcerptRequest struct {
	Body         string         `json:"body"`
	TemplateType string         `json:"template_type" example:"connection_request"`
	Channel      domain.Channel `json:"channel" enums:"EMAIL,SMS" example:"EMAIL"`
}

// ExcerptResponse carries the editable text.
type ExcerptResponse struct {
	Text string `json:"text"`
}

// RebuildRequest carries an original body and the edited excerpt.
type RebuildRequest struct {
	Body string `json:"body" binding:"required"`
	Text string `json:"text"`
}

// RebuildResponse carries the rebuilt body.
type RebuildResponse struct {
	Body string `json:"body"`
}

// TemplatesResponse lists the registry.
type TemplatesResponse struct {
	Templates []domain.MessageTemplate `json:"templates"`
}

func normalizeChannel(ch domain.Channel) domain.Channel {
	return domain.Channel(strings.ToUpper(strings.TrimSpace(string(ch))))
}

// RenderMessage godoc
// @ID          renderMessage
// @Summary     Render a message
// @Description Renders a template for one recipient. `preview` shows unresolved tokens as [token]; `send` blanks them.
// @Tags        Messages
// @Accept      json
// @Produce     json
//
// @Param       X-User-ID  header  string                         true  "Caller identity"  example(user123)
// @Param       body       body    handlers.RenderMessageRequest  true  "Render request"
//
// @Success     200  {object}  services.RenderResponse
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     404  {object}  handlers.ErrorResponse  "unknown_template or recipient not found"
// @Router      /messages/render [post]
func (h *Handlers) RenderMessage(c *gin.Context) {
	ctx := c.Request.Context()
	uid, okUID := caller(c)
	if !okUID {
		return
	}
	var req RenderMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "template_type and channel required")
		return
	}
	req.Channel = normalizeChannel(req.Channel)
	if !req.Channel.Valid() {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "channel must be EMAIL or SMS")
		return
	}
	switch req.Mode {
	case "", render.ModePreview, render.ModeSend:
	default:
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "mode must be preview or send")
		return
	}

	var recipient domain.CanonicalRecipient
	switch {
	case strings.TrimSpace(req.RecipientID) != "":
		rs, err := h.contacts.Resolve(ctx, uid, "")
		if err != nil {
			writeError(c, err)
			return
		}
		found := false
		for _, r := range rs {
			if r.ID == strings.TrimSpace(req.RecipientID) {
				recipient, found = r, true
				break
			}
		}
		if !found {
			fail(c, http.StatusNotFound, ErrCodeNotFound, "recipient not found")
			return
		}
	case req.Recipient != nil:
		recipient = *req.Recipient
	default:
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "recipient_id or recipient required")
		return
	}

	res, err := h.renderer.Render(ctx, services.RenderRequest{
		TemplateType: req.TemplateType,
		Channel:      req.Channel,
		Recipient:    recipient,
		Context:      req.Context,
		Mode:         req.Mode,
		Overrides:    req.Overrides,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	ok(c, http.StatusOK, res)
}

// ExtractExcerpt godoc
// @ID          extractExcerpt
// @Summary     Extract the editable excerpt
// @Description For an EMAIL body, returns the text of the first and third top-level blocks joined by a blank line. With no body, the registered template's text is used.
// @Tags        Messages
// @Accept      json
// @Produce     json
//
// @Param       body  body  handlers.ExcerptRequest  true  "Body or template"
//
// @Success     200  {object}  handlers.ExcerptResponse
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     404  {object}  handlers.ErrorResponse  "unknown_template"
// @Router      /messages/excerpt [post]
func (h *Handlers) ExtractExcerpt(c *gin.Context) {
	var req ExcerptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}
	if req.Body != "" {
		ok(c, http.StatusOK, ExcerptResponse{Text: render.ExtractEditable(req.Body)})
		return
	}
	if strings.TrimSpace(req.TemplateType) == "" {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "body or template_type required")
		return
	}
	ch := normalizeChannel(req.Channel)
	if ch == "" {
		ch = domain.ChannelEmail
	}
	if !ch.Valid() {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "channel must be EMAIL or SMS")
		return
	}
	text, err := h.renderer.Excerpt(req.TemplateType, ch)
	if err != nil {
		writeError(c, err)
		return
	}
	ok(c, http.StatusOK, ExcerptResponse{Text: text})
}

// RebuildBody godoc
// @ID          rebuildBody
// @Summary     Rebuild a body from an edited excerpt
// @Description Splices the edited text back into the two editable blocks. Every byte outside them is preserved.
// @Tags        Messages
// @Accept      json
// @Produce     json
//
// @Param       body  body  handlers.RebuildRequest  true  "Original body and edited text"
//
// @Success     200  {object}  handlers.RebuildResponse
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Router      /messages/rebuild [post]
func (h *Handlers) RebuildBody(c *gin.Context) {
	var req RebuildRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "body required")
		return
	}
	ok(c, http.StatusOK, RebuildResponse{Body: render.Rebuild(req.Body, req.Text)})
}

// ListTemplates godoc
// @ID          listTemplates
// @Summary     List message templates
// @Tags        Messages
// @Produce     json
//
// @Success     200  {object}  handlers.TemplatesResponse
// @Router      /templates [get]
func (h *Handlers) ListTemplates(c *gin.Context) {
	ts := h.renderer.List()
	if ts == nil {
		ts = []domain.MessageTemplate{}
	}
	ok(c, http.StatusOK, TemplatesResponse{Templates: ts})
}
