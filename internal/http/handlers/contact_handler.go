// Contact and identity HTTP handlers.
//
//   - GET  /contacts          (canonical recipients, optional ?q=)
//   - POST /contacts          (create)
//   - PUT  /contacts/{id}     (update)
//   - PUT  /identities/{id}   (platform identity sync)
package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-intro-broker/internal/domain"
	"github.com/tbourn/go-intro-broker/internal/services"
)

// ContactRequest is the JSON payload for creating or updating a contact.
type ContactRequest struct {
	FirstName        string `json:"first_name" example:"Jane"`
	LastName         string `json:"last_name" example:"Doe"`
	Email            string `json:"email" example:"jane@example.com"`
	Phone            string `json:"phone" example:"+44 20 7946 0958"`
	Company          string `json:"company" example:"Acme"`
	LinkedIdentityID string `json:"linked_identity_id"`
}

func (r ContactRequest) input() services.ContactInput {
	return services.ContactInput{
		FirstName:        r.FirstName,
		LastName:         r.LastName,
		Email:            r.Email,
		Phone:            r.Phone,
		Company:          r.Company,
		LinkedIdentityID: r.LinkedIdentityID,
	}
}

// SyncIdentityRequest is the read-model payload pushed for a platform user.
type SyncIdentityRequest struct {
	DisplayName string `json:"display_name" example:"Jane Doe"`
	FirstName   string `json:"first_name" example:"Jane"`
	LastName    string `json:"last_name" example:"Doe"`
	Email       string `json:"email" example:"jane@example.com"`
	Phone       string `json:"phone"`
	Company     string `json:"company"`
	PictureURL  string `json:"picture_url"`
}

// SyncIdentityResponse reports how many contacts were linked by email.
type SyncIdentityResponse struct {
	Identity       *domain.PlatformIdentity `json:"identity"`
	LinkedContacts int64                    `json:"linked_contacts"`
}

// RecipientsResponse is the resolved, deduplicated recipient set.
type RecipientsResponse struct {
	Recipients []domain.CanonicalRecipient `json:"recipients"`
	Count      int                         `json:"count"`
}

// ResolveContacts godoc
// @ID          resolveContacts
// @Summary     Resolve the caller's recipients
// @Description Merges the caller's contacts with their confirmed connections into one deduplicated recipient list. `q` narrows it by name, email, or company.
// @Tags        Contacts
// @Produce     json
//
// @Param       X-User-ID  header  string  true   "Caller identity"  example(user123)
// @Param       q          query   string  false  "Search filter"    example(acme)
//
// @Success     200  {object}  handlers.RecipientsResponse
// @Failure     401  {object}  handlers.ErrorResponse  "Missing caller"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /contacts [get]
func (h *Handlers) ResolveContacts(c *gin.Context) {
	uid, okUID := caller(c)
	if !okUID {
		return
	}
	rs, err := h.contacts.Resolve(c.Request.Context(), uid, c.Query("q"))
	if err != nil {
		writeError(c, err)
		return
	}
	if rs == nil {
		rs = []domain.CanonicalRecipient{}
	}
	ok(c, http.StatusOK, RecipientsResponse{Recipients: rs, Count: len(rs)})
}

// CreateContact godoc
// @ID          createContact
// @Summary     Create a contact
// @Description Adds an address-book entry. The email is normalized; an email that belongs to a platform user links the contact to it.
// @Tags        Contacts
// @Accept      json
// @Produce     json
//
// @Param       X-User-ID  header  string                   true  "Caller identity"  example(user123)
// @Param       body       body    handlers.ContactRequest  true  "Contact"
//
// @Success     201  {object}  domain.ContactRecord
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     401  {object}  handlers.ErrorResponse  "Missing caller"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /contacts [post]
func (h *Handlers) CreateContact(c *gin.Context) {
	uid, okUID := caller(c)
	if !okUID {
		return
	}
	var req ContactRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}
	rec, err := h.contacts.Create(c.Request.Context(), uid, req.input())
	if err != nil {
		writeError(c, err)
		return
	}
	ok(c, http.StatusCreated, rec)
}

// UpdateContact godoc
// @ID          updateContact
// @Summary     Update a contact
// @Description Replaces the writable fields of a contact owned by the caller.
// @Tags        Contacts
// @Accept      json
// @Produce     json
//
// @Param       X-User-ID  header  string                   true  "Caller identity"  example(user123)
// @Param       id         path    string                   true  "Contact ID"       format(uuid)
// @Param       body       body    handlers.ContactRequest  true  "Contact"
//
// @Success     200  {object}  domain.ContactRecord
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     404  {object}  handlers.ErrorResponse  "Contact not found"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /contacts/{id} [put]
func (h *Handlers) UpdateContact(c *gin.Context) {
	uid, okUID := caller(c)
	if !okUID {
		return
	}
	var req ContactRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}
	rec, err := h.contacts.Update(c.Request.Context(), uid, c.Param("id"), req.input())
	if err != nil {
		writeError(c, err)
		return
	}
	ok(c, http.StatusOK, rec)
}

// SyncIdentity godoc
// @ID          syncIdentity
// @Summary     Sync a platform identity
// @Description Upserts the caller's platform profile and links every contact carrying the same email.
// @Tags        Contacts
// @Accept      json
// @Produce     json
//
// @Param       X-User-ID  header  string                        true  "Caller identity"  example(user123)
// @Param       id         path    string                        true  "Identity ID (must equal the caller)"
// @Param       body       body    handlers.SyncIdentityRequest  true  "Profile"
//
// @Success     200  {object}  handlers.SyncIdentityResponse
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     403  {object}  handlers.ErrorResponse  "Not the caller's identity"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /identities/{id} [put]
func (h *Handlers) SyncIdentity(c *gin.Context) {
	uid, okUID := caller(c)
	if !okUID {
		return
	}
	id := strings.TrimSpace(c.Param("id"))
	if id != uid {
		fail(c, http.StatusForbidden, ErrCodeForbidden, "an identity can only be synced by its owner")
		return
	}
	var req SyncIdentityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}
	p := &domain.PlatformIdentity{
		ID:          id,
		DisplayName: strings.TrimSpace(req.DisplayName),
		FirstName:   strings.TrimSpace(req.FirstName),
		LastName:    strings.TrimSpace(req.LastName),
		Email:       domain.NormalizeEmail(req.Email),
		Phone:       domain.OptString(req.Phone),
		Company:     domain.OptString(req.Company),
		PictureURL:  domain.OptString(req.PictureURL),
	}
	n, err := h.contacts.SyncIdentity(c.Request.Context(), p)
	if err != nil {
		writeError(c, err)
		return
	}
	ok(c, http.StatusOK, SyncIdentityResponse{Identity: p, LinkedContacts: n})
}
