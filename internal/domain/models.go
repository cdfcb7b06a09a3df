// Package domain defines the persistence models and pure rules of the
// introduction broker: address-book contacts, the platform identity read
// model, connection requests and edges, introductions, and dispatch records.
// The types are mapped with GORM and shared by the repo and service layers.
package domain

import (
	"strings"
	"time"
)

// ContactRecord is an address-book entry owned by one user. It is mutated only
// by its owner and never deleted automatically.
//
// Fields:
//   - ID: UUID primary key (char(36)).
//   - OwnerID: the user that created the entry (indexed).
//   - NormalizedEmail: lower-cased, trimmed email; nil when absent.
//   - LinkedIdentityID: weak reference to a PlatformIdentity; nil when unlinked.
type ContactRecord struct {
	ID               string    `json:"id"                           gorm:"type:char(36);primaryKey"`
	OwnerID          string    `json:"owner_id"                     gorm:"type:varchar(64);not null;index:idx_contacts_owner,priority:1"`
	FirstName        string    `json:"first_name"                   gorm:"type:varchar(255);not null;default:''"`
	LastName         string    `json:"last_name"                    gorm:"type:varchar(255);not null;default:''"`
	NormalizedEmail  *string   `json:"email,omitempty"              gorm:"type:varchar(320);index"`
	Phone            *string   `json:"phone,omitempty"              gorm:"type:varchar(64)"`
	Company          *string   `json:"company,omitempty"            gorm:"type:varchar(255)"`
	LinkedIdentityID *string   `json:"linked_identity_id,omitempty" gorm:"type:varchar(64);index"`
	CreatedAt        time.Time `json:"created_at"                   gorm:"index:idx_contacts_owner,priority:2"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// TableName returns the database table name for ContactRecord.
func (ContactRecord) TableName() string { return "contacts" }

// DisplayName joins first and last name.
func (c ContactRecord) DisplayName() string {
	return strings.TrimSpace(strings.TrimSpace(c.FirstName) + " " + strings.TrimSpace(c.LastName))
}

// PlatformIdentity is the engine's read model of a registered user. The
// authentication subsystem owns the real record; this copy only carries the
// displayable fields the engine needs.
type PlatformIdentity struct {
	ID          string    `json:"id"                    gorm:"type:varchar(64);primaryKey"`
	DisplayName string    `json:"display_name"          gorm:"type:varchar(255);not null;default:''"`
	FirstName   string    `json:"first_name"            gorm:"type:varchar(255);not null;default:''"`
	LastName    string    `json:"last_name"             gorm:"type:varchar(255);not null;default:''"`
	Email       *string   `json:"email,omitempty"       gorm:"type:varchar(320);index"`
	Phone       *string   `json:"phone,omitempty"       gorm:"type:varchar(64)"`
	Company     *string   `json:"company,omitempty"     gorm:"type:varchar(255)"`
	PictureURL  *string   `json:"picture_url,omitempty" gorm:"type:varchar(1024)"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// TableName returns the database table name for PlatformIdentity.
func (PlatformIdentity) TableName() string { return "platform_identities" }

// Name returns the best displayable name for the identity.
func (p PlatformIdentity) Name() string {
	if n := strings.TrimSpace(p.DisplayName); n != "" {
		return n
	}
	return strings.TrimSpace(strings.TrimSpace(p.FirstName) + " " + strings.TrimSpace(p.LastName))
}

// ConnectionEdge is a confirmed, undirected relationship between two platform
// identities. The pair is stored ordered (UserLo < UserHi) so the unique index
// covers both directions.
type ConnectionEdge struct {
	ID        string    `json:"id"         gorm:"type:char(36);primaryKey"`
	UserLo    string    `json:"user_lo"    gorm:"type:varchar(64);not null;uniqueIndex:ux_edge_pair,priority:1"`
	UserHi    string    `json:"user_hi"    gorm:"type:varchar(64);not null;uniqueIndex:ux_edge_pair,priority:2;index"`
	RequestID string    `json:"request_id" gorm:"type:char(36)"`
	CreatedAt time.Time `json:"created_at"`
}

// TableName returns the database table name for ConnectionEdge.
func (ConnectionEdge) TableName() string { return "connection_edges" }

// Other returns the member of the edge that is not userID.
func (e ConnectionEdge) Other(userID string) string {
	if e.UserLo == userID {
		return e.UserHi
	}
	return e.UserLo
}

// OrderedPair returns (lo, hi) for two user ids.
func OrderedPair(a, b string) (string, string) {
	if a <= b {
		return a, b
	}
	return b, a
}

// PairKey is the direction-free key of a user pair.
func PairKey(a, b string) string {
	lo, hi := OrderedPair(a, b)
	return lo + "|" + hi
}

// RequestStatus is the lifecycle state of a ConnectionRequest.
type RequestStatus string

// Connection request states. Anything other than pending is terminal.
const (
	RequestPending  RequestStatus = "pending"
	RequestAccepted RequestStatus = "accepted"
	RequestDeclined RequestStatus = "declined"
)

// Terminal reports whether no further transition is allowed.
func (s RequestStatus) Terminal() bool { return s != RequestPending }

// ConnectionRequest is a directed handshake from FromID to ToID.
//
// PendingPair holds PairKey(from, to) while the request is pending and is
// cleared when it resolves; its unique index allows at most one open request
// per unordered pair.
type ConnectionRequest struct {
	ID          string        `json:"id"                     gorm:"type:char(36);primaryKey"`
	FromID      string        `json:"from_id"                gorm:"type:varchar(64);not null;index"`
	ToID        string        `json:"to_id"                  gorm:"type:varchar(64);not null;index"`
	Note        string        `json:"note,omitempty"         gorm:"type:text;not null;default:''"`
	Status      RequestStatus `json:"status"                 gorm:"type:varchar(16);not null;default:'pending';check:status IN ('pending','accepted','declined')"`
	PendingPair *string       `json:"-"                      gorm:"type:varchar(140);uniqueIndex:ux_request_pending_pair"`
	CreatedAt   time.Time     `json:"created_at"`
	RespondedAt *time.Time    `json:"responded_at,omitempty"`
}

// TableName returns the database table name for ConnectionRequest.
func (ConnectionRequest) TableName() string { return "connection_requests" }

// Action is a response to a connection request or introduction.
type Action string

// Supported actions.
const (
	ActionAccept  Action = "accept"
	ActionDecline Action = "decline"
)

// Valid reports whether a is a known action.
func (a Action) Valid() bool { return a == ActionAccept || a == ActionDecline }

// NormalizeEmail lower-cases and trims an email address. It returns nil for
// values that cannot serve as a dedup key (blank or missing '@').
func NormalizeEmail(raw string) *string {
	s := strings.ToLower(strings.TrimSpace(raw))
	at := strings.IndexByte(s, '@')
	if s == "" || at <= 0 || at == len(s)-1 {
		return nil
	}
	return &s
}

// Deref returns *p or "" when p is nil.
func Deref(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

// OptString returns nil for blank strings and a pointer to the trimmed value
// otherwise.
func OptString(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
