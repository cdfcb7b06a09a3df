package domain

import "time"

// Channel is a delivery medium for a rendered message.
type Channel string

// Supported channels.
const (
	ChannelEmail Channel = "EMAIL"
	ChannelSMS   Channel = "SMS"
)

// Valid reports whether c is a known channel.
func (c Channel) Valid() bool { return c == ChannelEmail || c == ChannelSMS }

// MessageTemplate is a read-only, versioned template loaded from the registry.
type MessageTemplate struct {
	Type         string   `json:"type"                yaml:"type"`
	Channel      Channel  `json:"channel"             yaml:"channel"`
	Subject      string   `json:"subject,omitempty"   yaml:"subject,omitempty"`
	Body         string   `json:"body"                yaml:"body"`
	Tokens       []string `json:"tokens"             yaml:"tokens,omitempty"`
	RequiresLink bool     `json:"requires_link"       yaml:"requires_link,omitempty"`
}

// DispatchBatch groups dispatch records under one caller-chosen or minted id.
// The first caller to dispatch into a batch owns it.
type DispatchBatch struct {
	ID           string    `json:"id"            gorm:"type:varchar(64);primaryKey"`
	OwnerID      string    `json:"owner_id"      gorm:"type:varchar(64);not null;index"`
	TemplateType string    `json:"template_type" gorm:"type:varchar(64);not null;default:''"`
	Channel      Channel   `json:"channel"       gorm:"type:varchar(8);not null;default:''"`
	CreatedAt    time.Time `json:"created_at"`
}

// TableName returns the database table name for DispatchBatch.
func (DispatchBatch) TableName() string { return "dispatch_batches" }

// DispatchState is the lifecycle of one recipient inside a batch.
type DispatchState string

// Dispatch states. sending is a claim that expires after a lease.
const (
	DispatchSending DispatchState = "sending"
	DispatchSent    DispatchState = "sent"
	DispatchFailed  DispatchState = "failed"
)

// DispatchRecord is the per-recipient ledger row. Once Sent is true the row is
// never changed again, which is what makes repeated dispatches idempotent.
type DispatchRecord struct {
	ID            string        `json:"id"                       gorm:"type:char(36);primaryKey"`
	BatchID       string        `json:"batch_id"                 gorm:"type:varchar(64);not null;uniqueIndex:ux_dispatch_batch_recipient,priority:1"`
	RecipientID   string        `json:"recipient_id"             gorm:"type:varchar(140);not null;uniqueIndex:ux_dispatch_batch_recipient,priority:2"`
	State         DispatchState `json:"state"                    gorm:"type:varchar(16);not null;index"`
	Sent          bool          `json:"sent"                     gorm:"not null;default:false"`
	Attempts      int           `json:"attempts"                 gorm:"not null;default:0"`
	ClaimToken    string        `json:"-"                        gorm:"type:char(36);not null;default:''"`
	IdentityID    string        `json:"identity_id,omitempty"    gorm:"type:varchar(64);not null;default:'';index"`
	ContactID     string        `json:"contact_id,omitempty"     gorm:"type:char(36);not null;default:'';index"`
	Email         string        `json:"-"                        gorm:"type:varchar(320);not null;default:''"`
	Phone         string        `json:"-"                        gorm:"type:varchar(32);not null;default:''"`
	AttemptedAt   time.Time     `json:"attempted_at"`
	SentAt        *time.Time    `json:"sent_at,omitempty"`
	FailureReason *string       `json:"failure_reason,omitempty" gorm:"type:text"`
}

// Matches reports whether the record was written for the person behind a.
func (d DispatchRecord) Matches(a RecipientAliases) bool {
	return (a.IdentityID != "" && d.IdentityID == a.IdentityID) ||
		(a.ContactID != "" && d.ContactID == a.ContactID) ||
		(a.Email != "" && d.Email == a.Email) ||
		(a.Phone != "" && d.Phone == a.Phone)
}

// TableName returns the database table name for DispatchRecord.
func (DispatchRecord) TableName() string { return "dispatch_records" }
