package domain

import "strings"

// Recipient id prefixes. A recipient reached through a platform account is
// keyed by its identity so the key survives contact edits; everyone else is
// keyed by the address-book entry.
const (
	RecipientIdentityPrefix = "identity:"
	RecipientContactPrefix  = "contact:"
)

// CanonicalRecipient is one deduplicated addressable person produced by the
// identity resolver. Exactly one of PlatformIdentityID and SourceContactID is
// the origin of ID; a contact that was linked to an identity carries both.
type CanonicalRecipient struct {
	ID                 string  `json:"id"`
	DisplayName        string  `json:"display_name"`
	FirstName          string  `json:"first_name,omitempty"`
	LastName           string  `json:"last_name,omitempty"`
	Email              *string `json:"email,omitempty"`
	Phone              *string `json:"phone,omitempty"`
	Company            *string `json:"company,omitempty"`
	PictureURL         *string `json:"picture_url,omitempty"`
	PlatformIdentityID *string `json:"platform_identity_id,omitempty"`
	SourceContactID    *string `json:"source_contact_id,omitempty"`
}

// RecipientKey builds the stable recipient id.
func RecipientKey(platformIdentityID *string, contactID string) string {
	if id := Deref(platformIdentityID); id != "" {
		return RecipientIdentityPrefix + id
	}
	return RecipientContactPrefix + contactID
}

// RecipientAliases are every key a person may have been recorded under in a
// dispatch ledger. Linking a contact to an identity changes the recipient id
// but not the person, so the ledger matches on any of these.
type RecipientAliases struct {
	IdentityID string
	ContactID  string
	Email      string
	Phone      string
}

// Empty reports whether no alias is known.
func (a RecipientAliases) Empty() bool {
	return a.IdentityID == "" && a.ContactID == "" && a.Email == "" && a.Phone == ""
}

// Aliases returns the ledger aliases of r.
func (r CanonicalRecipient) Aliases() RecipientAliases {
	return RecipientAliases{
		IdentityID: Deref(r.PlatformIdentityID),
		ContactID:  Deref(r.SourceContactID),
		Email:      Deref(NormalizeEmail(Deref(r.Email))),
		Phone:      NormalizePhone(Deref(r.Phone)),
	}
}

// NormalizePhone keeps the digits of raw and a leading plus sign.
// Fewer than five digits is not a usable number and yields "".
func NormalizePhone(raw string) string {
	raw = strings.TrimSpace(raw)
	var b strings.Builder
	digits := 0
	for i, r := range raw {
		switch {
		case r >= '0' && r <= '9':
			b.WriteRune(r)
			digits++
		case r == '+' && i == 0:
			b.WriteRune(r)
		}
	}
	if digits < 5 {
		return ""
	}
	return b.String()
}

// FromIdentity builds a recipient from a confirmed connection.
func FromIdentity(p PlatformIdentity) CanonicalRecipient {
	id := p.ID
	return CanonicalRecipient{
		ID:                 RecipientKey(&id, ""),
		DisplayName:        p.Name(),
		FirstName:          strings.TrimSpace(p.FirstName),
		LastName:           strings.TrimSpace(p.LastName),
		Email:              NormalizeEmail(Deref(p.Email)),
		Phone:              OptString(Deref(p.Phone)),
		Company:            OptString(Deref(p.Company)),
		PictureURL:         OptString(Deref(p.PictureURL)),
		PlatformIdentityID: &id,
	}
}

// FromContact builds a recipient from an address-book entry.
func FromContact(c ContactRecord) CanonicalRecipient {
	cid := c.ID
	linked := OptString(Deref(c.LinkedIdentityID))
	return CanonicalRecipient{
		ID:                 RecipientKey(linked, cid),
		DisplayName:        c.DisplayName(),
		FirstName:          strings.TrimSpace(c.FirstName),
		LastName:           strings.TrimSpace(c.LastName),
		Email:              NormalizeEmail(Deref(c.NormalizedEmail)),
		Phone:              OptString(Deref(c.Phone)),
		Company:            OptString(Deref(c.Company)),
		PlatformIdentityID: linked,
		SourceContactID:    &cid,
	}
}

// FirstNameOrDisplay returns FirstName, or the first word of DisplayName.
func (r CanonicalRecipient) FirstNameOrDisplay() string {
	if r.FirstName != "" {
		return r.FirstName
	}
	if f := strings.Fields(r.DisplayName); len(f) > 0 {
		return f[0]
	}
	return ""
}
