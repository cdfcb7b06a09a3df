package domain

import (
	"errors"
	"strings"
	"time"
)

// IntroductionStatus is derived from the two acceptance flags and the decline
// marker. It is never set independently.
type IntroductionStatus string

// Introduction states.
const (
	IntroPending         IntroductionStatus = "pending"
	IntroPersonAAccepted IntroductionStatus = "personA_accepted"
	IntroPersonBAccepted IntroductionStatus = "personB_accepted"
	IntroBothAccepted    IntroductionStatus = "both_accepted"
	IntroDeclined        IntroductionStatus = "declined"
)

// Terminal reports whether the introduction accepts no further responses.
func (s IntroductionStatus) Terminal() bool {
	return s == IntroDeclined || s == IntroBothAccepted
}

// DeriveStatus is the only place an introduction status is computed.
// A decline always wins, even when both flags are set.
func DeriveStatus(aAccepted, bAccepted, declined bool) IntroductionStatus {
	switch {
	case declined:
		return IntroDeclined
	case aAccepted && bAccepted:
		return IntroBothAccepted
	case aAccepted:
		return IntroPersonAAccepted
	case bAccepted:
		return IntroPersonBAccepted
	default:
		return IntroPending
	}
}

// Side names one of the two introduced parties.
type Side string

// Introduction sides.
const (
	SideA Side = "A"
	SideB Side = "B"
)

// ParseSide accepts "A"/"B" in any case.
func ParseSide(s string) (Side, bool) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "A":
		return SideA, true
	case "B":
		return SideB, true
	}
	return "", false
}

// Other returns the opposite side.
func (s Side) Other() Side {
	if s == SideA {
		return SideB
	}
	return SideA
}

// Party is the descriptor of one introduced person as captured at creation
// time. Email is the minimum identity needed to reach someone without a
// platform account.
type Party struct {
	Email              string  `json:"email"`
	Name               string  `json:"name"`
	Company            *string `json:"company,omitempty"`
	PlatformIdentityID *string `json:"platform_identity_id,omitempty"`
	Accepted           bool    `json:"accepted"`
}

// Introduction is a three-party broker record. The columns are flat so the
// compare-and-set update can address each flag directly; use PersonA/PersonB
// for the structured view.
type Introduction struct {
	ID           string `json:"id"            gorm:"type:char(36);primaryKey"`
	IntroducerID string `json:"introducer_id" gorm:"type:varchar(64);not null;index"`

	AEmail      string  `json:"-" gorm:"column:person_a_email;type:varchar(320);not null;index"`
	AName       string  `json:"-" gorm:"column:person_a_name;type:varchar(255);not null;default:''"`
	ACompany    *string `json:"-" gorm:"column:person_a_company;type:varchar(255)"`
	AIdentityID *string `json:"-" gorm:"column:person_a_identity_id;type:varchar(64);index"`
	AAccepted   bool    `json:"-" gorm:"column:person_a_accepted;not null;default:false"`

	BEmail      string  `json:"-" gorm:"column:person_b_email;type:varchar(320);not null;index"`
	BName       string  `json:"-" gorm:"column:person_b_name;type:varchar(255);not null;default:''"`
	BCompany    *string `json:"-" gorm:"column:person_b_company;type:varchar(255)"`
	BIdentityID *string `json:"-" gorm:"column:person_b_identity_id;type:varchar(64);index"`
	BAccepted   bool    `json:"-" gorm:"column:person_b_accepted;not null;default:false"`

	Declined   bool               `json:"declined"              gorm:"not null;default:false"`
	DeclinedBy *Side              `json:"declined_by,omitempty" gorm:"type:varchar(1)"`
	Message    string             `json:"message"               gorm:"type:text;not null;default:''"`
	Status     IntroductionStatus `json:"status"                gorm:"type:varchar(24);not null;index"`
	Version    int                `json:"version"               gorm:"not null;default:1"`
	CreatedAt  time.Time          `json:"created_at"`
	UpdatedAt  time.Time          `json:"updated_at"`
}

// TableName returns the database table name for Introduction.
func (Introduction) TableName() string { return "introductions" }

// PersonA returns the structured descriptor of side A.
func (i Introduction) PersonA() Party {
	return Party{Email: i.AEmail, Name: i.AName, Company: i.ACompany, PlatformIdentityID: i.AIdentityID, Accepted: i.AAccepted}
}

// PersonB returns the structured descriptor of side B.
func (i Introduction) PersonB() Party {
	return Party{Email: i.BEmail, Name: i.BName, Company: i.BCompany, PlatformIdentityID: i.BIdentityID, Accepted: i.BAccepted}
}

// Person returns the descriptor for side s.
func (i Introduction) Person(s Side) Party {
	if s == SideA {
		return i.PersonA()
	}
	return i.PersonB()
}

// Accepted reports the acceptance flag for side s.
func (i Introduction) Accepted(s Side) bool {
	if s == SideA {
		return i.AAccepted
	}
	return i.BAccepted
}

// Derived recomputes the status from the flags.
func (i Introduction) Derived() IntroductionStatus {
	return DeriveStatus(i.AAccepted, i.BAccepted, i.Declined)
}

// Transition errors returned by Apply. The service layer maps them onto its
// own sentinels.
var (
	ErrTerminal        = errors.New("introduction already resolved")
	ErrSideResponded   = errors.New("side already accepted")
	ErrUnknownAction   = errors.New("unknown action")
	ErrSamePerson      = errors.New("both parties share the same email")
	ErrMissingEmail    = errors.New("both parties need a valid email")
	ErrRequestToSelf   = errors.New("cannot connect with yourself")
	ErrRequestTerminal = errors.New("connection request already resolved")
)

// Apply returns a copy of i with action applied on behalf of side. It never
// mutates i, so a caller can compare the result against the stored row.
//
// Rules:
//   - declined or both_accepted: nothing is allowed (ErrTerminal).
//   - decline: sets the decline marker regardless of any acceptance.
//   - accept: sets the side flag; a side that already accepted gets
//     ErrSideResponded.
func (i Introduction) Apply(side Side, action Action) (Introduction, error) {
	if i.Derived().Terminal() {
		return i, ErrTerminal
	}
	next := i
	switch action {
	case ActionDecline:
		s := side
		next.Declined = true
		next.DeclinedBy = &s
	case ActionAccept:
		if i.Accepted(side) {
			return i, ErrSideResponded
		}
		if side == SideA {
			next.AAccepted = true
		} else {
			next.BAccepted = true
		}
	default:
		return i, ErrUnknownAction
	}
	next.Status = next.Derived()
	return next, nil
}

// NewIntroduction validates the parties and builds a pending introduction.
// Emails are normalized; identical emails (case-insensitive) are rejected.
func NewIntroduction(id, introducerID string, a, b Party, message string, now time.Time) (*Introduction, error) {
	ae, be := NormalizeEmail(a.Email), NormalizeEmail(b.Email)
	if ae == nil || be == nil {
		return nil, ErrMissingEmail
	}
	if *ae == *be {
		return nil, ErrSamePerson
	}
	in := &Introduction{
		ID:           id,
		IntroducerID: introducerID,
		AEmail:       *ae,
		AName:        strings.TrimSpace(a.Name),
		ACompany:     OptString(Deref(a.Company)),
		AIdentityID:  OptString(Deref(a.PlatformIdentityID)),
		BEmail:       *be,
		BName:        strings.TrimSpace(b.Name),
		BCompany:     OptString(Deref(b.Company)),
		BIdentityID:  OptString(Deref(b.PlatformIdentityID)),
		Message:      strings.TrimSpace(message),
		Version:      1,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	in.Status = in.Derived()
	return in, nil
}
