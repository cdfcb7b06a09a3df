// Package services – ContactService
//
// ContactService owns the address book and the canonical recipient view built
// from it. Resolve loads the owner's contacts and confirmed connections and
// hands both to identity.Resolve; an optional query narrows the result through
// the in-memory search index.
//
// SyncIdentity is the write path of the platform identity read model: it
// upserts the identity and links any unlinked contacts carrying its email.
package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/tbourn/go-intro-broker/internal/domain"
	"github.com/tbourn/go-intro-broker/internal/identity"
	"github.com/tbourn/go-intro-broker/internal/repo"
	"github.com/tbourn/go-intro-broker/internal/search"
)

// ContactInput is the writable shape of a contact.
type ContactInput struct {
	FirstName        string `json:"first_name"`
	LastName         string `json:"last_name"`
	Email            string `json:"email"`
	Phone            string `json:"phone"`
	Company          string `json:"company"`
	LinkedIdentityID string `json:"linked_identity_id"`
}

// ContactService manages address-book entries and recipient resolution.
type ContactService struct {
	DB *gorm.DB
	// SearchOptions tune the ?q= filter.
	SearchOptions []search.Option
}

// NewContactService constructs a ContactService.
func NewContactService(db *gorm.DB) *ContactService {
	return &ContactService{DB: db}
}

// Create stores a new contact owned by ownerID. A contact needs at least a
// name or an email. When no link is given and the email belongs to a known
// platform identity, the contact is linked to it.
func (s *ContactService) Create(ctx context.Context, ownerID string, in ContactInput) (*domain.ContactRecord, error) {
	ctx, span := otel.Tracer("services/ContactService").Start(ctx, "Create",
		trace.WithAttributes(attribute.String("user.id", ownerID)))
	defer span.End()

	c := &domain.ContactRecord{OwnerID: ownerID}
	if err := s.apply(ctx, c, in); err != nil {
		return nil, err
	}
	if err := repo.CreateContact(ctx, s.DB, c); err != nil {
		return nil, err
	}
	return c, nil
}

// Update replaces the writable fields of a contact. Only the owner may update.
func (s *ContactService) Update(ctx context.Context, ownerID, id string, in ContactInput) (*domain.ContactRecord, error) {
	ctx, span := otel.Tracer("services/ContactService").Start(ctx, "Update",
		trace.WithAttributes(attribute.String("user.id", ownerID), attribute.String("contact.id", id)))
	defer span.End()

	c, err := repo.GetContact(ctx, s.DB, id, ownerID)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if err := s.apply(ctx, c, in); err != nil {
		return nil, err
	}
	if err := repo.UpdateContact(ctx, s.DB, c); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return c, nil
}

func (s *ContactService) apply(ctx context.Context, c *domain.ContactRecord, in ContactInput) error {
	first, last := strings.TrimSpace(in.FirstName), strings.TrimSpace(in.LastName)
	email := domain.NormalizeEmail(in.Email)
	if strings.TrimSpace(in.Email) != "" && email == nil {
		return fmt.Errorf("%w: email is malformed", ErrInvalidRequest)
	}
	if first == "" && last == "" && email == nil {
		return fmt.Errorf("%w: a contact needs a name or an email", ErrInvalidRequest)
	}
	c.FirstName, c.LastName = first, last
	c.NormalizedEmail = email
	c.Phone = domain.OptString(in.Phone)
	c.Company = domain.OptString(in.Company)
	c.LinkedIdentityID = domain.OptString(in.LinkedIdentityID)

	if c.LinkedIdentityID == nil && email != nil {
		p, err := repo.FindIdentityByEmail(ctx, s.DB, *email)
		switch {
		case err == nil:
			c.LinkedIdentityID = &p.ID
		case !errors.Is(err, repo.ErrNotFound):
			return err
		}
	}
	return nil
}

// Resolve returns the owner's canonical recipients. A non-empty q keeps only
// matching recipients, best match first.
func (s *ContactService) Resolve(ctx context.Context, ownerID, q string) ([]domain.CanonicalRecipient, error) {
	ctx, span := otel.Tracer("services/ContactService").Start(ctx, "Resolve",
		trace.WithAttributes(attribute.String("user.id", ownerID)))
	defer span.End()

	contacts, err := repo.ListContacts(ctx, s.DB, ownerID)
	if err != nil {
		return nil, err
	}
	connections, err := repo.ListConnectedIdentities(ctx, s.DB, ownerID)
	if err != nil {
		return nil, err
	}
	out := identity.Resolve(contacts, connections)
	span.SetAttributes(attribute.Int("recipients", len(out)))
	return search.FilterRecipients(out, q, s.SearchOptions...), nil
}

// SyncIdentity upserts a platform identity and links unlinked contacts that
// share its email. It returns the number of contacts linked.
func (s *ContactService) SyncIdentity(ctx context.Context, p *domain.PlatformIdentity) (int64, error) {
	ctx, span := otel.Tracer("services/ContactService").Start(ctx, "SyncIdentity",
		trace.WithAttributes(attribute.String("identity.id", p.ID)))
	defer span.End()

	p.ID = strings.TrimSpace(p.ID)
	if p.ID == "" {
		return 0, fmt.Errorf("%w: identity id is required", ErrInvalidRequest)
	}
	p.Email = domain.NormalizeEmail(domain.Deref(p.Email))
	p.Phone = domain.OptString(domain.Deref(p.Phone))
	p.Company = domain.OptString(domain.Deref(p.Company))
	p.PictureURL = domain.OptString(domain.Deref(p.PictureURL))

	var linked int64
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := repo.UpsertIdentity(ctx, tx, p); err != nil {
			return err
		}
		if p.Email == nil {
			return nil
		}
		n, err := repo.LinkContactsByEmail(ctx, tx, p.ID, *p.Email)
		linked = n
		return err
	})
	return linked, err
}
