// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for address-book
// contacts and the platform identity read model.
//
// All functions are context-aware and accept a *gorm.DB handle, making them
// safe for use within transactions or connection-scoped operations.
// They follow the "thin repository" approach: no business logic, only CRUD
// persistence and query composition.
//
// Error semantics:
//   - When a record is not found, functions return gorm.ErrRecordNotFound
//     (also exported here as ErrNotFound for convenience).
//   - On DB errors (constraint violations, connectivity issues, etc.),
//     the raw gorm error is propagated.
//
// Functions:
//
//   - CreateContact(ctx, db, c) -> error
//   - GetContact(ctx, db, id, ownerID) -> *domain.ContactRecord, error
//   - UpdateContact(ctx, db, c) -> error (owner enforced)
//   - ListContacts(ctx, db, ownerID) -> []domain.ContactRecord, error
//   - LinkContactsByEmail(ctx, db, identityID, email) -> int64, error
//   - UpsertIdentity(ctx, db, p) -> error
//   - GetIdentity(ctx, db, id) -> *domain.PlatformIdentity, error
//   - GetIdentities(ctx, db, ids) -> map[string]domain.PlatformIdentity, error
//   - FindIdentityByEmail(ctx, db, email) -> *domain.PlatformIdentity, error
package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tbourn/go-intro-broker/internal/domain"
)

// CreateContact inserts c. A missing ID is filled with a UUID and timestamps
// are set to UTC now.
func CreateContact(ctx context.Context, db *gorm.DB, c *domain.ContactRecord) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	c.CreatedAt, c.UpdatedAt = now, now
	return db.WithContext(ctx).Create(c).Error
}

// GetContact fetches one contact by id and owner.
func GetContact(ctx context.Context, db *gorm.DB, id, ownerID string) (*domain.ContactRecord, error) {
	var c domain.ContactRecord
	err := db.WithContext(ctx).
		Where("id = ? AND owner_id = ?", id, ownerID).
		First(&c).Error
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// UpdateContact overwrites the mutable fields of c. If no row matches
// (id, owner_id) it returns ErrNotFound.
func UpdateContact(ctx context.Context, db *gorm.DB, c *domain.ContactRecord) error {
	c.UpdatedAt = time.Now().UTC()
	res := db.WithContext(ctx).
		Model(&domain.ContactRecord{}).
		Where("id = ? AND owner_id = ?", c.ID, c.OwnerID).
		Updates(map[string]any{
			"first_name":         c.FirstName,
			"last_name":          c.LastName,
			"normalized_email":   c.NormalizedEmail,
			"phone":              c.Phone,
			"company":            c.Company,
			"linked_identity_id": c.LinkedIdentityID,
			"updated_at":         c.UpdatedAt,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// ListContacts returns all contacts of ownerID in insertion order. The order
// is what the identity resolver's first-seen rule is applied to.
func ListContacts(ctx context.Context, db *gorm.DB, ownerID string) ([]domain.ContactRecord, error) {
	var out []domain.ContactRecord
	err := db.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Order("created_at asc, id asc").
		Find(&out).Error
	return out, err
}

// LinkContactsByEmail sets linked_identity_id on every unlinked contact whose
// normalized email equals email. It returns the number of linked rows.
func LinkContactsByEmail(ctx context.Context, db *gorm.DB, identityID, email string) (int64, error) {
	res := db.WithContext(ctx).
		Model(&domain.ContactRecord{}).
		Where("normalized_email = ? AND linked_identity_id IS NULL", email).
		Updates(map[string]any{"linked_identity_id": identityID, "updated_at": time.Now().UTC()})
	return res.RowsAffected, res.Error
}

// UpsertIdentity inserts or fully replaces the read-model row for p.ID.
func UpsertIdentity(ctx context.Context, db *gorm.DB, p *domain.PlatformIdentity) error {
	p.UpdatedAt = time.Now().UTC()
	return db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			UpdateAll: true,
		}).
		Create(p).Error
}

// GetIdentity fetches one platform identity.
func GetIdentity(ctx context.Context, db *gorm.DB, id string) (*domain.PlatformIdentity, error) {
	var p domain.PlatformIdentity
	if err := db.WithContext(ctx).Where("id = ?", id).First(&p).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

// GetIdentities loads the identities with the given ids. Missing ids are
// simply absent from the map.
func GetIdentities(ctx context.Context, db *gorm.DB, ids []string) (map[string]domain.PlatformIdentity, error) {
	out := make(map[string]domain.PlatformIdentity, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var rows []domain.PlatformIdentity
	if err := db.WithContext(ctx).Where("id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, err
	}
	for _, p := range rows {
		out[p.ID] = p
	}
	return out, nil
}

// FindIdentityByEmail returns the identity registered with the normalized
// email, or ErrNotFound.
func FindIdentityByEmail(ctx context.Context, db *gorm.DB, email string) (*domain.PlatformIdentity, error) {
	var p domain.PlatformIdentity
	err := db.WithContext(ctx).
		Where("email = ?", email).
		Order("id asc").
		First(&p).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}
