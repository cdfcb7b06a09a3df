// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for introductions.
//
// Introductions are versioned: SaveIntroductionCAS writes the new flags and
// derived status only if the row still carries the version the caller read,
// and bumps it. A false return means another writer got there first.
package repo

import (
	"context"

	"gorm.io/gorm"

	"github.com/tbourn/go-intro-broker/internal/domain"
)

// CreateIntroduction inserts in as-is (the service builds it).
func CreateIntroduction(ctx context.Context, db *gorm.DB, in *domain.Introduction) error {
	return db.WithContext(ctx).Create(in).Error
}

// GetIntroduction fetches one introduction by id.
func GetIntroduction(ctx context.Context, db *gorm.DB, id string) (*domain.Introduction, error) {
	var in domain.Introduction
	if err := db.WithContext(ctx).Where("id = ?", id).First(&in).Error; err != nil {
		return nil, err
	}
	return &in, nil
}

// ListIntroductions returns a page of introductions userID brokered or is a
// linked party of, newest first, plus the total.
func ListIntroductions(ctx context.Context, db *gorm.DB, userID string, offset, limit int) ([]domain.Introduction, int64, error) {
	q := db.WithContext(ctx).
		Model(&domain.Introduction{}).
		Where("introducer_id = ? OR person_a_identity_id = ? OR person_b_identity_id = ?", userID, userID, userID)

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var out []domain.Introduction
	err := q.Order("created_at desc, id asc").Offset(offset).Limit(limit).Find(&out).Error
	return out, total, err
}

// SaveIntroductionCAS persists the response fields of next if the stored row
// is still at expectedVersion. On success next.Version is advanced.
func SaveIntroductionCAS(ctx context.Context, db *gorm.DB, next *domain.Introduction, expectedVersion int) (bool, error) {
	res := db.WithContext(ctx).
		Model(&domain.Introduction{}).
		Where("id = ? AND version = ?", next.ID, expectedVersion).
		Updates(map[string]any{
			"person_a_accepted": next.AAccepted,
			"person_b_accepted": next.BAccepted,
			"declined":          next.Declined,
			"declined_by":       next.DeclinedBy,
			"status":            next.Derived(),
			"version":           expectedVersion + 1,
			"updated_at":        next.UpdatedAt,
		})
	if res.Error != nil {
		return false, res.Error
	}
	if res.RowsAffected == 0 {
		return false, nil
	}
	next.Version = expectedVersion + 1
	next.Status = next.Derived()
	return true, nil
}
