// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides small aggregate/statistics queries used
// primarily for conditional responses (e.g., ETag generation) in the HTTP
// layer. Each function is context-aware and safe to call from services or
// handlers.
package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/go-intro-broker/internal/domain"
)

// IntroductionsStats returns aggregate metadata for the introductions visible
// to userID: the total number of rows and the maximum UpdatedAt timestamp.
//
// When the user has no introductions, the returned count is 0 and
// maxUpdatedAt is nil.
func IntroductionsStats(ctx context.Context, db *gorm.DB, userID string) (count int64, maxUpdatedAt *time.Time, err error) {
	q := db.WithContext(ctx).
		Model(&domain.Introduction{}).
		Where("introducer_id = ? OR person_a_identity_id = ? OR person_b_identity_id = ?", userID, userID, userID)

	if err = q.Count(&count).Error; err != nil {
		return 0, nil, err
	}
	if count == 0 {
		return 0, nil, nil
	}

	// Get latest updated_at (avoid MAX() -> TEXT in SQLite)
	var row struct {
		UpdatedAt time.Time
	}
	if err = q.Select("updated_at").Order("updated_at DESC").Limit(1).Scan(&row).Error; err != nil {
		return 0, nil, err
	}
	return count, &row.UpdatedAt, nil
}

// BatchStats summarises a dispatch batch owned by ownerID: record count, how
// many are sent, and the latest attempt time. A batch that is missing, empty
// or owned by someone else reports zero and nil.
func BatchStats(ctx context.Context, db *gorm.DB, ownerID, batchID string) (count, sent int64, lastAttempt *time.Time, err error) {
	owned := db.WithContext(ctx).Model(&domain.DispatchBatch{}).
		Select("id").
		Where("id = ? AND owner_id = ?", batchID, ownerID)
	q := db.WithContext(ctx).Model(&domain.DispatchRecord{}).
		Where("batch_id = ? AND batch_id IN (?)", batchID, owned)

	if err = q.Count(&count).Error; err != nil {
		return 0, 0, nil, err
	}
	if count == 0 {
		return 0, 0, nil, nil
	}
	if err = db.WithContext(ctx).Model(&domain.DispatchRecord{}).
		Where("batch_id = ? AND batch_id IN (?) AND sent = ?", batchID, owned, true).
		Count(&sent).Error; err != nil {
		return 0, 0, nil, err
	}

	var row struct {
		AttemptedAt time.Time
	}
	if err = q.Select("attempted_at").Order("attempted_at DESC").Limit(1).Scan(&row).Error; err != nil {
		return 0, 0, nil, err
	}
	return count, sent, &row.AttemptedAt, nil
}
