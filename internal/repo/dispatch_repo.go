// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides the dispatch ledger: batches and one
// record per (batch_id, recipient_id).
//
// Sending to a recipient is a three step protocol:
//
//  1. ClaimDispatch marks the record "sending" under a fresh claim token. It
//     succeeds only for a new record, a failed one, or a "sending" claim
//     whose lease has expired. A record with sent=true is never claimed, and
//     neither is a recipient whose aliases match a sent record of the batch.
//  2. The caller sends.
//  3. FinalizeDispatch records the outcome, but only while the caller still
//     holds the claim token.
//
// The claim runs in one transaction and the other steps are single
// conditional statements, so two concurrent callers can never both hold the
// claim for the same pair.
package repo

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tbourn/go-intro-broker/internal/domain"
)

// ClaimOutcome is the result of ClaimDispatch.
type ClaimOutcome int

const (
	// Claimed: the caller holds the record and must send then finalize.
	Claimed ClaimOutcome = iota
	// AlreadySent: the recipient was delivered earlier in this batch.
	AlreadySent
	// Busy: another caller holds a live claim.
	Busy
)

// EnsureBatch creates the batch row if missing and returns the stored row.
// The first writer's owner/template/channel win.
func EnsureBatch(ctx context.Context, db *gorm.DB, b *domain.DispatchBatch) (*domain.DispatchBatch, error) {
	if b.CreatedAt.IsZero() {
		b.CreatedAt = time.Now().UTC()
	}
	err := db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "id"}}, DoNothing: true}).
		Create(b).Error
	if err != nil {
		return nil, err
	}
	return GetBatch(ctx, db, b.ID)
}

// GetBatch fetches one batch.
func GetBatch(ctx context.Context, db *gorm.DB, id string) (*domain.DispatchBatch, error) {
	var b domain.DispatchBatch
	if err := db.WithContext(ctx).Where("id = ?", id).First(&b).Error; err != nil {
		return nil, err
	}
	return &b, nil
}

// ListDispatchRecords returns every record of a batch in first-attempt order.
func ListDispatchRecords(ctx context.Context, db *gorm.DB, batchID string) ([]domain.DispatchRecord, error) {
	var out []domain.DispatchRecord
	err := db.WithContext(ctx).
		Where("batch_id = ?", batchID).
		Order("recipient_id asc").
		Find(&out).Error
	return out, err
}

// GetDispatchRecord fetches the record for one recipient.
func GetDispatchRecord(ctx context.Context, db *gorm.DB, batchID, recipientID string) (*domain.DispatchRecord, error) {
	var r domain.DispatchRecord
	err := db.WithContext(ctx).
		Where("batch_id = ? AND recipient_id = ?", batchID, recipientID).
		First(&r).Error
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// SentRecords returns the records of batchID already delivered.
func SentRecords(ctx context.Context, db *gorm.DB, batchID string) ([]domain.DispatchRecord, error) {
	var out []domain.DispatchRecord
	err := db.WithContext(ctx).
		Where("batch_id = ? AND sent = ?", batchID, true).
		Find(&out).Error
	return out, err
}

// ClaimDispatch tries to take the send claim for (batchID, recipientID).
// A sent record of the same batch under any of aliases counts as this
// recipient already delivered. On Claimed the returned token must be passed
// to FinalizeDispatch.
func ClaimDispatch(ctx context.Context, db *gorm.DB, batchID, recipientID string, aliases domain.RecipientAliases, now time.Time, lease time.Duration) (ClaimOutcome, string, error) {
	token := uuid.NewString()
	outcome := Busy
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if !aliases.Empty() {
			where, args := aliasCondition(aliases)
			var n int64
			err := tx.Model(&domain.DispatchRecord{}).
				Where("batch_id = ? AND sent = ? AND recipient_id <> ?", batchID, true, recipientID).
				Where(where, args...).
				Count(&n).Error
			if err != nil {
				return err
			}
			if n > 0 {
				outcome = AlreadySent
				return nil
			}
		}

		rec := &domain.DispatchRecord{
			ID:          uuid.NewString(),
			BatchID:     batchID,
			RecipientID: recipientID,
			State:       domain.DispatchSending,
			Attempts:    1,
			ClaimToken:  token,
			IdentityID:  aliases.IdentityID,
			ContactID:   aliases.ContactID,
			Email:       aliases.Email,
			Phone:       aliases.Phone,
			AttemptedAt: now,
		}
		res := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "batch_id"}, {Name: "recipient_id"}},
			DoNothing: true,
		}).Create(rec)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 1 {
			outcome = Claimed
			return nil
		}

		res = tx.Model(&domain.DispatchRecord{}).
			Where("batch_id = ? AND recipient_id = ? AND sent = ? AND (state <> ? OR attempted_at < ?)",
				batchID, recipientID, false, domain.DispatchSending, now.Add(-lease)).
			Updates(map[string]any{
				"state":          domain.DispatchSending,
				"claim_token":    token,
				"attempts":       gorm.Expr("attempts + 1"),
				"attempted_at":   now,
				"failure_reason": nil,
				"identity_id":    aliases.IdentityID,
				"contact_id":     aliases.ContactID,
				"email":          aliases.Email,
				"phone":          aliases.Phone,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 1 {
			outcome = Claimed
			return nil
		}

		var cur domain.DispatchRecord
		if err := tx.Where("batch_id = ? AND recipient_id = ?", batchID, recipientID).First(&cur).Error; err != nil {
			return err
		}
		if cur.Sent {
			outcome = AlreadySent
		}
		return nil
	})
	if err != nil {
		return Busy, "", err
	}
	if outcome != Claimed {
		return outcome, "", nil
	}
	return Claimed, token, nil
}

// aliasCondition ORs together the non-empty aliases.
func aliasCondition(a domain.RecipientAliases) (string, []any) {
	var (
		conds []string
		args  []any
	)
	add := func(col, v string) {
		if v != "" {
			conds = append(conds, col+" = ?")
			args = append(args, v)
		}
	}
	add("identity_id", a.IdentityID)
	add("contact_id", a.ContactID)
	add("email", a.Email)
	add("phone", a.Phone)
	return "(" + strings.Join(conds, " OR ") + ")", args
}

// FinalizeDispatch records the outcome of a claimed send. It returns false if
// the claim was lost (lease expired and another caller re-claimed).
func FinalizeDispatch(ctx context.Context, db *gorm.DB, batchID, recipientID, token string, sent bool, reason *string, now time.Time) (bool, error) {
	fields := map[string]any{
		"state":          domain.DispatchFailed,
		"sent":           false,
		"failure_reason": reason,
	}
	if sent {
		fields["state"] = domain.DispatchSent
		fields["sent"] = true
		fields["sent_at"] = now
		fields["failure_reason"] = nil
	}
	res := db.WithContext(ctx).
		Model(&domain.DispatchRecord{}).
		Where("batch_id = ? AND recipient_id = ? AND claim_token = ? AND state = ?",
			batchID, recipientID, token, domain.DispatchSending).
		Updates(fields)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}
