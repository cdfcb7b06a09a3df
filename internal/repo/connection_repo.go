// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for connection
// requests and confirmed connection edges.
//
// ResolveConnectionRequest is the compare-and-set transition: it only moves a
// request that is still pending and addressed to the responder, and on
// acceptance upserts the edge in the same transaction. Callers inspect the
// returned row count to tell a winning transition from a lost race.
package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tbourn/go-intro-broker/internal/domain"
)

// Direction selects which side of a request a listing is for.
type Direction string

const (
	Incoming Direction = "incoming"
	Outgoing Direction = "outgoing"
)

// CreateConnectionRequest inserts a pending request. A second pending request
// for the same unordered pair violates ux_request_pending_pair and yields
// ErrDuplicate.
func CreateConnectionRequest(ctx context.Context, db *gorm.DB, fromID, toID, note string) (*domain.ConnectionRequest, error) {
	pair := domain.PairKey(fromID, toID)
	r := &domain.ConnectionRequest{
		ID:          uuid.NewString(),
		FromID:      fromID,
		ToID:        toID,
		Note:        note,
		Status:      domain.RequestPending,
		PendingPair: &pair,
		CreatedAt:   time.Now().UTC(),
	}
	if err := db.WithContext(ctx).Create(r).Error; err != nil {
		if IsDuplicate(err) {
			return nil, ErrDuplicate
		}
		return nil, err
	}
	return r, nil
}

// GetConnectionRequest fetches one request by id.
func GetConnectionRequest(ctx context.Context, db *gorm.DB, id string) (*domain.ConnectionRequest, error) {
	var r domain.ConnectionRequest
	if err := db.WithContext(ctx).Where("id = ?", id).First(&r).Error; err != nil {
		return nil, err
	}
	return &r, nil
}

// ListPendingRequests returns a page of pending requests to (incoming) or
// from (outgoing) userID, newest first, plus the total.
func ListPendingRequests(ctx context.Context, db *gorm.DB, userID string, dir Direction, offset, limit int) ([]domain.ConnectionRequest, int64, error) {
	col := "to_id"
	if dir == Outgoing {
		col = "from_id"
	}
	q := db.WithContext(ctx).
		Model(&domain.ConnectionRequest{}).
		Where(col+" = ? AND status = ?", userID, domain.RequestPending)

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var out []domain.ConnectionRequest
	err := q.Order("created_at desc, id asc").Offset(offset).Limit(limit).Find(&out).Error
	return out, total, err
}

// ResolveConnectionRequest moves a pending request addressed to responderID
// to status. It returns the number of rows transitioned (0 or 1). When the
// transition wins and status is accepted, the connection edge is upserted in
// the same transaction.
func ResolveConnectionRequest(ctx context.Context, db *gorm.DB, id, responderID string, status domain.RequestStatus, now time.Time) (int64, error) {
	var rows int64
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// the write comes first so the transaction never upgrades a read lock
		res := tx.Model(&domain.ConnectionRequest{}).
			Where("id = ? AND status = ? AND to_id = ?", id, domain.RequestPending, responderID).
			Updates(map[string]any{
				"status":       status,
				"pending_pair": nil,
				"responded_at": now,
			})
		if res.Error != nil {
			return res.Error
		}
		rows = res.RowsAffected
		if rows == 0 || status != domain.RequestAccepted {
			return nil
		}
		var r domain.ConnectionRequest
		if err := tx.Where("id = ?", id).First(&r).Error; err != nil {
			return err
		}
		return UpsertEdge(ctx, tx, r.FromID, r.ToID, r.ID, now)
	})
	if err != nil {
		return 0, err
	}
	return rows, nil
}

// UpsertEdge creates the edge for (a, b) unless it already exists.
func UpsertEdge(ctx context.Context, db *gorm.DB, a, b, requestID string, now time.Time) error {
	lo, hi := domain.OrderedPair(a, b)
	e := &domain.ConnectionEdge{
		ID:        uuid.NewString(),
		UserLo:    lo,
		UserHi:    hi,
		RequestID: requestID,
		CreatedAt: now,
	}
	return db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_lo"}, {Name: "user_hi"}},
			DoNothing: true,
		}).
		Create(e).Error
}

// EdgeExists reports whether a and b are connected.
func EdgeExists(ctx context.Context, db *gorm.DB, a, b string) (bool, error) {
	n, err := CountEdges(ctx, db, a, b)
	return n > 0, err
}

// CountEdges returns the number of edges between a and b (0 or 1 when the
// unique index holds).
func CountEdges(ctx context.Context, db *gorm.DB, a, b string) (int64, error) {
	lo, hi := domain.OrderedPair(a, b)
	var n int64
	err := db.WithContext(ctx).
		Model(&domain.ConnectionEdge{}).
		Where("user_lo = ? AND user_hi = ?", lo, hi).
		Count(&n).Error
	return n, err
}

// ListEdges returns every edge touching userID, oldest first.
func ListEdges(ctx context.Context, db *gorm.DB, userID string) ([]domain.ConnectionEdge, error) {
	var out []domain.ConnectionEdge
	err := db.WithContext(ctx).
		Where("user_lo = ? OR user_hi = ?", userID, userID).
		Order("created_at asc, id asc").
		Find(&out).Error
	return out, err
}

// ListConnectedIdentities returns the confirmed connections of userID as
// identities, in edge order. Identities missing from the read model are
// returned with only their ID set.
func ListConnectedIdentities(ctx context.Context, db *gorm.DB, userID string) ([]domain.PlatformIdentity, error) {
	edges, err := ListEdges(ctx, db, userID)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(edges))
	for _, e := range edges {
		ids = append(ids, e.Other(userID))
	}
	known, err := GetIdentities(ctx, db, ids)
	if err != nil {
		return nil, err
	}
	out := make([]domain.PlatformIdentity, 0, len(ids))
	for _, id := range ids {
		if p, ok := known[id]; ok {
			out = append(out, p)
			continue
		}
		out = append(out, domain.PlatformIdentity{ID: id})
	}
	return out, nil
}
