// Package services – ConnectionService
//
// ConnectionService drives the 1:1 connection handshake. Responding is a
// compare-and-set on the pending status executed by the repository; when the
// update touches no row the request is reloaded to tell the caller why
// (missing, not addressed to them, or already resolved).
package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/tbourn/go-intro-broker/internal/domain"
	"github.com/tbourn/go-intro-broker/internal/repo"
)

// ConnectionService manages connection requests and edges.
type ConnectionService struct {
	DB  *gorm.DB
	Now func() time.Time
}

// NewConnectionService constructs a ConnectionService.
func NewConnectionService(db *gorm.DB) *ConnectionService {
	return &ConnectionService{DB: db, Now: func() time.Time { return time.Now().UTC() }}
}

// Send opens a pending request from fromID to toID.
func (s *ConnectionService) Send(ctx context.Context, fromID, toID, note string) (*domain.ConnectionRequest, error) {
	ctx, span := otel.Tracer("services/ConnectionService").Start(ctx, "Send",
		trace.WithAttributes(attribute.String("user.id", fromID), attribute.String("to.id", toID)))
	defer span.End()

	fromID, toID = strings.TrimSpace(fromID), strings.TrimSpace(toID)
	if fromID == "" || toID == "" {
		return nil, fmt.Errorf("%w: both parties are required", ErrInvalidRequest)
	}
	if fromID == toID {
		return nil, fmt.Errorf("%w: %w", ErrInvalidRequest, domain.ErrRequestToSelf)
	}
	connected, err := repo.EdgeExists(ctx, s.DB, fromID, toID)
	if err != nil {
		return nil, err
	}
	if connected {
		return nil, ErrAlreadyConnected
	}
	r, err := repo.CreateConnectionRequest(ctx, s.DB, fromID, toID, strings.TrimSpace(note))
	if errors.Is(err, repo.ErrDuplicate) {
		return nil, ErrDuplicateRequest
	}
	return r, err
}

// Respond accepts or declines a pending request addressed to responderID.
// Of two concurrent responses exactly one wins; the other gets
// ErrAlreadyResolved.
func (s *ConnectionService) Respond(ctx context.Context, requestID, responderID string, action domain.Action) (*domain.ConnectionRequest, error) {
	ctx, span := otel.Tracer("services/ConnectionService").Start(ctx, "Respond",
		trace.WithAttributes(
			attribute.String("request.id", requestID),
			attribute.String("user.id", responderID),
			attribute.String("action", string(action)),
		))
	defer span.End()

	if !action.Valid() {
		return nil, fmt.Errorf("%w: %w", ErrInvalidRequest, domain.ErrUnknownAction)
	}
	status := domain.RequestDeclined
	if action == domain.ActionAccept {
		status = domain.RequestAccepted
	}

	rows, err := repo.ResolveConnectionRequest(ctx, s.DB, requestID, responderID, status, s.Now())
	if err != nil {
		return nil, err
	}
	r, gerr := repo.GetConnectionRequest(ctx, s.DB, requestID)
	if rows == 1 {
		if gerr != nil {
			return nil, gerr
		}
		transitions.WithLabelValues("connection_request", string(status)).Inc()
		return r, nil
	}

	switch {
	case errors.Is(gerr, repo.ErrNotFound):
		transitions.WithLabelValues("connection_request", "not_found").Inc()
		return nil, ErrNotFound
	case gerr != nil:
		return nil, gerr
	case r.ToID != responderID:
		transitions.WithLabelValues("connection_request", "forbidden").Inc()
		return nil, ErrForbidden
	default:
		transitions.WithLabelValues("connection_request", "already_resolved").Inc()
		return nil, ErrAlreadyResolved
	}
}

// Get returns a request visible to callerID, its sender or addressee.
func (s *ConnectionService) Get(ctx context.Context, id, callerID string) (*domain.ConnectionRequest, error) {
	ctx, span := otel.Tracer("services/ConnectionService").Start(ctx, "Get",
		trace.WithAttributes(attribute.String("request.id", id), attribute.String("user.id", callerID)))
	defer span.End()

	r, err := repo.GetConnectionRequest(ctx, s.DB, id)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if r.FromID != callerID && r.ToID != callerID {
		return nil, ErrNotFound
	}
	return r, nil
}

// ListPending returns a page of pending requests for userID in direction dir.
func (s *ConnectionService) ListPending(ctx context.Context, userID string, dir repo.Direction, page, pageSize int) ([]domain.ConnectionRequest, int64, error) {
	ctx, span := otel.Tracer("services/ConnectionService").Start(ctx, "ListPending",
		trace.WithAttributes(
			attribute.String("user.id", userID),
			attribute.String("direction", string(dir)),
			attribute.Int("page", page),
			attribute.Int("page_size", pageSize),
		))
	defer span.End()

	if dir != repo.Incoming && dir != repo.Outgoing {
		return nil, 0, fmt.Errorf("%w: direction must be incoming or outgoing", ErrInvalidRequest)
	}
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	items, total, err := repo.ListPendingRequests(ctx, s.DB, userID, dir, (page-1)*pageSize, pageSize)
	if err != nil {
		return nil, 0, err
	}
	if items == nil {
		items = []domain.ConnectionRequest{}
	}
	return items, total, nil
}

// Connections lists userID's confirmed connections.
func (s *ConnectionService) Connections(ctx context.Context, userID string) ([]domain.PlatformIdentity, error) {
	ctx, span := otel.Tracer("services/ConnectionService").Start(ctx, "Connections",
		trace.WithAttributes(attribute.String("user.id", userID)))
	defer span.End()

	return repo.ListConnectedIdentities(ctx, s.DB, userID)
}
