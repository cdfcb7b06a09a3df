// Package services – IntroductionService
//
// IntroductionService brokers double opt-in introductions. Responses are
// applied with domain.Introduction.Apply and persisted with a compare-and-set
// on the version column. A lost compare-and-set reloads and re-evaluates, so
// concurrent accepts from different sides both land while a second accept
// from the same side is rejected as already resolved.
package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/tbourn/go-intro-broker/internal/domain"
	"github.com/tbourn/go-intro-broker/internal/repo"
)

const defaultCASRetries = 5

// IntroductionNotifier delivers the introduction emails after creation.
type IntroductionNotifier interface {
	NotifyIntroduction(ctx context.Context, in *domain.Introduction, introducerName string) []DispatchResult
}

// Counterpart is "who is this introduction with" for one side.
type Counterpart struct {
	Side               domain.Side `json:"side"`
	Name               string      `json:"name"`
	Email              string      `json:"email"`
	Company            *string     `json:"company,omitempty"`
	PictureURL         *string     `json:"picture_url,omitempty"`
	PlatformIdentityID *string     `json:"platform_identity_id,omitempty"`
	Source             string      `json:"source"` // identity|static
}

// IntroductionService manages introductions.
type IntroductionService struct {
	DB         *gorm.DB
	Notifier   IntroductionNotifier // nil disables creation emails
	MaxRetries int
	Now        func() time.Time
}

// NewIntroductionService constructs an IntroductionService.
func NewIntroductionService(db *gorm.DB, notifier IntroductionNotifier) *IntroductionService {
	return &IntroductionService{
		DB:         db,
		Notifier:   notifier,
		MaxRetries: defaultCASRetries,
		Now:        func() time.Time { return time.Now().UTC() },
	}
}

// Create validates the parties and stores a pending introduction. Parties
// without a platform id are linked when their email belongs to a known
// identity. Notification results are returned alongside; a failed email
// never undoes the introduction.
func (s *IntroductionService) Create(ctx context.Context, introducerID string, a, b domain.Party, message string) (*domain.Introduction, []DispatchResult, error) {
	ctx, span := otel.Tracer("services/IntroductionService").Start(ctx, "Create",
		trace.WithAttributes(attribute.String("user.id", introducerID)))
	defer span.End()

	if strings.TrimSpace(introducerID) == "" {
		return nil, nil, fmt.Errorf("%w: introducer is required", ErrInvalidRequest)
	}
	in, err := domain.NewIntroduction(uuid.NewString(), introducerID, a, b, message, s.Now())
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %w", ErrInvalidIntroduction, err)
	}
	if err := s.link(ctx, &in.AIdentityID, in.AEmail); err != nil {
		return nil, nil, err
	}
	if err := s.link(ctx, &in.BIdentityID, in.BEmail); err != nil {
		return nil, nil, err
	}
	if in.AIdentityID != nil && in.BIdentityID != nil && *in.AIdentityID == *in.BIdentityID {
		return nil, nil, fmt.Errorf("%w: %w", ErrInvalidIntroduction, domain.ErrSamePerson)
	}
	if err := repo.CreateIntroduction(ctx, s.DB, in); err != nil {
		return nil, nil, err
	}
	transitions.WithLabelValues("introduction", "created").Inc()

	var notes []DispatchResult
	if s.Notifier != nil {
		notes = s.Notifier.NotifyIntroduction(ctx, in, s.introducerName(ctx, introducerID))
	}
	return in, notes, nil
}

func (s *IntroductionService) link(ctx context.Context, id **string, email string) error {
	if *id != nil {
		return nil
	}
	p, err := repo.FindIdentityByEmail(ctx, s.DB, email)
	if errors.Is(err, repo.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	*id = &p.ID
	return nil
}

func (s *IntroductionService) introducerName(ctx context.Context, id string) string {
	if p, err := repo.GetIdentity(ctx, s.DB, id); err == nil && p.Name() != "" {
		return p.Name()
	}
	return id
}

// Respond applies action for side on behalf of callerID.
//
// Authorisation: the introducer never responds; when the side is linked to
// a platform identity only that identity may respond; an unlinked side may
// be answered by any other caller (the email link is authenticated upstream).
func (s *IntroductionService) Respond(ctx context.Context, id, callerID string, side domain.Side, action domain.Action) (*domain.Introduction, error) {
	ctx, span := otel.Tracer("services/IntroductionService").Start(ctx, "Respond",
		trace.WithAttributes(
			attribute.String("introduction.id", id),
			attribute.String("user.id", callerID),
			attribute.String("side", string(side)),
			attribute.String("action", string(action)),
		))
	defer span.End()

	if side != domain.SideA && side != domain.SideB {
		return nil, fmt.Errorf("%w: side must be A or B", ErrInvalidRequest)
	}
	if !action.Valid() {
		return nil, fmt.Errorf("%w: %w", ErrInvalidRequest, domain.ErrUnknownAction)
	}

	for attempt := 0; ; attempt++ {
		in, err := s.load(ctx, id)
		if err != nil {
			return nil, err
		}
		if err := authorize(in, callerID, side); err != nil {
			transitions.WithLabelValues("introduction", "forbidden").Inc()
			return nil, err
		}
		next, err := in.Apply(side, action)
		if err != nil {
			if errors.Is(err, domain.ErrTerminal) || errors.Is(err, domain.ErrSideResponded) {
				transitions.WithLabelValues("introduction", "already_resolved").Inc()
				return nil, fmt.Errorf("%w: %w", ErrAlreadyResolved, err)
			}
			return nil, fmt.Errorf("%w: %w", ErrInvalidRequest, err)
		}
		next.UpdatedAt = s.Now()
		ok, err := repo.SaveIntroductionCAS(ctx, s.DB, &next, in.Version)
		if err != nil {
			return nil, err
		}
		if ok {
			transitions.WithLabelValues("introduction", string(next.Status)).Inc()
			return &next, nil
		}
		casRetries.Inc()
		if attempt >= s.MaxRetries {
			return nil, ErrConcurrentUpdate
		}
	}
}

func authorize(in *domain.Introduction, callerID string, side domain.Side) error {
	if callerID == "" || callerID == in.IntroducerID {
		return ErrForbidden
	}
	if pid := domain.Deref(in.Person(side).PlatformIdentityID); pid != "" && pid != callerID {
		return ErrForbidden
	}
	return nil
}

func (s *IntroductionService) load(ctx context.Context, id string) (*domain.Introduction, error) {
	in, err := repo.GetIntroduction(ctx, s.DB, id)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, ErrNotFound
	}
	return in, err
}

// Get returns one introduction.
func (s *IntroductionService) Get(ctx context.Context, id string) (*domain.Introduction, error) {
	ctx, span := otel.Tracer("services/IntroductionService").Start(ctx, "Get",
		trace.WithAttributes(attribute.String("introduction.id", id)))
	defer span.End()

	return s.load(ctx, id)
}

// List returns a page of introductions userID brokered or takes part in.
func (s *IntroductionService) List(ctx context.Context, userID string, page, pageSize int) ([]domain.Introduction, int64, error) {
	ctx, span := otel.Tracer("services/IntroductionService").Start(ctx, "List",
		trace.WithAttributes(
			attribute.String("user.id", userID),
			attribute.Int("page", page),
			attribute.Int("page_size", pageSize),
		))
	defer span.End()

	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	items, total, err := repo.ListIntroductions(ctx, s.DB, userID, (page-1)*pageSize, pageSize)
	if err != nil {
		return nil, 0, err
	}
	if items == nil {
		items = []domain.Introduction{}
	}
	return items, total, nil
}

// Counterpart returns the party on the other side of side. A live platform
// identity supplies name, company and picture; fields it lacks, or a missing
// identity, fall back to what was captured at creation.
func (s *IntroductionService) Counterpart(ctx context.Context, id string, side domain.Side) (*Counterpart, error) {
	ctx, span := otel.Tracer("services/IntroductionService").Start(ctx, "Counterpart",
		trace.WithAttributes(attribute.String("introduction.id", id), attribute.String("side", string(side))))
	defer span.End()

	if side != domain.SideA && side != domain.SideB {
		return nil, fmt.Errorf("%w: side must be A or B", ErrInvalidRequest)
	}
	in, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	otherSide := side.Other()
	p := in.Person(otherSide)
	out := &Counterpart{
		Side:               otherSide,
		Name:               p.Name,
		Email:              p.Email,
		Company:            p.Company,
		PlatformIdentityID: p.PlatformIdentityID,
		Source:             "static",
	}
	pid := domain.Deref(p.PlatformIdentityID)
	if pid == "" {
		return out, nil
	}
	live, err := repo.GetIdentity(ctx, s.DB, pid)
	if errors.Is(err, repo.ErrNotFound) {
		return out, nil
	}
	if err != nil {
		return nil, err
	}
	out.Source = "identity"
	if n := live.Name(); n != "" {
		out.Name = n
	}
	if live.Company != nil {
		out.Company = live.Company
	}
	out.PictureURL = live.PictureURL
	return out, nil
}
