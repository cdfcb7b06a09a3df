// Package services – DispatchService
//
// DispatchService sends one rendered message per recipient of a batch and
// records the outcome in the dispatch ledger. Every recipient goes through
// the same claim, send, finalize sequence, so repeating a dispatch never
// resends a recipient already marked sent and a failed recipient is simply
// claimed again.
//
// Recipients are independent: a failure is reported for that recipient only.
// Sends run on an errgroup bounded by Concurrency and paced by an optional
// token-bucket limiter. The service never retries a send itself.
package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
	"gorm.io/gorm"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/tbourn/go-intro-broker/internal/domain"
	"github.com/tbourn/go-intro-broker/internal/identity"
	"github.com/tbourn/go-intro-broker/internal/outbound"
	"github.com/tbourn/go-intro-broker/internal/render"
	"github.com/tbourn/go-intro-broker/internal/repo"
)

// Template types with engine-side behaviour.
const (
	TemplateConnectionRequest   = "connection_request"
	TemplateIntroductionRequest = "introduction_request"
)

// Per-recipient failure codes.
const (
	CodeNotFound    = "not_found"
	CodeInProgress  = "dispatch_in_progress"
	CodeNoAddress   = "no_address"
	CodeSendFailed  = "send_failed"
	CodeInterrupted = "interrupted"
)

const maxBatchIDLen = 64

// DispatchRequest describes one dispatch call. Exactly one of RecipientIDs
// and Remaining selects the targets.
type DispatchRequest struct {
	BatchID      string
	OwnerID      string
	RecipientIDs []string
	Remaining    bool
	TemplateType string
	Channel      domain.Channel
	Overrides    *Overrides
	Context      render.Context
}

// DispatchResult is the outcome for one recipient.
type DispatchResult struct {
	RecipientID string           `json:"recipient_id"`
	Sent        bool             `json:"sent"`
	Skipped     bool             `json:"skipped,omitempty"`
	Code        string           `json:"code,omitempty"`
	Error       string           `json:"error,omitempty"`
	Warnings    []render.Warning `json:"warnings,omitempty"`
	Err         error            `json:"-"`
}

// BatchView is a batch with its ledger.
type BatchView struct {
	Batch       domain.DispatchBatch    `json:"batch"`
	Records     []domain.DispatchRecord `json:"records"`
	Count       int64                   `json:"count"`
	Sent        int64                   `json:"sent"`
	LastAttempt *time.Time              `json:"last_attempt,omitempty"`
}

// DispatchService coordinates batch sends.
type DispatchService struct {
	DB          *gorm.DB
	Contacts    *ContactService
	Connections *ConnectionService
	Renderer    *RenderService
	Sender      outbound.Sender

	Concurrency int
	Limiter     *rate.Limiter // nil disables pacing
	Lease       time.Duration
	BaseURL     string
	Now         func() time.Time
}

// NewDispatchService constructs a DispatchService. rps <= 0 disables pacing.
func NewDispatchService(db *gorm.DB, contacts *ContactService, conns *ConnectionService, renderer *RenderService, sender outbound.Sender, concurrency int, rps float64, lease time.Duration) *DispatchService {
	s := &DispatchService{
		DB:          db,
		Contacts:    contacts,
		Connections: conns,
		Renderer:    renderer,
		Sender:      sender,
		Concurrency: concurrency,
		Lease:       lease,
		Now:         func() time.Time { return time.Now().UTC() },
	}
	if rps > 0 {
		s.Limiter = rate.NewLimiter(rate.Limit(rps), max(1, int(rps)))
	}
	return s
}

// target is one recipient slot of a dispatch. recipient is nil when the id
// did not resolve.
type target struct {
	id        string
	recipient *domain.CanonicalRecipient
}

// Dispatch sends the template to every selected recipient of the batch. The
// returned error is non-nil only when the whole call is rejected (bad input,
// unknown template, batch owned by someone else, storage failure while
// planning); per-recipient problems are reported in the results.
func (s *DispatchService) Dispatch(ctx context.Context, req DispatchRequest) ([]DispatchResult, error) {
	ctx, span := otel.Tracer("services/DispatchService").Start(ctx, "Dispatch",
		trace.WithAttributes(
			attribute.String("batch.id", req.BatchID),
			attribute.String("user.id", req.OwnerID),
			attribute.String("template.type", req.TemplateType),
			attribute.String("template.channel", string(req.Channel)),
			attribute.Bool("remaining", req.Remaining),
		))
	defer span.End()

	req.BatchID = strings.TrimSpace(req.BatchID)
	if req.BatchID == "" || len(req.BatchID) > maxBatchIDLen {
		return nil, fmt.Errorf("%w: batch id must be 1..%d characters", ErrInvalidRequest, maxBatchIDLen)
	}
	if !req.Channel.Valid() {
		return nil, fmt.Errorf("%w: channel must be EMAIL or SMS", ErrInvalidRequest)
	}
	if req.Remaining == (len(req.RecipientIDs) > 0) {
		return nil, fmt.Errorf("%w: give either recipient ids or remaining", ErrInvalidRequest)
	}
	tmpl, err := s.Renderer.Template(req.TemplateType, req.Channel, req.Overrides)
	if err != nil {
		return nil, err
	}

	batch, err := repo.EnsureBatch(ctx, s.DB, &domain.DispatchBatch{
		ID:           req.BatchID,
		OwnerID:      req.OwnerID,
		TemplateType: tmpl.Type,
		Channel:      req.Channel,
	})
	if err != nil {
		return nil, err
	}
	if batch.OwnerID != req.OwnerID {
		return nil, ErrForbidden
	}

	recipients, err := s.Contacts.Resolve(ctx, req.OwnerID, "")
	if err != nil {
		return nil, err
	}
	targets, err := s.plan(ctx, req, recipients)
	if err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.Int("targets", len(targets)))

	rctx := s.senderContext(ctx, req.OwnerID, req.Context)
	results := s.fanOut(ctx, batch.ID, targets, tmpl, func(domain.CanonicalRecipient) render.Context { return rctx })

	if tmpl.Type == TemplateConnectionRequest && s.Connections != nil {
		s.openRequests(ctx, req.OwnerID, targets, results)
	}
	return results, nil
}

// plan resolves the targets of a dispatch in request order.
func (s *DispatchService) plan(ctx context.Context, req DispatchRequest, recipients []domain.CanonicalRecipient) ([]target, error) {
	if req.Remaining {
		sent, err := repo.SentRecords(ctx, s.DB, req.BatchID)
		if err != nil {
			return nil, err
		}
		out := make([]target, 0, len(recipients))
		for i := range recipients {
			if alreadySent(sent, recipients[i]) {
				continue
			}
			out = append(out, target{id: recipients[i].ID, recipient: &recipients[i]})
		}
		return out, nil
	}

	idx := identity.Index(recipients)
	seen := make(map[string]bool, len(req.RecipientIDs))
	out := make([]target, 0, len(req.RecipientIDs))
	for _, id := range req.RecipientIDs {
		id = strings.TrimSpace(id)
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		t := target{id: id}
		if r, ok := idx[id]; ok {
			t.recipient = &r
		}
		out = append(out, t)
	}
	return out, nil
}

// alreadySent reports whether r was delivered under its current id or any
// earlier one.
func alreadySent(sent []domain.DispatchRecord, r domain.CanonicalRecipient) bool {
	a := r.Aliases()
	for _, rec := range sent {
		if rec.RecipientID == r.ID || rec.Matches(a) {
			return true
		}
	}
	return false
}

// senderContext fills the sender fields the caller left blank from the
// owner's platform identity.
func (s *DispatchService) senderContext(ctx context.Context, ownerID string, c render.Context) render.Context {
	if c.SenderName != "" && c.SenderCompany != "" {
		return c
	}
	p, err := repo.GetIdentity(ctx, s.DB, ownerID)
	if err != nil {
		return c
	}
	if c.SenderName == "" {
		c.SenderName = p.Name()
	}
	if c.SenderFirstName == "" {
		c.SenderFirstName = p.FirstName
	}
	if c.SenderCompany == "" {
		c.SenderCompany = domain.Deref(p.Company)
	}
	return c
}

// fanOut delivers to every target concurrently and returns results in target
// order.
func (s *DispatchService) fanOut(ctx context.Context, batchID string, targets []target, tmpl domain.MessageTemplate, contextFor func(domain.CanonicalRecipient) render.Context) []DispatchResult {
	results := make([]DispatchResult, len(targets))
	var g errgroup.Group
	g.SetLimit(max(1, s.Concurrency))
	for i, t := range targets {
		i, t := i, t
		g.Go(func() error {
			if s.Limiter != nil {
				if err := s.Limiter.Wait(ctx); err != nil {
					results[i] = failure(t.id, CodeInterrupted, err)
					return nil
				}
			}
			if t.recipient == nil {
				results[i] = failure(t.id, CodeNotFound, ErrNotFound)
			} else {
				results[i] = s.deliver(ctx, batchID, *t.recipient, tmpl, contextFor(*t.recipient))
			}
			return nil
		})
	}
	_ = g.Wait()

	for _, r := range results {
		outcome := "sent"
		switch {
		case r.Skipped:
			outcome = "skipped"
		case !r.Sent:
			outcome = r.Code
		}
		dispatches.WithLabelValues(string(tmpl.Channel), outcome).Inc()
	}
	return results
}

// deliver runs claim, render, send, finalize for one recipient.
func (s *DispatchService) deliver(ctx context.Context, batchID string, r domain.CanonicalRecipient, tmpl domain.MessageTemplate, rctx render.Context) DispatchResult {
	lg := loggerFrom(ctx).With().Str("batch_id", batchID).Str("recipient_id", r.ID).Logger()

	outcome, token, err := repo.ClaimDispatch(ctx, s.DB, batchID, r.ID, r.Aliases(), s.Now(), s.Lease)
	if err != nil {
		return failure(r.ID, CodeSendFailed, err)
	}
	switch outcome {
	case repo.AlreadySent:
		return DispatchResult{RecipientID: r.ID, Sent: true, Skipped: true}
	case repo.Busy:
		return failure(r.ID, CodeInProgress, ErrDispatchInProgress)
	}

	// the outcome is recorded even when the caller goes away mid-send
	fctx := context.WithoutCancel(ctx)
	finalize := func(sent bool, reason *string) {
		ok, ferr := repo.FinalizeDispatch(fctx, s.DB, batchID, r.ID, token, sent, reason, s.Now())
		if ferr != nil {
			lg.Error().Err(ferr).Msg("finalize dispatch")
		} else if !ok {
			lg.Warn().Bool("sent", sent).Msg("dispatch claim lost before finalize")
		}
	}

	to := address(r, tmpl.Channel)
	if to == "" {
		reason := fmt.Sprintf("recipient has no %s", strings.ToLower(channelAddress(tmpl.Channel)))
		finalize(false, &reason)
		return failure(r.ID, CodeNoAddress, fmt.Errorf("%w: %s", outbound.ErrNoAddress, reason))
	}

	res := render.Render(tmpl, r, rctx, render.Options{Mode: render.ModeSend, SMSLimit: s.Renderer.SMSLimit})
	msg := outbound.Message{
		BatchID:     batchID,
		RecipientID: r.ID,
		Channel:     tmpl.Channel,
		To:          to,
		Subject:     res.Subject,
		Body:        res.Body,
	}

	start := time.Now()
	err = s.Sender.Send(ctx, msg)
	sendLat.WithLabelValues(string(tmpl.Channel)).Observe(time.Since(start).Seconds())
	if err != nil {
		reason := err.Error()
		finalize(false, &reason)
		lg.Warn().Err(err).Msg("send failed")
		out := failure(r.ID, CodeSendFailed, err)
		out.Warnings = res.Warnings
		return out
	}
	finalize(true, nil)
	return DispatchResult{RecipientID: r.ID, Sent: true, Warnings: res.Warnings}
}

// openRequests turns confirmed connection_request sends to platform users
// into pending connection requests.
func (s *DispatchService) openRequests(ctx context.Context, ownerID string, targets []target, results []DispatchResult) {
	for i, res := range results {
		if !res.Sent || res.Skipped {
			continue
		}
		r := targets[i].recipient
		if r == nil || r.PlatformIdentityID == nil {
			continue
		}
		_, err := s.Connections.Send(ctx, ownerID, *r.PlatformIdentityID, "")
		if err == nil || errors.Is(err, ErrDuplicateRequest) || errors.Is(err, ErrAlreadyConnected) || errors.Is(err, ErrInvalidRequest) {
			continue
		}
		loggerFrom(ctx).Warn().Err(err).Str("recipient_id", r.ID).Msg("open connection request after dispatch")
	}
}

// NotifyIntroduction emails the introduction_request template to both parties
// in batch "intro-<id>". Each party sees the other as the counterpart.
func (s *DispatchService) NotifyIntroduction(ctx context.Context, in *domain.Introduction, introducerName string) []DispatchResult {
	ctx, span := otel.Tracer("services/DispatchService").Start(ctx, "NotifyIntroduction",
		trace.WithAttributes(attribute.String("introduction.id", in.ID)))
	defer span.End()

	tmpl, err := s.Renderer.Template(TemplateIntroductionRequest, domain.ChannelEmail, nil)
	if err != nil {
		return []DispatchResult{failure("introduction:"+in.ID, CodeNotFound, err)}
	}
	batchID := "intro-" + in.ID
	if _, err := repo.EnsureBatch(ctx, s.DB, &domain.DispatchBatch{
		ID: batchID, OwnerID: in.IntroducerID, TemplateType: tmpl.Type, Channel: domain.ChannelEmail,
	}); err != nil {
		return []DispatchResult{failure(batchID, CodeSendFailed, err)}
	}

	sides := []domain.Side{domain.SideA, domain.SideB}
	targets := make([]target, 0, len(sides))
	ctxs := make(map[string]render.Context, len(sides))
	for _, side := range sides {
		r := partyRecipient(in.Person(side), side)
		other := in.Person(side.Other())
		ctxs[r.ID] = render.Context{
			IntroducerName: introducerName,
			SenderName:     introducerName,
			OtherName:      other.Name,
			OtherCompany:   domain.Deref(other.Company),
			Message:        in.Message,
			Link:           s.introductionLink(in.ID, side),
		}
		targets = append(targets, target{id: r.ID, recipient: &r})
	}
	return s.fanOut(ctx, batchID, targets, tmpl, func(r domain.CanonicalRecipient) render.Context { return ctxs[r.ID] })
}

func (s *DispatchService) introductionLink(id string, side domain.Side) string {
	if s.BaseURL == "" {
		return ""
	}
	return fmt.Sprintf("%s/introductions/%s?side=%s", strings.TrimRight(s.BaseURL, "/"), id, side)
}

// GetBatch returns the batch and its ledger. A batch owned by someone else
// is reported as missing.
func (s *DispatchService) GetBatch(ctx context.Context, ownerID, id string) (*BatchView, error) {
	ctx, span := otel.Tracer("services/DispatchService").Start(ctx, "GetBatch",
		trace.WithAttributes(attribute.String("batch.id", id), attribute.String("user.id", ownerID)))
	defer span.End()

	b, err := repo.GetBatch(ctx, s.DB, id)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if b.OwnerID != ownerID {
		return nil, ErrNotFound
	}
	recs, err := repo.ListDispatchRecords(ctx, s.DB, id)
	if err != nil {
		return nil, err
	}
	count, sent, last, err := repo.BatchStats(ctx, s.DB, ownerID, id)
	if err != nil {
		return nil, err
	}
	if recs == nil {
		recs = []domain.DispatchRecord{}
	}
	return &BatchView{Batch: *b, Records: recs, Count: count, Sent: sent, LastAttempt: last}, nil
}

// partyRecipient addresses an introduction party. Parties without a platform
// account are keyed by side, which is unique within the introduction's batch.
func partyRecipient(p domain.Party, side domain.Side) domain.CanonicalRecipient {
	email := p.Email
	id := "party:" + strings.ToLower(string(side))
	if pid := domain.Deref(p.PlatformIdentityID); pid != "" {
		id = domain.RecipientIdentityPrefix + pid
	}
	first, _, _ := strings.Cut(strings.TrimSpace(p.Name), " ")
	return domain.CanonicalRecipient{
		ID:                 id,
		DisplayName:        p.Name,
		FirstName:          first,
		Email:              &email,
		Company:            p.Company,
		PlatformIdentityID: p.PlatformIdentityID,
	}
}

func address(r domain.CanonicalRecipient, ch domain.Channel) string {
	if ch == domain.ChannelSMS {
		return domain.Deref(r.Phone)
	}
	return domain.Deref(r.Email)
}

func channelAddress(ch domain.Channel) string {
	if ch == domain.ChannelSMS {
		return "phone"
	}
	return "email"
}

func failure(recipientID, code string, err error) DispatchResult {
	return DispatchResult{
		RecipientID: recipientID,
		Code:        code,
		Error:       err.Error(),
		Err:         &DispatchFailure{RecipientID: recipientID, Err: err},
	}
}
