// Package services – RenderService
//
// RenderService looks templates up in the registry, applies per-call
// overrides, and delegates to the pure renderer. It never fails on content:
// unresolved tokens and link-less SMS templates come back as warnings.
package services

import (
	"context"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/tbourn/go-intro-broker/internal/domain"
	"github.com/tbourn/go-intro-broker/internal/render"
	"github.com/tbourn/go-intro-broker/internal/templates"
)

// Overrides replace parts of a template for one render or dispatch. Excerpt
// is the edited plain text of the editable blocks and is spliced into the
// (possibly overridden) EMAIL body.
type Overrides struct {
	Subject *string `json:"subject,omitempty"`
	Body    *string `json:"body,omitempty"`
	Excerpt *string `json:"excerpt,omitempty"`
}

// RenderRequest is the input of RenderService.Render.
type RenderRequest struct {
	TemplateType string
	Channel      domain.Channel
	Recipient    domain.CanonicalRecipient
	Context      render.Context
	Mode         render.Mode
	Overrides    *Overrides
}

// RenderResponse is a rendered message plus the plain-text preview of EMAIL
// bodies.
type RenderResponse struct {
	render.Result
	PlainText string `json:"plain_text,omitempty"`
}

// RenderService renders registry templates.
type RenderService struct {
	Templates *templates.Registry
	SMSLimit  int
}

// NewRenderService constructs a RenderService.
func NewRenderService(reg *templates.Registry, smsLimit int) *RenderService {
	return &RenderService{Templates: reg, SMSLimit: smsLimit}
}

// Template returns the template for (typ, ch) with overrides applied.
func (s *RenderService) Template(typ string, ch domain.Channel, o *Overrides) (domain.MessageTemplate, error) {
	t, ok := s.Templates.Get(strings.TrimSpace(typ), ch)
	if !ok {
		return domain.MessageTemplate{}, ErrUnknownTemplate
	}
	if o == nil {
		return t, nil
	}
	if o.Subject != nil && t.Channel == domain.ChannelEmail {
		t.Subject = *o.Subject
	}
	if o.Body != nil {
		t.Body = *o.Body
	}
	if o.Excerpt != nil {
		if t.Channel == domain.ChannelEmail {
			t.Body = render.Rebuild(t.Body, *o.Excerpt)
		} else {
			t.Body = *o.Excerpt
		}
	}
	t.Tokens = render.Tokens(t.Subject + " " + t.Body)
	return t, nil
}

// Render renders one message.
func (s *RenderService) Render(ctx context.Context, req RenderRequest) (*RenderResponse, error) {
	_, span := otel.Tracer("services/RenderService").Start(ctx, "Render",
		trace.WithAttributes(
			attribute.String("template.type", req.TemplateType),
			attribute.String("template.channel", string(req.Channel)),
		))
	defer span.End()

	t, err := s.Template(req.TemplateType, req.Channel, req.Overrides)
	if err != nil {
		return nil, err
	}
	mode := req.Mode
	if mode == "" {
		mode = render.ModePreview
	}
	res := &RenderResponse{Result: render.Render(t, req.Recipient, req.Context, render.Options{Mode: mode, SMSLimit: s.SMSLimit})}
	if t.Channel == domain.ChannelEmail {
		res.PlainText = render.PlainText(res.Body)
	}
	return res, nil
}

// Excerpt returns the editable text of a template's EMAIL body, or the whole
// body for SMS.
func (s *RenderService) Excerpt(typ string, ch domain.Channel) (string, error) {
	t, err := s.Template(typ, ch, nil)
	if err != nil {
		return "", err
	}
	if t.Channel != domain.ChannelEmail {
		return t.Body, nil
	}
	return render.ExtractEditable(t.Body), nil
}

// List returns every registered template.
func (s *RenderService) List() []domain.MessageTemplate {
	return s.Templates.List()
}
