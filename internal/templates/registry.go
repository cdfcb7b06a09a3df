// Package templates holds the read-only message template registry.
//
// Templates are configuration owned by an administrator. The registry is
// seeded from an embedded YAML file and can be overlaid with an operator file
// (TEMPLATES_PATH) that is optionally hot-reloaded with fsnotify. A reload
// that fails validation keeps the previous set.
package templates

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"
	"unicode/utf8"

	"gopkg.in/yaml.v3"

	"github.com/tbourn/go-intro-broker/internal/domain"
	"github.com/tbourn/go-intro-broker/internal/render"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// ErrInvalid wraps every validation failure.
var ErrInvalid = errors.New("invalid template")

type file struct {
	Templates []domain.MessageTemplate `yaml:"templates"`
}

// Key addresses one template.
type Key struct {
	Type    string
	Channel domain.Channel
}

// Parse decodes and validates a template file. Channel names are upper-cased
// and Tokens is filled from the body when omitted.
func Parse(data []byte) ([]domain.MessageTemplate, error) {
	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("decode templates: %w", err)
	}
	seen := make(map[Key]bool, len(f.Templates))
	out := make([]domain.MessageTemplate, 0, len(f.Templates))
	for i, t := range f.Templates {
		t.Type = strings.TrimSpace(t.Type)
		t.Channel = domain.Channel(strings.ToUpper(strings.TrimSpace(string(t.Channel))))
		switch {
		case t.Type == "":
			return nil, fmt.Errorf("%w: entry %d has no type", ErrInvalid, i)
		case !t.Channel.Valid():
			return nil, fmt.Errorf("%w: %s has unknown channel %q", ErrInvalid, t.Type, t.Channel)
		case strings.TrimSpace(t.Body) == "":
			return nil, fmt.Errorf("%w: %s/%s has an empty body", ErrInvalid, t.Type, t.Channel)
		case t.Channel == domain.ChannelSMS && t.Subject != "":
			return nil, fmt.Errorf("%w: %s/SMS cannot have a subject", ErrInvalid, t.Type)
		}
		k := Key{t.Type, t.Channel}
		if seen[k] {
			return nil, fmt.Errorf("%w: duplicate %s/%s", ErrInvalid, t.Type, t.Channel)
		}
		seen[k] = true
		if len(t.Tokens) == 0 {
			t.Tokens = render.Tokens(t.Subject + " " + t.Body)
		}
		out = append(out, t)
	}
	return out, nil
}

// Defaults returns the embedded templates.
func Defaults() []domain.MessageTemplate {
	ts, err := Parse(defaultsYAML)
	if err != nil {
		panic(fmt.Sprintf("embedded templates: %v", err))
	}
	return ts
}

// Registry is safe for concurrent use.
type Registry struct {
	path string

	mu    sync.RWMutex
	byKey map[Key]domain.MessageTemplate
}

// NewRegistry builds a registry from the embedded defaults overlaid with the
// file at path (if non-empty).
func NewRegistry(path string) (*Registry, error) {
	r := &Registry{path: strings.TrimSpace(path)}
	if err := r.Reload(); err != nil {
		return nil, err
	}
	return r, nil
}

// FromTemplates builds a registry with exactly ts. Used by tests and tools.
func FromTemplates(ts ...domain.MessageTemplate) *Registry {
	r := &Registry{byKey: make(map[Key]domain.MessageTemplate, len(ts))}
	for _, t := range ts {
		r.byKey[Key{t.Type, t.Channel}] = t
	}
	return r
}

// Path returns the overlay file path, or "".
func (r *Registry) Path() string { return r.path }

// Reload re-reads the overlay file. On error the current set is kept.
func (r *Registry) Reload() error {
	set := make(map[Key]domain.MessageTemplate)
	for _, t := range Defaults() {
		set[Key{t.Type, t.Channel}] = t
	}
	if r.path != "" {
		data, err := os.ReadFile(r.path)
		if err != nil {
			return fmt.Errorf("read templates %s: %w", r.path, err)
		}
		ts, err := Parse(data)
		if err != nil {
			return fmt.Errorf("templates %s: %w", r.path, err)
		}
		for _, t := range ts {
			set[Key{t.Type, t.Channel}] = t
		}
	}
	r.mu.Lock()
	r.byKey = set
	r.mu.Unlock()
	return nil
}

// Get returns the template for (typ, ch).
func (r *Registry) Get(typ string, ch domain.Channel) (domain.MessageTemplate, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.byKey[Key{typ, ch}]
	return t, ok
}

// List returns all templates ordered by type then channel.
func (r *Registry) List() []domain.MessageTemplate {
	r.mu.RLock()
	out := make([]domain.MessageTemplate, 0, len(r.byKey))
	for _, t := range r.byKey {
		out = append(out, t)
	}
	r.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool {
		if out[i].Type != out[j].Type {
			return out[i].Type < out[j].Type
		}
		return out[i].Channel < out[j].Channel
	})
	return out
}

// Issue is an authoring problem found by Check.
type Issue struct {
	Type    string         `json:"type"`
	Channel domain.Channel `json:"channel"`
	Code    string         `json:"code"`
	Detail  string         `json:"detail"`
}

func (i Issue) String() string {
	return fmt.Sprintf("%s/%s: %s (%s)", i.Type, i.Channel, i.Code, i.Detail)
}

// Check lints templates: unknown tokens, link-less SMS or link-required EMAIL,
// and SMS bodies whose static text alone already exceeds smsLimit.
func Check(ts []domain.MessageTemplate, smsLimit int) []Issue {
	if smsLimit <= 0 {
		smsLimit = render.DefaultSMSLimit
	}
	known := make(map[string]bool)
	for _, k := range render.KnownTokens() {
		known[k] = true
	}
	var issues []Issue
	for _, t := range ts {
		for _, tok := range render.Tokens(t.Subject + " " + t.Body) {
			if !known[tok] {
				issues = append(issues, Issue{t.Type, t.Channel, "unknown_token", "{" + tok + "} is not a built-in token and needs an extra value"})
			}
		}
		if (t.Channel == domain.ChannelSMS || t.RequiresLink) && !render.HasLink(t.Body) {
			issues = append(issues, Issue{t.Type, t.Channel, render.WarnTemplateIncomplete, "body has no {link} token"})
		}
		if t.Channel == domain.ChannelSMS {
			static := utf8.RuneCountInString(render.Render(t, domain.CanonicalRecipient{}, render.Context{}, render.Options{Mode: render.ModeSend}).Body)
			if static > smsLimit {
				issues = append(issues, Issue{t.Type, t.Channel, render.WarnOverLimit, fmt.Sprintf("static text is %d characters", static)})
			}
		}
	}
	return issues
}
