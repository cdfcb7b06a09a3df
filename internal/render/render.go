// Package render turns a message template plus a recipient and sender context
// into the subject/body that is shown in a preview or handed to a transport.
//
// All substitution goes through one token table and one regex pass, so the
// EMAIL, SMS and preview paths share the same rules:
//
//   - {token} is looked up in the table, then in Context.Extra.
//   - First-name tokens are title-cased at render time ("john" -> "John").
//   - In ModeSend an unresolved token becomes "", in ModePreview it becomes a
//     visible "[token]" marker so authoring mistakes show up.
//   - EMAIL bodies are HTML; substituted values are escaped.
//
// Nothing in this package returns an error. Problems a caller should see
// before sending are reported as Warnings on the Result.
package render

import (
	"html"
	"regexp"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/tbourn/go-intro-broker/internal/domain"
)

// Mode selects how unresolved tokens are rendered.
type Mode string

const (
	ModeSend    Mode = "send"
	ModePreview Mode = "preview"
)

// DefaultSMSLimit is the single-segment SMS budget in characters.
const DefaultSMSLimit = 160

// Warning codes.
const (
	WarnTemplateIncomplete = "template_incomplete"
	WarnOverLimit          = "over_limit"
	WarnLinkUnresolved     = "link_unresolved"
)

// Warning is a non-fatal condition the caller may still choose to ignore.
type Warning struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Context carries the sender-side fields a template may reference.
type Context struct {
	SenderName         string            `json:"sender_name,omitempty"`
	SenderFirstName    string            `json:"sender_first_name,omitempty"`
	SenderCompany      string            `json:"sender_company,omitempty"`
	SummaryFirstPerson string            `json:"summary_first_person,omitempty"`
	SummaryThirdPerson string            `json:"summary_third_person,omitempty"`
	Link               string            `json:"link,omitempty"`
	IntroducerName     string            `json:"introducer_name,omitempty"`
	OtherName          string            `json:"other_name,omitempty"`
	OtherFirstName     string            `json:"other_first_name,omitempty"`
	OtherCompany       string            `json:"other_company,omitempty"`
	Message            string            `json:"message,omitempty"`
	Extra              map[string]string `json:"extra,omitempty"`
}

// Options tune a single Render call.
type Options struct {
	Mode     Mode
	SMSLimit int // 0 means DefaultSMSLimit
}

// Result is the rendered message. Length, Limit and OverLimit are only set
// for SMS.
type Result struct {
	Subject   string    `json:"subject,omitempty"`
	Body      string    `json:"body"`
	Length    int       `json:"length,omitempty"`
	Limit     int       `json:"limit,omitempty"`
	OverLimit bool      `json:"over_limit,omitempty"`
	Missing   []string  `json:"missing,omitempty"`
	Warnings  []Warning `json:"warnings,omitempty"`
}

var tokenRe = regexp.MustCompile(`\{([a-zA-Z_][a-zA-Z0-9_]*)\}`)

type resolver func(r domain.CanonicalRecipient, c Context) string

// tokenTable is the single source of supported placeholders.
var tokenTable = map[string]resolver{
	"first_name": func(r domain.CanonicalRecipient, _ Context) string { return r.FirstNameOrDisplay() },
	"last_name":  func(r domain.CanonicalRecipient, _ Context) string { return r.LastName },
	"full_name": func(r domain.CanonicalRecipient, _ Context) string {
		if r.DisplayName != "" {
			return r.DisplayName
		}
		return strings.TrimSpace(r.FirstName + " " + r.LastName)
	},
	"recipient_company": func(r domain.CanonicalRecipient, _ Context) string { return domain.Deref(r.Company) },
	"recipient_email":   func(r domain.CanonicalRecipient, _ Context) string { return domain.Deref(r.Email) },
	"sender_name":       func(_ domain.CanonicalRecipient, c Context) string { return c.SenderName },
	"sender_first_name": func(_ domain.CanonicalRecipient, c Context) string {
		return firstWordOr(c.SenderFirstName, c.SenderName)
	},
	"sender_company":       func(_ domain.CanonicalRecipient, c Context) string { return c.SenderCompany },
	"summary_first_person": func(_ domain.CanonicalRecipient, c Context) string { return c.SummaryFirstPerson },
	"summary_third_person": func(_ domain.CanonicalRecipient, c Context) string { return c.SummaryThirdPerson },
	"link":                 func(_ domain.CanonicalRecipient, c Context) string { return c.Link },
	"introducer_name":      func(_ domain.CanonicalRecipient, c Context) string { return c.IntroducerName },
	"other_name":           func(_ domain.CanonicalRecipient, c Context) string { return c.OtherName },
	"other_first_name":     func(_ domain.CanonicalRecipient, c Context) string { return firstWordOr(c.OtherFirstName, c.OtherName) },
	"other_company":        func(_ domain.CanonicalRecipient, c Context) string { return c.OtherCompany },
	"message":              func(_ domain.CanonicalRecipient, c Context) string { return c.Message },
}

// capitalized tokens are title-cased after lookup.
var capitalized = map[string]bool{
	"first_name":        true,
	"sender_first_name": true,
	"other_first_name":  true,
}

// KnownTokens lists the built-in placeholders in a stable order.
func KnownTokens() []string {
	return []string{
		"first_name", "last_name", "full_name", "recipient_company", "recipient_email",
		"sender_name", "sender_first_name", "sender_company",
		"summary_first_person", "summary_third_person", "link",
		"introducer_name", "other_name", "other_first_name", "other_company", "message",
	}
}

// Tokens returns the distinct placeholders used in s, in order of first use.
func Tokens(s string) []string {
	var out []string
	seen := map[string]bool{}
	for _, m := range tokenRe.FindAllStringSubmatch(s, -1) {
		if !seen[m[1]] {
			seen[m[1]] = true
			out = append(out, m[1])
		}
	}
	return out
}

// HasLink reports whether a template body references {link}.
func HasLink(body string) bool {
	for _, t := range Tokens(body) {
		if t == "link" {
			return true
		}
	}
	return false
}

// Render substitutes every placeholder in t for recipient r.
func Render(t domain.MessageTemplate, r domain.CanonicalRecipient, c Context, opts Options) Result {
	mode := opts.Mode
	if mode == "" {
		mode = ModeSend
	}
	s := substituter{
		recipient: r,
		ctx:       c,
		mode:      mode,
		caser:     cases.Title(language.Und, cases.NoLower),
		missing:   map[string]bool{},
	}

	var res Result
	if t.Channel == domain.ChannelEmail {
		res.Subject = s.apply(t.Subject, false)
		res.Body = s.apply(t.Body, true)
	} else {
		res.Body = s.apply(t.Body, false)
	}
	res.Missing = s.missingList

	hasLink := HasLink(t.Body)
	if t.Channel == domain.ChannelSMS {
		limit := opts.SMSLimit
		if limit <= 0 {
			limit = DefaultSMSLimit
		}
		res.Length = utf8.RuneCountInString(res.Body)
		res.Limit = limit
		res.OverLimit = res.Length > limit
		if res.OverLimit {
			res.Warnings = append(res.Warnings, Warning{Code: WarnOverLimit, Message: "sms body exceeds the character budget"})
		}
	}
	if !hasLink && (t.Channel == domain.ChannelSMS || t.RequiresLink) {
		res.Warnings = append(res.Warnings, Warning{Code: WarnTemplateIncomplete, Message: "template has no {link} token"})
	}
	if hasLink && s.missing["link"] {
		res.Warnings = append(res.Warnings, Warning{Code: WarnLinkUnresolved, Message: "no link value supplied"})
	}
	return res
}

// Incomplete reports whether res carries a TemplateIncomplete warning.
func (r Result) Incomplete() bool {
	for _, w := range r.Warnings {
		if w.Code == WarnTemplateIncomplete {
			return true
		}
	}
	return false
}

type substituter struct {
	recipient   domain.CanonicalRecipient
	ctx         Context
	mode        Mode
	caser       cases.Caser
	missing     map[string]bool
	missingList []string
}

func (s *substituter) apply(text string, escape bool) string {
	if text == "" {
		return ""
	}
	return tokenRe.ReplaceAllStringFunc(text, func(m string) string {
		name := m[1 : len(m)-1]
		v := s.lookup(name)
		if v == "" {
			if !s.missing[name] {
				s.missing[name] = true
				s.missingList = append(s.missingList, name)
			}
			if s.mode == ModePreview {
				return "[" + name + "]"
			}
			return ""
		}
		if escape {
			return html.EscapeString(v)
		}
		return v
	})
}

func (s *substituter) lookup(name string) string {
	var v string
	if fn, ok := tokenTable[name]; ok {
		v = strings.TrimSpace(fn(s.recipient, s.ctx))
	}
	if v == "" && s.ctx.Extra != nil {
		v = strings.TrimSpace(s.ctx.Extra[name])
	}
	if v != "" && capitalized[name] {
		v = s.caser.String(v)
	}
	return v
}

func firstWordOr(first, full string) string {
	if first = strings.TrimSpace(first); first != "" {
		return first
	}
	if f := strings.Fields(full); len(f) > 0 {
		return f[0]
	}
	return ""
}
