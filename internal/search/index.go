// Package search provides a small, deterministic, concurrency-safe in-memory
// index used to narrow a resolved recipient list by a free-text query
// (name, company, email).
//
//   - No logging in the library (callers decide how/what to log)
//   - Functional options (Option pattern)
//   - Unicode-aware, accent-folding tokenization with optional stop-word removal
//   - Immutable, read-only index after construction (safe for concurrent use)
//   - Deterministic scoring and sorting (stable order for ties)
//
// Scoring uses Jaccard similarity between the query token set and each
// document's token set: score = |Q ∩ D| / |Q ∪ D|. With prefix matching
// enabled (the default) a query token also matches any document token it is
// a prefix of, so "ann" finds "annabel".
package search

import (
	"regexp"
	"sort"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/tbourn/go-intro-broker/internal/domain"
)

// Doc is one searchable entry.
type Doc struct {
	ID   string
	Text string
}

// Result is a ranked document with its similarity score.
type Result struct {
	ID      string
	Snippet string
	Score   float64
}

// Index is the minimal interface implemented by all search indices.
type Index interface {
	TopK(query string, k int) []Result
}

// ----------------------------------------------------------------------------
// Options

type Option func(*config)

type config struct {
	stopwords map[string]struct{}
	maxDocs   int
	prefix    bool
	minScore  float64
}

func defaultConfig() config {
	return config{
		stopwords: nil,
		maxDocs:   0,
		prefix:    true,
		minScore:  0,
	}
}

func WithStopwords(words []string) Option {
	return func(c *config) {
		m := make(map[string]struct{}, len(words))
		for _, w := range words {
			w = fold(strings.TrimSpace(w))
			if w != "" {
				m[w] = struct{}{}
			}
		}
		if len(m) > 0 {
			c.stopwords = m
		}
	}
}

func WithMaxDocs(n int) Option {
	return func(c *config) {
		if n > 0 {
			c.maxDocs = n
		}
	}
}

// WithPrefixMatch toggles prefix matching of query tokens.
func WithPrefixMatch(on bool) Option {
	return func(c *config) { c.prefix = on }
}

// WithMinScore drops results scoring below s.
func WithMinScore(s float64) Option {
	return func(c *config) {
		if s >= 0 && s <= 1 {
			c.minScore = s
		}
	}
}

// ----------------------------------------------------------------------------
// Implementation

type doc struct {
	id     string
	text   string
	tokens map[string]struct{}
	order  int
}

type index struct {
	cfg  config
	docs []doc
}

// NewIndex builds an Index over docs. Documents without any token are skipped.
func NewIndex(docs []Doc, opts ...Option) Index {
	cfg := defaultConfig()
	for _, o := range opts {
		o(&cfg)
	}
	out := make([]doc, 0, len(docs))
	for i, d := range docs {
		t := strings.TrimSpace(normalizeWhitespace(d.Text))
		toks := tokenize(t, cfg.stopwords)
		if len(toks) == 0 {
			continue
		}
		out = append(out, doc{id: d.ID, text: t, tokens: toks, order: i})
		if cfg.maxDocs > 0 && len(out) >= cfg.maxDocs {
			break
		}
	}
	return &index{cfg: cfg, docs: out}
}

// TopK returns up to k best-matching documents. k <= 0 means all matches.
func (i *index) TopK(q string, k int) []Result {
	if len(i.docs) == 0 || strings.TrimSpace(q) == "" {
		return nil
	}
	qTokens := tokenize(q, i.cfg.stopwords)
	if len(qTokens) == 0 {
		return nil
	}
	qLen := len(qTokens)

	type scored struct {
		doc   doc
		score float64
	}
	var buf []scored
	for _, d := range i.docs {
		over := overlap(qTokens, d.tokens, i.cfg.prefix)
		if over == 0 {
			continue
		}
		union := float64(qLen + len(d.tokens) - over)
		if union <= 0 {
			continue
		}
		score := float64(over) / union
		if score <= 0 || score < i.cfg.minScore {
			continue
		}
		buf = append(buf, scored{doc: d, score: score})
	}
	if len(buf) == 0 {
		return nil
	}

	sort.SliceStable(buf, func(a, b int) bool {
		if buf[a].score != buf[b].score {
			return buf[a].score > buf[b].score
		}
		return buf[a].doc.order < buf[b].doc.order
	})

	if k <= 0 || k > len(buf) {
		k = len(buf)
	}
	out := make([]Result, k)
	for n := 0; n < k; n++ {
		out[n] = Result{ID: buf[n].doc.id, Snippet: buf[n].doc.text, Score: buf[n].score}
	}
	return out
}

// RecipientDocs turns recipients into searchable documents (name, company,
// email).
func RecipientDocs(rs []domain.CanonicalRecipient) []Doc {
	docs := make([]Doc, 0, len(rs))
	for _, r := range rs {
		parts := []string{r.DisplayName, r.FirstName, r.LastName, domain.Deref(r.Company), domain.Deref(r.Email)}
		docs = append(docs, Doc{ID: r.ID, Text: strings.Join(parts, " ")})
	}
	return docs
}

// FilterRecipients returns the recipients matching q, best match first. An
// empty query returns rs unchanged.
func FilterRecipients(rs []domain.CanonicalRecipient, q string, opts ...Option) []domain.CanonicalRecipient {
	if strings.TrimSpace(q) == "" {
		return rs
	}
	byID := make(map[string]domain.CanonicalRecipient, len(rs))
	for _, r := range rs {
		byID[r.ID] = r
	}
	hits := NewIndex(RecipientDocs(rs), opts...).TopK(q, 0)
	out := make([]domain.CanonicalRecipient, 0, len(hits))
	for _, h := range hits {
		out = append(out, byID[h.ID])
	}
	return out
}

// ----------------------------------------------------------------------------
// Helpers

var wordRE = regexp.MustCompile(`[\p{L}\p{N}]+`)

// fold lower-cases s and strips combining marks, so "José" and "jose"
// tokenize the same.
func fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		out = s
	}
	return strings.ToLower(out)
}

func tokenize(s string, stop map[string]struct{}) map[string]struct{} {
	s = fold(s)
	words := wordRE.FindAllString(s, -1)
	if len(words) == 0 {
		return nil
	}
	out := make(map[string]struct{}, len(words))
	for _, w := range words {
		if stop != nil {
			if _, skip := stop[w]; skip {
				continue
			}
		}
		out[w] = struct{}{}
	}
	return out
}

// overlap counts query tokens found in d (exactly, or as a prefix when
// prefix is set).
func overlap(q, d map[string]struct{}, prefix bool) int {
	if len(q) == 0 || len(d) == 0 {
		return 0
	}
	n := 0
	for k := range q {
		if _, ok := d[k]; ok {
			n++
			continue
		}
		if !prefix {
			continue
		}
		for dk := range d {
			if strings.HasPrefix(dk, k) {
				n++
				break
			}
		}
	}
	return n
}

func normalizeWhitespace(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	prevSpace := false
	for _, r := range s {
		if r == ' ' || r == '\t' || r == '\r' || r == '\n' {
			if !prevSpace {
				b.WriteByte(' ')
				prevSpace = true
			}
			continue
		}
		prevSpace = false
		b.WriteRune(r)
	}
	return b.String()
}
