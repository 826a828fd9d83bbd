package normalizer

import (
	"strings"

	"go.uber.org/zap"

	"github.com/visabuddy/ai-service/internal/metrics"
	"github.com/visabuddy/ai-service/pkg/logger"
)

// Context carries caller information for unknown-type log entries.
type Context struct {
	Where        string
	CountryCode  string
	VisaCategory string
}

type Result struct {
	Canonical     string
	WasNormalized bool
}

// Normalizer maps raw document-type spellings to one canonical identifier.
// The table is immutable after construction; Normalize never fails.
type Normalizer struct {
	canonical map[string]struct{}
	aliases   map[string]string
}

func New(table map[string][]string) *Normalizer {
	n := &Normalizer{
		canonical: make(map[string]struct{}, len(table)),
		aliases:   make(map[string]string),
	}

	for canon, aliases := range table {
		key := fold(canon)
		n.canonical[key] = struct{}{}
		n.aliases[key] = canon
		for _, alias := range aliases {
			n.aliases[fold(alias)] = canon
		}
	}

	return n
}

func NewDefault() *Normalizer {
	return New(defaultTable)
}

func (n *Normalizer) Normalize(raw string, nctx Context) Result {
	key := fold(raw)
	if key == "" {
		return Result{}
	}

	if _, ok := n.canonical[key]; ok {
		return Result{Canonical: n.aliases[key], WasNormalized: false}
	}

	if canon, ok := n.aliases[key]; ok {
		return Result{Canonical: canon, WasNormalized: true}
	}

	logger.Warn("unknown document type",
		zap.String("raw", raw),
		zap.String("where", nctx.Where),
		zap.String("country", nctx.CountryCode),
		zap.String("visa_category", nctx.VisaCategory),
	)
	metrics.UnknownDocumentTypes.WithLabelValues(nctx.Where).Inc()

	return Result{}
}

// Resolve maps a raw spelling to its canonical type. Unlike Normalize it is
// silent on unknown types, for callers that expect novel spellings such as
// model-suggested extras.
func (n *Normalizer) Resolve(raw string) (string, bool) {
	canon, ok := n.aliases[fold(raw)]
	return canon, ok
}

// Canonical reports whether the given string is already a canonical type.
func (n *Normalizer) Canonical(s string) bool {
	key := fold(s)
	_, ok := n.canonical[key]
	return ok
}

// Fold lowercases a spelling and collapses separator runs to underscores.
// Matching against legacy upload records uses the same folding as the alias
// table, so both sides agree on what "the same spelling" means.
func Fold(s string) string {
	return fold(s)
}

func fold(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))

	var b strings.Builder
	b.Grow(len(s))
	prevSep := false
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			prevSep = false
		default:
			if !prevSep && b.Len() > 0 {
				b.WriteByte('_')
			}
			prevSep = true
		}
	}

	return strings.TrimSuffix(b.String(), "_")
}
