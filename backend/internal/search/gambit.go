package search

import (
	"context"
	"regexp"
	"strings"
	"unicode"

	"gorm.io/gorm/clause"
)

// Gambit recognizes one kind of token in a query and turns it into a predicate.
type Gambit interface {
	Name() string
	// Match reports whether bit (already stripped of a leading "-") is handled
	// by this gambit, together with the captured groups.
	Match(bit string) ([]string, bool)
	// Conditions returns the predicate for the match, or nil when the gambit
	// does not apply to this search.
	Conditions(ctx context.Context, s *Search, matches []string, negate bool) (clause.Expression, error)
}

// FulltextGambit receives whatever text no other gambit claimed.
type FulltextGambit interface {
	Apply(ctx context.Context, s *Search, text string) (clause.Expression, error)
}

// RegexGambit matches a whole token, case-insensitively.
type RegexGambit struct {
	pattern *regexp.Regexp
}

func NewRegexGambit(pattern string) RegexGambit {
	return RegexGambit{pattern: regexp.MustCompile(`(?i)^(?:` + pattern + `)$`)}
}

func (g RegexGambit) Match(bit string) ([]string, bool) {
	matches := g.pattern.FindStringSubmatch(bit)
	if matches == nil {
		return nil, false
	}
	return matches, true
}

// GambitManager tries gambits in registration order; the first match wins.
type GambitManager struct {
	gambits  []Gambit
	fulltext FulltextGambit
}

func NewGambitManager(gambits ...Gambit) *GambitManager {
	return &GambitManager{gambits: gambits}
}

func (m *GambitManager) Add(g Gambit) {
	m.gambits = append(m.gambits, g)
}

func (m *GambitManager) SetFulltextGambit(g FulltextGambit) {
	m.fulltext = g
}

// Apply compiles query into predicates on s.
func (m *GambitManager) Apply(ctx context.Context, s *Search, query string) error {
	var residual []string
	for _, tok := range tokenize(query) {
		matched, err := m.applyGambits(ctx, s, tok.text)
		if err != nil {
			return err
		}
		if !matched {
			residual = append(residual, tok.String())
		}
	}

	if len(residual) == 0 || m.fulltext == nil {
		return nil
	}
	s.freeText = strings.Join(residual, " ")
	expr, err := m.fulltext.Apply(ctx, s, s.freeText)
	if err != nil {
		return err
	}
	s.Where(expr)
	return nil
}

func (m *GambitManager) applyGambits(ctx context.Context, s *Search, bit string) (bool, error) {
	negate := false
	if len(bit) > 1 && bit[0] == '-' {
		negate = true
		bit = bit[1:]
	}

	for _, g := range m.gambits {
		matches, ok := g.Match(bit)
		if !ok {
			continue
		}
		expr, err := g.Conditions(ctx, s, matches, negate)
		if err != nil {
			return true, err
		}
		gambitsApplied.WithLabelValues(g.Name()).Inc()
		s.Where(expr)
		return true, nil
	}
	return false, nil
}

type token struct {
	text   string
	quoted bool
}

// String restores the quotes so the fulltext driver still sees a phrase.
func (t token) String() string {
	if !t.quoted {
		return t.text
	}
	if len(t.text) > 1 && t.text[0] == '-' {
		return `-"` + t.text[1:] + `"`
	}
	return `"` + t.text + `"`
}

// tokenize splits on whitespace. Double quotes group words into one token
// and are not part of its text; an unterminated quote runs to the end.
func tokenize(query string) []token {
	var (
		tokens  []token
		current strings.Builder
		quoted  bool
		inQuote bool
	)
	flush := func() {
		if current.Len() > 0 {
			tokens = append(tokens, token{text: current.String(), quoted: quoted})
		}
		current.Reset()
		quoted = false
	}

	for _, r := range query {
		switch {
		case r == '"':
			inQuote = !inQuote
			quoted = true
		case unicode.IsSpace(r) && !inQuote:
			flush()
		default:
			current.WriteRune(r)
		}
	}
	flush()
	return tokens
}
