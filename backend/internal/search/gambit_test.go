package search

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/itchan-dev/forum/shared/domain"
	internal_errors "github.com/itchan-dev/forum/shared/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// recordingGambit is a gambit whose behaviour is set per test.
type recordingGambit struct {
	RegexGambit
	name   string
	expr   clause.Expression
	err    error
	calls  []bool // negate flag of every call
	groups [][]string
}

func newRecordingGambit(name, pattern string) *recordingGambit {
	return &recordingGambit{RegexGambit: NewRegexGambit(pattern), name: name, expr: clause.Expr{SQL: name + "_applied"}}
}

func (g *recordingGambit) Name() string { return g.name }

func (g *recordingGambit) Conditions(_ context.Context, _ *Search, matches []string, negate bool) (clause.Expression, error) {
	g.calls = append(g.calls, negate)
	g.groups = append(g.groups, matches)
	return g.expr, g.err
}

type recordingFulltext struct {
	texts []string
}

func (f *recordingFulltext) Apply(_ context.Context, _ *Search, text string) (clause.Expression, error) {
	f.texts = append(f.texts, text)
	return clause.Expr{SQL: "fulltext_applied"}, nil
}

func searchSQL(s *Search) string {
	return s.Query().ToSQL(func(tx *gorm.DB) *gorm.DB { return tx.Find(&[]map[string]any{}) })
}

func TestTokenize(t *testing.T) {
	tests := []struct {
		query string
		want  []token
	}{
		{query: "", want: nil},
		{query: "  foo   bar ", want: []token{{text: "foo"}, {text: "bar"}}},
		{query: `"hello world" is:unread`, want: []token{{text: "hello world", quoted: true}, {text: "is:unread"}}},
		{query: `author:"John Smith"`, want: []token{{text: "author:John Smith", quoted: true}}},
		{query: `-"foo bar" baz`, want: []token{{text: "-foo bar", quoted: true}, {text: "baz"}}},
		{query: `"unterminated phrase`, want: []token{{text: "unterminated phrase", quoted: true}}},
		{query: `"" x`, want: []token{{text: "x"}}},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			assert.Equal(t, tt.want, tokenize(tt.query))
		})
	}
}

func TestTokenString(t *testing.T) {
	assert.Equal(t, "foo", token{text: "foo"}.String())
	assert.Equal(t, `"foo bar"`, token{text: "foo bar", quoted: true}.String())
	assert.Equal(t, `-"foo bar"`, token{text: "-foo bar", quoted: true}.String())
}

func TestGambitManagerApply(t *testing.T) {
	ctx := context.Background()
	actor := &domain.User{Id: 1}

	t.Run("first registered gambit wins", func(t *testing.T) {
		first := newRecordingGambit("first", `is:(\w+)`)
		second := newRecordingGambit("second", `is:unread`)
		m := NewGambitManager(first, second)

		s := NewSearch(dryRunDB(t).Table("discussions"), actor)
		require.NoError(t, m.Apply(ctx, s, "is:unread"))

		assert.Len(t, first.calls, 1)
		assert.Empty(t, second.calls)
		assert.Equal(t, []string{"is:unread", "unread"}, first.groups[0])
		assert.Contains(t, searchSQL(s), "first_applied")
	})

	t.Run("leading dash negates", func(t *testing.T) {
		g := newRecordingGambit("unread", `is:unread`)
		m := NewGambitManager(g)
		s := NewSearch(dryRunDB(t).Table("discussions"), actor)

		require.NoError(t, m.Apply(ctx, s, "-is:unread IS:UNREAD"))
		assert.Equal(t, []bool{true, false}, g.calls)
	})

	t.Run("residual text goes to fulltext", func(t *testing.T) {
		g := newRecordingGambit("unread", `is:unread`)
		ft := &recordingFulltext{}
		m := NewGambitManager(g)
		m.SetFulltextGambit(ft)
		s := NewSearch(dryRunDB(t).Table("discussions"), actor)

		require.NoError(t, m.Apply(ctx, s, `foo is:unread "exact phrase" -bar`))
		assert.Equal(t, []string{`foo "exact phrase" -bar`}, ft.texts)
		assert.True(t, s.HasFreeText())
		assert.Equal(t, `foo "exact phrase" -bar`, s.FreeText())
		sql := searchSQL(s)
		assert.Contains(t, sql, "fulltext_applied")
		assert.Contains(t, sql, "unread_applied")
	})

	t.Run("no residual, fulltext untouched", func(t *testing.T) {
		ft := &recordingFulltext{}
		m := NewGambitManager(newRecordingGambit("unread", `is:unread`))
		m.SetFulltextGambit(ft)
		s := NewSearch(dryRunDB(t).Table("discussions"), actor)

		require.NoError(t, m.Apply(ctx, s, "is:unread"))
		assert.Empty(t, ft.texts)
		assert.False(t, s.HasFreeText())
	})

	t.Run("nil predicate is a no-op", func(t *testing.T) {
		g := newRecordingGambit("noop", `is:noop`)
		g.expr = nil
		m := NewGambitManager(g)
		s := NewSearch(dryRunDB(t).Table("discussions"), actor)

		require.NoError(t, m.Apply(ctx, s, "is:noop"))
		assert.NotContains(t, searchSQL(s), "WHERE")
	})

	t.Run("gambit errors propagate", func(t *testing.T) {
		g := newRecordingGambit("broken", `is:broken`)
		g.err = errors.New("db down")
		m := NewGambitManager(g)
		s := NewSearch(dryRunDB(t).Table("discussions"), actor)

		assert.ErrorContains(t, m.Apply(ctx, s, "is:broken"), "db down")
	})
}

type mockReads struct {
	ids    []domain.DiscussionId
	err    error
	called bool
}

func (m *mockReads) ReadDiscussionIds(context.Context, domain.UserId) ([]domain.DiscussionId, error) {
	m.called = true
	return m.ids, m.err
}

func TestUnreadGambit(t *testing.T) {
	ctx := context.Background()
	readTime := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	member := &domain.User{Id: 3, ReadTime: &readTime}

	t.Run("guest is a no-op", func(t *testing.T) {
		reads := &mockReads{}
		g := NewUnreadGambit(reads)
		expr, err := g.Conditions(ctx, NewSearch(nil, domain.Guest(nil)), nil, false)
		require.NoError(t, err)
		assert.Nil(t, expr)
		assert.False(t, reads.called)
	})

	t.Run("unread", func(t *testing.T) {
		g := NewUnreadGambit(&mockReads{ids: []domain.DiscussionId{1, 2}})
		s := NewSearch(dryRunDB(t).Table("discussions"), member)
		expr, err := g.Conditions(ctx, s, nil, false)
		require.NoError(t, err)
		s.Where(expr)

		sql := searchSQL(s)
		assert.Contains(t, sql, "NOT (discussions.id = ANY(")
		assert.Contains(t, sql, "discussions.last_time > '2024-03-01")
	})

	t.Run("negated", func(t *testing.T) {
		g := NewUnreadGambit(&mockReads{})
		s := NewSearch(dryRunDB(t).Table("discussions"), member)
		expr, err := g.Conditions(ctx, s, nil, true)
		require.NoError(t, err)
		s.Where(expr)

		sql := searchSQL(s)
		assert.Contains(t, sql, "discussions.id = ANY('{}') OR discussions.last_time <=")
	})

	t.Run("load failure propagates", func(t *testing.T) {
		g := NewUnreadGambit(&mockReads{err: errors.New("boom")})
		_, err := g.Conditions(ctx, NewSearch(nil, member), nil, false)
		assert.Error(t, err)
	})
}

func TestHiddenGambit(t *testing.T) {
	ctx := context.Background()
	g := NewHiddenGambit()

	expr, err := g.Conditions(ctx, NewSearch(nil, &domain.User{Id: 1}), nil, false)
	require.NoError(t, err)
	assert.Nil(t, expr)

	mod := &domain.User{Id: 2, Permissions: domain.Permissions{domain.PermissionHide}}
	expr, err = g.Conditions(ctx, NewSearch(nil, mod), nil, false)
	require.NoError(t, err)
	assert.Equal(t, clause.Expr{SQL: "discussions.hide_time IS NOT NULL"}, expr)

	expr, err = g.Conditions(ctx, NewSearch(nil, mod), nil, true)
	require.NoError(t, err)
	assert.Equal(t, clause.Expr{SQL: "discussions.hide_time IS NULL"}, expr)
}

type mockUsers map[string]domain.UserId

func (m mockUsers) UserIdByUsername(_ context.Context, name domain.Username) (domain.UserId, error) {
	if name == "broken" {
		return 0, errors.New("db down")
	}
	id, ok := m[name]
	if !ok {
		return 0, internal_errors.NotFound("User not found")
	}
	return id, nil
}

func TestAuthorGambit(t *testing.T) {
	ctx := context.Background()
	g := NewAuthorGambit(mockUsers{"alice": 1, "bob": 2})

	matches, ok := g.Match("author:alice,bob")
	require.True(t, ok)

	s := NewSearch(dryRunDB(t).Table("discussions"), &domain.User{Id: 9})
	expr, err := g.Conditions(ctx, s, matches, false)
	require.NoError(t, err)
	s.Where(expr)
	assert.Contains(t, searchSQL(s), "discussions.start_user_id = ANY('{1,2}')")

	t.Run("unknown user matches nothing", func(t *testing.T) {
		matches, _ := g.Match("author:nobody")
		expr, err := g.Conditions(ctx, s, matches, false)
		require.NoError(t, err)
		assert.Equal(t, clause.Expr{SQL: "FALSE"}, expr)

		expr, err = g.Conditions(ctx, s, matches, true)
		require.NoError(t, err)
		assert.Nil(t, expr)
	})

	t.Run("lookup failure propagates", func(t *testing.T) {
		matches, _ := g.Match("author:broken")
		_, err := g.Conditions(ctx, s, matches, false)
		assert.Error(t, err)
	})
}
