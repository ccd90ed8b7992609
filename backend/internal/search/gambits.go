package search

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/itchan-dev/forum/backend/internal/access"
	"github.com/itchan-dev/forum/shared/domain"
	"github.com/itchan-dev/forum/shared/errors"
	"github.com/lib/pq"
	"gorm.io/gorm/clause"
)

type ReadIdsLoader interface {
	// ReadDiscussionIds returns the discussions the user has read up to their last post.
	ReadDiscussionIds(ctx context.Context, userId domain.UserId) ([]domain.DiscussionId, error)
}

type UserLookup interface {
	UserIdByUsername(ctx context.Context, username domain.Username) (domain.UserId, error)
}

// UnreadGambit handles "is:unread". Guests have no read state, so it is a no-op for them.
type UnreadGambit struct {
	RegexGambit
	reads ReadIdsLoader
}

func NewUnreadGambit(reads ReadIdsLoader) *UnreadGambit {
	return &UnreadGambit{RegexGambit: NewRegexGambit(`is:unread`), reads: reads}
}

func (g *UnreadGambit) Name() string { return "unread" }

func (g *UnreadGambit) Conditions(ctx context.Context, s *Search, _ []string, negate bool) (clause.Expression, error) {
	actor := s.Actor()
	if actor.IsGuest() {
		return nil, nil
	}

	readIds, err := g.reads.ReadDiscussionIds(ctx, actor.Id)
	if err != nil {
		return nil, fmt.Errorf("failed to load read discussions: %w", err)
	}
	if readIds == nil {
		readIds = []domain.DiscussionId{} // a nil array binds as NULL
	}
	var readTime time.Time
	if actor.ReadTime != nil {
		readTime = *actor.ReadTime
	}

	if negate {
		return clause.Expr{
			SQL:  "(discussions.id = ANY(?) OR discussions.last_time <= ?)",
			Vars: []any{pq.Array(readIds), readTime},
		}, nil
	}
	return clause.Expr{
		SQL:  "NOT (discussions.id = ANY(?)) AND discussions.last_time > ?",
		Vars: []any{pq.Array(readIds), readTime},
	}, nil
}

// HiddenGambit handles "is:hidden" for actors who can see hidden discussions.
type HiddenGambit struct {
	RegexGambit
}

func NewHiddenGambit() *HiddenGambit {
	return &HiddenGambit{RegexGambit: NewRegexGambit(`is:hidden`)}
}

func (g *HiddenGambit) Name() string { return "hidden" }

func (g *HiddenGambit) Conditions(_ context.Context, s *Search, _ []string, negate bool) (clause.Expression, error) {
	if !s.Actor().HasPermission(domain.PermissionHide) {
		return nil, nil
	}
	if negate {
		return clause.Expr{SQL: "discussions.hide_time IS NULL"}, nil
	}
	return clause.Expr{SQL: "discussions.hide_time IS NOT NULL"}, nil
}

// AuthorGambit handles "author:name[,name...]".
type AuthorGambit struct {
	RegexGambit
	users UserLookup
}

func NewAuthorGambit(users UserLookup) *AuthorGambit {
	return &AuthorGambit{RegexGambit: NewRegexGambit(`author:(.+)`), users: users}
}

func (g *AuthorGambit) Name() string { return "author" }

func (g *AuthorGambit) Conditions(ctx context.Context, _ *Search, matches []string, negate bool) (clause.Expression, error) {
	var ids []domain.UserId
	for _, name := range strings.Split(matches[1], ",") {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		id, err := g.users.UserIdByUsername(ctx, name)
		if err != nil {
			if errors.IsNotFound(err) {
				continue
			}
			return nil, fmt.Errorf("failed to look up author %q: %w", name, err)
		}
		ids = append(ids, id)
	}

	if len(ids) == 0 {
		if negate {
			return nil, nil
		}
		return access.False, nil
	}
	if negate {
		return clause.Expr{SQL: "NOT (discussions.start_user_id = ANY(?))", Vars: []any{pq.Array(ids)}}, nil
	}
	return clause.Expr{SQL: "discussions.start_user_id = ANY(?)", Vars: []any{pq.Array(ids)}}, nil
}

type FulltextMatch struct {
	DiscussionId domain.DiscussionId
	PostIds      []domain.PostId // matching posts, best first
}

// FulltextDriver finds discussions for free text, best match first.
type FulltextDriver interface {
	Match(ctx context.Context, text string) ([]FulltextMatch, error)
}

// DriverGambit delegates free text to a FulltextDriver.
type DriverGambit struct {
	driver FulltextDriver
}

func NewDriverGambit(driver FulltextDriver) *DriverGambit {
	return &DriverGambit{driver: driver}
}

func (g *DriverGambit) Apply(ctx context.Context, s *Search, text string) (clause.Expression, error) {
	matches, err := g.driver.Match(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("fulltext search failed: %w", err)
	}
	if len(matches) == 0 {
		return access.False, nil
	}

	ids := make([]domain.DiscussionId, 0, len(matches))
	for _, m := range matches {
		ids = append(ids, m.DiscussionId)
		s.AddRelevantPostIds(m.DiscussionId, m.PostIds...)
	}
	s.SetDefaultSort(relevanceOrder(ids))
	return clause.Expr{SQL: "discussions.id = ANY(?)", Vars: []any{pq.Array(ids)}}, nil
}

func relevanceOrder(ids []domain.DiscussionId) clause.Expression {
	return clause.Expr{
		SQL:                "array_position(?::bigint[], discussions.id), discussions.id DESC",
		Vars:               []any{pq.Array(ids)},
		WithoutParentheses: true,
	}
}
