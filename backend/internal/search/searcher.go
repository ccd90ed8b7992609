package search

import (
	"context"
	"fmt"
	"slices"
	"strconv"
	"time"

	"github.com/itchan-dev/forum/backend/internal/access"
	"github.com/itchan-dev/forum/shared/domain"
	"github.com/itchan-dev/forum/shared/logger"
	"gorm.io/gorm"
)

type DiscussionRepository interface {
	// Query starts a query on the discussions table.
	Query(ctx context.Context) *gorm.DB
	Find(q *gorm.DB) ([]domain.Discussion, error)
	// LoadRelations attaches the requested relations and the actor's read state.
	LoadRelations(ctx context.Context, discussions []domain.Discussion, relations []domain.Relation, actor *domain.User) error
}

type PostRepository interface {
	// FindByIds returns the posts visible to actor, authors attached, in ids order.
	FindByIds(ctx context.Context, ids []domain.PostId, actor *domain.User) ([]domain.Post, error)
}

// ConfigureFunc may change a search after gambits, sort and paging were applied.
type ConfigureFunc func(ctx context.Context, s *Search, criteria domain.SearchCriteria) error

// MaxRelevantPosts bounds the relevant posts attached to one discussion.
const MaxRelevantPosts = 2

type Options struct {
	RelevantPostsPerDiscussion int // 1..MaxRelevantPosts, otherwise MaxRelevantPosts
	ExcerptLength              int
}

type Searcher struct {
	gambits     *GambitManager
	discussions DiscussionRepository
	posts       PostRepository
	policy      *access.Policy
	configure   []ConfigureFunc
	opts        Options
}

func NewSearcher(gambits *GambitManager, discussions DiscussionRepository, posts PostRepository, policy *access.Policy, opts Options) *Searcher {
	if opts.RelevantPostsPerDiscussion <= 0 || opts.RelevantPostsPerDiscussion > MaxRelevantPosts {
		opts.RelevantPostsPerDiscussion = MaxRelevantPosts
	}
	return &Searcher{
		gambits:     gambits,
		discussions: discussions,
		posts:       posts,
		policy:      policy,
		opts:        opts,
	}
}

// OnConfigure registers a hook. Not safe to call while searches are running.
func (s *Searcher) OnConfigure(fn ConfigureFunc) {
	s.configure = append(s.configure, fn)
}

// Search returns one page of discussions visible to criteria.Actor.
// A limit of zero or less returns every remaining result.
func (s *Searcher) Search(ctx context.Context, criteria domain.SearchCriteria, limit, offset int, load []domain.Relation) (*domain.SearchResults, error) {
	start := time.Now()
	actor := criteria.Actor
	if actor == nil {
		actor = domain.Guest(nil)
	}

	search := NewSearch(s.policy.ScopeDiscussions(s.discussions.Query(ctx), actor), actor)

	if err := s.gambits.Apply(ctx, search, criteria.Query); err != nil {
		return nil, err
	}
	if err := applySort(search, criteria.Sort); err != nil {
		return nil, err
	}
	applyOffset(search, offset)
	if limit > 0 {
		applyLimit(search, limit+1)
	}

	for _, fn := range s.configure {
		if err := fn(ctx, search, criteria); err != nil {
			return nil, fmt.Errorf("search hook failed: %w", err)
		}
	}

	discussions, err := s.discussions.Find(search.Query())
	if err != nil {
		return nil, fmt.Errorf("failed to query discussions: %w", err)
	}

	areMoreResults := limit > 0 && len(discussions) > limit
	if areMoreResults {
		discussions = discussions[:limit]
	}

	if slices.Contains(load, domain.RelationRelevantPosts) && search.HasFreeText() {
		if err := s.loadRelevantPosts(ctx, discussions, search); err != nil {
			return nil, err
		}
	}
	relations := slices.DeleteFunc(slices.Clone(load), func(r domain.Relation) bool {
		return r == domain.RelationRelevantPosts
	})
	if err := s.discussions.LoadRelations(ctx, discussions, relations, actor); err != nil {
		return nil, fmt.Errorf("failed to load relations: %w", err)
	}
	for i := range discussions {
		discussions[i].Capabilities = s.policy.Capabilities(actor, &discussions[i])
	}

	searchDuration.WithLabelValues(criteria.Sort, strconv.FormatBool(search.HasFreeText())).Observe(time.Since(start).Seconds())
	searchResults.Observe(float64(len(discussions)))
	logger.Ctx(ctx).Debug("discussion search",
		"component", "search",
		"query", criteria.Query,
		"sort", criteria.Sort,
		"limit", limit,
		"offset", offset,
		"results", len(discussions),
		"has_more", areMoreResults,
	)

	return &domain.SearchResults{Discussions: discussions, AreMoreResults: areMoreResults}, nil
}

func (s *Searcher) loadRelevantPosts(ctx context.Context, discussions []domain.Discussion, search *Search) error {
	relevant := search.RelevantPostIds()
	var ids []domain.PostId
	for _, d := range discussions {
		postIds := relevant[d.Id]
		ids = append(ids, postIds[:min(len(postIds), s.opts.RelevantPostsPerDiscussion)]...)
	}
	if len(ids) == 0 {
		return nil
	}

	posts, err := s.posts.FindByIds(ctx, ids, search.Actor())
	if err != nil {
		return fmt.Errorf("failed to load relevant posts: %w", err)
	}

	byDiscussion := make(map[domain.DiscussionId][]domain.Post)
	for _, p := range posts {
		p.Excerpt = Excerpt(p.Content, search.FreeText(), s.opts.ExcerptLength)
		byDiscussion[p.DiscussionId] = append(byDiscussion[p.DiscussionId], p)
	}
	for i := range discussions {
		discussions[i].RelevantPosts = byDiscussion[discussions[i].Id]
	}
	return nil
}
