// Package search turns a free text query into a scoped, ordered page of discussions.
package search

import (
	"github.com/itchan-dev/forum/shared/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Search is the state of one discussion search while it is being built.
// The searcher owns it; gambits read the actor and return predicates.
type Search struct {
	query           *gorm.DB
	actor           *domain.User
	freeText        string
	relevantPostIds map[domain.DiscussionId][]domain.PostId
	defaultSort     clause.Expression
}

func NewSearch(query *gorm.DB, actor *domain.User) *Search {
	return &Search{
		query:           query,
		actor:           actor,
		relevantPostIds: make(map[domain.DiscussionId][]domain.PostId),
	}
}

func (s *Search) Actor() *domain.User {
	return s.actor
}

// Query exposes the underlying query for configure hooks that need joins.
func (s *Search) Query() *gorm.DB {
	return s.query
}

// Where folds a predicate into the query. nil means the gambit contributed nothing.
func (s *Search) Where(expr clause.Expression) {
	if expr == nil {
		return
	}
	s.query = s.query.Where(expr)
}

// Apply replaces the query with fn's result.
func (s *Search) Apply(fn func(*gorm.DB) *gorm.DB) {
	s.query = fn(s.query)
}

func (s *Search) FreeText() string {
	return s.freeText
}

func (s *Search) HasFreeText() bool {
	return s.freeText != ""
}

func (s *Search) AddRelevantPostIds(id domain.DiscussionId, postIds ...domain.PostId) {
	s.relevantPostIds[id] = append(s.relevantPostIds[id], postIds...)
}

func (s *Search) RelevantPostIds() map[domain.DiscussionId][]domain.PostId {
	return s.relevantPostIds
}

// SetDefaultSort installs the ordering used when the caller gives no sort key.
func (s *Search) SetDefaultSort(order clause.Expression) {
	s.defaultSort = order
}

func (s *Search) DefaultSort() clause.Expression {
	return s.defaultSort
}
