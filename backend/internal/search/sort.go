package search

import (
	"github.com/itchan-dev/forum/shared/domain"
	"github.com/itchan-dev/forum/shared/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Every order ends on the id so equal keys page deterministically.
var sortOrders = map[domain.SortKey]string{
	domain.SortLatest: "discussions.last_time DESC, discussions.id DESC",
	domain.SortTop:    "discussions.comments_count DESC, discussions.id DESC",
	domain.SortNewest: "discussions.start_time DESC, discussions.id DESC",
	domain.SortOldest: "discussions.start_time ASC, discussions.id ASC",
}

func applySort(s *Search, key domain.SortKey) error {
	var order clause.Expression
	switch key {
	case domain.SortDefault:
		order = s.DefaultSort()
		if order == nil {
			order = clause.Expr{SQL: sortOrders[domain.SortLatest]}
		}
	case domain.SortRelevance:
		if !s.HasFreeText() {
			return errors.Validation("Sorting by relevance requires a search query")
		}
		order = s.DefaultSort()
		if order == nil {
			// the fulltext gambit always installs one, fall back to recency
			order = clause.Expr{SQL: sortOrders[domain.SortLatest]}
		}
	default:
		sql, ok := sortOrders[key]
		if !ok {
			return errors.Validation("Unknown sort: " + key)
		}
		order = clause.Expr{SQL: sql}
	}

	s.Apply(func(q *gorm.DB) *gorm.DB {
		return q.Clauses(clause.OrderBy{Expression: order})
	})
	return nil
}

func applyOffset(s *Search, offset int) {
	if offset > 0 {
		s.Apply(func(q *gorm.DB) *gorm.DB { return q.Offset(offset) })
	}
}

func applyLimit(s *Search, limit int) {
	if limit > 0 {
		s.Apply(func(q *gorm.DB) *gorm.DB { return q.Limit(limit) })
	}
}
