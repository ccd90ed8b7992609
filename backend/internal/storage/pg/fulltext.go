package pg

import (
	"context"
	"fmt"

	"github.com/itchan-dev/forum/backend/internal/search"
	"github.com/itchan-dev/forum/shared/domain"
	"github.com/lib/pq"
)

// Match implements search.FulltextDriver on PostgreSQL text search. Only
// visible comments are matched; post visibility is applied again when the
// relevant posts are loaded for an actor.
func (s *Storage) Match(ctx context.Context, text string) ([]search.FulltextMatch, error) {
	rows, err := s.db.QueryContext(ctx, `
		WITH matched AS (
			SELECT id, discussion_id,
				ts_rank(to_tsvector($1::regconfig, content), websearch_to_tsquery($1::regconfig, $2)) AS rank
			FROM posts
			WHERE type = $3
				AND hide_time IS NULL
				AND to_tsvector($1::regconfig, content) @@ websearch_to_tsquery($1::regconfig, $2)
		)
		SELECT discussion_id, array_agg(id ORDER BY rank DESC, id)
		FROM matched
		GROUP BY discussion_id
		ORDER BY MAX(rank) DESC, discussion_id DESC
		LIMIT $4
	`, s.opts.FulltextLanguage, text, domain.PostTypeComment, s.opts.FulltextLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to run fulltext match: %w", err)
	}
	defer rows.Close()

	var matches []search.FulltextMatch
	for rows.Next() {
		var m search.FulltextMatch
		var ids pq.Int64Array
		if err := rows.Scan(&m.DiscussionId, &ids); err != nil {
			return nil, fmt.Errorf("failed to scan fulltext match: %w", err)
		}
		m.PostIds = []domain.PostId(ids)
		matches = append(matches, m)
	}
	return matches, rows.Err()
}
