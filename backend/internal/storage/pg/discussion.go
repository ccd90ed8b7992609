package pg

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/itchan-dev/forum/shared/domain"
	internal_errors "github.com/itchan-dev/forum/shared/errors"
	"gorm.io/gorm"
)

// CreateDiscussion inserts the discussion together with its start post.
func (s *Storage) CreateDiscussion(ctx context.Context, data domain.DiscussionCreationData) (domain.Discussion, domain.Post, error) {
	var post domain.Post
	var id domain.DiscussionId
	now := time.Now().UTC()

	err := s.withTx(ctx, func(tx *sql.Tx) error {
		err := tx.QueryRowContext(ctx, `
			INSERT INTO discussions (title, slug, start_time, start_user_id, last_time, last_user_id, is_private)
			VALUES ($1, $2, $3, $4, $3, $4, $5)
			RETURNING id
		`, data.Title, data.Slug, now, nullId(data.Author.Id), data.IsPrivate).Scan(&id)
		if err != nil {
			return fmt.Errorf("failed to insert discussion: %w", err)
		}

		post, err = createPost(ctx, tx, domain.PostCreationData{
			DiscussionId: id,
			Author:       data.Author,
			Type:         domain.PostTypeComment,
			Content:      data.Content,
			IsPrivate:    data.IsPrivate,
		}, now)
		if err != nil {
			return fmt.Errorf("failed to create start post: %w", err)
		}

		if _, err := tx.ExecContext(ctx, `UPDATE discussions SET start_post_id = $1 WHERE id = $2`, post.Id, id); err != nil {
			return fmt.Errorf("failed to set start post: %w", err)
		}
		if err := refreshDiscussionMetadata(ctx, tx, id); err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		return domain.Discussion{}, domain.Post{}, err
	}

	d, err := s.GetDiscussion(ctx, id)
	if err != nil {
		return domain.Discussion{}, domain.Post{}, err
	}
	return d, post, nil
}

// GetDiscussion loads a discussion without any visibility check.
func (s *Storage) GetDiscussion(ctx context.Context, id domain.DiscussionId) (domain.Discussion, error) {
	var row discussionRow
	err := s.gorm.WithContext(ctx).Where("discussions.id = ?", id).Take(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.Discussion{}, internal_errors.NotFound("Discussion not found")
		}
		return domain.Discussion{}, fmt.Errorf("failed to fetch discussion %d: %w", id, err)
	}
	return row.toDomain(), nil
}

// FindDiscussion loads a discussion visible to actor. Invisible and missing
// discussions are both NotFound.
func (s *Storage) FindDiscussion(ctx context.Context, id domain.DiscussionId, actor *domain.User) (domain.Discussion, error) {
	var row discussionRow
	q := s.policy.ScopeDiscussions(s.Query(ctx), actor)
	err := q.Where("discussions.id = ?", id).Take(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.Discussion{}, internal_errors.NotFound("Discussion not found")
		}
		return domain.Discussion{}, fmt.Errorf("failed to fetch discussion %d: %w", id, err)
	}
	return row.toDomain(), nil
}

// Query starts a query on the discussions table.
func (s *Storage) Query(ctx context.Context) *gorm.DB {
	return s.gorm.WithContext(ctx).Table("discussions")
}

func (s *Storage) Find(q *gorm.DB) ([]domain.Discussion, error) {
	var rows []discussionRow
	if err := q.Find(&rows).Error; err != nil {
		return nil, err
	}
	discussions := make([]domain.Discussion, len(rows))
	for i, row := range rows {
		discussions[i] = row.toDomain()
	}
	return discussions, nil
}

// RenameDiscussion changes the title and slug and appends the rename event post
// in the same transaction.
func (s *Storage) RenameDiscussion(ctx context.Context, id domain.DiscussionId, title domain.DiscussionTitle, slug string, event domain.PostCreationData) (domain.Post, error) {
	var post domain.Post
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		result, err := tx.ExecContext(ctx, `UPDATE discussions SET title = $1, slug = $2 WHERE id = $3`, title, slug, id)
		if err != nil {
			return fmt.Errorf("failed to rename discussion %d: %w", id, err)
		}
		if err := expectAffected(result, "Discussion not found"); err != nil {
			return err
		}
		event.DiscussionId = id
		event.Type = domain.PostTypeDiscussionRenamed
		post, err = createPost(ctx, tx, event, time.Now().UTC())
		return err
	})
	return post, err
}

// SetDiscussionHidden hides the discussion as actor, or restores it when hidden is false.
func (s *Storage) SetDiscussionHidden(ctx context.Context, id domain.DiscussionId, hidden bool, actor domain.UserId) error {
	var (
		result sql.Result
		err    error
	)
	if hidden {
		result, err = s.db.ExecContext(ctx, `UPDATE discussions SET hide_time = $1, hide_user_id = $2 WHERE id = $3`,
			time.Now().UTC(), nullId(actor), id)
	} else {
		result, err = s.db.ExecContext(ctx, `UPDATE discussions SET hide_time = NULL, hide_user_id = NULL WHERE id = $1`, id)
	}
	if err != nil {
		return fmt.Errorf("failed to update discussion %d visibility: %w", id, err)
	}
	return expectAffected(result, "Discussion not found")
}

// DeleteDiscussion removes the discussion; posts and read states cascade.
func (s *Storage) DeleteDiscussion(ctx context.Context, id domain.DiscussionId) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM discussions WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete discussion %d: %w", id, err)
	}
	return expectAffected(result, "Discussion not found")
}

// RefreshDiscussionMetadata recomputes counts and the last post from the posts table.
func (s *Storage) RefreshDiscussionMetadata(ctx context.Context, id domain.DiscussionId) error {
	return refreshDiscussionMetadata(ctx, s.db, id)
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// refreshDiscussionMetadata only looks at visible comments. When none is
// left the previous last post is kept.
func refreshDiscussionMetadata(ctx context.Context, q execer, id domain.DiscussionId) error {
	_, err := q.ExecContext(ctx, `
		UPDATE discussions d SET
			comments_count = stats.comments,
			participants_count = stats.participants,
			last_post_id = COALESCE(lp.id, d.last_post_id),
			last_post_number = COALESCE(lp.number, d.last_post_number),
			last_time = COALESCE(lp.time, d.last_time),
			last_user_id = CASE WHEN lp.id IS NULL THEN d.last_user_id ELSE lp.user_id END
		FROM (
			SELECT
				COUNT(*) AS comments,
				COUNT(DISTINCT user_id) AS participants
			FROM posts
			WHERE discussion_id = $1 AND type = $2 AND hide_time IS NULL
		) stats
		LEFT JOIN LATERAL (
			SELECT id, number, time, user_id
			FROM posts
			WHERE discussion_id = $1 AND type = $2 AND hide_time IS NULL
			ORDER BY number DESC
			LIMIT 1
		) lp ON TRUE
		WHERE d.id = $1
	`, id, domain.PostTypeComment)
	if err != nil {
		return fmt.Errorf("failed to refresh discussion %d metadata: %w", id, err)
	}
	return nil
}

// PostCount counts every post of the discussion, hidden ones included.
func (s *Storage) PostCount(ctx context.Context, id domain.DiscussionId) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM posts WHERE discussion_id = $1`, id).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count posts of discussion %d: %w", id, err)
	}
	return count, nil
}

func expectAffected(result sql.Result, notFound string) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if affected == 0 {
		return internal_errors.NotFound(notFound)
	}
	return nil
}
