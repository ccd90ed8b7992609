package pg

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/itchan-dev/forum/backend/internal/access"
	"github.com/itchan-dev/forum/shared/domain"
	internal_errors "github.com/itchan-dev/forum/shared/errors"
	"github.com/lib/pq"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type queryRower interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// CreatePost appends a post under the next number of its discussion.
func (s *Storage) CreatePost(ctx context.Context, data domain.PostCreationData) (domain.Post, error) {
	var post domain.Post
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		var err error
		post, err = createPost(ctx, tx, data, time.Now().UTC())
		return err
	})
	return post, err
}

// createPost allocates the number from the discussion counter, so numbers
// are never handed out twice even after deletions.
func createPost(ctx context.Context, q queryRower, data domain.PostCreationData, now time.Time) (domain.Post, error) {
	var number domain.PostNumber
	err := q.QueryRowContext(ctx, `
		UPDATE discussions SET post_number_index = post_number_index + 1
		WHERE id = $1
		RETURNING post_number_index
	`, data.DiscussionId).Scan(&number)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Post{}, internal_errors.NotFound("Discussion not found")
		}
		return domain.Post{}, fmt.Errorf("failed to allocate post number: %w", err)
	}

	post, err := scanPost(q.QueryRowContext(ctx, `
		INSERT INTO posts (discussion_id, number, time, user_id, type, content, is_private)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING `+postColumns,
		data.DiscussionId, number, now, nullId(data.Author.Id), data.Type, data.Content, data.IsPrivate,
	))
	if err != nil {
		return domain.Post{}, fmt.Errorf("failed to insert post: %w", err)
	}
	return post, nil
}

// GetPost loads a post without any visibility check.
func (s *Storage) GetPost(ctx context.Context, id domain.PostId) (domain.Post, error) {
	post, err := scanPost(s.db.QueryRowContext(ctx, `SELECT `+postColumns+` FROM posts WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Post{}, internal_errors.NotFound("Post not found")
		}
		return domain.Post{}, fmt.Errorf("failed to fetch post %d: %w", id, err)
	}
	return post, nil
}

func (s *Storage) SetPostHidden(ctx context.Context, id domain.PostId, hidden bool, actor domain.UserId) (domain.Post, error) {
	var row *sql.Row
	if hidden {
		row = s.db.QueryRowContext(ctx, `
			UPDATE posts SET hide_time = $1, hide_user_id = $2 WHERE id = $3
			RETURNING `+postColumns, time.Now().UTC(), nullId(actor), id)
	} else {
		row = s.db.QueryRowContext(ctx, `
			UPDATE posts SET hide_time = NULL, hide_user_id = NULL WHERE id = $1
			RETURNING `+postColumns, id)
	}
	post, err := scanPost(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Post{}, internal_errors.NotFound("Post not found")
		}
		return domain.Post{}, fmt.Errorf("failed to update post %d visibility: %w", id, err)
	}
	return post, nil
}

// DeletePost removes a post. When it was the last post of its discussion the
// discussion goes with it in the same transaction, and discussionDeleted is true.
func (s *Storage) DeletePost(ctx context.Context, id domain.PostId) (discussionDeleted bool, err error) {
	err = s.withTx(ctx, func(tx *sql.Tx) error {
		var discussionId domain.DiscussionId
		err := tx.QueryRowContext(ctx, `DELETE FROM posts WHERE id = $1 RETURNING discussion_id`, id).Scan(&discussionId)
		if errors.Is(err, sql.ErrNoRows) {
			return internal_errors.NotFound("Post not found")
		}
		if err != nil {
			return fmt.Errorf("failed to delete post %d: %w", id, err)
		}

		// serializes concurrent deletes of the remaining posts
		if _, err := tx.ExecContext(ctx, `SELECT id FROM discussions WHERE id = $1 FOR UPDATE`, discussionId); err != nil {
			return fmt.Errorf("failed to lock discussion %d: %w", discussionId, err)
		}
		result, err := tx.ExecContext(ctx, `
			DELETE FROM discussions
			WHERE id = $1 AND NOT EXISTS (SELECT 1 FROM posts WHERE discussion_id = $1)
		`, discussionId)
		if err != nil {
			return fmt.Errorf("failed to delete empty discussion %d: %w", discussionId, err)
		}
		affected, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to read affected rows: %w", err)
		}
		discussionDeleted = affected > 0
		return nil
	})
	return discussionDeleted, err
}

// postsOf is the visible posts of d as a reusable query.
func (s *Storage) postsOf(ctx context.Context, d *domain.Discussion, actor *domain.User) *gorm.DB {
	q := s.policy.ScopePosts(s.gorm.WithContext(ctx).Table("posts"), d, actor)
	return q.Session(&gorm.Session{})
}

// VisiblePostIds returns the ids of every post of d visible to actor, in reading order.
func (s *Storage) VisiblePostIds(ctx context.Context, d *domain.Discussion, actor *domain.User) ([]domain.PostId, error) {
	var ids []domain.PostId
	err := s.postsOf(ctx, d, actor).Order("posts.time, posts.id").Pluck("posts.id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list post ids of discussion %d: %w", d.Id, err)
	}
	return ids, nil
}

// ListPosts returns one window of the visible posts of d in reading order, authors attached.
func (s *Storage) ListPosts(ctx context.Context, d *domain.Discussion, actor *domain.User, limit, offset int) ([]domain.Post, error) {
	q := s.postsOf(ctx, d, actor).Order("posts.time, posts.id")
	if offset > 0 {
		q = q.Offset(offset)
	}
	if limit > 0 {
		q = q.Limit(limit)
	}
	var rows []postRow
	if err := q.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to list posts of discussion %d: %w", d.Id, err)
	}
	posts := toPosts(rows)
	if err := enrichPostsWithUsers(s.db, posts); err != nil {
		return nil, err
	}
	return posts, nil
}

type postPosition struct {
	Id   int64     `gorm:"column:id"`
	Time time.Time `gorm:"column:time"`
}

// IndexForNumber returns the position, in reading order, of the visible post
// whose number is closest to number (ties go to the smaller number).
func (s *Storage) IndexForNumber(ctx context.Context, discussionId domain.DiscussionId, number domain.PostNumber, actor *domain.User) (int, error) {
	d, err := s.FindDiscussion(ctx, discussionId, actor)
	if err != nil {
		return 0, err
	}
	posts := s.postsOf(ctx, &d, actor)

	var closest postPosition
	err = posts.Select("posts.id, posts.time").
		Clauses(clause.OrderBy{Expression: clause.Expr{
			SQL:                "ABS(posts.number - ?), posts.number",
			Vars:               []any{number},
			WithoutParentheses: true,
		}}).
		Take(&closest).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to find post closest to %d: %w", number, err)
	}

	var index int64
	err = posts.Where("(posts.time, posts.id) < (?, ?)", closest.Time, closest.Id).Count(&index).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count posts before %d: %w", closest.Id, err)
	}
	return int(index), nil
}

// FindByIds returns the posts among ids that actor may see, authors attached,
// in the order of ids.
func (s *Storage) FindByIds(ctx context.Context, ids []domain.PostId, actor *domain.User) ([]domain.Post, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	var owners []discussionRow
	err := s.policy.ScopeDiscussions(s.Query(ctx), actor).
		Where("discussions.id IN (SELECT posts.discussion_id FROM posts WHERE posts.id = ANY(?))", pq.Array(ids)).
		Find(&owners).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load discussions of posts: %w", err)
	}

	visible := make([]clause.Expression, 0, len(owners))
	for _, row := range owners {
		d := row.toDomain()
		visible = append(visible, s.policy.PostConditions(&d, actor))
	}

	var rows []postRow
	err = s.gorm.WithContext(ctx).Table("posts").
		Where("posts.id = ANY(?)", pq.Array(ids)).
		Where(access.AnyOf(visible...)).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load posts: %w", err)
	}

	posts := toPosts(rows)
	slices.SortFunc(posts, func(a, b domain.Post) int {
		return slices.Index(ids, a.Id) - slices.Index(ids, b.Id)
	})
	if err := enrichPostsWithUsers(s.db, posts); err != nil {
		return nil, err
	}
	return posts, nil
}

func toPosts(rows []postRow) []domain.Post {
	posts := make([]domain.Post, len(rows))
	for i, row := range rows {
		posts[i] = row.toDomain()
	}
	return posts
}
