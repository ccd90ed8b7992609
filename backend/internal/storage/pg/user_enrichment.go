package pg

import (
	"fmt"

	"github.com/itchan-dev/forum/shared/domain"
	"github.com/lib/pq"
)

// usersByIds fetches the public profile of every user in ids.
func usersByIds(q Querier, ids []domain.UserId) (map[domain.UserId]*domain.User, error) {
	users := make(map[domain.UserId]*domain.User, len(ids))
	if len(ids) == 0 {
		return users, nil
	}

	rows, err := q.Query(`
		SELECT id, username, created_at
		FROM users
		WHERE id = ANY($1)
	`, pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("failed to fetch users: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		user := &domain.User{}
		if err := rows.Scan(&user.Id, &user.Username, &user.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan user row: %w", err)
		}
		users[user.Id] = user
	}
	return users, rows.Err()
}

// enrichPostsWithUsers attaches the author of every post. Posts of deleted
// users keep a nil User.
func enrichPostsWithUsers(q Querier, posts []domain.Post) error {
	ids := make([]domain.UserId, 0, len(posts))
	for _, post := range posts {
		if post.UserId != 0 {
			ids = append(ids, post.UserId)
		}
	}
	users, err := usersByIds(q, ids)
	if err != nil {
		return err
	}
	for i := range posts {
		posts[i].User = users[posts[i].UserId]
	}
	return nil
}
