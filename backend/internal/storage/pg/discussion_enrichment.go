package pg

import (
	"context"
	"fmt"
	"slices"

	"github.com/itchan-dev/forum/shared/domain"
	"github.com/lib/pq"
)

// LoadRelations attaches the requested relations with one query per relation,
// then the actor's read state.
func (s *Storage) LoadRelations(ctx context.Context, discussions []domain.Discussion, relations []domain.Relation, actor *domain.User) error {
	if len(discussions) == 0 {
		return nil
	}

	if slices.Contains(relations, domain.RelationStartUser) {
		if err := enrichDiscussionsWithUsers(s.db, discussions,
			func(d *domain.Discussion) domain.UserId { return d.StartUserId },
			func(d *domain.Discussion, u *domain.User) { d.StartUser = u },
		); err != nil {
			return err
		}
	}
	if slices.Contains(relations, domain.RelationLastUser) {
		if err := enrichDiscussionsWithUsers(s.db, discussions,
			func(d *domain.Discussion) domain.UserId { return d.LastUserId },
			func(d *domain.Discussion, u *domain.User) { d.LastUser = u },
		); err != nil {
			return err
		}
	}
	if slices.Contains(relations, domain.RelationStartPost) {
		if err := enrichDiscussionsWithPosts(s.db, discussions,
			func(d *domain.Discussion) domain.PostId { return d.StartPostId },
			func(d *domain.Discussion, p *domain.Post) { d.StartPost = p },
		); err != nil {
			return err
		}
	}
	if slices.Contains(relations, domain.RelationLastPost) {
		if err := enrichDiscussionsWithPosts(s.db, discussions,
			func(d *domain.Discussion) domain.PostId { return d.LastPostId },
			func(d *domain.Discussion, p *domain.Post) { d.LastPost = p },
		); err != nil {
			return err
		}
	}

	if actor.IsGuest() {
		return nil
	}
	return enrichDiscussionsWithReadState(s.db, discussions, actor.Id)
}

func enrichDiscussionsWithUsers(
	q Querier,
	discussions []domain.Discussion,
	key func(*domain.Discussion) domain.UserId,
	set func(*domain.Discussion, *domain.User),
) error {
	ids := make([]domain.UserId, 0, len(discussions))
	for i := range discussions {
		if id := key(&discussions[i]); id != 0 {
			ids = append(ids, id)
		}
	}
	users, err := usersByIds(q, ids)
	if err != nil {
		return err
	}
	for i := range discussions {
		if user, ok := users[key(&discussions[i])]; ok {
			set(&discussions[i], user)
		}
	}
	return nil
}

func enrichDiscussionsWithPosts(
	q Querier,
	discussions []domain.Discussion,
	key func(*domain.Discussion) domain.PostId,
	set func(*domain.Discussion, *domain.Post),
) error {
	ids := make([]domain.PostId, 0, len(discussions))
	for i := range discussions {
		if id := key(&discussions[i]); id != 0 {
			ids = append(ids, id)
		}
	}
	if len(ids) == 0 {
		return nil
	}

	rows, err := q.Query(`SELECT `+postColumns+` FROM posts WHERE id = ANY($1)`, pq.Array(ids))
	if err != nil {
		return fmt.Errorf("failed to fetch posts of discussions: %w", err)
	}
	var posts []domain.Post
	for rows.Next() {
		post, err := scanPost(rows)
		if err != nil {
			rows.Close()
			return fmt.Errorf("failed to scan post row: %w", err)
		}
		posts = append(posts, post)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}
	if err := enrichPostsWithUsers(q, posts); err != nil {
		return err
	}

	byId := make(map[domain.PostId]*domain.Post, len(posts))
	for i := range posts {
		byId[posts[i].Id] = &posts[i]
	}
	for i := range discussions {
		if post, ok := byId[key(&discussions[i])]; ok {
			set(&discussions[i], post)
		}
	}
	return nil
}

func enrichDiscussionsWithReadState(q Querier, discussions []domain.Discussion, userId domain.UserId) error {
	ids := make([]domain.DiscussionId, len(discussions))
	for i := range discussions {
		ids[i] = discussions[i].Id
	}
	states, err := readStates(q, userId, ids)
	if err != nil {
		return err
	}
	for i := range discussions {
		discussions[i].State = states[discussions[i].Id]
	}
	return nil
}
