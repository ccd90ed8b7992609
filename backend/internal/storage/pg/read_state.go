package pg

import (
	"context"
	"fmt"
	"time"

	"github.com/itchan-dev/forum/shared/domain"
	"github.com/lib/pq"
)

// MarkRead records that userId has read discussionId up to number. The stored
// number never moves backwards and the read time only changes when it advances.
func (s *Storage) MarkRead(ctx context.Context, userId domain.UserId, discussionId domain.DiscussionId, number domain.PostNumber) (domain.ReadState, bool, error) {
	now := time.Now().UTC()
	state := domain.ReadState{UserId: userId, DiscussionId: discussionId}
	var advanced bool
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO discussions_users AS du (user_id, discussion_id, read_time, read_number)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id, discussion_id) DO UPDATE SET
			read_number = GREATEST(du.read_number, EXCLUDED.read_number),
			read_time = CASE
				WHEN EXCLUDED.read_number > du.read_number THEN EXCLUDED.read_time
				ELSE du.read_time
			END
		RETURNING read_time, read_number, read_time = $3
	`, userId, discussionId, now, number).Scan(&state.ReadTime, &state.ReadNumber, &advanced)
	if err != nil {
		return domain.ReadState{}, false, fmt.Errorf("failed to mark discussion %d as read: %w", discussionId, err)
	}
	return state, advanced, nil
}

// ReadDiscussionIds returns the discussions userId has read up to their last post.
func (s *Storage) ReadDiscussionIds(ctx context.Context, userId domain.UserId) ([]domain.DiscussionId, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT du.discussion_id
		FROM discussions_users du
		JOIN discussions d ON d.id = du.discussion_id
		WHERE du.user_id = $1 AND du.read_number >= d.last_post_number
	`, userId)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch read discussions of user %d: %w", userId, err)
	}
	defer rows.Close()

	ids := []domain.DiscussionId{}
	for rows.Next() {
		var id domain.DiscussionId
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan read discussion: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// readStates returns the states userId holds among discussionIds, keyed by discussion.
func readStates(q Querier, userId domain.UserId, discussionIds []domain.DiscussionId) (map[domain.DiscussionId]*domain.ReadState, error) {
	states := make(map[domain.DiscussionId]*domain.ReadState, len(discussionIds))
	if len(discussionIds) == 0 {
		return states, nil
	}
	rows, err := q.Query(`
		SELECT discussion_id, read_time, read_number
		FROM discussions_users
		WHERE user_id = $1 AND discussion_id = ANY($2)
	`, userId, pq.Array(discussionIds))
	if err != nil {
		return nil, fmt.Errorf("failed to fetch read states of user %d: %w", userId, err)
	}
	defer rows.Close()

	for rows.Next() {
		state := &domain.ReadState{UserId: userId}
		if err := rows.Scan(&state.DiscussionId, &state.ReadTime, &state.ReadNumber); err != nil {
			return nil, fmt.Errorf("failed to scan read state: %w", err)
		}
		states[state.DiscussionId] = state
	}
	return states, rows.Err()
}

func (s *Storage) ReadState(ctx context.Context, userId domain.UserId, discussionId domain.DiscussionId) (*domain.ReadState, error) {
	states, err := readStates(s.db, userId, []domain.DiscussionId{discussionId})
	if err != nil {
		return nil, err
	}
	return states[discussionId], nil
}

// MarkAllAsRead moves the user's global read baseline to now.
func (s *Storage) MarkAllAsRead(ctx context.Context, userId domain.UserId) (time.Time, error) {
	now := time.Now().UTC()
	result, err := s.db.ExecContext(ctx, `UPDATE users SET read_time = $1 WHERE id = $2`, now, userId)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to mark all as read for user %d: %w", userId, err)
	}
	if err := expectAffected(result, "User not found"); err != nil {
		return time.Time{}, err
	}
	return now, nil
}
