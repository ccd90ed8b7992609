package service

import (
	"context"
	"time"

	"github.com/itchan-dev/forum/backend/internal/events"
	"github.com/itchan-dev/forum/shared/domain"
	"github.com/itchan-dev/forum/shared/errors"
	"github.com/itchan-dev/forum/shared/logger"
)

type ReadService interface {
	MarkRead(ctx context.Context, actor *domain.User, discussionId domain.DiscussionId, number domain.PostNumber) (domain.ReadState, error)
	MarkAllAsRead(ctx context.Context, actor *domain.User) error
}

type Read struct {
	storage ReadStorage
	events  events.Notifier
}

type ReadStorage interface {
	FindDiscussion(ctx context.Context, id domain.DiscussionId, actor *domain.User) (domain.Discussion, error)
	MarkRead(ctx context.Context, userId domain.UserId, discussionId domain.DiscussionId, number domain.PostNumber) (domain.ReadState, bool, error)
	MarkAllAsRead(ctx context.Context, userId domain.UserId) (time.Time, error)
}

func NewRead(storage ReadStorage, notifier events.Notifier) ReadService {
	return &Read{storage: storage, events: notifier}
}

// MarkRead moves the actor's read position forward. Lower numbers than the
// stored one leave the state untouched.
func (s *Read) MarkRead(ctx context.Context, actor *domain.User, discussionId domain.DiscussionId, number domain.PostNumber) (domain.ReadState, error) {
	if actor.IsGuest() {
		return domain.ReadState{}, errors.PermissionDenied("Guests cannot track reading")
	}
	if _, err := s.storage.FindDiscussion(ctx, discussionId, actor); err != nil {
		return domain.ReadState{}, err
	}
	if number < 1 {
		return domain.ReadState{}, errors.Validation("number must be at least 1")
	}

	state, advanced, err := s.storage.MarkRead(ctx, actor.Id, discussionId, number)
	if err != nil {
		return domain.ReadState{}, err
	}
	if advanced {
		logger.Ctx(ctx).Debug("discussion read", "component", "read", "discussion_id", discussionId, "user_id", actor.Id, "number", state.ReadNumber)
		_ = s.events.Notify(ctx, events.DiscussionWasRead{State: state, Actor: actor})
	}
	return state, nil
}

func (s *Read) MarkAllAsRead(ctx context.Context, actor *domain.User) error {
	if actor.IsGuest() {
		return errors.PermissionDenied("Guests cannot track reading")
	}
	at, err := s.storage.MarkAllAsRead(ctx, actor.Id)
	if err != nil {
		return err
	}
	actor.ReadTime = &at
	return nil
}
