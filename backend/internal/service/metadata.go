package service

import (
	"context"

	"github.com/itchan-dev/forum/backend/internal/events"
	"github.com/itchan-dev/forum/shared/domain"
	"github.com/itchan-dev/forum/shared/errors"
	"github.com/itchan-dev/forum/shared/logger"
)

type MetadataStorage interface {
	RefreshDiscussionMetadata(ctx context.Context, id domain.DiscussionId) error
	PostCount(ctx context.Context, id domain.DiscussionId) (int, error)
	DeleteDiscussion(ctx context.Context, id domain.DiscussionId) error
}

// DiscussionMetadataUpdater keeps the denormalized counters and last post of
// a discussion in line with its posts.
type DiscussionMetadataUpdater struct {
	storage MetadataStorage
}

func NewDiscussionMetadataUpdater(storage MetadataStorage) *DiscussionMetadataUpdater {
	return &DiscussionMetadataUpdater{storage: storage}
}

func (u *DiscussionMetadataUpdater) Subscribe(d *events.Dispatcher) {
	d.Listen(events.NamePostWasPosted, u.refresh)
	d.Listen(events.NamePostWasHidden, u.refresh)
	d.Listen(events.NamePostWasRestored, u.refresh)
	d.Listen(events.NamePostWasDeleted, u.postDeleted)
}

func (u *DiscussionMetadataUpdater) refresh(ctx context.Context, e events.Event) error {
	post, ok := eventPost(e)
	if !ok {
		return nil
	}
	return u.storage.RefreshDiscussionMetadata(ctx, post.DiscussionId)
}

func (u *DiscussionMetadataUpdater) postDeleted(ctx context.Context, e events.Event) error {
	post, ok := eventPost(e)
	if !ok {
		return nil
	}
	count, err := u.storage.PostCount(ctx, post.DiscussionId)
	if err != nil {
		return err
	}
	if count > 0 {
		return u.storage.RefreshDiscussionMetadata(ctx, post.DiscussionId)
	}

	logger.Ctx(ctx).Info("deleting discussion without posts", "component", "metadata", "discussion_id", post.DiscussionId)
	if err := u.storage.DeleteDiscussion(ctx, post.DiscussionId); err != nil && !errors.IsNotFound(err) {
		return err
	}
	return nil
}

func eventPost(e events.Event) (domain.Post, bool) {
	switch e := e.(type) {
	case events.PostWasPosted:
		return e.Post, true
	case events.PostWasHidden:
		return e.Post, true
	case events.PostWasRestored:
		return e.Post, true
	case events.PostWasDeleted:
		return e.Post, true
	}
	return domain.Post{}, false
}
