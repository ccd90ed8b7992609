package service

import (
	"context"

	"github.com/itchan-dev/forum/backend/internal/access"
	"github.com/itchan-dev/forum/backend/internal/events"
	"github.com/itchan-dev/forum/shared/domain"
	"github.com/itchan-dev/forum/shared/errors"
	"github.com/itchan-dev/forum/shared/logger"
	"github.com/itchan-dev/forum/shared/utils"
)

type PostService interface {
	Reply(ctx context.Context, actor *domain.User, discussionId domain.DiscussionId, content domain.PostContent) (domain.Post, error)
	Edit(ctx context.Context, actor *domain.User, id domain.PostId, data domain.PostEditData) (domain.Post, error)
	Delete(ctx context.Context, actor *domain.User, id domain.PostId) error
}

type Post struct {
	storage PostStorage
	policy  *access.Policy
	events  events.Notifier
}

type PostStorage interface {
	FindDiscussion(ctx context.Context, id domain.DiscussionId, actor *domain.User) (domain.Discussion, error)
	CreatePost(ctx context.Context, data domain.PostCreationData) (domain.Post, error)
	GetPost(ctx context.Context, id domain.PostId) (domain.Post, error)
	SetPostHidden(ctx context.Context, id domain.PostId, hidden bool, actor domain.UserId) (domain.Post, error)
	DeletePost(ctx context.Context, id domain.PostId) (discussionDeleted bool, err error)
}

func NewPost(storage PostStorage, policy *access.Policy, notifier events.Notifier) PostService {
	return &Post{storage: storage, policy: policy, events: notifier}
}

type replyData struct {
	Content string `validate:"required"`
}

func (s *Post) Reply(ctx context.Context, actor *domain.User, discussionId domain.DiscussionId, content domain.PostContent) (domain.Post, error) {
	d, err := s.storage.FindDiscussion(ctx, discussionId, actor)
	if err != nil {
		return domain.Post{}, err
	}
	if err := s.policy.Assert(actor, access.Reply, &d); err != nil {
		return domain.Post{}, err
	}
	if err := utils.Validate(replyData{Content: content}); err != nil {
		return domain.Post{}, err
	}

	post, err := s.storage.CreatePost(ctx, domain.PostCreationData{
		DiscussionId: d.Id,
		Author:       *actor,
		Type:         domain.PostTypeComment,
		Content:      content,
		IsPrivate:    d.IsPrivate,
	})
	if err != nil {
		return domain.Post{}, err
	}

	logger.Ctx(ctx).Info("post created", "component", "post", "post_id", post.Id, "discussion_id", d.Id, "number", post.Number)
	_ = s.events.Notify(ctx, events.PostWasPosted{Post: post, Actor: actor})
	post.User = actor
	return post, nil
}

// visiblePost loads a post the actor can reach through a visible discussion.
func (s *Post) visiblePost(ctx context.Context, actor *domain.User, id domain.PostId) (domain.Post, domain.Discussion, error) {
	post, err := s.storage.GetPost(ctx, id)
	if err != nil {
		return domain.Post{}, domain.Discussion{}, err
	}
	d, err := s.storage.FindDiscussion(ctx, post.DiscussionId, actor)
	if err != nil {
		if errors.IsNotFound(err) {
			return domain.Post{}, domain.Discussion{}, errors.NotFound("Post not found")
		}
		return domain.Post{}, domain.Discussion{}, err
	}
	if post.IsHidden() && !s.policy.CanEditPost(actor, &d, &post) {
		return domain.Post{}, domain.Discussion{}, errors.NotFound("Post not found")
	}
	return post, d, nil
}

// Edit hides or restores a post.
func (s *Post) Edit(ctx context.Context, actor *domain.User, id domain.PostId, data domain.PostEditData) (domain.Post, error) {
	post, d, err := s.visiblePost(ctx, actor, id)
	if err != nil {
		return domain.Post{}, err
	}
	if data.IsHidden == nil || *data.IsHidden == post.IsHidden() {
		return post, nil
	}
	if !s.policy.CanEditPost(actor, &d, &post) {
		return domain.Post{}, errors.PermissionDenied("You are not allowed to edit this post")
	}

	post, err = s.storage.SetPostHidden(ctx, id, *data.IsHidden, actor.Id)
	if err != nil {
		return domain.Post{}, err
	}

	logger.Ctx(ctx).Info("post visibility changed", "component", "post", "post_id", id, "hidden", *data.IsHidden, "user_id", actor.Id)
	if *data.IsHidden {
		_ = s.events.Notify(ctx, events.PostWasHidden{Post: post, Actor: actor})
	} else {
		_ = s.events.Notify(ctx, events.PostWasRestored{Post: post, Actor: actor})
	}
	return post, nil
}

// Delete removes a post for good. Deleting the last post of a discussion
// deletes the discussion too.
func (s *Post) Delete(ctx context.Context, actor *domain.User, id domain.PostId) error {
	post, d, err := s.visiblePost(ctx, actor, id)
	if err != nil {
		return err
	}
	if err := s.policy.Assert(actor, access.EditPosts, &d); err != nil {
		return err
	}
	discussionDeleted, err := s.storage.DeletePost(ctx, id)
	if err != nil {
		return err
	}

	logger.Ctx(ctx).Info("post deleted", "component", "post", "post_id", id, "discussion_id", d.Id, "discussion_deleted", discussionDeleted, "user_id", actor.Id)
	evs := []events.Event{events.PostWasDeleted{Post: post, Actor: actor}}
	if discussionDeleted {
		evs = append(evs, events.DiscussionWasDeleted{Discussion: d, Actor: actor})
	}
	_ = s.events.Notify(ctx, evs...)
	return nil
}
