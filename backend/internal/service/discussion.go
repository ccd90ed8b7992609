package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/gosimple/slug"
	"github.com/itchan-dev/forum/backend/internal/access"
	"github.com/itchan-dev/forum/backend/internal/events"
	"github.com/itchan-dev/forum/shared/domain"
	"github.com/itchan-dev/forum/shared/errors"
	"github.com/itchan-dev/forum/shared/logger"
	"github.com/itchan-dev/forum/shared/utils"
)

// relations loaded for listings and for a single discussion
var (
	ListRelations = []domain.Relation{
		domain.RelationStartUser,
		domain.RelationLastUser,
		domain.RelationStartPost,
		domain.RelationRelevantPosts,
	}
	showRelations = []domain.Relation{domain.RelationStartUser, domain.RelationLastUser}
)

// to mock service in tests
type DiscussionService interface {
	Search(ctx context.Context, criteria domain.SearchCriteria, limit, offset int) (*domain.SearchResults, error)
	Start(ctx context.Context, actor *domain.User, data StartData) (domain.Discussion, error)
	Edit(ctx context.Context, actor *domain.User, id domain.DiscussionId, data domain.DiscussionEditData) (domain.Discussion, error)
	Delete(ctx context.Context, actor *domain.User, id domain.DiscussionId) error
	Show(ctx context.Context, actor *domain.User, id domain.DiscussionId, near domain.PostNumber, offset, limit int) (*domain.DiscussionPage, error)
	IndexForNumber(ctx context.Context, actor *domain.User, id domain.DiscussionId, number domain.PostNumber) (int, error)
}

type StartData struct {
	Title     string `validate:"required,max=80"`
	Content   string `validate:"required"`
	IsPrivate bool
}

type Discussion struct {
	storage  DiscussionStorage
	searcher Searcher
	policy   *access.Policy
	events   events.Notifier
}

type DiscussionStorage interface {
	CreateDiscussion(ctx context.Context, data domain.DiscussionCreationData) (domain.Discussion, domain.Post, error)
	GetDiscussion(ctx context.Context, id domain.DiscussionId) (domain.Discussion, error)
	FindDiscussion(ctx context.Context, id domain.DiscussionId, actor *domain.User) (domain.Discussion, error)
	RenameDiscussion(ctx context.Context, id domain.DiscussionId, title domain.DiscussionTitle, slug string, event domain.PostCreationData) (domain.Post, error)
	SetDiscussionHidden(ctx context.Context, id domain.DiscussionId, hidden bool, actor domain.UserId) error
	DeleteDiscussion(ctx context.Context, id domain.DiscussionId) error
	VisiblePostIds(ctx context.Context, d *domain.Discussion, actor *domain.User) ([]domain.PostId, error)
	ListPosts(ctx context.Context, d *domain.Discussion, actor *domain.User, limit, offset int) ([]domain.Post, error)
	IndexForNumber(ctx context.Context, id domain.DiscussionId, number domain.PostNumber, actor *domain.User) (int, error)
	LoadRelations(ctx context.Context, discussions []domain.Discussion, relations []domain.Relation, actor *domain.User) error
}

type Searcher interface {
	Search(ctx context.Context, criteria domain.SearchCriteria, limit, offset int, load []domain.Relation) (*domain.SearchResults, error)
}

func NewDiscussion(storage DiscussionStorage, searcher Searcher, policy *access.Policy, notifier events.Notifier) DiscussionService {
	return &Discussion{storage: storage, searcher: searcher, policy: policy, events: notifier}
}

func (s *Discussion) Search(ctx context.Context, criteria domain.SearchCriteria, limit, offset int) (*domain.SearchResults, error) {
	return s.searcher.Search(ctx, criteria, limit, offset, ListRelations)
}

func (s *Discussion) Start(ctx context.Context, actor *domain.User, data StartData) (domain.Discussion, error) {
	if err := s.policy.Assert(actor, access.StartDiscussion, nil); err != nil {
		return domain.Discussion{}, err
	}
	data.Title = strings.TrimSpace(data.Title)
	if err := utils.Validate(data); err != nil {
		return domain.Discussion{}, err
	}

	d, post, err := s.storage.CreateDiscussion(ctx, domain.DiscussionCreationData{
		Title:     data.Title,
		Slug:      slug.Make(data.Title),
		IsPrivate: data.IsPrivate,
		Author:    *actor,
		Content:   data.Content,
	})
	if err != nil {
		return domain.Discussion{}, err
	}

	logger.Ctx(ctx).Info("discussion started", "component", "discussion", "discussion_id", d.Id, "user_id", actor.Id)
	s.notify(ctx,
		events.DiscussionWasStarted{Discussion: d, Actor: actor},
		events.PostWasPosted{Post: post, Actor: actor},
	)
	d.Capabilities = s.policy.Capabilities(actor, &d)
	return d, nil
}

// Edit applies the requested changes, each guarded by its own ability.
// Every check passes before anything is written.
func (s *Discussion) Edit(ctx context.Context, actor *domain.User, id domain.DiscussionId, data domain.DiscussionEditData) (domain.Discussion, error) {
	d, err := s.storage.FindDiscussion(ctx, id, actor)
	if err != nil {
		return domain.Discussion{}, err
	}

	var title domain.DiscussionTitle
	renaming := false
	if data.Title != nil {
		if err := s.policy.Assert(actor, access.Rename, &d); err != nil {
			return domain.Discussion{}, err
		}
		title = strings.TrimSpace(*data.Title)
		if err := utils.Validate(renameData{Title: title}); err != nil {
			return domain.Discussion{}, err
		}
		renaming = title != d.Title
	}
	hiding := data.IsHidden != nil && *data.IsHidden != d.IsHidden()
	if hiding {
		if err := s.policy.Assert(actor, access.Hide, &d); err != nil {
			return domain.Discussion{}, err
		}
	}

	if renaming {
		if err := s.rename(ctx, actor, &d, title); err != nil {
			return domain.Discussion{}, err
		}
	}
	if hiding {
		if err := s.setHidden(ctx, actor, &d, *data.IsHidden); err != nil {
			return domain.Discussion{}, err
		}
	}

	updated, err := s.storage.GetDiscussion(ctx, id)
	if err != nil {
		return domain.Discussion{}, err
	}
	updated.Capabilities = s.policy.Capabilities(actor, &updated)
	return updated, nil
}

type renameData struct {
	Title string `validate:"required,max=80"`
}

// rename expects the ability and the title to be checked already.
func (s *Discussion) rename(ctx context.Context, actor *domain.User, d *domain.Discussion, title domain.DiscussionTitle) error {
	content, err := json.Marshal([]string{d.Title, title})
	if err != nil {
		return fmt.Errorf("failed to encode rename: %w", err)
	}
	post, err := s.storage.RenameDiscussion(ctx, d.Id, title, slug.Make(title), domain.PostCreationData{
		Author:  *actor,
		Content: string(content),
	})
	if err != nil {
		return err
	}

	oldTitle := d.Title
	d.Title = title
	logger.Ctx(ctx).Info("discussion renamed", "component", "discussion", "discussion_id", d.Id, "user_id", actor.Id)
	s.notify(ctx,
		events.DiscussionWasRenamed{Discussion: *d, OldTitle: oldTitle, Actor: actor},
		events.PostWasPosted{Post: post, Actor: actor},
	)
	return nil
}

func (s *Discussion) setHidden(ctx context.Context, actor *domain.User, d *domain.Discussion, hidden bool) error {
	if err := s.storage.SetDiscussionHidden(ctx, d.Id, hidden, actor.Id); err != nil {
		return err
	}

	logger.Ctx(ctx).Info("discussion visibility changed", "component", "discussion", "discussion_id", d.Id, "hidden", hidden, "user_id", actor.Id)
	if hidden {
		s.notify(ctx, events.DiscussionWasHidden{Discussion: *d, Actor: actor})
	} else {
		s.notify(ctx, events.DiscussionWasRestored{Discussion: *d, Actor: actor})
	}
	return nil
}

func (s *Discussion) Delete(ctx context.Context, actor *domain.User, id domain.DiscussionId) error {
	d, err := s.storage.FindDiscussion(ctx, id, actor)
	if err != nil {
		return err
	}
	if err := s.policy.Assert(actor, access.Delete, &d); err != nil {
		return err
	}
	if err := s.storage.DeleteDiscussion(ctx, id); err != nil {
		return err
	}

	logger.Ctx(ctx).Info("discussion deleted", "component", "discussion", "discussion_id", id, "user_id", actor.Id)
	s.notify(ctx, events.DiscussionWasDeleted{Discussion: d, Actor: actor})
	return nil
}

// Show returns the discussion with one window of its visible posts. A near
// number greater than one centres the window on the closest visible post and
// overrides offset.
func (s *Discussion) Show(ctx context.Context, actor *domain.User, id domain.DiscussionId, near domain.PostNumber, offset, limit int) (*domain.DiscussionPage, error) {
	if limit <= 0 {
		return nil, errors.Validation("limit must be positive")
	}
	d, err := s.storage.FindDiscussion(ctx, id, actor)
	if err != nil {
		return nil, err
	}

	if near > 1 {
		index, err := s.storage.IndexForNumber(ctx, id, near, actor)
		if err != nil {
			return nil, err
		}
		offset = max(0, index-limit/2)
	}
	offset = max(0, offset)

	postIds, err := s.storage.VisiblePostIds(ctx, &d, actor)
	if err != nil {
		return nil, err
	}
	posts, err := s.storage.ListPosts(ctx, &d, actor, limit, offset)
	if err != nil {
		return nil, err
	}

	discussions := []domain.Discussion{d}
	if err := s.storage.LoadRelations(ctx, discussions, showRelations, actor); err != nil {
		return nil, err
	}
	d = discussions[0]
	d.Capabilities = s.policy.Capabilities(actor, &d)

	return &domain.DiscussionPage{Discussion: d, PostIds: postIds, Posts: posts, Offset: offset}, nil
}

func (s *Discussion) IndexForNumber(ctx context.Context, actor *domain.User, id domain.DiscussionId, number domain.PostNumber) (int, error) {
	return s.storage.IndexForNumber(ctx, id, number, actor)
}

// notify hands events to the listeners. Listener failures are logged by the
// dispatcher and never undo a committed command.
func (s *Discussion) notify(ctx context.Context, evs ...events.Event) {
	_ = s.events.Notify(ctx, evs...)
}
