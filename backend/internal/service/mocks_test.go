package service

import (
	"context"
	"sync"
	"time"

	"github.com/itchan-dev/forum/backend/internal/access"
	"github.com/itchan-dev/forum/backend/internal/events"
	"github.com/itchan-dev/forum/shared/domain"
)

var (
	memberPerms = domain.Permissions{domain.PermissionViewDiscussions, domain.PermissionStartDiscussion, domain.PermissionReply}
	modPerms    = domain.Permissions{
		domain.PermissionViewDiscussions,
		domain.PermissionReply,
		domain.PermissionHide,
		domain.PermissionRename,
		domain.PermissionEditPosts,
	}
)

func newPolicy() *access.Policy {
	return access.NewPolicy(access.RenameSetting{}, access.Hooks{})
}

// --- Storage mock shared by every service ---

type MockStorage struct {
	mu sync.Mutex

	createDiscussionFunc    func(data domain.DiscussionCreationData) (domain.Discussion, domain.Post, error)
	getDiscussionFunc       func(id domain.DiscussionId) (domain.Discussion, error)
	findDiscussionFunc      func(id domain.DiscussionId, actor *domain.User) (domain.Discussion, error)
	renameDiscussionFunc    func(id domain.DiscussionId, title, slug string, event domain.PostCreationData) (domain.Post, error)
	setDiscussionHiddenFunc func(id domain.DiscussionId, hidden bool, actor domain.UserId) error
	deleteDiscussionFunc    func(id domain.DiscussionId) error
	visiblePostIdsFunc      func(d *domain.Discussion, actor *domain.User) ([]domain.PostId, error)
	listPostsFunc           func(d *domain.Discussion, actor *domain.User, limit, offset int) ([]domain.Post, error)
	indexForNumberFunc      func(id domain.DiscussionId, number domain.PostNumber, actor *domain.User) (int, error)
	loadRelationsFunc       func(discussions []domain.Discussion, relations []domain.Relation, actor *domain.User) error
	createPostFunc          func(data domain.PostCreationData) (domain.Post, error)
	getPostFunc             func(id domain.PostId) (domain.Post, error)
	setPostHiddenFunc       func(id domain.PostId, hidden bool, actor domain.UserId) (domain.Post, error)
	deletePostFunc          func(id domain.PostId) (bool, error)
	markReadFunc            func(userId domain.UserId, discussionId domain.DiscussionId, number domain.PostNumber) (domain.ReadState, bool, error)
	markAllAsReadFunc       func(userId domain.UserId) (time.Time, error)
	refreshFunc             func(id domain.DiscussionId) error
	postCountFunc           func(id domain.DiscussionId) (int, error)

	calls map[string]int
}

func (m *MockStorage) track(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.calls == nil {
		m.calls = make(map[string]int)
	}
	m.calls[name]++
}

func (m *MockStorage) Calls(name string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[name]
}

func (m *MockStorage) CreateDiscussion(_ context.Context, data domain.DiscussionCreationData) (domain.Discussion, domain.Post, error) {
	m.track("CreateDiscussion")
	if m.createDiscussionFunc != nil {
		return m.createDiscussionFunc(data)
	}
	return domain.Discussion{Id: 1, Title: data.Title, Slug: data.Slug}, domain.Post{Id: 1, DiscussionId: 1, Number: 1}, nil
}

func (m *MockStorage) GetDiscussion(_ context.Context, id domain.DiscussionId) (domain.Discussion, error) {
	m.track("GetDiscussion")
	if m.getDiscussionFunc != nil {
		return m.getDiscussionFunc(id)
	}
	return domain.Discussion{Id: id}, nil
}

func (m *MockStorage) FindDiscussion(_ context.Context, id domain.DiscussionId, actor *domain.User) (domain.Discussion, error) {
	m.track("FindDiscussion")
	if m.findDiscussionFunc != nil {
		return m.findDiscussionFunc(id, actor)
	}
	return domain.Discussion{Id: id}, nil
}

func (m *MockStorage) RenameDiscussion(_ context.Context, id domain.DiscussionId, title domain.DiscussionTitle, slug string, event domain.PostCreationData) (domain.Post, error) {
	m.track("RenameDiscussion")
	if m.renameDiscussionFunc != nil {
		return m.renameDiscussionFunc(id, title, slug, event)
	}
	return domain.Post{Id: 2, DiscussionId: id, Type: domain.PostTypeDiscussionRenamed}, nil
}

func (m *MockStorage) SetDiscussionHidden(_ context.Context, id domain.DiscussionId, hidden bool, actor domain.UserId) error {
	m.track("SetDiscussionHidden")
	if m.setDiscussionHiddenFunc != nil {
		return m.setDiscussionHiddenFunc(id, hidden, actor)
	}
	return nil
}

func (m *MockStorage) DeleteDiscussion(_ context.Context, id domain.DiscussionId) error {
	m.track("DeleteDiscussion")
	if m.deleteDiscussionFunc != nil {
		return m.deleteDiscussionFunc(id)
	}
	return nil
}

func (m *MockStorage) VisiblePostIds(_ context.Context, d *domain.Discussion, actor *domain.User) ([]domain.PostId, error) {
	m.track("VisiblePostIds")
	if m.visiblePostIdsFunc != nil {
		return m.visiblePostIdsFunc(d, actor)
	}
	return nil, nil
}

func (m *MockStorage) ListPosts(_ context.Context, d *domain.Discussion, actor *domain.User, limit, offset int) ([]domain.Post, error) {
	m.track("ListPosts")
	if m.listPostsFunc != nil {
		return m.listPostsFunc(d, actor, limit, offset)
	}
	return nil, nil
}

func (m *MockStorage) IndexForNumber(_ context.Context, id domain.DiscussionId, number domain.PostNumber, actor *domain.User) (int, error) {
	m.track("IndexForNumber")
	if m.indexForNumberFunc != nil {
		return m.indexForNumberFunc(id, number, actor)
	}
	return 0, nil
}

func (m *MockStorage) LoadRelations(_ context.Context, discussions []domain.Discussion, relations []domain.Relation, actor *domain.User) error {
	m.track("LoadRelations")
	if m.loadRelationsFunc != nil {
		return m.loadRelationsFunc(discussions, relations, actor)
	}
	return nil
}

func (m *MockStorage) CreatePost(_ context.Context, data domain.PostCreationData) (domain.Post, error) {
	m.track("CreatePost")
	if m.createPostFunc != nil {
		return m.createPostFunc(data)
	}
	return domain.Post{Id: 10, DiscussionId: data.DiscussionId, Number: 2, UserId: data.Author.Id, Type: data.Type, Content: data.Content}, nil
}

func (m *MockStorage) GetPost(_ context.Context, id domain.PostId) (domain.Post, error) {
	m.track("GetPost")
	if m.getPostFunc != nil {
		return m.getPostFunc(id)
	}
	return domain.Post{Id: id, DiscussionId: 1, Type: domain.PostTypeComment}, nil
}

func (m *MockStorage) SetPostHidden(_ context.Context, id domain.PostId, hidden bool, actor domain.UserId) (domain.Post, error) {
	m.track("SetPostHidden")
	if m.setPostHiddenFunc != nil {
		return m.setPostHiddenFunc(id, hidden, actor)
	}
	post := domain.Post{Id: id, DiscussionId: 1, Type: domain.PostTypeComment}
	if hidden {
		now := time.Now()
		post.HideTime = &now
	}
	return post, nil
}

func (m *MockStorage) DeletePost(_ context.Context, id domain.PostId) (bool, error) {
	m.track("DeletePost")
	if m.deletePostFunc != nil {
		return m.deletePostFunc(id)
	}
	return false, nil
}

func (m *MockStorage) MarkRead(_ context.Context, userId domain.UserId, discussionId domain.DiscussionId, number domain.PostNumber) (domain.ReadState, bool, error) {
	m.track("MarkRead")
	if m.markReadFunc != nil {
		return m.markReadFunc(userId, discussionId, number)
	}
	return domain.ReadState{UserId: userId, DiscussionId: discussionId, ReadNumber: number, ReadTime: time.Now()}, true, nil
}

func (m *MockStorage) MarkAllAsRead(_ context.Context, userId domain.UserId) (time.Time, error) {
	m.track("MarkAllAsRead")
	if m.markAllAsReadFunc != nil {
		return m.markAllAsReadFunc(userId)
	}
	return time.Now(), nil
}

func (m *MockStorage) RefreshDiscussionMetadata(_ context.Context, id domain.DiscussionId) error {
	m.track("RefreshDiscussionMetadata")
	if m.refreshFunc != nil {
		return m.refreshFunc(id)
	}
	return nil
}

func (m *MockStorage) PostCount(_ context.Context, id domain.DiscussionId) (int, error) {
	m.track("PostCount")
	if m.postCountFunc != nil {
		return m.postCountFunc(id)
	}
	return 1, nil
}

// --- Event and search mocks ---

type MockNotifier struct {
	mu     sync.Mutex
	events []events.Event
	err    error
}

func (m *MockNotifier) Notify(_ context.Context, evs ...events.Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, evs...)
	return m.err
}

func (m *MockNotifier) Names() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	names := make([]string, len(m.events))
	for i, e := range m.events {
		names[i] = e.Name()
	}
	return names
}

type MockSearcher struct {
	searchFunc func(criteria domain.SearchCriteria, limit, offset int, load []domain.Relation) (*domain.SearchResults, error)
}

func (m *MockSearcher) Search(_ context.Context, criteria domain.SearchCriteria, limit, offset int, load []domain.Relation) (*domain.SearchResults, error) {
	if m.searchFunc != nil {
		return m.searchFunc(criteria, limit, offset, load)
	}
	return &domain.SearchResults{}, nil
}
