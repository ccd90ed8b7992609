package handler

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/itchan-dev/forum/backend/internal/service"
	"github.com/itchan-dev/forum/shared/config"
	"github.com/itchan-dev/forum/shared/domain"
	mw "github.com/itchan-dev/forum/shared/middleware"
)

type MockDiscussionService struct {
	MockSearch         func(ctx context.Context, criteria domain.SearchCriteria, limit, offset int) (*domain.SearchResults, error)
	MockStart          func(ctx context.Context, actor *domain.User, data service.StartData) (domain.Discussion, error)
	MockEdit           func(ctx context.Context, actor *domain.User, id domain.DiscussionId, data domain.DiscussionEditData) (domain.Discussion, error)
	MockDelete         func(ctx context.Context, actor *domain.User, id domain.DiscussionId) error
	MockShow           func(ctx context.Context, actor *domain.User, id domain.DiscussionId, near domain.PostNumber, offset, limit int) (*domain.DiscussionPage, error)
	MockIndexForNumber func(ctx context.Context, actor *domain.User, id domain.DiscussionId, number domain.PostNumber) (int, error)
}

func (m *MockDiscussionService) Search(ctx context.Context, criteria domain.SearchCriteria, limit, offset int) (*domain.SearchResults, error) {
	if m.MockSearch != nil {
		return m.MockSearch(ctx, criteria, limit, offset)
	}
	return &domain.SearchResults{}, nil
}

func (m *MockDiscussionService) Start(ctx context.Context, actor *domain.User, data service.StartData) (domain.Discussion, error) {
	if m.MockStart != nil {
		return m.MockStart(ctx, actor, data)
	}
	return domain.Discussion{}, nil
}

func (m *MockDiscussionService) Edit(ctx context.Context, actor *domain.User, id domain.DiscussionId, data domain.DiscussionEditData) (domain.Discussion, error) {
	if m.MockEdit != nil {
		return m.MockEdit(ctx, actor, id, data)
	}
	return domain.Discussion{Id: id}, nil
}

func (m *MockDiscussionService) Delete(ctx context.Context, actor *domain.User, id domain.DiscussionId) error {
	if m.MockDelete != nil {
		return m.MockDelete(ctx, actor, id)
	}
	return nil
}

func (m *MockDiscussionService) Show(ctx context.Context, actor *domain.User, id domain.DiscussionId, near domain.PostNumber, offset, limit int) (*domain.DiscussionPage, error) {
	if m.MockShow != nil {
		return m.MockShow(ctx, actor, id, near, offset, limit)
	}
	return &domain.DiscussionPage{Discussion: domain.Discussion{Id: id}}, nil
}

func (m *MockDiscussionService) IndexForNumber(ctx context.Context, actor *domain.User, id domain.DiscussionId, number domain.PostNumber) (int, error) {
	if m.MockIndexForNumber != nil {
		return m.MockIndexForNumber(ctx, actor, id, number)
	}
	return 0, nil
}

type MockPostService struct {
	MockReply  func(ctx context.Context, actor *domain.User, discussionId domain.DiscussionId, content domain.PostContent) (domain.Post, error)
	MockEdit   func(ctx context.Context, actor *domain.User, id domain.PostId, data domain.PostEditData) (domain.Post, error)
	MockDelete func(ctx context.Context, actor *domain.User, id domain.PostId) error
}

func (m *MockPostService) Reply(ctx context.Context, actor *domain.User, discussionId domain.DiscussionId, content domain.PostContent) (domain.Post, error) {
	if m.MockReply != nil {
		return m.MockReply(ctx, actor, discussionId, content)
	}
	return domain.Post{DiscussionId: discussionId, Content: content}, nil
}

func (m *MockPostService) Edit(ctx context.Context, actor *domain.User, id domain.PostId, data domain.PostEditData) (domain.Post, error) {
	if m.MockEdit != nil {
		return m.MockEdit(ctx, actor, id, data)
	}
	return domain.Post{Id: id}, nil
}

func (m *MockPostService) Delete(ctx context.Context, actor *domain.User, id domain.PostId) error {
	if m.MockDelete != nil {
		return m.MockDelete(ctx, actor, id)
	}
	return nil
}

type MockReadService struct {
	MockMarkRead      func(ctx context.Context, actor *domain.User, discussionId domain.DiscussionId, number domain.PostNumber) (domain.ReadState, error)
	MockMarkAllAsRead func(ctx context.Context, actor *domain.User) error
}

func (m *MockReadService) MarkRead(ctx context.Context, actor *domain.User, discussionId domain.DiscussionId, number domain.PostNumber) (domain.ReadState, error) {
	if m.MockMarkRead != nil {
		return m.MockMarkRead(ctx, actor, discussionId, number)
	}
	return domain.ReadState{DiscussionId: discussionId, ReadNumber: number}, nil
}

func (m *MockReadService) MarkAllAsRead(ctx context.Context, actor *domain.User) error {
	if m.MockMarkAllAsRead != nil {
		return m.MockMarkAllAsRead(ctx, actor)
	}
	return nil
}

var member = &domain.User{Id: 7, Username: "alice", Permissions: domain.Permissions{domain.PermissionViewDiscussions}}

func testConfig() *config.Config {
	return &config.Config{Public: config.Public{
		DiscussionsPerPage: 20,
		PostsPerPage:       10,
		MaxPageLimit:       50,
	}}
}

type testEnv struct {
	discussion *MockDiscussionService
	post       *MockPostService
	read       *MockReadService
	router     http.Handler
}

// newTestEnv mounts the handlers the way the router does, with a fixed actor.
func newTestEnv(user *domain.User) *testEnv {
	env := &testEnv{
		discussion: &MockDiscussionService{},
		post:       &MockPostService{},
		read:       &MockReadService{},
	}
	h := New(env.discussion, env.post, env.read, testConfig(), &MockHealthChecker{})

	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			next.ServeHTTP(w, req.WithContext(mw.WithUser(req.Context(), user)))
		})
	})
	r.Route("/v1", func(r chi.Router) {
		r.Get("/discussions", h.ListDiscussions)
		r.Post("/discussions", h.StartDiscussion)
		r.Post("/discussions/read", h.MarkAllAsRead)
		r.Get("/discussions/{id}", h.ShowDiscussion)
		r.Patch("/discussions/{id}", h.EditDiscussion)
		r.Delete("/discussions/{id}", h.DeleteDiscussion)
		r.Get("/discussions/{id}/index", h.IndexForNumber)
		r.Post("/discussions/{id}/posts", h.Reply)
		r.Post("/discussions/{id}/read", h.MarkRead)
		r.Patch("/posts/{id}", h.EditPost)
		r.Delete("/posts/{id}", h.DeletePost)
	})
	env.router = r
	return env
}

func (e *testEnv) do(t *testing.T, method, url string, body []byte) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, url, bytes.NewBuffer(body))
	rr := httptest.NewRecorder()
	e.router.ServeHTTP(rr, req)
	return rr
}
