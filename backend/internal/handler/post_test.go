package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/itchan-dev/forum/shared/api"
	"github.com/itchan-dev/forum/shared/domain"
	internal_errors "github.com/itchan-dev/forum/shared/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReply(t *testing.T) {
	t.Run("created", func(t *testing.T) {
		env := newTestEnv(member)
		env.post.MockReply = func(ctx context.Context, actor *domain.User, discussionId domain.DiscussionId, content domain.PostContent) (domain.Post, error) {
			assert.Equal(t, member, actor)
			return domain.Post{Id: 40, DiscussionId: discussionId, Number: 6, Content: content, Type: domain.PostTypeComment, User: actor}, nil
		}

		rr := env.do(t, http.MethodPost, "/v1/discussions/3/posts", []byte(`{"content":"hi there"}`))

		require.Equal(t, http.StatusCreated, rr.Code)
		var resp api.PostResponse
		require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
		assert.Equal(t, int64(3), resp.DiscussionId)
		assert.Equal(t, 6, resp.Number)
		assert.Equal(t, "hi there", resp.Content)
		require.NotNil(t, resp.User)
		assert.Equal(t, "alice", resp.User.Username)
	})

	t.Run("empty content", func(t *testing.T) {
		env := newTestEnv(member)
		rr := env.do(t, http.MethodPost, "/v1/discussions/3/posts", []byte(`{"content":""}`))
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("not allowed to reply", func(t *testing.T) {
		env := newTestEnv(member)
		env.post.MockReply = func(ctx context.Context, actor *domain.User, discussionId domain.DiscussionId, content domain.PostContent) (domain.Post, error) {
			return domain.Post{}, internal_errors.PermissionDenied("You are not allowed to reply")
		}
		rr := env.do(t, http.MethodPost, "/v1/discussions/3/posts", []byte(`{"content":"x"}`))
		assert.Equal(t, http.StatusForbidden, rr.Code)
	})
}

func TestEditPost(t *testing.T) {
	t.Run("hide", func(t *testing.T) {
		env := newTestEnv(member)
		env.post.MockEdit = func(ctx context.Context, actor *domain.User, id domain.PostId, data domain.PostEditData) (domain.Post, error) {
			require.NotNil(t, data.IsHidden)
			assert.True(t, *data.IsHidden)
			return domain.Post{Id: id}, nil
		}
		rr := env.do(t, http.MethodPatch, "/v1/posts/8", []byte(`{"is_hidden":true}`))
		assert.Equal(t, http.StatusOK, rr.Code)
	})

	t.Run("is_hidden required", func(t *testing.T) {
		env := newTestEnv(member)
		rr := env.do(t, http.MethodPatch, "/v1/posts/8", []byte(`{}`))
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("hidden post of someone else", func(t *testing.T) {
		env := newTestEnv(member)
		env.post.MockEdit = func(ctx context.Context, actor *domain.User, id domain.PostId, data domain.PostEditData) (domain.Post, error) {
			return domain.Post{}, internal_errors.NotFound("Post not found")
		}
		rr := env.do(t, http.MethodPatch, "/v1/posts/8", []byte(`{"is_hidden":false}`))
		assert.Equal(t, http.StatusNotFound, rr.Code)
	})
}

func TestDeletePost(t *testing.T) {
	env := newTestEnv(member)
	env.post.MockDelete = func(ctx context.Context, actor *domain.User, id domain.PostId) error {
		return internal_errors.PermissionDenied("You are not allowed to delete posts")
	}
	assert.Equal(t, http.StatusForbidden, env.do(t, http.MethodDelete, "/v1/posts/8", nil).Code)

	env.post.MockDelete = nil
	assert.Equal(t, http.StatusNoContent, env.do(t, http.MethodDelete, "/v1/posts/8", nil).Code)
}
