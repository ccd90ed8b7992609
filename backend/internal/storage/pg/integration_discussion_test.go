package pg

import (
	"context"
	"testing"
	"time"

	"github.com/itchan-dev/forum/shared/domain"
	internal_errors "github.com/itchan-dev/forum/shared/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateDiscussion(t *testing.T) {
	ctx := context.Background()
	author := setupUser(t)
	before := time.Now().Add(-time.Second)

	d, post, err := storage.CreateDiscussion(ctx, domain.DiscussionCreationData{
		Title:   "Hello",
		Slug:    "hello",
		Author:  *author,
		Content: "first",
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = storage.DeleteDiscussion(ctx, d.Id) })

	assert.Equal(t, "Hello", d.Title)
	assert.Equal(t, "hello", d.Slug)
	assert.Equal(t, author.Id, d.StartUserId)
	assert.Equal(t, post.Id, d.StartPostId)
	assert.Equal(t, post.Id, d.LastPostId)
	assert.Equal(t, 1, d.LastPostNumber)
	assert.Equal(t, 1, d.CommentsCount)
	assert.Equal(t, 1, d.ParticipantsCount)
	assert.True(t, d.StartTime.After(before))
	assert.True(t, d.LastTime.Equal(post.Time))

	assert.Equal(t, 1, post.Number)
	assert.Equal(t, domain.PostTypeComment, post.Type)
	assert.Equal(t, d.Id, post.DiscussionId)
}

func TestFindDiscussion(t *testing.T) {
	ctx := context.Background()
	author := setupUser(t)
	d := setupDiscussion(t, author, "Findable")

	t.Run("Visible", func(t *testing.T) {
		found, err := storage.FindDiscussion(ctx, d.Id, guest(t))
		require.NoError(t, err)
		assert.Equal(t, d.Id, found.Id)
	})

	t.Run("HiddenIsNotFoundForGuest", func(t *testing.T) {
		require.NoError(t, storage.SetDiscussionHidden(ctx, d.Id, true, author.Id))
		t.Cleanup(func() { _ = storage.SetDiscussionHidden(ctx, d.Id, false, 0) })

		_, err := storage.FindDiscussion(ctx, d.Id, guest(t))
		assert.True(t, internal_errors.IsNotFound(err))

		// the author still sees it
		_, err = storage.FindDiscussion(ctx, d.Id, author)
		assert.NoError(t, err)

		hidden := reload(t, d.Id)
		require.NotNil(t, hidden.HideUserId)
		assert.Equal(t, author.Id, *hidden.HideUserId)
	})

	t.Run("Missing", func(t *testing.T) {
		_, err := storage.FindDiscussion(ctx, -1, author)
		assert.True(t, internal_errors.IsNotFound(err))
	})
}

func TestRenameDiscussion(t *testing.T) {
	ctx := context.Background()
	author := setupUser(t)
	d := setupDiscussion(t, author, "Old")

	post, err := storage.RenameDiscussion(ctx, d.Id, "New", "new", domain.PostCreationData{
		Author:  *author,
		Content: `["Old","New"]`,
	})
	require.NoError(t, err)
	assert.Equal(t, domain.PostTypeDiscussionRenamed, post.Type)
	assert.Equal(t, 2, post.Number)

	renamed := reload(t, d.Id)
	assert.Equal(t, "New", renamed.Title)
	assert.Equal(t, "new", renamed.Slug)
	assert.Equal(t, 1, renamed.CommentsCount, "event posts are not comments")

	_, err = storage.RenameDiscussion(ctx, -1, "x", "x", domain.PostCreationData{Author: *author})
	assert.True(t, internal_errors.IsNotFound(err))
}

func TestDeleteDiscussion(t *testing.T) {
	ctx := context.Background()
	author := setupUser(t)
	d := setupDiscussion(t, author, "Doomed")
	reply(t, d, author, "reply")
	_, _, err := storage.MarkRead(ctx, author.Id, d.Id, 2)
	require.NoError(t, err)

	require.NoError(t, storage.DeleteDiscussion(ctx, d.Id))

	_, err = storage.GetDiscussion(ctx, d.Id)
	assert.True(t, internal_errors.IsNotFound(err))
	count, err := storage.PostCount(ctx, d.Id)
	require.NoError(t, err)
	assert.Zero(t, count, "posts cascade")
	state, err := storage.ReadState(ctx, author.Id, d.Id)
	require.NoError(t, err)
	assert.Nil(t, state, "read states cascade")

	assert.True(t, internal_errors.IsNotFound(storage.DeleteDiscussion(ctx, d.Id)))
}

func TestRefreshDiscussionMetadata(t *testing.T) {
	ctx := context.Background()
	author := setupUser(t)
	other := setupUser(t)
	d := setupDiscussion(t, author, "Meta")
	second := reply(t, d, other, "second")
	third := reply(t, d, other, "third")

	d = reload(t, d.Id)
	assert.Equal(t, 3, d.CommentsCount)
	assert.Equal(t, 2, d.ParticipantsCount)
	assert.Equal(t, third.Id, d.LastPostId)
	assert.Equal(t, 3, d.LastPostNumber)
	assert.Equal(t, other.Id, d.LastUserId)

	t.Run("HidingLastPostMovesLastBack", func(t *testing.T) {
		_, err := storage.SetPostHidden(ctx, third.Id, true, author.Id)
		require.NoError(t, err)
		require.NoError(t, storage.RefreshDiscussionMetadata(ctx, d.Id))

		d := reload(t, d.Id)
		assert.Equal(t, 2, d.CommentsCount)
		assert.Equal(t, second.Id, d.LastPostId)
		assert.Equal(t, 2, d.LastPostNumber)
		assert.True(t, d.LastTime.Equal(second.Time))

		_, err = storage.SetPostHidden(ctx, third.Id, false, 0)
		require.NoError(t, err)
		require.NoError(t, storage.RefreshDiscussionMetadata(ctx, d.Id))
		assert.Equal(t, third.Id, reload(t, d.Id).LastPostId)
	})

	t.Run("DeletingLastPostRecomputes", func(t *testing.T) {
		_, err := storage.DeletePost(ctx, third.Id)
		require.NoError(t, err)
		require.NoError(t, storage.RefreshDiscussionMetadata(ctx, d.Id))

		d := reload(t, d.Id)
		assert.Equal(t, 2, d.CommentsCount)
		assert.Equal(t, second.Id, d.LastPostId)
		assert.Equal(t, other.Id, d.LastUserId)
	})

	t.Run("Idempotent", func(t *testing.T) {
		before := reload(t, d.Id)
		require.NoError(t, storage.RefreshDiscussionMetadata(ctx, d.Id))
		require.NoError(t, storage.RefreshDiscussionMetadata(ctx, d.Id))
		after := reload(t, d.Id)
		assert.Equal(t, before.CommentsCount, after.CommentsCount)
		assert.Equal(t, before.ParticipantsCount, after.ParticipantsCount)
		assert.Equal(t, before.LastPostId, after.LastPostId)
		assert.True(t, before.LastTime.Equal(after.LastTime))
	})
}
