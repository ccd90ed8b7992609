package service

import (
	"context"
	"testing"

	"github.com/itchan-dev/forum/backend/internal/events"
	"github.com/itchan-dev/forum/shared/domain"
	"github.com/itchan-dev/forum/shared/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDiscussionMetadataUpdater(t *testing.T) {
	ctx := context.Background()
	post := domain.Post{Id: 3, DiscussionId: 7}

	setup := func() (*MockStorage, *events.Dispatcher) {
		storage := &MockStorage{}
		dispatcher := events.NewDispatcher()
		NewDiscussionMetadataUpdater(storage).Subscribe(dispatcher)
		return storage, dispatcher
	}

	t.Run("RefreshesOnPostChanges", func(t *testing.T) {
		storage, dispatcher := setup()
		var refreshed []domain.DiscussionId
		storage.refreshFunc = func(id domain.DiscussionId) error {
			refreshed = append(refreshed, id)
			return nil
		}
		require.NoError(t, dispatcher.Notify(ctx,
			events.PostWasPosted{Post: post},
			events.PostWasHidden{Post: post},
			events.PostWasRestored{Post: post},
		))
		assert.Equal(t, []domain.DiscussionId{7, 7, 7}, refreshed)
	})

	t.Run("DeletedPostRefreshes", func(t *testing.T) {
		storage, dispatcher := setup()
		require.NoError(t, dispatcher.Notify(ctx, events.PostWasDeleted{Post: post}))
		assert.Equal(t, 1, storage.Calls("RefreshDiscussionMetadata"))
		assert.Zero(t, storage.Calls("DeleteDiscussion"))
	})

	t.Run("LastPostDeletionRemovesDiscussion", func(t *testing.T) {
		storage, dispatcher := setup()
		storage.postCountFunc = func(domain.DiscussionId) (int, error) { return 0, nil }
		var deleted domain.DiscussionId
		storage.deleteDiscussionFunc = func(id domain.DiscussionId) error {
			deleted = id
			return errors.NotFound("Discussion not found")
		}
		require.NoError(t, dispatcher.Notify(ctx, events.PostWasDeleted{Post: post}))
		assert.Equal(t, domain.DiscussionId(7), deleted)
		assert.Zero(t, storage.Calls("RefreshDiscussionMetadata"))
	})

	t.Run("IgnoresOtherEvents", func(t *testing.T) {
		storage, dispatcher := setup()
		require.NoError(t, dispatcher.Notify(ctx, events.DiscussionWasRead{}))
		assert.Zero(t, storage.Calls("RefreshDiscussionMetadata"))
	})
}
