package events

import (
	"context"
	"errors"
	"testing"

	"github.com/itchan-dev/forum/shared/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDispatcher(t *testing.T) {
	ctx := context.Background()

	t.Run("listeners run in registration order", func(t *testing.T) {
		d := NewDispatcher()
		var calls []string
		d.Listen(NamePostWasPosted, func(_ context.Context, e Event) error {
			calls = append(calls, "first:"+e.Name())
			return nil
		})
		d.Listen(NamePostWasPosted, func(_ context.Context, e Event) error {
			posted := e.(PostWasPosted)
			assert.Equal(t, domain.PostId(5), posted.Post.Id)
			calls = append(calls, "second")
			return nil
		})
		d.Listen(NamePostWasDeleted, func(context.Context, Event) error {
			calls = append(calls, "unrelated")
			return nil
		})

		require.NoError(t, d.Notify(ctx, PostWasPosted{Post: domain.Post{Id: 5}}))
		assert.Equal(t, []string{"first:post.posted", "second"}, calls)
	})

	t.Run("errors are joined and do not stop other listeners", func(t *testing.T) {
		d := NewDispatcher()
		ran := false
		d.Listen(NameDiscussionWasRead, func(context.Context, Event) error { return errors.New("boom") })
		d.Listen(NameDiscussionWasRead, func(context.Context, Event) error {
			ran = true
			return nil
		})

		err := d.Notify(ctx, DiscussionWasRead{})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "boom")
		assert.True(t, ran)
	})

	t.Run("no listeners", func(t *testing.T) {
		assert.NoError(t, NewDispatcher().Notify(ctx, DiscussionWasDeleted{}))
	})
}
