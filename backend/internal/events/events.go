// Package events holds the domain events raised by commands and a
// synchronous dispatcher that hands them to registered listeners.
package events

import "github.com/itchan-dev/forum/shared/domain"

type Event interface {
	Name() string
}

const (
	NamePostWasPosted         = "post.posted"
	NamePostWasHidden         = "post.hidden"
	NamePostWasRestored       = "post.restored"
	NamePostWasDeleted        = "post.deleted"
	NameDiscussionWasStarted  = "discussion.started"
	NameDiscussionWasRenamed  = "discussion.renamed"
	NameDiscussionWasHidden   = "discussion.hidden"
	NameDiscussionWasRestored = "discussion.restored"
	NameDiscussionWasDeleted  = "discussion.deleted"
	NameDiscussionWasRead     = "discussion.read"
)

type PostWasPosted struct {
	Post  domain.Post
	Actor *domain.User
}

type PostWasHidden struct {
	Post  domain.Post
	Actor *domain.User
}

type PostWasRestored struct {
	Post  domain.Post
	Actor *domain.User
}

type PostWasDeleted struct {
	Post  domain.Post
	Actor *domain.User
}

type DiscussionWasStarted struct {
	Discussion domain.Discussion
	Actor      *domain.User
}

type DiscussionWasRenamed struct {
	Discussion domain.Discussion
	OldTitle   domain.DiscussionTitle
	Actor      *domain.User
}

type DiscussionWasHidden struct {
	Discussion domain.Discussion
	Actor      *domain.User
}

type DiscussionWasRestored struct {
	Discussion domain.Discussion
	Actor      *domain.User
}

type DiscussionWasDeleted struct {
	Discussion domain.Discussion
	Actor      *domain.User
}

type DiscussionWasRead struct {
	State domain.ReadState
	Actor *domain.User
}

func (PostWasPosted) Name() string         { return NamePostWasPosted }
func (PostWasHidden) Name() string         { return NamePostWasHidden }
func (PostWasRestored) Name() string       { return NamePostWasRestored }
func (PostWasDeleted) Name() string        { return NamePostWasDeleted }
func (DiscussionWasStarted) Name() string  { return NameDiscussionWasStarted }
func (DiscussionWasRenamed) Name() string  { return NameDiscussionWasRenamed }
func (DiscussionWasHidden) Name() string   { return NameDiscussionWasHidden }
func (DiscussionWasRestored) Name() string { return NameDiscussionWasRestored }
func (DiscussionWasDeleted) Name() string  { return NameDiscussionWasDeleted }
func (DiscussionWasRead) Name() string     { return NameDiscussionWasRead }
