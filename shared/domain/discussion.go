package domain

import (
	"time"
)

// to iterate thru layers: handler -> service -> storage
type DiscussionCreationData struct {
	Title     DiscussionTitle
	Slug      string
	IsPrivate bool
	Author    User
	Content   PostContent
}

// DiscussionEditData carries only the attributes the actor asked to change.
type DiscussionEditData struct {
	Title    *DiscussionTitle
	IsHidden *bool
}

type Discussion struct {
	Id                DiscussionId
	Title             DiscussionTitle
	Slug              string
	StartTime         time.Time
	StartUserId       UserId
	StartPostId       PostId
	LastTime          time.Time
	LastUserId        UserId
	LastPostId        PostId
	LastPostNumber    PostNumber
	CommentsCount     int
	ParticipantsCount int
	IsPrivate         bool
	HideTime          *time.Time
	HideUserId        *UserId

	// Per-request data, never persisted
	StartUser     *User
	LastUser      *User
	StartPost     *Post
	LastPost      *Post
	State         *ReadState
	RelevantPosts []Post
	Capabilities  Capabilities
}

// Capabilities are computed for the viewing actor.
type Capabilities struct {
	CanReply  bool
	CanRename bool
	CanHide   bool
	CanDelete bool
}

func (d *Discussion) IsHidden() bool {
	return d.HideTime != nil
}

func (d *Discussion) IsStartedBy(user *User) bool {
	return !user.IsGuest() && d.StartUserId == user.Id
}

// UnreadCount uses the read state attached for the current actor.
func (d *Discussion) UnreadCount() int {
	return UnreadCount(d, d.State)
}

// DiscussionPage is a discussion with one window of its posts.
type DiscussionPage struct {
	Discussion Discussion
	PostIds    []PostId // every visible post id, ordered by time
	Posts      []Post   // the loaded window
	Offset     int
}
