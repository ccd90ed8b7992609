package domain

import "time"

const (
	PostTypeComment           PostType = "comment"
	PostTypeDiscussionRenamed PostType = "discussionRenamed"
)

type PostCreationData struct {
	DiscussionId DiscussionId
	Author       User
	Type         PostType
	Content      PostContent
	IsPrivate    bool
}

type PostEditData struct {
	IsHidden *bool
}

type Post struct {
	Id           PostId
	DiscussionId DiscussionId
	Number       PostNumber
	Time         time.Time
	UserId       UserId
	Type         PostType
	Content      PostContent
	EditTime     *time.Time
	EditUserId   *UserId
	HideTime     *time.Time
	HideUserId   *UserId
	IsPrivate    bool

	User    *User
	Excerpt string // set on relevant posts only
}

func (p *Post) IsHidden() bool {
	return p.HideTime != nil
}

func (p *Post) IsComment() bool {
	return p.Type == PostTypeComment
}
