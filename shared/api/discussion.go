package api

import (
	"time"

	"github.com/itchan-dev/forum/shared/domain"
)

// Request DTOs

type StartDiscussionRequest struct {
	Title     string `json:"title" validate:"required,max=80"`
	Content   string `json:"content" validate:"required"`
	IsPrivate bool   `json:"is_private,omitempty"`
}

// EditDiscussionRequest changes only the fields that are set.
type EditDiscussionRequest struct {
	Title    *string `json:"title,omitempty"`
	IsHidden *bool   `json:"is_hidden,omitempty"`
}

type MarkReadRequest struct {
	Number int `json:"number"`
}

// Response DTOs

type UserResponse struct {
	Id       domain.UserId   `json:"id"`
	Username domain.Username `json:"username"`
}

type DiscussionResponse struct {
	Id                domain.DiscussionId `json:"id"`
	Title             string              `json:"title"`
	Slug              string              `json:"slug"`
	StartTime         time.Time           `json:"start_time"`
	LastTime          time.Time           `json:"last_time"`
	LastPostNumber    int                 `json:"last_post_number"`
	CommentsCount     int                 `json:"comments_count"`
	ParticipantsCount int                 `json:"participants_count"`
	IsPrivate         bool                `json:"is_private"`
	IsHidden          bool                `json:"is_hidden"`

	LastReadNumber *int       `json:"last_read_number,omitempty"`
	LastReadTime   *time.Time `json:"last_read_time,omitempty"`
	UnreadCount    int        `json:"unread_count"`

	CanReply  bool `json:"can_reply"`
	CanRename bool `json:"can_rename"`
	CanHide   bool `json:"can_hide"`
	CanDelete bool `json:"can_delete"`

	StartUser     *UserResponse  `json:"start_user,omitempty"`
	LastUser      *UserResponse  `json:"last_user,omitempty"`
	StartPost     *PostResponse  `json:"start_post,omitempty"`
	LastPost      *PostResponse  `json:"last_post,omitempty"`
	RelevantPosts []PostResponse `json:"relevant_posts,omitempty"`
}

type DiscussionListResponse struct {
	Discussions []DiscussionResponse `json:"discussions"`
	HasMore     bool                 `json:"has_more"`
	Offset      int                  `json:"offset"`
	Limit       int                  `json:"limit"`
}

type DiscussionPageResponse struct {
	Discussion DiscussionResponse `json:"discussion"`
	PostIds    []domain.PostId    `json:"post_ids"`
	Posts      []PostResponse     `json:"posts"`
	Offset     int                `json:"offset"`
}

type IndexResponse struct {
	Index int `json:"index"`
}

type ReadStateResponse struct {
	DiscussionId domain.DiscussionId `json:"discussion_id"`
	ReadNumber   int                 `json:"read_number"`
	ReadTime     time.Time           `json:"read_time"`
}

func NewUserResponse(u *domain.User) *UserResponse {
	if u == nil {
		return nil
	}
	return &UserResponse{Id: u.Id, Username: u.Username}
}

func NewDiscussionResponse(d domain.Discussion) DiscussionResponse {
	resp := DiscussionResponse{
		Id:                d.Id,
		Title:             d.Title,
		Slug:              d.Slug,
		StartTime:         d.StartTime,
		LastTime:          d.LastTime,
		LastPostNumber:    d.LastPostNumber,
		CommentsCount:     d.CommentsCount,
		ParticipantsCount: d.ParticipantsCount,
		IsPrivate:         d.IsPrivate,
		IsHidden:          d.IsHidden(),
		UnreadCount:       d.UnreadCount(),
		CanReply:          d.Capabilities.CanReply,
		CanRename:         d.Capabilities.CanRename,
		CanHide:           d.Capabilities.CanHide,
		CanDelete:         d.Capabilities.CanDelete,
		StartUser:         NewUserResponse(d.StartUser),
		LastUser:          NewUserResponse(d.LastUser),
		StartPost:         newPostResponsePtr(d.StartPost),
		LastPost:          newPostResponsePtr(d.LastPost),
	}
	if d.State != nil {
		resp.LastReadNumber = &d.State.ReadNumber
		resp.LastReadTime = &d.State.ReadTime
	}
	if len(d.RelevantPosts) > 0 {
		resp.RelevantPosts = NewPostResponses(d.RelevantPosts)
	}
	return resp
}

func NewDiscussionListResponse(results *domain.SearchResults, offset, limit int) DiscussionListResponse {
	resp := DiscussionListResponse{
		Discussions: make([]DiscussionResponse, len(results.Discussions)),
		HasMore:     results.AreMoreResults,
		Offset:      offset,
		Limit:       limit,
	}
	for i, d := range results.Discussions {
		resp.Discussions[i] = NewDiscussionResponse(d)
	}
	return resp
}

func NewDiscussionPageResponse(page *domain.DiscussionPage) DiscussionPageResponse {
	postIds := page.PostIds
	if postIds == nil {
		postIds = []domain.PostId{}
	}
	return DiscussionPageResponse{
		Discussion: NewDiscussionResponse(page.Discussion),
		PostIds:    postIds,
		Posts:      NewPostResponses(page.Posts),
		Offset:     page.Offset,
	}
}
