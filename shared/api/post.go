package api

import (
	"time"

	"github.com/itchan-dev/forum/shared/domain"
)

// Request DTOs

type ReplyRequest struct {
	Content string `json:"content" validate:"required"`
}

type EditPostRequest struct {
	IsHidden *bool `json:"is_hidden" validate:"required"`
}

// Response DTOs

type PostResponse struct {
	Id           domain.PostId       `json:"id"`
	DiscussionId domain.DiscussionId `json:"discussion_id"`
	Number       int                 `json:"number"`
	Time         time.Time           `json:"time"`
	Type         string              `json:"type"`
	Content      string              `json:"content"`
	IsHidden     bool                `json:"is_hidden"`
	Excerpt      string              `json:"excerpt,omitempty"`
	User         *UserResponse       `json:"user,omitempty"`
}

func NewPostResponse(p domain.Post) PostResponse {
	return PostResponse{
		Id:           p.Id,
		DiscussionId: p.DiscussionId,
		Number:       p.Number,
		Time:         p.Time,
		Type:         p.Type,
		Content:      p.Content,
		IsHidden:     p.IsHidden(),
		Excerpt:      p.Excerpt,
		User:         NewUserResponse(p.User),
	}
}

func NewPostResponses(posts []domain.Post) []PostResponse {
	out := make([]PostResponse, len(posts))
	for i, p := range posts {
		out[i] = NewPostResponse(p)
	}
	return out
}

func newPostResponsePtr(p *domain.Post) *PostResponse {
	if p == nil {
		return nil
	}
	resp := NewPostResponse(*p)
	return &resp
}
