package access

import (
	"github.com/itchan-dev/forum/shared/domain"
	"gorm.io/gorm/clause"
)

// DiscussionScope returns extra grants that are ORed into a discussion visibility restriction.
type DiscussionScope func(actor *domain.User) []clause.Expression

// PostScope returns extra grants that are ORed into a post visibility restriction of d.
type PostScope func(d *domain.Discussion, actor *domain.User) []clause.Expression

// Hooks let extensions widen visibility without the policy knowing about them.
// Grants can only add rows.
type Hooks struct {
	PrivateDiscussion []DiscussionScope
	HiddenDiscussion  []DiscussionScope
	PrivatePost       []PostScope
	PostVisibility    []PostScope
}

func collectDiscussion(scopes []DiscussionScope, actor *domain.User) []clause.Expression {
	var out []clause.Expression
	for _, scope := range scopes {
		out = append(out, scope(actor)...)
	}
	return out
}

func collectPost(scopes []PostScope, d *domain.Discussion, actor *domain.User) []clause.Expression {
	var out []clause.Expression
	for _, scope := range scopes {
		out = append(out, scope(d, actor)...)
	}
	return out
}
