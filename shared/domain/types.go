package domain

import "github.com/lib/pq"

type (
	UserId       = int64
	DiscussionId = int64
	PostId       = int64
	PostNumber   = int

	Username        = string
	DiscussionTitle = string
	PostContent     = string
	PostType        = string

	Permission  = string
	Permissions = pq.StringArray // loaded straight from group_permissions
)
