package domain

import (
	"slices"
	"time"
)

const GuestId UserId = 0

const (
	PermissionViewDiscussions Permission = "viewDiscussions"
	PermissionStartDiscussion Permission = "startDiscussion"
	PermissionReply           Permission = "discussion.reply"
	PermissionRename          Permission = "discussion.rename"
	PermissionHide            Permission = "discussion.hide"
	PermissionDelete          Permission = "discussion.delete"
	PermissionEditPosts       Permission = "discussion.editPosts"
	PermissionViewPrivate     Permission = "discussion.viewPrivate"
)

type User struct {
	Id          UserId
	Username    Username
	Email       string
	Admin       bool
	Permissions Permissions
	ReadTime    *time.Time // "mark all as read" baseline
	CreatedAt   time.Time
}

// Guest builds the anonymous actor with the guest group permissions.
func Guest(permissions Permissions) *User {
	return &User{Id: GuestId, Permissions: permissions}
}

func (u *User) IsGuest() bool {
	return u == nil || u.Id == GuestId
}

// HasPermission reports whether the user holds the permission. Admins hold all of them.
func (u *User) HasPermission(permission Permission) bool {
	if u == nil {
		return false
	}
	if u.Admin {
		return true
	}
	return slices.Contains(u.Permissions, permission)
}
