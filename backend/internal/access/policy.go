package access

import (
	"fmt"
	"strconv"
	"time"

	"github.com/itchan-dev/forum/shared/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// RenameSetting is the parsed "allow_renaming" option.
type RenameSetting struct {
	Minutes int // window after the start time, 0 when the option is not a number
}

// ParseRenameSetting accepts "-1", "reply" or a number of minutes.
// The start author may always rename while nobody else has posted.
func ParseRenameSetting(raw string) (RenameSetting, error) {
	switch raw {
	case "-1", "reply":
		return RenameSetting{}, nil
	}
	minutes, err := strconv.Atoi(raw)
	if err != nil || minutes < 0 {
		return RenameSetting{}, fmt.Errorf("allow_renaming must be -1, reply or a number of minutes, got %q", raw)
	}
	return RenameSetting{Minutes: minutes}, nil
}

// Policy scopes queries to what an actor may see and answers ability checks.
type Policy struct {
	gate   *Gate
	hooks  Hooks
	rename RenameSetting
	now    func() time.Time
}

func NewPolicy(rename RenameSetting, hooks Hooks) *Policy {
	p := &Policy{hooks: hooks, rename: rename, now: time.Now}
	p.gate = NewGate(permissionRule, p.renameRule, p.hideRule)
	return p
}

func (p *Policy) Gate() *Gate {
	return p.gate
}

func (p *Policy) Allows(actor *domain.User, ability Ability, d *domain.Discussion) bool {
	return p.gate.Allows(actor, ability, d)
}

func (p *Policy) Assert(actor *domain.User, ability Ability, d *domain.Discussion) error {
	return p.gate.Assert(actor, ability, d)
}

func (p *Policy) renameRule(actor *domain.User, ability Ability, d *domain.Discussion) Decision {
	if ability != Rename || d == nil || !d.IsStartedBy(actor) {
		return Abstain
	}
	if d.ParticipantsCount <= 1 {
		return Allow
	}
	if p.rename.Minutes > 0 && p.now().Sub(d.StartTime) < time.Duration(p.rename.Minutes)*time.Minute {
		return Allow
	}
	return Abstain
}

func (p *Policy) hideRule(actor *domain.User, ability Ability, d *domain.Discussion) Decision {
	if ability != Hide || d == nil || !d.IsStartedBy(actor) {
		return Abstain
	}
	if d.ParticipantsCount <= 1 {
		return Allow
	}
	return Abstain
}

// DiscussionConditions is the row restriction on the discussions table for actor.
func (p *Policy) DiscussionConditions(actor *domain.User) clause.Expression {
	private := []clause.Expression{clause.Expr{SQL: "discussions.is_private = FALSE"}}
	if actor.HasPermission(domain.PermissionViewPrivate) {
		private = append(private, clause.Expr{SQL: "TRUE"})
	}
	private = append(private, collectDiscussion(p.hooks.PrivateDiscussion, actor)...)
	conds := []clause.Expression{AnyOf(private...)}

	if !p.Allows(actor, ViewDiscussions, nil) {
		return AllOf(append(conds, False)...)
	}

	if !actor.HasPermission(domain.PermissionHide) {
		visible := []clause.Expression{
			clause.Expr{SQL: "discussions.hide_time IS NULL AND discussions.comments_count > 0"},
		}
		if !actor.IsGuest() {
			visible = append(visible, clause.Expr{SQL: "discussions.start_user_id = ?", Vars: []any{actor.Id}})
		}
		visible = append(visible, collectDiscussion(p.hooks.HiddenDiscussion, actor)...)
		conds = append(conds, AnyOf(visible...))
	}
	return AllOf(conds...)
}

// ScopeDiscussions restricts q, a query on the discussions table.
func (p *Policy) ScopeDiscussions(q *gorm.DB, actor *domain.User) *gorm.DB {
	return q.Where(p.DiscussionConditions(actor))
}

// PostConditions is the row restriction on the posts of d for actor.
func (p *Policy) PostConditions(d *domain.Discussion, actor *domain.User) clause.Expression {
	conds := []clause.Expression{clause.Expr{SQL: "posts.discussion_id = ?", Vars: []any{d.Id}}}

	private := []clause.Expression{clause.Expr{SQL: "posts.is_private = FALSE"}}
	if actor.HasPermission(domain.PermissionViewPrivate) {
		private = append(private, clause.Expr{SQL: "TRUE"})
	}
	private = append(private, collectPost(p.hooks.PrivatePost, d, actor)...)
	conds = append(conds, AnyOf(private...))

	if !p.Allows(actor, EditPosts, d) {
		visible := []clause.Expression{clause.Expr{SQL: "posts.hide_time IS NULL"}}
		if !actor.IsGuest() {
			visible = append(visible, clause.Expr{SQL: "posts.user_id = ?", Vars: []any{actor.Id}})
		}
		visible = append(visible, collectPost(p.hooks.PostVisibility, d, actor)...)
		conds = append(conds, AnyOf(visible...))
	}
	return AllOf(conds...)
}

// ScopePosts restricts q, a query on the posts table, to the visible posts of d.
func (p *Policy) ScopePosts(q *gorm.DB, d *domain.Discussion, actor *domain.User) *gorm.DB {
	return q.Where(p.PostConditions(d, actor))
}

// Capabilities fills the per-actor flags shown with a discussion.
func (p *Policy) Capabilities(actor *domain.User, d *domain.Discussion) domain.Capabilities {
	return domain.Capabilities{
		CanReply:  p.Allows(actor, Reply, d),
		CanRename: p.Allows(actor, Rename, d),
		CanHide:   p.Allows(actor, Hide, d),
		CanDelete: p.Allows(actor, Delete, d),
	}
}

// CanEditPost covers hiding and restoring a single post. Authors may manage
// their own comments, moderators any post.
func (p *Policy) CanEditPost(actor *domain.User, d *domain.Discussion, post *domain.Post) bool {
	if p.Allows(actor, EditPosts, d) {
		return true
	}
	return !actor.IsGuest() && post.UserId == actor.Id && post.IsComment()
}
