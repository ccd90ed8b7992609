package access

import (
	"github.com/itchan-dev/forum/shared/domain"
	"github.com/itchan-dev/forum/shared/errors"
)

type Decision int

const (
	Abstain Decision = iota
	Allow
	Deny
)

func (d Decision) String() string {
	switch d {
	case Allow:
		return "allow"
	case Deny:
		return "deny"
	default:
		return "abstain"
	}
}

type Ability string

const (
	ViewDiscussions Ability = "viewDiscussions"
	StartDiscussion Ability = "startDiscussion"
	Reply           Ability = "reply"
	Rename          Ability = "rename"
	Hide            Ability = "hide"
	Delete          Ability = "delete"
	EditPosts       Ability = "editPosts"
)

// Rule votes on one ability. d is nil for abilities that are not tied to a discussion.
type Rule func(actor *domain.User, ability Ability, d *domain.Discussion) Decision

// Gate combines rules: any Allow wins, anything else ends in deny.
type Gate struct {
	rules []Rule
}

func NewGate(rules ...Rule) *Gate {
	return &Gate{rules: rules}
}

// Register appends a rule. Not safe to call while the gate is serving requests.
func (g *Gate) Register(rule Rule) {
	g.rules = append(g.rules, rule)
}

func (g *Gate) Decide(actor *domain.User, ability Ability, d *domain.Discussion) Decision {
	for _, rule := range g.rules {
		if rule(actor, ability, d) == Allow {
			return Allow
		}
	}
	// explicit Deny and no votes at all end the same way
	return Deny
}

func (g *Gate) Allows(actor *domain.User, ability Ability, d *domain.Discussion) bool {
	return g.Decide(actor, ability, d) == Allow
}

// Assert turns a refusal into a 403.
func (g *Gate) Assert(actor *domain.User, ability Ability, d *domain.Discussion) error {
	if !g.Allows(actor, ability, d) {
		return errors.PermissionDenied("You are not allowed to " + string(ability))
	}
	return nil
}

// permissionRule allows global abilities by the permission of the same name
// and discussion abilities by their elevated "discussion.<ability>" permission.
func permissionRule(actor *domain.User, ability Ability, d *domain.Discussion) Decision {
	switch ability {
	case ViewDiscussions, StartDiscussion:
		if actor.HasPermission(domain.Permission(ability)) {
			return Allow
		}
		return Abstain
	}
	if actor.HasPermission("discussion." + domain.Permission(ability)) {
		return Allow
	}
	return Abstain
}
