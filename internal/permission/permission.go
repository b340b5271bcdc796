// Package permission holds the role and ownership predicates that guard
// every endpoint. Predicates are small values composed with Any and All.
package permission

import (
	"errors"
	"fmt"

	"github.com/ikkim/littlelemon-backend/internal/app/model"
)

// Principal is the authenticated caller
type Principal struct {
	UserID   uint
	Username string
	Groups   []string
	IsStaff  bool
}

// InGroup reports membership in a role group
func (p *Principal) InGroup(name string) bool {
	if p == nil {
		return false
	}
	for _, g := range p.Groups {
		if g == name {
			return true
		}
	}
	return false
}

func (p *Principal) IsManager() bool { return p.InGroup(model.GroupManager) }
func (p *Principal) IsDeliveryCrew() bool { return p.InGroup(model.GroupDeliveryCrew) }
func (p *Principal) IsCustomer() bool { return p.InGroup(model.GroupCustomer) }

// Action is the kind of operation requested
type Action string

const (
	ActionList     Action = "list"
	ActionRetrieve Action = "retrieve"
	ActionCreate   Action = "create"
	ActionUpdate   Action = "update"
	ActionDelete   Action = "delete"
)

// IsSafe reports read-only actions
func (a Action) IsSafe() bool {
	return a == ActionList || a == ActionRetrieve
}

// Check is the input to a predicate. Owner is the owning user id of the
// target object, nil for collection-level actions.
type Check struct {
	Principal *Principal
	Action    Action
	Owner     *uint
}

func (c Check) authenticated() bool {
	return c.Principal != nil
}

// Decision is the outcome of one predicate
type Decision struct {
	Allowed bool
	Reason  string
}

func allow() Decision { return Decision{Allowed: true} }
func deny(reason string) Decision { return Decision{Reason: reason} }

// Authorizer answers whether a check passes
type Authorizer interface {
	Authorize(Check) Decision
}

// Func adapts a function into an Authorizer
type Func func(Check) Decision

func (f Func) Authorize(c Check) Decision { return f(c) }

const (
	MsgManagerOnly      = "Unauthorized: Managers only view"
	MsgCustomerOnly     = "Unauthorized: Customer only view"
	MsgDeliveryCrewOnly = "Unauthorized: Delivery crew only view"
	MsgAdminOnly        = "Unauthorized: Admin only view"
	MsgOwnerOnly        = "You do not have permission to access this resource"
	MsgManagerWrite     = "Restricted to managers only"
	MsgReadOnly         = "This resource is read only"
	MsgNotAuthenticated = "Authentication credentials were not provided"
)

func groupMember(group, message string) Authorizer {
	return Func(func(c Check) Decision {
		if c.authenticated() && c.Principal.InGroup(group) {
			return allow()
		}
		return deny(message)
	})
}

var (
	IsManager      = groupMember(model.GroupManager, MsgManagerOnly)
	IsCustomer     = groupMember(model.GroupCustomer, MsgCustomerOnly)
	IsDeliveryCrew = groupMember(model.GroupDeliveryCrew, MsgDeliveryCrewOnly)

	// IsAdmin passes for staff accounts
	IsAdmin Authorizer = Func(func(c Check) Decision {
		if c.authenticated() && c.Principal.IsStaff {
			return allow()
		}
		return deny(MsgAdminOnly)
	})

	// Authenticated passes for any identified caller
	Authenticated Authorizer = Func(func(c Check) Decision {
		if c.authenticated() {
			return allow()
		}
		return deny(MsgNotAuthenticated)
	})

	AllowAny Authorizer = Func(func(Check) Decision { return allow() })

	// ReadOnly passes list and retrieve for everyone
	ReadOnly Authorizer = Func(func(c Check) Decision {
		if c.Action.IsSafe() {
			return allow()
		}
		return deny(MsgReadOnly)
	})

	// OwnerOnly requires the target to belong to the caller. Without a
	// target it only requires authentication.
	OwnerOnly Authorizer = Func(func(c Check) Decision {
		if !c.authenticated() {
			return deny(MsgNotAuthenticated)
		}
		if c.Owner == nil || *c.Owner == c.Principal.UserID {
			return allow()
		}
		return deny(MsgOwnerOnly)
	})

	ManagerOrOwner = Any(IsManager, OwnerOnly)

	// ManagerOrReadOnly lets anyone read and only managers write
	ManagerOrReadOnly Authorizer = Func(func(c Check) Decision {
		if c.Action.IsSafe() {
			return allow()
		}
		if d := IsManager.Authorize(c); d.Allowed {
			return d
		}
		return deny(MsgManagerWrite)
	})
)

// Any passes when at least one predicate passes. The denial reason is the
// first predicate's.
func Any(authorizers ...Authorizer) Authorizer {
	return Func(func(c Check) Decision {
		var first *Decision
		for _, a := range authorizers {
			d := a.Authorize(c)
			if d.Allowed {
				return d
			}
			if first == nil {
				first = &d
			}
		}
		if first == nil {
			return deny(MsgOwnerOnly)
		}
		return *first
	})
}

// All passes when every predicate passes and reports the first failure.
func All(authorizers ...Authorizer) Authorizer {
	return Func(func(c Check) Decision {
		for _, a := range authorizers {
			if d := a.Authorize(c); !d.Allowed {
				return d
			}
		}
		return allow()
	})
}

var ErrAuthenticationRequired = errors.New(MsgNotAuthenticated)

// DeniedError carries the predicate's reason to the HTTP layer
type DeniedError struct {
	Reason string
}

func (e *DeniedError) Error() string {
	return fmt.Sprintf("permission denied: %s", e.Reason)
}

// Enforce runs the authorizer. Anonymous callers that are denied get
// ErrAuthenticationRequired, others a *DeniedError.
func Enforce(a Authorizer, c Check) error {
	d := a.Authorize(c)
	if d.Allowed {
		return nil
	}
	if !c.authenticated() {
		return ErrAuthenticationRequired
	}
	return &DeniedError{Reason: d.Reason}
}

// IsDenied unwraps a *DeniedError
func IsDenied(err error) (*DeniedError, bool) {
	var de *DeniedError
	if errors.As(err, &de) {
		return de, true
	}
	return nil, false
}
