// Package auth implements principal-based access control for registry
// operations. Two roles exist: the owner administers the registry
// (import, update, remove, sale status, quote tokens, administrative
// mints) and the minter fulfills queued mint requests. The owner
// implicitly holds the minter role.
package auth

import (
	"errors"

	"github.com/laqirace/collectibled/pkg/types"
)

// ErrUnauthorized is returned when a caller lacks the required role.
var ErrUnauthorized = errors.New("caller is not authorized")

// Role identifies a permission level.
type Role string

// Roles.
const (
	RoleOwner  Role = "owner"
	RoleMinter Role = "minter"
)

// Authority holds the configured principals. Immutable after creation;
// rotating a principal means restarting with new configuration.
type Authority struct {
	owner        types.Address
	minter       types.Address
	feeRecipient types.Address
}

// New creates an Authority. The fee recipient receives all sale and
// recharge payments.
func New(owner, minter, feeRecipient types.Address) *Authority {
	return &Authority{owner: owner, minter: minter, feeRecipient: feeRecipient}
}

// Owner returns the owner principal.
func (a *Authority) Owner() types.Address { return a.owner }

// Minter returns the minter principal.
func (a *Authority) Minter() types.Address { return a.minter }

// FeeRecipient returns the payment destination for sales and recharges.
func (a *Authority) FeeRecipient() types.Address { return a.feeRecipient }

// IsAuthorized reports whether principal holds the given role.
func (a *Authority) IsAuthorized(principal types.Address, role Role) bool {
	if principal.IsZero() {
		return false
	}
	switch role {
	case RoleOwner:
		return principal == a.owner
	case RoleMinter:
		return principal == a.minter || principal == a.owner
	default:
		return false
	}
}

// RequireOwner returns ErrUnauthorized unless principal is the owner.
func (a *Authority) RequireOwner(principal types.Address) error {
	if !a.IsAuthorized(principal, RoleOwner) {
		return ErrUnauthorized
	}
	return nil
}

// RequireMinter returns ErrUnauthorized unless principal is the minter
// or the owner.
func (a *Authority) RequireMinter(principal types.Address) error {
	if !a.IsAuthorized(principal, RoleMinter) {
		return ErrUnauthorized
	}
	return nil
}
