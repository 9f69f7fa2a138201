// Package events defines the notifications emitted by registry operations
// and an in-process bus for delivering them to subscribers (RPC feeds,
// off-chain recharge processing, audit logging).
package events

import (
	"github.com/laqirace/collectibled/pkg/types"
)

// Kind identifies an event type.
type Kind string

// Event kinds.
const (
	KindImportCollectible Kind = "ImportCollectible"
	KindUpdateCollectible Kind = "UpdateCollectible"
	KindRemoveCollectible Kind = "RemoveCollectible"
	KindRequestForMinting Kind = "RequestForMinting"
	KindRechargeRequest   Kind = "RechargeRequest"
)

// Event is a notification emitted after an operation commits.
type Event interface {
	Kind() Kind
}

// ImportCollectible is emitted when a new collectible is imported.
type ImportCollectible struct {
	Name      string          `json:"name"`
	MediaRef  string          `json:"media_ref"`
	Price     types.Amount    `json:"price"`
	UsageCost types.Amount    `json:"usage_cost"`
	MaxUsage  uint64          `json:"max_usage"`
	Signature types.Signature `json:"signature"`
}

// Kind returns the event kind.
func (ImportCollectible) Kind() Kind { return KindImportCollectible }

// UpdateCollectible is emitted when a collectible's attributes change.
// The signature is the one derived from the new fields.
type UpdateCollectible struct {
	Name      string          `json:"name"`
	MediaRef  string          `json:"media_ref"`
	Price     types.Amount    `json:"price"`
	UsageCost types.Amount    `json:"usage_cost"`
	MaxUsage  uint64          `json:"max_usage"`
	Signature types.Signature `json:"signature"`
}

// Kind returns the event kind.
func (UpdateCollectible) Kind() Kind { return KindUpdateCollectible }

// RemoveCollectible is emitted when a collectible is removed.
type RemoveCollectible struct {
	Signature types.Signature `json:"signature"`
}

// Kind returns the event kind.
func (RemoveCollectible) Kind() Kind { return KindRemoveCollectible }

// RequestForMinting is emitted when a mint request is enqueued.
type RequestForMinting struct {
	Requester   types.Address   `json:"requester"`
	Collectible types.Signature `json:"collectible"`
	SequenceNum uint64          `json:"sequence_num"`
}

// Kind returns the event kind.
func (RequestForMinting) Kind() Kind { return KindRequestForMinting }

// RechargeRequest is emitted when usage units are purchased for an
// instance. Consumption bookkeeping is an off-process concern; this
// event is the hand-off point.
type RechargeRequest struct {
	InstanceID uint64        `json:"instance_id"`
	Requester  types.Address `json:"requester"`
	Units      uint64        `json:"units"`
	TotalPaid  types.Amount  `json:"total_paid"`
	PayToken   types.Address `json:"pay_token"`
}

// Kind returns the event kind.
func (RechargeRequest) Kind() Kind { return KindRechargeRequest }
