package rpc

import (
	"github.com/laqirace/collectibled/internal/collectible"
	"github.com/laqirace/collectibled/internal/ledger"
)

// JSON-RPC 2.0 error codes.
const (
	CodeParseError     = -32700
	CodeInvalidRequest = -32600
	CodeMethodNotFound = -32601
	CodeInvalidParams  = -32602
	CodeInternalError  = -32603
	CodeNotFound       = -32000
	CodeUnauthorized   = -32001
	CodeRejected       = -32002 // Domain rule violation (capacity, policy, payment).
)

// Request is a JSON-RPC 2.0 request.
type Request struct {
	JSONRPC string      `json:"jsonrpc"`
	Method  string      `json:"method"`
	Params  interface{} `json:"params"`
	ID      interface{} `json:"id"`
}

// Response is a JSON-RPC 2.0 response.
type Response struct {
	JSONRPC string      `json:"jsonrpc"`
	Result  interface{} `json:"result,omitempty"`
	Error   *Error      `json:"error,omitempty"`
	ID      interface{} `json:"id"`
}

// Error is a JSON-RPC 2.0 error object.
type Error struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// ── Param types ─────────────────────────────────────────────────────────

// CollectibleParam carries the full attribute tuple of a template.
// Amounts are decimal strings.
type CollectibleParam struct {
	Name      string `json:"name"`
	MediaRef  string `json:"media_ref"`
	Price     string `json:"price"`
	UsageCost string `json:"usage_cost"`
	MaxUsage  uint64 `json:"max_usage"`
}

// UpdateParam is used by registry_update.
type UpdateParam struct {
	Signature string `json:"signature"` // Current (old) signature.
	CollectibleParam
}

// SignatureParam is used by endpoints that take a single signature.
type SignatureParam struct {
	Signature string `json:"signature"`
}

// NameParam is used by registry_getSignature.
type NameParam struct {
	Name string `json:"name"`
}

// SaleStatusParam is used by sale_setStatus.
type SaleStatusParam struct {
	Signature     string `json:"signature"`
	MaxSupply     uint64 `json:"max_supply"`
	SalePermit    bool   `json:"sale_permit"`
	PreSale       bool   `json:"pre_sale"`
	SaleByRequest bool   `json:"sale_by_request"`
}

// MintParam is used by mint_collectible, mint_presale and mint_request.
type MintParam struct {
	Buyer     string `json:"buyer"`
	Signature string `json:"signature"`
	PayToken  string `json:"pay_token"`
}

// MintForRequestParam is used by mint_forRequest.
type MintForRequestParam struct {
	Requester   string `json:"requester"`
	Signature   string `json:"signature"`
	SequenceNum uint64 `json:"sequence_num"`
}

// MintToParam is used by mint_to.
type MintToParam struct {
	Recipient string `json:"recipient"`
	Signature string `json:"signature"`
}

// RechargeParam is used by recharge_request.
type RechargeParam struct {
	Requester  string `json:"requester"`
	InstanceID uint64 `json:"instance_id"`
	Units      uint64 `json:"units"`
	PayToken   string `json:"pay_token"`
}

// AddressParam is used by endpoints that take a single address.
type AddressParam struct {
	Address string `json:"address"`
}

// TokenParam is used by payment_addQuoteToken and payment_removeQuoteToken.
type TokenParam struct {
	Token string `json:"token"`
}

// BalanceParam is used by payment_getBalance and payment_getAllowance.
type BalanceParam struct {
	Token  string `json:"token"`
	Holder string `json:"holder"`
}

// ApproveParam is used by payment_approve.
type ApproveParam struct {
	Holder string `json:"holder"`
	Token  string `json:"token"`
	Amount string `json:"amount"`
}

// CreditParam is used by payment_credit.
type CreditParam struct {
	Token  string `json:"token"`
	To     string `json:"to"`
	Amount string `json:"amount"`
}

// InstanceParam is used by ledger_getInstance and ledger_getOwner.
type InstanceParam struct {
	InstanceID uint64 `json:"instance_id"`
}

// ── Result types ────────────────────────────────────────────────────────

// SignatureResult is returned by mutators that produce a signature.
type SignatureResult struct {
	Signature string `json:"signature"`
}

// CollectibleResult is returned by registry_getCollectible.
type CollectibleResult struct {
	Signature string `json:"signature"`
	Name      string `json:"name"`
	MediaRef  string `json:"media_ref"`
	Price     string `json:"price"`
	UsageCost string `json:"usage_cost"`
	MaxUsage  uint64 `json:"max_usage"`
}

// NewCollectibleResult converts a template to its RPC form.
func NewCollectibleResult(sig string, c collectible.Collectible) *CollectibleResult {
	return &CollectibleResult{
		Signature: sig,
		Name:      c.Name,
		MediaRef:  c.MediaRef,
		Price:     c.Price.String(),
		UsageCost: c.UsageCost.String(),
		MaxUsage:  c.MaxUsage,
	}
}

// SaleStatusResult is returned by sale_getStatus.
type SaleStatusResult struct {
	Signature     string `json:"signature"`
	MaxSupply     uint64 `json:"max_supply"`
	TotalSupply   uint64 `json:"total_supply"`
	SalePermit    bool   `json:"sale_permit"`
	PreSale       bool   `json:"pre_sale"`
	SaleByRequest bool   `json:"sale_by_request"`
}

// MintResult is returned by the mint endpoints that allocate an instance.
type MintResult struct {
	InstanceID uint64 `json:"instance_id"`
}

// RequestResult is returned by mint_request.
type RequestResult struct {
	SequenceNum uint64 `json:"sequence_num"`
}

// PendingRequestResult is one entry in request_list.
type PendingRequestResult struct {
	Collectible string `json:"collectible"`
	SequenceNum uint64 `json:"sequence_num"`
}

// NewPendingRequestResult converts a queued request to its RPC form.
func NewPendingRequestResult(r collectible.MintRequest) PendingRequestResult {
	return PendingRequestResult{
		Collectible: r.Collectible.String(),
		SequenceNum: r.Num,
	}
}

// RechargeResult is returned by recharge_request.
type RechargeResult struct {
	InstanceID uint64 `json:"instance_id"`
	Units      uint64 `json:"units"`
	TotalPaid  string `json:"total_paid"`
}

// InstanceResult is returned by ledger_getInstance.
type InstanceResult struct {
	InstanceID     uint64 `json:"instance_id"`
	Collectible    string `json:"collectible"`
	CollectibleNum uint64 `json:"collectible_num"`
	Owner          string `json:"owner"`
}

// NewInstanceResult converts a ledger instance to its RPC form.
func NewInstanceResult(inst *ledger.Instance) *InstanceResult {
	return &InstanceResult{
		InstanceID:     inst.ID,
		Collectible:    inst.Collectible.String(),
		CollectibleNum: inst.CollectibleNum,
		Owner:          inst.Owner.String(),
	}
}

// AmountResult is returned by payment_getBalance and payment_getAllowance.
type AmountResult struct {
	Amount string `json:"amount"`
}

// OwnerResult is returned by ledger_getOwner.
type OwnerResult struct {
	Owner string `json:"owner"`
}

// CountResult is returned by ledger_balanceOf and ledger_totalSupply.
type CountResult struct {
	Count uint64 `json:"count"`
}

// NodeInfoResult is returned by node_getInfo.
type NodeInfoResult struct {
	Version      string `json:"version"`
	Network      string `json:"network"`
	AddressHRP   string `json:"address_hrp"`
	Owner        string `json:"owner"`
	Minter       string `json:"minter"`
	FeeRecipient string `json:"fee_recipient"`
	Collectibles int    `json:"collectibles"`
	Instances    uint64 `json:"instances"`
}
