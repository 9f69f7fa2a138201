package rpc

import (
	"errors"
	"fmt"

	"github.com/laqirace/collectibled/internal/auth"
	"github.com/laqirace/collectibled/internal/collectible"
	"github.com/laqirace/collectibled/internal/payment"
	"github.com/laqirace/collectibled/internal/storage"
	"github.com/laqirace/collectibled/pkg/types"
)

// domainError translates engine/registry errors into JSON-RPC errors.
func domainError(err error) *Error {
	switch {
	case errors.Is(err, collectible.ErrNotFound),
		errors.Is(err, collectible.ErrInstanceNotFound),
		errors.Is(err, collectible.ErrRequestNotFound),
		storage.IsNotFound(err):
		return &Error{Code: CodeNotFound, Message: err.Error()}
	case errors.Is(err, auth.ErrUnauthorized):
		return &Error{Code: CodeUnauthorized, Message: err.Error()}
	case errors.Is(err, collectible.ErrAlreadyExists),
		errors.Is(err, collectible.ErrAlreadyClaimed),
		errors.Is(err, collectible.ErrCapacityExceeded),
		errors.Is(err, collectible.ErrSaleNotPermitted),
		errors.Is(err, collectible.ErrTooManyUnits),
		errors.Is(err, payment.ErrUnsupportedToken),
		errors.Is(err, payment.ErrInsufficientFunds),
		errors.Is(err, payment.ErrInsufficientAllowance):
		return &Error{Code: CodeRejected, Message: err.Error()}
	default:
		return &Error{Code: CodeInternalError, Message: err.Error()}
	}
}

func parseSignature(s string) (types.Signature, *Error) {
	sig, err := types.HexToSignature(s)
	if err != nil {
		return types.Signature{}, &Error{Code: CodeInvalidParams, Message: fmt.Sprintf("invalid signature: %v", err)}
	}
	return sig, nil
}

func parseAddr(field, s string) (types.Address, *Error) {
	addr, err := types.ParseAddress(s)
	if err != nil {
		return types.Address{}, &Error{Code: CodeInvalidParams, Message: fmt.Sprintf("invalid %s: %v", field, err)}
	}
	return addr, nil
}

func parseAmt(field, s string) (types.Amount, *Error) {
	a, err := types.ParseAmount(s)
	if err != nil {
		return types.Amount{}, &Error{Code: CodeInvalidParams, Message: fmt.Sprintf("invalid %s: %v", field, err)}
	}
	return a, nil
}

func collectibleFromParam(p CollectibleParam) (collectible.Collectible, *Error) {
	if p.Name == "" {
		return collectible.Collectible{}, &Error{Code: CodeInvalidParams, Message: "name is required"}
	}
	price, rpcErr := parseAmt("price", p.Price)
	if rpcErr != nil {
		return collectible.Collectible{}, rpcErr
	}
	usageCost, rpcErr := parseAmt("usage_cost", p.UsageCost)
	if rpcErr != nil {
		return collectible.Collectible{}, rpcErr
	}
	return collectible.Collectible{
		Name:      p.Name,
		MediaRef:  p.MediaRef,
		Price:     price,
		UsageCost: usageCost,
		MaxUsage:  p.MaxUsage,
	}, nil
}

// ── Registry endpoints ──────────────────────────────────────────────────

func (s *Server) handleRegistryImport(req *Request) (interface{}, *Error) {
	var params CollectibleParam
	if err := parseParams(req, &params); err != nil {
		return nil, err
	}
	c, rpcErr := collectibleFromParam(params)
	if rpcErr != nil {
		return nil, rpcErr
	}
	sig, err := s.registry.Import(s.auth.Owner(), c)
	if err != nil {
		return nil, domainError(err)
	}
	return &SignatureResult{Signature: sig.String()}, nil
}

func (s *Server) handleRegistryUpdate(req *Request) (interface{}, *Error) {
	var params UpdateParam
	if err := parseParams(req, &params); err != nil {
		return nil, err
	}
	oldSig, rpcErr := parseSignature(params.Signature)
	if rpcErr != nil {
		return nil, rpcErr
	}
	c, rpcErr := collectibleFromParam(params.CollectibleParam)
	if rpcErr != nil {
		return nil, rpcErr
	}
	newSig, err := s.registry.Update(s.auth.Owner(), oldSig, c)
	if err != nil {
		return nil, domainError(err)
	}
	return &SignatureResult{Signature: newSig.String()}, nil
}

func (s *Server) handleRegistryRemove(req *Request) (interface{}, *Error) {
	var params SignatureParam
	if err := parseParams(req, &params); err != nil {
		return nil, err
	}
	sig, rpcErr := parseSignature(params.Signature)
	if rpcErr != nil {
		return nil, rpcErr
	}
	if err := s.registry.Remove(s.auth.Owner(), sig); err != nil {
		return nil, domainError(err)
	}
	return true, nil
}

func (s *Server) handleRegistryGetCollectible(req *Request) (interface{}, *Error) {
	var params SignatureParam
	if err := parseParams(req, &params); err != nil {
		return nil, err
	}
	sig, rpcErr := parseSignature(params.Signature)
	if rpcErr != nil {
		return nil, rpcErr
	}
	c, err := s.registry.Data(sig)
	if err != nil {
		return nil, domainError(err)
	}
	return NewCollectibleResult(sig.String(), c), nil
}

func (s *Server) handleRegistryGetSignature(req *Request) (interface{}, *Error) {
	var params NameParam
	if err := parseParams(req, &params); err != nil {
		return nil, err
	}
	if params.Name == "" {
		return nil, &Error{Code: CodeInvalidParams, Message: "name is required"}
	}
	sig, err := s.registry.SignatureByName(params.Name)
	if err != nil {
		return nil, domainError(err)
	}
	return &SignatureResult{Signature: sig.String()}, nil
}

func (s *Server) handleRegistryList(req *Request) (interface{}, *Error) {
	sigs, err := s.registry.Signatures()
	if err != nil {
		return nil, domainError(err)
	}
	out := make([]string, len(sigs))
	for i, sig := range sigs {
		out[i] = sig.String()
	}
	return out, nil
}

// ── Sale policy endpoints ───────────────────────────────────────────────

func (s *Server) handleSaleSetStatus(req *Request) (interface{}, *Error) {
	var params SaleStatusParam
	if err := parseParams(req, &params); err != nil {
		return nil, err
	}
	sig, rpcErr := parseSignature(params.Signature)
	if rpcErr != nil {
		return nil, rpcErr
	}
	err := s.registry.SetSaleStatus(s.auth.Owner(), sig,
		params.MaxSupply, params.SalePermit, params.PreSale, params.SaleByRequest)
	if err != nil {
		return nil, domainError(err)
	}
	return true, nil
}

func (s *Server) handleSaleGetStatus(req *Request) (interface{}, *Error) {
	var params SignatureParam
	if err := parseParams(req, &params); err != nil {
		return nil, err
	}
	sig, rpcErr := parseSignature(params.Signature)
	if rpcErr != nil {
		return nil, rpcErr
	}
	sale, err := s.registry.SaleData(sig)
	if err != nil {
		return nil, domainError(err)
	}
	return &SaleStatusResult{
		Signature:     sig.String(),
		MaxSupply:     sale.MaxSupply,
		TotalSupply:   sale.TotalSupply,
		SalePermit:    sale.SalePermit,
		PreSale:       sale.PreSale,
		SaleByRequest: sale.SaleByRequest,
	}, nil
}

// ── Mint endpoints ──────────────────────────────────────────────────────

func parseMintParams(req *Request) (buyer types.Address, sig types.Signature, payToken types.Address, rpcErr *Error) {
	var params MintParam
	if rpcErr = parseParams(req, &params); rpcErr != nil {
		return
	}
	if buyer, rpcErr = parseAddr("buyer", params.Buyer); rpcErr != nil {
		return
	}
	if sig, rpcErr = parseSignature(params.Signature); rpcErr != nil {
		return
	}
	payToken, rpcErr = parseAddr("pay_token", params.PayToken)
	return
}

func (s *Server) handleMintCollectible(req *Request) (interface{}, *Error) {
	buyer, sig, payToken, rpcErr := parseMintParams(req)
	if rpcErr != nil {
		return nil, rpcErr
	}
	id, err := s.engine.Mint(buyer, sig, payToken)
	if err != nil {
		return nil, domainError(err)
	}
	return &MintResult{InstanceID: id}, nil
}

func (s *Server) handleMintPresale(req *Request) (interface{}, *Error) {
	buyer, sig, payToken, rpcErr := parseMintParams(req)
	if rpcErr != nil {
		return nil, rpcErr
	}
	id, err := s.engine.PreSaleMint(buyer, sig, payToken)
	if err != nil {
		return nil, domainError(err)
	}
	return &MintResult{InstanceID: id}, nil
}

func (s *Server) handleMintRequest(req *Request) (interface{}, *Error) {
	buyer, sig, payToken, rpcErr := parseMintParams(req)
	if rpcErr != nil {
		return nil, rpcErr
	}
	num, err := s.engine.RequestMint(buyer, sig, payToken)
	if err != nil {
		return nil, domainError(err)
	}
	return &RequestResult{SequenceNum: num}, nil
}

func (s *Server) handleMintForRequest(req *Request) (interface{}, *Error) {
	var params MintForRequestParam
	if err := parseParams(req, &params); err != nil {
		return nil, err
	}
	requester, rpcErr := parseAddr("requester", params.Requester)
	if rpcErr != nil {
		return nil, rpcErr
	}
	sig, rpcErr := parseSignature(params.Signature)
	if rpcErr != nil {
		return nil, rpcErr
	}
	id, err := s.engine.MintForRequest(s.auth.Minter(), requester, sig, params.SequenceNum)
	if err != nil {
		return nil, domainError(err)
	}
	return &MintResult{InstanceID: id}, nil
}

func (s *Server) handleMintTo(req *Request) (interface{}, *Error) {
	var params MintToParam
	if err := parseParams(req, &params); err != nil {
		return nil, err
	}
	recipient, rpcErr := parseAddr("recipient", params.Recipient)
	if rpcErr != nil {
		return nil, rpcErr
	}
	sig, rpcErr := parseSignature(params.Signature)
	if rpcErr != nil {
		return nil, rpcErr
	}
	id, err := s.engine.MintTo(s.auth.Owner(), recipient, sig)
	if err != nil {
		return nil, domainError(err)
	}
	return &MintResult{InstanceID: id}, nil
}

// ── Request-queue endpoints ─────────────────────────────────────────────

func (s *Server) handleRequestList(req *Request) (interface{}, *Error) {
	var params AddressParam
	if err := parseParams(req, &params); err != nil {
		return nil, err
	}
	addr, rpcErr := parseAddr("address", params.Address)
	if rpcErr != nil {
		return nil, rpcErr
	}
	reqs, err := s.engine.RequestsOf(addr)
	if err != nil {
		return nil, domainError(err)
	}
	out := make([]PendingRequestResult, len(reqs))
	for i, r := range reqs {
		out[i] = NewPendingRequestResult(r)
	}
	return out, nil
}

func (s *Server) handleRequestRequesters(req *Request) (interface{}, *Error) {
	addrs, err := s.engine.Requesters()
	if err != nil {
		return nil, domainError(err)
	}
	out := make([]string, len(addrs))
	for i, a := range addrs {
		out[i] = a.String()
	}
	return out, nil
}

// ── Recharge endpoint ───────────────────────────────────────────────────

func (s *Server) handleRechargeRequest(req *Request) (interface{}, *Error) {
	var params RechargeParam
	if err := parseParams(req, &params); err != nil {
		return nil, err
	}
	requester, rpcErr := parseAddr("requester", params.Requester)
	if rpcErr != nil {
		return nil, rpcErr
	}
	payToken, rpcErr := parseAddr("pay_token", params.PayToken)
	if rpcErr != nil {
		return nil, rpcErr
	}
	total, err := s.engine.RequestCharge(requester, params.InstanceID, params.Units, payToken)
	if err != nil {
		return nil, domainError(err)
	}
	return &RechargeResult{
		InstanceID: params.InstanceID,
		Units:      params.Units,
		TotalPaid:  total.String(),
	}, nil
}

// ── Payment endpoints ───────────────────────────────────────────────────

func (s *Server) handlePaymentAddQuoteToken(req *Request) (interface{}, *Error) {
	var params TokenParam
	if err := parseParams(req, &params); err != nil {
		return nil, err
	}
	token, rpcErr := parseAddr("token", params.Token)
	if rpcErr != nil {
		return nil, rpcErr
	}
	if err := s.payments.AddQuoteToken(s.auth.Owner(), token); err != nil {
		return nil, domainError(err)
	}
	return true, nil
}

func (s *Server) handlePaymentRemoveQuoteToken(req *Request) (interface{}, *Error) {
	var params TokenParam
	if err := parseParams(req, &params); err != nil {
		return nil, err
	}
	token, rpcErr := parseAddr("token", params.Token)
	if rpcErr != nil {
		return nil, rpcErr
	}
	if err := s.payments.RemoveQuoteToken(s.auth.Owner(), token); err != nil {
		return nil, domainError(err)
	}
	return true, nil
}

func (s *Server) handlePaymentListQuoteTokens(req *Request) (interface{}, *Error) {
	tokens, err := s.payments.QuoteTokens()
	if err != nil {
		return nil, domainError(err)
	}
	out := make([]string, len(tokens))
	for i, tok := range tokens {
		out[i] = tok.String()
	}
	return out, nil
}

func (s *Server) handlePaymentGetBalance(req *Request) (interface{}, *Error) {
	var params BalanceParam
	if err := parseParams(req, &params); err != nil {
		return nil, err
	}
	token, rpcErr := parseAddr("token", params.Token)
	if rpcErr != nil {
		return nil, rpcErr
	}
	holder, rpcErr := parseAddr("holder", params.Holder)
	if rpcErr != nil {
		return nil, rpcErr
	}
	balance, err := s.payments.Balance(token, holder)
	if err != nil {
		return nil, domainError(err)
	}
	return &AmountResult{Amount: balance.String()}, nil
}

func (s *Server) handlePaymentGetAllowance(req *Request) (interface{}, *Error) {
	var params BalanceParam
	if err := parseParams(req, &params); err != nil {
		return nil, err
	}
	token, rpcErr := parseAddr("token", params.Token)
	if rpcErr != nil {
		return nil, rpcErr
	}
	holder, rpcErr := parseAddr("holder", params.Holder)
	if rpcErr != nil {
		return nil, rpcErr
	}
	allowance, err := s.payments.Allowance(token, holder)
	if err != nil {
		return nil, domainError(err)
	}
	return &AmountResult{Amount: allowance.String()}, nil
}

func (s *Server) handlePaymentApprove(req *Request) (interface{}, *Error) {
	var params ApproveParam
	if err := parseParams(req, &params); err != nil {
		return nil, err
	}
	holder, rpcErr := parseAddr("holder", params.Holder)
	if rpcErr != nil {
		return nil, rpcErr
	}
	token, rpcErr := parseAddr("token", params.Token)
	if rpcErr != nil {
		return nil, rpcErr
	}
	amount, rpcErr := parseAmt("amount", params.Amount)
	if rpcErr != nil {
		return nil, rpcErr
	}
	if err := s.payments.Approve(holder, token, amount); err != nil {
		return nil, domainError(err)
	}
	return true, nil
}

func (s *Server) handlePaymentCredit(req *Request) (interface{}, *Error) {
	var params CreditParam
	if err := parseParams(req, &params); err != nil {
		return nil, err
	}
	token, rpcErr := parseAddr("token", params.Token)
	if rpcErr != nil {
		return nil, rpcErr
	}
	to, rpcErr := parseAddr("to", params.To)
	if rpcErr != nil {
		return nil, rpcErr
	}
	amount, rpcErr := parseAmt("amount", params.Amount)
	if rpcErr != nil {
		return nil, rpcErr
	}
	if err := s.payments.Credit(s.auth.Owner(), token, to, amount); err != nil {
		return nil, domainError(err)
	}
	return true, nil
}

// ── Ledger endpoints ────────────────────────────────────────────────────

func (s *Server) handleLedgerGetInstance(req *Request) (interface{}, *Error) {
	var params InstanceParam
	if err := parseParams(req, &params); err != nil {
		return nil, err
	}
	inst, err := s.instances.Get(params.InstanceID)
	if err != nil {
		return nil, domainError(err)
	}
	return NewInstanceResult(inst), nil
}

func (s *Server) handleLedgerGetOwner(req *Request) (interface{}, *Error) {
	var params InstanceParam
	if err := parseParams(req, &params); err != nil {
		return nil, err
	}
	owner, err := s.instances.OwnerOf(params.InstanceID)
	if err != nil {
		return nil, domainError(err)
	}
	return &OwnerResult{Owner: owner.String()}, nil
}

func (s *Server) handleLedgerBalanceOf(req *Request) (interface{}, *Error) {
	var params AddressParam
	if err := parseParams(req, &params); err != nil {
		return nil, err
	}
	addr, rpcErr := parseAddr("address", params.Address)
	if rpcErr != nil {
		return nil, rpcErr
	}
	count, err := s.instances.BalanceOf(addr)
	if err != nil {
		return nil, domainError(err)
	}
	return &CountResult{Count: count}, nil
}

func (s *Server) handleLedgerInstancesOf(req *Request) (interface{}, *Error) {
	var params AddressParam
	if err := parseParams(req, &params); err != nil {
		return nil, err
	}
	addr, rpcErr := parseAddr("address", params.Address)
	if rpcErr != nil {
		return nil, rpcErr
	}
	ids, err := s.instances.InstancesOf(addr)
	if err != nil {
		return nil, domainError(err)
	}
	if ids == nil {
		ids = []uint64{}
	}
	return ids, nil
}

func (s *Server) handleLedgerTotalSupply(req *Request) (interface{}, *Error) {
	total, err := s.instances.TotalSupply()
	if err != nil {
		return nil, domainError(err)
	}
	return &CountResult{Count: total}, nil
}

// ── Node endpoint ───────────────────────────────────────────────────────

const versionString = "0.1.0"

func (s *Server) handleNodeGetInfo(req *Request) (interface{}, *Error) {
	sigs, err := s.registry.Signatures()
	if err != nil {
		return nil, domainError(err)
	}
	total, err := s.instances.TotalSupply()
	if err != nil {
		return nil, domainError(err)
	}
	return &NodeInfoResult{
		Version:      versionString,
		Network:      s.network,
		AddressHRP:   types.GetAddressHRP(),
		Owner:        s.auth.Owner().String(),
		Minter:       s.auth.Minter().String(),
		FeeRecipient: s.auth.FeeRecipient().String(),
		Collectibles: len(sigs),
		Instances:    total,
	}, nil
}
