package collectible

import (
	"github.com/laqirace/collectibled/internal/auth"
	"github.com/laqirace/collectibled/internal/events"
	"github.com/laqirace/collectibled/internal/ledger"
	klog "github.com/laqirace/collectibled/internal/log"
	"github.com/laqirace/collectibled/internal/payment"
	"github.com/laqirace/collectibled/internal/storage"
	"github.com/laqirace/collectibled/pkg/types"
	"github.com/rs/zerolog"
)

// prefixClaim marks consumed presale claims: pc/<addr(20)><name> -> empty.
// Claims key on the template *name*, so a re-keyed template does not
// grant a second presale unit to the same buyer.
var prefixClaim = []byte("pc/")

// Engine runs the issuance paths against the registry's sale records.
// Each path is one storage transaction: capacity reservation, payment
// and instance allocation either all land or none do.
type Engine struct {
	db        storage.DB
	auth      *auth.Authority
	bus       *events.Bus
	instances *ledger.Store
	payments  *payment.Ledger
	logger    zerolog.Logger
}

// NewEngine creates an issuance engine over shared stores.
func NewEngine(db storage.DB, authority *auth.Authority, bus *events.Bus, instances *ledger.Store, payments *payment.Ledger) *Engine {
	return &Engine{
		db:        db,
		auth:      authority,
		bus:       bus,
		instances: instances,
		payments:  payments,
		logger:    klog.Issuance,
	}
}

func claimKey(addr types.Address, name string) []byte {
	key := make([]byte, len(prefixClaim)+types.AddressSize+len(name))
	copy(key, prefixClaim)
	copy(key[len(prefixClaim):], addr[:])
	copy(key[len(prefixClaim)+types.AddressSize:], name)
	return key
}

// settle charges the template price from the buyer to the fee recipient
// through the quote-token ledger.
func (e *Engine) settle(tx storage.Txn, payToken, buyer types.Address, price types.Amount) error {
	if ok, err := e.payments.IsAcceptedIn(tx, payToken); err != nil {
		return err
	} else if !ok {
		return payment.ErrUnsupportedToken
	}
	return e.payments.Spend(tx, payToken, buyer, e.auth.FeeRecipient(), price)
}

// Mint sells one unit of a permitted template to the caller, paying the
// template price in payToken. Returns the new instance id.
func (e *Engine) Mint(caller types.Address, sig types.Signature, payToken types.Address) (uint64, error) {
	var id uint64
	err := e.db.Update(func(tx storage.Txn) error {
		c, err := getIn(tx, sig)
		if err != nil {
			return err
		}
		sale, err := saleIn(tx, sig)
		if err != nil {
			return err
		}
		if !sale.SalePermit {
			return ErrSaleNotPermitted
		}
		num, err := reserveIn(tx, sig)
		if err != nil {
			return err
		}
		if err := e.settle(tx, payToken, caller, c.Price); err != nil {
			return err
		}
		id, err = e.instances.Mint(tx, caller, sig, num)
		return err
	})
	if err != nil {
		return 0, err
	}
	e.logger.Info().Uint64("instance", id).Str("signature", sig.String()).
		Str("buyer", caller.String()).Msg("Collectible minted")
	return id, nil
}

// PreSaleMint sells one presale unit to the caller. Each address can
// claim at most one presale unit per template name.
func (e *Engine) PreSaleMint(caller types.Address, sig types.Signature, payToken types.Address) (uint64, error) {
	var id uint64
	err := e.db.Update(func(tx storage.Txn) error {
		c, err := getIn(tx, sig)
		if err != nil {
			return err
		}
		sale, err := saleIn(tx, sig)
		if err != nil {
			return err
		}
		if !sale.SalePermit || !sale.PreSale {
			return ErrSaleNotPermitted
		}
		if ok, err := tx.Has(claimKey(caller, c.Name)); err != nil {
			return err
		} else if ok {
			return ErrAlreadyClaimed
		}
		if err := tx.Put(claimKey(caller, c.Name), []byte{}); err != nil {
			return err
		}
		num, err := reserveIn(tx, sig)
		if err != nil {
			return err
		}
		if err := e.settle(tx, payToken, caller, c.Price); err != nil {
			return err
		}
		id, err = e.instances.Mint(tx, caller, sig, num)
		return err
	})
	if err != nil {
		return 0, err
	}
	e.logger.Info().Uint64("instance", id).Str("signature", sig.String()).
		Str("buyer", caller.String()).Msg("Presale collectible minted")
	return id, nil
}

// RequestMint takes payment and reserves a sequence number without
// allocating an instance; the claim waits in the caller's queue until
// the minter fulfills it. Returns the reserved sequence number.
func (e *Engine) RequestMint(caller types.Address, sig types.Signature, payToken types.Address) (uint64, error) {
	var num uint64
	err := e.db.Update(func(tx storage.Txn) error {
		c, err := getIn(tx, sig)
		if err != nil {
			return err
		}
		sale, err := saleIn(tx, sig)
		if err != nil {
			return err
		}
		if !sale.SalePermit || !sale.PreSale || !sale.SaleByRequest {
			return ErrSaleNotPermitted
		}
		num, err = reserveIn(tx, sig)
		if err != nil {
			return err
		}
		if err := e.settle(tx, payToken, caller, c.Price); err != nil {
			return err
		}
		return enqueueRequestIn(tx, caller, MintRequest{Collectible: sig, Num: num})
	})
	if err != nil {
		return 0, err
	}
	e.logger.Info().Str("signature", sig.String()).Uint64("num", num).
		Str("requester", caller.String()).Msg("Mint requested")
	e.bus.Publish(events.RequestForMinting{
		Requester:   caller,
		Collectible: sig,
		SequenceNum: num,
	})
	return num, nil
}

// MintForRequest fulfills a pending mint request, allocating the
// instance with the sequence number reserved at request time. Minter
// gated; the owner passes too.
func (e *Engine) MintForRequest(operator, requester types.Address, sig types.Signature, num uint64) (uint64, error) {
	if err := e.auth.RequireMinter(operator); err != nil {
		return 0, err
	}
	var id uint64
	err := e.db.Update(func(tx storage.Txn) error {
		if err := dequeueRequestIn(tx, requester, sig, num); err != nil {
			return err
		}
		var err error
		id, err = e.instances.Mint(tx, requester, sig, num)
		return err
	})
	if err != nil {
		return 0, err
	}
	e.logger.Info().Uint64("instance", id).Str("signature", sig.String()).
		Str("requester", requester.String()).Msg("Mint request fulfilled")
	return id, nil
}

// MintTo issues one unit directly to a recipient, bypassing the policy
// flags and payment. The supply cap still applies. Owner gated.
func (e *Engine) MintTo(operator, recipient types.Address, sig types.Signature) (uint64, error) {
	if err := e.auth.RequireOwner(operator); err != nil {
		return 0, err
	}
	var id uint64
	err := e.db.Update(func(tx storage.Txn) error {
		if ok, err := tx.Has(templateKey(sig)); err != nil {
			return err
		} else if !ok {
			return ErrNotFound
		}
		num, err := reserveIn(tx, sig)
		if err != nil {
			return err
		}
		id, err = e.instances.Mint(tx, recipient, sig, num)
		return err
	})
	if err != nil {
		return 0, err
	}
	e.logger.Info().Uint64("instance", id).Str("signature", sig.String()).
		Str("recipient", recipient.String()).Msg("Collectible minted to recipient")
	return id, nil
}

// RequestsOf returns the pending mint requests of an address.
func (e *Engine) RequestsOf(addr types.Address) ([]MintRequest, error) {
	var reqs []MintRequest
	err := e.db.View(func(tx storage.Txn) error {
		var err error
		reqs, err = requestsIn(tx, addr)
		return err
	})
	return reqs, err
}

// Requesters returns every address with at least one pending request.
func (e *Engine) Requesters() ([]types.Address, error) {
	var addrs []types.Address
	err := e.db.View(func(tx storage.Txn) error {
		var err error
		addrs, err = requestersIn(tx)
		return err
	})
	return addrs, err
}

// HasClaimed reports whether addr has consumed its presale claim for a
// template name.
func (e *Engine) HasClaimed(addr types.Address, name string) (bool, error) {
	return e.db.Has(claimKey(addr, name))
}
