// Package payment implements the quote-token ledger used to settle
// collectible sales and recharges. It tracks which payment tokens the
// registry accepts, per-token holder balances, and the spending
// allowances holders grant the platform. Sale settlement runs inside
// the issuing operation's storage transaction, so a failed sale never
// leaves a partial payment behind.
package payment

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/laqirace/collectibled/internal/auth"
	klog "github.com/laqirace/collectibled/internal/log"
	"github.com/laqirace/collectibled/internal/storage"
	"github.com/laqirace/collectibled/pkg/types"
	"github.com/rs/zerolog"
)

// Ledger errors.
var (
	ErrUnsupportedToken      = errors.New("payment token is not accepted")
	ErrInsufficientFunds     = errors.New("insufficient balance")
	ErrInsufficientAllowance = errors.New("insufficient allowance")
)

// Key prefixes for the payment ledger.
var (
	prefixQuote     = []byte("q/")  // q/<token(20)> -> empty (accepted set)
	prefixBalance   = []byte("pb/") // pb/<token(20)><holder(20)> -> amount bytes
	prefixAllowance = []byte("pa/") // pa/<token(20)><holder(20)> -> amount bytes
)

// Ledger is the payment-token ledger backed by a storage.DB.
type Ledger struct {
	db     storage.DB
	auth   *auth.Authority
	logger zerolog.Logger
}

// NewLedger creates a payment ledger.
func NewLedger(db storage.DB, authority *auth.Authority) *Ledger {
	return &Ledger{db: db, auth: authority, logger: klog.Payment}
}

// quoteKey builds a key for the accepted-token set: "q/" + token(20).
func quoteKey(token types.Address) []byte {
	key := make([]byte, len(prefixQuote)+types.AddressSize)
	copy(key, prefixQuote)
	copy(key[len(prefixQuote):], token[:])
	return key
}

// balanceKey builds a balance key: "pb/" + token(20) + holder(20).
func balanceKey(token, holder types.Address) []byte {
	key := make([]byte, len(prefixBalance)+2*types.AddressSize)
	copy(key, prefixBalance)
	copy(key[len(prefixBalance):], token[:])
	copy(key[len(prefixBalance)+types.AddressSize:], holder[:])
	return key
}

// allowanceKey builds an allowance key: "pa/" + token(20) + holder(20).
func allowanceKey(token, holder types.Address) []byte {
	key := make([]byte, len(prefixAllowance)+2*types.AddressSize)
	copy(key, prefixAllowance)
	copy(key[len(prefixAllowance):], token[:])
	copy(key[len(prefixAllowance)+types.AddressSize:], holder[:])
	return key
}

// readAmount loads an amount, treating a missing key as zero.
func readAmount(tx storage.Txn, key []byte) (types.Amount, error) {
	data, err := tx.Get(key)
	if storage.IsNotFound(err) {
		return types.Amount{}, nil
	}
	if err != nil {
		return types.Amount{}, fmt.Errorf("amount get: %w", err)
	}
	return types.AmountFromBig(new(big.Int).SetBytes(data))
}

// writeAmount stores an amount as raw big-endian bytes.
func writeAmount(tx storage.Txn, key []byte, a types.Amount) error {
	return tx.Put(key, a.BigInt().Bytes())
}

// AddQuoteToken adds a token to the accepted set. Owner only.
func (l *Ledger) AddQuoteToken(caller, token types.Address) error {
	if err := l.auth.RequireOwner(caller); err != nil {
		return err
	}
	if err := l.db.Put(quoteKey(token), []byte{}); err != nil {
		return fmt.Errorf("add quote token: %w", err)
	}
	l.logger.Info().Str("token", token.String()).Msg("quote token added")
	return nil
}

// RemoveQuoteToken removes a token from the accepted set. Owner only.
func (l *Ledger) RemoveQuoteToken(caller, token types.Address) error {
	if err := l.auth.RequireOwner(caller); err != nil {
		return err
	}
	if err := l.db.Delete(quoteKey(token)); err != nil {
		return fmt.Errorf("remove quote token: %w", err)
	}
	l.logger.Info().Str("token", token.String()).Msg("quote token removed")
	return nil
}

// IsAccepted checks membership of token in the accepted set.
func (l *Ledger) IsAccepted(token types.Address) (bool, error) {
	return l.db.Has(quoteKey(token))
}

// IsAcceptedIn is IsAccepted inside an open transaction.
func (l *Ledger) IsAcceptedIn(tx storage.Txn, token types.Address) (bool, error) {
	return tx.Has(quoteKey(token))
}

// QuoteTokens returns the accepted token set in key order.
func (l *Ledger) QuoteTokens() ([]types.Address, error) {
	var tokens []types.Address
	err := l.db.ForEach(prefixQuote, func(key, _ []byte) error {
		if len(key) != len(prefixQuote)+types.AddressSize {
			return nil // Malformed key, skip.
		}
		var tok types.Address
		copy(tok[:], key[len(prefixQuote):])
		tokens = append(tokens, tok)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan quote tokens: %w", err)
	}
	return tokens, nil
}

// Credit mints units of a quote token to a holder. Owner only: this is
// the bridge for balances settled outside the registry.
func (l *Ledger) Credit(caller, token, to types.Address, amount types.Amount) error {
	if err := l.auth.RequireOwner(caller); err != nil {
		return err
	}
	return l.db.Update(func(tx storage.Txn) error {
		bal, err := readAmount(tx, balanceKey(token, to))
		if err != nil {
			return err
		}
		return writeAmount(tx, balanceKey(token, to), bal.Add(amount))
	})
}

// Approve sets the allowance a holder grants the platform for a token.
// The platform spends against this allowance when settling sales.
func (l *Ledger) Approve(holder, token types.Address, amount types.Amount) error {
	err := l.db.Update(func(tx storage.Txn) error {
		return writeAmount(tx, allowanceKey(token, holder), amount)
	})
	if err != nil {
		return fmt.Errorf("approve: %w", err)
	}
	return nil
}

// Balance returns holder's balance of token.
func (l *Ledger) Balance(token, holder types.Address) (types.Amount, error) {
	var bal types.Amount
	err := l.db.View(func(tx storage.Txn) error {
		b, err := readAmount(tx, balanceKey(token, holder))
		if err != nil {
			return err
		}
		bal = b
		return nil
	})
	return bal, err
}

// Allowance returns the platform allowance holder has granted for token.
func (l *Ledger) Allowance(token, holder types.Address) (types.Amount, error) {
	var allow types.Amount
	err := l.db.View(func(tx storage.Txn) error {
		a, err := readAmount(tx, allowanceKey(token, holder))
		if err != nil {
			return err
		}
		allow = a
		return nil
	})
	return allow, err
}

// Spend moves amount of token from one holder to another inside an
// open transaction, consuming from's platform allowance. Used by every
// paid issuance path; the caller's transaction aborting undoes the
// transfer.
func (l *Ledger) Spend(tx storage.Txn, token, from, to types.Address, amount types.Amount) error {
	if amount.IsZero() {
		return nil
	}

	allow, err := readAmount(tx, allowanceKey(token, from))
	if err != nil {
		return err
	}
	if allow.Cmp(amount) < 0 {
		return ErrInsufficientAllowance
	}

	bal, err := readAmount(tx, balanceKey(token, from))
	if err != nil {
		return err
	}
	if bal.Cmp(amount) < 0 {
		return ErrInsufficientFunds
	}

	if err := writeAmount(tx, allowanceKey(token, from), allow.Sub(amount)); err != nil {
		return err
	}
	if err := writeAmount(tx, balanceKey(token, from), bal.Sub(amount)); err != nil {
		return err
	}

	toBal, err := readAmount(tx, balanceKey(token, to))
	if err != nil {
		return err
	}
	return writeAmount(tx, balanceKey(token, to), toBal.Add(amount))
}
