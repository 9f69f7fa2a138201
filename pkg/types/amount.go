package types

import (
	"encoding/json"
	"fmt"
	"math/big"
)

// Amount is an arbitrary-precision, non-negative token amount.
// Collectible prices are denominated in the smallest unit of a quote
// token (18 decimals in practice), so values routinely exceed uint64.
// The zero value is a usable zero amount. Amounts are immutable:
// arithmetic methods return new values.
type Amount struct {
	i *big.Int
}

// NewAmount creates an amount from a uint64.
func NewAmount(v uint64) Amount {
	return Amount{i: new(big.Int).SetUint64(v)}
}

// AmountFromBig creates an amount from a big.Int copy.
// Negative inputs are rejected.
func AmountFromBig(v *big.Int) (Amount, error) {
	if v == nil {
		return Amount{}, nil
	}
	if v.Sign() < 0 {
		return Amount{}, fmt.Errorf("amount must not be negative")
	}
	return Amount{i: new(big.Int).Set(v)}, nil
}

// ParseAmount parses a base-10 amount string.
func ParseAmount(s string) (Amount, error) {
	if s == "" {
		return Amount{}, nil
	}
	v, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return Amount{}, fmt.Errorf("invalid amount %q", s)
	}
	return AmountFromBig(v)
}

// big returns the internal value, treating nil as zero. Never mutated.
func (a Amount) big() *big.Int {
	if a.i == nil {
		return new(big.Int)
	}
	return a.i
}

// BigInt returns a copy of the amount as a big.Int.
func (a Amount) BigInt() *big.Int {
	return new(big.Int).Set(a.big())
}

// IsZero returns true if the amount is zero.
func (a Amount) IsZero() bool {
	return a.i == nil || a.i.Sign() == 0
}

// Cmp compares a and b: -1 if a < b, 0 if equal, +1 if a > b.
func (a Amount) Cmp(b Amount) int {
	return a.big().Cmp(b.big())
}

// Add returns a + b.
func (a Amount) Add(b Amount) Amount {
	return Amount{i: new(big.Int).Add(a.big(), b.big())}
}

// Sub returns a - b. The caller must ensure b <= a (checked via Cmp);
// a negative result is clamped to zero.
func (a Amount) Sub(b Amount) Amount {
	r := new(big.Int).Sub(a.big(), b.big())
	if r.Sign() < 0 {
		r.SetUint64(0)
	}
	return Amount{i: r}
}

// MulUint64 returns a * n.
func (a Amount) MulUint64(n uint64) Amount {
	return Amount{i: new(big.Int).Mul(a.big(), new(big.Int).SetUint64(n))}
}

// String returns the base-10 representation.
func (a Amount) String() string {
	return a.big().String()
}

// PaddedBytes returns the amount as a fixed-width big-endian byte slice.
// Used for deterministic hashing. Amounts wider than size bytes keep
// only their low-order bytes.
func (a Amount) PaddedBytes(size int) []byte {
	b := a.big().Bytes()
	out := make([]byte, size)
	if len(b) > size {
		b = b[len(b)-size:]
	}
	copy(out[size-len(b):], b)
	return out
}

// MarshalJSON encodes the amount as a base-10 string.
func (a Amount) MarshalJSON() ([]byte, error) {
	return json.Marshal(a.String())
}

// UnmarshalJSON decodes a base-10 string (or JSON number) into an amount.
func (a *Amount) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		// Accept bare JSON numbers for hand-written fixtures.
		var n json.Number
		if err2 := json.Unmarshal(data, &n); err2 != nil {
			return err
		}
		s = n.String()
	}
	v, err := ParseAmount(s)
	if err != nil {
		return err
	}
	*a = v
	return nil
}
