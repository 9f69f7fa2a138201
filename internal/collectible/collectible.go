// Package collectible implements the template registry and the issuance
// engine. Templates are keyed by a signature derived from their content,
// so two templates with identical attributes cannot coexist and any
// attribute change re-keys the template. Issuance (the four mint paths,
// the pending-request queue and the recharge gateway) lives in the same
// package because every path reads and reserves against the same sale
// records inside one storage transaction.
package collectible

import (
	"encoding/binary"

	"github.com/laqirace/collectibled/pkg/crypto"
	"github.com/laqirace/collectibled/pkg/types"
)

// Collectible is a template describing a mintable asset class.
type Collectible struct {
	Name      string       `json:"name"`
	MediaRef  string       `json:"media_ref"`
	Price     types.Amount `json:"price"`
	UsageCost types.Amount `json:"usage_cost"`
	MaxUsage  uint64       `json:"max_usage"`
}

// IsZero reports whether c carries no data.
func (c Collectible) IsZero() bool {
	return c.Name == "" && c.MediaRef == "" && c.Price.IsZero() &&
		c.UsageCost.IsZero() && c.MaxUsage == 0
}

// Signature returns the content signature for c. Strings are
// length-prefixed so field boundaries cannot be shifted between name
// and media reference; amounts are encoded as fixed 32-byte values.
func (c Collectible) Signature() types.Signature {
	return DeriveSignature(c.Name, c.MediaRef, c.Price, c.UsageCost, c.MaxUsage)
}

// DeriveSignature computes the deterministic content signature for a
// collectible template. Equal attribute tuples always produce equal
// signatures, on every node.
func DeriveSignature(name, mediaRef string, price, usageCost types.Amount, maxUsage uint64) types.Signature {
	buf := make([]byte, 0, 8+len(name)+len(mediaRef)+32+32+8)
	buf = appendString(buf, name)
	buf = appendString(buf, mediaRef)
	buf = append(buf, price.PaddedBytes(32)...)
	buf = append(buf, usageCost.PaddedBytes(32)...)
	buf = binary.BigEndian.AppendUint64(buf, maxUsage)
	return types.Signature(crypto.Hash(buf))
}

func appendString(buf []byte, s string) []byte {
	buf = binary.BigEndian.AppendUint32(buf, uint32(len(s)))
	return append(buf, s...)
}
