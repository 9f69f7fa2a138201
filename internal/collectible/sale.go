package collectible

import (
	"encoding/json"
	"fmt"

	"github.com/laqirace/collectibled/internal/storage"
	"github.com/laqirace/collectibled/pkg/types"
)

// SaleStatus is the issuance policy and supply record for a template.
// TotalSupply counts reservations, not allocated instances: a pending
// mint request holds its sequence number until fulfilled.
type SaleStatus struct {
	MaxSupply     uint64 `json:"max_supply"` // 0 means uncapped
	TotalSupply   uint64 `json:"total_supply"`
	SalePermit    bool   `json:"sale_permit"`
	PreSale       bool   `json:"pre_sale"`
	SaleByRequest bool   `json:"sale_by_request"`
}

func saleKey(sig types.Signature) []byte {
	key := make([]byte, len(prefixSale)+len(sig))
	copy(key, prefixSale)
	copy(key[len(prefixSale):], sig[:])
	return key
}

// saleIn reads the sale record for sig, zero-valued if none was ever set.
func saleIn(tx storage.Txn, sig types.Signature) (SaleStatus, error) {
	data, err := tx.Get(saleKey(sig))
	if storage.IsNotFound(err) {
		return SaleStatus{}, nil
	}
	if err != nil {
		return SaleStatus{}, fmt.Errorf("sale status get: %w", err)
	}
	var s SaleStatus
	if err := json.Unmarshal(data, &s); err != nil {
		return SaleStatus{}, fmt.Errorf("sale status unmarshal: %w", err)
	}
	return s, nil
}

func putSaleIn(tx storage.Txn, sig types.Signature, s SaleStatus) error {
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("sale status marshal: %w", err)
	}
	return tx.Put(saleKey(sig), data)
}

// reserveIn claims the next sequence number for sig, enforcing the
// supply cap. Returns the 1-based sequence within the template.
func reserveIn(tx storage.Txn, sig types.Signature) (uint64, error) {
	s, err := saleIn(tx, sig)
	if err != nil {
		return 0, err
	}
	if s.MaxSupply != 0 && s.TotalSupply >= s.MaxSupply {
		return 0, ErrCapacityExceeded
	}
	s.TotalSupply++
	if err := putSaleIn(tx, sig, s); err != nil {
		return 0, err
	}
	return s.TotalSupply, nil
}
