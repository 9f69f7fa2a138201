// Package ledger records issued collectible instances. Every instance
// carries a global 1-based id, the signature of the collectible it was
// issued from, and its 1-based sequence number within that collectible.
// Instances are written exactly once and never mutated or destroyed:
// removing a collectible from the registry leaves its instances as
// permanent historical records.
package ledger

import (
	"encoding/binary"
	"encoding/json"
	"fmt"

	"github.com/laqirace/collectibled/internal/storage"
	"github.com/laqirace/collectibled/pkg/types"
)

// Key prefixes for the instance store.
var (
	prefixInstance = []byte("n/") // n/<id(8)> -> Instance JSON
	prefixHolder   = []byte("h/") // h/<addr(20)><id(8)> -> empty (holder index)
	keyLastID      = []byte("nid") // big-endian uint64, last allocated id
)

// Instance is one issued unit of a collectible.
type Instance struct {
	ID             uint64          `json:"id"`
	Collectible    types.Signature `json:"collectible"`
	CollectibleNum uint64          `json:"collectible_num"`
	Owner          types.Address   `json:"owner"`
}

// Store persists instances backed by a storage.DB.
type Store struct {
	db storage.DB
}

// NewStore creates an instance store.
func NewStore(db storage.DB) *Store {
	return &Store{db: db}
}

// instanceKey builds a storage key for an instance: "n/" + id(8).
func instanceKey(id uint64) []byte {
	key := make([]byte, len(prefixInstance)+8)
	copy(key, prefixInstance)
	binary.BigEndian.PutUint64(key[len(prefixInstance):], id)
	return key
}

// holderKey builds a holder index key: "h/" + addr(20) + id(8).
func holderKey(addr types.Address, id uint64) []byte {
	key := make([]byte, len(prefixHolder)+types.AddressSize+8)
	copy(key, prefixHolder)
	copy(key[len(prefixHolder):], addr[:])
	binary.BigEndian.PutUint64(key[len(prefixHolder)+types.AddressSize:], id)
	return key
}

// Mint allocates the next global instance id inside an open transaction,
// records the instance, and indexes it under the recipient. The sequence
// number must already be reserved against the collectible's sale data.
func (s *Store) Mint(tx storage.Txn, recipient types.Address, sig types.Signature, num uint64) (uint64, error) {
	last, err := s.lastIDIn(tx)
	if err != nil {
		return 0, err
	}
	id := last + 1

	inst := &Instance{
		ID:             id,
		Collectible:    sig,
		CollectibleNum: num,
		Owner:          recipient,
	}
	data, err := json.Marshal(inst)
	if err != nil {
		return 0, fmt.Errorf("instance marshal: %w", err)
	}
	if err := tx.Put(instanceKey(id), data); err != nil {
		return 0, fmt.Errorf("instance put: %w", err)
	}
	if err := tx.Put(holderKey(recipient, id), []byte{}); err != nil {
		return 0, fmt.Errorf("holder index put: %w", err)
	}

	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], id)
	if err := tx.Put(keyLastID, buf[:]); err != nil {
		return 0, fmt.Errorf("instance counter put: %w", err)
	}
	return id, nil
}

// lastIDIn reads the last allocated id, zero if none yet.
func (s *Store) lastIDIn(tx storage.Txn) (uint64, error) {
	data, err := tx.Get(keyLastID)
	if storage.IsNotFound(err) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("instance counter get: %w", err)
	}
	if len(data) != 8 {
		return 0, fmt.Errorf("instance counter corrupt: %d bytes", len(data))
	}
	return binary.BigEndian.Uint64(data), nil
}

// GetIn retrieves an instance by id inside an open transaction.
// Returns storage.ErrNotFound if no such instance exists.
func (s *Store) GetIn(tx storage.Txn, id uint64) (*Instance, error) {
	data, err := tx.Get(instanceKey(id))
	if err != nil {
		return nil, err
	}
	var inst Instance
	if err := json.Unmarshal(data, &inst); err != nil {
		return nil, fmt.Errorf("instance unmarshal: %w", err)
	}
	return &inst, nil
}

// Get retrieves an instance by id.
func (s *Store) Get(id uint64) (*Instance, error) {
	var inst *Instance
	err := s.db.View(func(tx storage.Txn) error {
		i, err := s.GetIn(tx, id)
		if err != nil {
			return err
		}
		inst = i
		return nil
	})
	if err != nil {
		return nil, err
	}
	return inst, nil
}

// Has checks whether an instance exists.
func (s *Store) Has(id uint64) (bool, error) {
	return s.db.Has(instanceKey(id))
}

// TotalSupply returns the number of instances ever issued.
func (s *Store) TotalSupply() (uint64, error) {
	var total uint64
	err := s.db.View(func(tx storage.Txn) error {
		last, err := s.lastIDIn(tx)
		if err != nil {
			return err
		}
		total = last
		return nil
	})
	return total, err
}

// OwnerOf returns the recorded holder of an instance.
func (s *Store) OwnerOf(id uint64) (types.Address, error) {
	inst, err := s.Get(id)
	if err != nil {
		return types.Address{}, err
	}
	return inst.Owner, nil
}

// InstancesOf returns the ids held by owner in ascending order.
func (s *Store) InstancesOf(owner types.Address) ([]uint64, error) {
	prefix := make([]byte, len(prefixHolder)+types.AddressSize)
	copy(prefix, prefixHolder)
	copy(prefix[len(prefixHolder):], owner[:])

	var ids []uint64
	err := s.db.ForEach(prefix, func(key, _ []byte) error {
		// Key layout: "h/" + addr(20) + id(8).
		if len(key) != len(prefixHolder)+types.AddressSize+8 {
			return nil // Malformed key, skip.
		}
		ids = append(ids, binary.BigEndian.Uint64(key[len(prefixHolder)+types.AddressSize:]))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan holder index: %w", err)
	}
	return ids, nil
}

// InstanceOfOwnerByIndex returns the i-th instance id held by owner,
// counting from zero in ascending id order.
func (s *Store) InstanceOfOwnerByIndex(owner types.Address, index uint64) (uint64, error) {
	ids, err := s.InstancesOf(owner)
	if err != nil {
		return 0, err
	}
	if index >= uint64(len(ids)) {
		return 0, fmt.Errorf("holder index %d out of range (%d held): %w", index, len(ids), storage.ErrNotFound)
	}
	return ids[index], nil
}

// BalanceOf returns the number of instances held by owner.
func (s *Store) BalanceOf(owner types.Address) (uint64, error) {
	ids, err := s.InstancesOf(owner)
	if err != nil {
		return 0, err
	}
	return uint64(len(ids)), nil
}

// SupplyOf returns the number of issued instances recorded for a
// collectible signature. Linear scan; used by reporting endpoints, not
// by issuance (which tracks supply in the sale data).
func (s *Store) SupplyOf(sig types.Signature) (uint64, error) {
	var count uint64
	err := s.db.ForEach(prefixInstance, func(_, value []byte) error {
		var inst Instance
		if err := json.Unmarshal(value, &inst); err != nil {
			return nil // Skip corrupt entries.
		}
		if inst.Collectible == sig {
			count++
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("scan instances: %w", err)
	}
	return count, nil
}
