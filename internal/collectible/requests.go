package collectible

import (
	"encoding/json"
	"fmt"

	"github.com/laqirace/collectibled/internal/storage"
	"github.com/laqirace/collectibled/pkg/types"
)

// Request-queue keys.
var (
	prefixRequests = []byte("mr/") // mr/<addr(20)> -> []MintRequest JSON
	keyRequesters  = []byte("mrs") // JSON array of addresses with pending requests
)

// MintRequest is a paid, capacity-reserved claim awaiting fulfillment
// by the minter. Num is the sequence number reserved at request time.
type MintRequest struct {
	Collectible types.Signature `json:"collectible"`
	Num         uint64          `json:"num"`
}

func requestsKey(addr types.Address) []byte {
	key := make([]byte, len(prefixRequests)+types.AddressSize)
	copy(key, prefixRequests)
	copy(key[len(prefixRequests):], addr[:])
	return key
}

func requestsIn(tx storage.Txn, addr types.Address) ([]MintRequest, error) {
	data, err := tx.Get(requestsKey(addr))
	if storage.IsNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("request list get: %w", err)
	}
	var reqs []MintRequest
	if err := json.Unmarshal(data, &reqs); err != nil {
		return nil, fmt.Errorf("request list unmarshal: %w", err)
	}
	return reqs, nil
}

func putRequestsIn(tx storage.Txn, addr types.Address, reqs []MintRequest) error {
	if len(reqs) == 0 {
		return tx.Delete(requestsKey(addr))
	}
	data, err := json.Marshal(reqs)
	if err != nil {
		return fmt.Errorf("request list marshal: %w", err)
	}
	return tx.Put(requestsKey(addr), data)
}

func requestersIn(tx storage.Txn) ([]types.Address, error) {
	data, err := tx.Get(keyRequesters)
	if storage.IsNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("requester list get: %w", err)
	}
	var addrs []types.Address
	if err := json.Unmarshal(data, &addrs); err != nil {
		return nil, fmt.Errorf("requester list unmarshal: %w", err)
	}
	return addrs, nil
}

func putRequestersIn(tx storage.Txn, addrs []types.Address) error {
	if len(addrs) == 0 {
		return tx.Delete(keyRequesters)
	}
	data, err := json.Marshal(addrs)
	if err != nil {
		return fmt.Errorf("requester list marshal: %w", err)
	}
	return tx.Put(keyRequesters, data)
}

// enqueueRequestIn appends a request for addr, adding addr to the
// requester set on its first pending request.
func enqueueRequestIn(tx storage.Txn, addr types.Address, req MintRequest) error {
	reqs, err := requestsIn(tx, addr)
	if err != nil {
		return err
	}
	if len(reqs) == 0 {
		addrs, err := requestersIn(tx)
		if err != nil {
			return err
		}
		if err := putRequestersIn(tx, append(addrs, addr)); err != nil {
			return err
		}
	}
	return putRequestsIn(tx, addr, append(reqs, req))
}

// dequeueRequestIn removes the request matching (sig, num) from addr's
// list by swapping in the last element. When the list drains, addr
// leaves the requester set the same way. Returns ErrRequestNotFound if
// no entry matches.
func dequeueRequestIn(tx storage.Txn, addr types.Address, sig types.Signature, num uint64) error {
	reqs, err := requestsIn(tx, addr)
	if err != nil {
		return err
	}
	found := -1
	for i, req := range reqs {
		if req.Collectible == sig && req.Num == num {
			found = i
			break
		}
	}
	if found < 0 {
		return ErrRequestNotFound
	}
	reqs[found] = reqs[len(reqs)-1]
	reqs = reqs[:len(reqs)-1]
	if err := putRequestsIn(tx, addr, reqs); err != nil {
		return err
	}

	if len(reqs) == 0 {
		addrs, err := requestersIn(tx)
		if err != nil {
			return err
		}
		for i, a := range addrs {
			if a == addr {
				addrs[i] = addrs[len(addrs)-1]
				addrs = addrs[:len(addrs)-1]
				break
			}
		}
		return putRequestersIn(tx, addrs)
	}
	return nil
}
