// Package storage provides database abstractions.
package storage

import "errors"

// ErrNotFound is returned when a key does not exist.
var ErrNotFound = errors.New("key not found")

// Txn is the interface for operations inside a transaction.
// Registry operations mutate several tables at once (template slot,
// name index, supply counters, balances); running them through a single
// Txn makes each public operation all-or-nothing.
type Txn interface {
	// Get retrieves a value by key. Returns ErrNotFound if absent.
	Get(key []byte) ([]byte, error)
	Put(key, value []byte) error
	Delete(key []byte) error
	Has(key []byte) (bool, error)
	// ForEach iterates over all keys with the given prefix in ascending
	// key order. The callback receives a copy of the key and value.
	// Return a non-nil error from fn to stop iteration early.
	ForEach(prefix []byte, fn func(key, value []byte) error) error
}

// DB is the interface for key-value storage. The embedded Txn methods
// auto-commit single operations; Update groups several into one atomic
// commit.
type DB interface {
	Txn
	// Update runs fn inside a read-write transaction. If fn returns an
	// error, every write performed inside it is discarded.
	Update(fn func(Txn) error) error
	// View runs fn inside a read-only transaction.
	View(fn func(Txn) error) error
	Close() error
}

// IsNotFound reports whether err means a missing key.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
