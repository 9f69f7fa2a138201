package storage

import (
	"sort"
	"strings"
)

// MemoryDB implements DB using an in-memory map. Used in tests.
type MemoryDB struct {
	data map[string][]byte
}

// NewMemory creates a new in-memory database.
func NewMemory() *MemoryDB {
	return &MemoryDB{
		data: make(map[string][]byte),
	}
}

// memTxn stages writes on top of the base map. Committed on success,
// discarded if the transaction function returns an error.
type memTxn struct {
	base    map[string][]byte
	writes  map[string][]byte
	deletes map[string]struct{}
}

func newMemTxn(base map[string][]byte) *memTxn {
	return &memTxn{
		base:    base,
		writes:  make(map[string][]byte),
		deletes: make(map[string]struct{}),
	}
}

// Get retrieves a value by key, seeing staged writes first.
func (t *memTxn) Get(key []byte) ([]byte, error) {
	k := string(key)
	if _, ok := t.deletes[k]; ok {
		return nil, ErrNotFound
	}
	if v, ok := t.writes[k]; ok {
		return append([]byte(nil), v...), nil
	}
	v, ok := t.base[k]
	if !ok {
		return nil, ErrNotFound
	}
	return append([]byte(nil), v...), nil
}

// Put stages a key-value pair.
func (t *memTxn) Put(key, value []byte) error {
	k := string(key)
	delete(t.deletes, k)
	t.writes[k] = append([]byte(nil), value...)
	return nil
}

// Delete stages a key removal.
func (t *memTxn) Delete(key []byte) error {
	k := string(key)
	delete(t.writes, k)
	t.deletes[k] = struct{}{}
	return nil
}

// Has checks if a key exists, seeing staged writes first.
func (t *memTxn) Has(key []byte) (bool, error) {
	k := string(key)
	if _, ok := t.deletes[k]; ok {
		return false, nil
	}
	if _, ok := t.writes[k]; ok {
		return true, nil
	}
	_, ok := t.base[k]
	return ok, nil
}

// ForEach iterates over all keys with the given prefix in ascending
// key order, merging staged writes over the base map.
func (t *memTxn) ForEach(prefix []byte, fn func(key, value []byte) error) error {
	p := string(prefix)
	keys := make([]string, 0)
	seen := make(map[string]struct{})
	for k := range t.base {
		if !strings.HasPrefix(k, p) {
			continue
		}
		if _, del := t.deletes[k]; del {
			continue
		}
		keys = append(keys, k)
		seen[k] = struct{}{}
	}
	for k := range t.writes {
		if !strings.HasPrefix(k, p) {
			continue
		}
		if _, dup := seen[k]; !dup {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	for _, k := range keys {
		v, ok := t.writes[k]
		if !ok {
			v = t.base[k]
		}
		if err := fn([]byte(k), append([]byte(nil), v...)); err != nil {
			return err
		}
	}
	return nil
}

// commit applies staged writes to the base map.
func (t *memTxn) commit() {
	for k := range t.deletes {
		delete(t.base, k)
	}
	for k, v := range t.writes {
		t.base[k] = v
	}
}

// Update runs fn against a staged transaction, committing only on success.
func (m *MemoryDB) Update(fn func(Txn) error) error {
	txn := newMemTxn(m.data)
	if err := fn(txn); err != nil {
		return err
	}
	txn.commit()
	return nil
}

// View runs fn against the current state. Staged writes are discarded,
// so a View that writes has no effect.
func (m *MemoryDB) View(fn func(Txn) error) error {
	return fn(newMemTxn(m.data))
}

// Get retrieves a value by key.
func (m *MemoryDB) Get(key []byte) ([]byte, error) {
	v, ok := m.data[string(key)]
	if !ok {
		return nil, ErrNotFound
	}
	return append([]byte(nil), v...), nil
}

// Put stores a key-value pair.
func (m *MemoryDB) Put(key, value []byte) error {
	m.data[string(key)] = append([]byte(nil), value...)
	return nil
}

// Delete removes a key.
func (m *MemoryDB) Delete(key []byte) error {
	delete(m.data, string(key))
	return nil
}

// Has checks if a key exists.
func (m *MemoryDB) Has(key []byte) (bool, error) {
	_, ok := m.data[string(key)]
	return ok, nil
}

// ForEach iterates over all keys with the given prefix in ascending key order.
func (m *MemoryDB) ForEach(prefix []byte, fn func(key, value []byte) error) error {
	return newMemTxn(m.data).ForEach(prefix, fn)
}

// Close closes the database.
func (m *MemoryDB) Close() error {
	return nil
}
