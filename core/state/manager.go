package state

import (
	"encoding/binary"
	"errors"
	"fmt"

	ethcrypto "github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/rlp"

	"launchpad/storage"
)

var (
	ErrTxActive   = errors.New("state: transaction already active")
	ErrNoTx       = errors.New("state: no active transaction")
	errEmptyKey   = errors.New("kv: key must not be empty")
	listLenSuffix = []byte("#len")
)

// Manager reads and writes ledger tables on top of a key-value database.
// Writes made between Begin and Commit are staged in an overlay; Rollback
// discards them so a failed call leaves no trace.
type Manager struct {
	db      storage.Database
	overlay map[string][]byte
}

// NewManager creates a state manager operating on the provided database.
func NewManager(db storage.Database) *Manager {
	return &Manager{db: db}
}

// Begin opens a write overlay. Only one transaction may be active at a time.
func (m *Manager) Begin() error {
	if m.overlay != nil {
		return ErrTxActive
	}
	m.overlay = make(map[string][]byte)
	return nil
}

// Commit flushes the staged writes to the database in a single batch.
func (m *Manager) Commit() error {
	if m.overlay == nil {
		return ErrNoTx
	}
	staged := m.overlay
	m.overlay = nil
	if len(staged) == 0 {
		return nil
	}
	if err := m.db.Write(staged); err != nil {
		return fmt.Errorf("state: commit: %w", err)
	}
	return nil
}

// Rollback drops every write staged since Begin.
func (m *Manager) Rollback() {
	m.overlay = nil
}

// InTx reports whether a transaction is open.
func (m *Manager) InTx() bool { return m.overlay != nil }

func kvKey(key []byte) []byte {
	return ethcrypto.Keccak256(key)
}

func (m *Manager) read(hashed []byte) ([]byte, error) {
	if m.overlay != nil {
		if value, ok := m.overlay[string(hashed)]; ok {
			return value, nil
		}
	}
	data, err := m.db.Get(hashed)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, nil
	}
	return data, err
}

func (m *Manager) write(hashed, value []byte) error {
	if m.overlay != nil {
		m.overlay[string(hashed)] = value
		return nil
	}
	return m.db.Put(hashed, value)
}

// KVPut stores the provided value under the supplied key using RLP encoding.
// The key is hashed with keccak256 before it reaches the database.
func (m *Manager) KVPut(key []byte, value interface{}) error {
	if len(key) == 0 {
		return errEmptyKey
	}
	encoded, err := rlp.EncodeToBytes(value)
	if err != nil {
		return err
	}
	return m.write(kvKey(key), encoded)
}

// KVGet retrieves the value stored under the supplied key and decodes it into
// the provided destination. The boolean return value indicates whether the key
// existed in state.
func (m *Manager) KVGet(key []byte, out interface{}) (bool, error) {
	if len(key) == 0 {
		return false, errEmptyKey
	}
	data, err := m.read(kvKey(key))
	if err != nil {
		return false, err
	}
	if len(data) == 0 {
		return false, nil
	}
	if out == nil {
		return true, nil
	}
	if err := rlp.DecodeBytes(data, out); err != nil {
		return false, err
	}
	return true, nil
}

func listItemKey(key []byte, index uint64) []byte {
	buf := make([]byte, len(key)+1+8)
	copy(buf, key)
	buf[len(key)] = '#'
	binary.BigEndian.PutUint64(buf[len(key)+1:], index)
	return buf
}

func listLenKey(key []byte) []byte {
	buf := make([]byte, 0, len(key)+len(listLenSuffix))
	buf = append(buf, key...)
	return append(buf, listLenSuffix...)
}

// KVListLen returns the number of values appended under key.
func (m *Manager) KVListLen(key []byte) (uint64, error) {
	if len(key) == 0 {
		return 0, errEmptyKey
	}
	var n uint64
	if _, err := m.KVGet(listLenKey(key), &n); err != nil {
		return 0, err
	}
	return n, nil
}

// KVAppend appends value to the ordered list stored under key. Each element
// lives under its own index so appends do not rewrite the whole list.
func (m *Manager) KVAppend(key []byte, value []byte) error {
	n, err := m.KVListLen(key)
	if err != nil {
		return err
	}
	if err := m.KVPut(listItemKey(key, n), value); err != nil {
		return err
	}
	return m.KVPut(listLenKey(key), n+1)
}

// KVListRange returns up to limit elements of the list stored under key,
// starting at index from, in insertion order.
func (m *Manager) KVListRange(key []byte, from, limit uint64) ([][]byte, error) {
	n, err := m.KVListLen(key)
	if err != nil {
		return nil, err
	}
	if from >= n || limit == 0 {
		return [][]byte{}, nil
	}
	end := n
	if limit < n-from {
		end = from + limit
	}
	out := make([][]byte, 0, end-from)
	for i := from; i < end; i++ {
		var item []byte
		ok, err := m.KVGet(listItemKey(key, i), &item)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, fmt.Errorf("kv: list %q missing element %d", key, i)
		}
		out = append(out, item)
	}
	return out, nil
}
