package common

// KVStore is the slice of core/state.Manager the native engines depend on.
type KVStore interface {
	KVGet(key []byte, out interface{}) (bool, error)
	KVPut(key []byte, value interface{}) error
	KVAppend(key []byte, value []byte) error
	KVListLen(key []byte) (uint64, error)
	KVListRange(key []byte, from, limit uint64) ([][]byte, error)
}

const (
	DefaultPageLimit = 100
	MaxPageLimit     = 1000
)

// Page selects a window of an insertion-ordered listing.
type Page struct {
	From  uint64
	Limit uint64
}

// Normalized applies the default limit and clamps it to MaxPageLimit.
func (p Page) Normalized() Page {
	if p.Limit == 0 {
		p.Limit = DefaultPageLimit
	}
	if p.Limit > MaxPageLimit {
		p.Limit = MaxPageLimit
	}
	return p
}
