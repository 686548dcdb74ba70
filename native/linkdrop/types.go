package linkdrop

import "math/big"

// Status is the lifecycle state of a linkdrop. The only transition is
// Issued -> Redeemed.
type Status uint8

const (
	StatusIssued Status = iota + 1
	StatusRedeemed
)

func (s Status) String() string {
	switch s {
	case StatusIssued:
		return "issued"
	case StatusRedeemed:
		return "redeemed"
	default:
		return "unknown"
	}
}

// Linkdrop is a single-use onboarding credential. The token itself is the
// storage key and is not repeated in the record.
type Linkdrop struct {
	Creator    string
	Funded     *big.Int
	Status     Status
	IssuedAt   uint64
	RedeemedBy string
	RedeemedAt uint64
}

func (l *Linkdrop) Clone() *Linkdrop {
	if l == nil {
		return nil
	}
	out := *l
	if l.Funded != nil {
		out.Funded = new(big.Int).Set(l.Funded)
	}
	return &out
}
