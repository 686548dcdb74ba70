package sale

import (
	"math/big"

	"launchpad/native/common"
)

// Phase is the temporal state of a sale. It is always derived from the sale
// window and the current time, never stored.
type Phase uint8

const (
	PhasePending Phase = iota
	PhaseActive
	PhaseClosed
)

func (p Phase) String() string {
	switch p {
	case PhasePending:
		return "pending"
	case PhaseActive:
		return "active"
	case PhaseClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Metadata describes the project on sale. The ledger never interprets it.
type Metadata struct {
	Name        string
	Symbol      string
	Description string
	LogoURL     string
	InfoURL     string
}

// Terms is the owner supplied definition of a new sale. MaxAmount and
// LimitPerTransaction are optional; nil or zero disables them.
type Terms struct {
	Metadata            Metadata
	DepositToken        string
	MinNativeDeposit    *big.Int
	MinBuy              *big.Int
	MaxBuy              *big.Int
	MaxAmount           *big.Int
	LimitPerTransaction *big.Int
	Price               *big.Int
	StartTime           uint64
	EndTime             uint64
}

// Sale is the stored sale record. Only TotalDeposited, NumAccounts and the
// distribution fields change after creation.
type Sale struct {
	ID                  uint64
	Metadata            Metadata
	DepositToken        string
	MinNativeDeposit    *big.Int
	MinBuy              *big.Int
	MaxBuy              *big.Int
	MaxAmount           *big.Int
	LimitPerTransaction *big.Int
	Price               *big.Int
	StartTime           uint64
	EndTime             uint64
	TotalDeposited      *big.Int
	NumAccounts         uint64
	DistributeToken     string
	DistributeDecimals  uint8
	ClaimAvailable      bool
	CreatedAt           uint64
}

// PhaseAt reports the phase of the sale at the supplied time.
func (s *Sale) PhaseAt(now uint64) Phase {
	switch {
	case now < s.StartTime:
		return PhasePending
	case now < s.EndTime:
		return PhaseActive
	default:
		return PhaseClosed
	}
}

// Clone returns a deep copy so callers can mutate it freely.
func (s *Sale) Clone() *Sale {
	if s == nil {
		return nil
	}
	out := *s
	out.MinNativeDeposit = common.CloneAmount(s.MinNativeDeposit)
	out.MinBuy = common.CloneAmount(s.MinBuy)
	out.MaxBuy = common.CloneAmount(s.MaxBuy)
	out.MaxAmount = common.CloneAmount(s.MaxAmount)
	out.LimitPerTransaction = common.CloneAmount(s.LimitPerTransaction)
	out.Price = common.CloneAmount(s.Price)
	out.TotalDeposited = common.CloneAmount(s.TotalDeposited)
	return &out
}

// Deposit is the cumulative contribution of one account to one sale.
type Deposit struct {
	SaleID    uint64
	Account   string
	Amount    *big.Int
	Claimed   *big.Int
	UpdatedAt uint64
}

func (d *Deposit) Clone() *Deposit {
	if d == nil {
		return nil
	}
	out := *d
	out.Amount = common.CloneAmount(d.Amount)
	out.Claimed = common.CloneAmount(d.Claimed)
	return &out
}

// Affiliate is the reward a referrer accrued from deposits made in one sale
// by the accounts it referred.
type Affiliate struct {
	SaleID    uint64
	Account   string
	Amount    *big.Int
	Claimed   *big.Int
	UpdatedAt uint64
}
