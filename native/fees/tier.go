package fees

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/holiman/uint256"
)

// MaxPercent is the largest percentage a tier may carry.
const MaxPercent = 100

var (
	ErrInvalidSchedule = errors.New("fees: invalid schedule")
	ErrInvalidAmount   = errors.New("fees: invalid amount")
	errNilCounts       = errors.New("fees: referral counts not configured")
)

// CountReader exposes the number of accounts a referrer brought in.
type CountReader interface {
	ReferralCount(referrer string) (uint64, error)
}

// Schedule is the ascending referral fee ladder. Tier i unlocks once a
// referrer has at least i+1 referrals; Default applies below the first tier.
type Schedule struct {
	Tiers   []uint64
	Default uint64
}

// Validate checks that tiers never decrease, never drop below the default and
// stay within MaxPercent.
func (s Schedule) Validate() error {
	if s.Default > MaxPercent {
		return fmt.Errorf("%w: default %d exceeds %d", ErrInvalidSchedule, s.Default, MaxPercent)
	}
	prev := s.Default
	for i, tier := range s.Tiers {
		if tier > MaxPercent {
			return fmt.Errorf("%w: tier %d value %d exceeds %d", ErrInvalidSchedule, i, tier, MaxPercent)
		}
		if tier < prev {
			return fmt.Errorf("%w: tier %d value %d below previous %d", ErrInvalidSchedule, i, tier, prev)
		}
		prev = tier
	}
	return nil
}

// FeeFor returns the percentage unlocked by count referrals.
func (s Schedule) FeeFor(count uint64) uint64 {
	if count == 0 || len(s.Tiers) == 0 {
		return s.Default
	}
	idx := count - 1
	if idx >= uint64(len(s.Tiers)) {
		idx = uint64(len(s.Tiers)) - 1
	}
	return s.Tiers[idx]
}

// Clone copies the tier slice.
func (s Schedule) Clone() Schedule {
	out := Schedule{Default: s.Default}
	if len(s.Tiers) > 0 {
		out.Tiers = append([]uint64(nil), s.Tiers...)
	}
	return out
}

// Engine evaluates the schedule against live referral counts. It never
// writes state.
type Engine struct {
	schedule Schedule
	counts   CountReader
}

func NewEngine(schedule Schedule, counts CountReader) (*Engine, error) {
	if err := schedule.Validate(); err != nil {
		return nil, err
	}
	return &Engine{schedule: schedule.Clone(), counts: counts}, nil
}

// Schedule returns a copy of the configured ladder.
func (e *Engine) Schedule() Schedule {
	if e == nil {
		return Schedule{}
	}
	return e.schedule.Clone()
}

// TierFee returns the fee percentage currently earned by referrer.
func (e *Engine) TierFee(referrer string) (uint64, error) {
	if e == nil || e.counts == nil {
		return 0, errNilCounts
	}
	count, err := e.counts.ReferralCount(referrer)
	if err != nil {
		return 0, err
	}
	return e.schedule.FeeFor(count), nil
}

// Reward quotes the referrer's share of amount at its current tier, rounded
// down.
func (e *Engine) Reward(referrer string, amount *big.Int) (*big.Int, uint64, error) {
	fee, err := e.TierFee(referrer)
	if err != nil {
		return nil, 0, err
	}
	reward, err := percentOf(amount, fee)
	if err != nil {
		return nil, 0, err
	}
	return reward, fee, nil
}

func percentOf(amount *big.Int, percent uint64) (*big.Int, error) {
	if amount == nil || amount.Sign() < 0 {
		return nil, ErrInvalidAmount
	}
	value, overflow := uint256.FromBig(amount)
	if overflow {
		return nil, fmt.Errorf("%w: %s exceeds 256 bits", ErrInvalidAmount, amount)
	}
	out, overflow := new(uint256.Int).MulDivOverflow(value, uint256.NewInt(percent), uint256.NewInt(MaxPercent))
	if overflow {
		return nil, fmt.Errorf("%w: reward overflow", ErrInvalidAmount)
	}
	return out.ToBig(), nil
}
