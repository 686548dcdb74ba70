package fees

import (
	"errors"
	"math/big"
	"testing"
)

type staticCounts map[string]uint64

func (s staticCounts) ReferralCount(referrer string) (uint64, error) { return s[referrer], nil }

func TestTierFeeScenario(t *testing.T) {
	counts := staticCounts{"a.near": 1}
	engine, err := NewEngine(Schedule{Tiers: []uint64{10, 20, 30}}, counts)
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	fee, err := engine.TierFee("a.near")
	if err != nil || fee != 10 {
		t.Fatalf("expected 10, got %d (%v)", fee, err)
	}
	counts["a.near"] = 2
	if fee, _ := engine.TierFee("a.near"); fee != 20 {
		t.Fatalf("expected 20, got %d", fee)
	}
	counts["a.near"] = 50
	if fee, _ := engine.TierFee("a.near"); fee != 30 {
		t.Fatalf("expected top tier 30, got %d", fee)
	}
	if fee, _ := engine.TierFee("nobody.near"); fee != 0 {
		t.Fatalf("expected default 0, got %d", fee)
	}
}

func TestTierFeeMonotonic(t *testing.T) {
	schedules := []Schedule{
		{Tiers: []uint64{10, 20, 30}},
		{Tiers: []uint64{5, 5, 5, 40}, Default: 1},
		{Default: 3},
		{Tiers: []uint64{100}},
	}
	for _, schedule := range schedules {
		if err := schedule.Validate(); err != nil {
			t.Fatalf("schedule %+v: %v", schedule, err)
		}
		prev := schedule.FeeFor(0)
		for count := uint64(1); count < 20; count++ {
			fee := schedule.FeeFor(count)
			if fee < prev {
				t.Fatalf("schedule %+v decreased at count %d: %d < %d", schedule, count, fee, prev)
			}
			prev = fee
		}
	}
}

func TestScheduleValidate(t *testing.T) {
	bad := []Schedule{
		{Tiers: []uint64{20, 10}},
		{Tiers: []uint64{101}},
		{Tiers: []uint64{5}, Default: 10},
		{Default: 200},
	}
	for _, schedule := range bad {
		if _, err := NewEngine(schedule, staticCounts{}); !errors.Is(err, ErrInvalidSchedule) {
			t.Fatalf("schedule %+v: expected ErrInvalidSchedule, got %v", schedule, err)
		}
	}
}

func TestReward(t *testing.T) {
	engine, err := NewEngine(Schedule{Tiers: []uint64{10, 20, 30}}, staticCounts{"a.near": 2})
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	reward, fee, err := engine.Reward("a.near", big.NewInt(1_005))
	if err != nil {
		t.Fatalf("reward: %v", err)
	}
	if fee != 20 || reward.Cmp(big.NewInt(201)) != 0 {
		t.Fatalf("expected 201 at 20%%, got %s at %d%%", reward, fee)
	}
	if _, _, err := engine.Reward("a.near", big.NewInt(-1)); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount, got %v", err)
	}
}

func TestScheduleCloneIsolated(t *testing.T) {
	tiers := []uint64{10, 20}
	engine, err := NewEngine(Schedule{Tiers: tiers}, staticCounts{})
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	tiers[0] = 99
	if engine.Schedule().Tiers[0] != 10 {
		t.Fatalf("engine schedule aliased caller slice")
	}
}
