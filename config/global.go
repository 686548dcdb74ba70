package config

import (
	"fmt"
	"math/big"
	"strings"

	"launchpad/core"
)

// Params converts the deployment section into the immutable ledger params.
func (c *Config) Params() (core.Params, error) {
	fee, err := parseUintAmount(c.JoinFee)
	if err != nil {
		return core.Params{}, fmt.Errorf("invalid JoinFee: %w", err)
	}
	params := core.Params{
		Owner:      strings.TrimSpace(c.Owner),
		JoinFee:    fee,
		DefaultFee: c.DefaultFee,
	}
	if len(c.ReferralFees) > 0 {
		params.ReferralFees = append([]uint64(nil), c.ReferralFees...)
	}
	return params, nil
}

func parseUintAmount(raw string) (*big.Int, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return big.NewInt(0), nil
	}
	value, ok := new(big.Int).SetString(trimmed, 10)
	if !ok {
		return nil, fmt.Errorf("%q is not a base-10 integer", raw)
	}
	if value.Sign() < 0 {
		return nil, fmt.Errorf("%q must not be negative", raw)
	}
	return value, nil
}
