package sale

import (
	"fmt"
	"math/big"

	"github.com/holiman/uint256"

	nativecommon "launchpad/native/common"
)

// maxDecimals keeps 10^decimals * MaxAmount inside 256 bits.
const maxDecimals = 38

// allocationFor converts a deposited amount into distributed token units:
// 10^decimals * deposited / price, rounded down.
func allocationFor(deposited, price *big.Int, decimals uint8) (*big.Int, error) {
	if price == nil || price.Sign() == 0 {
		return nil, ErrNoPrice
	}
	if deposited == nil || deposited.Sign() == 0 {
		return big.NewInt(0), nil
	}
	if decimals > maxDecimals {
		return nil, fmt.Errorf("%w: decimals %d", ErrOverflow, decimals)
	}
	amount, overflow := uint256.FromBig(deposited)
	if overflow {
		return nil, ErrOverflow
	}
	divisor, overflow := uint256.FromBig(price)
	if overflow {
		return nil, ErrOverflow
	}
	scale := new(uint256.Int).Exp(uint256.NewInt(10), uint256.NewInt(uint64(decimals)))
	result, overflow := new(uint256.Int).MulDivOverflow(amount, scale, divisor)
	if overflow {
		return nil, ErrOverflow
	}
	out := result.ToBig()
	if !nativecommon.ValidAmount(out) {
		return nil, fmt.Errorf("%w: allocation %s", ErrOverflow, out)
	}
	return out, nil
}
