package common

import "math/big"

// MaxAmount is the largest balance the ledger tracks (2^128 - 1).
var MaxAmount = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 128), big.NewInt(1))

// CloneAmount copies v, mapping nil to zero.
func CloneAmount(v *big.Int) *big.Int {
	if v == nil {
		return big.NewInt(0)
	}
	return new(big.Int).Set(v)
}

// ValidAmount reports whether v is a non-negative value within MaxAmount.
// A nil amount counts as zero.
func ValidAmount(v *big.Int) bool {
	if v == nil {
		return true
	}
	return v.Sign() >= 0 && v.Cmp(MaxAmount) <= 0
}

// CheckedAdd returns a+b, or false when the sum leaves the tracked range.
func CheckedAdd(a, b *big.Int) (*big.Int, bool) {
	sum := new(big.Int).Add(CloneAmount(a), CloneAmount(b))
	if !ValidAmount(sum) {
		return nil, false
	}
	return sum, true
}
