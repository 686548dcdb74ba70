package sale

import (
	"errors"
	"fmt"
)

var (
	ErrUnauthorized              = errors.New("sale: unauthorized")
	ErrNotFound                  = errors.New("sale: not found")
	ErrInvalidTerms              = errors.New("sale: invalid terms")
	ErrInvalidAccount            = errors.New("sale: invalid account")
	ErrInvalidAmount             = errors.New("sale: amount must be positive")
	ErrSaleNotActive             = errors.New("sale: not active")
	ErrInsufficientNativeDeposit = errors.New("sale: insufficient native deposit")
	ErrOverflow                  = errors.New("sale: arithmetic overflow")
	ErrBelowMinBuy               = errors.New("sale: below min buy")
	ErrExceedsMaxBuy             = errors.New("sale: exceeds max buy")
	ErrExceedsTxLimit            = errors.New("sale: exceeds per transaction limit")
	ErrSaleCapReached            = errors.New("sale: sale cap reached")
	ErrAlreadySet                = errors.New("sale: distribution already set")
	ErrDistributionNotSet        = errors.New("sale: distribution not configured")
	ErrClaimNotAvailable         = errors.New("sale: claim not available")
	ErrNoPrice                   = errors.New("sale: no sale price")
	ErrNothingToClaim            = errors.New("sale: nothing to claim")
	ErrAlreadyClaimed            = errors.New("sale: already claimed")
)

// ErrSaleClosed rejects deposits once the sale window has ended. It matches
// ErrSaleNotActive but, unlike a pending sale, never clears.
var ErrSaleClosed = fmt.Errorf("%w: sale closed", ErrSaleNotActive)
