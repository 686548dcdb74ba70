package referral

import "errors"

var (
	ErrInvalidAccount         = errors.New("referral: invalid account")
	ErrAccountAlreadyReferred = errors.New("referral: account already referred")
	ErrSelfReferralRejected   = errors.New("referral: self referral rejected")
)
