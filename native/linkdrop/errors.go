package linkdrop

import "errors"

var (
	ErrInvalidToken          = errors.New("linkdrop: invalid token")
	ErrInvalidAccount        = errors.New("linkdrop: invalid account")
	ErrInvalidAmount         = errors.New("linkdrop: invalid funded amount")
	ErrLinkdropNotFound      = errors.New("linkdrop: not found")
	ErrTokenAlreadyIssued    = errors.New("linkdrop: token already issued")
	ErrLinkdropAlreadyUsed   = errors.New("linkdrop: already used")
	ErrAccountCreationFailed = errors.New("linkdrop: account creation failed")
)
