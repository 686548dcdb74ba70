package core

import (
	"errors"

	"launchpad/core/state"
	nativecommon "launchpad/native/common"
	"launchpad/native/fees"
	"launchpad/native/linkdrop"
	"launchpad/native/referral"
	"launchpad/native/sale"
)

var (
	ErrJoinFeeMismatch = errors.New("core: attached deposit must equal the join fee")
	ErrInvalidParams   = errors.New("core: invalid params")
	ErrParamsMismatch  = errors.New("core: stored params differ from configuration")
)

// Stable error kinds. They appear in RPC responses, metric labels and logs,
// so they must never be renamed.
const (
	KindOK                        = "ok"
	KindUnauthorized              = "Unauthorized"
	KindNotFound                  = "NotFound"
	KindLinkdropNotFound          = "LinkdropNotFound"
	KindInvalidTerms              = "InvalidTerms"
	KindInvalidArgument           = "InvalidArgument"
	KindSaleNotActive             = "SaleNotActive"
	KindBelowMinBuy               = "BelowMinBuy"
	KindExceedsMaxBuy             = "ExceedsMaxBuy"
	KindExceedsTxLimit            = "ExceedsTxLimit"
	KindSaleCapReached            = "SaleCapReached"
	KindInsufficientNativeDeposit = "InsufficientNativeDeposit"
	KindOverflow                  = "Overflow"
	KindTokenAlreadyIssued        = "TokenAlreadyIssued"
	KindLinkdropAlreadyUsed       = "LinkdropAlreadyUsed"
	KindAccountAlreadyReferred    = "AccountAlreadyReferred"
	KindSelfReferralRejected      = "SelfReferralRejected"
	KindAccountCreationFailed     = "AccountCreationFailed"
	KindJoinFeeMismatch           = "JoinFeeMismatch"
	KindAlreadySet                = "AlreadySet"
	KindDistributionNotSet        = "DistributionNotSet"
	KindClaimNotAvailable         = "ClaimNotAvailable"
	KindNoPrice                   = "NoPrice"
	KindNothingToClaim            = "NothingToClaim"
	KindAlreadyClaimed            = "AlreadyClaimed"
	KindModulePaused              = "ModulePaused"
	KindBusy                      = "Busy"
	KindInternal                  = "Internal"
)

var kindTable = []struct {
	err  error
	kind string
}{
	{sale.ErrUnauthorized, KindUnauthorized},
	{sale.ErrNotFound, KindNotFound},
	{linkdrop.ErrLinkdropNotFound, KindLinkdropNotFound},
	{sale.ErrInvalidTerms, KindInvalidTerms},
	{sale.ErrInvalidAccount, KindInvalidArgument},
	{sale.ErrInvalidAmount, KindInvalidArgument},
	{linkdrop.ErrInvalidAccount, KindInvalidArgument},
	{linkdrop.ErrInvalidToken, KindInvalidArgument},
	{linkdrop.ErrInvalidAmount, KindInvalidArgument},
	{referral.ErrInvalidAccount, KindInvalidArgument},
	{fees.ErrInvalidAmount, KindInvalidArgument},
	{sale.ErrSaleNotActive, KindSaleNotActive},
	{sale.ErrBelowMinBuy, KindBelowMinBuy},
	{sale.ErrExceedsMaxBuy, KindExceedsMaxBuy},
	{sale.ErrExceedsTxLimit, KindExceedsTxLimit},
	{sale.ErrSaleCapReached, KindSaleCapReached},
	{sale.ErrInsufficientNativeDeposit, KindInsufficientNativeDeposit},
	{sale.ErrOverflow, KindOverflow},
	{linkdrop.ErrTokenAlreadyIssued, KindTokenAlreadyIssued},
	{linkdrop.ErrLinkdropAlreadyUsed, KindLinkdropAlreadyUsed},
	{referral.ErrAccountAlreadyReferred, KindAccountAlreadyReferred},
	{referral.ErrSelfReferralRejected, KindSelfReferralRejected},
	{linkdrop.ErrAccountCreationFailed, KindAccountCreationFailed},
	{ErrJoinFeeMismatch, KindJoinFeeMismatch},
	{sale.ErrAlreadySet, KindAlreadySet},
	{sale.ErrDistributionNotSet, KindDistributionNotSet},
	{sale.ErrClaimNotAvailable, KindClaimNotAvailable},
	{sale.ErrNoPrice, KindNoPrice},
	{sale.ErrNothingToClaim, KindNothingToClaim},
	{sale.ErrAlreadyClaimed, KindAlreadyClaimed},
	{nativecommon.ErrModulePaused, KindModulePaused},
	{state.ErrTxActive, KindBusy},
}

// Kind maps err onto its stable kind name. A nil error is KindOK and any
// unrecognised error is KindInternal.
func Kind(err error) string {
	if err == nil {
		return KindOK
	}
	for _, entry := range kindTable {
		if errors.Is(err, entry.err) {
			return entry.kind
		}
	}
	return KindInternal
}

// Retryable reports whether the same call may succeed later without changing
// its inputs.
func Retryable(err error) bool {
	if errors.Is(err, sale.ErrSaleClosed) {
		return false
	}
	switch Kind(err) {
	case KindSaleNotActive, KindModulePaused, KindClaimNotAvailable, KindDistributionNotSet, KindAccountCreationFailed, KindBusy:
		return true
	default:
		return false
	}
}
