package sale

import (
	"math/big"
	"strconv"
)

const (
	EventTypeSaleCreated            = "sale.created"
	EventTypeDeposited              = "sale.deposited"
	EventTypeDistributionConfigured = "sale.distribution_configured"
	EventTypeClaimAvailability      = "sale.claim_availability"
	EventTypePurchaseClaimed        = "sale.purchase_claimed"
	EventTypeAffiliateCredited      = "sale.affiliate_credited"
	EventTypeAffiliateClaimed       = "sale.affiliate_claimed"
)

type SaleCreated struct {
	ID           uint64
	Owner        string
	DepositToken string
	StartTime    uint64
	EndTime      uint64
}

func (SaleCreated) EventType() string { return EventTypeSaleCreated }

func (e SaleCreated) Attributes() map[string]string {
	return map[string]string{
		"saleId":       formatID(e.ID),
		"owner":        e.Owner,
		"depositToken": e.DepositToken,
		"startTime":    formatID(e.StartTime),
		"endTime":      formatID(e.EndTime),
	}
}

type Deposited struct {
	SaleID         uint64
	Account        string
	Amount         *big.Int
	Cumulative     *big.Int
	TotalDeposited *big.Int
}

func (Deposited) EventType() string { return EventTypeDeposited }

func (e Deposited) Attributes() map[string]string {
	return map[string]string{
		"saleId":         formatID(e.SaleID),
		"account":        e.Account,
		"amount":         formatAmount(e.Amount),
		"cumulative":     formatAmount(e.Cumulative),
		"totalDeposited": formatAmount(e.TotalDeposited),
	}
}

type DistributionConfigured struct {
	SaleID   uint64
	Token    string
	Decimals uint8
}

func (DistributionConfigured) EventType() string { return EventTypeDistributionConfigured }

func (e DistributionConfigured) Attributes() map[string]string {
	return map[string]string{
		"saleId":   formatID(e.SaleID),
		"token":    e.Token,
		"decimals": strconv.FormatUint(uint64(e.Decimals), 10),
	}
}

type ClaimAvailability struct {
	SaleID    uint64
	Available bool
}

func (ClaimAvailability) EventType() string { return EventTypeClaimAvailability }

func (e ClaimAvailability) Attributes() map[string]string {
	return map[string]string{
		"saleId":    formatID(e.SaleID),
		"available": strconv.FormatBool(e.Available),
	}
}

type PurchaseClaimed struct {
	SaleID  uint64
	Account string
	Token   string
	Amount  *big.Int
}

func (PurchaseClaimed) EventType() string { return EventTypePurchaseClaimed }

func (e PurchaseClaimed) Attributes() map[string]string {
	return map[string]string{
		"saleId":  formatID(e.SaleID),
		"account": e.Account,
		"token":   e.Token,
		"amount":  formatAmount(e.Amount),
	}
}

type AffiliateCredited struct {
	SaleID    uint64
	Referrer  string
	Depositor string
	Reward    *big.Int
	Accrued   *big.Int
}

func (AffiliateCredited) EventType() string { return EventTypeAffiliateCredited }

func (e AffiliateCredited) Attributes() map[string]string {
	return map[string]string{
		"saleId":    formatID(e.SaleID),
		"referrer":  e.Referrer,
		"depositor": e.Depositor,
		"reward":    formatAmount(e.Reward),
		"accrued":   formatAmount(e.Accrued),
	}
}

type AffiliateRewardClaimed struct {
	SaleID  uint64
	Account string
	Token   string
	Amount  *big.Int
}

func (AffiliateRewardClaimed) EventType() string { return EventTypeAffiliateClaimed }

func (e AffiliateRewardClaimed) Attributes() map[string]string {
	return map[string]string{
		"saleId":  formatID(e.SaleID),
		"account": e.Account,
		"token":   e.Token,
		"amount":  formatAmount(e.Amount),
	}
}

func formatID(v uint64) string { return strconv.FormatUint(v, 10) }

func formatAmount(v *big.Int) string {
	if v == nil {
		return "0"
	}
	return v.String()
}
