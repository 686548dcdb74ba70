package sale

import (
	"fmt"
	"math/big"
	"strings"

	nativecommon "launchpad/native/common"
)

// Ledger tracks cumulative deposits per (sale, account) and the affiliate
// rewards they accrue for the depositor's referrer. It shares the
// registry's store, clock, emitter and pause view, and only touches the sale
// record through the registry's deposit hook.
type Ledger struct {
	registry   *Registry
	affiliates AffiliateResolver
}

// NewLedger returns a deposit ledger bound to registry.
func NewLedger(registry *Registry) *Ledger {
	return &Ledger{registry: registry}
}

func (l *Ledger) ready() error {
	if l == nil {
		return errNilState
	}
	return l.registry.ready()
}

// Deposit adds amount to the account's cumulative deposit in sale saleID and
// returns the new cumulative. nativeAmount is the platform native value sent
// alongside the deposit. No state changes unless every check passes.
func (l *Ledger) Deposit(saleID uint64, account string, amount, nativeAmount *big.Int) (*big.Int, error) {
	if err := l.ready(); err != nil {
		return nil, err
	}
	r := l.registry
	account = strings.TrimSpace(account)
	if account == "" {
		return nil, ErrInvalidAccount
	}
	if err := nativecommon.Guard(r.pauses, moduleName); err != nil {
		return nil, err
	}
	sale, err := r.load(saleID)
	if err != nil {
		return nil, err
	}
	now := r.nowFn()
	switch phase := sale.PhaseAt(now); phase {
	case PhaseActive:
	case PhaseClosed:
		return nil, fmt.Errorf("%w: sale %d ended at %d", ErrSaleClosed, saleID, sale.EndTime)
	default:
		return nil, fmt.Errorf("%w: sale %d is %s at %d", ErrSaleNotActive, saleID, phase, now)
	}
	if nativecommon.CloneAmount(nativeAmount).Cmp(sale.MinNativeDeposit) < 0 {
		return nil, fmt.Errorf("%w: need %s", ErrInsufficientNativeDeposit, sale.MinNativeDeposit)
	}
	if amount == nil || amount.Sign() <= 0 {
		return nil, ErrInvalidAmount
	}
	record, found, err := l.loadDeposit(saleID, account)
	if err != nil {
		return nil, err
	}
	cumulative, ok := nativecommon.CheckedAdd(record.Amount, amount)
	if !ok {
		return nil, fmt.Errorf("%w: deposit for %s", ErrOverflow, account)
	}
	if cumulative.Cmp(sale.MaxBuy) > 0 {
		return nil, fmt.Errorf("%w: %s > %s", ErrExceedsMaxBuy, cumulative, sale.MaxBuy)
	}
	if record.Amount.Sign() == 0 && cumulative.Cmp(sale.MinBuy) < 0 {
		return nil, fmt.Errorf("%w: %s < %s", ErrBelowMinBuy, cumulative, sale.MinBuy)
	}
	if limit := sale.LimitPerTransaction; limit != nil && limit.Sign() > 0 && amount.Cmp(limit) > 0 {
		return nil, fmt.Errorf("%w: %s > %s", ErrExceedsTxLimit, amount, limit)
	}
	if limit := sale.MaxAmount; limit != nil && limit.Sign() > 0 {
		total, ok := nativecommon.CheckedAdd(sale.TotalDeposited, amount)
		if !ok {
			return nil, fmt.Errorf("%w: sale %d total", ErrOverflow, saleID)
		}
		if total.Cmp(limit) > 0 {
			return nil, fmt.Errorf("%w: %s > %s", ErrSaleCapReached, total, limit)
		}
	}

	credit, err := l.prepareAffiliate(saleID, account, amount)
	if err != nil {
		return nil, err
	}

	newAccount := !found
	if err := r.recordDeposit(sale, amount, newAccount); err != nil {
		return nil, err
	}
	record.Amount = cumulative
	record.UpdatedAt = now
	if err := r.st.KVPut(depositKey(saleID, account), record); err != nil {
		return nil, err
	}
	if newAccount {
		if err := r.st.KVAppend(accountIndexKey(saleID), []byte(account)); err != nil {
			return nil, err
		}
	}
	r.emit(Deposited{
		SaleID:         saleID,
		Account:        account,
		Amount:         new(big.Int).Set(amount),
		Cumulative:     new(big.Int).Set(cumulative),
		TotalDeposited: new(big.Int).Set(sale.TotalDeposited),
	})
	if err := l.applyAffiliate(credit, account, now); err != nil {
		return nil, err
	}
	return cumulative, nil
}

func (l *Ledger) loadDeposit(saleID uint64, account string) (*Deposit, bool, error) {
	record := new(Deposit)
	found, err := l.registry.st.KVGet(depositKey(saleID, account), record)
	if err != nil {
		return nil, false, err
	}
	if !found {
		return &Deposit{SaleID: saleID, Account: account, Amount: big.NewInt(0), Claimed: big.NewInt(0)}, false, nil
	}
	record.Amount = nativecommon.CloneAmount(record.Amount)
	record.Claimed = nativecommon.CloneAmount(record.Claimed)
	return record, true, nil
}

// GetDeposit returns the cumulative deposit of account in sale saleID, or zero
// when the account never deposited.
func (l *Ledger) GetDeposit(saleID uint64, account string) (*big.Int, error) {
	if err := l.ready(); err != nil {
		return nil, err
	}
	record, _, err := l.loadDeposit(saleID, strings.TrimSpace(account))
	if err != nil {
		return nil, err
	}
	return record.Amount, nil
}

// ListDeposits returns deposit records of a sale in the order accounts first
// deposited.
func (l *Ledger) ListDeposits(saleID uint64, page nativecommon.Page) ([]*Deposit, error) {
	if err := l.ready(); err != nil {
		return nil, err
	}
	if _, err := l.registry.load(saleID); err != nil {
		return nil, err
	}
	page = page.Normalized()
	accounts, err := l.registry.st.KVListRange(accountIndexKey(saleID), page.From, page.Limit)
	if err != nil {
		return nil, err
	}
	out := make([]*Deposit, 0, len(accounts))
	for _, raw := range accounts {
		record, _, err := l.loadDeposit(saleID, string(raw))
		if err != nil {
			return nil, err
		}
		out = append(out, record)
	}
	return out, nil
}

// Allocation converts the account's deposit into distributed token units at
// the sale price.
func (l *Ledger) Allocation(saleID uint64, account string) (*big.Int, error) {
	if err := l.ready(); err != nil {
		return nil, err
	}
	sale, err := l.registry.load(saleID)
	if err != nil {
		return nil, err
	}
	if sale.DistributeToken == "" {
		return nil, ErrDistributionNotSet
	}
	record, _, err := l.loadDeposit(saleID, strings.TrimSpace(account))
	if err != nil {
		return nil, err
	}
	return allocationFor(record.Amount, sale.Price, sale.DistributeDecimals)
}

// ClaimPurchase marks the account's allocation as claimed and returns it.
// Moving the distributed tokens is left to the caller.
func (l *Ledger) ClaimPurchase(saleID uint64, account string) (*big.Int, error) {
	if err := l.ready(); err != nil {
		return nil, err
	}
	r := l.registry
	account = strings.TrimSpace(account)
	if account == "" {
		return nil, ErrInvalidAccount
	}
	if err := nativecommon.Guard(r.pauses, moduleName); err != nil {
		return nil, err
	}
	sale, err := r.load(saleID)
	if err != nil {
		return nil, err
	}
	if !sale.ClaimAvailable {
		return nil, ErrClaimNotAvailable
	}
	if sale.Price == nil || sale.Price.Sign() == 0 {
		return nil, ErrNoPrice
	}
	record, found, err := l.loadDeposit(saleID, account)
	if err != nil {
		return nil, err
	}
	if !found || record.Amount.Sign() == 0 {
		return nil, ErrNothingToClaim
	}
	if record.Claimed.Sign() > 0 {
		return nil, ErrAlreadyClaimed
	}
	allocation, err := allocationFor(record.Amount, sale.Price, sale.DistributeDecimals)
	if err != nil {
		return nil, err
	}
	if allocation.Sign() == 0 {
		return nil, ErrNothingToClaim
	}
	record.Claimed = allocation
	record.UpdatedAt = r.nowFn()
	if err := r.st.KVPut(depositKey(saleID, account), record); err != nil {
		return nil, err
	}
	r.emit(PurchaseClaimed{
		SaleID:  saleID,
		Account: account,
		Token:   sale.DistributeToken,
		Amount:  new(big.Int).Set(allocation),
	})
	return new(big.Int).Set(allocation), nil
}
