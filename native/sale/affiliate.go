package sale

import (
	"fmt"
	"math/big"
	"strings"

	nativecommon "launchpad/native/common"
)

// AffiliateResolver names the referrer credited for a deposit by account and
// the reward it earns on amount. ok is false when the depositor was never
// referred.
type AffiliateResolver interface {
	AffiliateFor(account string, amount *big.Int) (referrer string, reward *big.Int, ok bool, err error)
}

// SetAffiliates enables per-sale affiliate accrual. With no resolver deposits
// credit nobody.
func (l *Ledger) SetAffiliates(resolver AffiliateResolver) {
	if l == nil {
		return
	}
	l.affiliates = resolver
}

type affiliateCredit struct {
	record *Affiliate
	reward *big.Int
}

// prepareAffiliate resolves and validates the credit for a deposit without
// writing anything.
func (l *Ledger) prepareAffiliate(saleID uint64, account string, amount *big.Int) (*affiliateCredit, error) {
	if l.affiliates == nil {
		return nil, nil
	}
	referrer, reward, ok, err := l.affiliates.AffiliateFor(account, amount)
	if err != nil {
		return nil, err
	}
	if !ok || reward == nil || reward.Sign() <= 0 {
		return nil, nil
	}
	record, _, err := l.loadAffiliate(saleID, referrer)
	if err != nil {
		return nil, err
	}
	total, ok := nativecommon.CheckedAdd(record.Amount, reward)
	if !ok {
		return nil, fmt.Errorf("%w: affiliate reward for %s", ErrOverflow, referrer)
	}
	record.Amount = total
	return &affiliateCredit{record: record, reward: new(big.Int).Set(reward)}, nil
}

func (l *Ledger) applyAffiliate(credit *affiliateCredit, depositor string, now uint64) error {
	if credit == nil {
		return nil
	}
	credit.record.UpdatedAt = now
	if err := l.registry.st.KVPut(affiliateKey(credit.record.SaleID, credit.record.Account), credit.record); err != nil {
		return err
	}
	l.registry.emit(AffiliateCredited{
		SaleID:    credit.record.SaleID,
		Referrer:  credit.record.Account,
		Depositor: depositor,
		Reward:    credit.reward,
		Accrued:   new(big.Int).Set(credit.record.Amount),
	})
	return nil
}

func (l *Ledger) loadAffiliate(saleID uint64, account string) (*Affiliate, bool, error) {
	record := new(Affiliate)
	found, err := l.registry.st.KVGet(affiliateKey(saleID, account), record)
	if err != nil {
		return nil, false, err
	}
	if !found {
		return &Affiliate{SaleID: saleID, Account: account, Amount: big.NewInt(0), Claimed: big.NewInt(0)}, false, nil
	}
	record.Amount = nativecommon.CloneAmount(record.Amount)
	record.Claimed = nativecommon.CloneAmount(record.Claimed)
	return record, true, nil
}

// AffiliateReward returns the rewards account accrued in sale saleID as a
// referrer. Accounts that never earned anything read as zero.
func (l *Ledger) AffiliateReward(saleID uint64, account string) (*Affiliate, error) {
	if err := l.ready(); err != nil {
		return nil, err
	}
	if _, err := l.registry.load(saleID); err != nil {
		return nil, err
	}
	record, _, err := l.loadAffiliate(saleID, strings.TrimSpace(account))
	return record, err
}

// ClaimAffiliateReward marks everything account accrued in sale saleID as
// claimed and returns the unclaimed part. Paying it out in the deposit token
// is left to the caller.
func (l *Ledger) ClaimAffiliateReward(saleID uint64, account string) (*big.Int, error) {
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
	record, found, err := l.loadAffiliate(saleID, account)
	if err != nil {
		return nil, err
	}
	if !found || record.Amount.Sign() == 0 {
		return nil, ErrNothingToClaim
	}
	owed := new(big.Int).Sub(record.Amount, record.Claimed)
	if owed.Sign() <= 0 {
		return nil, ErrNothingToClaim
	}
	record.Claimed = new(big.Int).Set(record.Amount)
	record.UpdatedAt = r.nowFn()
	if err := r.st.KVPut(affiliateKey(saleID, account), record); err != nil {
		return nil, err
	}
	r.emit(AffiliateRewardClaimed{
		SaleID:  saleID,
		Account: account,
		Token:   sale.DepositToken,
		Amount:  new(big.Int).Set(owed),
	})
	return owed, nil
}
