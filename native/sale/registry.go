package sale

import (
	"errors"
	"fmt"
	"math/big"
	"strings"

	"launchpad/core/events"
	nativecommon "launchpad/native/common"
)

const moduleName = "sale"

var errNilState = errors.New("sale: state not configured")

// Registry manages the sale definitions. Sales are append-only: terms never
// change after creation and records are never removed.
type Registry struct {
	owner   string
	st      nativecommon.KVStore
	emitter events.Emitter
	pauses  nativecommon.PauseView
	nowFn   func() uint64
}

// NewRegistry creates a registry owned by owner and backed by st.
func NewRegistry(owner string, st nativecommon.KVStore) *Registry {
	return &Registry{
		owner:   strings.TrimSpace(owner),
		st:      st,
		emitter: events.NoopEmitter{},
		nowFn:   func() uint64 { return 0 },
	}
}

// SetEmitter configures the event emitter used to broadcast registry updates.
// Passing nil resets the emitter to a no-op implementation.
func (r *Registry) SetEmitter(emitter events.Emitter) {
	if r == nil {
		return
	}
	if emitter == nil {
		r.emitter = events.NoopEmitter{}
		return
	}
	r.emitter = emitter
}

func (r *Registry) SetPauses(p nativecommon.PauseView) {
	if r == nil {
		return
	}
	r.pauses = p
}

// SetNowFunc overrides the logical clock stamped on new records.
func (r *Registry) SetNowFunc(fn func() uint64) {
	if r == nil || fn == nil {
		return
	}
	r.nowFn = fn
}

// Owner returns the account allowed to create and administer sales.
func (r *Registry) Owner() string {
	if r == nil {
		return ""
	}
	return r.owner
}

func (r *Registry) ready() error {
	if r == nil || r.st == nil {
		return errNilState
	}
	return nil
}

func (r *Registry) emit(e events.Event) {
	if r.emitter != nil {
		r.emitter.Emit(e)
	}
}

// CreateSale validates terms and stores a new sale under the next sequential
// identifier.
func (r *Registry) CreateSale(caller string, terms Terms) (uint64, error) {
	if err := r.ready(); err != nil {
		return 0, err
	}
	if err := nativecommon.Guard(r.pauses, moduleName); err != nil {
		return 0, err
	}
	if strings.TrimSpace(caller) == "" || caller != r.owner {
		return 0, ErrUnauthorized
	}
	sanitized, err := sanitizeTerms(terms)
	if err != nil {
		return 0, err
	}
	id, err := r.NumSales()
	if err != nil {
		return 0, err
	}
	sale := &Sale{
		ID:                  id,
		Metadata:            sanitized.Metadata,
		DepositToken:        sanitized.DepositToken,
		MinNativeDeposit:    sanitized.MinNativeDeposit,
		MinBuy:              sanitized.MinBuy,
		MaxBuy:              sanitized.MaxBuy,
		MaxAmount:           sanitized.MaxAmount,
		LimitPerTransaction: sanitized.LimitPerTransaction,
		Price:               sanitized.Price,
		StartTime:           sanitized.StartTime,
		EndTime:             sanitized.EndTime,
		TotalDeposited:      big.NewInt(0),
		CreatedAt:           r.nowFn(),
	}
	if err := r.st.KVPut(saleKey(id), sale); err != nil {
		return 0, err
	}
	if err := r.st.KVPut(saleCountKey, id+1); err != nil {
		return 0, err
	}
	r.emit(SaleCreated{
		ID:           id,
		Owner:        r.owner,
		DepositToken: sale.DepositToken,
		StartTime:    sale.StartTime,
		EndTime:      sale.EndTime,
	})
	return id, nil
}

func sanitizeTerms(t Terms) (Terms, error) {
	out := t
	out.DepositToken = strings.TrimSpace(t.DepositToken)
	if out.DepositToken == "" {
		return Terms{}, fmt.Errorf("%w: deposit token required", ErrInvalidTerms)
	}
	if t.StartTime >= t.EndTime {
		return Terms{}, fmt.Errorf("%w: start %d must precede end %d", ErrInvalidTerms, t.StartTime, t.EndTime)
	}
	amounts := []struct {
		name  string
		value *big.Int
	}{
		{"min native deposit", t.MinNativeDeposit},
		{"min buy", t.MinBuy},
		{"max buy", t.MaxBuy},
		{"max amount", t.MaxAmount},
		{"limit per transaction", t.LimitPerTransaction},
		{"price", t.Price},
	}
	for _, a := range amounts {
		if !nativecommon.ValidAmount(a.value) {
			return Terms{}, fmt.Errorf("%w: %s out of range", ErrInvalidTerms, a.name)
		}
	}
	out.MinNativeDeposit = nativecommon.CloneAmount(t.MinNativeDeposit)
	out.MinBuy = nativecommon.CloneAmount(t.MinBuy)
	out.MaxBuy = nativecommon.CloneAmount(t.MaxBuy)
	out.MaxAmount = nativecommon.CloneAmount(t.MaxAmount)
	out.LimitPerTransaction = nativecommon.CloneAmount(t.LimitPerTransaction)
	out.Price = nativecommon.CloneAmount(t.Price)
	if out.MinBuy.Cmp(out.MaxBuy) > 0 {
		return Terms{}, fmt.Errorf("%w: min buy %s exceeds max buy %s", ErrInvalidTerms, out.MinBuy, out.MaxBuy)
	}
	return out, nil
}

// NumSales returns the number of sales ever created, which is also the next
// identifier to be assigned.
func (r *Registry) NumSales() (uint64, error) {
	if err := r.ready(); err != nil {
		return 0, err
	}
	var count uint64
	if _, err := r.st.KVGet(saleCountKey, &count); err != nil {
		return 0, err
	}
	return count, nil
}

// GetSale returns a copy of the stored sale.
func (r *Registry) GetSale(id uint64) (*Sale, error) {
	if err := r.ready(); err != nil {
		return nil, err
	}
	return r.load(id)
}

func (r *Registry) load(id uint64) (*Sale, error) {
	sale := new(Sale)
	ok, err := r.st.KVGet(saleKey(id), sale)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: sale %d", ErrNotFound, id)
	}
	return sale, nil
}

// ListSales returns sales in creation order.
func (r *Registry) ListSales(page nativecommon.Page) ([]*Sale, error) {
	if err := r.ready(); err != nil {
		return nil, err
	}
	page = page.Normalized()
	count, err := r.NumSales()
	if err != nil {
		return nil, err
	}
	if page.From >= count {
		return []*Sale{}, nil
	}
	end := count
	if page.Limit < count-page.From {
		end = page.From + page.Limit
	}
	out := make([]*Sale, 0, end-page.From)
	for id := page.From; id < end; id++ {
		sale, err := r.load(id)
		if err != nil {
			return nil, err
		}
		out = append(out, sale)
	}
	return out, nil
}

// PhaseOf derives the phase of sale id at now.
func (r *Registry) PhaseOf(id uint64, now uint64) (Phase, error) {
	sale, err := r.GetSale(id)
	if err != nil {
		return PhasePending, err
	}
	return sale.PhaseAt(now), nil
}

// ConfigureDistribution records the token buyers receive and its decimals.
// It may be set only once per sale.
func (r *Registry) ConfigureDistribution(caller string, id uint64, token string, decimals uint8) error {
	if err := r.ready(); err != nil {
		return err
	}
	if err := nativecommon.Guard(r.pauses, moduleName); err != nil {
		return err
	}
	if caller != r.owner {
		return ErrUnauthorized
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return fmt.Errorf("%w: distribution token required", ErrInvalidTerms)
	}
	if decimals > maxDecimals {
		return fmt.Errorf("%w: decimals %d exceed %d", ErrInvalidTerms, decimals, maxDecimals)
	}
	sale, err := r.load(id)
	if err != nil {
		return err
	}
	if sale.DistributeToken != "" {
		return ErrAlreadySet
	}
	sale.DistributeToken = token
	sale.DistributeDecimals = decimals
	if err := r.st.KVPut(saleKey(id), sale); err != nil {
		return err
	}
	r.emit(DistributionConfigured{SaleID: id, Token: token, Decimals: decimals})
	return nil
}

// SetClaimAvailable opens or closes claiming for a sale whose distribution is
// configured.
func (r *Registry) SetClaimAvailable(caller string, id uint64, available bool) error {
	if err := r.ready(); err != nil {
		return err
	}
	if err := nativecommon.Guard(r.pauses, moduleName); err != nil {
		return err
	}
	if caller != r.owner {
		return ErrUnauthorized
	}
	sale, err := r.load(id)
	if err != nil {
		return err
	}
	if sale.DistributeToken == "" {
		return ErrDistributionNotSet
	}
	if sale.ClaimAvailable == available {
		return nil
	}
	sale.ClaimAvailable = available
	if err := r.st.KVPut(saleKey(id), sale); err != nil {
		return err
	}
	r.emit(ClaimAvailability{SaleID: id, Available: available})
	return nil
}

// recordDeposit adds amount to the sale total. Only the ledger calls it, after
// every bound on the deposit has been checked.
func (r *Registry) recordDeposit(sale *Sale, amount *big.Int, newAccount bool) error {
	total, ok := nativecommon.CheckedAdd(sale.TotalDeposited, amount)
	if !ok {
		return fmt.Errorf("%w: sale %d total", ErrOverflow, sale.ID)
	}
	sale.TotalDeposited = total
	if newAccount {
		sale.NumAccounts++
	}
	return r.st.KVPut(saleKey(sale.ID), sale)
}
