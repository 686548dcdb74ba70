package core

import (
	"context"
	"fmt"
	"log/slog"
	"math/big"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"launchpad/core/events"
	"launchpad/core/state"
	nativecommon "launchpad/native/common"
	"launchpad/native/fees"
	"launchpad/native/linkdrop"
	"launchpad/native/referral"
	"launchpad/native/sale"
	"launchpad/observability"
	"launchpad/observability/logging"
	telemetry "launchpad/observability/otel"
)

var paramsKey = []byte("params")

// Clock supplies the logical time of the call being executed.
type Clock func() uint64

// Params is the deployment configuration fixed at initialisation.
type Params struct {
	Owner        string
	JoinFee      *big.Int
	ReferralFees []uint64
	DefaultFee   uint64
}

// Validate checks the owner, join fee and fee ladder.
func (p Params) Validate() error {
	if strings.TrimSpace(p.Owner) == "" {
		return fmt.Errorf("%w: owner required", ErrInvalidParams)
	}
	if !nativecommon.ValidAmount(p.JoinFee) {
		return fmt.Errorf("%w: join fee out of range", ErrInvalidParams)
	}
	if err := p.schedule().Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidParams, err)
	}
	return nil
}

func (p Params) schedule() fees.Schedule {
	return fees.Schedule{Tiers: p.ReferralFees, Default: p.DefaultFee}
}

func (p Params) normalized() Params {
	out := Params{
		Owner:      strings.TrimSpace(p.Owner),
		JoinFee:    nativecommon.CloneAmount(p.JoinFee),
		DefaultFee: p.DefaultFee,
	}
	if len(p.ReferralFees) > 0 {
		out.ReferralFees = append([]uint64(nil), p.ReferralFees...)
	}
	return out
}

func (p Params) equal(other Params) bool {
	if p.Owner != other.Owner || p.DefaultFee != other.DefaultFee {
		return false
	}
	if nativecommon.CloneAmount(p.JoinFee).Cmp(nativecommon.CloneAmount(other.JoinFee)) != 0 {
		return false
	}
	if len(p.ReferralFees) != len(other.ReferralFees) {
		return false
	}
	for i := range p.ReferralFees {
		if p.ReferralFees[i] != other.ReferralFees[i] {
			return false
		}
	}
	return true
}

// Option customises an Engine.
type Option func(*Engine)

// WithClock sets the logical time source. The default clock always reads 0.
func WithClock(clock Clock) Option {
	return func(e *Engine) {
		if clock != nil {
			e.clock = clock
		}
	}
}

// WithEmitter receives every event of a committed call.
func WithEmitter(emitter events.Emitter) Option {
	return func(e *Engine) {
		if emitter != nil {
			e.emitter = emitter
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithAccountCreator sets the host primitive used when a linkdrop is
// redeemed.
func WithAccountCreator(creator linkdrop.AccountCreator) Option {
	return func(e *Engine) { e.creator = creator }
}

func WithPauses(p nativecommon.PauseView) Option {
	return func(e *Engine) { e.pauses = p }
}

// Engine serialises ledger calls. Each mutating call runs inside one state
// transaction: it commits when the operation succeeds and is discarded
// entirely, events included, when it fails.
type Engine struct {
	mu      sync.Mutex
	state   *state.Manager
	params  Params
	clock   Clock
	now     uint64
	emitter events.Emitter
	buffer  *events.Buffer
	logger  *slog.Logger
	tracer  trace.Tracer
	creator linkdrop.AccountCreator
	pauses  nativecommon.PauseView

	sales     *sale.Registry
	deposits  *sale.Ledger
	graph     *referral.Graph
	linkdrops *linkdrop.Manager
	fees      *fees.Engine
}

// NewEngine builds the ledger over st. The first engine to open a store
// records params; later engines must be configured identically.
func NewEngine(st *state.Manager, params Params, opts ...Option) (*Engine, error) {
	if st == nil {
		return nil, fmt.Errorf("%w: state manager required", ErrInvalidParams)
	}
	if err := params.Validate(); err != nil {
		return nil, err
	}
	e := &Engine{
		state:   st,
		params:  params.normalized(),
		clock:   func() uint64 { return 0 },
		emitter: events.NoopEmitter{},
		buffer:  &events.Buffer{},
		logger:  slog.Default(),
		tracer:  telemetry.Tracer("launchpad/core"),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(e)
		}
	}
	nowFn := func() uint64 { return e.now }

	e.sales = sale.NewRegistry(e.params.Owner, st)
	e.sales.SetEmitter(e.buffer)
	e.sales.SetPauses(e.pauses)
	e.sales.SetNowFunc(nowFn)
	e.deposits = sale.NewLedger(e.sales)

	e.graph = referral.NewGraph(st)
	e.graph.SetEmitter(e.buffer)
	e.graph.SetNowFunc(nowFn)

	e.linkdrops = linkdrop.NewManager(st, e.graph, e.creator)
	e.linkdrops.SetEmitter(e.buffer)
	e.linkdrops.SetPauses(e.pauses)
	e.linkdrops.SetNowFunc(nowFn)

	feeEngine, err := fees.NewEngine(e.params.schedule(), e.graph)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidParams, err)
	}
	e.fees = feeEngine
	e.deposits.SetAffiliates(affiliates{graph: e.graph, fees: e.fees})

	if err := e.initParams(); err != nil {
		return nil, err
	}
	return e, nil
}

func (e *Engine) initParams() error {
	return e.run(context.Background(), "init_params", func(context.Context) error {
		stored := new(Params)
		found, err := e.state.KVGet(paramsKey, stored)
		if err != nil {
			return err
		}
		if found {
			if !stored.equal(e.params) {
				return fmt.Errorf("%w: owner %q", ErrParamsMismatch, stored.Owner)
			}
			return nil
		}
		return e.state.KVPut(paramsKey, &e.params)
	})
}

// Params returns a copy of the deployment configuration.
func (e *Engine) Params() Params {
	return e.params.normalized()
}

// run executes fn as one atomic ledger call.
func (e *Engine) run(ctx context.Context, op string, fn func(context.Context) error, attrs ...slog.Attr) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	started := time.Now()
	ctx, span := e.tracer.Start(ctx, "ledger."+op)
	defer span.End()

	e.now = e.clock()
	err := e.state.Begin()
	if err == nil {
		err = fn(ctx)
		if err == nil {
			err = e.state.Commit()
		}
		if err != nil {
			e.state.Rollback()
		}
	}

	kind := Kind(err)
	observability.Ledger().ObserveOperation(op, kind, time.Since(started))
	span.SetAttributes(attribute.String("ledger.outcome", kind))

	args := make([]any, 0, len(attrs)+3)
	args = append(args, slog.String("op", op), slog.Uint64("now", e.now))
	for _, attr := range attrs {
		args = append(args, attr)
	}
	if err != nil {
		e.buffer.Discard()
		span.RecordError(err)
		span.SetStatus(codes.Error, kind)
		args = append(args, slog.String("kind", kind), slog.String("error", err.Error()))
		e.logger.Warn("ledger call rejected", args...)
		return err
	}
	e.buffer.Flush(e.emitter)
	e.logger.Debug("ledger call committed", args...)
	return nil
}

// view runs a read under the engine lock with the current logical time.
func (e *Engine) view(fn func() error) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.now = e.clock()
	return fn()
}

func tokenAttrs(token string) []slog.Attr {
	return []slog.Attr{
		logging.MaskField("token", token),
		slog.String("token_fp", linkdrop.Fingerprint(token)),
	}
}

// CreateSale opens a new sale. Only the owner may call it.
func (e *Engine) CreateSale(ctx context.Context, caller string, terms sale.Terms) (uint64, error) {
	var id uint64
	err := e.run(ctx, "create_sale", func(context.Context) error {
		var err error
		id, err = e.sales.CreateSale(caller, terms)
		return err
	}, slog.String("account", caller))
	return id, err
}

func (e *Engine) GetSale(id uint64) (*sale.Sale, error) {
	var out *sale.Sale
	err := e.view(func() error {
		var err error
		out, err = e.sales.GetSale(id)
		return err
	})
	return out, err
}

func (e *Engine) ListSales(page nativecommon.Page) ([]*sale.Sale, error) {
	var out []*sale.Sale
	err := e.view(func() error {
		var err error
		out, err = e.sales.ListSales(page)
		return err
	})
	return out, err
}

// SaleView is a sale together with its phase at the instant it was read.
type SaleView struct {
	Sale  *sale.Sale
	Phase sale.Phase
}

// SaleWithPhase reads sale id and derives its phase under one clock reading.
func (e *Engine) SaleWithPhase(id uint64) (SaleView, error) {
	var out SaleView
	err := e.view(func() error {
		s, err := e.sales.GetSale(id)
		if err != nil {
			return err
		}
		out = SaleView{Sale: s, Phase: s.PhaseAt(e.now)}
		return nil
	})
	return out, err
}

// ListSaleViews pages through sales, phasing all of them at the same instant.
func (e *Engine) ListSaleViews(page nativecommon.Page) ([]SaleView, error) {
	var out []SaleView
	err := e.view(func() error {
		sales, err := e.sales.ListSales(page)
		if err != nil {
			return err
		}
		out = make([]SaleView, 0, len(sales))
		for _, s := range sales {
			out = append(out, SaleView{Sale: s, Phase: s.PhaseAt(e.now)})
		}
		return nil
	})
	return out, err
}

// SalePhase derives the phase of sale id at the current logical time.
func (e *Engine) SalePhase(id uint64) (sale.Phase, error) {
	var out sale.Phase
	err := e.view(func() error {
		var err error
		out, err = e.sales.PhaseOf(id, e.now)
		return err
	})
	return out, err
}

// Deposit credits amount to account in sale saleID and returns the new
// cumulative deposit.
func (e *Engine) Deposit(ctx context.Context, saleID uint64, account string, amount, nativeAmount *big.Int) (*big.Int, error) {
	var (
		cumulative *big.Int
		token      string
	)
	err := e.run(ctx, "deposit", func(context.Context) error {
		var err error
		cumulative, err = e.deposits.Deposit(saleID, account, amount, nativeAmount)
		if err != nil {
			return err
		}
		s, err := e.sales.GetSale(saleID)
		if err != nil {
			return err
		}
		token = s.DepositToken
		return nil
	}, slog.String("account", account), slog.Uint64("sale_id", saleID))
	if err != nil {
		return nil, err
	}
	observability.Ledger().RecordDeposit(token, amount)
	return cumulative, nil
}

func (e *Engine) GetDeposit(saleID uint64, account string) (*big.Int, error) {
	var out *big.Int
	err := e.view(func() error {
		var err error
		out, err = e.deposits.GetDeposit(saleID, account)
		return err
	})
	return out, err
}

func (e *Engine) ListDeposits(saleID uint64, page nativecommon.Page) ([]*sale.Deposit, error) {
	var out []*sale.Deposit
	err := e.view(func() error {
		var err error
		out, err = e.deposits.ListDeposits(saleID, page)
		return err
	})
	return out, err
}

func (e *Engine) ConfigureDistribution(ctx context.Context, caller string, saleID uint64, token string, decimals uint8) error {
	return e.run(ctx, "configure_distribution", func(context.Context) error {
		return e.sales.ConfigureDistribution(caller, saleID, token, decimals)
	}, slog.String("account", caller), slog.Uint64("sale_id", saleID))
}

func (e *Engine) SetClaimAvailable(ctx context.Context, caller string, saleID uint64, available bool) error {
	return e.run(ctx, "set_claim_available", func(context.Context) error {
		return e.sales.SetClaimAvailable(caller, saleID, available)
	}, slog.String("account", caller), slog.Uint64("sale_id", saleID))
}

func (e *Engine) Allocation(saleID uint64, account string) (*big.Int, error) {
	var out *big.Int
	err := e.view(func() error {
		var err error
		out, err = e.deposits.Allocation(saleID, account)
		return err
	})
	return out, err
}

// ClaimPurchase marks the account's allocation as claimed and returns it.
func (e *Engine) ClaimPurchase(ctx context.Context, saleID uint64, account string) (*big.Int, error) {
	var out *big.Int
	err := e.run(ctx, "claim_purchase", func(context.Context) error {
		var err error
		out, err = e.deposits.ClaimPurchase(saleID, account)
		return err
	}, slog.String("account", account), slog.Uint64("sale_id", saleID))
	return out, err
}

// AffiliateReward returns what account accrued in sale saleID from the
// deposits of accounts it referred.
func (e *Engine) AffiliateReward(saleID uint64, account string) (*sale.Affiliate, error) {
	var out *sale.Affiliate
	err := e.view(func() error {
		var err error
		out, err = e.deposits.AffiliateReward(saleID, account)
		return err
	})
	return out, err
}

// ClaimAffiliateReward marks account's accrued rewards in sale saleID as
// claimed and returns the newly claimed amount.
func (e *Engine) ClaimAffiliateReward(ctx context.Context, saleID uint64, account string) (*big.Int, error) {
	var out *big.Int
	err := e.run(ctx, "claim_affiliate_reward", func(context.Context) error {
		var err error
		out, err = e.deposits.ClaimAffiliateReward(saleID, account)
		return err
	}, slog.String("account", account), slog.Uint64("sale_id", saleID))
	return out, err
}

// IssueLinkdrop registers token for creator.
func (e *Engine) IssueLinkdrop(ctx context.Context, creator, token string, funded *big.Int) error {
	attrs := append(tokenAttrs(token), slog.String("account", creator))
	return e.run(ctx, "issue_linkdrop", func(context.Context) error {
		return e.linkdrops.Issue(creator, token, funded)
	}, attrs...)
}

// RedeemLinkdrop spends token, creates account through the host and returns
// the referral edge.
func (e *Engine) RedeemLinkdrop(ctx context.Context, token, account string) (*referral.Edge, error) {
	var edge *referral.Edge
	attrs := append(tokenAttrs(token), slog.String("account", account))
	err := e.run(ctx, "redeem_linkdrop", func(ctx context.Context) error {
		var err error
		edge, err = e.linkdrops.Redeem(ctx, token, account)
		return err
	}, attrs...)
	if err != nil {
		return nil, err
	}
	observability.Ledger().RecordReferral(edge.Source)
	return edge, nil
}

func (e *Engine) GetLinkdrop(token string) (*linkdrop.Linkdrop, error) {
	var out *linkdrop.Linkdrop
	err := e.view(func() error {
		var err error
		out, err = e.linkdrops.Get(token)
		return err
	})
	return out, err
}

// Join registers account directly against the owner. attached must match the
// configured join fee exactly.
func (e *Engine) Join(ctx context.Context, account string, attached *big.Int) (*referral.Edge, error) {
	var edge *referral.Edge
	err := e.run(ctx, "join", func(context.Context) error {
		if nativecommon.CloneAmount(attached).Cmp(e.params.JoinFee) != 0 {
			return fmt.Errorf("%w: attached %s, fee %s", ErrJoinFeeMismatch, nativecommon.CloneAmount(attached), e.params.JoinFee)
		}
		var err error
		edge, err = e.graph.Record(account, e.params.Owner, referral.SourceJoin)
		return err
	}, slog.String("account", account))
	if err != nil {
		return nil, err
	}
	observability.Ledger().RecordReferral(edge.Source)
	return edge, nil
}

// ReferrerOf returns the edge attributing account, or false if it has none.
func (e *Engine) ReferrerOf(account string) (*referral.Edge, bool, error) {
	var (
		out   *referral.Edge
		found bool
	)
	err := e.view(func() error {
		var err error
		out, found, err = e.graph.ReferrerOf(account)
		return err
	})
	return out, found, err
}

func (e *Engine) ReferralsBy(referrer string, page nativecommon.Page) ([]string, error) {
	var out []string
	err := e.view(func() error {
		var err error
		out, err = e.graph.ReferralsBy(referrer, page)
		return err
	})
	return out, err
}

func (e *Engine) ReferralCount(referrer string) (uint64, error) {
	var out uint64
	err := e.view(func() error {
		var err error
		out, err = e.graph.ReferralCount(referrer)
		return err
	})
	return out, err
}

// TierFee returns the referral fee percentage currently earned by referrer.
func (e *Engine) TierFee(referrer string) (uint64, error) {
	var out uint64
	err := e.view(func() error {
		var err error
		out, err = e.fees.TierFee(referrer)
		return err
	})
	return out, err
}

// Reward quotes the referrer's cut of amount at its current tier.
func (e *Engine) Reward(referrer string, amount *big.Int) (*big.Int, uint64, error) {
	var (
		reward *big.Int
		fee    uint64
	)
	err := e.view(func() error {
		var err error
		reward, fee, err = e.fees.Reward(referrer, amount)
		return err
	})
	return reward, fee, err
}

// affiliates credits a depositor's direct referrer at the tier it holds when
// the deposit lands.
type affiliates struct {
	graph *referral.Graph
	fees  *fees.Engine
}

func (a affiliates) AffiliateFor(account string, amount *big.Int) (string, *big.Int, bool, error) {
	edge, found, err := a.graph.ReferrerOf(account)
	if err != nil || !found {
		return "", nil, false, err
	}
	reward, _, err := a.fees.Reward(edge.Referrer, amount)
	if err != nil {
		return "", nil, false, err
	}
	return edge.Referrer, reward, true, nil
}
