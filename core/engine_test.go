package core

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"math/big"
	"strconv"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"launchpad/core/events"
	"launchpad/core/state"
	nativecommon "launchpad/native/common"
	"launchpad/native/linkdrop"
	"launchpad/native/referral"
	"launchpad/native/sale"
	"launchpad/storage"
)

const owner = "owner.near"

type recordingEmitter struct {
	events []events.Event
}

func (r *recordingEmitter) Emit(e events.Event) { r.events = append(r.events, e) }

func (r *recordingEmitter) types() []string {
	out := make([]string, len(r.events))
	for i, e := range r.events {
		out[i] = e.EventType()
	}
	return out
}

type harness struct {
	engine  *Engine
	db      *storage.MemDB
	emitter *recordingEmitter
	now     uint64
}

func testParams() Params {
	return Params{Owner: owner, JoinFee: big.NewInt(100), ReferralFees: []uint64{10, 20, 30}}
}

func newHarness(t *testing.T, opts ...Option) *harness {
	t.Helper()
	h := &harness{db: storage.NewMemDB(), emitter: &recordingEmitter{}}
	base := []Option{
		WithClock(func() uint64 { return h.now }),
		WithEmitter(h.emitter),
		WithLogger(slog.New(slog.NewJSONHandler(io.Discard, nil))),
	}
	engine, err := NewEngine(state.NewManager(h.db), testParams(), append(base, opts...)...)
	require.NoError(t, err)
	h.engine = engine
	return h
}

func scenarioTerms() sale.Terms {
	return sale.Terms{
		Metadata:     sale.Metadata{Name: "Example"},
		DepositToken: "usdc.near",
		MinBuy:       big.NewInt(1),
		MaxBuy:       big.NewInt(10_000),
		Price:        big.NewInt(1_000),
		StartTime:    10_000_000,
		EndTime:      100_000_000,
	}
}

func TestDepositWindowScenario(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	id, err := h.engine.CreateSale(ctx, owner, scenarioTerms())
	require.NoError(t, err)

	h.now = 5_000_000
	phase, err := h.engine.SalePhase(id)
	require.NoError(t, err)
	require.Equal(t, sale.PhasePending, phase)
	_, err = h.engine.Deposit(ctx, id, "alice.near", big.NewInt(50), nil)
	require.ErrorIs(t, err, sale.ErrSaleNotActive)
	require.Equal(t, KindSaleNotActive, Kind(err))
	require.True(t, Retryable(err))

	h.now = 50_000_000
	cumulative, err := h.engine.Deposit(ctx, id, "alice.near", big.NewInt(50), nil)
	require.NoError(t, err)
	require.Equal(t, int64(50), cumulative.Int64())

	_, err = h.engine.Deposit(ctx, id, "alice.near", big.NewInt(9_999), nil)
	require.ErrorIs(t, err, sale.ErrExceedsMaxBuy)
	require.Equal(t, KindExceedsMaxBuy, Kind(err))
	require.False(t, Retryable(err))

	got, err := h.engine.GetDeposit(id, "alice.near")
	require.NoError(t, err)
	require.Equal(t, int64(50), got.Int64())

	h.now = 100_000_000
	_, err = h.engine.Deposit(ctx, id, "alice.near", big.NewInt(10), nil)
	require.ErrorIs(t, err, sale.ErrSaleClosed)
	require.ErrorIs(t, err, sale.ErrSaleNotActive)
	require.Equal(t, KindSaleNotActive, Kind(err))
	require.False(t, Retryable(err))

	s, err := h.engine.GetSale(id)
	require.NoError(t, err)
	require.Equal(t, int64(50), s.TotalDeposited.Int64())
	require.Equal(t, []string{sale.EventTypeSaleCreated, sale.EventTypeDeposited}, h.emitter.types())
}

func TestLinkdropScenario(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	require.NoError(t, h.engine.IssueLinkdrop(ctx, "alice.near", "tok1", big.NewInt(1_000)))

	edge, err := h.engine.RedeemLinkdrop(ctx, "tok1", "bob.near")
	require.NoError(t, err)
	require.Equal(t, "alice.near", edge.Referrer)

	ref, ok, err := h.engine.ReferrerOf("bob.near")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "alice.near", ref.Referrer)

	_, err = h.engine.RedeemLinkdrop(ctx, "tok1", "carol.near")
	require.ErrorIs(t, err, linkdrop.ErrLinkdropAlreadyUsed)
	require.Equal(t, KindLinkdropAlreadyUsed, Kind(err))
	_, ok, err = h.engine.ReferrerOf("carol.near")
	require.NoError(t, err)
	require.False(t, ok)

	_, err = h.engine.GetLinkdrop("nope")
	require.Equal(t, KindLinkdropNotFound, Kind(err))
}

func TestTierFeeScenario(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	require.NoError(t, h.engine.IssueLinkdrop(ctx, "alice.near", "t1", nil))
	require.NoError(t, h.engine.IssueLinkdrop(ctx, "alice.near", "t2", nil))

	fee, err := h.engine.TierFee("alice.near")
	require.NoError(t, err)
	require.Equal(t, uint64(0), fee)

	_, err = h.engine.RedeemLinkdrop(ctx, "t1", "bob.near")
	require.NoError(t, err)
	fee, err = h.engine.TierFee("alice.near")
	require.NoError(t, err)
	require.Equal(t, uint64(10), fee)

	_, err = h.engine.RedeemLinkdrop(ctx, "t2", "carol.near")
	require.NoError(t, err)
	fee, err = h.engine.TierFee("alice.near")
	require.NoError(t, err)
	require.Equal(t, uint64(20), fee)

	reward, fee, err := h.engine.Reward("alice.near", big.NewInt(500))
	require.NoError(t, err)
	require.Equal(t, uint64(20), fee)
	require.Equal(t, int64(100), reward.Int64())

	referrals, err := h.engine.ReferralsBy("alice.near", nativecommon.Page{})
	require.NoError(t, err)
	require.Equal(t, []string{"bob.near", "carol.near"}, referrals)
}

func TestCreatorFailureRollsBackAndEmitsNothing(t *testing.T) {
	creator := linkdrop.FuncCreator(func(context.Context, string, *big.Int) error {
		return errors.New("storage deposit too small")
	})
	h := newHarness(t, WithAccountCreator(creator))
	ctx := context.Background()
	require.NoError(t, h.engine.IssueLinkdrop(ctx, "alice.near", "tok", big.NewInt(1)))
	before := len(h.emitter.events)

	_, err := h.engine.RedeemLinkdrop(ctx, "tok", "bob.near")
	require.ErrorIs(t, err, linkdrop.ErrAccountCreationFailed)
	require.Equal(t, KindAccountCreationFailed, Kind(err))
	require.Len(t, h.emitter.events, before)

	record, err := h.engine.GetLinkdrop("tok")
	require.NoError(t, err)
	require.Equal(t, linkdrop.StatusIssued, record.Status)
	count, err := h.engine.ReferralCount("alice.near")
	require.NoError(t, err)
	require.Zero(t, count)
}

func TestRedeemAfterCreatorFailureSucceeds(t *testing.T) {
	fail := true
	creator := linkdrop.FuncCreator(func(context.Context, string, *big.Int) error {
		if fail {
			return errors.New("host unavailable")
		}
		return nil
	})
	h := newHarness(t, WithAccountCreator(creator))
	ctx := context.Background()
	require.NoError(t, h.engine.IssueLinkdrop(ctx, "alice.near", "tok", big.NewInt(1)))

	_, err := h.engine.RedeemLinkdrop(ctx, "tok", "bob.near")
	require.Equal(t, KindAccountCreationFailed, Kind(err))
	require.True(t, Retryable(err))

	fail = false
	edge, err := h.engine.RedeemLinkdrop(ctx, "tok", "bob.near")
	require.NoError(t, err)
	require.Equal(t, "alice.near", edge.Referrer)

	record, err := h.engine.GetLinkdrop("tok")
	require.NoError(t, err)
	require.Equal(t, linkdrop.StatusRedeemed, record.Status)
	require.Equal(t, "bob.near", record.RedeemedBy)
}

func TestConcurrentRedeemHasOneWinner(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	require.NoError(t, h.engine.IssueLinkdrop(ctx, "alice.near", "tok", big.NewInt(1)))

	const callers = 32
	var (
		wg      sync.WaitGroup
		results = make([]error, callers)
	)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			account := "user" + strconv.Itoa(i) + ".near"
			_, results[i] = h.engine.RedeemLinkdrop(ctx, "tok", account)
		}(i)
	}
	wg.Wait()

	successes := 0
	for _, err := range results {
		if err == nil {
			successes++
			continue
		}
		require.ErrorIs(t, err, linkdrop.ErrLinkdropAlreadyUsed)
	}
	require.Equal(t, 1, successes)
	count, err := h.engine.ReferralCount("alice.near")
	require.NoError(t, err)
	require.Equal(t, uint64(1), count)
}

type failingDB struct {
	*storage.MemDB
	fail bool
}

func (f *failingDB) Write(entries map[string][]byte) error {
	if f.fail {
		return errors.New("disk full")
	}
	return f.MemDB.Write(entries)
}

func TestCommitFailureDiscardsEverything(t *testing.T) {
	db := &failingDB{MemDB: storage.NewMemDB()}
	emitter := &recordingEmitter{}
	engine, err := NewEngine(state.NewManager(db), testParams(),
		WithEmitter(emitter),
		WithLogger(slog.New(slog.NewJSONHandler(io.Discard, nil))),
	)
	require.NoError(t, err)

	db.fail = true
	_, err = engine.CreateSale(context.Background(), owner, scenarioTerms())
	require.Error(t, err)
	require.Equal(t, KindInternal, Kind(err))
	require.Empty(t, emitter.events)

	db.fail = false
	id, err := engine.CreateSale(context.Background(), owner, scenarioTerms())
	require.NoError(t, err)
	require.Equal(t, uint64(0), id, "failed call must not consume an id")
}

func TestJoin(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	_, err := h.engine.Join(ctx, "dave.near", big.NewInt(99))
	require.ErrorIs(t, err, ErrJoinFeeMismatch)
	require.Equal(t, KindJoinFeeMismatch, Kind(err))

	edge, err := h.engine.Join(ctx, "dave.near", big.NewInt(100))
	require.NoError(t, err)
	require.Equal(t, owner, edge.Referrer)
	require.Equal(t, string(referral.SourceJoin), edge.Source)

	_, err = h.engine.Join(ctx, "dave.near", big.NewInt(100))
	require.ErrorIs(t, err, referral.ErrAccountAlreadyReferred)

	_, err = h.engine.Join(ctx, owner, big.NewInt(100))
	require.ErrorIs(t, err, referral.ErrSelfReferralRejected)
	require.Equal(t, KindSelfReferralRejected, Kind(err))
}

func TestOwnerGatedOperations(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	_, err := h.engine.CreateSale(ctx, "mallory.near", scenarioTerms())
	require.Equal(t, KindUnauthorized, Kind(err))

	terms := scenarioTerms()
	terms.EndTime = terms.StartTime
	_, err = h.engine.CreateSale(ctx, owner, terms)
	require.Equal(t, KindInvalidTerms, Kind(err))

	_, err = h.engine.GetSale(3)
	require.Equal(t, KindNotFound, Kind(err))
}

func TestClaimFlow(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	id, err := h.engine.CreateSale(ctx, owner, scenarioTerms())
	require.NoError(t, err)
	h.now = 20_000_000
	_, err = h.engine.Deposit(ctx, id, "alice.near", big.NewInt(3_000), nil)
	require.NoError(t, err)

	require.NoError(t, h.engine.ConfigureDistribution(ctx, owner, id, "exm.near", 3))
	require.NoError(t, h.engine.SetClaimAvailable(ctx, owner, id, true))

	allocation, err := h.engine.Allocation(id, "alice.near")
	require.NoError(t, err)
	require.Equal(t, int64(3_000), allocation.Int64())

	claimed, err := h.engine.ClaimPurchase(ctx, id, "alice.near")
	require.NoError(t, err)
	require.Equal(t, int64(3_000), claimed.Int64())
	_, err = h.engine.ClaimPurchase(ctx, id, "alice.near")
	require.Equal(t, KindAlreadyClaimed, Kind(err))
}

func TestPausedModule(t *testing.T) {
	h := newHarness(t, WithPauses(nativecommon.NewStaticPauses([]string{"linkdrop"})))
	err := h.engine.IssueLinkdrop(context.Background(), "alice.near", "tok", nil)
	require.Equal(t, KindModulePaused, Kind(err))
	require.True(t, Retryable(err))
}

func TestParamsPersistedOnce(t *testing.T) {
	db := storage.NewMemDB()
	_, err := NewEngine(state.NewManager(db), testParams())
	require.NoError(t, err)

	_, err = NewEngine(state.NewManager(db), testParams())
	require.NoError(t, err)

	changed := testParams()
	changed.ReferralFees = []uint64{5}
	_, err = NewEngine(state.NewManager(db), changed)
	require.ErrorIs(t, err, ErrParamsMismatch)
}

func TestParamsValidate(t *testing.T) {
	bad := testParams()
	bad.ReferralFees = []uint64{30, 20}
	_, err := NewEngine(state.NewManager(storage.NewMemDB()), bad)
	require.ErrorIs(t, err, ErrInvalidParams)

	bad = testParams()
	bad.Owner = " "
	_, err = NewEngine(state.NewManager(storage.NewMemDB()), bad)
	require.ErrorIs(t, err, ErrInvalidParams)
}

func TestAffiliateRewardsFollowTier(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	id, err := h.engine.CreateSale(ctx, owner, scenarioTerms())
	require.NoError(t, err)
	require.NoError(t, h.engine.IssueLinkdrop(ctx, "alice.near", "t1", nil))
	require.NoError(t, h.engine.IssueLinkdrop(ctx, "alice.near", "t2", nil))
	_, err = h.engine.RedeemLinkdrop(ctx, "t1", "bob.near")
	require.NoError(t, err)

	h.now = 20_000_000
	_, err = h.engine.Deposit(ctx, id, "bob.near", big.NewInt(1_000), nil)
	require.NoError(t, err)
	reward, err := h.engine.AffiliateReward(id, "alice.near")
	require.NoError(t, err)
	require.Equal(t, int64(100), reward.Amount.Int64())

	_, err = h.engine.RedeemLinkdrop(ctx, "t2", "carol.near")
	require.NoError(t, err)
	_, err = h.engine.Deposit(ctx, id, "bob.near", big.NewInt(500), nil)
	require.NoError(t, err)
	reward, err = h.engine.AffiliateReward(id, "alice.near")
	require.NoError(t, err)
	require.Equal(t, int64(200), reward.Amount.Int64())

	_, err = h.engine.Deposit(ctx, id, "dave.near", big.NewInt(700), nil)
	require.NoError(t, err)
	reward, err = h.engine.AffiliateReward(id, "alice.near")
	require.NoError(t, err)
	require.Equal(t, int64(200), reward.Amount.Int64(), "unreferred deposits credit nobody")

	claimed, err := h.engine.ClaimAffiliateReward(ctx, id, "alice.near")
	require.NoError(t, err)
	require.Equal(t, int64(200), claimed.Int64())
	_, err = h.engine.ClaimAffiliateReward(ctx, id, "alice.near")
	require.Equal(t, KindNothingToClaim, Kind(err))
	require.Contains(t, h.emitter.types(), sale.EventTypeAffiliateClaimed)
}

func TestSaleWithPhaseReadsOneInstant(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	first, err := h.engine.CreateSale(ctx, owner, scenarioTerms())
	require.NoError(t, err)
	later := scenarioTerms()
	later.StartTime, later.EndTime = 60_000_000, 200_000_000
	_, err = h.engine.CreateSale(ctx, owner, later)
	require.NoError(t, err)

	reads := 0
	h.engine.clock = func() uint64 {
		reads++
		return 50_000_000
	}
	view, err := h.engine.SaleWithPhase(first)
	require.NoError(t, err)
	require.Equal(t, sale.PhaseActive, view.Phase)
	require.Equal(t, first, view.Sale.ID)
	require.Equal(t, 1, reads)

	views, err := h.engine.ListSaleViews(nativecommon.Page{})
	require.NoError(t, err)
	require.Len(t, views, 2)
	require.Equal(t, sale.PhaseActive, views[0].Phase)
	require.Equal(t, sale.PhasePending, views[1].Phase)
	require.Equal(t, 2, reads)

	_, err = h.engine.SaleWithPhase(7)
	require.Equal(t, KindNotFound, Kind(err))
}
