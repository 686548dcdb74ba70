package linkdrop

import (
	"context"
	"errors"
	"math/big"
	"strings"
	"testing"

	"launchpad/core/events"
	"launchpad/core/state"
	nativecommon "launchpad/native/common"
	"launchpad/native/referral"
	"launchpad/storage"
)

type recordingEmitter struct {
	events []events.Event
}

func (r *recordingEmitter) Emit(e events.Event) { r.events = append(r.events, e) }

func newManager(t *testing.T, creator AccountCreator) (*Manager, *referral.Graph, *recordingEmitter) {
	t.Helper()
	st := state.NewManager(storage.NewMemDB())
	graph := referral.NewGraph(st)
	m := NewManager(st, graph, creator)
	emitter := &recordingEmitter{}
	m.SetEmitter(emitter)
	m.SetNowFunc(func() uint64 { return 7 })
	graph.SetNowFunc(func() uint64 { return 7 })
	return m, graph, emitter
}

func TestRedeemScenario(t *testing.T) {
	var created []string
	creator := FuncCreator(func(_ context.Context, account string, funded *big.Int) error {
		if funded.Cmp(big.NewInt(1_000)) != 0 {
			t.Fatalf("unexpected funded amount %s", funded)
		}
		created = append(created, account)
		return nil
	})
	m, graph, emitter := newManager(t, creator)
	if err := m.Issue("alice.near", "tok1", big.NewInt(1_000)); err != nil {
		t.Fatalf("issue: %v", err)
	}

	edge, err := m.Redeem(context.Background(), "tok1", "bob.near")
	if err != nil {
		t.Fatalf("redeem: %v", err)
	}
	if edge.Account != "bob.near" || edge.Referrer != "alice.near" || edge.CreatedAt != 7 {
		t.Fatalf("unexpected edge %+v", edge)
	}
	ref, ok, err := graph.ReferrerOf("bob.near")
	if err != nil || !ok || ref.Referrer != "alice.near" {
		t.Fatalf("expected bob referred by alice, got %+v ok=%v err=%v", ref, ok, err)
	}

	if _, err := m.Redeem(context.Background(), "tok1", "carol.near"); !errors.Is(err, ErrLinkdropAlreadyUsed) {
		t.Fatalf("expected ErrLinkdropAlreadyUsed, got %v", err)
	}
	if _, ok, _ := graph.ReferrerOf("carol.near"); ok {
		t.Fatalf("carol must remain unreferred")
	}
	if len(created) != 1 || created[0] != "bob.near" {
		t.Fatalf("unexpected account creations %v", created)
	}

	record, err := m.Get("tok1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if record.Status != StatusRedeemed || record.RedeemedBy != "bob.near" {
		t.Fatalf("unexpected record %+v", record)
	}
	for _, e := range emitter.events {
		for _, v := range e.Attributes() {
			if strings.Contains(v, "tok1") {
				t.Fatalf("event %s leaked the token", e.EventType())
			}
		}
	}
}

func TestIssueRejectsDuplicateToken(t *testing.T) {
	m, _, _ := newManager(t, nil)
	if err := m.Issue("alice.near", "tok", big.NewInt(1)); err != nil {
		t.Fatalf("issue: %v", err)
	}
	if err := m.Issue("bob.near", "tok", big.NewInt(2)); !errors.Is(err, ErrTokenAlreadyIssued) {
		t.Fatalf("expected ErrTokenAlreadyIssued, got %v", err)
	}
	record, err := m.Get("tok")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if record.Creator != "alice.near" || record.Status != StatusIssued {
		t.Fatalf("original linkdrop overwritten: %+v", record)
	}
}

func TestRedeemPreconditions(t *testing.T) {
	m, graph, _ := newManager(t, nil)
	if _, err := m.Redeem(context.Background(), "missing", "bob.near"); !errors.Is(err, ErrLinkdropNotFound) {
		t.Fatalf("expected ErrLinkdropNotFound, got %v", err)
	}
	if _, err := m.Get("missing"); !errors.Is(err, ErrLinkdropNotFound) {
		t.Fatalf("expected ErrLinkdropNotFound from get, got %v", err)
	}
	if err := m.Issue("alice.near", "self", big.NewInt(1)); err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, err := m.Redeem(context.Background(), "self", "alice.near"); !errors.Is(err, referral.ErrSelfReferralRejected) {
		t.Fatalf("expected ErrSelfReferralRejected, got %v", err)
	}

	if _, err := graph.Record("dave.near", "carol.near", referral.SourceJoin); err != nil {
		t.Fatalf("seed edge: %v", err)
	}
	if err := m.Issue("alice.near", "dup", big.NewInt(1)); err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, err := m.Redeem(context.Background(), "dup", "dave.near"); !errors.Is(err, referral.ErrAccountAlreadyReferred) {
		t.Fatalf("expected ErrAccountAlreadyReferred, got %v", err)
	}
	for _, token := range []string{"self", "dup"} {
		record, err := m.Get(token)
		if err != nil {
			t.Fatalf("get: %v", err)
		}
		if record.Status != StatusIssued {
			t.Fatalf("failed redemption spent %s", token)
		}
	}
}

func TestRedeemCreatorFailureLeavesStateUntouched(t *testing.T) {
	failing := FuncCreator(func(context.Context, string, *big.Int) error {
		return errors.New("host rejected account")
	})
	m, graph, emitter := newManager(t, failing)
	if err := m.Issue("alice.near", "tok", big.NewInt(5)); err != nil {
		t.Fatalf("issue: %v", err)
	}
	issued := len(emitter.events)
	if _, err := m.Redeem(context.Background(), "tok", "bob.near"); !errors.Is(err, ErrAccountCreationFailed) {
		t.Fatalf("expected ErrAccountCreationFailed, got %v", err)
	}
	record, err := m.Get("tok")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if record.Status != StatusIssued {
		t.Fatalf("token spent despite creator failure")
	}
	if _, ok, _ := graph.ReferrerOf("bob.near"); ok {
		t.Fatalf("edge written despite creator failure")
	}
	if len(emitter.events) != issued {
		t.Fatalf("redemption event emitted despite failure")
	}
}

func TestRedeemTokenAgainAfterCreatorFailure(t *testing.T) {
	attempts := 0
	flaky := FuncCreator(func(context.Context, string, *big.Int) error {
		attempts++
		if attempts == 1 {
			return errors.New("host busy")
		}
		return nil
	})
	m, graph, _ := newManager(t, flaky)
	if err := m.Issue("alice.near", "tok", big.NewInt(5)); err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, err := m.Redeem(context.Background(), "tok", "bob.near"); !errors.Is(err, ErrAccountCreationFailed) {
		t.Fatalf("expected ErrAccountCreationFailed, got %v", err)
	}
	edge, err := m.Redeem(context.Background(), "tok", "bob.near")
	if err != nil {
		t.Fatalf("second redeem: %v", err)
	}
	if edge.Referrer != "alice.near" {
		t.Fatalf("unexpected edge %+v", edge)
	}
	if count, _ := graph.ReferralCount("alice.near"); count != 1 {
		t.Fatalf("expected one referral, got %d", count)
	}
}

func TestRedeemedAccountCannotBeReferredTwice(t *testing.T) {
	m, graph, _ := newManager(t, nil)
	if err := m.Issue("alice.near", "first", big.NewInt(1)); err != nil {
		t.Fatalf("issue: %v", err)
	}
	if err := m.Issue("carol.near", "second", big.NewInt(1)); err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, err := m.Redeem(context.Background(), "first", "bob.near"); err != nil {
		t.Fatalf("redeem: %v", err)
	}
	if _, err := m.Redeem(context.Background(), "second", "bob.near"); !errors.Is(err, referral.ErrAccountAlreadyReferred) {
		t.Fatalf("expected ErrAccountAlreadyReferred, got %v", err)
	}
	record, err := m.Get("second")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if record.Status != StatusIssued {
		t.Fatalf("rejected redemption spent the token")
	}
	ref, _, _ := graph.ReferrerOf("bob.near")
	if ref.Referrer != "alice.near" {
		t.Fatalf("referrer changed to %s", ref.Referrer)
	}
	if count, _ := graph.ReferralCount("carol.near"); count != 0 {
		t.Fatalf("carol credited with %d referrals", count)
	}
}

func TestPausedLinkdrops(t *testing.T) {
	m, _, _ := newManager(t, nil)
	m.SetPauses(nativecommon.NewStaticPauses([]string{"linkdrop"}))
	if err := m.Issue("alice.near", "tok", big.NewInt(1)); !errors.Is(err, nativecommon.ErrModulePaused) {
		t.Fatalf("expected ErrModulePaused, got %v", err)
	}
}

func TestFingerprintIsStable(t *testing.T) {
	if Fingerprint("tok1") != Fingerprint("tok1") {
		t.Fatalf("fingerprint must be deterministic")
	}
	if Fingerprint("tok1") == Fingerprint("tok2") {
		t.Fatalf("distinct tokens share a fingerprint")
	}
	if len(Fingerprint("tok1")) != 16 {
		t.Fatalf("unexpected fingerprint length")
	}
}
