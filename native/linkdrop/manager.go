package linkdrop

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"math/big"
	"strings"

	ethcrypto "github.com/ethereum/go-ethereum/crypto"

	"launchpad/core/events"
	nativecommon "launchpad/native/common"
	"launchpad/native/referral"
)

const moduleName = "linkdrop"

var errNilState = errors.New("linkdrop: state not configured")

// Manager runs the linkdrop lifecycle and writes referral edges on
// redemption.
type Manager struct {
	st      nativecommon.KVStore
	graph   *referral.Graph
	creator AccountCreator
	emitter events.Emitter
	pauses  nativecommon.PauseView
	nowFn   func() uint64
}

// NewManager wires a manager to its store, the referral graph it feeds and
// the host account creator. A nil creator accepts every account.
func NewManager(st nativecommon.KVStore, graph *referral.Graph, creator AccountCreator) *Manager {
	if creator == nil {
		creator = NoopCreator{}
	}
	return &Manager{
		st:      st,
		graph:   graph,
		creator: creator,
		emitter: events.NoopEmitter{},
		nowFn:   func() uint64 { return 0 },
	}
}

// SetEmitter configures the event emitter. Passing nil resets it to a no-op.
func (m *Manager) SetEmitter(emitter events.Emitter) {
	if m == nil {
		return
	}
	if emitter == nil {
		m.emitter = events.NoopEmitter{}
		return
	}
	m.emitter = emitter
}

func (m *Manager) SetPauses(p nativecommon.PauseView) {
	if m == nil {
		return
	}
	m.pauses = p
}

func (m *Manager) SetNowFunc(fn func() uint64) {
	if m == nil || fn == nil {
		return
	}
	m.nowFn = fn
}

func (m *Manager) ready() error {
	if m == nil || m.st == nil || m.graph == nil {
		return errNilState
	}
	return nil
}

// Fingerprint returns a short stable identifier for token that is safe to
// log and publish. The token itself is a bearer secret.
func Fingerprint(token string) string {
	sum := ethcrypto.Keccak256([]byte(token))
	return hex.EncodeToString(sum[:8])
}

// Issue registers token as a new linkdrop owned by creator. Funding is the
// caller's concern; the amount is only recorded.
func (m *Manager) Issue(creator, token string, funded *big.Int) error {
	if err := m.ready(); err != nil {
		return err
	}
	if err := nativecommon.Guard(m.pauses, moduleName); err != nil {
		return err
	}
	creator = strings.TrimSpace(creator)
	if creator == "" {
		return ErrInvalidAccount
	}
	if token == "" {
		return ErrInvalidToken
	}
	if !nativecommon.ValidAmount(funded) {
		return fmt.Errorf("%w: %s", ErrInvalidAmount, funded)
	}
	exists, err := m.st.KVGet(linkdropKey(token), nil)
	if err != nil {
		return err
	}
	if exists {
		return fmt.Errorf("%w: %s", ErrTokenAlreadyIssued, Fingerprint(token))
	}
	record := &Linkdrop{
		Creator:  creator,
		Funded:   nativecommon.CloneAmount(funded),
		Status:   StatusIssued,
		IssuedAt: m.nowFn(),
	}
	if err := m.st.KVPut(linkdropKey(token), record); err != nil {
		return err
	}
	m.emitter.Emit(LinkdropIssued{Fingerprint: Fingerprint(token), Creator: creator, Funded: record.Funded})
	return nil
}

// Get returns the linkdrop registered under token.
func (m *Manager) Get(token string) (*Linkdrop, error) {
	if err := m.ready(); err != nil {
		return nil, err
	}
	return m.load(token)
}

func (m *Manager) load(token string) (*Linkdrop, error) {
	if token == "" {
		return nil, ErrInvalidToken
	}
	record := new(Linkdrop)
	found, err := m.st.KVGet(linkdropKey(token), record)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, fmt.Errorf("%w: %s", ErrLinkdropNotFound, Fingerprint(token))
	}
	return record, nil
}

// Redeem spends token on behalf of account. Every precondition is checked
// and the host account is created before anything is written, so a failure
// at any step leaves the linkdrop Issued and the graph untouched.
func (m *Manager) Redeem(ctx context.Context, token, account string) (*referral.Edge, error) {
	if err := m.ready(); err != nil {
		return nil, err
	}
	if err := nativecommon.Guard(m.pauses, moduleName); err != nil {
		return nil, err
	}
	account = strings.TrimSpace(account)
	if account == "" {
		return nil, ErrInvalidAccount
	}
	record, err := m.load(token)
	if err != nil {
		return nil, err
	}
	if record.Status != StatusIssued {
		return nil, fmt.Errorf("%w: %s", ErrLinkdropAlreadyUsed, Fingerprint(token))
	}
	if err := m.graph.CheckEligible(account, record.Creator); err != nil {
		return nil, err
	}
	if err := m.creator.CreateAccount(ctx, account, nativecommon.CloneAmount(record.Funded)); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrAccountCreationFailed, account, err)
	}

	record.Status = StatusRedeemed
	record.RedeemedBy = account
	record.RedeemedAt = m.nowFn()
	if err := m.st.KVPut(linkdropKey(token), record); err != nil {
		return nil, err
	}
	edge, err := m.graph.Record(account, record.Creator, referral.SourceLinkdrop)
	if err != nil {
		return nil, err
	}
	m.emitter.Emit(LinkdropRedeemed{Fingerprint: Fingerprint(token), Creator: record.Creator, Account: account})
	return edge, nil
}
