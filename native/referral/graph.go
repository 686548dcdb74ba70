package referral

import (
	"errors"
	"fmt"
	"strings"

	"launchpad/core/events"
	nativecommon "launchpad/native/common"
)

var errNilState = errors.New("referral: state not configured")

// Graph stores the referral forest. Every account has at most one referrer
// and an account can never refer itself, so no cycle can form.
type Graph struct {
	st      nativecommon.KVStore
	emitter events.Emitter
	nowFn   func() uint64
}

func NewGraph(st nativecommon.KVStore) *Graph {
	return &Graph{st: st, emitter: events.NoopEmitter{}, nowFn: func() uint64 { return 0 }}
}

// SetEmitter configures the event emitter. Passing nil resets it to a no-op.
func (g *Graph) SetEmitter(emitter events.Emitter) {
	if g == nil {
		return
	}
	if emitter == nil {
		g.emitter = events.NoopEmitter{}
		return
	}
	g.emitter = emitter
}

func (g *Graph) SetNowFunc(fn func() uint64) {
	if g == nil || fn == nil {
		return
	}
	g.nowFn = fn
}

func (g *Graph) ready() error {
	if g == nil || g.st == nil {
		return errNilState
	}
	return nil
}

// CheckEligible reports whether account may be attributed to referrer
// without writing anything.
func (g *Graph) CheckEligible(account, referrer string) error {
	if err := g.ready(); err != nil {
		return err
	}
	account = strings.TrimSpace(account)
	referrer = strings.TrimSpace(referrer)
	if account == "" || referrer == "" {
		return ErrInvalidAccount
	}
	found, err := g.st.KVGet(edgeKey(account), nil)
	if err != nil {
		return err
	}
	if found {
		return fmt.Errorf("%w: %s", ErrAccountAlreadyReferred, account)
	}
	if account == referrer {
		return fmt.Errorf("%w: %s", ErrSelfReferralRejected, account)
	}
	return nil
}

// Record writes the edge account -> referrer and bumps the referrer's counter.
func (g *Graph) Record(account, referrer string, source Source) (*Edge, error) {
	if err := g.CheckEligible(account, referrer); err != nil {
		return nil, err
	}
	account = strings.TrimSpace(account)
	referrer = strings.TrimSpace(referrer)
	edge := &Edge{
		Account:   account,
		Referrer:  referrer,
		Source:    string(source),
		CreatedAt: g.nowFn(),
	}
	if err := g.st.KVPut(edgeKey(account), edge); err != nil {
		return nil, err
	}
	if err := g.st.KVAppend(listKey(referrer), []byte(account)); err != nil {
		return nil, err
	}
	count, err := g.ReferralCount(referrer)
	if err != nil {
		return nil, err
	}
	if err := g.st.KVPut(countKey(referrer), count+1); err != nil {
		return nil, err
	}
	g.emitter.Emit(ReferralRecorded{Account: account, Referrer: referrer, Source: edge.Source})
	out := *edge
	return &out, nil
}

// ReferrerOf returns the edge of account, or false when it was never
// referred.
func (g *Graph) ReferrerOf(account string) (*Edge, bool, error) {
	if err := g.ready(); err != nil {
		return nil, false, err
	}
	edge := new(Edge)
	found, err := g.st.KVGet(edgeKey(strings.TrimSpace(account)), edge)
	if err != nil || !found {
		return nil, false, err
	}
	return edge, true, nil
}

// ReferralsBy lists the accounts referred by referrer in the order the edges
// were written.
func (g *Graph) ReferralsBy(referrer string, page nativecommon.Page) ([]string, error) {
	if err := g.ready(); err != nil {
		return nil, err
	}
	page = page.Normalized()
	raw, err := g.st.KVListRange(listKey(strings.TrimSpace(referrer)), page.From, page.Limit)
	if err != nil {
		return nil, err
	}
	out := make([]string, len(raw))
	for i, item := range raw {
		out[i] = string(item)
	}
	return out, nil
}

// ReferralCount returns the number of accounts referred by referrer.
func (g *Graph) ReferralCount(referrer string) (uint64, error) {
	if err := g.ready(); err != nil {
		return 0, err
	}
	var count uint64
	if _, err := g.st.KVGet(countKey(strings.TrimSpace(referrer)), &count); err != nil {
		return 0, err
	}
	return count, nil
}
