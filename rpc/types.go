package rpc

import (
	"encoding/json"
	"fmt"
	"math/big"
	"strings"

	"launchpad/native/linkdrop"
	"launchpad/native/referral"
	"launchpad/native/sale"
)

const jsonRPCVersion = "2.0"

type RPCRequest struct {
	JSONRPC string            `json:"jsonrpc"`
	ID      interface{}       `json:"id"`
	Method  string            `json:"method"`
	Params  []json.RawMessage `json:"params"`
}

type RPCResponse struct {
	JSONRPC string      `json:"jsonrpc"`
	ID      interface{} `json:"id"`
	Result  interface{} `json:"result,omitempty"`
	Error   *RPCError   `json:"error,omitempty"`
}

type RPCError struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// ErrorData is attached to every ledger rejection so clients can branch on
// the kind instead of parsing messages.
type ErrorData struct {
	Kind      string `json:"kind"`
	Retryable bool   `json:"retryable"`
}

// Amount is a base-10 integer carried as a JSON string to avoid float
// truncation.
type Amount struct {
	*big.Int
}

func (a Amount) MarshalJSON() ([]byte, error) {
	if a.Int == nil {
		return json.Marshal("0")
	}
	return json.Marshal(a.Int.String())
}

func (a *Amount) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("amount must be a decimal string: %w", err)
	}
	raw = strings.TrimSpace(raw)
	if raw == "" {
		a.Int = big.NewInt(0)
		return nil
	}
	value, ok := new(big.Int).SetString(raw, 10)
	if !ok {
		return fmt.Errorf("invalid amount %q", raw)
	}
	a.Int = value
	return nil
}

func (a Amount) Big() *big.Int {
	if a.Int == nil {
		return nil
	}
	return new(big.Int).Set(a.Int)
}

type MetadataJSON struct {
	Name        string `json:"name"`
	Symbol      string `json:"symbol"`
	Description string `json:"description,omitempty"`
	LogoURL     string `json:"logoUrl,omitempty"`
	InfoURL     string `json:"infoUrl,omitempty"`
}

type TermsJSON struct {
	Metadata            MetadataJSON `json:"metadata"`
	DepositToken        string       `json:"depositToken"`
	MinNativeDeposit    Amount       `json:"minNativeDeposit"`
	MinBuy              Amount       `json:"minBuy"`
	MaxBuy              Amount       `json:"maxBuy"`
	MaxAmount           Amount       `json:"maxAmount"`
	LimitPerTransaction Amount       `json:"limitPerTransaction"`
	Price               Amount       `json:"price"`
	StartTime           uint64       `json:"startTime"`
	EndTime             uint64       `json:"endTime"`
}

func (t TermsJSON) terms() sale.Terms {
	return sale.Terms{
		Metadata: sale.Metadata{
			Name:        t.Metadata.Name,
			Symbol:      t.Metadata.Symbol,
			Description: t.Metadata.Description,
			LogoURL:     t.Metadata.LogoURL,
			InfoURL:     t.Metadata.InfoURL,
		},
		DepositToken:        t.DepositToken,
		MinNativeDeposit:    t.MinNativeDeposit.Big(),
		MinBuy:              t.MinBuy.Big(),
		MaxBuy:              t.MaxBuy.Big(),
		MaxAmount:           t.MaxAmount.Big(),
		LimitPerTransaction: t.LimitPerTransaction.Big(),
		Price:               t.Price.Big(),
		StartTime:           t.StartTime,
		EndTime:             t.EndTime,
	}
}

type SaleJSON struct {
	ID                  uint64       `json:"id"`
	Phase               string       `json:"phase"`
	Metadata            MetadataJSON `json:"metadata"`
	DepositToken        string       `json:"depositToken"`
	MinNativeDeposit    Amount       `json:"minNativeDeposit"`
	MinBuy              Amount       `json:"minBuy"`
	MaxBuy              Amount       `json:"maxBuy"`
	MaxAmount           Amount       `json:"maxAmount"`
	LimitPerTransaction Amount       `json:"limitPerTransaction"`
	Price               Amount       `json:"price"`
	StartTime           uint64       `json:"startTime"`
	EndTime             uint64       `json:"endTime"`
	TotalDeposited      Amount       `json:"totalDeposited"`
	NumAccounts         uint64       `json:"numAccounts"`
	DistributeToken     string       `json:"distributeToken,omitempty"`
	DistributeDecimals  uint8        `json:"distributeDecimals,omitempty"`
	ClaimAvailable      bool         `json:"claimAvailable"`
}

func saleView(s *sale.Sale, phase sale.Phase) SaleJSON {
	return SaleJSON{
		ID:    s.ID,
		Phase: phase.String(),
		Metadata: MetadataJSON{
			Name:        s.Metadata.Name,
			Symbol:      s.Metadata.Symbol,
			Description: s.Metadata.Description,
			LogoURL:     s.Metadata.LogoURL,
			InfoURL:     s.Metadata.InfoURL,
		},
		DepositToken:        s.DepositToken,
		MinNativeDeposit:    Amount{s.MinNativeDeposit},
		MinBuy:              Amount{s.MinBuy},
		MaxBuy:              Amount{s.MaxBuy},
		MaxAmount:           Amount{s.MaxAmount},
		LimitPerTransaction: Amount{s.LimitPerTransaction},
		Price:               Amount{s.Price},
		StartTime:           s.StartTime,
		EndTime:             s.EndTime,
		TotalDeposited:      Amount{s.TotalDeposited},
		NumAccounts:         s.NumAccounts,
		DistributeToken:     s.DistributeToken,
		DistributeDecimals:  s.DistributeDecimals,
		ClaimAvailable:      s.ClaimAvailable,
	}
}

type DepositJSON struct {
	Account string `json:"account"`
	Amount  Amount `json:"amount"`
	Claimed Amount `json:"claimed"`
}

type AffiliateJSON struct {
	Account string `json:"account"`
	Amount  Amount `json:"amount"`
	Claimed Amount `json:"claimed"`
}

type LinkdropJSON struct {
	Creator    string `json:"creator"`
	Funded     Amount `json:"funded"`
	Status     string `json:"status"`
	RedeemedBy string `json:"redeemedBy,omitempty"`
}

func linkdropView(l *linkdrop.Linkdrop) LinkdropJSON {
	return LinkdropJSON{
		Creator:    l.Creator,
		Funded:     Amount{l.Funded},
		Status:     l.Status.String(),
		RedeemedBy: l.RedeemedBy,
	}
}

type EdgeJSON struct {
	Account   string `json:"account"`
	Referrer  string `json:"referrer"`
	Source    string `json:"source"`
	CreatedAt uint64 `json:"createdAt"`
}

func edgeView(e *referral.Edge) *EdgeJSON {
	if e == nil {
		return nil
	}
	return &EdgeJSON{Account: e.Account, Referrer: e.Referrer, Source: e.Source, CreatedAt: e.CreatedAt}
}

type ReferrerJSON struct {
	Found bool      `json:"found"`
	Edge  *EdgeJSON `json:"edge,omitempty"`
}

type PageJSON struct {
	From  uint64 `json:"from"`
	Limit uint64 `json:"limit"`
}

type RewardJSON struct {
	Fee    uint64 `json:"fee"`
	Reward Amount `json:"reward"`
}
