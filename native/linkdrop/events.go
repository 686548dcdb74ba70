package linkdrop

import "math/big"

const (
	EventTypeLinkdropIssued   = "linkdrop.issued"
	EventTypeLinkdropRedeemed = "linkdrop.redeemed"
)

// Events carry only a fingerprint of the token, never the token itself.
type LinkdropIssued struct {
	Fingerprint string
	Creator     string
	Funded      *big.Int
}

func (LinkdropIssued) EventType() string { return EventTypeLinkdropIssued }

func (e LinkdropIssued) Attributes() map[string]string {
	funded := "0"
	if e.Funded != nil {
		funded = e.Funded.String()
	}
	return map[string]string{
		"token":   e.Fingerprint,
		"creator": e.Creator,
		"funded":  funded,
	}
}

type LinkdropRedeemed struct {
	Fingerprint string
	Creator     string
	Account     string
}

func (LinkdropRedeemed) EventType() string { return EventTypeLinkdropRedeemed }

func (e LinkdropRedeemed) Attributes() map[string]string {
	return map[string]string{
		"token":   e.Fingerprint,
		"creator": e.Creator,
		"account": e.Account,
	}
}
