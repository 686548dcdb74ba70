package referral

const EventTypeReferralRecorded = "referral.recorded"

type ReferralRecorded struct {
	Account  string
	Referrer string
	Source   string
}

func (ReferralRecorded) EventType() string { return EventTypeReferralRecorded }

func (e ReferralRecorded) Attributes() map[string]string {
	return map[string]string{
		"account":  e.Account,
		"referrer": e.Referrer,
		"source":   e.Source,
	}
}
