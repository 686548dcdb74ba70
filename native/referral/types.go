package referral

// Source records how an account entered the referral graph.
type Source string

const (
	SourceLinkdrop Source = "linkdrop"
	SourceJoin     Source = "join"
)

// Edge attributes a newly created account to the account that brought it in.
// Edges are written once and never change.
type Edge struct {
	Account   string
	Referrer  string
	Source    string
	CreatedAt uint64
}
