package referral

func edgeKey(account string) []byte {
	return []byte("referral/edge/" + account)
}

func listKey(referrer string) []byte {
	return []byte("referral/list/" + referrer)
}

func countKey(referrer string) []byte {
	return []byte("referral/count/" + referrer)
}
