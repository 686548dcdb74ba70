package linkdrop

func linkdropKey(token string) []byte {
	return []byte("linkdrop/" + token)
}
