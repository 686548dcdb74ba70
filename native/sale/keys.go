package sale

import "strconv"

var saleCountKey = []byte("sale/count")

func saleKey(id uint64) []byte {
	return []byte("sale/" + strconv.FormatUint(id, 10))
}

func depositKey(id uint64, account string) []byte {
	return []byte("sale/" + strconv.FormatUint(id, 10) + "/deposit/" + account)
}

func accountIndexKey(id uint64) []byte {
	return []byte("sale/" + strconv.FormatUint(id, 10) + "/accounts")
}

func affiliateKey(id uint64, account string) []byte {
	return []byte("sale/" + strconv.FormatUint(id, 10) + "/affiliate/" + account)
}
