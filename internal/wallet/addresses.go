package wallet

// Networks lists the deposit networks the platform accepts, in display order.
var Networks = []string{
	"USDT BEP20",
	"USDT ERC20",
	"Solana",
	"Ethereum",
	"BNB SmartChain",
}

var evmAddresses = []string{
	"0x330901bc8ccf6476cb6a007306a5d2956c62332f",
	"0x4ec0c6d5b98f9fc47a2a99f57e7e4e8e92682c2f",
	"0x04f3a91776e43bb59c71bb2afaf0a0d858d7ffa0",
	"0xe5e310431c70a968b72b2824a71ec17224f7cd36",
	"0xd581d94e502ef97fc86b6d7bf1cba75a2c648b68",
	"0x7b578382aad4f75eeb9b08562f4949ef338c3ea9",
	"0x04c6e95e6401e1be9ab6e1c6dfaaebfeb9c9aaa6",
	"0xffd403586721ed290a44789dfc6cdb3fb97d4fd8",
	"0x2031fe72f90f288402d6cf314465e9b9dc9ed5f9",
	"0xdf86438b45043cac8322ab640c3b469d6e0cf957",
	"0x2c4065c01719234225320ca06c4601bc804eba0c",
	"0x305744150872cd3d6e4b1dae5a63d021d1ea4446",
	"0xed6599dbb67c3a19718a6d28d8790a31519d399b",
	"0x4748dd0ce03b06ee02e6a5df4367e4c9e4c4b862",
	"0xd480edb456756967705d2e26dbf184445d7c0938",
	"0xea58f94a7cc15c7889790a1a18c239ea72a6e547",
	"0xa610e35baaa56950fd0de26dd3d4b1b101a350af",
	"0x31514d9fc3dc02b53bdd093346fd2c4e7b36997c",
	"0x636ab4ec55961f8ca0ed418fa1481f3ddf090704",
	"0xabaa1040a2d07fa7a9996b71a9c8ba7362191cbc",
}

var solanaAddresses = []string{
	"2nGvFch9BGccSe3Xi8Pj7YuMti17dtWBaaeEJJrHoyhh",
	"8gB7aMRedkJ3qzT6vpdw4nUHCzP2dgMUrTf3dP7amrLR",
	"CuJNKvLXEKTeVXd9JxdWAovRRneVYuyFtdgXTvMps1nx",
	"8QpPjcp6AYuxx7t5B8Zc1vnCnux52r25KUkWsQzSunUA",
	"gb3BDYKUUekLjhJeVD9ymEjM1ioaDZtoofqpnQg9QQL",
	"Ex6TiDeoZ259uF9eL25gM1RaWWGpH1Y1r4pboacbbtve",
	"AZ2H2DJyFA6j9XkzGkxjxAWVieEhAuzf6pL4yhtJScbD",
	"G3Jz8CbE9faNFntV3axDcp8ysZzaGnabaJ8TwdDCJj2q",
	"E7p8BKAYHEae3gT1WDgJGEFowvMw2ct1TRQCJRNuNoS7",
	"4bYjmHk4d31MwuBP46WbnkKQ5A8v2qcs6mmLN3c6iaqM",
	"Gf7PaeEKzWKNBRavhT3Naq3g4vjt1xFRrpUYRrGo2ExR",
	"5Z8sZL7nAwzRGV6WVn4u92uWCmvowaEEtKpoQ6hpn7yE",
	"EJBWbYWmrpF82r5ecx2TAD1HYhdPBLXWDARhQEp67htk",
	"J6vE7JWrrwz5ohaaXKj7ip4LCje6bqXFLLk1oYsxEzVm",
	"BVyF6raJJ9ZqcSKZSTGcRxkYyxhZSALjas1DqX9tGktN",
	"915CCxqqGuByF9bm28WDCH3SnSHKAPgZAQ1743sxFWHi",
	"FCPVJPTkGp7r4MCtGS42ZjUSEHsUrcmwujBneAiVXAv9",
	"J5y2QkNGPi7r4YAxEwLR1CQzpak9DNAMhKzywQE2mbc1",
	"E415hckrRyzkHxCYBNbddLCT2hBhPYogEjnhZdhQ8ky",
	"4JVxpWHGQ3BZ9Qib2zrKGbdip5QEhYrMGZzR8U3tZq3x",
}

// DefaultAddresses maps each network to its fixed deposit address pool. The
// EVM networks share one key set; Solana has its own.
func DefaultAddresses() map[string][]string {
	pools := make(map[string][]string, len(Networks))
	for _, network := range Networks {
		if network == "Solana" {
			pools[network] = append([]string(nil), solanaAddresses...)
			continue
		}
		pools[network] = append([]string(nil), evmAddresses...)
	}
	return pools
}
