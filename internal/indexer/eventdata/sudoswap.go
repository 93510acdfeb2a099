package eventdata

const (
	// SubKindSudoswapBuy 用户从池子买NFT（池子卖出）
	SubKindSudoswapBuy SubKind = "sudoswap-buy"
	// SubKindSudoswapSell 用户把NFT卖进池子（池子买入）
	SubKindSudoswapSell SubKind = "sudoswap-sell"
)

func init() {
	// 池子由工厂创建，地址不可枚举，不做地址过滤。
	// 事件本身无参数，成交细节全部从交易trace还原
	register(
		EventData{
			Kind:      KindSudoswap,
			SubKind:   SubKindSudoswapBuy,
			Topic:     topicOf("SwapNFTOutPair()"),
			NumTopics: 1,
		},
		EventData{
			Kind:      KindSudoswap,
			SubKind:   SubKindSudoswapSell,
			Topic:     topicOf("SwapNFTInPair()"),
			NumTopics: 1,
		},
	)
}
