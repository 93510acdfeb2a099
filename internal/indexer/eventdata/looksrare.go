package eventdata

const (
	SubKindLooksRareTakerAsk             SubKind = "looks-rare-taker-ask"
	SubKindLooksRareTakerBid             SubKind = "looks-rare-taker-bid"
	SubKindLooksRareCancelAllOrders      SubKind = "looks-rare-cancel-all-orders"
	SubKindLooksRareCancelMultipleOrders SubKind = "looks-rare-cancel-multiple-orders"
)

// LooksRare 主网交易所地址
const LooksRareExchange = "0x59728544b08ab483533076417fbbb2fd0b17ce3a"

func init() {
	addrs := addressSet(LooksRareExchange)

	register(
		EventData{
			Kind:      KindLooksRare,
			SubKind:   SubKindLooksRareTakerAsk,
			Topic:     topicOf("TakerAsk(bytes32,uint256,address,address,address,address,address,uint256,uint256,uint256)"),
			NumTopics: 4,
			Addresses: addrs,
		},
		EventData{
			Kind:      KindLooksRare,
			SubKind:   SubKindLooksRareTakerBid,
			Topic:     topicOf("TakerBid(bytes32,uint256,address,address,address,address,address,uint256,uint256,uint256)"),
			NumTopics: 4,
			Addresses: addrs,
		},
		EventData{
			Kind:      KindLooksRare,
			SubKind:   SubKindLooksRareCancelAllOrders,
			Topic:     topicOf("CancelAllOrders(address,uint256)"),
			NumTopics: 2,
			Addresses: addrs,
		},
		EventData{
			Kind:      KindLooksRare,
			SubKind:   SubKindLooksRareCancelMultipleOrders,
			Topic:     topicOf("CancelMultipleOrders(address,uint256[])"),
			NumTopics: 2,
			Addresses: addrs,
		},
	)
}
