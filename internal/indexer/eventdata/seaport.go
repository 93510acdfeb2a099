package eventdata

const (
	SubKindSeaportOrderFulfilled     SubKind = "seaport-order-filled"
	SubKindSeaportOrderCancelled     SubKind = "seaport-order-cancelled"
	SubKindSeaportCounterIncremented SubKind = "seaport-counter-incremented"
)

// Seaport 1.1 主网交易所地址
const SeaportExchange = "0x00000000006c3852cbef3e08e8df289169ede581"

func init() {
	addrs := addressSet(SeaportExchange)

	register(
		EventData{
			Kind:      KindSeaport,
			SubKind:   SubKindSeaportOrderFulfilled,
			Topic:     topicOf("OrderFulfilled(bytes32,address,address,address,(uint8,address,uint256,uint256)[],(uint8,address,uint256,uint256,address)[])"),
			NumTopics: 3,
			Addresses: addrs,
		},
		EventData{
			Kind:      KindSeaport,
			SubKind:   SubKindSeaportOrderCancelled,
			Topic:     topicOf("OrderCancelled(bytes32,address,address)"),
			NumTopics: 3,
			Addresses: addrs,
		},
		EventData{
			Kind:      KindSeaport,
			SubKind:   SubKindSeaportCounterIncremented,
			Topic:     topicOf("CounterIncremented(uint256,address)"),
			NumTopics: 2,
			Addresses: addrs,
		},
	)
}
