package eventdata

const (
	SubKindZoraAskFilled   SubKind = "zora-ask-filled"
	SubKindZoraAskCanceled SubKind = "zora-ask-canceled"
)

// Zora V3 Asks 模块主网地址
const ZoraAsksV11 = "0x6170b3c3a54c3d8c854934cbc314ed479b2b29a3"

func init() {
	addrs := addressSet(ZoraAsksV11)

	register(
		EventData{
			Kind:      KindZora,
			SubKind:   SubKindZoraAskFilled,
			Topic:     topicOf("AskFilled(address,uint256,address,address,(address,address,address,uint16,uint256))"),
			NumTopics: 4,
			Addresses: addrs,
		},
		EventData{
			Kind:      KindZora,
			SubKind:   SubKindZoraAskCanceled,
			Topic:     topicOf("AskCanceled(address,uint256,(address,address,address,uint16,uint256))"),
			NumTopics: 3,
			Addresses: addrs,
		},
	)
}
