package eventdata

const (
	SubKindERC1155TransferSingle SubKind = "erc1155-transfer-single"
	SubKindERC1155TransferBatch  SubKind = "erc1155-transfer-batch"
)

func init() {
	register(
		EventData{
			Kind:      KindERC1155,
			SubKind:   SubKindERC1155TransferSingle,
			Topic:     topicOf("TransferSingle(address,address,address,uint256,uint256)"),
			NumTopics: 4,
		},
		EventData{
			Kind:      KindERC1155,
			SubKind:   SubKindERC1155TransferBatch,
			Topic:     topicOf("TransferBatch(address,address,address,uint256[],uint256[])"),
			NumTopics: 4,
		},
	)
}
