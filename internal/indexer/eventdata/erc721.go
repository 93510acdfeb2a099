package eventdata

const (
	SubKindERC721Transfer SubKind = "erc721-transfer"
)

func init() {
	register(EventData{
		Kind:      KindERC721,
		SubKind:   SubKindERC721Transfer,
		Topic:     topicOf("Transfer(address,address,uint256)"),
		NumTopics: 4, // erc20的Transfer同签名但tokenId不在topic里，靠topic数区分
	})
}
