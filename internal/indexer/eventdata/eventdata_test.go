package eventdata

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nft-indexer/internal/indexer/model"
)

func TestMatchAll_TopicAndCount(t *testing.T) {
	log := &model.RawLog{
		Address: "0x1111111111111111111111111111111111111111",
		Topics: []string{
			topicOf("Transfer(address,address,uint256)").Hex(),
			"0x0000000000000000000000000000000000000000000000000000000000000000",
			"0x000000000000000000000000a1b2c3d4e5f6a1b2c3d4e5f6a1b2c3d4e5f6a1b2",
			"0x0000000000000000000000000000000000000000000000000000000000000001",
		},
	}

	matched := MatchAll(log)
	require.Len(t, matched, 1)
	assert.Equal(t, SubKindERC721Transfer, matched[0].SubKind)

	// 少一个topic就是erc20形态的Transfer，没有注册描述符，不该命中erc721
	log.Topics = log.Topics[:3]
	assert.Empty(t, MatchAll(log))
}

func TestMatchAll_AddressFilter(t *testing.T) {
	topics := []string{
		topicOf("TakerBid(bytes32,uint256,address,address,address,address,address,uint256,uint256,uint256)").Hex(),
		"0x0000000000000000000000000000000000000000000000000000000000000001",
		"0x0000000000000000000000000000000000000000000000000000000000000002",
		"0x0000000000000000000000000000000000000000000000000000000000000003",
	}

	// 合约地址不在过滤集合内，不命中
	log := &model.RawLog{
		Address: "0x2222222222222222222222222222222222222222",
		Topics:  topics,
	}
	assert.Empty(t, MatchAll(log))

	// 正确的交易所地址，大小写不敏感
	log.Address = "0x59728544B08AB483533076417FBBB2FD0B17CE3A"
	matched := MatchAll(log)
	require.Len(t, matched, 1)
	assert.Equal(t, SubKindLooksRareTakerBid, matched[0].SubKind)
}

func TestMatchAll_ReturnsAllAmbiguousMatches(t *testing.T) {
	// 临时注册一个与sudoswap-buy同签名的描述符，模拟协议间topic冲突：
	// 匹配必须把两个都返回，由处理器自行甄别
	register(EventData{
		Kind:      Kind("sudoswap-v2"),
		SubKind:   SubKind("sudoswap-v2-buy"),
		Topic:     topicOf("SwapNFTOutPair()"),
		NumTopics: 1,
	})
	defer func() { registry = registry[:len(registry)-1] }()

	log := &model.RawLog{
		Address: "0x3333333333333333333333333333333333333333",
		Topics:  []string{topicOf("SwapNFTOutPair()").Hex()},
	}

	matched := MatchAll(log)
	require.Len(t, matched, 2)
	subKinds := []SubKind{matched[0].SubKind, matched[1].SubKind}
	assert.Contains(t, subKinds, SubKindSudoswapBuy)
	assert.Contains(t, subKinds, SubKind("sudoswap-v2-buy"))
}

func TestMatchAll_NoTopics(t *testing.T) {
	assert.Empty(t, MatchAll(&model.RawLog{Address: "0x01"}))
}

func TestTopicFilter_Deduplicates(t *testing.T) {
	topics := TopicFilter()
	seen := make(map[string]bool)
	for _, topic := range topics {
		assert.False(t, seen[topic.Hex()], "duplicate topic %s", topic.Hex())
		seen[topic.Hex()] = true
	}
	assert.NotEmpty(t, topics)
}
