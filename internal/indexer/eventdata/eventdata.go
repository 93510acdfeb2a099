package eventdata

import (
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"

	"nft-indexer/internal/indexer/model"
)

// Kind 协议种类
type Kind string

const (
	KindERC721    Kind = "erc721"
	KindERC1155   Kind = "erc1155"
	KindSeaport   Kind = "seaport"
	KindLooksRare Kind = "looks-rare"
	KindSudoswap  Kind = "sudoswap"
	KindZora      Kind = "zora"
)

// SubKind 协议内的具体事件
type SubKind string

// EventData 事件描述符：topic签名 + topic数量 + 可选地址过滤。
// 同一条日志允许命中多个描述符（协议可能为版本化事件定义重叠描述符），
// 匹配结果必须全部派发
type EventData struct {
	Kind      Kind
	SubKind   SubKind
	Topic     common.Hash
	NumTopics int
	Addresses map[common.Address]bool
}

func topicOf(signature string) common.Hash {
	return crypto.Keccak256Hash([]byte(signature))
}

func addressSet(addrs ...string) map[common.Address]bool {
	set := make(map[common.Address]bool, len(addrs))
	for _, a := range addrs {
		set[common.HexToAddress(a)] = true
	}
	return set
}

var registry []EventData

func register(eventDatas ...EventData) {
	registry = append(registry, eventDatas...)
}

// All 返回全部已注册描述符
func All() []EventData {
	out := make([]EventData, len(registry))
	copy(out, registry)
	return out
}

// MatchAll 返回与日志匹配的所有描述符：topic0、topic数量、地址过滤三者都须满足。
// 纯函数，无副作用
func MatchAll(log *model.RawLog) []EventData {
	if len(log.Topics) == 0 {
		return nil
	}
	topic0 := common.HexToHash(log.Topics[0])
	address := common.HexToAddress(log.Address)

	var matched []EventData
	for _, ed := range registry {
		if ed.Topic != topic0 {
			continue
		}
		if len(log.Topics) != ed.NumTopics {
			continue
		}
		if ed.Addresses != nil && !ed.Addresses[address] {
			continue
		}
		matched = append(matched, ed)
	}
	return matched
}

// TopicFilter 所有描述符去重后的topic列表，给上游getLogs过滤用
func TopicFilter() []common.Hash {
	seen := make(map[common.Hash]bool)
	var topics []common.Hash
	for _, ed := range registry {
		if !seen[ed.Topic] {
			seen[ed.Topic] = true
			topics = append(topics, ed.Topic)
		}
	}
	return topics
}

// NormalizeHex 统一小写，比较/入库前调用
func NormalizeHex(s string) string {
	return strings.ToLower(s)
}
