package model

// RawLog 上游日志源推送的原始日志（kafka消息内的最小形态）
type RawLog struct {
	Address  string   `json:"address"`
	Topics   []string `json:"topics"`
	Data     string   `json:"data"` // 0x前缀hex
	TxHash   string   `json:"txHash"`
	TxIndex  uint     `json:"txIndex"`
	LogIndex uint     `json:"logIndex"`
	Removed  bool     `json:"removed"`
}

// LogBatch 一个区块范围的日志批次。外部任务框架按至少一次投递，
// 处理方必须可整批重放（幂等）
type LogBatch struct {
	FromBlock       uint64            `json:"fromBlock"`
	ToBlock         uint64            `json:"toBlock"`
	Backfill        bool              `json:"backfill"`
	BlockHashes     map[uint64]string `json:"blockHashes"`
	BlockTimestamps map[uint64]int64  `json:"blockTimestamps"`
	Blocks          map[string]uint64 `json:"blocks"` // blockHash -> number
	Logs            []RawLogWithBlock `json:"logs"`
}

// RawLogWithBlock 带区块定位信息的日志
type RawLogWithBlock struct {
	RawLog
	Block     uint64 `json:"block"`
	BlockHash string `json:"blockHash"`
	Timestamp int64  `json:"timestamp"`
}

// BaseParams 解析日志的链上定位参数，batchIndex默认1
func (l *RawLogWithBlock) BaseParams() BaseEventParams {
	return BaseEventParams{
		Address:    l.Address,
		Block:      l.Block,
		BlockHash:  l.BlockHash,
		TxHash:     l.TxHash,
		TxIndex:    l.TxIndex,
		LogIndex:   l.LogIndex,
		BatchIndex: 1,
		Timestamp:  l.Timestamp,
	}
}
