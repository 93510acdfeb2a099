package model

// OrderSide 订单方向
type OrderSide string

const (
	OrderSideBuy  OrderSide = "buy"
	OrderSideSell OrderSide = "sell"
)

// BaseEventParams 唯一标识一条链上事件的来源
// (tx_hash, log_index, batch_index, block_hash) 为天然去重键
type BaseEventParams struct {
	Address    string `json:"address"`
	Block      uint64 `json:"block"`
	BlockHash  string `json:"blockHash"`
	TxHash     string `json:"txHash"`
	TxIndex    uint   `json:"txIndex"`
	LogIndex   uint   `json:"logIndex"`
	BatchIndex int    `json:"batchIndex"`
	Timestamp  int64  `json:"timestamp"`
}

// WithBatchIndex 复制一份参数并覆盖batchIndex，一条日志展开多笔成交时使用
func (p BaseEventParams) WithBatchIndex(i int) BaseEventParams {
	p.BatchIndex = i
	return p
}

// FillEvent 规范化成交事件（写库前的内存形态）
type FillEvent struct {
	OrderKind        string    `json:"orderKind"`
	OrderID          string    `json:"orderId"`
	OrderSide        OrderSide `json:"orderSide"`
	Maker            string    `json:"maker"`
	Taker            string    `json:"taker"`
	Contract         string    `json:"contract"`
	TokenID          string    `json:"tokenId"`
	Amount           string    `json:"amount"`
	Currency         string    `json:"currency"`
	CurrencyPrice    string    `json:"currencyPrice"`
	Price            string    `json:"price"`    // 原生币计价单价
	UsdPrice         string    `json:"usdPrice"` // 可能为空（USD样本缺失）
	OrderSource      string    `json:"orderSource"`
	AggregatorSource string    `json:"aggregatorSource"`
	FillSource       string    `json:"fillSource"`
	IsMint           bool      `json:"isMint"`

	BaseEventParams BaseEventParams `json:"baseEventParams"`
}

// CancelEvent 单笔订单取消
type CancelEvent struct {
	OrderKind       string          `json:"orderKind"`
	OrderID         string          `json:"orderId"`
	Maker           string          `json:"maker"`
	BaseEventParams BaseEventParams `json:"baseEventParams"`
}

// BulkCancelEvent 按nonce批量取消：maker所有nonce低于MinNonce的订单隐式失效，
// 由有效性检查器在下次读取时判定，不做即时写库
type BulkCancelEvent struct {
	OrderKind       string          `json:"orderKind"`
	Maker           string          `json:"maker"`
	MinNonce        string          `json:"minNonce"`
	BaseEventParams BaseEventParams `json:"baseEventParams"`
}

// OrderInfo 触发订单状态重算的提示
type OrderInfo struct {
	Context string `json:"context"`
	ID      string `json:"id"`
	TxHash  string `json:"txHash"`
	TxTime  int64  `json:"txTimestamp"`
}

// MintInfo 铸造提示（供下游token索引消费）
type MintInfo struct {
	Contract string `json:"contract"`
	TokenID  string `json:"tokenId"`
}
