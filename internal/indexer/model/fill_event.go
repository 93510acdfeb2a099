package model

import (
	"gorm.io/datatypes"
)

// FillEventRow fill_events 表，主键 (tx_hash, log_index, batch_index, block_hash)
// 写入后除 is_deleted（重组软删）与版税字段（异步补全）外不可变
type FillEventRow struct {
	TxHash     string `gorm:"column:tx_hash;primaryKey"`
	LogIndex   uint   `gorm:"column:log_index;primaryKey"`
	BatchIndex int    `gorm:"column:batch_index;primaryKey"`
	BlockHash  string `gorm:"column:block_hash;primaryKey"`

	Address   string `gorm:"column:address;not null"`
	Block     uint64 `gorm:"column:block;not null"`
	TxIndex   uint   `gorm:"column:tx_index;not null"`
	Timestamp int64  `gorm:"column:timestamp;not null"`

	OrderKind string `gorm:"column:order_kind;not null"`
	OrderID   string `gorm:"column:order_id"`
	OrderSide string `gorm:"column:order_side;not null"`
	Maker     string `gorm:"column:maker;not null"`
	Taker     string `gorm:"column:taker;not null"`
	Contract  string `gorm:"column:contract;not null"`
	TokenID   string `gorm:"column:token_id;not null"`
	Amount    string `gorm:"column:amount;type:numeric(78,0);not null"`

	Currency      string `gorm:"column:currency;not null"`
	CurrencyPrice string `gorm:"column:currency_price;type:numeric(78,0)"`
	Price         string `gorm:"column:price;type:numeric(78,0);not null"`
	UsdPrice      string `gorm:"column:usd_price;type:numeric(78,0)"`

	OrderSource      string `gorm:"column:order_source"`
	AggregatorSource string `gorm:"column:aggregator_source"`
	FillSource       string `gorm:"column:fill_source"`
	IsMint           bool   `gorm:"column:is_mint;default:false"`

	// 版税补全字段（至多补写一次）
	RoyaltyFeeBps           *int            `gorm:"column:royalty_fee_bps"`
	MarketplaceFeeBps       *int            `gorm:"column:marketplace_fee_bps"`
	RoyaltyFeeBreakdown     *datatypes.JSON `gorm:"column:royalty_fee_breakdown"`
	MarketplaceFeeBreakdown *datatypes.JSON `gorm:"column:marketplace_fee_breakdown"`
	PaidFullRoyalty         *bool           `gorm:"column:paid_full_royalty"`
	NetAmount               *string         `gorm:"column:net_amount;type:numeric(78,0)"`

	IsDeleted bool  `gorm:"column:is_deleted;default:false"`
	CreatedAt int64 `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt int64 `gorm:"column:updated_at;autoUpdateTime"`
}

func (FillEventRow) TableName() string {
	return "fill_events"
}

// NewFillEventRow 由内存形态构造库表行
func NewFillEventRow(e *FillEvent) FillEventRow {
	return FillEventRow{
		TxHash:           e.BaseEventParams.TxHash,
		LogIndex:         e.BaseEventParams.LogIndex,
		BatchIndex:       e.BaseEventParams.BatchIndex,
		BlockHash:        e.BaseEventParams.BlockHash,
		Address:          e.BaseEventParams.Address,
		Block:            e.BaseEventParams.Block,
		TxIndex:          e.BaseEventParams.TxIndex,
		Timestamp:        e.BaseEventParams.Timestamp,
		OrderKind:        e.OrderKind,
		OrderID:          e.OrderID,
		OrderSide:        string(e.OrderSide),
		Maker:            e.Maker,
		Taker:            e.Taker,
		Contract:         e.Contract,
		TokenID:          e.TokenID,
		Amount:           e.Amount,
		Currency:         e.Currency,
		CurrencyPrice:    e.CurrencyPrice,
		Price:            e.Price,
		UsdPrice:         e.UsdPrice,
		OrderSource:      e.OrderSource,
		AggregatorSource: e.AggregatorSource,
		FillSource:       e.FillSource,
		IsMint:           e.IsMint,
	}
}

// CancelEventRow cancel_events 表
type CancelEventRow struct {
	TxHash     string `gorm:"column:tx_hash;primaryKey"`
	LogIndex   uint   `gorm:"column:log_index;primaryKey"`
	BatchIndex int    `gorm:"column:batch_index;primaryKey"`
	BlockHash  string `gorm:"column:block_hash;primaryKey"`

	Address   string `gorm:"column:address;not null"`
	Block     uint64 `gorm:"column:block;not null"`
	TxIndex   uint   `gorm:"column:tx_index;not null"`
	Timestamp int64  `gorm:"column:timestamp;not null"`

	OrderKind string `gorm:"column:order_kind;not null"`
	OrderID   string `gorm:"column:order_id;not null"`
	Maker     string `gorm:"column:maker"`

	IsDeleted bool  `gorm:"column:is_deleted;default:false"`
	CreatedAt int64 `gorm:"column:created_at;autoCreateTime"`
}

func (CancelEventRow) TableName() string {
	return "cancel_events"
}

// BulkCancelEventRow bulk_cancel_events 表
type BulkCancelEventRow struct {
	TxHash     string `gorm:"column:tx_hash;primaryKey"`
	LogIndex   uint   `gorm:"column:log_index;primaryKey"`
	BatchIndex int    `gorm:"column:batch_index;primaryKey"`
	BlockHash  string `gorm:"column:block_hash;primaryKey"`

	Address   string `gorm:"column:address;not null"`
	Block     uint64 `gorm:"column:block;not null"`
	TxIndex   uint   `gorm:"column:tx_index;not null"`
	Timestamp int64  `gorm:"column:timestamp;not null"`

	OrderKind string `gorm:"column:order_kind;not null"`
	Maker     string `gorm:"column:maker;not null"`
	MinNonce  string `gorm:"column:min_nonce;type:numeric(78,0);not null"`

	IsDeleted bool  `gorm:"column:is_deleted;default:false"`
	CreatedAt int64 `gorm:"column:created_at;autoCreateTime"`
}

func (BulkCancelEventRow) TableName() string {
	return "bulk_cancel_events"
}
