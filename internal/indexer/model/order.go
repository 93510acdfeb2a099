package model

// FillabilityStatus 订单生命周期状态
type FillabilityStatus string

const (
	StatusFillable  FillabilityStatus = "fillable"
	StatusNoBalance FillabilityStatus = "no-balance"
	StatusFilled    FillabilityStatus = "filled"
	StatusCancelled FillabilityStatus = "cancelled"
	StatusExpired   FillabilityStatus = "expired"
)

// Order orders 表。状态只朝终态（filled/cancelled/expired）单调前进，
// 仅 reprice/revalidation 触发时可回到 fillable；
// 因果序更旧的写入（对比 valid_from/block_number/log_index）必须被拒绝
type Order struct {
	ID   string `gorm:"column:id;primaryKey"`
	Kind string `gorm:"column:kind;not null"`
	Side string `gorm:"column:side;not null"`

	FillabilityStatus string `gorm:"column:fillability_status;not null;default:fillable"`
	QuantityFilled    string `gorm:"column:quantity_filled;type:numeric(78,0);default:0"`
	QuantityRemaining string `gorm:"column:quantity_remaining;type:numeric(78,0);default:1"`

	Maker    string `gorm:"column:maker;not null"`
	Taker    string `gorm:"column:taker"`
	Contract string `gorm:"column:contract;not null"`
	TokenID  string `gorm:"column:token_id"`
	Currency string `gorm:"column:currency"`
	Price    string `gorm:"column:price;type:numeric(78,0)"`
	Amount   string `gorm:"column:amount;type:numeric(78,0);default:1"`
	Nonce    string `gorm:"column:nonce;type:numeric(78,0)"`

	ValidFrom  int64 `gorm:"column:valid_from"`
	ValidUntil int64 `gorm:"column:valid_until"` // 0 表示不过期

	BlockNumber uint64 `gorm:"column:block_number"`
	LogIndex    uint   `gorm:"column:log_index"`

	Source    string `gorm:"column:source"`
	CreatedAt int64  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt int64  `gorm:"column:updated_at;autoUpdateTime"`
}

func (Order) TableName() string {
	return "orders"
}

// TokenKind NFT合约标准分类
type TokenKind string

const (
	TokenKindERC721  TokenKind = "erc721"
	TokenKindERC1155 TokenKind = "erc1155"
)

// Contract contracts 表，记录合约的token标准分类
type Contract struct {
	Address string `gorm:"column:address;primaryKey"`
	Kind    string `gorm:"column:kind;not null"`
}

func (Contract) TableName() string {
	return "contracts"
}
