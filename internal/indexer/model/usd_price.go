package model

// UsdPrice usd_prices 表，按(currency, day)追加，同一天至多一条权威样本
type UsdPrice struct {
	Currency  string `gorm:"column:currency;primaryKey"`
	Timestamp int64  `gorm:"column:timestamp;primaryKey"` // 截断到当天零点的unix秒
	Value     string `gorm:"column:value;type:numeric(78,0);not null"` // 6位小数定点USD价
}

func (UsdPrice) TableName() string {
	return "usd_prices"
}

// Currency currencies 表，币种元数据
type Currency struct {
	Contract    string `gorm:"column:contract;primaryKey"`
	Symbol      string `gorm:"column:symbol"`
	Decimals    *int   `gorm:"column:decimals"`
	CoingeckoID string `gorm:"column:coingecko_id"`
}

func (Currency) TableName() string {
	return "currencies"
}
