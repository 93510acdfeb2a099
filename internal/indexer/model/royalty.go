package model

// RoyaltyDefinition royalty_definitions 表，合约级默认版税（可多接收人）
type RoyaltyDefinition struct {
	Contract  string `gorm:"column:contract;primaryKey"`
	Recipient string `gorm:"column:recipient;primaryKey"`
	Bps       int    `gorm:"column:bps;not null"`
}

func (RoyaltyDefinition) TableName() string {
	return "royalty_definitions"
}

// FeeItem 费用拆解条目，序列化进fill_events的breakdown字段
type FeeItem struct {
	Recipient string `json:"recipient"`
	Bps       int    `json:"bps"`
}
