package model

// Block blocks 表，本地已入库区块的规范视图，重组检查的对照基准
type Block struct {
	Number    uint64 `gorm:"column:number;primaryKey"`
	Hash      string `gorm:"column:hash;primaryKey"`
	Timestamp int64  `gorm:"column:timestamp;not null"`
}

func (Block) TableName() string {
	return "blocks"
}
