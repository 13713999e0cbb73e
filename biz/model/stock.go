package model

// Stock 股票主数据，首次买入时创建，按显示名去重
type Stock struct {
	ID     uint   `gorm:"primaryKey" json:"id"`
	Symbol string `gorm:"column:stock;size:16;index;not null" json:"symbol"`
	Name   string `gorm:"size:128;uniqueIndex;not null" json:"name"`
}

func (Stock) TableName() string {
	return "stocks"
}
