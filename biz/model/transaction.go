package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// MoneyScale 金额列 numeric(20,4) 的小数位，价格入库前按此取整
const MoneyScale int32 = 4

// Transaction 只追加的流水，买入 quantity>0，卖出 quantity<0
// amount = quantity * price，符号与方向一致
// StockID 仅在注册时的隐藏入金记录中为空
type Transaction struct {
	ID        uint            `gorm:"primaryKey" json:"id"`
	CreatedOn time.Time       `gorm:"column:created_on;autoCreateTime;index" json:"created_on"`
	StockID   *uint           `gorm:"index" json:"stock_id"`
	UserID    uint            `gorm:"index;not null" json:"user_id"`
	Quantity  int64           `gorm:"not null" json:"quantity"`
	Price     decimal.Decimal `gorm:"type:numeric(20,4);not null" json:"price"`
	Amount    decimal.Decimal `gorm:"type:numeric(20,4);not null" json:"amount"`
	Currency  string          `gorm:"size:8;not null" json:"currency"`
	Visible   bool            `gorm:"not null" json:"visible"`

	User  User   `gorm:"constraint:OnDelete:RESTRICT" json:"-"`
	Stock *Stock `gorm:"constraint:OnDelete:RESTRICT" json:"-"`
}

func (Transaction) TableName() string {
	return "transactions"
}

// HistoryRow 历史页展示的一行流水
type HistoryRow struct {
	ID        uint            `json:"id"`
	CreatedOn time.Time       `json:"created_on"`
	Symbol    string          `json:"symbol"`
	Name      string          `json:"name"`
	Quantity  int64           `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
	Amount    decimal.Decimal `json:"amount"`
	Currency  string          `json:"currency"`
}
