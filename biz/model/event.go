package model

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	SideBuy  = "buy"
	SideSell = "sell"
)

// TradeEvent 成交提交后推送到 Kafka / WebSocket 的消息
type TradeEvent struct {
	EventID       string          `json:"event_id"`
	TransactionID uint            `json:"transaction_id"`
	UserID        uint            `json:"user_id"`
	Side          string          `json:"side"`
	Symbol        string          `json:"symbol"`
	Name          string          `json:"name"`
	Quantity      int64           `json:"quantity"`
	Price         decimal.Decimal `json:"price"`
	Amount        decimal.Decimal `json:"amount"`
	Cash          decimal.Decimal `json:"cash"`
	Currency      string          `json:"currency"`
	CreatedOn     time.Time       `json:"created_on"`
}
