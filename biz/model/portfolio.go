package model

import "github.com/shopspring/decimal"

// Indicator 现价相对持仓均价的方向
type Indicator string

const (
	IndicatorAbove Indicator = "above"
	IndicatorEqual Indicator = "equal"
	IndicatorBelow Indicator = "below"
)

// Position 由流水聚合出的持仓，不落库
type Position struct {
	StockID  uint
	Symbol   string
	Name     string
	Quantity int64
	Cost     decimal.Decimal
}

// Holding 估值后的一行持仓
type Holding struct {
	Symbol       string          `json:"symbol"`
	Name         string          `json:"name"`
	Quantity     int64           `json:"quantity"`
	Cost         decimal.Decimal `json:"cost"`
	AveragePrice decimal.Decimal `json:"average_price"`
	CurrentPrice decimal.Decimal `json:"current_price"`
	Value        decimal.Decimal `json:"value"`
	Variation    decimal.Decimal `json:"variation"`
	Indicator    Indicator       `json:"indicator"`
}

type Portfolio struct {
	Holdings   []Holding       `json:"holdings"`
	Cash       decimal.Decimal `json:"cash"`
	GrandTotal decimal.Decimal `json:"grand_total"`
	Currency   string          `json:"currency"`
}
