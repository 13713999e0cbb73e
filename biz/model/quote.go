package model

import "github.com/shopspring/decimal"

// Quote 报价源返回的实时报价
type Quote struct {
	Symbol string          `json:"symbol"`
	Name   string          `json:"name"`
	Price  decimal.Decimal `json:"price"`
}
