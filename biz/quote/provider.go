// Package quote 实时报价源：HTTP 报价接口、Redis 缓存装饰与静态价格表
package quote

import (
	"context"
	"errors"
	"strings"

	"finance-hertz/biz/model"
)

// ErrNotFound 报价源没有该 symbol；网络错误、超时、非 200 一律按此处理
var ErrNotFound = errors.New("symbol not found")

type Provider interface {
	Lookup(ctx context.Context, symbol string) (model.Quote, error)
}

// NormalizeSymbol 去空格并转大写
func NormalizeSymbol(symbol string) string {
	return strings.ToUpper(strings.TrimSpace(symbol))
}
