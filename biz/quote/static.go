package quote

import (
	"context"
	"sync"

	"finance-hertz/biz/model"
	"finance-hertz/conf"

	"github.com/shopspring/decimal"
)

// StaticProvider 固定价格表，用于本地开发与测试
type StaticProvider struct {
	mu     sync.RWMutex
	quotes map[string]model.Quote
}

func NewStaticProvider(table map[string]conf.StaticQuote) *StaticProvider {
	p := &StaticProvider{quotes: make(map[string]model.Quote, len(table))}
	for symbol, q := range table {
		p.Set(symbol, q.Name, decimal.NewFromFloat(q.Price))
	}
	return p
}

// Set 设置或覆盖某个 symbol 的报价
func (p *StaticProvider) Set(symbol, name string, price decimal.Decimal) {
	symbol = NormalizeSymbol(symbol)
	p.mu.Lock()
	p.quotes[symbol] = model.Quote{Symbol: symbol, Name: name, Price: price}
	p.mu.Unlock()
}

func (p *StaticProvider) Remove(symbol string) {
	p.mu.Lock()
	delete(p.quotes, NormalizeSymbol(symbol))
	p.mu.Unlock()
}

func (p *StaticProvider) Lookup(_ context.Context, symbol string) (model.Quote, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	q, ok := p.quotes[NormalizeSymbol(symbol)]
	if !ok {
		return model.Quote{}, ErrNotFound
	}
	return q, nil
}
