package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"finance-hertz/biz/dal/pg"
	"finance-hertz/biz/engine"
	"finance-hertz/biz/model"
	"finance-hertz/biz/quote"

	"github.com/shopspring/decimal"
)

// Valuation 持仓估值：按股票聚合流水，拉取现价，计算均价、市值、涨跌幅与总资产
type Valuation struct {
	store     *pg.Store
	quotes    quote.Provider
	pool      *engine.Pool
	precision int32
	currency  string
}

func NewValuation(store *pg.Store, quotes quote.Provider, pool *engine.Pool, precision int32, currency string) *Valuation {
	return &Valuation{
		store:     store,
		quotes:    quotes,
		pool:      pool,
		precision: precision,
		currency:  currency,
	}
}

// AggregatePositions 按 stock 汇总数量与成本，不做过滤，结果按 symbol 排序
// 没有 stock 的流水（入金）不参与
func AggregatePositions(txs []model.Transaction) []model.Position {
	byStock := make(map[uint]*model.Position)
	for _, t := range txs {
		if t.StockID == nil {
			continue
		}
		p, ok := byStock[*t.StockID]
		if !ok {
			p = &model.Position{StockID: *t.StockID, Cost: decimal.Zero}
			if t.Stock != nil {
				p.Symbol = t.Stock.Symbol
				p.Name = t.Stock.Name
			}
			byStock[*t.StockID] = p
		}
		p.Quantity += t.Quantity
		p.Cost = p.Cost.Add(t.Amount)
	}
	positions := make([]model.Position, 0, len(byStock))
	for _, p := range byStock {
		positions = append(positions, *p)
	}
	sortPositions(positions)
	return positions
}

func sortPositions(positions []model.Position) {
	sort.Slice(positions, func(i, j int) bool {
		if positions[i].Symbol != positions[j].Symbol {
			return positions[i].Symbol < positions[j].Symbol
		}
		return positions[i].StockID < positions[j].StockID
	})
}

// Evaluate 单只股票估值；均价为 0 时涨跌幅记 0，方向记 equal
func Evaluate(p model.Position, price decimal.Decimal, precision int32) model.Holding {
	qty := decimal.NewFromInt(p.Quantity)
	h := model.Holding{
		Symbol:       p.Symbol,
		Name:         p.Name,
		Quantity:     p.Quantity,
		Cost:         p.Cost,
		CurrentPrice: price,
		Value:        qty.Mul(price),
		Variation:    decimal.Zero,
		Indicator:    model.IndicatorEqual,
	}
	if p.Quantity <= 0 {
		h.AveragePrice = decimal.Zero
		return h
	}
	h.AveragePrice = p.Cost.Div(qty)
	if h.AveragePrice.IsZero() {
		return h
	}
	h.Variation = price.Sub(h.AveragePrice).Div(h.AveragePrice)
	switch price.Round(precision).Cmp(h.AveragePrice.Round(precision)) {
	case 1:
		h.Indicator = model.IndicatorAbove
	case -1:
		h.Indicator = model.IndicatorBelow
	}
	return h
}

// Portfolio 读取用户现金与流水并估值，只读
func (v *Valuation) Portfolio(ctx context.Context, userID uint) (*model.Portfolio, error) {
	user, err := v.store.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	txs, err := v.store.ListUserTransactions(ctx, userID)
	if err != nil {
		return nil, err
	}
	return v.Value(ctx, user.Cash, AggregatePositions(txs))
}

// Value 对净数量大于 0 的持仓并发拉取现价；任一报价失败按 symbol not found 返回
func (v *Valuation) Value(ctx context.Context, cash decimal.Decimal, positions []model.Position) (*model.Portfolio, error) {
	held := make([]model.Position, 0, len(positions))
	for _, p := range positions {
		if p.Quantity > 0 {
			held = append(held, p)
		}
	}
	sortPositions(held)

	quotes := make([]model.Quote, len(held))
	errs := make([]error, len(held))
	var wg sync.WaitGroup
	for i := range held {
		i := i
		wg.Add(1)
		v.pool.Go(func() {
			defer wg.Done()
			quotes[i], errs[i] = v.quotes.Lookup(ctx, held[i].Symbol)
		})
	}
	wg.Wait()

	portfolio := &model.Portfolio{
		Holdings:   make([]model.Holding, 0, len(held)),
		Cash:       cash,
		GrandTotal: cash,
		Currency:   v.currency,
	}
	for i, p := range held {
		if errs[i] != nil {
			return nil, fmt.Errorf("%w: %s", ErrSymbolNotFound, p.Symbol)
		}
		h := Evaluate(p, quotes[i].Price, v.precision)
		portfolio.Holdings = append(portfolio.Holdings, h)
		portfolio.GrandTotal = portfolio.GrandTotal.Add(h.Value)
	}
	return portfolio, nil
}

// Holding 按 symbol 汇总估值后的持仓行；显示名变更后同一 symbol 可能有多行
func (v *Valuation) Holding(p *model.Portfolio, symbol string) (model.Holding, bool) {
	var (
		merged model.Position
		price  decimal.Decimal
		found  bool
	)
	for _, h := range p.Holdings {
		if !strings.EqualFold(h.Symbol, symbol) {
			continue
		}
		if !found {
			merged = model.Position{Symbol: h.Symbol, Cost: decimal.Zero}
			price = h.CurrentPrice
			found = true
		}
		// 同 symbol 内按 stock id 升序，取最新的显示名
		merged.Name = h.Name
		merged.Quantity += h.Quantity
		merged.Cost = merged.Cost.Add(h.Cost)
	}
	if !found {
		return model.Holding{}, false
	}
	return Evaluate(merged, price, v.precision), true
}
