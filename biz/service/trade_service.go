package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"finance-hertz/biz/dal/pg"
	"finance-hertz/biz/logger"
	"finance-hertz/biz/model"
	"finance-hertz/biz/quote"
	"finance-hertz/util"

	"github.com/cloudwego/hertz/pkg/common/hlog"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// TradeService 买卖下单：校验余额/持仓，写流水并更新现金，同一事务内完成
type TradeService struct {
	store     *pg.Store
	quotes    quote.Provider
	valuation *Valuation
	index     *SymbolIndex
	events    Publisher
	currency  string
}

func NewTradeService(store *pg.Store, quotes quote.Provider, valuation *Valuation, index *SymbolIndex, events Publisher, currency string) *TradeService {
	if events == nil {
		events = noopPublisher{}
	}
	return &TradeService{
		store:     store,
		quotes:    quotes,
		valuation: valuation,
		index:     index,
		events:    events,
		currency:  currency,
	}
}

// TradeResult 一次成交的结果
// 卖出拆到多个 stock 行时，Transaction 为整笔合计（id 取第一笔），明细在 Legs
type TradeResult struct {
	Transaction model.Transaction   `json:"transaction"`
	Legs        []model.Transaction `json:"legs,omitempty"`
	Symbol      string              `json:"symbol"`
	Name        string              `json:"name"`
	Cash        decimal.Decimal     `json:"cash"`
}

// QuickTradeResult 单股买卖的结果，附带刷新后的持仓行与总资产
// Portfolio 估值失败时为空（成交已提交）
type QuickTradeResult struct {
	TradeResult
	Holding   *model.Holding   `json:"holding,omitempty"`
	Portfolio *model.Portfolio `json:"-"`
}

func validateOrder(symbol string, quantity int64) (string, error) {
	symbol = quote.NormalizeSymbol(symbol)
	if symbol == "" {
		return "", fmt.Errorf("%w: symbol", ErrMissingField)
	}
	if quantity <= 0 {
		return "", ErrInvalidQuantity
	}
	return symbol, nil
}

func (s *TradeService) lookup(ctx context.Context, symbol string) (model.Quote, error) {
	q, err := s.quotes.Lookup(ctx, symbol)
	if err != nil {
		if !errors.Is(err, quote.ErrNotFound) {
			hlog.CtxWarnf(ctx, "[trade] quote lookup error, symbol=%s, err=%v", symbol, err)
		}
		return model.Quote{}, fmt.Errorf("%w: %s", ErrSymbolNotFound, symbol)
	}
	// 按金额列精度取整，保证 amount = quantity * price 入库后仍精确成立
	q.Price = q.Price.Round(model.MoneyScale)
	return q, nil
}

// Buy 按现价买入 quantity 股
func (s *TradeService) Buy(ctx context.Context, userID uint, symbol string, quantity int64) (*TradeResult, error) {
	symbol, err := validateOrder(symbol, quantity)
	if err != nil {
		return nil, err
	}
	q, err := s.lookup(ctx, symbol)
	if err != nil {
		return nil, err
	}
	cost := q.Price.Mul(decimal.NewFromInt(quantity))

	var (
		res      TradeResult
		newStock *model.Stock
	)
	err = s.store.Transaction(ctx, func(tx *pg.Store) error {
		user, err := tx.LockUser(ctx, userID)
		if err != nil {
			return err
		}
		if cost.GreaterThan(user.Cash) {
			return ErrInsufficientBalance
		}
		stock, created, err := tx.EnsureStock(ctx, q.Symbol, q.Name)
		if err != nil {
			return err
		}
		if created {
			newStock = stock
		}
		t := model.Transaction{
			StockID:  &stock.ID,
			UserID:   userID,
			Quantity: quantity,
			Price:    q.Price,
			Amount:   cost,
			Currency: s.currency,
			Visible:  true,
		}
		if err := tx.CreateTransaction(ctx, &t); err != nil {
			return err
		}
		cash := user.Cash.Sub(cost)
		if err := tx.UpdateCash(ctx, userID, cash); err != nil {
			return err
		}
		res = TradeResult{Transaction: t, Symbol: stock.Symbol, Name: stock.Name, Cash: cash}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if newStock != nil && s.index != nil {
		s.index.Add(*newStock)
	}
	s.committed(ctx, model.SideBuy, &res)
	return &res, nil
}

// Sell 按现价卖出 quantity 股，按该 symbol 的净持仓校验
// 同一 symbol 可能因显示名变更对应多个 stock，卖出按行拆分，任何一行都不会卖成负数
func (s *TradeService) Sell(ctx context.Context, userID uint, symbol string, quantity int64) (*TradeResult, error) {
	symbol, err := validateOrder(symbol, quantity)
	if err != nil {
		return nil, err
	}
	// 先做一次无锁预检，保证 symbol not held 优先于报价失败
	if _, err := s.heldPositions(ctx, s.store, userID, symbol, quantity); err != nil {
		return nil, err
	}
	q, err := s.lookup(ctx, symbol)
	if err != nil {
		return nil, err
	}
	proceeds := q.Price.Mul(decimal.NewFromInt(quantity))

	var res TradeResult
	err = s.store.Transaction(ctx, func(tx *pg.Store) error {
		user, err := tx.LockUser(ctx, userID)
		if err != nil {
			return err
		}
		positions, err := s.heldPositions(ctx, tx, userID, symbol, quantity)
		if err != nil {
			return err
		}
		legs := make([]model.Transaction, 0, 1)
		for _, leg := range allocateSell(positions, q.Name, quantity) {
			stockID := leg.StockID
			t := model.Transaction{
				StockID:  &stockID,
				UserID:   userID,
				Quantity: -leg.Quantity,
				Price:    q.Price,
				Amount:   q.Price.Mul(decimal.NewFromInt(leg.Quantity)).Neg(),
				Currency: s.currency,
				Visible:  true,
			}
			if err := tx.CreateTransaction(ctx, &t); err != nil {
				return err
			}
			legs = append(legs, t)
		}
		cash := user.Cash.Add(proceeds)
		if err := tx.UpdateCash(ctx, userID, cash); err != nil {
			return err
		}
		order := legs[0]
		order.Quantity = -quantity
		order.Amount = proceeds.Neg()
		res = TradeResult{Transaction: order, Symbol: positions[0].Symbol, Name: q.Name, Cash: cash}
		if len(legs) > 1 {
			res.Legs = legs
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.committed(ctx, model.SideSell, &res)
	return &res, nil
}

// heldPositions 用户在该 symbol 上数量大于 0 的持仓行，合计不足 quantity 时报错
func (s *TradeService) heldPositions(ctx context.Context, store *pg.Store, userID uint, symbol string, quantity int64) ([]model.Position, error) {
	txs, err := store.ListUserTransactions(ctx, userID)
	if err != nil {
		return nil, err
	}
	var (
		held []model.Position
		net  int64
	)
	for _, p := range AggregatePositions(txs) {
		if !strings.EqualFold(p.Symbol, symbol) || p.Quantity <= 0 {
			continue
		}
		held = append(held, p)
		net += p.Quantity
	}
	if len(held) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrSymbolNotHeld, symbol)
	}
	if quantity > net {
		return nil, ErrInsufficientQuantity
	}
	return held, nil
}

// allocateSell 先从与当前报价显示名一致的行扣减，其余按 stock id 顺序
// 调用方保证 positions 合计不少于 quantity
func allocateSell(positions []model.Position, name string, quantity int64) []model.Position {
	ordered := make([]model.Position, 0, len(positions))
	for _, p := range positions {
		if p.Name == name {
			ordered = append(ordered, p)
		}
	}
	for _, p := range positions {
		if p.Name != name {
			ordered = append(ordered, p)
		}
	}
	legs := make([]model.Position, 0, 1)
	for _, p := range ordered {
		if quantity == 0 {
			break
		}
		take := p.Quantity
		if take > quantity {
			take = quantity
		}
		p.Quantity = take
		legs = append(legs, p)
		quantity -= take
	}
	return legs
}

// BuyOne 买入 1 股并返回刷新后的持仓行
func (s *TradeService) BuyOne(ctx context.Context, userID uint, symbol string) (*QuickTradeResult, error) {
	res, err := s.Buy(ctx, userID, symbol, 1)
	if err != nil {
		return nil, err
	}
	return s.refresh(ctx, userID, res), nil
}

// SellOne 卖出 1 股；清仓后 Holding 为空
func (s *TradeService) SellOne(ctx context.Context, userID uint, symbol string) (*QuickTradeResult, error) {
	res, err := s.Sell(ctx, userID, symbol, 1)
	if err != nil {
		return nil, err
	}
	return s.refresh(ctx, userID, res), nil
}

func (s *TradeService) refresh(ctx context.Context, userID uint, res *TradeResult) *QuickTradeResult {
	out := &QuickTradeResult{TradeResult: *res}
	if s.valuation == nil {
		return out
	}
	portfolio, err := s.valuation.Portfolio(ctx, userID)
	if err != nil {
		hlog.CtxWarnf(ctx, "[trade] refresh portfolio failed, user=%d, err=%v", userID, err)
		return out
	}
	out.Portfolio = portfolio
	if h, ok := s.valuation.Holding(portfolio, res.Symbol); ok {
		out.Holding = &h
	}
	return out
}

func (s *TradeService) committed(ctx context.Context, side string, res *TradeResult) {
	t := res.Transaction
	logger.Log.Info("trade committed",
		zap.String("side", side),
		zap.Uint("user_id", t.UserID),
		zap.Uint("transaction_id", t.ID),
		zap.String("symbol", res.Symbol),
		zap.Int64("quantity", t.Quantity),
		zap.String("price", t.Price.String()),
		zap.String("amount", t.Amount.String()),
		zap.String("cash", res.Cash.String()),
	)
	eventID, err := util.GenerateEventID()
	if err != nil {
		hlog.CtxErrorf(ctx, "[trade] generate event id failed: %v", err)
		return
	}
	createdOn := t.CreatedOn
	if createdOn.IsZero() {
		createdOn = time.Now()
	}
	s.events.PublishTrade(ctx, model.TradeEvent{
		EventID:       eventID,
		TransactionID: t.ID,
		UserID:        t.UserID,
		Side:          side,
		Symbol:        res.Symbol,
		Name:          res.Name,
		Quantity:      t.Quantity,
		Price:         t.Price,
		Amount:        t.Amount,
		Cash:          res.Cash,
		Currency:      t.Currency,
		CreatedOn:     createdOn,
	})
}
