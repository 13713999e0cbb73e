package handler

import (
	"context"

	"finance-hertz/biz/service"
	"finance-hertz/biz/util"

	"github.com/cloudwego/hertz/pkg/app"
)

type TradeRequest struct {
	Symbol string `json:"symbol" form:"symbol"`
	Shares int64  `json:"shares" form:"shares"`
}

type QuickTradeRequest struct {
	Symbol string `json:"symbol" form:"symbol"`
}

func (h *Handler) tradeView(res *service.TradeResult) map[string]interface{} {
	t := res.Transaction
	return map[string]interface{}{
		"transaction":    t,
		"symbol":         res.Symbol,
		"name":           res.Name,
		"cash":           res.Cash,
		"cash_display":   util.FormatMoney(res.Cash, t.Currency),
		"amount_display": util.FormatMoney(t.Amount.Abs(), t.Currency),
	}
}

// Buy 买入
func (h *Handler) Buy(ctx context.Context, c *app.RequestContext) {
	h.trade(ctx, c, h.Trade.Buy)
}

// Sell 卖出
func (h *Handler) Sell(ctx context.Context, c *app.RequestContext) {
	h.trade(ctx, c, h.Trade.Sell)
}

type tradeFunc func(ctx context.Context, userID uint, symbol string, quantity int64) (*service.TradeResult, error)

func (h *Handler) trade(ctx context.Context, c *app.RequestContext, fn tradeFunc) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	var req TradeRequest
	if err := c.Bind(&req); err != nil {
		Fail(ctx, c, service.ErrInvalidQuantity)
		return
	}
	res, err := fn(ctx, userID, req.Symbol, req.Shares)
	if err != nil {
		Fail(ctx, c, err)
		return
	}
	OK(c, h.tradeView(res))
}

// BuyOne 持仓页单股加仓
func (h *Handler) BuyOne(ctx context.Context, c *app.RequestContext) {
	h.quickTrade(ctx, c, h.Trade.BuyOne)
}

// SellOne 持仓页单股减仓
func (h *Handler) SellOne(ctx context.Context, c *app.RequestContext) {
	h.quickTrade(ctx, c, h.Trade.SellOne)
}

type quickTradeFunc func(ctx context.Context, userID uint, symbol string) (*service.QuickTradeResult, error)

// quickTrade 返回刷新后的持仓行；清仓后 quantity 为 0
func (h *Handler) quickTrade(ctx context.Context, c *app.RequestContext, fn quickTradeFunc) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	var req QuickTradeRequest
	if err := c.Bind(&req); err != nil {
		Fail(ctx, c, service.ErrMissingField)
		return
	}
	res, err := fn(ctx, userID, req.Symbol)
	if err != nil {
		Fail(ctx, c, err)
		return
	}
	data := h.tradeView(&res.TradeResult)
	data["success"] = true
	data["quantity"] = int64(0)
	if res.Holding != nil {
		data["quantity"] = res.Holding.Quantity
		data["price"] = res.Holding.CurrentPrice
		data["average_price"] = res.Holding.AveragePrice
		data["variation"] = res.Holding.Variation
		data["indicator"] = res.Holding.Indicator
		data["amount"] = res.Holding.Value
	} else {
		data["price"] = res.Transaction.Price
	}
	if res.Portfolio != nil {
		data["grand_total"] = res.Portfolio.GrandTotal
		data["grand_total_display"] = util.FormatMoney(res.Portfolio.GrandTotal, res.Portfolio.Currency)
	}
	OK(c, data)
}
