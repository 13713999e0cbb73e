package handler

import (
	"context"
	"errors"
	"strconv"

	"finance-hertz/biz/quote"
	"finance-hertz/biz/service"
	"finance-hertz/biz/util"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/common/hlog"
	"github.com/cloudwego/hertz/pkg/protocol/consts"
)

func parseLimit(limitStr string, defaultLimit, maxLimit int) int {
	if limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 {
			if l > maxLimit {
				return maxLimit
			}
			return l
		}
	}
	return defaultLimit
}

// Quote 查询实时报价
func (h *Handler) Quote(ctx context.Context, c *app.RequestContext) {
	symbol := quote.NormalizeSymbol(c.Query("symbol"))
	if symbol == "" {
		Error(c, consts.StatusBadRequest, CodeBadRequest, "missing field: symbol")
		return
	}
	q, err := h.Quotes.Lookup(ctx, symbol)
	if err != nil {
		if !errors.Is(err, quote.ErrNotFound) {
			hlog.CtxWarnf(ctx, "[Quote] lookup error, symbol=%s, err=%v", symbol, err)
		}
		Fail(ctx, c, service.ErrSymbolNotFound)
		return
	}
	OK(c, map[string]interface{}{
		"symbol":        q.Symbol,
		"name":          q.Name,
		"price":         q.Price,
		"price_display": util.FormatMoney(q.Price, h.Currency),
	})
}

// SearchStocks 按代码或名称前缀检索已交易过的股票
func (h *Handler) SearchStocks(ctx context.Context, c *app.RequestContext) {
	limit := parseLimit(c.Query("limit"), 10, 50)
	stocks := h.Index.Search(c.Query("q"), limit)
	items := make([]map[string]interface{}, 0, len(stocks))
	for _, st := range stocks {
		items = append(items, map[string]interface{}{
			"symbol": st.Symbol,
			"name":   st.Name,
		})
	}
	OK(c, items)
}
