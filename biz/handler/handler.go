package handler

import (
	"context"

	"finance-hertz/biz/quote"
	"finance-hertz/biz/service"
	"finance-hertz/middleware"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/protocol/consts"
)

// Handler 聚合各业务服务，路由注册见 server 包
type Handler struct {
	Auth      *service.AuthService
	Trade     *service.TradeService
	Valuation *service.Valuation
	History   *service.HistoryService
	Index     *service.SymbolIndex
	Quotes    quote.Provider
	Currency  string
	// Ping 健康检查，返回数据库连通性
	Ping func(ctx context.Context) error
}

func currentUser(c *app.RequestContext) (uint, bool) {
	id, ok := middleware.UserID(c)
	if !ok {
		Error(c, consts.StatusUnauthorized, CodeUnauthorized, "login required")
	}
	return id, ok
}

// Health 存活与数据库连通性检查
func (h *Handler) Health(ctx context.Context, c *app.RequestContext) {
	if h.Ping != nil {
		if err := h.Ping(ctx); err != nil {
			Error(c, consts.StatusServiceUnavailable, CodeServerErr, "database unavailable")
			return
		}
	}
	OK(c, map[string]interface{}{"status": "ok"})
}
