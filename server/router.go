package server

import (
	"finance-hertz/biz/handler"
	"finance-hertz/middleware"

	"github.com/cloudwego/hertz/pkg/route"
)

// Register 注册全部路由；hub 为空时不开放 /ws
func Register(r *route.Engine, h *handler.Handler, hub *Hub) {
	r.Use(middleware.NoCache())
	r.GET("/healthz", h.Health)

	api := r.Group("/api")
	api.POST("/register", h.Register)
	api.POST("/login", h.Login)

	authed := api.Group("", middleware.Auth(h.Auth))
	authed.POST("/logout", h.Logout)
	authed.GET("/quote", h.Quote)
	authed.GET("/portfolio", h.Portfolio)
	authed.POST("/buy", h.Buy)
	authed.POST("/sell", h.Sell)
	authed.POST("/buy_1", h.BuyOne)
	authed.POST("/sell_1", h.SellOne)
	authed.GET("/history", h.ListHistory)
	authed.GET("/history/export", h.ExportHistory)
	authed.GET("/stocks/search", h.SearchStocks)

	if hub != nil {
		r.GET("/ws", middleware.Auth(h.Auth), hub.Serve)
	}
}
