package middleware

import (
	"context"

	"github.com/cloudwego/hertz/pkg/app"
)

// NoCache 禁止浏览器与代理缓存响应（余额、持仓都是实时数据）
func NoCache() app.HandlerFunc {
	return func(ctx context.Context, c *app.RequestContext) {
		c.Next(ctx)
		c.Header("Cache-Control", "no-cache, no-store, must-revalidate")
		c.Header("Expires", "0")
		c.Header("Pragma", "no-cache")
	}
}
