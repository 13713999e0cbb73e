package middleware

import (
	"context"
	"strings"

	"finance-hertz/biz/service"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/common/hlog"
	"github.com/cloudwego/hertz/pkg/protocol/consts"
)

const (
	UserIDKey = "user_id"
	ClaimsKey = "claims"
)

// TokenFromRequest 优先 Authorization: Bearer，其次会话 cookie
func TokenFromRequest(c *app.RequestContext, cookieName string) string {
	if h := string(c.GetHeader("Authorization")); h != "" {
		if token, ok := strings.CutPrefix(h, "Bearer "); ok {
			return strings.TrimSpace(token)
		}
	}
	return string(c.Cookie(cookieName))
}

// Auth 校验会话 token，通过后把用户 id 与 claims 写入上下文
func Auth(auth *service.AuthService) app.HandlerFunc {
	return func(ctx context.Context, c *app.RequestContext) {
		raw := TokenFromRequest(c, auth.CookieName())
		if raw == "" {
			c.AbortWithStatusJSON(consts.StatusUnauthorized, map[string]interface{}{
				"code":    40101,
				"message": "login required",
			})
			return
		}
		claims, err := auth.ParseToken(ctx, raw)
		if err != nil {
			hlog.CtxDebugf(ctx, "[Auth] reject token, path=%s, err=%v", c.Path(), err)
			c.AbortWithStatusJSON(consts.StatusUnauthorized, map[string]interface{}{
				"code":    40101,
				"message": "login required",
			})
			return
		}
		c.Set(UserIDKey, claims.UserID)
		c.Set(ClaimsKey, claims)
		c.Next(ctx)
	}
}

// UserID 当前登录用户
func UserID(c *app.RequestContext) (uint, bool) {
	v, ok := c.Get(UserIDKey)
	if !ok {
		return 0, false
	}
	id, ok := v.(uint)
	return id, ok
}

func Claims(c *app.RequestContext) *service.Claims {
	v, ok := c.Get(ClaimsKey)
	if !ok {
		return nil
	}
	claims, _ := v.(*service.Claims)
	return claims
}
