package handler

import (
	"context"
	"time"

	"finance-hertz/biz/model"
	"finance-hertz/biz/service"
	"finance-hertz/middleware"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/common/hlog"
	"github.com/cloudwego/hertz/pkg/protocol"
	"github.com/cloudwego/hertz/pkg/protocol/consts"
)

// Register 注册并直接登录
func (h *Handler) Register(ctx context.Context, c *app.RequestContext) {
	var req service.RegisterRequest
	if err := c.Bind(&req); err != nil {
		Error(c, consts.StatusBadRequest, CodeBadRequest, "invalid request")
		return
	}
	user, err := h.Auth.Register(ctx, req)
	if err != nil {
		Fail(ctx, c, err)
		return
	}
	h.startSession(ctx, c, user)
}

// Login 登录，失败统一返回 invalid username or password
func (h *Handler) Login(ctx context.Context, c *app.RequestContext) {
	var req service.LoginRequest
	if err := c.Bind(&req); err != nil {
		Error(c, consts.StatusBadRequest, CodeBadRequest, "invalid request")
		return
	}
	user, err := h.Auth.Login(ctx, req)
	if err != nil {
		Fail(ctx, c, err)
		return
	}
	h.startSession(ctx, c, user)
}

// Logout 吊销当前 token 并清除 cookie
func (h *Handler) Logout(ctx context.Context, c *app.RequestContext) {
	if err := h.Auth.Logout(ctx, middleware.Claims(c)); err != nil {
		hlog.CtxWarnf(ctx, "[Logout] revoke token failed: %v", err)
	}
	c.SetCookie(h.Auth.CookieName(), "", -1, "/", "", protocol.CookieSameSiteLaxMode, false, true)
	OK(c, nil)
}

func (h *Handler) startSession(ctx context.Context, c *app.RequestContext, user *model.User) {
	token, expires, err := h.Auth.IssueToken(user)
	if err != nil {
		Fail(ctx, c, err)
		return
	}
	maxAge := int(time.Until(expires).Seconds())
	c.SetCookie(h.Auth.CookieName(), token, maxAge, "/", "", protocol.CookieSameSiteLaxMode, false, true)
	OK(c, map[string]interface{}{
		"user":       user,
		"token":      token,
		"expires_at": expires,
	})
}
