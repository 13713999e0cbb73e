package handler

import (
	"context"
	"errors"

	"finance-hertz/biz/dal/pg"
	"finance-hertz/biz/service"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/common/hlog"
	"github.com/cloudwego/hertz/pkg/protocol/consts"
)

// 业务错误码
const (
	CodeOK             = 0
	CodeBadRequest     = 40001
	CodeSymbolNotFound = 40002
	CodeBalance        = 40003
	CodeQuantity       = 40004
	CodeNotHeld        = 40005
	CodeUsernameTaken  = 40006
	CodeUnauthorized   = 40101
	CodeForbidden      = 40301
	CodeServerErr      = 50001
)

type errorMapping struct {
	err    error
	status int
	code   int
}

var errorMappings = []errorMapping{
	{service.ErrSymbolNotFound, consts.StatusBadRequest, CodeSymbolNotFound},
	{service.ErrInsufficientBalance, consts.StatusBadRequest, CodeBalance},
	{service.ErrInsufficientQuantity, consts.StatusBadRequest, CodeQuantity},
	{service.ErrSymbolNotHeld, consts.StatusBadRequest, CodeNotHeld},
	{service.ErrUsernameTaken, consts.StatusBadRequest, CodeUsernameTaken},
	{service.ErrUsernameTooShort, consts.StatusBadRequest, CodeBadRequest},
	{service.ErrUsernameTooLong, consts.StatusBadRequest, CodeBadRequest},
	{service.ErrPasswordMismatch, consts.StatusBadRequest, CodeBadRequest},
	{service.ErrMissingField, consts.StatusBadRequest, CodeBadRequest},
	{service.ErrInvalidQuantity, consts.StatusBadRequest, CodeBadRequest},
	{service.ErrInvalidCredentials, consts.StatusForbidden, CodeForbidden},
}

// OK 成功响应
func OK(c *app.RequestContext, data interface{}) {
	c.JSON(consts.StatusOK, map[string]interface{}{
		"code":    CodeOK,
		"message": "ok",
		"data":    data,
	})
}

// Error 直接返回指定状态码与错误码
func Error(c *app.RequestContext, status, code int, message string) {
	c.JSON(status, map[string]interface{}{
		"code":    code,
		"message": message,
	})
}

// Fail 业务错误转成 4xx，其余记录日志后统一返回 internal error
func Fail(ctx context.Context, c *app.RequestContext, err error) {
	for _, m := range errorMappings {
		if errors.Is(err, m.err) {
			Error(c, m.status, m.code, err.Error())
			return
		}
	}
	if errors.Is(err, pg.ErrNotFound) {
		// token 有效但用户已不存在
		Error(c, consts.StatusUnauthorized, CodeUnauthorized, "login required")
		return
	}
	hlog.CtxErrorf(ctx, "[handler] %s %s failed: %v", c.Method(), c.Path(), err)
	Error(c, consts.StatusInternalServerError, CodeServerErr, "internal error")
}
